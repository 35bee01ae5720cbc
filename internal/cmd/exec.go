package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/steveyegge/warrig/internal/kubeexec"
	"github.com/steveyegge/warrig/internal/session"
	"github.com/steveyegge/warrig/internal/style"
	"github.com/steveyegge/warrig/internal/transport"
)

var (
	execContainer string
	execStdin     bool
	execRawURL    string
	execTimeout   time.Duration
)

var execCmd = &cobra.Command{
	Use:   "exec POD -- COMMAND [ARGS...]",
	Short: "Run a command in a pod and stream its output",
	Long: `Run a command inside a pod, streaming its stdout and stderr to this
terminal. With --stdin, local input is forwarded line by line.

The exec endpoint is resolved from the kubeconfig. Pass --url to dial a
channel-protocol endpoint directly, in which case the pod and command
come from the URL and positional arguments must be omitted.`,
	Example: `  warrig exec web-0 -- ls -l /var/log
  warrig exec -n wasteland -c sidecar web-0 -- tail -n 50 /var/log/app.log
  warrig exec -i web-0 -- sh
  warrig exec -i --url "ws://localhost:8080/exec?cmd=cat"`,
	Args: cobra.ArbitraryArgs,
	RunE: runExec,
}

func init() {
	rootCmd.AddCommand(execCmd)
	execCmd.Flags().StringVarP(&execContainer, "container", "c", "", "Container name (default: the pod's first container)")
	execCmd.Flags().BoolVarP(&execStdin, "stdin", "i", false, "Forward local standard input to the remote command")
	execCmd.Flags().StringVar(&execRawURL, "url", "", "Dial this exec endpoint directly instead of resolving one")
	execCmd.Flags().DurationVar(&execTimeout, "timeout", 0, "How long to wait for the session to open (default: from config)")
}

// execTarget is a dialable exec endpoint.
type execTarget struct {
	url      string
	dialOpts transport.DialOptions
}

func runExec(cmd *cobra.Command, args []string) error {
	target, err := resolveEndpoint(cmd.ArgsLenAtDash(), args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	timeout := execTimeout
	if timeout <= 0 {
		timeout = time.Duration(cliConfig.ReadyTimeout)
	}

	opts := session.Options{
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		StopGrace: time.Duration(cliConfig.StopGrace),
	}
	if execStdin {
		opts.Stdin = os.Stdin
	}
	sess := session.New(opts)
	defer sess.Close()

	if !rootQuiet {
		fmt.Fprintln(os.Stderr, style.Dim.Render("connecting to "+target.url))
	}
	ws, err := transport.Dial(ctx, target.url, target.dialOpts, sess)
	if err != nil {
		return err
	}
	defer ws.Close()

	readyCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := sess.WaitReady(readyCtx); err != nil {
		return fmt.Errorf("session never opened: %w", err)
	}

	if execStdin && !rootQuiet && term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(os.Stderr, style.Dim.Render("forwarding stdin; ctrl-d ends input"))
	}

	select {
	case <-ws.Done():
	case <-ctx.Done():
		if !rootQuiet {
			fmt.Fprintln(os.Stderr, style.Warning.Render("interrupted"))
		}
	}
	return nil
}

// resolveEndpoint picks between a raw --url endpoint and one built from
// the kubeconfig plus POD -- COMMAND arguments. dash is the positional
// index of the -- separator, -1 when absent.
func resolveEndpoint(dash int, args []string) (execTarget, error) {
	if execRawURL != "" {
		if len(args) > 0 {
			return execTarget{}, errors.New("--url carries the pod and command; positional arguments must be omitted")
		}
		u, err := url.Parse(execRawURL)
		if err != nil {
			return execTarget{}, fmt.Errorf("parsing --url: %w", err)
		}
		if u.Scheme != "ws" && u.Scheme != "wss" {
			return execTarget{}, fmt.Errorf("unsupported scheme %q: --url must be ws or wss", u.Scheme)
		}
		return execTarget{url: u.String()}, nil
	}

	if dash != 1 || len(args) < 2 {
		return execTarget{}, errors.New("usage: warrig exec [flags] POD -- COMMAND [ARGS...]")
	}
	pod, command := args[0], args[1:]

	container := execContainer
	if container == "" {
		container = cliConfig.Container
	}

	restCfg, err := kubeexec.LoadConfig(cliConfig.Kubeconfig)
	if err != nil {
		return execTarget{}, err
	}
	u, err := kubeexec.URL(restCfg, kubeexec.Request{
		Pod:       pod,
		Namespace: cliConfig.Namespace,
		Container: container,
		Command:   command,
		Stdin:     execStdin,
		Stdout:    true,
		Stderr:    true,
	})
	if err != nil {
		return execTarget{}, err
	}
	dialOpts, err := kubeexec.DialOptions(restCfg)
	if err != nil {
		return execTarget{}, err
	}
	return execTarget{url: u.String(), dialOpts: dialOpts}, nil
}
