// Package cmd implements the warrig command tree.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/steveyegge/warrig/internal/config"
	"github.com/steveyegge/warrig/internal/style"
)

var (
	rootKubeconfig string
	rootNamespace  string
	rootConfigPath string
	rootVerbose    bool
	rootQuiet      bool
)

// cliConfig is the resolved configuration commands read. Populated by
// setup before any RunE executes.
var cliConfig config.Config

var rootCmd = &cobra.Command{
	Use:   "warrig",
	Short: "Stream exec sessions to pods over the channel protocol",
	Long: `warrig runs commands inside pods and bridges their stdin, stdout, and
stderr onto your terminal over a single multiplexed WebSocket.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootKubeconfig, "kubeconfig", "", "Path to the kubeconfig file (default: $KUBECONFIG or ~/.kube/config)")
	pf.StringVarP(&rootNamespace, "namespace", "n", "", "Pod namespace (default: from config)")
	pf.StringVar(&rootConfigPath, "config", "", "Path to warrig.toml (default: $XDG_CONFIG_HOME/warrig/warrig.toml)")
	pf.BoolVarP(&rootVerbose, "verbose", "v", false, "Enable debug logging")
	pf.BoolVarP(&rootQuiet, "quiet", "q", false, "Only log errors, no status output")
}

// setup resolves configuration (defaults < file < env < flags) and
// installs the default logger.
func setup(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	switch {
	case rootQuiet:
		level = slog.LevelError
	case rootVerbose:
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	path := rootConfigPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}
	if rootNamespace != "" {
		cfg.Namespace = rootNamespace
	}
	if rootKubeconfig != "" {
		cfg.Kubeconfig = rootKubeconfig
	}
	cliConfig = cfg
	return nil
}

// Execute runs the warrig command tree and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", style.Error.Render("error:"), err)
		os.Exit(1)
	}
}
