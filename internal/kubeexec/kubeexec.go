// Package kubeexec builds pod exec requests: the WebSocket URL for the
// pods/exec subresource and the dial options (TLS, credentials) derived
// from a kubeconfig.
package kubeexec

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/steveyegge/warrig/internal/transport"
)

// Request describes one exec invocation against a pod.
type Request struct {
	// Pod is the pod name.
	Pod string

	// Namespace the pod lives in.
	Namespace string

	// Container within the pod. Empty means the default container.
	Container string

	// Command is the program and its arguments.
	Command []string

	// Stdin, Stdout, Stderr select which streams the server wires up.
	Stdin  bool
	Stdout bool
	Stderr bool
}

// LoadConfig resolves the Kubernetes REST config. An explicit
// kubeconfig path wins; otherwise in-cluster config is tried first,
// then the default loading rules ($KUBECONFIG, ~/.kube/config).
func LoadConfig(kubeconfig string) (*rest.Config, error) {
	var (
		cfg *rest.Config
		err error
	)
	if kubeconfig != "" {
		cfg, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
	} else {
		cfg, err = rest.InClusterConfig()
		if err != nil {
			rules := clientcmd.NewDefaultClientConfigLoadingRules()
			cfg, err = clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
				rules, &clientcmd.ConfigOverrides{}).ClientConfig()
		}
	}
	if err != nil {
		return nil, fmt.Errorf("loading kubeconfig: %w", err)
	}
	setExecDefaults(cfg)
	return cfg, nil
}

// setExecDefaults fills in the content negotiation fields the REST
// client needs to address the core v1 pods/exec subresource.
func setExecDefaults(cfg *rest.Config) {
	if cfg.ContentConfig.GroupVersion == nil {
		cfg.ContentConfig.GroupVersion = &schema.GroupVersion{Version: "v1"}
	}
	if cfg.APIPath == "" {
		cfg.APIPath = "/api"
	}
	if cfg.ContentConfig.NegotiatedSerializer == nil {
		cfg.ContentConfig.NegotiatedSerializer = scheme.Codecs.WithoutConversion()
	}
}

// URL builds the WebSocket URL for the pods/exec subresource, with the
// command, container, and stream selections as query parameters.
func URL(cfg *rest.Config, req Request) (*url.URL, error) {
	if req.Pod == "" {
		return nil, errors.New("kubeexec: pod name required")
	}
	if req.Namespace == "" {
		return nil, errors.New("kubeexec: namespace required")
	}
	if len(req.Command) == 0 {
		return nil, errors.New("kubeexec: command required")
	}

	setExecDefaults(cfg)
	restClient, err := rest.RESTClientFor(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating REST client: %w", err)
	}

	u := restClient.Post().
		Resource("pods").
		Name(req.Pod).
		Namespace(req.Namespace).
		SubResource("exec").
		VersionedParams(&corev1.PodExecOptions{
			Container: req.Container,
			Command:   req.Command,
			Stdin:     req.Stdin,
			Stdout:    req.Stdout,
			Stderr:    req.Stderr,
		}, scheme.ParameterCodec).
		URL()

	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	return u, nil
}

// DialOptions derives WebSocket dial options from the REST config: TLS
// settings plus whatever credentials the kubeconfig carries.
func DialOptions(cfg *rest.Config) (transport.DialOptions, error) {
	tlsCfg, err := rest.TLSConfigFor(cfg)
	if err != nil {
		return transport.DialOptions{}, fmt.Errorf("building TLS config: %w", err)
	}

	header := http.Header{}
	token := cfg.BearerToken
	if token == "" && cfg.BearerTokenFile != "" {
		data, err := os.ReadFile(cfg.BearerTokenFile)
		if err != nil {
			return transport.DialOptions{}, fmt.Errorf("reading bearer token file: %w", err)
		}
		token = strings.TrimSpace(string(data))
	}
	switch {
	case token != "":
		header.Set("Authorization", "Bearer "+token)
	case cfg.Username != "":
		creds := base64.StdEncoding.EncodeToString([]byte(cfg.Username + ":" + cfg.Password))
		header.Set("Authorization", "Basic "+creds)
	}

	return transport.DialOptions{
		Header:    header,
		TLSConfig: tlsCfg,
	}, nil
}
