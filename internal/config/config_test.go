package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v, want nil for a missing file", err)
	}
	if cfg != Default() {
		t.Errorf("Load() = %+v, want built-in defaults", cfg)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "warrig.toml")
	body := `
namespace = "wasteland"
container = "rig"
kubeconfig = "/tmp/kc"
ready_timeout = "3s"
stop_grace = "500ms"
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Namespace != "wasteland" {
		t.Errorf("Namespace = %q, want %q", cfg.Namespace, "wasteland")
	}
	if cfg.Container != "rig" {
		t.Errorf("Container = %q, want %q", cfg.Container, "rig")
	}
	if cfg.Kubeconfig != "/tmp/kc" {
		t.Errorf("Kubeconfig = %q, want %q", cfg.Kubeconfig, "/tmp/kc")
	}
	if got := time.Duration(cfg.ReadyTimeout); got != 3*time.Second {
		t.Errorf("ReadyTimeout = %v, want 3s", got)
	}
	if got := time.Duration(cfg.StopGrace); got != 500*time.Millisecond {
		t.Errorf("StopGrace = %v, want 500ms", got)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "warrig.toml")
	if err := os.WriteFile(path, []byte(`namespace = "pits"`), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Namespace != "pits" {
		t.Errorf("Namespace = %q, want %q", cfg.Namespace, "pits")
	}
	if got := time.Duration(cfg.ReadyTimeout); got != 10*time.Second {
		t.Errorf("ReadyTimeout = %v, want the 10s default", got)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "warrig.toml")
	if err := os.WriteFile(path, []byte(`ready_timeout = "not a duration"`), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load() succeeded on a malformed duration")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("WARRIG_NAMESPACE", "bullet-farm")
	t.Setenv("WARRIG_CONTAINER", "sidecar")
	t.Setenv("WARRIG_KUBECONFIG", "/etc/kc")
	t.Setenv("WARRIG_READY_TIMEOUT", "7s")
	t.Setenv("WARRIG_STOP_GRACE", "2s")

	cfg := Default()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}
	if cfg.Namespace != "bullet-farm" {
		t.Errorf("Namespace = %q, want %q", cfg.Namespace, "bullet-farm")
	}
	if cfg.Container != "sidecar" {
		t.Errorf("Container = %q, want %q", cfg.Container, "sidecar")
	}
	if cfg.Kubeconfig != "/etc/kc" {
		t.Errorf("Kubeconfig = %q, want %q", cfg.Kubeconfig, "/etc/kc")
	}
	if got := time.Duration(cfg.ReadyTimeout); got != 7*time.Second {
		t.Errorf("ReadyTimeout = %v, want 7s", got)
	}
	if got := time.Duration(cfg.StopGrace); got != 2*time.Second {
		t.Errorf("StopGrace = %v, want 2s", got)
	}
}

func TestApplyEnvIgnoresUnset(t *testing.T) {
	t.Setenv("WARRIG_NAMESPACE", "")
	t.Setenv("WARRIG_CONTAINER", "")
	t.Setenv("WARRIG_KUBECONFIG", "")
	t.Setenv("WARRIG_READY_TIMEOUT", "")
	t.Setenv("WARRIG_STOP_GRACE", "")

	cfg := Default()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}
	if cfg != Default() {
		t.Errorf("ApplyEnv() with empty vars changed the config: %+v", cfg)
	}
}

func TestApplyEnvRejectsBadDuration(t *testing.T) {
	t.Setenv("WARRIG_READY_TIMEOUT", "soon")

	cfg := Default()
	if err := cfg.ApplyEnv(); err == nil {
		t.Error("ApplyEnv() succeeded on a malformed duration")
	}
}
