// Package config loads the optional warrig.toml and layers WARRIG_*
// environment overrides on top. Precedence, lowest to highest:
// built-in defaults, config file, environment, command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Duration decodes TOML and environment values like "10s" or "1m30s".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Config holds the CLI defaults.
type Config struct {
	// Namespace is the default pod namespace.
	Namespace string `toml:"namespace"`

	// Container is the default container name. Empty picks the pod's
	// default container.
	Container string `toml:"container"`

	// Kubeconfig is an explicit kubeconfig path. Empty uses in-cluster
	// config or the standard loading rules.
	Kubeconfig string `toml:"kubeconfig"`

	// ReadyTimeout bounds how long exec waits for the session to open.
	ReadyTimeout Duration `toml:"ready_timeout"`

	// StopGrace bounds how long closing waits for the input pump.
	StopGrace Duration `toml:"stop_grace"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Namespace:    "default",
		ReadyTimeout: Duration(10 * time.Second),
		StopGrace:    Duration(10 * time.Second),
	}
}

// DefaultPath returns the per-user config file location,
// $XDG_CONFIG_HOME/warrig/warrig.toml on Linux.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config directory: %w", err)
	}
	return filepath.Join(dir, "warrig", "warrig.toml"), nil
}

// Load reads the TOML file at path over the built-in defaults. A
// missing file is not an error; the defaults come back unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("decoding %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv layers WARRIG_* environment variables over c. Unset and
// empty variables leave the existing values alone.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("WARRIG_NAMESPACE"); v != "" {
		c.Namespace = v
	}
	if v := os.Getenv("WARRIG_CONTAINER"); v != "" {
		c.Container = v
	}
	if v := os.Getenv("WARRIG_KUBECONFIG"); v != "" {
		c.Kubeconfig = v
	}
	if v := os.Getenv("WARRIG_READY_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parsing WARRIG_READY_TIMEOUT: %w", err)
		}
		c.ReadyTimeout = Duration(d)
	}
	if v := os.Getenv("WARRIG_STOP_GRACE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parsing WARRIG_STOP_GRACE: %w", err)
		}
		c.StopGrace = Duration(d)
	}
	return nil
}
