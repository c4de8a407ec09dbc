// Package config handles neighborctl's client configuration for connecting
// to daemons, plus the daemon's own on-disk configuration.
//
// Client config is stored at $XDG_CONFIG_HOME/neighbord/config.yaml
// (defaults to ~/.config/neighbord/config.yaml) and follows the
// kubeconfig pattern: named contexts with a current-context selector.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Context describes how to connect to a neighbord daemon.
type Context struct {
	Socket string `yaml:"socket,omitempty"` // unix socket path
	Host   string `yaml:"host,omitempty"`   // user@host for SSH
}

// Target returns the dial target for this context — Socket takes precedence.
func (c Context) Target() string {
	if c.Socket != "" {
		return c.Socket
	}
	return c.Host
}

// Config holds named daemon contexts and the current selection.
type Config struct {
	CurrentContext string             `yaml:"current-context"`
	Contexts       map[string]Context `yaml:"contexts"`
}

// Path returns the config file location. It respects XDG_CONFIG_HOME,
// falling back to ~/.config/neighbord/config.yaml.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".config", "neighbord", "config.yaml")
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "neighbord", "config.yaml")
}

// Load reads the config file. If the file does not exist, an empty Config
// is returned (not an error).
func Load() (*Config, error) {
	data, err := os.ReadFile(Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{Contexts: make(map[string]Context)}, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Contexts == nil {
		cfg.Contexts = make(map[string]Context)
	}
	return &cfg, nil
}

// Save writes the config to disk, creating directories as needed.
func (c *Config) Save() error {
	p := Path()
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Current returns the current context name and value.
// The bool is false when no current context is set.
func (c *Config) Current() (string, Context, bool) {
	if c.CurrentContext == "" {
		return "", Context{}, false
	}
	ctx, ok := c.Contexts[c.CurrentContext]
	if !ok {
		return "", Context{}, false
	}
	return c.CurrentContext, ctx, true
}

// Use sets the current context. It returns an error if the name doesn't exist.
func (c *Config) Use(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}
	c.CurrentContext = name
	return nil
}

// Set adds or updates a named context.
func (c *Config) Set(name string, ctx Context) {
	c.Contexts[name] = ctx
}

// Remove deletes a context. If it was the current context, current-context
// is cleared. Returns an error if the name doesn't exist.
func (c *Config) Remove(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}
	delete(c.Contexts, name)
	if c.CurrentContext == name {
		c.CurrentContext = ""
	}
	return nil
}

// DaemonConfig is the daemon's own on-disk configuration, loaded from
// /etc/neighbord/config.yaml unless overridden on the command line. Its
// shape deliberately mirrors Config/Context above: a small YAML document
// loaded with the same gopkg.in/yaml.v3 decoder and the same
// load-missing-file-as-defaults behavior, rather than a second, divergent
// config mechanism for the daemon side.
type DaemonConfig struct {
	SocketPath        string        `yaml:"socket-path,omitempty"`
	EnabledProtocols  []string      `yaml:"enabled-protocols,omitempty"`
	ScanInterval      time.Duration `yaml:"scan-interval,omitempty"`
	DisabledInterfaces []string     `yaml:"disabled-interfaces,omitempty"`
}

// DefaultDaemonConfigPath is where the daemon looks for its configuration
// unless told otherwise.
const DefaultDaemonConfigPath = "/etc/neighbord/config.yaml"

// defaultEnabledProtocols lists every protocol the daemon speaks unless
// narrowed by configuration.
var defaultEnabledProtocols = []string{"lldp", "cdp", "edp", "sonmp", "fdp"}

// LoadDaemonConfig reads a DaemonConfig from path, returning defaults (not
// an error) if the file does not exist — a fresh install should run with
// sane behavior before an administrator ever writes a config file.
func LoadDaemonConfig(path string) (*DaemonConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultDaemonConfig(), nil
		}
		return nil, fmt.Errorf("read daemon config: %w", err)
	}
	cfg := defaultDaemonConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse daemon config: %w", err)
	}
	if len(cfg.EnabledProtocols) == 0 {
		cfg.EnabledProtocols = defaultEnabledProtocols
	}
	return cfg, nil
}

func defaultDaemonConfig() *DaemonConfig {
	return &DaemonConfig{
		SocketPath:       "/var/run/neighbord.sock",
		EnabledProtocols: defaultEnabledProtocols,
		ScanInterval:     30 * time.Second,
	}
}
