// Package config loads and validates the dynhosts daemon and CLI
// configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lc/dynhosts/internal/filesys"
)

var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrNoConfig is returned when the configuration file is not found.
	ErrNoConfig = errors.New("configuration file not found")
)

const (
	// DefaultSocketPath is the default path for the Unix socket.
	DefaultSocketPath = "/var/run/dynhostsd.socket"
	// DefaultConfigPath is the default config location, relative to $HOME.
	DefaultConfigPath = ".dynhosts/config.yaml"
	// DefaultResolverTimeout bounds one upstream pin lookup.
	DefaultResolverTimeout = 5 * time.Second
	// DefaultResolverRetries is the number of extra attempts per DNS question.
	DefaultResolverRetries = 1
)

// Config holds the application configuration.
type Config struct {
	Socket   SocketConfig   `yaml:"socket"`
	Hosts    HostsConfig    `yaml:"hosts"`
	Resolver ResolverConfig `yaml:"resolver"`
}

// SocketConfig holds socket-related configuration.
type SocketConfig struct {
	Path string `yaml:"path"`
}

// HostsConfig lists the seed documents loaded into the table at startup.
type HostsConfig struct {
	SeedFiles []string `yaml:"seed_files"`
}

// ResolverConfig configures the upstream resolver used for pinning.
type ResolverConfig struct {
	Servers []string      `yaml:"servers"`
	Timeout time.Duration `yaml:"timeout"`
	Retries uint          `yaml:"retries"`
}

// Provider loads configuration.
type Provider interface {
	Load() (*Config, error)
}

// FSProvider loads configuration from a YAML file.
type FSProvider struct {
	fs   filesys.ReadWriteFS
	path string
}

var _ Provider = (*FSProvider)(nil)

// New returns a provider for ~/.dynhosts/config.yaml. If the home directory
// cannot be determined the path is resolved against the working directory.
func New() Provider {
	home, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not determine home directory: %v\n", err)
		home = ""
	}
	return NewWithPath(filesys.OS(), filepath.Join(home, DefaultConfigPath))
}

// NewWithPath returns a provider reading path through fs.
func NewWithPath(fs filesys.ReadWriteFS, path string) Provider {
	return &FSProvider{
		fs:   fs,
		path: path,
	}
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Socket: SocketConfig{
			Path: DefaultSocketPath,
		},
		Resolver: ResolverConfig{
			Timeout: DefaultResolverTimeout,
			Retries: DefaultResolverRetries,
		},
	}
}

// Load reads the configuration file, falling back to Default when it does
// not exist. Fields missing from the file keep their default values.
func (p *FSProvider) Load() (*Config, error) {
	_ = p.ensureConfigDir()

	cfg, err := p.loadAndParse()
	if err != nil {
		if errors.Is(err, ErrNoConfig) {
			return Default(), nil
		}
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return cfg, nil
}

// Validate checks the configuration to ensure all required fields are set.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Socket.Path) == "" {
		return errors.New("socket path cannot be empty")
	}
	for i, f := range c.Hosts.SeedFiles {
		if strings.TrimSpace(f) == "" {
			return fmt.Errorf("seed file %d cannot be empty", i)
		}
	}
	for i, s := range c.Resolver.Servers {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("resolver server %d cannot be empty", i)
		}
	}
	if c.Resolver.Timeout < time.Second {
		return errors.New("resolver timeout must be at least 1 second")
	}
	return nil
}

func (p *FSProvider) ensureConfigDir() error {
	dir := filepath.Dir(p.path)
	if _, err := p.fs.Stat(dir); os.IsNotExist(err) {
		if err := p.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	return nil
}

func (p *FSProvider) loadAndParse() (*Config, error) {
	f, err := p.fs.Open(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoConfig
		}
		return nil, fmt.Errorf("opening config file: %w", err)
	}
	defer f.Close()

	cfg := Default()
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("decoding config file: %w", err)
	}

	return cfg, nil
}
