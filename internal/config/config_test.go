package config_test

import (
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/lc/dynhosts/internal/config"
)

type ConfigTestSuite struct {
	suite.Suite
	fs       mockFS
	provider config.Provider
}

// mockFS serves file contents from memory; Open copies them into a temp file.
type mockFS struct {
	t     *testing.T
	files map[string]string
}

func (m mockFS) Stat(path string) (os.FileInfo, error) {
	if _, ok := m.files[path]; !ok {
		return nil, os.ErrNotExist
	}
	return nil, nil
}

func (m mockFS) MkdirAll(_ string, _ os.FileMode) error {
	return nil
}

func (m mockFS) Open(path string) (*os.File, error) {
	content, ok := m.files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	tmp, err := os.CreateTemp(m.t.TempDir(), "config-*")
	if err != nil {
		return nil, err
	}
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return nil, err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, err
	}
	return tmp, nil
}

func (m mockFS) WriteFile(path string, content []byte, _ os.FileMode) error {
	m.files[path] = string(content)
	return nil
}

func (s *ConfigTestSuite) SetupTest() {
	s.fs = mockFS{
		t:     s.T(),
		files: make(map[string]string),
	}
	s.provider = config.NewWithPath(s.fs, "test/config.yaml")
}

func (s *ConfigTestSuite) TestLoadDefaultWhenNoFile() {
	cfg, err := s.provider.Load()

	s.Require().NoError(err)
	s.Equal(config.Default(), cfg)
	s.Equal(config.DefaultSocketPath, cfg.Socket.Path)
	s.Equal(config.DefaultResolverTimeout, cfg.Resolver.Timeout)
	s.Empty(cfg.Hosts.SeedFiles)
}

func (s *ConfigTestSuite) TestLoadValidConfig() {
	s.fs.files["test/config.yaml"] = `
socket:
  path: /custom/socket
hosts:
  seed_files:
    - /etc/dynhosts/seed.yaml
    - /etc/dynhosts/extra.toml
resolver:
  servers: ["8.8.8.8:53"]
  timeout: 10s
  retries: 3
`
	cfg, err := s.provider.Load()

	s.Require().NoError(err)
	s.Equal("/custom/socket", cfg.Socket.Path)
	s.Equal([]string{"/etc/dynhosts/seed.yaml", "/etc/dynhosts/extra.toml"}, cfg.Hosts.SeedFiles)
	s.Equal([]string{"8.8.8.8:53"}, cfg.Resolver.Servers)
	s.Equal(10*time.Second, cfg.Resolver.Timeout)
	s.Equal(uint(3), cfg.Resolver.Retries)
}

func (s *ConfigTestSuite) TestLoadPartialConfigKeepsDefaults() {
	s.fs.files["test/config.yaml"] = `
hosts:
  seed_files: [seed.json]
`
	cfg, err := s.provider.Load()

	s.Require().NoError(err)
	s.Equal(config.DefaultSocketPath, cfg.Socket.Path)
	s.Equal(config.DefaultResolverTimeout, cfg.Resolver.Timeout)
	s.Equal(uint(config.DefaultResolverRetries), cfg.Resolver.Retries)
	s.Equal([]string{"seed.json"}, cfg.Hosts.SeedFiles)
}

func (s *ConfigTestSuite) TestLoadInvalidConfig() {
	s.fs.files["test/config.yaml"] = `
socket:
  path: ""
`
	_, err := s.provider.Load()

	s.ErrorIs(err, config.ErrInvalidConfig)
	s.ErrorContains(err, "socket path cannot be empty")
}

func (s *ConfigTestSuite) TestValidation() {
	valid := func() config.Config {
		return *config.Default()
	}

	testCases := []struct {
		name        string
		mutate      func(*config.Config)
		expectedErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*config.Config) {},
		},
		{
			name:        "empty socket path",
			mutate:      func(c *config.Config) { c.Socket.Path = "" },
			expectedErr: "socket path cannot be empty",
		},
		{
			name:        "socket path only whitespace",
			mutate:      func(c *config.Config) { c.Socket.Path = "   \t\n" },
			expectedErr: "socket path cannot be empty",
		},
		{
			name:        "blank seed file",
			mutate:      func(c *config.Config) { c.Hosts.SeedFiles = []string{"a.yaml", " "} },
			expectedErr: "seed file 1 cannot be empty",
		},
		{
			name:        "blank resolver server",
			mutate:      func(c *config.Config) { c.Resolver.Servers = []string{""} },
			expectedErr: "resolver server 0 cannot be empty",
		},
		{
			name:        "resolver timeout zero",
			mutate:      func(c *config.Config) { c.Resolver.Timeout = 0 },
			expectedErr: "resolver timeout must be at least 1 second",
		},
		{
			name:        "resolver timeout too short",
			mutate:      func(c *config.Config) { c.Resolver.Timeout = 500 * time.Millisecond },
			expectedErr: "resolver timeout must be at least 1 second",
		},
		{
			name:   "resolver timeout exactly 1 second",
			mutate: func(c *config.Config) { c.Resolver.Timeout = time.Second },
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			cfg := valid()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.expectedErr == "" {
				s.NoError(err)
				return
			}
			s.ErrorContains(err, tc.expectedErr)
		})
	}
}

func (s *ConfigTestSuite) TestLoadInvalidYAML() {
	s.fs.files["test/config.yaml"] = `
socket:
  path: [invalid: yaml]
`
	_, err := s.provider.Load()

	s.ErrorContains(err, "decoding config file")
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}
