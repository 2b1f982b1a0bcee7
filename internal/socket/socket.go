// Package socket manages the Unix domain socket between dynhostsd and its
// clients.
package socket

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

var (
	// ErrAddressInUse is returned by Listen when a live daemon already
	// answers on the socket.
	ErrAddressInUse = errors.New("address already in use")
	// ErrNotRunning is returned by Connect when no daemon answers before the
	// startup timeout, or the daemon process is gone.
	ErrNotRunning = errors.New("daemon not running")
)

// DefaultProcessName is the daemon executable looked for by Connect.
const DefaultProcessName = "dynhostsd"

// Config tunes Connect and Listen.
type Config struct {
	// StartupTimeout bounds how long Connect keeps retrying.
	StartupTimeout time.Duration
	// RetryInterval is the pause between connection attempts.
	RetryInterval time.Duration
	// Permissions is applied to the socket file after Listen.
	Permissions os.FileMode
	// ProcessName is the daemon executable name.
	ProcessName string
	// Grace is how long after construction Connect retries without asking
	// the process checker, to cover a daemon that is still starting.
	Grace time.Duration
}

// DefaultConfig returns the settings used by the package-level helpers.
func DefaultConfig() *Config {
	return &Config{
		StartupTimeout: 5 * time.Second,
		RetryInterval:  250 * time.Millisecond,
		Permissions:    defaultPermissions(),
		ProcessName:    DefaultProcessName,
		Grace:          2 * time.Second,
	}
}

// Socket connects to and listens on the daemon socket.
type Socket struct {
	config  *Config
	checker ProcessChecker
	created time.Time
}

// New returns a Socket. A nil cfg means DefaultConfig.
func New(cfg *Config, checker ProcessChecker) *Socket {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Socket{
		config:  cfg,
		checker: checker,
		created: time.Now(),
	}
}

// ConnectContext dials path with the default configuration.
func ConnectContext(ctx context.Context, path string) (net.Conn, error) {
	return New(nil, &DefaultProcessChecker{}).Connect(ctx, path)
}

// Listen listens on path with the default configuration.
func Listen(path string) (net.Listener, error) {
	return New(nil, &DefaultProcessChecker{}).Listen(path)
}

// Connect dials path, retrying every RetryInterval until it succeeds, ctx is
// done, StartupTimeout passes, or the daemon process is no longer running.
func (s *Socket) Connect(ctx context.Context, path string) (net.Conn, error) {
	deadline := time.Now().Add(s.config.StartupTimeout)
	var d net.Dialer

	for {
		conn, err := d.DialContext(ctx, "unix", path)
		if err == nil {
			return conn, nil
		}
		if !s.shouldRetry(deadline) {
			return nil, fmt.Errorf("%w: %v", ErrNotRunning, err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.config.RetryInterval):
		}
	}
}

// Listen creates the socket directory if needed, clears a stale socket file
// and listens on path with the configured permissions.
func (s *Socket) Listen(path string) (net.Listener, error) {
	if err := s.ensureDir(path); err != nil {
		return nil, err
	}
	if err := clearStale(path); err != nil {
		return nil, err
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("creating socket listener: %w", err)
	}
	if err := os.Chmod(path, s.config.Permissions); err != nil {
		ln.Close()
		return nil, fmt.Errorf("setting socket permissions: %w", err)
	}
	return ln, nil
}

func (s *Socket) shouldRetry(deadline time.Time) bool {
	if time.Now().After(deadline) {
		return false
	}
	if time.Since(s.created) < s.config.Grace {
		return true
	}
	return s.checker.IsRunning(s.config.ProcessName)
}

func (s *Socket) ensureDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating socket directory: %w", err)
	}

	// A world-writable socket is useless inside a directory others cannot search.
	if s.config.Permissions == 0o666 {
		if fi, err := os.Stat(dir); err == nil && fi.Mode()&0o077 == 0 {
			if err := os.Chmod(dir, 0o755); err != nil {
				return fmt.Errorf("setting directory permissions: %w", err)
			}
		}
	}
	return nil
}

// clearStale fails if a daemon answers on path, and removes the file otherwise.
func clearStale(path string) error {
	if conn, err := net.Dial("unix", path); err == nil {
		_ = conn.Close()
		return ErrAddressInUse
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale socket: %w", err)
	}
	return nil
}

func defaultPermissions() os.FileMode {
	switch runtime.GOOS {
	case "linux", "darwin", "freebsd":
		return 0o666
	default:
		return 0o600
	}
}
