package socket

import (
	"strings"

	"github.com/mitchellh/go-ps"
)

var _ ProcessChecker = (*DefaultProcessChecker)(nil)

// ProcessChecker reports whether a named process is running.
type ProcessChecker interface {
	IsRunning(name string) bool
}

// DefaultProcessChecker scans the process table with go-ps.
type DefaultProcessChecker struct{}

// IsRunning reports whether any process executable starts with name,
// ignoring case. Errors reading the process table count as not running.
func (*DefaultProcessChecker) IsRunning(name string) bool {
	procs, err := ps.Processes()
	if err != nil {
		return false
	}
	for _, p := range procs {
		exe := p.Executable()
		if len(exe) >= len(name) && strings.EqualFold(exe[:len(name)], name) {
			return true
		}
	}
	return false
}
