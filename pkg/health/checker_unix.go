//go:build unix

package health

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/vanderheijden86/cascadework/pkg/metrics"
	"github.com/vanderheijden86/cascadework/pkg/model"
)

// System probes real OS processes: signal 0 for existence, the procfs
// state field for zombie/stopped detection where procfs is available.
type System struct{}

// NewSystem returns the platform Checker.
func NewSystem() *System {
	return &System{}
}

// Check classifies the worker process.
func (System) Check(pid *int) model.ProcessHealth {
	defer metrics.Timer(metrics.HealthProbe)()

	if pid == nil {
		return NoWorker()
	}

	err := unix.Kill(*pid, 0)
	switch {
	case errors.Is(err, unix.ESRCH):
		return model.ProcessHealth{Exists: false, Reason: ReasonNotFound}
	case errors.Is(err, unix.EPERM):
		// Exists but cannot be inspected. It cannot be proven dead, so
		// report it alive.
		return model.ProcessHealth{Exists: true, Running: true, AccessDenied: true, Reason: ReasonAccessDenied}
	case err != nil:
		return model.ProcessHealth{Exists: false, Reason: fmt.Sprintf("probe failed: %v", err)}
	}

	state, ok := procState(*pid)
	if !ok {
		// No procfs (or unreadable): existence is all we know.
		return model.ProcessHealth{Exists: true, Running: true}
	}
	switch state {
	case 'Z':
		return model.ProcessHealth{Exists: true, Running: false, IsZombie: true, Reason: ReasonZombie}
	case 'T', 't':
		return model.ProcessHealth{Exists: true, Running: false, Reason: ReasonStopped}
	default:
		return model.ProcessHealth{Exists: true, Running: true}
	}
}

// Kill sends SIGKILL. A process that is already gone counts as
// success.
func (System) Kill(pid int) bool {
	err := unix.Kill(pid, unix.SIGKILL)
	return err == nil || errors.Is(err, unix.ESRCH)
}

// procState reads the single-character state field from
// /proc/<pid>/stat. The comm field can contain spaces and parentheses,
// so the state is located after the last ')'.
func procState(pid int) (byte, bool) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return 0, false
	}
	s := string(data)
	end := strings.LastIndexByte(s, ')')
	if end < 0 || end+2 >= len(s) {
		return 0, false
	}
	rest := strings.TrimSpace(s[end+1:])
	if rest == "" {
		return 0, false
	}
	return rest[0], true
}
