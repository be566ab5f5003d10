//go:build windows

package health

import (
	"os"

	"github.com/vanderheijden86/cascadework/pkg/metrics"
	"github.com/vanderheijden86/cascadework/pkg/model"
)

// System probes real OS processes. Windows has no zombie state and no
// cheap run-state query, so a process that can be opened is reported
// as running.
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
	proc, err := os.FindProcess(*pid)
	if err != nil {
		return model.ProcessHealth{Exists: false, Reason: ReasonNotFound}
	}
	proc.Release()
	return model.ProcessHealth{Exists: true, Running: true}
}

// Kill terminates the worker. A process that is already gone counts as
// success.
func (System) Kill(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return true
	}
	defer proc.Release()
	return proc.Kill() == nil
}
