// Package health inspects the OS processes doing stage work. The
// stuck detector uses it to tell a slow worker from a dead one.
//
// Health states are deliberately not errors: a vanished or
// uninspectable process is a first-class answer, not a failure. A
// process that cannot be inspected (permissions) is reported as
// existing, since it cannot be proven dead.
package health

import (
	"sync"

	"github.com/vanderheijden86/cascadework/pkg/model"
)

// Reason strings surfaced in ProcessHealth and diagnostics.
const (
	ReasonNoWorker     = "no worker recorded"
	ReasonNotFound     = "process not found"
	ReasonAccessDenied = "access denied to process"
	ReasonZombie       = "process is zombie"
	ReasonStopped      = "process stopped"
)

// Checker reports worker process health and terminates workers.
type Checker interface {
	// Check classifies the referenced worker. A nil pid means no
	// worker was recorded for the transition.
	Check(pid *int) model.ProcessHealth

	// Kill terminates the worker, best-effort. A process that is
	// already gone counts as success.
	Kill(pid int) bool
}

// NoWorker is the health of a transition with no recorded worker.
func NoWorker() model.ProcessHealth {
	return model.ProcessHealth{Exists: false, Reason: ReasonNoWorker}
}

// Scripted is a Checker test double returning pre-seeded health states.
// Unknown pids report as not found. Kill calls are recorded.
type Scripted struct {
	mu     sync.Mutex
	states map[int]model.ProcessHealth
	killed []int

	// KillResult is returned by Kill (default false for unknown pids,
	// true for seeded ones).
	KillResult map[int]bool
}

// NewScripted creates an empty scripted checker.
func NewScripted() *Scripted {
	return &Scripted{
		states:     make(map[int]model.ProcessHealth),
		KillResult: make(map[int]bool),
	}
}

// Set seeds the health state for a pid.
func (s *Scripted) Set(pid int, h model.ProcessHealth) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[pid] = h
}

// Check returns the seeded state, or a not-found health for unknown
// pids.
func (s *Scripted) Check(pid *int) model.ProcessHealth {
	if pid == nil {
		return NoWorker()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.states[*pid]; ok {
		return h
	}
	return model.ProcessHealth{Exists: false, Reason: ReasonNotFound}
}

// Kill records the call and returns the seeded result.
func (s *Scripted) Kill(pid int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.killed = append(s.killed, pid)
	return s.KillResult[pid]
}

// Killed returns the pids Kill was called with, in order.
func (s *Scripted) Killed() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.killed...)
}
