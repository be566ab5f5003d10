// Package model defines the value types shared across cascadework:
// timing records, derived statistics, stuck-item classifications, and
// process health snapshots. Query layers return these explicit types
// rather than raw row maps so callers get compile-time field checking.
package model

import (
	"fmt"
	"strings"
	"time"
)

// TimingRecord is one row per attempted stage transition. A record is
// created open (CompletedAt nil) when the transition begins and is
// mutated exactly once, at completion. Completed records are immutable.
type TimingRecord struct {
	ID              string     `json:"id"`
	ItemID          string     `json:"item_id"`
	FromStage       string     `json:"from_stage"`
	ToStage         string     `json:"to_stage"`
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	DurationSeconds *float64   `json:"duration_seconds,omitempty"`
	Success         bool       `json:"success"`
	ErrorMessage    *string    `json:"error_message,omitempty"`
	WorkerPID       *int       `json:"worker_pid,omitempty"`
}

// Open reports whether the record is still in progress.
func (r TimingRecord) Open() bool {
	return r.CompletedAt == nil
}

// Validate checks structural invariants of a record.
func (r TimingRecord) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("timing record has empty id")
	}
	if r.ItemID == "" {
		return fmt.Errorf("timing record %s has empty item_id", r.ID)
	}
	if strings.TrimSpace(r.FromStage) == "" || strings.TrimSpace(r.ToStage) == "" {
		return fmt.Errorf("timing record %s has empty stage names", r.ID)
	}
	if r.StartedAt.IsZero() {
		return fmt.Errorf("timing record %s has zero started_at", r.ID)
	}
	if r.CompletedAt != nil && r.CompletedAt.Before(r.StartedAt) {
		return fmt.Errorf("timing record %s completed before it started", r.ID)
	}
	if r.CompletedAt == nil && r.DurationSeconds != nil {
		return fmt.Errorf("timing record %s has a duration but no completion time", r.ID)
	}
	return nil
}

// StageStats summarizes completed transitions for one stage pair inside
// a rolling window. Durations come from successful completions only;
// SuccessRate is computed over all completions in the window.
type StageStats struct {
	FromStage     string  `json:"from_stage"`
	ToStage       string  `json:"to_stage"`
	Count         int     `json:"count"`
	AvgSeconds    float64 `json:"avg_seconds"`
	MedianSeconds float64 `json:"median_seconds"`
	P95Seconds    float64 `json:"p95_seconds"`
	MinSeconds    float64 `json:"min_seconds"`
	MaxSeconds    float64 `json:"max_seconds"`
	SuccessRate   float64 `json:"success_rate"`
}

// ActiveTiming is an open record plus its age at query time.
// It is recomputed on every query, never cached.
type ActiveTiming struct {
	Record         TimingRecord `json:"record"`
	ElapsedSeconds float64      `json:"elapsed_seconds"`
}

// Severity grades how badly a stuck item has overrun its threshold.
type Severity string

const (
	// SeverityNormal only appears in diagnostics: items inside their
	// threshold are never listed as stuck.
	SeverityNormal   Severity = "normal"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// StuckItem is an open transition that has exceeded its stuck threshold.
type StuckItem struct {
	TimingID         string   `json:"timing_id"`
	ItemID           string   `json:"item_id"`
	FromStage        string   `json:"from_stage"`
	ToStage          string   `json:"to_stage"`
	ElapsedSeconds   float64  `json:"elapsed_seconds"`
	ThresholdSeconds float64  `json:"threshold_seconds"`
	Severity         Severity `json:"severity"`
}

// StuckDiagnostic pairs a stuck item with its most likely cause and the
// health of any linked worker process.
type StuckDiagnostic struct {
	StuckItem
	Reason string         `json:"reason"`
	Health *ProcessHealth `json:"health,omitempty"`
}

// StuckSummary aggregates a stuck scan for dashboards.
type StuckSummary struct {
	Total      int              `json:"total"`
	ByStage    map[string]int   `json:"by_stage"`
	BySeverity map[Severity]int `json:"by_severity"`
	Oldest     *StuckItem       `json:"oldest,omitempty"`
}

// CleanupAction describes one proposed (or performed) force-completion
// of a critical stuck item.
type CleanupAction struct {
	TimingID     string `json:"timing_id"`
	ItemID       string `json:"item_id"`
	FromStage    string `json:"from_stage"`
	ToStage      string `json:"to_stage"`
	Reason       string `json:"reason"`
	ErrorMessage string `json:"error_message"`
	Executed     bool   `json:"executed"`
	KilledWorker bool   `json:"killed_worker,omitempty"`
}

// ProcessHealth is a point-in-time liveness snapshot of a worker process.
// AccessDenied processes are reported as existing: a process that cannot
// be inspected cannot be proven dead.
type ProcessHealth struct {
	Exists       bool   `json:"exists"`
	Running      bool   `json:"running"`
	IsZombie     bool   `json:"is_zombie"`
	AccessDenied bool   `json:"access_denied"`
	Reason       string `json:"reason,omitempty"`
}
