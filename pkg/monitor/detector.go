package monitor

import (
	"fmt"

	"github.com/vanderheijden86/cascadework/pkg/debug"
	"github.com/vanderheijden86/cascadework/pkg/health"
	"github.com/vanderheijden86/cascadework/pkg/metrics"
	"github.com/vanderheijden86/cascadework/pkg/model"
	"github.com/vanderheijden86/cascadework/pkg/timing"
)

// Detector classifies open transitions as normal, warning, or
// critical. Classification is computed fresh on every call; the only
// operation that mutates state is Cleanup, and only when asked to.
type Detector struct {
	tracker  *timing.Tracker
	policy   *ThresholdPolicy
	checker  health.Checker
	recorder *timing.Recorder
}

// NewDetector wires the detector's collaborators together.
func NewDetector(tracker *timing.Tracker, policy *ThresholdPolicy, checker health.Checker, recorder *timing.Recorder) *Detector {
	return &Detector{tracker: tracker, policy: policy, checker: checker, recorder: recorder}
}

// StuckItems returns every open transition whose elapsed time exceeds
// its threshold. stageFilter, when non-empty, keeps only items whose
// from-stage matches. Items at or under threshold are never included.
func (d *Detector) StuckItems(stageFilter string) []model.StuckItem {
	defer metrics.Timer(metrics.StuckScan)()

	var out []model.StuckItem
	for _, at := range d.tracker.Active() {
		if stageFilter != "" && at.Record.FromStage != stageFilter {
			continue
		}
		item, stuck := d.classify(at)
		if stuck {
			out = append(out, item)
		}
	}
	return out
}

// classify applies the threshold and severity rules to one open
// timing.
func (d *Detector) classify(at model.ActiveTiming) (model.StuckItem, bool) {
	threshold := d.policy.Threshold(at.Record.FromStage, at.Record.ToStage)
	item := model.StuckItem{
		TimingID:         at.Record.ID,
		ItemID:           at.Record.ItemID,
		FromStage:        at.Record.FromStage,
		ToStage:          at.Record.ToStage,
		ElapsedSeconds:   at.ElapsedSeconds,
		ThresholdSeconds: threshold,
		Severity:         model.SeverityNormal,
	}
	if at.ElapsedSeconds <= threshold {
		return item, false
	}

	// The max timeout is an independent ceiling: breaching it is
	// always critical regardless of how the threshold was derived.
	if at.ElapsedSeconds > d.policy.MaxTimeout(at.Record.FromStage) {
		item.Severity = model.SeverityCritical
	} else {
		item.Severity = model.SeverityWarning
	}
	return item, true
}

// Diagnostic explains the oldest open transition for an item, or nil
// when the item has nothing in flight. The reason follows a strict
// priority: worker health signals outrank record state, which outranks
// time-ratio reasoning.
func (d *Detector) Diagnostic(itemID string) *model.StuckDiagnostic {
	active := d.tracker.ActiveForItem(itemID)
	if len(active) == 0 {
		return nil
	}
	diag := d.diagnose(active[0])
	return &diag
}

func (d *Detector) diagnose(at model.ActiveTiming) model.StuckDiagnostic {
	item, _ := d.classify(at)

	var h model.ProcessHealth
	if at.Record.WorkerPID == nil {
		h = health.NoWorker()
	} else {
		h = d.checker.Check(at.Record.WorkerPID)
	}

	return model.StuckDiagnostic{
		StuckItem: item,
		Reason:    d.reason(at, item, h),
		Health:    &h,
	}
}

// reason picks the diagnostic explanation. First match wins.
func (d *Detector) reason(at model.ActiveTiming, item model.StuckItem, h model.ProcessHealth) string {
	hasWorker := at.Record.WorkerPID != nil
	switch {
	case hasWorker && h.IsZombie:
		return "process is zombie (needs cleanup)"
	case hasWorker && !h.Exists:
		return "process died unexpectedly"
	case hasWorker && h.Exists && !h.Running:
		return "process stopped but not marked complete"
	}

	// An open record can carry a failure note before (or instead of)
	// being completed; surface that ahead of time-based reasoning.
	if at.Record.ErrorMessage != nil && *at.Record.ErrorMessage != "" {
		return "execution failed"
	}

	if item.ThresholdSeconds > 0 {
		ratio := at.ElapsedSeconds / item.ThresholdSeconds
		switch {
		case ratio > 3:
			return fmt.Sprintf("severely exceeded expected time (%.1fx)", ratio)
		case ratio > 2:
			return fmt.Sprintf("significantly exceeded expected time (%.1fx)", ratio)
		default:
			return fmt.Sprintf("exceeded expected time (%.1fx)", ratio)
		}
	}
	return "unknown"
}

// Summary aggregates a stuck scan for dashboards.
func (d *Detector) Summary() model.StuckSummary {
	items := d.StuckItems("")
	sum := model.StuckSummary{
		Total:      len(items),
		ByStage:    make(map[string]int),
		BySeverity: make(map[model.Severity]int),
	}
	for i := range items {
		sum.ByStage[items[i].FromStage]++
		sum.BySeverity[items[i].Severity]++
		if sum.Oldest == nil || items[i].ElapsedSeconds > sum.Oldest.ElapsedSeconds {
			sum.Oldest = &items[i]
		}
	}
	return sum
}

// CleanupOptions controls Cleanup. DryRun reports what would happen
// without mutating anything; KillWorkers additionally terminates any
// still-present worker of a cleaned item.
type CleanupOptions struct {
	DryRun      bool
	KillWorkers bool
}

// Cleanup force-fails every critically stuck item. Warning-level items
// are never touched: they may still finish on their own. This is the
// only detector operation with side effects, and it runs only when
// explicitly invoked.
func (d *Detector) Cleanup(opts CleanupOptions) []model.CleanupAction {
	var actions []model.CleanupAction
	for _, at := range d.activeCritical() {
		diag := d.diagnose(at)
		action := model.CleanupAction{
			TimingID:     diag.TimingID,
			ItemID:       diag.ItemID,
			FromStage:    diag.FromStage,
			ToStage:      diag.ToStage,
			Reason:       diag.Reason,
			ErrorMessage: "stuck: " + diag.Reason,
		}

		if !opts.DryRun {
			if opts.KillWorkers && at.Record.WorkerPID != nil && diag.Health != nil && diag.Health.Exists {
				action.KilledWorker = d.checker.Kill(*at.Record.WorkerPID)
			}
			if err := d.recorder.Complete(diag.TimingID, false, action.ErrorMessage); err != nil {
				debug.Log("cleanup: completing %s failed: %v", diag.TimingID, err)
			} else {
				action.Executed = true
			}
		}
		actions = append(actions, action)
	}
	return actions
}

func (d *Detector) activeCritical() []model.ActiveTiming {
	var out []model.ActiveTiming
	for _, at := range d.tracker.Active() {
		if item, stuck := d.classify(at); stuck && item.Severity == model.SeverityCritical {
			out = append(out, at)
		}
	}
	return out
}
