package main

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/cascadework/pkg/model"
)

var (
	styleHeader   = lipgloss.NewStyle().Bold(true)
	styleMuted    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleOK       = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleWarning  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	styleCritical = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
)

func severityLabel(sev model.Severity) string {
	switch sev {
	case model.SeverityCritical:
		return styleCritical.Render("CRITICAL")
	case model.SeverityWarning:
		return styleWarning.Render("WARNING")
	default:
		return styleOK.Render("normal")
	}
}

type robotOutput struct {
	GeneratedAt string `json:"generated_at"`
	Command     string `json:"command"`

	Stats      []model.StageStats     `json:"stats,omitempty"`
	Active     []model.ActiveTiming   `json:"active,omitempty"`
	Stuck      []model.StuckItem      `json:"stuck,omitempty"`
	Summary    *model.StuckSummary    `json:"summary,omitempty"`
	Diagnostic *model.StuckDiagnostic `json:"diagnostic,omitempty"`
	Cleanup    []model.CleanupAction  `json:"cleanup,omitempty"`
	ETA        *robotETA              `json:"eta,omitempty"`
}

type robotETA struct {
	FromStage        string  `json:"from_stage"`
	ToStage          string  `json:"to_stage"`
	ElapsedSeconds   float64 `json:"elapsed_seconds"`
	RemainingSeconds float64 `json:"remaining_seconds"`
	Known            bool    `json:"known"`
}

func newRobotOutput(command string) robotOutput {
	return robotOutput{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Command:     command,
	}
}

func writeRobotOutput(w io.Writer, out robotOutput) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func renderStats(w io.Writer, all []model.StageStats) {
	if len(all) == 0 {
		fmt.Fprintln(w, styleMuted.Render("no completed transitions in window"))
		return
	}
	fmt.Fprintln(w, styleHeader.Render("Transition statistics"))
	for _, s := range all {
		fmt.Fprintf(w, "  %s -> %s  n=%d  avg=%s median=%s p95=%s min=%s max=%s success=%.0f%%\n",
			s.FromStage, s.ToStage, s.Count,
			model.FormatDuration(s.AvgSeconds),
			model.FormatDuration(s.MedianSeconds),
			model.FormatDuration(s.P95Seconds),
			model.FormatDuration(s.MinSeconds),
			model.FormatDuration(s.MaxSeconds),
			s.SuccessRate*100)
	}
}

func renderActive(w io.Writer, active []model.ActiveTiming) {
	if len(active) == 0 {
		fmt.Fprintln(w, styleMuted.Render("nothing in flight"))
		return
	}
	fmt.Fprintln(w, styleHeader.Render("Active transitions"))
	for _, at := range active {
		worker := ""
		if at.Record.WorkerPID != nil {
			worker = fmt.Sprintf("  pid=%d", *at.Record.WorkerPID)
		}
		fmt.Fprintf(w, "  %s  %s -> %s  running %s%s\n",
			at.Record.ItemID, at.Record.FromStage, at.Record.ToStage,
			model.FormatDuration(at.ElapsedSeconds), worker)
	}
}

func renderStuck(w io.Writer, items []model.StuckItem) {
	if len(items) == 0 {
		fmt.Fprintln(w, styleOK.Render("nothing stuck"))
		return
	}
	fmt.Fprintln(w, styleHeader.Render("Stuck items"))
	for _, it := range items {
		fmt.Fprintf(w, "  %s  %s  %s -> %s  elapsed %s (threshold %s)\n",
			severityLabel(it.Severity), it.ItemID, it.FromStage, it.ToStage,
			model.FormatDuration(it.ElapsedSeconds),
			model.FormatDuration(it.ThresholdSeconds))
	}
}

func renderSummary(w io.Writer, sum model.StuckSummary) {
	if sum.Total == 0 {
		fmt.Fprintln(w, styleOK.Render("nothing stuck"))
		return
	}
	fmt.Fprintf(w, "%s %d\n", styleHeader.Render("Stuck total:"), sum.Total)
	for stage, n := range sum.ByStage {
		fmt.Fprintf(w, "  stage %-10s %d\n", stage, n)
	}
	for sev, n := range sum.BySeverity {
		fmt.Fprintf(w, "  %-16s %d\n", severityLabel(sev), n)
	}
	if sum.Oldest != nil {
		fmt.Fprintf(w, "  oldest: %s (%s -> %s, %s)\n",
			sum.Oldest.ItemID, sum.Oldest.FromStage, sum.Oldest.ToStage,
			model.FormatDuration(sum.Oldest.ElapsedSeconds))
	}
}

func renderDiagnostic(w io.Writer, itemID string, diag *model.StuckDiagnostic) {
	if diag == nil {
		fmt.Fprintf(w, "%s\n", styleMuted.Render("no open transition for "+itemID))
		return
	}
	fmt.Fprintf(w, "%s  %s -> %s\n",
		styleHeader.Render(diag.ItemID), diag.FromStage, diag.ToStage)
	fmt.Fprintf(w, "  severity:  %s\n", severityLabel(diag.Severity))
	fmt.Fprintf(w, "  elapsed:   %s (threshold %s)\n",
		model.FormatDuration(diag.ElapsedSeconds),
		model.FormatDuration(diag.ThresholdSeconds))
	fmt.Fprintf(w, "  reason:    %s\n", diag.Reason)
	if diag.Health != nil {
		fmt.Fprintf(w, "  worker:    exists=%v running=%v zombie=%v (%s)\n",
			diag.Health.Exists, diag.Health.Running, diag.Health.IsZombie, diag.Health.Reason)
	}
}

func renderCleanup(w io.Writer, actions []model.CleanupAction, dryRun bool) {
	if len(actions) == 0 {
		fmt.Fprintln(w, styleOK.Render("nothing to clean up"))
		return
	}
	verb := "cleaned"
	if dryRun {
		verb = "would clean"
	}
	for _, a := range actions {
		killed := ""
		if a.KilledWorker {
			killed = ", worker killed"
		}
		fmt.Fprintf(w, "  %s %s (%s -> %s): %s%s\n",
			verb, a.ItemID, a.FromStage, a.ToStage, a.Reason, killed)
	}
}

func renderETA(w io.Writer, eta robotETA) {
	if !eta.Known {
		fmt.Fprintf(w, "%s\n", styleMuted.Render(fmt.Sprintf(
			"no estimate for %s -> %s after %s",
			eta.FromStage, eta.ToStage, model.FormatDuration(eta.ElapsedSeconds))))
		return
	}
	fmt.Fprintf(w, "%s -> %s: about %s remaining\n",
		eta.FromStage, eta.ToStage, model.FormatDuration(eta.RemainingSeconds))
}
