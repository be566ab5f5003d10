package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/cascadework/internal/datasource"
	"github.com/vanderheijden86/cascadework/pkg/config"
	"github.com/vanderheijden86/cascadework/pkg/health"
	"github.com/vanderheijden86/cascadework/pkg/model"
	"github.com/vanderheijden86/cascadework/pkg/monitor"
	"github.com/vanderheijden86/cascadework/pkg/stage"
	"github.com/vanderheijden86/cascadework/pkg/stats"
	"github.com/vanderheijden86/cascadework/pkg/timing"
	"github.com/vanderheijden86/cascadework/pkg/version"
)

func main() {
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")

	statsFlag := flag.Bool("stats", false, "Show transition statistics")
	activeFlag := flag.Bool("active", false, "Show in-flight transitions")
	stuckFlag := flag.Bool("stuck", false, "Show stuck items")
	summaryFlag := flag.Bool("summary", false, "Show a stuck-item summary")
	diagnoseFlag := flag.Bool("diagnose", false, "Diagnose one item (use with --item)")
	cleanupFlag := flag.Bool("cleanup", false, "Force-fail critically stuck items")
	etaFlag := flag.Bool("eta", false, "Estimate remaining time (use with --stage from->to and --elapsed)")

	robot := flag.Bool("robot", false, "Emit machine-readable JSON instead of styled text")
	dryRun := flag.Bool("dry-run", false, "With --cleanup, report actions without executing them")
	kill := flag.Bool("kill", false, "With --cleanup, also terminate surviving workers")

	stageFlag := flag.String("stage", "", "Stage filter for --stuck, or a from->to pair for --eta")
	item := flag.String("item", "", "Item id for --diagnose")
	elapsed := flag.Float64("elapsed", -1, "Elapsed seconds for --eta")

	dbPath := flag.String("db", "", "Timing database path (overrides config)")
	configPath := flag.String("config", "", "Config file path (default: XDG config dir)")
	topologyPath := flag.String("topology", "", "Stage topology YAML (overrides config)")
	window := flag.Int("window", 0, "Rolling window in days (overrides config)")
	multiplier := flag.Float64("multiplier", 0, "Threshold multiplier (overrides config)")
	flag.Parse()

	if *help {
		fmt.Println("Usage: cwatch [options]")
		fmt.Println("\nStage-timing monitor and stuck-item detector for cascade pipelines.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *versionFlag {
		fmt.Printf("cwatch %s\n", version.Version)
		os.Exit(0)
	}

	cfg, cfgErr := loadConfig(*configPath)
	if cfgErr != nil {
		// Non-fatal: continue with defaults.
		fmt.Fprintf(os.Stderr, "Warning: %v\n", cfgErr)
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *topologyPath != "" {
		cfg.TopologyPath = *topologyPath
	}
	if *window > 0 {
		cfg.Stats.WindowDays = *window
	}
	if *multiplier > 0 {
		cfg.Threshold.Multiplier = *multiplier
	}

	topo, err := loadTopology(cfg.TopologyPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading topology: %v\n", err)
		os.Exit(1)
	}

	store, err := datasource.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening timing database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	engine := stats.NewEngine(store, topo, nil, cfg.Stats.WindowDays)
	policy := monitor.NewThresholdPolicy(engine, topo, monitor.ThresholdOptions{
		Multiplier: cfg.Threshold.Multiplier,
		MinSamples: cfg.Threshold.MinSamples,
	})
	tracker := timing.NewTracker(store, nil)
	recorder := timing.NewRecorder(store, topo, nil)
	detector := monitor.NewDetector(tracker, policy, health.NewSystem(), recorder)
	estimator := monitor.NewEstimator(engine, topo)

	switch {
	case *statsFlag:
		runStats(engine, topo, *robot)
	case *activeFlag:
		runActive(tracker, *item, *robot)
	case *stuckFlag:
		runStuck(detector, *stageFlag, *robot)
	case *summaryFlag:
		runSummary(detector, *robot)
	case *diagnoseFlag:
		if *item == "" {
			fmt.Fprintln(os.Stderr, "Error: --diagnose requires --item")
			os.Exit(2)
		}
		runDiagnose(detector, *item, *robot)
	case *cleanupFlag:
		runCleanup(detector, *dryRun, *kill, *robot)
	case *etaFlag:
		from, to, ok := parseTransition(*stageFlag)
		if !ok || *elapsed < 0 {
			fmt.Fprintln(os.Stderr, "Error: --eta requires --stage from->to and --elapsed seconds")
			os.Exit(2)
		}
		runETA(estimator, from, to, *elapsed, *robot)
	default:
		fmt.Fprintln(os.Stderr, "Error: no action given (try --stats, --active, --stuck, --summary, --diagnose, --cleanup, or --eta)")
		os.Exit(2)
	}
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

func loadTopology(path string) (*stage.Topology, error) {
	if path == "" {
		return stage.Default(), nil
	}
	return stage.LoadFile(path)
}

// parseTransition splits a "from->to" pair.
func parseTransition(s string) (string, string, bool) {
	from, to, found := strings.Cut(s, "->")
	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)
	if !found || from == "" || to == "" {
		return "", "", false
	}
	return from, to, true
}

// collectAllStats queries every configured transition in parallel,
// preserving topology order in the result.
func collectAllStats(ctx context.Context, engine *stats.Engine, topo *stage.Topology) []model.StageStats {
	transitions := topo.Transitions()
	results := make([]*model.StageStats, len(transitions))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, tr := range transitions {
		i, tr := i, tr
		g.Go(func() error {
			results[i] = engine.Stats(tr.From, tr.To)
			return nil
		})
	}
	_ = g.Wait()

	var out []model.StageStats
	for _, s := range results {
		if s != nil {
			out = append(out, *s)
		}
	}
	return out
}

func runStats(engine *stats.Engine, topo *stage.Topology, robot bool) {
	all := collectAllStats(context.Background(), engine, topo)
	if robot {
		out := newRobotOutput("stats")
		out.Stats = all
		if err := writeRobotOutput(os.Stdout, out); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing JSON: %v\n", err)
			os.Exit(1)
		}
		return
	}
	renderStats(os.Stdout, all)
}

func runActive(tracker *timing.Tracker, itemID string, robot bool) {
	var active []model.ActiveTiming
	if itemID != "" {
		active = tracker.ActiveForItem(itemID)
	} else {
		active = tracker.Active()
	}
	if robot {
		out := newRobotOutput("active")
		out.Active = active
		if err := writeRobotOutput(os.Stdout, out); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing JSON: %v\n", err)
			os.Exit(1)
		}
		return
	}
	renderActive(os.Stdout, active)
}

func runStuck(detector *monitor.Detector, stageFilter string, robot bool) {
	items := detector.StuckItems(stageFilter)
	if robot {
		out := newRobotOutput("stuck")
		out.Stuck = items
		if err := writeRobotOutput(os.Stdout, out); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing JSON: %v\n", err)
			os.Exit(1)
		}
		return
	}
	renderStuck(os.Stdout, items)
}

func runSummary(detector *monitor.Detector, robot bool) {
	sum := detector.Summary()
	if robot {
		out := newRobotOutput("summary")
		out.Summary = &sum
		if err := writeRobotOutput(os.Stdout, out); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing JSON: %v\n", err)
			os.Exit(1)
		}
		return
	}
	renderSummary(os.Stdout, sum)
}

func runDiagnose(detector *monitor.Detector, itemID string, robot bool) {
	diag := detector.Diagnostic(itemID)
	if robot {
		out := newRobotOutput("diagnose")
		out.Diagnostic = diag
		if err := writeRobotOutput(os.Stdout, out); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing JSON: %v\n", err)
			os.Exit(1)
		}
		return
	}
	renderDiagnostic(os.Stdout, itemID, diag)
}

func runCleanup(detector *monitor.Detector, dryRun, kill, robot bool) {
	actions := detector.Cleanup(monitor.CleanupOptions{DryRun: dryRun, KillWorkers: kill})
	if robot {
		out := newRobotOutput("cleanup")
		out.Cleanup = actions
		if err := writeRobotOutput(os.Stdout, out); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing JSON: %v\n", err)
			os.Exit(1)
		}
		return
	}
	renderCleanup(os.Stdout, actions, dryRun)
}

func runETA(estimator *monitor.Estimator, from, to string, elapsed float64, robot bool) {
	remaining, ok := estimator.Remaining(from, to, elapsed)
	eta := robotETA{
		FromStage:        from,
		ToStage:          to,
		ElapsedSeconds:   elapsed,
		RemainingSeconds: remaining,
		Known:            ok,
	}
	if robot {
		out := newRobotOutput("eta")
		out.ETA = &eta
		if err := writeRobotOutput(os.Stdout, out); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing JSON: %v\n", err)
			os.Exit(1)
		}
		return
	}
	renderETA(os.Stdout, eta)
}
