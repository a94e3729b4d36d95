package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pageanalytics/internal/apptest"
	"pageanalytics/internal/host"
	"pageanalytics/internal/sink"
	"pageanalytics/internal/tracker"
	"pageanalytics/internal/usage"
)

var (
	demoSessions    int
	demoParallel    int
	demoSink        string
	demoMaskText    bool
	demoMaskAll     bool
	demoRecipesFile string
	demoSummary     bool
)

// demoCmd runs scripted sessions against the simulated host
var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run instrumented demo sessions and print their events",
	Long: `Runs a small application on the simulated host once per session. Each
session gets its own tracker, render state and session id, then a scripted
user types a name, clicks a button and switches pages. Every resulting event
is printed as one JSON line.`,
	Args: cobra.NoArgs,
	RunE: runDemo,
}

func init() {
	demoCmd.Flags().IntVarP(&demoSessions, "sessions", "n", 1, "Number of sessions")
	demoCmd.Flags().IntVar(&demoParallel, "parallel", 4, "Sessions run concurrently")
	demoCmd.Flags().StringVar(&demoSink, "sink", "writer", "Event sink: writer (command output) or zap (stdout logger)")
	demoCmd.Flags().BoolVar(&demoMaskText, "mask-text", false, "Redact text input values (overrides config when set)")
	demoCmd.Flags().BoolVar(&demoMaskAll, "mask-all", false, "Redact every value (overrides config when set)")
	demoCmd.Flags().StringVarP(&demoRecipesFile, "recipes", "r", "", "Recipe file (default: config recipes_path, then built-in)")
	demoCmd.Flags().BoolVar(&demoSummary, "summary", true, "Print per-action event counts to stderr when done")
}

func runDemo(cmd *cobra.Command, args []string) error {
	if demoSessions < 1 {
		return fmt.Errorf("--sessions must be at least 1, got %d", demoSessions)
	}
	if demoParallel < 1 {
		return fmt.Errorf("--parallel must be at least 1, got %d", demoParallel)
	}
	if demoSink != "writer" && demoSink != "zap" {
		return fmt.Errorf("unknown --sink %q (valid: writer, zap)", demoSink)
	}

	table, err := loadRecipes(demoRecipesFile)
	if err != nil {
		return err
	}
	level, err := cfg.EventLevel()
	if err != nil {
		return err
	}

	opts := tracker.Options{
		Name:                cfg.Name,
		UserID:              cfg.UserID,
		LogLevel:            level,
		MaskTextInputValues: cfg.Masking.TextInputs || demoMaskText,
		MaskAllValues:       cfg.Masking.AllValues || demoMaskAll,
		Recipes:             table,
	}
	var next sink.Sink
	if demoSink == "writer" {
		next = sink.NewWriter(cmd.OutOrStdout(), level)
	} else {
		zs, err := sink.NewDefault(cfg.Name, level)
		if err != nil {
			return err
		}
		defer zs.Sync()
		next = zs
	}
	counter := usage.NewCounter(next)
	opts.Sink = counter

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(demoParallel)
	for i := 0; i < demoSessions; i++ {
		sessionOpts := opts
		sessionOpts.SessionID = demoSessionID()
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return runDemoSession(sessionOpts)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	stats := counter.Stats()
	logger.Info("Demo finished", zap.Int("sessions", demoSessions), zap.Int64("events", stats.Total))
	if demoSummary {
		printSummary(cmd.ErrOrStderr(), stats)
	}
	return nil
}

func printSummary(out io.Writer, stats usage.AggregatedStats) {
	t := newSimpleTable(fmt.Sprintf("%d events in %d sessions", stats.Total, len(stats.BySession)), "ACTION", "EVENTS")
	actions := make([]string, 0, len(stats.ByAction))
	for a := range stats.ByAction {
		actions = append(actions, a)
	}
	sort.Strings(actions)
	for _, a := range actions {
		t.AddRow(a, strconv.FormatInt(stats.ByAction[a], 10))
	}
	fmt.Fprint(out, t.View(defaultTableStyles()))
}

// demoSessionID uses the configured session id for a single session and
// random ids otherwise.
func demoSessionID() string {
	if demoSessions == 1 && cfg.SessionID != "" && cfg.SessionID != tracker.DefaultSessionID {
		return cfg.SessionID
	}
	return uuid.NewString()
}

// runDemoSession drives one scripted user through the demo app.
func runDemoSession(opts tracker.Options) error {
	var t *tracker.Tracker
	page := "Home"

	app := apptest.New(func(st, sidebar *host.Namespace) {
		t.StartTracking(page)
		sidebar.Call("selectbox", []any{"Page", []string{"Home", "Settings"}}, map[string]any{"key": "nav"})
		if page == "Home" {
			st.Call("text_input", []any{"Your name"}, nil)
			st.Call("button", []any{"Say hello"}, nil)
		} else {
			st.Call("checkbox", []any{"Dark mode"}, map[string]any{"key": "dark"})
		}
	})

	var err error
	t, err = tracker.New(tracker.Host{
		Namespaces: []*host.Namespace{app.Main, app.Sidebar},
		State:      app.State,
		Version:    cfg.HostVersion,
	}, opts)
	if err != nil {
		return err
	}
	defer t.StopTracking()

	steps := []func() error{
		app.Run,
		func() error { return setValue(app, "text_input", "Ada Lovelace") },
		app.Run,
		func() error { return click(app, "button") },
		app.Run,
		func() error {
			page = "Settings"
			return setValue(app, "selectbox", "Settings")
		},
		app.Run,
		func() error { return setValue(app, "checkbox", true) },
		app.Run,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return fmt.Errorf("session %s: %w", t.SessionID(), err)
		}
	}
	return nil
}

func firstElement(app *apptest.App, typ string) (*apptest.Element, error) {
	els := app.Elements(typ)
	if len(els) == 0 {
		return nil, fmt.Errorf("no %s rendered", typ)
	}
	return els[0], nil
}

func setValue(app *apptest.App, typ string, v any) error {
	e, err := firstElement(app, typ)
	if err != nil {
		return err
	}
	e.SetValue(v)
	return nil
}

func click(app *apptest.App, typ string) error {
	e, err := firstElement(app, typ)
	if err != nil {
		return err
	}
	e.Click()
	return nil
}
