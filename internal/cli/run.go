package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"rtsim/internal/render"
	"rtsim/internal/sched"
	"rtsim/internal/store"
)

type runOptions struct {
	policy   string
	preset   string
	file     string
	quantum  int64
	ticks    int
	maxTicks int
	realtime bool
	tickMS   int
	speed    int
	csvPath  string
	dbPath   string
	verbose  bool
	cell     int64
}

func newRunCmd(g *globals) *cobra.Command {
	o := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulation and print the timeline, task table and statistics",
		Long: "Run steps the simulation until every one-shot task has finished (or --ticks steps).\n" +
			"With --realtime the steps are paced by a wall-clock trigger instead.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulation(cmd.Context(), g, o, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.policy, "policy", "", "Scheduling policy: adaptive or rm (default from config)")
	f.StringVar(&o.preset, "preset", "", "Built-in task set (see `rtsim presets`)")
	f.StringVarP(&o.file, "file", "f", "", "Workload file (YAML or JSON task list)")
	f.Int64Var(&o.quantum, "quantum", 0, "Base quantum (adaptive) or tick size (rm); 0 keeps the config value")
	f.IntVar(&o.ticks, "ticks", 0, "Number of ticks to run; 0 runs until all one-shot tasks finish")
	f.IntVar(&o.maxTicks, "max-ticks", 1000, "Upper bound on ticks when --ticks is 0")
	f.BoolVar(&o.realtime, "realtime", false, "Pace ticks with a wall-clock trigger")
	f.IntVar(&o.tickMS, "tick-ms", 0, "Delay between trigger fires in --realtime mode (default from config)")
	f.IntVar(&o.speed, "speed", 0, "Ticks per trigger fire in --realtime mode (default from config)")
	f.StringVar(&o.csvPath, "csv", "", "Write every scheduler event to this CSV file")
	f.StringVar(&o.dbPath, "db", "", "Record the run into this SQLite database")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "Print every scheduler event")
	f.Int64Var(&o.cell, "cell", 5, "Simulated ticks per character in the Gantt chart")
	return cmd
}

func runSimulation(ctx context.Context, g *globals, o *runOptions, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var opts []sched.Option
	if o.verbose {
		opts = append(opts, sched.WithSink(sched.SinkFunc(func(ev sched.StatusEvent) {
			fmt.Fprintln(out, sched.FormatEvent(ev))
		})))
	}
	if o.csvPath != "" {
		sink, err := sched.OpenCSVSink(o.csvPath)
		if err != nil {
			return fmt.Errorf("opening event log: %w", err)
		}
		defer func() {
			if err := sink.Close(); err != nil {
				g.logger.Error("closing event log", "error", err)
			}
		}()
		opts = append(opts, sched.WithSink(sink))
	}

	sim, err := newSimulator(g, o.policy, o.quantum, opts...)
	if err != nil {
		return err
	}
	specs, source, err := loadWorkload(o.file, o.preset, sim.Policy().Name())
	if err != nil {
		return err
	}
	if err := sim.LoadPreset(specs); err != nil {
		return fmt.Errorf("%s: %w", source, err)
	}
	g.logger.Info("simulation loaded", "policy", sim.Policy().Name(), "workload", source, "tasks", len(specs))

	var rec *store.Recorder
	if o.dbPath != "" {
		st, err := store.NewSQLiteStore(ctx, o.dbPath)
		if err != nil {
			return err
		}
		defer st.Close()
		if rec, err = store.NewRecorder(ctx, st, sim.Policy().Name(), g.logger); err != nil {
			return err
		}
	}

	tl := render.NewTimeline(render.TimelineCap)
	onTick := func(res sched.TickResult) {
		tl.Push(res.Slots...)
		if rec != nil {
			rec.Record(ctx, res)
		}
	}

	if o.realtime {
		err = runRealtime(ctx, g, o, sim, onTick)
	} else {
		err = runBatch(o, sim, onTick)
	}
	if err != nil {
		return err
	}

	if rec != nil {
		if err := rec.Finish(ctx, sim.Now(), sim.Tasks()); err != nil {
			return fmt.Errorf("recording run: %w", err)
		}
		fmt.Fprintf(out, "recorded run %s\n", rec.RunID())
	}
	fmt.Fprintln(out, render.Dashboard(sim.Snapshot(), sim.Stats(), tl, o.cell))
	return nil
}

func runBatch(o *runOptions, sim *sched.Simulator, onTick func(sched.TickResult)) error {
	if o.ticks > 0 {
		for i := 0; i < o.ticks; i++ {
			onTick(sim.Tick())
		}
		return nil
	}
	for i := 0; i < o.maxTicks && !sim.Idle(); i++ {
		onTick(sim.Tick())
	}
	return nil
}

// runRealtime drives the simulation with a Runner until it goes idle, the
// tick budget is spent, or the process is interrupted.
func runRealtime(ctx context.Context, g *globals, o *runOptions, sim *sched.Simulator, onTick func(sched.TickResult)) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	interval := time.Duration(g.cfg.TickMS) * time.Millisecond
	if o.tickMS > 0 {
		interval = time.Duration(o.tickMS) * time.Millisecond
	}
	speed := g.cfg.Speed
	if o.speed > 0 {
		speed = o.speed
	}
	budget := o.ticks
	if budget == 0 {
		budget = o.maxTicks
	}

	ticks := 0
	runner := sched.NewRunner(sim, interval, speed,
		sched.WithRunnerLogger(g.logger),
		sched.WithOnTick(func(res sched.TickResult) {
			onTick(res)
			ticks++
			if ticks >= budget || (o.ticks == 0 && sim.Idle()) {
				cancel()
			}
		}))

	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
