package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"rtsim/internal/sched"
	"rtsim/internal/server"
	"rtsim/internal/store"
)

type serveOptions struct {
	addr    string
	policy  string
	preset  string
	file    string
	tickMS  int
	speed   int
	dbPath  string
	paused  bool
	quantum int64
}

func newServeCmd(g *globals) *cobra.Command {
	o := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the simulation in real time behind an HTTP control API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), g, o)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.addr, "addr", "", "Listen address (default from config)")
	f.StringVar(&o.policy, "policy", "", "Scheduling policy: adaptive or rm (default from config)")
	f.StringVar(&o.preset, "preset", "", "Built-in task set loaded at startup")
	f.StringVarP(&o.file, "file", "f", "", "Workload file loaded at startup")
	f.IntVar(&o.tickMS, "tick-ms", 0, "Delay between trigger fires (default from config)")
	f.IntVar(&o.speed, "speed", 0, "Ticks per trigger fire (default from config)")
	f.StringVar(&o.dbPath, "db", "", "Record the run into this SQLite database and serve /runs")
	f.BoolVar(&o.paused, "paused", false, "Start paused")
	f.Int64Var(&o.quantum, "quantum", 0, "Base quantum (adaptive) or tick size (rm)")
	return cmd
}

func serve(ctx context.Context, g *globals, o *serveOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	addr := g.cfg.Addr
	if o.addr != "" {
		addr = o.addr
	}
	dbPath := g.cfg.DBPath
	if o.dbPath != "" {
		dbPath = o.dbPath
	}
	interval := time.Duration(g.cfg.TickMS) * time.Millisecond
	if o.tickMS > 0 {
		interval = time.Duration(o.tickMS) * time.Millisecond
	}
	speed := g.cfg.Speed
	if o.speed > 0 {
		speed = o.speed
	}

	sim, err := newSimulator(g, o.policy, o.quantum)
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
	if o.paused {
		sim.Pause()
	}

	var (
		srvOpts  []server.Option
		runnerOp []sched.RunnerOption
		rec      *store.Recorder
	)
	runnerOp = append(runnerOp, sched.WithRunnerLogger(g.logger))
	if dbPath != "" {
		st, err := store.NewSQLiteStore(ctx, dbPath)
		if err != nil {
			return err
		}
		defer st.Close()
		if rec, err = store.NewRecorder(ctx, st, sim.Policy().Name(), g.logger); err != nil {
			return err
		}
		srvOpts = append(srvOpts, server.WithStore(st))
		runnerOp = append(runnerOp, sched.WithOnTick(func(res sched.TickResult) {
			rec.Record(context.Background(), res)
		}))
	}

	runner := sched.NewRunner(sim, interval, speed, runnerOp...)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.New(runner, g.logger, srvOpts...),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		g.logger.Info("server starting", "addr", addr, "policy", sim.Policy().Name(), "workload", source)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		g.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := eg.Wait(); err != nil {
		return err
	}

	// The runner goroutine has exited, so the simulator is ours again.
	if rec != nil {
		if err := rec.Finish(context.Background(), sim.Now(), sim.Tasks()); err != nil {
			return fmt.Errorf("recording run: %w", err)
		}
	}
	g.logger.Info("server stopped", "now", sim.Now())
	return nil
}
