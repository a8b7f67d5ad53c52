package sched

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"rtsim/internal/logging"
)

// Runner drives a Simulator in real time. It owns the simulator on a single
// goroutine: ticks and external commands are interleaved, never concurrent.
type Runner struct {
	sim      *Simulator
	interval time.Duration
	speed    int
	onTick   func(TickResult)
	logger   *slog.Logger

	clock *TickClock
	cmds  chan func()
	done  chan struct{}
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithOnTick registers a callback invoked on the runner goroutine after
// every simulation tick.
func WithOnTick(fn func(TickResult)) RunnerOption {
	return func(r *Runner) {
		r.onTick = fn
	}
}

func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a runner firing every interval and running speed ticks
// per fire.
func NewRunner(sim *Simulator, interval time.Duration, speed int, opts ...RunnerOption) *Runner {
	r := &Runner{
		sim:      sim,
		interval: interval,
		speed:    max(1, speed),
		logger:   logging.Discard(),
		cmds:     make(chan func()),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "runner")
	return r
}

// Run ticks the simulator until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	defer close(r.done)

	r.clock = NewTickClock(1)
	r.clock.Start(r.interval)
	defer r.clock.Stop()

	r.logger.Info("runner started", "interval", r.interval, "speed", r.speed)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("runner stopped", "now", r.sim.Now(), "fires", r.clock.Count())
			return ctx.Err()
		case cmd := <-r.cmds:
			cmd()
		case _, ok := <-r.clock.Ch:
			if !ok {
				return nil
			}
			for i := 0; i < r.speed; i++ {
				r.tick()
			}
		}
	}
}

func (r *Runner) tick() TickResult {
	res := r.sim.Tick()
	if r.onTick != nil {
		r.onTick(res)
	}
	return res
}

// Step runs one tick on demand. The tick callback sees it exactly like a
// timed one.
func (r *Runner) Step(ctx context.Context) (TickResult, error) {
	var res TickResult
	err := r.exec(ctx, func() { res = r.tick() })
	return res, err
}

// Do runs fn on the runner goroutine between two ticks and returns its error.
func (r *Runner) Do(ctx context.Context, fn func(*Simulator) error) error {
	var err error
	if cerr := r.exec(ctx, func() { err = fn(r.sim) }); cerr != nil {
		return cerr
	}
	return err
}

// SetSpeed changes how many ticks run per trigger fire.
func (r *Runner) SetSpeed(ctx context.Context, speed int) error {
	if speed <= 0 {
		return fmt.Errorf("%w: speed %d must be > 0", ErrPolicyParam, speed)
	}
	return r.exec(ctx, func() { r.speed = speed })
}

// SetInterval changes the delay between trigger fires.
func (r *Runner) SetInterval(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("%w: interval %s must be > 0", ErrPolicyParam, interval)
	}
	return r.exec(ctx, func() {
		r.interval = interval
		r.clock.SetInterval(interval)
	})
}

// exec hands cmd to the loop and waits until it has run.
func (r *Runner) exec(ctx context.Context, cmd func()) error {
	ran := make(chan struct{})
	wrapped := func() {
		defer close(ran)
		cmd()
	}
	select {
	case r.cmds <- wrapped:
	case <-r.done:
		return ErrRunnerStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	<-ran
	return nil
}
