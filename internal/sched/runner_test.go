package sched

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func startRunner(t *testing.T, r *Runner) (cancel func()) {
	t.Helper()
	ctx, stop := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	return func() {
		stop()
		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Run returned %v, want context.Canceled", err)
			}
		case <-time.After(2 * time.Second):
			t.Error("runner did not stop")
		}
	}
}

func TestRunnerDoSerializesCommands(t *testing.T) {
	sim := New(NewRateMonotonic(DefaultConfig()))
	r := NewRunner(sim, time.Hour, 1)
	stop := startRunner(t, r)
	defer stop()

	ctx := context.Background()
	err := r.Do(ctx, func(s *Simulator) error {
		_, err := s.AddTask(TaskSpec{Name: "A", Exec: 30, Deadline: 100})
		return err
	})
	if err != nil {
		t.Fatal(err)
	}

	var now int64
	if err := r.Do(ctx, func(s *Simulator) error {
		s.Tick()
		now = s.Now()
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if now != 10 {
		t.Errorf("now = %d, want 10", now)
	}

	wantErr := errors.New("boom")
	if err := r.Do(ctx, func(*Simulator) error { return wantErr }); !errors.Is(err, wantErr) {
		t.Errorf("Do err = %v, want %v", err, wantErr)
	}
}

func TestRunnerStepReportsTick(t *testing.T) {
	sim := New(NewRateMonotonic(DefaultConfig()))
	var seen []TickResult
	r := NewRunner(sim, time.Hour, 1, WithOnTick(func(res TickResult) { seen = append(seen, res) }))
	stop := startRunner(t, r)

	ctx := context.Background()
	if err := r.Do(ctx, func(s *Simulator) error {
		_, err := s.AddTask(TaskSpec{Name: "A", Exec: 30, Deadline: 100})
		return err
	}); err != nil {
		t.Fatal(err)
	}
	res, err := r.Step(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Dispatches) != 1 || res.Now != 10 {
		t.Errorf("step result = %+v", res)
	}
	stop()

	if len(seen) != 1 || seen[0].Now != 10 {
		t.Errorf("callback saw %+v, want the manual tick", seen)
	}
	if _, err := r.Step(ctx); !errors.Is(err, ErrRunnerStopped) {
		t.Errorf("Step after stop err = %v, want ErrRunnerStopped", err)
	}
}

func TestRunnerTicksAtSpeed(t *testing.T) {
	sim := New(NewRateMonotonic(DefaultConfig()))
	var ticks atomic.Int64
	r := NewRunner(sim, 5*time.Millisecond, 3, WithOnTick(func(TickResult) { ticks.Add(1) }))
	stop := startRunner(t, r)

	deadline := time.Now().Add(2 * time.Second)
	for ticks.Load() < 6 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	stop()

	n := ticks.Load()
	if n < 6 {
		t.Fatalf("only %d ticks ran", n)
	}
	if n%3 != 0 {
		t.Errorf("ticks = %d, want a multiple of speed 3", n)
	}
	if sim.Now() != n*10 {
		t.Errorf("now = %d, want %d", sim.Now(), n*10)
	}
}

func TestRunnerSettings(t *testing.T) {
	r := NewRunner(New(NewAdaptive(DefaultConfig())), time.Hour, 1)
	stop := startRunner(t, r)
	defer stop()

	ctx := context.Background()
	if err := r.SetSpeed(ctx, 4); err != nil {
		t.Fatal(err)
	}
	if err := r.SetSpeed(ctx, 0); !errors.Is(err, ErrPolicyParam) {
		t.Errorf("SetSpeed(0) err = %v", err)
	}
	if err := r.SetInterval(ctx, 10*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if err := r.SetInterval(ctx, -time.Second); !errors.Is(err, ErrPolicyParam) {
		t.Errorf("SetInterval(-1s) err = %v", err)
	}
}

func TestRunnerStopped(t *testing.T) {
	r := NewRunner(New(NewAdaptive(DefaultConfig())), time.Hour, 1)
	stop := startRunner(t, r)
	stop()

	err := r.Do(context.Background(), func(*Simulator) error { return nil })
	if !errors.Is(err, ErrRunnerStopped) {
		t.Errorf("err = %v, want ErrRunnerStopped", err)
	}
}

func TestTickClock(t *testing.T) {
	c := NewTickClock(1)
	c.Start(2 * time.Millisecond)
	got := 0
	for range c.Ch {
		got++
		if got == 3 {
			c.Stop()
			c.Stop()
		}
	}
	if got < 3 || c.Count() < 3 {
		t.Errorf("received %d ticks, count %d", got, c.Count())
	}
}
