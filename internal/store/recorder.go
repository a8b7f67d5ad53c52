package store

import (
	"context"
	"log/slog"

	"rtsim/internal/logging"
	"rtsim/internal/sched"
)

const flushEvery = 64

// Recorder streams the timeline of one simulation into a Store. It is not
// safe for concurrent use; call it from the goroutine that ticks.
type Recorder struct {
	store  Store
	runID  string
	ticks  int
	buf    []sched.Slot
	err    error
	logger *slog.Logger
}

// NewRecorder opens a new run for policy.
func NewRecorder(ctx context.Context, st Store, policy string, logger *slog.Logger) (*Recorder, error) {
	id, err := st.CreateRun(ctx, policy)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Discard()
	}
	rec := &Recorder{
		store:  st,
		runID:  id,
		logger: logger.With("component", "recorder", "run", id),
	}
	rec.logger.Debug("run created", "policy", policy)
	return rec, nil
}

func (r *Recorder) RunID() string { return r.runID }

// Record buffers the slots of one tick. Paused ticks are not counted.
// After the first store error the recorder stops writing.
func (r *Recorder) Record(ctx context.Context, res sched.TickResult) {
	if res.Paused || r.err != nil {
		return
	}
	r.ticks++
	r.buf = append(r.buf, res.Slots...)
	if len(r.buf) >= flushEvery {
		r.flush(ctx)
	}
}

func (r *Recorder) flush(ctx context.Context) {
	if len(r.buf) == 0 || r.err != nil {
		return
	}
	if err := r.store.AppendSlots(ctx, r.runID, r.buf); err != nil {
		r.err = err
		r.logger.Error("recording slots failed", "error", err)
		return
	}
	r.buf = r.buf[:0]
}

// Finish writes the remaining slots and the final task states.
func (r *Recorder) Finish(ctx context.Context, now int64, tasks []sched.Task) error {
	r.flush(ctx)
	if r.err != nil {
		return r.err
	}
	if err := r.store.FinishRun(ctx, r.runID, now, r.ticks, tasks); err != nil {
		return err
	}
	r.logger.Info("run recorded", "ticks", r.ticks, "now", now, "tasks", len(tasks))
	return nil
}

// Err reports the first store error, if any.
func (r *Recorder) Err() error { return r.err }
