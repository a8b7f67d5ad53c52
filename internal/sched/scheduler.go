// internal/sched/scheduler.go

package sched

import (
	"fmt"
	"log/slog"

	"rtsim/internal/logging"
)

// SlotKind classifies a timeline slot.
type SlotKind string

const (
	SlotRun  SlotKind = "run"
	SlotIdle SlotKind = "idle"
	SlotIO   SlotKind = "io" // zero-width marker: the task entered I/O at Start
)

// Slot is one entry of the execution timeline.
type Slot struct {
	Start  int64    `json:"start"`
	End    int64    `json:"end"`
	TaskID TaskID   `json:"task_id"`
	Name   string   `json:"name"`
	Kind   SlotKind `json:"kind"`
}

// Dispatch describes one task running within a tick.
type Dispatch struct {
	TaskID    TaskID `json:"task_id"`
	Name      string `json:"name"`
	Start     int64  `json:"start"`
	Slice     int64  `json:"slice"`
	Quantum   int64  `json:"quantum"`
	Score     int64  `json:"score"`
	EnteredIO bool   `json:"entered_io"`
	Finished  bool   `json:"finished"`
	Missed    bool   `json:"missed"`
}

// TickResult is everything one Tick changed.
type TickResult struct {
	Start      int64         `json:"start"`
	Now        int64         `json:"now"`
	Paused     bool          `json:"paused"`
	Idle       bool          `json:"idle"`
	Dispatches []Dispatch    `json:"dispatches"`
	Slots      []Slot        `json:"slots"`
	Events     []StatusEvent `json:"events"`
}

// Snapshot is a read-only copy of the simulation state.
type Snapshot struct {
	Now     int64   `json:"now"`
	Policy  string  `json:"policy"`
	Paused  bool    `json:"paused"`
	Quantum int64   `json:"quantum"`        // slice the next dispatch would get
	Load    float64 `json:"load,omitempty"` // adaptive only
	Next    *TaskID `json:"next,omitempty"` // head of the ranking at Now
	Running *TaskID `json:"running,omitempty"`
	Tasks   []Task  `json:"tasks"`
}

// Simulator is the discrete-time stepper. It is single-threaded: callers
// that share one across goroutines must serialize access (see Runner).
type Simulator struct {
	policy   Policy
	registry *Registry
	clock    SimClock
	paused   bool
	running  *TaskID

	sinks   []EventSink
	logger  *slog.Logger
	pending []StatusEvent
}

// Option configures a Simulator.
type Option func(*Simulator)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Simulator) {
		s.logger = logger
	}
}

// WithSink registers an event consumer.
func WithSink(sink EventSink) Option {
	return func(s *Simulator) {
		s.sinks = append(s.sinks, sink)
	}
}

// New creates a simulator with an empty registry at time 0.
func New(policy Policy, opts ...Option) *Simulator {
	s := &Simulator{
		policy:   policy,
		registry: NewRegistry(),
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "sched", "policy", policy.Name())
	return s
}

func (s *Simulator) Policy() Policy { return s.policy }

func (s *Simulator) Now() int64 { return s.clock.Now() }

func (s *Simulator) Paused() bool { return s.paused }

func (s *Simulator) Pause() { s.paused = true }

func (s *Simulator) Resume() { s.paused = false }

// AddTask validates spec and inserts a fresh, ready-eligible task.
func (s *Simulator) AddTask(spec TaskSpec) (Task, error) {
	if err := spec.Validate(); err != nil {
		return Task{}, err
	}
	t := s.registry.Add(spec)
	s.emit(StatusEvent{
		Now:    s.clock.Now(),
		Kind:   StatusAdd,
		TaskID: t.ID,
		Name:   t.Name,
		Detail: fmt.Sprintf("arrival=%d exec=%d deadline=%d period=%d io=%dx%d", t.Arrival, t.Exec, t.Deadline, t.Period, t.IOOps, t.IOTime),
	})
	s.flush()
	return *t, nil
}

// RemoveTask deletes a task. Unknown ids are a no-op.
func (s *Simulator) RemoveTask(id TaskID) bool {
	t, ok := s.registry.Get(id)
	if !ok {
		return false
	}
	s.registry.Remove(id)
	if s.running != nil && *s.running == id {
		s.running = nil
	}
	s.emit(StatusEvent{Now: s.clock.Now(), Kind: StatusRemove, TaskID: id, Name: t.Name})
	s.flush()
	return true
}

// LoadPreset replaces the registry with specs (ids 0..n-1) and rewinds the
// clock. The registry is left untouched if any spec is invalid.
func (s *Simulator) LoadPreset(specs []TaskSpec) error {
	for i, spec := range specs {
		if err := spec.Validate(); err != nil {
			return fmt.Errorf("preset task %d: %w", i, err)
		}
	}
	s.registry.Replace(specs)
	s.clock.Reset()
	s.running = nil
	s.emit(StatusEvent{Kind: StatusPreset, Detail: fmt.Sprintf("loaded %d tasks", len(specs))})
	s.flush()
	return nil
}

// Reset restores every task to its initial state and rewinds the clock.
// The task set and static parameters are kept. Idempotent.
func (s *Simulator) Reset() {
	s.registry.Reset()
	s.clock.Reset()
	s.paused = false
	s.running = nil
	s.emit(StatusEvent{Kind: StatusReset, Detail: fmt.Sprintf("%d tasks restored", s.registry.Len())})
	s.flush()
}

// SetQuantumBase changes the base quantum of the adaptive policy.
func (s *Simulator) SetQuantumBase(n int64) error {
	a, ok := s.policy.(*Adaptive)
	if !ok {
		return fmt.Errorf("%w: %s has no quantum base", ErrPolicyParam, s.policy.Name())
	}
	return a.SetBase(n)
}

// SetTickSize changes the fixed slice of the rate-monotonic policy.
func (s *Simulator) SetTickSize(n int64) error {
	r, ok := s.policy.(*RateMonotonic)
	if !ok {
		return fmt.Errorf("%w: %s has no tick size", ErrPolicyParam, s.policy.Name())
	}
	return r.SetTick(n)
}

// Tick advances the simulation by one logical step. It dispatches at most
// two tasks, the second one only when the first entered I/O.
func (s *Simulator) Tick() TickResult {
	now := s.clock.Now()
	res := TickResult{Start: now, Now: now}
	if s.paused {
		res.Paused = true
		return res
	}

	tasks := s.registry.Tasks()
	for _, t := range resumeIO(tasks, now) {
		s.emit(StatusEvent{Now: now, Kind: StatusResume, TaskID: t.ID, Name: t.Name,
			Detail: fmt.Sprintf("I/O %d/%d completed", t.IOCount, t.IOOps)})
	}
	for _, t := range releasePeriodic(tasks, now) {
		s.emit(StatusEvent{Now: now, Kind: StatusRelease, TaskID: t.ID, Name: t.Name,
			Detail: fmt.Sprintf("deadline=%d", t.Deadline)})
	}

	ready := readySet(tasks, now)
	if len(ready) == 0 {
		unit := s.policy.IdleUnit()
		res.Idle = true
		res.Slots = append(res.Slots, Slot{Start: now, End: now + unit, Kind: SlotIdle})
		s.running = nil
		s.clock.Advance(unit)
		s.emit(StatusEvent{Now: now, Kind: StatusIdle, Slice: unit})
		res.Now = s.clock.Now()
		res.Events = s.flush()
		return res
	}

	d := s.dispatch(tasks, ready, &res)
	if d.EnteredIO {
		// The CPU does not idle because one task blocked: one back-fill
		// dispatch at the advanced clock, never more.
		if next := readySet(tasks, s.clock.Now()); len(next) > 0 {
			s.dispatch(tasks, next, &res)
		}
	}
	s.markOverdue(tasks)

	res.Now = s.clock.Now()
	res.Events = s.flush()
	return res
}

// dispatch runs the best ready task for one slice and applies completion,
// I/O and deadline bookkeeping.
func (s *Simulator) dispatch(tasks, ready []*Task, res *TickResult) Dispatch {
	now := s.clock.Now()
	quantum := s.policy.Quantum(tasks, now)
	cur := rank(ready, s.policy, now)[0]
	score := s.policy.Key(cur, now)

	slice := min(quantum, cur.Remaining)
	cur.Remaining -= slice
	cur.Ran += slice
	end := now + slice

	d := Dispatch{TaskID: cur.ID, Name: cur.Name, Start: now, Slice: slice, Quantum: quantum, Score: score}
	res.Slots = append(res.Slots, Slot{Start: now, End: end, TaskID: cur.ID, Name: cur.Name, Kind: SlotRun})
	s.emit(StatusEvent{Now: now, Kind: StatusDispatch, TaskID: cur.ID, Name: cur.Name, Slice: slice, Score: score})

	if cur.Remaining == 0 {
		if owesIO(cur) {
			suspendIO(cur, end)
			d.EnteredIO = true
			res.Slots = append(res.Slots, Slot{Start: end, End: end, TaskID: cur.ID, Name: cur.Name, Kind: SlotIO})
			s.emit(StatusEvent{Now: end, Kind: StatusSuspend, TaskID: cur.ID, Name: cur.Name,
				Detail: fmt.Sprintf("I/O %d/%d for %d", cur.IOCount, cur.IOOps, cur.IOTime)})
		} else {
			cur.Finished = true
			cur.FinishedAt = end
			d.Finished = true
			s.emit(StatusEvent{Now: end, Kind: StatusFinish, TaskID: cur.ID, Name: cur.Name})
			if end > cur.Deadline {
				cur.Missed = true
				d.Missed = true
				s.policy.OnDeadlineMiss(cur)
				s.emit(StatusEvent{Now: end, Kind: StatusMiss, TaskID: cur.ID, Name: cur.Name,
					Detail: fmt.Sprintf("deadline=%d boost=%d", cur.Deadline, cur.PriorityBoost)})
			}
		}
	}

	s.policy.Age(ready, cur)
	s.clock.Advance(slice)

	id := cur.ID
	s.running = &id
	res.Dispatches = append(res.Dispatches, d)
	return d
}

// markOverdue flags unfinished tasks whose deadline is already behind the
// clock. The feedback boost is only granted at completion.
func (s *Simulator) markOverdue(tasks []*Task) {
	now := s.clock.Now()
	for _, t := range tasks {
		if t.Finished || t.Missed || t.Arrival > now || now <= t.Deadline {
			continue
		}
		t.Missed = true
		s.emit(StatusEvent{Now: now, Kind: StatusMiss, TaskID: t.ID, Name: t.Name,
			Detail: fmt.Sprintf("deadline=%d overdue", t.Deadline)})
	}
}

// Snapshot copies the current state for consumers.
func (s *Simulator) Snapshot() Snapshot {
	now := s.clock.Now()
	tasks := s.registry.Tasks()

	snap := Snapshot{
		Now:     now,
		Policy:  s.policy.Name(),
		Paused:  s.paused,
		Quantum: s.policy.Quantum(tasks, now),
		Tasks:   make([]Task, 0, len(tasks)),
	}
	if a, ok := s.policy.(*Adaptive); ok {
		snap.Load = a.Load(tasks, now)
	}
	if ready := readySet(tasks, now); len(ready) > 0 {
		id := rank(ready, s.policy, now)[0].ID
		snap.Next = &id
	}
	if s.running != nil {
		id := *s.running
		snap.Running = &id
	}
	for _, t := range tasks {
		snap.Tasks = append(snap.Tasks, *t)
	}
	return snap
}

// Tasks returns value copies of the registry in order.
func (s *Simulator) Tasks() []Task {
	tasks := s.registry.Tasks()
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, *t)
	}
	return out
}

// Stats summarizes the registry at the current time.
func (s *Simulator) Stats() Stats {
	return ComputeStats(s.Tasks(), s.clock.Now())
}

// Export projects the task list to its serializable form.
func (s *Simulator) Export() []ExportEntry {
	return ExportTasks(s.Tasks())
}

// Idle reports whether no task can ever run again without outside input:
// everything is finished and no periodic task will be released.
func (s *Simulator) Idle() bool {
	for _, t := range s.registry.Tasks() {
		if !t.Finished || t.Period > 0 {
			return false
		}
	}
	return true
}

func (s *Simulator) emit(ev StatusEvent) {
	s.pending = append(s.pending, ev)

	attrs := []any{"now", ev.Now, "task", ev.Name, "task_id", ev.TaskID}
	switch ev.Kind {
	case StatusMiss:
		s.logger.Warn("deadline missed", append(attrs, "detail", ev.Detail)...)
	case StatusDispatch:
		s.logger.Debug("dispatch", append(attrs, "slice", ev.Slice, "score", ev.Score)...)
	case StatusIdle:
		s.logger.Debug("idle", "now", ev.Now, "advance", ev.Slice)
	case StatusReset, StatusPreset:
		s.logger.Info(ev.Kind.String(), "detail", ev.Detail)
	default:
		s.logger.Debug(ev.Kind.String(), append(attrs, "detail", ev.Detail)...)
	}
}

// flush hands the pending events to the sinks and returns them.
func (s *Simulator) flush() []StatusEvent {
	events := s.pending
	s.pending = nil
	for _, ev := range events {
		for _, sink := range s.sinks {
			sink.HandleEvent(ev)
		}
	}
	return events
}
