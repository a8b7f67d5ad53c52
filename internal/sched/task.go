package sched

import "fmt"

// TaskID uniquely identifies a task in the simulator.
type TaskID uint64

// Task represents one schedulable task unit.
type Task struct {
	ID            TaskID `json:"id"`
	Name          string `json:"name"`
	Arrival       int64  `json:"arrival"`
	Exec          int64  `json:"exec"`
	Remaining     int64  `json:"remaining"`
	Deadline      int64  `json:"deadline"`
	Period        int64  `json:"period,omitempty"` // 0 for one-shot tasks
	IOOps         int    `json:"io_ops"`
	IOTime        int64  `json:"io_time"`
	IOCount       int    `json:"io_count"`
	Finished      bool   `json:"finished"`
	Missed        bool   `json:"missed"`
	Suspended     bool   `json:"suspended"`
	SuspendTime   int64  `json:"suspend_time"`
	PriorityBoost int64  `json:"priority_boost"`

	Ran        int64 `json:"ran"`         // ticks dispatched, summed over all releases
	ReleasedAt int64 `json:"released_at"` // arrival, or the last periodic release
	FinishedAt int64 `json:"finished_at"`
	Releases   int   `json:"releases"`

	baseDeadline int64
	suspendMark  int64 // clock value when SuspendTime was last charged
}

// TaskSpec is the static description of a task as entered by a user or
// read from a preset or workload file.
type TaskSpec struct {
	Name     string `json:"name" yaml:"name"`
	Arrival  int64  `json:"arrival" yaml:"arrival"`
	Exec     int64  `json:"exec" yaml:"exec"`
	Deadline int64  `json:"deadline,omitempty" yaml:"deadline,omitempty"`
	Period   int64  `json:"period,omitempty" yaml:"period,omitempty"`
	IOOps    int    `json:"io_ops,omitempty" yaml:"io_ops,omitempty"`
	IOTime   int64  `json:"io_time,omitempty" yaml:"io_time,omitempty"`
}

// Validate rejects specs that would put the simulation into a nonsensical
// state. Nothing is clamped.
func (s TaskSpec) Validate() error {
	switch {
	case s.Exec <= 0:
		return &ValidationError{Field: "exec", Value: s.Exec, Reason: "must be > 0"}
	case s.Arrival < 0:
		return &ValidationError{Field: "arrival", Value: s.Arrival, Reason: "must be >= 0"}
	case s.Period < 0:
		return &ValidationError{Field: "period", Value: s.Period, Reason: "must be > 0 when set"}
	case s.Deadline < 0:
		return &ValidationError{Field: "deadline", Value: s.Deadline, Reason: "must be >= 0"}
	case s.Deadline == 0 && s.Period == 0:
		return &ValidationError{Field: "deadline", Value: s.Deadline, Reason: "a deadline or a period is required"}
	case s.IOOps < 0:
		return &ValidationError{Field: "io_ops", Value: int64(s.IOOps), Reason: "must be >= 0"}
	case s.IOTime < 0:
		return &ValidationError{Field: "io_time", Value: s.IOTime, Reason: "must be >= 0"}
	}
	return nil
}

// newTask builds a task in its initial, ready-eligible state from an already
// validated TaskSpec.
func newTask(id TaskID, spec TaskSpec) *Task {
	name := spec.Name
	if name == "" {
		name = fmt.Sprintf("T%d", id)
	}
	deadline := spec.Deadline
	if deadline == 0 && spec.Period > 0 {
		deadline = spec.Arrival + spec.Period
	}

	t := &Task{
		ID:           id,
		Name:         name,
		Arrival:      spec.Arrival,
		Exec:         spec.Exec,
		Period:       spec.Period,
		IOOps:        spec.IOOps,
		IOTime:       spec.IOTime,
		baseDeadline: deadline,
	}
	t.reset()
	return t
}

// reset restores every runtime field; static parameters are left alone.
func (t *Task) reset() {
	t.Remaining = t.Exec
	t.Deadline = t.baseDeadline
	t.IOCount = 0
	t.Finished = false
	t.Missed = false
	t.Suspended = false
	t.SuspendTime = 0
	t.PriorityBoost = 0
	t.Ran = 0
	t.ReleasedAt = t.Arrival
	t.FinishedAt = 0
	t.Releases = 0
	t.suspendMark = 0
}

// Eligible reports whether the task may be selected at time now.
func (t *Task) Eligible(now int64) bool {
	return !t.Finished && !t.Suspended && t.Arrival <= now && t.Remaining > 0
}

// Laxity is the slack before the deadline assuming the task runs
// uninterrupted from now.
func (t *Task) Laxity(now int64) int64 {
	return t.Deadline - now - t.Remaining
}

// Spec returns the static parameters the task was created from.
func (t *Task) Spec() TaskSpec {
	return TaskSpec{
		Name:     t.Name,
		Arrival:  t.Arrival,
		Exec:     t.Exec,
		Deadline: t.baseDeadline,
		Period:   t.Period,
		IOOps:    t.IOOps,
		IOTime:   t.IOTime,
	}
}
