package sched

import (
	"fmt"
	"math"
)

const (
	PolicyAdaptive      = "adaptive"
	PolicyRateMonotonic = "rm"
)

// Policy is the pluggable part of the stepper: how the ready set is ranked
// and how long the winner may run.
type Policy interface {
	Name() string
	// Key ranks a ready task; lower keys run first.
	Key(t *Task, now int64) int64
	// Quantum is the slice granted to the selected task. tasks is the whole
	// registry, not just the ready set.
	Quantum(tasks []*Task, now int64) int64
	// IdleUnit is how far the clock moves on a tick with nothing to run.
	IdleUnit() int64
	OnDeadlineMiss(t *Task)
	// Age is applied after every dispatch to the ready set it was chosen from.
	Age(ready []*Task, running *Task)
}

// NewPolicy creates a Policy by name.
func NewPolicy(name string, cfg Config) (Policy, error) {
	switch name {
	case PolicyAdaptive, "feedback":
		return NewAdaptive(cfg), nil
	case PolicyRateMonotonic, "rate-monotonic":
		return NewRateMonotonic(cfg), nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownPolicy, name)
	}
}

// Adaptive ranks by laxity biased towards missed and boosted tasks, and
// shrinks the quantum as more tasks compete.
type Adaptive struct {
	Base          int64
	Floor         int64
	LoadTasks     int
	Shrink        float64
	MissedPenalty int64
	MissBoost     int64
}

func NewAdaptive(cfg Config) *Adaptive {
	return &Adaptive{
		Base:          cfg.BaseQuantum,
		Floor:         cfg.MinQuantum,
		LoadTasks:     cfg.LoadTasks,
		Shrink:        cfg.LoadShrink,
		MissedPenalty: cfg.MissedPenalty,
		MissBoost:     cfg.MissBoost,
	}
}

func (a *Adaptive) Name() string { return PolicyAdaptive }

func (a *Adaptive) Key(t *Task, now int64) int64 {
	score := t.Laxity(now)
	if t.Missed {
		score -= a.MissedPenalty
	}
	return score - t.PriorityBoost
}

// Load is the fraction of LoadTasks currently active (arrived, unfinished),
// capped at 1.
func (a *Adaptive) Load(tasks []*Task, now int64) float64 {
	active := 0
	for _, t := range tasks {
		if !t.Finished && t.Arrival <= now {
			active++
		}
	}
	return math.Min(1, float64(active)/float64(a.LoadTasks))
}

func (a *Adaptive) Quantum(tasks []*Task, now int64) int64 {
	q := int64(math.Round(float64(a.Base) * (1 - a.Shrink*a.Load(tasks, now))))
	return max(a.Floor, q)
}

func (a *Adaptive) IdleUnit() int64 { return a.Base }

func (a *Adaptive) OnDeadlineMiss(t *Task) {
	t.PriorityBoost += a.MissBoost
}

// Age decays the boost of every waiting task by one, never below zero.
func (a *Adaptive) Age(ready []*Task, running *Task) {
	for _, t := range ready {
		if t == running || t.Finished {
			continue
		}
		t.PriorityBoost = max(0, t.PriorityBoost-1)
	}
}

// SetBase changes the base quantum.
func (a *Adaptive) SetBase(n int64) error {
	if n <= 0 {
		return fmt.Errorf("%w: base quantum %d must be > 0", ErrPolicyParam, n)
	}
	a.Base = n
	return nil
}

// RateMonotonic is classical fixed-priority scheduling: the shorter the
// period, the higher the priority.
type RateMonotonic struct {
	Tick     int64
	Sentinel int64
}

func NewRateMonotonic(cfg Config) *RateMonotonic {
	return &RateMonotonic{Tick: cfg.RMTick, Sentinel: cfg.RMSentinel}
}

func (r *RateMonotonic) Name() string { return PolicyRateMonotonic }

func (r *RateMonotonic) Key(t *Task, _ int64) int64 {
	if t.Period <= 0 {
		return r.Sentinel
	}
	return t.Period
}

func (r *RateMonotonic) Quantum([]*Task, int64) int64 { return r.Tick }

func (r *RateMonotonic) IdleUnit() int64 { return r.Tick }

func (r *RateMonotonic) OnDeadlineMiss(*Task) {}

func (r *RateMonotonic) Age([]*Task, *Task) {}

// SetTick changes the fixed slice.
func (r *RateMonotonic) SetTick(n int64) error {
	if n <= 0 {
		return fmt.Errorf("%w: tick size %d must be > 0", ErrPolicyParam, n)
	}
	r.Tick = n
	return nil
}
