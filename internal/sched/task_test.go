package sched

import (
	"errors"
	"testing"
)

func TestTaskSpecValidate(t *testing.T) {
	tests := []struct {
		name  string
		spec  TaskSpec
		field string
	}{
		{"valid one-shot", TaskSpec{Exec: 10, Deadline: 50}, ""},
		{"valid periodic without deadline", TaskSpec{Exec: 10, Period: 40}, ""},
		{"zero exec", TaskSpec{Exec: 0, Deadline: 50}, "exec"},
		{"negative exec", TaskSpec{Exec: -3, Deadline: 50}, "exec"},
		{"negative arrival", TaskSpec{Arrival: -1, Exec: 10, Deadline: 50}, "arrival"},
		{"negative period", TaskSpec{Exec: 10, Period: -5, Deadline: 50}, "period"},
		{"negative deadline", TaskSpec{Exec: 10, Deadline: -1}, "deadline"},
		{"no deadline no period", TaskSpec{Exec: 10}, "deadline"},
		{"negative io ops", TaskSpec{Exec: 10, Deadline: 50, IOOps: -1}, "io_ops"},
		{"negative io time", TaskSpec{Exec: 10, Deadline: 50, IOOps: 1, IOTime: -2}, "io_time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want *ValidationError", err)
			}
			if verr.Field != tt.field {
				t.Errorf("field = %q, want %q", verr.Field, tt.field)
			}
			if !errors.Is(err, ErrInvalidTask) {
				t.Error("validation error should match ErrInvalidTask")
			}
		})
	}
}

func TestNewTaskDefaults(t *testing.T) {
	task := newTask(7, TaskSpec{Arrival: 30, Exec: 10, Period: 100})
	if task.Name != "T7" {
		t.Errorf("name = %q, want T7", task.Name)
	}
	if task.Deadline != 130 {
		t.Errorf("deadline = %d, want arrival+period", task.Deadline)
	}
	if task.Remaining != 10 || task.ReleasedAt != 30 || task.Finished || task.Suspended {
		t.Errorf("initial state = %+v", task)
	}
	if got := task.Spec(); got != (TaskSpec{Name: "T7", Arrival: 30, Exec: 10, Deadline: 130, Period: 100}) {
		t.Errorf("Spec() = %+v", got)
	}
}

func TestTaskEligibleAndLaxity(t *testing.T) {
	task := newTask(0, TaskSpec{Arrival: 20, Exec: 30, Deadline: 100})
	if task.Eligible(10) {
		t.Error("eligible before arrival")
	}
	if !task.Eligible(20) {
		t.Error("not eligible at arrival")
	}
	if got := task.Laxity(20); got != 50 {
		t.Errorf("laxity = %d, want 50", got)
	}
	task.Suspended = true
	if task.Eligible(40) {
		t.Error("suspended task is eligible")
	}
}

func TestReleasePeriodic(t *testing.T) {
	tests := []struct {
		name     string
		task     Task
		now      int64
		released bool
	}{
		{"boundary after finish", Task{Arrival: 0, Exec: 10, Period: 50, Finished: true}, 100, true},
		{"offset arrival", Task{Arrival: 30, Exec: 10, Period: 50, Finished: true}, 80, true},
		{"not a multiple", Task{Arrival: 0, Exec: 10, Period: 50, Finished: true}, 70, false},
		{"still running", Task{Arrival: 0, Exec: 10, Period: 50, Remaining: 4}, 100, false},
		{"time zero", Task{Arrival: 0, Exec: 10, Period: 50, Finished: true}, 0, false},
		{"at arrival", Task{Arrival: 50, Exec: 10, Period: 50, Finished: true}, 50, false},
		{"one-shot", Task{Arrival: 0, Exec: 10, Finished: true}, 100, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := tt.task
			task.Missed = true
			task.IOCount = 2
			task.PriorityBoost = 40
			got := releasePeriodic([]*Task{&task}, tt.now)
			if (len(got) == 1) != tt.released {
				t.Fatalf("released = %v, want %v", len(got) == 1, tt.released)
			}
			if !tt.released {
				return
			}
			if task.Remaining != task.Exec || task.Finished || task.Missed || task.IOCount != 0 {
				t.Errorf("released state = %+v", task)
			}
			if task.Deadline != tt.now+task.Period || task.ReleasedAt != tt.now || task.Releases != 1 {
				t.Errorf("deadline=%d releasedAt=%d releases=%d", task.Deadline, task.ReleasedAt, task.Releases)
			}
			if task.PriorityBoost != 40 {
				t.Errorf("boost = %d, release must keep it", task.PriorityBoost)
			}
		})
	}
}

func TestResumeIOChargesElapsedTime(t *testing.T) {
	task := newTask(0, TaskSpec{Exec: 10, Deadline: 500, IOOps: 1, IOTime: 30})
	task.Remaining = 0
	suspendIO(task, 10)
	if task.Remaining != 10 || task.IOCount != 1 || !task.Suspended {
		t.Fatalf("after suspend: %+v", task)
	}

	if got := resumeIO([]*Task{task}, 25); len(got) != 0 {
		t.Fatal("resumed after 15 of 30")
	}
	if task.SuspendTime != 15 {
		t.Errorf("suspend time = %d, want 15", task.SuspendTime)
	}
	if got := resumeIO([]*Task{task}, 45); len(got) != 1 {
		t.Fatal("not resumed after 35 of 30")
	}
	if task.Suspended || task.SuspendTime != 0 {
		t.Errorf("after resume: %+v", task)
	}
	if owesIO(task) {
		t.Error("task owes no more I/O")
	}
}

func TestZeroLengthIOResumesNextTick(t *testing.T) {
	task := newTask(0, TaskSpec{Exec: 10, Deadline: 500, IOOps: 1})
	suspendIO(task, 10)
	if got := resumeIO([]*Task{task}, 10); len(got) != 1 {
		t.Fatal("zero-length I/O should resume at the next charge")
	}
}
