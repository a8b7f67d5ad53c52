package render

import (
	"strings"
	"testing"

	"rtsim/internal/sched"
)

func TestTimelineCap(t *testing.T) {
	tl := NewTimeline(0)
	for i := 0; i < 200; i++ {
		tl.Push(sched.Slot{Start: int64(i), End: int64(i + 1), Kind: sched.SlotIdle})
	}
	if tl.Len() != TimelineCap {
		t.Fatalf("len = %d, want %d", tl.Len(), TimelineCap)
	}
	if first := tl.Slots()[0]; first.Start != 40 {
		t.Errorf("oldest kept slot starts at %d, want 40", first.Start)
	}
	tl.Reset()
	if tl.Len() != 0 {
		t.Error("Reset kept slots")
	}
}

func TestGantt(t *testing.T) {
	slots := []sched.Slot{
		{Start: 0, End: 18, TaskID: 0, Name: "X", Kind: sched.SlotRun},
		{Start: 18, End: 18, TaskID: 0, Name: "X", Kind: sched.SlotIO},
		{Start: 18, End: 38, Kind: sched.SlotIdle},
		{Start: 38, End: 53, TaskID: 1, Name: "Y", Kind: sched.SlotRun},
	}
	out := Gantt(slots, 5)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("want scale and bar lines, got:\n%s", out)
	}
	for _, want := range []string{"0", "18", "38", "53"} {
		if !strings.Contains(lines[0], want) {
			t.Errorf("scale %q missing %s", lines[0], want)
		}
	}
	for _, want := range []string{"X", "idle", "Y", "|"} {
		if !strings.Contains(lines[1], want) {
			t.Errorf("bars %q missing %s", lines[1], want)
		}
	}
	if !strings.Contains(Gantt(nil, 5), "empty") {
		t.Error("empty timeline should say so")
	}
}

func TestTaskStatus(t *testing.T) {
	running := sched.TaskID(2)
	tests := []struct {
		task sched.Task
		want string
	}{
		{sched.Task{ID: 0, Finished: true}, StatusDone},
		{sched.Task{ID: 1, Suspended: true}, StatusIOWait},
		{sched.Task{ID: 2, Remaining: 5}, StatusRunning},
		{sched.Task{ID: 3, Arrival: 500, Remaining: 5}, StatusWaiting},
		{sched.Task{ID: 4, Remaining: 5}, StatusReady},
	}
	for _, tt := range tests {
		if got := TaskStatus(tt.task, 100, &running); got != tt.want {
			t.Errorf("task %d status = %q, want %q", tt.task.ID, got, tt.want)
		}
	}
	if got := TaskStatus(sched.Task{ID: 2, Remaining: 5}, 0, nil); got != StatusReady {
		t.Errorf("status without running task = %q", got)
	}
}

func TestTableAndHeader(t *testing.T) {
	sim := sched.New(sched.NewAdaptive(sched.DefaultConfig()))
	if err := sim.LoadPreset([]sched.TaskSpec{
		{Name: "X", Arrival: 0, Exec: 120, Deadline: 400},
		{Name: "Y", Arrival: 50, Exec: 90, Deadline: 300},
	}); err != nil {
		t.Fatal(err)
	}
	sim.Tick()
	snap := sim.Snapshot()

	out := Table(snap)
	for _, want := range []string{"Name", "Boost", "X", "Y", StatusRunning, StatusWaiting, "102"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}

	header := Header(snap)
	for _, want := range []string{"t=18", "policy=adaptive", "next=X"} {
		if !strings.Contains(header, want) {
			t.Errorf("header missing %q: %s", want, header)
		}
	}
}

func TestStatsPanelAndDashboard(t *testing.T) {
	st := sched.Stats{Total: 3, Completed: 2, Missed: 1, MissRate: 50, Now: 210}
	panel := StatsPanel(st)
	for _, want := range []string{"210", "completed  2", "50.0%"} {
		if !strings.Contains(panel, want) {
			t.Errorf("panel missing %q:\n%s", want, panel)
		}
	}

	sim := sched.New(sched.NewRateMonotonic(sched.DefaultConfig()))
	tl := NewTimeline(TimelineCap)
	tl.Push(sim.Tick().Slots...)
	out := Dashboard(sim.Snapshot(), sim.Stats(), tl, 5)
	if !strings.Contains(out, "policy=rm") || !strings.Contains(out, "idle") {
		t.Errorf("dashboard:\n%s", out)
	}
}
