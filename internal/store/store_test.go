package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"rtsim/internal/sched"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewMemoryStore(context.Background())
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

func TestMemoryStoresAreIsolated(t *testing.T) {
	ctx := context.Background()
	a, b := testStore(t), testStore(t)
	if _, err := a.CreateRun(ctx, "rm"); err != nil {
		t.Fatal(err)
	}
	runs, err := b.ListRuns(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Errorf("second store sees %d runs", len(runs))
	}
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)

	id, err := st.CreateRun(ctx, "adaptive")
	if err != nil {
		t.Fatal(err)
	}
	slots := []sched.Slot{
		{Start: 0, End: 18, TaskID: 0, Name: "X", Kind: sched.SlotRun},
		{Start: 18, End: 18, TaskID: 0, Name: "X", Kind: sched.SlotIO},
		{Start: 18, End: 38, Kind: sched.SlotIdle},
	}
	if err := st.AppendSlots(ctx, id, slots[:2]); err != nil {
		t.Fatal(err)
	}
	if err := st.AppendSlots(ctx, id, slots[2:]); err != nil {
		t.Fatal(err)
	}

	run, err := st.GetRun(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if run.Finished || run.Policy != "adaptive" || run.StartedAt.IsZero() {
		t.Errorf("open run = %+v", run)
	}

	tasks := []sched.Task{
		{ID: 0, Name: "X", Exec: 120, Deadline: 400, Ran: 120, Finished: true, FinishedAt: 210},
		{ID: 1, Name: "Y", Arrival: 50, Exec: 90, Deadline: 300, Missed: true},
	}
	if err := st.FinishRun(ctx, id, 210, 14, tasks); err != nil {
		t.Fatal(err)
	}

	got, err := st.GetSlots(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(slots) {
		t.Fatalf("got %d slots, want %d", len(got), len(slots))
	}
	for i := range slots {
		if got[i] != slots[i] {
			t.Errorf("slot %d = %+v, want %+v", i, got[i], slots[i])
		}
	}

	results, err := st.GetResults(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results", len(results))
	}
	if !results[0].Finished || results[0].FinishedAt != 210 || results[0].Ran != 120 {
		t.Errorf("X result = %+v", results[0])
	}
	if results[1].Finished || !results[1].Missed || results[1].Arrival != 50 {
		t.Errorf("Y result = %+v", results[1])
	}

	run, err = st.GetRun(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if !run.Finished || run.Now != 210 || run.Ticks != 14 || run.Tasks != 2 {
		t.Errorf("finished run = %+v", run)
	}
}

func TestUnknownRun(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)
	if _, err := st.GetRun(ctx, "missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("GetRun err = %v", err)
	}
	if err := st.FinishRun(ctx, "missing", 0, 0, nil); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("FinishRun err = %v", err)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)
	first, _ := st.CreateRun(ctx, "rm")
	second, _ := st.CreateRun(ctx, "adaptive")

	runs, err := st.ListRuns(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 || runs[0].ID != second || runs[1].ID != first {
		t.Errorf("runs = %+v", runs)
	}
}

func TestSQLiteStoreOnDisk(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "runs.db")
	st, err := NewSQLiteStore(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	id, err := st.CreateRun(ctx, "rm")
	if err != nil {
		t.Fatal(err)
	}
	st.Close()

	st, err = NewSQLiteStore(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	if _, err := st.GetRun(ctx, id); err != nil {
		t.Errorf("run lost after reopen: %v", err)
	}
}

func TestRecorder(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)

	specs, err := sched.Preset("rm-demo")
	if err != nil {
		t.Fatal(err)
	}
	sim := sched.New(sched.NewRateMonotonic(sched.DefaultConfig()))
	if err := sim.LoadPreset(specs); err != nil {
		t.Fatal(err)
	}

	rec, err := NewRecorder(ctx, st, sim.Policy().Name(), nil)
	if err != nil {
		t.Fatal(err)
	}
	var want int
	for i := 0; i < 100; i++ {
		res := sim.Tick()
		want += len(res.Slots)
		rec.Record(ctx, res)
	}
	sim.Pause()
	rec.Record(ctx, sim.Tick())

	if err := rec.Finish(ctx, sim.Now(), sim.Tasks()); err != nil {
		t.Fatal(err)
	}

	slots, err := st.GetSlots(ctx, rec.RunID())
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != want {
		t.Errorf("stored %d slots, want %d", len(slots), want)
	}
	run, err := st.GetRun(ctx, rec.RunID())
	if err != nil {
		t.Fatal(err)
	}
	if run.Ticks != 100 || run.Now != sim.Now() || run.Policy != "rm" {
		t.Errorf("run = %+v", run)
	}
}
