package sched

// releasePeriodic re-arms every periodic task that finished its previous
// instance and sits exactly on a period boundary. It never fires at now 0,
// the first instance is loaded with the task. Returns the released tasks.
func releasePeriodic(tasks []*Task, now int64) []*Task {
	var released []*Task
	for _, t := range tasks {
		if t.Period <= 0 || now <= 0 || now <= t.Arrival {
			continue
		}
		if (now-t.Arrival)%t.Period != 0 || t.Remaining > 0 {
			continue
		}
		t.Remaining = t.Exec
		t.Finished = false
		t.Missed = false
		t.IOCount = 0
		t.Deadline = now + t.Period
		t.ReleasedAt = now
		t.Releases++
		released = append(released, t)
	}
	return released
}
