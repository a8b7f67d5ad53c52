package sched

// resumeIO charges every suspended task with the simulated time elapsed
// since it was last charged and returns the tasks whose I/O completed. They
// are eligible again on this very tick.
func resumeIO(tasks []*Task, now int64) []*Task {
	var resumed []*Task
	for _, t := range tasks {
		if !t.Suspended {
			continue
		}
		t.SuspendTime -= now - t.suspendMark
		t.suspendMark = now
		if t.SuspendTime <= 0 {
			t.Suspended = false
			t.SuspendTime = 0
			resumed = append(resumed, t)
		}
	}
	return resumed
}

// suspendIO blocks t for one I/O burst starting at now. The next execution
// phase is loaded right away: a task with n I/O points runs n+1 phases of
// Exec ticks each.
func suspendIO(t *Task, now int64) {
	t.IOCount++
	t.Suspended = true
	t.SuspendTime = t.IOTime
	t.suspendMark = now
	t.Remaining = t.Exec
}

// owesIO reports whether t still has an I/O burst to perform.
func owesIO(t *Task) bool {
	return t.IOCount < t.IOOps
}
