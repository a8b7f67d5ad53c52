package sched

// Stats is the summary shown next to the timeline.
type Stats struct {
	Total     int     `json:"total"`
	Completed int     `json:"completed"`
	Missed    int     `json:"missed"`    // completed after their deadline
	Overdue   int     `json:"overdue"`   // unfinished and already past their deadline
	MissRate  float64 `json:"miss_rate"` // percent of completed tasks that missed
	Waiting   int     `json:"waiting"`   // not arrived yet
	Suspended int     `json:"suspended"`
	Now       int64   `json:"now"`

	// AvgTurnaround is the mean of finish - release over completed tasks.
	AvgTurnaround float64 `json:"avg_turnaround"`
}

func ComputeStats(tasks []Task, now int64) Stats {
	st := Stats{Total: len(tasks), Now: now}
	var turnaround int64
	for _, t := range tasks {
		switch {
		case t.Finished:
			st.Completed++
			turnaround += t.FinishedAt - t.ReleasedAt
			if t.Missed {
				st.Missed++
			}
		case t.Missed:
			st.Overdue++
		}
		if t.Suspended {
			st.Suspended++
		}
		if !t.Finished && t.Arrival > now {
			st.Waiting++
		}
	}
	if st.Completed > 0 {
		st.MissRate = float64(st.Missed) / float64(st.Completed) * 100
		st.AvgTurnaround = float64(turnaround) / float64(st.Completed)
	}
	return st
}
