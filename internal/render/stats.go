package render

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"rtsim/internal/sched"
)

// StatsPanel renders the summary box shown under the timeline.
func StatsPanel(st sched.Stats) string {
	miss := fmt.Sprintf("%.1f%%", st.MissRate)
	if st.Missed > 0 {
		miss = StyleMissed.Render(miss)
	}
	lines := []string{
		fmt.Sprintf("time       %d", st.Now),
		fmt.Sprintf("tasks      %d", st.Total),
		fmt.Sprintf("completed  %d", st.Completed),
		fmt.Sprintf("missed     %d (rate %s)", st.Missed, miss),
		fmt.Sprintf("overdue    %d", st.Overdue),
		fmt.Sprintf("waiting    %d", st.Waiting),
		fmt.Sprintf("in I/O     %d", st.Suspended),
		fmt.Sprintf("turnaround %.1f", st.AvgTurnaround),
	}
	return StylePanel.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// Dashboard stacks the header, timeline, task table and stats.
func Dashboard(snap sched.Snapshot, st sched.Stats, tl *Timeline, cellTicks int64) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		Header(snap),
		Gantt(tl.Slots(), cellTicks),
		Table(snap),
		StatsPanel(st),
	)
}
