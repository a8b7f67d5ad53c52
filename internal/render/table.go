package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"rtsim/internal/sched"
)

// Status labels shown in the task table.
const (
	StatusDone    = "done"
	StatusIOWait  = "I/O wait"
	StatusRunning = "running"
	StatusWaiting = "waiting"
	StatusReady   = "ready"
)

// TaskStatus classifies a task for display. running is the task that held
// the CPU last, if any.
func TaskStatus(t sched.Task, now int64, running *sched.TaskID) string {
	switch {
	case t.Finished:
		return StatusDone
	case t.Suspended:
		return StatusIOWait
	case running != nil && *running == t.ID:
		return StatusRunning
	case t.Arrival > now:
		return StatusWaiting
	default:
		return StatusReady
	}
}

func statusStyle(status string, missed bool) lipgloss.Style {
	switch {
	case missed:
		return StyleMissed
	case status == StatusDone:
		return StyleDone
	case status == StatusRunning:
		return StyleRunning
	case status == StatusIOWait:
		return StyleIO
	case status == StatusWaiting:
		return StyleDim
	}
	return lipgloss.NewStyle()
}

// Table renders the task list of a snapshot.
func Table(snap sched.Snapshot) string {
	headers := []string{"ID", "Name", "Arrival", "Exec", "Remaining", "Deadline", "Period", "I/O", "Status"}
	if snap.Policy == sched.PolicyAdaptive {
		headers = append(headers, "Boost")
	}

	rows := make([][]string, 0, len(snap.Tasks))
	statuses := make([]lipgloss.Style, 0, len(snap.Tasks))
	for _, t := range snap.Tasks {
		status := TaskStatus(t, snap.Now, snap.Running)
		label := status
		if t.Missed {
			label += " (missed)"
		}
		period := "-"
		if t.Period > 0 {
			period = strconv.FormatInt(t.Period, 10)
		}
		row := []string{
			strconv.FormatUint(uint64(t.ID), 10),
			t.Name,
			strconv.FormatInt(t.Arrival, 10),
			strconv.FormatInt(t.Exec, 10),
			strconv.FormatInt(t.Remaining, 10),
			strconv.FormatInt(t.Deadline, 10),
			period,
			fmt.Sprintf("%d/%d", t.IOCount, t.IOOps),
			label,
		}
		if snap.Policy == sched.PolicyAdaptive {
			row = append(row, strconv.FormatInt(t.PriorityBoost, 10))
		}
		rows = append(rows, row)
		statuses = append(statuses, statusStyle(status, t.Missed))
	}

	statusCol := 8
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(StyleDim).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == table.HeaderRow:
				return base.Bold(true)
			case col == statusCol && row >= 0 && row < len(statuses):
				return statuses[row].Padding(0, 1)
			}
			return base
		})
	return tbl.String()
}

// Header is the one-line status bar above the table.
func Header(snap sched.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "t=%d  policy=%s  quantum=%d", snap.Now, snap.Policy, snap.Quantum)
	if snap.Policy == sched.PolicyAdaptive {
		fmt.Fprintf(&b, "  load=%.0f%%", snap.Load*100)
	}
	if snap.Next != nil {
		for _, t := range snap.Tasks {
			if t.ID == *snap.Next {
				fmt.Fprintf(&b, "  next=%s", t.Name)
				break
			}
		}
	}
	if snap.Paused {
		b.WriteString("  [paused]")
	}
	return StyleTitle.Render(b.String())
}
