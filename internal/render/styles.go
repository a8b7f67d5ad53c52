package render

import (
	"github.com/charmbracelet/lipgloss"

	"rtsim/internal/sched"
)

// Status styles
var (
	StyleRunning = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true)

	StyleDone = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	StyleMissed = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	StyleIO = lipgloss.NewStyle().
		Foreground(lipgloss.Color("39"))

	StyleDim = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

var (
	StyleTitle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	StylePanel = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)
)

// palette colors task bars; a task keeps its color for the whole run.
var palette = []lipgloss.Color{"205", "42", "214", "81", "141", "203", "185", "75"}

func taskStyle(id sched.TaskID) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(palette[int(id)%len(palette)])
}
