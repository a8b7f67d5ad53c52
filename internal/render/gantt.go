package render

import (
	"fmt"
	"strings"

	"rtsim/internal/sched"
)

// TimelineCap is how many slots a Timeline keeps by default.
const TimelineCap = 160

// Timeline is a bounded window over the most recent slots.
type Timeline struct {
	slots    []sched.Slot
	capacity int
}

func NewTimeline(capacity int) *Timeline {
	if capacity <= 0 {
		capacity = TimelineCap
	}
	return &Timeline{capacity: capacity}
}

// Push appends slots and drops the oldest ones beyond the capacity.
func (t *Timeline) Push(slots ...sched.Slot) {
	t.slots = append(t.slots, slots...)
	if over := len(t.slots) - t.capacity; over > 0 {
		t.slots = append(t.slots[:0], t.slots[over:]...)
	}
}

func (t *Timeline) Slots() []sched.Slot { return t.slots }

func (t *Timeline) Len() int { return len(t.slots) }

func (t *Timeline) Reset() { t.slots = t.slots[:0] }

// Gantt draws slots as a time scale over a row of bars:
//
//	0     18    36
//	[ X  ][ X  ][ Y ]
//
// Each character of a bar stands for cellTicks simulated ticks; bars are
// never narrower than their label. I/O entries are drawn as a single '|'.
func Gantt(slots []sched.Slot, cellTicks int64) string {
	if len(slots) == 0 {
		return StyleDim.Render("(empty timeline)")
	}
	if cellTicks <= 0 {
		cellTicks = 5
	}

	var scale, bars strings.Builder
	for _, sl := range slots {
		if sl.Kind == sched.SlotIO {
			scale.WriteString(" ")
			bars.WriteString(StyleIO.Render("|"))
			continue
		}

		label := sl.Name
		style := taskStyle(sl.TaskID)
		if sl.Kind == sched.SlotIdle {
			label = "idle"
			style = StyleDim
		}
		inner := max(len(label), int((sl.End-sl.Start+cellTicks-1)/cellTicks))
		width := inner + 2

		bars.WriteString(style.Render("[" + centerString(label, inner) + "]"))
		scale.WriteString(scaleMark(sl.Start, width))
	}
	scale.WriteString(fmt.Sprint(slots[len(slots)-1].End))

	return scale.String() + "\n" + bars.String()
}

// scaleMark left-aligns t in a field of width, blanking it when it does not fit.
func scaleMark(t int64, width int) string {
	s := fmt.Sprint(t)
	if len(s) >= width {
		return strings.Repeat(" ", width)
	}
	return s + strings.Repeat(" ", width-len(s))
}

func centerString(s string, width int) string {
	if len(s) >= width {
		return s[:width]
	}
	left := (width - len(s)) / 2
	right := width - len(s) - left
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", right)
}
