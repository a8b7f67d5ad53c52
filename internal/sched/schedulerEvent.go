// internal/sched/schedulerEvent.go

package sched

import (
	"fmt"
	"strings"
)

// StatusKind represents the type of simulator event
type StatusKind int

const (
	StatusIdle StatusKind = iota
	StatusAdd
	StatusRemove
	StatusRelease
	StatusResume
	StatusDispatch
	StatusSuspend
	StatusFinish
	StatusMiss
	StatusReset
	StatusPreset
)

// StatusEvent is emitted on every dispatch, idle tick and registry change.
type StatusEvent struct {
	Now    int64      `json:"now"`
	Kind   StatusKind `json:"kind"`
	TaskID TaskID     `json:"task_id"`
	Name   string     `json:"name,omitempty"`
	Slice  int64      `json:"slice,omitempty"` // dispatched or idle ticks
	Score  int64      `json:"score,omitempty"` // policy key at selection
	Detail string     `json:"detail,omitempty"`
}

// EventSink consumes events as the simulator emits them.
type EventSink interface {
	HandleEvent(ev StatusEvent)
}

// SinkFunc adapts a function to EventSink.
type SinkFunc func(StatusEvent)

func (f SinkFunc) HandleEvent(ev StatusEvent) { f(ev) }

func (sk StatusKind) String() string {
	switch sk {
	case StatusIdle:
		return "Idle"
	case StatusAdd:
		return "Add"
	case StatusRemove:
		return "Remove"
	case StatusRelease:
		return "Release"
	case StatusResume:
		return "IOResume"
	case StatusDispatch:
		return "Dispatch"
	case StatusSuspend:
		return "IOSuspend"
	case StatusFinish:
		return "Finish"
	case StatusMiss:
		return "Miss"
	case StatusReset:
		return "Reset"
	case StatusPreset:
		return "Preset"
	default:
		return "Unknown"
	}
}

func (sk StatusKind) MarshalText() ([]byte, error) {
	return []byte(sk.String()), nil
}

func (sk *StatusKind) UnmarshalText(text []byte) error {
	for k := StatusIdle; k <= StatusPreset; k++ {
		if k.String() == string(text) {
			*sk = k
			return nil
		}
	}
	return fmt.Errorf("unknown status kind %q", text)
}

// FormatEvent renders one event as a console line.
func FormatEvent(ev StatusEvent) string {
	// an auxiliary function to center the event kind in the output
	center := func(str string, width int) string {
		spaces := int(float64(width-len(str)) / 2)
		return strings.Repeat(" ", spaces) + str + strings.Repeat(" ", width-(spaces+len(str)))
	}

	msg := fmt.Sprintf("t=%07d [%s]", ev.Now, center(ev.Kind.String(), 12))
	switch ev.Kind {
	case StatusIdle:
		return msg + fmt.Sprintf(" => idle for %d", ev.Slice)
	case StatusReset, StatusPreset:
		return msg + " " + ev.Detail
	}
	msg += fmt.Sprintf(" => Task: %04d %-10s", ev.TaskID, ev.Name)
	if ev.Kind == StatusDispatch {
		msg += fmt.Sprintf(" slice=%d score=%d", ev.Slice, ev.Score)
	}
	if ev.Detail != "" {
		msg += " " + ev.Detail
	}
	return msg
}
