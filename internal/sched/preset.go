package sched

import (
	"fmt"
	"slices"
)

var presets = map[string][]TaskSpec{
	"light": {
		{Name: "Light1", Arrival: 0, Exec: 30, Deadline: 100},
		{Name: "Light2", Arrival: 50, Exec: 25, Deadline: 150},
	},
	"medium": {
		{Name: "M1", Arrival: 0, Exec: 60, Deadline: 200},
		{Name: "M2", Arrival: 40, Exec: 80, Deadline: 250},
		{Name: "M3", Arrival: 100, Exec: 50, Deadline: 300},
	},
	"heavy": {
		{Name: "Heavy1", Arrival: 0, Exec: 100, Deadline: 300},
		{Name: "Heavy2", Arrival: 50, Exec: 120, Deadline: 350},
		{Name: "Heavy3", Arrival: 100, Exec: 90, Deadline: 280},
		{Name: "Heavy4", Arrival: 150, Exec: 110, Deadline: 380},
	},
	"adaptive-demo": {
		{Name: "X", Arrival: 0, Exec: 120, Deadline: 400},
		{Name: "Y", Arrival: 50, Exec: 90, Deadline: 300},
	},
	"rm-demo": {
		{Name: "T1", Arrival: 0, Exec: 10, Period: 100, Deadline: 100},
		{Name: "T2", Arrival: 0, Exec: 20, Period: 200, Deadline: 200},
	},
	"io-mix": {
		{Name: "CPU", Arrival: 0, Exec: 80, Deadline: 300},
		{Name: "Disk", Arrival: 0, Exec: 20, Deadline: 250, IOOps: 2, IOTime: 40},
		{Name: "Net", Arrival: 30, Exec: 10, Period: 100, IOOps: 1, IOTime: 30},
	},
}

// PresetNames lists the built-in presets in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Preset returns a copy of the named preset.
func Preset(name string) ([]TaskSpec, error) {
	specs, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownPreset, name)
	}
	return slices.Clone(specs), nil
}
