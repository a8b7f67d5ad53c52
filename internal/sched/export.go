package sched

import (
	"encoding/json"
	"fmt"
	"io"

	yaml "github.com/goccy/go-yaml"
)

const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ExportEntry is the serialized form of a task: only what is needed to
// describe it again, no runtime state.
type ExportEntry struct {
	Name     string `json:"name" yaml:"name"`
	Arrival  int64  `json:"arrival" yaml:"arrival"`
	Exec     int64  `json:"exec" yaml:"exec"`
	Deadline int64  `json:"deadline" yaml:"deadline"`
	Period   int64  `json:"period,omitempty" yaml:"period,omitempty"`
}

// ExportTasks describes tasks by the parameters they were created with, so
// a released periodic task exports its first deadline, not the current one.
func ExportTasks(tasks []Task) []ExportEntry {
	out := make([]ExportEntry, 0, len(tasks))
	for _, t := range tasks {
		spec := t.Spec()
		out = append(out, ExportEntry{
			Name:     spec.Name,
			Arrival:  spec.Arrival,
			Exec:     spec.Exec,
			Deadline: spec.Deadline,
			Period:   spec.Period,
		})
	}
	return out
}

// EncodeExport writes entries in the given format.
func EncodeExport(w io.Writer, format string, entries []ExportEntry) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatJSON, "":
		data, err = json.MarshalIndent(entries, "", "  ")
		data = append(data, '\n')
	case FormatYAML, "yml":
		data, err = yaml.Marshal(entries)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		return fmt.Errorf("encoding %s export: %w", format, err)
	}
	_, err = w.Write(data)
	return err
}
