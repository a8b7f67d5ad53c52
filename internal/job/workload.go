package job

import (
	"bytes"
	"fmt"
	"os"

	yaml "github.com/goccy/go-yaml"

	"rtsim/internal/sched"
)

// workloadFile is the mapping form of a workload file. A bare sequence of
// tasks is accepted as well.
type workloadFile struct {
	Tasks []sched.TaskSpec `yaml:"tasks"`
}

// Load reads a task list from a YAML (or JSON) file.
func Load(path string) ([]sched.TaskSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading workload: %w", err)
	}
	specs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return specs, nil
}

// Parse decodes a workload and validates every task in it. The whole list
// is rejected when one entry is invalid.
func Parse(data []byte) ([]sched.TaskSpec, error) {
	var specs []sched.TaskSpec
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty workload")
	}

	if trimmed[0] == '-' || trimmed[0] == '[' {
		if err := yaml.Unmarshal(trimmed, &specs); err != nil {
			return nil, fmt.Errorf("parsing workload: %w", err)
		}
	} else {
		var wf workloadFile
		if err := yaml.Unmarshal(trimmed, &wf); err != nil {
			return nil, fmt.Errorf("parsing workload: %w", err)
		}
		specs = wf.Tasks
	}

	if len(specs) == 0 {
		return nil, fmt.Errorf("workload has no tasks")
	}
	for i, spec := range specs {
		if err := spec.Validate(); err != nil {
			return nil, fmt.Errorf("task %d (%s): %w", i, spec.Name, err)
		}
	}
	return specs, nil
}
