package job

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"rtsim/internal/sched"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{
			name: "mapping form",
			input: `tasks:
  - name: A
    arrival: 0
    exec: 30
    deadline: 100
  - name: B
    exec: 10
    period: 50
    io_ops: 1
    io_time: 20
`,
			want: 2,
		},
		{
			name: "sequence form",
			input: `- name: A
  exec: 30
  deadline: 100
`,
			want: 1,
		},
		{
			name:  "json array",
			input: `[{"name":"A","arrival":0,"exec":30,"deadline":100}]`,
			want:  1,
		},
		{name: "empty", input: "   \n", wantErr: true},
		{name: "no tasks", input: "tasks: []\n", wantErr: true},
		{name: "malformed", input: "tasks: [\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			specs, err := Parse([]byte(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", specs)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if len(specs) != tt.want {
				t.Errorf("got %d specs, want %d", len(specs), tt.want)
			}
		})
	}
}

func TestParseFields(t *testing.T) {
	specs, err := Parse([]byte(`tasks:
  - name: Net
    arrival: 30
    exec: 10
    period: 100
    io_ops: 2
    io_time: 40
`))
	if err != nil {
		t.Fatal(err)
	}
	want := sched.TaskSpec{Name: "Net", Arrival: 30, Exec: 10, Period: 100, IOOps: 2, IOTime: 40}
	if specs[0] != want {
		t.Errorf("spec = %+v, want %+v", specs[0], want)
	}
}

func TestParseRejectsInvalidTask(t *testing.T) {
	_, err := Parse([]byte(`tasks:
  - name: ok
    exec: 10
    deadline: 50
  - name: broken
    exec: 0
    deadline: 50
`))
	if !errors.Is(err, sched.ErrInvalidTask) {
		t.Fatalf("err = %v, want ErrInvalidTask", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "workload.yml")
	if err := os.WriteFile(path, []byte("- name: A\n  exec: 5\n  deadline: 20\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	specs, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(specs) != 1 || specs[0].Name != "A" {
		t.Errorf("specs = %+v", specs)
	}

	if _, err := Load(filepath.Join(dir, "missing.yml")); err == nil {
		t.Error("expected error for missing file")
	}
}
