package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rtsim/internal/sched"
)

func newExportCmd(g *globals) *cobra.Command {
	var (
		preset string
		file   string
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a task set as JSON or YAML",
		Long: "Export loads a preset or workload file, fills in the defaults a simulator would\n" +
			"apply (deadline of periodic tasks), and writes the tasks in a reloadable form.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sim, err := newSimulator(g, "", 0)
			if err != nil {
				return err
			}
			specs, source, err := loadWorkload(file, preset, sim.Policy().Name())
			if err != nil {
				return err
			}
			if err := sim.LoadPreset(specs); err != nil {
				return fmt.Errorf("%s: %w", source, err)
			}

			out := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			return sched.EncodeExport(out, format, sim.Export())
		},
	}
	cmd.Flags().StringVar(&preset, "preset", "", "Built-in task set to export")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Workload file to export")
	cmd.Flags().StringVar(&format, "format", sched.FormatJSON, "Output format: json or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")
	return cmd
}
