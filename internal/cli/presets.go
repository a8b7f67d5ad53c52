package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"rtsim/internal/sched"
)

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the built-in task sets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, name := range sched.PresetNames() {
				specs, err := sched.Preset(name)
				if err != nil {
					return err
				}
				periodic := 0
				for _, s := range specs {
					if s.Period > 0 {
						periodic++
					}
				}
				fmt.Fprintf(out, "%-14s %d tasks (%d periodic)\n", name, len(specs), periodic)
			}
			return nil
		},
	}
}
