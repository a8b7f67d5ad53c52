package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"rtsim/internal/render"
	"rtsim/internal/store"
)

func newRunsCmd(g *globals) *cobra.Command {
	var dbPath string
	openStore := func(ctx context.Context) (*store.SQLiteStore, error) {
		path := dbPath
		if path == "" {
			path = g.cfg.DBPath
		}
		if path == "" {
			return nil, fmt.Errorf("--db is required (or set db_path in the config)")
		}
		return store.NewSQLiteStore(ctx, path)
	}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			runs, err := st.ListRuns(ctx)
			if err != nil {
				return err
			}
			printRuns(cmd.OutOrStdout(), runs)
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database written by run --db or serve --db")

	var cell int64
	show := &cobra.Command{
		Use:   "show RUN_ID",
		Short: "Show the task outcomes and timeline of one recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			run, err := st.GetRun(ctx, args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			results, err := st.GetResults(ctx, run.ID)
			if err != nil {
				return err
			}
			slots, err := st.GetSlots(ctx, run.ID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "run %s  policy=%s  t=%d  ticks=%d  finished=%t\n",
				run.ID, run.Policy, run.Now, run.Ticks, run.Finished)
			printResults(out, results)
			if len(slots) > render.TimelineCap {
				slots = slots[len(slots)-render.TimelineCap:]
			}
			fmt.Fprintln(out, render.Gantt(slots, cell))
			return nil
		},
	}
	show.Flags().Int64Var(&cell, "cell", 5, "Simulated ticks per character in the Gantt chart")
	cmd.AddCommand(show)
	return cmd
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func printRuns(w io.Writer, runs []store.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "no runs recorded")
		return
	}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.ID,
			r.Policy,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			strconv.FormatInt(r.Now, 10),
			strconv.Itoa(r.Ticks),
			strconv.Itoa(r.Tasks),
			strconv.FormatBool(r.Finished),
		})
	}
	t := table.New().
		Headers("ID", "Policy", "Started", "Sim t", "Ticks", "Tasks", "Finished").
		Rows(rows...)
	fmt.Fprintln(w, t.Render())
}

func printResults(w io.Writer, results []store.TaskResult) {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		finishedAt := "-"
		if r.Finished {
			finishedAt = strconv.FormatInt(r.FinishedAt, 10)
		}
		rows = append(rows, []string{
			strconv.FormatUint(uint64(r.TaskID), 10),
			r.Name,
			strconv.FormatInt(r.Exec, 10),
			strconv.FormatInt(r.Deadline, 10),
			strconv.FormatInt(r.Period, 10),
			strconv.FormatInt(r.Ran, 10),
			strconv.Itoa(r.Releases),
			finishedAt,
			strconv.FormatBool(r.Missed),
		})
	}
	t := table.New().
		Headers("ID", "Task", "Exec", "Deadline", "Period", "Ran", "Releases", "Finished at", "Missed").
		Rows(rows...)
	fmt.Fprintln(w, t.Render())
}
