package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"rtsim/internal/job"
	"rtsim/internal/logging"
	"rtsim/internal/sched"
)

// globals holds what the persistent flags resolve to. Subcommands read it
// once PersistentPreRunE has run.
type globals struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg    sched.Config
	logger *slog.Logger
}

// NewRootCmd creates the root cobra command for the rtsim CLI.
func NewRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:   "rtsim",
		Short: "Real-time scheduling simulator",
		Long: "rtsim steps a set of real-time tasks through an adaptive laxity scheduler or a\n" +
			"rate-monotonic scheduler and shows how they interleave, block on I/O and miss deadlines.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := sched.Load(g.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = g.logLevel
			}
			if cmd.Flags().Changed("log-format") {
				cfg.LogFormat = g.logFormat
			}
			if err := logging.CheckFormat(cfg.LogFormat); err != nil {
				return err
			}
			g.cfg = cfg
			g.logger = logging.NewLoggerWithWriter(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat, cmd.ErrOrStderr())
			return nil
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&g.configPath, "config", "config.yml", "Config file (missing file = defaults)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&g.logFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newRunCmd(g),
		newServeCmd(g),
		newPresetsCmd(),
		newRunsCmd(g),
		newExportCmd(g),
	)
	return root
}

// newSimulator builds a simulator for the named policy (config policy when
// empty). quantum, when positive, overrides the base quantum or tick size.
func newSimulator(g *globals, policy string, quantum int64, opts ...sched.Option) (*sched.Simulator, error) {
	if policy == "" {
		policy = g.cfg.Policy
	}
	p, err := sched.NewPolicy(policy, g.cfg)
	if err != nil {
		return nil, err
	}
	sim := sched.New(p, append([]sched.Option{sched.WithLogger(g.logger)}, opts...)...)
	if quantum > 0 {
		if p.Name() == sched.PolicyAdaptive {
			err = sim.SetQuantumBase(quantum)
		} else {
			err = sim.SetTickSize(quantum)
		}
		if err != nil {
			return nil, err
		}
	}
	return sim, nil
}

// loadWorkload picks the task set: a file, a named preset, or the demo set
// of the active policy.
func loadWorkload(file, preset, policy string) ([]sched.TaskSpec, string, error) {
	switch {
	case file != "" && preset != "":
		return nil, "", fmt.Errorf("--file and --preset are mutually exclusive")
	case file != "":
		specs, err := job.Load(file)
		return specs, file, err
	case preset != "":
		specs, err := sched.Preset(preset)
		return specs, preset, err
	}
	name := "adaptive-demo"
	if policy == sched.PolicyRateMonotonic {
		name = "rm-demo"
	}
	specs, err := sched.Preset(name)
	return specs, name, err
}
