package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/syncsim/syncsim/sim"
	"github.com/syncsim/syncsim/sim/events"
)

var (
	// CLI flags for the run subcommand
	problem       string        // Classic problem to simulate
	discipline    string        // Synchronization discipline governing the run
	duration      time.Duration // How long to let the simulation run
	seed          int64         // Base seed for per-worker random generators
	logLevel      string        // Log verbosity level
	summaryFormat string        // Final summary format (text or yaml)
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "syncsim",
	Short: "Simulation engine for classic thread-synchronization problems",
}

// runCmd executes one simulation run using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a (problem, discipline) simulation",
	Run: func(cmd *cobra.Command, args []string) {
		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		p, err := sim.ParseProblemKind(problem)
		if err != nil {
			logrus.Fatalf("Invalid --problem: %v", err)
		}
		d, err := sim.ParseDiscipline(discipline)
		if err != nil {
			logrus.Fatalf("Invalid --sync: %v", err)
		}

		cfg := sim.DefaultConfig()
		cfg.Seed = seed

		feed := events.NewFeed(events.NewLogrusSink(nil))
		stats := sim.NewStats()
		controller := sim.NewController(cfg, feed, stats)
		if err := controller.SetProblem(p); err != nil {
			logrus.Fatalf("Selecting problem: %v", err)
		}
		if err := controller.SetDiscipline(d); err != nil {
			logrus.Fatalf("Selecting discipline: %v", err)
		}
		if warning := controller.Warning(); warning != "" {
			logrus.Warn(warning)
		}

		logrus.Infof("Starting %s under the %s discipline for %s", p, d, duration)
		if err := controller.Start(); err != nil {
			logrus.Fatalf("Start failed: %v", err)
		}
		time.Sleep(duration)
		controller.Stop()

		summary := stats.Summary()
		switch summaryFormat {
		case "yaml":
			out, err := yaml.Marshal(summary)
			if err != nil {
				logrus.Fatalf("Marshalling summary: %v", err)
			}
			fmt.Print(string(out))
		default:
			summary.Print()
		}
		logrus.Info("Simulation complete.")
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().StringVar(&problem, "problem", string(sim.ProducerConsumer), "Problem (producer-consumer, dining-philosophers, readers-writers)")
	runCmd.Flags().StringVar(&discipline, "sync", string(sim.Semaphore), "Discipline (semaphore, monitor, unsafe)")
	runCmd.Flags().DurationVar(&duration, "duration", 10*time.Second, "Run duration before the simulation is stopped")
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Base seed for per-worker random generators")
	runCmd.Flags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().StringVar(&summaryFormat, "summary-format", "text", "Summary output format (text, yaml)")

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
