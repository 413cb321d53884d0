// chql - an in-memory, ClickHouse-flavored SQL engine.
// This is the CLI entry point: an interactive shell plus a one-shot
// query runner.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JayabrataBasu/chql/internal/cli"
	"github.com/JayabrataBasu/chql/internal/config"
	"github.com/JayabrataBasu/chql/internal/logger"
	"github.com/JayabrataBasu/chql/pkg/engineopts"
)

var (
	version      = "0.1.0"
	buildDate    = "dev"
	cfgFile      string
	settingsFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "chql",
		Short: "chql - an in-memory, ClickHouse-flavored SQL engine",
		Long: `chql is an embeddable, in-memory SQL engine covering a
ClickHouse-flavored dialect: joins, GROUP BY, window functions, set
operations, subqueries, and basic DDL/DML.

Start the interactive shell:
  chql

Start with a specific config file:
  chql --config /path/to/config.yaml`,
		Run: runREPL,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&settingsFile, "settings", "", "engine session settings YAML file (max_result_rows, default_nulls, ...)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("chql %s (built %s)\n", version, buildDate)
		},
	})

	rootCmd.AddCommand(newExecCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runREPL(cmd *cobra.Command, args []string) {
	cfg, log := mustSetup()
	defer func() { _ = log.Sync() }()

	log.Info("starting chql shell", "version", version)

	repl := cli.NewREPL(cfg, log, mustSettings())
	if err := repl.Run(); err != nil {
		log.Error("REPL error", "error", err)
		os.Exit(1)
	}
}

func newExecCommand() *cobra.Command {
	var queryText string
	cmd := &cobra.Command{
		Use:   "exec",
		Short: "Run one or more semicolon-separated statements against a fresh session and exit",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, log := mustSetup()
			defer func() { _ = log.Sync() }()

			log.Info("running one-shot exec", "version", version)
			if err := cli.RunOnce(cfg, log, mustSettings(), queryText); err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
				os.Exit(1)
			}
		},
	}
	cmd.Flags().StringVarP(&queryText, "query", "q", "", "SQL text to run (required)")
	_ = cmd.MarkFlagRequired("query")
	return cmd
}

func mustSetup() (*config.Config, *logger.Logger) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}

	return cfg, log
}

func mustSettings() *engineopts.Options {
	if settingsFile == "" {
		return engineopts.Default()
	}
	opts, err := engineopts.LoadFile(settingsFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading settings: %v\n", err)
		os.Exit(1)
	}
	return opts
}
