package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/san-kum/gravsim/internal/config"
	"github.com/san-kum/gravsim/internal/viz"
)

var (
	dataDir    string
	configFile string
	logLevel   string
	logFile    string

	cfg    *config.Config
	logger *log.Logger
)

// main registers the commands and opens the template picker when no
// subcommand is given.
func main() {
	rootCmd := &cobra.Command{
		Use:               "gravsim",
		Short:             "gravitational n-body sandbox",
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.Run(viz.NewPicker(cfg, tuiLogger()))
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".gravsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to this file instead of stderr")

	rootCmd.AddCommand(
		newRunCmd(),
		newListCmd(),
		newPlotCmd(),
		newAnalyzeCmd(),
		newExportCmd(),
		newLiveCmd(),
		newServeCmd(),
		newEnsembleCmd(),
		newTraceCmd(),
		newChaosCmd(),
		newSweepCmd(),
		newTuneCmd(),
		newBenchCmd(),
		newTemplatesCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}

	var out io.Writer = os.Stderr
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		out = f
	}
	logger = log.NewWithOptions(out, log.Options{
		Level:           level,
		ReportTimestamp: true,
		Prefix:          "gravsim",
	})

	cfg = config.DefaultConfig()
	if configFile != "" {
		if cfg, err = config.Load(configFile); err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logger.Debug("config loaded", "path", configFile, "templates", len(cfg.Templates))
	}
	return nil
}

// tuiLogger keeps log lines off a full-screen terminal unless they go to a
// file.
func tuiLogger() *log.Logger {
	if logFile == "" {
		return log.New(io.Discard)
	}
	return logger
}

// templateArg returns the first argument or the configured default template.
func templateArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return cfg.Template
}
