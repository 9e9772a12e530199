package cmd

import (
	"fmt"
	"os"

	"SpectraFM/config"
	"SpectraFM/logger"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "spectrafm",
	Short: "SpectraFM is a music player with a live 3D visualizer and an AI DJ.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd, args)
	},
	SilenceUsage: true,
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration and starts the global logger. quiet keeps log lines off stdout.
func setup(quiet bool) *config.Config {
	cfg := config.Load()
	logger.InitLogger(logger.Config{
		Level:      logger.ParseLevel(cfg.LogLevel),
		OutputPath: cfg.LogFile,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
		Quiet:      quiet,
	})
	return cfg
}
