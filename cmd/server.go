package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"SpectraFM/logger"
	"SpectraFM/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the SpectraFM server",
	Long:  `Start the HTTP API, the DJ and frame websockets, the render loop and the import watcher.`,
	RunE:  runServer,
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg := setup(false)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx, cfg); err != nil {
		logger.Error("Server failed", logger.ErrorField(err))
		return err
	}
	return nil
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
