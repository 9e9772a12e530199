package cmd

import (
	"os"
	"os/signal"

	"SpectraFM/model"
	"SpectraFM/tui"

	"github.com/spf13/cobra"
)

var (
	visualizeMode string
	visualizeFPS  int
)

var visualizeCmd = &cobra.Command{
	Use:   "visualize",
	Short: "Run the visualizer in the terminal",
	Long: `Render the orb, bars and wave modes in the terminal from a simulated signal.
Drag with the mouse to change intensity (up/down) and speed (left/right).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := model.ParseVisualizerMode(visualizeMode)
		if err != nil {
			return err
		}
		setup(true)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return tui.Run(ctx, tui.Options{Mode: mode, FPS: visualizeFPS})
	},
}

func init() {
	rootCmd.AddCommand(visualizeCmd)

	visualizeCmd.Flags().StringVarP(&visualizeMode, "mode", "m", string(model.ModeOrb), "start mode: orb, bars or wave")
	visualizeCmd.Flags().IntVar(&visualizeFPS, "fps", 30, "frames per second")
}
