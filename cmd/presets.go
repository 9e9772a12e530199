package cmd

import (
	"fmt"

	"SpectraFM/config"
	"SpectraFM/db"
	"SpectraFM/repository"
	"SpectraFM/server"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "Manage visualizer presets",
}

var presetsImportCmd = &cobra.Command{
	Use:   "import <yaml>",
	Short: "Store every preset of a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		seeds, err := config.LoadPresets(args[0])
		if err != nil {
			return err
		}
		return withPresets(func(gdb *gorm.DB) error {
			repo := repository.NewGormPresetRepository(gdb)
			for _, seed := range seeds {
				preset, err := server.PresetFromSeed(seed)
				if err != nil {
					return err
				}
				if err := repo.Create(cmd.Context(), preset); err != nil {
					return err
				}
				fmt.Printf("Added %s (%s, %s)\n", preset.Name, preset.Parameters.Mode, preset.Parameters.Color)
			}
			return nil
		})
	},
}

var presetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored presets",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPresets(func(gdb *gorm.DB) error {
			presets, err := repository.NewGormPresetRepository(gdb).List(cmd.Context())
			if err != nil {
				return err
			}
			if len(presets) == 0 {
				fmt.Println("No presets.")
				return nil
			}
			for _, p := range presets {
				fmt.Printf("%s  %-20s %-5s %s intensity=%.2f speed=%.2f\n",
					p.ID, p.Name, p.Parameters.Mode, p.Parameters.Color, p.Parameters.Intensity, p.Parameters.Speed)
			}
			return nil
		})
	},
}

func withPresets(fn func(*gorm.DB) error) error {
	cfg := setup(true)
	gdb, err := db.ConnectGormDB(cfg)
	if err != nil {
		return err
	}
	defer db.CloseGormDB()
	if err := db.AutoMigrate(gdb); err != nil {
		return err
	}
	return fn(gdb)
}

func init() {
	rootCmd.AddCommand(presetsCmd)
	presetsCmd.AddCommand(presetsImportCmd, presetsListCmd)
}
