package cmd

import (
	"fmt"
	"strings"

	"SpectraFM/core/search"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search for playable videos",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := setup(true)
		registry := search.NewRegistry()
		registry.Register(search.NewVideoSearcher(cfg.SearchBaseURL, cfg.SearchAPIKey))

		query := strings.Join(args, " ")
		fmt.Printf("Searching: %s\n", query)
		for i, t := range registry.Search(cmd.Context(), query) {
			fmt.Printf("%d. %s - %s [%s]\n", i+1, t.Title, t.Artist, t.Source.VideoID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
}
