package cmd

import (
	"fmt"
	"sort"

	"SpectraFM/storage"

	"github.com/spf13/cobra"
)

var minioPrefix string

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "Check the MinIO bucket",
	Long:  `Connect to MinIO, make sure the bucket exists and print usage statistics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := setup(true)
		fmt.Printf("MinIO: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		blobs, err := storage.NewBlobStore(cfg)
		if err != nil {
			return err
		}
		if err := blobs.EnsureBucket(cmd.Context()); err != nil {
			return err
		}

		stats, err := blobs.Stats(cmd.Context(), minioPrefix)
		if err != nil {
			return err
		}
		fmt.Printf("Objects: %d\n", stats.TotalObjects)
		fmt.Printf("Total size: %s\n", storage.FormatSize(stats.TotalSize))
		if !stats.LastModified.IsZero() {
			fmt.Printf("Last modified: %s\n", stats.LastModified.Format("2006-01-02 15:04:05"))
		}
		kinds := make([]string, 0, len(stats.ByType))
		for kind := range stats.ByType {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)
		for _, kind := range kinds {
			fmt.Printf("  %-6s %s\n", kind, storage.FormatSize(stats.ByType[kind]))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)

	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", "", "only count objects under this prefix")
	minioCmd.Example = `  spectrafm minio
  spectrafm minio -p "tracks/"`
}
