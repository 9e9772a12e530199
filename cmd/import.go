package cmd

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"sync/atomic"

	"SpectraFM/db"
	"SpectraFM/library"
	"SpectraFM/logger"
	"SpectraFM/repository"
	"SpectraFM/storage"

	"github.com/k0kubun/go-ansi"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var importWorkers int

var importCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Import a folder of audio files into the library",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := setup(true)
		defer logger.Sync()
		ctx := cmd.Context()

		files, err := collectAudioFiles(args[0])
		if err != nil {
			return err
		}
		if len(files) == 0 {
			fmt.Println("No audio files found.")
			return nil
		}

		gormDB, err := db.ConnectGormDB(cfg)
		if err != nil {
			return err
		}
		defer db.CloseGormDB()
		if err := db.AutoMigrate(gormDB); err != nil {
			return err
		}
		blobs, err := storage.NewBlobStore(cfg)
		if err != nil {
			return err
		}
		if err := blobs.EnsureBucket(ctx); err != nil {
			return err
		}

		lib := library.New(repository.NewGormTrackRepository(gormDB), blobs)
		if err := lib.Load(ctx); err != nil {
			return err
		}

		imported, failed := importFiles(ctx, lib, files, importWorkers)
		fmt.Printf("\nImported %d of %d files", imported, len(files))
		if failed > 0 {
			fmt.Printf(", %d failed (see log)", failed)
		}
		fmt.Println()
		return nil
	},
}

// collectAudioFiles walks dir and returns the audio files in it, sorted.
func collectAudioFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && library.IsAudioFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// importFiles uploads files with at most workers in flight. A failed file is logged and skipped.
func importFiles(ctx context.Context, lib *library.Library, files []string, workers int) (imported, failed int64) {
	if workers <= 0 {
		workers = 1
	}
	bar := progressbar.NewOptions(
		len(files),
		progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetTheme(progressbar.ThemeASCII),
		progressbar.OptionFullWidth(),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Importing[reset]"),
	)

	var ok, bad atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, path := range files {
		g.Go(func() error {
			defer bar.Add(1)
			if gctx.Err() != nil {
				return nil
			}
			track, err := library.ImportFile(gctx, lib, path)
			if err != nil {
				bad.Add(1)
				logger.Warn("Import failed", logger.String("file", path), logger.ErrorField(err))
				return nil
			}
			ok.Add(1)
			logger.Info("Imported track", logger.String("file", path), logger.String("trackId", track.ID))
			return nil
		})
	}
	_ = g.Wait()
	return ok.Load(), bad.Load()
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().IntVarP(&importWorkers, "workers", "w", 4, "concurrent uploads")
}
