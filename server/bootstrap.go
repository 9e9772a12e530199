package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"SpectraFM/cache"
	"SpectraFM/config"
	"SpectraFM/core/agent"
	"SpectraFM/core/auth"
	"SpectraFM/core/control"
	"SpectraFM/core/lyrics"
	"SpectraFM/core/playback"
	"SpectraFM/core/sampler"
	"SpectraFM/core/search"
	"SpectraFM/core/visualizer"
	"SpectraFM/db"
	"SpectraFM/library"
	"SpectraFM/logger"
	"SpectraFM/model"
	"SpectraFM/repository"
	"SpectraFM/storage"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// progressInterval is how often the headless transport reports position.
const progressInterval = 250 * time.Millisecond

// Start connects every backing service, builds the player and serves until ctx is done.
func Start(ctx context.Context, cfg *config.Config) error {
	gormDB, err := db.ConnectGormDB(cfg)
	if err != nil {
		return err
	}
	defer db.CloseGormDB()
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}

	redisClient, err := cache.ConnectRedis(cfg)
	if err != nil {
		return err
	}
	defer cache.CloseRedis()
	logger.Info("Successfully connected to Redis")

	blobs, err := storage.NewBlobStore(cfg)
	if err != nil {
		return err
	}
	if err := blobs.EnsureBucket(ctx); err != nil {
		return err
	}

	trackRepo := repository.NewGormTrackRepository(gormDB)
	presetRepo := repository.NewGormPresetRepository(gormDB)
	playlistRepo := repository.NewGormPlaylistRepository(gormDB)

	lib := library.New(trackRepo, blobs)
	playlists := library.NewPlaylists(playlistRepo)
	if err := lib.Load(ctx); err != nil {
		return err
	}
	if err := playlists.Load(ctx); err != nil {
		return err
	}
	if err := SeedPresets(ctx, presetRepo, cfg.PresetsFile); err != nil {
		logger.Warn("Preset seeding skipped", logger.String("file", cfg.PresetsFile), logger.ErrorField(err))
	}

	dj := agent.NewDJAgent(&agent.Config{
		APIBaseURL:  cfg.AIBaseURL,
		APIKey:      cfg.AIAPIKey,
		Model:       cfg.AIModel,
		MaxTokens:   cfg.AIMaxTokens,
		Temperature: cfg.AITemperature,
	})
	lyricsSvc := lyrics.NewService(dj, cache.NewLyricsCache(redisClient, cfg.LyricsTTL))

	registry := search.NewRegistry()
	registry.Register(search.NewVideoSearcher(cfg.SearchBaseURL, cfg.SearchAPIKey))

	smp := sampler.New(sampler.DefaultBinCount)
	clock := playback.NewClockTransport()
	clock.Start(progressInterval)
	session := playback.NewSession(clock, nil)
	defer session.Close()
	adapter := playback.NewAdapter(session, smp)
	player := playback.NewPlayer(playback.NewQueue(library.Catalog{Library: lib, Playlists: playlists}), adapter)

	params := control.NewParamStore(model.DefaultParameters())
	scene := visualizer.NewSceneState()

	srv := New(Deps{
		Library:           lib,
		Playlists:         playlists,
		Presets:           presetRepo,
		Params:            params,
		Player:            player,
		Lyrics:            lyricsSvc,
		DJ:                dj,
		Vibes:             cache.NewVibeCache(redisClient, cfg.LyricsTTL),
		Search:            registry,
		Issuer:            auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL),
		Engine:            visualizer.NewEngine(smp, params),
		Scene:             scene,
		AdminPasswordHash: cfg.AdminPasswordHash,
		FrameRate:         cfg.FrameRate,
	})

	g, gctx := errgroup.WithContext(ctx)
	if cfg.ImportDir != "" {
		watcher := library.NewWatcher(cfg.ImportDir, func(ctx context.Context, path string) error {
			_, err := library.ImportFile(ctx, lib, path)
			return err
		})
		g.Go(func() error {
			err := watcher.Run(gctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	g.Go(func() error {
		return srv.Run(gctx, cfg.HTTPAddr)
	})
	return g.Wait()
}

// SeedPresets stores the presets of a YAML file when no preset exists yet. A missing file is
// not an error.
func SeedPresets(ctx context.Context, repo repository.PresetRepository, path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	existing, err := repo.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	seeds, err := config.LoadPresets(path)
	if err != nil {
		return err
	}
	for _, seed := range seeds {
		preset, err := PresetFromSeed(seed)
		if err != nil {
			return err
		}
		if err := repo.Create(ctx, preset); err != nil {
			return fmt.Errorf("failed to store preset %q: %w", seed.Name, err)
		}
	}
	logger.Info("Presets seeded", logger.Int("count", len(seeds)), logger.String("file", path))
	return nil
}

// PresetFromSeed turns a YAML entry into a preset with a fresh ID and clamped parameters.
func PresetFromSeed(seed config.PresetSeed) (*model.VisualizerPreset, error) {
	params := model.DefaultParameters()
	if seed.Mode != "" {
		mode, err := model.ParseVisualizerMode(seed.Mode)
		if err != nil {
			return nil, fmt.Errorf("preset %q: %w", seed.Name, err)
		}
		params.Mode = mode
	}
	if seed.Color != "" {
		params.Color = seed.Color
	}
	params.Intensity = seed.Intensity
	params.Speed = seed.Speed

	return &model.VisualizerPreset{
		ID:         uuid.NewString(),
		Name:       seed.Name,
		Parameters: params.Clamp(),
		CreatedAt:  time.Now(),
	}, nil
}
