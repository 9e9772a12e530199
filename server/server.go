// Package server exposes the player over HTTP and websockets.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"SpectraFM/core/agent"
	"SpectraFM/core/auth"
	"SpectraFM/core/control"
	"SpectraFM/core/lyrics"
	"SpectraFM/core/playback"
	"SpectraFM/core/visualizer"
	"SpectraFM/library"
	"SpectraFM/logger"
	"SpectraFM/model"
	"SpectraFM/repository"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
)

// DJ is the AI side of the player.
type DJ interface {
	ChatReply(ctx context.Context, text string, track *model.Track) string
	ChatStream(ctx context.Context, text string, track *model.Track, cb agent.StreamCallback) string
	VibeOf(ctx context.Context, track model.Track) model.Vibe
	Transcript() *agent.Transcript
}

// VibeStore caches vibe readings per track.
type VibeStore interface {
	Get(ctx context.Context, trackID string) (model.Vibe, bool, error)
	Set(ctx context.Context, trackID string, v model.Vibe) error
}

// TrackSearcher finds tracks outside the library.
type TrackSearcher interface {
	Search(ctx context.Context, query string) []model.Track
}

// Deps are the services a Server routes to. Vibes may be nil.
type Deps struct {
	Library   *library.Library
	Playlists *library.Playlists
	Presets   repository.PresetRepository
	Params    *control.ParamStore
	Player    *playback.Player
	Lyrics    *lyrics.Service
	DJ        DJ
	Vibes     VibeStore
	Search    TrackSearcher
	Issuer    *auth.Issuer
	Engine    *visualizer.Engine
	Scene     *visualizer.SceneState

	AdminPasswordHash string
	FrameRate         int
}

type Server struct {
	lib       *library.Library
	playlists *library.Playlists
	presets   repository.PresetRepository
	params    *control.ParamStore
	drag      *control.DragGesture
	player    *playback.Player
	lyrics    *lyrics.Service
	editor    *lyrics.Editor
	dj        DJ
	vibes     VibeStore
	search    TrackSearcher
	issuer    *auth.Issuer
	engine    *visualizer.Engine
	scene     *visualizer.SceneState
	frames    *FrameHub
	upgrader  websocket.Upgrader

	adminHash string
	frameRate int

	editMu sync.Mutex

	trackMu   sync.Mutex
	trackGen  atomic.Uint64
	vibeMu    sync.RWMutex
	vibe      model.Vibe
	vibeTrack string
	bg        sync.WaitGroup
}

func New(d Deps) *Server {
	s := &Server{
		lib:       d.Library,
		playlists: d.Playlists,
		presets:   d.Presets,
		params:    d.Params,
		drag:      control.NewDragGesture(d.Params),
		player:    d.Player,
		lyrics:    d.Lyrics,
		editor:    lyrics.NewEditor(d.Lyrics),
		dj:        d.DJ,
		vibes:     d.Vibes,
		search:    d.Search,
		issuer:    d.Issuer,
		engine:    d.Engine,
		scene:     d.Scene,
		frames:    NewFrameHub(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		adminHash: d.AdminPasswordHash,
		frameRate: d.FrameRate,
		vibe:      model.Vibe{Color: agent.DefaultVibeColor},
	}
	s.player.OnTrackChange(s.onTrackChange)
	return s
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(corsMiddleware, logMiddleware)

	// Preflights match no API route; this catch-all gives them one so the middleware runs.
	router.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.HandleFunc("/api/auth/login", s.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/ws/dj", s.DJSocketHandler)
	router.HandleFunc("/ws/frames", s.FramesSocketHandler)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(s.AuthMiddleware)

	api.HandleFunc("/auth/me", s.MeHandler).Methods(http.MethodGet)

	api.HandleFunc("/tracks", s.ListTracksHandler).Methods(http.MethodGet)
	api.HandleFunc("/tracks", s.AddTrackHandler).Methods(http.MethodPost)
	api.HandleFunc("/tracks/{id}", s.DeleteTrackHandler).Methods(http.MethodDelete)

	api.HandleFunc("/playlists", s.ListPlaylistsHandler).Methods(http.MethodGet)
	api.HandleFunc("/playlists", s.CreatePlaylistHandler).Methods(http.MethodPost)
	api.HandleFunc("/playlists/{id}", s.GetPlaylistHandler).Methods(http.MethodGet)
	api.HandleFunc("/playlists/{id}", s.DeletePlaylistHandler).Methods(http.MethodDelete)
	api.HandleFunc("/playlists/{id}/tracks", s.AddPlaylistTrackHandler).Methods(http.MethodPost)
	api.HandleFunc("/playlists/{id}/tracks/{track_id}", s.RemovePlaylistTrackHandler).Methods(http.MethodDelete)

	api.HandleFunc("/presets", s.ListPresetsHandler).Methods(http.MethodGet)
	api.HandleFunc("/presets", s.CreatePresetHandler).Methods(http.MethodPost)
	api.HandleFunc("/presets/{id}", s.DeletePresetHandler).Methods(http.MethodDelete)
	api.HandleFunc("/presets/{id}/apply", s.ApplyPresetHandler).Methods(http.MethodPost)

	api.HandleFunc("/visualizer", s.GetVisualizerHandler).Methods(http.MethodGet)
	api.HandleFunc("/visualizer", s.UpdateVisualizerHandler).Methods(http.MethodPut)
	api.HandleFunc("/visualizer/mode/next", s.NextModeHandler).Methods(http.MethodPost)
	api.HandleFunc("/visualizer/color/{index}", s.SelectColorHandler).Methods(http.MethodPost)
	api.HandleFunc("/visualizer/drag", s.DragHandler).Methods(http.MethodPost)

	api.HandleFunc("/playback", s.PlaybackStatusHandler).Methods(http.MethodGet)
	api.HandleFunc("/playback/play", s.PlayHandler).Methods(http.MethodPost)
	api.HandleFunc("/playback/pause", s.PauseHandler).Methods(http.MethodPost)
	api.HandleFunc("/playback/next", s.NextHandler).Methods(http.MethodPost)
	api.HandleFunc("/playback/prev", s.PrevHandler).Methods(http.MethodPost)
	api.HandleFunc("/playback/seek", s.SeekHandler).Methods(http.MethodPost)
	api.HandleFunc("/playback/volume", s.VolumeHandler).Methods(http.MethodPost)
	api.HandleFunc("/playback/select", s.SelectHandler).Methods(http.MethodPost)

	api.HandleFunc("/dj/chat", s.ChatHandler).Methods(http.MethodPost)
	api.HandleFunc("/dj/history", s.ChatHistoryHandler).Methods(http.MethodGet)
	api.HandleFunc("/dj/vibe/{track_id}", s.VibeHandler).Methods(http.MethodGet)
	api.HandleFunc("/lyrics/{track_id}", s.GetLyricsHandler).Methods(http.MethodGet)
	api.HandleFunc("/lyrics/{track_id}", s.PutLyricsHandler).Methods(http.MethodPut)

	api.HandleFunc("/search", s.SearchHandler).Methods(http.MethodGet)

	return router
}

// Run serves addr and drives the frame loop until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // websockets and uploads hold the connection
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.frames.Run(gctx)
		return nil
	})
	g.Go(func() error {
		s.player.Adapter().Pump(gctx)
		return nil
	})
	g.Go(func() error {
		err := s.engine.Run(gctx, s.frameRate, s.scene, s.broadcastFrame)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		logger.Info("Server starting", logger.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server forced to shutdown", logger.ErrorField(err))
			return err
		}
		return nil
	})

	err := g.Wait()
	s.bg.Wait()
	s.lyrics.Wait()
	logger.Info("Server exited")
	return err
}

// onTrackChange fetches the lyrics and the vibe of the new track concurrently. Work for a
// track that is no longer current is dropped.
func (s *Server) onTrackChange(track model.Track) {
	gen := s.trackGen.Add(1)
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), lyrics.DefaultFetchTimeout)
		defer cancel()

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			s.trackMu.Lock()
			defer s.trackMu.Unlock()
			if s.trackGen.Load() != gen {
				return nil
			}
			s.lyrics.Select(gctx, track)
			return nil
		})
		g.Go(func() error {
			v := s.vibeFor(gctx, track)
			s.vibeMu.Lock()
			defer s.vibeMu.Unlock()
			if s.trackGen.Load() == gen {
				s.vibe, s.vibeTrack = v, track.ID
			}
			return nil
		})
		_ = g.Wait()
	}()
}

// vibeFor reads the cache first and stores fresh readings.
func (s *Server) vibeFor(ctx context.Context, track model.Track) model.Vibe {
	if s.vibes != nil {
		v, ok, err := s.vibes.Get(ctx, track.ID)
		if err != nil {
			logger.Warn("Vibe cache read failed", logger.String("trackId", track.ID), logger.ErrorField(err))
		}
		if ok {
			return v
		}
	}
	v := s.dj.VibeOf(ctx, track)
	if s.vibes != nil {
		if err := s.vibes.Set(ctx, track.ID, v); err != nil {
			logger.Warn("Vibe cache write failed", logger.String("trackId", track.ID), logger.ErrorField(err))
		}
	}
	return v
}

func (s *Server) currentVibe() (model.Vibe, string) {
	s.vibeMu.RLock()
	defer s.vibeMu.RUnlock()
	return s.vibe, s.vibeTrack
}

// Wait blocks until background track-change work has finished.
func (s *Server) Wait() {
	s.bg.Wait()
	s.lyrics.Wait()
}
