package lyrics

import (
	"context"
	"sync"
	"time"

	"SpectraFM/logger"
	"SpectraFM/model"
)

// Fetcher produces lyrics for a track. It never fails; an empty string means not found.
type Fetcher interface {
	LyricsOf(ctx context.Context, track model.Track) string
}

// NoticeFetcher is implemented by fetchers that sometimes reply with a status message, such
// as a quota notice, instead of lyrics. Notices are shown but never cached.
type NoticeFetcher interface {
	IsNotice(text string) bool
}

// DefaultFetchTimeout bounds one background fetch.
const DefaultFetchTimeout = 30 * time.Second

// Service tracks the lyrics of the currently selected track. Fetches run in the background
// and only land if their track is still the current one when they finish.
type Service struct {
	fetcher Fetcher
	cache   Cache
	timeout time.Duration

	// storeMu orders cache writes of fetches and commits; edits counts commits per track so a
	// fetch started before a commit never lands.
	storeMu sync.Mutex

	mu        sync.Mutex
	state     model.LyricsState
	edits     map[string]uint64
	listeners []func(model.LyricsState)
	inflight  sync.WaitGroup
}

func NewService(fetcher Fetcher, cache Cache) *Service {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Service{fetcher: fetcher, cache: cache, timeout: DefaultFetchTimeout, edits: make(map[string]uint64)}
}

// OnChange registers a listener called whenever the state changes.
func (s *Service) OnChange(fn func(model.LyricsState)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Select makes track current. A cached entry is used directly; otherwise the returned state
// has Loading set and the fetch continues in the background.
func (s *Service) Select(ctx context.Context, track model.Track) model.LyricsState {
	text, hit, err := s.cache.Get(ctx, track.ID)
	if err != nil {
		logger.Warn("Lyrics cache read failed", logger.String("trackId", track.ID), logger.ErrorField(err))
	}

	s.mu.Lock()
	if hit {
		s.state = model.LyricsState{TrackID: track.ID, Text: text}
	} else {
		s.state = model.LyricsState{TrackID: track.ID, Loading: true}
	}
	state := s.state
	gen := s.edits[track.ID]
	s.mu.Unlock()
	s.notify(state)

	if !hit {
		s.inflight.Add(1)
		go s.fetch(context.WithoutCancel(ctx), track, gen)
	}
	return state
}

func (s *Service) isNotice(text string) bool {
	n, ok := s.fetcher.(NoticeFetcher)
	return ok && text != "" && n.IsNotice(text)
}

// result is the state a fetched reply turns into.
func (s *Service) result(trackID, text string) model.LyricsState {
	if s.isNotice(text) {
		return model.LyricsState{TrackID: trackID, Notice: text}
	}
	return model.LyricsState{TrackID: trackID, Text: text}
}

func (s *Service) fetch(ctx context.Context, track model.Track, gen uint64) {
	defer s.inflight.Done()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text := s.fetcher.LyricsOf(ctx, track)

	s.storeMu.Lock()
	defer s.storeMu.Unlock()
	if s.edited(track.ID, gen) {
		logger.Debug("Dropping lyrics fetched before an edit", logger.String("trackId", track.ID))
		return
	}
	if !s.isNotice(text) {
		if err := s.cache.Set(ctx, track.ID, text); err != nil {
			logger.Warn("Lyrics cache write failed", logger.String("trackId", track.ID), logger.ErrorField(err))
		}
	}

	s.mu.Lock()
	if s.state.TrackID != track.ID {
		current := s.state.TrackID
		s.mu.Unlock()
		logger.Debug("Dropping stale lyrics",
			logger.String("trackId", track.ID),
			logger.String("currentTrackId", current))
		return
	}
	s.state = s.result(track.ID, text)
	state := s.state
	s.mu.Unlock()
	s.notify(state)
}

func (s *Service) edited(trackID string, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.edits[trackID] != gen
}

// Get returns the lyrics of any track from the cache, fetching synchronously on a miss.
// It does not change the current track. A notice reply yields "".
func (s *Service) Get(ctx context.Context, track model.Track) string {
	if text, ok, err := s.cache.Get(ctx, track.ID); err == nil && ok {
		return text
	}
	s.mu.Lock()
	gen := s.edits[track.ID]
	s.mu.Unlock()

	text := s.fetcher.LyricsOf(ctx, track)
	if s.isNotice(text) {
		return ""
	}

	s.storeMu.Lock()
	defer s.storeMu.Unlock()
	if s.edited(track.ID, gen) {
		if cached, ok, err := s.cache.Get(ctx, track.ID); err == nil && ok {
			return cached
		}
		return text
	}
	if err := s.cache.Set(ctx, track.ID, text); err != nil {
		logger.Warn("Lyrics cache write failed", logger.String("trackId", track.ID), logger.ErrorField(err))
	}
	return text
}

// Commit stores user-edited text for trackID and shows it if that track is current. Fetches
// already running for trackID are discarded.
func (s *Service) Commit(ctx context.Context, trackID, text string) error {
	s.storeMu.Lock()
	defer s.storeMu.Unlock()

	s.mu.Lock()
	s.edits[trackID]++
	s.mu.Unlock()

	if err := s.cache.Set(ctx, trackID, text); err != nil {
		return err
	}
	s.mu.Lock()
	if s.state.TrackID != trackID {
		s.mu.Unlock()
		return nil
	}
	s.state = model.LyricsState{TrackID: trackID, Text: text}
	state := s.state
	s.mu.Unlock()
	s.notify(state)
	return nil
}

func (s *Service) State() model.LyricsState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CurrentLine estimates the active line of the current lyrics.
func (s *Service) CurrentLine(p model.Progress) (string, int, bool) {
	s.mu.Lock()
	text, loading := s.state.Text, s.state.Loading
	s.mu.Unlock()
	if loading {
		return "", -1, false
	}
	return Estimate(text, p.CurrentTime, p.Duration)
}

// Wait blocks until all background fetches have finished.
func (s *Service) Wait() {
	s.inflight.Wait()
}

func (s *Service) notify(state model.LyricsState) {
	s.mu.Lock()
	listeners := append([]func(model.LyricsState){}, s.listeners...)
	s.mu.Unlock()
	for _, l := range listeners {
		l(state)
	}
}
