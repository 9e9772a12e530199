// Package search finds playable tracks outside the local library.
package search

import (
	"context"
	"strings"

	"SpectraFM/model"
)

// Searcher looks tracks up by free text. Implementations never fail: an empty query gives
// no results and a backend failure gives a fallback list.
type Searcher interface {
	Search(ctx context.Context, query string) []model.Track
	Source() string
}

// Registry holds searchers by source name.
type Registry struct {
	searchers map[string]Searcher
	def       string
}

func NewRegistry() *Registry {
	return &Registry{searchers: make(map[string]Searcher)}
}

// Register adds s. The first registered searcher becomes the default.
func (r *Registry) Register(s Searcher) {
	r.searchers[s.Source()] = s
	if r.def == "" {
		r.def = s.Source()
	}
}

func (r *Registry) Get(source string) Searcher {
	return r.searchers[source]
}

// Search uses the default searcher.
func (r *Registry) Search(ctx context.Context, query string) []model.Track {
	s := r.searchers[r.def]
	if s == nil || strings.TrimSpace(query) == "" {
		return nil
	}
	return s.Search(ctx, query)
}

// FallbackTracks is served when the live lookup fails so callers always have something.
func FallbackTracks() []model.Track {
	return []model.Track{
		videoTrack("fJ9rUzIMcZQ", "Bohemian Rhapsody", "Queen"),
		videoTrack("dQw4w9WgXcQ", "Never Gonna Give You Up", "Rick Astley"),
		videoTrack("4NRXx6U8ABQ", "Blinding Lights", "The Weeknd"),
		videoTrack("kXYiU_JCYtU", "Numb", "Linkin Park"),
		videoTrack("hTWKbfoikeg", "Smells Like Teen Spirit", "Nirvana"),
	}
}

func videoTrack(videoID, title, artist string) model.Track {
	return model.Track{
		ID:     "yt-" + videoID,
		Title:  title,
		Artist: artist,
		Source: model.TrackSource{
			Kind:    model.SourceVideo,
			VideoID: videoID,
			URL:     "https://www.youtube.com/watch?v=" + videoID,
		},
		CoverURL: "https://i.ytimg.com/vi/" + videoID + "/hqdefault.jpg",
		Status:   model.TrackReady,
	}
}
