package playback

import (
	"errors"
	"sync"

	"SpectraFM/model"
)

// ErrEmptyContext means there is nothing to play, not even in the library.
var ErrEmptyContext = errors.New("playback context is empty")

// Sequences resolves the ordered tracks of a context.
type Sequences interface {
	LibraryTracks() []model.Track
	PlaylistTracks(id string) ([]model.Track, bool)
}

// Queue keeps the live PlaybackContext. Indices always wrap modulo the sequence length; an
// empty or missing playlist falls back to the library.
type Queue struct {
	mu   sync.Mutex
	seqs Sequences
	ctx  model.PlaybackContext
}

func NewQueue(seqs Sequences) *Queue {
	return &Queue{seqs: seqs, ctx: model.PlaybackContext{Kind: model.ContextLibrary}}
}

// resolveLocked returns the active sequence, falling back to the library when needed.
func (q *Queue) resolveLocked() ([]model.Track, error) {
	if q.ctx.Kind == model.ContextPlaylist {
		if tracks, ok := q.seqs.PlaylistTracks(q.ctx.PlaylistID); ok && len(tracks) > 0 {
			return tracks, nil
		}
		q.ctx = model.PlaybackContext{Kind: model.ContextLibrary, Index: q.ctx.Index}
	}
	tracks := q.seqs.LibraryTracks()
	if len(tracks) == 0 {
		return nil, ErrEmptyContext
	}
	return tracks, nil
}

func mod(i, n int) int {
	return ((i % n) + n) % n
}

func (q *Queue) step(delta int) (model.Track, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	tracks, err := q.resolveLocked()
	if err != nil {
		return model.Track{}, err
	}
	q.ctx.Index = mod(q.ctx.Index+delta, len(tracks))
	return tracks[q.ctx.Index], nil
}

// Current returns the track at the current index.
func (q *Queue) Current() (model.Track, error) {
	return q.step(0)
}

func (q *Queue) Next() (model.Track, error) {
	return q.step(1)
}

func (q *Queue) Prev() (model.Track, error) {
	return q.step(-1)
}

// Select switches to ctx and returns the track it points at.
func (q *Queue) Select(ctx model.PlaybackContext) (model.Track, error) {
	q.mu.Lock()
	if ctx.Kind == "" {
		ctx.Kind = model.ContextLibrary
	}
	q.ctx = ctx
	q.mu.Unlock()
	return q.step(0)
}

// SelectTrack points the context at the first occurrence of trackID in the active sequence.
func (q *Queue) SelectTrack(trackID string) (model.Track, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	tracks, err := q.resolveLocked()
	if err != nil {
		return model.Track{}, err
	}
	for i, t := range tracks {
		if t.ID == trackID {
			q.ctx.Index = i
			return t, nil
		}
	}
	return model.Track{}, ErrTrackNotInContext
}

// ErrTrackNotInContext is returned by SelectTrack for unknown IDs.
var ErrTrackNotInContext = errors.New("track not in playback context")

func (q *Queue) Context() model.PlaybackContext {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ctx
}
