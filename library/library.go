// Package library manages the local track library and the playlists built from it.
package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"SpectraFM/logger"
	"SpectraFM/model"
	"SpectraFM/repository"

	"github.com/google/uuid"
)

// ErrTrackNotFound is returned for unknown track IDs.
var ErrTrackNotFound = errors.New("track not found")

// Blobs stores track audio.
type Blobs interface {
	Save(ctx context.Context, track model.Track, r io.Reader, size int64, contentType string) (string, error)
	PlayableURL(ctx context.Context, key string) (string, error)
	Remove(ctx context.Context, id string) error
	// ListAll rebuilds ready tracks from what is stored, with playable URLs.
	ListAll(ctx context.Context) ([]model.Track, error)
}

// Upload describes a file being added to the library.
type Upload struct {
	Title       string
	Artist      string
	Duration    float64
	ContentType string
	Size        int64
	Body        io.Reader
}

// Library keeps the ordered track list in memory and writes every change through to the
// repository. Storage failures are returned to the caller.
type Library struct {
	repo  repository.TrackRepository
	blobs Blobs
	now   func() time.Time

	mu     sync.RWMutex
	tracks []model.Track
}

func New(repo repository.TrackRepository, blobs Blobs) *Library {
	return &Library{repo: repo, blobs: blobs, now: time.Now}
}

// Load replaces the in-memory list with the repository contents. Placeholders left behind
// by an interrupted upload are dropped. An empty repository is rebuilt from blob storage.
func (l *Library) Load(ctx context.Context) error {
	tracks, err := l.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load library: %w", err)
	}
	if len(tracks) == 0 {
		if tracks, err = l.recoverFromBlobs(ctx); err != nil {
			return err
		}
	}
	kept := tracks[:0]
	for _, t := range tracks {
		if t.Status == model.TrackUploading {
			if err := l.repo.Delete(ctx, t.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
				logger.Warn("Could not drop stale placeholder", logger.String("trackId", t.ID), logger.ErrorField(err))
			}
			continue
		}
		if t.IsLocal && t.BlobKey != "" {
			if u, err := l.blobs.PlayableURL(ctx, t.BlobKey); err == nil {
				t.Source.URL = u
			} else {
				logger.Warn("Could not refresh playable URL", logger.String("trackId", t.ID), logger.ErrorField(err))
			}
		}
		kept = append(kept, t)
	}

	l.mu.Lock()
	l.tracks = kept
	l.mu.Unlock()
	logger.Info("Library loaded", logger.Int("tracks", len(kept)))
	return nil
}

// recoverFromBlobs writes every stored blob back to the repository, oldest first.
func (l *Library) recoverFromBlobs(ctx context.Context) ([]model.Track, error) {
	tracks, err := l.blobs.ListAll(ctx)
	if err != nil {
		logger.Warn("Could not list stored tracks", logger.ErrorField(err))
		return nil, nil
	}
	sort.SliceStable(tracks, func(i, j int) bool { return tracks[i].CreatedAt.Before(tracks[j].CreatedAt) })
	for i := range tracks {
		tracks[i].Position = i
		if err := l.repo.Save(ctx, &tracks[i]); err != nil {
			return nil, fmt.Errorf("failed to restore track %s: %w", tracks[i].ID, err)
		}
	}
	if len(tracks) > 0 {
		logger.Info("Library restored from blob storage", logger.Int("tracks", len(tracks)))
	}
	return tracks, nil
}

func (l *Library) nextPositionLocked() int {
	pos := 0
	for _, t := range l.tracks {
		if t.Position >= pos {
			pos = t.Position + 1
		}
	}
	return pos
}

// Upload inserts an uploading placeholder, stores the audio and then swaps the placeholder
// for the ready track in the same slot. The placeholder is removed again if storing fails.
func (l *Library) Upload(ctx context.Context, up Upload) (model.Track, error) {
	title := strings.TrimSpace(up.Title)
	if title == "" {
		title = "Untitled"
	}

	l.mu.Lock()
	placeholder := model.Track{
		ID:        uuid.NewString(),
		Title:     title,
		Artist:    up.Artist,
		Status:    model.TrackUploading,
		IsLocal:   true,
		Position:  l.nextPositionLocked(),
		CreatedAt: l.now(),
	}
	l.tracks = append(l.tracks, placeholder)
	l.mu.Unlock()

	if err := l.repo.Save(ctx, &placeholder); err != nil {
		l.drop(placeholder.ID)
		return model.Track{}, fmt.Errorf("failed to save placeholder: %w", err)
	}

	ready := placeholder
	ready.ID = uuid.NewString()
	ready.Status = model.TrackReady
	ready.Duration = up.Duration

	key, err := l.blobs.Save(ctx, ready, up.Body, up.Size, up.ContentType)
	if err != nil {
		l.abandon(ctx, placeholder.ID)
		return model.Track{}, err
	}
	ready.BlobKey = key
	u, err := l.blobs.PlayableURL(ctx, key)
	if err != nil {
		l.abandon(ctx, placeholder.ID)
		_ = l.blobs.Remove(ctx, ready.ID)
		return model.Track{}, err
	}
	ready.Source = model.TrackSource{Kind: model.SourceLocal, URL: u}

	if err := l.repo.Replace(ctx, placeholder.ID, &ready); err != nil {
		l.abandon(ctx, placeholder.ID)
		_ = l.blobs.Remove(ctx, ready.ID)
		return model.Track{}, fmt.Errorf("failed to finish upload: %w", err)
	}

	l.mu.Lock()
	for i := range l.tracks {
		if l.tracks[i].ID == placeholder.ID {
			l.tracks[i] = ready
			break
		}
	}
	l.mu.Unlock()

	logger.Info("Track uploaded",
		logger.String("trackId", ready.ID),
		logger.String("title", ready.Title))
	return ready, nil
}

func (l *Library) abandon(ctx context.Context, placeholderID string) {
	l.drop(placeholderID)
	if err := l.repo.Delete(ctx, placeholderID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		logger.Warn("Could not delete placeholder", logger.String("trackId", placeholderID), logger.ErrorField(err))
	}
}

func (l *Library) drop(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, t := range l.tracks {
		if t.ID == id {
			l.tracks = append(l.tracks[:i], l.tracks[i+1:]...)
			return
		}
	}
}

// AddRemote adds a non-local track, such as a search result.
func (l *Library) AddRemote(ctx context.Context, track model.Track) (model.Track, error) {
	l.mu.Lock()
	for _, t := range l.tracks {
		if t.ID == track.ID {
			l.mu.Unlock()
			return t, nil
		}
	}
	if track.ID == "" {
		track.ID = uuid.NewString()
	}
	track.IsLocal = false
	track.Status = model.TrackReady
	track.Position = l.nextPositionLocked()
	if track.CreatedAt.IsZero() {
		track.CreatedAt = l.now()
	}
	l.tracks = append(l.tracks, track)
	l.mu.Unlock()

	if err := l.repo.Save(ctx, &track); err != nil {
		l.drop(track.ID)
		return model.Track{}, fmt.Errorf("failed to save track: %w", err)
	}
	return track, nil
}

// Remove deletes a track and, for local tracks, its audio.
func (l *Library) Remove(ctx context.Context, id string) error {
	track, ok := l.Get(id)
	if !ok {
		return ErrTrackNotFound
	}
	if track.IsLocal && track.Status == model.TrackReady {
		if err := l.blobs.Remove(ctx, id); err != nil {
			return fmt.Errorf("failed to remove audio of %s: %w", id, err)
		}
	}
	if err := l.repo.Delete(ctx, id); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to delete track %s: %w", id, err)
	}
	l.drop(id)
	return nil
}

func (l *Library) Get(id string) (model.Track, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, t := range l.tracks {
		if t.ID == id {
			return t, true
		}
	}
	return model.Track{}, false
}

// List returns every entry, placeholders included, in slot order.
func (l *Library) List() []model.Track {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]model.Track(nil), l.tracks...)
}

// Filter matches query against title and artist, case-insensitively. An empty query
// returns everything.
func (l *Library) Filter(query string) []model.Track {
	q := strings.ToLower(strings.TrimSpace(query))
	all := l.List()
	if q == "" {
		return all
	}
	out := all[:0]
	for _, t := range all {
		if strings.Contains(strings.ToLower(t.Title), q) || strings.Contains(strings.ToLower(t.Artist), q) {
			out = append(out, t)
		}
	}
	return out
}

// LibraryTracks returns the playable tracks in slot order.
func (l *Library) LibraryTracks() []model.Track {
	return readyOnly(l.List())
}

func readyOnly(tracks []model.Track) []model.Track {
	out := make([]model.Track, 0, len(tracks))
	for _, t := range tracks {
		if t.Ready() {
			out = append(out, t)
		}
	}
	return out
}
