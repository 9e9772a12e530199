package library

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"SpectraFM/model"
	"SpectraFM/repository"

	"github.com/google/uuid"
)

// ErrPlaylistNotFound is returned for unknown playlist IDs.
var ErrPlaylistNotFound = errors.New("playlist not found")

// Playlists keeps playlists in memory and writes through to the repository.
type Playlists struct {
	repo repository.PlaylistRepository
	now  func() time.Time

	mu    sync.RWMutex
	items []model.Playlist
}

func NewPlaylists(repo repository.PlaylistRepository) *Playlists {
	return &Playlists{repo: repo, now: time.Now}
}

func (p *Playlists) Load(ctx context.Context) error {
	items, err := p.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load playlists: %w", err)
	}
	p.mu.Lock()
	p.items = items
	p.mu.Unlock()
	return nil
}

func (p *Playlists) Create(ctx context.Context, name string) (model.Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Playlist{}, fmt.Errorf("playlist name is required")
	}
	pl := model.Playlist{ID: uuid.NewString(), Name: name, Tracks: []model.Track{}, CreatedAt: p.now()}
	if err := p.repo.Create(ctx, &pl); err != nil {
		return model.Playlist{}, fmt.Errorf("failed to create playlist: %w", err)
	}
	p.mu.Lock()
	p.items = append(p.items, pl)
	p.mu.Unlock()
	return pl, nil
}

func (p *Playlists) List() []model.Playlist {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]model.Playlist, len(p.items))
	for i, pl := range p.items {
		pl.Tracks = append([]model.Track(nil), pl.Tracks...)
		out[i] = pl
	}
	return out
}

func (p *Playlists) Get(id string) (model.Playlist, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, pl := range p.items {
		if pl.ID == id {
			pl.Tracks = append([]model.Track(nil), pl.Tracks...)
			return pl, true
		}
	}
	return model.Playlist{}, false
}

func (p *Playlists) index(id string) int {
	for i, pl := range p.items {
		if pl.ID == id {
			return i
		}
	}
	return -1
}

// AddTrack copies track into the playlist. Adding a track that is already there is a no-op.
func (p *Playlists) AddTrack(ctx context.Context, playlistID string, track model.Track) (bool, error) {
	p.mu.RLock()
	i := p.index(playlistID)
	dup := i >= 0 && p.items[i].Contains(track.ID)
	p.mu.RUnlock()
	if i < 0 {
		return false, ErrPlaylistNotFound
	}
	if dup {
		return false, nil
	}

	added, err := p.repo.AddTrack(ctx, playlistID, track)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, ErrPlaylistNotFound
		}
		return false, fmt.Errorf("failed to add track: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if i = p.index(playlistID); i >= 0 {
		p.items[i].Add(track)
	}
	return added, nil
}

func (p *Playlists) RemoveTrack(ctx context.Context, playlistID, trackID string) error {
	if err := p.repo.RemoveTrack(ctx, playlistID, trackID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTrackNotFound
		}
		return fmt.Errorf("failed to remove track: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if i := p.index(playlistID); i >= 0 {
		p.items[i].Remove(trackID)
	}
	return nil
}

func (p *Playlists) Delete(ctx context.Context, id string) error {
	if err := p.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPlaylistNotFound
		}
		return fmt.Errorf("failed to delete playlist: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if i := p.index(id); i >= 0 {
		p.items = append(p.items[:i], p.items[i+1:]...)
	}
	return nil
}

// Catalog resolves playback sequences from the library and the playlists.
type Catalog struct {
	Library   *Library
	Playlists *Playlists
}

func (c Catalog) LibraryTracks() []model.Track {
	return c.Library.LibraryTracks()
}

func (c Catalog) PlaylistTracks(id string) ([]model.Track, bool) {
	pl, ok := c.Playlists.Get(id)
	if !ok {
		return nil, false
	}
	return readyOnly(pl.Tracks), true
}
