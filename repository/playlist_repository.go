package repository

import (
	"context"

	"SpectraFM/model"

	"gorm.io/gorm"
)

// PlaylistRepository stores playlists with by-value track copies.
type PlaylistRepository interface {
	Create(ctx context.Context, playlist *model.Playlist) error
	Get(ctx context.Context, id string) (*model.Playlist, error)
	List(ctx context.Context) ([]model.Playlist, error)
	// AddTrack appends track unless the playlist already holds its ID. It reports whether
	// the playlist changed.
	AddTrack(ctx context.Context, playlistID string, track model.Track) (bool, error)
	RemoveTrack(ctx context.Context, playlistID, trackID string) error
	Delete(ctx context.Context, id string) error
}

type gormPlaylistRepository struct {
	db *gorm.DB
}

func NewGormPlaylistRepository(db *gorm.DB) PlaylistRepository {
	return &gormPlaylistRepository{db: db}
}

func (r *gormPlaylistRepository) Create(ctx context.Context, playlist *model.Playlist) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := model.PlaylistRecord{ID: playlist.ID, Name: playlist.Name, CreatedAt: playlist.CreatedAt}
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
		playlist.CreatedAt = rec.CreatedAt
		for i, t := range playlist.Tracks {
			entry := model.PlaylistEntry{PlaylistID: playlist.ID, TrackID: t.ID, Position: i, Track: t}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *gormPlaylistRepository) Get(ctx context.Context, id string) (*model.Playlist, error) {
	var rec model.PlaylistRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, notFound(err)
	}
	var entries []model.PlaylistEntry
	if err := r.db.WithContext(ctx).Where("playlist_id = ?", id).Order("position ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return assemble(rec, entries), nil
}

func (r *gormPlaylistRepository) List(ctx context.Context) ([]model.Playlist, error) {
	var recs []model.PlaylistRecord
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&recs).Error; err != nil {
		return nil, err
	}
	var entries []model.PlaylistEntry
	if err := r.db.WithContext(ctx).Order("playlist_id ASC").Order("position ASC").Find(&entries).Error; err != nil {
		return nil, err
	}

	byPlaylist := make(map[string][]model.PlaylistEntry, len(recs))
	for _, e := range entries {
		byPlaylist[e.PlaylistID] = append(byPlaylist[e.PlaylistID], e)
	}
	out := make([]model.Playlist, 0, len(recs))
	for _, rec := range recs {
		out = append(out, *assemble(rec, byPlaylist[rec.ID]))
	}
	return out, nil
}

func assemble(rec model.PlaylistRecord, entries []model.PlaylistEntry) *model.Playlist {
	p := &model.Playlist{ID: rec.ID, Name: rec.Name, CreatedAt: rec.CreatedAt, Tracks: []model.Track{}}
	for _, e := range entries {
		p.Add(e.Track)
	}
	return p
}

func (r *gormPlaylistRepository) AddTrack(ctx context.Context, playlistID string, track model.Track) (bool, error) {
	added := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.PlaylistRecord{}).Where("id = ?", playlistID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		if err := tx.Model(&model.PlaylistEntry{}).
			Where("playlist_id = ? AND track_id = ?", playlistID, track.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		var next int64
		if err := tx.Model(&model.PlaylistEntry{}).
			Where("playlist_id = ?", playlistID).
			Select("COALESCE(MAX(position) + 1, 0)").
			Scan(&next).Error; err != nil {
			return err
		}
		entry := model.PlaylistEntry{PlaylistID: playlistID, TrackID: track.ID, Position: int(next), Track: track}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		added = true
		return nil
	})
	return added, err
}

func (r *gormPlaylistRepository) RemoveTrack(ctx context.Context, playlistID, trackID string) error {
	res := r.db.WithContext(ctx).
		Where("playlist_id = ? AND track_id = ?", playlistID, trackID).
		Delete(&model.PlaylistEntry{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormPlaylistRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("playlist_id = ?", id).Delete(&model.PlaylistEntry{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.PlaylistRecord{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
