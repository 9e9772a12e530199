package repository

import (
	"context"
	"fmt"

	"SpectraFM/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TrackRepository stores library entries ordered by their slot.
type TrackRepository interface {
	Save(ctx context.Context, track *model.Track) error
	GetByID(ctx context.Context, id string) (*model.Track, error)
	List(ctx context.Context) ([]model.Track, error)
	Delete(ctx context.Context, id string) error
	// Replace swaps the record oldID for track in one transaction, keeping oldID's slot.
	Replace(ctx context.Context, oldID string, track *model.Track) error
}

type gormTrackRepository struct {
	db *gorm.DB
}

func NewGormTrackRepository(db *gorm.DB) TrackRepository {
	return &gormTrackRepository{db: db}
}

// Save inserts or updates track.
func (r *gormTrackRepository) Save(ctx context.Context, track *model.Track) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(track).Error
}

func (r *gormTrackRepository) GetByID(ctx context.Context, id string) (*model.Track, error) {
	var track model.Track
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&track).Error; err != nil {
		return nil, notFound(err)
	}
	return &track, nil
}

func (r *gormTrackRepository) List(ctx context.Context) ([]model.Track, error) {
	var tracks []model.Track
	err := r.db.WithContext(ctx).Order("position ASC").Order("created_at ASC").Find(&tracks).Error
	return tracks, err
}

func (r *gormTrackRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Track{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormTrackRepository) Replace(ctx context.Context, oldID string, track *model.Track) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var old model.Track
		if err := tx.Where("id = ?", oldID).First(&old).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Delete(&old).Error; err != nil {
			return fmt.Errorf("failed to remove placeholder %s: %w", oldID, err)
		}
		track.Position = old.Position
		return tx.Create(track).Error
	})
}
