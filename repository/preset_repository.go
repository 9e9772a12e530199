package repository

import (
	"context"

	"SpectraFM/model"

	"gorm.io/gorm"
)

// PresetRepository only appends and removes; presets are never edited in place.
type PresetRepository interface {
	Create(ctx context.Context, preset *model.VisualizerPreset) error
	List(ctx context.Context) ([]model.VisualizerPreset, error)
	Delete(ctx context.Context, id string) error
}

type gormPresetRepository struct {
	db *gorm.DB
}

func NewGormPresetRepository(db *gorm.DB) PresetRepository {
	return &gormPresetRepository{db: db}
}

func (r *gormPresetRepository) Create(ctx context.Context, preset *model.VisualizerPreset) error {
	return r.db.WithContext(ctx).Create(preset).Error
}

func (r *gormPresetRepository) List(ctx context.Context) ([]model.VisualizerPreset, error) {
	var presets []model.VisualizerPreset
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&presets).Error
	return presets, err
}

func (r *gormPresetRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.VisualizerPreset{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
