package repository

import (
	"fmt"

	"gorm.io/gorm"

	"ragchat/internal/model"
)

type IngestionRepository struct {
	db *gorm.DB
}

func NewIngestionRepository(db *gorm.DB) *IngestionRepository {
	return &IngestionRepository{db: db}
}

func (r *IngestionRepository) Create(rec *model.IngestionRecord) error {
	if err := r.db.Create(rec).Error; err != nil {
		return fmt.Errorf("create ingestion record failed: %w", err)
	}
	return nil
}

// ListRecent returns the newest records first. An empty source lists every
// source.
func (r *IngestionRepository) ListRecent(source string, limit int) ([]model.IngestionRecord, error) {
	q := r.db.Model(&model.IngestionRecord{})
	if source != "" {
		q = q.Where("source = ?", source)
	}
	var list []model.IngestionRecord
	if err := q.Order("ingested_at DESC").Order("id DESC").Limit(limit).Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list ingestion records failed: %w", err)
	}
	return list, nil
}
