package store

import (
	"context"
	"errors"

	"smartbarangay/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormKV keeps slots as rows of slot_records.
type GormKV struct {
	db *gorm.DB
}

// NewGormKV returns a backend on db. The slot_records table must exist.
func NewGormKV(db *gorm.DB) *GormKV {
	return &GormKV{db: db}
}

func (g *GormKV) Get(ctx context.Context, key string) (string, bool, error) {
	var rec models.SlotRecord
	err := g.db.WithContext(ctx).Where("slot_key = ?", key).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return rec.Value, true, nil
}

func (g *GormKV) Set(ctx context.Context, key, value string) error {
	rec := models.SlotRecord{Key: key, Value: value}
	return g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slot_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rec).Error
}

func (g *GormKV) Delete(ctx context.Context, key string) error {
	return g.db.WithContext(ctx).Where("slot_key = ?", key).Delete(&models.SlotRecord{}).Error
}

func (g *GormKV) Name() string { return "sql" }
