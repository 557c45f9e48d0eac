package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type storageRow struct {
	Key       string    `gorm:"column:storage_key;primaryKey;size:64"`
	Value     string    `gorm:"column:value"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (storageRow) TableName() string { return "client_storage" }

// GormStore keeps the token in a key/value table. It survives restarts.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore migrates the storage table and returns the store.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&storageRow{}); err != nil {
		return nil, fmt.Errorf("migrate client_storage: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Get(ctx context.Context) (string, error) {
	var row storageRow
	err := s.db.WithContext(ctx).Where("storage_key = ?", TokenKey).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return row.Value, nil
}

func (s *GormStore) Set(ctx context.Context, token string) error {
	row := storageRow{Key: TokenKey, Value: token, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "storage_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}

func (s *GormStore) Clear(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Where("storage_key = ?", TokenKey).Delete(&storageRow{}).Error; err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}
