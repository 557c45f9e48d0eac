package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"anycomp/internal/domain"
)

type MediaRepository struct {
	db *gorm.DB
}

func NewMediaRepository(db *gorm.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

// Create stores m. path is where the file lives on disk.
func (r *MediaRepository) Create(ctx context.Context, m *domain.Media, path string) error {
	row := mediaModel{
		ID:           uuid.NewString(),
		SpecialistID: m.SpecialistID,
		FileName:     m.FileName,
		FileSize:     m.FileSize,
		MimeType:     m.MimeType,
		Path:         path,
		URL:          m.URL,
		DisplayOrder: m.DisplayOrder,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	*m = toDomainMedia(row)
	return nil
}

// Get returns the media item and its file path.
func (r *MediaRepository) Get(ctx context.Context, id string) (*domain.Media, string, error) {
	var row mediaModel
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, "", notFound(err)
	}
	m := toDomainMedia(row)
	return &m, row.Path, nil
}

func (r *MediaRepository) ListBySpecialist(ctx context.Context, specialistID string) ([]domain.Media, error) {
	var rows []mediaModel
	err := r.db.WithContext(ctx).
		Where("specialist_id = ?", specialistID).
		Order("display_order ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.Media, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainMedia(row))
	}
	return out, nil
}

// OrderTaken reports whether another media item of the specialist already
// uses displayOrder.
func (r *MediaRepository) OrderTaken(ctx context.Context, specialistID string, displayOrder int, exceptID string) (bool, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(&mediaModel{}).
		Where("specialist_id = ? AND display_order = ?", specialistID, displayOrder)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	err := q.Count(&n).Error
	return n > 0, err
}

// NextOrder is one past the highest display order in use.
func (r *MediaRepository) NextOrder(ctx context.Context, specialistID string) (int, error) {
	var max *int
	err := r.db.WithContext(ctx).Model(&mediaModel{}).
		Where("specialist_id = ?", specialistID).
		Select("MAX(display_order)").
		Scan(&max).Error
	if err != nil || max == nil {
		return 0, err
	}
	return *max + 1, nil
}

func (r *MediaRepository) UpdateOrder(ctx context.Context, id string, displayOrder int) error {
	res := r.db.WithContext(ctx).Model(&mediaModel{}).Where("id = ?", id).Update("display_order", displayOrder)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MediaRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&mediaModel{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
