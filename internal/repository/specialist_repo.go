package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"anycomp/internal/domain"
)

const joinTable = "specialist_service_offerings"

type SpecialistRepository struct {
	db *gorm.DB
}

func NewSpecialistRepository(db *gorm.DB) *SpecialistRepository {
	return &SpecialistRepository{db: db}
}

func toSpecialistModel(s *domain.Specialist) specialistModel {
	return specialistModel{
		ID:                 s.ID,
		OwnerID:            s.OwnerID,
		Title:              s.Title,
		Description:        s.Description,
		Slug:               optional(s.Slug),
		BasePrice:          s.BasePrice,
		PlatformFee:        s.PlatformFee,
		FinalPrice:         s.FinalPrice,
		Currency:           s.Currency,
		DurationDays:       s.DurationDays,
		IsDraft:            s.IsDraft,
		VerificationStatus: string(s.VerificationStatus),
		Purchases:          s.Purchases,
		CreatedAt:          s.CreatedAt,
	}
}

// Create inserts s and links the given offerings.
func (r *SpecialistRepository) Create(ctx context.Context, s *domain.Specialist, offeringIDs []string) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	m := toSpecialistModel(s)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Offerings", "Media").Create(&m).Error; err != nil {
			return err
		}
		return replaceOfferings(tx, &m, offeringIDs)
	})
	if err != nil {
		return err
	}

	created, err := r.GetByID(ctx, m.ID)
	if err != nil {
		return err
	}
	*s = *created
	return nil
}

func (r *SpecialistRepository) GetByID(ctx context.Context, id string) (*domain.Specialist, error) {
	var m specialistModel
	err := r.db.WithContext(ctx).
		Preload("Offerings").
		Preload("Media", func(db *gorm.DB) *gorm.DB { return db.Order("display_order ASC") }).
		First(&m, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return toDomainSpecialist(m), nil
}

// ListFilter is the server side of the specialist list query string.
type ListFilter struct {
	Page      int
	Limit     int
	Search    string
	Status    string
	IsDraft   *bool
	MinPrice  *float64
	MaxPrice  *float64
	SortBy    string
	SortOrder string
}

var sortColumns = map[string]string{
	"createdAt":  "created_at",
	"title":      "title",
	"basePrice":  "base_price",
	"finalPrice": "final_price",
	"purchases":  "purchases",
}

func (r *SpecialistRepository) List(ctx context.Context, f ListFilter) ([]domain.Specialist, int64, error) {
	q := r.db.WithContext(ctx).Model(&specialistModel{})
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if f.Status != "" {
		q = q.Where("verification_status = ?", f.Status)
	}
	if f.IsDraft != nil {
		q = q.Where("is_draft = ?", *f.IsDraft)
	}
	if f.MinPrice != nil {
		q = q.Where("final_price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("final_price <= ?", *f.MaxPrice)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	col, ok := sortColumns[f.SortBy]
	if !ok {
		col = "created_at"
	}
	dir := "DESC"
	if strings.EqualFold(f.SortOrder, "asc") {
		dir = "ASC"
	}

	var rows []specialistModel
	err := q.Preload("Offerings").
		Preload("Media", func(db *gorm.DB) *gorm.DB { return db.Order("display_order ASC") }).
		Order(fmt.Sprintf("%s %s", col, dir)).
		Offset(offset(f.Page, f.Limit)).Limit(f.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	out := make([]domain.Specialist, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainSpecialist(m))
	}
	return out, total, nil
}

// Update saves the scalar fields of s. When offeringIDs is non-nil the
// linked offerings are replaced.
func (r *SpecialistRepository) Update(ctx context.Context, s *domain.Specialist, offeringIDs []string) error {
	m := toSpecialistModel(s)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&specialistModel{}).Where("id = ?", s.ID).Select(
			"title", "description", "slug", "base_price", "platform_fee", "final_price",
			"currency", "duration_days", "is_draft", "verification_status", "updated_at",
		).Updates(map[string]any{
			"title":               m.Title,
			"description":         m.Description,
			"slug":                m.Slug,
			"base_price":          m.BasePrice,
			"platform_fee":        m.PlatformFee,
			"final_price":         m.FinalPrice,
			"currency":            m.Currency,
			"duration_days":       m.DurationDays,
			"is_draft":            m.IsDraft,
			"verification_status": m.VerificationStatus,
			"updated_at":          time.Now(),
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if offeringIDs != nil {
			return replaceOfferings(tx, &m, offeringIDs)
		}
		return nil
	})
	if err != nil {
		return err
	}

	updated, err := r.GetByID(ctx, s.ID)
	if err != nil {
		return err
	}
	*s = *updated
	return nil
}

func replaceOfferings(tx *gorm.DB, m *specialistModel, ids []string) error {
	var offerings []offeringModel
	if len(ids) > 0 {
		if err := tx.Where("id IN ?", ids).Find(&offerings).Error; err != nil {
			return err
		}
		if len(offerings) != len(ids) {
			return fmt.Errorf("unknown service offering: %w", ErrNotFound)
		}
	}
	return tx.Model(m).Association("Offerings").Replace(offerings)
}

// LinkOffering attaches one offering to a specialist.
func (r *SpecialistRepository) LinkOffering(ctx context.Context, specialistID, offeringID string) error {
	return r.db.WithContext(ctx).
		Model(&specialistModel{ID: specialistID}).
		Association("Offerings").
		Append(&offeringModel{ID: offeringID})
}

func (r *SpecialistRepository) CountOfferings(ctx context.Context, id string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Table(joinTable).Where("specialist_id = ?", id).Count(&n).Error
	return n, err
}

// Delete removes the specialist with its media rows and offering links and
// returns the media rows so stored files can be removed too.
func (r *SpecialistRepository) Delete(ctx context.Context, id string) ([]domain.Media, error) {
	var media []mediaModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("specialist_id = ?", id).Find(&media).Error; err != nil {
			return err
		}
		if err := tx.Table(joinTable).Where("specialist_id = ?", id).Delete(map[string]any{}).Error; err != nil {
			return err
		}
		if err := tx.Where("specialist_id = ?", id).Delete(&mediaModel{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&specialistModel{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.Media, 0, len(media))
	for _, m := range media {
		out = append(out, toDomainMedia(m))
	}
	return out, nil
}

// StaleDraftIDs lists drafts not touched since cutoff.
func (r *SpecialistRepository) StaleDraftIDs(ctx context.Context, cutoff time.Time) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&specialistModel{}).
		Where("is_draft = ? AND updated_at < ?", true, cutoff).
		Pluck("id", &ids).Error
	return ids, err
}

// Reprice updates stored prices after a fee tier change.
func (r *SpecialistRepository) Reprice(ctx context.Context, price func(base float64) (fee, final float64)) (int, error) {
	var rows []specialistModel
	if err := r.db.WithContext(ctx).Select("id", "base_price").Find(&rows).Error; err != nil {
		return 0, err
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range rows {
			fee, final := price(m.BasePrice)
			if err := tx.Model(&specialistModel{}).Where("id = ?", m.ID).
				UpdateColumns(map[string]any{"platform_fee": fee, "final_price": final}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return len(rows), err
}
