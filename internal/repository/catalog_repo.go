package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"anycomp/internal/domain"
)

type OfferingRepository struct {
	db *gorm.DB
}

func NewOfferingRepository(db *gorm.DB) *OfferingRepository {
	return &OfferingRepository{db: db}
}

func (r *OfferingRepository) List(ctx context.Context) ([]domain.ServiceOffering, error) {
	var rows []offeringModel
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.ServiceOffering, 0, len(rows))
	for _, m := range rows {
		out = append(out, toDomainOffering(m))
	}
	return out, nil
}

func (r *OfferingRepository) Get(ctx context.Context, id string) (*domain.ServiceOffering, error) {
	var m offeringModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	o := toDomainOffering(m)
	return &o, nil
}

func (r *OfferingRepository) Create(ctx context.Context, o *domain.ServiceOffering) error {
	m := offeringModel{
		ID:          uuid.NewString(),
		Name:        o.Name,
		Description: o.Description,
		BasePrice:   o.BasePrice,
		IsActive:    o.IsActive,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	*o = toDomainOffering(m)
	return nil
}

func (r *OfferingRepository) Update(ctx context.Context, o *domain.ServiceOffering) error {
	res := r.db.WithContext(ctx).Model(&offeringModel{}).Where("id = ?", o.ID).
		Select("name", "description", "base_price", "is_active").
		Updates(offeringModel{Name: o.Name, Description: o.Description, BasePrice: o.BasePrice, IsActive: o.IsActive})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *OfferingRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Table(joinTable).Where("service_offering_id = ?", id).Delete(map[string]any{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&offeringModel{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

type PlatformFeeRepository struct {
	db *gorm.DB
}

func NewPlatformFeeRepository(db *gorm.DB) *PlatformFeeRepository {
	return &PlatformFeeRepository{db: db}
}

// List returns tiers ordered by their lower bound.
func (r *PlatformFeeRepository) List(ctx context.Context) ([]domain.PlatformFee, error) {
	var rows []platformFeeModel
	if err := r.db.WithContext(ctx).Order("min_value ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.PlatformFee, 0, len(rows))
	for _, m := range rows {
		out = append(out, toDomainPlatformFee(m))
	}
	return out, nil
}

func (r *PlatformFeeRepository) Get(ctx context.Context, id string) (*domain.PlatformFee, error) {
	var m platformFeeModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	f := toDomainPlatformFee(m)
	return &f, nil
}

func (r *PlatformFeeRepository) Create(ctx context.Context, f *domain.PlatformFee) error {
	m := platformFeeModel{
		ID:                    uuid.NewString(),
		TierName:              string(f.TierName),
		MinValue:              f.MinValue,
		MaxValue:              f.MaxValue,
		PlatformFeePercentage: f.PlatformFeePercentage,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	*f = toDomainPlatformFee(m)
	return nil
}

// Upsert creates or replaces the tier with the same name.
func (r *PlatformFeeRepository) Upsert(ctx context.Context, f *domain.PlatformFee) error {
	m := platformFeeModel{
		ID:                    uuid.NewString(),
		TierName:              string(f.TierName),
		MinValue:              f.MinValue,
		MaxValue:              f.MaxValue,
		PlatformFeePercentage: f.PlatformFeePercentage,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tier_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"min_value", "max_value", "platform_fee_percentage", "updated_at"}),
	}).Create(&m).Error
	if err != nil {
		return err
	}
	var saved platformFeeModel
	if err := r.db.WithContext(ctx).First(&saved, "tier_name = ?", m.TierName).Error; err != nil {
		return err
	}
	*f = toDomainPlatformFee(saved)
	return nil
}

func (r *PlatformFeeRepository) Update(ctx context.Context, f *domain.PlatformFee) error {
	res := r.db.WithContext(ctx).Model(&platformFeeModel{}).Where("id = ?", f.ID).
		Select("tier_name", "min_value", "max_value", "platform_fee_percentage").
		Updates(platformFeeModel{
			TierName:              string(f.TierName),
			MinValue:              f.MinValue,
			MaxValue:              f.MaxValue,
			PlatformFeePercentage: f.PlatformFeePercentage,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PlatformFeeRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&platformFeeModel{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
