package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"anycomp/internal/domain"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create stores u with the given password hash and fills in its id.
func (r *UserRepository) Create(ctx context.Context, u *domain.User, passwordHash string) error {
	m := userModel{
		ID:           uuid.NewString(),
		Email:        strings.TrimSpace(strings.ToLower(u.Email)),
		Username:     optional(strings.TrimSpace(u.Username)),
		PasswordHash: passwordHash,
		Role:         string(u.Role),
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	*u = *toDomainUser(m)
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var m userModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return toDomainUser(m), nil
}

// GetCredentials looks a user up by email or username and returns the
// stored password hash with it.
func (r *UserRepository) GetCredentials(ctx context.Context, email, username string) (*domain.User, string, error) {
	q := r.db.WithContext(ctx)
	if email != "" {
		q = q.Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email)))
	} else {
		q = q.Where("username = ?", strings.TrimSpace(username))
	}

	var m userModel
	if err := q.First(&m).Error; err != nil {
		return nil, "", notFound(err)
	}
	return toDomainUser(m), m.PasswordHash, nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&userModel{}).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		Count(&n).Error
	return n > 0, err
}

func (r *UserRepository) List(ctx context.Context, page, limit int) ([]domain.User, int64, error) {
	var (
		rows  []userModel
		total int64
	)
	q := r.db.WithContext(ctx).Model(&userModel{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Order("created_at DESC").Offset(offset(page, limit)).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	out := make([]domain.User, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainUser(m))
	}
	return out, total, nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	tx := r.db.WithContext(ctx).Delete(&userModel{}, "id = ?", id)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
