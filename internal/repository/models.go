package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"anycomp/internal/domain"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

type userModel struct {
	ID           string    `gorm:"column:id;primaryKey;size:36"`
	Email        string    `gorm:"column:email;uniqueIndex;not null"`
	Username     *string   `gorm:"column:username;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	Role         string    `gorm:"column:role;not null"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (userModel) TableName() string { return "users" }

type specialistModel struct {
	ID                 string          `gorm:"column:id;primaryKey;size:36"`
	OwnerID            string          `gorm:"column:owner_id;index"`
	Title              string          `gorm:"column:title;not null"`
	Description        string          `gorm:"column:description"`
	Slug               *string         `gorm:"column:slug;uniqueIndex"`
	BasePrice          float64         `gorm:"column:base_price"`
	PlatformFee        float64         `gorm:"column:platform_fee"`
	FinalPrice         float64         `gorm:"column:final_price"`
	Currency           string          `gorm:"column:currency;default:MYR"`
	DurationDays       int             `gorm:"column:duration_days"`
	IsDraft            bool            `gorm:"column:is_draft;index"`
	VerificationStatus string          `gorm:"column:verification_status"`
	Purchases          int             `gorm:"column:purchases"`
	Offerings          []offeringModel `gorm:"many2many:specialist_service_offerings;joinForeignKey:SpecialistID;joinReferences:ServiceOfferingID"`
	Media              []mediaModel    `gorm:"foreignKey:SpecialistID"`
	CreatedAt          time.Time       `gorm:"column:created_at"`
	UpdatedAt          time.Time       `gorm:"column:updated_at"`
}

func (specialistModel) TableName() string { return "specialists" }

type mediaModel struct {
	ID           string    `gorm:"column:id;primaryKey;size:36"`
	SpecialistID string    `gorm:"column:specialist_id;index"`
	FileName     string    `gorm:"column:file_name"`
	FileSize     int64     `gorm:"column:file_size"`
	MimeType     string    `gorm:"column:mime_type"`
	Path         string    `gorm:"column:path"`
	URL          string    `gorm:"column:url"`
	DisplayOrder int       `gorm:"column:display_order"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (mediaModel) TableName() string { return "media" }

type offeringModel struct {
	ID          string    `gorm:"column:id;primaryKey;size:36"`
	Name        string    `gorm:"column:name;not null"`
	Description string    `gorm:"column:description"`
	BasePrice   float64   `gorm:"column:base_price"`
	IsActive    bool      `gorm:"column:is_active"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (offeringModel) TableName() string { return "service_offerings" }

type platformFeeModel struct {
	ID                    string    `gorm:"column:id;primaryKey;size:36"`
	TierName              string    `gorm:"column:tier_name;uniqueIndex"`
	MinValue              float64   `gorm:"column:min_value"`
	MaxValue              float64   `gorm:"column:max_value"`
	PlatformFeePercentage float64   `gorm:"column:platform_fee_percentage"`
	CreatedAt             time.Time `gorm:"column:created_at"`
	UpdatedAt             time.Time `gorm:"column:updated_at"`
}

func (platformFeeModel) TableName() string { return "platform_fees" }

// Migrate creates or updates every backend table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&userModel{},
		&offeringModel{},
		&specialistModel{},
		&mediaModel{},
		&platformFeeModel{},
	)
}

func toDomainUser(m userModel) *domain.User {
	u := &domain.User{
		ID:        m.ID,
		Email:     m.Email,
		Role:      domain.UserRole(m.Role),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if m.Username != nil {
		u.Username = *m.Username
	}
	return u
}

func toDomainOffering(m offeringModel) domain.ServiceOffering {
	return domain.ServiceOffering{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		BasePrice:   m.BasePrice,
		IsActive:    m.IsActive,
	}
}

func toDomainMedia(m mediaModel) domain.Media {
	return domain.Media{
		ID:           m.ID,
		SpecialistID: m.SpecialistID,
		FileName:     m.FileName,
		FileSize:     m.FileSize,
		MimeType:     m.MimeType,
		URL:          m.URL,
		DisplayOrder: m.DisplayOrder,
		CreatedAt:    m.CreatedAt,
	}
}

func toDomainSpecialist(m specialistModel) *domain.Specialist {
	s := &domain.Specialist{
		ID:                 m.ID,
		OwnerID:            m.OwnerID,
		Title:              m.Title,
		Description:        m.Description,
		BasePrice:          m.BasePrice,
		PlatformFee:        m.PlatformFee,
		FinalPrice:         m.FinalPrice,
		Currency:           m.Currency,
		DurationDays:       m.DurationDays,
		IsDraft:            m.IsDraft,
		VerificationStatus: domain.VerificationStatus(m.VerificationStatus),
		Purchases:          m.Purchases,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
	if m.Slug != nil {
		s.Slug = *m.Slug
	}
	for _, o := range m.Offerings {
		s.ServiceOfferings = append(s.ServiceOfferings, toDomainOffering(o))
	}
	for _, md := range m.Media {
		s.Media = append(s.Media, toDomainMedia(md))
	}
	return s
}

func toDomainPlatformFee(m platformFeeModel) domain.PlatformFee {
	return domain.PlatformFee{
		ID:                    m.ID,
		TierName:              domain.TierName(m.TierName),
		MinValue:              m.MinValue,
		MaxValue:              m.MaxValue,
		PlatformFeePercentage: m.PlatformFeePercentage,
	}
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func offset(page, limit int) int {
	if page <= 1 {
		return 0
	}
	return (page - 1) * limit
}
