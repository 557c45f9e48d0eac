package domain

import "time"

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

// Specialist is a service-provider listing. PlatformFee and FinalPrice are
// computed by the server from BasePrice and the fee tiers; clients display
// them as received.
type Specialist struct {
	ID                 string             `json:"id"`
	OwnerID            string             `json:"ownerId,omitempty"`
	Title              string             `json:"title"`
	Description        string             `json:"description"`
	Slug               string             `json:"slug,omitempty"`
	BasePrice          float64            `json:"basePrice"`
	PlatformFee        float64            `json:"platformFee"`
	FinalPrice         float64            `json:"finalPrice"`
	Currency           string             `json:"currency,omitempty"`
	DurationDays       int                `json:"durationDays"`
	IsDraft            bool               `json:"isDraft"`
	VerificationStatus VerificationStatus `json:"verificationStatus"`
	Purchases          int                `json:"purchases"`
	ServiceOfferings   []ServiceOffering  `json:"serviceOfferings,omitempty"`
	Media              []Media            `json:"media,omitempty"`
	CreatedAt          time.Time          `json:"createdAt,omitempty"`
	UpdatedAt          time.Time          `json:"updatedAt,omitempty"`
}

type CreateSpecialistRequest struct {
	Title        string   `json:"title" validate:"required"`
	Description  string   `json:"description" validate:"required"`
	BasePrice    float64  `json:"basePrice" validate:"gte=0"`
	DurationDays int      `json:"durationDays" validate:"gte=1"`
	Slug         string   `json:"slug,omitempty"`
	IsDraft      bool     `json:"isDraft"`
	ServiceIDs   []string `json:"serviceIds,omitempty"`
}

// UpdateSpecialistRequest is a partial update; nil fields are left untouched.
type UpdateSpecialistRequest struct {
	Title        *string  `json:"title,omitempty" validate:"omitempty,min=1"`
	Description  *string  `json:"description,omitempty" validate:"omitempty,min=10"`
	BasePrice    *float64 `json:"basePrice,omitempty" validate:"omitempty,gte=0"`
	DurationDays *int     `json:"durationDays,omitempty" validate:"omitempty,gte=1"`
	Slug         *string  `json:"slug,omitempty"`
	IsDraft      *bool    `json:"isDraft,omitempty"`
	ServiceIDs   []string `json:"serviceIds,omitempty"`
}

type SpecialistFilters struct {
	Page      int      `url:"page,omitempty"`
	Limit     int      `url:"limit,omitempty"`
	Search    string   `url:"search,omitempty"`
	Status    string   `url:"status,omitempty"`
	IsDraft   *bool    `url:"isDraft,omitempty"`
	MinPrice  *float64 `url:"minPrice,omitempty"`
	MaxPrice  *float64 `url:"maxPrice,omitempty"`
	SortBy    string   `url:"sortBy,omitempty"`
	SortOrder string   `url:"sortOrder,omitempty"`
}
