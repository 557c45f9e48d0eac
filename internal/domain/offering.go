package domain

type ServiceOffering struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	BasePrice   float64 `json:"basePrice"`
	IsActive    bool    `json:"isActive"`
}

type ServiceOfferingRequest struct {
	Name         string  `json:"name" validate:"required"`
	Description  string  `json:"description" validate:"required"`
	BasePrice    float64 `json:"basePrice" validate:"gte=0"`
	IsActive     bool    `json:"isActive"`
	SpecialistID string  `json:"specialistId,omitempty"`
}
