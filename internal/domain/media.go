package domain

import "time"

// Media is an uploaded image attached to a specialist. DisplayOrder is
// unique per specialist and defines presentation order.
type Media struct {
	ID           string    `json:"id"`
	SpecialistID string    `json:"specialistId"`
	FileName     string    `json:"fileName"`
	FileSize     int64     `json:"fileSize"`
	MimeType     string    `json:"mimeType"`
	URL          string    `json:"url"`
	DisplayOrder int       `json:"displayOrder"`
	CreatedAt    time.Time `json:"createdAt,omitempty"`
}
