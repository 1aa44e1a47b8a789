package domain

import (
	"strings"
	"time"
)

// Category groups products. A category that still owns products cannot be
// deleted.
type Category struct {
	ID          int64     `json:"category_id"`
	Name        string    `json:"category_name"`
	Description *string   `json:"description"`
	UploadDate  time.Time `json:"upload_date"`
}

// CategoryInput is the body for creating or replacing a category.
type CategoryInput struct {
	Name        string  `json:"category_name" validate:"required,max=100"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

// Normalize trims the name and drops a blank description.
func (in *CategoryInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	if in.Description != nil && strings.TrimSpace(*in.Description) == "" {
		in.Description = nil
	}
}

// CategoryDetail is the response of GET /api/categories/{id}.
type CategoryDetail struct {
	Category *Category `json:"category"`
	Products []Product `json:"products"`
}
