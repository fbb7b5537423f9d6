package http

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nekogravitycat/field-booking-backend/internal/field"
	"github.com/nekogravitycat/field-booking-backend/internal/pkg/request"
)

type FieldResponse struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	FieldType    string          `json:"field_type"`
	Description  string          `json:"description"`
	PricePerHour decimal.Decimal `json:"price_per_hour"`
	IsActive     bool            `json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func NewFieldResponse(f *field.Field) FieldResponse {
	return FieldResponse{
		ID:           f.ID,
		Name:         f.Name,
		FieldType:    f.FieldType,
		Description:  f.Description,
		PricePerHour: f.PricePerHour,
		IsActive:     f.IsActive,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

type ListFieldsRequest struct {
	request.ListParams
	Name      string `form:"name"`
	FieldType string `form:"field_type"`
	IsActive  *bool  `form:"is_active"`
	SortBy    string `form:"sort_by" binding:"omitempty,oneof=created_at name price_per_hour"`
}

type CreateFieldRequest struct {
	Name         string          `json:"name" binding:"required,max=120"`
	FieldType    string          `json:"field_type" binding:"max=60"`
	Description  string          `json:"description" binding:"max=2000"`
	PricePerHour decimal.Decimal `json:"price_per_hour"`
	IsActive     *bool           `json:"is_active"`
}

type UpdateFieldRequest struct {
	Name         *string          `json:"name" binding:"omitempty,max=120"`
	FieldType    *string          `json:"field_type" binding:"omitempty,max=60"`
	Description  *string          `json:"description" binding:"omitempty,max=2000"`
	PricePerHour *decimal.Decimal `json:"price_per_hour"`
	IsActive     *bool            `json:"is_active"`
}
