package field

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nekogravitycat/field-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound     = apperror.NotFound("field not found")
	ErrEmptyName    = apperror.Validation("name cannot be empty")
	ErrInvalidPrice = apperror.Validation("price_per_hour must be zero or greater")
	ErrInvalidSort  = apperror.New(http.StatusBadRequest, apperror.KindValidation, "invalid sort field")
)

// Field is a bookable sports field. Bookings and schedules reference it.
type Field struct {
	ID           string
	Name         string
	FieldType    string
	Description  string
	PricePerHour decimal.Decimal
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Bookable reports whether new bookings may target the field.
func (f *Field) Bookable() bool {
	return f.IsActive
}

// PriceFor returns the price of booking the field for the given number of hours.
func (f *Field) PriceFor(hours int) decimal.Decimal {
	return f.PricePerHour.Mul(decimal.NewFromInt(int64(hours)))
}

// Filter defines parameters for listing fields.
type Filter struct {
	Name      string
	FieldType string
	IsActive  *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// sortColumns maps accepted sort keys to columns.
var sortColumns = map[string]string{
	"created_at":     "created_at",
	"name":           "name",
	"price_per_hour": "price_per_hour",
}
