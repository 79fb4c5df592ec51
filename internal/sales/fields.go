package sales

import (
	"strings"

	"github.com/shopspring/decimal"

	"sales-dashboard/internal/models"
)

// CategoricalField names a column used for filtering and grouping.
type CategoricalField string

const (
	FieldCategory    CategoricalField = "Category"
	FieldSubCategory CategoricalField = "Sub-Category"
	FieldState       CategoricalField = "State"
)

// CategoricalFields lists the filterable fields in control order.
var CategoricalFields = []CategoricalField{FieldCategory, FieldSubCategory, FieldState}

func (f CategoricalField) Valid() bool {
	switch f {
	case FieldCategory, FieldSubCategory, FieldState:
		return true
	}
	return false
}

func (f CategoricalField) String() string { return string(f) }

func (f CategoricalField) value(r *models.Record) string {
	switch f {
	case FieldCategory:
		return r.Category
	case FieldSubCategory:
		return r.SubCategory
	case FieldState:
		return r.State
	}
	return ""
}

// ParseCategoricalField resolves name case-insensitively to a known field.
func ParseCategoricalField(name string) (CategoricalField, error) {
	name = strings.TrimSpace(name)
	for _, f := range CategoricalFields {
		if strings.EqualFold(name, string(f)) {
			return f, nil
		}
	}
	return "", newInvalidFieldError(kindCategorical, name, categoricalNames())
}

// NumericField names a measure that feeds the KPI cards.
type NumericField string

const (
	FieldAmount   NumericField = "Amount"
	FieldProfit   NumericField = "Profit"
	FieldQuantity NumericField = "Quantity"
)

// NumericFields lists the KPI measures in control order.
var NumericFields = []NumericField{FieldAmount, FieldProfit, FieldQuantity}

func (f NumericField) Valid() bool {
	switch f {
	case FieldAmount, FieldProfit, FieldQuantity:
		return true
	}
	return false
}

func (f NumericField) String() string { return string(f) }

func (f NumericField) value(r *models.Record) decimal.NullDecimal {
	switch f {
	case FieldAmount:
		return r.Amount
	case FieldProfit:
		return r.Profit
	case FieldQuantity:
		return r.Quantity
	}
	return decimal.NullDecimal{}
}

func ParseNumericField(name string) (NumericField, error) {
	name = strings.TrimSpace(name)
	for _, f := range NumericFields {
		if strings.EqualFold(name, string(f)) {
			return f, nil
		}
	}
	return "", newInvalidFieldError(kindNumeric, name, numericNames())
}

func categoricalNames() []string {
	names := make([]string, len(CategoricalFields))
	for i, f := range CategoricalFields {
		names[i] = string(f)
	}
	return names
}

func numericNames() []string {
	names := make([]string, len(NumericFields))
	for i, f := range NumericFields {
		names[i] = string(f)
	}
	return names
}
