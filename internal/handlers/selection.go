package handlers

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/starfederation/datastar-go/datastar"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/sales"
)

const (
	maxSelectedValues = 1000
	maxValueLength    = 256
)

// selectionParams mirrors the dashboard signals. Field names are kept as
// strings so that unknown names reach the validator instead of failing to
// decode.
type selectionParams struct {
	Numeric string   `json:"numeric" validate:"numeric_field"`
	Field   string   `json:"field" validate:"categorical_field"`
	Values  []string `json:"values" validate:"max=1000,dive,max=256"`
}

var selectionValidator = newSelectionValidator()

func newSelectionValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("numeric_field", func(fl validator.FieldLevel) bool {
		return sales.NumericField(fl.Field().String()).Valid()
	})
	v.RegisterValidation("categorical_field", func(fl validator.FieldLevel) bool {
		return sales.CategoricalField(fl.Field().String()).Valid()
	})
	return v
}

// parseSelection reads the selection from Datastar signals when the request
// carries them, otherwise from the numeric, field and values query params.
// Missing fields fall back to the default selection.
func parseSelection(r *http.Request) (sales.Selection, error) {
	var params selectionParams

	query := r.URL.Query()
	if query.Has("datastar") {
		if err := datastar.ReadSignals(r, &params); err != nil {
			return sales.Selection{}, errors.BadRequest(fmt.Sprintf("Invalid signals: %v", err))
		}
	} else {
		params.Numeric = query.Get("numeric")
		params.Field = query.Get("field")
		for _, raw := range query["values"] {
			params.Values = append(params.Values, strings.Split(raw, ",")...)
		}
	}

	return params.selection()
}

func (p selectionParams) selection() (sales.Selection, error) {
	def := sales.DefaultSelection()
	p.Numeric = strings.TrimSpace(p.Numeric)
	p.Field = strings.TrimSpace(p.Field)
	if p.Numeric == "" {
		p.Numeric = def.Numeric.String()
	}
	if p.Field == "" {
		p.Field = def.Field.String()
	}
	p.Values = cleanValues(p.Values)

	if err := selectionValidator.Struct(p); err != nil {
		return sales.Selection{}, validationError(p, err)
	}

	return sales.Selection{
		Numeric: sales.NumericField(p.Numeric),
		Field:   sales.CategoricalField(p.Field),
		Values:  p.Values,
	}, nil
}

// parseField reads only the categorical field, for option lookups.
func parseField(r *http.Request) (sales.CategoricalField, error) {
	var params selectionParams
	if r.URL.Query().Has("datastar") {
		if err := datastar.ReadSignals(r, &params); err != nil {
			return "", errors.BadRequest(fmt.Sprintf("Invalid signals: %v", err))
		}
	} else {
		params.Field = r.URL.Query().Get("field")
	}
	params.Values = nil
	params.Numeric = ""

	sel, err := params.selection()
	if err != nil {
		return "", err
	}
	return sel.Field, nil
}

func cleanValues(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// validationError turns the first failed rule into an API error. Unknown
// field names carry the closest valid name in the details.
func validationError(p selectionParams, err error) error {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) || len(verrs) == 0 {
		return errors.ValidationWrap(err, "Invalid selection")
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "numeric_field":
		_, fieldErr := sales.ParseNumericField(p.Numeric)
		return fieldError(fieldErr, "Invalid numeric field")
	case "categorical_field":
		_, fieldErr := sales.ParseCategoricalField(p.Field)
		return fieldError(fieldErr, "Invalid categorical field")
	}

	if fe.StructField() == "Values" && fe.Tag() == "max" {
		return errors.ValidationWrap(err, fmt.Sprintf("At most %d values may be selected", maxSelectedValues))
	}
	return errors.ValidationWrap(err, fmt.Sprintf("Selected values must be at most %d characters", maxValueLength))
}

func fieldError(fieldErr error, message string) error {
	appErr := errors.ValidationWrap(fieldErr, message)
	if fieldErr != nil {
		appErr.Details = fieldErr.Error()
	}
	return appErr
}
