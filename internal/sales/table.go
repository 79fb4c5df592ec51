package sales

import (
	"slices"

	"sales-dashboard/internal/models"
)

// Table is an ordered, read-only sequence of records. Every operation that
// narrows a table returns a new Table; records are never modified in place.
type Table struct {
	records []models.Record
}

// NewTable takes ownership of records. Callers must not modify the slice
// afterwards.
func NewTable(records []models.Record) *Table {
	return &Table{records: records}
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.records)
}

// At returns a copy of the i-th record.
func (t *Table) At(i int) models.Record {
	return t.records[i]
}

// Records returns a copy of the table's records.
func (t *Table) Records() []models.Record {
	if t == nil {
		return nil
	}
	return slices.Clone(t.records)
}

func (t *Table) Rows() []models.Row {
	rows := make([]models.Row, 0, t.Len())
	for i := range t.Len() {
		rows = append(rows, t.records[i].Row())
	}
	return rows
}

// Distinct returns the distinct non-empty values of field in order of first
// occurrence.
func (t *Table) Distinct(field CategoricalField) ([]string, error) {
	if !field.Valid() {
		return nil, newInvalidFieldError(kindCategorical, string(field), categoricalNames())
	}
	seen := make(map[string]struct{})
	values := make([]string, 0)
	for i := range t.Len() {
		v := field.value(&t.records[i])
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	return values, nil
}
