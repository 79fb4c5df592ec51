package sales

import "sales-dashboard/internal/models"

// Filter returns the rows of t whose value in field is one of allowed, in
// their original order. An empty allowed set is the identity: t itself is
// returned. Values that never occur in t simply match nothing, and neither
// does the empty string, so blank cells are never selected. A non-empty
// allowed list holding only empty strings therefore yields no rows.
func Filter(t *Table, field CategoricalField, allowed []string) (*Table, error) {
	if !field.Valid() {
		return nil, newInvalidFieldError(kindCategorical, string(field), categoricalNames())
	}
	if len(allowed) == 0 {
		return t, nil
	}

	set := make(map[string]struct{}, len(allowed))
	for _, v := range allowed {
		if v != "" {
			set[v] = struct{}{}
		}
	}

	kept := make([]models.Record, 0, t.Len())
	for i := range t.Len() {
		rec := &t.records[i]
		if _, ok := set[field.value(rec)]; ok {
			kept = append(kept, *rec)
		}
	}
	return NewTable(kept), nil
}
