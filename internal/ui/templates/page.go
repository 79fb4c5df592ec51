package templates

import (
	"encoding/json"

	"sales-dashboard/internal/charts"
	"sales-dashboard/internal/sales"
)

// PageData is everything the first render of the dashboard needs.
type PageData struct {
	Selection sales.Selection
	Report    *sales.Report
	Options   []string
	Charts    map[charts.Panel][]byte
}

type pageSignals struct {
	Numeric string   `json:"numeric"`
	Field   string   `json:"field"`
	Values  []string `json:"values"`
}

// signalsJSON seeds the Datastar signals with sel.
func signalsJSON(sel sales.Selection) (string, error) {
	signals := pageSignals{
		Numeric: sel.Numeric.String(),
		Field:   sel.Field.String(),
		Values:  sel.Values,
	}
	if signals.Values == nil {
		signals.Values = []string{}
	}
	encoded, err := json.Marshal(signals)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func fieldNames[F ~string](fields []F) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = string(f)
	}
	return names
}
