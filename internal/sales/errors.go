package sales

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
)

// LoadError reports a dataset that could not be loaded: the source is
// missing or unreadable, its header lacks required columns, or a cell could
// not be parsed.
type LoadError struct {
	Path    string
	Row     int
	Missing []string
	Err     error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	b.WriteString("load dataset")
	if e.Path != "" {
		fmt.Fprintf(&b, " %q", e.Path)
	}
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, ": missing required columns: %s", strings.Join(e.Missing, ", "))
		return b.String()
	}
	if e.Row > 0 {
		fmt.Fprintf(&b, ": row %d", e.Row)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *LoadError) Unwrap() error { return e.Err }

const (
	kindCategorical = "categorical"
	kindNumeric     = "numeric"
)

// InvalidFieldError is returned when a field name outside the fixed
// categorical or numeric sets reaches the pipeline.
type InvalidFieldError struct {
	Kind       string
	Name       string
	Allowed    []string
	Suggestion string
}

func (e *InvalidFieldError) Error() string {
	msg := fmt.Sprintf("invalid %s field %q (allowed: %s)", e.Kind, e.Name, strings.Join(e.Allowed, ", "))
	if e.Suggestion != "" {
		msg += fmt.Sprintf("; did you mean %q?", e.Suggestion)
	}
	return msg
}

func newInvalidFieldError(kind, name string, allowed []string) *InvalidFieldError {
	return &InvalidFieldError{
		Kind:       kind,
		Name:       name,
		Allowed:    allowed,
		Suggestion: closest(name, allowed),
	}
}

// closest returns the candidate nearest to name, or "" when nothing is
// within a third of the name's length.
func closest(name string, candidates []string) string {
	if name == "" {
		return ""
	}
	best, bestDist := "", -1
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(strings.ToLower(name), strings.ToLower(c))
		if bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}
	if bestDist > max(2, len(name)/3) {
		return ""
	}
	return best
}
