package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-dashboard/internal/sales"
)

var testdata = filepath.Join("..", "..", "internal", "sales", "testdata", "sales.csv")

func TestRun(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-file", testdata, "-numeric", "Profit", "-values", "Electronics"}, &stdout, &stderr)
	require.NoError(t, err)

	out := stdout.String()
	for _, want := range []string{
		"Sales Analyses",
		"Category: Electronics",
		"Total of Profit",
		"Count of Profit",
		"Avg of Profit",
		"Goods distribution by category",
		"Total profit by category",
		"Sales trend",
		"Electronic Games",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "Furniture")
}

func TestRun_EmptySelection(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-file", testdata, "-field", "State", "-values", "Nowhere"}, &stdout, &stderr)
	require.NoError(t, err)

	out := stdout.String()
	assert.Contains(t, out, "showing 0 of 10 rows")
	assert.Contains(t, out, "n/a")
	assert.Contains(t, out, "No data for this selection")
}

func TestRun_Errors(t *testing.T) {
	t.Run("invalid field", func(t *testing.T) {
		err := run(context.Background(), []string{"-file", testdata, "-field", "Stat"}, &bytes.Buffer{}, &bytes.Buffer{})
		var fieldErr *sales.InvalidFieldError
		require.True(t, errors.As(err, &fieldErr))
		assert.Equal(t, "State", fieldErr.Suggestion)
	})

	t.Run("missing file", func(t *testing.T) {
		err := run(context.Background(), []string{"-file", filepath.Join(t.TempDir(), "none.csv")}, &bytes.Buffer{}, &bytes.Buffer{})
		var loadErr *sales.LoadError
		assert.True(t, errors.As(err, &loadErr))
	})

	t.Run("unknown flag", func(t *testing.T) {
		var stderr bytes.Buffer
		err := run(context.Background(), []string{"-bogus"}, &bytes.Buffer{}, &stderr)
		assert.Error(t, err)
		assert.True(t, strings.Contains(stderr.String(), "bogus"))
	})
}
