package exporter

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"sales-dashboard/internal/sales"
)

const source = `Order ID,Amount,Profit,Quantity,Category,Sub-Category,PaymentMode,Order Date,CustomerName,State,City,Year-Month
A-1,100.25,10,1,Furniture,Chairs,UPI,2023-01-05,"Ann, Jr.",Texas,Austin,2023-01
A-2,200,,2,Office,Paper,,2023-02-09,Bob,Ohio,Dayton,2023-02
`

func loadSource(t *testing.T) *sales.Table {
	t.Helper()
	table, err := sales.Read(context.Background(), strings.NewReader(source))
	require.NoError(t, err)
	return table
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatCSV, false},
		{"csv", FormatCSV, false},
		{" XLSX ", FormatXLSX, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	assert.Equal(t, "sales.xlsx", FormatXLSX.FileName("sales"))
	assert.Contains(t, FormatCSV.ContentType(), "text/csv")
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	table := loadSource(t)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, table))
	assert.True(t, strings.HasPrefix(buf.String(), strings.Join(Header, ",")+"\n"))

	back, err := sales.Read(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, table.Rows(), back.Rows())
}

func TestWriteXLSX_RoundTrip(t *testing.T) {
	table := loadSource(t)

	path := filepath.Join(t.TempDir(), "export.xlsx")
	out, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, Write(out, FormatXLSX, table))
	require.NoError(t, out.Close())

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	assert.Equal(t, sheetName, f.GetSheetName(0))
	amount, err := f.GetCellValue(sheetName, "J2")
	require.NoError(t, err)
	assert.Equal(t, "100.25", amount)
	require.NoError(t, f.Close())

	back, err := sales.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, table.Rows(), back.Rows())
	assert.False(t, back.At(1).Profit.Valid)
}

func TestWrite_EmptyTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sales.NewTable(nil)))
	assert.Equal(t, strings.Join(Header, ",")+"\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteXLSX(&buf, sales.NewTable(nil)))
	assert.NotZero(t, buf.Len())
}

func TestWrite_UnknownFormat(t *testing.T) {
	assert.Error(t, Write(&bytes.Buffer{}, "pdf", sales.NewTable(nil)))
}
