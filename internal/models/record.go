package models

import (
	"encoding/json"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Record is one sales transaction. Measures are nullable: an empty cell in
// the source is kept as an invalid NullDecimal rather than a zero.
type Record struct {
	OrderID      string
	OrderDate    time.Time
	Category     string
	SubCategory  string
	State        string
	CustomerName string
	City         string
	PaymentMode  string
	Quantity     decimal.NullDecimal
	Amount       decimal.NullDecimal
	Profit       decimal.NullDecimal
	YearMonth    string
}

type KPI struct {
	Field string          `json:"field"`
	Sum   decimal.Decimal `json:"sum"`
	Count int             `json:"count"`
	// Mean is NaN when Count is zero.
	Mean float64 `json:"mean"`
}

// MarshalJSON writes a NaN mean as null; encoding/json rejects NaN.
func (k KPI) MarshalJSON() ([]byte, error) {
	var mean *float64
	if !math.IsNaN(k.Mean) && !math.IsInf(k.Mean, 0) {
		m := k.Mean
		mean = &m
	}
	return json.Marshal(struct {
		Field string          `json:"field"`
		Sum   decimal.Decimal `json:"sum"`
		Count int             `json:"count"`
		Mean  *float64        `json:"mean"`
	}{k.Field, k.Sum, k.Count, mean})
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

type CategoryProfit struct {
	Category string          `json:"category"`
	Profit   decimal.Decimal `json:"profit"`
}

type TrendPoint struct {
	YearMonth string          `json:"year_month"`
	Amount    decimal.Decimal `json:"amount"`
}

// QuantityProfitPoint feeds the quantity vs profit scatter, sized by amount.
type QuantityProfitPoint struct {
	Quantity decimal.Decimal `json:"quantity"`
	Profit   decimal.Decimal `json:"profit"`
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category"`
}

// AmountProfitPoint feeds the amount vs profit scatter, sized by quantity,
// with customer and city as hover annotations.
type AmountProfitPoint struct {
	Amount       decimal.Decimal `json:"amount"`
	Profit       decimal.Decimal `json:"profit"`
	Category     string          `json:"category"`
	Quantity     decimal.Decimal `json:"quantity"`
	CustomerName string          `json:"customer_name"`
	City         string          `json:"city"`
}

// Row is the display form of a Record used by the sampled table and exports.
type Row struct {
	OrderID      string `json:"order_id,omitempty"`
	OrderDate    string `json:"order_date,omitempty"`
	Category     string `json:"category"`
	SubCategory  string `json:"sub_category"`
	State        string `json:"state"`
	City         string `json:"city"`
	CustomerName string `json:"customer_name"`
	PaymentMode  string `json:"payment_mode,omitempty"`
	Quantity     string `json:"quantity"`
	Amount       string `json:"amount"`
	Profit       string `json:"profit"`
	YearMonth    string `json:"year_month"`
}

func (r Record) Row() Row {
	row := Row{
		OrderID:      r.OrderID,
		Category:     r.Category,
		SubCategory:  r.SubCategory,
		State:        r.State,
		City:         r.City,
		CustomerName: r.CustomerName,
		PaymentMode:  r.PaymentMode,
		Quantity:     nullString(r.Quantity),
		Amount:       nullString(r.Amount),
		Profit:       nullString(r.Profit),
		YearMonth:    r.YearMonth,
	}
	if !r.OrderDate.IsZero() {
		row.OrderDate = r.OrderDate.Format("2006-01-02")
	}
	return row
}

func nullString(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}
