package ingest

import (
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitbill/internal/calculator"
	"github.com/mmynk/splitbill/internal/models"
)

// ParsePrice reads a receipt price such as "12.50", "12,50" or "1,250.00".
// Anything unparsable is 0.
func ParsePrice(s string) float64 {
	s = strings.TrimSpace(s)
	switch {
	case strings.Contains(s, ",") && strings.Contains(s, "."):
		s = strings.ReplaceAll(s, ",", "")
	case strings.Contains(s, ","):
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	f, _ := d.Float64()
	return f
}

// Normalize makes upstream items safe for the engine: missing IDs get a
// UUID, NaN or infinite prices become 0 and quantities below 1 become 1.
// It returns a new slice.
func Normalize(items []models.Item) []models.Item {
	out := make([]models.Item, len(items))
	for i, item := range items {
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		if math.IsNaN(item.Price) || math.IsInf(item.Price, 0) {
			item.Price = 0
		}
		if item.Quantity < 1 {
			item.Quantity = 1
		}
		out[i] = item
	}
	return out
}

// RatesFromAmounts converts absolute tax and service amounts into the rates
// the engine works with, given the assigned subtotal at ingestion time.
// Tax is assumed to be charged on subtotal plus service. A zero denominator
// yields a zero rate.
func RatesFromAmounts(tax, service, subtotal float64) calculator.Rates {
	var rates calculator.Rates
	if subtotal != 0 {
		rates.Service = service / subtotal * 100
	}
	if base := subtotal + service; base != 0 {
		rates.Tax = tax / base * 100
	}
	return rates
}

// Rates derives engine rates from the receipt's own amounts, using the sum
// of all item line totals as the subtotal.
func (r *Receipt) Rates() calculator.Rates {
	var subtotal float64
	for _, item := range r.Items {
		subtotal += item.LineTotal()
	}
	return RatesFromAmounts(r.Tax, r.Service, subtotal)
}
