package calculator

import (
	"slices"

	"github.com/shopspring/decimal"
)

// presentationPlaces is the number of decimals shown to users.
const presentationPlaces = 2

// Round2 rounds half away from zero to two decimal places.
// Rounding goes through decimal so that values like 1.005 round the way a
// person reading the receipt expects.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(presentationPlaces).Float64()
	return f
}

// Rounded returns a copy with every amount rounded for display.
// Rounded figures are not guaranteed to sum exactly to the rounded grand total;
// never feed them back into Compute.
func (r Result) Rounded() Result {
	out := r
	out.AssignedSubtotal = Round2(r.AssignedSubtotal)
	out.UnassignedSubtotal = Round2(r.UnassignedSubtotal)
	out.TotalServiceAmount = Round2(r.TotalServiceAmount)
	out.TaxBase = Round2(r.TaxBase)
	out.TotalTaxAmount = Round2(r.TotalTaxAmount)
	out.GrandTotal = Round2(r.GrandTotal)

	out.People = slices.Clone(r.People)
	for i := range out.People {
		p := &out.People[i]
		p.Subtotal = Round2(p.Subtotal)
		p.TaxShare = Round2(p.TaxShare)
		p.ServiceShare = Round2(p.ServiceShare)
		p.Total = Round2(p.Total)
		p.Items = slices.Clone(p.Items)
		for j := range p.Items {
			p.Items[j].Share = Round2(p.Items[j].Share)
		}
	}
	return out
}
