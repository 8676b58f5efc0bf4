package calculator

import (
	"slices"

	"github.com/mmynk/splitbill/internal/models"
)

// Assignees looks up who shares an item. assignment.Assignments and
// *assignment.Store both satisfy it.
type Assignees interface {
	AssigneesOf(itemID string) []string
}

// Rates holds the tax and service charge as percentages (10 means 10%).
type Rates struct {
	Tax     float64 `json:"tax_rate" toml:"tax_rate"`
	Service float64 `json:"service_rate" toml:"service_rate"`
}

// TaxBase selects what the tax rate is charged on.
type TaxBase int

const (
	// TaxOnSubtotalAndService charges tax on the assigned subtotal plus service.
	TaxOnSubtotalAndService TaxBase = iota
	// TaxOnSubtotal charges tax on the assigned subtotal alone.
	TaxOnSubtotal
)

// StalePolicy decides what happens to the share of an assignee that no longer
// matches any current person.
type StalePolicy int

const (
	// StaleExclude splits by the full assignee count and leaves the stale
	// portion unassigned. An item with no live assignee is fully unassigned.
	StaleExclude StalePolicy = iota
	// StaleRedistribute splits among live assignees only, so they absorb the
	// stale portion.
	StaleRedistribute
)

type options struct {
	taxBase TaxBase
	stale   StalePolicy
}

// Option configures Compute.
type Option func(*options)

// WithTaxBase overrides the default TaxOnSubtotalAndService.
func WithTaxBase(b TaxBase) Option {
	return func(o *options) { o.taxBase = b }
}

// WithStalePolicy overrides the default StaleExclude.
func WithStalePolicy(p StalePolicy) Option {
	return func(o *options) { o.stale = p }
}

// Contribution is one item's share for one person.
type Contribution struct {
	ItemName string  `json:"item_name"`
	Quantity int     `json:"quantity"`
	Share    float64 `json:"share"`
}

// PersonSplit represents the calculated split for one person.
type PersonSplit struct {
	PersonID     string         `json:"person_id"`
	Name         string         `json:"name"`
	Color        string         `json:"color,omitempty"`
	Subtotal     float64        `json:"subtotal"`
	TaxShare     float64        `json:"tax_share"`
	ServiceShare float64        `json:"service_share"`
	Total        float64        `json:"total"`
	Items        []Contribution `json:"items"`
}

// Result is the full allocation of a bill.
type Result struct {
	People             []PersonSplit `json:"people"`
	AssignedSubtotal   float64       `json:"assigned_subtotal"`
	UnassignedSubtotal float64       `json:"unassigned_subtotal"`
	ServiceRate        float64       `json:"service_rate"`
	TaxRate            float64       `json:"tax_rate"`
	TotalServiceAmount float64       `json:"total_service_amount"`
	TaxBase            float64       `json:"tax_base"`
	TotalTaxAmount     float64       `json:"total_tax_amount"`
	GrandTotal         float64       `json:"grand_total"`
}

// Person returns the split for personID, if present.
func (r Result) Person(personID string) (PersonSplit, bool) {
	for _, p := range r.People {
		if p.PersonID == personID {
			return p, true
		}
	}
	return PersonSplit{}, false
}

// Compute allocates items to people and distributes tax and service
// proportionally to each person's share of the assigned subtotal.
//
// Algorithm:
//   - each item is split equally among its assignees (not by quantity)
//   - service = assigned_subtotal × service_rate / 100
//   - tax = (assigned_subtotal + service) × tax_rate / 100
//   - person fees = fee × (person_subtotal / assigned_subtotal)
//
// Nothing is rounded. Compute never fails: unknown person IDs are handled by
// the stale policy, zero denominators are guarded and signed amounts pass through.
// People keep their input order; contributions follow item order.
func Compute(items []models.Item, people []models.Person, assignees Assignees, rates Rates, opts ...Option) Result {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	splits := make([]PersonSplit, len(people))
	index := make(map[string]int, len(people))
	for i, p := range people {
		splits[i] = PersonSplit{PersonID: p.ID, Name: p.Name, Color: p.Color, Items: []Contribution{}}
		index[p.ID] = i
	}

	res := Result{ServiceRate: rates.Service, TaxRate: rates.Tax}

	for _, item := range items {
		lineTotal := item.LineTotal()
		var ids []string
		if assignees != nil {
			ids = uniqueIDs(assignees.AssigneesOf(item.ID))
		}

		live := make([]string, 0, len(ids))
		for _, id := range ids {
			if _, ok := index[id]; ok {
				live = append(live, id)
			}
		}
		if len(live) == 0 {
			res.UnassignedSubtotal += lineTotal
			continue
		}

		n := len(ids)
		if o.stale == StaleRedistribute {
			n = len(live)
		}
		splitValue := lineTotal / float64(n)

		for _, id := range live {
			s := &splits[index[id]]
			s.Subtotal += splitValue
			s.Items = append(s.Items, Contribution{
				ItemName: item.Name,
				Quantity: item.Units(),
				Share:    splitValue,
			})
		}

		if len(live) == n {
			res.AssignedSubtotal += lineTotal
		} else {
			assigned := splitValue * float64(len(live))
			res.AssignedSubtotal += assigned
			res.UnassignedSubtotal += lineTotal - assigned
		}
	}

	res.TotalServiceAmount = res.AssignedSubtotal * (rates.Service / 100)
	res.TaxBase = res.AssignedSubtotal
	if o.taxBase == TaxOnSubtotalAndService {
		res.TaxBase += res.TotalServiceAmount
	}
	res.TotalTaxAmount = res.TaxBase * (rates.Tax / 100)

	for i := range splits {
		s := &splits[i]
		s.Total = s.Subtotal
		if res.AssignedSubtotal <= 0 || s.Subtotal <= 0 {
			continue
		}
		ratio := s.Subtotal / res.AssignedSubtotal
		s.TaxShare = res.TotalTaxAmount * ratio
		s.ServiceShare = res.TotalServiceAmount * ratio
		s.Total = s.Subtotal + s.TaxShare + s.ServiceShare
	}

	res.People = splits
	res.GrandTotal = res.AssignedSubtotal + res.TotalTaxAmount + res.TotalServiceAmount
	return res
}

// uniqueIDs drops repeated IDs, keeping first occurrences in order.
// Assignee lists are sets; a person listed twice still gets one share.
func uniqueIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
