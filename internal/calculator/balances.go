package calculator

import (
	"errors"
	"fmt"
)

// ErrUnknownPayer is returned when the payer is not one of the people in the result.
var ErrUnknownPayer = errors.New("payer is not part of the split")

// settleThreshold skips transfers that are floating point noise.
const settleThreshold = 0.005

// DebtEdge represents a debt from one person to another.
type DebtEdge struct {
	From   string  `json:"from"` // Person who owes
	To     string  `json:"to"`   // Person who is owed
	Amount float64 `json:"amount"`
}

// Settle lists what everyone owes the person who paid the receipt.
//
// The payer covered the grand total, so every other person with a positive
// total owes exactly that total. People with zero or negative totals are
// skipped; the payer keeps their own share. Edges follow the result's person order.
func Settle(r Result, payerID string) ([]DebtEdge, error) {
	if _, ok := r.Person(payerID); !ok {
		return nil, fmt.Errorf("settle with payer %q: %w", payerID, ErrUnknownPayer)
	}

	var edges []DebtEdge
	for _, p := range r.People {
		if p.PersonID == payerID || p.Total < settleThreshold {
			continue
		}
		edges = append(edges, DebtEdge{
			From:   p.PersonID,
			To:     payerID,
			Amount: p.Total,
		})
	}
	return edges, nil
}
