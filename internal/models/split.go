package models

import (
	"github.com/google/uuid"
)

// DefaultItemName is the placeholder label for manually added items.
const DefaultItemName = "New Item"

// Item represents a single line item on a receipt.
// Items can be shared among multiple people through the assignment store.
type Item struct {
	// ID is the unique identifier for the item (UUID format for manual adds,
	// whatever the ingestion backend produced otherwise).
	ID string `json:"id" toml:"id"`

	// Name is the display label (e.g., "Nasi Goreng", "Iced Tea").
	// May be empty or a placeholder for manually added items.
	Name string `json:"name" toml:"name"`

	// Price is the unit price. Negative for discount lines.
	Price float64 `json:"price" toml:"price"`

	// Quantity is the number of units bought. Values below 1 count as 1.
	Quantity int `json:"quantity" toml:"quantity"`
}

// NewItem creates a manually added item with a fresh ID and quantity 1.
// An empty name falls back to DefaultItemName.
func NewItem(name string, price float64) Item {
	if name == "" {
		name = DefaultItemName
	}
	return Item{
		ID:       uuid.New().String(),
		Name:     name,
		Price:    price,
		Quantity: 1,
	}
}

// Units returns the quantity, treating anything below 1 as a single unit.
func (i Item) Units() int {
	if i.Quantity < 1 {
		return 1
	}
	return i.Quantity
}

// LineTotal returns price × quantity.
func (i Item) LineTotal() float64 {
	return i.Price * float64(i.Units())
}
