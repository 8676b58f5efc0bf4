package cli

import (
	"fmt"
	"slices"

	"github.com/BurntSushi/toml"

	"github.com/mmynk/splitbill/internal/assignment"
	"github.com/mmynk/splitbill/internal/models"
)

// billFile is the on-disk description of a bill to split.
//
//	tax_rate = 10
//	service_rate = 5
//	payer = "A"
//
//	[[people]]
//	id = "A"
//	name = "Alice"
//
//	[[items]]
//	id = "1"
//	name = "Steak"
//	price = 10000
//	quantity = 1
//	assigned = ["A", "B"]
type billFile struct {
	TaxRate     *float64        `toml:"tax_rate"`
	ServiceRate *float64        `toml:"service_rate"`
	Payer       string          `toml:"payer"`
	People      []models.Person `toml:"people"`
	Items       []billItem      `toml:"items"`
}

type billItem struct {
	ID       string   `toml:"id"`
	Name     string   `toml:"name"`
	Price    float64  `toml:"price"`
	Quantity int      `toml:"quantity"`
	Assigned []string `toml:"assigned"`
}

func loadBill(path string) (*billFile, error) {
	var bill billFile
	if _, err := toml.DecodeFile(path, &bill); err != nil {
		return nil, fmt.Errorf("failed to read bill %s: %w", path, err)
	}
	for i, item := range bill.Items {
		if item.ID == "" {
			bill.Items[i].ID = fmt.Sprintf("item-%d", i+1)
		}
	}
	return &bill, nil
}

func (b *billFile) items() []models.Item {
	items := make([]models.Item, len(b.Items))
	for i, it := range b.Items {
		items[i] = models.Item{ID: it.ID, Name: it.Name, Price: it.Price, Quantity: it.Quantity}
	}
	return items
}

// assignments builds the store from each item's assigned list. Listing the
// same person twice counts once.
func (b *billFile) assignments() *assignment.Store {
	store := assignment.NewStore(nil)
	for _, it := range b.Items {
		for _, personID := range it.Assigned {
			if !slices.Contains(store.AssigneesOf(it.ID), personID) {
				store.Toggle(it.ID, personID)
			}
		}
	}
	return store
}
