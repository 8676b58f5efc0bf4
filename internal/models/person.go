package models

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"
)

// ErrEmptyName is returned when a person is created without a usable name.
var ErrEmptyName = errors.New("person name must not be empty")

// Person represents someone taking part in the split.
type Person struct {
	// ID is the unique identifier for the person (UUID format).
	ID string `json:"id" toml:"id"`

	// Name is the display name. Never empty for people created via NewPerson.
	Name string `json:"name" toml:"name"`

	// Color is a display accent (CSS color). It has no role in the math.
	Color string `json:"color,omitempty" toml:"color"`
}

// NewPerson creates a person with a trimmed name, a fresh ID and a random accent color.
func NewPerson(name string) (Person, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Person{}, ErrEmptyName
	}
	return Person{
		ID:    uuid.New().String(),
		Name:  name,
		Color: fmt.Sprintf("hsl(%d, 70%%, 60%%)", rand.IntN(360)),
	}, nil
}
