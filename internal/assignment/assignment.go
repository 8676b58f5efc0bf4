// Package assignment tracks which people are billed for which receipt item.
package assignment

import (
	"slices"
	"sync"

	"github.com/mmynk/splitbill/internal/models"
)

// Assignments maps an item ID to the IDs of the people sharing it.
// A key is present only while its slice is non-empty. Person IDs keep the
// order in which they were first toggled on.
type Assignments map[string][]string

// AssigneesOf returns a copy of the person IDs assigned to itemID.
// The result is empty (nil) when the item is unassigned.
func (a Assignments) AssigneesOf(itemID string) []string {
	return slices.Clone(a[itemID])
}

// Clone returns a deep copy.
func (a Assignments) Clone() Assignments {
	out := make(Assignments, len(a))
	for itemID, ids := range a {
		out[itemID] = slices.Clone(ids)
	}
	return out
}

// Equal reports whether both mappings hold the same assignees in the same order.
func (a Assignments) Equal(b Assignments) bool {
	if len(a) != len(b) {
		return false
	}
	for itemID, ids := range a {
		other, ok := b[itemID]
		if !ok || !slices.Equal(ids, other) {
			return false
		}
	}
	return true
}

// ToggleAssignment returns a new mapping with personID toggled on itemID.
// The input is left untouched.
func ToggleAssignment(a Assignments, itemID, personID string) Assignments {
	out := a.Clone()
	out.toggle(itemID, personID)
	return out
}

// toggle flips membership in place and reports whether personID was added.
func (a Assignments) toggle(itemID, personID string) bool {
	current := a[itemID]
	if idx := slices.Index(current, personID); idx >= 0 {
		remaining := slices.Delete(slices.Clone(current), idx, idx+1)
		if len(remaining) == 0 {
			delete(a, itemID)
		} else {
			a[itemID] = remaining
		}
		return false
	}
	a[itemID] = append(slices.Clone(current), personID)
	return true
}

func (a Assignments) removePerson(personID string) {
	for itemID, ids := range a {
		if !slices.Contains(ids, personID) {
			continue
		}
		remaining := slices.DeleteFunc(slices.Clone(ids), func(id string) bool { return id == personID })
		if len(remaining) == 0 {
			delete(a, itemID)
		} else {
			a[itemID] = remaining
		}
	}
}

// UnassignedCount returns how many of items have no assignee.
func (a Assignments) UnassignedCount(items []models.Item) int {
	n := 0
	for _, item := range items {
		if len(a[item.ID]) == 0 {
			n++
		}
	}
	return n
}

// Store is a mutex-guarded Assignments, safe for concurrent use.
// The zero value is ready to use.
type Store struct {
	mu          sync.Mutex
	assignments Assignments
}

// NewStore creates a store seeded with a copy of initial (which may be nil).
func NewStore(initial Assignments) *Store {
	return &Store{assignments: initial.Clone()}
}

// Toggle adds personID to itemID's assignees, or removes it if already there.
// Removing the last assignee deletes the item's entry. It reports whether
// the person was added.
func (s *Store) Toggle(itemID, personID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.assignments == nil {
		s.assignments = make(Assignments)
	}
	return s.assignments.toggle(itemID, personID)
}

// AssigneesOf returns the person IDs assigned to itemID, or nil if unassigned.
func (s *Store) AssigneesOf(itemID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.assignments.AssigneesOf(itemID)
}

// RemoveItem drops every assignment for itemID.
func (s *Store) RemoveItem(itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.assignments, itemID)
}

// RemovePerson removes personID from every item, deleting entries that become empty.
func (s *Store) RemovePerson(personID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments.removePerson(personID)
}

// Len returns the number of assigned items.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.assignments)
}

// UnassignedCount returns how many of items have no assignee.
func (s *Store) UnassignedCount(items []models.Item) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.assignments.UnassignedCount(items)
}

// Snapshot returns a deep copy of the current mapping.
func (s *Store) Snapshot() Assignments {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.assignments.Clone()
}

// Reset clears all assignments.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments = make(Assignments)
}
