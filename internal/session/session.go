// Package session models the bill splitting wizard as an explicit state record.
//
// A Session moves through upload → processing → edit → people → split →
// summary. Each operation checks that it is allowed in the current step and
// returns ErrInvalidTransition otherwise. A Session is not safe for
// concurrent use; confine it to one goroutine.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/mmynk/splitbill/internal/assignment"
	"github.com/mmynk/splitbill/internal/calculator"
	"github.com/mmynk/splitbill/internal/ingest"
	"github.com/mmynk/splitbill/internal/metrics"
	"github.com/mmynk/splitbill/internal/models"
)

// Step is a wizard stage.
type Step string

const (
	StepUpload     Step = "upload"
	StepProcessing Step = "processing"
	StepEdit       Step = "edit"
	StepPeople     Step = "people"
	StepSplit      Step = "split"
	StepSummary    Step = "summary"
)

var (
	// ErrInvalidTransition is returned when an operation is not allowed in the current step.
	ErrInvalidTransition = errors.New("operation not allowed in current step")
	// ErrNoPeople is returned when splitting starts without anyone to split with.
	ErrNoPeople = errors.New("add at least one person before splitting")
	// ErrItemNotFound is returned when an item ID is not on the bill.
	ErrItemNotFound = errors.New("item not found")
)

// DefaultRates are the rates a new or reset session starts with.
var DefaultRates = calculator.Rates{Tax: 10, Service: 5}

// Options configures a Session. The zero value is usable.
type Options struct {
	// Rates replaces DefaultRates when non-nil.
	Rates *calculator.Rates
	// Backend names the ingestion backend used by Process (default "text").
	Backend string
	// Registry resolves Backend (default ingest.NewRegistry()).
	Registry *ingest.Registry
	// Calculator options are passed to every calculator.Compute call.
	Calculator []calculator.Option
	// Metrics may be nil.
	Metrics *metrics.Recorder
}

// Session is the state of one bill being split.
type Session struct {
	step        Step
	image       []byte
	items       []models.Item
	people      []models.Person
	assignments *assignment.Store
	rates       calculator.Rates

	defaultRates calculator.Rates
	backend      string
	registry     *ingest.Registry
	calcOpts     []calculator.Option
	metrics      *metrics.Recorder
}

// New creates a session in the upload step.
func New(opts Options) *Session {
	s := &Session{
		defaultRates: DefaultRates,
		backend:      opts.Backend,
		registry:     opts.Registry,
		calcOpts:     opts.Calculator,
		metrics:      opts.Metrics,
	}
	if opts.Rates != nil {
		s.defaultRates = *opts.Rates
	}
	if s.backend == "" {
		s.backend = ingest.TextBackend
	}
	if s.registry == nil {
		s.registry = ingest.NewRegistry()
	}
	s.Reset()
	return s
}

// Reset discards everything and returns to the upload step with default rates.
func (s *Session) Reset() {
	s.step = StepUpload
	s.image = nil
	s.items = []models.Item{}
	s.people = []models.Person{}
	s.assignments = assignment.NewStore(nil)
	s.rates = s.defaultRates
}

// Step returns the current step.
func (s *Session) Step() Step { return s.step }

// Items returns a copy of the bill's items.
func (s *Session) Items() []models.Item { return slices.Clone(s.items) }

// People returns a copy of the people splitting the bill.
func (s *Session) People() []models.Person { return slices.Clone(s.people) }

// Rates returns the current tax and service rates.
func (s *Session) Rates() calculator.Rates { return s.rates }

// Assignments returns a snapshot of the current assignments.
func (s *Session) Assignments() assignment.Assignments { return s.assignments.Snapshot() }

// UnassignedCount returns how many items nobody has been assigned to yet.
func (s *Session) UnassignedCount() int { return s.assignments.UnassignedCount(s.items) }

func (s *Session) require(op string, steps ...Step) error {
	if !slices.Contains(steps, s.step) {
		return fmt.Errorf("%s in step %s: %w", op, s.step, ErrInvalidTransition)
	}
	return nil
}

// Upload stores the receipt input and moves to processing.
func (s *Session) Upload(image []byte) error {
	if err := s.require("upload", StepUpload); err != nil {
		return err
	}
	s.image = slices.Clone(image)
	s.step = StepProcessing
	return nil
}

// Process runs the configured ingestion backend on the uploaded input and
// moves to the edit step. When the receipt shows tax or service amounts they
// are converted into rates. On failure the session stays in processing so
// the caller can retry or fall back to ItemsFound.
func (s *Session) Process(ctx context.Context) error {
	if err := s.require("process", StepProcessing); err != nil {
		return err
	}
	receipt, err := s.registry.Extract(ctx, s.backend, s.image)
	if err != nil {
		slog.Warn("Receipt extraction failed", "backend", s.backend, "error", err)
		return fmt.Errorf("process receipt: %w", err)
	}
	s.metrics.ObserveIngest(s.backend, len(receipt.Items))
	if receipt.Tax != 0 || receipt.Service != 0 {
		s.rates = receipt.Rates()
		slog.Debug("Rates derived from receipt amounts",
			"tax", receipt.Tax,
			"service", receipt.Service,
			"tax_rate", s.rates.Tax,
			"service_rate", s.rates.Service,
		)
	}
	return s.ItemsFound(receipt.Items)
}

// ItemsFound replaces the bill's items and moves to the edit step.
func (s *Session) ItemsFound(items []models.Item) error {
	if err := s.require("items found", StepProcessing); err != nil {
		return err
	}
	s.items = ingest.Normalize(items)
	s.step = StepEdit
	slog.Debug("Items loaded", "count", len(s.items))
	return nil
}

// AddItem appends a manual item and returns it.
func (s *Session) AddItem(name string, price float64) (models.Item, error) {
	if err := s.require("add item", StepEdit); err != nil {
		return models.Item{}, err
	}
	item := models.NewItem(name, price)
	s.items = append(s.items, item)
	return item, nil
}

// EditItem changes an item's name and price.
func (s *Session) EditItem(id, name string, price float64) error {
	if err := s.require("edit item", StepEdit); err != nil {
		return err
	}
	idx := slices.IndexFunc(s.items, func(i models.Item) bool { return i.ID == id })
	if idx < 0 {
		return fmt.Errorf("edit item %q: %w", id, ErrItemNotFound)
	}
	s.items[idx].Name = name
	s.items[idx].Price = price
	return nil
}

// RemoveItem deletes an item and any assignments to it.
func (s *Session) RemoveItem(id string) error {
	if err := s.require("remove item", StepEdit); err != nil {
		return err
	}
	idx := slices.IndexFunc(s.items, func(i models.Item) bool { return i.ID == id })
	if idx < 0 {
		return fmt.Errorf("remove item %q: %w", id, ErrItemNotFound)
	}
	s.items = slices.Delete(s.items, idx, idx+1)
	s.assignments.RemoveItem(id)
	return nil
}

// SetTaxRate sets the tax rate, clamping negative values to 0.
func (s *Session) SetTaxRate(rate float64) error {
	if err := s.require("set tax rate", StepEdit); err != nil {
		return err
	}
	s.rates.Tax = max(0, rate)
	return nil
}

// SetServiceRate sets the service rate, clamping negative values to 0.
func (s *Session) SetServiceRate(rate float64) error {
	if err := s.require("set service rate", StepEdit); err != nil {
		return err
	}
	s.rates.Service = max(0, rate)
	return nil
}

// ToPeople finishes item editing.
func (s *Session) ToPeople() error {
	if err := s.require("to people", StepEdit); err != nil {
		return err
	}
	s.step = StepPeople
	return nil
}

// AddPerson adds someone to the split.
func (s *Session) AddPerson(name string) (models.Person, error) {
	if err := s.require("add person", StepPeople); err != nil {
		return models.Person{}, err
	}
	p, err := models.NewPerson(name)
	if err != nil {
		return models.Person{}, err
	}
	s.people = append(s.people, p)
	return p, nil
}

// RemovePerson removes someone and drops them from every item.
// Removing an unknown ID is a no-op.
func (s *Session) RemovePerson(id string) error {
	if err := s.require("remove person", StepPeople); err != nil {
		return err
	}
	s.people = slices.DeleteFunc(s.people, func(p models.Person) bool { return p.ID == id })
	s.assignments.RemovePerson(id)
	return nil
}

// StartSplitting moves to the assignment step. It needs at least one person.
func (s *Session) StartSplitting() error {
	if err := s.require("start splitting", StepPeople); err != nil {
		return err
	}
	if len(s.people) == 0 {
		return ErrNoPeople
	}
	s.step = StepSplit
	return nil
}

// Toggle flips whether personID shares itemID and reports whether they were added.
func (s *Session) Toggle(itemID, personID string) (bool, error) {
	if err := s.require("toggle", StepSplit); err != nil {
		return false, err
	}
	added := s.assignments.Toggle(itemID, personID)
	s.metrics.ObserveToggle(added)
	return added, nil
}

// ToSummary finishes assignment.
func (s *Session) ToSummary() error {
	if err := s.require("to summary", StepSplit); err != nil {
		return err
	}
	s.step = StepSummary
	return nil
}

// Back returns to the previous step, keeping all data. Upload and
// processing have nothing to go back to.
func (s *Session) Back() error {
	prev := map[Step]Step{
		StepPeople:  StepEdit,
		StepSplit:   StepPeople,
		StepSummary: StepSplit,
	}
	to, ok := prev[s.step]
	if !ok {
		return fmt.Errorf("back from step %s: %w", s.step, ErrInvalidTransition)
	}
	s.step = to
	return nil
}

// Summary computes the allocation for the current state. It is available
// from the split step on, so totals can be shown while assigning.
func (s *Session) Summary() (calculator.Result, error) {
	if err := s.require("summary", StepSplit, StepSummary); err != nil {
		return calculator.Result{}, err
	}
	start := time.Now()
	res := calculator.Compute(s.items, s.people, s.assignments, s.rates, s.calcOpts...)
	s.metrics.ObserveAllocation(start, res.UnassignedSubtotal)
	return res, nil
}
