// Package ingest turns receipt input into items and absolute tax/service amounts.
//
// Backends implement Extractor and are picked by name from a Registry, so
// switching from one recognizer to another is a configuration change.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/mmynk/splitbill/internal/models"
)

var (
	// ErrUnknownBackend is returned when no extractor is registered under a name.
	ErrUnknownBackend = errors.New("unknown ingestion backend")
	// ErrEmptyInput is returned when an extractor receives no data.
	ErrEmptyInput = errors.New("receipt input is empty")
)

// Receipt is what an extractor found on a receipt. Tax and Service are
// absolute amounts (zero when the receipt does not show them).
type Receipt struct {
	Items   []models.Item
	Tax     float64
	Service float64
}

// Extractor reads a receipt image (or whatever the backend accepts) and
// returns its line items.
type Extractor interface {
	ExtractReceipt(ctx context.Context, image []byte) (*Receipt, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(ctx context.Context, image []byte) (*Receipt, error)

// ExtractReceipt calls f.
func (f ExtractorFunc) ExtractReceipt(ctx context.Context, image []byte) (*Receipt, error) {
	return f(ctx, image)
}

// Registry maps backend names to extractors. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Extractor
}

// NewRegistry creates a registry with the built-in "text" backend.
func NewRegistry() *Registry {
	r := &Registry{backends: make(map[string]Extractor)}
	r.Register(TextBackend, TextExtractor{})
	return r
}

// Register adds or replaces the extractor for name.
func (r *Registry) Register(name string, e Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[name] = e
}

// Get returns the extractor registered as name.
func (r *Registry) Get(name string) (Extractor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.backends[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
	return e, nil
}

// Names lists registered backends in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Extract runs the named backend and normalizes its items.
func (r *Registry) Extract(ctx context.Context, backend string, image []byte) (*Receipt, error) {
	e, err := r.Get(backend)
	if err != nil {
		return nil, err
	}
	receipt, err := e.ExtractReceipt(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("extract receipt with %s: %w", backend, err)
	}
	receipt.Items = Normalize(receipt.Items)
	return receipt, nil
}
