// Package memory provides an in-memory invoice store used as the dev
// backend and as the test fake for the HTTP layer.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"smartinvoice/internal/core"
	"smartinvoice/internal/invoices"
)

type Store struct {
	mu    sync.Mutex
	items []core.Invoice
	now   func() time.Time

	// FailCreate/FailDelete/FailList force data-access errors in tests.
	FailCreate error
	FailDelete error
	FailList   error
}

var _ invoices.Repository = (*Store)(nil)

func New() *Store {
	return &Store{now: time.Now}
}

// Seed inserts rows as-is, keeping whatever ids and owners they carry.
func (s *Store) Seed(items ...core.Invoice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, items...)
}

// ListInvoices returns the caller's invoices ordered by creation time
// descending. Rows owned by other users are never returned.
func (s *Store) ListInvoices(_ context.Context, userID string) ([]core.Invoice, error) {
	if s.FailList != nil {
		return nil, s.FailList
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Invoice
	for _, inv := range s.items {
		if inv.UserID == userID {
			out = append(out, inv)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) CreateInvoice(_ context.Context, inv core.Invoice) (core.Invoice, error) {
	if s.FailCreate != nil {
		return core.Invoice{}, s.FailCreate
	}
	if err := inv.Validate(); err != nil {
		return core.Invoice{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	inv.ID = uuid.NewString()
	inv.CreatedAt = s.now()
	s.items = append(s.items, inv)
	return inv, nil
}

func (s *Store) DeleteInvoice(_ context.Context, id string) error {
	if s.FailDelete != nil {
		return s.FailDelete
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, inv := range s.items {
		if inv.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return core.ErrRecordNotFound
}

func (s *Store) GetInvoice(_ context.Context, id string) (core.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, inv := range s.items {
		if inv.ID == id {
			return inv, nil
		}
	}
	return core.Invoice{}, core.ErrRecordNotFound
}

// Len reports the number of stored rows across all owners.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
