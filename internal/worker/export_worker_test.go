package worker

import (
	"context"
	"errors"
	"testing"

	"smartinvoice/internal/amqp"
	"smartinvoice/internal/core"
	"smartinvoice/internal/storage"
)

type fakeStore struct {
	invoices map[string]core.Invoice
	pending  []string
	exported []string
	errored  []string
}

func newFakeStore(invs ...core.Invoice) *fakeStore {
	s := &fakeStore{invoices: map[string]core.Invoice{}}
	for _, inv := range invs {
		s.invoices[inv.ID] = inv
		s.pending = append(s.pending, inv.ID)
	}
	return s
}

func (s *fakeStore) GetInvoice(_ context.Context, id string) (core.Invoice, error) {
	inv, ok := s.invoices[id]
	if !ok {
		return core.Invoice{}, core.ErrRecordNotFound
	}
	return inv, nil
}

func (s *fakeStore) GetPendingExportInvoices(_ context.Context, limit int) ([]storage.PendingExportInvoice, error) {
	var out []storage.PendingExportInvoice
	for _, id := range s.pending {
		if len(out) == limit {
			break
		}
		out = append(out, storage.PendingExportInvoice{ID: id})
	}
	return out, nil
}

func (s *fakeStore) MarkExported(_ context.Context, id string) error {
	s.exported = append(s.exported, id)
	s.removePending(id)
	return nil
}

func (s *fakeStore) MarkExportError(_ context.Context, id string) error {
	s.errored = append(s.errored, id)
	s.removePending(id)
	return nil
}

func (s *fakeStore) removePending(id string) {
	for i, p := range s.pending {
		if p == id {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return
		}
	}
}

type fakeExporter struct {
	appended  []core.Invoice
	removed   []core.Invoice
	appendErr error
}

func (f *fakeExporter) AppendInvoice(_ context.Context, inv core.Invoice) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, inv)
	return nil
}

func (f *fakeExporter) RemoveInvoice(_ context.Context, inv core.Invoice) error {
	f.removed = append(f.removed, inv)
	return nil
}

func testInvoice(id string) core.Invoice {
	return core.Invoice{
		ID:          id,
		UserID:      "u-1",
		VendorName:  "Stripe",
		Amount:      core.Money{Cents: 12050},
		InvoiceDate: core.NewDate(2024, 3, 15),
		Status:      core.StatusPending,
	}
}

func TestHandleExportMessage(t *testing.T) {
	store := newFakeStore(testInvoice("inv-1"))
	exp := &fakeExporter{}
	w := NewExportWorker(store, exp, 10)

	if err := w.HandleExportMessage(context.Background(), amqp.NewExportMessage("inv-1")); err != nil {
		t.Fatalf("HandleExportMessage: %v", err)
	}
	if len(exp.appended) != 1 || exp.appended[0].ID != "inv-1" {
		t.Errorf("appended = %+v", exp.appended)
	}
	if len(store.exported) != 1 || store.exported[0] != "inv-1" {
		t.Errorf("exported marks = %v", store.exported)
	}
}

func TestHandleExportMessageGoneInvoice(t *testing.T) {
	w := NewExportWorker(newFakeStore(), &fakeExporter{}, 10)

	// The row was deleted between publish and consume; the message must be
	// acked away, not requeued forever.
	if err := w.HandleExportMessage(context.Background(), amqp.NewExportMessage("gone")); err != nil {
		t.Fatalf("expected nil for a gone invoice, got %v", err)
	}
}

func TestHandleExportMessageTargetFailure(t *testing.T) {
	store := newFakeStore(testInvoice("inv-1"))
	exp := &fakeExporter{appendErr: errors.New("sheets unavailable")}
	w := NewExportWorker(store, exp, 10)

	if err := w.HandleExportMessage(context.Background(), amqp.NewExportMessage("inv-1")); err == nil {
		t.Fatal("expected error when export target fails")
	}
	if len(store.errored) != 1 || store.errored[0] != "inv-1" {
		t.Errorf("error marks = %v, want [inv-1]", store.errored)
	}
}

func TestHandleDeleteMessage(t *testing.T) {
	exp := &fakeExporter{}
	w := NewExportWorker(newFakeStore(), exp, 10)

	msg := &amqp.DeleteMessage{
		Kind:        amqp.KindDelete,
		ID:          "inv-9",
		UserID:      "u-1",
		VendorName:  "Figma",
		AmountCents: 900,
		InvoiceDate: "2024-04-01",
	}
	if err := w.HandleDeleteMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleDeleteMessage: %v", err)
	}
	if len(exp.removed) != 1 || exp.removed[0].VendorName != "Figma" {
		t.Errorf("removed = %+v", exp.removed)
	}
}

func TestHandleDeleteMessageBadDate(t *testing.T) {
	exp := &fakeExporter{}
	w := NewExportWorker(newFakeStore(), exp, 10)

	msg := &amqp.DeleteMessage{Kind: amqp.KindDelete, ID: "inv-9", InvoiceDate: "not-a-date"}
	if err := w.HandleDeleteMessage(context.Background(), msg); err != nil {
		t.Fatalf("bad date should drop the message, got %v", err)
	}
	if len(exp.removed) != 0 {
		t.Error("nothing should be removed for a malformed message")
	}
}

func TestProcessPending(t *testing.T) {
	store := newFakeStore(testInvoice("inv-1"), testInvoice("inv-2"), testInvoice("inv-3"))
	exp := &fakeExporter{}
	w := NewExportWorker(store, exp, 2)

	if err := w.ProcessPending(context.Background()); err != nil {
		t.Fatalf("ProcessPending: %v", err)
	}
	// Batch size caps the first pass.
	if len(exp.appended) != 2 {
		t.Fatalf("appended = %d, want 2", len(exp.appended))
	}

	if err := w.ProcessPending(context.Background()); err != nil {
		t.Fatalf("second ProcessPending: %v", err)
	}
	if len(exp.appended) != 3 {
		t.Errorf("appended after second pass = %d, want 3", len(exp.appended))
	}
	if len(store.pending) != 0 {
		t.Errorf("pending left = %v", store.pending)
	}
}
