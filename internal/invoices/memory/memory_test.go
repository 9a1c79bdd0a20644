package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"smartinvoice/internal/core"
)

func date(y, m, d int) core.Date { return core.NewDate(y, m, d) }

func TestListScopedToOwner(t *testing.T) {
	s := New()
	s.Seed(
		core.Invoice{ID: "a1", UserID: "alice", VendorName: "Stripe", Amount: core.Money{Cents: 1200}, Status: core.StatusPending, InvoiceDate: date(2024, 3, 1), CreatedAt: time.Now().Add(-2 * time.Hour)},
		core.Invoice{ID: "b1", UserID: "bob", VendorName: "Figma", Amount: core.Money{Cents: 900}, Status: core.StatusApproved, InvoiceDate: date(2024, 3, 2), CreatedAt: time.Now().Add(-time.Hour)},
		core.Invoice{ID: "a2", UserID: "alice", VendorName: "WeWork", Amount: core.Money{Cents: 4500}, Status: core.StatusApproved, InvoiceDate: date(2024, 3, 3), CreatedAt: time.Now()},
	)

	got, err := s.ListInvoices(context.Background(), "alice")
	if err != nil {
		t.Fatalf("ListInvoices: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d invoices, want 2", len(got))
	}
	for _, inv := range got {
		if inv.UserID != "alice" {
			t.Errorf("invoice %s owned by %s leaked into alice's list", inv.ID, inv.UserID)
		}
	}
	if got[0].ID != "a2" || got[1].ID != "a1" {
		t.Errorf("order = %s,%s, want newest first a2,a1", got[0].ID, got[1].ID)
	}
}

func TestCreateAssignsIdentity(t *testing.T) {
	s := New()
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	created, err := s.CreateInvoice(context.Background(), core.Invoice{
		UserID:      "alice",
		VendorName:  "Amazon",
		Amount:      core.Money{Cents: 35000},
		InvoiceDate: date(2024, 5, 30),
		Status:      core.StatusPending,
	})
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	if created.ID == "" {
		t.Error("expected a server-assigned id")
	}
	if !created.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v, want %v", created.CreatedAt, now)
	}

	got, err := s.GetInvoice(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetInvoice: %v", err)
	}
	if got.VendorName != "Amazon" {
		t.Errorf("VendorName = %q", got.VendorName)
	}
}

func TestCreateRejectsInvalid(t *testing.T) {
	s := New()
	_, err := s.CreateInvoice(context.Background(), core.Invoice{
		UserID:      "",
		VendorName:  "Amazon",
		Amount:      core.Money{Cents: 100},
		InvoiceDate: date(2024, 5, 30),
		Status:      core.StatusPending,
	})
	if !errors.Is(err, core.ErrEmptyUserID) {
		t.Fatalf("err = %v, want ErrEmptyUserID", err)
	}
}

func TestDeleteRemovesExactlyOne(t *testing.T) {
	s := New()
	s.Seed(
		core.Invoice{ID: "x", UserID: "alice", VendorName: "Stripe", Amount: core.Money{Cents: 100}, Status: core.StatusPending, InvoiceDate: date(2024, 1, 1)},
		core.Invoice{ID: "y", UserID: "alice", VendorName: "Figma", Amount: core.Money{Cents: 200}, Status: core.StatusPending, InvoiceDate: date(2024, 1, 2)},
	)

	if err := s.DeleteInvoice(context.Background(), "x"); err != nil {
		t.Fatalf("DeleteInvoice: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("store has %d rows, want 1", s.Len())
	}
	if _, err := s.GetInvoice(context.Background(), "y"); err != nil {
		t.Errorf("sibling row y should survive: %v", err)
	}
	if err := s.DeleteInvoice(context.Background(), "x"); !errors.Is(err, core.ErrRecordNotFound) {
		t.Errorf("second delete err = %v, want ErrRecordNotFound", err)
	}
}
