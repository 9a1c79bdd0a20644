package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"smartinvoice/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func createTestUser(t *testing.T, repo *SQLiteRepository, email string) core.UserProfile {
	t.Helper()
	user, err := repo.CreateUser(context.Background(), core.UserProfile{Email: email, FullName: "Test User"}, "not-a-real-hash")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return user
}

func TestUserRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created := createTestUser(t, repo, "alice@example.com")
	if created.ID == "" {
		t.Fatal("expected a server-assigned user id")
	}

	got, hash, err := repo.GetUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if got.ID != created.ID || hash != "not-a-real-hash" {
		t.Errorf("got %+v hash %q", got, hash)
	}

	byID, err := repo.GetUserByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if byID.Email != "alice@example.com" {
		t.Errorf("Email = %q", byID.Email)
	}

	if _, _, err := repo.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, core.ErrRecordNotFound) {
		t.Errorf("unknown email err = %v, want ErrRecordNotFound", err)
	}
}

func TestDuplicateEmailRejected(t *testing.T) {
	repo := newTestRepo(t)
	createTestUser(t, repo, "dup@example.com")

	_, err := repo.CreateUser(context.Background(), core.UserProfile{Email: "dup@example.com"}, "hash")
	if err == nil {
		t.Fatal("expected unique constraint violation")
	}
}

func TestInvoiceLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	alice := createTestUser(t, repo, "alice@example.com")
	bob := createTestUser(t, repo, "bob@example.com")

	mk := func(userID, vendor string, cents int64) core.Invoice {
		inv, err := repo.CreateInvoice(ctx, core.Invoice{
			UserID:      userID,
			VendorName:  vendor,
			Amount:      core.Money{Cents: cents},
			InvoiceDate: core.NewDate(2024, 3, 15),
			Status:      core.StatusPending,
			ImageURL:    "/static/img/placeholder-invoice.svg",
		})
		if err != nil {
			t.Fatalf("CreateInvoice(%s): %v", vendor, err)
		}
		return inv
	}

	first := mk(alice.ID, "Stripe", 12050)
	mk(bob.ID, "Figma", 900)
	second := mk(alice.ID, "WeWork", 45000)

	list, err := repo.ListInvoices(ctx, alice.ID)
	if err != nil {
		t.Fatalf("ListInvoices: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("alice has %d invoices, want 2", len(list))
	}
	for _, inv := range list {
		if inv.UserID != alice.ID {
			t.Errorf("foreign invoice %s leaked into alice's list", inv.ID)
		}
	}

	got, err := repo.GetInvoice(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetInvoice: %v", err)
	}
	if got.VendorName != "Stripe" || got.Amount.Cents != 12050 {
		t.Errorf("got %+v", got)
	}
	if got.InvoiceDate.ISO() != "2024-03-15" {
		t.Errorf("InvoiceDate = %s", got.InvoiceDate.ISO())
	}

	if err := repo.DeleteInvoice(ctx, second.ID); err != nil {
		t.Fatalf("DeleteInvoice: %v", err)
	}
	if err := repo.DeleteInvoice(ctx, second.ID); !errors.Is(err, core.ErrRecordNotFound) {
		t.Errorf("second delete err = %v, want ErrRecordNotFound", err)
	}

	list, err = repo.ListInvoices(ctx, alice.ID)
	if err != nil {
		t.Fatalf("ListInvoices after delete: %v", err)
	}
	if len(list) != 1 || list[0].ID != first.ID {
		t.Errorf("after delete list = %+v", list)
	}
}

func TestListNewestFirstWithinSameSecond(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	user := createTestUser(t, repo, "order@example.com")

	// 500ms vs 510ms in the same second: a format that trims trailing
	// fractional zeros would make ".5Z" sort after ".51Z" in the TEXT column.
	base := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	mkAt := func(vendor string, at time.Time) core.Invoice {
		repo.now = func() time.Time { return at }
		inv, err := repo.CreateInvoice(ctx, core.Invoice{
			UserID:      user.ID,
			VendorName:  vendor,
			Amount:      core.Money{Cents: 1000},
			InvoiceDate: core.NewDate(2024, 3, 15),
			Status:      core.StatusPending,
		})
		if err != nil {
			t.Fatalf("CreateInvoice(%s): %v", vendor, err)
		}
		return inv
	}

	older := mkAt("Older", base.Add(500*time.Millisecond))
	newer := mkAt("Newer", base.Add(510*time.Millisecond))

	list, err := repo.ListInvoices(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListInvoices: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("list has %d invoices, want 2", len(list))
	}
	if list[0].ID != newer.ID || list[1].ID != older.ID {
		t.Errorf("order = [%s, %s], want newest first", list[0].VendorName, list[1].VendorName)
	}
	if !list[0].CreatedAt.Equal(newer.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", list[0].CreatedAt, newer.CreatedAt)
	}
}

func TestNegativeAmountStored(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	user := createTestUser(t, repo, "neg@example.com")

	inv, err := repo.CreateInvoice(ctx, core.Invoice{
		UserID:      user.ID,
		VendorName:  "Refund Corp",
		Amount:      core.Money{Cents: -5000},
		InvoiceDate: core.NewDate(2024, 1, 2),
		Status:      core.StatusApproved,
	})
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	got, err := repo.GetInvoice(ctx, inv.ID)
	if err != nil {
		t.Fatalf("GetInvoice: %v", err)
	}
	if got.Amount.Cents != -5000 {
		t.Errorf("Amount = %d, want -5000", got.Amount.Cents)
	}
}

func TestExportBookkeeping(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	user := createTestUser(t, repo, "export@example.com")

	var ids []string
	for _, vendor := range []string{"Amazon", "Stripe", "Figma"} {
		inv, err := repo.CreateInvoice(ctx, core.Invoice{
			UserID:      user.ID,
			VendorName:  vendor,
			Amount:      core.Money{Cents: 1000},
			InvoiceDate: core.NewDate(2024, 6, 1),
			Status:      core.StatusPending,
		})
		if err != nil {
			t.Fatalf("CreateInvoice: %v", err)
		}
		ids = append(ids, inv.ID)
	}

	pending, err := repo.GetPendingExportInvoices(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingExportInvoices: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("pending = %d, want 3", len(pending))
	}

	if err := repo.MarkExported(ctx, ids[0]); err != nil {
		t.Fatalf("MarkExported: %v", err)
	}
	if err := repo.MarkExportError(ctx, ids[1]); err != nil {
		t.Fatalf("MarkExportError: %v", err)
	}

	pending, err = repo.GetPendingExportInvoices(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingExportInvoices: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != ids[2] {
		t.Errorf("pending after marks = %+v, want only %s", pending, ids[2])
	}

	if err := repo.MarkExported(ctx, "missing-id"); !errors.Is(err, core.ErrRecordNotFound) {
		t.Errorf("mark missing err = %v, want ErrRecordNotFound", err)
	}
}
