package google

import (
	"context"
	"testing"

	"smartinvoice/internal/core"
)

func TestInvoiceRowLayout(t *testing.T) {
	inv := core.Invoice{
		ID:          "inv-1",
		UserID:      "u-1",
		VendorName:  "Stripe",
		Amount:      core.Money{Cents: 12050},
		InvoiceDate: core.NewDate(2024, 3, 15),
		Status:      core.StatusApproved,
	}

	row := invoiceRow(inv)
	if len(row) != 6 {
		t.Fatalf("row has %d columns, want 6", len(row))
	}
	if row[0] != "2024-03-15" {
		t.Errorf("date column = %v", row[0])
	}
	if row[1] != "Stripe" {
		t.Errorf("vendor column = %v", row[1])
	}
	if row[2] != 120.50 {
		t.Errorf("amount column = %v, want 120.50", row[2])
	}
	if row[3] != "approved" {
		t.Errorf("status column = %v", row[3])
	}
	if row[4] != "inv-1" || row[5] != "u-1" {
		t.Errorf("id columns = %v, %v", row[4], row[5])
	}
}

func TestNewFromEnvRequiresSpreadsheetID(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")
	if _, err := NewFromEnv(context.Background()); err == nil {
		t.Error("expected error without GOOGLE_SPREADSHEET_ID")
	}
}

func TestNewFromEnvRequiresCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "sheet-id")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	if _, err := NewFromEnv(context.Background()); err == nil {
		t.Error("expected error without service account credentials")
	}
}
