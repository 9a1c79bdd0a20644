// Package storage is the SQLite persistence layer: user accounts, invoice
// rows and the export bookkeeping columns the worker drains.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"smartinvoice/internal/core"

	_ "modernc.org/sqlite"
)

// Export states tracked per invoice row.
const (
	ExportPending = "pending"
	ExportDone    = "exported"
	ExportError   = "error"
)

// storedTimeLayout pads fractional seconds to a fixed width. created_at is
// a TEXT column and ORDER BY compares it lexicographically, so trailing
// zeros must not be trimmed ("12:00:00.5Z" would sort after "12:00:00.51Z").
const storedTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// --- users ---

func (r *SQLiteRepository) CreateUser(ctx context.Context, user core.UserProfile, passwordHash string) (core.UserProfile, error) {
	user.ID = uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, full_name, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.FullName, passwordHash, r.now().UTC().Format(storedTimeLayout))
	if err != nil {
		return core.UserProfile{}, fmt.Errorf("insert user: %w", err)
	}

	slog.InfoContext(ctx, "User saved to SQLite", "user_id", user.ID)
	return user, nil
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.UserProfile, string, error) {
	var (
		user core.UserProfile
		hash string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, full_name, password_hash FROM users WHERE email = ?`, email).
		Scan(&user.ID, &user.Email, &user.FullName, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return core.UserProfile{}, "", core.ErrRecordNotFound
	}
	if err != nil {
		return core.UserProfile{}, "", fmt.Errorf("select user by email: %w", err)
	}
	return user, hash, nil
}

func (r *SQLiteRepository) GetUserByID(ctx context.Context, id string) (core.UserProfile, error) {
	var user core.UserProfile
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, full_name FROM users WHERE id = ?`, id).
		Scan(&user.ID, &user.Email, &user.FullName)
	if errors.Is(err, sql.ErrNoRows) {
		return core.UserProfile{}, core.ErrRecordNotFound
	}
	if err != nil {
		return core.UserProfile{}, fmt.Errorf("select user by id: %w", err)
	}
	return user, nil
}

// --- invoices ---

const invoiceColumns = `id, user_id, vendor_name, amount_cents, invoice_date, status, image_url, created_at`

func (r *SQLiteRepository) CreateInvoice(ctx context.Context, inv core.Invoice) (core.Invoice, error) {
	if err := inv.Validate(); err != nil {
		return core.Invoice{}, err
	}

	inv.ID = uuid.NewString()
	inv.CreatedAt = r.now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO invoices (id, user_id, vendor_name, amount_cents, invoice_date, status, image_url, created_at, export_status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.UserID, inv.VendorName, inv.Amount.Cents, inv.InvoiceDate.ISO(),
		string(inv.Status), inv.ImageURL, inv.CreatedAt.Format(storedTimeLayout), ExportPending)
	if err != nil {
		return core.Invoice{}, fmt.Errorf("insert invoice: %w", err)
	}

	slog.InfoContext(ctx, "Invoice saved to SQLite",
		"invoice_id", inv.ID,
		"user_id", inv.UserID,
		"vendor_name", inv.VendorName,
		"amount_cents", inv.Amount.Cents)
	return inv, nil
}

func (r *SQLiteRepository) ListInvoices(ctx context.Context, userID string) ([]core.Invoice, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("select invoices: %w", err)
	}
	defer rows.Close()

	var out []core.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invoices: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetInvoice(ctx context.Context, id string) (core.Invoice, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = ?`, id)
	inv, err := scanInvoice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Invoice{}, core.ErrRecordNotFound
	}
	return inv, err
}

func (r *SQLiteRepository) DeleteInvoice(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM invoices WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete invoice rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrRecordNotFound
	}

	slog.InfoContext(ctx, "Invoice deleted from SQLite", "invoice_id", id)
	return nil
}

// --- export bookkeeping ---

// PendingExportInvoice is the minimal row the reconciler needs to requeue.
type PendingExportInvoice struct {
	ID        string
	CreatedAt time.Time
}

func (r *SQLiteRepository) GetPendingExportInvoices(ctx context.Context, limit int) ([]PendingExportInvoice, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, created_at FROM invoices WHERE export_status = ? ORDER BY created_at ASC LIMIT ?`,
		ExportPending, limit)
	if err != nil {
		return nil, fmt.Errorf("select pending export invoices: %w", err)
	}
	defer rows.Close()

	var out []PendingExportInvoice
	for rows.Next() {
		var (
			p   PendingExportInvoice
			raw string
		)
		if err := rows.Scan(&p.ID, &raw); err != nil {
			return nil, fmt.Errorf("scan pending export invoice: %w", err)
		}
		p.CreatedAt, err = parseStoredTime(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending export invoices: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) MarkExported(ctx context.Context, id string) error {
	if err := r.setExportStatus(ctx, id, ExportDone); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Invoice marked as exported", "invoice_id", id)
	return nil
}

func (r *SQLiteRepository) MarkExportError(ctx context.Context, id string) error {
	if err := r.setExportStatus(ctx, id, ExportError); err != nil {
		return err
	}
	slog.WarnContext(ctx, "Invoice marked with export error", "invoice_id", id)
	return nil
}

func (r *SQLiteRepository) setExportStatus(ctx context.Context, id, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE invoices SET export_status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("update export status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update export status rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrRecordNotFound
	}
	return nil
}

// --- scanning ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (core.Invoice, error) {
	var (
		inv        core.Invoice
		status     string
		rawDate    string
		rawCreated string
	)
	err := row.Scan(&inv.ID, &inv.UserID, &inv.VendorName, &inv.Amount.Cents,
		&rawDate, &status, &inv.ImageURL, &rawCreated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Invoice{}, err
		}
		return core.Invoice{}, fmt.Errorf("scan invoice: %w", err)
	}

	inv.Status = core.InvoiceStatus(status)
	inv.InvoiceDate, err = core.ParseDate(rawDate)
	if err != nil {
		return core.Invoice{}, fmt.Errorf("parse stored invoice_date %q: %w", rawDate, err)
	}
	inv.CreatedAt, err = parseStoredTime(rawCreated)
	if err != nil {
		return core.Invoice{}, err
	}
	return inv, nil
}

func parseStoredTime(raw string) (time.Time, error) {
	// RFC3339Nano parses the fixed-width layout this code writes; the plain
	// layout tolerates rows inserted by hand during debugging.
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, strings.TrimSpace(raw)); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse stored timestamp %q", raw)
}
