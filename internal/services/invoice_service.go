// Package services glues the data layer to the export queue. Handlers call
// through InvoiceService so publishing stays best-effort and never blocks a
// save or delete.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"smartinvoice/internal/core"
	"smartinvoice/internal/invoices"
)

// ExportPublisher is the queue-facing slice of the AMQP client.
type ExportPublisher interface {
	PublishExport(ctx context.Context, invoiceID string) error
	PublishDelete(ctx context.Context, inv core.Invoice) error
}

// InvoiceService orchestrates invoice operations across storage and AMQP.
type InvoiceService struct {
	repo      invoices.Repository
	publisher ExportPublisher
}

// NewInvoiceService wires the service. publisher may be nil when the export
// pipeline is not configured; saves and deletes still work locally.
func NewInvoiceService(repo invoices.Repository, publisher ExportPublisher) *InvoiceService {
	return &InvoiceService{repo: repo, publisher: publisher}
}

// ListInvoices returns the caller's invoices, newest first.
func (s *InvoiceService) ListInvoices(ctx context.Context, userID string) ([]core.Invoice, error) {
	return s.repo.ListInvoices(ctx, userID)
}

// CreateInvoice saves locally first, then publishes an export message. A
// publish failure is logged but never fails the request; the reconciler
// picks the row up later from its pending export status.
func (s *InvoiceService) CreateInvoice(ctx context.Context, inv core.Invoice) (core.Invoice, error) {
	created, err := s.repo.CreateInvoice(ctx, inv)
	if err != nil {
		return core.Invoice{}, fmt.Errorf("save invoice: %w", err)
	}

	if s.publisher == nil {
		return created, nil
	}
	if err := s.publisher.PublishExport(ctx, created.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish export message",
			"invoice_id", created.ID, "error", err)
	}
	return created, nil
}

// DeleteInvoice removes the row and publishes a delete message carrying the
// row data, since the worker can no longer look it up afterwards. A row
// owned by someone else is reported as not found.
func (s *InvoiceService) DeleteInvoice(ctx context.Context, userID, id string) error {
	inv, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return err
	}
	if inv.UserID != userID {
		return core.ErrRecordNotFound
	}

	if err := s.repo.DeleteInvoice(ctx, id); err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}

	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.PublishDelete(ctx, inv); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete message",
			"invoice_id", id, "error", err)
	}
	return nil
}
