// Package worker drains the export queue: it copies saved invoices into the
// bookkeeping spreadsheet and removes deleted ones. A periodic reconciler
// re-exports rows whose queue message was lost.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"smartinvoice/internal/amqp"
	"smartinvoice/internal/core"
	"smartinvoice/internal/invoices"
	"smartinvoice/internal/storage"
)

// ExportStore is the storage surface the worker needs.
type ExportStore interface {
	GetInvoice(ctx context.Context, id string) (core.Invoice, error)
	GetPendingExportInvoices(ctx context.Context, limit int) ([]storage.PendingExportInvoice, error)
	MarkExported(ctx context.Context, id string) error
	MarkExportError(ctx context.Context, id string) error
}

type ExportWorker struct {
	store     ExportStore
	exporter  invoices.Exporter
	batchSize int
}

func NewExportWorker(store ExportStore, exporter invoices.Exporter, batchSize int) *ExportWorker {
	return &ExportWorker{store: store, exporter: exporter, batchSize: batchSize}
}

// Handlers returns the dispatch table for the AMQP consumer.
func (w *ExportWorker) Handlers() amqp.Handlers {
	return amqp.Handlers{
		OnExport: w.HandleExportMessage,
		OnDelete: w.HandleDeleteMessage,
	}
}

// HandleExportMessage fetches the invoice and appends it to the spreadsheet.
// A row deleted between publish and consume is acked away silently.
func (w *ExportWorker) HandleExportMessage(ctx context.Context, msg *amqp.ExportMessage) error {
	inv, err := w.store.GetInvoice(ctx, msg.ID)
	if err != nil {
		if errors.Is(err, core.ErrRecordNotFound) {
			slog.WarnContext(ctx, "Invoice gone before export, dropping message",
				"invoice_id", msg.ID)
			return nil
		}
		return fmt.Errorf("get invoice from storage: %w", err)
	}

	return w.exportInvoice(ctx, inv)
}

// HandleDeleteMessage removes the spreadsheet row. The invoice no longer
// exists in storage, so the message body carries everything needed.
func (w *ExportWorker) HandleDeleteMessage(ctx context.Context, msg *amqp.DeleteMessage) error {
	invoiceDate, err := core.ParseDate(msg.InvoiceDate)
	if err != nil {
		slog.ErrorContext(ctx, "Delete message carries bad invoice_date, dropping",
			"invoice_id", msg.ID, "invoice_date", msg.InvoiceDate, "error", err)
		return nil
	}

	inv := core.Invoice{
		ID:          msg.ID,
		UserID:      msg.UserID,
		VendorName:  msg.VendorName,
		Amount:      core.Money{Cents: msg.AmountCents},
		InvoiceDate: invoiceDate,
	}

	if err := w.exporter.RemoveInvoice(ctx, inv); err != nil {
		return fmt.Errorf("remove invoice from export target: %w", err)
	}

	slog.InfoContext(ctx, "Invoice removed from export target", "invoice_id", msg.ID)
	return nil
}

// ProcessPending exports rows still marked pending. This is the backup path
// for lost queue messages.
func (w *ExportWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.store.GetPendingExportInvoices(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending export invoices: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending export invoices", "count", len(pending))

	for _, p := range pending {
		inv, err := w.store.GetInvoice(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to load pending invoice",
				"invoice_id", p.ID, "error", err)
			if markErr := w.store.MarkExportError(ctx, p.ID); markErr != nil {
				slog.ErrorContext(ctx, "Failed to mark export error",
					"invoice_id", p.ID, "error", markErr)
			}
			continue
		}
		if err := w.exportInvoice(ctx, inv); err != nil {
			slog.ErrorContext(ctx, "Failed to export pending invoice",
				"invoice_id", p.ID, "error", err)
		}
	}
	return nil
}

// RunReconciler calls ProcessPending on a fixed interval until ctx ends. An
// immediate first pass covers rows left pending across a restart.
func (w *ExportWorker) RunReconciler(ctx context.Context, interval time.Duration) error {
	if err := w.ProcessPending(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup export reconciliation failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.ProcessPending(ctx); err != nil {
				slog.ErrorContext(ctx, "Export reconciliation failed", "error", err)
			}
		}
	}
}

func (w *ExportWorker) exportInvoice(ctx context.Context, inv core.Invoice) error {
	if err := w.exporter.AppendInvoice(ctx, inv); err != nil {
		if markErr := w.store.MarkExportError(ctx, inv.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark export error",
				"invoice_id", inv.ID, "error", markErr)
		}
		return fmt.Errorf("append invoice to export target: %w", err)
	}

	if err := w.store.MarkExported(ctx, inv.ID); err != nil {
		// The export itself worked; log and move on.
		slog.ErrorContext(ctx, "Failed to mark invoice as exported",
			"invoice_id", inv.ID, "error", err)
	}

	slog.InfoContext(ctx, "Invoice exported",
		"invoice_id", inv.ID,
		"vendor_name", inv.VendorName,
		"amount_cents", inv.Amount.Cents)
	return nil
}
