package invoices

import (
	"context"

	"smartinvoice/internal/core"
)

// Ports for the invoice data layer and outbound export adapter.
type (
	// Lister returns every invoice owned by userID, newest first.
	Lister interface {
		ListInvoices(ctx context.Context, userID string) ([]core.Invoice, error)
	}

	// Creator persists an invoice without identity/timestamp fields and
	// returns the stored row including the server-assigned id and created_at.
	Creator interface {
		CreateInvoice(ctx context.Context, inv core.Invoice) (core.Invoice, error)
	}

	// Deleter removes a row by id. Ownership scoping is the caller's
	// concern: the service checks the owner before deleting.
	Deleter interface {
		DeleteInvoice(ctx context.Context, id string) error
	}

	// Getter fetches a single invoice by id.
	Getter interface {
		GetInvoice(ctx context.Context, id string) (core.Invoice, error)
	}

	// Repository is the full data-layer surface the HTTP server needs.
	Repository interface {
		Lister
		Creator
		Deleter
		Getter
	}

	// Exporter appends an invoice row to the external bookkeeping target
	// and removes it again on delete.
	Exporter interface {
		AppendInvoice(ctx context.Context, inv core.Invoice) error
		RemoveInvoice(ctx context.Context, inv core.Invoice) error
	}
)
