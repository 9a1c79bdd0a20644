// Package extract defines the document-intelligence capability used by the
// upload flow. The only shipping implementation is the mock; a real
// extraction backend slots in behind the same interface without touching
// call sites.
package extract

import (
	"context"
	"errors"
	"io"

	"smartinvoice/internal/core"
)

// ErrExtraction is the distinct error kind a real extractor must return for
// malformed images or low-confidence results. Implementations wrap it so
// callers can branch on errors.Is without silently falling back to mock data.
var ErrExtraction = errors.New("extraction failed")

// Result holds the structured fields proposed from an invoice image.
// The user reviews and may edit all of them before saving.
type Result struct {
	VendorName  string
	Amount      core.Money
	InvoiceDate core.Date
}

// Upload describes the file handed to the extractor. Content may be ignored
// by implementations that do not inspect the bytes (the mock does not).
type Upload struct {
	Filename    string
	ContentType string
	Content     io.Reader
}

// DocumentExtractor derives structured invoice fields from an uploaded image.
type DocumentExtractor interface {
	Extract(ctx context.Context, upload Upload) (Result, error)
}
