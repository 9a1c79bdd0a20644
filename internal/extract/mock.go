package extract

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"smartinvoice/internal/core"
)

// mockVendors is the fixed list the mock picks from.
var mockVendors = []string{"Amazon", "Google Cloud", "WeWork", "Stripe", "Figma"}

const (
	mockDelay        = 2 * time.Second
	mockMinCents     = 5_000  // $50.00
	mockAmountSpread = 50_000 // up to $500.00 on top
)

// MockExtractor simulates a document-intelligence call: it waits a fixed
// delay and proposes a vendor from a fixed list, a pseudo-random amount in
// [$50, $550] and today's date. Once the delay elapses it never fails.
type MockExtractor struct {
	delay time.Duration
	rand  *rand.Rand
	now   func() time.Time
}

// NewMockExtractor returns a mock with the production two-second delay.
func NewMockExtractor() *MockExtractor {
	return &MockExtractor{
		delay: mockDelay,
		rand:  rand.New(rand.NewSource(time.Now().UnixNano())),
		now:   time.Now,
	}
}

// NewMockExtractorWithDelay is used by tests to avoid the fixed wait.
func NewMockExtractorWithDelay(delay time.Duration) *MockExtractor {
	m := NewMockExtractor()
	m.delay = delay
	return m
}

var _ DocumentExtractor = (*MockExtractor)(nil)

// Extract waits the configured delay and returns synthetic fields. The wait
// honours context cancellation; a closed upload modal on the client side does
// not cancel the request, so in practice the delay always runs to completion.
func (m *MockExtractor) Extract(ctx context.Context, upload Upload) (Result, error) {
	timer := time.NewTimer(m.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case <-timer.C:
	}

	vendor := mockVendors[m.rand.Intn(len(mockVendors))]
	cents := mockMinCents + m.rand.Int63n(mockAmountSpread+1)
	today := m.now()

	res := Result{
		VendorName:  vendor,
		Amount:      core.Money{Cents: cents},
		InvoiceDate: core.NewDate(today.Year(), int(today.Month()), today.Day()),
	}

	slog.InfoContext(ctx, "Mock extraction completed",
		"filename", upload.Filename,
		"vendor_name", res.VendorName,
		"amount_cents", res.Amount.Cents)

	return res, nil
}
