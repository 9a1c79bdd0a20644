package core

// DashboardStats are the aggregates derived from the loaded invoice list.
// They are computed per render and never stored.
type DashboardStats struct {
	TotalSpending  Money
	ProcessedCount int
	PendingCount   int
	RecentActivity []Invoice
}

// MonthlySpending is one bucket of the dashboard trend chart.
type MonthlySpending struct {
	Month  string
	Amount Money
}

const recentActivityLimit = 5

// trendPlaceholderCents is shown in the latest bucket when no spending
// has been recorded yet.
const trendPlaceholderCents = 150_000

// ComputeStats derives dashboard aggregates from an invoice list.
// Works for the empty list (all zeroes, no recent activity).
func ComputeStats(invoices []Invoice) DashboardStats {
	stats := DashboardStats{}
	for _, inv := range invoices {
		stats.TotalSpending.Cents += inv.Amount.Cents
		if inv.Status == StatusPending {
			stats.PendingCount++
		}
	}
	stats.ProcessedCount = len(invoices)
	n := len(invoices)
	if n > recentActivityLimit {
		n = recentActivityLimit
	}
	stats.RecentActivity = append([]Invoice(nil), invoices[:n]...)
	return stats
}

// MonthlyTrend returns the five-point series rendered by the dashboard
// chart. The first four buckets are fixed; the latest is replaced by the
// current total, or a placeholder when nothing has been spent yet.
func MonthlyTrend(total Money) []MonthlySpending {
	latest := total
	if latest.Cents == 0 {
		latest = Money{Cents: trendPlaceholderCents}
	}
	return []MonthlySpending{
		{Month: "Jan", Amount: Money{Cents: 450_000}},
		{Month: "Feb", Amount: Money{Cents: 320_000}},
		{Month: "Mar", Amount: Money{Cents: 510_000}},
		{Month: "Apr", Amount: Money{Cents: 420_000}},
		{Month: "May", Amount: latest},
	}
}
