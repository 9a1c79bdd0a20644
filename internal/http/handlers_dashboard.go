package http

import (
	"log/slog"
	"net/http"

	"smartinvoice/internal/core"
)

type pageData struct {
	Title  string
	Active string
	User   core.UserProfile
}

type statsData struct {
	TotalSpending  string
	ProcessedCount int
	PendingCount   int
	Trend          []trendBar
}

type trendBar struct {
	Month  string
	Amount string
	Width  int
}

type recentData struct {
	Items []invoiceRowData
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	// The catch-all route also receives unknown paths; send them home.
	if r.URL.Path != "/" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}

	s.render(w, r, "dashboard.html", pageData{
		Title:  "Dashboard",
		Active: "dashboard",
		User:   currentUser(r),
	})
}

// handleStats renders the spending summary partial. A data-layer failure
// degrades to zeroed stats rather than an error page.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	list, err := s.invoiceOps.ListInvoices(r.Context(), user.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "List invoices for stats failed",
			"user_id", user.ID, "error", err)
		list = nil
	}

	stats := core.ComputeStats(list)
	data := statsData{
		TotalSpending:  core.FormatDollars(stats.TotalSpending.Cents),
		ProcessedCount: stats.ProcessedCount,
		PendingCount:   stats.PendingCount,
	}

	trend := core.MonthlyTrend(stats.TotalSpending)
	var maxCents int64
	for _, m := range trend {
		if m.Amount.Cents > maxCents {
			maxCents = m.Amount.Cents
		}
	}
	for _, m := range trend {
		width := 0
		if maxCents > 0 && m.Amount.Cents > 0 {
			width = int((m.Amount.Cents*100 + maxCents/2) / maxCents)
			if width > 0 && width < 2 {
				width = 2
			}
			if width > 100 {
				width = 100
			}
		}
		data.Trend = append(data.Trend, trendBar{
			Month:  m.Month,
			Amount: core.FormatDollars(m.Amount.Cents),
			Width:  width,
		})
	}

	s.render(w, r, "stats.html", data)
}

// handleRecent renders the recent-activity partial, capped to the newest
// five invoices.
func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	list, err := s.invoiceOps.ListInvoices(r.Context(), user.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "List invoices for recent activity failed",
			"user_id", user.ID, "error", err)
		list = nil
	}

	stats := core.ComputeStats(list)
	data := recentData{}
	for _, inv := range stats.RecentActivity {
		data.Items = append(data.Items, invoiceRow(inv))
	}

	s.render(w, r, "recent.html", data)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	s.render(w, r, "settings.html", pageData{
		Title:  "Settings",
		Active: "settings",
		User:   currentUser(r),
	})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	s.render(w, r, "profile.html", pageData{
		Title:  "Profile",
		Active: "profile",
		User:   currentUser(r),
	})
}
