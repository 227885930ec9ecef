package http

import (
	"log/slog"
	"net/http"
	"time"

	"finbook/internal/core"
	"finbook/internal/report"
)

const defaultTrendMonths = 6

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, owner string) {
	if d, ok := s.dashCache.Get(owner); ok {
		slog.DebugContext(r.Context(), "Dashboard cache hit", "owner", owner)
		writeJSON(w, http.StatusOK, d)
		return
	}

	txns, err := s.txns.List(r.Context(), owner)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	d := report.BuildDashboard(txns, time.Now())
	s.dashCache.Set(owner, d)
	writeJSON(w, http.StatusOK, d)
}

type monthlyReport struct {
	Year    int                `json:"year"`
	Month   int                `json:"month"`
	Summary report.Summary     `json:"summary"`
	Items   []core.Transaction `json:"items"`
}

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request, owner string) {
	txns, err := s.txns.List(r.Context(), owner)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	year, month := yearMonthParams(r)
	items := report.InMonth(txns, year, month)
	if items == nil {
		items = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, monthlyReport{
		Year:    year,
		Month:   month,
		Summary: report.Totals(items),
		Items:   items,
	})
}

type categoryReport struct {
	TotalExpense core.Money             `json:"total_expense"`
	Categories   []report.CategoryTotal `json:"categories"`
}

// handleCategoryReport breaks expenses down per category, largest
// first. Without year/month parameters it covers all time.
func (s *Server) handleCategoryReport(w http.ResponseWriter, r *http.Request, owner string) {
	txns, err := s.txns.List(r.Context(), owner)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	q := r.URL.Query()
	if q.Get("year") != "" || q.Get("month") != "" {
		year, month := yearMonthParams(r)
		txns = report.InMonth(txns, year, month)
	}

	cats := report.CategoryTotals(txns)
	if cats == nil {
		cats = []report.CategoryTotal{}
	}
	writeJSON(w, http.StatusOK, categoryReport{
		TotalExpense: report.Totals(txns).Expense,
		Categories:   cats,
	})
}

type trendReport struct {
	Months int                 `json:"months"`
	Points []report.TrendPoint `json:"points"`
}

func (s *Server) handleTrendReport(w http.ResponseWriter, r *http.Request, owner string) {
	txns, err := s.txns.List(r.Context(), owner)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	months := intParam(r, "months", defaultTrendMonths)
	points := report.Trend(txns, months)
	if points == nil {
		points = []report.TrendPoint{}
	}
	writeJSON(w, http.StatusOK, trendReport{Months: months, Points: points})
}
