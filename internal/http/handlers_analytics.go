package http

import (
	"net/http"

	"finbook/internal/analytics"
	"finbook/internal/report"
)

// handlePrediction extrapolates next month's net from the owner's
// monthly history. Too little history is a 422, not a 500.
func (s *Server) handlePrediction(w http.ResponseWriter, r *http.Request, owner string) {
	txns, err := s.txns.List(r.Context(), owner)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	p, err := analytics.PredictNextNet(report.MonthBuckets(txns))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleHealthScore(w http.ResponseWriter, r *http.Request, owner string) {
	txns, err := s.txns.List(r.Context(), owner)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h, err := analytics.HealthScore(report.MonthBuckets(txns))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}
