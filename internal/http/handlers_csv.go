package http

import (
	"net/http"

	"finbook/internal/csvio"
)

func (s *Server) handleExportTransactions(w http.ResponseWriter, r *http.Request, owner string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
	if err := csvio.ExportTransactions(r.Context(), s.store, owner, w); err != nil {
		// Headers may already be out; log and cut the stream.
		logInternalError(r, err)
	}
}

func (s *Server) handleExportUsers(w http.ResponseWriter, r *http.Request, owner string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="users.csv"`)
	if err := csvio.ExportUsers(r.Context(), s.store, w); err != nil {
		logInternalError(r, err)
	}
}

// handleImportTransactions reads a CSV body and inserts the parseable
// rows under the authenticated owner. Bad rows are skipped, not fatal.
func (s *Server) handleImportTransactions(w http.ResponseWriter, r *http.Request, owner string) {
	body := http.MaxBytesReader(w, r.Body, maxImportBytes)
	defer body.Close()

	result, err := csvio.ImportTransactions(r.Context(), s.store, owner, body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if result.Imported > 0 {
		s.invalidateDashboard(owner)
	}
	writeJSON(w, http.StatusOK, result)
}

const maxImportBytes = 10 << 20
