package http

import (
	"net/http"

	"finbook/internal/core"
	"finbook/internal/report"
)

type transactionRequest struct {
	Kind        string `json:"kind"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

// toTransaction parses the request into a domain record. Category may
// be blank (the service substitutes the Uncategorized sentinel); date
// defaults stay with the caller.
func (req transactionRequest) toTransaction(owner string) (core.Transaction, error) {
	kind, err := core.ParseKind(req.Kind)
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := core.ParseMoney(req.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		Owner:       owner,
		Kind:        kind,
		Amount:      amount,
		Category:    req.Category,
		Date:        date,
		Description: req.Description,
	}, nil
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request, owner string) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	t, err := req.toTransaction(owner)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	stored, err := s.txns.Add(r.Context(), t)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.invalidateDashboard(owner)
	writeJSON(w, http.StatusCreated, stored)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request, owner string) {
	txns, err := s.txns.List(r.Context(), owner)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if txns == nil {
		txns = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, txns)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request, owner string) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	t, err := s.txns.Get(r.Context(), owner, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request, owner string) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	t, err := req.toTransaction(owner)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	t.ID = id

	updated, err := s.txns.Update(r.Context(), t)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.invalidateDashboard(owner)
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request, owner string) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.txns.Delete(r.Context(), owner, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.invalidateDashboard(owner)
	w.WriteHeader(http.StatusNoContent)
}

type searchResponse struct {
	Matches  []core.Transaction `json:"matches"`
	Warnings []string           `json:"warnings,omitempty"`
}

// handleSearchTransactions filters the owner's transactions. Invalid
// filter clauses are ignored and reported as warnings, never as
// errors.
func (s *Server) handleSearchTransactions(w http.ResponseWriter, r *http.Request, owner string) {
	txns, err := s.txns.List(r.Context(), owner)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	q := r.URL.Query()
	filter := report.Filter{
		Start:     q.Get("start"),
		End:       q.Get("end"),
		Category:  q.Get("category"),
		MinAmount: q.Get("min_amount"),
		MaxAmount: q.Get("max_amount"),
		SortBy:    q.Get("sort_by"),
		Order:     q.Get("order"),
	}

	matches, warnings := report.Search(txns, filter)
	if matches == nil {
		matches = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Matches: matches, Warnings: warnings})
}
