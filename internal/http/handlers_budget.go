package http

import (
	"net/http"
	"strings"

	"finbook/internal/core"
	"finbook/internal/services"
)

type budgetRequest struct {
	Category string `json:"category"`
	Month    string `json:"month"`
	Limit    string `json:"limit"`
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request, owner string) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit, err := core.ParseMoney(req.Limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	b := core.Budget{
		Owner:    owner,
		Category: req.Category,
		Month:    strings.TrimSpace(req.Month),
		Limit:    limit,
	}
	if err := s.budgets.Set(r.Context(), b); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type budgetProgressResponse struct {
	Month   string                    `json:"month"`
	Budgets []services.BudgetProgress `json:"budgets"`
}

func (s *Server) handleBudgetProgress(w http.ResponseWriter, r *http.Request, owner string) {
	month, err := monthParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := s.budgets.Progress(r.Context(), owner, month)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if rows == nil {
		rows = []services.BudgetProgress{}
	}
	writeJSON(w, http.StatusOK, budgetProgressResponse{Month: month, Budgets: rows})
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request, owner string) {
	month, err := monthParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	if category == "" {
		writeError(w, http.StatusBadRequest, "category query parameter is required")
		return
	}

	if err := s.budgets.Delete(r.Context(), owner, category, month); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
