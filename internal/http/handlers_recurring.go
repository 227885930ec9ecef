package http

import (
	"net/http"
	"time"

	"finbook/internal/core"
)

type recurringRequest struct {
	Kind        string `json:"kind"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Frequency   string `json:"frequency"`
	NextDate    string `json:"next_date"`
	Description string `json:"description"`
}

func (req recurringRequest) toRule(owner string) (core.RecurringRule, error) {
	kind, err := core.ParseKind(req.Kind)
	if err != nil {
		return core.RecurringRule{}, err
	}
	amount, err := core.ParseMoney(req.Amount)
	if err != nil {
		return core.RecurringRule{}, err
	}
	freq, err := core.ParseFrequency(req.Frequency)
	if err != nil {
		return core.RecurringRule{}, err
	}

	r := core.RecurringRule{
		Owner:       owner,
		Kind:        kind,
		Amount:      amount,
		Category:    req.Category,
		Frequency:   freq,
		Description: req.Description,
	}
	if req.NextDate != "" {
		next, err := core.ParseDate(req.NextDate)
		if err != nil {
			return core.RecurringRule{}, err
		}
		r.Next = next
	}
	return r, nil
}

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request, owner string) {
	var req recurringRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rule, err := req.toRule(owner)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	stored, err := s.recurring.Add(r.Context(), rule)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request, owner string) {
	rules, err := s.recurring.List(r.Context(), owner)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if rules == nil {
		rules = []core.RecurringRule{}
	}
	writeJSON(w, http.StatusOK, rules)
}

type applyDueResponse struct {
	Created []core.Transaction `json:"created"`
}

// handleApplyDue materializes every due occurrence up to today and
// advances the rules past them.
func (s *Server) handleApplyDue(w http.ResponseWriter, r *http.Request, owner string) {
	created, err := s.recurring.ApplyDue(r.Context(), owner, core.DateOf(time.Now()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if created == nil {
		created = []core.Transaction{}
	}
	if len(created) > 0 {
		s.invalidateDashboard(owner)
	}
	writeJSON(w, http.StatusOK, applyDueResponse{Created: created})
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request, owner string) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.recurring.Delete(r.Context(), owner, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
