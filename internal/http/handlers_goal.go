package http

import (
	"net/http"

	"finbook/internal/core"
	"finbook/internal/services"
)

type goalRequest struct {
	Name     string `json:"name"`
	Target   string `json:"target"`
	Deadline string `json:"deadline"`
}

type goalProgressRequest struct {
	Amount string `json:"amount"`
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request, owner string) {
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	target, err := core.ParseMoney(req.Target)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	g := core.Goal{Owner: owner, Name: req.Name, Target: target}
	if req.Deadline != "" {
		deadline, err := core.ParseDate(req.Deadline)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		g.Deadline = deadline
	}

	stored, err := s.goals.Add(r.Context(), g)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request, owner string) {
	goals, err := s.goals.List(r.Context(), owner)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if goals == nil {
		goals = []services.GoalProgress{}
	}
	writeJSON(w, http.StatusOK, goals)
}

func (s *Server) handleGoalProgress(w http.ResponseWriter, r *http.Request, owner string) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req goalProgressRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	amount, err := core.ParseMoney(req.Amount)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	g, err := s.goals.AddProgress(r.Context(), owner, id, amount)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request, owner string) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.goals.Delete(r.Context(), owner, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
