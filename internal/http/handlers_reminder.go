package http

import (
	"net/http"
	"time"

	"finbook/internal/core"
)

type reminderRequest struct {
	Title   string `json:"title"`
	DueDate string `json:"due_date"`
	Notes   string `json:"notes"`
}

func (s *Server) handleCreateReminder(w http.ResponseWriter, r *http.Request, owner string) {
	var req reminderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	due, err := core.ParseDate(req.DueDate)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	rem := core.Reminder{Owner: owner, Title: req.Title, Due: due, Notes: req.Notes}
	stored, err := s.reminders.Add(r.Context(), rem)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

func (s *Server) handleListReminders(w http.ResponseWriter, r *http.Request, owner string) {
	reminders, err := s.reminders.List(r.Context(), owner)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if reminders == nil {
		reminders = []core.Reminder{}
	}
	writeJSON(w, http.StatusOK, reminders)
}

func (s *Server) handleDueSoon(w http.ResponseWriter, r *http.Request, owner string) {
	reminders, err := s.reminders.DueSoon(r.Context(), owner, core.DateOf(time.Now()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if reminders == nil {
		reminders = []core.Reminder{}
	}
	writeJSON(w, http.StatusOK, reminders)
}

func (s *Server) handleDeleteReminder(w http.ResponseWriter, r *http.Request, owner string) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.reminders.Delete(r.Context(), owner, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
