package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/xBwomp/famCalendar/internal/store"
)

// CalendarHandler serves the local calendar mirror.
type CalendarHandler struct {
	calendars store.CalendarRepository
}

func NewCalendarHandler(calendars store.CalendarRepository) *CalendarHandler {
	return &CalendarHandler{calendars: calendars}
}

func (h *CalendarHandler) List(w http.ResponseWriter, r *http.Request) {
	cals, err := h.calendars.List(r.Context())
	if err != nil {
		InternalError(w, r, err, "failed to list calendars")
		return
	}
	Respond(w, http.StatusOK, cals)
}

func (h *CalendarHandler) ListSelected(w http.ResponseWriter, r *http.Request) {
	cals, err := h.calendars.ListSelected(r.Context())
	if err != nil {
		InternalError(w, r, err, "failed to list selected calendars")
		return
	}
	Respond(w, http.StatusOK, cals)
}

func (h *CalendarHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	cal, err := h.calendars.GetByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		Error(w, http.StatusNotFound, "calendar not found")
		return
	}
	if err != nil {
		InternalError(w, r, err, "failed to load calendar")
		return
	}
	Respond(w, http.StatusOK, cal)
}

type createCalendarRequest struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Color       string  `json:"color"`
	Selected    bool    `json:"selected"`
}

// Create adds a manual local calendar, for households that track things
// outside Google.
func (h *CalendarHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCalendarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.ID = strings.TrimSpace(req.ID)
	req.Name = strings.TrimSpace(req.Name)
	if req.ID == "" || req.Name == "" {
		Error(w, http.StatusBadRequest, "id and name are required")
		return
	}
	if req.Color == "" {
		req.Color = "#3B82F6"
	}

	cal, err := h.calendars.Create(r.Context(), store.Calendar{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		Selected:    req.Selected,
	})
	if err != nil {
		InternalError(w, r, err, "failed to create calendar")
		return
	}
	Respond(w, http.StatusCreated, cal)
}

// ToggleSelected flips a calendar's inclusion in event sync and dashboard
// views.
func (h *CalendarHandler) ToggleSelected(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.calendars.ToggleSelected(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			Error(w, http.StatusNotFound, "calendar not found")
			return
		}
		InternalError(w, r, err, "failed to toggle calendar")
		return
	}

	cal, err := h.calendars.GetByID(r.Context(), id)
	if err != nil {
		InternalError(w, r, err, "failed to load calendar")
		return
	}
	Respond(w, http.StatusOK, cal)
}

// Delete removes a calendar and, via the schema's cascade, its events.
func (h *CalendarHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.calendars.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			Error(w, http.StatusNotFound, "calendar not found")
			return
		}
		InternalError(w, r, err, "failed to delete calendar")
		return
	}
	RespondMessage(w, http.StatusOK, nil, "Calendar deleted")
}
