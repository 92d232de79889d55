package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/xBwomp/famCalendar/internal/store"
)

// EventHandler serves the local event mirror for the dashboard views.
type EventHandler struct {
	events store.EventRepository
}

func NewEventHandler(events store.EventRepository) *EventHandler {
	return &EventHandler{events: events}
}

// List returns events of selected calendars. With calendar_id it returns
// that calendar's events; with start_date/end_date it returns the range;
// with no parameters it returns today's events.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	calendarID := q.Get("calendar_id")
	start := q.Get("start_date")
	end := q.Get("end_date")

	var events []store.Event
	var err error
	switch {
	case start != "" || end != "":
		if start == "" || end == "" {
			Error(w, http.StatusBadRequest, "start_date and end_date must be provided together")
			return
		}
		events, err = h.events.ListByRange(r.Context(), start, end, calendarID)
	case calendarID != "":
		events, err = h.events.ListByCalendar(r.Context(), calendarID)
	default:
		events, err = h.events.ListToday(r.Context())
	}
	if err != nil {
		InternalError(w, r, err, "failed to list events")
		return
	}

	if raw := q.Get("limit"); raw != "" {
		n, convErr := strconv.Atoi(raw)
		if convErr != nil || n < 1 {
			Error(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if n < len(events) {
			events = events[:n]
		}
	}
	Respond(w, http.StatusOK, events)
}

// Today returns events of selected calendars overlapping the local day.
func (h *EventHandler) Today(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.ListToday(r.Context())
	if err != nil {
		InternalError(w, r, err, "failed to list today's events")
		return
	}
	Respond(w, http.StatusOK, events)
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	event, err := h.events.GetByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		Error(w, http.StatusNotFound, "event not found")
		return
	}
	if err != nil {
		InternalError(w, r, err, "failed to load event")
		return
	}
	Respond(w, http.StatusOK, event)
}

// ListByCalendar returns one calendar's stored events.
func (h *EventHandler) ListByCalendar(w http.ResponseWriter, r *http.Request) {
	calendarID := chi.URLParam(r, "id")

	events, err := h.events.ListByCalendar(r.Context(), calendarID)
	if err != nil {
		InternalError(w, r, err, "failed to list calendar events")
		return
	}
	Respond(w, http.StatusOK, events)
}

type createEventRequest struct {
	ID          string  `json:"id"`
	CalendarID  string  `json:"calendar_id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	AllDay      bool    `json:"all_day"`
	Location    *string `json:"location"`
}

// Create adds a manual local event to an existing calendar.
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.ID = strings.TrimSpace(req.ID)
	req.Title = strings.TrimSpace(req.Title)
	if req.ID == "" || req.CalendarID == "" || req.Title == "" {
		Error(w, http.StatusBadRequest, "id, calendar_id and title are required")
		return
	}
	if req.StartTime == "" || req.EndTime == "" {
		Error(w, http.StatusBadRequest, "start_time and end_time are required")
		return
	}

	event, err := h.events.Create(r.Context(), store.Event{
		ID:          req.ID,
		CalendarID:  req.CalendarID,
		Title:       req.Title,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		AllDay:      req.AllDay,
		Location:    req.Location,
	})
	if err != nil {
		InternalError(w, r, err, "failed to create event")
		return
	}
	Respond(w, http.StatusCreated, event)
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.events.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			Error(w, http.StatusNotFound, "event not found")
			return
		}
		InternalError(w, r, err, "failed to delete event")
		return
	}
	RespondMessage(w, http.StatusOK, nil, "Event deleted")
}
