package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/xBwomp/famCalendar/internal/credentials"
	"github.com/xBwomp/famCalendar/internal/store"
)

// Display preference setting keys.
const (
	keyDefaultView  = "display_default_view"
	keyDaysToShow   = "display_days_to_show"
	keyStartHour    = "display_start_hour"
	keyEndHour      = "display_end_hour"
	keyShowWeekends = "display_show_weekends"
)

// DisplayPreferences drive the dashboard layout. Absent settings fall back
// to the defaults below.
type DisplayPreferences struct {
	DefaultView  string `json:"defaultView"`
	DaysToShow   int    `json:"daysToShow"`
	StartHour    int    `json:"startHour"`
	EndHour      int    `json:"endHour"`
	ShowWeekends bool   `json:"showWeekends"`
}

func defaultDisplayPreferences() DisplayPreferences {
	return DisplayPreferences{
		DefaultView:  "week",
		DaysToShow:   7,
		StartHour:    7,
		EndHour:      20,
		ShowWeekends: true,
	}
}

// AdminHandler serves settings and display preferences. Token values never
// pass through this handler: reads are filtered and writes rejected.
type AdminHandler struct {
	settings store.SettingsRepository
	creds    *credentials.Store
}

func NewAdminHandler(settings store.SettingsRepository, creds *credentials.Store) *AdminHandler {
	return &AdminHandler{settings: settings, creds: creds}
}

// Settings returns all non-secret settings.
func (h *AdminHandler) Settings(w http.ResponseWriter, r *http.Request) {
	values, err := h.settings.AllPublic(r.Context())
	if err != nil {
		InternalError(w, r, err, "failed to load settings")
		return
	}
	Respond(w, http.StatusOK, values)
}

// UpdateSettings upserts the posted key/value pairs. Token, secret, and
// admin identity keys are owned by the auth flow and cannot be set here.
func (h *AdminHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var values map[string]string
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(values) == 0 {
		Error(w, http.StatusBadRequest, "no settings provided")
		return
	}
	for key := range values {
		if key == "" || isProtectedKey(key) {
			Error(w, http.StatusBadRequest, "setting key not allowed: "+key)
			return
		}
	}

	updated, err := h.settings.SetMany(r.Context(), values)
	if err != nil {
		InternalError(w, r, err, "failed to update settings")
		return
	}
	RespondMessage(w, http.StatusOK, map[string]int{"updated": updated}, "Settings updated")
}

func isProtectedKey(key string) bool {
	lower := strings.ToLower(key)
	return strings.Contains(lower, "token") ||
		strings.Contains(lower, "secret") ||
		strings.HasPrefix(lower, "admin_user")
}

// DisplayPreferences returns the stored dashboard preferences merged over
// the defaults.
func (h *AdminHandler) DisplayPreferences(w http.ResponseWriter, r *http.Request) {
	stored, err := h.settings.GetMany(r.Context(), []string{
		keyDefaultView, keyDaysToShow, keyStartHour, keyEndHour, keyShowWeekends,
	})
	if err != nil {
		InternalError(w, r, err, "failed to load display preferences")
		return
	}

	prefs := defaultDisplayPreferences()
	if v := stored[keyDefaultView]; v != "" {
		prefs.DefaultView = v
	}
	if n, err := strconv.Atoi(stored[keyDaysToShow]); err == nil {
		prefs.DaysToShow = n
	}
	if n, err := strconv.Atoi(stored[keyStartHour]); err == nil {
		prefs.StartHour = n
	}
	if n, err := strconv.Atoi(stored[keyEndHour]); err == nil {
		prefs.EndHour = n
	}
	if v, err := strconv.ParseBool(stored[keyShowWeekends]); stored[keyShowWeekends] != "" && err == nil {
		prefs.ShowWeekends = v
	}
	Respond(w, http.StatusOK, prefs)
}

// UpdateDisplayPreferences validates and persists the full preference set.
func (h *AdminHandler) UpdateDisplayPreferences(w http.ResponseWriter, r *http.Request) {
	var prefs DisplayPreferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if prefs.DefaultView != "day" && prefs.DefaultView != "week" && prefs.DefaultView != "month" {
		Error(w, http.StatusBadRequest, "defaultView must be day, week or month")
		return
	}
	if prefs.DaysToShow < 1 || prefs.DaysToShow > 31 {
		Error(w, http.StatusBadRequest, "daysToShow must be between 1 and 31")
		return
	}
	if prefs.StartHour < 0 || prefs.EndHour > 24 || prefs.StartHour >= prefs.EndHour {
		Error(w, http.StatusBadRequest, "startHour and endHour must form a valid range")
		return
	}

	_, err := h.settings.SetMany(r.Context(), map[string]string{
		keyDefaultView:  prefs.DefaultView,
		keyDaysToShow:   strconv.Itoa(prefs.DaysToShow),
		keyStartHour:    strconv.Itoa(prefs.StartHour),
		keyEndHour:      strconv.Itoa(prefs.EndHour),
		keyShowWeekends: strconv.FormatBool(prefs.ShowWeekends),
	})
	if err != nil {
		InternalError(w, r, err, "failed to save display preferences")
		return
	}
	RespondMessage(w, http.StatusOK, prefs, "Display preferences saved")
}

// LastSyncTime returns the timestamp of the last successful sync, or a 404
// envelope when no sync has completed yet.
func (h *AdminHandler) LastSyncTime(w http.ResponseWriter, r *http.Request) {
	value, err := h.creds.Get(r.Context(), credentials.KeyLastSyncTime)
	if errors.Is(err, store.ErrNotFound) {
		Error(w, http.StatusNotFound, "no sync has completed yet")
		return
	}
	if err != nil {
		InternalError(w, r, err, "failed to load last sync time")
		return
	}
	Respond(w, http.StatusOK, map[string]string{"lastSyncTime": value})
}
