package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xBwomp/famCalendar/internal/store"
)

type fakeCalendars struct {
	store.CalendarRepository

	calendars map[string]*store.Calendar
}

func newFakeCalendars(cals ...store.Calendar) *fakeCalendars {
	f := &fakeCalendars{calendars: map[string]*store.Calendar{}}
	for i := range cals {
		cal := cals[i]
		f.calendars[cal.ID] = &cal
	}
	return f
}

func (f *fakeCalendars) List(ctx context.Context) ([]store.Calendar, error) {
	var out []store.Calendar
	for _, cal := range f.calendars {
		out = append(out, *cal)
	}
	return out, nil
}

func (f *fakeCalendars) GetByID(ctx context.Context, id string) (*store.Calendar, error) {
	cal, ok := f.calendars[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cal, nil
}

func (f *fakeCalendars) ToggleSelected(ctx context.Context, id string) error {
	cal, ok := f.calendars[id]
	if !ok {
		return store.ErrNotFound
	}
	cal.Selected = !cal.Selected
	return nil
}

type fakeEvents struct {
	store.EventRepository

	today   []store.Event
	inRange []store.Event
}

func (f *fakeEvents) ListToday(ctx context.Context) ([]store.Event, error) {
	return f.today, nil
}

func (f *fakeEvents) ListByRange(ctx context.Context, start, end, calendarID string) ([]store.Event, error) {
	return f.inRange, nil
}

type memSettings struct {
	store.SettingsRepository

	values map[string]string
}

func (m *memSettings) GetMany(ctx context.Context, keys []string) (map[string]string, error) {
	out := make(map[string]string)
	for _, k := range keys {
		if v, ok := m.values[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *memSettings) SetMany(ctx context.Context, values map[string]string) (int, error) {
	for k, v := range values {
		m.values[k] = v
	}
	return len(values), nil
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

func routedRequest(method, path, routePattern string, handler http.HandlerFunc) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.MethodFunc(method, routePattern, handler)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestToggleCalendarFlipsSelection(t *testing.T) {
	cals := newFakeCalendars(store.Calendar{ID: "cal-1", Name: "Family", Selected: false})
	h := NewCalendarHandler(cals)

	rec := routedRequest(http.MethodPut, "/api/calendars/cal-1/toggle", "/api/calendars/{id}/toggle", h.ToggleSelected)

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
	assert.True(t, cals.calendars["cal-1"].Selected)
}

func TestToggleCalendarNotFound(t *testing.T) {
	h := NewCalendarHandler(newFakeCalendars())

	rec := routedRequest(http.MethodPut, "/api/calendars/ghost/toggle", "/api/calendars/{id}/toggle", h.ToggleSelected)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
	assert.Equal(t, "calendar not found", env.Error)
}

func TestCreateCalendarValidation(t *testing.T) {
	h := NewCalendarHandler(newFakeCalendars())

	req := httptest.NewRequest(http.MethodPost, "/api/calendars", strings.NewReader(`{"name":"No ID"}`))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "required")
}

func TestListEventsDefaultsToToday(t *testing.T) {
	events := &fakeEvents{today: []store.Event{{ID: "ev-1", Title: "Soccer"}}}
	h := NewEventHandler(events)

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	require.True(t, env.Success)
	data, ok := env.Data.([]any)
	require.True(t, ok)
	assert.Len(t, data, 1)
}

func TestListEventsRejectsHalfOpenRange(t *testing.T) {
	h := NewEventHandler(&fakeEvents{})

	req := httptest.NewRequest(http.MethodGet, "/api/events?start_date=2026-09-01T00:00:00Z", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListEventsAppliesLimit(t *testing.T) {
	events := &fakeEvents{inRange: []store.Event{{ID: "a"}, {ID: "b"}, {ID: "c"}}}
	h := NewEventHandler(events)

	start := time.Now().Format(time.RFC3339)
	end := time.Now().Add(24 * time.Hour).Format(time.RFC3339)
	req := httptest.NewRequest(http.MethodGet, "/api/events?start_date="+start+"&end_date="+end+"&limit=2", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	env := decodeEnvelope(t, rec)
	data, ok := env.Data.([]any)
	require.True(t, ok)
	assert.Len(t, data, 2)
}

func TestDisplayPreferencesDefaults(t *testing.T) {
	h := NewAdminHandler(&memSettings{values: map[string]string{}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/display-preferences", nil)
	rec := httptest.NewRecorder()
	h.DisplayPreferences(rec, req)

	env := decodeEnvelope(t, rec)
	require.True(t, env.Success)
	prefs, ok := env.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "week", prefs["defaultView"])
	assert.Equal(t, float64(7), prefs["daysToShow"])
	assert.Equal(t, float64(7), prefs["startHour"])
	assert.Equal(t, float64(20), prefs["endHour"])
	assert.Equal(t, true, prefs["showWeekends"])
}

func TestDisplayPreferencesMergeStoredValues(t *testing.T) {
	settings := &memSettings{values: map[string]string{
		keyDefaultView:  "day",
		keyShowWeekends: "false",
	}}
	h := NewAdminHandler(settings, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/display-preferences", nil)
	rec := httptest.NewRecorder()
	h.DisplayPreferences(rec, req)

	env := decodeEnvelope(t, rec)
	prefs := env.Data.(map[string]any)
	assert.Equal(t, "day", prefs["defaultView"])
	assert.Equal(t, false, prefs["showWeekends"])
	assert.Equal(t, float64(7), prefs["daysToShow"])
}

func TestUpdateDisplayPreferencesValidation(t *testing.T) {
	h := NewAdminHandler(&memSettings{values: map[string]string{}}, nil)

	body := `{"defaultView":"year","daysToShow":7,"startHour":7,"endHour":20,"showWeekends":true}`
	req := httptest.NewRequest(http.MethodPut, "/api/admin/display-preferences", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.UpdateDisplayPreferences(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateSettingsRejectsProtectedKeys(t *testing.T) {
	settings := &memSettings{values: map[string]string{}}
	h := NewAdminHandler(settings, nil)

	for _, key := range []string{"google_access_token", "app_secret", "admin_user_id"} {
		body := `{"` + key + `":"x"}`
		req := httptest.NewRequest(http.MethodPut, "/api/admin/settings", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.UpdateSettings(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, key)
		assert.Empty(t, settings.values)
	}
}
