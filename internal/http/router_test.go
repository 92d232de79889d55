package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xBwomp/famCalendar/internal/api"
	"github.com/xBwomp/famCalendar/internal/auth"
	"github.com/xBwomp/famCalendar/internal/config"
	"github.com/xBwomp/famCalendar/internal/credentials"
	"github.com/xBwomp/famCalendar/internal/crypto"
	"github.com/xBwomp/famCalendar/internal/google"
	"github.com/xBwomp/famCalendar/internal/store"
	syncsvc "github.com/xBwomp/famCalendar/internal/sync"
)

type memSettings struct {
	store.SettingsRepository

	values map[string]string
}

func (m *memSettings) Get(ctx context.Context, key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", store.ErrNotFound
	}
	return v, nil
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

type fakeCalendars struct {
	store.CalendarRepository
}

func (f *fakeCalendars) List(ctx context.Context) ([]store.Calendar, error) {
	return []store.Calendar{{ID: "cal-1", Name: "Family", Selected: true}}, nil
}

type fakeEvents struct {
	store.EventRepository
}

func (f *fakeEvents) ListToday(ctx context.Context) ([]store.Event, error) {
	return nil, nil
}

func testRouter(t *testing.T) http.Handler {
	t.Helper()

	cfg := &config.Config{}
	cfg.BaseURL = "http://localhost:3001"
	cfg.Env = "test"
	cfg.Session.Secret = "0123456789abcdef0123456789abcdef"
	cfg.Google.ClientID = "client-id"
	cfg.Google.ClientSecret = "client-secret"
	cfg.Google.RedirectURL = "http://localhost:3001/auth/google/callback"

	cipher, err := crypto.New("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)

	st := &store.Store{
		Settings:  &memSettings{values: map[string]string{}},
		Calendars: &fakeCalendars{},
		Events:    &fakeEvents{},
	}
	creds := credentials.NewStore(st.Settings, cipher)
	googleClient := google.NewClient(cfg, creds)
	monitor := credentials.NewMonitor(creds, googleClient, time.Minute)
	syncService := syncsvc.NewService(googleClient, monitor, creds, st)

	sessions := auth.NewSessionManager(cfg)
	authService := auth.NewService(cfg, creds, googleClient, monitor, sessions)

	handlers := Handlers{
		Sync:      api.NewSyncHandler(syncService, googleClient, st.SyncLog, false),
		Calendars: api.NewCalendarHandler(st.Calendars),
		Events:    api.NewEventHandler(st.Events),
		Admin:     api.NewAdminHandler(st.Settings, creds),
		Seed:      api.NewSeedHandler(st.Calendars, st.Events),
	}
	return NewRouter(cfg, st, authService, handlers)
}

func TestHealthEndpoint(t *testing.T) {
	r := testRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)
}

func TestCalendarListIsPublic(t *testing.T) {
	r := testRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/calendars", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Family")
}

func TestAuthStatusUnauthenticated(t *testing.T) {
	r := testRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/status", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"authenticated":false`)
}

func TestSyncRequiresSession(t *testing.T) {
	r := testRouter(t)

	for _, path := range []string{"/api/sync/full", "/api/sync/calendars", "/api/sync/events"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestAdminSettingsRequireSession(t *testing.T) {
	r := testRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/settings", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUnknownAPIRouteReturnsJSON404(t *testing.T) {
	r := testRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
}
