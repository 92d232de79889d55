package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/xBwomp/famCalendar/internal/google"
	"github.com/xBwomp/famCalendar/internal/store"
	syncsvc "github.com/xBwomp/famCalendar/internal/sync"
)

// Connectivity is the slice of the Google client the sync endpoints need
// for the test-connection probe.
type Connectivity interface {
	TestConnection(ctx context.Context) *google.ConnectionStatus
}

// SyncHandler exposes the sync orchestrator over REST.
type SyncHandler struct {
	svc        *syncsvc.Service
	remote     Connectivity
	syncLog    store.SyncLogRepository
	production bool
}

func NewSyncHandler(svc *syncsvc.Service, remote Connectivity, syncLog store.SyncLogRepository, production bool) *SyncHandler {
	return &SyncHandler{svc: svc, remote: remote, syncLog: syncLog, production: production}
}

// TestConnection probes the Google API with the current credentials.
// Expected failures (no credentials, auth errors) come back as HTTP 200
// with success=false so the admin UI can show the message inline.
func (h *SyncHandler) TestConnection(w http.ResponseWriter, r *http.Request) {
	status := h.remote.TestConnection(r.Context())
	if !status.Success {
		writeJSON(w, http.StatusOK, Envelope{Success: false, Message: status.Message})
		return
	}
	Respond(w, http.StatusOK, status)
}

func (h *SyncHandler) SyncCalendars(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.SyncCalendarList(r.Context())
	if err != nil {
		h.syncError(w, r, err, "calendar sync failed")
		return
	}
	Respond(w, http.StatusOK, res)
}

func (h *SyncHandler) SyncEvents(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.SyncSelectedEvents(r.Context())
	if err != nil {
		h.syncError(w, r, err, "event sync failed")
		return
	}
	h.respondEvents(w, res)
}

func (h *SyncHandler) SyncFull(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.FullSync(r.Context())
	if err != nil {
		h.syncError(w, r, err, "full sync failed")
		return
	}
	Respond(w, http.StatusOK, res)
}

// Logs returns the most recent sync log rows, newest first.
func (h *SyncHandler) Logs(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			Error(w, http.StatusBadRequest, "limit must be an integer between 1 and 100")
			return
		}
		limit = n
	}

	logs, err := h.syncLog.Recent(r.Context(), limit)
	if err != nil {
		InternalError(w, r, err, "failed to load sync logs")
		return
	}
	Respond(w, http.StatusOK, logs)
}

// respondEvents maps the advisory no-selection outcome to success=false
// with a message, per the admin UI contract. Partial per-calendar failures
// stay success=true with the errors carried in data.
func (h *SyncHandler) respondEvents(w http.ResponseWriter, res *syncsvc.EventResult) {
	if res.Calendars == 0 && len(res.Errors) > 0 {
		writeJSON(w, http.StatusOK, Envelope{Success: false, Data: res, Message: res.Errors[0]})
		return
	}
	Respond(w, http.StatusOK, res)
}

func (h *SyncHandler) syncError(w http.ResponseWriter, r *http.Request, err error, message string) {
	switch {
	case errors.Is(err, syncsvc.ErrNotReady):
		writeJSON(w, http.StatusOK, Envelope{
			Success: false,
			Message: "Google credentials not yet available. Please authenticate first.",
		})
	case errors.Is(err, syncsvc.ErrSyncInProgress):
		writeJSON(w, http.StatusConflict, Envelope{
			Success: false,
			Message: "A sync is already in progress.",
		})
	default:
		if h.production {
			InternalError(w, r, err, message)
			return
		}
		// Outside production the underlying error helps local debugging.
		LogError(r, message, err)
		Error(w, http.StatusInternalServerError, message+": "+err.Error())
	}
}
