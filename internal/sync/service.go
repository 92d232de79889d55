// Package sync reconciles the local calendar and event mirror against the
// remote Google source. All writes go through the repository layer; the
// remote side is reached only through the RemoteClient interface.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/xBwomp/famCalendar/internal/credentials"
	"github.com/xBwomp/famCalendar/internal/metrics"
	"github.com/xBwomp/famCalendar/internal/store"
)

// ErrSyncInProgress is returned when a sync is requested while another
// sync is still running. Syncs are serialized per process.
var ErrSyncInProgress = errors.New("sync: a sync is already in progress")

// ErrNotReady is returned when the bounded wait for Google credentials
// elapses before activation.
var ErrNotReady = errors.New("sync: google credentials not ready")

// readyWait bounds how long a sync call blocks waiting for credentials.
// An admin-triggered sync right after login should succeed; a sync on a
// never-authenticated instance should fail promptly instead of hanging.
const readyWait = 10 * time.Second

// RemoteClient is the slice of the Google client the orchestrator needs.
type RemoteClient interface {
	FetchCalendarList(ctx context.Context) ([]store.Calendar, error)
	FetchEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]store.Event, error)
}

// ReadyGate blocks until credentials have been activated or ctx expires.
// Satisfied by *credentials.Monitor.
type ReadyGate interface {
	AwaitReady(ctx context.Context) error
}

// CalendarResult reports a calendar-list reconciliation.
type CalendarResult struct {
	Imported int `json:"imported"`
	Updated  int `json:"updated"`
	Total    int `json:"total"`
}

// EventResult reports a selected-calendar event sync. A failing calendar
// contributes a message to Errors without aborting the others.
type EventResult struct {
	Calendars int      `json:"calendars"`
	Events    int      `json:"events"`
	Errors    []string `json:"errors,omitempty"`
}

// FullResult combines both phases of a full sync.
type FullResult struct {
	Calendars CalendarResult `json:"calendars"`
	Events    EventResult    `json:"events"`
}

type Service struct {
	remote RemoteClient
	gate   ReadyGate
	creds  *credentials.Store

	calendars store.CalendarRepository
	events    store.EventRepository
	syncLog   store.SyncLogRepository

	// Guards against overlapping syncs. TryLock keeps callers non-blocking.
	inFlight sync.Mutex
}

func NewService(remote RemoteClient, gate ReadyGate, creds *credentials.Store, st *store.Store) *Service {
	return &Service{
		remote:    remote,
		gate:      gate,
		creds:     creds,
		calendars: st.Calendars,
		events:    st.Events,
		syncLog:   st.SyncLog,
	}
}

// acquire waits (bounded) for credential activation and takes the
// in-flight lock. Callers must Unlock on every path after a nil return.
func (s *Service) acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, readyWait)
	defer cancel()
	if err := s.gate.AwaitReady(waitCtx); err != nil {
		return fmt.Errorf("%w: %v", ErrNotReady, err)
	}
	if !s.inFlight.TryLock() {
		return ErrSyncInProgress
	}
	return nil
}

// beginAudit records a started sync-log row and returns the finish func
// that moves it to a terminal status. Audit writes are best effort and
// never fail the sync itself.
func (s *Service) beginAudit(ctx context.Context, message string) func(status, message string, eventsSynced int) {
	entry, err := s.syncLog.Create(ctx, store.SyncStatusStarted, message)
	if err != nil {
		log.Printf("[WARN] failed to record sync start: %v", err)
	}
	return func(status, message string, eventsSynced int) {
		if entry == nil {
			return
		}
		if err := s.syncLog.Finish(ctx, entry.ID, status, message, eventsSynced); err != nil {
			log.Printf("[WARN] failed to record sync completion: %v", err)
		}
	}
}

// markSynced stores the time of the last successful event-bearing sync.
func (s *Service) markSynced(ctx context.Context) {
	if err := s.creds.Set(ctx, credentials.KeyLastSyncTime, time.Now().Format(time.RFC3339)); err != nil {
		log.Printf("[WARN] failed to update last sync time: %v", err)
	}
}

// SyncCalendarList pulls the remote calendar list and upserts it locally,
// preserving each existing row's selected flag. The id snapshot taken
// before the batch decides whether a row counts as imported or updated.
func (s *Service) SyncCalendarList(ctx context.Context) (*CalendarResult, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.inFlight.Unlock()

	finish := s.beginAudit(ctx, "Calendar sync started")
	res, err := s.syncCalendarList(ctx)
	if err != nil {
		finish(store.SyncStatusFailed, fmt.Sprintf("Calendar sync failed: %v", err), 0)
		metrics.ObserveSyncRun("calendars", "failure")
		return nil, err
	}
	finish(store.SyncStatusCompleted, fmt.Sprintf("Synced %d calendars", res.Total), 0)
	metrics.ObserveSyncRun("calendars", "success")
	return res, nil
}

func (s *Service) syncCalendarList(ctx context.Context) (*CalendarResult, error) {
	known, err := s.calendars.IDs(ctx)
	if err != nil {
		return nil, err
	}

	remote, err := s.remote.FetchCalendarList(ctx)
	if err != nil {
		return nil, err
	}

	res := &CalendarResult{Total: len(remote)}
	for _, cal := range remote {
		if err := s.calendars.Upsert(ctx, cal); err != nil {
			return nil, fmt.Errorf("upsert calendar %s: %w", cal.ID, err)
		}
		if _, ok := known[cal.ID]; ok {
			res.Updated++
		} else {
			res.Imported++
		}
	}
	return res, nil
}

// SyncSelectedEvents fetches events for every selected calendar
// concurrently and upserts them. A calendar that fails is reported in the
// result's Errors and does not abort the rest.
func (s *Service) SyncSelectedEvents(ctx context.Context) (*EventResult, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.inFlight.Unlock()

	finish := s.beginAudit(ctx, "Event sync started")
	res, err := s.syncSelectedEvents(ctx)
	if err != nil {
		finish(store.SyncStatusFailed, fmt.Sprintf("Event sync failed: %v", err), 0)
		metrics.ObserveSyncRun("events", "failure")
		return nil, err
	}
	finish(store.SyncStatusCompleted, eventSyncMessage(res), res.Events)
	if res.Calendars > 0 {
		s.markSynced(ctx)
	}
	metrics.ObserveSyncRun("events", "success")
	return res, nil
}

func eventSyncMessage(res *EventResult) string {
	if res.Calendars == 0 && len(res.Errors) > 0 {
		return res.Errors[0]
	}
	message := fmt.Sprintf("Synced %d events from %d calendars", res.Events, res.Calendars)
	if len(res.Errors) > 0 {
		message = fmt.Sprintf("%s (%d calendar(s) failed)", message, len(res.Errors))
	}
	return message
}

func (s *Service) syncSelectedEvents(ctx context.Context) (*EventResult, error) {
	selected, err := s.calendars.ListSelected(ctx)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		return &EventResult{Errors: []string{"No calendars selected for sync"}}, nil
	}

	type calOutcome struct {
		events int
		errMsg string
	}

	outcomes := make([]calOutcome, len(selected))
	var wg sync.WaitGroup
	for i, cal := range selected {
		wg.Add(1)
		go func(i int, cal store.Calendar) {
			defer wg.Done()
			n, err := s.syncCalendarEvents(ctx, cal.ID)
			if err != nil {
				outcomes[i] = calOutcome{errMsg: fmt.Sprintf("calendar %s: %v", cal.ID, err)}
				return
			}
			outcomes[i] = calOutcome{events: n}
		}(i, cal)
	}
	wg.Wait()

	res := &EventResult{Calendars: len(selected)}
	for _, out := range outcomes {
		if out.errMsg != "" {
			res.Errors = append(res.Errors, out.errMsg)
			continue
		}
		res.Events += out.events
	}
	metrics.AddSyncedEvents(res.Events)
	return res, nil
}

func (s *Service) syncCalendarEvents(ctx context.Context, calendarID string) (int, error) {
	events, err := s.remote.FetchEvents(ctx, calendarID, time.Time{}, time.Time{})
	if err != nil {
		return 0, err
	}
	for _, event := range events {
		if err := s.events.Upsert(ctx, event); err != nil {
			return 0, fmt.Errorf("upsert event %s: %w", event.ID, err)
		}
	}
	return len(events), nil
}

// FullSync runs both phases under a single audit row. The row is created
// as started before any remote call and finished with a terminal status;
// audit writes are best effort and never fail the sync itself.
func (s *Service) FullSync(ctx context.Context) (*FullResult, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.inFlight.Unlock()

	finish := s.beginAudit(ctx, "Full sync started")

	calRes, err := s.syncCalendarList(ctx)
	if err != nil {
		finish(store.SyncStatusFailed, fmt.Sprintf("Calendar sync failed: %v", err), 0)
		metrics.ObserveSyncRun("full", "failure")
		return nil, err
	}

	evRes, err := s.syncSelectedEvents(ctx)
	if err != nil {
		finish(store.SyncStatusFailed, fmt.Sprintf("Event sync failed: %v", err), 0)
		metrics.ObserveSyncRun("full", "failure")
		return nil, err
	}

	message := fmt.Sprintf("Synced %d calendars and %d events", calRes.Total, evRes.Events)
	if len(evRes.Errors) > 0 {
		message = fmt.Sprintf("%s (%d calendar(s) failed)", message, len(evRes.Errors))
	}
	finish(store.SyncStatusCompleted, message, evRes.Events)
	s.markSynced(ctx)

	metrics.ObserveSyncRun("full", "success")
	return &FullResult{Calendars: *calRes, Events: *evRes}, nil
}
