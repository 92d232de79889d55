package store

import "context"

// SettingsRepository persists key/value admin settings with upsert-by-key
// semantics. Values for token-like keys are ciphertext; encryption happens
// in the credentials package above this layer.
type SettingsRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	GetMany(ctx context.Context, keys []string) (map[string]string, error)
	SetMany(ctx context.Context, values map[string]string) (int, error)
	// AllPublic returns settings excluding token and secret keys, for the
	// admin settings endpoint.
	AllPublic(ctx context.Context) (map[string]string, error)
}

// CalendarRepository handles the local calendar mirror.
type CalendarRepository interface {
	List(ctx context.Context) ([]Calendar, error)
	ListSelected(ctx context.Context) ([]Calendar, error)
	GetByID(ctx context.Context, id string) (*Calendar, error)
	// IDs returns the set of known calendar ids; the sync orchestrator
	// snapshots it before a batch to classify imported vs updated rows.
	IDs(ctx context.Context) (map[string]struct{}, error)
	Create(ctx context.Context, cal Calendar) (*Calendar, error)
	// Upsert refreshes name/description/color from the remote source while
	// preserving an existing row's selected flag. New rows default to
	// selected=false.
	Upsert(ctx context.Context, cal Calendar) error
	ToggleSelected(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// EventRepository handles event storage with upsert-by-id reconciliation.
type EventRepository interface {
	Upsert(ctx context.Context, event Event) error
	Create(ctx context.Context, event Event) (*Event, error)
	GetByID(ctx context.Context, id string) (*Event, error)
	ListByCalendar(ctx context.Context, calendarID string) ([]Event, error)
	// ListByRange returns events of selected calendars overlapping
	// [start, end], optionally narrowed to one calendar.
	ListByRange(ctx context.Context, start, end string, calendarID string) ([]Event, error)
	ListToday(ctx context.Context) ([]Event, error)
	Delete(ctx context.Context, id string) error
	DeleteByCalendar(ctx context.Context, calendarID string) (int64, error)
}

// SyncLogRepository appends audit rows for sync invocations. A row is
// created as started and finished exactly once with a terminal status.
type SyncLogRepository interface {
	Create(ctx context.Context, status, message string) (*SyncLog, error)
	Finish(ctx context.Context, id int64, status, message string, eventsSynced int) error
	Recent(ctx context.Context, limit int) ([]SyncLog, error)
	GetByID(ctx context.Context, id int64) (*SyncLog, error)
}
