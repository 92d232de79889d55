package store

import "time"

// Calendar is a locally mirrored Google calendar. The selected flag is
// purely local UI state and survives re-sync of the remote fields.
type Calendar struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Color       string    `json:"color"`
	Selected    bool      `json:"selected"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Event is a locally mirrored calendar event, keyed by the remote event id.
type Event struct {
	ID          string    `json:"id"`
	CalendarID  string    `json:"calendar_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time"`
	AllDay      bool      `json:"all_day"`
	Location    *string   `json:"location,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Populated by joined reads for dashboard views.
	CalendarName  string `json:"calendar_name,omitempty"`
	CalendarColor string `json:"calendar_color,omitempty"`
}

// Sync log statuses. A row is created as started and mutated exactly once
// to a terminal status.
const (
	SyncStatusStarted   = "started"
	SyncStatusCompleted = "completed"
	SyncStatusFailed    = "failed"
)

// SyncLog is an append-only audit record, one per sync invocation.
type SyncLog struct {
	ID           int64      `json:"id"`
	Status       string     `json:"status"`
	Message      *string    `json:"message,omitempty"`
	EventsSynced int        `json:"events_synced"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Setting is a key/value admin setting row. Token values are ciphertext at
// rest; the credentials package handles encryption above this layer.
type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
