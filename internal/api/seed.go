package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xBwomp/famCalendar/internal/store"
)

// SeedHandler loads sample calendars and events so the dashboard can be
// developed without a Google account. The router only mounts it outside
// production.
type SeedHandler struct {
	calendars store.CalendarRepository
	events    store.EventRepository
}

func NewSeedHandler(calendars store.CalendarRepository, events store.EventRepository) *SeedHandler {
	return &SeedHandler{calendars: calendars, events: events}
}

func (h *SeedHandler) SampleData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	family := "Shared family schedule"
	work := "Work commitments"
	calendars := []store.Calendar{
		{ID: "sample-family", Name: "Family", Description: &family, Color: "#10B981", Selected: true},
		{ID: "sample-work", Name: "Work", Description: &work, Color: "#F59E0B", Selected: true},
		{ID: "sample-school", Name: "School", Color: "#3B82F6", Selected: false},
	}
	for _, cal := range calendars {
		if err := h.calendars.Upsert(ctx, cal); err != nil {
			InternalError(w, r, err, "failed to seed calendars")
			return
		}
	}

	now := time.Now()
	day := func(offset int, hour int) string {
		return time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location()).
			AddDate(0, 0, offset).Format(time.RFC3339)
	}
	gym := "Community Center"
	events := []store.Event{
		{ID: "sample-ev-1", CalendarID: "sample-family", Title: "Soccer practice", StartTime: day(0, 16), EndTime: day(0, 17), Location: &gym},
		{ID: "sample-ev-2", CalendarID: "sample-family", Title: "Grandma visits", StartTime: now.Format("2006-01-02"), EndTime: now.AddDate(0, 0, 1).Format("2006-01-02"), AllDay: true},
		{ID: "sample-ev-3", CalendarID: "sample-work", Title: "Team standup", StartTime: day(1, 9), EndTime: day(1, 10)},
		{ID: "sample-ev-4", CalendarID: "sample-work", Title: "Quarterly review", StartTime: day(3, 14), EndTime: day(3, 15)},
	}
	for _, event := range events {
		if err := h.events.Upsert(ctx, event); err != nil {
			InternalError(w, r, err, "failed to seed events")
			return
		}
	}

	RespondMessage(w, http.StatusOK, map[string]int{
		"calendars": len(calendars),
		"events":    len(events),
	}, fmt.Sprintf("Seeded %d calendars and %d events", len(calendars), len(events)))
}
