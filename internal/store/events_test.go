package store

import (
	"context"
	"reflect"
	"regexp"
	"testing"
)

func TestEventUpsertTargetsSameRowOnRepeat(t *testing.T) {
	pool := &capturingPool{}
	repo := &eventRepo{pool: pool}

	event := Event{
		ID:         "ev-1",
		CalendarID: "cal-1",
		Title:      "Dinner",
		StartTime:  "2026-08-31T18:00:00Z",
		EndTime:    "2026-08-31T19:00:00Z",
	}
	for i := 0; i < 2; i++ {
		if err := repo.Upsert(context.Background(), event); err != nil {
			t.Fatalf("upsert %d failed: %v", i+1, err)
		}
	}

	if len(pool.sqls) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(pool.sqls))
	}
	conflict := regexp.MustCompile(`ON CONFLICT \(id\) DO UPDATE SET`)
	if !conflict.MatchString(pool.sqls[0]) {
		t.Fatalf("upsert does not resolve by event id: %s", pool.sqls[0])
	}
	if pool.sqls[0] != pool.sqls[1] {
		t.Fatalf("repeated upsert issued a different statement")
	}
	if !reflect.DeepEqual(pool.args[0], pool.args[1]) {
		t.Fatalf("repeated upsert issued different arguments: %v vs %v", pool.args[0], pool.args[1])
	}
	if pool.args[0][0] != "ev-1" {
		t.Fatalf("conflict target is not the event id: %v", pool.args[0])
	}
}
