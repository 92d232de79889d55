package store

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestCalendarUpsertPreservesExistingSelection(t *testing.T) {
	pool := &capturingPool{}
	repo := &calendarRepo{pool: pool}

	cal := Calendar{ID: "cal-1", Name: "Family (renamed)", Color: "#FF0000"}
	if err := repo.Upsert(context.Background(), cal); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	if len(pool.sqls) != 1 {
		t.Fatalf("expected a single statement, got %d", len(pool.sqls))
	}
	sql := pool.sqls[0]

	// A fresh row takes the remote value through the subselect fallback; an
	// existing row keeps whatever the admin chose.
	coalesce := regexp.MustCompile(`COALESCE\(\(SELECT selected FROM calendars WHERE id = \$1\), FALSE\)`)
	if !coalesce.MatchString(sql) {
		t.Fatalf("upsert does not preserve selection via subselect: %s", sql)
	}

	idx := strings.Index(sql, "ON CONFLICT")
	if idx < 0 {
		t.Fatalf("upsert is not an insert-on-conflict statement: %s", sql)
	}
	conflict := sql[idx:]
	if !strings.Contains(conflict, "name = EXCLUDED.name") {
		t.Fatalf("conflict clause does not refresh the name: %s", conflict)
	}
	if strings.Contains(conflict, "selected") {
		t.Fatalf("conflict clause must not touch selected: %s", conflict)
	}

	args := pool.args[0]
	if len(args) != 4 {
		t.Fatalf("expected 4 arguments (no selected value), got %d: %v", len(args), args)
	}
	if args[0] != "cal-1" || args[1] != "Family (renamed)" || args[3] != "#FF0000" {
		t.Fatalf("unexpected upsert arguments: %v", args)
	}
}

// capturingPool records every statement so tests can assert the SQL a
// repository issues without a live database.
type capturingPool struct {
	sqls []string
	args [][]any
}

func (c *capturingPool) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	c.sqls = append(c.sqls, sql)
	c.args = append(c.args, arguments)
	return pgconn.NewCommandTag("MOCK"), nil
}

func (c *capturingPool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, fmt.Errorf("unexpected query: %s", sql)
}

func (c *capturingPool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return mockRow{err: fmt.Errorf("unexpected queryrow: %s", sql)}
}

func (c *capturingPool) Begin(ctx context.Context) (pgx.Tx, error) {
	return nil, fmt.Errorf("unexpected begin")
}
