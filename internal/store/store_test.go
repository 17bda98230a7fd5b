package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/playmatatu/pinball/internal/migrations"
	"github.com/playmatatu/pinball/internal/models"
	"github.com/playmatatu/pinball/internal/table"
)

// setupStore connects to TEST_DATABASE_URL and migrates it. Tests that
// need Postgres are skipped when it is not set.
func setupStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	if err := migrations.RunMigrations(url, "../../migrations"); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	db, err := sqlx.Connect("postgres", url)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db)
}

func uniqueName(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}

func TestTableRoundTrip(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	name := uniqueName("tbl")

	def, err := table.Parse([]byte("name: " + name + "\ndescription: first\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	created, err := s.UpsertTable(ctx, def, "ops")
	if err != nil {
		t.Fatalf("UpsertTable: %v", err)
	}
	if created.Name != name || created.CreatedBy.String != "ops" {
		t.Errorf("Created = %+v", created)
	}

	def.Description = "second"
	updated, err := s.UpsertTable(ctx, def, "")
	if err != nil {
		t.Fatalf("UpsertTable again: %v", err)
	}
	if updated.ID != created.ID || updated.Description != "second" || updated.CreatedBy.String != "ops" {
		t.Errorf("Updated = %+v", updated)
	}

	loaded, err := s.TableDefinition(ctx, name)
	if err != nil {
		t.Fatalf("TableDefinition: %v", err)
	}
	if loaded.Description != "second" {
		t.Errorf("Loaded description = %q", loaded.Description)
	}

	tables, err := s.ListTables(ctx)
	if err != nil {
		t.Fatalf("ListTables: %v", err)
	}
	found := false
	for _, tb := range tables {
		if tb.Name == name {
			found = true
			if tb.Source != "" {
				t.Errorf("ListTables returned a source")
			}
		}
	}
	if !found {
		t.Errorf("Table %s missing from list", name)
	}

	if _, err := s.GetTable(ctx, uniqueName("missing")); !errors.Is(err, table.ErrTableNotFound) {
		t.Errorf("Expected ErrTableNotFound, got %v", err)
	}
}

func TestRunLifecycle(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	tableName := uniqueName("runs")

	run := &models.SimulationRun{SessionID: uniqueName("sim"), TableName: tableName, Seed: 42}
	if err := s.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if run.ID == 0 {
		t.Errorf("CreateRun did not set the id")
	}

	run.SimTimeMsec = 1500
	run.Ticks = 150
	run.BumperHits = 3
	run.EndReason = sql.NullString{String: "idle", Valid: true}
	if err := s.FinishRun(ctx, run); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	got, err := s.GetRun(ctx, run.SessionID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Status != models.RunStatusFinished || got.Ticks != 150 || got.Seed != 42 || !got.EndedAt.Valid {
		t.Errorf("Run = %+v", got)
	}

	runs, err := s.ListRuns(ctx, tableName, 10, 0)
	if err != nil || len(runs) != 1 {
		t.Errorf("ListRuns = %d runs, %v", len(runs), err)
	}
	if _, err := s.GetRun(ctx, uniqueName("none")); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Expected ErrRunNotFound, got %v", err)
	}
}
