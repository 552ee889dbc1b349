package test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/hrygo/notescopilot/internal/profile"
	"github.com/hrygo/notescopilot/store"
	"github.com/hrygo/notescopilot/store/db"
)

func getDriverFromEnv() string {
	if driver := os.Getenv("DRIVER"); driver != "" {
		return driver
	}
	return "sqlite"
}

// NewTestingStore opens a migrated store. SQLite runs in a temp directory;
// DRIVER=postgres uses POSTGRES_TEST_DSN and skips the test when it is unset.
func NewTestingStore(ctx context.Context, t *testing.T, opts ...store.Option) *store.Store {
	t.Helper()

	prof := &profile.Profile{
		Mode:   "dev",
		Driver: getDriverFromEnv(),
	}
	switch prof.Driver {
	case "sqlite":
		prof.DSN = fmt.Sprintf("%s/notescopilot_test.db", t.TempDir())
	case "postgres":
		prof.DSN = os.Getenv("POSTGRES_TEST_DSN")
		if prof.DSN == "" {
			t.Skip("POSTGRES_TEST_DSN is not set")
		}
	default:
		t.Fatalf("unsupported test driver %q", prof.Driver)
	}

	driver, err := db.NewDBDriver(prof)
	if err != nil {
		t.Fatalf("failed to create db driver: %v", err)
	}

	ts := store.New(driver, prof, opts...)
	if err := ts.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	if prof.Driver == "postgres" {
		// Shared database: start every test from empty tables.
		if _, err := driver.GetDB().ExecContext(ctx, "TRUNCATE task, note RESTART IDENTITY CASCADE"); err != nil {
			t.Fatalf("failed to reset tables: %v", err)
		}
	}
	t.Cleanup(func() {
		ts.Close()
	})
	return ts
}

// NewTestingNote returns a note ready for CreateNote with three open tasks.
func NewTestingNote(title string, embedding []float32) *store.Note {
	return &store.Note{
		Title:     title,
		Body:      "Body of " + title,
		Summary:   "Summary of " + title,
		Tags:      []string{"alpha", "beta", "gamma"},
		Embedding: embedding,
		Tasks: []*store.Task{
			{Text: "First follow-up"},
			{Text: "Second follow-up"},
			{Text: "Third follow-up"},
		},
	}
}
