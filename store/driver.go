package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// Note model related methods.
	// CreateNote writes the note and create.Tasks in one transaction.
	CreateNote(ctx context.Context, create *Note) (*Note, error)
	ListNotes(ctx context.Context, find *FindNote) ([]*Note, error)
	CountNotes(ctx context.Context) (int64, error)
	// DeleteNote removes the note's tasks and then the note in one transaction.
	DeleteNote(ctx context.Context, id int64) error
	// IterateNoteEmbeddings streams every stored vector. Rows that cannot be decoded are
	// reported to skip and the scan continues; an error from fn aborts the scan.
	IterateNoteEmbeddings(ctx context.Context, fn func(*NoteEmbedding) error, skip func(noteID int64, err error)) error

	// Task model related methods.
	ListTasks(ctx context.Context, find *FindTask) ([]*Task, error)
	UpdateTask(ctx context.Context, update *UpdateTask) (*Task, error)

	// SystemSetting model related methods.
	GetSystemSetting(ctx context.Context, name string) (*SystemSetting, error)
	UpsertSystemSetting(ctx context.Context, upsert *SystemSetting) (*SystemSetting, error)
}
