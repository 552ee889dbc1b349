package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/notescopilot/internal/profile"
)

const (
	DefaultListLimit = 10
	MaxListLimit     = 100
)

// SkipRecorder is told about every stored embedding left out of a scan.
type SkipRecorder interface {
	RecordSkippedEmbedding()
}

// Option configures a Store.
type Option func(*Store)

// WithSkipRecorder reports undecodable embeddings found during scans to r.
func WithSkipRecorder(r SkipRecorder) Option {
	return func(s *Store) {
		s.skipRecorder = r
	}
}

// Store provides database access to notes and tasks.
// Paging and status rules are enforced here so every driver behaves the same.
type Store struct {
	profile *profile.Profile
	driver  Driver

	skipRecorder SkipRecorder
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile, opts ...Option) *Store {
	s := &Store{
		driver:  driver,
		profile: profile,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	return s.driver.Close()
}

// ValidatePage checks limit ∈ [1, MaxListLimit] and offset ≥ 0.
func ValidatePage(limit, offset int) error {
	if limit < 1 || limit > MaxListLimit {
		return errors.Wrapf(ErrInvalidArgument, "limit must be between 1 and %d, got %d", MaxListLimit, limit)
	}
	if offset < 0 {
		return errors.Wrapf(ErrInvalidArgument, "offset must be non-negative, got %d", offset)
	}
	return nil
}

// CreateNote persists the note and its tasks atomically. New tasks default to open.
func (s *Store) CreateNote(ctx context.Context, create *Note) (*Note, error) {
	if create.Title == "" || create.Body == "" {
		return nil, errors.Wrap(ErrInvalidArgument, "title and body are required")
	}
	if len(create.Embedding) == 0 {
		return nil, errors.Wrap(ErrInvalidArgument, "embedding is required")
	}
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}
	for _, task := range create.Tasks {
		if task.Status == "" {
			task.Status = TaskOpen
		}
		if !task.Status.IsValid() {
			return nil, errors.Wrapf(ErrInvalidArgument, "unknown task status %q", task.Status)
		}
	}
	if create.Tags == nil {
		create.Tags = []string{}
	}
	return s.driver.CreateNote(ctx, create)
}

// GetNote returns the note with its tasks.
func (s *Store) GetNote(ctx context.Context, id int64) (*Note, error) {
	list, err := s.driver.ListNotes(ctx, &FindNote{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, errors.Wrapf(ErrNotFound, "note %d", id)
	}
	if err := s.attachTasks(ctx, list); err != nil {
		return nil, err
	}
	return list[0], nil
}

// ListNotes returns one page of notes, newest first, and the total number of notes.
// A nil Limit means DefaultListLimit and a nil Offset means 0.
func (s *Store) ListNotes(ctx context.Context, find *FindNote) ([]*Note, int64, error) {
	limit, offset := DefaultListLimit, 0
	if find.Limit != nil {
		limit = *find.Limit
	}
	if find.Offset != nil {
		offset = *find.Offset
	}
	if err := ValidatePage(limit, offset); err != nil {
		return nil, 0, err
	}

	list, err := s.driver.ListNotes(ctx, &FindNote{Limit: &limit, Offset: &offset})
	if err != nil {
		return nil, 0, err
	}
	total, err := s.driver.CountNotes(ctx)
	if err != nil {
		return nil, 0, err
	}
	if err := s.attachTasks(ctx, list); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ResolveNotes returns the notes for ids with their tasks. Order is not guaranteed
// and ids without a note are absent from the result.
func (s *Store) ResolveNotes(ctx context.Context, ids []int64) ([]*Note, error) {
	if len(ids) == 0 {
		return []*Note{}, nil
	}
	list, err := s.driver.ListNotes(ctx, &FindNote{IDs: ids})
	if err != nil {
		return nil, err
	}
	if err := s.attachTasks(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// IterateNoteEmbeddings calls fn for every decodable stored embedding.
// Undecodable rows are logged and skipped.
func (s *Store) IterateNoteEmbeddings(ctx context.Context, fn func(*NoteEmbedding) error) error {
	return s.driver.IterateNoteEmbeddings(ctx, fn, func(noteID int64, err error) {
		slog.Warn("skipping unreadable note embedding", "note_id", noteID, "error", err)
		if s.skipRecorder != nil {
			s.skipRecorder.RecordSkippedEmbedding()
		}
	})
}

// DeleteNote removes the note and all of its tasks.
func (s *Store) DeleteNote(ctx context.Context, id int64) error {
	return s.driver.DeleteNote(ctx, id)
}

// GetTask returns a single task.
func (s *Store) GetTask(ctx context.Context, id int64) (*Task, error) {
	list, err := s.driver.ListTasks(ctx, &FindTask{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, errors.Wrapf(ErrNotFound, "task %d", id)
	}
	return list[0], nil
}

// UpdateTaskStatus sets the task status. Setting the current status again is a no-op
// that still returns the task.
func (s *Store) UpdateTaskStatus(ctx context.Context, update *UpdateTask) (*Task, error) {
	if !update.Status.IsValid() {
		return nil, errors.Wrapf(ErrInvalidArgument, "unknown task status %q", update.Status)
	}
	return s.driver.UpdateTask(ctx, update)
}

func (s *Store) attachTasks(ctx context.Context, notes []*Note) error {
	if len(notes) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(notes))
	byID := make(map[int64]*Note, len(notes))
	for _, note := range notes {
		note.Tasks = []*Task{}
		ids = append(ids, note.ID)
		byID[note.ID] = note
	}

	tasks, err := s.driver.ListTasks(ctx, &FindTask{NoteIDs: ids})
	if err != nil {
		return err
	}
	for _, task := range tasks {
		if note, ok := byID[task.NoteID]; ok {
			note.Tasks = append(note.Tasks, task)
		}
	}
	return nil
}
