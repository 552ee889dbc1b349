package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/notescopilot/ai/vector"
	"github.com/hrygo/notescopilot/store"
)

// CreateNote inserts the note and its tasks in one transaction.
// Tags and the embedding are stored as JSON text.
func (d *DB) CreateNote(ctx context.Context, create *store.Note) (*store.Note, error) {
	tags, err := json.Marshal(create.Tags)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal tags")
	}
	embedding, err := vector.EncodeEmbedding(create.Embedding)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode embedding")
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	stmt := "INSERT INTO note (title, body, summary, tags, embedding, created_ts) VALUES (?, ?, ?, ?, ?, ?) RETURNING id, created_ts"
	if err := tx.QueryRowContext(ctx, stmt,
		create.Title,
		create.Body,
		create.Summary,
		string(tags),
		embedding,
		create.CreatedTs,
	).Scan(&create.ID, &create.CreatedTs); err != nil {
		return nil, errors.Wrap(err, "failed to insert note")
	}

	for _, task := range create.Tasks {
		task.NoteID = create.ID
		if err := tx.QueryRowContext(ctx,
			"INSERT INTO task (note_id, text, status) VALUES (?, ?, ?) RETURNING id",
			task.NoteID, task.Text, string(task.Status),
		).Scan(&task.ID); err != nil {
			return nil, errors.Wrap(err, "failed to insert task")
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "failed to commit transaction")
	}
	return create, nil
}

func (d *DB) ListNotes(ctx context.Context, find *store.FindNote) ([]*store.Note, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "id = ?"), append(args, *v)
	}
	if len(find.IDs) > 0 {
		where, args = append(where, fmt.Sprintf("id IN (%s)", placeholders(len(find.IDs)))), append(args, int64Args(find.IDs)...)
	}

	query := "SELECT id, title, body, summary, tags, created_ts FROM note WHERE " + strings.Join(where, " AND ") + " ORDER BY created_ts DESC, id DESC"
	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
		if find.Offset != nil {
			query = fmt.Sprintf("%s OFFSET %d", query, *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list notes")
	}
	defer rows.Close()

	list := []*store.Note{}
	for rows.Next() {
		note := &store.Note{}
		var tags string
		if err := rows.Scan(
			&note.ID,
			&note.Title,
			&note.Body,
			&note.Summary,
			&tags,
			&note.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan note")
		}
		if err := json.Unmarshal([]byte(tags), &note.Tags); err != nil {
			return nil, errors.Wrapf(err, "failed to unmarshal tags of note %d", note.ID)
		}
		list = append(list, note)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (d *DB) CountNotes(ctx context.Context) (int64, error) {
	var count int64
	if err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM note").Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count notes")
	}
	return count, nil
}

func (d *DB) DeleteNote(ctx context.Context, id int64) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM task WHERE note_id = ?", id); err != nil {
		return errors.Wrap(err, "failed to delete tasks")
	}
	result, err := tx.ExecContext(ctx, "DELETE FROM note WHERE id = ?", id)
	if err != nil {
		return errors.Wrap(err, "failed to delete note")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to get rows affected")
	}
	if affected == 0 {
		return errors.Wrapf(store.ErrNotFound, "note %d", id)
	}
	return errors.Wrap(tx.Commit(), "failed to commit transaction")
}

func (d *DB) IterateNoteEmbeddings(ctx context.Context, fn func(*store.NoteEmbedding) error, skip func(noteID int64, err error)) error {
	rows, err := d.db.QueryContext(ctx, "SELECT id, embedding FROM note ORDER BY id ASC")
	if err != nil {
		return errors.Wrap(err, "failed to scan note embeddings")
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return errors.Wrap(err, "failed to scan note embedding")
		}
		vec, err := vector.DecodeEmbedding(raw)
		if err != nil {
			skip(id, err)
			continue
		}
		if err := fn(&store.NoteEmbedding{NoteID: id, Embedding: vec}); err != nil {
			return err
		}
	}
	return rows.Err()
}
