package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/hrygo/notescopilot/store"
)

type noteRow struct {
	ID        int64  `db:"id"`
	Title     string `db:"title"`
	Body      string `db:"body"`
	Summary   string `db:"summary"`
	Tags      []byte `db:"tags"`
	CreatedTs int64  `db:"created_ts"`
}

func (r *noteRow) toNote() (*store.Note, error) {
	note := &store.Note{
		ID:        r.ID,
		Title:     r.Title,
		Body:      r.Body,
		Summary:   r.Summary,
		CreatedTs: r.CreatedTs,
	}
	if err := json.Unmarshal(r.Tags, &note.Tags); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal tags of note %d", r.ID)
	}
	return note, nil
}

// CreateNote inserts the note and its tasks in one transaction.
func (d *DB) CreateNote(ctx context.Context, create *store.Note) (*store.Note, error) {
	tags, err := json.Marshal(create.Tags)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal tags")
	}

	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	stmt := `
		INSERT INTO note (title, body, summary, tags, embedding, created_ts)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_ts
	`
	if err := tx.QueryRowxContext(ctx, stmt,
		create.Title,
		create.Body,
		create.Summary,
		string(tags),
		pgvector.NewVector(create.Embedding),
		create.CreatedTs,
	).Scan(&create.ID, &create.CreatedTs); err != nil {
		return nil, errors.Wrap(err, "failed to insert note")
	}

	for _, task := range create.Tasks {
		task.NoteID = create.ID
		if err := tx.QueryRowxContext(ctx,
			"INSERT INTO task (note_id, text, status) VALUES ($1, $2, $3) RETURNING id",
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
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if len(find.IDs) > 0 {
		where, args = append(where, "id = ANY("+placeholder(len(args)+1)+")"), append(args, pq.Array(find.IDs))
	}

	query := `
		SELECT id, title, body, summary, tags, created_ts
		FROM note
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC, id DESC`
	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
		if find.Offset != nil {
			query = fmt.Sprintf("%s OFFSET %d", query, *find.Offset)
		}
	}

	rows := []noteRow{}
	if err := d.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "failed to list notes")
	}

	list := make([]*store.Note, 0, len(rows))
	for i := range rows {
		note, err := rows[i].toNote()
		if err != nil {
			return nil, err
		}
		list = append(list, note)
	}
	return list, nil
}

func (d *DB) CountNotes(ctx context.Context) (int64, error) {
	var count int64
	if err := d.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM note"); err != nil {
		return 0, errors.Wrap(err, "failed to count notes")
	}
	return count, nil
}

func (d *DB) DeleteNote(ctx context.Context, id int64) error {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM task WHERE note_id = $1", id); err != nil {
		return errors.Wrap(err, "failed to delete tasks")
	}
	result, err := tx.ExecContext(ctx, "DELETE FROM note WHERE id = $1", id)
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
	rows, err := d.db.QueryxContext(ctx, "SELECT id, embedding::text FROM note ORDER BY id ASC")
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

		var vec pgvector.Vector
		if err := vec.Scan(raw); err != nil {
			skip(id, err)
			continue
		}
		if len(vec.Slice()) == 0 {
			skip(id, errors.New("empty embedding"))
			continue
		}
		if err := fn(&store.NoteEmbedding{NoteID: id, Embedding: vec.Slice()}); err != nil {
			return err
		}
	}
	return rows.Err()
}

func placeholder(n int) string {
	return "$" + fmt.Sprint(n)
}
