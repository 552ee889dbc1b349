package postgres

import (
	"context"
	"database/sql"
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/hrygo/notescopilot/store"
)

type taskRow struct {
	ID     int64  `db:"id"`
	NoteID int64  `db:"note_id"`
	Text   string `db:"text"`
	Status string `db:"status"`
}

func (r *taskRow) toTask() *store.Task {
	return &store.Task{
		ID:     r.ID,
		NoteID: r.NoteID,
		Text:   r.Text,
		Status: store.TaskStatus(r.Status),
	}
}

func (d *DB) ListTasks(ctx context.Context, find *store.FindTask) ([]*store.Task, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if len(find.NoteIDs) > 0 {
		where, args = append(where, "note_id = ANY("+placeholder(len(args)+1)+")"), append(args, pq.Array(find.NoteIDs))
	}

	rows := []taskRow{}
	query := "SELECT id, note_id, text, status FROM task WHERE " + strings.Join(where, " AND ") + " ORDER BY id ASC"
	if err := d.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "failed to list tasks")
	}

	list := make([]*store.Task, 0, len(rows))
	for i := range rows {
		list = append(list, rows[i].toTask())
	}
	return list, nil
}

func (d *DB) UpdateTask(ctx context.Context, update *store.UpdateTask) (*store.Task, error) {
	var row taskRow
	err := d.db.GetContext(ctx, &row,
		"UPDATE task SET status = $1 WHERE id = $2 RETURNING id, note_id, text, status",
		string(update.Status), update.ID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(store.ErrNotFound, "task %d", update.ID)
		}
		return nil, errors.Wrap(err, "failed to update task")
	}
	return row.toTask(), nil
}
