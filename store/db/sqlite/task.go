package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/notescopilot/store"
)

func (d *DB) ListTasks(ctx context.Context, find *store.FindTask) ([]*store.Task, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "id = ?"), append(args, *v)
	}
	if len(find.NoteIDs) > 0 {
		where, args = append(where, fmt.Sprintf("note_id IN (%s)", placeholders(len(find.NoteIDs)))), append(args, int64Args(find.NoteIDs)...)
	}

	rows, err := d.db.QueryContext(ctx, "SELECT id, note_id, text, status FROM task WHERE "+strings.Join(where, " AND ")+" ORDER BY id ASC", args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list tasks")
	}
	defer rows.Close()

	list := []*store.Task{}
	for rows.Next() {
		task := &store.Task{}
		if err := rows.Scan(&task.ID, &task.NoteID, &task.Text, &task.Status); err != nil {
			return nil, errors.Wrap(err, "failed to scan task")
		}
		list = append(list, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (d *DB) UpdateTask(ctx context.Context, update *store.UpdateTask) (*store.Task, error) {
	task := &store.Task{}
	err := d.db.QueryRowContext(ctx,
		"UPDATE task SET status = ? WHERE id = ? RETURNING id, note_id, text, status",
		string(update.Status), update.ID,
	).Scan(&task.ID, &task.NoteID, &task.Text, &task.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(store.ErrNotFound, "task %d", update.ID)
		}
		return nil, errors.Wrap(err, "failed to update task")
	}
	return task, nil
}
