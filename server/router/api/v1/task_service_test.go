package v1

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func TestUpdateTask(t *testing.T) {
	s := newTestServer(t)
	note := s.seed(t, "tasks", []float32{1, 0})
	path := "/api/tasks/" + itoa(note.Tasks[0].ID)

	rec := s.do(t, http.MethodPatch, path, `{"status":"done"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	task := decode[Task](t, rec)
	assert.Equal(t, note.Tasks[0].ID, task.ID)
	assert.Equal(t, "First follow-up", task.Text)
	assert.Equal(t, "done", task.Status)

	// Repeating the same status is accepted.
	rec = s.do(t, http.MethodPatch, path, `{"status":"done"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "done", decode[Task](t, rec).Status)

	rec = s.do(t, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "done", decode[Task](t, rec).Status)

	rec = s.do(t, http.MethodPatch, path, `{"status":"open"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "open", decode[Task](t, rec).Status)
}

func TestUpdateTask_Errors(t *testing.T) {
	s := newTestServer(t)
	note := s.seed(t, "tasks", []float32{1, 0})
	path := "/api/tasks/" + itoa(note.Tasks[0].ID)

	rec := s.do(t, http.MethodPatch, path, `{"status":"archived"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "status must be 'open' or 'done'", detail(t, rec))

	rec = s.do(t, http.MethodPatch, "/api/tasks/9999", `{"status":"done"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Task not found", detail(t, rec))

	rec = s.do(t, http.MethodGet, "/api/tasks/9999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Task not found", detail(t, rec))

	rec = s.do(t, http.MethodGet, "/api/tasks/x", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
