package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hrygo/notescopilot/internal/logging"
	"github.com/hrygo/notescopilot/store"
)

type Task struct {
	ID     int64  `json:"id"`
	Text   string `json:"text"`
	Status string `json:"status"`
}

type UpdateTaskRequest struct {
	Status string `json:"status"`
}

func (s *APIV1Service) GetTask(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	task, err := s.Store.GetTask(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Task not found")
		}
		logging.FromContext(ctx).Error("failed to get task", "id", id, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to retrieve task")
	}
	return c.JSON(http.StatusOK, convertTaskFromStore(task))
}

// UpdateTask sets a task's status. Repeating the current status succeeds unchanged.
func (s *APIV1Service) UpdateTask(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	request := &UpdateTaskRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid request body")
	}
	status := store.TaskStatus(request.Status)
	if !status.IsValid() {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "status must be 'open' or 'done'")
	}

	task, err := s.Store.UpdateTaskStatus(ctx, &store.UpdateTask{ID: id, Status: status})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Task not found")
		}
		logging.FromContext(ctx).Error("failed to update task", "id", id, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update task")
	}
	return c.JSON(http.StatusOK, convertTaskFromStore(task))
}

func convertTaskFromStore(task *store.Task) *Task {
	return &Task{
		ID:     task.ID,
		Text:   task.Text,
		Status: task.Status.String(),
	}
}
