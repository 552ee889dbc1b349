package v1

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hrygo/notescopilot/ai"
	"github.com/hrygo/notescopilot/internal/logging"
	"github.com/hrygo/notescopilot/server/service/notes"
	"github.com/hrygo/notescopilot/store"
)

type CreateNoteRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type Note struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Summary    string    `json:"summary"`
	Tags       []string  `json:"tags"`
	CreatedAt  time.Time `json:"created_at"`
	Tasks      []*Task   `json:"tasks"`
	Similarity *float64  `json:"similarity,omitempty"`
}

type ListNotesResponse struct {
	Notes  []*Note `json:"notes"`
	Total  int64   `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

type DeleteNoteResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

func (s *APIV1Service) CreateNote(c echo.Context) error {
	ctx := c.Request().Context()

	request := &CreateNoteRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid request body")
	}

	create := &notes.CreateNoteRequest{Title: request.Title, Body: request.Body}
	if err := notes.ValidateCreate(create); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, validationDetail(err))
	}

	note, err := s.NoteService.CreateNote(ctx, create)
	if err != nil {
		if isAIError(err) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, fmt.Sprintf("AI processing failed: %v", err))
		}
		logging.FromContext(ctx).Error("failed to create note", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create note")
	}
	return c.JSON(http.StatusOK, convertNoteFromStore(note, nil))
}

// ListNotes pages through notes newest first, or ranks them against the search query.
func (s *APIV1Service) ListNotes(c echo.Context) error {
	ctx := c.Request().Context()

	limit, offset, err := parsePage(c)
	if err != nil {
		return err
	}

	result, err := s.NoteService.Search(ctx, notes.SearchParams{
		Query:  c.QueryParam("search"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrInvalidArgument):
			return echo.NewHTTPError(http.StatusUnprocessableEntity, validationDetail(err))
		case isAIError(err):
			return echo.NewHTTPError(http.StatusUnprocessableEntity, fmt.Sprintf("Search failed: %v", err))
		}
		logging.FromContext(ctx).Error("failed to list notes", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to retrieve notes")
	}

	response := &ListNotesResponse{
		Notes:  make([]*Note, 0, len(result.Hits)),
		Total:  result.Total,
		Limit:  result.Limit,
		Offset: result.Offset,
	}
	for _, hit := range result.Hits {
		response.Notes = append(response.Notes, convertNoteFromStore(hit.Note, hit.Similarity))
	}
	return c.JSON(http.StatusOK, response)
}

func (s *APIV1Service) GetNote(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	note, err := s.Store.GetNote(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Note not found")
		}
		logging.FromContext(ctx).Error("failed to get note", "id", id, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to retrieve note")
	}
	return c.JSON(http.StatusOK, convertNoteFromStore(note, nil))
}

func (s *APIV1Service) DeleteNote(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := s.Store.DeleteNote(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Note not found")
		}
		logging.FromContext(ctx).Error("failed to delete note", "id", id, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete note")
	}
	return c.JSON(http.StatusOK, &DeleteNoteResponse{Message: "Note deleted successfully", ID: id})
}

func convertNoteFromStore(note *store.Note, similarity *float64) *Note {
	tags := note.Tags
	if tags == nil {
		tags = []string{}
	}
	tasks := make([]*Task, 0, len(note.Tasks))
	for _, task := range note.Tasks {
		tasks = append(tasks, convertTaskFromStore(task))
	}
	return &Note{
		ID:         note.ID,
		Title:      note.Title,
		Body:       note.Body,
		Summary:    note.Summary,
		Tags:       tags,
		CreatedAt:  time.Unix(note.CreatedTs, 0).UTC(),
		Tasks:      tasks,
		Similarity: similarity,
	}
}

func isAIError(err error) bool {
	return errors.Is(err, ai.ErrProvider) || errors.Is(err, ai.ErrMalformedResponse)
}

// validationDetail drops the trailing sentinel text from a wrapped ErrInvalidArgument.
func validationDetail(err error) string {
	return strings.TrimSuffix(err.Error(), ": "+store.ErrInvalidArgument.Error())
}
