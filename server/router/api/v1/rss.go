package v1

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/feeds"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hrygo/notescopilot/internal/logging"
	"github.com/hrygo/notescopilot/store"
)

const maxRSSItemCount = 20

// GetNotesRSS renders the most recent notes as an RSS 2.0 feed.
func (s *APIV1Service) GetNotesRSS(c echo.Context) error {
	ctx := c.Request().Context()

	limit, offset := maxRSSItemCount, 0
	list, _, err := s.Store.ListNotes(ctx, &store.FindNote{Limit: &limit, Offset: &offset})
	if err != nil {
		logging.FromContext(ctx).Error("failed to list notes for rss", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to retrieve notes")
	}

	rss, err := s.generateRSSFromNoteList(list, baseURL(c))
	if err != nil {
		logging.FromContext(ctx).Error("failed to generate rss", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate RSS")
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	return c.String(http.StatusOK, rss)
}

func (s *APIV1Service) generateRSSFromNoteList(list []*store.Note, base string) (string, error) {
	feed := &feeds.Feed{
		Title:       "Notes Copilot",
		Link:        &feeds.Link{Href: base},
		Description: "Recently captured notes",
		Created:     time.Now(),
	}

	feed.Items = make([]*feeds.Item, 0, len(list))
	for _, note := range list {
		content, err := s.renderMarkdown(note.Body)
		if err != nil {
			return "", errors.Wrapf(err, "failed to render note %d", note.ID)
		}
		link := fmt.Sprintf("%s%s/notes/%d", base, s.Profile.APIPrefix, note.ID)
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          strconv.FormatInt(note.ID, 10),
			Title:       note.Title,
			Link:        &feeds.Link{Href: link},
			Description: note.Summary,
			Content:     content,
			Created:     time.Unix(note.CreatedTs, 0),
		})
	}
	return feed.ToRss()
}

func (s *APIV1Service) renderMarkdown(source string) (string, error) {
	var buf bytes.Buffer
	if err := s.Markdown.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func baseURL(c echo.Context) string {
	return c.Scheme() + "://" + c.Request().Host
}
