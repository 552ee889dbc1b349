package v1

import (
	"github.com/labstack/echo/v4"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/hrygo/notescopilot/internal/profile"
	"github.com/hrygo/notescopilot/server/service/notes"
	"github.com/hrygo/notescopilot/store"
)

// APIV1Service serves the JSON API for notes and tasks.
type APIV1Service struct {
	// Domain Services
	NoteService notes.Service

	// Shared Infra
	Profile  *profile.Profile
	Store    *store.Store
	Markdown goldmark.Markdown
}

func NewAPIV1Service(profile *profile.Profile, store *store.Store, noteService notes.Service) *APIV1Service {
	return &APIV1Service{
		NoteService: noteService,
		Profile:     profile,
		Store:       store,
		Markdown:    goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// RegisterRoutes mounts the API on g, which is normally the API_PREFIX group.
func (s *APIV1Service) RegisterRoutes(g *echo.Group) {
	// Both spellings of the collection path are accepted.
	for _, path := range []string{"/notes", "/notes/"} {
		g.POST(path, s.CreateNote)
		g.GET(path, s.ListNotes)
	}
	g.GET("/notes/rss", s.GetNotesRSS)
	g.GET("/notes/:id", s.GetNote)
	g.DELETE("/notes/:id", s.DeleteNote)

	g.GET("/tasks/:id", s.GetTask)
	g.PATCH("/tasks/:id", s.UpdateTask)
}
