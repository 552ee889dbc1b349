package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/hrygo/notescopilot/ai"
	"github.com/hrygo/notescopilot/ai/analysis"
	"github.com/hrygo/notescopilot/ai/metrics"
	"github.com/hrygo/notescopilot/internal/profile"
	"github.com/hrygo/notescopilot/internal/version"
	"github.com/hrygo/notescopilot/server/middleware"
	apiv1 "github.com/hrygo/notescopilot/server/router/api/v1"
	"github.com/hrygo/notescopilot/server/service/notes"
	"github.com/hrygo/notescopilot/store"
)

// queryCacheTTL bounds how long a cached query embedding is reused.
const queryCacheTTL = 10 * time.Minute

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	metrics    *metrics.PrometheusExporter
	listener   net.Listener
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics shares an exporter created by the caller, typically one the store also reports to.
func WithMetrics(exporter *metrics.PrometheusExporter) Option {
	return func(s *Server) {
		s.metrics = exporter
	}
}

// NewServer wires the provider gateways, the notes pipeline and the HTTP routes.
func NewServer(ctx context.Context, profile *profile.Profile, store *store.Store, opts ...Option) (*Server, error) {
	s := &Server{
		Profile: profile,
		Store:   store,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.NewPrometheusExporter(metrics.DefaultConfig())
	}

	noteService, err := s.newNoteService()
	if err != nil {
		return nil, err
	}

	echoServer := echo.New()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.HTTPErrorHandler = middleware.HTTPErrorHandler
	s.echoServer = echoServer

	echoServer.Use(echomiddleware.Recover())
	echoServer.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	echoServer.Use(middleware.AccessLog())
	echoServer.Use(middleware.RequestContextLogger())
	echoServer.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     profile.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"*"},
		AllowCredentials: true,
	}))
	if profile.RateLimitRPS > 0 {
		echoServer.Use(middleware.NewRateLimiter(profile.RateLimitRPS).Middleware())
	}

	// Healthz endpoint.
	echoServer.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	echoServer.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"message": "Notes Copilot API",
			"version": version.GetCurrentVersion(profile.Mode),
			"health":  "/health",
		})
	})
	echoServer.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))

	apiV1Service := apiv1.NewAPIV1Service(profile, store, noteService)
	apiV1Service.RegisterRoutes(echoServer.Group(profile.APIPrefix))

	slog.Debug("server initialized", "api_prefix", profile.APIPrefix, "cors_origins", profile.CORSOrigins)
	return s, nil
}

func (s *Server) newNoteService() (notes.Service, error) {
	aiConfig := ai.NewConfigFromProfile(s.Profile)
	if err := aiConfig.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid AI configuration")
	}

	embedder, err := ai.NewEmbeddingService(&aiConfig.Embedding)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create embedding service")
	}
	llmService, err := ai.NewLLMService(&aiConfig.LLM)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create LLM service")
	}
	analyzer := analysis.NewAnalyzer(llmService, analysis.WithTokenRecorder(s.metrics))

	opts := []notes.Option{
		notes.WithMaxConcurrency(aiConfig.MaxConcurrency),
		notes.WithRecorder(s.metrics),
	}
	if aiConfig.EmbeddingCacheSize > 0 {
		opts = append(opts, notes.WithQueryEmbedder(
			ai.NewCachedEmbeddingService(embedder, aiConfig.EmbeddingCacheSize, queryCacheTTL, s.metrics),
		))
	}

	slog.Info("AI services initialized",
		"provider", aiConfig.LLM.Provider,
		"model", aiConfig.LLM.Model,
		"embedding_model", aiConfig.Embedding.Model,
		"query_cache", aiConfig.EmbeddingCacheSize,
	)
	return notes.NewService(s.Store, embedder, analyzer, opts...), nil
}

// Start begins serving in the background. It returns once the listener is bound.
func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		return errors.Wrap(err, "failed to listen")
	}
	s.listener = listener
	s.echoServer.Listener = listener

	go func() {
		if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start echo server", "error", err)
		}
	}()
	return nil
}

// Shutdown stops accepting requests, drains in-flight ones and closes the store.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	slog.Info("server shutting down")

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close database", "error", err)
	}

	slog.Info("server stopped properly")
}

// Addr is the bound listen address. It is nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Handler exposes the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echoServer
}
