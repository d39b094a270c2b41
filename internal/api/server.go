package api

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"llmaniac/internal/domain"
	"llmaniac/internal/history"
	"llmaniac/internal/pushlog"
)

// DefaultThreshold applies when a classified event declares none. The value
// is informational: it is logged but does not gate shouldPush.
const DefaultThreshold = 0.7

// Resolver yields per-client configuration.
type Resolver interface {
	Resolve(containerID string) (*domain.ClientConfig, error)
}

// Classifier maps a turn onto a vocabulary.
type Classifier interface {
	Classify(ctx context.Context, target domain.Turn, vocabulary []domain.Event, prior *domain.Turn) (string, error)
}

// Health is the process-wide state reported by GET /health, resolved once at
// startup.
type Health struct {
	LLMConfigured  bool
	TracingEnabled bool
	TracingKeySet  bool
	TracingProject string
}

type Server struct {
	echo    *echo.Echo
	configs Resolver
	history history.Store
	cls     Classifier
	pushes  pushlog.Log
	health  Health
	log     zerolog.Logger
}

func NewServer(configs Resolver, hist history.Store, cls Classifier, pushes pushlog.Log, health Health, snippetsDir string, log zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		echo:    e,
		configs: configs,
		history: hist,
		cls:     cls,
		pushes:  pushes,
		health:  health,
		log:     log,
	}

	s.routes()

	// Per-client origin enforcement happens in the classify handler; the
	// transport-level CORS stays permissive. Snippets hosting is optional.
	if snippetsDir != "" {
		if info, err := os.Stat(snippetsDir); err == nil && info.IsDir() {
			e.Static("/snippets", snippetsDir)
		} else {
			log.Warn().Str("dir", snippetsDir).Msg("snippets directory not found, client library will not be served")
		}
	}

	return s
}

func (s *Server) routes() {
	s.echo.POST("/classify", s.classify)
	s.echo.POST("/push", s.push)
	s.echo.GET("/health", s.healthCheck)
}

func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}

// Handler exposes the routing tree for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) classify(c echo.Context) error {
	var req ClassifyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	if req.Text == "" || req.ContainerID == "" || !req.Sender.Valid() {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "text, sender and containerId are required"})
	}

	ctx := c.Request().Context()
	key := history.Key(req.ContainerID, req.SessionID)

	s.log.Info().
		Str("container_id", req.ContainerID).
		Str("conversation_key", key).
		Str("sender", string(req.Sender)).
		Str("text", truncate(req.Text, 50)).
		Msg("classify request")

	cfg, err := s.configs.Resolve(req.ContainerID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Error: "invalid or missing configuration for container id: " + req.ContainerID,
		})
	}

	hostname := originHostname(c.Request().Header.Get(echo.HeaderOrigin))
	if !cfg.Settings.OriginAllowed(hostname) {
		s.log.Warn().
			Str("container_id", req.ContainerID).
			Str("origin", hostname).
			Strs("allowed", cfg.Settings.AllowedDomains).
			Msg("origin not allowed")
		return c.JSON(http.StatusForbidden, errorResponse{Error: "origin not allowed"})
	}

	var prior *domain.Turn
	if turn, ok, err := s.history.Get(ctx, key); err != nil {
		s.log.Error().Str("conversation_key", key).Err(err).Msg("history read failed, classifying without context")
	} else if ok {
		prior = &turn
	}

	target := domain.Turn{Text: req.Text, Sender: req.Sender}
	event, err := s.cls.Classify(ctx, target, cfg.Events, prior)
	if err != nil {
		s.log.Error().Str("container_id", req.ContainerID).Err(err).Msg("classification failed")
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "error during classification process"})
	}

	// The new turn replaces the old one whatever the classification said.
	if err := s.history.Put(ctx, key, target); err != nil {
		s.log.Error().Str("conversation_key", key).Err(err).Msg("history write failed")
	}

	shouldPush := event != ""
	threshold := DefaultThreshold
	if ev, ok := cfg.EventByName(event); ok && ev.Threshold != nil {
		threshold = *ev.Threshold
	}
	s.log.Info().
		Str("container_id", req.ContainerID).
		Str("event", event).
		Float64("threshold", threshold).
		Bool("should_push", shouldPush).
		Msg("classification complete")

	resp := ClassifyResponse{ShouldPush: shouldPush, Sender: req.Sender}
	if event != "" {
		resp.Event = &event
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) push(c echo.Context) error {
	var req PushRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	if req.Event == "" || !req.Sender.Valid() {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "event and sender are required"})
	}

	entry := pushlog.Entry{
		Event:      req.Event,
		Properties: req.Properties,
		Sender:     req.Sender,
		ReceivedAt: time.Now().UTC(),
	}
	if err := s.pushes.Append(c.Request().Context(), entry); err != nil {
		// Best-effort bookkeeping: the push is still acknowledged.
		s.log.Error().Str("event", req.Event).Err(err).Msg("push log append failed")
	}

	s.log.Info().Str("event", req.Event).Str("sender", string(req.Sender)).Msg("push received")
	return c.JSON(http.StatusOK, PushResponse{Status: "received", EventData: req})
}

func (s *Server) healthCheck(c echo.Context) error {
	resp := HealthResponse{Status: "ok"}

	if s.health.LLMConfigured {
		resp.LLMStatus = "available"
	} else {
		resp.LLMStatus = "unavailable (api key missing)"
	}

	switch {
	case !s.health.TracingEnabled:
		resp.TracingStatus = "disabled"
	case s.health.TracingKeySet:
		resp.TracingStatus = "enabled (api key found)"
	default:
		resp.TracingStatus = "enabled (api key missing)"
	}
	if s.health.TracingEnabled {
		project := s.health.TracingProject
		resp.TracingProject = &project
	}

	return c.JSON(http.StatusOK, resp)
}

// originHostname extracts the hostname from an Origin header value, or ""
// when the header is absent or unparseable.
func originHostname(origin string) string {
	if origin == "" {
		return ""
	}
	u, err := url.Parse(origin)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
