package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"premiere/internal/alerts"
	"premiere/internal/config"
	"premiere/internal/daemon"
	"premiere/internal/logging"
	"premiere/internal/services"
	"premiere/internal/tracker"
)

// AlertService is the tracker surface the API exposes.
type AlertService interface {
	Enable(ctx context.Context, userID, userName, titleID string) (string, error)
	Disable(ctx context.Context, userID, titleID string) (string, error)
	Alerts(ctx context.Context, userID string) ([]alerts.Record, error)
	Search(ctx context.Context, userID, query string) ([]tracker.SearchResult, error)
	Dispatch(ctx context.Context, req tracker.ActionRequest) (tracker.ActionReply, error)
}

// DaemonControl is the daemon surface the API exposes.
type DaemonControl interface {
	Status(ctx context.Context) daemon.Status
	RunNow(ctx context.Context, asOf time.Time) (daemon.CycleSummary, error)
}

// Option customizes a Server.
type Option func(*Server)

// WithClock overrides the clock used to default cycle dates.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// Server serves the HTTP API.
type Server struct {
	bind    string
	logger  *slog.Logger
	service AlertService
	daemon  DaemonControl
	loc     *time.Location
	now     func() time.Time

	echo     *echo.Echo
	listener net.Listener
	server   *http.Server
}

// New builds the API server. It does not listen until Start is called.
func New(cfg *config.Config, service AlertService, d DaemonControl, logger *slog.Logger, opts ...Option) (*Server, error) {
	if cfg == nil || service == nil || d == nil {
		return nil, errors.New("api server requires config, alert service, and daemon")
	}
	bind := strings.TrimSpace(cfg.API.Bind)
	if bind == "" {
		return nil, fmt.Errorf("%w: api bind address is empty", services.ErrConfiguration)
	}
	s := &Server{
		bind:    bind,
		logger:  logging.NewComponentLogger(logger, "api"),
		service: service,
		daemon:  d,
		loc:     cfg.Location(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = newRequestValidator()
	e.HTTPErrorHandler = s.handleHTTPError
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
		RequestIDHandler: func(c echo.Context, id string) {
			req := c.Request()
			c.SetRequest(req.WithContext(services.WithRequestID(req.Context(), id)))
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []logging.Attr{
				logging.String("method", v.Method),
				logging.String("uri", v.URI),
				logging.Int("status", v.Status),
				logging.Duration("latency", v.Latency),
				logging.String(logging.FieldCorrelationID, v.RequestID),
			}
			if v.Error != nil {
				attrs = append(attrs, logging.Error(v.Error))
			}
			s.logger.Debug("api request", logging.Args(attrs...)...)
			return nil
		},
	}))

	group := e.Group("/api", bearerAuth(cfg.API.Token))
	group.GET("/status", s.handleStatus)
	group.GET("/search", s.handleSearch)
	group.POST("/alerts", s.handleEnable)
	group.GET("/alerts/:user_id", s.handleListAlerts)
	group.DELETE("/alerts/:user_id/:title_id", s.handleDisable)
	group.POST("/actions", s.handleAction)
	group.POST("/cycle", s.handleCycle)

	s.echo = e
	s.server = &http.Server{
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Handler exposes the router for in-process use.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on the configured address and serves until ctx is done or
// Stop is called.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr returns the bound address once Start has succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down.
func (s *Server) Stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *Server) handleHTTPError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		message := http.StatusText(httpErr.Code)
		if text, ok := httpErr.Message.(string); ok && text != "" {
			message = text
		}
		_ = failure(c, httpErr.Code, "HTTP_ERROR", message, "")
		return
	}
	s.logger.Error("unhandled api error",
		logging.String("path", c.Request().URL.Path),
		logging.String("method", c.Request().Method),
		logging.Error(err),
	)
	_ = failure(c, http.StatusInternalServerError, "INTERNAL_ERROR", services.MessageUnexpected, "")
}

// fail logs err under operation and writes the matching error envelope.
func (s *Server) fail(c echo.Context, operation string, err error) error {
	status, code := classify(err)
	message := services.FailureMessage(err)
	switch status {
	case http.StatusConflict, http.StatusServiceUnavailable:
		if code != "STORE_UNAVAILABLE" {
			message = err.Error()
		}
	}
	logger := logging.WithContext(c.Request().Context(), s.logger)
	if status >= http.StatusInternalServerError {
		logger.Error("api operation failed", logging.Operation(operation), logging.Error(err))
	} else {
		logger.Info("api operation rejected", logging.Operation(operation), logging.Error(err))
	}
	return failure(c, status, code, message, "")
}

func (s *Server) invalid(c echo.Context, err error) error {
	return failure(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request.", err.Error())
}
