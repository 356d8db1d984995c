// Package httpapi exposes the translation workflow over a JSON HTTP API.
// Handlers stay thin: request shape checks happen here, every domain rule
// lives in the workflow core.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/PlumyCat/trad-bot-src/internal/fault"
	"github.com/PlumyCat/trad-bot-src/internal/state"
	"github.com/PlumyCat/trad-bot-src/internal/translation"
	"github.com/PlumyCat/trad-bot-src/internal/workflow"
)

// Coordinator is the workflow surface the API depends on.
type Coordinator interface {
	Submit(ctx context.Context, req workflow.SubmitRequest) (state.Translation, error)
	SubmitExisting(ctx context.Context, objectName, targetLanguage, ownerID string) (state.Translation, error)
	Cancel(ctx context.Context, id string) (workflow.CancelOutcome, error)
	Status(ctx context.Context, handle string) (translation.StatusReport, error)
	ResolveResult(ctx context.Context, objectName, targetLanguage, ownerID string) (workflow.Result, error)
	ActiveCount(ownerID string) int
}

// ServiceAvailability reports which external collaborators carry working
// configuration. Surfaced verbatim by the health endpoint.
type ServiceAvailability struct {
	Translator bool
	Storage    bool
	Delivery   bool
}

type Options struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	Services        ServiceAvailability
}

type Server struct {
	coordinator Coordinator
	logger      zerolog.Logger
	opts        Options
}

func NewServer(coordinator Coordinator, logger zerolog.Logger, opts Options) *Server {
	addr := strings.TrimSpace(opts.Addr)
	if addr == "" {
		addr = ":8080"
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 30 * time.Second
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 60 * time.Second
	}
	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	return &Server{
		coordinator: coordinator,
		logger:      logger,
		opts: Options{
			Addr:            addr,
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
			Services:        opts.Services,
		},
	}
}

// Handler builds the routed echo instance. Exposed separately from Start so
// tests can drive it with httptest.
func (s *Server) Handler() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       3600,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Err(v.Error).
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Str("remote_ip", v.RemoteIP).
					Str("request_id", v.RequestID).
					Msg("http request failed")
				return nil
			}

			s.logger.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("http request")
			return nil
		},
	}))

	api := e.Group("/api/v1")
	api.GET("/health", s.handleHealth)
	api.GET("/languages", s.handleLanguages)
	api.GET("/formats", s.handleFormats)
	api.POST("/translations", s.handleSubmit)
	api.POST("/translations/existing", s.handleSubmitExisting)
	api.GET("/translations/active", s.handleActiveCount)
	api.GET("/translations/:handle/status", s.handleStatus)
	api.DELETE("/translations/:id", s.handleCancel)
	api.POST("/results", s.handleResult)

	return e
}

func (s *Server) Start(ctx context.Context) error {
	if s == nil || s.coordinator == nil {
		return fmt.Errorf("server is not initialized")
	}

	e := s.Handler()

	httpServer := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      e,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
			s.logger.Error().Err(shutdownErr).Msg("server shutdown failed")
		}
	}()

	s.logger.Info().Str("addr", s.opts.Addr).Msg("tradbot api server started")

	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	s.logger.Info().Msg("tradbot api server stopped")
	return nil
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		switch v := he.Message.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				message = v
			}
		default:
			if text := strings.TrimSpace(http.StatusText(status)); text != "" {
				message = text
			}
		}
	} else if err != nil {
		message = err.Error()
	}

	if status >= 500 {
		_ = internalError(c, "Internal server error")
		return
	}
	_ = fail(c, status, message, nil)
}

// respondDomainError maps the workflow error taxonomy onto HTTP statuses.
func (s *Server) respondDomainError(c echo.Context, err error) error {
	var verr *fault.ValidationError
	if errors.As(err, &verr) {
		return failValidation(c, verr.Fields)
	}
	var nferr *fault.NotFoundError
	if errors.As(err, &nferr) {
		return failNotFound(c, nferr.Error())
	}
	if fault.IsUpstream(err) {
		s.logger.Error().Err(err).Msg("upstream call failed")
		return failUpstream(c, err.Error())
	}
	s.logger.Error().Err(err).Msg("request failed")
	return internalError(c, "Internal server error")
}
