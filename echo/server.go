// Package echo serves the extraction service over HTTP using labstack/echo.
package echo

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/fwojciec/gleaner"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// Defaults for Config.
const (
	DefaultMaxTimeout = 60 * time.Second
	DefaultBodyLimit  = "64K"
)

// Config configures a Server. Zero fields take the defaults above.
type Config struct {
	// MaxTimeout caps the per-request extraction timeout and is used when a
	// request does not set one.
	MaxTimeout time.Duration

	// BodyLimit bounds request bodies, e.g. "64K".
	BodyLimit string

	// RateLimit is the allowed requests per second per client IP.
	// Zero disables limiting.
	RateLimit float64
}

// Server exposes an ExtractionService as a JSON API.
type Server struct {
	echo    *echo.Echo
	service gleaner.ExtractionService
	config  Config
}

// NewServer creates a Server for service, logging requests to logger.
func NewServer(service gleaner.ExtractionService, logger *slog.Logger, config Config) *Server {
	if config.MaxTimeout <= 0 {
		config.MaxTimeout = DefaultMaxTimeout
	}
	if config.BodyLimit == "" {
		config.BodyLimit = DefaultBodyLimit
	}

	s := &Server{
		echo:    echo.New(),
		service: service,
		config:  config,
	}
	s.echo.HideBanner = true
	s.echo.HidePort = true

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/health"
		},
		LogStatus:   true,
		LogURI:      true,
		LogError:    true,
		LogMethod:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				logger.ErrorContext(c.Request().Context(), "request failed", append(attrs, "err", v.Error)...)
				return nil
			}
			logger.InfoContext(c.Request().Context(), "request completed", attrs...)
			return nil
		},
	}))
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.BodyLimit(config.BodyLimit))
	if config.RateLimit > 0 {
		s.echo.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(config.RateLimit))))
	}

	s.echo.POST("/api/extract", s.handleExtract)
	s.echo.POST("/api/validate", s.handleValidate)
	s.echo.GET("/health", s.handleHealth)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server, waiting for in-flight requests until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

type extractRequest struct {
	URL     string `json:"url"`
	Options struct {
		Language          string `json:"language"`
		IncludeTimestamps bool   `json:"includeTimestamps"`
		Format            string `json:"format"`
		TimeoutMs         int64  `json:"timeoutMs"`
	} `json:"options"`
}

func (s *Server) handleExtract(c echo.Context) error {
	var req extractRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	format := strings.ToLower(strings.TrimSpace(req.Options.Format))
	if format != "" && format != gleaner.FormatPlain && format != gleaner.FormatMarkdown {
		return echo.NewHTTPError(http.StatusBadRequest, "format must be plain or markdown")
	}

	timeout := time.Duration(req.Options.TimeoutMs) * time.Millisecond
	if timeout <= 0 || timeout > s.config.MaxTimeout {
		timeout = s.config.MaxTimeout
	}

	result := s.service.Extract(c.Request().Context(), req.URL, gleaner.Options{
		Language:          strings.TrimSpace(req.Options.Language),
		IncludeTimestamps: req.Options.IncludeTimestamps,
		Format:            format,
		Timeout:           timeout,
	})
	return c.JSON(StatusCode(result), result)
}

type validateRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleValidate(c echo.Context) error {
	var req validateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return c.JSON(http.StatusOK, s.service.Validate(req.URL))
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// StatusCode maps an extraction result to its HTTP status.
func StatusCode(result gleaner.ExtractionResult) int {
	if result.Success {
		return http.StatusOK
	}
	if result.Error == nil {
		return http.StatusInternalServerError
	}
	switch result.Error.Code {
	case gleaner.EINVALIDURL, gleaner.EUNSUPPORTEDPLATFORM:
		return http.StatusBadRequest
	case gleaner.ENOTFOUND, gleaner.ENOSUBTITLES:
		return http.StatusNotFound
	case gleaner.EACCESSDENIED:
		return http.StatusForbidden
	case gleaner.ERATELIMITED:
		return http.StatusTooManyRequests
	case gleaner.ETIMEOUT:
		return http.StatusGatewayTimeout
	case gleaner.ETOOLARGE:
		return http.StatusRequestEntityTooLarge
	case gleaner.ENETWORK:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
