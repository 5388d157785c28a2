// Package app is the application bootstrap and dependency injection root.
// It holds the shared infrastructure (DB pool, Redis client, realtime
// publisher, Echo instance) and wires together all plugins.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/keyxmakerx/qollect/internal/apperror"
	"github.com/keyxmakerx/qollect/internal/config"
	"github.com/keyxmakerx/qollect/internal/middleware"
	"github.com/keyxmakerx/qollect/internal/plugins/auth"
	"github.com/keyxmakerx/qollect/internal/realtime"
)

// App holds all shared dependencies and the Echo HTTP server instance.
// Created once at startup in main.go and used to register all routes.
type App struct {
	// Config holds the loaded application configuration.
	Config *config.Config

	// DB is the MariaDB connection pool shared by all plugins.
	DB *sql.DB

	// Redis is the Redis client backing the realtime feed.
	Redis *redis.Client

	// Publisher receives one event per committed write.
	Publisher realtime.Publisher

	// Keys is the API key service, available after RegisterRoutes.
	Keys auth.KeyService

	// Echo is the HTTP server instance.
	Echo *echo.Echo

	// limiter throttles the API group per client IP.
	limiter *middleware.RateLimiter

	// checks are run by /healthz, keyed by dependency name.
	checks map[string]func(context.Context) error
}

// New creates a new App instance with the given dependencies and configures
// the Echo server with global middleware and error handling. The rate
// limiter's cleanup goroutine stops when ctx is cancelled.
func New(ctx context.Context, cfg *config.Config, db *sql.DB, rdb *redis.Client, pub realtime.Publisher) *App {
	e := echo.New()

	// Disable Echo's default banner and startup message -- we log our own.
	e.HideBanner = true
	e.HidePort = true

	// c.RealIP() only honors forwarding headers from these networks, so the
	// rate limiter keys on the real client.
	middleware.TrustedProxies(e, cfg.TrustedProxies)

	app := &App{
		Config:    cfg,
		DB:        db,
		Redis:     rdb,
		Publisher: pub,
		Echo:      e,
		limiter:   middleware.NewRateLimiter(ctx, cfg.RateLimitPerMinute, time.Minute),
		checks:    make(map[string]func(context.Context) error),
	}
	if db != nil {
		app.checks["mariadb"] = db.PingContext
	}
	if rdb != nil {
		app.checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	// Register global middleware in order of execution.
	app.setupMiddleware()

	// Register the custom error handler that maps AppErrors to HTTP responses.
	e.HTTPErrorHandler = app.errorHandler

	return app
}

// setupMiddleware registers global middleware on the Echo instance.
// Order matters: outermost (recovery) runs first.
func (a *App) setupMiddleware() {
	// Panic recovery -- must be outermost to catch panics from all other middleware.
	a.Echo.Use(middleware.Recovery())

	// Request logging -- log every request with method, path, status, latency.
	a.Echo.Use(middleware.RequestLogger())

	// Security headers for a JSON-only API.
	a.Echo.Use(middleware.SecurityHeaders())

	// CORS -- browser-hosted sync clients call the API cross-origin.
	a.Echo.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: []string{a.Config.BaseURL},
	}))
}

// errorHandler is the custom Echo error handler. Every error is rendered
// as {"type", "message"} JSON with the matching status code, so clients
// can tell rejections (4xx) from failures (5xx).
func (a *App) errorHandler(err error, c echo.Context) {
	// Don't double-write if response is already committed.
	if c.Response().Committed {
		return
	}

	body := errorBody{
		Type:    "internal_error",
		Message: defaultErrorMessage(http.StatusInternalServerError),
	}
	code := http.StatusInternalServerError

	var appErr *apperror.AppError
	var echoErr *echo.HTTPError
	switch {
	case errors.As(err, &appErr):
		code = appErr.Code
		body = errorBody{Type: appErr.Type, Message: appErr.Message}

		// Log internal errors with the underlying cause.
		if appErr.Internal != nil {
			slog.Error("internal error",
				slog.String("type", appErr.Type),
				slog.String("message", appErr.Message),
				slog.Any("internal", appErr.Internal),
				slog.String("path", c.Request().URL.Path),
			)
		}

	case errors.As(err, &echoErr):
		// Echo's built-in HTTP errors (404 from the router, 405, ...).
		code = echoErr.Code
		body.Type = errorType(code)
		if msg, ok := echoErr.Message.(string); ok {
			body.Message = msg
		} else {
			body.Message = defaultErrorMessage(code)
		}

	default:
		slog.Error("unhandled error",
			slog.Any("error", err),
			slog.String("path", c.Request().URL.Path),
		)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	if err := c.JSON(code, body); err != nil {
		slog.Warn("failed to write error response", slog.Any("error", err))
	}
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// errorType returns the machine-readable type for a status code that did
// not come from an AppError.
func errorType(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusRequestEntityTooLarge:
		return "payload_too_large"
	case http.StatusTooManyRequests:
		return "rate_limited"
	}
	if code >= 500 {
		return "internal_error"
	}
	return "bad_request"
}

// defaultErrorMessage returns a user-friendly message for common HTTP status codes
// when no specific message was provided by the error.
func defaultErrorMessage(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "The request was invalid or cannot be processed."
	case http.StatusUnauthorized:
		return "A valid API key is required."
	case http.StatusForbidden:
		return "This API key is not allowed to perform this action."
	case http.StatusNotFound:
		return "The requested resource does not exist."
	case http.StatusMethodNotAllowed:
		return "This action is not allowed."
	case http.StatusTooManyRequests:
		return "Too many requests. Please slow down."
	case http.StatusServiceUnavailable:
		return "The service is temporarily unavailable. Please try again later."
	default:
		return "An unexpected error occurred."
	}
}

// Start begins listening for HTTP requests on the configured port.
func (a *App) Start() error {
	addr := fmt.Sprintf(":%d", a.Config.Port)
	slog.Info("starting Qollect API server",
		slog.String("addr", addr),
		slog.String("env", a.Config.Env),
	)
	return a.Echo.Start(addr)
}
