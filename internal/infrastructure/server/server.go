package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/taskmaster/todos/docs"
	httpHandlers "github.com/taskmaster/todos/internal/adapters/http"
	"github.com/taskmaster/todos/internal/app"
	"github.com/taskmaster/todos/internal/infrastructure/config"
	"github.com/taskmaster/todos/internal/infrastructure/logger"
)

// Server represents the HTTP server
type Server struct {
	echo   *echo.Echo
	config *config.Config
	logger *logger.Logger
	app    *app.App
}

// New creates a new server instance on top of a wired app.
func New(cfg *config.Config, a *app.App, appLogger *logger.Logger) (*Server, error) {
	e := echo.New()

	e.Validator = httpHandlers.NewValidator()

	// Configure Echo
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Server.IdleTimeout = cfg.Server.IdleTimeout

	e.HTTPErrorHandler = customErrorHandler(appLogger)

	todoHandler := httpHandlers.NewTodoHandler(a.Todos, appLogger)
	listHandler := httpHandlers.NewListHandler(a.Lists, a.Todos, appLogger)

	server := &Server{
		echo:   e,
		config: cfg,
		logger: appLogger,
		app:    a,
	}

	server.setupMiddleware()
	if cfg.Metrics.Enabled {
		server.setupMetrics()
	}
	server.setupRoutes(todoHandler, listHandler)

	return server, nil
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(todoHandler *httpHandlers.TodoHandler, listHandler *httpHandlers.ListHandler) {
	// Health check routes
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/health/detailed", s.detailedHealthCheck)
	s.echo.GET("/ready", s.readinessCheck)

	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	v1 := s.echo.Group("/api/v1")

	todos := v1.Group("/todos")
	todos.GET("", todoHandler.ListTodos)
	todos.POST("", todoHandler.CreateTodo)
	todos.GET("/:id", todoHandler.GetTodo)
	todos.PATCH("/:id", todoHandler.UpdateTodo)
	todos.DELETE("/:id", todoHandler.DeleteTodo)
	todos.POST("/:id/toggle", todoHandler.ToggleTodo)
	todos.POST("/:id/pending", todoHandler.AddPending)
	todos.DELETE("/:id/pending", todoHandler.RemovePending)

	v1.GET("/view", listHandler.GetView)
	v1.PUT("/view", listHandler.UpdateView)

	lists := v1.Group("/lists")
	lists.GET("", listHandler.ListLists)
	lists.POST("", listHandler.CreateList)
	lists.PUT("/selected", listHandler.SelectList)
	lists.PATCH("/:id", listHandler.UpdateList)
	lists.DELETE("/:id", listHandler.DeleteList)
}

// setupMetrics instruments every request and exposes the app registry.
func (s *Server) setupMetrics() {
	s.echo.Use(newHTTPMetrics(s.app.Registry).middleware)

	path := s.config.Metrics.Path
	if path == "" {
		path = "/metrics"
	}
	metricsHandler := promhttp.HandlerFor(s.app.Registry, promhttp.HandlerOpts{})
	s.echo.GET(path, echo.WrapHandler(metricsHandler))
}

// Health check handlers
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) detailedHealthCheck(c echo.Context) error {
	status := "ok"
	checks := make(map[string]interface{})

	if err := s.app.DB.HealthCheck(c.Request().Context()); err != nil {
		status = "error"
		checks["database"] = map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		}
	} else {
		checks["database"] = map[string]interface{}{
			"status": "ok",
			"stats":  s.app.DB.GetConnectionInfo(),
		}
	}

	checks["store"] = map[string]interface{}{
		"todos":          len(s.app.Todos.Todos()),
		"lists":          len(s.app.Lists.Lists()),
		"pending_writes": s.app.Writer.Len(),
	}

	response := map[string]interface{}{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339),
		"checks": checks,
		"version": map[string]string{
			"app": s.config.App.Version,
		},
	}

	if status == "ok" {
		return c.JSON(http.StatusOK, response)
	}
	return c.JSON(http.StatusServiceUnavailable, response)
}

func (s *Server) readinessCheck(c echo.Context) error {
	if err := s.app.DB.HealthCheck(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "database_not_ready",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Start starts the HTTP server
func (s *Server) Start(address string) error {
	s.logger.Infow("Starting server", "address", address)
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")
	return s.echo.Shutdown(ctx)
}

// ServeHTTP lets the server be driven directly, e.g. by httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// customErrorHandler handles HTTP errors
func customErrorHandler(logger *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var (
			code = http.StatusInternalServerError
			msg  interface{}
		)

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			msg = he.Message
			if he.Internal != nil {
				err = fmt.Errorf("%v, %v", err, he.Internal)
			}
		} else {
			msg = httpHandlers.ErrorResponse{Error: http.StatusText(code)}
		}

		if s, ok := msg.(string); ok {
			msg = httpHandlers.ErrorResponse{Error: s}
		}

		if code >= http.StatusInternalServerError {
			logger.Errorw("Internal server error", "error", err, "path", c.Request().URL.Path)
		}

		// Send response
		if !c.Response().Committed {
			if c.Request().Method == http.MethodHead {
				err = c.NoContent(code)
			} else {
				err = c.JSON(code, msg)
			}
			if err != nil {
				logger.Errorw("Error sending response", "error", err)
			}
		}
	}
}

var _ http.Handler = (*Server)(nil)
