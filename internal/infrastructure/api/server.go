package api

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/irwan019/GrkApp/config"
	"github.com/irwan019/GrkApp/internal/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

type APIServer struct {
	server     *http.Server
	router     *gin.Engine
	handler    *APIHandler
	middleware *Middleware
	metrics    http.Handler
	config     *config.Config
	logger     logger.Logger
	errs       chan error
}

// NewAPIServer builds the router right away; Start only binds the port.
func NewAPIServer(handler *APIHandler, middleware *Middleware, metrics http.Handler, cfg *config.Config, log logger.Logger) (*APIServer, error) {
	gin.SetMode(gin.ReleaseMode)
	if cfg.App.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}

	s := &APIServer{
		router:     gin.New(),
		handler:    handler,
		middleware: middleware,
		metrics:    metrics,
		config:     cfg,
		logger:     logger.Component(log, "api_server"),
		errs:       make(chan error, 1),
	}

	if err := s.setupRoutes(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *APIServer) setupRoutes() error {
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}
	s.router.SetHTMLTemplate(tmpl)

	s.router.Use(s.middleware.Recovery())
	s.router.Use(s.middleware.Logging())

	s.router.GET("/", BasePath(s.config.API.BasePath), s.middleware.NoCache(), s.handler.Page)
	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics))
	}

	api := s.router.Group(s.config.API.BasePath)

	api.Use(s.middleware.CORS())
	api.Use(s.middleware.RateLimit())
	api.Use(s.middleware.NoCache())

	api.GET("/health", s.handler.HealthCheck)
	api.GET("/locations", s.handler.GetLocations)
	api.GET("/about", s.handler.GetAbout)

	view := api.Group("/view")
	{
		view.GET("", s.handler.GetView)
		view.PUT("", s.handler.SetView)
		view.POST("/refresh", s.handler.RefreshView)
		view.GET("/chart.png", s.handler.GetChart)
		view.GET("/export", s.handler.ExportView)
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   http.StatusText(http.StatusNotFound),
			Message: fmt.Sprintf("Route %s not found", c.Request.URL.Path),
			Time:    time.Now(),
		})
	})
	return nil
}

func (s *APIServer) Handler() http.Handler { return s.router }

func (s *APIServer) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.App.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		s.logger.Infof("Starting API server on port %d", s.config.App.Port)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorf("API server failed: %v", err)
			s.errs <- err
		}
	}()

	return nil
}

// Errors delivers a listen failure after Start.
func (s *APIServer) Errors() <-chan error { return s.errs }

func (s *APIServer) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.logger.Info("Shutting down API server...")

	timeout := s.config.App.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server gracefully: %w", err)
	}

	s.logger.Info("API server stopped")
	return nil
}
