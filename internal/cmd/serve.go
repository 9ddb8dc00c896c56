package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/damacus/bucket-explorer/internal/handlers"
	"github.com/damacus/bucket-explorer/internal/metrics"
	customMiddleware "github.com/damacus/bucket-explorer/internal/middleware"
	"github.com/damacus/bucket-explorer/internal/profiles"
	"github.com/damacus/bucket-explorer/internal/renderer"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the web UI and JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), a)
		},
	}
}

// serverDeps are the collaborators wired into the HTTP server
type serverDeps struct {
	gateway     handlers.Gateway
	store       *profiles.Store
	registry    *prometheus.Registry
	logger      *zap.Logger
	pageSize    int
	accessToken string
}

func runServe(ctx context.Context, a *app) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeKV, err := a.openProfiles(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeKV(); err != nil {
			a.logger.Warn("failed to close storage", zap.Error(err))
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	gw, err := a.gateway(metrics.New(reg))
	if err != nil {
		return err
	}

	e := newServer(serverDeps{
		gateway:     gw,
		store:       store,
		registry:    reg,
		logger:      a.logger,
		pageSize:    a.cfg.Browse.PageSize,
		accessToken: a.cfg.Server.AccessToken,
	})

	addr := a.cfg.Server.Addr()
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server listening",
			zap.String("addr", "http://"+addr),
			zap.String("store_driver", a.cfg.Store.Driver),
			zap.Bool("access_token", a.cfg.Server.AccessToken != ""))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func newServer(deps serverDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handlers.HTTPErrorHandler(deps.logger)

	sessions := handlers.NewBrowseSessions(deps.gateway, deps.store, deps.pageSize, deps.logger.Named("navigator"))
	s3Handler := handlers.NewS3Handler(deps.gateway, deps.logger)
	profilesHandler := handlers.NewProfilesHandler(deps.store, sessions, deps.logger)
	browseHandler := handlers.NewBrowseHandler(sessions, deps.store)
	indexHandler := handlers.NewIndexHandler(deps.store, sessions)

	// Middleware
	e.Use(customMiddleware.RequestLogger(deps.logger.Named("http")))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("2M"))
	e.Use(customMiddleware.SecurityHeaders())
	e.Use(customMiddleware.CSRF())
	// Guards /api/* and /metrics when a token is configured
	e.Use(customMiddleware.AccessToken(deps.accessToken))

	// Template Renderer
	e.Renderer = renderer.New()

	// Public Routes
	e.GET("/health", handlers.Health)
	e.GET("/", indexHandler.Index)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(deps.registry, promhttp.HandlerOpts{})))

	// Stateless S3 RPC
	s3 := e.Group("/api/s3")
	s3.POST("/test-connection", s3Handler.TestConnection)
	s3.POST("/list-buckets", s3Handler.ListBuckets)
	s3.POST("/list-objects", s3Handler.ListObjects)
	s3.POST("/download-object", s3Handler.DownloadObject)

	// Profiles
	loadProfile := handlers.ProfileLoader(deps.store)
	p := e.Group("/api/profiles")
	p.GET("", profilesHandler.List)
	p.POST("", profilesHandler.Save)
	p.GET("/selected", profilesHandler.Selected)
	p.PUT("/selected", profilesHandler.Select)
	p.DELETE("/:id", profilesHandler.Delete)
	p.GET("/:id/view", profilesHandler.GetView, loadProfile)
	p.PATCH("/:id/view", profilesHandler.UpdateView, loadProfile)

	// Server-side browsing sessions
	b := e.Group("/api/browse/:id", loadProfile)
	b.GET("", browseHandler.Snapshot)
	b.POST("/open-bucket", browseHandler.OpenBucket)
	b.POST("/open-folder", browseHandler.OpenFolder)
	b.POST("/up", browseHandler.Up)
	b.POST("/goto", browseHandler.Goto)
	b.POST("/next", browseHandler.Next)
	b.POST("/first", browseHandler.First)
	b.POST("/refresh", browseHandler.Refresh)
	b.POST("/resume", browseHandler.Resume)
	b.POST("/manual-bucket", browseHandler.SetManualBucket)

	return e
}
