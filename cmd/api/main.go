package main

// @title Freelance CRM API
// @version 1.0
// @description Contacts, companies, leads, ideas, projects, tasks, events and assets for a single freelancer.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/jordanlanch/freelancecrm/config"
	"github.com/jordanlanch/freelancecrm/pkg/activity"
	"github.com/jordanlanch/freelancecrm/pkg/api/handlers"
	"github.com/jordanlanch/freelancecrm/pkg/assets"
	"github.com/jordanlanch/freelancecrm/pkg/companies"
	"github.com/jordanlanch/freelancecrm/pkg/contacts"
	"github.com/jordanlanch/freelancecrm/pkg/dashboard"
	"github.com/jordanlanch/freelancecrm/pkg/database"
	"github.com/jordanlanch/freelancecrm/pkg/events"
	"github.com/jordanlanch/freelancecrm/pkg/export"
	"github.com/jordanlanch/freelancecrm/pkg/ideas"
	importpkg "github.com/jordanlanch/freelancecrm/pkg/import"
	"github.com/jordanlanch/freelancecrm/pkg/leads"
	"github.com/jordanlanch/freelancecrm/pkg/logger"
	"github.com/jordanlanch/freelancecrm/pkg/metrics"
	custommiddleware "github.com/jordanlanch/freelancecrm/pkg/middleware"
	"github.com/jordanlanch/freelancecrm/pkg/projects"
	"github.com/jordanlanch/freelancecrm/pkg/tasks"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const version = "0.1.0"

// multipartOverhead is added to the upload ceiling for the request body
// limit so a file exactly at the ceiling still fits with its form fields.
const multipartOverhead = 1 << 20

func main() {
	cfg := config.Load()
	log := logger.NewWithWriter(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	log.Info("configuration loaded", "environment", cfg.APIEnvironment)

	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.SentryEnvironment,
			Release:          "freelancecrm@" + version,
			AttachStacktrace: true,
		})
		if err != nil {
			log.Warn("failed to initialize sentry", "error", err)
		} else {
			log.Info("sentry initialized", "environment", cfg.SentryEnvironment)
			defer sentry.Flush(2 * time.Second)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := database.Open(ctx, cfg.DatabasePath, database.DefaultPoolConfig(), log)
	if err != nil {
		return err
	}
	defer db.Close()

	storage, err := newStorage(ctx, cfg)
	if err != nil {
		return err
	}
	log.Info("asset storage ready", "type", cfg.StorageType)

	m := metrics.New()

	act := activity.NewService(db, m.RecordActivity)
	companySvc := companies.NewService(db, act)
	contactSvc := contacts.NewService(db, act)
	leadSvc := leads.NewService(db, act)
	ideaSvc := ideas.NewService(db, act)
	projectSvc := projects.NewService(db, act)
	taskSvc := tasks.NewService(db, act)
	eventSvc := events.NewService(db, act, taskSvc)
	pipeline := assets.NewPipeline(db, act, storage, m, log, cfg.MaxUploadBytes)
	reconciler := importpkg.NewReconciler(db, contactSvc, m, log, cfg.MaxUploadBytes)
	exporter := export.NewService(contactSvc, companySvc, m, cfg.DefaultPhoneRegion)
	dash := dashboard.NewService(db, dashboard.Services{
		Activity:  act,
		Companies: companySvc,
		Contacts:  contactSvc,
		Leads:     leadSvc,
		Projects:  projectSvc,
		Tasks:     taskSvc,
		Events:    eventSvc,
		Assets:    pipeline,
	}, cfg.DefaultPhoneRegion)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	rateLimiter := custommiddleware.NewRateLimiter(cfg.RateLimitRequestsPerMinute, cfg.RateLimitBurst)
	go rateLimiter.Run(ctx)

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			args := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				log.Warn("request failed", append(args, "error", v.Error)...)
				return nil
			}
			log.Debug("request", args...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	if cfg.SentryDSN != "" {
		e.Use(sentryecho.New(sentryecho.Options{Repanic: true}))
	}
	e.Use(m.Middleware())
	e.Use(middleware.CORSWithConfig(custommiddleware.CORSConfig(cfg.CORSAllowedOrigins)))
	e.Use(custommiddleware.SecurityHeaders(custommiddleware.DefaultSecurityHeadersConfig()))
	e.Use(rateLimiter.RateLimitMiddleware())
	e.Use(middleware.BodyLimit(strconv.FormatInt(cfg.MaxUploadBytes+multipartOverhead, 10)))

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"name":        "Freelance CRM API",
			"version":     version,
			"status":      "running",
			"environment": cfg.APIEnvironment,
			"timestamp":   time.Now().Unix(),
		})
	})

	e.GET("/health", func(c echo.Context) error {
		pingCtx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		m.UpdateDBConnections(db.Stats().OpenConnections)
		if err := db.Ping(pingCtx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]any{
				"status":   "unhealthy",
				"database": "down",
			})
		}
		return c.JSON(http.StatusOK, map[string]any{
			"status":   "healthy",
			"database": "up",
		})
	})

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	maxBytes := cfg.MaxUploadBytes
	handlers.Register(e, e.Group("/api/v1"), handlers.Handlers{
		Dashboard: handlers.NewDashboardHandler(dash, log),
		Activity:  handlers.NewActivityHandler(act, log),
		Companies: handlers.NewCompanyHandler(companySvc, contactSvc, log),
		Contacts:  handlers.NewContactHandler(contactSvc, dash, reconciler, exporter, maxBytes, log),
		Leads:     handlers.NewLeadHandler(leadSvc, log),
		Ideas:     handlers.NewIdeaHandler(ideaSvc, log),
		Projects:  handlers.NewProjectHandler(projectSvc, taskSvc, pipeline, dash, maxBytes, log),
		Tasks:     handlers.NewTaskHandler(taskSvc, log),
		Events:    handlers.NewEventHandler(eventSvc, log),
		Assets:    handlers.NewAssetHandler(pipeline, maxBytes, log),
	})

	address := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	log.Info("api starting",
		"address", address,
		"rate_limit_rpm", cfg.RateLimitRequestsPerMinute,
		"rate_limit_burst", cfg.RateLimitBurst,
		"max_upload_bytes", cfg.MaxUploadBytes,
		"cors_origins", cfg.CORSAllowedOrigins,
	)

	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("server gracefully stopped")
	return nil
}

func newStorage(ctx context.Context, cfg *config.Config) (assets.Storage, error) {
	switch cfg.StorageType {
	case "s3":
		return assets.NewS3Storage(ctx, assets.S3Config{
			AWSAccessKeyID:     cfg.AWSAccessKeyID,
			AWSSecretAccessKey: cfg.AWSSecretAccessKey,
			AWSRegion:          cfg.AWSRegion,
			Bucket:             cfg.S3Bucket,
			Prefix:             cfg.S3Prefix,
			Endpoint:           cfg.S3Endpoint,
		})
	case "local", "":
		return assets.NewLocalStorage(cfg.UploadDir)
	}
	return nil, fmt.Errorf("unknown storage type %q", cfg.StorageType)
}
