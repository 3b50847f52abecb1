package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"keytrace/internal/aggregate"
	"keytrace/internal/capture"
	"keytrace/internal/config"
	"keytrace/internal/database"
	logger "keytrace/internal/logging"
	"keytrace/internal/models"
	"keytrace/internal/monitoring"
	"keytrace/internal/repository"
	"keytrace/internal/router"
	"keytrace/internal/services"
	"keytrace/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	projectRoot := os.Getenv("KEYTRACE_ROOT")
	if projectRoot == "" {
		projectRoot = "."
	}

	// The logger needs the logging section, so read the config once before it exists.
	bootstrap, err := config.Load(projectRoot)
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log, err := logger.Init(projectRoot, bootstrap.Logging)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	if err := config.Init(projectRoot, log); err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	cfg := config.Current()

	db, err := database.Open(cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)
	if err := database.Migrate(db, log); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}

	catalog := models.DefaultTaskCatalog()
	if cfg.Tasks.Catalog != "" {
		path := cfg.Tasks.Catalog
		if !filepath.IsAbs(path) {
			path = filepath.Join(projectRoot, path)
		}
		if catalog, err = models.LoadTaskCatalog(path); err != nil {
			log.Fatal("Failed to load task catalog", zap.Error(err))
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := monitoring.New(reg)

	store := repository.NewStore(db)
	registry := capture.NewRegistry(store, capture.Options{
		MaxOutstandingWrites: cfg.Capture.MaxOutstandingWrites,
		Logger:               log,
		Metrics:              metrics,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	idleTimeout := func() time.Duration { return config.Current().Capture.IdleTimeout }
	services.NewScheduler(log, registry, cfg.Capture.SweepInterval, idleTimeout).Start(ctx)

	gin.SetMode(gin.ReleaseMode)
	r := router.Setup(log, cfg.Server, router.Dependencies{
		Registry:  registry,
		Summaries: aggregate.NewService(store, log, metrics),
		Catalog:   catalog,
		Sessions:  session.NewCookieProvider(),
		Gatherer:  reg,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-stop
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Server shutdown failed", zap.Error(err))
		}
	}()

	log.Info("Server listening on http://localhost" + srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("Failed to run Gin server", zap.Error(err))
	}
	// ListenAndServe returns as soon as Shutdown starts; wait for handlers to drain.
	<-done

	// Let in-flight telemetry appends land before the database closes.
	cancel()
	registry.Close()
	log.Info("Server stopped")
}
