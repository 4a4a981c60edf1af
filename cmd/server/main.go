package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/pflag"
	"gorm.io/gorm"

	"github.com/Skotchmaster/tasktracker/internal/config"
	"github.com/Skotchmaster/tasktracker/internal/db"
	"github.com/Skotchmaster/tasktracker/internal/events"
	"github.com/Skotchmaster/tasktracker/internal/httpserver"
	"github.com/Skotchmaster/tasktracker/internal/logging"
	"github.com/Skotchmaster/tasktracker/internal/metrics"
	authmw "github.com/Skotchmaster/tasktracker/internal/middleware/auth"
	loggingmw "github.com/Skotchmaster/tasktracker/internal/middleware/logging"
	"github.com/Skotchmaster/tasktracker/internal/repo"
	"github.com/Skotchmaster/tasktracker/internal/service"
	"github.com/Skotchmaster/tasktracker/internal/tokens"
)

func main() {
	cfg, err := config.Load(os.Args[1:], os.Getenv)
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName, "env", cfg.Environment)
	slog.SetDefault(logger)

	gdb, err := openDB(cfg)
	if err != nil {
		log.Fatalf("db open: %v", err)
	}

	migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = db.Migrate(migrateCtx, gdb)
	cancel()
	if err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	producer := events.New(cfg.KafkaBrokers)
	if len(cfg.KafkaBrokers) == 0 {
		logger.Info("kafka disabled, events are dropped")
	}

	tk := tokens.NewService(cfg.JWTAccessSecret, cfg.JWTRefreshSecret)
	r := &repo.GormRepo{DB: gdb}

	e := echo.New()
	e.HideBanner = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(metrics.Middleware())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	e.Use(echomw.Secure())
	e.Use(echomw.BodyLimit("1M"))

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{
			Svc: &service.AuthService{
				Repo:    r,
				Tokens:  tk,
				Events:  producer,
				Metrics: metrics.Prometheus{},
			},
			SecureCookie: cfg.IsProduction(),
		},
		ProjectHandler: &httpserver.ProjectHTTP{
			Projects: &service.ProjectService{Repo: r, Events: producer},
			Tasks:    &service.TaskService{Repo: r, Events: producer},
		},
		Auth:           authmw.NewBearer(tk),
		AllowedOrigins: cfg.CORSOrigins,
		Ready:          func(ctx context.Context) error { return db.Ping(ctx, gdb) },
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}

	if sqlDB, err := gdb.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close", "error", err)
		}
	}

	if err := producer.Close(); err != nil {
		logger.Error("kafka close", "error", err)
	}

	logger.Info("stopped")
}

func openDB(cfg config.Config) (*gorm.DB, error) {
	if cfg.SQLitePath != "" {
		return db.OpenSQLite(cfg.SQLitePath)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return db.Open(ctx, cfg.DatabaseURL)
}
