package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"finportal/internal/api"
	"finportal/internal/config"
	"finportal/internal/service"
	"finportal/internal/storage"
	"finportal/internal/storage/memory"
	"finportal/internal/storage/postgres"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load()
	if cfg.JWTSecret == "" {
		logger.Error("JWT_SECRET is not set")
		os.Exit(1)
	}

	var store storage.Store
	if cfg.DatabaseURL != "" {
		db, err := postgres.NewDB(cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		store = postgres.NewRepo(db)
		logger.Info("using postgres store")
	} else {
		store = memory.NewStore()
		logger.Warn("DATABASE_URL not set, using in-memory store")
	}

	svc := service.New(store)
	a := api.NewAPI(svc, logger, []byte(cfg.JWTSecret))

	handler := a.LoggingMiddleware(a.TimeoutMiddleware(a.Router(), 30*time.Second))

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	logger.Info("server starting", "addr", cfg.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
