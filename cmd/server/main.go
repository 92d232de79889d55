package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/xBwomp/famCalendar/internal/api"
	appauth "github.com/xBwomp/famCalendar/internal/auth"
	"github.com/xBwomp/famCalendar/internal/config"
	"github.com/xBwomp/famCalendar/internal/credentials"
	"github.com/xBwomp/famCalendar/internal/crypto"
	"github.com/xBwomp/famCalendar/internal/google"
	httpserver "github.com/xBwomp/famCalendar/internal/http"
	"github.com/xBwomp/famCalendar/internal/store"
	syncsvc "github.com/xBwomp/famCalendar/internal/sync"
)

func main() {
	log.Println("Starting famCalendar server...")

	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		log.Println("loaded configuration from .env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatalf("failed to create db pool: %v", err)
	}
	defer pool.Close()

	if err := store.ApplyMigrations(ctx, pool); err != nil {
		log.Fatalf("failed to apply migrations: %v", err)
	}

	st := store.New(pool)

	cipher, err := crypto.New(cfg.Encryption.Key)
	if err != nil {
		log.Fatalf("failed to initialize token cipher: %v", err)
	}
	creds := credentials.NewStore(st.Settings, cipher)

	googleClient := google.NewClient(cfg, creds)

	monitor := credentials.NewMonitor(creds, googleClient, credentials.DefaultPollInterval)
	monitor.Start(ctx)

	syncService := syncsvc.NewService(googleClient, monitor, creds, st)

	sessions := appauth.NewSessionManager(cfg)
	authService := appauth.NewService(cfg, creds, googleClient, monitor, sessions)

	handlers := httpserver.Handlers{
		Sync:      api.NewSyncHandler(syncService, googleClient, st.SyncLog, cfg.Production()),
		Calendars: api.NewCalendarHandler(st.Calendars),
		Events:    api.NewEventHandler(st.Events),
		Admin:     api.NewAdminHandler(st.Settings, creds),
		Seed:      api.NewSeedHandler(st.Calendars, st.Events),
	}

	r := httpserver.NewRouter(cfg, st, authService, handlers)

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("server listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
