package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/redis/go-redis/v9"

	"github.com/NASWA-OpenUI/Playground/internal/config"
	"github.com/NASWA-OpenUI/Playground/internal/events"
	"github.com/NASWA-OpenUI/Playground/internal/handlers"
	"github.com/NASWA-OpenUI/Playground/internal/health"
	"github.com/NASWA-OpenUI/Playground/internal/logging"
	"github.com/NASWA-OpenUI/Playground/internal/registry"
	"github.com/NASWA-OpenUI/Playground/internal/repository"
	"github.com/NASWA-OpenUI/Playground/internal/scheduler"
	"github.com/NASWA-OpenUI/Playground/internal/server"
	"github.com/NASWA-OpenUI/Playground/internal/workflow"
	gwnats "github.com/NASWA-OpenUI/Playground/pkg/messaging/nats"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Set up structured logging
	logger := logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)
	logging.SetDefault(logger)

	// Initialize stores
	var (
		claimStore    repository.ClaimStore
		registryStore repository.RegistryStore
	)

	switch cfg.Database.Backend {
	case "postgres":
		connString := cfg.Database.Postgres.DSN()

		logger.Info("Running database migrations")
		m, err := migrate.New("file://"+cfg.Database.Postgres.MigrationsDir, connString)
		if err != nil {
			log.Fatalf("Failed to initialize migrations: %v", err)
		}
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		logger.Info("Database migrations completed")

		repo, err := repository.NewPostgresRepository(context.Background(), connString)
		if err != nil {
			log.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}
		defer repo.Close()

		claimStore = repo.ClaimStore()
		registryStore = repo.RegistryStore()
	default:
		claimStore = repository.NewInMemoryClaimStore()
		registryStore = repository.NewInMemoryRegistryStore()
	}

	// Registry may use a Redis backend independently of claim storage
	if cfg.Registry.Backend == "redis" {
		rdb := redis.NewClient(&redis.Options{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			MaxRetries: cfg.Redis.MaxRetries,
			PoolSize:   cfg.Redis.PoolSize,
		})
		defer rdb.Close()
		registryStore = repository.NewRedisRegistryStore(rdb)
	}

	// Event publisher
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Events.Enabled {
		natsClient, err := gwnats.NewClient(gwnats.Config{
			URL:           cfg.NATS.URL,
			Name:          cfg.NATS.Name,
			MaxReconnects: cfg.NATS.MaxReconnects,
			ReconnectWait: cfg.NATS.ReconnectWait,
			Timeout:       cfg.NATS.Timeout,
		})
		if err != nil {
			log.Fatalf("Failed to connect to NATS: %v", err)
		}
		defer natsClient.Close()
		publisher = events.NewBusPublisher(natsClient, cfg.Events.BufferSize)
	}
	defer publisher.Close()

	// Core services
	engine := workflow.NewEngine(claimStore, publisher)
	reg := registry.NewRegistry(registryStore, cfg.Registry.StaleAfter)
	monitor := health.NewMonitor(reg)

	// Start the liveness sweeper
	sweeper := scheduler.NewSweeper(reg, monitor, cfg.Sweeper.Interval)
	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()
	go sweeper.Start(sweepCtx)
	defer sweeper.Stop()

	// HTTP server
	handler := handlers.NewHandler(engine, reg, monitor, sweeper)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.NewRouter(handler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("Claims gateway listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server stopped gracefully")
}
