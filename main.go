package main

import (
	"context"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gomotopia/districtr/internal"
	"github.com/gomotopia/districtr/internal/config"
	"github.com/gomotopia/districtr/internal/container"
	"github.com/gomotopia/districtr/internal/errors"
	"github.com/gomotopia/districtr/internal/migration"
	"github.com/gomotopia/districtr/ui"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// initDatabase opens the run ledger database and migrates it. Without a
// DATABASE_URL the ledger is disabled and nil is returned.
func initDatabase(ctx context.Context, appConfig *config.Config, logger *internal.Logger) (*sqlx.DB, error) {
	if appConfig.Database.URL == "" {
		logger.Info("No DATABASE_URL set, analysis runs will not be recorded")
		return nil, nil
	}

	db, err := sqlx.Connect("postgres", appConfig.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	migrator := migration.NewRunner(logger)
	if err := migrator.Run(ctx, db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "database migration failed")
	}
	return db, nil
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := internal.NewLogger(internal.ParseLogLevel(appConfig.LogLevel))
	gin.SetMode(appConfig.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appContainer, err := container.New(appConfig, logger)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}

	db, err := initDatabase(ctx, appConfig, logger)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	if db != nil {
		if err := appContainer.InitWithDatabase(db); err != nil {
			log.Fatalf("Failed to initialize container: %v", err)
		}
	}
	appContainer.InitSessions()

	server, err := ui.NewServer(appContainer.SessionManager, appContainer.SSEHub, appContainer.RunRepo, logger)
	if err != nil {
		log.Fatalf("Failed to initialize server: %v", err)
	}

	httpServer := &http.Server{
		Addr:              ":" + appConfig.Server.Port,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	servers := []*http.Server{httpServer}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting districtr panels on port %s", appConfig.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	// Start pprof server for performance profiling
	if appConfig.Profiling.Enabled {
		pprofServer := &http.Server{
			Addr:              ":" + appConfig.Profiling.Port,
			Handler:           http.DefaultServeMux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		servers = append(servers, pprofServer)
		g.Go(func() error {
			logger.Info("Profiling server on :%s (go tool pprof -http=:8081 http://localhost:%s/debug/pprof/profile?seconds=30)",
				appConfig.Profiling.Port, appConfig.Profiling.Port)
			if err := pprofServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Warn("pprof server failed: %v", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		// Close the hub first so open event streams end
		appContainer.SSEHub.Close()
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Server on %s did not stop cleanly: %v", srv.Addr, err)
			}
		}
		return appContainer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Server exited: %v", err)
	}
}
