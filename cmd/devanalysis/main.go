// Command devanalysis serves the contiguity, unassigned and bounding box
// endpoints locally from a unit table, for running the panels offline.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gomotopia/districtr/internal"
	"github.com/gomotopia/districtr/internal/config"
	"github.com/gomotopia/districtr/internal/devanalysis"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := internal.NewLogger(internal.ParseLogLevel(appConfig.LogLevel))

	units, err := devanalysis.LoadUnits(appConfig.Dev.UnitsFile)
	if err != nil {
		log.Fatalf("Failed to load units: %v", err)
	}
	logger.Info("Loaded %d units from %s", units.Len(), appConfig.Dev.UnitsFile)

	srv := &http.Server{
		Addr:              ":" + appConfig.Dev.Port,
		Handler:           devanalysis.NewServer(units, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Dev analysis service on http://localhost:%s (contigv2, unassigned, findBBox)", appConfig.Dev.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Dev analysis service exited: %v", err)
	}
}
