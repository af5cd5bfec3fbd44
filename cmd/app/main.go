package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"distribution/cmd"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
)

const shutdownTimeout = 15 * time.Second

func main() {
	configs, err := cmd.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: configs.SlogLevel()}))
	slog.SetDefault(logger)

	tuning, err := cmd.LoadTuning(configs.TuningFile)
	if err != nil {
		log.Fatalf("Error loading tuning: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	uowFactory, closeStorage, err := cmd.OpenStorage(configs, logger)
	if err != nil {
		log.Fatalf("Error opening storage: %v", err)
	}
	keyLocker, closeLocker, err := cmd.OpenLocker(ctx, configs, logger)
	if err != nil {
		log.Fatalf("Error opening locker: %v", err)
	}
	bus, closeBus, err := cmd.OpenEventBus(ctx, configs, logger)
	if err != nil {
		log.Fatalf("Error opening event bus: %v", err)
	}

	app := cmd.NewCompositionRoot(configs, tuning, uowFactory, keyLocker, bus, logger)

	jobManager := app.CreateJobManager()
	if err = jobManager.StartAll(); err != nil {
		log.Fatalf("Failed to start jobs: %v", err)
	}

	e := startWebServer(&app, configs.HTTPPort)

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err = e.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", "error", err)
	}
	jobManager.StopAll()
	closers := []struct {
		name  string
		close cmd.Closer
	}{
		{"event bus", closeBus},
		{"locker", closeLocker},
		{"storage", closeStorage},
	}
	for _, c := range closers {
		if err = c.close(shutdownCtx); err != nil {
			logger.Error("Close failed", "resource", c.name, "error", err)
		}
	}
}

func startWebServer(app *cmd.CompositionRoot, port string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	app.CreateHTTPServer().Register(e)

	go func() {
		if err := e.Start(fmt.Sprintf("0.0.0.0:%s", port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.Logger.Fatal(err)
		}
	}()
	return e
}
