// Package main provides the local course-monitor server. The browser UI
// talks to it over REST on localhost:8090.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/statistics102/course-monitor/cmd/desktop/handlers"
	"github.com/statistics102/course-monitor/internal/app"
	"github.com/statistics102/course-monitor/internal/config"
	"github.com/statistics102/course-monitor/internal/logging"
)

// Version is set at build time
var Version = "0.1.0"

func main() {
	configFile := flag.String("config", "", "path to a config file")
	flag.Parse()

	if err := run(*configFile); err != nil {
		logging.Error("Server exited with error", err)
		logging.Get().Sync()
		os.Exit(1)
	}
}

func run(configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	app.InitLogging(cfg)
	defer logging.Get().Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Scheduler.Start(ctx); err != nil {
		return err
	}

	handlers.Version = Version
	reports := handlers.NewReportHandler(a.Service, a.Downloads, a.Location)
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handlers.NewRouter(reports, ginMode(cfg.App.Mode)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("Course monitor server starting", map[string]interface{}{
			"addr":    cfg.HTTP.Addr,
			"version": Version,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.Info("Shutdown signal received, stopping server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logging.Info("Server stopped gracefully")
	return nil
}

func ginMode(mode string) string {
	if mode == logging.DevelopmentMode {
		return gin.DebugMode
	}
	return gin.ReleaseMode
}
