// Package app wires the stores and services from a loaded configuration.
// Both the desktop server and the admin CLI start from here.
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/statistics102/course-monitor/internal/attachments"
	"github.com/statistics102/course-monitor/internal/config"
	"github.com/statistics102/course-monitor/internal/datauri"
	"github.com/statistics102/course-monitor/internal/downloads"
	"github.com/statistics102/course-monitor/internal/export"
	"github.com/statistics102/course-monitor/internal/export/scheduler"
	"github.com/statistics102/course-monitor/internal/idgen"
	"github.com/statistics102/course-monitor/internal/kv"
	"github.com/statistics102/course-monitor/internal/logging"
	"github.com/statistics102/course-monitor/internal/records"
	"github.com/statistics102/course-monitor/internal/services"
)

// App holds the wired components.
type App struct {
	Config    *config.Config
	Store     kv.Store
	Records   *records.Store
	Files     *attachments.Store
	Export    *export.Service
	Service   *services.CourseService
	Downloads *downloads.DirSaver
	Scheduler *scheduler.Scheduler
	Location  *time.Location
}

// InitLogging configures the global logger from cfg.
func InitLogging(cfg *config.Config) {
	logging.InitMode(os.Stderr, logging.ParseLevel(cfg.Log.Level), cfg.App.Mode)
}

// New opens the configured store and builds every component on top of it.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	loc, err := cfg.App.Location()
	if err != nil {
		return nil, fmt.Errorf("invalid timezone: %w", err)
	}

	store, err := kv.Open(ctx, cfg.Store.KVOptions())
	if err != nil {
		return nil, err
	}

	saver, err := downloads.NewDirSaver(cfg.Downloads.Dir)
	if err != nil {
		store.Close()
		return nil, err
	}

	recs := records.NewStore(store, idgen.NewMonotonic())
	files := attachments.NewStore(store, datauri.NewBase64Codec())
	exp := export.NewService(recs, files, export.WithLocation(loc))

	a := &App{
		Config:    cfg,
		Store:     store,
		Records:   recs,
		Files:     files,
		Export:    exp,
		Service:   services.NewCourseService(recs, files, exp),
		Downloads: saver,
		Location:  loc,
		Scheduler: scheduler.NewScheduler(exp, &scheduler.Config{
			Interval:       scheduler.ExportInterval(cfg.Export.Interval),
			RetentionCount: cfg.Export.Retention,
			ExportDir:      cfg.Export.Dir,
		}),
	}

	logging.Info("Application initialized", map[string]interface{}{
		"store":     cfg.Store.Driver,
		"downloads": saver.Dir(),
		"timezone":  loc.String(),
	})
	return a, nil
}

// Close stops the scheduler and releases the store.
func (a *App) Close() error {
	a.Scheduler.Stop()
	return a.Store.Close()
}
