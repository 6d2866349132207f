// Package scheduler writes periodic spreadsheet snapshots of all
// submissions into an exports directory and prunes old ones.
package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/statistics102/course-monitor/internal/downloads"
	"github.com/statistics102/course-monitor/internal/export"
	"github.com/statistics102/course-monitor/internal/logging"
)

// ExportInterval defines the scheduling frequency.
type ExportInterval string

const (
	IntervalManual  ExportInterval = "manual"
	IntervalDaily   ExportInterval = "daily"
	IntervalWeekly  ExportInterval = "weekly"
	IntervalMonthly ExportInterval = "monthly"
)

// Config holds the scheduler configuration.
type Config struct {
	Interval       ExportInterval // How often to export
	RetentionCount int            // Number of snapshots to keep (0 = unlimited)
	ExportDir      string         // Directory to store snapshots (default: "exports")
}

// Scheduler manages automatic snapshot exports.
type Scheduler struct {
	service export.ServiceInterface
	config  *Config

	ticker   *time.Ticker
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewScheduler creates a new snapshot scheduler.
func NewScheduler(service export.ServiceInterface, config *Config) *Scheduler {
	if config.ExportDir == "" {
		config.ExportDir = "exports"
	}
	if config.RetentionCount < 0 {
		config.RetentionCount = 0
	}

	return &Scheduler{
		service: service,
		config:  config,
		stopCh:  make(chan struct{}),
	}
}

// Start begins periodic snapshots, taking the first one immediately.
// Manual mode does nothing.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.config.Interval == IntervalManual || s.config.Interval == "" {
		logging.Info("Snapshot scheduler in manual mode, automatic exports disabled")
		return nil
	}

	dur, err := s.intervalDuration()
	if err != nil {
		return fmt.Errorf("invalid interval: %w", err)
	}

	s.ticker = time.NewTicker(dur)
	logging.Info("Snapshot scheduler started", map[string]interface{}{
		"interval":        s.config.Interval,
		"retention_count": s.config.RetentionCount,
		"export_dir":      s.config.ExportDir,
	})

	go func() {
		if _, err := s.RunOnce(ctx); err != nil {
			logging.Error("Initial snapshot failed", err)
		}
		for {
			select {
			case <-s.ticker.C:
				if _, err := s.RunOnce(ctx); err != nil {
					logging.Error("Scheduled snapshot failed", err)
				}
			case <-s.stopCh:
				logging.Info("Snapshot scheduler stopped")
				return
			case <-ctx.Done():
				logging.Info("Snapshot scheduler context cancelled")
				return
			}
		}
	}()

	return nil
}

// Stop shuts down the scheduler. It is safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		if s.ticker != nil {
			s.ticker.Stop()
		}
	})
}

// RunOnce writes one snapshot and applies retention. With no submissions
// it writes nothing and returns a nil result.
func (s *Scheduler) RunOnce(ctx context.Context) (*export.Result, error) {
	rows, err := s.service.BuildRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build rows: %w", err)
	}
	if len(rows) == 0 {
		logging.Debug("Snapshot skipped, no submissions")
		return nil, nil
	}

	saver, err := downloads.NewDirSaver(s.config.ExportDir)
	if err != nil {
		return nil, err
	}
	result, err := s.service.Export(ctx, rows, saver)
	if err != nil {
		return nil, fmt.Errorf("export failed: %w", err)
	}

	if s.config.RetentionCount > 0 {
		if err := s.applyRetentionPolicy(); err != nil {
			// the snapshot itself succeeded
			logging.Error("Retention policy failed", err)
		}
	}
	return result, nil
}

// periods maps each automatic interval to its tick. A month is taken as
// 30 days.
var periods = map[ExportInterval]time.Duration{
	IntervalDaily:   24 * time.Hour,
	IntervalWeekly:  7 * 24 * time.Hour,
	IntervalMonthly: 30 * 24 * time.Hour,
}

func (s *Scheduler) intervalDuration() (time.Duration, error) {
	d, ok := periods[s.config.Interval]
	if !ok {
		return 0, fmt.Errorf("no snapshot period for interval %q", s.config.Interval)
	}
	return d, nil
}

// applyRetentionPolicy removes the oldest snapshots beyond RetentionCount.
func (s *Scheduler) applyRetentionPolicy() error {
	snapshots, err := listSnapshots(s.config.ExportDir)
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].CreatedAt.Before(snapshots[j].CreatedAt)
	})

	if len(snapshots) <= s.config.RetentionCount {
		return nil
	}
	for _, snap := range snapshots[:len(snapshots)-s.config.RetentionCount] {
		if err := os.Remove(snap.Path); err != nil {
			logging.Error("Failed to delete old snapshot", err, map[string]interface{}{"path": snap.Path})
			continue
		}
		logging.Info("Deleted old snapshot", map[string]interface{}{"path": snap.Path})
	}
	return nil
}

// SnapshotInfo describes one snapshot file.
type SnapshotInfo struct {
	Path      string
	SizeBytes int64
	CreatedAt time.Time
}

// listSnapshots returns the workbooks directly inside exportDir.
func listSnapshots(exportDir string) ([]*SnapshotInfo, error) {
	var snapshots []*SnapshotInfo

	entries, err := os.ReadDir(exportDir)
	if os.IsNotExist(err) {
		return snapshots, nil
	}
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".xlsx" {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		snapshots = append(snapshots, &SnapshotInfo{
			Path:      filepath.Join(exportDir, entry.Name()),
			SizeBytes: fi.Size(),
			CreatedAt: fi.ModTime(),
		})
	}
	return snapshots, nil
}

// GetConfig returns the current scheduler configuration.
func (s *Scheduler) GetConfig() *Config {
	return s.config
}
