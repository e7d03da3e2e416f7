package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/go-co-op/gocron/v2"
)

const refreshJobTag = "catalog_refresh"

// Refresher reloads a Cache on a fixed interval.
type Refresher struct {
	Scheduler gocron.Scheduler
	Cache     *Cache
	Interval  time.Duration
}

func NewRefresher(cache *Cache, interval time.Duration) (*Refresher, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Refresher{Scheduler: s, Cache: cache, Interval: interval}, nil
}

// Start loads the cache once, then schedules periodic reloads bound to ctx.
func (r *Refresher) Start(ctx context.Context) error {
	if err := r.RefreshNow(ctx); err != nil {
		hlog.Errorf("Initial catalog load failed: %v", err)
	}

	job, err := r.Scheduler.NewJob(
		gocron.DurationJob(r.Interval),
		gocron.NewTask(func() {
			if err := r.RefreshNow(ctx); err != nil {
				hlog.Errorf("Scheduled catalog refresh failed: %v", err)
			}
		}),
		gocron.WithName(refreshJobTag),
		gocron.WithTags(refreshJobTag),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule catalog refresh every %s: %w", r.Interval, err)
	}
	r.Scheduler.Start()

	nextRun, errNextRun := job.NextRun()
	if errNextRun != nil {
		hlog.Infof("Catalog refresh scheduled every %s (job %s)", r.Interval, job.ID())
	} else {
		hlog.Infof("Catalog refresh scheduled every %s (job %s), next run %s", r.Interval, job.ID(), nextRun.Format(time.RFC3339))
	}
	return nil
}

func (r *Refresher) RefreshNow(ctx context.Context) error {
	if err := r.Cache.Refresh(ctx); err != nil {
		return err
	}
	hlog.Infof("Catalog refreshed: %d variant templates", len(r.Cache.Templates()))
	return nil
}

func (r *Refresher) Stop() {
	if err := r.Scheduler.Shutdown(); err != nil {
		hlog.Errorf("Error shutting down gocron scheduler: %v", err)
		return
	}
	hlog.Info("Catalog refresher stopped.")
}
