package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/country-insights/internal/country"
	"github.com/i474232898/country-insights/internal/logging"
	"github.com/i474232898/country-insights/internal/store"
)

// Scheduler runs the background maintenance jobs: expired cache entries are
// pruned, and the full country listing is kept warm in the cache.
type Scheduler struct {
	scheduler     *gocron.Scheduler
	cache         *store.MemoryStore
	directory     country.Directory
	pruneInterval time.Duration
	warmInterval  time.Duration
}

// New creates a new Scheduler. A nil directory or a non-positive warmInterval
// disables the warmup job.
func New(cache *store.MemoryStore, directory country.Directory, pruneInterval, warmInterval time.Duration) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler:     s,
		cache:         cache,
		directory:     directory,
		pruneInterval: pruneInterval,
		warmInterval:  warmInterval,
	}
}

// Start schedules the jobs and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	log := logging.For("scheduler")

	if s.cache != nil {
		interval := s.pruneInterval
		if interval <= 0 {
			interval = 10 * time.Minute
		}
		if _, err := s.scheduler.Every(interval).WaitForSchedule().Do(s.PruneCache); err != nil {
			return err
		}
	}

	if s.directory != nil && s.warmInterval > 0 {
		if _, err := s.scheduler.Every(s.warmInterval).Do(s.WarmListing); err != nil {
			return err
		}
	}

	if len(s.scheduler.Jobs()) == 0 {
		log.Info("no jobs configured; nothing to schedule")
		return nil
	}

	s.scheduler.StartAsync()
	return nil
}

// PruneCache drops expired cache entries.
func (s *Scheduler) PruneCache() {
	n := s.cache.Prune()
	logging.For("scheduler").WithFields(map[string]interface{}{
		"pruned":    n,
		"remaining": s.cache.Len(),
	}).Debug("cache pruned")
}

// WarmListing fetches the full country listing so the first visitor hits the
// cache.
func (s *Scheduler) WarmListing() {
	log := logging.For("scheduler")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	countries, err := s.directory.Countries(ctx, country.Query{Region: country.RegionAll})
	if err != nil {
		log.WithError(err).Warn("country listing warmup failed")
		return
	}
	log.WithField("countries", len(countries)).Info("country listing warmed")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
