package runtime

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/mwehner/immowatch/internal/config"
	"github.com/mwehner/immowatch/internal/metrics"
	"github.com/mwehner/immowatch/internal/similarity"
)

const defaultTickInterval = 60 * time.Second

type sweeper interface {
	RunJobs(ctx context.Context) error
}

// Scheduler fires a sweep of all active jobs once per interval, gated by
// the configured working hours. A tick never tears the timer down: sweep
// errors and panics are logged and the next tick fires as scheduled.
// Ticks are single-flight; one firing while a sweep still runs is skipped.
type Scheduler struct {
	cron     *cron.Cron
	runner   sweeper
	cache    *similarity.Cache
	interval time.Duration
	from     string
	to       string
	running  atomic.Bool
}

func NewScheduler(runner sweeper, cache *similarity.Cache, cfg config.CrawlerConfig) *Scheduler {

	interval := time.Duration(cfg.QueryInterval) * time.Minute
	if interval <= 0 {
		interval = defaultTickInterval
	}

	return &Scheduler{
		cron:     cron.New(),
		runner:   runner,
		cache:    cache,
		interval: interval,
		from:     cfg.WorkingHoursFrom,
		to:       cfg.WorkingHoursTo,
	}
}

// Start performs one immediate sweep, then schedules the recurring tick.
func (s *Scheduler) Start(ctx context.Context) error {

	s.tick(ctx)

	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), func() {
		s.tick(ctx)
	}); err != nil {
		return err
	}

	s.cron.Start()
	log.Infof("scheduler started, interval %v, working hours %q..%q", s.interval, s.from, s.to)
	return nil
}

// Stop cancels the tick and the similarity cache sweep.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	if s.cache != nil {
		s.cache.Stop()
	}
}

func (s *Scheduler) tick(ctx context.Context) {

	if !s.running.CompareAndSwap(false, true) {
		log.Warn("previous sweep still running, skipping tick")
		return
	}
	defer s.running.Store(false)

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("recovered from panic during sweep: %v", r)
		}
	}()

	if !WithinWorkingHours(s.from, s.to, time.Now()) {
		log.Infof("outside working hours %q..%q, skipping sweep", s.from, s.to)
		return
	}

	startTime := time.Now()
	if err := s.runner.RunJobs(ctx); err != nil {
		log.Errorf("sweep failed: %v", err)
	}
	metrics.SweepDuration.Observe(time.Since(startTime).Seconds())
}
