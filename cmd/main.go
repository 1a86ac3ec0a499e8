package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/asaskevich/EventBus"
	log "github.com/sirupsen/logrus"

	"github.com/mwehner/immowatch/internal/config"
	"github.com/mwehner/immowatch/internal/domain/events"
	"github.com/mwehner/immowatch/internal/extract"
	"github.com/mwehner/immowatch/internal/geo"
	"github.com/mwehner/immowatch/internal/logger"
	"github.com/mwehner/immowatch/internal/metrics"
	"github.com/mwehner/immowatch/internal/notify"
	"github.com/mwehner/immowatch/internal/repositories"
	"github.com/mwehner/immowatch/internal/runtime"
	"github.com/mwehner/immowatch/internal/similarity"
	"github.com/mwehner/immowatch/internal/tracking"
)

func buildScheduler(cfg *config.Config, dbContext *repositories.DbContext, bus EventBus.Bus) *runtime.Scheduler {

	jobs := repositories.NewJobsRepository(dbContext.DB)
	listings := repositories.NewListingsRepository(dbContext.DB)

	fetcher := extract.NewPageFetcher()
	if cfg.Crawler.MaxRequestsPerSecond > 0 {
		fetcher.SetRateLimit(cfg.Crawler.MaxRequestsPerSecond)
	}

	var renderer extract.Fetcher
	if cfg.Crawler.RendererURL != "" {
		rendering := extract.NewRenderingFetcher(cfg.Crawler.RendererURL)
		if cfg.Crawler.MaxRequestsPerSecond > 0 {
			rendering.SetRateLimit(cfg.Crawler.MaxRequestsPerSecond)
		}
		renderer = rendering
	}

	geocoder := geo.NewMapbox(cfg.Geo.MapboxToken)
	if cfg.Geo.MaxRequestsPerSecond > 0 {
		geocoder.SetRateLimit(cfg.Geo.MaxRequestsPerSecond)
	}

	dispatcher := notify.NewDispatcher(notify.NewTelegram(), notify.NewWebhook())
	tracker := tracking.NewGenerator(cfg.Tracking.BaseURL, cfg.Tracking.Secret)
	cache := similarity.NewCache(time.Duration(cfg.Crawler.SimilarityWindowMinutes) * time.Minute)

	pipeline := runtime.NewPipeline(bus, jobs, listings, geocoder, dispatcher, tracker, cache, fetcher, renderer)
	runner := runtime.NewRunner(jobs, pipeline, bus)

	return runtime.NewScheduler(runner, cache, cfg.Crawler)
}

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Get()

	logger.Setup(cfg.Logger)
	defer logger.Cleanup()

	metrics.StartMetricsServer(cfg.Metrics.Port)

	dbContext, err := repositories.NewDbContext(cfg.DB.ConnectionString)
	if err != nil {
		log.Fatalf("can't create db context: %v", err)
	}
	defer dbContext.Close()

	if err = dbContext.Migrate(); err != nil {
		log.Fatalf("can't migrate db context: %v", err)
	}

	bus := EventBus.New()
	if err = bus.Subscribe(events.RunProgressTopic, func(progress events.RunProgress) {
		log.Debugf("job %v provider %v: %v", progress.JobID, progress.ProviderID, progress.Status)
	}); err != nil {
		log.Fatalf("can't subscribe to progress events: %v", err)
	}

	scheduler := buildScheduler(cfg, dbContext, bus)
	if err = scheduler.Start(ctx); err != nil {
		log.Fatalf("can't start scheduler: %v", err)
	}

	<-ctx.Done()

	log.Info("Shutting down services...")
	scheduler.Stop()
	log.Info("Services stopped.")
}
