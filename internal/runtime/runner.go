package runtime

import (
	"context"
	"time"

	"github.com/asaskevich/EventBus"
	log "github.com/sirupsen/logrus"

	"github.com/mwehner/immowatch/internal/domain/events"
	"github.com/mwehner/immowatch/internal/domain/models"
	"github.com/mwehner/immowatch/internal/logger"
	"github.com/mwehner/immowatch/internal/metrics"
	"github.com/mwehner/immowatch/internal/providers"
)

type jobStore interface {
	GetActive(ctx context.Context) ([]models.Job, error)
	GetByID(ctx context.Context, id string) (*models.Job, error)
	UpdateLastRun(ctx context.Context, jobID, providerID string, startTime time.Time) error
	AddProviderError(ctx context.Context, jobID string, record models.ProviderError) error
}

// Runner sweeps a job's provider bindings strictly in sequence. Crawl
// targets are rate-sensitive, so one outbound pipeline at a time is the
// backpressure mechanism. A failing provider is recorded on the job and
// never aborts its siblings.
type Runner struct {
	jobs     jobStore
	pipeline *Pipeline
	bus      EventBus.Bus

	// overridable in tests
	lookup func(id string) (providers.Provider, bool)
}

func NewRunner(jobs jobStore, pipeline *Pipeline, bus EventBus.Bus) *Runner {
	return &Runner{
		jobs:     jobs,
		pipeline: pipeline,
		bus:      bus,
		lookup:   providers.Get,
	}
}

// RunJobs sweeps every active job, sequentially. The scheduler tick
// interval is expected to dwarf one full sweep.
func (r *Runner) RunJobs(ctx context.Context) error {

	jobs, err := r.jobs.GetActive(ctx)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to load active jobs: %v", err)
		return err
	}

	for _, job := range jobs {
		r.RunJob(ctx, job)
	}

	log.Infof("swept %v active jobs", len(jobs))
	return nil
}

// RunJobByID loads one job and runs it; used by the on-demand trigger.
func (r *Runner) RunJobByID(ctx context.Context, jobID string) error {
	job, err := r.jobs.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	r.RunJob(ctx, *job)
	return nil
}

func (r *Runner) RunJob(ctx context.Context, job models.Job) {

	for _, binding := range job.ProviderBindings {

		provider, ok := r.lookup(binding.ProviderID)
		if !ok {
			log.Warnf("no provider adapter registered for id %q, skipping binding of job %v",
				binding.ProviderID, job.ID)
			continue
		}

		startTime := time.Now()
		notified, err := r.pipeline.Run(ctx, job, binding, provider)

		if err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeFetch).
				Errorf("provider %v failed for job %v: %v", provider.ID, job.ID, err)
			metrics.ProviderRunsCounter.WithLabelValues(provider.ID, "failed").Inc()

			if dbErr := r.jobs.AddProviderError(ctx, job.ID, models.ProviderError{
				ProviderID:   provider.ID,
				ProviderName: provider.Name,
				ProviderURL:  binding.URL,
				Message:      err.Error(),
				Timestamp:    time.Now(),
			}); dbErr != nil {
				log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
					Errorf("failed to record provider error for job %v: %v", job.ID, dbErr)
			}
			r.emit(job.ID, provider.ID, events.StatusFailed)
			continue
		}

		metrics.ProviderRunsCounter.WithLabelValues(provider.ID, "finished").Inc()
		if err := r.jobs.UpdateLastRun(ctx, job.ID, provider.ID, startTime); err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
				Errorf("failed to update last run for job %v: %v", job.ID, err)
		}
		r.emit(job.ID, provider.ID, events.StatusFinished)

		log.Infof("provider %v finished for job %v, %v listings notified",
			provider.ID, job.ID, len(notified))
	}
}

func (r *Runner) emit(jobID, providerID string, status events.RunStatus) {
	if r.bus == nil {
		return
	}
	r.bus.Publish(events.RunProgressTopic, events.RunProgress{
		JobID:      jobID,
		ProviderID: providerID,
		Status:     status,
	})
}
