package notify

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/mwehner/immowatch/internal/domain/models"
	"github.com/mwehner/immowatch/internal/logger"
	"github.com/mwehner/immowatch/internal/metrics"
)

// Message is one batch of new listings for a job.
type Message struct {
	JobID    string
	JobName  string
	Listings []models.Listing
}

// Adapter delivers a listing batch to one notification channel. The config
// map carries the binding's adapter-specific fields (tokens, chat ids,
// endpoints) and is opaque to the dispatcher.
type Adapter interface {
	ID() string
	Send(ctx context.Context, msg Message, config map[string]string) error
}

// Dispatcher fans one listing batch out to every adapter a job has
// configured. Adapters run concurrently; a failing adapter is logged and
// never fails the pipeline.
type Dispatcher struct {
	adapters map[string]Adapter
}

func NewDispatcher(adapters ...Adapter) *Dispatcher {
	byID := make(map[string]Adapter, len(adapters))
	for _, adapter := range adapters {
		byID[adapter.ID()] = adapter
	}
	return &Dispatcher{adapters: byID}
}

func (d *Dispatcher) Send(ctx context.Context, job models.Job, listings []models.Listing) {

	if len(listings) == 0 {
		return
	}

	msg := Message{JobID: job.ID, JobName: job.Name, Listings: listings}

	var wg sync.WaitGroup
	for _, binding := range job.NotificationBindings {

		adapter, ok := d.adapters[binding.AdapterID]
		if !ok {
			log.Warnf("no notification adapter registered for id %q, skipping", binding.AdapterID)
			continue
		}

		wg.Add(1)
		go func(adapter Adapter, config map[string]string) {
			defer wg.Done()
			if err := adapter.Send(ctx, msg, config); err != nil {
				log.WithField(logger.ErrorTypeField, logger.ErrorTypeNotify).
					Errorf("failed to send %v listings via %v for job %v: %v",
						len(listings), adapter.ID(), job.ID, err)
				return
			}
			metrics.ListingsNotifiedCounter.Add(float64(len(listings)))
		}(adapter, binding.FieldsAsMap())
	}
	wg.Wait()
}
