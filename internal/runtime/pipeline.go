package runtime

import (
	"context"
	"sync"

	"github.com/asaskevich/EventBus"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"github.com/mwehner/immowatch/internal/domain/events"
	"github.com/mwehner/immowatch/internal/domain/models"
	"github.com/mwehner/immowatch/internal/extract"
	"github.com/mwehner/immowatch/internal/metrics"
	"github.com/mwehner/immowatch/internal/providers"
	"github.com/mwehner/immowatch/internal/scrape"
	"github.com/mwehner/immowatch/internal/similarity"
)

type knownIDStore interface {
	KnownListingIDs(ctx context.Context, jobID, providerID string) (map[string]struct{}, error)
	AddListingIDs(ctx context.Context, ids []string, jobID, providerID string) error
}

type listingStore interface {
	SaveListings(ctx context.Context, listings []models.Listing) error
}

type geocoder interface {
	Enrich(ctx context.Context, listing models.Listing) models.Listing
}

type notifier interface {
	Send(ctx context.Context, job models.Job, listings []models.Listing)
}

type trackingURLs interface {
	URL(listingID, userID string) string
}

// Pipeline runs one provider binding of one job through the fixed stage
// sequence: search, normalize, filter, diff, polish, enrich, save, dedup,
// notify. Stages are data: an ordered slice, each announced on the bus
// before it executes. An error aborts this run only; the runner isolates
// it from sibling providers.
type Pipeline struct {
	bus      EventBus.Bus
	known    knownIDStore
	listings listingStore
	geo      geocoder
	notify   notifier
	tracker  trackingURLs
	cache    *similarity.Cache
	fetcher  extract.Fetcher
	renderer extract.Fetcher
}

func NewPipeline(bus EventBus.Bus, known knownIDStore, listings listingStore, geo geocoder,
	notify notifier, tracker trackingURLs, cache *similarity.Cache,
	fetcher, renderer extract.Fetcher) *Pipeline {

	return &Pipeline{
		bus:      bus,
		known:    known,
		listings: listings,
		geo:      geo,
		notify:   notify,
		tracker:  tracker,
		cache:    cache,
		fetcher:  fetcher,
		renderer: renderer,
	}
}

type runState struct {
	job      models.Job
	binding  models.ProviderBinding
	provider providers.Provider
	params   providers.RunParams

	raw      []map[string]any
	listings []models.Listing
}

type stage struct {
	status events.RunStatus
	run    func(ctx context.Context, st *runState) error
}

func (p *Pipeline) stages() []stage {
	return []stage{
		{events.StatusSearching, p.search},
		{events.StatusNormalizing, p.normalize},
		{events.StatusFiltering, p.filter},
		{events.StatusDiffing, p.diff},
		{events.StatusPolishing, p.polish},
		{events.StatusEnriching, p.enrich},
		{events.StatusSaving, p.save},
		{events.StatusDeduplicating, p.dedup},
		{events.StatusNotifying, p.dispatch},
	}
}

// Run executes the pipeline and returns the listings that were notified.
func (p *Pipeline) Run(ctx context.Context, job models.Job, binding models.ProviderBinding,
	provider providers.Provider) ([]models.Listing, error) {

	st := &runState{
		job:      job,
		binding:  binding,
		provider: provider,
		params: providers.RunParams{
			JobID:     job.ID,
			UserID:    job.UserID,
			URL:       scrape.ModifyQuery(binding.URL, provider.Config.SortBy, provider.Config.RemoveParams),
			Blacklist: providers.NewBlacklistMatcher(job.BlacklistAsArray()),
		},
	}

	for _, s := range p.stages() {
		p.emit(job.ID, provider.ID, s.status)
		if err := s.run(ctx, st); err != nil {
			return nil, errors.Wrapf(err, "stage %v", s.status)
		}
	}

	return st.listings, nil
}

func (p *Pipeline) emit(jobID, providerID string, status events.RunStatus) {
	if p.bus == nil {
		return
	}
	p.bus.Publish(events.RunProgressTopic, events.RunProgress{
		JobID:      jobID,
		ProviderID: providerID,
		Status:     status,
	})
}

func (p *Pipeline) search(ctx context.Context, st *runState) error {

	fetcher := p.fetcher
	if st.provider.Config.Rendered && p.renderer != nil {
		fetcher = p.renderer
	}

	var err error
	if st.provider.GetListings != nil {
		st.raw, err = st.provider.GetListings(ctx, fetcher, st.params.URL)
	} else {
		st.raw, err = extract.FetchCards(ctx, fetcher, st.params.URL,
			st.provider.Config.WaitForSelector, st.provider.Config.Container, st.provider.Config.Fields)
	}
	return err
}

// normalize maps raw cards to listings and rehashes each id with the
// provider and job so two jobs crawling the same source never collide.
// A card normalize can't salvage is skipped, never fatal.
func (p *Pipeline) normalize(_ context.Context, st *runState) error {

	for _, raw := range st.raw {
		listing, err := st.provider.Normalize(st.params, raw)
		if err != nil {
			log.Debugf("skipping malformed card from %v: %v", st.provider.ID, err)
			continue
		}
		listing.ID = scrape.BuildHash(listing.ID, st.provider.ID, st.job.ID)
		listing.JobID = st.job.ID
		st.listings = append(st.listings, listing)
	}
	return nil
}

func (p *Pipeline) filter(_ context.Context, st *runState) error {
	st.listings = lo.Filter(st.listings, func(listing models.Listing, _ int) bool {
		return providers.Filter(listing, st.params.Blacklist)
	})
	return nil
}

func (p *Pipeline) diff(ctx context.Context, st *runState) error {

	known, err := p.known.KnownListingIDs(ctx, st.job.ID, st.provider.ID)
	if err != nil {
		return err
	}

	st.listings = lo.Filter(st.listings, func(listing models.Listing, _ int) bool {
		_, seen := known[listing.ID]
		return !seen
	})
	metrics.ListingsFoundCounter.Add(float64(len(st.listings)))
	return nil
}

func (p *Pipeline) polish(_ context.Context, st *runState) error {

	for i := range st.listings {
		st.listings[i].ProviderID = st.provider.ID
		st.listings[i].ProviderName = st.provider.Name
		if p.tracker != nil {
			st.listings[i].TrackingURL = p.tracker.URL(st.listings[i].ID, st.job.UserID)
		}
	}
	return nil
}

// enrich resolves coordinates for listings that have an address but no
// lat/lng. Lookups are independent and run concurrently; the geocoder
// never fails a listing.
func (p *Pipeline) enrich(ctx context.Context, st *runState) error {

	if p.geo == nil {
		return nil
	}

	var wg sync.WaitGroup
	for i := range st.listings {
		if st.listings[i].Location.HasCoordinates() || !st.listings[i].Location.HasAddress() {
			continue
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			st.listings[i] = p.geo.Enrich(ctx, st.listings[i])
		}(i)
	}
	wg.Wait()
	return nil
}

func (p *Pipeline) save(ctx context.Context, st *runState) error {

	if len(st.listings) == 0 {
		return nil
	}

	if err := p.listings.SaveListings(ctx, st.listings); err != nil {
		return err
	}

	ids := lo.Map(st.listings, func(listing models.Listing, _ int) string {
		return listing.ID
	})
	return p.known.AddListingIDs(ctx, ids, st.job.ID, st.provider.ID)
}

// dedup drops listings whose title was already notified for this job
// within the similarity window, then records the survivors.
func (p *Pipeline) dedup(_ context.Context, st *runState) error {

	if p.cache == nil {
		return nil
	}

	st.listings = lo.Filter(st.listings, func(listing models.Listing, _ int) bool {
		return !p.cache.HasSimilar(st.job.ID, listing.Title)
	})
	for _, listing := range st.listings {
		p.cache.Add(st.job.ID, listing.Title)
	}
	return nil
}

func (p *Pipeline) dispatch(ctx context.Context, st *runState) error {

	if len(st.listings) == 0 || p.notify == nil {
		return nil
	}
	p.notify.Send(ctx, st.job, st.listings)
	return nil
}
