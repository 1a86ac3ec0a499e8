package runtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/mwehner/immowatch/internal/domain/events"
	"github.com/mwehner/immowatch/internal/domain/models"
	"github.com/mwehner/immowatch/internal/extract"
	"github.com/mwehner/immowatch/internal/providers"
	"github.com/mwehner/immowatch/internal/scrape"
	"github.com/mwehner/immowatch/internal/similarity"
)

type fakeStore struct {
	mu          sync.Mutex
	known       map[string]map[string]struct{}
	saved       []models.Listing
	knownErr    error
	lastRuns    []string
	providerErr []models.ProviderError
	activeJobs  []models.Job
}

func newFakeStore() *fakeStore {
	return &fakeStore{known: map[string]map[string]struct{}{}}
}

func (s *fakeStore) key(jobID, providerID string) string { return jobID + "/" + providerID }

func (s *fakeStore) KnownListingIDs(_ context.Context, jobID, providerID string) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.knownErr != nil {
		return nil, s.knownErr
	}
	ids := map[string]struct{}{}
	for id := range s.known[s.key(jobID, providerID)] {
		ids[id] = struct{}{}
	}
	return ids, nil
}

func (s *fakeStore) AddListingIDs(_ context.Context, ids []string, jobID, providerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.key(jobID, providerID)
	if s.known[key] == nil {
		s.known[key] = map[string]struct{}{}
	}
	for _, id := range ids {
		s.known[key][id] = struct{}{}
	}
	return nil
}

func (s *fakeStore) SaveListings(_ context.Context, listings []models.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, listings...)
	return nil
}

func (s *fakeStore) GetActive(_ context.Context) ([]models.Job, error) {
	return s.activeJobs, nil
}

func (s *fakeStore) GetByID(_ context.Context, id string) (*models.Job, error) {
	for _, job := range s.activeJobs {
		if job.ID == id {
			return &job, nil
		}
	}
	return nil, errors.New("not found")
}

func (s *fakeStore) UpdateLastRun(_ context.Context, jobID, providerID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRuns = append(s.lastRuns, s.key(jobID, providerID))
	return nil
}

func (s *fakeStore) AddProviderError(_ context.Context, jobID string, record models.ProviderError) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record.JobID = jobID
	s.providerErr = append(s.providerErr, record)
	return nil
}

type fakeNotifier struct {
	mu      sync.Mutex
	batches [][]models.Listing
}

func (n *fakeNotifier) Send(_ context.Context, _ models.Job, listings []models.Listing) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.batches = append(n.batches, listings)
}

type passthroughGeo struct{}

func (passthroughGeo) Enrich(_ context.Context, listing models.Listing) models.Listing {
	lat, lng := 52.52, 13.4
	listing.Location.Latitude = &lat
	listing.Location.Longitude = &lng
	return listing
}

type staticTracker struct{}

func (staticTracker) URL(listingID, userID string) string {
	return "https://track/" + listingID + "/" + userID
}

func rawCard(id, title string) map[string]any {
	return map[string]any{"id": id, "title": title, "url": "https://example.com/" + id}
}

func staticProvider(id string, cards []map[string]any, err error) providers.Provider {
	return providers.Provider{
		ID:   id,
		Name: "Test " + id,
		GetListings: func(context.Context, extract.Fetcher, string) ([]map[string]any, error) {
			return cards, err
		},
		Normalize: func(_ providers.RunParams, raw map[string]any) (models.Listing, error) {
			title, _ := raw["title"].(string)
			url, _ := raw["url"].(string)
			if title == "" || url == "" {
				return models.Listing{}, providers.ErrMandatoryFieldsMissing
			}
			city := "Berlin"
			return models.Listing{
				ID:       scrape.BuildHash(raw["id"]),
				Title:    title,
				URL:      url,
				Location: models.Location{City: &city},
			}, nil
		},
	}
}

func testJob() models.Job {
	return models.Job{
		ID:     "job-1",
		Name:   "Berlin Flats",
		UserID: "user-1",
		Active: true,
		ProviderBindings: []models.ProviderBinding{
			{JobID: "job-1", ProviderID: "src-a", URL: "https://a.example.com/search"},
		},
	}
}

func newTestPipeline(store *fakeStore, notifier *fakeNotifier, cache *similarity.Cache,
	bus EventBus.Bus) *Pipeline {
	return NewPipeline(bus, store, store, passthroughGeo{}, notifier, staticTracker{}, cache, nil, nil)
}

func Test_Pipeline_FullRunSavesAndNotifies(t *testing.T) {

	store := newFakeStore()
	notifier := &fakeNotifier{}
	cache := similarity.NewCache(time.Minute)
	defer cache.Stop()

	var statuses []events.RunStatus
	bus := EventBus.New()
	err := bus.Subscribe(events.RunProgressTopic, func(progress events.RunProgress) {
		statuses = append(statuses, progress.Status)
	})
	assert.NoError(t, err)

	provider := staticProvider("src-a", []map[string]any{
		rawCard("1", "Nice Flat Berlin"),
		rawCard("2", "Altbau Kreuzberg"),
	}, nil)

	pipeline := newTestPipeline(store, notifier, cache, bus)
	notified, err := pipeline.Run(context.Background(), testJob(), testJob().ProviderBindings[0], provider)

	assert.NoError(t, err)
	assert.Len(t, notified, 2)
	assert.Len(t, store.saved, 2)
	assert.Len(t, store.known["job-1/src-a"], 2)
	assert.Len(t, notifier.batches, 1)

	for _, listing := range store.saved {
		assert.Equal(t, "src-a", listing.ProviderID)
		assert.Equal(t, "job-1", listing.JobID)
		assert.Contains(t, listing.TrackingURL, "https://track/")
		assert.True(t, listing.Location.HasCoordinates())
	}

	bus.WaitAsync()
	assert.Equal(t, []events.RunStatus{
		events.StatusSearching, events.StatusNormalizing, events.StatusFiltering,
		events.StatusDiffing, events.StatusPolishing, events.StatusEnriching,
		events.StatusSaving, events.StatusDeduplicating, events.StatusNotifying,
	}, statuses)
}

func Test_Pipeline_KnownIdsAreDiffedOut(t *testing.T) {

	store := newFakeStore()
	notifier := &fakeNotifier{}
	cache := similarity.NewCache(time.Minute)
	defer cache.Stop()

	provider := staticProvider("src-a", []map[string]any{rawCard("1", "Nice Flat Berlin")}, nil)
	pipeline := newTestPipeline(store, notifier, cache, nil)

	first, err := pipeline.Run(context.Background(), testJob(), testJob().ProviderBindings[0], provider)
	assert.NoError(t, err)
	assert.Len(t, first, 1)

	// same source content again: ids are stable, the diff drops everything
	second, err := pipeline.Run(context.Background(), testJob(), testJob().ProviderBindings[0], provider)
	assert.NoError(t, err)
	assert.Empty(t, second)
	assert.Len(t, store.saved, 1)
	assert.Len(t, notifier.batches, 1)
}

func Test_Pipeline_BlacklistAppliedBeforePersistence(t *testing.T) {

	store := newFakeStore()
	notifier := &fakeNotifier{}

	job := testJob()
	job.Blacklist = "WG,Tausch"

	provider := staticProvider("src-a", []map[string]any{
		rawCard("1", "WG Zimmer Neukölln"),
		rawCard("2", "Altbau Kreuzberg"),
	}, nil)

	pipeline := newTestPipeline(store, notifier, nil, nil)
	notified, err := pipeline.Run(context.Background(), job, job.ProviderBindings[0], provider)

	assert.NoError(t, err)
	assert.Len(t, notified, 1)
	assert.Len(t, store.saved, 1)
	assert.Equal(t, "Altbau Kreuzberg", store.saved[0].Title)
}

func Test_Pipeline_MalformedCardIsSkippedNotFatal(t *testing.T) {

	store := newFakeStore()
	notifier := &fakeNotifier{}

	provider := staticProvider("src-a", []map[string]any{
		{"id": "broken"},
		rawCard("2", "Altbau Kreuzberg"),
	}, nil)

	pipeline := newTestPipeline(store, notifier, nil, nil)
	notified, err := pipeline.Run(context.Background(), testJob(), testJob().ProviderBindings[0], provider)

	assert.NoError(t, err)
	assert.Len(t, notified, 1)
}

func Test_Pipeline_SimilarTitleSuppressedButStillSaved(t *testing.T) {

	store := newFakeStore()
	notifier := &fakeNotifier{}
	cache := similarity.NewCache(time.Minute)
	defer cache.Stop()
	cache.Add("job-1", "Nice Flat Berlin")

	provider := staticProvider("src-a", []map[string]any{rawCard("1", "Nice Flat Berlin")}, nil)
	pipeline := newTestPipeline(store, notifier, cache, nil)

	notified, err := pipeline.Run(context.Background(), testJob(), testJob().ProviderBindings[0], provider)

	assert.NoError(t, err)
	assert.Empty(t, notified)
	assert.Len(t, store.saved, 1)
	assert.Empty(t, notifier.batches)
}

func Test_Pipeline_ZeroNewListingsSkipsNotify(t *testing.T) {

	store := newFakeStore()
	notifier := &fakeNotifier{}

	provider := staticProvider("src-a", nil, nil)
	pipeline := newTestPipeline(store, notifier, nil, nil)

	notified, err := pipeline.Run(context.Background(), testJob(), testJob().ProviderBindings[0], provider)

	assert.NoError(t, err)
	assert.Empty(t, notified)
	assert.Empty(t, store.saved)
	assert.Empty(t, notifier.batches)
}

func Test_Pipeline_StageErrorAbortsRun(t *testing.T) {

	store := newFakeStore()
	notifier := &fakeNotifier{}

	provider := staticProvider("src-a", nil, errors.New("connection reset"))
	pipeline := newTestPipeline(store, notifier, nil, nil)

	_, err := pipeline.Run(context.Background(), testJob(), testJob().ProviderBindings[0], provider)
	assert.Error(t, err)
	assert.Empty(t, store.saved)
}
