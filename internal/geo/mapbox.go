package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/mwehner/immowatch/internal/domain/models"
	"github.com/mwehner/immowatch/internal/logger"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Mapbox resolves a listing's street/city into coordinates via the Mapbox
// forward-geocoding API. Enrich never fails a listing: any error logs and
// returns the input unchanged.
type Mapbox struct {
	httpClient  HTTPClient
	token       string
	baseURL     string
	rateLimiter *rate.Limiter
}

func NewMapbox(token string) *Mapbox {
	return &Mapbox{
		httpClient: &http.Client{},
		token:      token,
		baseURL:    "https://api.mapbox.com/geocoding/v5/mapbox.places",
	}
}

func (m *Mapbox) SetHTTPClient(client HTTPClient) {
	m.httpClient = client
}

func (m *Mapbox) SetRateLimit(maxRequestsPerSecond float32) {
	m.rateLimiter = rate.NewLimiter(rate.Limit(maxRequestsPerSecond), 1)
}

type geocodeResponse struct {
	Features []struct {
		Center []float64 `json:"center"`
	} `json:"features"`
}

func (m *Mapbox) Enrich(ctx context.Context, listing models.Listing) models.Listing {

	if m.token == "" || listing.Location.HasCoordinates() || !listing.Location.HasAddress() {
		return listing
	}

	center, err := m.geocode(ctx, addressQuery(listing.Location))
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeGeo).
			Errorf("failed to geocode listing %v: %v", listing.ID, err)
		return listing
	}
	if center == nil {
		return listing
	}

	listing.Location.Longitude = &center[0]
	listing.Location.Latitude = &center[1]
	return listing
}

func (m *Mapbox) geocode(ctx context.Context, query string) ([]float64, error) {

	if m.rateLimiter != nil {
		if err := m.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	endpoint := fmt.Sprintf("%s/%s.json?access_token=%s&limit=1",
		m.baseURL, url.PathEscape(query), url.QueryEscape(m.token))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %v", err)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request failed with status %v", resp.StatusCode)
	}

	var geocoded geocodeResponse
	if err := json.Unmarshal(body, &geocoded); err != nil {
		return nil, fmt.Errorf("error decoding JSON response: %v", err)
	}

	if len(geocoded.Features) == 0 || len(geocoded.Features[0].Center) < 2 {
		return nil, nil
	}
	return geocoded.Features[0].Center[:2], nil
}

func addressQuery(location models.Location) string {
	var parts []string
	if location.Street != nil {
		parts = append(parts, *location.Street)
	}
	if location.City != nil {
		parts = append(parts, *location.City)
	}
	return strings.Join(parts, ", ")
}
