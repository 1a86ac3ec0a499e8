package providers

import (
	"context"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/mwehner/immowatch/internal/domain/models"
	"github.com/mwehner/immowatch/internal/extract"
)

var ErrMandatoryFieldsMissing = errors.New("listing is missing mandatory fields")

// Config declares how one source is crawled: the query rewrite that forces
// recency ordering, the card container selector and the per-field
// selector+pipe expressions evaluated against each card.
type Config struct {
	SortBy          url.Values
	RemoveParams    map[string]string
	Container       string
	Fields          map[string]string
	WaitForSelector string
	Rendered        bool
}

// RunParams carries the per-run state an adapter needs: the job identity
// for id hashing and tracking, the resolved source URL and this run's
// blacklist. Built fresh immediately before each run so nothing leaks
// between jobs.
type RunParams struct {
	JobID     string
	UserID    string
	URL       string
	Blacklist *BlacklistMatcher
}

// Provider is a pure-value adapter descriptor for one listing source.
// GetListings overrides flat card extraction for sources that need it
// (JSON APIs); when nil the generic extractor drives Config.
type Provider struct {
	ID      string
	Name    string
	BaseURL string
	Config  Config

	GetListings func(ctx context.Context, fetcher extract.Fetcher, url string) ([]map[string]any, error)
	Normalize   func(run RunParams, raw map[string]any) (models.Listing, error)
}

// Filter reports whether a normalized listing survives: mandatory fields
// present and no blacklist match on the title or description.
func Filter(listing models.Listing, blacklist *BlacklistMatcher) bool {
	if listing.Title == "" || listing.URL == "" {
		return false
	}
	if blacklist.Matches(listing.Title) || blacklist.Matches(listing.Description) {
		return false
	}
	return true
}

func stringField(raw map[string]any, key string) string {
	if value, ok := raw[key].(string); ok {
		return value
	}
	return ""
}

func absoluteURL(baseURL, href string) string {
	if href == "" || strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return baseURL + href
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
