package providers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"

	"github.com/mwehner/immowatch/internal/domain/models"
	"github.com/mwehner/immowatch/internal/extract"
	"github.com/mwehner/immowatch/internal/scrape"
)

// Wunderflats serves listings from a JSON API, so flat selectors don't
// apply and the adapter brings its own GetListings.
const wunderflatsBaseURL = "https://wunderflats.com"

var Wunderflats = Provider{
	ID:          "wunderflats",
	Name:        "Wunderflats",
	BaseURL:     wunderflatsBaseURL,
	GetListings: getWunderflatsListings,
	Normalize:   normalizeWunderflats,
}

type wunderflatsListing struct {
	ID      string   `json:"_id"`
	Title   string   `json:"title"`
	Price   *float64 `json:"price"`
	Area    *float64 `json:"area"`
	Rooms   *float64 `json:"rooms"`
	Image   string   `json:"image"`
	Slug    string   `json:"slug"`
	Address struct {
		Street    string   `json:"street"`
		City      string   `json:"city"`
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	} `json:"address"`
}

func getWunderflatsListings(ctx context.Context, fetcher extract.Fetcher, url string) ([]map[string]any, error) {

	body, err := fetcher.Fetch(ctx, url, "")
	if err != nil {
		return nil, err
	}
	if body == "" {
		return nil, nil
	}

	var response struct {
		Listings []wunderflatsListing `json:"listings"`
	}
	if err := json.Unmarshal([]byte(body), &response); err != nil {
		return nil, errors.Wrap(err, "error decoding listings response")
	}

	cards := make([]map[string]any, 0, len(response.Listings))
	for _, listing := range response.Listings {
		encoded, err := json.Marshal(listing)
		if err != nil {
			continue
		}
		cards = append(cards, map[string]any{"json": string(encoded)})
	}
	return cards, nil
}

func normalizeWunderflats(run RunParams, raw map[string]any) (models.Listing, error) {

	var listing wunderflatsListing
	if err := json.Unmarshal([]byte(stringField(raw, "json")), &listing); err != nil {
		return models.Listing{}, errors.Wrap(err, "error decoding listing")
	}

	if listing.Title == "" || listing.Slug == "" {
		return models.Listing{}, ErrMandatoryFieldsMissing
	}

	url := fmt.Sprintf("%s/furnished-apartments/%s", wunderflatsBaseURL, listing.Slug)

	return models.Listing{
		ID:    scrape.BuildHash(listing.ID, listing.Price),
		Title: listing.Title,
		Price: listing.Price,
		Size:  listing.Area,
		Rooms: listing.Rooms,
		Location: models.Location{
			Street:    optional(listing.Address.Street),
			City:      optional(listing.Address.City),
			Latitude:  listing.Address.Latitude,
			Longitude: listing.Address.Longitude,
		},
		ImageURL: listing.Image,
		URL:      url,
	}, nil
}
