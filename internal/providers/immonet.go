package providers

import (
	"net/url"
	"strings"

	"github.com/mwehner/immowatch/internal/domain/models"
	"github.com/mwehner/immowatch/internal/scrape"
)

// Immonet renders its result cards client-side, so this adapter goes
// through the rendering fetcher and waits for the card list selector.
const immonetBaseURL = "https://www.immonet.de"

var Immonet = Provider{
	ID:      "immonet",
	Name:    "Immonet",
	BaseURL: immonetBaseURL,
	Config: Config{
		SortBy:          url.Values{"order": {"DateDesc"}},
		RemoveParams:    map[string]string{"order": "Default"},
		Container:       "div[data-testid='serp-card']",
		WaitForSelector: "div[data-testid='serp-gridcontainer']",
		Rendered:        true,
		Fields: map[string]string{
			"id":      "self@data-obid",
			"title":   "[data-testid='cardmfe-description-box-text-test-id'] | removeNewline | trim",
			"url":     "a@href",
			"price":   "[data-testid='cardmfe-price-test-id'] | trim",
			"size":    "[data-testid='cardmfe-keyfacts-area'] | trim",
			"rooms":   "[data-testid='cardmfe-keyfacts-rooms'] | trim",
			"address": "[data-testid='cardmfe-description-box-address'] | removeNewline | trim",
			"image":   "img@src",
		},
	},
	Normalize: normalizeImmonet,
}

func normalizeImmonet(run RunParams, raw map[string]any) (models.Listing, error) {

	title := stringField(raw, "title")
	href := stringField(raw, "url")
	if title == "" || href == "" {
		return models.Listing{}, ErrMandatoryFieldsMissing
	}

	price := scrape.ExtractNumber(raw["price"])

	sourceID := stringField(raw, "id")
	if sourceID == "" {
		sourceID = href
	}

	street, city := splitAddress(stringField(raw, "address"))

	return models.Listing{
		ID:    scrape.BuildHash(sourceID, price),
		Title: title,
		Price: price,
		Size:  scrape.ExtractNumber(raw["size"]),
		Rooms: scrape.ExtractNumber(raw["rooms"]),
		Location: models.Location{
			Street: street,
			City:   city,
		},
		ImageURL: stringField(raw, "image"),
		URL:      absoluteURL(immonetBaseURL, href),
	}, nil
}

// "Musterstraße 1, 10115 Berlin" → street before the first comma, city
// after the postcode. A snippet without a comma is treated as city only.
func splitAddress(address string) (street, city *string) {
	if address == "" {
		return nil, nil
	}

	parts := strings.SplitN(address, ",", 2)
	if len(parts) == 1 {
		trimmed := strings.TrimSpace(postcodePrefix.ReplaceAllString(parts[0], ""))
		return nil, optional(trimmed)
	}

	streetPart := strings.TrimSpace(parts[0])
	cityPart := strings.TrimSpace(postcodePrefix.ReplaceAllString(strings.TrimSpace(parts[1]), ""))
	return optional(streetPart), optional(cityPart)
}
