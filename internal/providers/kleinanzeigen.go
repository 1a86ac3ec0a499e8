package providers

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/mwehner/immowatch/internal/domain/models"
	"github.com/mwehner/immowatch/internal/scrape"
)

// Leading postcode in German address snippets, e.g. "10115 Berlin Mitte".
var postcodePrefix = regexp.MustCompile(`^\d{5}\s+`)

const kleinanzeigenBaseURL = "https://www.kleinanzeigen.de"

var Kleinanzeigen = Provider{
	ID:      "kleinanzeigen",
	Name:    "Kleinanzeigen",
	BaseURL: kleinanzeigenBaseURL,
	Config: Config{
		SortBy:       url.Values{"sortierung": {"neuste"}},
		RemoveParams: map[string]string{"sortierung": "beste"},
		Container:    "article.aditem",
		Fields: map[string]string{
			"id":      "self@data-adid",
			"title":   "h2 a | removeNewline | trim",
			"url":     "h2 a@href",
			"price":   ".aditem-main--middle--price-shipping--price | removeNewline | trim",
			"size":    ".text-module-end .simpletag | trim",
			"address": ".aditem-main--top--left | removeNewline | trim",
			"image":   "img@src",
		},
	},
	Normalize: normalizeKleinanzeigen,
}

func normalizeKleinanzeigen(run RunParams, raw map[string]any) (models.Listing, error) {

	title := stringField(raw, "title")
	href := stringField(raw, "url")
	if title == "" || href == "" {
		return models.Listing{}, ErrMandatoryFieldsMissing
	}

	price := scrape.ExtractNumber(raw["price"])
	size := scrape.ExtractNumber(raw["size"])

	sourceID := stringField(raw, "id")
	if sourceID == "" {
		sourceID = href
	}

	address := stringField(raw, "address")
	city := strings.TrimSpace(postcodePrefix.ReplaceAllString(address, ""))

	return models.Listing{
		ID:    scrape.BuildHash(sourceID, price),
		Title: title,
		Price: price,
		Size:  size,
		Location: models.Location{
			City: optional(city),
		},
		ImageURL: absoluteURL(kleinanzeigenBaseURL, stringField(raw, "image")),
		URL:      absoluteURL(kleinanzeigenBaseURL, href),
	}, nil
}
