package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mwehner/immowatch/internal/domain/models"
)

func Test_BlacklistMatcher_WholeWordCaseInsensitive(t *testing.T) {
	matcher := NewBlacklistMatcher([]string{"WG", "tausch"})

	assert.True(t, matcher.Matches("Schönes WG Zimmer"))
	assert.True(t, matcher.Matches("wg zimmer in Mitte"))
	assert.True(t, matcher.Matches("Wohnung im Tausch"))
}

func Test_BlacklistMatcher_NoSubstringMatch(t *testing.T) {
	matcher := NewBlacklistMatcher([]string{"WG"})

	assert.False(t, matcher.Matches("WGsomething"))
	assert.False(t, matcher.Matches("Wohngemeinschaft"))
}

func Test_BlacklistMatcher_EmptyTerms(t *testing.T) {
	assert.False(t, NewBlacklistMatcher(nil).Matches("anything"))
	assert.False(t, NewBlacklistMatcher([]string{"", "  "}).Matches("anything"))
}

func Test_Filter_DropsBlacklistedTitle(t *testing.T) {
	matcher := NewBlacklistMatcher([]string{"WG"})

	listing := models.Listing{Title: "WG Zimmer Kreuzberg", URL: "https://example.com/1"}
	assert.False(t, Filter(listing, matcher))

	listing.Title = "2-Zimmer Wohnung Kreuzberg"
	assert.True(t, Filter(listing, matcher))
}

func Test_Filter_DropsMissingMandatoryFields(t *testing.T) {
	matcher := NewBlacklistMatcher(nil)

	assert.False(t, Filter(models.Listing{Title: "ohne URL"}, matcher))
	assert.False(t, Filter(models.Listing{URL: "https://example.com/1"}, matcher))
}
