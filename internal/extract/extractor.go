package extract

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
)

// Extract evaluates every field expression against each node matching the
// container selector and returns one flat field map per node, in DOM order.
// Sources list newest items first, so combined with the query mutator's
// sort param the result order is most-recent-first.
func Extract(doc *goquery.Document, container string, fields map[string]string) ([]map[string]any, error) {

	parsed := make(map[string]FieldExpr, len(fields))
	for name, expr := range fields {
		field, err := ParseFieldExpr(expr)
		if err != nil {
			return nil, errors.Wrapf(err, "field %q", name)
		}
		parsed[name] = field
	}

	var cards []map[string]any
	doc.Find(container).Each(func(_ int, card *goquery.Selection) {
		values := make(map[string]any, len(parsed))
		for name, field := range parsed {
			values[name] = field.Eval(card)
		}
		cards = append(cards, values)
	})

	return cards, nil
}

// FetchCards fetches a page through the given strategy and extracts its
// listing cards. An empty page (blocked or genuinely empty) yields nil.
func FetchCards(ctx context.Context, fetcher Fetcher, url, waitSelector, container string,
	fields map[string]string) ([]map[string]any, error) {

	source, err := fetcher.Fetch(ctx, url, waitSelector)
	if err != nil {
		return nil, err
	}
	if source == "" {
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(source))
	if err != nil {
		return nil, errors.Wrap(err, "error parsing page source")
	}

	return Extract(doc, container, fields)
}
