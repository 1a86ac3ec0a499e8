package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"

	"github.com/mwehner/immowatch/internal/scrape"
)

// A field expression selects a value out of a listing card and runs it
// through a chain of named transforms, e.g.
//
//	".price | removeNewline | trim"
//	"a.title@href"
//	"img@data-count | int"
//
// An empty selector (or "self") targets the card container itself.
type FieldExpr struct {
	Selector   string
	Attr       string
	transforms []transformFunc
}

type transformFunc func(value any) any

var transforms = map[string]transformFunc{
	"trim": func(value any) any {
		if s, ok := value.(string); ok {
			return strings.TrimSpace(s)
		}
		return value
	},
	"removeNewline": func(value any) any {
		if s, ok := value.(string); ok {
			s = strings.ReplaceAll(s, "\n", " ")
			return strings.ReplaceAll(s, "\r", " ")
		}
		return value
	},
	"int":         toNumber,
	"parseNumber": toNumber,
}

func toNumber(value any) any {
	if parsed := scrape.ExtractNumber(value); parsed != nil {
		return *parsed
	}
	return nil
}

func ParseFieldExpr(expr string) (FieldExpr, error) {

	parts := strings.Split(expr, "|")
	target := strings.TrimSpace(parts[0])

	field := FieldExpr{Selector: target}
	if at := strings.LastIndex(target, "@"); at >= 0 {
		field.Selector = strings.TrimSpace(target[:at])
		field.Attr = strings.TrimSpace(target[at+1:])
	}
	if field.Selector == "self" {
		field.Selector = ""
	}

	for _, name := range parts[1:] {
		name = strings.TrimSpace(name)
		transform, ok := transforms[name]
		if !ok {
			return FieldExpr{}, errors.Errorf("unknown transform %q in field expression %q", name, expr)
		}
		field.transforms = append(field.transforms, transform)
	}

	return field, nil
}

// Eval resolves the expression against one card. A missing selector match
// or absent attribute yields nil rather than an error.
func (f FieldExpr) Eval(card *goquery.Selection) any {

	target := card
	if f.Selector != "" {
		target = card.Find(f.Selector)
	}
	if target.Length() == 0 {
		return nil
	}

	var value any
	if f.Attr != "" {
		attr, exists := target.First().Attr(f.Attr)
		if !exists {
			return nil
		}
		value = attr
	} else {
		value = target.First().Text()
	}

	for _, transform := range f.transforms {
		value = transform(value)
		if value == nil {
			return nil
		}
	}

	return value
}
