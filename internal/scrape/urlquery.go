package scrape

import "net/url"

// ModifyQuery rewrites a crawl URL so every fetch returns listings in a
// deterministic recency order: params from sort overwrite same-key params,
// and any param whose current value equals its removeIfEquals entry is
// stripped (a provider default ordering that would conflict with sort).
// Idempotent; a blank or unparseable URL is returned unchanged.
func ModifyQuery(rawURL string, sort url.Values, removeIfEquals map[string]string) string {

	if rawURL == "" {
		return rawURL
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	query := parsed.Query()
	for key, unwanted := range removeIfEquals {
		if query.Get(key) == unwanted {
			query.Del(key)
		}
	}
	for key, values := range sort {
		query[key] = append([]string(nil), values...)
	}

	parsed.RawQuery = query.Encode()
	return parsed.String()
}
