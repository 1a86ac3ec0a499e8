package scrape

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"reflect"
	"strings"
)

// BuildHash digests an ordered tuple of values into a stable hex string.
// Nil, empty-string and empty-slice parts are dropped; remaining non-string
// parts are JSON-encoded. Returns "" when nothing is left after filtering.
// Swapping two distinct arguments changes the result.
func BuildHash(parts ...any) string {

	var kept []string
	for _, part := range parts {
		if part == nil {
			continue
		}
		switch v := part.(type) {
		case string:
			if v == "" {
				continue
			}
			kept = append(kept, v)
		default:
			rv := reflect.ValueOf(part)
			switch rv.Kind() {
			case reflect.Slice, reflect.Map, reflect.Array:
				if rv.Len() == 0 {
					continue
				}
			case reflect.Ptr:
				if rv.IsNil() {
					continue
				}
			}
			encoded, err := json.Marshal(part)
			if err != nil {
				continue
			}
			kept = append(kept, string(encoded))
		}
	}

	if len(kept) == 0 {
		return ""
	}

	sum := sha256.Sum256([]byte(strings.Join(kept, "|")))
	return hex.EncodeToString(sum[:])
}
