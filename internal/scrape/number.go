package scrape

import (
	"regexp"
	"strconv"
	"strings"
)

var numberPattern = regexp.MustCompile(`\d+(?:[.,]\d+)*`)

// ExtractNumber finds the first numeric-looking substring in free text and
// parses it. Both German formatting (. thousands, , decimal) and English
// formatting (, thousands, . decimal) are handled; when both separators
// occur, the one appearing later is the decimal separator. Returns nil for
// non-string input or when no number is present.
func ExtractNumber(input any) *float64 {

	text, ok := input.(string)
	if !ok {
		return nil
	}

	match := numberPattern.FindString(text)
	if match == "" {
		return nil
	}

	lastDot := strings.LastIndex(match, ".")
	lastComma := strings.LastIndex(match, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			match = strings.ReplaceAll(match, ".", "")
			match = strings.ReplaceAll(match, ",", ".")
		} else {
			match = strings.ReplaceAll(match, ",", "")
		}
	case lastComma >= 0:
		match = normalizeSingleSeparator(match, ",")
	case lastDot >= 0:
		match = normalizeSingleSeparator(match, ".")
	}

	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return nil
	}
	return &value
}

// A lone separator followed by exactly three digits is a thousands
// separator ("1.234" / "1,234"); anything else is a decimal point.
func normalizeSingleSeparator(match, sep string) string {
	if strings.Count(match, sep) > 1 {
		return strings.ReplaceAll(match, sep, "")
	}
	idx := strings.LastIndex(match, sep)
	if len(match)-idx-1 == 3 {
		return strings.ReplaceAll(match, sep, "")
	}
	if sep == "," {
		return strings.Replace(match, ",", ".", 1)
	}
	return match
}
