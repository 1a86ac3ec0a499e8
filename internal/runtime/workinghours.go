package runtime

import (
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const fullDayMillis = 24 * 60 * 60 * 1000

// WithinWorkingHours reports whether now falls inside the configured daily
// window. Unset boundaries (or both "00:00") mean the crawler always runs.
// "00:00" as an end boundary means end of day, so "06:00".."00:00" covers
// 6 AM through midnight. A from later than to wraps overnight, e.g.
// "22:00".."06:00". Boundaries are inclusive.
func WithinWorkingHours(from, to string, now time.Time) bool {

	if from == "" || to == "" {
		return true
	}
	if from == "00:00" && to == "00:00" {
		return true
	}

	fromMillis, err := dayMillis(from)
	if err != nil {
		log.Warnf("invalid working hours boundary %q, ignoring gate: %v", from, err)
		return true
	}
	toMillis, err := dayMillis(to)
	if err != nil {
		log.Warnf("invalid working hours boundary %q, ignoring gate: %v", to, err)
		return true
	}
	if toMillis == 0 {
		toMillis = fullDayMillis
	}

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	nowMillis := int(now.Sub(midnight).Milliseconds())

	if fromMillis <= toMillis {
		return nowMillis >= fromMillis && nowMillis <= toMillis
	}
	return nowMillis >= fromMillis || nowMillis <= toMillis
}

func dayMillis(boundary string) (int, error) {
	parsed, err := time.Parse("15:04", boundary)
	if err != nil {
		return 0, errors.Wrap(err, "boundary must be HH:MM")
	}
	return (parsed.Hour()*3600 + parsed.Minute()*60) * 1000, nil
}
