package similarity

import (
	"regexp"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const DefaultWindow = 30 * time.Minute

var nonWordChars = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// Cache suppresses near-duplicate notifications per job within a bounded
// time window: a listing that was re-posted or reworded passes the exact-id
// diff as "new" but still carries the same normalized title. State lives
// for the process lifetime only; losing it on restart is accepted.
type Cache struct {
	entries *gocache.Cache
	stop    chan struct{}
}

// NewCache starts the cache and its periodic eviction sweep. Call Stop for
// graceful shutdown or test teardown.
func NewCache(window time.Duration) *Cache {

	if window <= 0 {
		window = DefaultWindow
	}

	c := &Cache{
		entries: gocache.New(window, 0),
		stop:    make(chan struct{}),
	}

	go c.runCleanup(window)
	return c
}

func (c *Cache) runCleanup(window time.Duration) {
	ticker := time.NewTicker(window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.entries.DeleteExpired()
		case <-c.stop:
			return
		}
	}
}

// HasSimilar reports whether an unexpired entry with the same normalized
// title exists for this job.
func (c *Cache) HasSimilar(jobID, title string) bool {
	_, found := c.entries.Get(cacheKey(jobID, title))
	return found
}

func (c *Cache) Add(jobID, title string) {
	c.entries.SetDefault(cacheKey(jobID, title), time.Now())
}

// Stop cancels the eviction sweep.
func (c *Cache) Stop() {
	close(c.stop)
}

func cacheKey(jobID, title string) string {
	return jobID + "|" + normalizeTitle(title)
}

func normalizeTitle(title string) string {
	lowered := strings.ToLower(title)
	return strings.TrimSpace(nonWordChars.ReplaceAllString(lowered, " "))
}
