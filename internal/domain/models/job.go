package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

// Job binds one or more providers, a blacklist and notification adapters
// for a single user. Jobs are created and edited through the API layer;
// the crawler only reads bindings and writes back run metadata.
type Job struct {
	ID                   string `gorm:"primaryKey"`
	Name                 string
	UserID               string
	Active               bool
	Blacklist            string
	ProviderBindings     []ProviderBinding     `gorm:"foreignKey:JobID"`
	NotificationBindings []NotificationBinding `gorm:"foreignKey:JobID"`
	Errors               []ProviderError       `gorm:"foreignKey:JobID"`
	LastRunAt            *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (j *Job) BlacklistAsArray() []string {
	if j.Blacklist == "" {
		return []string{}
	}
	return lo.Map(strings.Split(j.Blacklist, ","), func(term string, _ int) string {
		return strings.TrimSpace(term)
	})
}

// ProviderBinding configures one crawl source of a job. The set of already
// persisted listing ids for the (job, provider) pair lives in its own table
// and only grows during normal operation.
type ProviderBinding struct {
	ID            uint   `gorm:"primaryKey"`
	JobID         string `gorm:"index"`
	ProviderID    string
	URL           string
	LastExecution *time.Time
	CreatedAt     time.Time
}

// NotificationBinding selects a notification adapter and carries its
// adapter-specific configuration as an opaque JSON document.
type NotificationBinding struct {
	ID        uint   `gorm:"primaryKey"`
	JobID     string `gorm:"index"`
	AdapterID string
	Fields    string
	CreatedAt time.Time
}

func (b *NotificationBinding) FieldsAsMap() map[string]string {
	fields := map[string]string{}
	if b.Fields == "" {
		return fields
	}
	if err := json.Unmarshal([]byte(b.Fields), &fields); err != nil {
		log.Errorf("invalid notification fields for binding %d: %v", b.ID, err)
	}
	return fields
}

// ProviderError records a failed provider run on its job.
type ProviderError struct {
	ID           uint   `gorm:"primaryKey"`
	JobID        string `gorm:"index"`
	ProviderID   string
	ProviderName string
	ProviderURL  string
	Message      string
	Timestamp    time.Time
}

// KnownListing marks a listing id as already persisted for a
// (job, provider) pair. Rows are appended, never removed by the crawler.
type KnownListing struct {
	ID         uint   `gorm:"primaryKey"`
	JobID      string `gorm:"uniqueIndex:idx_job_provider_listing"`
	ProviderID string `gorm:"uniqueIndex:idx_job_provider_listing"`
	ListingID  string `gorm:"uniqueIndex:idx_job_provider_listing"`
	CreatedAt  time.Time
}
