package models

import "time"

type Location struct {
	Street    *string
	City      *string
	Latitude  *float64
	Longitude *float64
}

func (l Location) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

func (l Location) HasAddress() bool {
	return l.Street != nil || l.City != nil
}

// Listing is one crawled real-estate item. Its id is a content hash over
// provider-supplied fields, so a later crawl of the same item yields the
// same id and the known-id diff holds.
type Listing struct {
	ID           string `gorm:"primaryKey"`
	JobID        string `gorm:"index"`
	ProviderID   string
	ProviderName string
	Title        string
	Description  string
	Price        *float64
	Size         *float64
	Rooms        *float64
	Location     Location `gorm:"embedded;embeddedPrefix:location_"`
	ImageURL     string
	URL          string
	TrackingURL  string
	CreatedAt    time.Time
}
