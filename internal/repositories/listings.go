package repositories

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mwehner/immowatch/internal/domain/models"
)

type Listings struct {
	db *gorm.DB
}

func NewListingsRepository(db *gorm.DB) *Listings {
	return &Listings{db: db}
}

// SaveListings persists a batch of new listings. Ids are content hashes,
// so a replayed listing is the same row and is left untouched.
func (repo *Listings) SaveListings(ctx context.Context, listings []models.Listing) error {

	if len(listings) == 0 {
		return nil
	}

	return repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&listings).Error
}

func (repo *Listings) GetByJob(ctx context.Context, jobID string) ([]models.Listing, error) {

	var listings []models.Listing
	if err := repo.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&listings, "job_id = ?", jobID).Error; err != nil {
		return nil, err
	}
	return listings, nil
}
