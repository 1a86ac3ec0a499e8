package repositories

import (
	"context"
	"time"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mwehner/immowatch/internal/domain/models"
)

type Jobs struct {
	db *gorm.DB
}

func NewJobsRepository(db *gorm.DB) *Jobs {
	return &Jobs{db: db}
}

func (repo *Jobs) GetActive(ctx context.Context) ([]models.Job, error) {

	var jobs []models.Job
	if err := repo.db.WithContext(ctx).
		Preload("ProviderBindings").
		Preload("NotificationBindings").
		Find(&jobs, "active = ?", true).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func (repo *Jobs) GetByID(ctx context.Context, id string) (*models.Job, error) {

	var job models.Job
	if err := repo.db.WithContext(ctx).
		Preload("ProviderBindings").
		Preload("NotificationBindings").
		First(&job, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// KnownListingIDs loads the already-persisted listing ids for one
// (job, provider) pair.
func (repo *Jobs) KnownListingIDs(ctx context.Context, jobID, providerID string) (map[string]struct{}, error) {

	var ids []string
	if err := repo.db.WithContext(ctx).Model(&models.KnownListing{}).
		Where("job_id = ? AND provider_id = ?", jobID, providerID).
		Pluck("listing_id", &ids).Error; err != nil {
		return nil, err
	}

	return lo.SliceToMap(ids, func(id string) (string, struct{}) {
		return id, struct{}{}
	}), nil
}

// AddListingIDs appends newly persisted ids to the known-id set. Replayed
// ids are ignored so the set only grows.
func (repo *Jobs) AddListingIDs(ctx context.Context, ids []string, jobID, providerID string) error {

	if len(ids) == 0 {
		return nil
	}

	rows := lo.Map(ids, func(id string, _ int) models.KnownListing {
		return models.KnownListing{JobID: jobID, ProviderID: providerID, ListingID: id}
	})

	return repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}

func (repo *Jobs) UpdateLastRun(ctx context.Context, jobID, providerID string, startTime time.Time) error {

	if err := repo.db.WithContext(ctx).Model(&models.ProviderBinding{}).
		Where("job_id = ? AND provider_id = ?", jobID, providerID).
		Update("last_execution", startTime).Error; err != nil {
		return err
	}

	return repo.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ?", jobID).
		Update("last_run_at", startTime).Error
}

func (repo *Jobs) AddProviderError(ctx context.Context, jobID string, record models.ProviderError) error {
	record.JobID = jobID
	return repo.db.WithContext(ctx).Create(&record).Error
}
