package repository

import (
	"context"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/juriscorrect/juriscorrect-api/internal/models"
)

// CorrectionRepository defines data operations for corrections.
type CorrectionRepository interface {
	// CreateActive inserts a running row unless an active row already exists
	// for the submission. It reports false when the insert lost the conflict.
	CreateActive(ctx context.Context, correction *models.Correction) (bool, error)
	LatestActive(ctx context.Context, submissionID string) (models.Correction, error)
	Latest(ctx context.Context, submissionID string) (models.Correction, error)
	GetByID(ctx context.Context, id string) (models.Correction, error)
	// Finalize moves a running row to ready with its result payload. It
	// returns gorm.ErrRecordNotFound when the row is no longer running, which
	// keeps ready strictly write-once.
	Finalize(ctx context.Context, id string, result datatypes.JSON, degraded bool) error
	// MarkFailed abandons a running row, clearing its active flag so a later
	// generate can insert a fresh one. Terminal rows are left untouched.
	MarkFailed(ctx context.Context, id string) error
}

type correctionRepository struct {
	db *gorm.DB
}

// NewCorrectionRepository instantiates the repository.
func NewCorrectionRepository(db *gorm.DB) CorrectionRepository {
	return &correctionRepository{db: db}
}

func (r *correctionRepository) CreateActive(ctx context.Context, correction *models.Correction) (bool, error) {
	active := true
	correction.Active = &active

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "submission_id"}, {Name: "active"}},
			DoNothing: true,
		}).
		Create(correction)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *correctionRepository) LatestActive(ctx context.Context, submissionID string) (models.Correction, error) {
	var correction models.Correction
	err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Where("active = ?", true).
		Order("created_at DESC").
		First(&correction).Error
	if err != nil {
		return models.Correction{}, err
	}

	return correction, nil
}

func (r *correctionRepository) Latest(ctx context.Context, submissionID string) (models.Correction, error) {
	var correction models.Correction
	err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("created_at DESC").
		First(&correction).Error
	if err != nil {
		return models.Correction{}, err
	}

	return correction, nil
}

func (r *correctionRepository) GetByID(ctx context.Context, id string) (models.Correction, error) {
	var correction models.Correction
	if err := r.db.WithContext(ctx).First(&correction, "id = ?", id).Error; err != nil {
		return models.Correction{}, err
	}

	return correction, nil
}

func (r *correctionRepository) Finalize(ctx context.Context, id string, result datatypes.JSON, degraded bool) error {
	update := r.db.WithContext(ctx).
		Model(&models.Correction{}).
		Where("id = ?", id).
		Where("status = ?", models.CorrectionStatusRunning).
		Updates(map[string]interface{}{
			"status":   models.CorrectionStatusReady,
			"result":   result,
			"degraded": degraded,
		})
	if update.Error != nil {
		return update.Error
	}
	if update.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *correctionRepository) MarkFailed(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&models.Correction{}).
		Where("id = ?", id).
		Where("status = ?", models.CorrectionStatusRunning).
		Updates(map[string]interface{}{
			"status": models.CorrectionStatusFailed,
			"active": nil,
		}).Error
}
