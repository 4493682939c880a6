package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/juriscorrect/juriscorrect-api/internal/models"
)

// PaymentRepository defines data operations for payment unlocks.
type PaymentRepository interface {
	Create(ctx context.Context, unlock *models.PaymentUnlock) error
	GetBySessionID(ctx context.Context, sessionID string) (models.PaymentUnlock, error)
	MarkCompleted(ctx context.Context, sessionID string, amountTotal int64) error
	HasCompletedForSubmission(ctx context.Context, submissionID string) (bool, error)
}

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository instantiates the repository.
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, unlock *models.PaymentUnlock) error {
	return r.db.WithContext(ctx).Create(unlock).Error
}

func (r *paymentRepository) GetBySessionID(ctx context.Context, sessionID string) (models.PaymentUnlock, error) {
	var unlock models.PaymentUnlock
	if err := r.db.WithContext(ctx).First(&unlock, "checkout_session_id = ?", sessionID).Error; err != nil {
		return models.PaymentUnlock{}, err
	}

	return unlock, nil
}

func (r *paymentRepository) MarkCompleted(ctx context.Context, sessionID string, amountTotal int64) error {
	return r.db.WithContext(ctx).
		Model(&models.PaymentUnlock{}).
		Where("checkout_session_id = ?", sessionID).
		Updates(map[string]interface{}{
			"status":       models.PaymentStatusCompleted,
			"amount_total": amountTotal,
		}).Error
}

func (r *paymentRepository) HasCompletedForSubmission(ctx context.Context, submissionID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PaymentUnlock{}).
		Where("submission_id = ?", submissionID).
		Where("status = ?", models.PaymentStatusCompleted).
		Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}
