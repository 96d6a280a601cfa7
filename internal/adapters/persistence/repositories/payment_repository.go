package repositories

import (
	"context"
	"errors"

	"courseflow/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// PaymentRepository handles payment data access
type PaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// GetByPeriod gets the payment for an instructor and period. Returns nil
// without error when no record exists yet.
func (r *PaymentRepository) GetByPeriod(ctx context.Context, instructorID uint, academicYear, semester string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Where("instructor_id = ? AND academic_year = ? AND semester = ?", instructorID, academicYear, semester).
		First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// CreateWithHistory creates a payment and its first history entry together
func (r *PaymentRepository) CreateWithHistory(ctx context.Context, payment *models.Payment, record *models.PaymentRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(payment).Error; err != nil {
			return err
		}
		record.PaymentID = payment.ID
		return tx.Create(record).Error
	})
}

// UpdateWithHistory updates a payment in place and appends one history entry.
// Prior history rows are never touched.
func (r *PaymentRepository) UpdateWithHistory(ctx context.Context, payment *models.Payment, record *models.PaymentRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Payment{}).
			Where("id = ?", payment.ID).
			Updates(map[string]interface{}{
				"total_load":      payment.TotalLoad,
				"payment_amount":  payment.PaymentAmount,
				"total_payment":   payment.TotalPayment,
				"transaction_ref": payment.TransactionRef,
				"status":          payment.Status,
			})
		if res.Error != nil {
			return res.Error
		}
		record.PaymentID = payment.ID
		return tx.Create(record).Error
	})
}

// ListByInstructor lists an instructor's payments, newest period first
func (r *PaymentRepository) ListByInstructor(ctx context.Context, instructorID uint) ([]*models.Payment, error) {
	var payments []*models.Payment
	err := r.db.WithContext(ctx).
		Where("instructor_id = ?", instructorID).
		Order("academic_year DESC, semester ASC").
		Find(&payments).Error
	return payments, err
}

// GetHistory gets a payment's history in append order
func (r *PaymentRepository) GetHistory(ctx context.Context, paymentID uint) ([]models.PaymentRecord, error) {
	var records []models.PaymentRecord
	err := r.db.WithContext(ctx).
		Preload("Processor").
		Where("payment_id = ?", paymentID).
		Order("created_at ASC, id ASC").
		Find(&records).Error
	return records, err
}
