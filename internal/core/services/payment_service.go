package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"courseflow/internal/adapters/persistence/models"
	"courseflow/internal/adapters/persistence/repositories"
	"courseflow/internal/core/domain"

	"github.com/google/uuid"
)

// amountToleranceCents is the rounding slack for payment comparisons
const amountToleranceCents = 1

// PaymentService reconciles instructor payments: one record per
// (instructor, academic year, semester), updated in place with an append-only
// history of every change.
type PaymentService struct {
	paymentRepo *repositories.PaymentRepository
	userRepo    repositories.UserRepository
	notify      *NotificationService
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	paymentRepo *repositories.PaymentRepository,
	userRepo repositories.UserRepository,
	notify *NotificationService,
) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		userRepo:    userRepo,
		notify:      notify,
	}
}

// CalculateInput represents a payment calculation request
type CalculateInput struct {
	InstructorID  uint    `json:"instructor_id" validate:"required"`
	TotalLoad     float64 `json:"total_load" validate:"gte=0"`
	PaymentAmount float64 `json:"payment_amount" validate:"required,gt=0"`
	TotalPayment  float64 `json:"total_payment" validate:"required,gt=0"`
	AcademicYear  string  `json:"academic_year" validate:"required"`
	Semester      string  `json:"semester" validate:"required,oneof=First Second"`
}

// Calculate validates and upserts the payment for an instructor and period.
// Re-submitting an unchanged total is a no-op that appends no history entry.
func (s *PaymentService) Calculate(ctx context.Context, input *CalculateInput, processedBy uint) (*models.Payment, error) {
	instructor, err := s.userRepo.GetByID(ctx, input.InstructorID)
	if err != nil {
		return nil, domain.ErrInstructorNotFound
	}

	if !domain.IsValidSemester(domain.Semester(input.Semester)) {
		return nil, domain.NewValidationError("semester", "must be First or Second")
	}
	if input.TotalLoad < 0 {
		return nil, domain.NewValidationError("total_load", "must not be negative")
	}
	if input.PaymentAmount <= 0 {
		return nil, domain.NewValidationError("payment_amount", "must be greater than 0")
	}
	if input.TotalPayment <= 0 {
		return nil, domain.NewValidationError("total_payment", "must be greater than 0")
	}

	expected := round2(input.TotalLoad * input.PaymentAmount)
	if !withinTolerance(expected, input.TotalPayment) {
		return nil, domain.NewArithmeticError("total_payment",
			"does not equal total load × payment amount", expected)
	}

	existing, err := s.paymentRepo.GetByPeriod(ctx, input.InstructorID, input.AcademicYear, input.Semester)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	if existing == nil {
		payment := &models.Payment{
			InstructorID:   input.InstructorID,
			AcademicYear:   input.AcademicYear,
			Semester:       input.Semester,
			TotalLoad:      input.TotalLoad,
			PaymentAmount:  input.PaymentAmount,
			TotalPayment:   round2(input.TotalPayment),
			TransactionRef: newTransactionRef(input.InstructorID),
			Status:         models.PaymentStatusPending,
		}
		record := &models.PaymentRecord{
			Status:      models.PaymentEntryCreated,
			Amount:      payment.TotalPayment,
			ProcessedBy: processedBy,
			ProcessedAt: now,
			Remarks:     fmt.Sprintf("initial calculation: %.2f load × %.2f", input.TotalLoad, input.PaymentAmount),
		}
		if err := s.paymentRepo.CreateWithHistory(ctx, payment, record); err != nil {
			return nil, err
		}
		s.notify.NotifyPayment(payment, instructor)
		return payment, nil
	}

	if withinTolerance(existing.TotalPayment, input.TotalPayment) {
		// Idempotent re-submission: nothing to change, no duplicate history
		return existing, nil
	}

	delta := round2(input.TotalPayment) - existing.TotalPayment
	existing.TotalLoad = input.TotalLoad
	existing.PaymentAmount = input.PaymentAmount
	existing.TotalPayment = round2(input.TotalPayment)
	if existing.TransactionRef == "" {
		existing.TransactionRef = newTransactionRef(existing.InstructorID)
	}

	record := &models.PaymentRecord{
		Status:      models.PaymentEntryUpdated,
		Amount:      existing.TotalPayment,
		ProcessedBy: processedBy,
		ProcessedAt: now,
		Remarks:     fmt.Sprintf("recalculated: total payment changed by %+.2f", delta),
	}
	if err := s.paymentRepo.UpdateWithHistory(ctx, existing, record); err != nil {
		return nil, err
	}

	s.notify.NotifyPayment(existing, instructor)
	return existing, nil
}

// GetByInstructor lists an instructor's payment records
func (s *PaymentService) GetByInstructor(ctx context.Context, instructorID uint) ([]*models.Payment, error) {
	if _, err := s.userRepo.GetByID(ctx, instructorID); err != nil {
		return nil, domain.ErrInstructorNotFound
	}
	return s.paymentRepo.ListByInstructor(ctx, instructorID)
}

// GetHistory gets the append-only history of a payment
func (s *PaymentService) GetHistory(ctx context.Context, paymentID uint) ([]models.PaymentRecord, error) {
	return s.paymentRepo.GetHistory(ctx, paymentID)
}

// round2 rounds to two decimal places
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// withinTolerance compares two amounts in integer cents so that a delta of
// exactly one cent still passes. Comparing the float difference against 0.01
// directly fails on representation error.
func withinTolerance(a, b float64) bool {
	return math.Abs(math.Round(a*100)-math.Round(b*100)) <= amountToleranceCents
}

// newTransactionRef builds the external traceability reference:
// instructor id + timestamp + random suffix. Never used as a lookup key.
func newTransactionRef(instructorID uint) string {
	return fmt.Sprintf("%d-%d-%s", instructorID, time.Now().Unix(), uuid.NewString()[:8])
}
