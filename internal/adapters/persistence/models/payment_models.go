package models

import (
	"time"

	"gorm.io/gorm"
)

// Payment statuses
const (
	PaymentStatusPending   = "pending"
	PaymentStatusProcessed = "processed"
)

// Payment history entry kinds
const (
	PaymentEntryCreated = "created"
	PaymentEntryUpdated = "updated"
)

// Payment represents the payment record for one instructor and period.
// One row per (instructor, academic year, semester); amount changes are
// applied in place with every change appended to payment_records.
type Payment struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	InstructorID uint   `gorm:"not null;uniqueIndex:idx_payment_period" json:"instructor_id"`
	AcademicYear string `gorm:"size:10;not null;uniqueIndex:idx_payment_period" json:"academic_year"`
	Semester     string `gorm:"size:10;not null;uniqueIndex:idx_payment_period" json:"semester"`

	TotalLoad     float64 `gorm:"type:decimal(8,2);not null" json:"total_load"`
	PaymentAmount float64 `gorm:"type:decimal(12,2);not null" json:"payment_amount"`
	TotalPayment  float64 `gorm:"type:decimal(14,2);not null" json:"total_payment"`

	// TransactionRef is for external traceability only, never a lookup key
	TransactionRef string `gorm:"size:80" json:"transaction_ref"`
	Status         string `gorm:"size:20;not null;default:'pending'" json:"status"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Instructor *User           `gorm:"foreignKey:InstructorID" json:"instructor,omitempty"`
	History    []PaymentRecord `gorm:"foreignKey:PaymentID" json:"history,omitempty"`
}

func (Payment) TableName() string {
	return "payments"
}

// PaymentRecord is one entry of the append-only payment history
type PaymentRecord struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PaymentID   uint      `gorm:"not null;index" json:"payment_id"`
	Status      string    `gorm:"size:20;not null" json:"status"`
	Amount      float64   `gorm:"type:decimal(14,2);not null" json:"amount"`
	ProcessedBy uint      `gorm:"not null" json:"processed_by"`
	ProcessedAt time.Time `gorm:"not null" json:"processed_at"`
	Remarks     string    `gorm:"type:text" json:"remarks"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`

	Processor *User `gorm:"foreignKey:ProcessedBy" json:"processor,omitempty"`
}

func (PaymentRecord) TableName() string {
	return "payment_records"
}

// PaymentResponse DTO
type PaymentResponse struct {
	ID             uint      `json:"id"`
	InstructorID   uint      `json:"instructor_id"`
	InstructorName string    `json:"instructor_name,omitempty"`
	AcademicYear   string    `json:"academic_year"`
	Semester       string    `json:"semester"`
	TotalLoad      float64   `json:"total_load"`
	PaymentAmount  float64   `json:"payment_amount"`
	TotalPayment   float64   `json:"total_payment"`
	TransactionRef string    `json:"transaction_ref"`
	Status         string    `json:"status"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (p *Payment) ToResponse() *PaymentResponse {
	resp := &PaymentResponse{
		ID:             p.ID,
		InstructorID:   p.InstructorID,
		AcademicYear:   p.AcademicYear,
		Semester:       p.Semester,
		TotalLoad:      p.TotalLoad,
		PaymentAmount:  p.PaymentAmount,
		TotalPayment:   p.TotalPayment,
		TransactionRef: p.TransactionRef,
		Status:         p.Status,
		UpdatedAt:      p.UpdatedAt,
	}
	if p.Instructor != nil {
		resp.InstructorName = p.Instructor.Name
	}
	return resp
}
