package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"courseflow/internal/adapters/persistence/models"
)

// NotificationService delivers workflow events to the notification webhook.
// Delivery is best effort: every failure is logged and swallowed so a broken
// notifier can never roll back or fail a transition.
type NotificationService struct {
	webhookURL string
	enabled    bool
	client     *http.Client
}

// NewNotificationService creates a new notification service
func NewNotificationService() *NotificationService {
	url := os.Getenv("NOTIFY_WEBHOOK_URL")
	return &NotificationService{
		webhookURL: url,
		enabled:    url != "",
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// IsEnabled checks if notification is enabled
func (s *NotificationService) IsEnabled() bool {
	return s.enabled
}

type notifyPayload struct {
	Recipient string                 `json:"recipient"`
	Subject   string                 `json:"subject"`
	Data      map[string]interface{} `json:"data"`
}

// send posts one notification; callers never see the error
func (s *NotificationService) send(recipient, subject string, data map[string]interface{}) {
	if !s.enabled {
		return
	}

	body, err := json.Marshal(notifyPayload{Recipient: recipient, Subject: subject, Data: data})
	if err != nil {
		log.Printf("⚠️ Notification marshal failed: %v", err)
		return
	}

	resp, err := s.client.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("⚠️ Notification delivery failed (%s): %v", subject, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Printf("⚠️ Notification rejected (%s): status %d", subject, resp.StatusCode)
	}
}

// NotifyAssignmentRequested tells the department head an instructor wants a course
func (s *NotificationService) NotifyAssignmentRequested(course *models.Course, instructor *models.User) {
	s.send(course.Department, "Course assignment requested", map[string]interface{}{
		"course_id":   course.ID,
		"course_code": course.Code,
		"instructor":  instructor.Name,
		"school":      course.School,
		"department":  course.Department,
	})
}

// NotifyStatusChange announces a transition to the affected parties
func (s *NotificationService) NotifyStatusChange(course *models.Course, oldStatus, newStatus string, actorID uint) {
	recipient := course.Department
	if course.Instructor != nil {
		recipient = course.Instructor.Email
	}
	s.send(recipient, fmt.Sprintf("Course %s: %s → %s", course.Code, oldStatus, newStatus), map[string]interface{}{
		"course_id":  course.ID,
		"old_status": oldStatus,
		"new_status": newStatus,
		"actor_id":   actorID,
	})
}

// NotifyAssignmentRejected tells the requester their self-assignment was refused.
// The requester may already be detached from the course; nil is tolerated.
func (s *NotificationService) NotifyAssignmentRejected(course *models.Course, requester *models.User, reason string) {
	recipient := course.Department
	if requester != nil {
		recipient = requester.Email
	}
	s.send(recipient, fmt.Sprintf("Assignment request for %s rejected", course.Code), map[string]interface{}{
		"course_id": course.ID,
		"reason":    reason,
	})
}

// NotifyFinanceRejected announces the terminal finance rejection. This family
// addresses the assigned instructor, not the original requester.
func (s *NotificationService) NotifyFinanceRejected(course *models.Course, reason string) {
	recipient := course.School
	if course.Instructor != nil {
		recipient = course.Instructor.Email
	}
	s.send(recipient, fmt.Sprintf("Course %s rejected by finance", course.Code), map[string]interface{}{
		"course_id": course.ID,
		"reason":    reason,
	})
}

// NotifyPayment tells the instructor a payment was calculated or adjusted
func (s *NotificationService) NotifyPayment(payment *models.Payment, instructor *models.User) {
	s.send(instructor.Email, "Teaching payment calculated", map[string]interface{}{
		"academic_year":   payment.AcademicYear,
		"semester":        payment.Semester,
		"total_load":      payment.TotalLoad,
		"total_payment":   payment.TotalPayment,
		"transaction_ref": payment.TransactionRef,
	})
}

// NotifyQueueDigest sends the daily pending-approvals digest to one reviewer
func (s *NotificationService) NotifyQueueDigest(recipient string, status string, codes []string) {
	s.send(recipient, fmt.Sprintf("%d course(s) awaiting your review", len(codes)), map[string]interface{}{
		"status":  status,
		"courses": codes,
	})
}
