package services

import (
	"context"
	"log"

	"courseflow/internal/adapters/persistence/repositories"
	"courseflow/internal/core/domain"

	"github.com/robfig/cron/v3"
)

// ReminderService sends a daily digest to each role with a non-empty review
// queue. Pure read plus notify; it never mutates workflow state.
type ReminderService struct {
	courseRepo *repositories.CourseRepository
	userRepo   repositories.UserRepository
	notify     *NotificationService
	cron       *cron.Cron
}

// NewReminderService creates a new reminder service
func NewReminderService(courseRepo *repositories.CourseRepository, userRepo repositories.UserRepository, notify *NotificationService) *ReminderService {
	return &ReminderService{
		courseRepo: courseRepo,
		userRepo:   userRepo,
		notify:     notify,
		cron:       cron.New(),
	}
}

// Start schedules the daily digest (08:30)
func (s *ReminderService) Start() {
	s.cron.AddFunc("30 8 * * *", s.SendQueueDigests)
	s.cron.Start()
	log.Println("✅ Reminder cron started (daily 08:30)")
}

// Stop stops the cron scheduler
func (s *ReminderService) Stop() {
	s.cron.Stop()
	log.Println("🛑 Reminder cron stopped")
}

// SendQueueDigests sends one digest per reviewer whose queue is non-empty
func (s *ReminderService) SendQueueDigests() {
	if !s.notify.IsEnabled() {
		return
	}
	ctx := context.Background()

	for _, status := range domain.QueueStatuses {
		role, ok := domain.ExpectedRole(status)
		if !ok {
			continue
		}

		courses, err := s.courseRepo.ListByStatus(ctx, string(status))
		if err != nil {
			log.Printf("⚠️ Queue digest query failed for %s: %v", status, err)
			continue
		}
		if len(courses) == 0 {
			continue
		}

		codes := make([]string, 0, len(courses))
		for _, c := range courses {
			codes = append(codes, c.Code)
		}

		reviewers, err := s.userRepo.ListByRole(ctx, string(role))
		if err != nil {
			log.Printf("⚠️ Queue digest reviewer lookup failed for %s: %v", role, err)
			continue
		}
		for _, reviewer := range reviewers {
			s.notify.NotifyQueueDigest(reviewer.Email, string(status), codes)
		}
	}
}
