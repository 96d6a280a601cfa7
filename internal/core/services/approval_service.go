package services

import (
	"context"
	"errors"
	"time"

	"courseflow/internal/adapters/persistence/models"
	"courseflow/internal/adapters/persistence/repositories"
	"courseflow/internal/core/domain"

	"gorm.io/gorm"
)

// ApprovalService drives the course approval chain. Every mutation goes
// through here; courses are never written outside a transition.
type ApprovalService struct {
	courseRepo *repositories.CourseRepository
	recordRepo *repositories.ApprovalRecordRepository
	userRepo   repositories.UserRepository
	notify     *NotificationService
}

// NewApprovalService creates a new approval service
func NewApprovalService(
	courseRepo *repositories.CourseRepository,
	recordRepo *repositories.ApprovalRecordRepository,
	userRepo repositories.UserRepository,
	notify *NotificationService,
) *ApprovalService {
	return &ApprovalService{
		courseRepo: courseRepo,
		recordRepo: recordRepo,
		userRepo:   userRepo,
		notify:     notify,
	}
}

// CreateCourseInput represents create course input
type CreateCourseInput struct {
	Code             string  `json:"code" validate:"required"`
	Title            string  `json:"title" validate:"required"`
	ClassYear        int     `json:"class_year" validate:"required,gt=0"`
	Semester         string  `json:"semester" validate:"required,oneof=First Second"`
	Lecture          float64 `json:"lecture" validate:"gte=0"`
	Lab              float64 `json:"lab" validate:"gte=0"`
	Tutorial         float64 `json:"tutorial" validate:"gte=0"`
	LectureSections  int     `json:"lecture_sections" validate:"gte=0"`
	LabSections      int     `json:"lab_sections" validate:"gte=0"`
	TutorialSections int     `json:"tutorial_sections" validate:"gte=0"`
	HDP              float64 `json:"hdp" validate:"gte=0"`
	Position         float64 `json:"position" validate:"gte=0"`
	BranchAdvisor    float64 `json:"branch_advisor" validate:"gte=0"`
}

// CreateCourse creates a new unassigned course in the actor's department.
// Only department heads open courses for assignment.
func (s *ApprovalService) CreateCourse(ctx context.Context, input *CreateCourseInput, actor domain.Actor) (*models.Course, error) {
	if actor.Role != domain.RoleDepartmentHead {
		return nil, domain.ErrWrongRole
	}
	if !domain.IsValidSemester(domain.Semester(input.Semester)) {
		return nil, domain.NewValidationError("semester", "must be First or Second")
	}

	existing, err := s.courseRepo.GetByCode(ctx, input.Code, input.Semester, input.ClassYear)
	if err == nil && existing != nil && existing.ID != 0 {
		return nil, domain.ErrConflict
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	course := &models.Course{
		Code:             input.Code,
		Title:            input.Title,
		School:           actor.School,
		Department:       actor.Department,
		ClassYear:        input.ClassYear,
		Semester:         input.Semester,
		Lecture:          input.Lecture,
		Lab:              input.Lab,
		Tutorial:         input.Tutorial,
		LectureSections:  input.LectureSections,
		LabSections:      input.LabSections,
		TutorialSections: input.TutorialSections,
		HDP:              input.HDP,
		Position:         input.Position,
		BranchAdvisor:    input.BranchAdvisor,
		Status:           string(domain.StatusUnassigned),
	}
	course.TotalLoad = course.ComputeTotalLoad()

	if err := s.courseRepo.Create(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

// SelfAssign lets an instructor request an unassigned course in their school.
// The version check makes exactly one of two concurrent requests win; the
// loser observes the already-advanced status.
func (s *ApprovalService) SelfAssign(ctx context.Context, courseID, instructorID uint) (*models.Course, error) {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCourseNotFound
		}
		return nil, err
	}

	instructor, err := s.userRepo.GetByID(ctx, instructorID)
	if err != nil {
		return nil, domain.ErrInstructorNotFound
	}
	if instructor.Role != string(domain.RoleInstructor) {
		return nil, domain.ErrWrongRole
	}
	if course.Status != string(domain.StatusUnassigned) {
		return nil, domain.ErrNotUnassigned
	}
	if instructor.School != course.School {
		return nil, domain.ErrScopeMismatch
	}

	expectedVersion := course.Version
	course.Status = string(domain.StatusPending)
	course.RequestedByID = &instructorID
	course.TotalLoad = course.ComputeTotalLoad()

	record := &models.ApprovalRecord{
		CourseID:   course.ID,
		Status:     string(domain.StatusPending),
		ApproverID: instructorID,
		Role:       string(domain.RoleInstructor),
		Comment:    "self-assignment requested",
	}

	if err := s.courseRepo.ApplyTransition(ctx, course, expectedVersion, record, nil); err != nil {
		if errors.Is(err, repositories.ErrVersionMismatch) {
			return nil, domain.ErrNotUnassigned
		}
		return nil, err
	}

	s.notify.NotifyAssignmentRequested(course, instructor)

	return s.courseRepo.GetByID(ctx, courseID)
}

// DecideInput represents a decision against a course
type DecideInput struct {
	Decision string `json:"decision" validate:"required,oneof=advance return"`
	Comment  string `json:"comment,omitempty"`
}

// Decide applies one advance or return decision at the course's current stage.
// Legality comes from the transition table: the actor's role must be the one
// the status expects and, where the stage is scoped, the actor's school and
// department must match the course's.
func (s *ApprovalService) Decide(ctx context.Context, courseID uint, actor domain.Actor, input *DecideInput) (*models.Course, error) {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCourseNotFound
		}
		return nil, err
	}

	status := domain.Status(course.Status)
	if domain.IsTerminal(status) {
		return nil, domain.ErrTerminalStatus
	}

	t, ok := domain.TransitionFor(status)
	if !ok {
		return nil, domain.ErrInvalidState
	}
	if actor.Role != t.Role {
		return nil, domain.ErrWrongRole
	}
	if err := checkScope(t.Scope, actor, course); err != nil {
		return nil, err
	}

	decision := domain.Decision(input.Decision)
	oldStatus := course.Status
	expectedVersion := course.Version

	var recomputeFor []uint
	var historyStatus string
	var rejectedRequester *models.User

	switch decision {
	case domain.DecisionAdvance:
		if status == domain.StatusPending {
			// Department-head approval binds the instructor to the course
			if course.RequestedByID == nil {
				return nil, domain.ErrRequestMismatch
			}
			dup, err := s.courseRepo.HasApprovedDuplicate(ctx, course, *course.RequestedByID)
			if err != nil {
				return nil, err
			}
			if dup {
				return nil, domain.ErrDuplicateAssignment
			}
			course.InstructorID = course.RequestedByID
			recomputeFor = append(recomputeFor, *course.RequestedByID)
		}
		course.Status = string(t.Advance)
		historyStatus = string(t.Advance)

	case domain.DecisionReturn:
		switch {
		case t.Terminal:
			// Finance rejection is terminal and addresses the assigned
			// instructor; a stale requestedBy is tolerated here.
			now := time.Now()
			course.Status = string(domain.StatusFinanceRejected)
			course.RejectionReason = input.Comment
			course.RejectionDate = &now
			historyStatus = string(domain.StatusFinanceRejected)
		case status == domain.StatusPending:
			// Refusing a self-assignment request: the request must never be
			// left dangling against a status that no longer references it.
			if course.RequestedByID != nil {
				rejectedRequester, _ = s.userRepo.GetByID(ctx, *course.RequestedByID)
			}
			course.Status = string(t.Return)
			course.RequestedByID = nil
			historyStatus = string(domain.StatusRejected)
		default:
			// Step back exactly one tier, clearing what later stages set
			course.Status = string(t.Return)
			historyStatus = string(t.Return)
			if t.Return == domain.StatusPending && course.InstructorID != nil {
				recomputeFor = append(recomputeFor, *course.InstructorID)
				course.InstructorID = nil
			}
		}

	default:
		return nil, domain.NewValidationError("decision", "must be advance or return")
	}

	course.TotalLoad = course.ComputeTotalLoad()

	record := &models.ApprovalRecord{
		CourseID:   course.ID,
		Status:     historyStatus,
		ApproverID: actor.ID,
		Role:       string(actor.Role),
		Comment:    input.Comment,
	}

	if err := s.courseRepo.ApplyTransition(ctx, course, expectedVersion, record, recomputeFor); err != nil {
		if errors.Is(err, repositories.ErrVersionMismatch) {
			return nil, domain.ErrStaleVersion
		}
		return nil, err
	}

	updated, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	// One notification per transition; delivery failure never reverts anything
	switch {
	case decision == domain.DecisionReturn && t.Terminal:
		s.notify.NotifyFinanceRejected(updated, input.Comment)
	case decision == domain.DecisionReturn && status == domain.StatusPending:
		s.notify.NotifyAssignmentRejected(updated, rejectedRequester, input.Comment)
	default:
		s.notify.NotifyStatusChange(updated, oldStatus, updated.Status, actor.ID)
	}

	return updated, nil
}

// checkScope enforces the school/department match a scoped stage requires
func checkScope(scope domain.Scope, actor domain.Actor, course *models.Course) error {
	switch scope {
	case domain.ScopeDepartment:
		if actor.School != course.School || actor.Department != course.Department {
			return domain.ErrScopeMismatch
		}
	case domain.ScopeSchool:
		if actor.School != course.School {
			return domain.ErrScopeMismatch
		}
	}
	return nil
}

// UpdateHoursInput represents editable structural hour fields
type UpdateHoursInput struct {
	Lecture          float64 `json:"lecture" validate:"gte=0"`
	Lab              float64 `json:"lab" validate:"gte=0"`
	Tutorial         float64 `json:"tutorial" validate:"gte=0"`
	LectureSections  int     `json:"lecture_sections" validate:"gte=0"`
	LabSections      int     `json:"lab_sections" validate:"gte=0"`
	TutorialSections int     `json:"tutorial_sections" validate:"gte=0"`
	HDP              float64 `json:"hdp" validate:"gte=0"`
	Position         float64 `json:"position" validate:"gte=0"`
	BranchAdvisor    float64 `json:"branch_advisor" validate:"gte=0"`
}

// UpdateHours edits a course's structural hours and re-derives its total load
// and the assigned instructor's current load. Department-head only, within
// their own department, and never on a terminal course.
func (s *ApprovalService) UpdateHours(ctx context.Context, courseID uint, actor domain.Actor, input *UpdateHoursInput) (*models.Course, error) {
	if actor.Role != domain.RoleDepartmentHead {
		return nil, domain.ErrWrongRole
	}

	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCourseNotFound
		}
		return nil, err
	}
	if actor.School != course.School || actor.Department != course.Department {
		return nil, domain.ErrScopeMismatch
	}
	if domain.IsTerminal(domain.Status(course.Status)) {
		return nil, domain.ErrTerminalStatus
	}

	expectedVersion := course.Version
	course.Lecture = input.Lecture
	course.Lab = input.Lab
	course.Tutorial = input.Tutorial
	course.LectureSections = input.LectureSections
	course.LabSections = input.LabSections
	course.TutorialSections = input.TutorialSections
	course.HDP = input.HDP
	course.Position = input.Position
	course.BranchAdvisor = input.BranchAdvisor
	course.TotalLoad = course.ComputeTotalLoad()

	var recomputeFor []uint
	if course.InstructorID != nil {
		recomputeFor = append(recomputeFor, *course.InstructorID)
	}

	if err := s.courseRepo.UpdateHoursVersioned(ctx, course, expectedVersion, recomputeFor); err != nil {
		if errors.Is(err, repositories.ErrVersionMismatch) {
			return nil, domain.ErrStaleVersion
		}
		return nil, err
	}

	return s.courseRepo.GetByID(ctx, courseID)
}

// GetByID gets a course by ID
func (s *ApprovalService) GetByID(ctx context.Context, id uint) (*models.Course, error) {
	course, err := s.courseRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCourseNotFound
		}
		return nil, err
	}
	return course, nil
}

// ListInput represents list input
type ListInput struct {
	Page       int
	Limit      int
	Status     string
	School     string
	Department string
}

// ListOutput represents list output
type ListOutput struct {
	Courses    []*models.Course `json:"courses"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"total_pages"`
}

// List lists courses
func (s *ApprovalService) List(ctx context.Context, input *ListInput) (*ListOutput, error) {
	if input.Page < 1 {
		input.Page = 1
	}
	if input.Limit < 1 {
		input.Limit = 10
	}
	if input.Limit > 100 {
		input.Limit = 100
	}

	offset := (input.Page - 1) * input.Limit
	courses, total, err := s.courseRepo.List(ctx, input.Status, input.School, input.Department, offset, input.Limit)
	if err != nil {
		return nil, err
	}

	totalPages := int(total) / input.Limit
	if int(total)%input.Limit > 0 {
		totalPages++
	}

	return &ListOutput{
		Courses:    courses,
		Total:      total,
		Page:       input.Page,
		Limit:      input.Limit,
		TotalPages: totalPages,
	}, nil
}

// GetHistory gets the append-only approval history of a course
func (s *ApprovalService) GetHistory(ctx context.Context, courseID uint) ([]models.ApprovalRecord, error) {
	if _, err := s.courseRepo.GetByID(ctx, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCourseNotFound
		}
		return nil, err
	}
	return s.recordRepo.GetByCourseID(ctx, courseID)
}

// GetApprovalFlow gets the derived per-role approval view of a course
func (s *ApprovalService) GetApprovalFlow(ctx context.Context, courseID uint) ([]domain.StageApproval, error) {
	records, err := s.GetHistory(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return models.ProjectApprovalFlow(records), nil
}
