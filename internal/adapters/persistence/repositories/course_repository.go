package repositories

import (
	"context"
	"errors"

	"courseflow/internal/adapters/persistence/models"
	"courseflow/internal/core/domain"

	"gorm.io/gorm"
)

// ErrVersionMismatch is returned when a versioned update touched zero rows
var ErrVersionMismatch = errors.New("version mismatch on update")

// CourseRepository handles course data access
type CourseRepository struct {
	db *gorm.DB
}

// NewCourseRepository creates a new course repository
func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// Create creates a new course
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

// GetByID gets a course by ID with relations
func (r *CourseRepository) GetByID(ctx context.Context, id uint) (*models.Course, error) {
	var course models.Course
	err := r.db.WithContext(ctx).
		Preload("Instructor").
		Preload("RequestedBy").
		First(&course, id).Error
	return &course, err
}

// GetByCode gets a course by its unique code for a period
func (r *CourseRepository) GetByCode(ctx context.Context, code, semester string, classYear int) (*models.Course, error) {
	var course models.Course
	err := r.db.WithContext(ctx).
		Where("code = ? AND semester = ? AND class_year = ?", code, semester, classYear).
		First(&course).Error
	return &course, err
}

// List lists courses with pagination, optionally filtered by status and school
func (r *CourseRepository) List(ctx context.Context, status, school, department string, offset, limit int) ([]*models.Course, int64, error) {
	var courses []*models.Course
	var total int64

	q := r.db.WithContext(ctx).Model(&models.Course{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if school != "" {
		q = q.Where("school = ?", school)
	}
	if department != "" {
		q = q.Where("department = ?", department)
	}

	q.Count(&total)

	err := q.
		Preload("Instructor").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&courses).Error

	return courses, total, err
}

// ListByStatus lists every course sitting at a status (no pagination; used by
// the reminder digest)
func (r *CourseRepository) ListByStatus(ctx context.Context, status string) ([]*models.Course, error) {
	var courses []*models.Course
	err := r.db.WithContext(ctx).Where("status = ?", status).Find(&courses).Error
	return courses, err
}

// activeAssignmentStatuses are the statuses in which a course holds an
// approved instructor somewhere in the chain
var activeAssignmentStatuses = []string{
	string(domain.StatusApproved),
	string(domain.StatusDeanReviewed),
	string(domain.StatusViceApproved),
	string(domain.StatusSciDirApproved),
	string(domain.StatusFinanceReview),
	string(domain.StatusFinanceApproved),
}

// HasApprovedDuplicate reports whether another course with the same
// (code, semester, classYear) already carries an approved assignment to a
// different instructor.
func (r *CourseRepository) HasApprovedDuplicate(ctx context.Context, course *models.Course, instructorID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Course{}).
		Where("code = ? AND semester = ? AND class_year = ? AND id <> ?",
			course.Code, course.Semester, course.ClassYear, course.ID).
		Where("status IN ?", activeAssignmentStatuses).
		Where("instructor_id IS NOT NULL AND instructor_id <> ?", instructorID).
		Count(&count).Error
	return count > 0, err
}

// ApplyTransition commits one approval transition: the version-checked course
// update, the history append and the instructor load recompute happen in a
// single database transaction so a failure leaves no partial state behind.
// recomputeLoadFor lists the user ids whose current_load must be re-derived
// from their assigned courses.
func (r *CourseRepository) ApplyTransition(ctx context.Context, course *models.Course, expectedVersion uint, record *models.ApprovalRecord, recomputeLoadFor []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":          course.Status,
			"instructor_id":   course.InstructorID,
			"requested_by_id": course.RequestedByID,
			"total_load":      course.TotalLoad,
			"version":         gorm.Expr("version + 1"),
		}
		if course.RejectionDate != nil {
			updates["rejection_reason"] = course.RejectionReason
			updates["rejection_date"] = course.RejectionDate
		}

		res := tx.Model(&models.Course{}).
			Where("id = ? AND version = ?", course.ID, expectedVersion).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrVersionMismatch
		}

		if err := tx.Create(record).Error; err != nil {
			return err
		}

		for _, userID := range recomputeLoadFor {
			if err := recomputeCurrentLoad(tx, userID); err != nil {
				return err
			}
		}
		return nil
	})
}

// recomputeCurrentLoad re-derives a user's current load as a fold over the
// courses currently assigned to them. Running the sum inside the UPDATE keeps
// the write atomic at the storage layer; re-applying it is a no-op.
func recomputeCurrentLoad(tx *gorm.DB, userID uint) error {
	return tx.Exec(
		`UPDATE users SET current_load = (
			SELECT COALESCE(SUM(total_load), 0) FROM courses
			WHERE instructor_id = ? AND deleted_at IS NULL
		) WHERE id = ?`,
		userID, userID,
	).Error
}

// UpdateHoursVersioned persists edited hour fields and the freshly derived
// total load under the same optimistic version check as transitions, and
// re-derives the assigned instructor's load in the same transaction.
func (r *CourseRepository) UpdateHoursVersioned(ctx context.Context, course *models.Course, expectedVersion uint, recomputeLoadFor []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Course{}).
			Where("id = ? AND version = ?", course.ID, expectedVersion).
			Updates(map[string]interface{}{
				"lecture":           course.Lecture,
				"lab":               course.Lab,
				"tutorial":          course.Tutorial,
				"lecture_sections":  course.LectureSections,
				"lab_sections":      course.LabSections,
				"tutorial_sections": course.TutorialSections,
				"hdp":               course.HDP,
				"position":          course.Position,
				"branch_advisor":    course.BranchAdvisor,
				"total_load":        course.TotalLoad,
				"version":           gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrVersionMismatch
		}

		for _, userID := range recomputeLoadFor {
			if err := recomputeCurrentLoad(tx, userID); err != nil {
				return err
			}
		}
		return nil
	})
}

// ApprovalRecordRepository handles approval history access
type ApprovalRecordRepository struct {
	db *gorm.DB
}

// NewApprovalRecordRepository creates a new approval record repository
func NewApprovalRecordRepository(db *gorm.DB) *ApprovalRecordRepository {
	return &ApprovalRecordRepository{db: db}
}

// Create appends a history entry
func (r *ApprovalRecordRepository) Create(ctx context.Context, record *models.ApprovalRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// GetByCourseID gets the history of a course in append order
func (r *ApprovalRecordRepository) GetByCourseID(ctx context.Context, courseID uint) ([]models.ApprovalRecord, error) {
	var records []models.ApprovalRecord
	err := r.db.WithContext(ctx).
		Preload("Approver").
		Where("course_id = ?", courseID).
		Order("created_at ASC, id ASC").
		Find(&records).Error
	return records, err
}
