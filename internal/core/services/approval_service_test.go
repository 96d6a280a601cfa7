package services

import (
	"context"
	"fmt"
	"testing"

	"courseflow/internal/adapters/persistence/models"
	"courseflow/internal/adapters/persistence/repositories"
	"courseflow/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))
	return db
}

// seedSeq keeps seeded emails unique when one test needs several users
// holding the same role
var seedSeq int

func seedUser(t *testing.T, db *gorm.DB, role domain.Role, school, department string) *models.User {
	t.Helper()
	seedSeq++
	user := &models.User{
		Name:       fmt.Sprintf("%s user", role),
		Email:      fmt.Sprintf("%s-%d-%s@test.local", role, seedSeq, t.Name()),
		Password:   "hashed",
		Role:       string(role),
		School:     school,
		Department: department,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func actorFor(u *models.User) domain.Actor {
	return domain.Actor{
		ID:         u.ID,
		Role:       domain.Role(u.Role),
		School:     u.School,
		Department: u.Department,
	}
}

type approvalFixture struct {
	db       *gorm.DB
	service  *ApprovalService
	userRepo repositories.UserRepository

	instructor *models.User
	deptHead   *models.User
	dean       *models.User
	viceDir    *models.User
	sciDir     *models.User
	finance    *models.User
}

func newApprovalFixture(t *testing.T) *approvalFixture {
	t.Helper()
	db := setupTestDB(t)
	userRepo := repositories.NewUserRepository(db)
	courseRepo := repositories.NewCourseRepository(db)
	recordRepo := repositories.NewApprovalRecordRepository(db)
	service := NewApprovalService(courseRepo, recordRepo, userRepo, NewNotificationService())

	return &approvalFixture{
		db:         db,
		service:    service,
		userRepo:   userRepo,
		instructor: seedUser(t, db, domain.RoleInstructor, "Computing", "Software Engineering"),
		deptHead:   seedUser(t, db, domain.RoleDepartmentHead, "Computing", "Software Engineering"),
		dean:       seedUser(t, db, domain.RoleSchoolDean, "Computing", ""),
		viceDir:    seedUser(t, db, domain.RoleViceScientificDir, "", ""),
		sciDir:     seedUser(t, db, domain.RoleScientificDirector, "", ""),
		finance:    seedUser(t, db, domain.RoleFinance, "", ""),
	}
}

func (f *approvalFixture) createCourse(t *testing.T) *models.Course {
	t.Helper()
	course, err := f.service.CreateCourse(context.Background(), &CreateCourseInput{
		Code:            "SE301",
		Title:           "Compiler Design",
		ClassYear:       3,
		Semester:        "First",
		Lecture:         3,
		LectureSections: 2,
		HDP:             2,
		Position:        1,
	}, actorFor(f.deptHead))
	require.NoError(t, err)
	return course
}

func (f *approvalFixture) decide(t *testing.T, courseID uint, actor *models.User, decision, comment string) (*models.Course, error) {
	t.Helper()
	return f.service.Decide(context.Background(), courseID, actorFor(actor), &DecideInput{
		Decision: decision,
		Comment:  comment,
	})
}

func TestCreateCourseComputesLoad(t *testing.T) {
	f := newApprovalFixture(t)

	course := f.createCourse(t)

	assert.Equal(t, string(domain.StatusUnassigned), course.Status)
	assert.Equal(t, 9.0, course.TotalLoad)
	assert.Equal(t, "Software Engineering", course.Department)
}

func TestCreateCourseRejectsDuplicatePeriod(t *testing.T) {
	f := newApprovalFixture(t)
	f.createCourse(t)

	_, err := f.service.CreateCourse(context.Background(), &CreateCourseInput{
		Code: "SE301", Title: "Compiler Design", ClassYear: 3, Semester: "First",
	}, actorFor(f.deptHead))

	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestCreateCourseRequiresDepartmentHead(t *testing.T) {
	f := newApprovalFixture(t)

	_, err := f.service.CreateCourse(context.Background(), &CreateCourseInput{
		Code: "SE302", Title: "Networks", ClassYear: 3, Semester: "First",
	}, actorFor(f.instructor))

	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestSelfAssignMovesToPending(t *testing.T) {
	f := newApprovalFixture(t)
	course := f.createCourse(t)

	updated, err := f.service.SelfAssign(context.Background(), course.ID, f.instructor.ID)
	require.NoError(t, err)

	assert.Equal(t, string(domain.StatusPending), updated.Status)
	require.NotNil(t, updated.RequestedByID)
	assert.Equal(t, f.instructor.ID, *updated.RequestedByID)
	assert.Nil(t, updated.InstructorID)
}

func TestSelfAssignSecondRequestLoses(t *testing.T) {
	f := newApprovalFixture(t)
	course := f.createCourse(t)
	rival := seedUser(t, f.db, domain.RoleInstructor, "Computing", "Software Engineering")

	_, err := f.service.SelfAssign(context.Background(), course.ID, f.instructor.ID)
	require.NoError(t, err)

	_, err = f.service.SelfAssign(context.Background(), course.ID, rival.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	// The winner's request is untouched
	updated, err := f.service.GetByID(context.Background(), course.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.RequestedByID)
	assert.Equal(t, f.instructor.ID, *updated.RequestedByID)
}

func TestSelfAssignCrossSchoolForbidden(t *testing.T) {
	f := newApprovalFixture(t)
	course := f.createCourse(t)
	outsider := seedUser(t, f.db, domain.RoleInstructor, "Engineering", "Civil")

	_, err := f.service.SelfAssign(context.Background(), course.ID, outsider.ID)

	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestFullApprovalChain(t *testing.T) {
	f := newApprovalFixture(t)
	ctx := context.Background()
	course := f.createCourse(t)

	_, err := f.service.SelfAssign(ctx, course.ID, f.instructor.ID)
	require.NoError(t, err)

	steps := []struct {
		actor  *models.User
		status domain.Status
	}{
		{f.deptHead, domain.StatusApproved},
		{f.dean, domain.StatusDeanReviewed},
		{f.viceDir, domain.StatusViceApproved},
		{f.sciDir, domain.StatusSciDirApproved},
		{f.finance, domain.StatusFinanceReview},
		{f.finance, domain.StatusFinanceApproved},
	}
	for _, step := range steps {
		updated, err := f.decide(t, course.ID, step.actor, "advance", "")
		require.NoError(t, err)
		assert.Equal(t, string(step.status), updated.Status)
	}

	// Department-head approval bound the instructor and their load
	final, err := f.service.GetByID(ctx, course.ID)
	require.NoError(t, err)
	require.NotNil(t, final.InstructorID)
	assert.Equal(t, f.instructor.ID, *final.InstructorID)

	instructor, err := f.userRepo.GetByID(ctx, f.instructor.ID)
	require.NoError(t, err)
	assert.Equal(t, 9.0, instructor.CurrentLoad)

	// Self-assign entry plus six decisions
	history, err := f.service.GetHistory(ctx, course.ID)
	require.NoError(t, err)
	assert.Len(t, history, 7)

	flow, err := f.service.GetApprovalFlow(ctx, course.ID)
	require.NoError(t, err)
	assert.Len(t, flow, 6)
	for _, stage := range flow {
		assert.True(t, stage.Approved, "stage %s", stage.Role)
	}
}

func TestDecideTerminalStatusRejected(t *testing.T) {
	f := newApprovalFixture(t)
	ctx := context.Background()
	course := f.createCourse(t)

	_, err := f.service.SelfAssign(ctx, course.ID, f.instructor.ID)
	require.NoError(t, err)
	for _, actor := range []*models.User{f.deptHead, f.dean, f.viceDir, f.sciDir, f.finance, f.finance} {
		_, err = f.decide(t, course.ID, actor, "advance", "")
		require.NoError(t, err)
	}

	_, err = f.decide(t, course.ID, f.finance, "advance", "")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = f.decide(t, course.ID, f.finance, "return", "")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestDecideWrongRoleForbidden(t *testing.T) {
	f := newApprovalFixture(t)
	course := f.createCourse(t)

	_, err := f.service.SelfAssign(context.Background(), course.ID, f.instructor.ID)
	require.NoError(t, err)

	// Pending waits on the department head, not the dean
	_, err = f.decide(t, course.ID, f.dean, "advance", "")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestDecideCrossDepartmentForbidden(t *testing.T) {
	f := newApprovalFixture(t)
	course := f.createCourse(t)
	otherHead := seedUser(t, f.db, domain.RoleDepartmentHead, "Computing", "Information Systems")

	_, err := f.service.SelfAssign(context.Background(), course.ID, f.instructor.ID)
	require.NoError(t, err)

	_, err = f.decide(t, course.ID, otherHead, "advance", "")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	// The course is untouched
	updated, err := f.service.GetByID(context.Background(), course.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusPending), updated.Status)
}

func TestDepartmentHeadReturnClearsRequest(t *testing.T) {
	f := newApprovalFixture(t)
	ctx := context.Background()
	course := f.createCourse(t)

	_, err := f.service.SelfAssign(ctx, course.ID, f.instructor.ID)
	require.NoError(t, err)

	updated, err := f.decide(t, course.ID, f.deptHead, "return", "instructor already at capacity")
	require.NoError(t, err)

	assert.Equal(t, string(domain.StatusUnassigned), updated.Status)
	assert.Nil(t, updated.RequestedByID)
	assert.Nil(t, updated.InstructorID)

	history, err := f.service.GetHistory(ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, string(domain.StatusRejected), history[1].Status)
	assert.Equal(t, "instructor already at capacity", history[1].Comment)

	// The course can be requested again
	_, err = f.service.SelfAssign(ctx, course.ID, f.instructor.ID)
	assert.NoError(t, err)
}

func TestDeanReturnStepsBackOneTier(t *testing.T) {
	f := newApprovalFixture(t)
	ctx := context.Background()
	course := f.createCourse(t)

	_, err := f.service.SelfAssign(ctx, course.ID, f.instructor.ID)
	require.NoError(t, err)
	_, err = f.decide(t, course.ID, f.deptHead, "advance", "")
	require.NoError(t, err)

	instructor, err := f.userRepo.GetByID(ctx, f.instructor.ID)
	require.NoError(t, err)
	require.Equal(t, 9.0, instructor.CurrentLoad)

	updated, err := f.decide(t, course.ID, f.dean, "return", "sections look wrong")
	require.NoError(t, err)

	// Back to pending: the binding is undone and the load released,
	// but the request survives
	assert.Equal(t, string(domain.StatusPending), updated.Status)
	assert.Nil(t, updated.InstructorID)
	require.NotNil(t, updated.RequestedByID)
	assert.Equal(t, f.instructor.ID, *updated.RequestedByID)

	instructor, err = f.userRepo.GetByID(ctx, f.instructor.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, instructor.CurrentLoad)

	// Prior history entries are untouched; the return is appended
	history, err := f.service.GetHistory(ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, string(domain.StatusPending), history[0].Status)
	assert.Equal(t, string(domain.StatusApproved), history[1].Status)
	assert.Equal(t, string(domain.StatusPending), history[2].Status)
}

func TestFinanceReturnIsTerminal(t *testing.T) {
	f := newApprovalFixture(t)
	ctx := context.Background()
	course := f.createCourse(t)

	_, err := f.service.SelfAssign(ctx, course.ID, f.instructor.ID)
	require.NoError(t, err)
	for _, actor := range []*models.User{f.deptHead, f.dean, f.viceDir, f.sciDir} {
		_, err = f.decide(t, course.ID, actor, "advance", "")
		require.NoError(t, err)
	}

	updated, err := f.decide(t, course.ID, f.finance, "return", "budget exhausted")
	require.NoError(t, err)

	assert.Equal(t, string(domain.StatusFinanceRejected), updated.Status)
	assert.Equal(t, "budget exhausted", updated.RejectionReason)
	assert.NotNil(t, updated.RejectionDate)

	_, err = f.decide(t, course.ID, f.finance, "advance", "")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestFinanceReturnWithoutCommentStampsDate(t *testing.T) {
	f := newApprovalFixture(t)
	ctx := context.Background()
	course := f.createCourse(t)

	_, err := f.service.SelfAssign(ctx, course.ID, f.instructor.ID)
	require.NoError(t, err)
	for _, actor := range []*models.User{f.deptHead, f.dean, f.viceDir, f.sciDir} {
		_, err = f.decide(t, course.ID, actor, "advance", "")
		require.NoError(t, err)
	}

	// The terminal rejection must carry its date even with no comment given
	updated, err := f.decide(t, course.ID, f.finance, "return", "")
	require.NoError(t, err)

	assert.Equal(t, string(domain.StatusFinanceRejected), updated.Status)
	assert.NotNil(t, updated.RejectionDate)
}

func TestDuplicateAssignmentBlocked(t *testing.T) {
	f := newApprovalFixture(t)
	ctx := context.Background()
	rival := seedUser(t, f.db, domain.RoleInstructor, "Computing", "Software Engineering")

	first := f.createCourse(t)
	_, err := f.service.SelfAssign(ctx, first.ID, f.instructor.ID)
	require.NoError(t, err)
	_, err = f.decide(t, first.ID, f.deptHead, "advance", "")
	require.NoError(t, err)

	// Same code and period opened again, requested by another instructor
	second, err := f.service.CreateCourse(ctx, &CreateCourseInput{
		Code: "SE301", Title: "Compiler Design", ClassYear: 3, Semester: "Second",
		Lecture: 3, LectureSections: 1,
	}, actorFor(f.deptHead))
	require.NoError(t, err)
	require.NoError(t, f.db.Model(second).Update("semester", "First").Error)

	_, err = f.service.SelfAssign(ctx, second.ID, rival.ID)
	require.NoError(t, err)
	_, err = f.decide(t, second.ID, f.deptHead, "advance", "")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestUpdateHoursRecomputesLoad(t *testing.T) {
	f := newApprovalFixture(t)
	ctx := context.Background()
	course := f.createCourse(t)

	_, err := f.service.SelfAssign(ctx, course.ID, f.instructor.ID)
	require.NoError(t, err)
	_, err = f.decide(t, course.ID, f.deptHead, "advance", "")
	require.NoError(t, err)

	updated, err := f.service.UpdateHours(ctx, course.ID, actorFor(f.deptHead), &UpdateHoursInput{
		Lecture:         4,
		LectureSections: 2,
		HDP:             2,
	})
	require.NoError(t, err)
	assert.Equal(t, 10.0, updated.TotalLoad)

	instructor, err := f.userRepo.GetByID(ctx, f.instructor.ID)
	require.NoError(t, err)
	assert.Equal(t, 10.0, instructor.CurrentLoad)
}

func TestUpdateHoursCrossDepartmentForbidden(t *testing.T) {
	f := newApprovalFixture(t)
	course := f.createCourse(t)
	otherHead := seedUser(t, f.db, domain.RoleDepartmentHead, "Computing", "Information Systems")

	_, err := f.service.UpdateHours(context.Background(), course.ID, actorFor(otherHead), &UpdateHoursInput{Lecture: 1})

	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestApplyTransitionStaleVersion(t *testing.T) {
	f := newApprovalFixture(t)
	ctx := context.Background()
	course := f.createCourse(t)

	record := &models.ApprovalRecord{
		CourseID:   course.ID,
		Status:     string(domain.StatusPending),
		ApproverID: f.instructor.ID,
		Role:       string(domain.RoleInstructor),
	}
	course.Status = string(domain.StatusPending)

	courseRepo := repositories.NewCourseRepository(f.db)
	err := courseRepo.ApplyTransition(ctx, course, course.Version+1, record, nil)
	assert.ErrorIs(t, err, repositories.ErrVersionMismatch)

	// Nothing committed: status and history are unchanged
	reloaded, err := f.service.GetByID(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusUnassigned), reloaded.Status)

	history, err := f.service.GetHistory(ctx, course.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestGetByIDNotFound(t *testing.T) {
	f := newApprovalFixture(t)

	_, err := f.service.GetByID(context.Background(), 9999)

	assert.ErrorIs(t, err, domain.ErrCourseNotFound)
}
