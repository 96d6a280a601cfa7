package models

import (
	"time"

	"courseflow/internal/core/domain"

	"gorm.io/gorm"
)

// User represents users table
type User struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"size:100;not null" json:"name"`
	Email       string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password    string         `gorm:"size:255;not null" json:"-"`
	Role        string         `gorm:"size:30;not null;default:'instructor'" json:"role"`
	School      string         `gorm:"size:100;index" json:"school"`
	Department  string         `gorm:"size:100;index" json:"department"`
	CurrentLoad float64        `gorm:"type:decimal(8,2);default:0" json:"current_load"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Courses []Course `gorm:"foreignKey:InstructorID" json:"courses,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	School      string    `json:"school,omitempty"`
	Department  string    `json:"department,omitempty"`
	CurrentLoad float64   `json:"current_load"`
	CreatedAt   time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		School:      u.School,
		Department:  u.Department,
		CurrentLoad: u.CurrentLoad,
		CreatedAt:   u.CreatedAt,
	}
}

// Course represents courses table
type Course struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	Code       string `gorm:"size:20;not null;index:idx_course_period" json:"code"`
	Title      string `gorm:"size:200;not null" json:"title"`
	School     string `gorm:"size:100;not null;index" json:"school"`
	Department string `gorm:"size:100;not null;index" json:"department"`
	ClassYear  int    `gorm:"not null;index:idx_course_period" json:"class_year"`
	Semester   string `gorm:"size:10;not null;index:idx_course_period" json:"semester"`

	// Structural hours: hour-per-section values, section counts, scalar add-ons
	Lecture          float64 `gorm:"type:decimal(5,2);default:0" json:"lecture"`
	Lab              float64 `gorm:"type:decimal(5,2);default:0" json:"lab"`
	Tutorial         float64 `gorm:"type:decimal(5,2);default:0" json:"tutorial"`
	LectureSections  int     `gorm:"default:0" json:"lecture_sections"`
	LabSections      int     `gorm:"default:0" json:"lab_sections"`
	TutorialSections int     `gorm:"default:0" json:"tutorial_sections"`
	HDP              float64 `gorm:"column:hdp;type:decimal(5,2);default:0" json:"hdp"`
	Position         float64 `gorm:"type:decimal(5,2);default:0" json:"position"`
	BranchAdvisor    float64 `gorm:"type:decimal(5,2);default:0" json:"branch_advisor"`

	// TotalLoad is derived; recomputed via ComputeTotalLoad before every persist
	TotalLoad float64 `gorm:"type:decimal(8,2);default:0" json:"total_load"`

	Status          string     `gorm:"size:40;not null;default:'unassigned';index" json:"status"`
	InstructorID    *uint      `gorm:"index" json:"instructor_id"`
	RequestedByID   *uint      `json:"requested_by_id"`
	RejectionReason string     `gorm:"type:text" json:"rejection_reason,omitempty"`
	RejectionDate   *time.Time `json:"rejection_date,omitempty"`

	// Version backs the optimistic concurrency check on every transition
	Version uint `gorm:"not null;default:1" json:"version"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Instructor  *User            `gorm:"foreignKey:InstructorID" json:"instructor,omitempty"`
	RequestedBy *User            `gorm:"foreignKey:RequestedByID" json:"requested_by,omitempty"`
	History     []ApprovalRecord `gorm:"foreignKey:CourseID" json:"history,omitempty"`
}

func (Course) TableName() string {
	return "courses"
}

// ComputeTotalLoad derives the workload units from the structural hour fields.
// Pure; callers assign the result before persisting, never set TotalLoad directly.
func (c *Course) ComputeTotalLoad() float64 {
	return c.Lecture*float64(c.LectureSections) +
		c.Lab*float64(c.LabSections) +
		c.Tutorial*float64(c.TutorialSections) +
		c.HDP + c.Position + c.BranchAdvisor
}

// CourseResponse DTO
type CourseResponse struct {
	ID              uint       `json:"id"`
	Code            string     `json:"code"`
	Title           string     `json:"title"`
	School          string     `json:"school"`
	Department      string     `json:"department"`
	ClassYear       int        `json:"class_year"`
	Semester        string     `json:"semester"`
	TotalLoad       float64    `json:"total_load"`
	Status          string     `json:"status"`
	InstructorID    *uint      `json:"instructor_id"`
	InstructorName  string     `json:"instructor_name,omitempty"`
	RequestedByID   *uint      `json:"requested_by_id"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	RejectionDate   *time.Time `json:"rejection_date,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (c *Course) ToResponse() *CourseResponse {
	resp := &CourseResponse{
		ID:              c.ID,
		Code:            c.Code,
		Title:           c.Title,
		School:          c.School,
		Department:      c.Department,
		ClassYear:       c.ClassYear,
		Semester:        c.Semester,
		TotalLoad:       c.TotalLoad,
		Status:          c.Status,
		InstructorID:    c.InstructorID,
		RequestedByID:   c.RequestedByID,
		RejectionReason: c.RejectionReason,
		RejectionDate:   c.RejectionDate,
		UpdatedAt:       c.UpdatedAt,
	}
	if c.Instructor != nil {
		resp.InstructorName = c.Instructor.Name
	}
	return resp
}

// ApprovalRecord is one entry of the append-only approval history.
// Rows are only ever inserted, never updated or deleted.
type ApprovalRecord struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CourseID   uint      `gorm:"not null;index" json:"course_id"`
	Status     string    `gorm:"size:40;not null" json:"status"`
	ApproverID uint      `gorm:"not null" json:"approver_id"`
	Role       string    `gorm:"size:30;not null" json:"role"`
	Comment    string    `gorm:"type:text" json:"comment"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`

	Approver *User `gorm:"foreignKey:ApproverID" json:"approver,omitempty"`
}

func (ApprovalRecord) TableName() string {
	return "approval_records"
}

// ProjectApprovalFlow folds an ordered approval history into the per-role
// pass/fail view. Later entries for the same role overwrite earlier ones, so
// a stage returned and re-approved reports its latest decision.
func ProjectApprovalFlow(records []ApprovalRecord) []domain.StageApproval {
	byRole := make(map[string]*domain.StageApproval)
	var order []string
	for i := range records {
		rec := &records[i]
		stage, ok := byRole[rec.Role]
		if !ok {
			stage = &domain.StageApproval{Role: domain.Role(rec.Role)}
			byRole[rec.Role] = stage
			order = append(order, rec.Role)
		}
		stage.Approved = rec.Status != string(domain.StatusRejected) &&
			rec.Status != string(domain.StatusFinanceRejected) &&
			!isReturnEntry(records, rec)
		stage.Date = rec.CreatedAt.Format("2006-01-02 15:04:05")
		stage.Remarks = rec.Comment
	}
	flow := make([]domain.StageApproval, 0, len(order))
	for _, role := range order {
		flow = append(flow, *byRole[role])
	}
	return flow
}

// isReturnEntry reports whether rec moved the course backwards relative to the
// entry before it, i.e. the role returned the course instead of advancing it.
func isReturnEntry(records []ApprovalRecord, rec *ApprovalRecord) bool {
	idx := chainIndex(domain.Status(rec.Status))
	for i := range records {
		if &records[i] == rec {
			if i == 0 {
				return false
			}
			return idx >= 0 && idx < chainIndex(domain.Status(records[i-1].Status))
		}
	}
	return false
}

func chainIndex(s domain.Status) int {
	for i, cs := range domain.QueueStatuses {
		if cs == s {
			return i
		}
	}
	switch s {
	case domain.StatusUnassigned:
		return -1
	case domain.StatusFinanceApproved:
		return len(domain.QueueStatuses)
	}
	return -2
}

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Course{},
		&ApprovalRecord{},
		&Payment{},
		&PaymentRecord{},
	)
}
