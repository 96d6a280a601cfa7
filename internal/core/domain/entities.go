package domain

// Role represents a user role in the system
type Role string

const (
	RoleInstructor         Role = "instructor"
	RoleDepartmentHead     Role = "department-head"
	RoleSchoolDean         Role = "school-dean"
	RoleViceScientificDir  Role = "vice-scientific-director"
	RoleScientificDirector Role = "scientific-director"
	RoleFinance            Role = "finance"
	RoleAdmin              Role = "admin"
)

// ValidRoles lists every role accepted at registration
var ValidRoles = []Role{
	RoleInstructor,
	RoleDepartmentHead,
	RoleSchoolDean,
	RoleViceScientificDir,
	RoleScientificDirector,
	RoleFinance,
	RoleAdmin,
}

// IsValidRole checks role membership
func IsValidRole(r Role) bool {
	for _, v := range ValidRoles {
		if v == r {
			return true
		}
	}
	return false
}

// Status represents a course workflow status
type Status string

const (
	StatusUnassigned      Status = "unassigned"
	StatusPending         Status = "pending"
	StatusApproved        Status = "approved"
	StatusRejected        Status = "rejected"
	StatusDeanReviewed    Status = "pending_dean_review"
	StatusViceApproved    Status = "vice-director-approved"
	StatusSciDirApproved  Status = "scientific-director-approved"
	StatusFinanceReview   Status = "finance-review"
	StatusFinanceApproved Status = "finance-approved"
	StatusFinanceRejected Status = "finance-rejected"
)

// Semester enum
type Semester string

const (
	SemesterFirst  Semester = "First"
	SemesterSecond Semester = "Second"
)

// IsValidSemester checks semester membership
func IsValidSemester(s Semester) bool {
	return s == SemesterFirst || s == SemesterSecond
}

// Decision is the intent an approver issues against a course
type Decision string

const (
	DecisionAdvance Decision = "advance"
	DecisionReturn  Decision = "return"
)

// Scope restricts which actors may decide at a stage
type Scope int

const (
	// ScopeNone means any actor holding the role may decide (central offices)
	ScopeNone Scope = iota
	// ScopeSchool requires actor.School == course.School
	ScopeSchool
	// ScopeDepartment requires school and department to match the course
	ScopeDepartment
)

// Transition describes the single legal move out of a non-terminal status.
// A status missing from the table has no legal transition at all.
type Transition struct {
	Role     Role
	Scope    Scope
	Advance  Status
	Return   Status
	Terminal bool // Return lands on the terminal rejection instead of a prior stage
}

// transitions is the approval chain: one expected role per status, strictly
// one tier at a time. The department-head return clears the self-assign
// request; the finance return is the terminal rejection.
var transitions = map[Status]Transition{
	StatusPending:        {Role: RoleDepartmentHead, Scope: ScopeDepartment, Advance: StatusApproved, Return: StatusUnassigned},
	StatusApproved:       {Role: RoleSchoolDean, Scope: ScopeSchool, Advance: StatusDeanReviewed, Return: StatusPending},
	StatusDeanReviewed:   {Role: RoleViceScientificDir, Scope: ScopeNone, Advance: StatusViceApproved, Return: StatusApproved},
	StatusViceApproved:   {Role: RoleScientificDirector, Scope: ScopeNone, Advance: StatusSciDirApproved, Return: StatusDeanReviewed},
	StatusSciDirApproved: {Role: RoleFinance, Scope: ScopeNone, Advance: StatusFinanceReview, Return: StatusFinanceRejected, Terminal: true},
	StatusFinanceReview:  {Role: RoleFinance, Scope: ScopeNone, Advance: StatusFinanceApproved, Return: StatusFinanceRejected, Terminal: true},
}

// TransitionFor returns the legal transition out of a status, if any
func TransitionFor(s Status) (Transition, bool) {
	t, ok := transitions[s]
	return t, ok
}

// ExpectedRole returns the role a status is waiting on
func ExpectedRole(s Status) (Role, bool) {
	if s == StatusUnassigned {
		return RoleInstructor, true
	}
	t, ok := transitions[s]
	if !ok {
		return "", false
	}
	return t.Role, true
}

// IsTerminal reports whether no transition leaves the status
func IsTerminal(s Status) bool {
	return s == StatusFinanceApproved || s == StatusFinanceRejected
}

// QueueStatuses lists the statuses that sit in somebody's review queue,
// in chain order. Used by the reminder digest.
var QueueStatuses = []Status{
	StatusPending,
	StatusApproved,
	StatusDeanReviewed,
	StatusViceApproved,
	StatusSciDirApproved,
	StatusFinanceReview,
}

// Actor is the already-resolved identity issuing a workflow intent.
// Identity resolution itself happens at the transport layer.
type Actor struct {
	ID         uint
	Role       Role
	School     string
	Department string
}

// StageApproval is the derived per-role view of the approval flow. It is a
// projection over the approval history, never stored independently.
type StageApproval struct {
	Role     Role   `json:"role"`
	Approved bool   `json:"approved"`
	Date     string `json:"date,omitempty"`
	Remarks  string `json:"remarks,omitempty"`
}
