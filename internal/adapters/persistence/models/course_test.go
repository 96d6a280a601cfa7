package models

import (
	"testing"
	"time"

	"courseflow/internal/core/domain"

	"github.com/stretchr/testify/assert"
)

func TestComputeTotalLoad(t *testing.T) {
	course := &Course{
		Lecture:         3,
		LectureSections: 2,
		HDP:             2,
		Position:        1,
	}

	assert.Equal(t, 9.0, course.ComputeTotalLoad())
}

func TestComputeTotalLoadAllComponents(t *testing.T) {
	course := &Course{
		Lecture:          2,
		Lab:              3,
		Tutorial:         1,
		LectureSections:  2,
		LabSections:      1,
		TutorialSections: 4,
		HDP:              2,
		Position:         1,
		BranchAdvisor:    0.5,
	}

	// 2*2 + 3*1 + 1*4 + 2 + 1 + 0.5
	assert.Equal(t, 14.5, course.ComputeTotalLoad())
}

func TestComputeTotalLoadZeroSections(t *testing.T) {
	course := &Course{Lecture: 5, Lab: 3, Tutorial: 2}

	assert.Equal(t, 0.0, course.ComputeTotalLoad())
}

func TestProjectApprovalFlowHappyPath(t *testing.T) {
	base := time.Now()
	records := []ApprovalRecord{
		{Role: string(domain.RoleInstructor), Status: string(domain.StatusPending), CreatedAt: base},
		{Role: string(domain.RoleDepartmentHead), Status: string(domain.StatusApproved), CreatedAt: base.Add(time.Minute)},
		{Role: string(domain.RoleSchoolDean), Status: string(domain.StatusDeanReviewed), CreatedAt: base.Add(2 * time.Minute)},
	}

	flow := ProjectApprovalFlow(records)

	assert.Len(t, flow, 3)
	assert.Equal(t, domain.RoleInstructor, flow[0].Role)
	assert.Equal(t, domain.RoleDepartmentHead, flow[1].Role)
	assert.Equal(t, domain.RoleSchoolDean, flow[2].Role)
	for _, stage := range flow {
		assert.True(t, stage.Approved)
	}
}

func TestProjectApprovalFlowRejectionEntry(t *testing.T) {
	base := time.Now()
	records := []ApprovalRecord{
		{Role: string(domain.RoleInstructor), Status: string(domain.StatusPending), CreatedAt: base},
		{Role: string(domain.RoleDepartmentHead), Status: string(domain.StatusRejected), Comment: "overloaded", CreatedAt: base.Add(time.Minute)},
	}

	flow := ProjectApprovalFlow(records)

	assert.Len(t, flow, 2)
	assert.False(t, flow[1].Approved)
	assert.Equal(t, "overloaded", flow[1].Remarks)
}

func TestProjectApprovalFlowReturnOverwritesStage(t *testing.T) {
	base := time.Now()
	// Dean returned to pending, then later re-advanced; the dean stage must
	// report the latest decision only.
	records := []ApprovalRecord{
		{Role: string(domain.RoleInstructor), Status: string(domain.StatusPending), CreatedAt: base},
		{Role: string(domain.RoleDepartmentHead), Status: string(domain.StatusApproved), CreatedAt: base.Add(time.Minute)},
		{Role: string(domain.RoleSchoolDean), Status: string(domain.StatusPending), Comment: "hours look wrong", CreatedAt: base.Add(2 * time.Minute)},
		{Role: string(domain.RoleDepartmentHead), Status: string(domain.StatusApproved), CreatedAt: base.Add(3 * time.Minute)},
		{Role: string(domain.RoleSchoolDean), Status: string(domain.StatusDeanReviewed), CreatedAt: base.Add(4 * time.Minute)},
	}

	flow := ProjectApprovalFlow(records)

	assert.Len(t, flow, 3)
	dean := flow[2]
	assert.Equal(t, domain.RoleSchoolDean, dean.Role)
	assert.True(t, dean.Approved)
	assert.Empty(t, dean.Remarks)
}
