package handlers

import (
	"errors"
	"strconv"

	"courseflow/internal/adapters/http/middleware"
	"courseflow/internal/core/domain"
	"courseflow/internal/core/services"
	"courseflow/internal/pkg/pagination"
	"courseflow/internal/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// CourseHandler handles course workflow endpoints
type CourseHandler struct {
	approvalService *services.ApprovalService
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(approvalService *services.ApprovalService) *CourseHandler {
	return &CourseHandler{approvalService: approvalService}
}

// mapDomainError translates a domain error into the response envelope
func mapDomainError(c *fiber.Ctx, err error) error {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return response.UnprocessableEntity(c, ve.Error())
	case errors.Is(err, domain.ErrCourseNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrInstructorNotFound),
		errors.Is(err, domain.ErrNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		return response.Forbidden(c, err.Error())
	case errors.Is(err, domain.ErrInvalidState):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, domain.ErrRequestMismatch):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return response.Conflict(c, err.Error())
	case errors.Is(err, domain.ErrUserAlreadyExists):
		return response.Conflict(c, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		return response.Unauthorized(c, err.Error())
	default:
		return response.InternalServerError(c, "Internal server error")
	}
}

func parseIDParam(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}

// Create creates a new course
// @Summary Create course
// @Description Create a new unassigned course (department head only)
// @Tags Courses
// @Router /courses [post]
func (h *CourseHandler) Create(c *fiber.Ctx) error {
	var input services.CreateCourseInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validate.Struct(&input); err != nil {
		return response.UnprocessableEntity(c, err.Error())
	}

	course, err := h.approvalService.CreateCourse(c.Context(), &input, middleware.Actor(c))
	if err != nil {
		return mapDomainError(c, err)
	}
	return response.Created(c, "Course created", course.ToResponse())
}

// List lists courses
// @Summary List courses
// @Tags Courses
// @Router /courses [get]
func (h *CourseHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	out, err := h.approvalService.List(c.Context(), &services.ListInput{
		Page:       params.Page,
		Limit:      params.Limit,
		Status:     c.Query("status"),
		School:     c.Query("school"),
		Department: c.Query("department"),
	})
	if err != nil {
		return mapDomainError(c, err)
	}

	courses := make([]interface{}, 0, len(out.Courses))
	for _, course := range out.Courses {
		courses = append(courses, course.ToResponse())
	}
	return response.Success(c, "Courses retrieved", fiber.Map{
		"courses":     courses,
		"total":       out.Total,
		"page":        out.Page,
		"limit":       out.Limit,
		"total_pages": out.TotalPages,
	})
}

// GetByID gets a course
// @Summary Get course
// @Tags Courses
// @Router /courses/{id} [get]
func (h *CourseHandler) GetByID(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid course id")
	}

	course, err := h.approvalService.GetByID(c.Context(), id)
	if err != nil {
		return mapDomainError(c, err)
	}
	return response.Success(c, "Course retrieved", course.ToResponse())
}

// GetHistory gets the approval history of a course
// @Summary Get course approval history
// @Tags Courses
// @Router /courses/{id}/history [get]
func (h *CourseHandler) GetHistory(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid course id")
	}

	records, err := h.approvalService.GetHistory(c.Context(), id)
	if err != nil {
		return mapDomainError(c, err)
	}
	return response.Success(c, "History retrieved", records)
}

// GetFlow gets the derived per-role approval flow of a course
// @Summary Get course approval flow
// @Tags Courses
// @Router /courses/{id}/flow [get]
func (h *CourseHandler) GetFlow(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid course id")
	}

	flow, err := h.approvalService.GetApprovalFlow(c.Context(), id)
	if err != nil {
		return mapDomainError(c, err)
	}
	return response.Success(c, "Approval flow retrieved", flow)
}

// SelfAssign requests assignment of an unassigned course to the caller
// @Summary Request course assignment
// @Description Instructor self-assignment request (same school only)
// @Tags Courses
// @Router /courses/{id}/request [post]
func (h *CourseHandler) SelfAssign(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid course id")
	}

	actor := middleware.Actor(c)
	course, err := h.approvalService.SelfAssign(c.Context(), id, actor.ID)
	if err != nil {
		return mapDomainError(c, err)
	}
	return response.Success(c, "Assignment requested", course.ToResponse())
}

// Decide applies an advance or return decision at the current stage
// @Summary Decide on a course
// @Description Advance or return a course at its current approval stage
// @Tags Courses
// @Router /courses/{id}/decision [post]
func (h *CourseHandler) Decide(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid course id")
	}

	var input services.DecideInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validate.Struct(&input); err != nil {
		return response.UnprocessableEntity(c, err.Error())
	}

	course, err := h.approvalService.Decide(c.Context(), id, middleware.Actor(c), &input)
	if err != nil {
		return mapDomainError(c, err)
	}
	return response.Success(c, "Decision applied", course.ToResponse())
}

// UpdateHours edits a course's structural hour fields
// @Summary Update course hours
// @Tags Courses
// @Router /courses/{id}/hours [put]
func (h *CourseHandler) UpdateHours(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid course id")
	}

	var input services.UpdateHoursInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validate.Struct(&input); err != nil {
		return response.UnprocessableEntity(c, err.Error())
	}

	course, err := h.approvalService.UpdateHours(c.Context(), id, middleware.Actor(c), &input)
	if err != nil {
		return mapDomainError(c, err)
	}
	return response.Success(c, "Hours updated", course.ToResponse())
}
