package handlers

import (
	"strconv"

	"courseflow/internal/core/services"
	"courseflow/internal/pkg/pagination"
	"courseflow/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// UserHandler handles user endpoints
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// List lists users
// @Summary List users
// @Tags Users
// @Router /users [get]
func (h *UserHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	users, total, err := h.userService.List(c.Context(), params.Page, params.Limit)
	if err != nil {
		return mapDomainError(c, err)
	}

	out := make([]interface{}, 0, len(users))
	for _, u := range users {
		out = append(out, u.ToResponse())
	}
	return response.Success(c, "Users retrieved", fiber.Map{
		"users": out,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	})
}

// GetByID gets a user
// @Summary Get user
// @Tags Users
// @Router /users/{id} [get]
func (h *UserHandler) GetByID(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return response.BadRequest(c, "Invalid user id")
	}

	user, err := h.userService.GetByID(c.Context(), uint(id))
	if err != nil {
		return mapDomainError(c, err)
	}
	return response.Success(c, "User retrieved", user.ToResponse())
}

// SetStatus activates or deactivates a user account
// @Summary Set user active status
// @Tags Users
// @Router /users/{id}/status [patch]
func (h *UserHandler) SetStatus(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return response.BadRequest(c, "Invalid user id")
	}

	var input struct {
		Active *bool `json:"active"`
	}
	if err := c.BodyParser(&input); err != nil || input.Active == nil {
		return response.BadRequest(c, "Invalid request body")
	}

	user, err := h.userService.SetActive(c.Context(), uint(id), *input.Active)
	if err != nil {
		return mapDomainError(c, err)
	}
	return response.Success(c, "User status updated", user.ToResponse())
}
