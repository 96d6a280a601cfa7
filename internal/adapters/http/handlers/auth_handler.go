package handlers

import (
	"courseflow/internal/core/services"
	"courseflow/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *services.AuthService
	userService *services.UserService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, userService *services.UserService) *AuthHandler {
	return &AuthHandler{authService: authService, userService: userService}
}

// Register creates a new user account
// @Summary Register user
// @Tags Auth
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input services.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validate.Struct(&input); err != nil {
		return response.UnprocessableEntity(c, err.Error())
	}

	user, err := h.authService.Register(c.Context(), &input)
	if err != nil {
		return mapDomainError(c, err)
	}
	return response.Created(c, "User registered", user.ToResponse())
}

// Login verifies credentials and issues an access token
// @Summary Login
// @Tags Auth
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input services.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validate.Struct(&input); err != nil {
		return response.UnprocessableEntity(c, err.Error())
	}

	out, err := h.authService.Login(c.Context(), &input)
	if err != nil {
		return mapDomainError(c, err)
	}
	return response.Success(c, "Login successful", out)
}

// Me returns the authenticated user's profile
// @Summary Current user profile
// @Tags Auth
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(uint)

	user, err := h.userService.GetByID(c.Context(), userID)
	if err != nil {
		return mapDomainError(c, err)
	}
	return response.Success(c, "Profile retrieved", user.ToResponse())
}
