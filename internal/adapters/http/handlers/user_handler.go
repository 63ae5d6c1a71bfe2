package handlers

import (
	"errors"

	"aidledger/internal/adapters/persistence/models"
	"aidledger/internal/core/domain"
	"aidledger/internal/core/services"
	"aidledger/internal/pkg/pagination"
	"aidledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// UserHandler handles user administration endpoints
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// SetRoleRequest represents a role assignment request body
type SetRoleRequest struct {
	Role string `json:"role"`
}

// SetActiveRequest represents an activation toggle request body
type SetActiveRequest struct {
	Active *bool `json:"active"`
}

// List returns users with pagination
// @Summary List users
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /users [get]
func (h *UserHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	users, total, err := h.userService.List(c.Context(), params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list users")
	}

	items := make([]*models.UserResponse, 0, len(users))
	for _, u := range users {
		items = append(items, u.ToResponse())
	}

	return response.Success(c, "Users retrieved successfully", pagination.NewResponse(items, params, total))
}

// Get returns a single user
// @Summary Get user by ID
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /users/{id} [get]
func (h *UserHandler) Get(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	user, err := h.userService.GetByID(c.Context(), id)
	if err != nil {
		return response.NotFound(c, "User not found")
	}

	return response.Success(c, "User retrieved successfully", fiber.Map{
		"user": user.ToResponse(),
	})
}

// SetRole assigns a role to a user
// @Summary Assign user role
// @Description Assign one of the platform roles to a user
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param body body SetRoleRequest true "Role assignment"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /users/{id}/role [put]
func (h *UserHandler) SetRole(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	var req SetRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Role == "" {
		return response.BadRequest(c, "Role is required")
	}

	user, err := h.userService.SetRole(c.Context(), id, req.Role, getActor(c))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidRole):
			return response.BadRequest(c, "Unknown role")
		case errors.Is(err, domain.ErrUserNotFound):
			return response.NotFound(c, "User not found")
		default:
			return response.InternalServerError(c, "Failed to update role")
		}
	}

	return response.Success(c, "Role updated successfully", fiber.Map{
		"user": user.ToResponse(),
	})
}

// SetActive enables or disables a user account
// @Summary Enable or disable a user
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param body body SetActiveRequest true "Activation state"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /users/{id}/active [put]
func (h *UserHandler) SetActive(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	var req SetActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Active == nil {
		return response.BadRequest(c, "Active flag is required")
	}

	user, err := h.userService.SetActive(c.Context(), id, *req.Active, getActor(c))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			return response.NotFound(c, "User not found")
		default:
			return response.InternalServerError(c, "Failed to update user")
		}
	}

	return response.Success(c, "User updated successfully", fiber.Map{
		"user": user.ToResponse(),
	})
}
