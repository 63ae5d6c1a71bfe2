package services

import (
	"context"
	"fmt"

	"aidledger/internal/adapters/persistence/models"
	"aidledger/internal/adapters/persistence/repositories"
	"aidledger/internal/core/domain"
)

// UserService handles user administration
type UserService struct {
	userRepo repositories.UserRepository
	auditor  *Auditor
}

// NewUserService creates a new user service
func NewUserService(userRepo repositories.UserRepository, auditor *Auditor) *UserService {
	return &UserService{
		userRepo: userRepo,
		auditor:  auditor,
	}
}

// GetByID gets a user by ID
func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

// List lists users with pagination
func (s *UserService) List(ctx context.Context, offset, limit int) ([]*models.User, int64, error) {
	return s.userRepo.List(ctx, offset, limit)
}

// SetRole assigns a platform role to a user. Only admins reach this path; the
// role claim in subsequently issued tokens follows the stored role.
func (s *UserService) SetRole(ctx context.Context, userID uint, role string, actor Actor) (*models.User, error) {
	if !domain.IsValidRole(role) {
		return nil, domain.ErrInvalidRole
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	oldRole := user.Role
	user.Role = role
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, models.AuditRoleChange, "user", user.ID, nil,
		fmt.Sprintf("%s -> %s", oldRole, role), actor)

	return user, nil
}

// SetActive enables or disables a user account
func (s *UserService) SetActive(ctx context.Context, userID uint, active bool, actor Actor) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	user.IsActive = active
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}
