package services

import (
	"context"
	"strings"

	"aidledger/internal/adapters/persistence/models"
	"aidledger/internal/adapters/persistence/repositories"
	"aidledger/internal/config"
	"aidledger/internal/core/domain"
	"aidledger/internal/pkg/jwt"
	"aidledger/internal/pkg/password"

	"github.com/google/uuid"
)

// AuthService handles authentication business logic
type AuthService struct {
	userRepo         repositories.UserRepository
	refreshTokenRepo repositories.RefreshTokenRepository
	cfg              *config.Config
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repositories.UserRepository,
	refreshTokenRepo repositories.RefreshTokenRepository,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		cfg:              cfg,
	}
}

// RegisterInput represents registration input
type RegisterInput struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// Register creates a new user account. Public registration always lands as
// DONOR; any other role is assigned afterwards by an admin (see UserService).
func (s *AuthService) Register(ctx context.Context, input *RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(strings.ToLower(input.Email))

	if username == "" || email == "" {
		return nil, domain.ErrInvalidInput
	}
	if !password.ValidatePassword(input.Password) {
		return nil, domain.ErrInvalidPassword
	}

	if exists, err := s.userRepo.ExistsByUsername(ctx, username); err != nil {
		return nil, err
	} else if exists {
		return nil, domain.ErrUserAlreadyExists
	}
	if exists, err := s.userRepo.ExistsByEmail(ctx, email); err != nil {
		return nil, err
	} else if exists {
		return nil, domain.ErrUserAlreadyExists
	}

	hashed, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: hashed,
		Role:     string(domain.RoleDonor),
		IsActive: true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// LoginInput represents login input
type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login authenticates a user and issues a token pair. The access token carries
// the role claim checked by the authorization middleware.
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*models.User, *domain.TokenPair, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(input.Username))
	if err != nil {
		return nil, nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, nil, domain.ErrForbidden
	}
	if !password.Verify(input.Password, user.Password) {
		return nil, nil, domain.ErrInvalidCredentials
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	return user, pair, nil
}

// Refresh rotates a refresh token and issues a new token pair
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := jwt.ValidateRefreshToken(refreshToken, s.cfg.JWT.RefreshSecret)
	if err != nil {
		if err == jwt.ErrTokenExpired {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}

	stored, err := s.refreshTokenRepo.GetByTokenHash(ctx, password.HashToken(refreshToken))
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}
	if stored.IsRevoked() || stored.IsExpired() {
		return nil, domain.ErrTokenInvalid
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil || !user.IsActive {
		return nil, domain.ErrTokenInvalid
	}

	// Rotate: revoke the presented token before issuing its replacement
	if err := s.refreshTokenRepo.RevokeByTokenHash(ctx, password.HashToken(refreshToken)); err != nil {
		return nil, err
	}

	return s.issueTokenPair(ctx, user)
}

// Logout revokes the presented refresh token
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.refreshTokenRepo.RevokeByTokenHash(ctx, password.HashToken(refreshToken))
}

// LogoutAll revokes every refresh token of a user
func (s *AuthService) LogoutAll(ctx context.Context, userID uint) error {
	return s.refreshTokenRepo.RevokeAllByUserID(ctx, userID)
}

// GetMe returns the authenticated user
func (s *AuthService) GetMe(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *AuthService) issueTokenPair(ctx context.Context, user *models.User) (*domain.TokenPair, error) {
	accessToken, err := jwt.GenerateAccessToken(
		user.ID, user.Username, user.Role,
		s.cfg.JWT.Secret, s.cfg.JWT.AccessTokenMins,
	)
	if err != nil {
		return nil, err
	}

	refreshToken, err := jwt.GenerateRefreshToken(
		user.ID, uuid.NewString(),
		s.cfg.JWT.RefreshSecret, s.cfg.JWT.RefreshTokenDays,
	)
	if err != nil {
		return nil, err
	}

	stored := &models.RefreshToken{
		UserID:    user.ID,
		TokenHash: password.HashToken(refreshToken),
		ExpiresAt: jwt.GetExpiryTime(s.cfg.JWT.RefreshTokenDays),
	}
	if err := s.refreshTokenRepo.Create(ctx, stored); err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
