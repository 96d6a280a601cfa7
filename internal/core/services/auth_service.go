package services

import (
	"context"
	"errors"

	"courseflow/internal/adapters/persistence/models"
	"courseflow/internal/adapters/persistence/repositories"
	"courseflow/internal/config"
	"courseflow/internal/core/domain"
	"courseflow/internal/pkg/jwt"
	"courseflow/internal/pkg/password"

	"gorm.io/gorm"
)

// AuthService handles registration and login
type AuthService struct {
	userRepo repositories.UserRepository
	cfg      *config.Config
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo repositories.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{userRepo: userRepo, cfg: cfg}
}

// RegisterInput represents registration input
type RegisterInput struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
	Role       string `json:"role" validate:"required"`
	School     string `json:"school,omitempty"`
	Department string `json:"department,omitempty"`
}

// Register creates a new user account
func (s *AuthService) Register(ctx context.Context, input *RegisterInput) (*models.User, error) {
	if !domain.IsValidRole(domain.Role(input.Role)) {
		return nil, domain.NewValidationError("role", "unknown role")
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrUserAlreadyExists
	}

	hashed, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:       input.Name,
		Email:      input.Email,
		Password:   hashed,
		Role:       input.Role,
		School:     input.School,
		Department: input.Department,
		IsActive:   true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// LoginInput represents login input
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginOutput carries the issued token and profile
type LoginOutput struct {
	AccessToken string               `json:"access_token"`
	User        *models.UserResponse `json:"user"`
}

// Login verifies credentials and issues an access token
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.ErrInvalidCredentials
	}
	if !password.Verify(input.Password, user.Password) {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := jwt.GenerateAccessToken(
		user.ID, user.Role, user.School, user.Department,
		s.cfg.JWT.Secret, s.cfg.JWT.AccessTokenMins,
	)
	if err != nil {
		return nil, err
	}

	return &LoginOutput{
		AccessToken: token,
		User:        user.ToResponse(),
	}, nil
}
