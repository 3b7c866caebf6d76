package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/sangkips/receipts-api/internal/clock"
	"github.com/sangkips/receipts-api/internal/domain/entity"
	"github.com/sangkips/receipts-api/internal/domain/repository"
	"github.com/sangkips/receipts-api/pkg/apperror"
	"github.com/sangkips/receipts-api/pkg/utils"
)

const minPasswordLength = 8

// AuthService handles authentication-related operations
type AuthService struct {
	userRepo   repository.UserRepository
	jwtManager *utils.JWTManager
	clock      clock.Clock
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo repository.UserRepository, jwtManager *utils.JWTManager, clk clock.Clock) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtManager: jwtManager,
		clock:      clk,
	}
}

// LoginInput represents the login input
type LoginInput struct {
	Email    string
	Password string
}

// AuthOutput is a user together with a freshly issued access token
type AuthOutput struct {
	User        *entity.User
	AccessToken string
}

// Login authenticates a user and returns an access token
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*AuthOutput, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		return nil, apperror.NewPersistenceError(err)
	}
	if user == nil || !utils.CheckPasswordHash(input.Password, user.Password) {
		return nil, apperror.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, apperror.NewAppError(apperror.ErrForbidden.Code, "Account is disabled")
	}

	now := s.clock.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, apperror.NewPersistenceError(err)
	}

	return s.issue(user)
}

// RegisterInput represents the registration input
type RegisterInput struct {
	FirstName       string
	LastName        string
	Email           string
	Password        string
	DefaultCurrency string
}

// Register creates a new user account and signs it in
func (s *AuthService) Register(ctx context.Context, input *RegisterInput) (*AuthOutput, error) {
	email := normalizeEmail(input.Email)

	var fields []apperror.FieldError
	if email == "" {
		fields = append(fields, required("email"))
	}
	if len(input.Password) < minPasswordLength {
		fields = append(fields, apperror.FieldError{Field: "password", Message: "Ensure this field has at least 8 characters."})
	}
	currency := strings.ToUpper(strings.TrimSpace(input.DefaultCurrency))
	if currency != "" && len(currency) != 3 {
		fields = append(fields, apperror.FieldError{Field: "default_currency", Message: "Currency code must be 3 characters (ISO 4217)"})
	}
	if len(fields) > 0 {
		return nil, apperror.NewValidationError("Invalid registration", fields...)
	}

	exists, err := s.userRepo.EmailExists(ctx, email)
	if err != nil {
		return nil, apperror.NewPersistenceError(err)
	}
	if exists {
		return nil, apperror.NewConflictError("Email already registered")
	}

	hashedPassword, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		FirstName:       input.FirstName,
		LastName:        input.LastName,
		Email:           email,
		Password:        hashedPassword,
		IsActive:        true,
		DefaultCurrency: currency,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, apperror.NewConflictError("Email already registered")
		}
		return nil, apperror.NewPersistenceError(err)
	}

	return s.issue(user)
}

// Profile returns the user behind an access token
func (s *AuthService) Profile(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperror.NewPersistenceError(err)
	}
	if user == nil {
		return nil, apperror.NewNotFoundError("User")
	}
	return user, nil
}

// ValidateToken validates an access token and returns its claims
func (s *AuthService) ValidateToken(token string) (*utils.JWTClaims, error) {
	claims, err := s.jwtManager.ValidateAccessToken(token)
	if err != nil {
		return nil, apperror.ErrInvalidToken
	}
	return claims, nil
}

func (s *AuthService) issue(user *entity.User) (*AuthOutput, error) {
	token, err := s.jwtManager.GenerateAccessToken(user.ID, user.Email, user.IsStaff)
	if err != nil {
		return nil, err
	}
	return &AuthOutput{User: user, AccessToken: token}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
