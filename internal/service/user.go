package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Ad-tech1009/Teams-ToDo/internal/auth"
	"github.com/Ad-tech1009/Teams-ToDo/internal/domain"
	"github.com/Ad-tech1009/Teams-ToDo/internal/event"
	"github.com/Ad-tech1009/Teams-ToDo/internal/repository"
	apperrors "github.com/Ad-tech1009/Teams-ToDo/pkg/errors"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 12

// minPasswordLength is the minimum password length required.
const minPasswordLength = 8

// UserService implements the business logic for user and auth operations.
type UserService struct {
	userRepo repository.UserRepository
	tokens   *auth.TokenManager
	producer *event.Producer
	logger   *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(
	userRepo repository.UserRepository,
	tokens *auth.TokenManager,
	producer *event.Producer,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		userRepo: userRepo,
		tokens:   tokens,
		producer: producer,
		logger:   logger,
	}
}

// SignupInput holds the parameters for registering a new user.
type SignupInput struct {
	Name     string
	Email    string
	Password string
}

// LoginInput holds the parameters for user login.
type LoginInput struct {
	Email    string
	Password string
}

// UpdateProfileInput holds the parameters for updating a user's profile.
// Nil fields are left unchanged.
type UpdateProfileInput struct {
	Name              *string
	Phone             *string
	Teams             *[]string
	Skills            *[]string
	ProfilePictureURL *string
}

// Signup creates a new user account, hashes the password, and returns tokens.
// A duplicate email is reported as invalid input, not a conflict, so the
// response does not distinguish signup races from plain bad requests.
func (s *UserService) Signup(ctx context.Context, input SignupInput) (*domain.User, *domain.TokenPair, error) {
	if input.Name == "" {
		return nil, nil, apperrors.InvalidInput("name is required")
	}
	if input.Email == "" {
		return nil, nil, apperrors.InvalidInput("email is required")
	}
	if len(input.Password) < minPasswordLength {
		return nil, nil, apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:                uuid.New().String(),
		Name:              input.Name,
		Email:             input.Email,
		PasswordHash:      string(hashedPassword),
		Role:              domain.RoleMember,
		Teams:             domain.DefaultTeams(),
		Skills:            domain.DefaultSkills(),
		ProfilePictureURL: domain.DefaultProfilePictureURL,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, nil, apperrors.InvalidInput("email already registered")
		}
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	tokens, err := s.generateTokenPair(user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	// Publish registration event (non-blocking on failure).
	if err := s.producer.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, tokens, nil
}

// Login authenticates a user with email and password, returning tokens.
// An unknown email is reported as not found and a wrong password as invalid
// input, matching the API contract the frontend was built against.
func (s *UserService) Login(ctx context.Context, input LoginInput) (*domain.User, *domain.TokenPair, error) {
	if input.Email == "" {
		return nil, nil, apperrors.InvalidInput("email is required")
	}
	if input.Password == "" {
		return nil, nil, apperrors.InvalidInput("password is required")
	}

	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, apperrors.NotFound("user", input.Email)
		}
		return nil, nil, fmt.Errorf("get user by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, nil, apperrors.InvalidInput("invalid password")
	}

	tokens, err := s.generateTokenPair(user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
	)

	return user, tokens, nil
}

// Refresh validates a refresh token and issues a new access token. There is
// no server-side session state, so an expired or tampered token is the only
// failure mode.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", apperrors.Forbidden("missing refresh token")
	}

	userID, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return "", apperrors.Forbidden("invalid or expired refresh token")
	}

	accessToken, err := s.tokens.GenerateAccessToken(userID)
	if err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}

	s.logger.DebugContext(ctx, "access token refreshed",
		slog.String("user_id", userID),
	)

	return accessToken, nil
}

// GetProfile returns the full profile of the given user.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("user", userID)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// ListUsers returns the public projection of every user for assignee
// selection.
func (s *UserService) ListUsers(ctx context.Context) ([]domain.UserRef, error) {
	refs, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return refs, nil
}

// UpdateProfile applies the given changes to the caller's own profile.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("user", userID)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, apperrors.InvalidInput("name cannot be empty")
		}
		user.Name = *input.Name
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}
	if input.Teams != nil {
		user.Teams = *input.Teams
	}
	if input.Skills != nil {
		user.Skills = *input.Skills
	}
	if input.ProfilePictureURL != nil {
		user.ProfilePictureURL = *input.ProfilePictureURL
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	if err := s.producer.PublishUserUpdated(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.updated event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	return user, nil
}

func (s *UserService) generateTokenPair(userID string) (*domain.TokenPair, error) {
	accessToken, err := s.tokens.GenerateAccessToken(userID)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	refreshToken, err := s.tokens.GenerateRefreshToken(userID)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
