package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anufa/anufa-backend/internal/app/model"
	"github.com/anufa/anufa-backend/internal/app/repository"
	apperrors "github.com/anufa/anufa-backend/internal/errors"
	"github.com/anufa/anufa-backend/pkg/logger"
	"github.com/anufa/anufa-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrUsernameTaken = apperrors.NewConflict(apperrors.AuthUsernameExists, "username is already taken")
	ErrEmailTaken    = apperrors.NewConflict(apperrors.AuthEmailAlreadyExists, "email is already registered")
	ErrTokenRevoked  = errors.New("token has been revoked")
)

type RegisterInput struct {
	Username  string `json:"username" validate:"required,min=3,max=80"`
	Email     string `json:"email" validate:"required,email,max=120"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"first_name" validate:"max=50"`
	LastName  string `json:"last_name" validate:"max=50"`
	Age       int    `json:"age" validate:"gte=0,lte=120"`
	Gender    string `json:"gender" validate:"omitempty,oneof=female male other"`
	Location  string `json:"location" validate:"max=100"`
}

// TokenRevoker remembers revoked token ids until they would have expired.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type AuthService interface {
	Register(input RegisterInput) (*model.User, *util.TokenPair, error)
	Login(identifier, password string) (*model.User, *util.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*util.TokenPair, error)
	Logout(ctx context.Context, claims *util.Claims) error
	GetUserByID(id uint) (*model.User, error)
}

type authService struct {
	userRepo      repository.UserRepository
	revoker       TokenRevoker
	jwtSecret     string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

// NewAuthService builds the service; revoker may be nil, in which case
// logout only succeeds client-side.
func NewAuthService(
	userRepo repository.UserRepository,
	revoker TokenRevoker,
	jwtSecret string,
	accessExpiry, refreshExpiry time.Duration,
) AuthService {
	return &authService{
		userRepo:      userRepo,
		revoker:       revoker,
		jwtSecret:     jwtSecret,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

func (s *authService) Register(input RegisterInput) (*model.User, *util.TokenPair, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	logger.Info("Attempting user registration", map[string]interface{}{
		"username": input.Username,
		"email":    input.Email,
	})

	if err := validateStruct(input); err != nil {
		return nil, nil, err
	}

	if existing, err := s.userRepo.FindByLogin(input.Username); err == nil {
		if existing.Username == input.Username {
			return nil, nil, ErrUsernameTaken
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, apperrors.Storage("find user", err)
	}
	if _, err := s.userRepo.FindByEmail(input.Email); err == nil {
		logger.Warn("Registration failed: email already exists", map[string]interface{}{
			"email": input.Email,
		})
		return nil, nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, apperrors.Storage("find user", err)
	}

	hashedPassword, err := util.HashPassword(input.Password)
	if err != nil {
		logger.Error("Failed to hash password", err)
		return nil, nil, err
	}

	user := &model.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hashedPassword,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Role:         model.RoleCustomer,
		Age:          input.Age,
		Gender:       input.Gender,
		Location:     input.Location,
	}
	// unique indexes still catch a concurrent registration
	if err := s.userRepo.Create(user); err != nil {
		return nil, nil, apperrors.FromDB("create user", err)
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("User registered successfully", map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role,
	})
	return user, tokens, nil
}

func (s *authService) Login(identifier, password string) (*model.User, *util.TokenPair, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, nil, apperrors.NewValidation("username", "is required")
	}
	if password == "" {
		return nil, nil, apperrors.NewValidation("password", "is required")
	}

	user, err := s.userRepo.FindByLogin(identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Login failed: user not found", map[string]interface{}{
				"identifier": identifier,
			})
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, apperrors.Storage("find user", err)
	}

	if !util.VerifyPassword(user.PasswordHash, password) {
		logger.Warn("Login failed: invalid password", map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("User logged in", map[string]interface{}{
		"user_id": user.ID,
	})
	return user, tokens, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*util.TokenPair, error) {
	claims, err := util.ValidateToken(refreshToken, s.jwtSecret)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != util.TokenTypeRefresh {
		return nil, util.ErrInvalidToken
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}

	user, err := s.GetUserByID(claims.UserID)
	if err != nil {
		return nil, err
	}

	// rotate: the presented refresh token cannot be replayed
	if s.revoker != nil {
		if err := s.revoker.Revoke(ctx, claims.ID, claims.RemainingTTL()); err != nil {
			logger.Error("Failed to revoke rotated refresh token", err, map[string]interface{}{
				"user_id": user.ID,
			})
			return nil, apperrors.Storage("revoke token", err)
		}
	}
	return s.issueTokens(user)
}

func (s *authService) Logout(ctx context.Context, claims *util.Claims) error {
	if s.revoker == nil || claims == nil {
		return nil
	}
	if err := s.revoker.Revoke(ctx, claims.ID, claims.RemainingTTL()); err != nil {
		logger.Error("Failed to revoke token on logout", err, map[string]interface{}{
			"user_id": claims.UserID,
		})
		return apperrors.Storage("revoke token", err)
	}
	logger.Info("User logged out", map[string]interface{}{
		"user_id": claims.UserID,
	})
	return nil
}

func (s *authService) checkRevoked(ctx context.Context, claims *util.Claims) error {
	if s.revoker == nil {
		return nil
	}
	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return apperrors.Storage("check token", err)
	}
	if revoked {
		return ErrTokenRevoked
	}
	return nil
}

func (s *authService) GetUserByID(id uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, apperrors.Storage("find user", err)
	}
	return user, nil
}

func (s *authService) issueTokens(user *model.User) (*util.TokenPair, error) {
	tokens, err := util.GenerateTokenPair(
		user.ID,
		user.Email,
		string(user.Role),
		s.jwtSecret,
		s.accessExpiry,
		s.refreshExpiry,
	)
	if err != nil {
		logger.Error("Failed to generate tokens", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, err
	}
	return tokens, nil
}
