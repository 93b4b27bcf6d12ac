// Package user covers account registration, login and the caller's profile.
package user

import (
	"context"
	"errors"
	"fmt"

	"robot-dispatch/internal/config"
	domainNode "robot-dispatch/internal/domain/node"
	domainUser "robot-dispatch/internal/domain/user"
	"robot-dispatch/internal/logger"
	"robot-dispatch/internal/usecase/common"
	appErrors "robot-dispatch/pkg/errors"
	"robot-dispatch/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var errInvalidCredentials = appErrors.NewAppError(appErrors.CodeUnauthorized, "Invalid email or password", nil)

// Service implements user use cases
type Service struct {
	userRepo domainUser.Repository
	nodeRepo domainNode.Repository
	jwt      config.JWTConfig
}

// NewService creates a new user service
func NewService(userRepo domainUser.Repository, nodeRepo domainNode.Repository, jwtCfg config.JWTConfig) *Service {
	return &Service{
		userRepo: userRepo,
		nodeRepo: nodeRepo,
		jwt:      jwtCfg,
	}
}

func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	req.Email = utils.SanitizeEmail(req.Email)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.Validation("Invalid input", err)
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		return nil, appErrors.Validation(err.Error(), nil)
	}

	existing, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, domainUser.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		logger.Warn("Registration attempt with existing email",
			zap.String("email", req.Email),
			zap.String("event", "registration_failed_duplicate_email"),
		)
		return nil, appErrors.Conflict("User with this email already exists", nil)
	}

	if req.PersonalNodeID != nil {
		if _, err := s.nodeRepo.GetByID(ctx, *req.PersonalNodeID); err != nil {
			return nil, common.NodeErr(err, *req.PersonalNodeID)
		}
	}

	hashed, err := utils.HashSecret(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &domainUser.User{
		Username:       utils.SanitizeString(req.Username),
		Email:          req.Email,
		PasswordHashed: hashed,
		FullName:       utils.SanitizeString(req.FullName),
		PhoneNumber:    sanitizePhone(req.PhoneNumber),
		Role:           req.Role,
		PersonalNodeID: req.PersonalNodeID,
		IsActive:       true,
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		if errors.Is(err, domainUser.ErrUserAlreadyExists) {
			return nil, appErrors.Conflict("User already exists", err)
		}
		return nil, err
	}

	logger.Info("User registered successfully",
		zap.String("user_id", u.ID.String()),
		zap.String("email", u.Email),
		zap.String("role", u.Role),
		zap.String("event", "user_registered"),
	)

	return s.issue(u)
}

func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	req.Email = utils.SanitizeEmail(req.Email)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.Validation("Invalid input", err)
	}

	u, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domainUser.ErrUserNotFound) {
			logger.Warn("Login attempt with unknown email",
				zap.String("email", req.Email),
				zap.String("event", "login_failed_unknown_email"),
			)
			return nil, errInvalidCredentials
		}
		return nil, err
	}

	if !u.IsActive {
		return nil, appErrors.NewAppError(appErrors.CodeForbidden, "User account is inactive", domainUser.ErrUserInactive)
	}
	if !utils.CheckSecret(u.PasswordHashed, req.Password) {
		logger.Warn("Login attempt with invalid password",
			zap.String("user_id", u.ID.String()),
			zap.String("event", "login_failed_invalid_password"),
		)
		return nil, errInvalidCredentials
	}

	logger.Info("User logged in",
		zap.String("user_id", u.ID.String()),
		zap.String("role", u.Role),
		zap.String("event", "login_success"),
	)

	return s.issue(u)
}

func (s *Service) issue(u *domainUser.User) (*AuthResponse, error) {
	token, err := utils.GenerateUserToken(u.ID, u.Email, u.Role, s.jwt.Secret, s.jwt.ExpiryHours)
	if err != nil {
		return nil, appErrors.Internal("Failed to issue token", err)
	}
	return &AuthResponse{
		User:        ToUserResponse(u),
		AccessToken: token.AccessToken,
		ExpiresAt:   token.ExpiresAt,
	}, nil
}

func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (*UserResponse, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, common.UserErr(err, userID)
	}
	return ToUserResponse(u), nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, req *UpdateProfileRequest) (*UserResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.Validation("Invalid input", err)
	}

	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, common.UserErr(err, userID)
	}

	if req.FullName != nil {
		u.FullName = utils.SanitizeString(*req.FullName)
	}
	if req.PhoneNumber != nil {
		u.PhoneNumber = sanitizePhone(req.PhoneNumber)
	}
	if req.PersonalNodeID != nil {
		if _, err := s.nodeRepo.GetByID(ctx, *req.PersonalNodeID); err != nil {
			return nil, common.NodeErr(err, *req.PersonalNodeID)
		}
		u.PersonalNodeID = req.PersonalNodeID
	}

	if err := s.userRepo.Update(ctx, u); err != nil {
		return nil, err
	}

	return ToUserResponse(u), nil
}

func sanitizePhone(phone *string) *string {
	if phone == nil {
		return nil
	}
	clean := utils.SanitizePhone(*phone)
	return &clean
}
