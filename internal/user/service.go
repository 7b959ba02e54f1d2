// File: internal/user/service.go
package user

import (
	"context"
	"errors"

	"kanoonwise_backend/internal/common"
	"kanoonwise_backend/internal/config"
	"kanoonwise_backend/internal/shared"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ServiceImplementation implements shared.Service on top of the repository.
type ServiceImplementation struct {
	repo   Repository
	cfg    *config.Config
	logger *zap.Logger
}

// NewService creates a new user service.
func NewService(repo Repository, cfg *config.Config, logger *zap.Logger) *ServiceImplementation {
	return &ServiceImplementation{
		repo:   repo,
		cfg:    cfg,
		logger: logger.Named("UserService"),
	}
}

// GetUserByID returns the user with the given ID.
func (s *ServiceImplementation) GetUserByID(ctx context.Context, id uuid.UUID) (*shared.User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToSharedUser(u), nil
}

// GetUserByEmail returns the user with the given email.
func (s *ServiceImplementation) GetUserByEmail(ctx context.Context, email string) (*shared.User, error) {
	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return ToSharedUser(u), nil
}

// GetOrCreateUserByEmail finds a user by email or creates one with the given
// role. An existing user's stored role wins over the requested one: role
// assignment is immutable after creation.
func (s *ServiceImplementation) GetOrCreateUserByEmail(ctx context.Context, email, role string) (*shared.User, bool, error) {
	existing, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		if existing.Role != role {
			s.logger.Debug("Requested role differs from stored role; keeping stored role",
				zap.String("email", email),
				zap.String("requested_role", role),
				zap.String("stored_role", existing.Role),
			)
		}
		return ToSharedUser(existing), false, nil
	}

	var apiErr *common.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != common.ErrNotFound.Code {
		return nil, false, err
	}

	if !common.IsValidRole(role) {
		return nil, false, common.ErrBadRequest.WithDetails("Unknown role: " + role)
	}

	newUser := &User{
		Email: email,
		Role:  role,
	}
	if err := s.repo.Create(ctx, newUser); err != nil {
		return nil, false, err
	}
	s.logger.Info("Created user",
		zap.String("userID", newUser.ID.String()),
		zap.String("role", newUser.Role),
	)
	return ToSharedUser(newUser), true, nil
}
