// File: internal/shared/core.go
package shared

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// User is the cross-module view of a user.
type User struct {
	ID        uuid.UUID
	Email     string
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Service defines the user-related business logic consumed by other modules.
type Service interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	// GetOrCreateUserByEmail finds a user by email or creates one with the
	// given role. The role of an existing user is never changed.
	GetOrCreateUserByEmail(ctx context.Context, email, role string) (usr *User, wasCreated bool, err error)
}

// UserDataForToken abstracts the user data needed for token generation.
type UserDataForToken interface {
	GetID() uuid.UUID
	GetEmail() string
	GetRole() string
}

// TokenService defines the interface for session token operations.
type TokenService interface {
	GenerateSessionToken(userData UserDataForToken) (string, time.Time, error)
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims represents the session token claims structure.
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Role   string    `json:"role"`
	jwt.RegisteredClaims
}
