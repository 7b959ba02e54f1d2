// File: internal/user/model.go
package user

import (
	"time"

	"kanoonwise_backend/internal/common"
	"kanoonwise_backend/internal/shared"

	"github.com/google/uuid"
)

// User represents the user model in the database. Role assignment is
// immutable after creation; migration 000002 exists solely to add the
// client value to the role enum.
type User struct {
	common.BaseModel        // Embeds ID, CreatedAt, UpdatedAt
	Email            string `gorm:"type:varchar(255);not null;uniqueIndex"`
	Role             string `gorm:"type:user_role;not null"`
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}

func (u *User) GetID() uuid.UUID {
	return u.ID
}

func (u *User) GetEmail() string {
	return u.Email
}

func (u *User) GetRole() string {
	return u.Role
}

// ToSharedUser converts a User model to the cross-module view.
func ToSharedUser(u *User) *shared.User {
	return &shared.User{
		ID:        u.ID,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// --- DTOs (Data Transfer Objects) for API responses ---

// UserResponse defines the structure for user data sent in API responses.
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToUserResponse converts a shared user view to a UserResponse DTO.
func ToUserResponse(u *shared.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
