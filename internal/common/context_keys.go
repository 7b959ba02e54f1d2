// File: internal/common/context_keys.go
package common

const (
	// AuthorizationHeader is the header name for authorization token
	AuthorizationHeader = "Authorization"
	// AuthorizationTypeBearer is the prefix for Bearer tokens
	AuthorizationTypeBearer = "Bearer"
	// SessionCookieName is the cookie carrying the session token
	SessionCookieName = "kanoonwise_session"
	// CSRFTokenHeader is the header carrying the CSRF token on mutating requests
	CSRFTokenHeader = "X-CSRF-Token"
	// UserIDKey is the context key for storing the authenticated user's ID
	UserIDKey = "userID"
	// UserEmailKey is the context key for storing the authenticated user's email
	UserEmailKey = "userEmail"
	// UserRoleKey is the context key for storing the authenticated user's role
	UserRoleKey = "userRole"
	// SessionIDKey is the context key for the session token's JTI
	SessionIDKey = "sessionID"
)

// User roles. The client value is added by migration 000002; the enum shipped
// with lawyer and admin only.
const (
	RoleClient = "client"
	RoleLawyer = "lawyer"
	RoleAdmin  = "admin"
)

// IsValidRole reports whether the role is one a user can hold.
func IsValidRole(role string) bool {
	return role == RoleClient || role == RoleLawyer || role == RoleAdmin
}
