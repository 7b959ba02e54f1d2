// File: internal/auth/model.go
package auth

import "time"

// RequestOTPRequest defines the structure for OTP requests.
type RequestOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"required,oneof=client lawyer"`
}

// VerifyOTPRequest defines the structure for OTP verification requests.
type VerifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,min=4,max=8"`
}

// SessionResponse is returned after a successful verification. The same token
// is also set as the session cookie; the CSRF token must accompany all
// state-mutating requests in the X-CSRF-Token header.
type SessionResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
	CSRFToken string    `json:"csrf_token"`
}

// PendingOTP is the short-lived state between request-otp and verify-otp.
type PendingOTP struct {
	Code string `json:"code"`
	Role string `json:"role"`
}
