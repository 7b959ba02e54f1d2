// File: internal/auth/service.go
package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"kanoonwise_backend/internal/common"
	"kanoonwise_backend/internal/config"
	"kanoonwise_backend/internal/shared"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service implements the OTP request/verify flow, session issuance and CSRF
// token management.
type Service struct {
	cfg         *config.Config
	userService shared.Service
	tokens      shared.TokenService
	store       Store
	blocklist   TokenBlocklistService
	mailer      Mailer
	logger      *zap.Logger
}

// NewService creates a new auth service.
func NewService(
	cfg *config.Config,
	userService shared.Service,
	tokens shared.TokenService,
	store Store,
	blocklist TokenBlocklistService,
	mailer Mailer,
	logger *zap.Logger,
) *Service {
	return &Service{
		cfg:         cfg,
		userService: userService,
		tokens:      tokens,
		store:       store,
		blocklist:   blocklist,
		mailer:      mailer,
		logger:      logger.Named("AuthService"),
	}
}

// RequestOTP generates a one-time code for the email, stores it with a TTL
// and delivers it out-of-band. A repeated request replaces the pending code.
func (s *Service) RequestOTP(ctx context.Context, email, role string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if role != common.RoleClient && role != common.RoleLawyer {
		return common.ErrBadRequest.WithDetails("Role must be client or lawyer.")
	}

	code, err := generateNumericCode(s.cfg.OTPLength)
	if err != nil {
		s.logger.Error("Failed to generate OTP", zap.Error(err))
		return common.ErrInternalServer
	}

	if err := s.store.SaveOTP(ctx, email, PendingOTP{Code: code, Role: role}, s.cfg.OTPExpiry); err != nil {
		s.logger.Error("Failed to persist pending OTP", zap.Error(err))
		return common.ErrServiceUnavailable.WithDetails("Could not issue a one-time code right now.")
	}

	if err := s.mailer.SendOTP(email, code); err != nil {
		// The code stays pending; a retried delivery or the static dev code
		// can still complete the flow.
		s.logger.Error("OTP delivery failed", zap.String("email", email), zap.Error(err))
		return common.ErrServiceUnavailable.WithDetails("Could not deliver the one-time code.")
	}

	s.logger.Info("OTP requested", zap.String("email", email), zap.String("role", role))
	return nil
}

// VerifyOTP checks the pending code for the email and, on match, consumes it,
// resolves the user (creating one on first login) and establishes a session.
// A code verifies successfully at most once.
func (s *Service) VerifyOTP(ctx context.Context, email, code string) (*shared.User, *SessionResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	pending, err := s.store.GetOTP(ctx, email)
	if err != nil {
		s.logger.Error("Failed to read pending OTP", zap.Error(err))
		return nil, nil, common.ErrServiceUnavailable.WithDetails("Could not verify the one-time code right now.")
	}
	if pending == nil {
		return nil, nil, common.ErrOTPExpired
	}

	if !codesMatch(code, pending.Code) && !s.isStaticCode(code) {
		s.logger.Warn("OTP mismatch", zap.String("email", email))
		return nil, nil, common.ErrInvalidOTP
	}

	// Removal and read are a single round trip, so of two concurrent
	// verifications only one gets the code back; the loser sees it expired.
	consumed, err := s.store.ConsumeOTP(ctx, email)
	if err != nil {
		s.logger.Error("Failed to consume OTP", zap.Error(err))
		return nil, nil, common.ErrServiceUnavailable.WithDetails("Could not verify the one-time code right now.")
	}
	if consumed == nil {
		return nil, nil, common.ErrOTPExpired
	}
	if !codesMatch(code, consumed.Code) && !s.isStaticCode(code) {
		return nil, nil, common.ErrInvalidOTP
	}

	usr, wasCreated, err := s.userService.GetOrCreateUserByEmail(ctx, email, consumed.Role)
	if err != nil {
		return nil, nil, err
	}
	if wasCreated {
		s.logger.Info("User registered via OTP verification",
			zap.String("userID", usr.ID.String()),
			zap.String("role", usr.Role),
		)
	}

	session, err := s.establishSession(ctx, usr)
	if err != nil {
		return nil, nil, err
	}
	return usr, session, nil
}

// IssueCSRFToken creates (or rotates) the CSRF token bound to the session.
func (s *Service) IssueCSRFToken(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", common.ErrUnauthorized.WithDetails("No active session.")
	}
	token, err := generateOpaqueToken()
	if err != nil {
		s.logger.Error("Failed to generate CSRF token", zap.Error(err))
		return "", common.ErrInternalServer
	}
	if err := s.store.SaveCSRFToken(ctx, sessionID, token, s.cfg.SessionTokenExpiry); err != nil {
		s.logger.Error("Failed to persist CSRF token", zap.Error(err))
		return "", common.ErrServiceUnavailable.WithDetails("Could not issue a CSRF token right now.")
	}
	return token, nil
}

// ValidateCSRF checks the presented token against the session's stored one.
func (s *Service) ValidateCSRF(ctx context.Context, sessionID, token string) error {
	if sessionID == "" || token == "" {
		return common.ErrCSRF
	}
	stored, err := s.store.GetCSRFToken(ctx, sessionID)
	if err != nil {
		s.logger.Error("Failed to read CSRF token", zap.Error(err))
		return common.ErrServiceUnavailable.WithDetails("Could not validate the CSRF token right now.")
	}
	if stored == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(token)) != 1 {
		return common.ErrCSRF
	}
	return nil
}

// Logout blocklists the session token and drops its CSRF entry.
func (s *Service) Logout(ctx context.Context, claims *shared.Claims) error {
	if claims == nil {
		return common.ErrUnauthorized
	}
	if err := s.blocklist.AddToBlocklist(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		s.logger.Error("Failed to blocklist session token", zap.Error(err))
		return common.ErrInternalServer
	}
	if err := s.store.DeleteCSRFToken(ctx, claims.ID); err != nil {
		s.logger.Warn("Failed to delete CSRF token on logout", zap.Error(err))
	}
	return nil
}

func (s *Service) establishSession(ctx context.Context, usr *shared.User) (*SessionResponse, error) {
	tokenString, expiresAt, err := s.tokens.GenerateSessionToken(sharedUserTokenData{usr})
	if err != nil {
		return nil, common.ErrInternalServer.WithDetails("Could not establish a session.")
	}

	claims, err := s.tokens.ValidateToken(ctx, tokenString)
	if err != nil {
		s.logger.Error("Freshly issued token failed validation", zap.Error(err))
		return nil, common.ErrInternalServer
	}

	csrfToken, err := s.IssueCSRFToken(ctx, claims.ID)
	if err != nil {
		return nil, err
	}

	return &SessionResponse{
		Token:     tokenString,
		TokenType: "Bearer",
		ExpiresAt: expiresAt,
		CSRFToken: csrfToken,
	}, nil
}

func (s *Service) isStaticCode(code string) bool {
	return s.cfg.OTPStaticCode != "" && codesMatch(code, s.cfg.OTPStaticCode)
}

// sharedUserTokenData adapts shared.User to shared.UserDataForToken.
type sharedUserTokenData struct {
	u *shared.User
}

func (d sharedUserTokenData) GetID() uuid.UUID { return d.u.ID }
func (d sharedUserTokenData) GetEmail() string { return d.u.Email }
func (d sharedUserTokenData) GetRole() string  { return d.u.Role }

func codesMatch(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func generateNumericCode(length int) (string, error) {
	const digits = "0123456789"
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	for i := range buf {
		buf[i] = digits[int(buf[i])%len(digits)]
	}
	return string(buf), nil
}

func generateOpaqueToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
