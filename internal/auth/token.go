// File: internal/auth/token.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kanoonwise_backend/internal/config"
	"kanoonwise_backend/internal/shared"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JWTService issues and validates HS256 session tokens. Logged-out tokens are
// rejected through the JTI blocklist until their natural expiry.
type JWTService struct {
	cfg       *config.Config
	blocklist TokenBlocklistService
	logger    *zap.Logger
}

// NewJWTService creates a new session token service.
func NewJWTService(cfg *config.Config, blocklist TokenBlocklistService, logger *zap.Logger) shared.TokenService {
	return &JWTService{cfg: cfg, blocklist: blocklist, logger: logger}
}

func (s *JWTService) GenerateSessionToken(userData shared.UserDataForToken) (string, time.Time, error) {
	expirationTime := time.Now().Add(s.cfg.SessionTokenExpiry)

	claims := &shared.Claims{
		UserID: userData.GetID(),
		Email:  userData.GetEmail(),
		Role:   userData.GetRole(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "kanoonwise_backend",
			Subject:   userData.GetID().String(),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.JWTSecretKey))
	if err != nil {
		s.logger.Error("Failed to sign session token", zap.Error(err))
		return "", time.Time{}, fmt.Errorf("could not sign session token: %w", err)
	}
	return tokenString, expirationTime, nil
}

func (s *JWTService) ValidateToken(ctx context.Context, tokenString string) (*shared.Claims, error) {
	claims := &shared.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecretKey), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("session token has expired")
		}
		return nil, fmt.Errorf("invalid session token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid session token")
	}

	blocked, err := s.blocklist.IsBlocklisted(ctx, claims.ID)
	if err != nil {
		s.logger.Warn("Blocklist lookup failed", zap.Error(err))
		return nil, fmt.Errorf("could not verify session token state")
	}
	if blocked {
		return nil, fmt.Errorf("session has been logged out")
	}

	return claims, nil
}
