// File: internal/auth/handler.go
package auth

import (
	"errors"
	"time"

	"kanoonwise_backend/internal/common"
	"kanoonwise_backend/internal/middleware"
	"kanoonwise_backend/internal/shared"
	"kanoonwise_backend/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for auth handlers.
type Handler struct {
	service     *Service
	userService shared.Service
	logger      *zap.Logger
}

// NewHandler creates a new auth handler.
func NewHandler(service *Service, userService shared.Service, logger *zap.Logger) *Handler {
	return &Handler{
		service:     service,
		userService: userService,
		logger:      logger,
	}
}

// RegisterRoutes sets up the routes for authentication operations. The OTP
// endpoints are public; the rest require an established session.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/request-otp", h.requestOTP)
		authGroup.POST("/verify-otp", h.verifyOTP)

		authed := authGroup.Group("")
		authed.Use(authMW)
		{
			authed.GET("/csrf-token", h.csrfToken)
			authed.GET("/me", h.me)
			authed.POST("/logout", h.logout)
		}
	}
}

func (h *Handler) requestOTP(c *gin.Context) {
	var req RequestOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Request OTP: invalid request body", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	if err := h.service.RequestOTP(c.Request.Context(), req.Email, req.Role); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "A one-time code has been sent to your email.", nil)
}

func (h *Handler) verifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Verify OTP: invalid request body", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	usr, session, err := h.service.VerifyOTP(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	maxAge := int(time.Until(session.ExpiresAt).Seconds())
	c.SetCookie(common.SessionCookieName, session.Token, maxAge, "/", "", false, true)

	common.RespondOK(c, "Verification successful.", gin.H{
		"user":    user.ToUserResponse(usr),
		"session": session,
	})
}

func (h *Handler) csrfToken(c *gin.Context) {
	sessionID := common.GetSessionIDFromContext(c)
	token, err := h.service.IssueCSRFToken(c.Request.Context(), sessionID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	c.Header(common.CSRFTokenHeader, token)
	common.RespondOK(c, "CSRF token issued.", gin.H{"csrf_token": token})
}

func (h *Handler) me(c *gin.Context) {
	userID := common.GetUserIDFromContext(c)
	usr, err := h.userService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Current user retrieved.", user.ToUserResponse(usr))
}

func (h *Handler) logout(c *gin.Context) {
	claims := middleware.GetUserClaimsFromContext(c)
	if claims == nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}
	if err := h.service.Logout(c.Request.Context(), claims); err != nil {
		common.RespondWithError(c, err)
		return
	}
	c.SetCookie(common.SessionCookieName, "", -1, "/", "", false, true)
	common.RespondOK(c, "Logged out.", nil)
}
