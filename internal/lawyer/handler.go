// File: internal/lawyer/handler.go
package lawyer

import (
	"errors"
	"strings"

	"kanoonwise_backend/internal/common"
	"kanoonwise_backend/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for lawyer handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
	cfg     *config.Config
}

// NewHandler creates a new lawyer handler.
func NewHandler(service Service, logger *zap.Logger, cfg *config.Config) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
		cfg:     cfg,
	}
}

// RegisterRoutes sets up lawyer routes. The /lawyer group requires an
// authenticated lawyer; the /lawyers directory is public.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW, lawyerRoleMW, csrfMW gin.HandlerFunc) {
	ownGroup := router.Group("/lawyer")
	ownGroup.Use(authMW, lawyerRoleMW, csrfMW)
	{
		ownGroup.GET("/profile", h.getMyProfile)
		ownGroup.PUT("/profile", h.updateMyProfile)
		ownGroup.GET("/files", h.getFiles)
		// Storage keys contain a slash (e.g. photos/<uuid>.jpg), which a
		// plain :key parameter cannot match, hence the catch-all. Clients
		// append the key from /lawyer/files as-is:
		// GET /lawyer/files/url/photos/<uuid>.jpg
		ownGroup.GET("/files/url/*key", h.getFileURL)
	}

	publicGroup := router.Group("/lawyers")
	{
		publicGroup.GET("", h.searchLawyers)
		publicGroup.GET("/:id", h.getPublicProfile)
	}
}

func (h *Handler) getMyProfile(c *gin.Context) {
	userID := common.GetUserIDFromContext(c)
	if userID == uuid.Nil {
		common.RespondWithError(c, common.ErrInternalServer.WithDetails("User ID not found."))
		return
	}
	profile, err := h.service.GetMyProfile(c.Request.Context(), userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Profile retrieved successfully.", ToProfileResponse(profile, h.service.FileURL))
}

func (h *Handler) updateMyProfile(c *gin.Context) {
	userID := common.GetUserIDFromContext(c)
	if userID == uuid.Nil {
		common.RespondWithError(c, common.ErrInternalServer.WithDetails("User ID not found."))
		return
	}

	var req UpdateProfileRequest
	var uploads Uploads

	contentType := c.ContentType()
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
			h.logger.Warn("Update profile: failed to parse multipart form", zap.Error(err), zap.String("userID", userID.String()))
			common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid request format or files too large: "+err.Error()))
			return
		}
		if err := c.ShouldBindWith(&req, binding.FormMultipart); err != nil {
			h.respondBindError(c, err, userID)
			return
		}
		form := c.Request.MultipartForm
		// Form binding fills slice fields one raw value per element; the
		// JSON-encoded list variants are decoded here.
		if err := req.decodeFormLists(form.Value); err != nil {
			h.respondBindError(c, err, userID)
			return
		}
		if files := form.File["photo"]; len(files) > 0 {
			uploads.Photo = files[0]
		}
		if files := form.File["cv"]; len(files) > 0 {
			uploads.CV = files[0]
		}
		if files := form.File["bar_certificate"]; len(files) > 0 {
			uploads.BarCertificate = files[0]
		}
	} else {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.respondBindError(c, err, userID)
			return
		}
	}

	profile, err := h.service.UpdateMyProfile(c.Request.Context(), userID, req, uploads)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Profile updated successfully.", ToProfileResponse(profile, h.service.FileURL))
}

func (h *Handler) respondBindError(c *gin.Context, err error, userID uuid.UUID) {
	h.logger.Warn("Update profile: invalid request data", zap.Error(err), zap.String("userID", userID.String()))
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
		return
	}
	common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid request data: "+err.Error()))
}

func (h *Handler) getFiles(c *gin.Context) {
	userID := common.GetUserIDFromContext(c)
	files, err := h.service.GetFiles(c.Request.Context(), userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Files retrieved successfully.", files)
}

func (h *Handler) getFileURL(c *gin.Context) {
	userID := common.GetUserIDFromContext(c)
	key := strings.TrimPrefix(c.Param("key"), "/")
	url, err := h.service.GetFileURL(c.Request.Context(), userID, key)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "File URL generated.", gin.H{"key": key, "url": url})
}

func (h *Handler) searchLawyers(c *gin.Context) {
	var query SearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.logger.Warn("Search lawyers: invalid query parameters", zap.Error(err))
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid query parameters: "+err.Error()))
		return
	}
	query.Page, query.PageSize = common.GetPaginationParams(c)

	profiles, pagination, err := h.service.SearchLawyers(c.Request.Context(), query)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	responses := make([]ProfileResponse, len(profiles))
	for i := range profiles {
		responses[i] = ToProfileResponse(&profiles[i], h.service.FileURL)
	}
	common.RespondPaginated(c, "Lawyers retrieved successfully.", responses, pagination)
}

func (h *Handler) getPublicProfile(c *gin.Context) {
	profile, err := h.service.GetPublicProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Lawyer retrieved successfully.", ToProfileResponse(profile, h.service.FileURL))
}
