// File: internal/appointment/handler.go
package appointment

import (
	"errors"

	"kanoonwise_backend/internal/common"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for appointment handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new appointment handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes sets up the client and lawyer sides of the appointment
// lifecycle. Both sides require an authenticated session with the right role.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW, clientRoleMW, lawyerRoleMW, csrfMW gin.HandlerFunc) {
	clientGroup := router.Group("/client/appointments")
	clientGroup.Use(authMW, clientRoleMW, csrfMW)
	{
		clientGroup.POST("", h.createAppointment)
		clientGroup.GET("", h.listClientAppointments)
		clientGroup.PUT("/:id/cancel", h.cancelAppointment)
	}

	lawyerGroup := router.Group("/lawyer/appointments")
	lawyerGroup.Use(authMW, lawyerRoleMW, csrfMW)
	{
		lawyerGroup.GET("", h.listLawyerAppointments)
		lawyerGroup.PUT("/:id/confirm", h.confirmAppointment)
		lawyerGroup.PUT("/:id/complete", h.completeAppointment)
		lawyerGroup.PUT("/:id/cancel", h.cancelAppointment)
	}
}

func (h *Handler) createAppointment(c *gin.Context) {
	clientID := common.GetUserIDFromContext(c)
	if clientID == uuid.Nil {
		common.RespondWithError(c, common.ErrInternalServer.WithDetails("User ID not found."))
		return
	}

	var req CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Create appointment: invalid request body", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	appt, err := h.service.Create(c.Request.Context(), clientID, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Appointment booked successfully.", ToAppointmentResponse(appt))
}

func (h *Handler) listClientAppointments(c *gin.Context) {
	clientID := common.GetUserIDFromContext(c)
	query, ok := h.bindListQuery(c)
	if !ok {
		return
	}
	appts, pagination, err := h.service.ListForClient(c.Request.Context(), clientID, query)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Appointments retrieved successfully.", toResponses(appts), pagination)
}

func (h *Handler) listLawyerAppointments(c *gin.Context) {
	lawyerID := common.GetUserIDFromContext(c)
	query, ok := h.bindListQuery(c)
	if !ok {
		return
	}
	appts, pagination, err := h.service.ListForLawyer(c.Request.Context(), lawyerID, query)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Appointments retrieved successfully.", toResponses(appts), pagination)
}

func (h *Handler) cancelAppointment(c *gin.Context) {
	apptID, actorID, ok := h.pathAndActor(c)
	if !ok {
		return
	}
	appt, err := h.service.Cancel(c.Request.Context(), apptID, actorID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Appointment cancelled.", ToAppointmentResponse(appt))
}

func (h *Handler) confirmAppointment(c *gin.Context) {
	apptID, lawyerID, ok := h.pathAndActor(c)
	if !ok {
		return
	}
	appt, err := h.service.Confirm(c.Request.Context(), apptID, lawyerID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Appointment confirmed.", ToAppointmentResponse(appt))
}

func (h *Handler) completeAppointment(c *gin.Context) {
	apptID, lawyerID, ok := h.pathAndActor(c)
	if !ok {
		return
	}

	var req UpdateNotesRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
			return
		}
	}

	appt, err := h.service.Complete(c.Request.Context(), apptID, lawyerID, req.Notes)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Appointment completed.", ToAppointmentResponse(appt))
}

func (h *Handler) bindListQuery(c *gin.Context) (ListQuery, bool) {
	var query ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid query parameters: "+err.Error()))
		return query, false
	}
	query.Page, query.PageSize = common.GetPaginationParams(c)
	return query, true
}

func (h *Handler) pathAndActor(c *gin.Context) (apptID, actorID uuid.UUID, ok bool) {
	apptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid appointment ID format."))
		return uuid.Nil, uuid.Nil, false
	}
	actorID = common.GetUserIDFromContext(c)
	if actorID == uuid.Nil {
		common.RespondWithError(c, common.ErrInternalServer.WithDetails("User ID not found."))
		return uuid.Nil, uuid.Nil, false
	}
	return apptID, actorID, true
}

func toResponses(appts []Appointment) []AppointmentResponse {
	responses := make([]AppointmentResponse, len(appts))
	for i := range appts {
		responses[i] = ToAppointmentResponse(&appts[i])
	}
	return responses
}
