// File: internal/appointment/model.go
package appointment

import (
	"time"

	"kanoonwise_backend/internal/common"
	"kanoonwise_backend/internal/lawyer"
	"kanoonwise_backend/internal/user"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// CanTransitionTo reports whether the lifecycle permits moving from s to next.
// Cancelled and completed are terminal.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusCancelled
	case StatusConfirmed:
		return next == StatusCompleted || next == StatusCancelled
	default:
		return false
	}
}

// IsTerminal reports whether no further transitions are allowed from s.
func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// Appointment is a booking between a client and a lawyer for one time slot.
type Appointment struct {
	common.BaseModel
	ClientUserID     uuid.UUID               `gorm:"type:uuid;not null;index"`
	Client           *user.User              `gorm:"foreignKey:ClientUserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	LawyerUserID     uuid.UUID               `gorm:"type:uuid;not null;index:idx_appointments_lawyer_time"`
	Lawyer           *user.User              `gorm:"foreignKey:LawyerUserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	ScheduledTime    time.Time               `gorm:"not null;index:idx_appointments_lawyer_time"`
	DurationMinutes  int                     `gorm:"not null;default:30"`
	ConsultationType lawyer.ConsultationType `gorm:"type:varchar(20);not null"`
	CaseDescription  string                  `gorm:"type:text"`
	Status           Status                  `gorm:"type:varchar(20);not null;default:'pending';index"`
	Fee              *float64                `gorm:"type:numeric(12,2)"`
	Notes            *string                 `gorm:"type:text"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// SlotEnd is the moment the booked slot finishes.
func (a *Appointment) SlotEnd() time.Time {
	return a.ScheduledTime.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// --- DTOs for API ---

// CreateAppointmentRequest books a lawyer for a time slot.
type CreateAppointmentRequest struct {
	LawyerUserID     uuid.UUID               `json:"lawyer_user_id" binding:"required"`
	ScheduledTime    time.Time               `json:"scheduled_time" binding:"required"`
	ConsultationType lawyer.ConsultationType `json:"consultation_type" binding:"required,oneof=online offline"`
	CaseDescription  string                  `json:"case_description" binding:"omitempty,max=5000"`
}

// UpdateNotesRequest lets the lawyer attach notes when completing.
type UpdateNotesRequest struct {
	Notes *string `json:"notes" binding:"omitempty,max=5000"`
}

// ListQuery filters an appointment listing.
type ListQuery struct {
	common.PaginationQuery
	Status string `form:"status" binding:"omitempty,oneof=pending confirmed cancelled completed"`
}

// AppointmentResponse is the API shape of an appointment.
type AppointmentResponse struct {
	ID               uuid.UUID               `json:"id"`
	ClientUserID     uuid.UUID               `json:"client_user_id"`
	LawyerUserID     uuid.UUID               `json:"lawyer_user_id"`
	ScheduledTime    time.Time               `json:"scheduled_time"`
	DurationMinutes  int                     `json:"duration_minutes"`
	ConsultationType lawyer.ConsultationType `json:"consultation_type"`
	CaseDescription  string                  `json:"case_description,omitempty"`
	Status           Status                  `json:"status"`
	Fee              *float64                `json:"fee,omitempty"`
	Notes            *string                 `json:"notes,omitempty"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
}

// ToAppointmentResponse maps an appointment to its API shape.
func ToAppointmentResponse(a *Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:               a.ID,
		ClientUserID:     a.ClientUserID,
		LawyerUserID:     a.LawyerUserID,
		ScheduledTime:    a.ScheduledTime,
		DurationMinutes:  a.DurationMinutes,
		ConsultationType: a.ConsultationType,
		CaseDescription:  a.CaseDescription,
		Status:           a.Status,
		Fee:              a.Fee,
		Notes:            a.Notes,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}
