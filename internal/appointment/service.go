// File: internal/appointment/service.go
package appointment

import (
	"context"
	"fmt"
	"time"

	"kanoonwise_backend/internal/common"
	"kanoonwise_backend/internal/config"
	"kanoonwise_backend/internal/lawyer"
	"kanoonwise_backend/internal/shared"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service defines the interface for appointment business logic.
type Service interface {
	Create(ctx context.Context, clientID uuid.UUID, req CreateAppointmentRequest) (*Appointment, error)
	ListForClient(ctx context.Context, clientID uuid.UUID, query ListQuery) ([]Appointment, *common.Pagination, error)
	ListForLawyer(ctx context.Context, lawyerID uuid.UUID, query ListQuery) ([]Appointment, *common.Pagination, error)
	Cancel(ctx context.Context, id, actorID uuid.UUID) (*Appointment, error)
	Confirm(ctx context.Context, id, lawyerID uuid.UUID) (*Appointment, error)
	Complete(ctx context.Context, id, lawyerID uuid.UUID, notes *string) (*Appointment, error)

	// CompleteElapsed moves confirmed appointments whose slot has ended to
	// completed. Called by the scheduled job; returns the number updated.
	CompleteElapsed(ctx context.Context) (int, error)
}

// ServiceImplementation implements the appointment Service interface.
type ServiceImplementation struct {
	repo        Repository
	userService shared.Service
	lawyerRepo  lawyer.Repository
	cfg         *config.Config
	logger      *zap.Logger
}

// NewService creates a new appointment service.
func NewService(
	repo Repository,
	userService shared.Service,
	lawyerRepo lawyer.Repository,
	cfg *config.Config,
	logger *zap.Logger,
) Service {
	return &ServiceImplementation{
		repo:        repo,
		userService: userService,
		lawyerRepo:  lawyerRepo,
		cfg:         cfg,
		logger:      logger,
	}
}

// Create books a pending appointment for the client. The target user must be
// a lawyer, and the requested slot must not overlap an existing pending or
// confirmed booking of that lawyer.
func (s *ServiceImplementation) Create(ctx context.Context, clientID uuid.UUID, req CreateAppointmentRequest) (*Appointment, error) {
	lawyerUser, err := s.userService.GetUserByID(ctx, req.LawyerUserID)
	if err != nil {
		if apiErr, ok := common.IsAPIError(err); ok && apiErr.Code == common.ErrNotFound.Code {
			return nil, common.NewValidationAPIError(map[string]string{
				"lawyer_user_id": "no such lawyer",
			})
		}
		return nil, err
	}
	if lawyerUser.Role != common.RoleLawyer {
		return nil, common.NewValidationAPIError(map[string]string{
			"lawyer_user_id": "the referenced user is not a lawyer",
		})
	}
	if !req.ScheduledTime.After(time.Now()) {
		return nil, common.NewValidationAPIError(map[string]string{
			"scheduled_time": "must be in the future",
		})
	}

	appt := &Appointment{
		ClientUserID:     clientID,
		LawyerUserID:     req.LawyerUserID,
		ScheduledTime:    req.ScheduledTime.UTC(),
		DurationMinutes:  s.cfg.DefaultAppointmentMinutes,
		ConsultationType: req.ConsultationType,
		CaseDescription:  req.CaseDescription,
		Status:           StatusPending,
	}

	// Snapshot the consultation fee from the lawyer's current profile so a
	// later fee change does not alter already booked appointments.
	if profile, perr := s.lawyerRepo.FindByUserID(ctx, req.LawyerUserID); perr == nil {
		fee := profile.FeeStructure.Consultation
		appt.Fee = &fee
	}

	if err := s.repo.CreateIfSlotFree(ctx, appt); err != nil {
		return nil, err
	}

	s.logger.Info("Appointment booked",
		zap.String("appointmentID", appt.ID.String()),
		zap.String("clientID", clientID.String()),
		zap.String("lawyerID", req.LawyerUserID.String()),
		zap.Time("scheduledTime", appt.ScheduledTime),
	)
	return appt, nil
}

func (s *ServiceImplementation) ListForClient(ctx context.Context, clientID uuid.UUID, query ListQuery) ([]Appointment, *common.Pagination, error) {
	return s.repo.ListByClient(ctx, clientID, query)
}

func (s *ServiceImplementation) ListForLawyer(ctx context.Context, lawyerID uuid.UUID, query ListQuery) ([]Appointment, *common.Pagination, error) {
	return s.repo.ListByLawyer(ctx, lawyerID, query)
}

// Cancel moves an appointment to cancelled. Only the booking client or the
// booked lawyer may cancel, and only from a non-terminal state.
func (s *ServiceImplementation) Cancel(ctx context.Context, id, actorID uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.ClientUserID != actorID && appt.LawyerUserID != actorID {
		return nil, common.ErrForbidden.WithDetails("You can only cancel your own appointments.")
	}
	return s.transition(ctx, appt, StatusCancelled)
}

// Confirm moves a pending appointment to confirmed. Lawyer-side only.
func (s *ServiceImplementation) Confirm(ctx context.Context, id, lawyerID uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.LawyerUserID != lawyerID {
		return nil, common.ErrForbidden.WithDetails("You can only confirm appointments booked with you.")
	}
	return s.transition(ctx, appt, StatusConfirmed)
}

// Complete moves a confirmed appointment to completed and records notes.
func (s *ServiceImplementation) Complete(ctx context.Context, id, lawyerID uuid.UUID, notes *string) (*Appointment, error) {
	appt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.LawyerUserID != lawyerID {
		return nil, common.ErrForbidden.WithDetails("You can only complete appointments booked with you.")
	}
	if notes != nil {
		appt.Notes = notes
	}
	return s.transition(ctx, appt, StatusCompleted)
}

func (s *ServiceImplementation) transition(ctx context.Context, appt *Appointment, next Status) (*Appointment, error) {
	if !appt.Status.CanTransitionTo(next) {
		return nil, common.ErrInvalidTransition.WithDetails(
			fmt.Sprintf("Cannot move appointment from '%s' to '%s'.", appt.Status, next))
	}
	previous := appt.Status
	appt.Status = next
	if err := s.repo.Update(ctx, appt); err != nil {
		return nil, err
	}
	s.logger.Info("Appointment status changed",
		zap.String("appointmentID", appt.ID.String()),
		zap.String("from", string(previous)),
		zap.String("to", string(next)),
	)
	return appt, nil
}

func (s *ServiceImplementation) CompleteElapsed(ctx context.Context) (int, error) {
	appts, err := s.repo.FindConfirmedEndedBefore(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to find elapsed appointments: %w", err)
	}
	completed := 0
	for i := range appts {
		appts[i].Status = StatusCompleted
		if err := s.repo.Update(ctx, &appts[i]); err != nil {
			s.logger.Error("Failed to complete elapsed appointment",
				zap.String("appointmentID", appts[i].ID.String()),
				zap.Error(err),
			)
			continue
		}
		completed++
	}
	return completed, nil
}
