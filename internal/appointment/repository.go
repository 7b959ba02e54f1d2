// File: internal/appointment/repository.go
package appointment

import (
	"context"
	"fmt"
	"time"

	"kanoonwise_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for appointment data operations.
type Repository interface {
	// CreateIfSlotFree inserts the appointment inside a transaction after
	// checking the lawyer has no overlapping pending or confirmed booking.
	// Returns a conflict error when the slot is taken.
	CreateIfSlotFree(ctx context.Context, appt *Appointment) error
	FindByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, appt *Appointment) error
	ListByClient(ctx context.Context, clientID uuid.UUID, query ListQuery) ([]Appointment, *common.Pagination, error)
	ListByLawyer(ctx context.Context, lawyerID uuid.UUID, query ListQuery) ([]Appointment, *common.Pagination, error)
	FindConfirmedEndedBefore(ctx context.Context, cutoff time.Time) ([]Appointment, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM appointment repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreateIfSlotFree(ctx context.Context, appt *Appointment) error {
	slotEnd := appt.SlotEnd()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var overlapping int64
		err := tx.Model(&Appointment{}).
			Where("lawyer_user_id = ?", appt.LawyerUserID).
			Where("status IN (?)", []Status{StatusPending, StatusConfirmed}).
			Where("scheduled_time < ? AND (scheduled_time + duration_minutes * interval '1 minute') > ?", slotEnd, appt.ScheduledTime).
			Count(&overlapping).Error
		if err != nil {
			return fmt.Errorf("failed to check slot availability: %w", err)
		}
		if overlapping > 0 {
			return common.ErrConflict.WithDetails("The lawyer already has a booking for this time slot.")
		}
		if err := tx.Create(appt).Error; err != nil {
			return fmt.Errorf("failed to create appointment: %w", err)
		}
		return nil
	})
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	var appt Appointment
	err := r.db.WithContext(ctx).First(&appt, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, common.ErrNotFound.WithDetails("Appointment not found.")
		}
		return nil, err
	}
	return &appt, nil
}

func (r *gormRepository) Update(ctx context.Context, appt *Appointment) error {
	if err := r.db.WithContext(ctx).Save(appt).Error; err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}
	return nil
}

func (r *gormRepository) ListByClient(ctx context.Context, clientID uuid.UUID, query ListQuery) ([]Appointment, *common.Pagination, error) {
	return r.list(ctx, "client_user_id = ?", clientID, query)
}

func (r *gormRepository) ListByLawyer(ctx context.Context, lawyerID uuid.UUID, query ListQuery) ([]Appointment, *common.Pagination, error) {
	return r.list(ctx, "lawyer_user_id = ?", lawyerID, query)
}

func (r *gormRepository) list(ctx context.Context, cond string, id uuid.UUID, query ListQuery) ([]Appointment, *common.Pagination, error) {
	var appts []Appointment
	var totalItems int64

	dbQuery := r.db.WithContext(ctx).Model(&Appointment{}).Where(cond, id)
	if query.Status != "" {
		dbQuery = dbQuery.Where("status = ?", query.Status)
	}
	if err := dbQuery.Count(&totalItems).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to count appointments: %w", err)
	}

	pagination := common.NewPagination(totalItems, query.Page, query.PageSize)
	err := dbQuery.
		Order("scheduled_time DESC").
		Offset(query.Offset()).
		Limit(query.Limit()).
		Find(&appts).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appts, pagination, nil
}

// FindConfirmedEndedBefore returns confirmed appointments whose slot has
// already finished. Used by the completion job.
func (r *gormRepository) FindConfirmedEndedBefore(ctx context.Context, cutoff time.Time) ([]Appointment, error) {
	var appts []Appointment
	err := r.db.WithContext(ctx).
		Where("status = ?", StatusConfirmed).
		Where("(scheduled_time + duration_minutes * interval '1 minute') <= ?", cutoff).
		Find(&appts).Error
	return appts, err
}
