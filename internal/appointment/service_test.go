// File: internal/appointment/service_test.go
package appointment

import (
	"context"
	"testing"
	"time"

	"kanoonwise_backend/internal/common"
	"kanoonwise_backend/internal/config"
	"kanoonwise_backend/internal/lawyer"
	"kanoonwise_backend/internal/shared"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockRepository is a mock type for appointment.Repository.
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateIfSlotFree(ctx context.Context, appt *Appointment) error {
	args := m.Called(ctx, appt)
	return args.Error(0)
}

func (m *MockRepository) FindByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Appointment), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, appt *Appointment) error {
	args := m.Called(ctx, appt)
	return args.Error(0)
}

func (m *MockRepository) ListByClient(ctx context.Context, clientID uuid.UUID, query ListQuery) ([]Appointment, *common.Pagination, error) {
	args := m.Called(ctx, clientID, query)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]Appointment), args.Get(1).(*common.Pagination), args.Error(2)
}

func (m *MockRepository) ListByLawyer(ctx context.Context, lawyerID uuid.UUID, query ListQuery) ([]Appointment, *common.Pagination, error) {
	args := m.Called(ctx, lawyerID, query)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]Appointment), args.Get(1).(*common.Pagination), args.Error(2)
}

func (m *MockRepository) FindConfirmedEndedBefore(ctx context.Context, cutoff time.Time) ([]Appointment, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Appointment), args.Error(1)
}

// MockUserService is a mock type for shared.Service.
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetUserByID(ctx context.Context, id uuid.UUID) (*shared.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.User), args.Error(1)
}

func (m *MockUserService) GetUserByEmail(ctx context.Context, email string) (*shared.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.User), args.Error(1)
}

func (m *MockUserService) GetOrCreateUserByEmail(ctx context.Context, email, role string) (*shared.User, bool, error) {
	args := m.Called(ctx, email, role)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*shared.User), args.Bool(1), args.Error(2)
}

// MockLawyerRepository is a mock type for lawyer.Repository.
type MockLawyerRepository struct {
	mock.Mock
}

func (m *MockLawyerRepository) Create(ctx context.Context, profile *lawyer.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockLawyerRepository) Update(ctx context.Context, profile *lawyer.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockLawyerRepository) FindByID(ctx context.Context, id uuid.UUID) (*lawyer.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lawyer.Profile), args.Error(1)
}

func (m *MockLawyerRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]lawyer.Profile, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]lawyer.Profile), args.Error(1)
}

func (m *MockLawyerRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*lawyer.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lawyer.Profile), args.Error(1)
}

func (m *MockLawyerRepository) FindBySlug(ctx context.Context, slugValue string) (*lawyer.Profile, error) {
	args := m.Called(ctx, slugValue)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lawyer.Profile), args.Error(1)
}

func (m *MockLawyerRepository) Search(ctx context.Context, query lawyer.SearchQuery) ([]lawyer.Profile, *common.Pagination, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]lawyer.Profile), args.Get(1).(*common.Pagination), args.Error(2)
}

func (m *MockLawyerRepository) SlugExists(ctx context.Context, slugValue string, excludeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, slugValue, excludeID)
	return args.Bool(0), args.Error(1)
}

func testConfig() *config.Config {
	return &config.Config{DefaultAppointmentMinutes: 30}
}

func TestCreate_BooksPendingAppointment(t *testing.T) {
	clientID := uuid.New()
	lawyerID := uuid.New()

	repo := new(MockRepository)
	userSvc := new(MockUserService)
	lawyerRepo := new(MockLawyerRepository)

	userSvc.On("GetUserByID", mock.Anything, lawyerID).Return(
		&shared.User{ID: lawyerID, Email: "lawyer@example.com", Role: common.RoleLawyer}, nil)
	lawyerRepo.On("FindByUserID", mock.Anything, lawyerID).Return(&lawyer.Profile{
		UserID:       lawyerID,
		FeeStructure: lawyer.FeeStructure{Consultation: 1500},
	}, nil)
	repo.On("CreateIfSlotFree", mock.Anything, mock.AnythingOfType("*appointment.Appointment")).Return(nil)

	svc := NewService(repo, userSvc, lawyerRepo, testConfig(), zap.NewNop())

	appt, err := svc.Create(context.Background(), clientID, CreateAppointmentRequest{
		LawyerUserID:     lawyerID,
		ScheduledTime:    time.Now().Add(24 * time.Hour),
		ConsultationType: lawyer.ConsultationOnline,
		CaseDescription:  "Property dispute",
	})
	require.NoError(t, err)

	assert.Equal(t, StatusPending, appt.Status)
	assert.Equal(t, clientID, appt.ClientUserID)
	assert.Equal(t, lawyerID, appt.LawyerUserID)
	assert.Equal(t, 30, appt.DurationMinutes)
	require.NotNil(t, appt.Fee)
	assert.Equal(t, float64(1500), *appt.Fee)
}

func TestCreate_RejectsNonLawyerTarget(t *testing.T) {
	clientID := uuid.New()
	otherClientID := uuid.New()

	repo := new(MockRepository)
	userSvc := new(MockUserService)
	userSvc.On("GetUserByID", mock.Anything, otherClientID).Return(
		&shared.User{ID: otherClientID, Email: "other@example.com", Role: common.RoleClient}, nil)

	svc := NewService(repo, userSvc, new(MockLawyerRepository), testConfig(), zap.NewNop())

	_, err := svc.Create(context.Background(), clientID, CreateAppointmentRequest{
		LawyerUserID:     otherClientID,
		ScheduledTime:    time.Now().Add(time.Hour),
		ConsultationType: lawyer.ConsultationOnline,
	})
	require.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
	repo.AssertNotCalled(t, "CreateIfSlotFree", mock.Anything, mock.Anything)
}

func TestCreate_RejectsPastSlot(t *testing.T) {
	clientID := uuid.New()
	lawyerID := uuid.New()

	userSvc := new(MockUserService)
	userSvc.On("GetUserByID", mock.Anything, lawyerID).Return(
		&shared.User{ID: lawyerID, Email: "lawyer@example.com", Role: common.RoleLawyer}, nil)

	svc := NewService(new(MockRepository), userSvc, new(MockLawyerRepository), testConfig(), zap.NewNop())

	_, err := svc.Create(context.Background(), clientID, CreateAppointmentRequest{
		LawyerUserID:     lawyerID,
		ScheduledTime:    time.Now().Add(-time.Hour),
		ConsultationType: lawyer.ConsultationOffline,
	})
	require.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
}

func TestCreate_PropagatesSlotConflict(t *testing.T) {
	clientID := uuid.New()
	lawyerID := uuid.New()

	repo := new(MockRepository)
	userSvc := new(MockUserService)
	lawyerRepo := new(MockLawyerRepository)

	userSvc.On("GetUserByID", mock.Anything, lawyerID).Return(
		&shared.User{ID: lawyerID, Email: "lawyer@example.com", Role: common.RoleLawyer}, nil)
	lawyerRepo.On("FindByUserID", mock.Anything, lawyerID).Return(nil, common.ErrNotFound)
	repo.On("CreateIfSlotFree", mock.Anything, mock.Anything).Return(
		common.ErrConflict.WithDetails("The lawyer already has a booking for this time slot."))

	svc := NewService(repo, userSvc, lawyerRepo, testConfig(), zap.NewNop())

	_, err := svc.Create(context.Background(), clientID, CreateAppointmentRequest{
		LawyerUserID:     lawyerID,
		ScheduledTime:    time.Now().Add(time.Hour),
		ConsultationType: lawyer.ConsultationOnline,
	})
	require.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrConflict.Code, apiErr.Code)
}

func TestCancel_OwnerOnly(t *testing.T) {
	clientID := uuid.New()
	lawyerID := uuid.New()
	stranger := uuid.New()
	apptID := uuid.New()

	repo := new(MockRepository)
	repo.On("FindByID", mock.Anything, apptID).Return(&Appointment{
		BaseModel:    common.BaseModel{ID: apptID},
		ClientUserID: clientID,
		LawyerUserID: lawyerID,
		Status:       StatusPending,
	}, nil)

	svc := NewService(repo, new(MockUserService), new(MockLawyerRepository), testConfig(), zap.NewNop())

	_, err := svc.Cancel(context.Background(), apptID, stranger)
	require.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrForbidden.Code, apiErr.Code)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestCancel_FromPendingAndConfirmed(t *testing.T) {
	for _, from := range []Status{StatusPending, StatusConfirmed} {
		clientID := uuid.New()
		apptID := uuid.New()

		repo := new(MockRepository)
		repo.On("FindByID", mock.Anything, apptID).Return(&Appointment{
			BaseModel:    common.BaseModel{ID: apptID},
			ClientUserID: clientID,
			LawyerUserID: uuid.New(),
			Status:       from,
		}, nil)
		repo.On("Update", mock.Anything, mock.AnythingOfType("*appointment.Appointment")).Return(nil)

		svc := NewService(repo, new(MockUserService), new(MockLawyerRepository), testConfig(), zap.NewNop())

		appt, err := svc.Cancel(context.Background(), apptID, clientID)
		require.NoErrorf(t, err, "cancel from %s", from)
		assert.Equal(t, StatusCancelled, appt.Status)
	}
}

func TestCancel_TerminalStateIsInvalidTransition(t *testing.T) {
	for _, from := range []Status{StatusCancelled, StatusCompleted} {
		clientID := uuid.New()
		apptID := uuid.New()

		repo := new(MockRepository)
		repo.On("FindByID", mock.Anything, apptID).Return(&Appointment{
			BaseModel:    common.BaseModel{ID: apptID},
			ClientUserID: clientID,
			LawyerUserID: uuid.New(),
			Status:       from,
		}, nil)

		svc := NewService(repo, new(MockUserService), new(MockLawyerRepository), testConfig(), zap.NewNop())

		_, err := svc.Cancel(context.Background(), apptID, clientID)
		require.Errorf(t, err, "cancel from %s", from)
		apiErr, ok := common.IsAPIError(err)
		require.True(t, ok)
		assert.Equal(t, common.ErrInvalidTransition.Code, apiErr.Code)
	}
}

func TestConfirm_LawyerSide(t *testing.T) {
	lawyerID := uuid.New()
	apptID := uuid.New()

	repo := new(MockRepository)
	repo.On("FindByID", mock.Anything, apptID).Return(&Appointment{
		BaseModel:    common.BaseModel{ID: apptID},
		ClientUserID: uuid.New(),
		LawyerUserID: lawyerID,
		Status:       StatusPending,
	}, nil)
	repo.On("Update", mock.Anything, mock.AnythingOfType("*appointment.Appointment")).Return(nil)

	svc := NewService(repo, new(MockUserService), new(MockLawyerRepository), testConfig(), zap.NewNop())

	appt, err := svc.Confirm(context.Background(), apptID, lawyerID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, appt.Status)

	// The booking client cannot confirm.
	_, err = svc.Confirm(context.Background(), apptID, uuid.New())
	require.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrForbidden.Code, apiErr.Code)
}

func TestComplete_RecordsNotesAndRequiresConfirmed(t *testing.T) {
	lawyerID := uuid.New()
	apptID := uuid.New()
	notes := "Settled out of court."

	repo := new(MockRepository)
	repo.On("FindByID", mock.Anything, apptID).Return(&Appointment{
		BaseModel:    common.BaseModel{ID: apptID},
		ClientUserID: uuid.New(),
		LawyerUserID: lawyerID,
		Status:       StatusConfirmed,
	}, nil)
	repo.On("Update", mock.Anything, mock.AnythingOfType("*appointment.Appointment")).Return(nil)

	svc := NewService(repo, new(MockUserService), new(MockLawyerRepository), testConfig(), zap.NewNop())

	appt, err := svc.Complete(context.Background(), apptID, lawyerID, &notes)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, appt.Status)
	require.NotNil(t, appt.Notes)
	assert.Equal(t, notes, *appt.Notes)
}

func TestComplete_PendingIsInvalidTransition(t *testing.T) {
	lawyerID := uuid.New()
	apptID := uuid.New()

	repo := new(MockRepository)
	repo.On("FindByID", mock.Anything, apptID).Return(&Appointment{
		BaseModel:    common.BaseModel{ID: apptID},
		ClientUserID: uuid.New(),
		LawyerUserID: lawyerID,
		Status:       StatusPending,
	}, nil)

	svc := NewService(repo, new(MockUserService), new(MockLawyerRepository), testConfig(), zap.NewNop())

	_, err := svc.Complete(context.Background(), apptID, lawyerID, nil)
	require.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrInvalidTransition.Code, apiErr.Code)
}

func TestCompleteElapsed(t *testing.T) {
	repo := new(MockRepository)
	elapsed := []Appointment{
		{BaseModel: common.BaseModel{ID: uuid.New()}, Status: StatusConfirmed},
		{BaseModel: common.BaseModel{ID: uuid.New()}, Status: StatusConfirmed},
	}
	repo.On("FindConfirmedEndedBefore", mock.Anything, mock.AnythingOfType("time.Time")).Return(elapsed, nil)
	repo.On("Update", mock.Anything, mock.AnythingOfType("*appointment.Appointment")).Return(nil)

	svc := NewService(repo, new(MockUserService), new(MockLawyerRepository), testConfig(), zap.NewNop())

	count, err := svc.CompleteElapsed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	repo.AssertNumberOfCalls(t, "Update", 2)
}
