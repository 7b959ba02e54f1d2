// File: internal/auth/service_test.go
package auth

import (
	"context"
	"testing"
	"time"

	"kanoonwise_backend/internal/common"
	"kanoonwise_backend/internal/config"
	"kanoonwise_backend/internal/shared"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeStore is an in-memory Store for tests.
type fakeStore struct {
	otps  map[string]PendingOTP
	csrfs map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		otps:  make(map[string]PendingOTP),
		csrfs: make(map[string]string),
	}
}

func (f *fakeStore) SaveOTP(ctx context.Context, email string, otp PendingOTP, ttl time.Duration) error {
	f.otps[email] = otp
	return nil
}

func (f *fakeStore) GetOTP(ctx context.Context, email string) (*PendingOTP, error) {
	otp, ok := f.otps[email]
	if !ok {
		return nil, nil
	}
	return &otp, nil
}

func (f *fakeStore) ConsumeOTP(ctx context.Context, email string) (*PendingOTP, error) {
	otp, ok := f.otps[email]
	if !ok {
		return nil, nil
	}
	delete(f.otps, email)
	return &otp, nil
}

func (f *fakeStore) SaveCSRFToken(ctx context.Context, sessionID, token string, ttl time.Duration) error {
	f.csrfs[sessionID] = token
	return nil
}

func (f *fakeStore) GetCSRFToken(ctx context.Context, sessionID string) (string, error) {
	return f.csrfs[sessionID], nil
}

func (f *fakeStore) DeleteCSRFToken(ctx context.Context, sessionID string) error {
	delete(f.csrfs, sessionID)
	return nil
}

// recordingMailer captures the codes sent.
type recordingMailer struct {
	sentTo   []string
	sentCode string
}

func (m *recordingMailer) SendOTP(to, code string) error {
	m.sentTo = append(m.sentTo, to)
	m.sentCode = code
	return nil
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

func testConfig() *config.Config {
	return &config.Config{
		JWTSecretKey:       "test-secret-key",
		SessionTokenExpiry: time.Hour,
		OTPExpiry:          5 * time.Minute,
		OTPLength:          6,
	}
}

func newTestService(t *testing.T, cfg *config.Config, store Store, userService shared.Service) (*Service, shared.TokenService) {
	t.Helper()
	logger := zap.NewNop()
	blocklist := NewInMemoryBlocklistService(InMemoryBlocklistConfig{
		DefaultExpiration: time.Hour,
		CleanupInterval:   time.Hour,
	})
	tokens := NewJWTService(cfg, blocklist, logger)
	svc := NewService(cfg, userService, tokens, store, blocklist, &recordingMailer{}, logger)
	return svc, tokens
}

func TestRequestOTP_StoresAndDeliversCode(t *testing.T) {
	cfg := testConfig()
	store := newFakeStore()
	mailer := &recordingMailer{}
	logger := zap.NewNop()
	blocklist := NewInMemoryBlocklistService(InMemoryBlocklistConfig{DefaultExpiration: time.Hour, CleanupInterval: time.Hour})
	tokens := NewJWTService(cfg, blocklist, logger)
	svc := NewService(cfg, new(MockUserService), tokens, store, blocklist, mailer, logger)

	err := svc.RequestOTP(context.Background(), "Client@Example.com", common.RoleClient)
	require.NoError(t, err)

	pending, ok := store.otps["client@example.com"]
	require.True(t, ok, "OTP should be stored under the lowercased email")
	assert.Len(t, pending.Code, cfg.OTPLength)
	assert.Equal(t, common.RoleClient, pending.Role)
	assert.Equal(t, []string{"client@example.com"}, mailer.sentTo)
	assert.Equal(t, pending.Code, mailer.sentCode)
}

func TestRequestOTP_RejectsUnknownRole(t *testing.T) {
	svc, _ := newTestService(t, testConfig(), newFakeStore(), new(MockUserService))

	err := svc.RequestOTP(context.Background(), "someone@example.com", "admin")
	require.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrBadRequest.Code, apiErr.Code)
}

func TestVerifyOTP_SuccessConsumesCode(t *testing.T) {
	store := newFakeStore()
	store.otps["lawyer@example.com"] = PendingOTP{Code: "123456", Role: common.RoleLawyer}

	userSvc := new(MockUserService)
	usr := &shared.User{ID: uuid.New(), Email: "lawyer@example.com", Role: common.RoleLawyer}
	userSvc.On("GetOrCreateUserByEmail", mock.Anything, "lawyer@example.com", common.RoleLawyer).Return(usr, true, nil)

	svc, _ := newTestService(t, testConfig(), store, userSvc)

	gotUser, session, err := svc.VerifyOTP(context.Background(), "lawyer@example.com", "123456")
	require.NoError(t, err)
	assert.Equal(t, usr.ID, gotUser.ID)
	assert.NotEmpty(t, session.Token)
	assert.NotEmpty(t, session.CSRFToken)
	assert.Equal(t, "Bearer", session.TokenType)

	// The code is single-use: a second verification fails as expired.
	_, _, err = svc.VerifyOTP(context.Background(), "lawyer@example.com", "123456")
	require.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrOTPExpired.Code, apiErr.Code)
	userSvc.AssertNumberOfCalls(t, "GetOrCreateUserByEmail", 1)
}

func TestVerifyOTP_MismatchKeepsCodePending(t *testing.T) {
	store := newFakeStore()
	store.otps["client@example.com"] = PendingOTP{Code: "123456", Role: common.RoleClient}

	userSvc := new(MockUserService)
	svc, _ := newTestService(t, testConfig(), store, userSvc)

	_, _, err := svc.VerifyOTP(context.Background(), "client@example.com", "654321")
	require.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrInvalidOTP.Code, apiErr.Code)

	// A wrong guess must not consume the pending code.
	_, stillPending := store.otps["client@example.com"]
	assert.True(t, stillPending)
	userSvc.AssertNotCalled(t, "GetOrCreateUserByEmail", mock.Anything, mock.Anything, mock.Anything)
}

// consumedElsewhereStore reports a pending code but has nothing left to
// remove, the state a verification sees when a concurrent request wins the
// consumption.
type consumedElsewhereStore struct {
	*fakeStore
}

func (s *consumedElsewhereStore) ConsumeOTP(ctx context.Context, email string) (*PendingOTP, error) {
	return nil, nil
}

func TestVerifyOTP_LosingConcurrentVerificationIsExpired(t *testing.T) {
	inner := newFakeStore()
	inner.otps["lawyer@example.com"] = PendingOTP{Code: "123456", Role: common.RoleLawyer}

	userSvc := new(MockUserService)
	svc, _ := newTestService(t, testConfig(), &consumedElsewhereStore{inner}, userSvc)

	_, _, err := svc.VerifyOTP(context.Background(), "lawyer@example.com", "123456")
	require.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrOTPExpired.Code, apiErr.Code)
	userSvc.AssertNotCalled(t, "GetOrCreateUserByEmail", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifyOTP_NoPendingCodeIsExpired(t *testing.T) {
	svc, _ := newTestService(t, testConfig(), newFakeStore(), new(MockUserService))

	_, _, err := svc.VerifyOTP(context.Background(), "nobody@example.com", "123456")
	require.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrOTPExpired.Code, apiErr.Code)
}

func TestVerifyOTP_StaticCodeBypassesStoredCode(t *testing.T) {
	cfg := testConfig()
	cfg.OTPStaticCode = "000000"
	store := newFakeStore()
	store.otps["test.lawyer@example.com"] = PendingOTP{Code: "987654", Role: common.RoleLawyer}

	userSvc := new(MockUserService)
	usr := &shared.User{ID: uuid.New(), Email: "test.lawyer@example.com", Role: common.RoleLawyer}
	userSvc.On("GetOrCreateUserByEmail", mock.Anything, "test.lawyer@example.com", common.RoleLawyer).Return(usr, false, nil)

	svc, _ := newTestService(t, cfg, store, userSvc)

	_, session, err := svc.VerifyOTP(context.Background(), "test.lawyer@example.com", "000000")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
}

func TestValidateCSRF(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(t, testConfig(), store, new(MockUserService))

	token, err := svc.IssueCSRFToken(context.Background(), "session-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	assert.NoError(t, svc.ValidateCSRF(context.Background(), "session-1", token))

	err = svc.ValidateCSRF(context.Background(), "session-1", "wrong-token")
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrCSRF.Code, apiErr.Code)

	err = svc.ValidateCSRF(context.Background(), "other-session", token)
	apiErr, ok = common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrCSRF.Code, apiErr.Code)
}

func TestLogout_BlocklistsSession(t *testing.T) {
	store := newFakeStore()
	store.otps["lawyer@example.com"] = PendingOTP{Code: "123456", Role: common.RoleLawyer}

	userSvc := new(MockUserService)
	usr := &shared.User{ID: uuid.New(), Email: "lawyer@example.com", Role: common.RoleLawyer}
	userSvc.On("GetOrCreateUserByEmail", mock.Anything, "lawyer@example.com", common.RoleLawyer).Return(usr, false, nil)

	svc, tokens := newTestService(t, testConfig(), store, userSvc)

	_, session, err := svc.VerifyOTP(context.Background(), "lawyer@example.com", "123456")
	require.NoError(t, err)

	claims, err := tokens.ValidateToken(context.Background(), session.Token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), claims))

	// The blocklisted token no longer validates.
	_, err = tokens.ValidateToken(context.Background(), session.Token)
	assert.Error(t, err)

	// The CSRF token bound to the session is gone too.
	_, ok := store.csrfs[claims.ID]
	assert.False(t, ok)
}
