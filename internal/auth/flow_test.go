// File: internal/auth/flow_test.go
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"kanoonwise_backend/internal/common"
	"kanoonwise_backend/internal/lawyer"
	"kanoonwise_backend/internal/middleware"
	"kanoonwise_backend/internal/shared"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memoryLawyerService backs the lawyer routes with a map so the session flow
// tests exercise the real auth and CSRF middleware end to end.
type memoryLawyerService struct {
	profiles map[uuid.UUID]*lawyer.Profile
}

func (m *memoryLawyerService) GetMyProfile(ctx context.Context, userID uuid.UUID) (*lawyer.Profile, error) {
	p, ok := m.profiles[userID]
	if !ok {
		return nil, common.ErrNotFound.WithDetails("Lawyer profile not found.")
	}
	return p, nil
}

func (m *memoryLawyerService) UpdateMyProfile(ctx context.Context, userID uuid.UUID, req lawyer.UpdateProfileRequest, uploads lawyer.Uploads) (*lawyer.Profile, error) {
	p, ok := m.profiles[userID]
	if !ok {
		p = &lawyer.Profile{UserID: userID}
		p.ID = uuid.New()
		m.profiles[userID] = p
	}
	p.FullName = req.FullName
	p.BarRegistrationNumber = req.BarRegistrationNumber
	if req.YearsExperience != nil {
		p.YearsExperience = *req.YearsExperience
	}
	return p, nil
}

func (m *memoryLawyerService) GetFiles(ctx context.Context, userID uuid.UUID) (lawyer.FilesResponse, error) {
	return lawyer.FilesResponse{}, nil
}

func (m *memoryLawyerService) GetFileURL(ctx context.Context, userID uuid.UUID, key string) (string, error) {
	return "", common.ErrNotFound
}

func (m *memoryLawyerService) SearchLawyers(ctx context.Context, query lawyer.SearchQuery) ([]lawyer.Profile, *common.Pagination, error) {
	return nil, common.NewPagination(0, 1, 10), nil
}

func (m *memoryLawyerService) GetPublicProfile(ctx context.Context, idOrSlug string) (*lawyer.Profile, error) {
	return nil, common.ErrNotFound
}

func (m *memoryLawyerService) FileURL(key string) string { return "" }

// setupSessionFlow assembles the auth and lawyer routes behind the real
// session and CSRF middleware, with in-memory state underneath.
func setupSessionFlow(t *testing.T) (*gin.Engine, *recordingMailer) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testConfig()
	store := newFakeStore()
	mailer := &recordingMailer{}
	logger := zap.NewNop()
	blocklist := NewInMemoryBlocklistService(InMemoryBlocklistConfig{
		DefaultExpiration: time.Hour,
		CleanupInterval:   time.Hour,
	})
	tokens := NewJWTService(cfg, blocklist, logger)

	usr := &shared.User{ID: uuid.New(), Email: "flow.lawyer@example.com", Role: common.RoleLawyer}
	userSvc := new(MockUserService)
	userSvc.On("GetOrCreateUserByEmail", mock.Anything, usr.Email, common.RoleLawyer).Return(usr, true, nil)

	svc := NewService(cfg, userSvc, tokens, store, blocklist, mailer, logger)
	authHandler := NewHandler(svc, userSvc, logger)
	lawyerHandler := lawyer.NewHandler(&memoryLawyerService{profiles: map[uuid.UUID]*lawyer.Profile{}}, logger, cfg)

	router := gin.New()
	v1 := router.Group("/api/v1")
	authMW := middleware.AuthMiddleware(tokens, logger)
	authHandler.RegisterRoutes(v1, authMW)
	lawyerHandler.RegisterRoutes(v1, authMW,
		middleware.RoleAuthMiddleware(common.RoleLawyer),
		middleware.CSRFMiddleware(svc, logger))

	return router, mailer
}

func doJSON(router *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func establishSessionOverHTTP(t *testing.T, router *gin.Engine, mailer *recordingMailer) SessionResponse {
	t.Helper()

	rec := doJSON(router, http.MethodPost, "/api/v1/auth/request-otp",
		`{"email":"flow.lawyer@example.com","role":"lawyer"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotEmpty(t, mailer.sentCode)

	rec = doJSON(router, http.MethodPost, "/api/v1/auth/verify-otp",
		fmt.Sprintf(`{"email":"flow.lawyer@example.com","code":%q}`, mailer.sentCode), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data struct {
			Session SessionResponse `json:"session"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.Session.Token)
	return resp.Data.Session
}

func TestSessionFlow_VerifyCSRFUpdateGet(t *testing.T) {
	router, mailer := setupSessionFlow(t)
	session := establishSessionOverHTTP(t, router, mailer)
	bearer := map[string]string{"Authorization": "Bearer " + session.Token}

	// Rotate the CSRF token over the API rather than using the one from
	// verification; both must be accepted forms of issuance.
	rec := doJSON(router, http.MethodGet, "/api/v1/auth/csrf-token", "", bearer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	csrf := rec.Header().Get(common.CSRFTokenHeader)
	require.NotEmpty(t, csrf)

	mutating := map[string]string{
		"Authorization":        "Bearer " + session.Token,
		common.CSRFTokenHeader: csrf,
	}
	rec = doJSON(router, http.MethodPut, "/api/v1/lawyer/profile",
		`{"full_name":"Adv. Flow","bar_registration_number":"KA/5/2018","years_experience":7}`, mutating)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(router, http.MethodGet, "/api/v1/lawyer/profile", "", bearer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data lawyer.ProfileResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 7, resp.Data.YearsExperience)
	assert.Equal(t, "Adv. Flow", resp.Data.FullName)
}

func TestSessionFlow_MutationWithoutCSRFTokenIsRejected(t *testing.T) {
	router, mailer := setupSessionFlow(t)
	session := establishSessionOverHTTP(t, router, mailer)

	body := `{"full_name":"Adv. Flow","bar_registration_number":"KA/5/2018"}`

	rec := doJSON(router, http.MethodPut, "/api/v1/lawyer/profile", body,
		map[string]string{"Authorization": "Bearer " + session.Token})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "CSRF_ERROR")

	rec = doJSON(router, http.MethodPut, "/api/v1/lawyer/profile", body, map[string]string{
		"Authorization":        "Bearer " + session.Token,
		common.CSRFTokenHeader: "not-the-issued-token",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "CSRF_ERROR")
}

func TestSessionFlow_CSRFExemptsSafeMethods(t *testing.T) {
	router, mailer := setupSessionFlow(t)
	session := establishSessionOverHTTP(t, router, mailer)

	// Reads pass without a CSRF token; this one is 404 because no profile
	// exists yet, not 403.
	rec := doJSON(router, http.MethodGet, "/api/v1/lawyer/profile", "",
		map[string]string{"Authorization": "Bearer " + session.Token})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionFlow_NoSessionIsUnauthorized(t *testing.T) {
	router, _ := setupSessionFlow(t)

	rec := doJSON(router, http.MethodPut, "/api/v1/lawyer/profile",
		`{"full_name":"Adv. Nobody","bar_registration_number":"KA/0/2020"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
}
