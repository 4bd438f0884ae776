package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"
	"github.com/marketingreboot/reboot-api/internal/auth"
	"github.com/marketingreboot/reboot-api/internal/logging"
	"github.com/marketingreboot/reboot-api/internal/middleware"
	"github.com/marketingreboot/reboot-api/internal/models"
	"github.com/marketingreboot/reboot-api/internal/roles"
	"github.com/marketingreboot/reboot-api/internal/services"
	"github.com/marketingreboot/reboot-api/internal/testutil"
	"github.com/marketingreboot/reboot-api/pkg/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupAuthTest(t *testing.T) (*testutil.MockAuthProvider, *AuthHandler) {
	t.Helper()
	provider := new(testutil.MockAuthProvider)
	return provider, NewAuthHandler(provider, 24*time.Hour, false, logging.Discard())
}

func testSession(identity *models.Identity) *auth.Session {
	return &auth.Session{
		AccessToken:  "access-token-123",
		RefreshToken: "refresh-token-456",
		ExpiresAt:    time.Now().Add(15 * time.Minute),
		Identity:     identity,
	}
}

func responseCookies(rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	cookies := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		cookies[c.Name] = c
	}
	return cookies
}

func TestAuthHandler_SignIn_Success(t *testing.T) {
	provider, handler := setupAuthTest(t)
	identity := &models.Identity{ID: uuid.New(), Email: "jane@reboot.test"}
	provider.On("SignIn", mock.Anything, "jane@reboot.test", "password123").Return(testSession(identity), nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Post("/auth/signin", handler.SignIn)

	client := testutil.NewHTTPTestClient(t, app)
	rec := client.POST("/auth/signin", dto.SignInRequest{Email: "jane@reboot.test", Password: "password123"}, nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var response dto.SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "access-token-123", response.AccessToken)
	assert.Equal(t, "refresh-token-456", response.RefreshToken)
	assert.Equal(t, identity.ID, response.Identity.ID)
	assert.Greater(t, response.ExpiresIn, int64(0))

	cookies := responseCookies(rec)
	require.Contains(t, cookies, middleware.AccessTokenCookie)
	assert.Equal(t, "access-token-123", cookies[middleware.AccessTokenCookie].Value)
	assert.True(t, cookies[middleware.AccessTokenCookie].HttpOnly)
	assert.Equal(t, "refresh-token-456", cookies[middleware.RefreshTokenCookie].Value)

	provider.AssertExpectations(t)
}

func TestAuthHandler_SignIn_InvalidCredentials(t *testing.T) {
	provider, handler := setupAuthTest(t)
	provider.On("SignIn", mock.Anything, "jane@reboot.test", "wrong").Return(nil, auth.ErrInvalidCredentials)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Post("/auth/signin", handler.SignIn)

	rec := testutil.NewHTTPTestClient(t, app).
		POST("/auth/signin", dto.SignInRequest{Email: "jane@reboot.test", Password: "wrong"}, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid email or password")
	assert.Empty(t, rec.Result().Cookies())
}

func TestAuthHandler_SignIn_MissingFields(t *testing.T) {
	_, handler := setupAuthTest(t)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Post("/auth/signin", handler.SignIn)

	rec := testutil.NewHTTPTestClient(t, app).POST("/auth/signin", dto.SignInRequest{Email: "jane@reboot.test"}, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandler_SignUp(t *testing.T) {
	provider, handler := setupAuthTest(t)
	identity := &models.Identity{ID: uuid.New(), Email: "jane@reboot.test"}
	provider.On("SignUp", mock.Anything, auth.SignUpParams{
		Email:    "jane@reboot.test",
		Password: "password123",
		Metadata: models.IdentityMetadata{FullName: "Jane Doe", Username: "jdoe"},
	}).Return(testSession(identity), nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Post("/auth/signup", handler.SignUp)

	rec := testutil.NewHTTPTestClient(t, app).POST("/auth/signup", dto.SignUpRequest{
		Email: "jane@reboot.test", Password: "password123", FullName: " Jane Doe ", Username: "jdoe",
	}, nil)

	assert.Equal(t, http.StatusCreated, rec.Code)
	provider.AssertExpectations(t)
}

func TestAuthHandler_SignUp_Errors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"email taken", auth.ErrEmailTaken, http.StatusBadRequest, "email already registered"},
		{"short password", services.ErrPasswordTooShort, http.StatusBadRequest, "at least 8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, handler := setupAuthTest(t)
			provider.On("SignUp", mock.Anything, mock.Anything).Return(nil, tt.err)

			app := drift.New()
			app.Use(driftmw.BodyParser())
			app.Post("/auth/signup", handler.SignUp)

			rec := testutil.NewHTTPTestClient(t, app).
				POST("/auth/signup", dto.SignUpRequest{Email: "jane@reboot.test", Password: "pw"}, nil)

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.message)
		})
	}
}

func TestAuthHandler_Refresh_FromCookie(t *testing.T) {
	provider, handler := setupAuthTest(t)
	identity := &models.Identity{ID: uuid.New(), Email: "jane@reboot.test"}
	provider.On("Refresh", mock.Anything, "old-refresh").Return(testSession(identity), nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Post("/auth/refresh", handler.Refresh)

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: middleware.RefreshTokenCookie, Value: "old-refresh"})
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "refresh-token-456", responseCookies(rec)[middleware.RefreshTokenCookie].Value)
	provider.AssertExpectations(t)
}

func TestAuthHandler_Refresh_Invalid(t *testing.T) {
	provider, handler := setupAuthTest(t)
	provider.On("Refresh", mock.Anything, "stale").Return(nil, auth.ErrInvalidToken)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Post("/auth/refresh", handler.Refresh)

	rec := testutil.NewHTTPTestClient(t, app).
		POST("/auth/refresh", dto.RefreshTokenRequest{RefreshToken: "stale"}, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, -1, responseCookies(rec)[middleware.RefreshTokenCookie].MaxAge)
}

func TestAuthHandler_Refresh_Missing(t *testing.T) {
	_, handler := setupAuthTest(t)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Post("/auth/refresh", handler.Refresh)

	rec := testutil.NewHTTPTestClient(t, app).POST("/auth/refresh", dto.RefreshTokenRequest{}, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandler_SignOut(t *testing.T) {
	provider, handler := setupAuthTest(t)
	provider.On("SignOut", mock.Anything, "refresh-token-456").Return(nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Post("/auth/signout", handler.SignOut)

	rec := testutil.NewHTTPTestClient(t, app).
		POST("/auth/signout", dto.RefreshTokenRequest{RefreshToken: "refresh-token-456"}, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, -1, responseCookies(rec)[middleware.AccessTokenCookie].MaxAge)
	provider.AssertExpectations(t)
}

func TestAuthHandler_SignOutAll(t *testing.T) {
	provider, handler := setupAuthTest(t)
	identity := &models.Identity{ID: uuid.New(), Email: "jane@reboot.test"}
	provider.On("SignOutAll", mock.Anything, identity.ID).Return(nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(testutil.JWTResolver{}))
	app.Post("/auth/signout-all", handler.SignOutAll)

	token := testutil.GenerateTestToken(t, identity)
	rec := testutil.NewHTTPTestClient(t, app).
		POST("/auth/signout-all", nil, map[string]string{"Authorization": testutil.AuthHeader(token)})

	assert.Equal(t, http.StatusOK, rec.Code)
	provider.AssertExpectations(t)
}

func TestAuthHandler_Session(t *testing.T) {
	_, handler := setupAuthTest(t)
	profiles := new(testutil.MockProfileService)
	identity := &models.Identity{ID: uuid.New(), Email: "writer@reboot.test"}
	profiles.On("GetAccess", mock.Anything, identity.ID).Return(&models.ProfileAccess{
		ID: identity.ID, UserRole: models.RoleContributor, IsVerified: true,
	}, nil)

	app := drift.New()
	app.Use(middleware.Auth(testutil.JWTResolver{}))
	app.Use(middleware.Facts(profiles, roles.NewSeeds(), logging.Discard()))
	app.Get("/auth/session", handler.Session)

	token := testutil.GenerateTestToken(t, identity)
	rec := testutil.NewHTTPTestClient(t, app).
		GET("/auth/session", map[string]string{"Authorization": testutil.AuthHeader(token)})

	require.Equal(t, http.StatusOK, rec.Code)

	var response dto.CurrentSessionResponse
	testutil.ParseJSON(t, rec, &response)
	assert.Equal(t, identity.ID, response.Identity.ID)
	assert.True(t, response.Facts.IsContributor)
	assert.True(t, response.Facts.IsVerified)
	assert.False(t, response.Facts.IsReader)
}
