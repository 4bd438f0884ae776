package handlers

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"
	"github.com/marketingreboot/reboot-api/internal/access"
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

type adminFixture struct {
	profiles *testutil.MockProfileService
	posts    *testutil.MockPostService
	notifier *recordingNotifier
	identity *models.Identity
	headers  map[string]string
	client   *testutil.HTTPTestClient
}

// setupAdminTest mounts the back-office behind the same chain the server
// uses. access is what GetAccess reports for the caller.
func setupAdminTest(t *testing.T, callerAccess *models.ProfileAccess, seeds roles.Seeds) *adminFixture {
	t.Helper()

	f := &adminFixture{
		profiles: new(testutil.MockProfileService),
		posts:    new(testutil.MockPostService),
		notifier: &recordingNotifier{},
		identity: testutil.NewIdentity(testutil.WithEmail("ops@reboot.test")),
	}
	if callerAccess != nil {
		callerAccess.ID = f.identity.ID
		f.profiles.On("GetAccess", mock.Anything, f.identity.ID).Return(callerAccess, nil)
	} else {
		f.profiles.On("GetAccess", mock.Anything, f.identity.ID).Return(nil, services.ErrNotFound)
	}

	handler := NewAdminHandler(f.profiles, f.posts, f.notifier, logging.Discard())

	app := drift.New()
	app.Use(driftmw.BodyParser())

	admin := app.Group("/admin")
	admin.Use(middleware.Auth(testutil.JWTResolver{}))
	admin.Use(middleware.Facts(f.profiles, seeds, logging.Discard()))
	admin.Use(middleware.Require(access.Policy{}, access.Admin, nil))
	admin.Get("/profiles", handler.ListProfiles)
	admin.Get("/stats", handler.Stats)
	admin.Patch("/profiles/:id/role", handler.SetRole)
	admin.Patch("/profiles/:id/admin", handler.SetAdmin)
	admin.Patch("/profiles/:id/verification", handler.SetVerification)

	f.headers = map[string]string{"Authorization": testutil.AuthHeader(testutil.GenerateTestToken(t, f.identity))}
	f.client = testutil.NewHTTPTestClient(t, app)
	return f
}

type accessChange struct {
	profileID uuid.UUID
	field     string
	changedBy uuid.UUID
}

type recordingNotifier struct {
	changes []accessChange
}

func (n *recordingNotifier) NotifyAccessChanged(profile *models.Profile, field string, changedBy uuid.UUID) {
	n.changes = append(n.changes, accessChange{profileID: profile.ID, field: field, changedBy: changedBy})
}

func adminAccess() *models.ProfileAccess {
	return &models.ProfileAccess{UserRole: models.RoleReader, IsAdmin: true, IsVerified: true}
}

func TestAdminHandler_RejectsNonAdmin(t *testing.T) {
	f := setupAdminTest(t, &models.ProfileAccess{UserRole: models.RoleContributor, IsVerified: true}, roles.NewSeeds())

	rec := f.client.GET("/admin/stats", f.headers)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	f.profiles.AssertNotCalled(t, "Stats", mock.Anything)
}

func TestAdminHandler_RejectsAnonymous(t *testing.T) {
	f := setupAdminTest(t, adminAccess(), roles.NewSeeds())

	rec := f.client.GET("/admin/stats", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// A seeded operator reaches the back-office even before a profile row exists.
func TestAdminHandler_SeedAdminWithoutProfile(t *testing.T) {
	f := setupAdminTest(t, nil, roles.NewSeeds("ops@reboot.test"))
	f.profiles.On("Stats", mock.Anything).Return(&services.ProfileStats{Total: 3}, nil)
	f.posts.On("Count", mock.Anything).Return(7, nil)

	rec := f.client.GET("/admin/stats", f.headers)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminHandler_Stats(t *testing.T) {
	f := setupAdminTest(t, adminAccess(), roles.NewSeeds())
	f.profiles.On("Stats", mock.Anything).Return(&services.ProfileStats{
		Total: 10, Contributors: 3, Readers: 7, Admins: 1, Verified: 4,
	}, nil)
	f.posts.On("Count", mock.Anything).Return(21, nil)

	rec := f.client.GET("/admin/stats", f.headers)

	require.Equal(t, http.StatusOK, rec.Code)

	var response dto.StatsResponse
	testutil.ParseJSON(t, rec, &response)
	assert.Equal(t, dto.StatsResponse{
		Profiles: 10, Contributors: 3, Readers: 7, Admins: 1, Verified: 4, Posts: 21,
	}, response)
}

func TestAdminHandler_ListProfiles_Pagination(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		limit  int
		offset int
	}{
		{"defaults", "", 50, 0},
		{"explicit", "?limit=10&offset=20", 10, 20},
		{"capped", "?limit=1000", 200, 0},
		{"garbage", "?limit=abc&offset=-4", 50, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupAdminTest(t, adminAccess(), roles.NewSeeds())
			f.profiles.On("List", mock.Anything, tt.limit, tt.offset).Return(nil, nil)

			rec := f.client.GET("/admin/profiles"+tt.query, f.headers)

			require.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, "[]", rec.Body.String())
			f.profiles.AssertExpectations(t)
		})
	}
}

func TestAdminHandler_SetRole(t *testing.T) {
	f := setupAdminTest(t, adminAccess(), roles.NewSeeds())
	target := uuid.New()
	f.profiles.On("SetRole", mock.Anything, target, models.RoleContributor).
		Return(testutil.NewProfile(target, "writer@reboot.test", models.RoleContributor, false, false), nil)

	rec := f.client.PATCH("/admin/profiles/"+target.String()+"/role", dto.SetRoleRequest{Role: "contributor"}, f.headers)

	require.Equal(t, http.StatusOK, rec.Code)

	var response models.Profile
	testutil.ParseJSON(t, rec, &response)
	assert.Equal(t, models.RoleContributor, response.UserRole)

	require.Len(t, f.notifier.changes, 1)
	assert.Equal(t, accessChange{profileID: target, field: "user_role", changedBy: f.identity.ID}, f.notifier.changes[0])
}

func TestAdminHandler_SetRole_Invalid(t *testing.T) {
	f := setupAdminTest(t, adminAccess(), roles.NewSeeds())

	rec := f.client.PATCH("/admin/profiles/"+uuid.NewString()+"/role", dto.SetRoleRequest{Role: "owner"}, f.headers)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	f.profiles.AssertNotCalled(t, "SetRole", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, f.notifier.changes)
}

func TestAdminHandler_SetVerification(t *testing.T) {
	f := setupAdminTest(t, adminAccess(), roles.NewSeeds())
	target := uuid.New()
	verified := true
	f.profiles.On("SetVerified", mock.Anything, target, true).
		Return(testutil.NewProfile(target, "writer@reboot.test", models.RoleContributor, false, true), nil)

	rec := f.client.PATCH("/admin/profiles/"+target.String()+"/verification", dto.SetFlagRequest{Value: &verified}, f.headers)

	require.Equal(t, http.StatusOK, rec.Code)
	f.profiles.AssertExpectations(t)
}

func TestAdminHandler_SetAdmin_MissingValue(t *testing.T) {
	f := setupAdminTest(t, adminAccess(), roles.NewSeeds())

	rec := f.client.PATCH("/admin/profiles/"+uuid.NewString()+"/admin", dto.SetFlagRequest{}, f.headers)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminHandler_SetAdmin_NotFound(t *testing.T) {
	f := setupAdminTest(t, adminAccess(), roles.NewSeeds())
	target := uuid.New()
	value := false
	f.profiles.On("SetAdmin", mock.Anything, target, false).Return(nil, services.ErrNotFound)

	rec := f.client.PATCH("/admin/profiles/"+target.String()+"/admin", dto.SetFlagRequest{Value: &value}, f.headers)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, f.notifier.changes)
}
