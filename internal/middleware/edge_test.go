package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/marketingreboot/reboot-api/internal/access"
	"github.com/marketingreboot/reboot-api/internal/auth"
	"github.com/marketingreboot/reboot-api/internal/logging"
	"github.com/marketingreboot/reboot-api/internal/metrics"
	"github.com/marketingreboot/reboot-api/internal/models"
	"github.com/marketingreboot/reboot-api/internal/roles"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessions struct {
	users   map[string]*models.Identity
	refresh map[string]*auth.Session
}

func (f *fakeSessions) GetUser(_ context.Context, token string) (*models.Identity, error) {
	if identity, ok := f.users[token]; ok {
		return identity, nil
	}
	return nil, auth.ErrInvalidToken
}

func (f *fakeSessions) Refresh(_ context.Context, token string) (*auth.Session, error) {
	if sess, ok := f.refresh[token]; ok {
		return sess, nil
	}
	return nil, auth.ErrInvalidToken
}

type fakeAccess struct {
	profiles map[uuid.UUID]*models.ProfileAccess
	err      error
}

func (f *fakeAccess) GetAccess(_ context.Context, id uuid.UUID) (*models.ProfileAccess, error) {
	if f.err != nil {
		return nil, f.err
	}
	if p, ok := f.profiles[id]; ok {
		return p, nil
	}
	return nil, errors.New("not found")
}

type edgeFixture struct {
	sessions *fakeSessions
	profiles *fakeAccess
	metrics  *metrics.Metrics
	cfg      EdgeConfig
}

func newEdgeFixture() *edgeFixture {
	f := &edgeFixture{
		sessions: &fakeSessions{users: map[string]*models.Identity{}, refresh: map[string]*auth.Session{}},
		profiles: &fakeAccess{profiles: map[uuid.UUID]*models.ProfileAccess{}},
		metrics:  metrics.New(prometheus.NewRegistry()),
	}
	f.cfg = EdgeConfig{
		Sessions: f.sessions,
		Profiles: f.profiles,
		Seeds:    roles.NewSeeds("ops@reboot.test"),
		Routes: access.Routes{
			Authenticated: []string{"/dashboard", "/saved"},
			Contributor:   []string{"/cms"},
			Exclude:       access.DefaultExclude,
		},
		LoginPath:  "/login",
		HomePath:   "/",
		RefreshTTL: 24 * time.Hour,
		Logger:     logging.Discard(),
		Metrics:    f.metrics,
	}
	return f
}

// signIn registers a user with an access token and optional profile.
func (f *edgeFixture) signIn(email string, profile *models.ProfileAccess) (*models.Identity, string) {
	identity := &models.Identity{ID: uuid.New(), Email: email}
	token := "access-" + identity.ID.String()
	f.sessions.users[token] = identity
	if profile != nil {
		profile.ID = identity.ID
		f.profiles.profiles[identity.ID] = profile
	}
	return identity, token
}

func (f *edgeFixture) app() (http.Handler, *roles.Facts) {
	var seen roles.Facts
	app := drift.New()
	app.Use(Edge(f.cfg))
	handler := func(c *drift.Context) {
		seen = GetFacts(c)
		okHandler(c)
	}
	for _, path := range []string{"/", "/dashboard", "/saved", "/cms", "/cms/posts", "/_next/static/app.js", "/logo.png"} {
		app.Get(path, handler)
	}
	return app, &seen
}

func serve(app http.Handler, path string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}

func withCookie(name, value string) func(*http.Request) {
	return func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: name, Value: value})
	}
}

func withBearer(token string) func(*http.Request) {
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	}
}

func TestEdge_StaticPathsSkipped(t *testing.T) {
	f := newEdgeFixture()
	app, _ := f.app()

	assert.Equal(t, http.StatusOK, serve(app, "/_next/static/app.js", nil).Code)
	assert.Equal(t, http.StatusOK, serve(app, "/logo.png", nil).Code)
}

func TestEdge_AnonymousPublicPath(t *testing.T) {
	f := newEdgeFixture()
	app, seen := f.app()

	rec := serve(app, "/", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, roles.Facts{}, *seen)
}

func TestEdge_AnonymousProtectedPathRedirectsToLogin(t *testing.T) {
	f := newEdgeFixture()
	app, _ := f.app()

	for _, path := range []string{"/dashboard", "/cms/posts"} {
		rec := serve(app, path, nil)

		assert.Equal(t, http.StatusFound, rec.Code, path)
		assert.Equal(t, "/login?redirect="+url.QueryEscape(path), rec.Header().Get("Location"))
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.AccessDecisions.WithLabelValues("edge", "authenticated", "login")))
}

func TestEdge_ReaderOnContributorPathRedirectsHome(t *testing.T) {
	f := newEdgeFixture()
	_, token := f.signIn("reader@reboot.test", &models.ProfileAccess{UserRole: models.RoleReader})
	app, _ := f.app()

	rec := serve(app, "/cms", withCookie(AccessTokenCookie, token))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	assert.Equal(t, http.StatusOK, serve(app, "/dashboard", withCookie(AccessTokenCookie, token)).Code)
}

func TestEdge_ContributorNeedsVerification(t *testing.T) {
	f := newEdgeFixture()
	_, unverified := f.signIn("new@reboot.test", &models.ProfileAccess{UserRole: models.RoleContributor})
	_, verified := f.signIn("writer@reboot.test", &models.ProfileAccess{UserRole: models.RoleContributor, IsVerified: true})
	app, seen := f.app()

	assert.Equal(t, http.StatusFound, serve(app, "/cms", withBearer(unverified)).Code)

	rec := serve(app, "/cms", withBearer(verified))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, seen.IsContributor)
	assert.False(t, seen.IsReader)
}

func TestEdge_UnverifiedAdminFollowsPolicy(t *testing.T) {
	f := newEdgeFixture()
	_, token := f.signIn("admin@reboot.test", &models.ProfileAccess{UserRole: models.RoleReader, IsAdmin: true})

	app, _ := f.app()
	assert.Equal(t, http.StatusFound, serve(app, "/cms", withBearer(token)).Code)

	f.cfg.Policy = access.Policy{AdminBypassesVerification: true}
	app, _ = f.app()
	assert.Equal(t, http.StatusOK, serve(app, "/cms", withBearer(token)).Code)
}

func TestEdge_SeedAdminWithoutProfile(t *testing.T) {
	f := newEdgeFixture()
	_, token := f.signIn("ops@reboot.test", nil)
	app, seen := f.app()

	rec := serve(app, "/cms", withBearer(token))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, seen.IsAdmin)
	assert.True(t, seen.IsContributor)
}

func TestEdge_ProfileLookupFailureIsRestrictive(t *testing.T) {
	f := newEdgeFixture()
	_, token := f.signIn("writer@reboot.test", &models.ProfileAccess{UserRole: models.RoleContributor, IsVerified: true})
	f.profiles.err = errors.New("timeout")
	app, _ := f.app()

	assert.Equal(t, http.StatusFound, serve(app, "/cms", withBearer(token)).Code)
	assert.Equal(t, http.StatusOK, serve(app, "/dashboard", withBearer(token)).Code)
}

func TestEdge_RefreshCookieRotatesSession(t *testing.T) {
	f := newEdgeFixture()
	identity, _ := f.signIn("reader@reboot.test", &models.ProfileAccess{UserRole: models.RoleReader})
	f.sessions.refresh["refresh-1"] = &auth.Session{
		AccessToken:  "access-2",
		RefreshToken: "refresh-2",
		ExpiresAt:    time.Now().Add(15 * time.Minute),
		Identity:     identity,
	}
	app, _ := f.app()

	rec := serve(app, "/dashboard", func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "expired"})
		r.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: "refresh-1"})
	})

	require.Equal(t, http.StatusOK, rec.Code)
	cookies := map[string]string{}
	for _, c := range rec.Result().Cookies() {
		cookies[c.Name] = c.Value
	}
	assert.Equal(t, "access-2", cookies[AccessTokenCookie])
	assert.Equal(t, "refresh-2", cookies[RefreshTokenCookie])
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SessionRefreshes.WithLabelValues("ok")))
}

func TestEdge_FailedRefreshIsSessionLoss(t *testing.T) {
	f := newEdgeFixture()
	app, _ := f.app()

	rec := serve(app, "/dashboard", withCookie(RefreshTokenCookie, "revoked"))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "/login")
	assert.Empty(t, rec.Result().Cookies())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SessionRefreshes.WithLabelValues("failed")))
}

func TestEdge_ParallelLoadsShareOneRefreshCookie(t *testing.T) {
	f := newEdgeFixture()
	identity, _ := f.signIn("reader@reboot.test", &models.ProfileAccess{UserRole: models.RoleReader})
	f.sessions.refresh["refresh-1"] = &auth.Session{
		AccessToken:  "access-2",
		RefreshToken: "refresh-2",
		ExpiresAt:    time.Now().Add(15 * time.Minute),
		Identity:     identity,
	}
	app, _ := f.app()
	cookies := func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "expired"})
		r.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: "refresh-1"})
	}

	winner := serve(app, "/dashboard", cookies)
	require.Equal(t, http.StatusOK, winner.Code)
	require.Len(t, winner.Result().Cookies(), 2)

	// The token is spent; a second load carrying it loses the race.
	delete(f.sessions.refresh, "refresh-1")
	loser := serve(app, "/dashboard", cookies)

	assert.Equal(t, http.StatusFound, loser.Code)
	assert.Empty(t, loser.Result().Cookies())
}

func TestRequire(t *testing.T) {
	f := newEdgeFixture()
	_, adminToken := f.signIn("admin@reboot.test", &models.ProfileAccess{UserRole: models.RoleContributor, IsAdmin: true, IsVerified: true})
	_, readerToken := f.signIn("reader@reboot.test", &models.ProfileAccess{UserRole: models.RoleReader})

	app := drift.New()
	app.Use(Auth(f.sessions))
	app.Use(Facts(f.profiles, f.cfg.Seeds, logging.Discard()))
	admin := app.Group("/admin")
	admin.Use(Require(access.Policy{}, access.Admin, f.metrics))
	admin.Get("/stats", okHandler)

	assert.Equal(t, http.StatusOK, serve(app, "/admin/stats", withBearer(adminToken)).Code)
	assert.Equal(t, http.StatusForbidden, serve(app, "/admin/stats", withBearer(readerToken)).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(app, "/admin/stats", nil).Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.AccessDecisions.WithLabelValues("api", "admin", "denied")))
}
