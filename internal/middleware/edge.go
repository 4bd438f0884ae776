package middleware

import (
	"context"
	"net/url"
	"time"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/marketingreboot/reboot-api/internal/access"
	"github.com/marketingreboot/reboot-api/internal/auth"
	"github.com/marketingreboot/reboot-api/internal/metrics"
	"github.com/marketingreboot/reboot-api/internal/models"
	"github.com/marketingreboot/reboot-api/internal/roles"
	"github.com/sirupsen/logrus"
)

// SessionRefresher is the part of auth.Provider the edge gate needs.
type SessionRefresher interface {
	IdentityResolver
	Refresh(ctx context.Context, refreshToken string) (*auth.Session, error)
}

type EdgeConfig struct {
	Sessions SessionRefresher
	Profiles AccessReader
	Seeds    roles.Seeds
	Policy   access.Policy
	Routes   access.Routes

	LoginPath string
	HomePath  string

	RefreshTTL   time.Duration
	CookieSecure bool
	Timeout      time.Duration

	Logger  logrus.FieldLogger
	Metrics *metrics.Metrics
}

// Edge gates every navigable path. It identifies the caller from the bearer
// header or session cookies, rotating an expired access cookie when a
// refresh cookie is present, and redirects instead of failing: anonymous
// callers on protected paths go to the login page, callers whose facts do
// not meet the path's requirement go home. It never writes profiles.
func Edge(cfg EdgeConfig) drift.HandlerFunc {
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}
	if cfg.HomePath == "" {
		cfg.HomePath = "/"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}

	return func(c *drift.Context) {
		path := c.Request.URL.Path
		if cfg.Routes.Skip(path) {
			c.Next()
			return
		}

		req := cfg.Routes.Requirement(path)

		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.Timeout)
		defer cancel()

		identity := cfg.identify(ctx, c)
		if identity == nil {
			if req.NeedsIdentity() {
				cfg.Metrics.Decision("edge", req.String(), "login")
				redirect(c, cfg.LoginPath+"?redirect="+url.QueryEscape(path))
				return
			}
			c.Set(FactsKey, roles.Facts{})
			c.Next()
			return
		}

		facts := resolveFacts(ctx, cfg.Profiles, identity, cfg.Seeds, cfg.Logger)
		if !cfg.Policy.Allows(req, identity, facts) {
			cfg.Metrics.Decision("edge", req.String(), "denied")
			cfg.Logger.WithFields(logrus.Fields{
				"path":        path,
				"profile_id":  identity.ID,
				"requirement": req.String(),
			}).Info("edge gate denied request")
			redirect(c, cfg.HomePath)
			return
		}

		if req != access.Anyone {
			cfg.Metrics.Decision("edge", req.String(), "allowed")
		}
		c.Set(IdentityKey, identity)
		c.Set(FactsKey, facts)
		c.Next()
	}
}

func (cfg EdgeConfig) identify(ctx context.Context, c *drift.Context) *models.Identity {
	token, ok := bearerToken(c.GetHeader("Authorization"))
	if !ok {
		token = cookieValue(c.Request, AccessTokenCookie)
	}
	if token != "" {
		if identity, err := cfg.Sessions.GetUser(ctx, token); err == nil && identity != nil {
			return identity
		}
	}

	refreshToken := cookieValue(c.Request, RefreshTokenCookie)
	if refreshToken == "" {
		return nil
	}

	// Refresh tokens are single use, so of several page loads racing on
	// one expired cookie only the first rotates. The others are served
	// anonymously and leave the cookies alone so they cannot overwrite the
	// pair the winner just set.
	sess, err := cfg.Sessions.Refresh(ctx, refreshToken)
	if err != nil || sess == nil || sess.Identity == nil {
		cfg.Metrics.SessionRefresh("failed")
		cfg.Logger.WithError(err).Debug("edge session refresh failed")
		return nil
	}

	cfg.Metrics.SessionRefresh("ok")
	SetSessionCookies(c.Response, sess, cfg.RefreshTTL, cfg.CookieSecure)
	return sess.Identity
}
