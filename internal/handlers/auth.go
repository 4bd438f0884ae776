package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/marketingreboot/reboot-api/internal/auth"
	"github.com/marketingreboot/reboot-api/internal/middleware"
	"github.com/marketingreboot/reboot-api/internal/models"
	"github.com/marketingreboot/reboot-api/internal/services"
	"github.com/marketingreboot/reboot-api/pkg/dto"
	"github.com/sirupsen/logrus"
)

type AuthHandler struct {
	provider     AuthProviderInterface
	refreshTTL   time.Duration
	cookieSecure bool
	log          logrus.FieldLogger
}

func NewAuthHandler(provider AuthProviderInterface, refreshTTL time.Duration, cookieSecure bool, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{
		provider:     provider,
		refreshTTL:   refreshTTL,
		cookieSecure: cookieSecure,
		log:          log,
	}
}

func (h *AuthHandler) SignUp(c *drift.Context) {
	var req dto.SignUpRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		c.BadRequest("email and password are required")
		return
	}

	sess, err := h.provider.SignUp(c.Request.Context(), auth.SignUpParams{
		Email:    req.Email,
		Password: req.Password,
		Metadata: models.IdentityMetadata{
			FullName: strings.TrimSpace(req.FullName),
			Username: strings.TrimSpace(req.Username),
		},
	})
	switch {
	case errors.Is(err, auth.ErrEmailTaken):
		c.BadRequest("email already registered")
		return
	case errors.Is(err, services.ErrPasswordTooShort):
		c.BadRequest("password must be at least 8 characters")
		return
	case err != nil:
		h.log.WithError(err).Error("sign up failed")
		c.InternalServerError("failed to sign up")
		return
	}

	h.log.WithField("profile_id", sess.Identity.ID).Info("identity registered")
	h.respondSession(c, 201, sess)
}

func (h *AuthHandler) SignIn(c *drift.Context) {
	var req dto.SignInRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		c.BadRequest("email and password are required")
		return
	}

	sess, err := h.provider.SignIn(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		c.Unauthorized("invalid email or password")
		return
	}
	if err != nil {
		h.log.WithError(err).Error("sign in failed")
		c.InternalServerError("failed to sign in")
		return
	}

	h.respondSession(c, 200, sess)
}

// Refresh accepts the refresh token in the body or the refresh cookie.
func (h *AuthHandler) Refresh(c *drift.Context) {
	var req dto.RefreshTokenRequest
	_ = c.BindJSON(&req)

	token := req.RefreshToken
	if token == "" {
		if cookie, err := c.Request.Cookie(middleware.RefreshTokenCookie); err == nil {
			token = cookie.Value
		}
	}
	if token == "" {
		c.BadRequest("refresh_token is required")
		return
	}

	sess, err := h.provider.Refresh(c.Request.Context(), token)
	if errors.Is(err, auth.ErrInvalidToken) {
		middleware.ClearSessionCookies(c.Response, h.cookieSecure)
		c.Unauthorized("invalid refresh token")
		return
	}
	if err != nil {
		h.log.WithError(err).Error("refresh failed")
		c.InternalServerError("failed to refresh session")
		return
	}

	h.respondSession(c, 200, sess)
}

func (h *AuthHandler) SignOut(c *drift.Context) {
	var req dto.RefreshTokenRequest
	_ = c.BindJSON(&req)

	token := req.RefreshToken
	if token == "" {
		if cookie, err := c.Request.Cookie(middleware.RefreshTokenCookie); err == nil {
			token = cookie.Value
		}
	}

	if err := h.provider.SignOut(c.Request.Context(), token); err != nil {
		h.log.WithError(err).Warn("failed to revoke refresh token")
	}
	middleware.ClearSessionCookies(c.Response, h.cookieSecure)

	_ = c.JSON(200, map[string]string{"message": "signed out"})
}

func (h *AuthHandler) SignOutAll(c *drift.Context) {
	identity := middleware.GetIdentity(c)
	if identity == nil {
		c.Unauthorized("not authenticated")
		return
	}

	if err := h.provider.SignOutAll(c.Request.Context(), identity.ID); err != nil {
		c.InternalServerError("failed to revoke tokens")
		return
	}
	middleware.ClearSessionCookies(c.Response, h.cookieSecure)

	_ = c.JSON(200, map[string]string{"message": "all sessions signed out"})
}

// Session reports the identity and facts resolved for the caller.
func (h *AuthHandler) Session(c *drift.Context) {
	_ = c.JSON(200, dto.CurrentSessionResponse{
		Identity: middleware.GetIdentity(c),
		Facts:    middleware.GetFacts(c),
	})
}

func (h *AuthHandler) respondSession(c *drift.Context, status int, sess *auth.Session) {
	middleware.SetSessionCookies(c.Response, sess, h.refreshTTL, h.cookieSecure)

	expiresIn := int64(time.Until(sess.ExpiresAt).Seconds())
	if expiresIn < 0 {
		expiresIn = 0
	}
	_ = c.JSON(status, dto.SessionResponse{
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
		ExpiresAt:    sess.ExpiresAt,
		ExpiresIn:    expiresIn,
		Identity:     sess.Identity,
	})
}
