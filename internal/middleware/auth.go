package middleware

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/marketingreboot/reboot-api/internal/models"
	"github.com/marketingreboot/reboot-api/internal/roles"
)

const (
	IdentityKey = "identity"
	FactsKey    = "facts"
)

// IdentityResolver turns an access token into the identity it was issued
// for.
type IdentityResolver interface {
	GetUser(ctx context.Context, accessToken string) (*models.Identity, error)
}

// Auth requires a bearer access token.
func Auth(resolver IdentityResolver) drift.HandlerFunc {
	return func(c *drift.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Unauthorized("missing authorization header")
			return
		}

		token, ok := bearerToken(authHeader)
		if !ok {
			c.Unauthorized("invalid authorization header format")
			return
		}

		identity, err := resolver.GetUser(c.Request.Context(), token)
		if err != nil || identity == nil {
			c.Unauthorized("invalid or expired token")
			return
		}

		c.Set(IdentityKey, identity)

		c.Next()
	}
}

// OptionalAuth attaches the identity when a valid bearer token is present
// and lets anonymous requests through.
func OptionalAuth(resolver IdentityResolver) drift.HandlerFunc {
	return func(c *drift.Context) {
		if token, ok := bearerToken(c.GetHeader("Authorization")); ok {
			if identity, err := resolver.GetUser(c.Request.Context(), token); err == nil && identity != nil {
				c.Set(IdentityKey, identity)
			}
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func GetIdentity(c *drift.Context) *models.Identity {
	if v, ok := c.Get(IdentityKey); ok {
		if identity, ok := v.(*models.Identity); ok {
			return identity
		}
	}
	return nil
}

func GetUserID(c *drift.Context) uuid.UUID {
	if identity := GetIdentity(c); identity != nil {
		return identity.ID
	}
	return uuid.Nil
}

// GetFacts returns the role facts computed for this request. Requests that
// never passed a facts middleware get the zero set.
func GetFacts(c *drift.Context) roles.Facts {
	if v, ok := c.Get(FactsKey); ok {
		if facts, ok := v.(roles.Facts); ok {
			return facts
		}
	}
	return roles.Facts{}
}
