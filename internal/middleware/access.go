package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/marketingreboot/reboot-api/internal/access"
	"github.com/marketingreboot/reboot-api/internal/metrics"
	"github.com/marketingreboot/reboot-api/internal/models"
	"github.com/marketingreboot/reboot-api/internal/roles"
	"github.com/sirupsen/logrus"
)

// AccessReader loads the access projection of a profile without creating
// one.
type AccessReader interface {
	GetAccess(ctx context.Context, id uuid.UUID) (*models.ProfileAccess, error)
}

// Facts resolves role facts for the authenticated identity. A failed
// profile lookup yields restrictive facts, never an error response.
func Facts(profiles AccessReader, seeds roles.Seeds, log logrus.FieldLogger) drift.HandlerFunc {
	return func(c *drift.Context) {
		identity := GetIdentity(c)
		if identity == nil {
			c.Set(FactsKey, roles.Facts{})
			c.Next()
			return
		}

		c.Set(FactsKey, resolveFacts(c.Request.Context(), profiles, identity, seeds, log))
		c.Next()
	}
}

// Require rejects requests whose facts do not satisfy req with 401 or 403.
func Require(policy access.Policy, req access.Requirement, m *metrics.Metrics) drift.HandlerFunc {
	return func(c *drift.Context) {
		identity := GetIdentity(c)
		if req.NeedsIdentity() && identity == nil {
			m.Decision("api", req.String(), "unauthenticated")
			c.Unauthorized("not authenticated")
			return
		}

		if !policy.Allows(req, identity, GetFacts(c)) {
			m.Decision("api", req.String(), "denied")
			c.Forbidden("insufficient permissions")
			return
		}

		m.Decision("api", req.String(), "allowed")
		c.Next()
	}
}

func resolveFacts(ctx context.Context, profiles AccessReader, identity *models.Identity, seeds roles.Seeds, log logrus.FieldLogger) roles.Facts {
	profile, err := profiles.GetAccess(ctx, identity.ID)
	if err != nil {
		log.WithError(err).WithField("profile_id", identity.ID).Debug("profile access lookup failed")
		profile = nil
	}
	return roles.Resolve(identity, profile, seeds)
}

func redirect(c *drift.Context, location string) {
	http.Redirect(c.Response, c.Request, location, http.StatusFound)
	c.Abort()
}
