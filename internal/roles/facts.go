// Package roles derives the role facts that gate views and routes from an
// identity and its profile.
package roles

import (
	"strings"

	"github.com/marketingreboot/reboot-api/internal/models"
)

// Facts is the derived, never persisted view of what an identity may do.
// IsContributor and IsReader are not complements: admins are contributors
// and never readers.
type Facts struct {
	Role          models.UserRole `json:"role,omitempty"`
	IsAdmin       bool            `json:"is_admin"`
	IsVerified    bool            `json:"is_verified"`
	IsContributor bool            `json:"is_contributor"`
	IsReader      bool            `json:"is_reader"`
}

// Seeds is the allow-list of operator emails that receive full access even
// when their profile cannot be read.
type Seeds struct {
	emails map[string]struct{}
}

// NewSeeds normalizes entries the way stored identities are normalized, so
// a mixed-case operator address still matches.
func NewSeeds(emails ...string) Seeds {
	s := Seeds{emails: make(map[string]struct{}, len(emails))}
	for _, e := range emails {
		if e = normalizeEmail(e); e != "" {
			s.emails[e] = struct{}{}
		}
	}
	return s
}

// Contains reports whether email is on the allow-list, ignoring case and
// surrounding space.
func (s Seeds) Contains(email string) bool {
	email = normalizeEmail(email)
	if email == "" {
		return false
	}
	_, ok := s.emails[email]
	return ok
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func seedFacts() Facts {
	return Facts{
		Role:          models.RoleContributor,
		IsAdmin:       true,
		IsVerified:    true,
		IsContributor: true,
		IsReader:      false,
	}
}

// Resolve computes facts for identity and profile. A nil identity, a nil
// profile, or a profile belonging to someone else all yield the zero Facts,
// except that a seeded email with no readable profile gets full access.
func Resolve(identity *models.Identity, profile *models.ProfileAccess, seeds Seeds) Facts {
	if identity == nil {
		return Facts{}
	}

	seeded := seeds.Contains(identity.Email)

	if profile == nil || profile.ID != identity.ID {
		if seeded {
			return seedFacts()
		}
		return Facts{}
	}

	return Facts{
		Role:          profile.UserRole,
		IsAdmin:       profile.IsAdmin,
		IsVerified:    profile.IsVerified,
		IsContributor: profile.UserRole == models.RoleContributor || profile.IsAdmin || seeded,
		IsReader:      profile.UserRole == models.RoleReader && !profile.IsAdmin,
	}
}
