// Package access holds the single authorization predicate shared by the
// client route guard, the edge middleware and the API middleware.
package access

import (
	"regexp"
	"strings"

	"github.com/marketingreboot/reboot-api/internal/models"
	"github.com/marketingreboot/reboot-api/internal/roles"
)

type Requirement int

const (
	Anyone Requirement = iota
	Authenticated
	Contributor
	// Author is what the CMS needs: a contributor who is also verified.
	Author
	Admin
)

func (r Requirement) String() string {
	switch r {
	case Anyone:
		return "anyone"
	case Authenticated:
		return "authenticated"
	case Contributor:
		return "contributor"
	case Author:
		return "author"
	case Admin:
		return "admin"
	default:
		return "unknown"
	}
}

// NeedsIdentity reports whether r can only be met by a signed-in identity.
func (r Requirement) NeedsIdentity() bool {
	return r != Anyone
}

// Policy carries the product decisions the predicate depends on.
type Policy struct {
	// AdminBypassesVerification lets unverified admins author.
	AdminBypassesVerification bool
}

// Allows reports whether an identity with the given facts meets r.
func (p Policy) Allows(r Requirement, identity *models.Identity, facts roles.Facts) bool {
	if r == Anyone {
		return true
	}
	if identity == nil {
		return false
	}

	switch r {
	case Authenticated:
		return true
	case Contributor:
		return facts.IsContributor
	case Author:
		if !facts.IsContributor {
			return false
		}
		return facts.IsVerified || (p.AdminBypassesVerification && facts.IsAdmin)
	case Admin:
		return facts.IsAdmin
	default:
		return false
	}
}

// DefaultExclude matches static assets and images that never pass the gate.
var DefaultExclude = regexp.MustCompile(`^/(_next/static|_next/image|static|assets)(/|$)|^/favicon\.ico$|\.(svg|png|jpg|jpeg|gif|webp|ico)$`)

// Routes maps request paths to requirements.
type Routes struct {
	Authenticated []string
	Contributor   []string
	Exclude       *regexp.Regexp
}

// Skip reports whether path bypasses the gate entirely.
func (rt Routes) Skip(path string) bool {
	return rt.Exclude != nil && rt.Exclude.MatchString(path)
}

// Requirement returns the strictest requirement configured for path.
// Contributor-only paths require Author.
func (rt Routes) Requirement(path string) Requirement {
	for _, prefix := range rt.Contributor {
		if matchPrefix(path, prefix) {
			return Author
		}
	}
	for _, prefix := range rt.Authenticated {
		if matchPrefix(path, prefix) {
			return Authenticated
		}
	}
	return Anyone
}

// matchPrefix matches whole path segments, so /cms matches /cms and
// /cms/posts but not /cmsx.
func matchPrefix(path, prefix string) bool {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return true
	}
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}
