// Package guard gates client-side views on the tracked role facts.
package guard

import (
	"github.com/marketingreboot/reboot-api/internal/access"
	"github.com/marketingreboot/reboot-api/internal/roles"
)

type Status int

const (
	// StatusLoading renders a neutral placeholder: neither the protected
	// content nor a redirect.
	StatusLoading Status = iota
	StatusAuthorized
	StatusRedirecting
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusAuthorized:
		return "authorized"
	case StatusRedirecting:
		return "redirecting"
	default:
		return "unknown"
	}
}

type Decision struct {
	Status   Status
	Location string
}

type Guard struct {
	policy      access.Policy
	requirement access.Requirement
	fallback    string
}

// New returns a guard for views that need req. Denied views redirect to
// fallback, the home route when empty.
func New(policy access.Policy, req access.Requirement, fallback string) *Guard {
	if fallback == "" {
		fallback = "/"
	}
	return &Guard{policy: policy, requirement: req, fallback: fallback}
}

func (g *Guard) Evaluate(state roles.State) Decision {
	if state.Loading {
		return Decision{Status: StatusLoading}
	}
	if !g.policy.Allows(g.requirement, state.Identity, state.Facts) {
		return Decision{Status: StatusRedirecting, Location: g.fallback}
	}
	return Decision{Status: StatusAuthorized}
}

// Watch evaluates the tracker's current state and every later one, calling
// fn with each decision. The returned func stops watching.
func (g *Guard) Watch(t *roles.Tracker, fn func(Decision)) func() {
	stop := t.Subscribe(func(s roles.State) {
		fn(g.Evaluate(s))
	})
	fn(g.Evaluate(t.State()))
	return stop
}
