package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/marketingreboot/reboot-api/internal/access"
	"github.com/marketingreboot/reboot-api/internal/auth"
	"github.com/marketingreboot/reboot-api/internal/guard"
	"github.com/marketingreboot/reboot-api/internal/models"
	"github.com/marketingreboot/reboot-api/internal/roles"
	"github.com/marketingreboot/reboot-api/internal/session"
)

const usage = `Usage: reboot-cli <command>

Commands:
  signup <email> <password> [full name]
  login <email> <password>
  logout
  whoami
  open <path>`

var errUsage = errors.New(usage)

type app struct {
	store     *session.Store
	tracker   *roles.Tracker
	policy    access.Policy
	routes    access.Routes
	loginPath string
	homePath  string
	out       io.Writer
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	switch args[0] {
	case "signup":
		if len(args) < 3 {
			return errUsage
		}
		identity, err := a.store.SignUp(ctx, auth.SignUpParams{
			Email:    args[1],
			Password: args[2],
			Metadata: models.IdentityMetadata{FullName: strings.Join(args[3:], " ")},
		})
		if err != nil {
			return fmt.Errorf("sign up failed: %w", err)
		}
		fmt.Fprintf(a.out, "Signed up as %s\n", identity.Email)
		return a.whoami(ctx)

	case "login":
		if len(args) != 3 {
			return errUsage
		}
		identity, err := a.store.SignIn(ctx, args[1], args[2])
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return errors.New("invalid email or password")
		}
		if err != nil {
			return fmt.Errorf("sign in failed: %w", err)
		}
		fmt.Fprintf(a.out, "Signed in as %s\n", identity.Email)
		return a.whoami(ctx)

	case "logout":
		if err := a.store.SignOut(ctx); err != nil {
			fmt.Fprintf(a.out, "Signed out locally (server: %v)\n", err)
			return nil
		}
		fmt.Fprintln(a.out, "Signed out")
		return nil

	case "whoami":
		return a.whoami(ctx)

	case "open":
		if len(args) != 2 {
			return errUsage
		}
		return a.open(ctx, args[1])

	default:
		return errUsage
	}
}

func (a *app) whoami(ctx context.Context) error {
	identity := a.store.GetCurrentIdentity(ctx)
	if identity == nil {
		fmt.Fprintln(a.out, "Not signed in")
		return nil
	}

	state := a.settle(ctx, identity)
	if state.Loading {
		return ctx.Err()
	}

	facts := state.Facts
	fmt.Fprintf(a.out, "%s (%s)\n", identity.Email, identity.ID)
	fmt.Fprintf(a.out, "  role:        %s\n", roleLabel(facts))
	fmt.Fprintf(a.out, "  admin:       %t\n", facts.IsAdmin)
	fmt.Fprintf(a.out, "  verified:    %t\n", facts.IsVerified)
	fmt.Fprintf(a.out, "  contributor: %t\n", facts.IsContributor)
	fmt.Fprintf(a.out, "  reader:      %t\n", facts.IsReader)
	return nil
}

// open reports what the guard decides for path. Anonymous callers are sent
// to the login page, everyone else home.
func (a *app) open(ctx context.Context, path string) error {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	identity := a.store.GetCurrentIdentity(ctx)
	fallback := a.homePath
	if identity == nil {
		fallback = a.loginPath + "?redirect=" + url.QueryEscape(path)
	}

	g := guard.New(a.policy, a.routes.Requirement(path), fallback)

	// Start the fetch first so Watch's initial evaluation never sees the
	// previous, already settled state.
	a.tracker.HandleIdentity(identity)

	decisions := make(chan guard.Decision, 8)
	stop := g.Watch(a.tracker, func(d guard.Decision) {
		select {
		case decisions <- d:
		default:
		}
	})
	defer stop()

	for {
		select {
		case d := <-decisions:
			switch d.Status {
			case guard.StatusAuthorized:
				fmt.Fprintf(a.out, "%s: authorized\n", path)
				return nil
			case guard.StatusRedirecting:
				fmt.Fprintf(a.out, "%s: redirect to %s\n", path, d.Location)
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// settle starts a fetch for identity and waits for the tracker to leave the
// loading state.
func (a *app) settle(ctx context.Context, identity *models.Identity) roles.State {
	states := make(chan roles.State, 8)
	stop := a.tracker.Subscribe(func(s roles.State) {
		select {
		case states <- s:
		default:
		}
	})
	defer stop()

	a.tracker.HandleIdentity(identity)

	for {
		select {
		case s := <-states:
			if !s.Loading {
				return s
			}
		case <-ctx.Done():
			return roles.State{Loading: true}
		}
	}
}

func roleLabel(f roles.Facts) string {
	switch {
	case f.IsAdmin:
		return "admin"
	case f.IsContributor:
		return "contributor"
	case f.IsReader:
		return "reader"
	default:
		return "unknown"
	}
}
