// Package session holds the client's view of the current sign-in.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/marketingreboot/reboot-api/internal/auth"
	"github.com/marketingreboot/reboot-api/internal/metrics"
	"github.com/marketingreboot/reboot-api/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const DefaultTimeout = 10 * time.Second

// Handler receives the identity after every session transition; nil means
// signed out.
type Handler func(identity *models.Identity)

type Options struct {
	Cache   TokenCache
	Timeout time.Duration
	Logger  logrus.FieldLogger
	Metrics *metrics.Metrics
}

type Store struct {
	provider auth.Provider
	cache    TokenCache
	timeout  time.Duration
	log      logrus.FieldLogger
	metrics  *metrics.Metrics

	// pubMu orders deliveries. Each one carries the identity current at the
	// moment it is sent, so the last handler call always matches the store.
	pubMu    sync.Mutex
	mu       sync.Mutex
	token    *oauth2.Token
	identity *models.Identity

	subMu    sync.Mutex
	handlers map[int]Handler
	nextID   int
}

// New builds a store and restores any cached session. A cache that cannot
// be read starts the store signed out.
func New(provider auth.Provider, opts Options) *Store {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		logger := logrus.New()
		logger.SetLevel(logrus.WarnLevel)
		opts.Logger = logger
	}

	s := &Store{
		provider: provider,
		cache:    opts.Cache,
		timeout:  opts.Timeout,
		log:      opts.Logger,
		metrics:  opts.Metrics,
		handlers: make(map[int]Handler),
	}

	if s.cache != nil {
		cached, err := s.cache.Load()
		switch {
		case errors.Is(err, ErrNoCachedSession):
		case err != nil:
			s.log.WithError(err).Warn("ignoring unreadable session cache")
		default:
			s.token = cached.Token
			s.identity = cached.Identity
		}
	}
	return s
}

// GetCurrentIdentity returns the signed-in identity, refreshing an expired
// access token first. Any refresh failure signs the store out and returns
// nil.
func (s *Store) GetCurrentIdentity(ctx context.Context) *models.Identity {
	s.mu.Lock()
	if s.token == nil || s.identity == nil {
		s.mu.Unlock()
		return nil
	}
	if s.token.Valid() {
		identity := s.identity
		s.mu.Unlock()
		return identity
	}

	identity, err := s.refreshLocked(ctx)
	s.mu.Unlock()

	if err != nil {
		s.log.WithError(err).Warn("session refresh failed, signing out")
		s.notify()
		return nil
	}
	s.notify()
	return identity
}

// AccessToken returns a valid access token for the current session, or ""
// when signed out.
func (s *Store) AccessToken(ctx context.Context) string {
	if s.GetCurrentIdentity(ctx) == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == nil {
		return ""
	}
	return s.token.AccessToken
}

// OnChange registers handler for session transitions. Handlers run after
// the transition completes, in no particular order between handlers.
// Deliveries are serialized, so a handler must not start a transition on
// the same goroutine.
func (s *Store) OnChange(handler Handler) func() {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.handlers[id] = handler
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.handlers, id)
		s.subMu.Unlock()
	}
}

func (s *Store) SignIn(ctx context.Context, email, password string) (*models.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	sess, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	s.adopt(sess)
	return sess.Identity, nil
}

func (s *Store) SignUp(ctx context.Context, params auth.SignUpParams) (*models.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	sess, err := s.provider.SignUp(ctx, params)
	if err != nil {
		return nil, err
	}
	s.adopt(sess)
	return sess.Identity, nil
}

// SignOut clears the local session even when the provider cannot be
// reached.
func (s *Store) SignOut(ctx context.Context) error {
	s.mu.Lock()
	var refreshToken string
	if s.token != nil {
		refreshToken = s.token.RefreshToken
	}
	s.clearLocked()
	s.mu.Unlock()

	s.notify()

	if refreshToken == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.provider.SignOut(ctx, refreshToken)
}

// Refresh forces a token rotation regardless of expiry.
func (s *Store) Refresh(ctx context.Context) (*models.Identity, error) {
	s.mu.Lock()
	if s.token == nil {
		s.mu.Unlock()
		return nil, auth.ErrInvalidToken
	}
	identity, err := s.refreshLocked(ctx)
	s.mu.Unlock()

	s.notify()
	return identity, err
}

func (s *Store) refreshLocked(ctx context.Context) (*models.Identity, error) {
	refreshToken := s.token.RefreshToken
	if refreshToken == "" {
		s.clearLocked()
		s.metrics.SessionRefresh("failed")
		return nil, auth.ErrInvalidToken
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	sess, err := s.provider.Refresh(ctx, refreshToken)
	if err != nil {
		s.clearLocked()
		s.metrics.SessionRefresh("failed")
		return nil, err
	}

	s.setLocked(sess)
	s.metrics.SessionRefresh("ok")
	return sess.Identity, nil
}

func (s *Store) adopt(sess *auth.Session) {
	s.mu.Lock()
	s.setLocked(sess)
	s.mu.Unlock()

	s.notify()
}

func (s *Store) setLocked(sess *auth.Session) {
	s.token = &oauth2.Token{
		AccessToken:  sess.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: sess.RefreshToken,
		Expiry:       sess.ExpiresAt,
	}
	s.identity = sess.Identity

	if s.cache != nil {
		if err := s.cache.Save(&Cached{Token: s.token, Identity: s.identity}); err != nil {
			s.log.WithError(err).Warn("failed to persist session")
		}
	}
}

func (s *Store) clearLocked() {
	s.token = nil
	s.identity = nil

	if s.cache != nil {
		if err := s.cache.Clear(); err != nil {
			s.log.WithError(err).Warn("failed to clear session cache")
		}
	}
}

// notify delivers the store's current identity to every handler.
func (s *Store) notify() {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	s.mu.Lock()
	identity := s.identity
	s.mu.Unlock()

	s.subMu.Lock()
	handlers := make([]Handler, 0, len(s.handlers))
	for _, h := range s.handlers {
		handlers = append(handlers, h)
	}
	s.subMu.Unlock()

	for _, h := range handlers {
		h(identity)
	}
}
