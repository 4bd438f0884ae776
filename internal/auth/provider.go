// Package auth is the identity provider boundary. The server runs
// LocalProvider; the CLI talks to the same contract over HTTP.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/marketingreboot/reboot-api/internal/models"
	"github.com/marketingreboot/reboot-api/internal/services"
)

var (
	ErrInvalidCredentials = services.ErrInvalidCredentials
	ErrEmailTaken         = services.ErrEmailTaken
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Session is an authenticated session as issued by a Provider.
type Session struct {
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token"`
	ExpiresAt    time.Time        `json:"expires_at"`
	Identity     *models.Identity `json:"identity"`
}

type SignUpParams struct {
	Email    string
	Password string
	Metadata models.IdentityMetadata
}

type Provider interface {
	SignUp(ctx context.Context, params SignUpParams) (*Session, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, refreshToken string) error
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	GetUser(ctx context.Context, accessToken string) (*models.Identity, error)
}
