package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/marketingreboot/reboot-api/internal/models"
	"github.com/marketingreboot/reboot-api/internal/services"
)

type CredentialStore interface {
	Register(ctx context.Context, email, password string, meta models.IdentityMetadata) (*models.Identity, error)
	Authenticate(ctx context.Context, email, password string) (*models.Identity, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Identity, error)
}

type TokenIssuer interface {
	GenerateTokenPair(identity *models.Identity) (*services.TokenPair, error)
	ValidateAccessToken(token string) (*services.Claims, error)
	ValidateRefreshToken(token string) (uuid.UUID, error)
	RefreshExpiry() time.Duration
}

type RefreshStore interface {
	StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	ConsumeRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error
}

// LocalProvider issues HS256 access tokens for bcrypt-checked credentials
// and keeps refresh tokens in redis. Refresh tokens rotate on every use and
// are redeemable exactly once, even under concurrent refreshes.
type LocalProvider struct {
	credentials CredentialStore
	issuer      TokenIssuer
	refresh     RefreshStore
}

func NewLocalProvider(credentials CredentialStore, issuer TokenIssuer, refresh RefreshStore) *LocalProvider {
	return &LocalProvider{credentials: credentials, issuer: issuer, refresh: refresh}
}

func (p *LocalProvider) SignUp(ctx context.Context, params SignUpParams) (*Session, error) {
	identity, err := p.credentials.Register(ctx, params.Email, params.Password, params.Metadata)
	if err != nil {
		return nil, err
	}
	return p.issue(ctx, identity)
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	identity, err := p.credentials.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return p.issue(ctx, identity)
}

func (p *LocalProvider) SignOut(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return p.refresh.RevokeRefreshToken(ctx, services.HashToken(refreshToken))
}

// SignOutAll revokes every refresh token issued to userID.
func (p *LocalProvider) SignOutAll(ctx context.Context, userID uuid.UUID) error {
	return p.refresh.RevokeAllUserTokens(ctx, userID)
}

func (p *LocalProvider) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	userID, err := p.issuer.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	storedUserID, err := p.refresh.ConsumeRefreshToken(ctx, services.HashToken(refreshToken))
	if errors.Is(err, services.ErrTokenNotFound) || (err == nil && storedUserID != userID) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to consume refresh token: %w", err)
	}

	identity, err := p.credentials.GetByID(ctx, userID)
	if errors.Is(err, services.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}

	return p.issue(ctx, identity)
}

func (p *LocalProvider) GetUser(_ context.Context, accessToken string) (*models.Identity, error) {
	claims, err := p.issuer.ValidateAccessToken(accessToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return claims.Identity(), nil
}

func (p *LocalProvider) issue(ctx context.Context, identity *models.Identity) (*Session, error) {
	pair, err := p.issuer.GenerateTokenPair(identity)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	expiresAt := time.Now().Add(p.issuer.RefreshExpiry())
	if err := p.refresh.StoreRefreshToken(ctx, identity.ID, services.HashToken(pair.RefreshToken), expiresAt); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &Session{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
		Identity:     identity,
	}, nil
}
