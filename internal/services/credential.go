package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/marketingreboot/reboot-api/internal/database"
	"github.com/marketingreboot/reboot-api/internal/models"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrPasswordTooShort   = errors.New("password too short")
)

// CredentialService owns the auth_users relation: email/password identities.
type CredentialService struct {
	db *database.DB
}

func NewCredentialService(db *database.DB) *CredentialService {
	return &CredentialService{db: db}
}

func HashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func VerifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *CredentialService) Register(ctx context.Context, email, password string, meta models.IdentityMetadata) (*models.Identity, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	var (
		identity models.Identity
		username *string
	)
	err = s.db.Pool.QueryRow(ctx, `
		INSERT INTO auth_users (email, password_hash, full_name, username)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO NOTHING
		RETURNING id, email, full_name, username
	`, NormalizeEmail(email), hash, meta.FullName, nullableString(meta.Username)).Scan(
		&identity.ID, &identity.Email, &identity.Metadata.FullName, &username,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create identity: %w", err)
	}
	if username != nil {
		identity.Metadata.Username = *username
	}

	return &identity, nil
}

// Authenticate returns ErrInvalidCredentials for both unknown emails and
// wrong passwords.
func (s *CredentialService) Authenticate(ctx context.Context, email, password string) (*models.Identity, error) {
	var (
		identity     models.Identity
		username     *string
		passwordHash string
	)
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, email, full_name, username, password_hash
		FROM auth_users WHERE email = $1
	`, NormalizeEmail(email)).Scan(
		&identity.ID, &identity.Email, &identity.Metadata.FullName, &username, &passwordHash,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load identity: %w", err)
	}

	if err := VerifyPassword(passwordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if username != nil {
		identity.Metadata.Username = *username
	}

	return &identity, nil
}

func (s *CredentialService) GetByID(ctx context.Context, id uuid.UUID) (*models.Identity, error) {
	var (
		identity models.Identity
		username *string
	)
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, email, full_name, username
		FROM auth_users WHERE id = $1
	`, id).Scan(&identity.ID, &identity.Email, &identity.Metadata.FullName, &username)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if username != nil {
		identity.Metadata.Username = *username
	}
	return &identity, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
