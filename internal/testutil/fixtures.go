package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/marketingreboot/reboot-api/internal/database"
	"github.com/marketingreboot/reboot-api/internal/models"
	"github.com/marketingreboot/reboot-api/internal/services"
)

// Fixtures provides factory methods for creating test data
type Fixtures struct {
	db      *database.DB
	counter int
}

func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{db: db}
}

// CreateIdentity registers a credential row. No profile is created.
func (f *Fixtures) CreateIdentity(t *testing.T, opts ...IdentityOption) *models.Identity {
	t.Helper()
	f.counter++

	identity := &models.Identity{
		Email:    fmt.Sprintf("user%d@reboot.test", f.counter),
		Metadata: models.IdentityMetadata{FullName: fmt.Sprintf("Test User %d", f.counter)},
	}
	for _, opt := range opts {
		opt(identity)
	}

	hash, err := services.HashPassword("password123")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	err = f.db.Pool.QueryRow(context.Background(), `
		INSERT INTO auth_users (email, password_hash, full_name)
		VALUES ($1, $2, $3)
		RETURNING id
	`, identity.Email, hash, identity.Metadata.FullName).Scan(&identity.ID)
	if err != nil {
		t.Fatalf("failed to create identity: %v", err)
	}

	return identity
}

// IdentityOption configures a test identity
type IdentityOption func(*models.Identity)

func WithEmail(email string) IdentityOption {
	return func(i *models.Identity) {
		i.Email = email
	}
}

func WithFullName(name string) IdentityOption {
	return func(i *models.Identity) {
		i.Metadata.FullName = name
	}
}

// CreateProfile inserts a profile for identity with explicit access flags.
func (f *Fixtures) CreateProfile(t *testing.T, identity *models.Identity, role models.UserRole, isAdmin, isVerified bool) {
	t.Helper()

	_, err := f.db.Pool.Exec(context.Background(), `
		INSERT INTO profiles (id, email, full_name, user_role, is_admin, is_verified)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, identity.ID, identity.Email, identity.Metadata.FullName, string(role), isAdmin, isVerified)
	if err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}
}

// NewIdentity builds an in-memory identity for handler and middleware tests.
func NewIdentity(opts ...IdentityOption) *models.Identity {
	identity := &models.Identity{
		ID:       uuid.New(),
		Email:    "user@reboot.test",
		Metadata: models.IdentityMetadata{FullName: "Test User"},
	}
	for _, opt := range opts {
		opt(identity)
	}
	return identity
}

// NewProfile builds an in-memory profile with explicit access flags.
func NewProfile(id uuid.UUID, email string, role models.UserRole, isAdmin, isVerified bool) *models.Profile {
	now := time.Now()
	return &models.Profile{
		ID:         id,
		Email:      email,
		FullName:   "Test User",
		UserRole:   role,
		IsAdmin:    isAdmin,
		IsVerified: isVerified,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
