package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/marketingreboot/reboot-api/internal/database"
	"github.com/marketingreboot/reboot-api/internal/metrics"
	"github.com/marketingreboot/reboot-api/internal/models"
	"github.com/sirupsen/logrus"
)

const DefaultFetchTimeout = 10 * time.Second

const profileColumns = `id, email, full_name, username, bio, website, user_role, is_admin, is_verified, created_at, updated_at`

type ProfileService struct {
	db      *database.DB
	log     logrus.FieldLogger
	metrics *metrics.Metrics
	timeout time.Duration
}

func NewProfileService(db *database.DB, log logrus.FieldLogger, m *metrics.Metrics, timeout time.Duration) *ProfileService {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &ProfileService{db: db, log: log, metrics: m, timeout: timeout}
}

// ProfileUpdate carries the display fields a user may edit on their own
// profile. Nil fields are left unchanged.
type ProfileUpdate struct {
	FullName *string
	Username *string
	Bio      *string
	Website  *string
}

// FetchProfile returns the profile for identity, creating it with reader
// defaults on first use. It never returns an error: any failure is logged
// and reported as nil so callers fall back to restrictive facts.
func (s *ProfileService) FetchProfile(ctx context.Context, identity *models.Identity) *models.Profile {
	if identity == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	log := s.log.WithField("profile_id", identity.ID)

	tag, err := s.db.Pool.Exec(ctx, `
		INSERT INTO profiles (id, email, full_name, username, user_role, is_admin, is_verified)
		VALUES ($1, $2, $3, $4, 'reader', FALSE, FALSE)
		ON CONFLICT (id) DO NOTHING
	`, identity.ID, identity.Email, identity.Metadata.FullName, nullableString(identity.Metadata.Username))
	if err != nil {
		log.WithError(err).Warn("profile upsert failed")
		s.metrics.ProfileFetch("failed")
		return nil
	}

	profile, err := s.GetByID(ctx, identity.ID)
	if err != nil {
		log.WithError(err).Warn("profile read failed")
		s.metrics.ProfileFetch("failed")
		return nil
	}

	if tag.RowsAffected() == 1 {
		log.Info("profile created")
		s.metrics.ProfileFetch("created")
	} else {
		s.metrics.ProfileFetch("found")
	}
	return profile
}

func (s *ProfileService) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	profile, err := scanProfile(s.db.Pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// GetAccess reads only the columns the edge gate needs. It never creates a
// row.
func (s *ProfileService) GetAccess(ctx context.Context, id uuid.UUID) (*models.ProfileAccess, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		access models.ProfileAccess
		role   string
	)
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, user_role, is_admin, is_verified FROM profiles WHERE id = $1
	`, id).Scan(&access.ID, &role, &access.IsAdmin, &access.IsVerified)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	access.UserRole = models.UserRole(role)
	return &access, nil
}

func (s *ProfileService) Update(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*models.Profile, error) {
	var (
		sets []string
		args []any
	)
	add := func(column string, value *string) {
		if value == nil {
			return
		}
		args = append(args, nullableString(strings.TrimSpace(*value)))
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if update.FullName != nil {
		args = append(args, strings.TrimSpace(*update.FullName))
		sets = append(sets, fmt.Sprintf("full_name = $%d", len(args)))
	}
	add("username", update.Username)
	add("bio", update.Bio)
	add("website", update.Website)
	if len(sets) == 0 {
		return nil, ErrNoFieldsToUpdate
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE profiles SET %s, updated_at = NOW() WHERE id = $%d RETURNING `+profileColumns,
		strings.Join(sets, ", "), len(args))

	profile, err := scanProfile(s.db.Pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return profile, nil
}

func (s *ProfileService) SetRole(ctx context.Context, id uuid.UUID, role models.UserRole) (*models.Profile, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("invalid role %q", role)
	}
	return s.updateFlag(ctx, id, "user_role", string(role))
}

func (s *ProfileService) SetAdmin(ctx context.Context, id uuid.UUID, isAdmin bool) (*models.Profile, error) {
	return s.updateFlag(ctx, id, "is_admin", isAdmin)
}

func (s *ProfileService) SetVerified(ctx context.Context, id uuid.UUID, isVerified bool) (*models.Profile, error) {
	return s.updateFlag(ctx, id, "is_verified", isVerified)
}

// updateFlag is only called with fixed column names.
func (s *ProfileService) updateFlag(ctx context.Context, id uuid.UUID, column string, value any) (*models.Profile, error) {
	profile, err := scanProfile(s.db.Pool.QueryRow(ctx,
		`UPDATE profiles SET `+column+` = $1, updated_at = NOW() WHERE id = $2 RETURNING `+profileColumns,
		value, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", column, err)
	}
	return profile, nil
}

// PromoteAdminByEmail marks the profile with the given email as a verified
// admin contributor.
func (s *ProfileService) PromoteAdminByEmail(ctx context.Context, email string) (*models.Profile, error) {
	profile, err := scanProfile(s.db.Pool.QueryRow(ctx, `
		UPDATE profiles SET is_admin = TRUE, is_verified = TRUE, user_role = 'contributor', updated_at = NOW()
		WHERE email = $1
		RETURNING `+profileColumns, NormalizeEmail(email)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *ProfileService) List(ctx context.Context, limit, offset int) ([]models.Profile, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+profileColumns+`
		FROM profiles
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *profile)
	}
	return profiles, rows.Err()
}

type ProfileStats struct {
	Total        int `json:"total"`
	Contributors int `json:"contributors"`
	Readers      int `json:"readers"`
	Admins       int `json:"admins"`
	Verified     int `json:"verified"`
}

func (s *ProfileService) Stats(ctx context.Context) (*ProfileStats, error) {
	var stats ProfileStats
	err := s.db.Pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE user_role = 'contributor'),
			COUNT(*) FILTER (WHERE user_role = 'reader'),
			COUNT(*) FILTER (WHERE is_admin),
			COUNT(*) FILTER (WHERE is_verified)
		FROM profiles
	`).Scan(&stats.Total, &stats.Contributors, &stats.Readers, &stats.Admins, &stats.Verified)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func scanProfile(row pgx.Row) (*models.Profile, error) {
	var (
		p    models.Profile
		role string
	)
	err := row.Scan(
		&p.ID, &p.Email, &p.FullName, &p.Username, &p.Bio, &p.Website,
		&role, &p.IsAdmin, &p.IsVerified, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.UserRole = models.UserRole(role)
	return &p, nil
}
