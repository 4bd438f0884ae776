package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/marketingreboot/reboot-api/internal/database"
	"github.com/marketingreboot/reboot-api/internal/models"
)

var ErrSelfFollow = errors.New("cannot follow yourself")

// EngagementService covers the reader side: saved posts and follows.
type EngagementService struct {
	db *database.DB
}

func NewEngagementService(db *database.DB) *EngagementService {
	return &EngagementService{db: db}
}

// SavePost is idempotent.
func (s *EngagementService) SavePost(ctx context.Context, profileID, postID uuid.UUID) error {
	var exists bool
	err := s.db.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1 AND published = TRUE)
	`, postID).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}

	_, err = s.db.Pool.Exec(ctx, `
		INSERT INTO saved_posts (profile_id, post_id) VALUES ($1, $2)
		ON CONFLICT (profile_id, post_id) DO NOTHING
	`, profileID, postID)
	if err != nil {
		return fmt.Errorf("failed to save post: %w", err)
	}
	return nil
}

func (s *EngagementService) UnsavePost(ctx context.Context, profileID, postID uuid.UUID) error {
	_, err := s.db.Pool.Exec(ctx, `
		DELETE FROM saved_posts WHERE profile_id = $1 AND post_id = $2
	`, profileID, postID)
	return err
}

func (s *EngagementService) ListSaved(ctx context.Context, profileID uuid.UUID) ([]models.Post, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT p.id, p.author_id, p.title, p.slug, p.excerpt, p.content, p.cover_image_url, p.published, p.created_at, p.updated_at
		FROM saved_posts sp
		INNER JOIN posts p ON p.id = sp.post_id
		WHERE sp.profile_id = $1
		ORDER BY sp.created_at DESC
	`, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}
	return posts, rows.Err()
}

// Follow records followerID following contributorID. The target must be a
// contributor; following twice is a no-op.
func (s *EngagementService) Follow(ctx context.Context, followerID, contributorID uuid.UUID) error {
	if followerID == contributorID {
		return ErrSelfFollow
	}

	var isContributor bool
	err := s.db.Pool.QueryRow(ctx, `
		SELECT user_role = 'contributor' OR is_admin FROM profiles WHERE id = $1
	`, contributorID).Scan(&isContributor)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if !isContributor {
		return ErrNotFound
	}

	_, err = s.db.Pool.Exec(ctx, `
		INSERT INTO follows (follower_id, contributor_id) VALUES ($1, $2)
		ON CONFLICT (follower_id, contributor_id) DO NOTHING
	`, followerID, contributorID)
	if err != nil {
		return fmt.Errorf("failed to follow: %w", err)
	}
	return nil
}

func (s *EngagementService) Unfollow(ctx context.Context, followerID, contributorID uuid.UUID) error {
	_, err := s.db.Pool.Exec(ctx, `
		DELETE FROM follows WHERE follower_id = $1 AND contributor_id = $2
	`, followerID, contributorID)
	return err
}

func (s *EngagementService) FollowerCount(ctx context.Context, contributorID uuid.UUID) (int, error) {
	var count int
	err := s.db.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM follows WHERE contributor_id = $1
	`, contributorID).Scan(&count)
	return count, err
}
