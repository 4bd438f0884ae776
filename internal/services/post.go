package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/marketingreboot/reboot-api/internal/database"
	"github.com/marketingreboot/reboot-api/internal/models"
)

const postColumns = `id, author_id, title, slug, excerpt, content, cover_image_url, published, created_at, updated_at`

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

type PostService struct {
	db *database.DB
}

func NewPostService(db *database.DB) *PostService {
	return &PostService{db: db}
}

type PostInput struct {
	Title         *string
	Excerpt       *string
	Content       *string
	CoverImageURL *string
	Published     *bool
}

// Slugify lowercases title and joins its alphanumeric runs with dashes.
func Slugify(title string) string {
	slug := strings.Trim(slugInvalid.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if slug == "" {
		return "post"
	}
	return slug
}

func (s *PostService) Create(ctx context.Context, authorID uuid.UUID, input PostInput) (*models.Post, error) {
	if input.Title == nil || strings.TrimSpace(*input.Title) == "" {
		return nil, fmt.Errorf("title is required")
	}
	title := strings.TrimSpace(*input.Title)
	content := ""
	if input.Content != nil {
		content = *input.Content
	}
	published := input.Published != nil && *input.Published

	slug := Slugify(title)
	for attempt := 0; attempt < 3; attempt++ {
		post, err := scanPost(s.db.Pool.QueryRow(ctx, `
			INSERT INTO posts (author_id, title, slug, excerpt, content, cover_image_url, published)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (slug) DO NOTHING
			RETURNING `+postColumns,
			authorID, title, slug, input.Excerpt, content, input.CoverImageURL, published,
		))
		if err == nil {
			return post, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("failed to create post: %w", err)
		}
		slug = Slugify(title) + "-" + uuid.NewString()[:8]
	}
	return nil, fmt.Errorf("failed to allocate slug for %q", title)
}

func (s *PostService) GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	post, err := scanPost(s.db.Pool.QueryRow(ctx,
		`SELECT `+postColumns+` FROM posts WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) ListPublished(ctx context.Context, limit, offset int) ([]models.Post, error) {
	return s.list(ctx, `
		SELECT `+postColumns+` FROM posts
		WHERE published = TRUE
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
}

func (s *PostService) ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]models.Post, error) {
	return s.list(ctx, `
		SELECT `+postColumns+` FROM posts
		WHERE author_id = $1
		ORDER BY created_at DESC
	`, authorID)
}

// Update applies input to the post. Only the author or an admin may edit.
func (s *PostService) Update(ctx context.Context, actorID uuid.UUID, isAdmin bool, id uuid.UUID, input PostInput) (*models.Post, error) {
	if err := s.checkOwner(ctx, actorID, isAdmin, id); err != nil {
		return nil, err
	}

	var (
		sets []string
		args []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if input.Title != nil {
		add("title", strings.TrimSpace(*input.Title))
	}
	if input.Excerpt != nil {
		add("excerpt", nullableString(*input.Excerpt))
	}
	if input.Content != nil {
		add("content", *input.Content)
	}
	if input.CoverImageURL != nil {
		add("cover_image_url", nullableString(*input.CoverImageURL))
	}
	if input.Published != nil {
		add("published", *input.Published)
	}
	if len(sets) == 0 {
		return nil, ErrNoFieldsToUpdate
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE posts SET %s, updated_at = NOW() WHERE id = $%d RETURNING `+postColumns,
		strings.Join(sets, ", "), len(args))

	post, err := scanPost(s.db.Pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}
	return post, nil
}

func (s *PostService) Delete(ctx context.Context, actorID uuid.UUID, isAdmin bool, id uuid.UUID) error {
	if err := s.checkOwner(ctx, actorID, isAdmin, id); err != nil {
		return err
	}
	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostService) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM posts`).Scan(&count)
	return count, err
}

func (s *PostService) checkOwner(ctx context.Context, actorID uuid.UUID, isAdmin bool, id uuid.UUID) error {
	var authorID uuid.UUID
	err := s.db.Pool.QueryRow(ctx, `SELECT author_id FROM posts WHERE id = $1`, id).Scan(&authorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if authorID != actorID && !isAdmin {
		return ErrForbidden
	}
	return nil
}

func (s *PostService) list(ctx context.Context, query string, args ...any) ([]models.Post, error) {
	rows, err := s.db.Pool.Query(ctx, query, args...)
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

func scanPost(row pgx.Row) (*models.Post, error) {
	var p models.Post
	err := row.Scan(
		&p.ID, &p.AuthorID, &p.Title, &p.Slug, &p.Excerpt, &p.Content,
		&p.CoverImageURL, &p.Published, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
