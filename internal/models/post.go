package models

import (
	"time"

	"github.com/google/uuid"
)

type Post struct {
	ID            uuid.UUID `json:"id"`
	AuthorID      uuid.UUID `json:"author_id"`
	Title         string    `json:"title"`
	Slug          string    `json:"slug"`
	Excerpt       *string   `json:"excerpt,omitempty"`
	Content       string    `json:"content"`
	CoverImageURL *string   `json:"cover_image_url,omitempty"`
	Published     bool      `json:"published"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
