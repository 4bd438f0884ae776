package database

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

	// Identities owned by the auth provider. Application code only reaches
	// this table through sign-up and sign-in.
	`CREATE TABLE IF NOT EXISTS auth_users (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		email VARCHAR(255) UNIQUE NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		full_name VARCHAR(255) NOT NULL DEFAULT '',
		username VARCHAR(100),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	// One profile per identity; id is the identity id.
	`CREATE TABLE IF NOT EXISTS profiles (
		id UUID PRIMARY KEY REFERENCES auth_users(id) ON DELETE CASCADE,
		email VARCHAR(255) NOT NULL DEFAULT '',
		full_name VARCHAR(255) NOT NULL DEFAULT '',
		username VARCHAR(100),
		bio TEXT,
		website VARCHAR(500),
		user_role VARCHAR(20) NOT NULL DEFAULT 'reader' CHECK (user_role IN ('contributor', 'reader')),
		is_admin BOOLEAN NOT NULL DEFAULT FALSE,
		is_verified BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS posts (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		author_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		title VARCHAR(255) NOT NULL,
		slug VARCHAR(255) NOT NULL UNIQUE,
		excerpt TEXT,
		content TEXT NOT NULL DEFAULT '',
		cover_image_url VARCHAR(500),
		published BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS saved_posts (
		profile_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		post_id UUID NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		PRIMARY KEY (profile_id, post_id)
	)`,

	`CREATE TABLE IF NOT EXISTS follows (
		follower_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		contributor_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		PRIMARY KEY (follower_id, contributor_id),
		CHECK (follower_id <> contributor_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_posts_author_id ON posts(author_id)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_published_created_at ON posts(published, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_saved_posts_post_id ON saved_posts(post_id)`,
	`CREATE INDEX IF NOT EXISTS idx_follows_contributor_id ON follows(contributor_id)`,
}

func (db *DB) Migrate(ctx context.Context) error {
	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
