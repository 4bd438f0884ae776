package handlers

import (
	"context"

	"github.com/google/uuid"
	"github.com/marketingreboot/reboot-api/internal/auth"
	"github.com/marketingreboot/reboot-api/internal/models"
	"github.com/marketingreboot/reboot-api/internal/services"
)

// AuthProviderInterface defines the methods used by handlers from LocalProvider
type AuthProviderInterface interface {
	auth.Provider
	SignOutAll(ctx context.Context, userID uuid.UUID) error
}

// ProfileServiceInterface defines the methods used by handlers from ProfileService
type ProfileServiceInterface interface {
	FetchProfile(ctx context.Context, identity *models.Identity) *models.Profile
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	Update(ctx context.Context, id uuid.UUID, update services.ProfileUpdate) (*models.Profile, error)
	SetRole(ctx context.Context, id uuid.UUID, role models.UserRole) (*models.Profile, error)
	SetAdmin(ctx context.Context, id uuid.UUID, isAdmin bool) (*models.Profile, error)
	SetVerified(ctx context.Context, id uuid.UUID, isVerified bool) (*models.Profile, error)
	List(ctx context.Context, limit, offset int) ([]models.Profile, error)
	Stats(ctx context.Context) (*services.ProfileStats, error)
}

// PostServiceInterface defines the methods used by handlers from PostService
type PostServiceInterface interface {
	Create(ctx context.Context, authorID uuid.UUID, input services.PostInput) (*models.Post, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	ListPublished(ctx context.Context, limit, offset int) ([]models.Post, error)
	ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]models.Post, error)
	Update(ctx context.Context, actorID uuid.UUID, isAdmin bool, id uuid.UUID, input services.PostInput) (*models.Post, error)
	Delete(ctx context.Context, actorID uuid.UUID, isAdmin bool, id uuid.UUID) error
	Count(ctx context.Context) (int, error)
}

// EngagementServiceInterface defines the methods used by handlers from EngagementService
type EngagementServiceInterface interface {
	SavePost(ctx context.Context, profileID, postID uuid.UUID) error
	UnsavePost(ctx context.Context, profileID, postID uuid.UUID) error
	ListSaved(ctx context.Context, profileID uuid.UUID) ([]models.Post, error)
	Follow(ctx context.Context, followerID, contributorID uuid.UUID) error
	Unfollow(ctx context.Context, followerID, contributorID uuid.UUID) error
	FollowerCount(ctx context.Context, contributorID uuid.UUID) (int, error)
}

// AccessNotifier is told when an admin changes someone's role or flags.
type AccessNotifier interface {
	NotifyAccessChanged(profile *models.Profile, field string, changedBy uuid.UUID)
}
