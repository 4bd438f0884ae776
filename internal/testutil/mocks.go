package testutil

import (
	"context"

	"github.com/google/uuid"
	"github.com/marketingreboot/reboot-api/internal/auth"
	"github.com/marketingreboot/reboot-api/internal/models"
	"github.com/marketingreboot/reboot-api/internal/services"
	"github.com/stretchr/testify/mock"
)

// MockAuthProvider mocks the LocalProvider
type MockAuthProvider struct {
	mock.Mock
}

func (m *MockAuthProvider) SignUp(ctx context.Context, params auth.SignUpParams) (*auth.Session, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Session), args.Error(1)
}

func (m *MockAuthProvider) SignIn(ctx context.Context, email, password string) (*auth.Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Session), args.Error(1)
}

func (m *MockAuthProvider) SignOut(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

func (m *MockAuthProvider) SignOutAll(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockAuthProvider) Refresh(ctx context.Context, refreshToken string) (*auth.Session, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Session), args.Error(1)
}

func (m *MockAuthProvider) GetUser(ctx context.Context, accessToken string) (*models.Identity, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Identity), args.Error(1)
}

// MockProfileService mocks the ProfileService
type MockProfileService struct {
	mock.Mock
}

func (m *MockProfileService) FetchProfile(ctx context.Context, identity *models.Identity) *models.Profile {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*models.Profile)
}

func (m *MockProfileService) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileService) GetAccess(ctx context.Context, id uuid.UUID) (*models.ProfileAccess, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProfileAccess), args.Error(1)
}

func (m *MockProfileService) Update(ctx context.Context, id uuid.UUID, update services.ProfileUpdate) (*models.Profile, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileService) SetRole(ctx context.Context, id uuid.UUID, role models.UserRole) (*models.Profile, error) {
	args := m.Called(ctx, id, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileService) SetAdmin(ctx context.Context, id uuid.UUID, isAdmin bool) (*models.Profile, error) {
	args := m.Called(ctx, id, isAdmin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileService) SetVerified(ctx context.Context, id uuid.UUID, isVerified bool) (*models.Profile, error) {
	args := m.Called(ctx, id, isVerified)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileService) List(ctx context.Context, limit, offset int) ([]models.Profile, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Profile), args.Error(1)
}

func (m *MockProfileService) Stats(ctx context.Context) (*services.ProfileStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ProfileStats), args.Error(1)
}

// MockPostService mocks the PostService
type MockPostService struct {
	mock.Mock
}

func (m *MockPostService) Create(ctx context.Context, authorID uuid.UUID, input services.PostInput) (*models.Post, error) {
	args := m.Called(ctx, authorID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostService) GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostService) ListPublished(ctx context.Context, limit, offset int) ([]models.Post, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Post), args.Error(1)
}

func (m *MockPostService) ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]models.Post, error) {
	args := m.Called(ctx, authorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Post), args.Error(1)
}

func (m *MockPostService) Update(ctx context.Context, actorID uuid.UUID, isAdmin bool, id uuid.UUID, input services.PostInput) (*models.Post, error) {
	args := m.Called(ctx, actorID, isAdmin, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostService) Delete(ctx context.Context, actorID uuid.UUID, isAdmin bool, id uuid.UUID) error {
	args := m.Called(ctx, actorID, isAdmin, id)
	return args.Error(0)
}

func (m *MockPostService) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockEngagementService mocks the EngagementService
type MockEngagementService struct {
	mock.Mock
}

func (m *MockEngagementService) SavePost(ctx context.Context, profileID, postID uuid.UUID) error {
	args := m.Called(ctx, profileID, postID)
	return args.Error(0)
}

func (m *MockEngagementService) UnsavePost(ctx context.Context, profileID, postID uuid.UUID) error {
	args := m.Called(ctx, profileID, postID)
	return args.Error(0)
}

func (m *MockEngagementService) ListSaved(ctx context.Context, profileID uuid.UUID) ([]models.Post, error) {
	args := m.Called(ctx, profileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Post), args.Error(1)
}

func (m *MockEngagementService) Follow(ctx context.Context, followerID, contributorID uuid.UUID) error {
	args := m.Called(ctx, followerID, contributorID)
	return args.Error(0)
}

func (m *MockEngagementService) Unfollow(ctx context.Context, followerID, contributorID uuid.UUID) error {
	args := m.Called(ctx, followerID, contributorID)
	return args.Error(0)
}

func (m *MockEngagementService) FollowerCount(ctx context.Context, contributorID uuid.UUID) (int, error) {
	args := m.Called(ctx, contributorID)
	return args.Int(0), args.Error(1)
}
