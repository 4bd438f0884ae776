package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/marketingreboot/reboot-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIdentity(email string) *models.Identity {
	return &models.Identity{
		ID:    uuid.New(),
		Email: email,
		Metadata: models.IdentityMetadata{
			FullName: "Test User",
			Username: "tester",
		},
	}
}

func TestNewJWTService(t *testing.T) {
	svc := NewJWTService("secret", 15*time.Minute, 24*time.Hour)

	assert.NotNil(t, svc)
	assert.Equal(t, 15*time.Minute, svc.AccessExpiry())
	assert.Equal(t, 24*time.Hour, svc.RefreshExpiry())
}

func TestJWTService_GenerateTokenPair(t *testing.T) {
	svc := NewJWTService("test-secret", 15*time.Minute, 24*time.Hour)

	pair, err := svc.GenerateTokenPair(testIdentity("test@example.com"))

	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, int64(15*60), pair.ExpiresIn)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), pair.ExpiresAt, 5*time.Second)
}

func TestJWTService_ValidateAccessToken_Valid(t *testing.T) {
	svc := NewJWTService("test-secret", 15*time.Minute, 24*time.Hour)
	identity := testIdentity("test@example.com")

	pair, err := svc.GenerateTokenPair(identity)
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(pair.AccessToken)

	require.NoError(t, err)
	assert.Equal(t, identity.ID, claims.UserID)
	assert.Equal(t, identity.Email, claims.Email)
	assert.Equal(t, "reboot-api", claims.Issuer)
	assert.Equal(t, identity, claims.Identity())
}

func TestJWTService_ValidateAccessToken_WrongSecret(t *testing.T) {
	svc1 := NewJWTService("secret-1", 15*time.Minute, 24*time.Hour)
	svc2 := NewJWTService("secret-2", 15*time.Minute, 24*time.Hour)

	pair, err := svc1.GenerateTokenPair(testIdentity("test@example.com"))
	require.NoError(t, err)

	_, err = svc2.ValidateAccessToken(pair.AccessToken)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse token")
}

func TestJWTService_ValidateAccessToken_Expired(t *testing.T) {
	svc := NewJWTService("test-secret", 1*time.Millisecond, 24*time.Hour)

	pair, err := svc.GenerateTokenPair(testIdentity("test@example.com"))
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, err = svc.ValidateAccessToken(pair.AccessToken)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse token")
}

func TestJWTService_ValidateAccessToken_MalformedToken(t *testing.T) {
	svc := NewJWTService("test-secret", 15*time.Minute, 24*time.Hour)

	testCases := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-jwt-token"},
		{"partial jwt", "eyJhbGciOiJIUzI1NiJ9."},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.ValidateAccessToken(tc.token)
			assert.Error(t, err)
		})
	}
}

func TestJWTService_ValidateRefreshToken_Valid(t *testing.T) {
	svc := NewJWTService("test-secret", 15*time.Minute, 24*time.Hour)
	identity := testIdentity("test@example.com")

	pair, err := svc.GenerateTokenPair(identity)
	require.NoError(t, err)

	returnedUserID, err := svc.ValidateRefreshToken(pair.RefreshToken)

	require.NoError(t, err)
	assert.Equal(t, identity.ID, returnedUserID)
}

func TestJWTService_ValidateRefreshToken_Expired(t *testing.T) {
	svc := NewJWTService("test-secret", 15*time.Minute, 1*time.Millisecond)

	pair, err := svc.GenerateTokenPair(testIdentity("test@example.com"))
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, err = svc.ValidateRefreshToken(pair.RefreshToken)

	assert.Error(t, err)
}

func TestHashToken(t *testing.T) {
	hash1 := HashToken("my-refresh-token")
	hash2 := HashToken("my-refresh-token")

	assert.Equal(t, hash1, hash2)
	assert.Len(t, hash1, 64)
	assert.NotEqual(t, hash1, HashToken("different-token"))
}

func TestJWTService_RefreshTokensAreDifferent(t *testing.T) {
	svc := NewJWTService("test-secret", 15*time.Minute, 24*time.Hour)
	identity := testIdentity("test@example.com")

	pair1, err := svc.GenerateTokenPair(identity)
	require.NoError(t, err)
	pair2, err := svc.GenerateTokenPair(identity)
	require.NoError(t, err)

	// distinct jti per refresh token
	assert.NotEqual(t, pair1.RefreshToken, pair2.RefreshToken)
}
