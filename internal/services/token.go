package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrTokenNotFound = errors.New("refresh token not found or expired")

// TokenService keeps hashed refresh tokens in redis. Each token lives under
// its own key with the token's remaining lifetime as TTL; a per-user set
// indexes them for sign-out everywhere.
type TokenService struct {
	client *redis.Client
	prefix string
}

func NewTokenService(client *redis.Client) *TokenService {
	return &TokenService{client: client, prefix: "reboot:"}
}

func (s *TokenService) tokenKey(tokenHash string) string {
	return s.prefix + "refresh:" + tokenHash
}

func (s *TokenService) userKey(userID uuid.UUID) string {
	return s.prefix + "user_refresh:" + userID.String()
}

func (s *TokenService) StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return fmt.Errorf("refresh token already expired")
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.tokenKey(tokenHash), userID.String(), ttl)
	pipe.SAdd(ctx, s.userKey(userID), tokenHash)
	pipe.Expire(ctx, s.userKey(userID), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

func (s *TokenService) ValidateRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, error) {
	val, err := s.client.Get(ctx, s.tokenKey(tokenHash)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrTokenNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to read refresh token: %w", err)
	}

	userID, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, fmt.Errorf("corrupt refresh token entry: %w", err)
	}
	return userID, nil
}

// ConsumeRefreshToken atomically removes the token and returns its owner.
// Of several concurrent callers holding the same token exactly one wins;
// the rest get ErrTokenNotFound.
func (s *TokenService) ConsumeRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, error) {
	val, err := s.client.GetDel(ctx, s.tokenKey(tokenHash)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrTokenNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to consume refresh token: %w", err)
	}

	userID, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, fmt.Errorf("corrupt refresh token entry: %w", err)
	}
	if err := s.client.SRem(ctx, s.userKey(userID), tokenHash).Err(); err != nil {
		return uuid.Nil, fmt.Errorf("failed to unindex refresh token: %w", err)
	}
	return userID, nil
}

// RevokeRefreshToken deletes the token. Unknown tokens are not an error.
func (s *TokenService) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	_, err := s.ConsumeRefreshToken(ctx, tokenHash)
	if errors.Is(err, ErrTokenNotFound) {
		return nil
	}
	return err
}

func (s *TokenService) RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error {
	hashes, err := s.client.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(hashes)+1)
	for _, h := range hashes {
		keys = append(keys, s.tokenKey(h))
	}
	keys = append(keys, s.userKey(userID))

	return s.client.Del(ctx, keys...).Err()
}
