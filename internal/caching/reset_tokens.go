package caching

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ResetTokenStore remembers the hash of the one outstanding password reset
// token per user. Issuing a new token replaces the previous one.
type ResetTokenStore struct {
	cache CacheService
}

func NewResetTokenStore(cache CacheService) *ResetTokenStore {
	return &ResetTokenStore{cache: cache}
}

func resetKey(userID uuid.UUID) string {
	return fmt.Sprintf("reset:%s", userID.String())
}

// HashToken returns the hex sha256 of a raw token
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Save stores the hash of token for userID until ttl elapses
func (s *ResetTokenStore) Save(ctx context.Context, userID uuid.UUID, token string, ttl time.Duration) error {
	if err := s.cache.SetString(ctx, resetKey(userID), HashToken(token), ttl); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}
	return nil
}

// Consume reports whether token is the outstanding one for userID and
// removes it, so a token can be used only once. A wrong token leaves the
// stored one in place.
func (s *ResetTokenStore) Consume(ctx context.Context, userID uuid.UUID, token string) (bool, error) {
	stored, err := s.cache.GetString(ctx, resetKey(userID))
	if err != nil {
		return false, fmt.Errorf("failed to read reset token: %w", err)
	}
	if stored == "" || stored != HashToken(token) {
		return false, nil
	}

	// two requests racing with the same token: only one takes it
	taken, err := s.cache.TakeString(ctx, resetKey(userID))
	if err != nil {
		return false, fmt.Errorf("failed to consume reset token: %w", err)
	}
	return taken == stored, nil
}
