// Package redisstore provides Redis-backed grant and authorization-code
// stores for distributed deployments where multiple instances share engine
// state.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"parley/internal/engine"
	"parley/pkg/platform/sentinel"
)

const (
	grantKeyPrefix = "grant:"
	codeKeyPrefix  = "authcode:"

	codeTTL = 10 * time.Minute
)

// GrantStore persists grants as JSON values in Redis.
type GrantStore struct {
	client *redis.Client
}

// NewGrantStore constructs a Redis-backed grant store.
func NewGrantStore(client *redis.Client) *GrantStore {
	return &GrantStore{client: client}
}

func (s *GrantStore) Find(ctx context.Context, grantID string) (*engine.Grant, error) {
	raw, err := s.client.Get(ctx, grantKeyPrefix+grantID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("grant %s: %w", grantID, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load grant: %w", err)
	}

	var grant engine.Grant
	if err := json.Unmarshal([]byte(raw), &grant); err != nil {
		return nil, fmt.Errorf("decode grant: %w", err)
	}
	return &grant, nil
}

func (s *GrantStore) Save(ctx context.Context, grant *engine.Grant) (string, error) {
	if grant.ID == "" {
		grant.ID = uuid.NewString()
	}

	raw, err := json.Marshal(grant)
	if err != nil {
		return "", fmt.Errorf("encode grant: %w", err)
	}
	// Grants have no expiry of their own; lifetime is managed engine-side.
	if err := s.client.Set(ctx, grantKeyPrefix+grant.ID, raw, 0).Err(); err != nil {
		return "", fmt.Errorf("save grant: %w", err)
	}
	return grant.ID, nil
}

// CodeStore persists authorization codes as JSON values with a TTL so unused
// codes expire on their own.
type CodeStore struct {
	client *redis.Client
}

// NewCodeStore constructs a Redis-backed authorization code store.
func NewCodeStore(client *redis.Client) *CodeStore {
	return &CodeStore{client: client}
}

func (s *CodeStore) Save(ctx context.Context, code *engine.AuthorizationCode) (string, error) {
	if code.Code == "" {
		code.Code = uuid.NewString()
	}
	if code.ExpiresAt.IsZero() {
		code.ExpiresAt = code.AuthTime.Add(codeTTL)
	}

	raw, err := json.Marshal(code)
	if err != nil {
		return "", fmt.Errorf("encode authorization code: %w", err)
	}
	ttl := time.Until(code.ExpiresAt)
	if ttl <= 0 {
		return "", fmt.Errorf("authorization code already expired: %w", sentinel.ErrExpired)
	}
	if err := s.client.Set(ctx, codeKeyPrefix+code.Code, raw, ttl).Err(); err != nil {
		return "", fmt.Errorf("save authorization code: %w", err)
	}
	return code.Code, nil
}

// FindByCode loads a stored code, for the exchange side of the boundary.
func (s *CodeStore) FindByCode(ctx context.Context, codeValue string) (*engine.AuthorizationCode, error) {
	raw, err := s.client.Get(ctx, codeKeyPrefix+codeValue).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("authorization code not found: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load authorization code: %w", err)
	}

	var code engine.AuthorizationCode
	if err := json.Unmarshal([]byte(raw), &code); err != nil {
		return nil, fmt.Errorf("decode authorization code: %w", err)
	}
	return &code, nil
}
