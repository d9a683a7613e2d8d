package fingerprint

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	id "github.com/ssmadhavan006/zkredit/pkg/domain"
	"github.com/ssmadhavan006/zkredit/pkg/platform/sentinel"
)

const keyPrefix = "zkredit:fingerprint:"

// RedisStore shares the consumed-fingerprint set across processes. Keys are
// written without TTL; replay protection is permanent.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Contains(ctx context.Context, fp id.Digest) (bool, error) {
	n, err := s.client.Exists(ctx, keyPrefix+fp.Hex()).Result()
	if err != nil {
		return false, fmt.Errorf("check fingerprint: %w", err)
	}
	return n > 0, nil
}

func (s *RedisStore) Add(ctx context.Context, fp id.Digest) error {
	ok, err := s.client.SetNX(ctx, keyPrefix+fp.Hex(), 1, 0).Result()
	if err != nil {
		return fmt.Errorf("mark fingerprint consumed: %w", err)
	}
	if !ok {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}
