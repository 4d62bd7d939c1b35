package codes

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

var _ Store = (*RedisStore)(nil)

const redisKeyPrefix = "oauth2:code:"

// RedisStore keeps codes in Redis for multi-instance deployments. GETDEL
// makes redemption a single atomic server-side operation, so the
// exactly-once guarantee holds across processes.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("[codes.NewRedisStore] redis client is required")
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Save(ctx context.Context, code string, auth *Authorization) error {
	payload, err := json.Marshal(auth)
	if err != nil {
		return errors.Wrap(err, "[RedisStore.Save] marshal")
	}
	ttl := time.Until(auth.ExpiresAt)
	if ttl <= 0 {
		return errors.New("[RedisStore.Save] authorization already expired")
	}
	if err := s.client.Set(ctx, redisKeyPrefix+code, payload, ttl).Err(); err != nil {
		return errors.Wrap(err, "[RedisStore.Save] set")
	}
	return nil
}

func (s *RedisStore) Redeem(ctx context.Context, code string) (*Authorization, error) {
	payload, err := s.client.GetDel(ctx, redisKeyPrefix+code).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[RedisStore.Redeem] getdel")
	}
	var auth Authorization
	if err := json.Unmarshal([]byte(payload), &auth); err != nil {
		return nil, errors.Wrap(err, "[RedisStore.Redeem] unmarshal")
	}
	return &auth, nil
}
