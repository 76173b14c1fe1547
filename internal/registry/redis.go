package registry

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const defaultRedisKey = "swapexec:assets"

// RedisRegistry stores asset identifiers in a Redis set.
type RedisRegistry struct {
	client *redis.Client
	key    string
}

func NewRedisRegistry(ctx context.Context, addr, password string, db int, key string) (*RedisRegistry, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return NewRedisRegistryWithClient(client, key), nil
}

func NewRedisRegistryWithClient(client *redis.Client, key string) *RedisRegistry {
	if key == "" {
		key = defaultRedisKey
	}
	return &RedisRegistry{client: client, key: key}
}

func (r *RedisRegistry) Close() error {
	return r.client.Close()
}

func (r *RedisRegistry) Contains(ctx context.Context, assetID string) (bool, error) {
	id, err := normalizeID(assetID)
	if err != nil {
		return false, err
	}
	return r.client.SIsMember(ctx, r.key, id).Result()
}

// Register adds the identifier; SADD on an existing member is a no-op.
func (r *RedisRegistry) Register(ctx context.Context, assetID string) error {
	id, err := normalizeID(assetID)
	if err != nil {
		return err
	}
	return r.client.SAdd(ctx, r.key, id).Err()
}
