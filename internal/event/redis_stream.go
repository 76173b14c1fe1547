package event

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStreamPublisher appends payloads to a Redis stream named after the topic.
type RedisStreamPublisher struct {
	client *redis.Client
}

func NewRedisStreamPublisher(client *redis.Client) *RedisStreamPublisher {
	return &RedisStreamPublisher{client: client}
}

func (p *RedisStreamPublisher) Publish(ctx context.Context, topic, key string, payload []byte) error {
	err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: topic,
		Values: map[string]interface{}{
			"key":     key,
			"payload": payload,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("redis xadd: %w", err)
	}
	return nil
}

func (p *RedisStreamPublisher) Close() error {
	return p.client.Close()
}
