// Package event publishes execution records to a journal or a message broker.
package event

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Publisher kinds accepted by Open.
const (
	KindNone  = "none"
	KindRedis = "redis"
	KindKafka = "kafka"
)

// Publisher delivers one payload under topic, keyed by key.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload []byte) error
	Close() error
}

type Options struct {
	Kind          string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KafkaBrokers  []string
}

// Open builds the publisher named by opts.Kind.
func Open(ctx context.Context, opts Options) (Publisher, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Kind)) {
	case "", KindNone:
		return Nop{}, nil
	case KindRedis:
		if opts.RedisAddr == "" {
			return nil, fmt.Errorf("redis-addr is required for redis events")
		}
		client := redis.NewClient(&redis.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		return NewRedisStreamPublisher(client), nil
	case KindKafka:
		if len(opts.KafkaBrokers) == 0 {
			return nil, fmt.Errorf("kafka-brokers is required for kafka events")
		}
		return NewKafkaPublisher(opts.KafkaBrokers), nil
	default:
		return nil, fmt.Errorf("unsupported events backend: %q", opts.Kind)
	}
}

// Nop discards everything.
type Nop struct{}

func (Nop) Publish(context.Context, string, string, []byte) error { return nil }

func (Nop) Close() error { return nil }
