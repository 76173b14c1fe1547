package registry

import (
	"context"
	"fmt"
	"strings"
)

// Registry records asset identifiers the wallet has observed.
// Register is an idempotent upsert.
type Registry interface {
	Contains(ctx context.Context, assetID string) (bool, error)
	Register(ctx context.Context, assetID string) error
}

// Options selects and configures a registry backend.
type Options struct {
	Backend       string
	FilePath      string
	PGDSN         string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisKey      string
}

// Handle is an opened registry plus its cleanup.
type Handle struct {
	Registry
	close func()
}

func (h *Handle) Close() {
	if h != nil && h.close != nil {
		h.close()
	}
}

// Open builds the registry backend named by opts.Backend.
func Open(ctx context.Context, opts Options) (*Handle, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", "memory":
		return &Handle{Registry: NewMemoryRegistry()}, nil
	case "file":
		reg, err := OpenFileRegistry(opts.FilePath)
		if err != nil {
			return nil, err
		}
		return &Handle{Registry: reg}, nil
	case "postgres":
		store, err := NewPostgresRegistry(ctx, opts.PGDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, err
		}
		return &Handle{Registry: store, close: store.Close}, nil
	case "redis":
		reg, err := NewRedisRegistry(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB, opts.RedisKey)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		return &Handle{Registry: reg, close: func() { _ = reg.Close() }}, nil
	default:
		return nil, fmt.Errorf("unsupported registry backend: %s", opts.Backend)
	}
}

func normalizeID(assetID string) (string, error) {
	id := strings.TrimSpace(assetID)
	if id == "" {
		return "", fmt.Errorf("asset id is empty")
	}
	return id, nil
}
