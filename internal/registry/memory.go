package registry

import (
	"context"
	"sort"
	"sync"
)

// MemoryRegistry keeps asset identifiers in process memory.
type MemoryRegistry struct {
	mu   sync.RWMutex
	data map[string]struct{}
}

func NewMemoryRegistry(seed ...string) *MemoryRegistry {
	r := &MemoryRegistry{data: make(map[string]struct{}, len(seed))}
	for _, id := range seed {
		if id, err := normalizeID(id); err == nil {
			r.data[id] = struct{}{}
		}
	}
	return r
}

func (r *MemoryRegistry) Contains(_ context.Context, assetID string) (bool, error) {
	id, err := normalizeID(assetID)
	if err != nil {
		return false, err
	}
	r.mu.RLock()
	_, ok := r.data[id]
	r.mu.RUnlock()
	return ok, nil
}

func (r *MemoryRegistry) Register(_ context.Context, assetID string) error {
	id, err := normalizeID(assetID)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.data[id] = struct{}{}
	r.mu.Unlock()
	return nil
}

// Assets returns the registered identifiers in sorted order.
func (r *MemoryRegistry) Assets() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.data))
	for id := range r.data {
		out = append(out, id)
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}
