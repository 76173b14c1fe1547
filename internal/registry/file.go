package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// FileRegistry persists asset identifiers to a JSON snapshot on disk.
type FileRegistry struct {
	path string

	mu   sync.Mutex
	data map[string]struct{}
}

type fileSnapshot struct {
	Assets    []string `json:"assets"`
	UpdatedAt string   `json:"updated_at"`
}

// OpenFileRegistry loads the snapshot at path, if any.
func OpenFileRegistry(path string) (*FileRegistry, error) {
	if path == "" {
		return nil, fmt.Errorf("registry file path is required")
	}
	r := &FileRegistry{path: path, data: make(map[string]struct{})}

	stat, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, fmt.Errorf("stat registry: %w", err)
	}
	if stat.IsDir() {
		return nil, fmt.Errorf("registry path is a directory")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	var snap fileSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}
	for _, id := range snap.Assets {
		if id, err := normalizeID(id); err == nil {
			r.data[id] = struct{}{}
		}
	}
	return r, nil
}

func (r *FileRegistry) Contains(_ context.Context, assetID string) (bool, error) {
	id, err := normalizeID(assetID)
	if err != nil {
		return false, err
	}
	r.mu.Lock()
	_, ok := r.data[id]
	r.mu.Unlock()
	return ok, nil
}

func (r *FileRegistry) Register(_ context.Context, assetID string) error {
	id, err := normalizeID(assetID)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.data[id]; ok {
		return nil
	}
	r.data[id] = struct{}{}
	if err := r.save(); err != nil {
		delete(r.data, id)
		return err
	}
	return nil
}

func (r *FileRegistry) save() error {
	dir := filepath.Dir(r.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create registry dir: %w", err)
		}
	}

	assets := make([]string, 0, len(r.data))
	for id := range r.data {
		assets = append(assets, id)
	}
	sort.Strings(assets)

	data, err := json.Marshal(fileSnapshot{
		Assets:    assets,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}

	tmpPath := r.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write registry tmp: %w", err)
	}
	if err := os.Rename(tmpPath, r.path); err != nil {
		return fmt.Errorf("rename registry: %w", err)
	}
	return nil
}
