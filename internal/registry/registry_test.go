package registry

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestMemoryRegistryIdempotent(t *testing.T) {
	ctx := context.Background()
	reg := NewMemoryRegistry("SILVER")

	for i := 0; i < 2; i++ {
		if err := reg.Register(ctx, "GOLD"); err != nil {
			t.Fatalf("register: %v", err)
		}
	}

	ok, err := reg.Contains(ctx, "GOLD")
	if err != nil || !ok {
		t.Fatalf("expected GOLD registered: %v %v", ok, err)
	}
	if got := reg.Assets(); !reflect.DeepEqual(got, []string{"GOLD", "SILVER"}) {
		t.Fatalf("assets mismatch: %v", got)
	}
}

func TestMemoryRegistryRejectsEmpty(t *testing.T) {
	reg := NewMemoryRegistry()
	if err := reg.Register(context.Background(), "  "); err == nil {
		t.Fatalf("expected error for empty id")
	}
}

func TestFileRegistryPersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "assets.json")

	reg, err := OpenFileRegistry(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := reg.Register(ctx, "GOLD"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register(ctx, "GOLD"); err != nil {
		t.Fatalf("register again: %v", err)
	}

	reopened, err := OpenFileRegistry(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	ok, err := reopened.Contains(ctx, "GOLD")
	if err != nil || !ok {
		t.Fatalf("expected GOLD after reopen: %v %v", ok, err)
	}
	ok, err = reopened.Contains(ctx, "SILVER")
	if err != nil || ok {
		t.Fatalf("unexpected SILVER: %v %v", ok, err)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("tmp file left behind: %v", err)
	}
}

func TestFileRegistryRejectsDirectory(t *testing.T) {
	if _, err := OpenFileRegistry(t.TempDir()); err == nil {
		t.Fatalf("expected error for directory path")
	}
}

func TestOpenSelectsBackend(t *testing.T) {
	ctx := context.Background()

	h, err := Open(ctx, Options{Backend: "memory"})
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	defer h.Close()
	if _, ok := h.Registry.(*MemoryRegistry); !ok {
		t.Fatalf("expected memory registry, got %T", h.Registry)
	}

	fh, err := Open(ctx, Options{Backend: "file", FilePath: filepath.Join(t.TempDir(), "assets.json")})
	if err != nil {
		t.Fatalf("open file: %v", err)
	}
	defer fh.Close()
	if _, ok := fh.Registry.(*FileRegistry); !ok {
		t.Fatalf("expected file registry, got %T", fh.Registry)
	}

	if _, err := Open(ctx, Options{Backend: "sqlite"}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
