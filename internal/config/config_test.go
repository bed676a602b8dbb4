package config

import (
	"os"
	"path/filepath"
	"testing"

	"rfamscan/internal/search"
)

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()

	cfg := DefaultConfig()
	cfg.ExecutionMode = ModeCluster
	cfg.CPU = 16

	if err := Save(dir, cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !Exists(dir) {
		t.Fatal("expected config to exist after Save")
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.ExecutionMode != ModeCluster || loaded.CPU != 16 {
		t.Errorf("loaded config mismatch: %+v", loaded)
	}
}

func TestFindConfigDir(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("failed to create nested dirs: %v", err)
	}
	if err := Save(root, DefaultConfig()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	found, err := FindConfigDir(nested)
	if err != nil {
		t.Fatalf("FindConfigDir failed: %v", err)
	}
	if found != root {
		t.Errorf("expected %q, got %q", root, found)
	}
}

func TestResolve(t *testing.T) {
	t.Run("explicit path", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "custom.yaml")
		if err := os.WriteFile(path, []byte("cpu: 2\n"), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cfg, source, err := Resolve(path, t.TempDir())
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if source != path {
			t.Errorf("expected source %q, got %q", path, source)
		}
		if cfg.CPU != 2 {
			t.Errorf("expected cpu 2, got %d", cfg.CPU)
		}
	})

	t.Run("explicit path missing", func(t *testing.T) {
		_, _, err := Resolve(filepath.Join(t.TempDir(), "nope.yaml"), t.TempDir())
		if err == nil {
			t.Fatal("expected error for missing explicit config")
		}
	})

	t.Run("discovered", func(t *testing.T) {
		root := t.TempDir()
		cfg := DefaultConfig()
		cfg.Method = search.MethodCMScan
		if err := Save(root, cfg); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		sub := filepath.Join(root, "models")
		if err := os.Mkdir(sub, 0755); err != nil {
			t.Fatalf("mkdir failed: %v", err)
		}

		got, source, err := Resolve("", sub)
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if source != filepath.Join(root, ConfigFileName) {
			t.Errorf("unexpected source %q", source)
		}
		if got.Method != search.MethodCMScan {
			t.Errorf("expected method cmscan, got %q", got.Method)
		}
	})
}
