package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "masklink.ini")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Store.Driver != "sqlite3" {
		t.Fatalf("expected sqlite3 default driver, got %q", cfg.Store.Driver)
	}
	if cfg.Query.Depth != 3 {
		t.Fatalf("expected default depth 3, got %d", cfg.Query.Depth)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("defaults were not written out: %v", err)
	}
}

func TestLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "masklink.ini")
	want := Default()
	want.Store.Driver = "postgres"
	want.Store.DSN = "host=localhost user=quassel dbname=quassel"
	want.Query.Depth = 5
	want.Query.FollowIdents = true
	if err := Write(path, want); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Store.Driver != "postgres" || got.Store.DSN != want.Store.DSN {
		t.Fatalf("store section lost: %+v", got.Store)
	}
	if got.Query.Depth != 5 || !got.Query.FollowIdents {
		t.Fatalf("query section lost: %+v", got.Query)
	}
}

func TestLoadRepairsNonsenseValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "masklink.ini")
	cfg := Default()
	cfg.Query.Depth = -1
	cfg.Query.Concurrency = 0
	if err := Write(path, cfg); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Query.Depth != 3 || got.Query.Concurrency != 8 {
		t.Fatalf("expected repaired defaults, got %+v", got.Query)
	}
}
