package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadServerFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "server.toml")
	content := `
addr = "0.0.0.0:7000"
db_path = "/var/lib/catalog/catalog.db"
batch_size = 10
`
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadServer(p)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr != "0.0.0.0:7000" || cfg.DBPath != "/var/lib/catalog/catalog.db" || cfg.BatchSize != 10 {
		t.Fatalf("loaded %+v", cfg)
	}
	// unset fields fall back to defaults
	if cfg.KeyPath != "secret.key" || cfg.BlobDir != "blobs" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestLoadServerEnvFallback(t *testing.T) {
	t.Setenv("CATALOG_ADDR", "10.0.0.1:9999")
	t.Setenv("CATALOG_BATCH_SIZE", "8")
	cfg, err := LoadServer("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr != "10.0.0.1:9999" || cfg.BatchSize != 8 {
		t.Fatalf("env fallback: %+v", cfg)
	}
	if cfg.DBPath != "catalog.db" {
		t.Fatalf("default db path: %+v", cfg)
	}
}

func TestLoadClientDefaults(t *testing.T) {
	cfg, err := LoadClient("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ServerAddr != "127.0.0.1:65432" || cfg.KeyPath != "secret.key" {
		t.Fatalf("client defaults: %+v", cfg)
	}
}

func TestLoadServerMissingFile(t *testing.T) {
	if _, err := LoadServer(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("missing config file accepted")
	}
}
