// Package config loads TOML configuration for the catalog binaries, with
// environment variables filling any field the file leaves unset.
package config

import (
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Server configures cmd/server.
type Server struct {
	Addr      string `toml:"addr"`
	DBPath    string `toml:"db_path"`
	KeyPath   string `toml:"key_path"`
	BlobDir   string `toml:"blob_dir"`
	BatchSize int    `toml:"batch_size"`
}

// Client configures cmd/client.
type Client struct {
	ServerAddr string `toml:"server_addr"`
	KeyPath    string `toml:"key_path"`
}

// LoadServer reads path (optional; "" skips the file), applies CATALOG_*
// environment variables for unset fields, then defaults.
func LoadServer(path string) (Server, error) {
	var cfg Server
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Server{}, err
		}
	}
	fallback(&cfg.Addr, "CATALOG_ADDR", "127.0.0.1:65432")
	fallback(&cfg.DBPath, "CATALOG_DB", "catalog.db")
	fallback(&cfg.KeyPath, "CATALOG_KEY", "secret.key")
	fallback(&cfg.BlobDir, "CATALOG_BLOBS", "blobs")
	if cfg.BatchSize <= 0 {
		if n, err := strconv.Atoi(os.Getenv("CATALOG_BATCH_SIZE")); err == nil && n > 0 {
			cfg.BatchSize = n
		}
	}
	return cfg, nil
}

// LoadClient mirrors LoadServer for the client binary.
func LoadClient(path string) (Client, error) {
	var cfg Client
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Client{}, err
		}
	}
	fallback(&cfg.ServerAddr, "CATALOG_SERVER_ADDR", "127.0.0.1:65432")
	fallback(&cfg.KeyPath, "CATALOG_KEY", "secret.key")
	return cfg, nil
}

func fallback(field *string, env, def string) {
	if *field != "" {
		return
	}
	if v := os.Getenv(env); v != "" {
		*field = v
		return
	}
	*field = def
}
