// catalog server: encrypted item catalog over TCP.
package main

import (
	"errors"
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"dev.c0redev.catalog/internal/blob"
	"dev.c0redev.catalog/internal/config"
	"dev.c0redev.catalog/internal/secure"
	"dev.c0redev.catalog/internal/server"
	"dev.c0redev.catalog/internal/store"
)

func main() {
	configPath := flag.String("config", "", "server config file (toml)")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.LoadServer(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	key, err := secure.LoadOrCreateKey(cfg.KeyPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.KeyPath).Msg("load key")
	}
	engine, err := secure.NewEngine(key)
	if err != nil {
		log.Fatal().Err(err).Msg("init cipher")
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	defer db.Close()

	blobs, err := blob.Open(cfg.BlobDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.BlobDir).Msg("open blob store")
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.Addr).Msg("listen")
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("shutting down")
		ln.Close()
	}()

	log.Info().Str("addr", cfg.Addr).Msg("catalog server listening")
	if err := server.Serve(ln, engine, db, blobs, cfg.BatchSize, log); err != nil && !errors.Is(err, net.ErrClosed) {
		log.Error().Err(err).Msg("server stopped")
	}
}
