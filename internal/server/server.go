package server

import (
	"errors"
	"net"

	"github.com/rs/zerolog"

	"dev.c0redev.catalog/internal/blob"
	"dev.c0redev.catalog/internal/proto"
	"dev.c0redev.catalog/internal/secure"
	"dev.c0redev.catalog/internal/store"
)

// Serve accepts connections on ln and runs one session goroutine per client
// until Accept fails (listener closed). Sessions are independent; the engine
// and database are the only shared state.
func Serve(ln net.Listener, engine *secure.Engine, db *store.DB, blobs *blob.Store, batchSize int, log zerolog.Logger) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go func(conn net.Conn) {
			slog := log.With().Str("client", conn.RemoteAddr().String()).Logger()
			slog.Info().Msg("client connected")
			err := NewCommander(conn, engine, db, blobs, batchSize, slog).Run()
			switch {
			case err == nil, errors.Is(err, proto.ErrConnClosed):
				// clean exit or the peer went away; either way the session
				// is over and the server moves on
				slog.Info().Msg("client disconnected")
			default:
				slog.Error().Err(err).Msg("session aborted")
			}
		}(conn)
	}
}
