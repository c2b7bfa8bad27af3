package proto

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"dev.c0redev.catalog/internal/secure"
)

// Wire layout per frame, big-endian throughout:
//
//	[ciphertext_length: 8][ciphertext: n][tag: 16][nonce: 24]
//
// Each of the four segments is followed by a 3-byte acknowledgment code from
// the receiver, and the whole frame by one final verdict code: AckOK to
// accept, AckRetry to request retransmission of the identical frame.
const (
	LengthSize = 8
	AckSize    = 3

	// MaxPayloadSize bounds the length field on receive; anything larger is
	// treated as desynchronization, not a real frame.
	MaxPayloadSize = 16 << 20
)

var (
	ackOK    = [AckSize]byte{'a', 'c', 'k'}
	ackRetry = [AckSize]byte{'e', 'r', 'r'}
)

// Transport delivers one opaque payload per Send/Receive over a stream
// connection, retrying at the frame level on authentication failure.
// Physical I/O failure is fatal and surfaces as ErrConnClosed.
type Transport struct {
	conn   io.ReadWriteCloser
	engine *secure.Engine
}

// NewTransport wraps an established stream connection. The engine is
// constructed once per process from the shared key and injected here.
func NewTransport(conn io.ReadWriteCloser, engine *secure.Engine) *Transport {
	return &Transport{conn: conn, engine: engine}
}

// Send encrypts payload and transmits it as one frame, retransmitting the
// identical ciphertext/tag/nonce until the peer acknowledges acceptance.
func (t *Transport) Send(payload []byte) error {
	ciphertext, tag, nonce, err := t.engine.Encrypt(payload)
	if err != nil {
		return err
	}
	var length [LengthSize]byte
	binary.BigEndian.PutUint64(length[:], uint64(len(ciphertext)))

	for {
		if err := t.writeSegment(length[:]); err != nil {
			return err
		}
		if err := t.writeSegment(ciphertext); err != nil {
			return err
		}
		if err := t.writeSegment(tag); err != nil {
			return err
		}
		if err := t.writeSegment(nonce); err != nil {
			return err
		}
		verdict, err := t.readAck()
		if err != nil {
			return err
		}
		if verdict == ackOK {
			return nil
		}
		// peer could not authenticate the frame; retransmit it unchanged
	}
}

// Receive reads frames until one decrypts, requesting retransmission for any
// frame that fails authentication, and returns the plaintext.
func (t *Transport) Receive() ([]byte, error) {
	for {
		var length [LengthSize]byte
		if err := t.readSegment(length[:]); err != nil {
			return nil, err
		}
		n := binary.BigEndian.Uint64(length[:])
		if n > MaxPayloadSize {
			return nil, fmt.Errorf("%w: frame length %d", ErrDesync, n)
		}
		ciphertext := make([]byte, n)
		if err := t.readSegment(ciphertext); err != nil {
			return nil, err
		}
		tag := make([]byte, secure.TagSize)
		if err := t.readSegment(tag); err != nil {
			return nil, err
		}
		nonce := make([]byte, secure.NonceSize)
		if err := t.readSegment(nonce); err != nil {
			return nil, err
		}

		plaintext, err := t.engine.Decrypt(ciphertext, tag, nonce)
		if errors.Is(err, secure.ErrAuthFailed) {
			if werr := t.writeAck(ackRetry); werr != nil {
				return nil, werr
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		if err := t.writeAck(ackOK); err != nil {
			return nil, err
		}
		return plaintext, nil
	}
}

// Shutdown half-closes both directions then closes the connection. A peer
// that already closed its side is not an error.
func (t *Transport) Shutdown() error {
	type closeWriter interface{ CloseWrite() error }
	type closeReader interface{ CloseRead() error }
	if cw, ok := t.conn.(closeWriter); ok {
		_ = cw.CloseWrite()
	}
	if cr, ok := t.conn.(closeReader); ok {
		_ = cr.CloseRead()
	}
	return t.conn.Close()
}

// writeSegment writes one field and consumes the peer's receipt code.
func (t *Transport) writeSegment(b []byte) error {
	if len(b) > 0 {
		if _, err := t.conn.Write(b); err != nil {
			return fmt.Errorf("%w: %v", ErrConnClosed, err)
		}
	}
	ack, err := t.readAck()
	if err != nil {
		return err
	}
	if ack != ackOK {
		return fmt.Errorf("%w: receipt code %q", ErrDesync, ack[:])
	}
	return nil
}

// readSegment fills b, looping partial reads, then acknowledges receipt.
func (t *Transport) readSegment(b []byte) error {
	if len(b) > 0 {
		if _, err := io.ReadFull(t.conn, b); err != nil {
			return fmt.Errorf("%w: %v", ErrConnClosed, err)
		}
	}
	return t.writeAck(ackOK)
}

func (t *Transport) writeAck(code [AckSize]byte) error {
	if _, err := t.conn.Write(code[:]); err != nil {
		return fmt.Errorf("%w: %v", ErrConnClosed, err)
	}
	return nil
}

func (t *Transport) readAck() ([AckSize]byte, error) {
	var code [AckSize]byte
	if _, err := io.ReadFull(t.conn, code[:]); err != nil {
		return code, fmt.Errorf("%w: %v", ErrConnClosed, err)
	}
	if code != ackOK && code != ackRetry {
		return code, fmt.Errorf("%w: ack bytes %q", ErrDesync, code[:])
	}
	return code, nil
}
