package proto

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Codec maps typed values to and from frame payloads. Every value occupies
// exactly one frame, except lists, which send an EMPTY/POPULATED
// discriminator frame first and the packed elements only when non-empty.
//
// Integers travel as 4-byte big-endian two's-complement. Callers pass int for
// convenience; values outside 32 bits are truncated at this boundary, which
// is accepted protocol behavior.
type Codec struct {
	t *Transport
}

// NewCodec builds a codec over a transport.
func NewCodec(t *Transport) *Codec { return &Codec{t: t} }

// Transport returns the underlying framed transport.
func (c *Codec) Transport() *Transport { return c.t }

// SendInt transmits v truncated to 32 bits.
func (c *Codec) SendInt(v int) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	return c.t.Send(b[:])
}

// ReceiveInt reads a 32-bit integer, sign-extended to int.
func (c *Codec) ReceiveInt() (int, error) {
	b, err := c.t.Receive()
	if err != nil {
		return 0, err
	}
	if len(b) != 4 {
		return 0, fmt.Errorf("%w: integer payload of %d bytes", ErrDesync, len(b))
	}
	return int(int32(binary.BigEndian.Uint32(b))), nil
}

// SendFloat transmits a single-precision float.
func (c *Codec) SendFloat(v float32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], math.Float32bits(v))
	return c.t.Send(b[:])
}

// ReceiveFloat reads a single-precision float.
func (c *Codec) ReceiveFloat() (float32, error) {
	b, err := c.t.Receive()
	if err != nil {
		return 0, err
	}
	if len(b) != 4 {
		return 0, fmt.Errorf("%w: float payload of %d bytes", ErrDesync, len(b))
	}
	return math.Float32frombits(binary.BigEndian.Uint32(b)), nil
}

// SendString transmits s as UTF-8 bytes; the frame's own length field bounds
// it, so there is no terminator or extra prefix.
func (c *Codec) SendString(s string) error {
	return c.t.Send([]byte(s))
}

// ReceiveString reads a UTF-8 string.
func (c *Codec) ReceiveString() (string, error) {
	b, err := c.t.Receive()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// SendBytes transmits an opaque blob.
func (c *Codec) SendBytes(b []byte) error { return c.t.Send(b) }

// ReceiveBytes reads an opaque blob.
func (c *Codec) ReceiveBytes() ([]byte, error) { return c.t.Receive() }

// SendByteList transmits a list of small integers. Each element must fit one
// byte (0..255); that is a hard limit of the encoding, not a truncation.
func (c *Codec) SendByteList(vals []int) error {
	if len(vals) == 0 {
		return c.SendSignal(SignalEmpty)
	}
	packed := make([]byte, len(vals))
	for i, v := range vals {
		if v < 0 || v > 0xff {
			return fmt.Errorf("%w: list element %d", ErrValueRange, v)
		}
		packed[i] = byte(v)
	}
	if err := c.SendSignal(SignalPopulated); err != nil {
		return err
	}
	return c.t.Send(packed)
}

// ReceiveByteList reads a list of small integers; nil for an empty list.
func (c *Codec) ReceiveByteList() ([]int, error) {
	sig, err := c.ReceiveSignal()
	if err != nil {
		return nil, err
	}
	switch sig {
	case SignalEmpty:
		return nil, nil
	case SignalPopulated:
	default:
		return nil, fmt.Errorf("%w: %s instead of list discriminator", ErrDesync, sig)
	}
	packed, err := c.t.Receive()
	if err != nil {
		return nil, err
	}
	vals := make([]int, len(packed))
	for i, b := range packed {
		vals[i] = int(b)
	}
	return vals, nil
}

// SendSignal transmits a signal as its name string.
func (c *Codec) SendSignal(s Signal) error { return c.SendString(s.String()) }

// ReceiveSignal reads and validates a signal.
func (c *Codec) ReceiveSignal() (Signal, error) {
	s, err := c.ReceiveString()
	if err != nil {
		return 0, err
	}
	return ParseSignal(s)
}

// SendCommand transmits a command as its name string.
func (c *Codec) SendCommand(cmd Command) error { return c.SendString(cmd.String()) }

// ReceiveCommand reads and validates a command.
func (c *Codec) ReceiveCommand() (Command, error) {
	s, err := c.ReceiveString()
	if err != nil {
		return 0, err
	}
	return ParseCommand(s)
}
