// Package proto implements the catalog application protocol: an encrypted,
// length-prefixed frame transport with per-segment acknowledgments and
// frame-level retransmission, a typed value codec on top of it, the closed
// command/signal sets, and the batch streaming state machine.
//
// Both endpoints run the same code; for any given message one side is the
// sender and the other the receiver. The protocol is strictly half-duplex:
// every send is paired with acknowledgments from the peer, so the two sides
// always agree on whose turn it is to write.
package proto

import "errors"

// ErrConnClosed: the peer is gone (EOF or zero-length read). Fatal to the
// session; never retried.
var ErrConnClosed = errors.New("proto: connection closed")

// ErrDesync: the stream no longer lines up with the protocol (bad ack bytes,
// unexpected signal, oversized length field). There is no resynchronization
// point mid-stream, so the session must be torn down.
var ErrDesync = errors.New("proto: protocol desynchronized")

// ErrValueRange: a value cannot be represented in its wire encoding, e.g. a
// list element outside 0..255.
var ErrValueRange = errors.New("proto: value out of encodable range")

// ErrUnknownSignal / ErrUnknownCommand: the peer sent a string outside the
// closed enumeration. Both are desynchronization errors.
var ErrUnknownSignal = errors.New("proto: unknown signal")
var ErrUnknownCommand = errors.New("proto: unknown command")
