package proto

import "fmt"

// DefaultBatchSize is the record count per batch unless configured otherwise.
const DefaultBatchSize = 5

// Record is one streamed catalog entry: an identified, priced item with an
// attached blob and a stocked quantity.
type Record struct {
	ID       int
	Blob     []byte
	Name     string
	Cost     float32
	Quantity int
}

// Source materializes pages of records for streaming. Page results must be
// stable across calls within one streaming session.
type Source interface {
	Count() (int, error)
	Page(offset, limit int) ([]Record, error)
}

// Sink consumes streamed batches. Continue is asked only when the source has
// more records to offer after the batch just delivered.
type Sink interface {
	HandleBatch(batch []Record) error
	Continue() (bool, error)
}

// StreamState is the batch streaming state. The wire carries no state tag;
// both endpoints derive the state from the signals already exchanged, and the
// streamer tracks it explicitly so an illegal ordering fails loudly instead
// of silently desynchronizing.
type StreamState uint8

const (
	StateNotStarted StreamState = iota
	StateInBatch
	StateBetweenBatches
	StateEnded
)

var streamStateNames = [...]string{"NOT_STARTED", "IN_BATCH", "BETWEEN_BATCHES", "ENDED"}

func (s StreamState) String() string {
	if int(s) < len(streamStateNames) {
		return streamStateNames[s]
	}
	return fmt.Sprintf("StreamState(%d)", uint8(s))
}

var streamTransitions = map[StreamState][]StreamState{
	StateNotStarted:     {StateInBatch, StateEnded},
	StateInBatch:        {StateBetweenBatches, StateEnded},
	StateBetweenBatches: {StateInBatch, StateEnded},
}

// Streamer runs one side of a batch streaming session. A Streamer is
// session-scoped: construct one per Send or Receive.
type Streamer struct {
	c         *Codec
	batchSize int
	state     StreamState
}

// NewStreamer builds a streamer over codec; batchSize <= 0 selects
// DefaultBatchSize.
func NewStreamer(c *Codec, batchSize int) *Streamer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Streamer{c: c, batchSize: batchSize, state: StateNotStarted}
}

// State reports the streamer's current state.
func (s *Streamer) State() StreamState { return s.state }

func (s *Streamer) transition(to StreamState) error {
	for _, next := range streamTransitions[s.state] {
		if next == to {
			s.state = to
			return nil
		}
	}
	return fmt.Errorf("%w: stream transition %s -> %s", ErrDesync, s.state, to)
}

// Send streams every record of src in batches, honoring the sink's decision
// at each continuation point. Remaining records are discarded if the peer
// ends the transfer early.
func (s *Streamer) Send(src Source) error {
	total, err := src.Count()
	if err != nil {
		return err
	}
	if total == 0 {
		if err := s.c.SendSignal(SignalNoResults); err != nil {
			return err
		}
		return s.transition(StateEnded)
	}
	if err := s.c.SendSignal(SignalSearchResults); err != nil {
		return err
	}
	if err := s.c.SendSignal(SignalStartTransfer); err != nil {
		return err
	}

	sent := 0
	for {
		if err := s.transition(StateInBatch); err != nil {
			return err
		}
		page, err := src.Page(sent, s.batchSize)
		if err != nil {
			return err
		}
		if err := s.sendBatch(page); err != nil {
			return err
		}
		sent += len(page)

		// A final page, even a partial non-empty one, ends the transfer
		// without a continuation round-trip.
		if sent >= total || len(page) == 0 {
			if err := s.c.SendSignal(SignalEndTransfer); err != nil {
				return err
			}
			return s.transition(StateEnded)
		}
		if err := s.transition(StateBetweenBatches); err != nil {
			return err
		}
		if err := s.c.SendSignal(SignalContinueTransfer); err != nil {
			return err
		}
		reply, err := s.c.ReceiveSignal()
		if err != nil {
			return err
		}
		switch reply {
		case SignalContinueTransfer:
		case SignalEndTransfer:
			return s.transition(StateEnded)
		default:
			return fmt.Errorf("%w: %s at continuation point", ErrDesync, reply)
		}
	}
}

func (s *Streamer) sendBatch(page []Record) error {
	if err := s.c.SendSignal(SignalStartBatch); err != nil {
		return err
	}
	for _, r := range page {
		if err := s.c.SendSignal(SignalContinueBatch); err != nil {
			return err
		}
		if err := s.sendRecord(r); err != nil {
			return err
		}
	}
	return s.c.SendSignal(SignalEndBatch)
}

func (s *Streamer) sendRecord(r Record) error {
	if err := s.c.SendInt(r.ID); err != nil {
		return err
	}
	if err := s.c.SendBytes(r.Blob); err != nil {
		return err
	}
	if err := s.c.SendString(r.Name); err != nil {
		return err
	}
	if err := s.c.SendFloat(r.Cost); err != nil {
		return err
	}
	return s.c.SendInt(r.Quantity)
}

// Receive mirrors Send on the sink side, handing each completed batch to
// sink and relaying its continuation decision. It returns the number of
// records received; zero with a nil error means the source had no results.
func (s *Streamer) Receive(sink Sink) (int, error) {
	avail, err := s.c.ReceiveSignal()
	if err != nil {
		return 0, err
	}
	switch avail {
	case SignalNoResults:
		return 0, s.transition(StateEnded)
	case SignalSearchResults:
	default:
		return 0, fmt.Errorf("%w: %s instead of availability signal", ErrDesync, avail)
	}
	if err := s.expect(SignalStartTransfer); err != nil {
		return 0, err
	}

	received := 0
	for {
		if err := s.transition(StateInBatch); err != nil {
			return received, err
		}
		batch, err := s.receiveBatch()
		if err != nil {
			return received, err
		}
		received += len(batch)
		if err := sink.HandleBatch(batch); err != nil {
			return received, err
		}

		sig, err := s.c.ReceiveSignal()
		if err != nil {
			return received, err
		}
		switch sig {
		case SignalEndTransfer:
			return received, s.transition(StateEnded)
		case SignalContinueTransfer:
			if err := s.transition(StateBetweenBatches); err != nil {
				return received, err
			}
			more, err := sink.Continue()
			if err != nil {
				return received, err
			}
			if !more {
				if err := s.c.SendSignal(SignalEndTransfer); err != nil {
					return received, err
				}
				return received, s.transition(StateEnded)
			}
			if err := s.c.SendSignal(SignalContinueTransfer); err != nil {
				return received, err
			}
		default:
			return received, fmt.Errorf("%w: %s after batch", ErrDesync, sig)
		}
	}
}

func (s *Streamer) receiveBatch() ([]Record, error) {
	if err := s.expect(SignalStartBatch); err != nil {
		return nil, err
	}
	var batch []Record
	for {
		sig, err := s.c.ReceiveSignal()
		if err != nil {
			return nil, err
		}
		switch sig {
		case SignalEndBatch:
			return batch, nil
		case SignalContinueBatch:
			r, err := s.receiveRecord()
			if err != nil {
				return nil, err
			}
			batch = append(batch, r)
		default:
			return nil, fmt.Errorf("%w: %s inside batch", ErrDesync, sig)
		}
	}
}

func (s *Streamer) receiveRecord() (Record, error) {
	var r Record
	var err error
	if r.ID, err = s.c.ReceiveInt(); err != nil {
		return r, err
	}
	if r.Blob, err = s.c.ReceiveBytes(); err != nil {
		return r, err
	}
	if r.Name, err = s.c.ReceiveString(); err != nil {
		return r, err
	}
	if r.Cost, err = s.c.ReceiveFloat(); err != nil {
		return r, err
	}
	r.Quantity, err = s.c.ReceiveInt()
	return r, err
}

func (s *Streamer) expect(want Signal) error {
	got, err := s.c.ReceiveSignal()
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("%w: %s instead of %s", ErrDesync, got, want)
	}
	return nil
}
