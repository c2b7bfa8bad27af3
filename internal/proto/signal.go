package proto

import "fmt"

// Signal is a protocol control symbol. Signals travel as their literal name
// strings on the wire; anything outside the closed set is a protocol error.
type Signal uint8

const (
	// operation outcomes
	SignalSuccess Signal = iota + 1
	SignalFailure

	// list transmission discriminator
	SignalEmpty
	SignalPopulated

	// batch streaming
	SignalNoResults
	SignalSearchResults
	SignalStartTransfer
	SignalContinueTransfer
	SignalEndTransfer
	SignalStartBatch
	SignalContinueBatch
	SignalEndBatch
)

var signalNames = map[Signal]string{
	SignalSuccess:          "SUCCESS",
	SignalFailure:          "FAILURE",
	SignalEmpty:            "EMPTY",
	SignalPopulated:        "POPULATED",
	SignalNoResults:        "NO_RESULTS",
	SignalSearchResults:    "SEARCH_RESULTS",
	SignalStartTransfer:    "START_TRANSFER",
	SignalContinueTransfer: "CONTINUE_TRANSFER",
	SignalEndTransfer:      "END_TRANSFER",
	SignalStartBatch:       "START_BATCH",
	SignalContinueBatch:    "CONTINUE_BATCH",
	SignalEndBatch:         "END_BATCH",
}

var signalValues = make(map[string]Signal, len(signalNames))

func init() {
	for s, name := range signalNames {
		signalValues[name] = s
	}
}

func (s Signal) String() string {
	if name, ok := signalNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Signal(%d)", uint8(s))
}

// ParseSignal maps a wire string back to its signal.
func ParseSignal(name string) (Signal, error) {
	if s, ok := signalValues[name]; ok {
		return s, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSignal, name)
}
