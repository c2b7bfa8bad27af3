package proto

import (
	"bytes"
	"errors"
	"net"
	"testing"
)

func codecPair(t *testing.T) (*Codec, *Codec) {
	t.Helper()
	e := testEngine(t)
	c1, c2 := net.Pipe()
	t.Cleanup(func() {
		c1.Close()
		c2.Close()
	})
	return NewCodec(NewTransport(c1, e)), NewCodec(NewTransport(c2, e))
}

func TestIntRoundTrip(t *testing.T) {
	a, b := codecPair(t)
	for _, v := range []int{0, 1, -1, 42, -99999, 1<<31 - 1, -(1 << 31)} {
		errc := make(chan error, 1)
		go func() { errc <- a.SendInt(v) }()
		got, err := b.ReceiveInt()
		if err != nil {
			t.Fatal(err)
		}
		if err := <-errc; err != nil {
			t.Fatal(err)
		}
		if got != v {
			t.Fatalf("int roundtrip: sent %d, got %d", v, got)
		}
	}
}

func TestIntTruncatesTo32Bits(t *testing.T) {
	a, b := codecPair(t)
	errc := make(chan error, 1)
	go func() { errc <- a.SendInt(1<<40 + 7) }()
	got, err := b.ReceiveInt()
	if err != nil {
		t.Fatal(err)
	}
	if err := <-errc; err != nil {
		t.Fatal(err)
	}
	// values beyond 32 bits lose their high bits at the wire boundary
	if got != 7 {
		t.Fatalf("truncation: got %d, want 7", got)
	}
}

func TestFloatRoundTrip(t *testing.T) {
	a, b := codecPair(t)
	for _, v := range []float32{0, 1.5, -2.25, 19.99, 3.1415927} {
		errc := make(chan error, 1)
		go func() { errc <- a.SendFloat(v) }()
		got, err := b.ReceiveFloat()
		if err != nil {
			t.Fatal(err)
		}
		if err := <-errc; err != nil {
			t.Fatal(err)
		}
		if got != v {
			t.Fatalf("float roundtrip: sent %v, got %v", v, got)
		}
	}
}

func TestStringRoundTrip(t *testing.T) {
	a, b := codecPair(t)
	for _, v := range []string{"", "plain", "naïve café 日本語"} {
		errc := make(chan error, 1)
		go func() { errc <- a.SendString(v) }()
		got, err := b.ReceiveString()
		if err != nil {
			t.Fatal(err)
		}
		if err := <-errc; err != nil {
			t.Fatal(err)
		}
		if got != v {
			t.Fatalf("string roundtrip: sent %q, got %q", v, got)
		}
	}
}

func TestBytesRoundTrip(t *testing.T) {
	a, b := codecPair(t)
	blob := bytes.Repeat([]byte{0xde, 0xad, 0xbe, 0xef}, 1024)
	errc := make(chan error, 1)
	go func() { errc <- a.SendBytes(blob) }()
	got, err := b.ReceiveBytes()
	if err != nil {
		t.Fatal(err)
	}
	if err := <-errc; err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, blob) {
		t.Fatal("blob roundtrip mismatch")
	}
}

func TestByteListRoundTrip(t *testing.T) {
	a, b := codecPair(t)
	list := []int{1, 2, 3, 17, 255, 0}
	errc := make(chan error, 1)
	go func() { errc <- a.SendByteList(list) }()
	got, err := b.ReceiveByteList()
	if err != nil {
		t.Fatal(err)
	}
	if err := <-errc; err != nil {
		t.Fatal(err)
	}
	if len(got) != len(list) {
		t.Fatalf("list roundtrip: got %v", got)
	}
	for i := range list {
		if got[i] != list[i] {
			t.Fatalf("list roundtrip: got %v", got)
		}
	}
}

func TestByteListEmpty(t *testing.T) {
	a, b := codecPair(t)
	errc := make(chan error, 1)
	go func() { errc <- a.SendByteList(nil) }()
	got, err := b.ReceiveByteList()
	if err != nil {
		t.Fatal(err)
	}
	if err := <-errc; err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("empty list roundtrip: got %v", got)
	}
}

func TestByteListElementOutOfRange(t *testing.T) {
	a, _ := codecPair(t)
	// validation happens before anything hits the wire
	if err := a.SendByteList([]int{1, 300}); !errors.Is(err, ErrValueRange) {
		t.Fatalf("oversized element: got %v, want ErrValueRange", err)
	}
	if err := a.SendByteList([]int{-1}); !errors.Is(err, ErrValueRange) {
		t.Fatalf("negative element: got %v, want ErrValueRange", err)
	}
}

func TestSignalRoundTrip(t *testing.T) {
	a, b := codecPair(t)
	for sig := range signalNames {
		errc := make(chan error, 1)
		go func() { errc <- a.SendSignal(sig) }()
		got, err := b.ReceiveSignal()
		if err != nil {
			t.Fatal(err)
		}
		if err := <-errc; err != nil {
			t.Fatal(err)
		}
		if got != sig {
			t.Fatalf("signal roundtrip: sent %s, got %s", sig, got)
		}
	}
}

func TestCommandRoundTrip(t *testing.T) {
	a, b := codecPair(t)
	for cmd := range commandNames {
		errc := make(chan error, 1)
		go func() { errc <- a.SendCommand(cmd) }()
		got, err := b.ReceiveCommand()
		if err != nil {
			t.Fatal(err)
		}
		if err := <-errc; err != nil {
			t.Fatal(err)
		}
		if got != cmd {
			t.Fatalf("command roundtrip: sent %s, got %s", cmd, got)
		}
	}
}

func TestUnknownSignalIsProtocolError(t *testing.T) {
	a, b := codecPair(t)
	errc := make(chan error, 1)
	go func() { errc <- a.SendString("TOTALLY_BOGUS") }()
	_, err := b.ReceiveSignal()
	if !errors.Is(err, ErrUnknownSignal) {
		t.Fatalf("unknown signal string: got %v", err)
	}
	if err := <-errc; err != nil {
		t.Fatal(err)
	}
}

func TestUnknownCommandIsProtocolError(t *testing.T) {
	a, b := codecPair(t)
	errc := make(chan error, 1)
	go func() { errc <- a.SendString("FORMAT_DISK") }()
	_, err := b.ReceiveCommand()
	if !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("unknown command string: got %v", err)
	}
	if err := <-errc; err != nil {
		t.Fatal(err)
	}
}
