//go:build linux

package engine

import (
	"os"
	"testing"
	"time"
)

func newNonblockPair(t *testing.T, maxBytes int) (*nonblockReader, *os.File, *os.File) {
	t.Helper()
	outR, outW, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	r, err := newNonblockReader(outR, errR, maxBytes, 64)
	if err != nil {
		t.Fatalf("newNonblockReader: %v", err)
	}
	return r, outW, errW
}

func TestNonblockReaderTick(t *testing.T) {
	r, outW, errW := newNonblockPair(t, 1024)
	defer errW.Close()

	if _, err := outW.Write([]byte("chunk")); err != nil {
		t.Fatalf("write: %v", err)
	}
	r.tick()
	if r.stdout() != "chunk" {
		t.Fatalf("stdout = %q, want %q", r.stdout(), "chunk")
	}

	// Nothing buffered: the tick must return immediately without error.
	start := time.Now()
	r.tick()
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("empty tick took %v, want immediate", elapsed)
	}
	outW.Close()
	r.join(0)
}

func TestNonblockReaderJoinDrainsRemainder(t *testing.T) {
	r, outW, errW := newNonblockPair(t, 4096)

	// Bytes written after the last tick must still make it into the result.
	if _, err := outW.Write([]byte("late bytes")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := errW.Write([]byte("late err")); err != nil {
		t.Fatalf("write: %v", err)
	}
	outW.Close()
	errW.Close()

	r.join(0)
	if r.stdout() != "late bytes" {
		t.Fatalf("stdout = %q, want %q", r.stdout(), "late bytes")
	}
	if r.stderr() != "late err" {
		t.Fatalf("stderr = %q, want %q", r.stderr(), "late err")
	}
}

func TestNonblockReaderCap(t *testing.T) {
	r, outW, errW := newNonblockPair(t, 100)

	if _, err := outW.Write(make([]byte, 2000)); err != nil {
		t.Fatalf("write: %v", err)
	}
	outW.Close()
	errW.Close()

	for i := 0; i < 50; i++ {
		r.tick()
	}
	r.join(0)
	if n := len(r.stdout()); n > 100+64 {
		t.Fatalf("stdout length = %d, want <= %d", n, 100+64)
	}
}
