package engine

import (
	"bytes"
	"os"
	"strings"
	"time"
	"unicode/utf8"
)

// streamReader moves bytes from the child's output pipes into in-memory
// buffers without letting the child block on a full pipe. Implementations:
// nonblockReader (per-tick bounded reads driven by the control loop) and
// workerReader (two background blocking drainers).
type streamReader interface {
	// tick performs one bounded read per stream on the non-blocking path.
	tick()
	// join stops capture and waits at most wait for background drainers.
	join(wait time.Duration)
	stdout() string
	stderr() string
}

// capture accumulates one stream under a hard byte cap. Each capture is
// written by exactly one owning reader and read only after that reader has
// been joined, so no locking is needed.
type capture struct {
	buf bytes.Buffer
	n   int
	max int
}

// accept appends a chunk unless the cap was already reached. A single chunk
// may overshoot the cap; everything after that is discarded.
func (c *capture) accept(chunk []byte) {
	if len(chunk) == 0 || c.n >= c.max {
		return
	}
	c.buf.Write(chunk)
	c.n += len(chunk)
}

func (c *capture) full() bool {
	return c.n >= c.max
}

// text decodes the captured bytes as UTF-8, replacing invalid sequences.
func (c *capture) text() string {
	return strings.ToValidUTF8(c.buf.String(), string(utf8.RuneError))
}

// workerReader drains both streams with dedicated goroutines performing
// blocking reads. Used where pipes cannot be put in non-blocking mode, or
// when the engine is configured for it explicitly.
type workerReader struct {
	out     *capture
	errCap  *capture
	outDone chan struct{}
	errDone chan struct{}
}

func newWorkerReader(stdoutPipe, stderrPipe *os.File, maxBytes, chunkSize int) *workerReader {
	w := &workerReader{
		out:     &capture{max: maxBytes},
		errCap:  &capture{max: maxBytes},
		outDone: make(chan struct{}),
		errDone: make(chan struct{}),
	}
	go drain(stdoutPipe, w.out, chunkSize, w.outDone)
	go drain(stderrPipe, w.errCap, chunkSize, w.errDone)
	return w
}

// drain reads the stream until its cap is reached or the stream closes. A
// read error simply ends that stream's capture.
func drain(f *os.File, c *capture, chunkSize int, done chan struct{}) {
	defer close(done)
	defer f.Close()
	buf := make([]byte, chunkSize)
	for !c.full() {
		n, err := f.Read(buf)
		c.accept(buf[:n])
		if err != nil {
			return
		}
	}
}

func (w *workerReader) tick() {}

func (w *workerReader) join(wait time.Duration) {
	deadline := time.After(wait)
	for _, done := range []chan struct{}{w.outDone, w.errDone} {
		select {
		case <-done:
		case <-deadline:
			return
		}
	}
}

func (w *workerReader) stdout() string { return w.out.text() }
func (w *workerReader) stderr() string { return w.errCap.text() }
