//go:build linux

package engine

import (
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// nonblockReader drains both streams from the control loop itself: one
// bounded read per stream per tick against file descriptors in non-blocking
// mode. An empty or would-block read is not an error.
type nonblockReader struct {
	outFD  int
	errFD  int
	out    *capture
	errCap *capture
	buf    []byte
	closed bool

	// the *os.File values keep the descriptors alive; Fd() has detached
	// them from the runtime poller.
	outFile *os.File
	errFile *os.File
}

func newNonblockReader(stdoutPipe, stderrPipe *os.File, maxBytes, chunkSize int) (*nonblockReader, error) {
	outFD := int(stdoutPipe.Fd())
	errFD := int(stderrPipe.Fd())
	if err := unix.SetNonblock(outFD, true); err != nil {
		return nil, err
	}
	if err := unix.SetNonblock(errFD, true); err != nil {
		return nil, err
	}
	return &nonblockReader{
		outFD:   outFD,
		errFD:   errFD,
		out:     &capture{max: maxBytes},
		errCap:  &capture{max: maxBytes},
		buf:     make([]byte, chunkSize),
		outFile: stdoutPipe,
		errFile: stderrPipe,
	}, nil
}

func (r *nonblockReader) tick() {
	if r.closed {
		return
	}
	r.read(r.outFD, r.out)
	r.read(r.errFD, r.errCap)
}

// read performs one bounded read. Bytes past the cap are read but discarded
// so the pipe keeps draining.
func (r *nonblockReader) read(fd int, c *capture) {
	n, err := unix.Read(fd, r.buf)
	if err != nil || n <= 0 {
		// EAGAIN, EOF or a broken pipe: nothing to append this tick.
		return
	}
	c.accept(r.buf[:n])
}

// join scoops any bytes still buffered in the pipes, then closes them. The
// drain is bounded: it stops on would-block, end of stream, or a full cap
// with an idle pipe.
func (r *nonblockReader) join(time.Duration) {
	if r.closed {
		return
	}
	r.closed = true
	for _, s := range []struct {
		fd int
		c  *capture
	}{{r.outFD, r.out}, {r.errFD, r.errCap}} {
		for !s.c.full() {
			n, err := unix.Read(s.fd, r.buf)
			if err != nil || n <= 0 {
				break
			}
			s.c.accept(r.buf[:n])
		}
	}
	_ = r.outFile.Close()
	_ = r.errFile.Close()
}

func (r *nonblockReader) stdout() string { return r.out.text() }
func (r *nonblockReader) stderr() string { return r.errCap.text() }
