// Package bitstream provides a random-access byte window over a possibly
// forward-only source. The window keeps a bounded resident slice of the
// stream, grows on demand, and evicts only the prefix its owner has committed
// via the discard watermark.
package bitstream

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/dgorgone/nlayer/internal/metrics"
)

const (
	initialCapacity = 8192
	maxCapacity     = 16384
)

// ErrBackwardSeek is returned for a random-access request into an
// already-discarded region of a forward-only source.
var ErrBackwardSeek = errors.New("bitstream: backward read on a forward-only source")

// SourceError wraps a failed read or seek on the underlying source.
type SourceError struct {
	Offset int64
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("bitstream: source failure at offset %d: %v", e.Offset, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// Window serves random byte reads against an underlying source. All state is
// serialized on an internal lock; reads and seeks on the source itself are
// serialized separately on srcMu so owners can position-read concurrently
// with the scanner.
type Window struct {
	mu sync.Mutex

	srcMu  sync.Mutex
	src    io.Reader
	seeker io.Seeker
	srcPos int64

	data       []byte
	base       int64 // absolute offset of data[0]
	end        int   // one past the last valid byte in data
	discardOff int64 // absolute watermark: bytes below it may be evicted

	eofOff int64 // absolute offset of EOF, -1 until observed
}

// New wraps src in a window. Seekability is detected with a type assertion;
// wrap the source to suppress it.
func New(src io.Reader) *Window {
	w := &Window{
		src:    src,
		data:   make([]byte, initialCapacity),
		eofOff: -1,
	}
	if s, ok := src.(io.Seeker); ok {
		w.seeker = s
	}
	metrics.WindowCapacity(initialCapacity)
	return w
}

// CanSeek reports whether the underlying source supports absolute
// positioning.
func (w *Window) CanSeek() bool {
	return w.seeker != nil
}

// EOFOffset returns the position at which the source first reported EOF, or
// -1 if the end has not been observed yet.
func (w *Window) EOFOffset() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.eofOff
}

// DiscardThrough raises the discard watermark. Bytes below off are committed:
// the window may evict them to make room, and on a forward-only source they
// become unreachable.
func (w *Window) DiscardThrough(off int64) {
	w.mu.Lock()
	if off > w.discardOff {
		w.discardOff = off
	}
	w.mu.Unlock()
}

// ReadByte returns the single byte at the absolute offset off.
func (w *Window) ReadByte(off int64) (byte, error) {
	var b [1]byte
	n, err := w.ReadAt(b[:], off)
	if n == 0 {
		if err == nil {
			err = io.EOF
		}
		return 0, err
	}
	return b[0], nil
}

// ReadAt copies the source bytes at absolute positions [off, off+len(p))
// into p. It returns fewer bytes than requested only at EOF, reporting
// io.EOF alongside. A request entirely beyond EOF returns (0, io.EOF).
func (w *Window) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.eofOff >= 0 && off >= w.eofOff {
		return 0, io.EOF
	}

	if off < w.base {
		if w.seeker == nil {
			return 0, ErrBackwardSeek
		}
		if err := w.relocate(off); err != nil {
			return 0, err
		}
	}

	// Request wider than the window may ever grow on a forward-only
	// source: stream it through without retaining, repointing the window
	// past it. Anything up to the cap goes through the normal
	// compact/double path instead.
	if w.seeker == nil && len(p) > maxCapacity {
		return w.streamThrough(p, off)
	}

	// Request starts beyond the resident window and everything resident is
	// already committed: skip straight to it instead of filling the gap.
	if off >= w.base+int64(w.end) && w.discardOff >= w.base+int64(w.end) {
		if err := w.relocate(off); err != nil {
			return 0, err
		}
	}

	// Far-forward request on a seekable source: reseek instead of reading
	// the whole gap into the window.
	if w.seeker != nil && off >= w.base+int64(w.end)+int64(len(w.data)) {
		if err := w.relocate(off); err != nil {
			return 0, err
		}
	}

	want := off + int64(len(p))
	for w.base+int64(w.end) < want {
		if w.eofOff >= 0 && w.base+int64(w.end) >= w.eofOff {
			break
		}
		if err := w.makeRoom(off, len(p)); err != nil {
			return 0, err
		}
		if err := w.fillOnce(); err != nil {
			return 0, err
		}
	}

	if off >= w.base+int64(w.end) {
		return 0, io.EOF
	}
	n := copy(p, w.data[off-w.base:w.end])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// makeRoom guarantees at least one free byte at the tail, honoring the
// growth/compaction policy: compact the committed prefix first, double while
// under the capacity cap, and past the cap truncate a seekable window, with a
// one-shot grow for a single oversized read. A forward-only window at the cap
// with nothing committed is an error.
func (w *Window) makeRoom(off int64, count int) error {
	if len(w.data) > w.end {
		return nil
	}

	// compact the committed prefix
	drop := w.discardOff - w.base
	if drop > int64(w.end) {
		drop = int64(w.end)
	}
	// never evict bytes the pending request still needs
	if max := off - w.base; drop > max {
		drop = max
	}
	if drop > 0 {
		copy(w.data, w.data[drop:w.end])
		w.base += drop
		w.end -= int(drop)
		return nil
	}

	if len(w.data) < maxCapacity {
		grown := make([]byte, len(w.data)*2)
		copy(grown, w.data[:w.end])
		w.data = grown
		metrics.WindowGrow()
		metrics.WindowCapacity(len(w.data))
		return nil
	}

	if w.seeker != nil {
		// abandon resident contents and restart the window at the request
		if err := w.relocate(off); err != nil {
			return err
		}
		// a single read wider than the cap gets a one-shot grow
		if count > len(w.data) {
			c := len(w.data)
			for c < count {
				c *= 2
			}
			w.data = make([]byte, c)
			metrics.WindowGrow()
			metrics.WindowCapacity(c)
		}
		return nil
	}

	// Forward-only at the hard cap with nothing discardable: the owner is
	// holding the entire window. Oversized requests were already diverted,
	// so this is a caller error.
	return fmt.Errorf("bitstream: window exhausted at offset %d (capacity %d, committed %d)",
		off, len(w.data), w.discardOff-w.base)
}

// fillOnce performs one read from the source into the tail of the window.
// The source lock is held only while the source is actually touched.
func (w *Window) fillOnce() error {
	pos := w.base + int64(w.end)

	w.srcMu.Lock()
	defer w.srcMu.Unlock()

	if w.srcPos != pos {
		if w.seeker == nil {
			return fmt.Errorf("bitstream: forward-only source out of position: at %d, need %d", w.srcPos, pos)
		}
		if _, err := w.seeker.Seek(pos, io.SeekStart); err != nil {
			return &SourceError{Offset: pos, Err: err}
		}
		w.srcPos = pos
	}

	n, err := w.src.Read(w.data[w.end:])
	if n > 0 {
		w.end += n
		w.srcPos += int64(n)
	}
	if err != nil {
		if err == io.EOF {
			if w.eofOff < 0 {
				w.eofOff = w.srcPos
			}
			return nil
		}
		return &SourceError{Offset: pos, Err: err}
	}
	if n == 0 {
		if w.eofOff < 0 {
			w.eofOff = w.srcPos
		}
	}
	return nil
}

// relocate abandons the resident contents and repoints the window at off.
// On a seekable source the next fill reseeks; on a forward-only source the
// gap up to off is drained and dropped.
func (w *Window) relocate(off int64) error {
	w.base = off
	w.end = 0
	metrics.WindowTruncate()

	if w.seeker != nil {
		return nil
	}

	w.srcMu.Lock()
	defer w.srcMu.Unlock()
	for w.srcPos < off {
		span := off - w.srcPos
		if span > int64(len(w.data)) {
			span = int64(len(w.data))
		}
		n, err := w.src.Read(w.data[:span])
		w.srcPos += int64(n)
		if err != nil {
			if err == io.EOF {
				if w.eofOff < 0 {
					w.eofOff = w.srcPos
				}
				return nil
			}
			return &SourceError{Offset: w.srcPos, Err: err}
		}
		if n == 0 {
			if w.eofOff < 0 {
				w.eofOff = w.srcPos
			}
			return nil
		}
	}
	return nil
}

// streamThrough serves a forward-only request wider than the window
// capacity: the resident overlap is copied out, the remainder is read
// straight into p, and the window is repointed past the request.
func (w *Window) streamThrough(p []byte, off int64) (int, error) {
	n := 0
	if off < w.base+int64(w.end) {
		n = copy(p, w.data[off-w.base:w.end])
	} else if err := w.relocate(off); err != nil {
		return 0, err
	}

	w.srcMu.Lock()
	for n < len(p) {
		if w.srcPos != off+int64(n) {
			w.srcMu.Unlock()
			return n, fmt.Errorf("bitstream: forward-only source out of position: at %d, need %d", w.srcPos, off+int64(n))
		}
		r, err := w.src.Read(p[n:])
		n += r
		w.srcPos += int64(r)
		if err != nil || r == 0 {
			if err != nil && err != io.EOF {
				w.srcMu.Unlock()
				return n, &SourceError{Offset: w.srcPos, Err: err}
			}
			if w.eofOff < 0 {
				w.eofOff = w.srcPos
			}
			break
		}
	}
	w.srcMu.Unlock()

	w.base = off + int64(n)
	w.end = 0
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
