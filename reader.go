// Package nlayer reads MPEG audio bitstreams. It turns a raw byte stream,
// seekable or forward-only, into an ordered catalog of MPEG audio frames,
// transparently skipping ID3v1/ID3v2 tags, RIFF wrappers and Xing/VBRI
// side-info headers, and recovering frame lengths for free-format streams.
//
// The reader exposes random access by sample number over the catalog and a
// pull-based next-frame interface for downstream decoding.
package nlayer

import (
	"errors"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dgorgone/nlayer/frame"
	"github.com/dgorgone/nlayer/internal/bitstream"
	"github.com/dgorgone/nlayer/internal/logger"
	"github.com/dgorgone/nlayer/internal/metrics"
)

// readToEndRetained is the ceiling on bytes retained across per-frame save
// buffers before ReadToEnd pauses to let the consumer drain, on top of any
// ID3v2 allowance.
const readToEndRetained = 40000

// drainPoll is how long ReadToEnd sleeps while waiting for the consumer.
const drainPoll = 500 * time.Millisecond

// Reader scans an MPEG audio stream and serves its frames. The source is
// exclusively owned by the reader for its lifetime; no external seeks are
// permitted. One goroutine may drive the scanner (ReadToEnd) while another
// consumes frames.
type Reader struct {
	id  string
	log logger.Logger
	win *bitstream.Window

	canSeek bool

	// frameMu serializes scanner mutations and catalog linking. The scanner
	// holds it while reading through the window, so the window's locks,
	// including its source lock, nest inside it and never the other way.
	frameMu sync.Mutex

	id3   *frame.Tag
	id3v1 *frame.Tag
	riff  *frame.Tag
	vbr   *frame.VBRInfo

	first   *frame.Frame
	last    *frame.Frame
	current *frame.Frame

	lastFree       *frame.Frame
	readOffset     int64
	endFound       bool
	mixedFrameSize bool

	// first-frame metadata, immutable after construction; survives the
	// head detach on forward-only sources
	rate     int
	channels int

	savedBytes atomic.Int64
}

// Option configures a Reader.
type Option func(*Reader)

// WithLogger attaches a structured logger. Without it the reader is silent.
func WithLogger(log *logrus.Logger) Option {
	return func(r *Reader) {
		if log != nil {
			r.log = logger.FromLogrus(log)
		}
	}
}

// New wraps src in a Reader. Seekability is detected with a type assertion
// to io.Seeker; wrap the source in ForwardOnly to suppress it. New eagerly
// locates the first two MPEG frames, skipping any leading tag, RIFF or
// side-info content; if it cannot, it returns ErrNotMpegStream.
func New(src io.Reader, opts ...Option) (*Reader, error) {
	r := &Reader{
		id:  uuid.NewString(),
		log: logger.Discard(),
		win: bitstream.New(src),
	}
	r.canSeek = r.win.CanSeek()
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.WithFields(map[string]interface{}{
		"reader_id": r.id,
		"seekable":  r.canSeek,
	})

	r.frameMu.Lock()
	defer r.frameMu.Unlock()

	for i := 0; i < 2; i++ {
		f, err := r.findNextFrame()
		if err != nil {
			return nil, err
		}
		if f == nil {
			return nil, ErrNotMpegStream
		}
	}
	r.current = r.first
	r.rate = r.first.SampleRate
	r.channels = r.first.Channels()

	r.log.WithFields(map[string]interface{}{
		"sample_rate": r.first.SampleRate,
		"channels":    r.first.Channels(),
		"layer":       r.first.Layer.String(),
		"version":     r.first.Version.String(),
		"vbr":         r.vbr != nil,
	}).Info("opened mpeg stream")

	return r, nil
}

// CanSeek reports whether SeekTo is available; it mirrors the source.
func (r *Reader) CanSeek() bool {
	return r.canSeek
}

// SampleRate returns the stream sample rate in Hz, preferring VBR side info
// over the first frame's header.
func (r *Reader) SampleRate() int {
	if r.vbr != nil && r.vbr.SampleRate > 0 {
		return r.vbr.SampleRate
	}
	return r.rate
}

// Channels returns the stream channel count, preferring VBR side info over
// the first frame's header.
func (r *Reader) Channels() int {
	if r.vbr != nil && r.vbr.Channels > 0 {
		return r.vbr.Channels
	}
	return r.channels
}

// FirstFrameSampleCount returns the samples per channel of the first frame,
// or 0 if there is none.
func (r *Reader) FirstFrameSampleCount() int {
	r.frameMu.Lock()
	defer r.frameMu.Unlock()
	if r.first == nil {
		return 0
	}
	return r.first.SampleCount()
}

// VBRInfo returns the stream's VBR side info, or nil on plain CBR streams.
func (r *Reader) VBRInfo() *frame.VBRInfo {
	return r.vbr
}

// TagBytes returns the total bytes accounted to recognized container tags.
func (r *Reader) TagBytes() int64 {
	r.frameMu.Lock()
	defer r.frameMu.Unlock()
	var n int64
	for _, t := range []*frame.Tag{r.id3, r.id3v1, r.riff} {
		if t != nil {
			n += t.Length
		}
	}
	return n
}

// SampleCount returns the total samples per channel in the stream, or a
// negative value when it cannot be known. VBR side info answers without
// scanning; otherwise a seekable stream is scanned to its end, and a
// forward-only stream reports unknown.
func (r *Reader) SampleCount() int64 {
	if r.vbr != nil {
		return r.vbr.StreamSampleCount
	}
	if !r.canSeek {
		return -1
	}
	if err := r.ReadToEnd(); err != nil {
		r.log.WithError(err).Warn("scan to end failed")
		return -1
	}
	r.frameMu.Lock()
	defer r.frameMu.Unlock()
	if r.last == nil {
		return -1
	}
	return r.last.SampleOffset + int64(r.last.SampleCount())
}

// Duration returns the stream duration, or a negative value when the total
// sample count is unknown.
func (r *Reader) Duration() time.Duration {
	total := r.SampleCount()
	sr := r.SampleRate()
	if total < 0 || sr <= 0 {
		return -1
	}
	return time.Duration(total) * time.Second / time.Duration(sr)
}

// SeekTo positions the frame cursor at the frame containing the given
// sample and returns that frame's sample offset, or -1 when the sample lies
// past the end of the stream. The scanner is advanced as needed.
func (r *Reader) SeekTo(sample int64) (int64, error) {
	if !r.canSeek {
		return 0, ErrCannotSeek
	}

	r.frameMu.Lock()
	defer r.frameMu.Unlock()

	f := r.first
	if !r.mixedFrameSize {
		// uniform frames: jump near the target by division
		idx := sample / int64(r.first.SampleCount())
		if r.current != nil && int64(r.current.Number) <= idx && r.current.SampleOffset <= sample {
			f = r.current
		}
		for int64(f.Number) < idx {
			if f == r.last && !r.endFound {
				if _, err := r.findNextFrame(); err != nil {
					return 0, err
				}
			}
			if f.Next == nil {
				break
			}
			f = f.Next
		}
	}

	for sample >= f.SampleOffset+int64(f.SampleCount()) {
		if f == r.last && !r.endFound {
			if _, err := r.findNextFrame(); err != nil {
				return 0, err
			}
		}
		if f.Next == nil {
			return -1, nil
		}
		f = f.Next
	}

	r.current = f
	return f.SampleOffset, nil
}

// NextFrame returns the frame under the cursor and advances it, scanning
// ahead when the catalog is exhausted. It returns nil at the end of the
// stream.
//
// On a seekable source the frame's bytes are copied into its own buffer and
// the window is allowed to discard them. On a forward-only source the
// consumed head is detached from the catalog; the caller owns its lifetime.
func (r *Reader) NextFrame() (*frame.Frame, error) {
	r.frameMu.Lock()
	defer r.frameMu.Unlock()

	f := r.current
	if f == nil {
		return nil, nil
	}

	if r.canSeek && f.Length > 0 {
		if err := f.SaveBuffer(); err != nil {
			return nil, err
		}
		r.discardTo(f.Offset + f.Length)
	}

	if f == r.last && !r.endFound {
		if _, err := r.findNextFrame(); err != nil {
			return nil, err
		}
	}
	r.current = f.Next

	if !r.canSeek {
		r.first = f.Next
		f.Next = nil
		r.addSavedBytes(-int64(f.SavedBytes()))
	}

	return f, nil
}

// ReadToEnd drives the scanner until the end of the stream is found. On a
// forward-only source it pauses whenever the bytes retained across frame
// save buffers exceed the drain threshold, resuming as the consumer takes
// frames off with NextFrame.
//
// A source torn down externally mid-scan is treated as a normal abort.
func (r *Reader) ReadToEnd() error {
	for {
		r.frameMu.Lock()
		if r.endFound {
			r.frameMu.Unlock()
			return nil
		}
		_, err := r.findNextFrame()
		threshold := int64(readToEndRetained)
		if r.id3 != nil {
			threshold += r.id3.Length
		}
		r.frameMu.Unlock()

		if err != nil {
			if errors.Is(err, os.ErrClosed) {
				r.log.Debug("source closed during scan")
				return nil
			}
			return err
		}

		if !r.canSeek {
			for r.savedBytes.Load() > threshold {
				time.Sleep(drainPoll)
			}
		}
	}
}

func (r *Reader) addSavedBytes(n int64) {
	v := r.savedBytes.Add(n)
	metrics.SavedBufferBytes(r.id, v)
}
