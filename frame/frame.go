// Package frame implements candidate recognition and validation for the
// objects that make up an MPEG audio bitstream: audio frames, ID3v1/ID3v2
// tags, RIFF wrappers and Xing/VBRI side-info headers.
//
// Candidates are materialized from a 4-byte sync word bound to an absolute
// stream offset, then validated against further bytes read through an
// io.ReaderAt (typically the reader's window buffer).
package frame

import (
	"fmt"
	"io"
)

// Frame is one MPEG audio frame located in the stream. The scanner fills in
// Number and SampleOffset as the frame is appended to the catalog; Next links
// the catalog forward and is owned exclusively by the reader.
type Frame struct {
	Header

	// Offset is the absolute byte position of the 4-byte sync header.
	Offset int64
	// Length is the byte count from sync through end of frame. For
	// free-format frames it stays 0 until the next sync is located.
	Length int64
	// Number is the 0-based position in the catalog.
	Number int
	// SampleOffset is the cumulative sample count of all prior frames.
	SampleOffset int64
	// Next links to the following frame in the catalog.
	Next *Frame

	word  uint32
	src   io.ReaderAt
	saved []byte
}

// Sync materializes an MPEG frame candidate if word carries the 11-bit sync
// pattern. The candidate reads further bytes through src during validation
// and later through ReadAt.
func Sync(word uint32, off int64, src io.ReaderAt) *Frame {
	if !IsSync(word) {
		return nil
	}
	return &Frame{Offset: off, word: word, src: src}
}

// Validate parses the full header and computes the frame length. It returns
// true only if the header is well-formed.
func (f *Frame) Validate() bool {
	h, ok := ParseHeader(f.word)
	if !ok {
		return false
	}
	f.Header = h
	f.Length = h.headerLength()
	return true
}

// SaveBuffer copies the frame's bytes into self-owned storage so they remain
// readable after the window buffer discards them.
func (f *Frame) SaveBuffer() error {
	if f.saved != nil || f.Length <= 0 {
		return nil
	}
	buf := make([]byte, f.Length)
	n, err := f.src.ReadAt(buf, f.Offset)
	if err != nil && err != io.EOF {
		return err
	}
	f.saved = buf[:n]
	return nil
}

// SavedBytes returns the number of bytes held in self-owned storage.
func (f *Frame) SavedBytes() int {
	return len(f.saved)
}

// ReadAt reads the frame's bytes at the given offset relative to the frame
// start. It serves from the self-owned buffer when one was saved, otherwise
// through the backing source.
func (f *Frame) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("frame %d: negative read offset %d", f.Number, off)
	}
	if f.saved != nil {
		if off >= int64(len(f.saved)) {
			return 0, io.EOF
		}
		n := copy(p, f.saved[off:])
		if n < len(p) {
			return n, io.EOF
		}
		return n, nil
	}
	clipped := false
	if f.Length > 0 {
		if off >= f.Length {
			return 0, io.EOF
		}
		if rem := f.Length - off; int64(len(p)) > rem {
			p = p[:rem]
			clipped = true
		}
	}
	n, err := f.src.ReadAt(p, f.Offset+off)
	if err == nil && clipped {
		err = io.EOF
	}
	return n, err
}
