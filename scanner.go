package nlayer

import (
	"encoding/binary"
	"io"

	"github.com/dgorgone/nlayer/frame"
	"github.com/dgorgone/nlayer/internal/metrics"
)

type scanKind uint8

const (
	scanEOF scanKind = iota
	scanMpeg
	scanTag
	scanVBR
)

// scanResult is the tagged variant emitted by one scanner step. Callers
// unwrap by kind.
type scanResult struct {
	kind  scanKind
	frame *frame.Frame
	tag   *frame.Tag
}

// scanStep walks the byte stream from readOffset until it recognizes one
// object: a tag, a side-info header, an MPEG frame, or the end of the
// stream. Unrecognized bytes are skipped one at a time.
//
// The caller must hold frameMu.
//
// A free-format frame that was unresolved on entry is finalized on every
// return path: its length becomes the distance from its sync to the offset
// at which the next valid object (or EOF) was observed.
func (r *Reader) scanStep() (res scanResult, err error) {
	if r.endFound {
		return scanResult{kind: scanEOF}, nil
	}

	freeFrame := r.lastFree
	lastFrameStart := r.readOffset

	defer func() {
		if freeFrame == nil || freeFrame.Length != 0 {
			return
		}
		freeFrame.Length = lastFrameStart - freeFrame.Offset
		if r.lastFree == freeFrame {
			r.lastFree = nil
		}
		if !r.canSeek {
			err = ErrFreeFormatRequiresSeek
			return
		}
		metrics.FreeFormatResolved(r.id)
		r.log.WithFields(map[string]interface{}{
			"offset": freeFrame.Offset,
			"length": freeFrame.Length,
		}).Debug("resolved free-format frame length")
	}()

	var syncBuf [4]byte
	n, rerr := r.win.ReadAt(syncBuf[:], r.readOffset)
	if rerr != nil && rerr != io.EOF {
		return scanResult{}, rerr
	}

	for {
		lastFrameStart = r.readOffset

		if n < 4 {
			r.endFound = true
			if eo := r.win.EOFOffset(); eo >= 0 {
				lastFrameStart = eo
			} else {
				lastFrameStart = r.readOffset + int64(n)
			}
			return scanResult{kind: scanEOF}, nil
		}

		word := binary.BigEndian.Uint32(syncBuf[:])

		// ID3v2 prefix: at most one primary tag; later blocks merge below.
		if r.id3 == nil {
			if tag := frame.SyncTag(word, r.readOffset); tag != nil && tag.Kind == frame.TagID3v2 && tag.Validate(r.win) {
				r.id3 = tag
				r.readOffset += tag.Length
				r.discardTo(r.readOffset)
				metrics.TagSkipped(r.id, tag.Kind.String())
				r.log.WithFields(map[string]interface{}{
					"offset": tag.Offset,
					"length": tag.Length,
				}).Debug("skipped id3v2 tag")
				return scanResult{kind: scanTag, tag: tag}, nil
			}
		}

		// RIFF wrapper: only ahead of the first audio frame.
		if r.first == nil && r.riff == nil {
			if tag := frame.SyncRIFF(word, r.readOffset); tag != nil && tag.Validate(r.win) {
				r.riff = tag
				r.readOffset += tag.Length
				r.discardTo(r.readOffset)
				metrics.TagSkipped(r.id, tag.Kind.String())
				r.log.WithFields(map[string]interface{}{
					"offset": tag.Offset,
					"length": tag.Length,
				}).Debug("skipped riff header")
				return scanResult{kind: scanTag, tag: tag}, nil
			}
		}

		// MPEG frame candidate.
		if cand := frame.Sync(word, r.readOffset, r.win); cand != nil {
			if cand.Validate() && r.matchesFreeFormat(cand) {
				return r.acceptFrame(cand)
			}
		}

		// Mid-stream ID3: a trailing v1 block or a later v2 block.
		if r.first != nil {
			if tag := frame.SyncTag(word, r.readOffset); tag != nil && tag.Validate(r.win) {
				if tag.Kind == frame.TagID3v1 {
					r.id3v1 = tag
				} else {
					r.id3.Merge(tag)
				}
				r.readOffset += tag.Length
				r.discardTo(r.readOffset)
				metrics.TagSkipped(r.id, tag.Kind.String())
				r.log.WithFields(map[string]interface{}{
					"offset": tag.Offset,
					"kind":   tag.Kind.String(),
				}).Debug("skipped mid-stream id3 tag")
				return scanResult{kind: scanTag, tag: tag}, nil
			}
		}

		// Nothing matched: slide the sync window forward one byte.
		r.readOffset++
		r.discardTo(r.readOffset)
		metrics.ResyncBytes(r.id, 1)

		copy(syncBuf[:3], syncBuf[1:])
		b, berr := r.win.ReadByte(r.readOffset + 3)
		if berr != nil {
			if berr == io.EOF {
				n = 3
				continue
			}
			return scanResult{}, berr
		}
		syncBuf[3] = b
		n = 4
	}
}

// matchesFreeFormat applies the format guard: while a free-format frame is
// unresolved, a candidate that disagrees on version, layer or sample rate is
// a payload byte pattern, not a frame. Outside free format the guard never
// fires; streams may legitimately change layer mid-way.
func (r *Reader) matchesFreeFormat(cand *frame.Frame) bool {
	if r.lastFree == nil {
		return true
	}
	return cand.Version == r.lastFree.Version &&
		cand.Layer == r.lastFree.Layer &&
		cand.SampleRate == r.lastFree.SampleRate
}

// acceptFrame finishes one scanner step for a validated MPEG candidate.
// The caller must hold frameMu.
func (r *Reader) acceptFrame(cand *frame.Frame) (scanResult, error) {
	// The first syncable frame may be a Xing/Info/VBRI side-info header
	// rather than audio. Its totals replace the catalog-derived metadata
	// and the frame itself is skipped.
	if r.first == nil {
		if info := cand.ParseVBR(); info != nil {
			r.vbr = info
			r.readOffset += cand.Length
			r.discardTo(r.readOffset)
			r.log.WithFields(map[string]interface{}{
				"offset":  cand.Offset,
				"vbr":     info.VBR,
				"frames":  info.FrameCount,
				"samples": info.StreamSampleCount,
			}).Info("found vbr side-info header")
			return scanResult{kind: scanVBR, frame: cand}, nil
		}
	}

	// On a forward-only source the frame's bytes must be captured before
	// the window rolls past them.
	if !r.canSeek && !cand.FreeFormat() {
		if err := cand.SaveBuffer(); err != nil {
			return scanResult{}, err
		}
		r.addSavedBytes(int64(cand.SavedBytes()))
	}

	r.appendFrame(cand)

	if cand.FreeFormat() {
		r.lastFree = cand
		// length unknown until the next sync; skip only the header
		r.readOffset = cand.Offset + 4
	} else {
		r.readOffset = cand.Offset + cand.Length
		if !r.canSeek {
			// the bytes are saved; let the window evict them
			r.discardTo(r.readOffset)
		}
	}

	metrics.FrameScanned(r.id)
	return scanResult{kind: scanMpeg, frame: cand}, nil
}

// appendFrame links the candidate onto the catalog tail and assigns its
// number and cumulative sample offset.
func (r *Reader) appendFrame(f *frame.Frame) {
	if r.first == nil {
		f.Number = 0
		f.SampleOffset = 0
		r.first = f
		r.last = f
		return
	}
	f.Number = r.last.Number + 1
	f.SampleOffset = r.last.SampleOffset + int64(r.last.SampleCount())
	if r.last.SampleCount() != f.SampleCount() {
		// varies across the stream; disables the seek fast path for good
		r.mixedFrameSize = true
	}
	r.last.Next = f
	r.last = f
}

// findNextFrame drives scanner steps until the next MPEG frame is appended
// or the stream ends. Tags and side-info headers are consumed silently.
// The caller must hold frameMu.
func (r *Reader) findNextFrame() (*frame.Frame, error) {
	for {
		res, err := r.scanStep()
		if err != nil {
			return nil, err
		}
		switch res.kind {
		case scanMpeg:
			return res.frame, nil
		case scanEOF:
			return nil, nil
		}
	}
}

// discardTo raises the window's discard watermark, but never across an
// unresolved free-format frame: the decoder may still need those bytes.
func (r *Reader) discardTo(off int64) {
	if r.lastFree != nil && r.lastFree.Offset < off {
		off = r.lastFree.Offset
	}
	r.win.DiscardThrough(off)
}
