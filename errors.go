package nlayer

import (
	"errors"

	"github.com/dgorgone/nlayer/internal/bitstream"
)

var (
	// ErrNotMpegStream is returned by New when fewer than two MPEG audio
	// frames can be located in the source.
	ErrNotMpegStream = errors.New("nlayer: not a valid MPEG audio stream")

	// ErrCannotSeek is returned by SeekTo on a forward-only source.
	ErrCannotSeek = errors.New("nlayer: cannot seek a forward-only stream")

	// ErrFreeFormatRequiresSeek is returned when a free-format frame is
	// finalized on a forward-only source; its bytes cannot be served once
	// the window has rolled past them.
	ErrFreeFormatRequiresSeek = errors.New("nlayer: free-format frames require a seekable stream")

	// ErrBackwardSeek is returned for reads into an already-discarded
	// prefix of a forward-only source.
	ErrBackwardSeek = bitstream.ErrBackwardSeek
)

// SourceError wraps a failed read or seek on the underlying source.
type SourceError = bitstream.SourceError
