package frame

// Version represents the MPEG audio version encoded in a frame header.
type Version uint8

const (
	Version25       Version = 0 // MPEG 2.5
	VersionReserved Version = 1
	Version2        Version = 2 // MPEG 2
	Version1        Version = 3 // MPEG 1
)

// String returns the string representation of Version
func (v Version) String() string {
	switch v {
	case Version1:
		return "MPEG1"
	case Version2:
		return "MPEG2"
	case Version25:
		return "MPEG2.5"
	default:
		return "reserved"
	}
}

// Layer represents the MPEG audio layer encoded in a frame header.
type Layer uint8

const (
	LayerReserved Layer = 0
	LayerIII      Layer = 1
	LayerII       Layer = 2
	LayerI        Layer = 3
)

// String returns the string representation of Layer
func (l Layer) String() string {
	switch l {
	case LayerI:
		return "Layer I"
	case LayerII:
		return "Layer II"
	case LayerIII:
		return "Layer III"
	default:
		return "reserved"
	}
}

// ChannelMode represents the channel mode encoded in a frame header.
type ChannelMode uint8

const (
	Stereo ChannelMode = iota
	JointStereo
	DualChannel
	Mono
)

// String returns the string representation of ChannelMode
func (c ChannelMode) String() string {
	switch c {
	case Stereo:
		return "stereo"
	case JointStereo:
		return "joint stereo"
	case DualChannel:
		return "dual channel"
	case Mono:
		return "mono"
	default:
		return "unknown"
	}
}

// Bit rates in kbit/s, indexed by [version][layer][bitRateIndex]. Index 0 is
// free format, index 15 is forbidden.
var bitRateTable = [4][4][16]int{
	// MPEG 2.5
	{
		{}, // reserved layer
		{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0},      // Layer III
		{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0},      // Layer II
		{0, 32, 48, 56, 64, 80, 96, 112, 128, 144, 160, 176, 192, 224, 256, 0}, // Layer I
	},
	// reserved version
	{},
	// MPEG 2
	{
		{},
		{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0},
		{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0},
		{0, 32, 48, 56, 64, 80, 96, 112, 128, 144, 160, 176, 192, 224, 256, 0},
	},
	// MPEG 1
	{
		{},
		{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 0},     // Layer III
		{0, 32, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 384, 0},    // Layer II
		{0, 32, 64, 96, 128, 160, 192, 224, 256, 288, 320, 352, 384, 416, 448, 0}, // Layer I
	},
}

// Sample rates in Hz, indexed by [version][sampleRateIndex]. Index 3 is
// reserved.
var sampleRateTable = [4][4]int{
	{11025, 12000, 8000, 0},
	{0, 0, 0, 0},
	{22050, 24000, 16000, 0},
	{44100, 48000, 32000, 0},
}

// Header holds the fields of a 4-byte MPEG audio frame header.
type Header struct {
	Version         Version
	Layer           Layer
	CRC             bool
	BitRateIndex    int
	BitRate         int // bits per second, 0 for free format
	SampleRate      int
	sampleRateIndex int
	Padding         bool
	Private         bool
	ChannelMode     ChannelMode
	ModeExtension   uint8
	Copyright       bool
	Original        bool
	Emphasis        uint8
}

// IsSync reports whether word starts with the 11-bit frame sync pattern.
func IsSync(word uint32) bool {
	return word&0xFFE00000 == 0xFFE00000
}

// ParseHeader decodes a 32-bit big-endian frame header. It returns false if
// the header is not a well-formed MPEG audio frame header.
func ParseHeader(word uint32) (Header, bool) {
	var h Header

	if !IsSync(word) {
		return h, false
	}

	h.Version = Version(word >> 19 & 0x3)
	if h.Version == VersionReserved {
		return h, false
	}

	h.Layer = Layer(word >> 17 & 0x3)
	if h.Layer == LayerReserved {
		return h, false
	}

	h.CRC = word>>16&0x1 == 0

	h.BitRateIndex = int(word >> 12 & 0xF)
	if h.BitRateIndex == 15 {
		return h, false
	}
	h.BitRate = bitRateTable[h.Version][h.Layer][h.BitRateIndex] * 1000

	h.sampleRateIndex = int(word >> 10 & 0x3)
	if h.sampleRateIndex == 3 {
		return h, false
	}
	h.SampleRate = sampleRateTable[h.Version][h.sampleRateIndex]

	h.Padding = word>>9&0x1 == 1
	h.Private = word>>8&0x1 == 1
	h.ChannelMode = ChannelMode(word >> 6 & 0x3)
	h.ModeExtension = uint8(word >> 4 & 0x3)
	h.Copyright = word>>3&0x1 == 1
	h.Original = word>>2&0x1 == 1

	h.Emphasis = uint8(word & 0x3)
	if h.Emphasis == 2 {
		return h, false
	}

	return h, true
}

// FreeFormat reports whether the frame uses free-format bit rate. Its length
// cannot be derived from the header and is only known once the next sync is
// located.
func (h *Header) FreeFormat() bool {
	return h.BitRateIndex == 0
}

// Channels returns the number of audio channels.
func (h *Header) Channels() int {
	if h.ChannelMode == Mono {
		return 1
	}
	return 2
}

// SampleCount returns the number of samples per channel one frame decodes to.
func (h *Header) SampleCount() int {
	switch h.Layer {
	case LayerI:
		return 384
	case LayerII:
		return 1152
	case LayerIII:
		if h.Version == Version1 {
			return 1152
		}
		return 576
	}
	return 0
}

// headerLength returns the frame length in bytes derived from the header, or
// 0 for free-format frames.
func (h *Header) headerLength() int64 {
	if h.BitRate == 0 || h.SampleRate == 0 {
		return 0
	}

	var length int
	pad := 0
	if h.Padding {
		pad = 1
	}
	if h.Layer == LayerI {
		length = (12*h.BitRate/h.SampleRate + pad) * 4
	} else if h.Version == Version1 || h.Layer == LayerII {
		length = 144*h.BitRate/h.SampleRate + pad
	} else {
		length = 72*h.BitRate/h.SampleRate + pad
	}
	return int64(length)
}

// sideInfoSize returns the length in bytes of the Layer III side information
// block, which sits between the header (plus optional CRC) and the main data.
func (h *Header) sideInfoSize() int {
	if h.Layer != LayerIII {
		return 0
	}
	if h.Version == Version1 {
		if h.ChannelMode == Mono {
			return 17
		}
		return 32
	}
	if h.ChannelMode == Mono {
		return 9
	}
	return 17
}
