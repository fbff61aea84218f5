package frame

import (
	"encoding/binary"
	"io"
)

// Xing header flag bits.
const (
	xingFrames = 1 << iota
	xingBytes
	xingTOC
	xingQuality
)

// VBRInfo is the side information carried by a Xing/Info or VBRI header
// frame. Such a frame is a silent first "audio" frame whose payload is a
// table, not audio; when present its totals replace the catalog-derived
// stream metadata.
type VBRInfo struct {
	// VBR is true for "Xing" and "VBRI" tags, false for "Info" (CBR streams
	// written by LAME).
	VBR bool

	FrameCount uint32
	ByteCount  uint32
	HasTOC     bool
	VBRScale   uint32

	SampleRate int
	Channels   int
	// StreamSampleCount is the total samples per channel in the stream,
	// derived from FrameCount and the header frame's samples-per-frame.
	StreamSampleCount int64

	// LAME extension, when present after a Xing/Info tag.
	Encoder        string
	EncoderDelay   uint16
	EncoderPadding uint16
}

// ParseVBR inspects the frame payload for a Xing/Info or VBRI side-info
// header. It returns nil when the frame is ordinary audio. Free-format
// frames are never side-info carriers.
func (f *Frame) ParseVBR() *VBRInfo {
	if f.Length <= 0 {
		return nil
	}
	payload := make([]byte, f.Length)
	n, err := f.src.ReadAt(payload, f.Offset)
	if err != nil && err != io.EOF {
		return nil
	}
	payload = payload[:n]

	if info := f.parseXing(payload); info != nil {
		return info
	}
	return f.parseVBRI(payload)
}

// parseXing decodes a "Xing" or "Info" tag located directly after the Layer
// III side information block.
func (f *Frame) parseXing(payload []byte) *VBRInfo {
	pos := 4 + f.sideInfoSize()
	if len(payload) < pos+8 {
		return nil
	}
	tag := string(payload[pos : pos+4])
	if tag != "Xing" && tag != "Info" {
		return nil
	}

	info := &VBRInfo{
		VBR:        tag == "Xing",
		SampleRate: f.SampleRate,
		Channels:   f.Channels(),
	}
	flags := binary.BigEndian.Uint32(payload[pos+4 : pos+8])
	pos += 8

	if flags&xingFrames != 0 {
		if len(payload) < pos+4 {
			return nil
		}
		info.FrameCount = binary.BigEndian.Uint32(payload[pos : pos+4])
		pos += 4
	}
	if flags&xingBytes != 0 {
		if len(payload) < pos+4 {
			return nil
		}
		info.ByteCount = binary.BigEndian.Uint32(payload[pos : pos+4])
		pos += 4
	}
	if flags&xingTOC != 0 {
		if len(payload) < pos+100 {
			return nil
		}
		info.HasTOC = true
		pos += 100
	}
	if flags&xingQuality != 0 {
		if len(payload) < pos+4 {
			return nil
		}
		info.VBRScale = binary.BigEndian.Uint32(payload[pos : pos+4])
		pos += 4
	}

	info.StreamSampleCount = int64(info.FrameCount) * int64(f.SampleCount())

	// LAME extension: 9-byte encoder string, then 12 bytes of encoding
	// metadata, then the 24-bit delay/padding pair.
	if len(payload) >= pos+9 {
		if enc := string(payload[pos : pos+9]); looksLikeEncoder(enc) {
			info.Encoder = enc
			d := pos + 9 + 12
			if len(payload) >= d+3 {
				info.EncoderDelay = uint16(payload[d])<<4 | uint16(payload[d+1])>>4
				info.EncoderPadding = uint16(payload[d+1]&0x0F)<<8 | uint16(payload[d+2])
			}
		}
	}

	return info
}

// parseVBRI decodes a Fraunhofer "VBRI" tag located at a fixed 32-byte
// offset after the frame header.
func (f *Frame) parseVBRI(payload []byte) *VBRInfo {
	const pos = 4 + 32
	if len(payload) < pos+26 {
		return nil
	}
	if string(payload[pos:pos+4]) != "VBRI" {
		return nil
	}

	info := &VBRInfo{
		VBR:        true,
		SampleRate: f.SampleRate,
		Channels:   f.Channels(),
		ByteCount:  binary.BigEndian.Uint32(payload[pos+10 : pos+14]),
		FrameCount: binary.BigEndian.Uint32(payload[pos+14 : pos+18]),
	}
	info.StreamSampleCount = int64(info.FrameCount) * int64(f.SampleCount())
	return info
}

func looksLikeEncoder(s string) bool {
	if len(s) < 4 {
		return false
	}
	switch s[:4] {
	case "LAME", "L3.9", "Gogo", "GOGO":
		return true
	}
	return false
}
