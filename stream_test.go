package nlayer

import (
	"bytes"
	"encoding/binary"
)

// Synthetic bitstream builders shared by the reader and scanner tests.
// Payload bytes are 0x11 so no false sync patterns appear.

// cbrFrame builds a 44.1 kHz, 128 kbps, stereo Layer III frame: 417 bytes,
// 418 with padding.
func cbrFrame(pad bool) []byte {
	hdr := []byte{0xFF, 0xFB, 0x90, 0x00}
	length := 417
	if pad {
		hdr[2] |= 0x02
		length = 418
	}
	buf := make([]byte, length)
	copy(buf, hdr)
	for i := 4; i < length; i++ {
		buf[i] = 0x11
	}
	return buf
}

// cbrStream concatenates n unpadded CBR frames.
func cbrStream(n int) []byte {
	var buf bytes.Buffer
	for i := 0; i < n; i++ {
		buf.Write(cbrFrame(false))
	}
	return buf.Bytes()
}

// freeFrame builds a free-format Layer III frame of the given total length.
func freeFrame(length int) []byte {
	buf := make([]byte, length)
	copy(buf, []byte{0xFF, 0xFB, 0x00, 0x00})
	for i := 4; i < length; i++ {
		buf[i] = 0x11
	}
	return buf
}

// layer2Frame builds a 48 kHz, 128 kbps, mono Layer II frame (384 bytes).
func layer2Frame() []byte {
	buf := make([]byte, 384)
	copy(buf, []byte{0xFF, 0xFD, 0x84, 0xC0})
	for i := 4; i < len(buf); i++ {
		buf[i] = 0x11
	}
	return buf
}

// mpeg2Frame builds a 22.05 kHz, 80 kbps, stereo MPEG2 Layer III frame
// (576 samples).
func mpeg2Frame() []byte {
	length := 72 * 80000 / 22050
	buf := make([]byte, length)
	copy(buf, []byte{0xFF, 0xF3, 0x90, 0x00})
	for i := 4; i < length; i++ {
		buf[i] = 0x11
	}
	return buf
}

// id3v2Tag builds a tag of 10+size bytes.
func id3v2Tag(size int) []byte {
	buf := make([]byte, 10+size)
	copy(buf, "ID3")
	buf[3] = 4
	buf[6] = byte(size >> 21 & 0x7F)
	buf[7] = byte(size >> 14 & 0x7F)
	buf[8] = byte(size >> 7 & 0x7F)
	buf[9] = byte(size & 0x7F)
	for i := 10; i < len(buf); i++ {
		buf[i] = 0x11
	}
	return buf
}

// id3v1Tag builds a 128-byte trailing tag.
func id3v1Tag() []byte {
	buf := make([]byte, 128)
	copy(buf, "TAG")
	for i := 3; i < len(buf); i++ {
		buf[i] = 0x20
	}
	return buf
}

// xingHeaderFrame builds a CBR-shaped frame whose payload is a Xing table
// announcing the given frame count.
func xingHeaderFrame(frames uint32) []byte {
	buf := make([]byte, 417)
	copy(buf, []byte{0xFF, 0xFB, 0x90, 0x00})
	pos := 4 + 32
	copy(buf[pos:], "Xing")
	binary.BigEndian.PutUint32(buf[pos+4:], 0x3) // frames | bytes
	binary.BigEndian.PutUint32(buf[pos+8:], frames)
	binary.BigEndian.PutUint32(buf[pos+12:], frames*417)
	return buf
}

// riffHeader wraps the upcoming payload in a minimal RIFF/WAVE preamble.
func riffHeader(payloadLen int) []byte {
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+payloadLen))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	buf.Write(make([]byte, 16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(payloadLen))
	return buf.Bytes()
}

func concat(parts ...[]byte) []byte {
	var buf bytes.Buffer
	for _, p := range parts {
		buf.Write(p)
	}
	return buf.Bytes()
}
