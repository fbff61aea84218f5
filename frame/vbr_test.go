package frame

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// xingFrame builds a 44.1 kHz stereo Layer III frame whose payload carries a
// Xing/Info table with the given tag and flags.
func xingFrame(tag string, flags uint32, frames, bytes_, quality uint32, lame bool) []byte {
	buf := make([]byte, 417)
	copy(buf, []byte{0xFF, 0xFB, 0x90, 0x00})

	pos := 4 + 32 // header + stereo side info
	copy(buf[pos:], tag)
	binary.BigEndian.PutUint32(buf[pos+4:], flags)
	pos += 8
	if flags&xingFrames != 0 {
		binary.BigEndian.PutUint32(buf[pos:], frames)
		pos += 4
	}
	if flags&xingBytes != 0 {
		binary.BigEndian.PutUint32(buf[pos:], bytes_)
		pos += 4
	}
	if flags&xingTOC != 0 {
		pos += 100
	}
	if flags&xingQuality != 0 {
		binary.BigEndian.PutUint32(buf[pos:], quality)
		pos += 4
	}
	if lame {
		copy(buf[pos:], "LAME3.100")
		d := pos + 9 + 12
		// delay 576, padding 1728
		buf[d] = byte(576 >> 4)
		buf[d+1] = byte(576&0xF)<<4 | byte(1728>>8)
		buf[d+2] = byte(1728 & 0xFF)
	}
	return buf
}

func syncFrameFor(t *testing.T, data []byte) *Frame {
	t.Helper()
	f := Sync(binary.BigEndian.Uint32(data[:4]), 0, bytes.NewReader(data))
	require.NotNil(t, f)
	require.True(t, f.Validate())
	return f
}

func TestParseVBR_Xing(t *testing.T) {
	data := xingFrame("Xing", xingFrames|xingBytes|xingTOC|xingQuality, 50, 20850, 78, false)
	f := syncFrameFor(t, data)

	info := f.ParseVBR()
	require.NotNil(t, info)
	assert.True(t, info.VBR)
	assert.Equal(t, uint32(50), info.FrameCount)
	assert.Equal(t, uint32(20850), info.ByteCount)
	assert.True(t, info.HasTOC)
	assert.Equal(t, uint32(78), info.VBRScale)
	assert.Equal(t, int64(50*1152), info.StreamSampleCount)
	assert.Equal(t, 44100, info.SampleRate)
	assert.Equal(t, 2, info.Channels)
}

func TestParseVBR_InfoTagIsCBR(t *testing.T) {
	data := xingFrame("Info", xingFrames, 120, 0, 0, false)
	f := syncFrameFor(t, data)

	info := f.ParseVBR()
	require.NotNil(t, info)
	assert.False(t, info.VBR)
	assert.Equal(t, int64(120*1152), info.StreamSampleCount)
}

func TestParseVBR_Lame(t *testing.T) {
	data := xingFrame("Xing", xingFrames, 50, 0, 0, true)
	f := syncFrameFor(t, data)

	info := f.ParseVBR()
	require.NotNil(t, info)
	assert.Equal(t, "LAME3.100", info.Encoder)
	assert.Equal(t, uint16(576), info.EncoderDelay)
	assert.Equal(t, uint16(1728), info.EncoderPadding)
}

func TestParseVBR_PlainAudioFrame(t *testing.T) {
	data := make([]byte, 417)
	copy(data, []byte{0xFF, 0xFB, 0x90, 0x00})
	for i := 4; i < len(data); i++ {
		data[i] = 0x11
	}
	f := syncFrameFor(t, data)
	assert.Nil(t, f.ParseVBR())
}

func TestParseVBR_VBRI(t *testing.T) {
	data := make([]byte, 417)
	copy(data, []byte{0xFF, 0xFB, 0x90, 0x00})
	pos := 4 + 32
	copy(data[pos:], "VBRI")
	binary.BigEndian.PutUint16(data[pos+4:], 1)      // version
	binary.BigEndian.PutUint16(data[pos+6:], 0)      // delay
	binary.BigEndian.PutUint16(data[pos+8:], 90)     // quality
	binary.BigEndian.PutUint32(data[pos+10:], 41700) // bytes
	binary.BigEndian.PutUint32(data[pos+14:], 100)   // frames
	f := syncFrameFor(t, data)

	info := f.ParseVBR()
	require.NotNil(t, info)
	assert.True(t, info.VBR)
	assert.Equal(t, uint32(100), info.FrameCount)
	assert.Equal(t, uint32(41700), info.ByteCount)
	assert.Equal(t, int64(100*1152), info.StreamSampleCount)
}

func TestFrameReadAt_Saved(t *testing.T) {
	data := make([]byte, 417)
	copy(data, []byte{0xFF, 0xFB, 0x90, 0x00})
	for i := 4; i < len(data); i++ {
		data[i] = byte(i)
	}
	f := syncFrameFor(t, data)

	require.NoError(t, f.SaveBuffer())
	assert.Equal(t, 417, f.SavedBytes())

	got := make([]byte, 10)
	n, err := f.ReadAt(got, 100)
	require.NoError(t, err)
	require.Equal(t, 10, n)
	assert.Equal(t, data[100:110], got)

	// reads past the frame end are clipped
	n, err = f.ReadAt(got, 412)
	assert.Equal(t, 5, n)
	assert.Error(t, err)
}
