package nlayer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanner_RIFFWrapper(t *testing.T) {
	audio := cbrStream(5)
	data := concat(riffHeader(len(audio)), audio)
	r := newReader(t, data)
	require.NoError(t, r.ReadToEnd())

	assert.Equal(t, int64(44), r.first.Offset)
	assert.Equal(t, int64(44), r.TagBytes())

	count := 0
	for f := r.first; f != nil; f = f.Next {
		count++
	}
	assert.Equal(t, 5, count)
}

func TestScanner_MidStreamID3v2Merges(t *testing.T) {
	data := concat(id3v2Tag(50), cbrStream(3), id3v2Tag(60), cbrStream(3))
	r := newReader(t, data)
	require.NoError(t, r.ReadToEnd())

	count := 0
	for f := r.first; f != nil; f = f.Next {
		count++
	}
	assert.Equal(t, 6, count)
	// both blocks account to the primary tag
	assert.Equal(t, int64(60+70), r.TagBytes())
}

func TestScanner_FreeFormatGuardRejectsMismatch(t *testing.T) {
	// a fake sync inside a free-format payload that disagrees on sample
	// rate must not terminate the frame early
	first := freeFrame(104)
	copy(first[50:], []byte{0xFF, 0xFB, 0x94, 0x00}) // 48 kHz, not 44.1

	data := concat(first, freeFrame(104), freeFrame(104))
	r := newReader(t, data)
	require.NoError(t, r.ReadToEnd())

	assert.Equal(t, int64(104), r.first.Length)
	require.NotNil(t, r.first.Next)
	assert.Equal(t, int64(104), r.first.Next.Offset)
}

func TestScanner_GuardInactiveOutsideFreeFormat(t *testing.T) {
	// the same byte pattern inside a fixed-rate frame is simply payload:
	// the scanner never looks inside frames it can size from the header
	f0 := cbrFrame(false)
	copy(f0[50:], []byte{0xFF, 0xFB, 0x94, 0x00})
	data := concat(f0, cbrStream(2))
	r := newReader(t, data)
	require.NoError(t, r.ReadToEnd())

	count := 0
	for f := r.first; f != nil; f = f.Next {
		assert.Equal(t, 44100, f.SampleRate)
		count++
	}
	assert.Equal(t, 3, count)
}

func TestScanner_TrailingGarbage(t *testing.T) {
	data := concat(cbrStream(4), []byte{0xFF, 0xFB}) // truncated sync at EOF
	r := newReader(t, data)
	require.NoError(t, r.ReadToEnd())

	count := 0
	for f := r.first; f != nil; f = f.Next {
		count++
	}
	assert.Equal(t, 4, count)
}

func TestScanner_VBRIHeaderDetected(t *testing.T) {
	vbri := make([]byte, 417)
	copy(vbri, []byte{0xFF, 0xFB, 0x90, 0x00})
	copy(vbri[36:], "VBRI")
	putU32 := func(off int, v uint32) {
		vbri[off] = byte(v >> 24)
		vbri[off+1] = byte(v >> 16)
		vbri[off+2] = byte(v >> 8)
		vbri[off+3] = byte(v)
	}
	putU32(36+10, 20850) // bytes
	putU32(36+14, 50)    // frames

	data := concat(vbri, cbrStream(50))
	r := newReader(t, data)

	info := r.VBRInfo()
	require.NotNil(t, info)
	assert.Equal(t, uint32(50), info.FrameCount)
	assert.Equal(t, int64(50*1152), r.SampleCount())
	assert.Equal(t, 0, r.first.Number)
	assert.Equal(t, int64(417), r.first.Offset)
}
