package audioconv

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farm-voice/internal/domain"
)

func sine(n, rate int, freq float64) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(8000 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}
	return out
}

func writeWAV(t *testing.T, samples []int16, rate int) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, EncodeWAV(f, samples, rate))
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func TestEncodeWAV_IsSniffedAsWAV(t *testing.T) {
	data := writeWAV(t, sine(1600, 16000, 440), 16000)
	assert.Equal(t, domain.FormatWAV, domain.SniffFormat(data))
}

func TestProbe_WAV(t *testing.T) {
	data := writeWAV(t, sine(8000, 8000, 300), 8000)

	info, err := Probe(data, domain.FormatWAV)
	require.NoError(t, err)
	assert.Equal(t, 8000, info.SampleRate)
	assert.Equal(t, 1, info.Channels)
	assert.InDelta(t, float64(time.Second), float64(info.Duration), float64(10*time.Millisecond))
}

func TestDecode_WAVResamplesTo16k(t *testing.T) {
	data := writeWAV(t, sine(8000, 8000, 300), 8000)

	pcm, err := Decode(data, domain.FormatWAV, Options{})
	require.NoError(t, err)
	assert.InDelta(t, TargetRate, len(pcm), 2)
	for _, s := range pcm {
		require.LessOrEqual(t, s, float32(1))
		require.GreaterOrEqual(t, s, float32(-1))
	}
}

func TestDecode_MaxDuration(t *testing.T) {
	data := writeWAV(t, sine(32000, 16000, 440), 16000)

	pcm, err := Decode(data, domain.FormatWAV, Options{MaxDuration: 500 * time.Millisecond})
	require.NoError(t, err)
	assert.Len(t, pcm, 8000)
}

func TestDecode_Garbage(t *testing.T) {
	garbage := []byte("definitely not audio at all")

	for _, f := range []domain.AudioFormat{domain.FormatWAV, domain.FormatMP3, domain.FormatOGG} {
		_, err := Decode(garbage, f, Options{})
		assert.Error(t, err, "format %s", f)
	}

	_, err := Decode(garbage, domain.FormatWebM, Options{})
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestLINEAR16(t *testing.T) {
	out := LINEAR16([]float32{0, 1, -1, 2})
	require.Len(t, out, 8)

	assert.Equal(t, int16(0), int16(binary.LittleEndian.Uint16(out[0:])))
	assert.Equal(t, int16(math.MaxInt16), int16(binary.LittleEndian.Uint16(out[2:])))
	assert.Equal(t, int16(-math.MaxInt16), int16(binary.LittleEndian.Uint16(out[4:])))
	assert.Equal(t, int16(math.MaxInt16), int16(binary.LittleEndian.Uint16(out[6:])))
}

func TestDownmix(t *testing.T) {
	assert.Equal(t, []float32{0.5, 0}, downmix([]float32{1, 0, 0.5, -0.5}, 2))
}
