// Package audioconv decodes query audio into the mono 16 kHz PCM that
// speech recognizers expect.
package audioconv

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"

	"farm-voice/internal/domain"
)

// TargetRate is the sample rate produced by Decode.
const TargetRate = 16000

var ErrUnsupported = errors.New("unsupported audio format")

// Info describes a clip without decoding all of it.
type Info struct {
	SampleRate int
	Channels   int
	Duration   time.Duration
}

type Options struct {
	// MaxDuration truncates longer clips. Zero keeps everything.
	MaxDuration time.Duration
}

// Probe reads the container header.
func Probe(data []byte, format domain.AudioFormat) (Info, error) {
	switch format {
	case domain.FormatWAV:
		dec := wav.NewDecoder(bytes.NewReader(data))
		if !dec.IsValidFile() {
			return Info{}, errors.New("invalid wav")
		}
		d, err := dec.Duration()
		if err != nil {
			return Info{}, fmt.Errorf("wav duration: %w", err)
		}
		return Info{SampleRate: int(dec.SampleRate), Channels: int(dec.NumChans), Duration: d}, nil

	case domain.FormatMP3:
		dec, err := mp3.NewDecoder(bytes.NewReader(data))
		if err != nil {
			return Info{}, fmt.Errorf("mp3: %w", err)
		}
		info := Info{SampleRate: dec.SampleRate(), Channels: 2}
		if dec.Length() > 0 && info.SampleRate > 0 {
			frames := dec.Length() / 4
			info.Duration = time.Duration(frames) * time.Second / time.Duration(info.SampleRate)
		}
		return info, nil

	case domain.FormatOGG:
		n, f, err := oggvorbis.GetLength(bytes.NewReader(data))
		if err != nil {
			return Info{}, fmt.Errorf("ogg/vorbis: %w", err)
		}
		if f == nil || f.SampleRate <= 0 {
			return Info{}, errors.New("invalid ogg/vorbis stream")
		}
		return Info{
			SampleRate: f.SampleRate,
			Channels:   f.Channels,
			Duration:   time.Duration(n) * time.Second / time.Duration(f.SampleRate),
		}, nil
	}
	return Info{}, fmt.Errorf("%w: %s", ErrUnsupported, format)
}

// Decode converts a wav, mp3 or ogg/vorbis clip to mono float32 samples at
// TargetRate in [-1, 1].
func Decode(data []byte, format domain.AudioFormat, opt Options) ([]float32, error) {
	var (
		x   []float32
		err error
	)
	switch format {
	case domain.FormatWAV:
		x, err = decodeWAV(bytes.NewReader(data))
	case domain.FormatMP3:
		x, err = decodeMP3(bytes.NewReader(data))
	case domain.FormatOGG:
		x, err = decodeOggVorbis(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, format)
	}
	if err != nil {
		return nil, err
	}
	if len(x) == 0 {
		return nil, errors.New("no audio samples")
	}

	if opt.MaxDuration > 0 {
		limit := int(opt.MaxDuration.Seconds() * TargetRate)
		if len(x) > limit {
			x = x[:limit]
		}
	}
	return x, nil
}

// LINEAR16 renders samples as little-endian signed 16-bit PCM.
func LINEAR16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := int16(clamp(float64(s), -1, 1) * math.MaxInt16)
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}

// EncodeWAV writes mono 16-bit samples as a wav file.
func EncodeWAV(w io.WriteSeeker, samples []int16, sampleRate int) error {
	enc := wav.NewEncoder(w, sampleRate, 16, 1, 1)

	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encoding wav: %w", err)
	}
	return enc.Close()
}

func decodeWAV(r io.ReadSeeker) ([]float32, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, errors.New("invalid wav")
	}
	pb, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wav: %w", err)
	}
	if pb == nil || len(pb.Data) == 0 {
		return nil, errors.New("empty wav")
	}

	bd := int(dec.BitDepth)
	if bd == 0 {
		bd = 16
	}
	x := intToFloat32(pb.Data, bd)

	ch, sr := 1, 44100
	if pb.Format != nil {
		if pb.Format.NumChannels > 0 {
			ch = pb.Format.NumChannels
		}
		if pb.Format.SampleRate > 0 {
			sr = pb.Format.SampleRate
		}
	}
	return resampleLinear(downmix(x, ch), sr, TargetRate), nil
}

func decodeMP3(r io.Reader) ([]float32, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("mp3: %w", err)
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("mp3: %w", err)
	}

	ints := make([]int16, len(raw)/2)
	for i := range ints {
		ints[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
	}
	// go-mp3 always emits interleaved stereo.
	x := downmix(int16ToFloat32(ints), 2)

	sr := dec.SampleRate()
	if sr <= 0 {
		sr = 44100
	}
	return resampleLinear(x, sr, TargetRate), nil
}

func decodeOggVorbis(r io.Reader) ([]float32, error) {
	pcm, f, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("ogg/vorbis: %w", err)
	}
	if f == nil || f.Channels <= 0 || f.SampleRate <= 0 {
		return nil, errors.New("invalid ogg/vorbis stream")
	}
	return resampleLinear(downmix(pcm, f.Channels), f.SampleRate, TargetRate), nil
}

func intToFloat32(data []int, bitDepth int) []float32 {
	out := make([]float32, len(data))
	scale := 1.0 / float64(int64(1)<<(bitDepth-1))
	for i, v := range data {
		out[i] = float32(clamp(float64(v)*scale, -1, 1))
	}
	return out
}

func int16ToFloat32(data []int16) []float32 {
	out := make([]float32, len(data))
	for i, v := range data {
		out[i] = float32(float64(v) / 32768.0)
	}
	return out
}

func downmix(in []float32, channels int) []float32 {
	if channels <= 1 {
		return in
	}
	frames := len(in) / channels
	out := make([]float32, frames)
	for i := 0; i < frames; i++ {
		sum := 0.0
		for c := 0; c < channels; c++ {
			sum += float64(in[i*channels+c])
		}
		out[i] = float32(sum / float64(channels))
	}
	return out
}

func resampleLinear(in []float32, inRate, outRate int) []float32 {
	if inRate == outRate || len(in) == 0 {
		return in
	}
	ratio := float64(outRate) / float64(inRate)
	n := int(math.Ceil(float64(len(in)) * ratio))
	out := make([]float32, n)
	for i := range out {
		src := float64(i) / ratio
		i0 := int(src)
		if i0 >= len(in)-1 {
			out[i] = in[len(in)-1]
			continue
		}
		a := float32(src - float64(i0))
		out[i] = in[i0]*(1-a) + in[i0+1]*a
	}
	return out
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
