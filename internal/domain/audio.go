package domain

// AudioFormat is the container sniffed from the payload bytes.
type AudioFormat string

const (
	FormatWAV     AudioFormat = "wav"
	FormatMP3     AudioFormat = "mp3"
	FormatOGG     AudioFormat = "ogg"
	FormatWebM    AudioFormat = "webm"
	FormatUnknown AudioFormat = "unknown"
)

// Extension returns the file extension used for transient files.
func (f AudioFormat) Extension() string {
	switch f {
	case FormatWAV, FormatMP3, FormatOGG, FormatWebM:
		return "." + string(f)
	default:
		return ".bin"
	}
}

// AudioClip is a decoded query payload. Path points at the request's
// transient copy and is only valid while the request is in flight.
type AudioClip struct {
	Data   []byte
	Path   string
	Format AudioFormat
}

// SynthesizedAudio is the output of a speech synthesizer.
type SynthesizedAudio struct {
	Data        []byte
	ContentType string
}

// Extension maps the content type to the stored blob extension.
func (a *SynthesizedAudio) Extension() string {
	switch a.ContentType {
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/ogg":
		return ".ogg"
	case "audio/webm":
		return ".webm"
	default:
		return ".mp3"
	}
}

// SniffFormat identifies the container from the leading bytes.
func SniffFormat(data []byte) AudioFormat {
	switch {
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE":
		return FormatWAV
	case len(data) >= 4 && string(data[0:4]) == "OggS":
		return FormatOGG
	case len(data) >= 4 && data[0] == 0x1A && data[1] == 0x45 && data[2] == 0xDF && data[3] == 0xA3:
		return FormatWebM
	case len(data) >= 3 && string(data[0:3]) == "ID3":
		return FormatMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return FormatMP3
	default:
		return FormatUnknown
	}
}
