//go:build whispercpp

package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"
	"sync"

	wcpp "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"farm-voice/internal/domain"
	"farm-voice/internal/infra/audioconv"
)

// Native transcribes in-process with a loaded ggml model. A whisper context
// is created per clip; the model itself is shared.
type Native struct {
	model   wcpp.Model
	threads uint
	logger  *slog.Logger

	// whisper.cpp contexts on one model are not safe to run concurrently.
	mu sync.Mutex
}

func NewNative(modelPath string, threads int, logger *slog.Logger) (*Native, error) {
	if modelPath == "" {
		return nil, errors.New("whisper: empty model path")
	}
	m, err := wcpp.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("whisper: load model: %w", err)
	}
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	return &Native{model: m, threads: uint(threads), logger: logger}, nil
}

func (n *Native) Close() error {
	return n.model.Close()
}

func (n *Native) Transcribe(ctx context.Context, clip *domain.AudioClip, language string) (string, error) {
	pcm, err := audioconv.Decode(clip.Data, clip.Format, audioconv.Options{})
	if err != nil {
		return "", fmt.Errorf("whisper: %w", err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	wctx, err := n.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("whisper: new context: %w", err)
	}
	if language == "" {
		language = "auto"
	}
	if err := wctx.SetLanguage(language); err != nil {
		return "", fmt.Errorf("whisper: set language %q: %w", language, err)
	}
	wctx.SetTranslate(false)
	wctx.SetThreads(n.threads)

	if err := wctx.Process(pcm, nil, nil, nil); err != nil {
		return "", fmt.Errorf("whisper: process: %w", err)
	}

	var parts []string
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		seg, err := wctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("whisper: next segment: %w", err)
		}
		if t := strings.TrimSpace(seg.Text); t != "" && !isMarker(t) {
			parts = append(parts, t)
		}
	}

	n.logger.Debug("whisper transcription", "segments", len(parts), "samples", len(pcm))
	return strings.Join(parts, " "), nil
}
