// Package whisper runs whisper.cpp locally, either through its command-line
// tool or in-process through the Go bindings.
package whisper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"farm-voice/internal/domain"
	"farm-voice/internal/infra/audioconv"
)

type CLIConfig struct {
	ExecPath  string
	ModelPath string
	Threads   int
}

// CLI shells out to whisper-cli once per clip.
type CLI struct {
	cfg    CLIConfig
	logger *slog.Logger
}

func NewCLI(cfg CLIConfig, logger *slog.Logger) (*CLI, error) {
	if cfg.ModelPath == "" {
		return nil, errors.New("whisper cli: model path is required")
	}
	if cfg.ExecPath == "" {
		cfg.ExecPath = "whisper-cli"
	}
	if _, err := exec.LookPath(cfg.ExecPath); err != nil {
		return nil, fmt.Errorf("whisper cli: %w", err)
	}
	return &CLI{cfg: cfg, logger: logger}, nil
}

func (c *CLI) Transcribe(ctx context.Context, clip *domain.AudioClip, language string) (string, error) {
	input, cleanup, err := wavInput(clip)
	if err != nil {
		return "", err
	}
	defer cleanup()

	cmd := exec.CommandContext(ctx, c.cfg.ExecPath, c.args(input, language)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("whisper cli: %w", ctxErr)
		}
		return "", fmt.Errorf("whisper cli: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	text := cleanTranscript(stdout.String())
	c.logger.Debug("whisper cli transcription", "chars", len(text))
	return text, nil
}

func (c *CLI) args(input, language string) []string {
	args := []string{"-m", c.cfg.ModelPath, "-f", input, "-nt", "-np"}
	if language != "" {
		args = append(args, "-l", language)
	}
	if c.cfg.Threads > 0 {
		args = append(args, "-t", fmt.Sprint(c.cfg.Threads))
	}
	return args
}

// wavInput hands whisper-cli a 16 kHz wav. WAV clips are passed through
// as-is; other containers are decoded and rewritten next to the original.
func wavInput(clip *domain.AudioClip) (string, func(), error) {
	noop := func() {}
	if clip.Format == domain.FormatWAV && clip.Path != "" {
		return clip.Path, noop, nil
	}

	pcm, err := audioconv.Decode(clip.Data, clip.Format, audioconv.Options{})
	if err != nil {
		return "", noop, fmt.Errorf("whisper cli: %w", err)
	}

	f, err := os.CreateTemp("", "farmvoice-whisper-*.wav")
	if err != nil {
		return "", noop, fmt.Errorf("whisper cli: %w", err)
	}
	cleanup := func() { os.Remove(f.Name()) }

	samples := make([]int16, len(pcm))
	for i, s := range pcm {
		samples[i] = int16(s * 32767)
	}
	err = audioconv.EncodeWAV(f, samples, audioconv.TargetRate)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		cleanup()
		return "", noop, fmt.Errorf("whisper cli: %w", err)
	}
	return f.Name(), cleanup, nil
}

// cleanTranscript joins output lines and drops whisper's non-speech markers
// such as [BLANK_AUDIO] or (music).
func cleanTranscript(out string) string {
	var parts []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || isMarker(line) {
			continue
		}
		parts = append(parts, line)
	}
	return strings.Join(parts, " ")
}

func isMarker(s string) bool {
	return (strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]")) ||
		(strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")"))
}
