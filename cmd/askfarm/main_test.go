package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farm-voice/config"
	"farm-voice/internal/bootstrap"
	"farm-voice/internal/domain"
	"farm-voice/internal/infra/audio"
)

type echoProcessor struct {
	payloads []string
}

func (e *echoProcessor) ProcessVoiceQuery(_ context.Context, audioBase64 string) domain.VoiceQueryResult {
	e.payloads = append(e.payloads, audioBase64)
	data, _ := base64.StdEncoding.DecodeString(audioBase64)
	return domain.VoiceQueryResult{Success: true, OriginalTranscript: string(data)}
}

type scriptedSource struct {
	queue  [][]byte
	errs   []error
	cancel context.CancelFunc
}

func (s *scriptedSource) Start(context.Context) error { return nil }
func (s *scriptedSource) Stop() error                 { return nil }
func (s *scriptedSource) Name() string                { return "scripted" }

func (s *scriptedSource) NextCommand(ctx context.Context) ([]byte, error) {
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return nil, err
	}
	if len(s.queue) == 0 {
		s.cancel()
		return nil, ctx.Err()
	}
	next := s.queue[0]
	s.queue = s.queue[1:]
	return next, nil
}

func TestAnswerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "query.wav")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

	p := &echoProcessor{}
	var out bytes.Buffer
	require.NoError(t, answerFile(context.Background(), p, path, &out))

	var res domain.VoiceQueryResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.True(t, res.Success)
	assert.Equal(t, "hello", res.OriginalTranscript)
}

func TestAnswerFile_Missing(t *testing.T) {
	err := answerFile(context.Background(), &echoProcessor{}, filepath.Join(t.TempDir(), "nope.wav"), io.Discard)
	assert.Error(t, err)
}

func TestRun_AnswersUntilCancelled(t *testing.T) {
	defer func(d time.Duration) { errorBackoff = d }(errorBackoff)
	errorBackoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source := &scriptedSource{
		queue:  [][]byte{[]byte("one"), nil, []byte("two")},
		errs:   []error{errors.New("device busy")},
		cancel: cancel,
	}
	p := &echoProcessor{}
	var out bytes.Buffer

	err := run(ctx, p, source, &out, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.ErrorIs(t, err, context.Canceled)

	require.Len(t, p.payloads, 2)
	dec := json.NewDecoder(&out)
	var first, second domain.VoiceQueryResult
	require.NoError(t, dec.Decode(&first))
	require.NoError(t, dec.Decode(&second))
	assert.Equal(t, "one", first.OriginalTranscript)
	assert.Equal(t, "two", second.OriginalTranscript)
}

type failingSource struct {
	calls int
}

func (s *failingSource) Start(context.Context) error { return nil }
func (s *failingSource) Stop() error                 { return nil }
func (s *failingSource) Name() string                { return "failing" }

func (s *failingSource) NextCommand(context.Context) ([]byte, error) {
	s.calls++
	return nil, errors.New("reading file a.wav: no such file or directory")
}

func TestRun_BacksOffAfterSourceErrors(t *testing.T) {
	defer func(d time.Duration) { errorBackoff = d }(errorBackoff)
	errorBackoff = 50 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	source := &failingSource{}
	err := run(ctx, &echoProcessor{}, source, io.Discard, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, source.calls, 2)
	assert.LessOrEqual(t, source.calls, 5)
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Clone(b.buf.Bytes())
}

func TestRun_WatchDirectoryEndToEnd(t *testing.T) {
	t.Setenv("PORT", "")
	cfg := config.Default()
	cfg.Assistant.TempDir = filepath.Join(t.TempDir(), "tmp")
	cfg.Storage.Provider = "none"
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	rt, err := bootstrap.Build(context.Background(), cfg, logger)
	require.NoError(t, err)
	defer rt.Close()

	dir := t.TempDir()
	query := filepath.Join(dir, "001.wav")
	require.NoError(t, os.WriteFile(query, []byte("RIFF\x24\x00\x00\x00WAVEfmt fake audio"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := &lockedBuffer{}
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, rt.Assistant, audio.NewFileSource(dir), out, logger)
	}()

	require.Eventually(t, func() bool {
		return bytes.Contains(out.Bytes(), []byte("zulu_advice"))
	}, 5*time.Second, 20*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	var res domain.VoiceQueryResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.True(t, res.Success)
	assert.Equal(t, "I need help with my tomato plants", res.TranslatedQuery)
	assert.Empty(t, res.AudioResponseURL)

	_, err = os.Stat(query + ".processed")
	assert.NoError(t, err)
}
