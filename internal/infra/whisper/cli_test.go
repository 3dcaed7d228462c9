package whisper

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farm-voice/internal/domain"
)

func TestCleanTranscript(t *testing.T) {
	out := "\n [BLANK_AUDIO]\n Ngicela usizo ngotamatisi\n(music)\n kulesi sikhathi \n"
	assert.Equal(t, "Ngicela usizo ngotamatisi kulesi sikhathi", cleanTranscript(out))
	assert.Equal(t, "", cleanTranscript("[BLANK_AUDIO]\n"))
}

func TestCLIArgs(t *testing.T) {
	c := &CLI{cfg: CLIConfig{ModelPath: "models/ggml-small.bin", Threads: 4}}
	args := c.args("/tmp/in.wav", "zu")
	assert.Equal(t, []string{"-m", "models/ggml-small.bin", "-f", "/tmp/in.wav", "-nt", "-np", "-l", "zu", "-t", "4"}, args)
}

func TestNewCLI_RequiresModel(t *testing.T) {
	_, err := NewCLI(CLIConfig{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}

// fakeCLI writes a shell script that prints canned output in place of
// whisper-cli.
func fakeCLI(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake needs a unix shell")
	}
	path := filepath.Join(t.TempDir(), "whisper-cli")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755))
	return path
}

func TestCLI_Transcribe(t *testing.T) {
	exe := fakeCLI(t, `echo "[BLANK_AUDIO]"; echo " Utamatisi wami unezinambuzane "`)
	c, err := NewCLI(CLIConfig{ExecPath: exe, ModelPath: "model.bin"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	clip := &domain.AudioClip{Data: []byte("RIFF"), Path: "/tmp/query.wav", Format: domain.FormatWAV}
	text, err := c.Transcribe(context.Background(), clip, "zu")
	require.NoError(t, err)
	assert.Equal(t, "Utamatisi wami unezinambuzane", text)
}

func TestCLI_TranscribeFailure(t *testing.T) {
	exe := fakeCLI(t, `echo "failed to open model" >&2; exit 3`)
	c, err := NewCLI(CLIConfig{ExecPath: exe, ModelPath: "model.bin"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	clip := &domain.AudioClip{Path: "/tmp/query.wav", Format: domain.FormatWAV}
	_, err = c.Transcribe(context.Background(), clip, "zu")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open model")
}

func TestCLI_UndecodableClip(t *testing.T) {
	exe := fakeCLI(t, `echo should not run`)
	c, err := NewCLI(CLIConfig{ExecPath: exe, ModelPath: "model.bin"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	clip := &domain.AudioClip{Data: []byte("garbage"), Format: domain.FormatUnknown}
	_, err = c.Transcribe(context.Background(), clip, "zu")
	assert.Error(t, err)
}
