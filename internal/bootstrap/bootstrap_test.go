package bootstrap

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farm-voice/config"
	"farm-voice/internal/application"
	"farm-voice/internal/infra/httpapi"
	"farm-voice/internal/infra/stub"
)

var fakeWAV = base64.StdEncoding.EncodeToString([]byte("RIFF\x24\x00\x00\x00WAVEfmt fake audio"))

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("PORT", "")
	cfg := config.Default()
	cfg.Assistant.TempDir = filepath.Join(t.TempDir(), "tmp")
	cfg.Storage.LocalDir = filepath.Join(t.TempDir(), "blobs")
	return cfg
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuild_StubPipeline(t *testing.T) {
	cfg := testConfig(t)

	rt, err := Build(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	defer rt.Close()

	res := rt.Assistant.ProcessVoiceQuery(context.Background(), fakeWAV)
	require.True(t, res.Success, res.ErrorMessage)
	assert.Equal(t, "Ngicela usizo ngotamatisi wami", res.OriginalTranscript)
	assert.Equal(t, "I need help with my tomato plants", res.TranslatedQuery)
	assert.True(t, strings.HasPrefix(res.AdviceText, "Planting advice"), res.AdviceText)

	base := cfg.Storage.PublicBaseURL + "/"
	require.True(t, strings.HasPrefix(res.AudioResponseURL, base+"audio/"), res.AudioResponseURL)

	require.NotNil(t, rt.Blobs)
	blob, err := rt.Blobs.Open(context.Background(), strings.TrimPrefix(res.AudioResponseURL, base))
	require.NoError(t, err)
	defer blob.Body.Close()
	data, err := io.ReadAll(blob.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("RIFF")))

	entries, err := os.ReadDir(cfg.Assistant.TempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBuild_ServesThroughHTTP(t *testing.T) {
	cfg := testConfig(t)

	rt, err := Build(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	defer rt.Close()

	server := httpapi.NewServer(httpapi.DefaultConfig(), rt.Assistant, testLogger(), rt.ServerOptions()...)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/voice-query", "application/json",
		strings.NewReader(`{"audio":"`+fakeWAV+`"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "farmvoice_queries_total")
}

func TestBuild_DisabledCapabilitiesDegrade(t *testing.T) {
	cfg := testConfig(t)
	cfg.Transcriber.Provider = "none"
	cfg.Synthesizer.Provider = "none"
	cfg.Storage.Provider = "none"
	cfg.Breaker.Enabled = false

	rt, err := Build(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	defer rt.Close()
	assert.Nil(t, rt.Blobs)

	res := rt.Assistant.ProcessVoiceQuery(context.Background(), fakeWAV)
	assert.True(t, res.Success)
	assert.Equal(t, application.DefaultSettings().FallbackTranscript, res.OriginalTranscript)
	assert.Empty(t, res.AudioResponseURL)
}

func TestBuild_RejectsMissingKnowledgeBase(t *testing.T) {
	cfg := testConfig(t)
	cfg.Advice.KnowledgeBase = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := Build(context.Background(), cfg, testLogger())
	assert.Error(t, err)
}

func TestSettings_Overrides(t *testing.T) {
	cfg := testConfig(t)
	cfg.Assistant.Apology = "Uxolo."
	cfg.Assistant.Timeouts.Translate = 2 * time.Second
	cfg.Assistant.Outbound = &config.RulesConfig{
		Rules:   []config.MarkerRule{{Marker: "maize", Text: "Ummbila"}},
		Default: "Iseluleko",
	}

	s := Settings(cfg)
	defaults := application.DefaultSettings()

	assert.Equal(t, "Uxolo.", s.Apology)
	assert.Equal(t, defaults.ApologyPivot, s.ApologyPivot)
	assert.Equal(t, 2*time.Second, s.Timeouts.Translate)
	assert.Equal(t, defaults.Inbound, s.Inbound)
	assert.Equal(t, "Ummbila", s.Outbound.Apply("grow MAIZE"))
	assert.Equal(t, "Iseluleko", s.Outbound.Apply("beans"))
	assert.Equal(t, cfg.Assistant.TempDir, s.TempDir)
}

func TestBuild_AllCapabilitiesOff(t *testing.T) {
	cfg := testConfig(t)
	cfg.Transcriber.Provider = "stub"
	cfg.Translator.Provider = "none"
	cfg.Synthesizer.Provider = "none"
	cfg.Storage.Provider = "none"

	rt, err := Build(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	defer rt.Close()

	res := rt.Assistant.ProcessVoiceQuery(context.Background(), fakeWAV)
	assert.True(t, res.Success)
	defaults := application.DefaultSettings()
	assert.Equal(t, defaults.Inbound.Apply(stub.DefaultTranscript), res.TranslatedQuery)
	assert.Equal(t, defaults.Outbound.Apply(res.AdviceText), res.TranslatedAdvice)
	assert.Empty(t, res.AudioResponseURL)
}

func TestCaptureFormat(t *testing.T) {
	f := CaptureFormat(config.AudioConfig{SampleRate: 22050})
	assert.Equal(t, application.AudioFormat{SampleRate: 22050, Channels: 1, BitDepth: 16}, f)
	assert.NoError(t, f.Validate())

	assert.Equal(t, application.DefaultAudioFormat(), CaptureFormat(config.AudioConfig{}))
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(config.LogConfig{Level: "warn", Format: "json"}, &buf)

	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
}
