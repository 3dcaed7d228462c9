// Package bootstrap turns a loaded configuration into a running assistant.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/lmittmann/tint"

	"farm-voice/config"
	"farm-voice/internal/advice"
	"farm-voice/internal/application"
	"farm-voice/internal/infra/anthropic"
	"farm-voice/internal/infra/azure"
	"farm-voice/internal/infra/breaker"
	"farm-voice/internal/infra/gemini"
	"farm-voice/internal/infra/google"
	"farm-voice/internal/infra/httpapi"
	"farm-voice/internal/infra/metrics"
	"farm-voice/internal/infra/netclient"
	"farm-voice/internal/infra/openai"
	"farm-voice/internal/infra/pushover"
	"farm-voice/internal/infra/storage"
	"farm-voice/internal/infra/stub"
	"farm-voice/internal/infra/whisper"
)

// Runtime holds the assembled assistant and the resources to release on
// shutdown.
type Runtime struct {
	Assistant *application.Assistant
	Metrics   *metrics.Metrics
	// Blobs is set when responses are stored in a backend this service
	// must serve itself.
	Blobs storage.Reader

	closers []io.Closer
	logger  *slog.Logger
}

// Build wires every capability named by cfg. Providers set to "none" get the
// application no-op implementations, which always fail so the stage degrades.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	rt := &Runtime{
		Metrics: metrics.New(),
		logger:  logger,
	}

	ok := false
	defer func() {
		if !ok {
			_ = rt.Close()
		}
	}()

	httpClient, err := netclient.New(cfg.Network.SocksProxy, cfg.Network.Timeout)
	if err != nil {
		return nil, err
	}

	settings := Settings(cfg)
	if err := os.MkdirAll(settings.TempDir, 0755); err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}

	matcher, err := newMatcher(cfg.Advice)
	if err != nil {
		return nil, err
	}

	stt, err := rt.transcriber(ctx, cfg, httpClient)
	if err != nil {
		return nil, fmt.Errorf("transcriber %s: %w", cfg.Transcriber.Provider, err)
	}
	translator := newTranslator(cfg, httpClient, logger)
	tts := newSynthesizer(cfg, settings.TempDir, httpClient, logger)
	store, err := rt.store(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("storage %s: %w", cfg.Storage.Provider, err)
	}

	if cfg.Breaker.Enabled {
		factory := breaker.NewFactory(
			BreakerSettings(cfg.Breaker),
			newNotifier(cfg.Pushover),
			logger,
			breaker.WithStateRecorder(rt.Metrics),
		)
		stt = factory.Transcriber(stt)
		translator = factory.Translator(translator)
		tts = factory.Synthesizer(tts)
		store = factory.AudioStore(store)
	}

	rt.Assistant = application.NewAssistant(
		matcher,
		stt,
		translator,
		tts,
		store,
		settings,
		logger,
		application.WithObserver(rt.Metrics),
	)

	logger.Info("assistant ready",
		"transcriber", cfg.Transcriber.Provider,
		"translator", cfg.Translator.Provider,
		"synthesizer", cfg.Synthesizer.Provider,
		"storage", cfg.Storage.Provider,
		"breakers", cfg.Breaker.Enabled,
	)

	ok = true
	return rt, nil
}

// Close releases provider clients in reverse order of creation.
func (rt *Runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}

// ServerOptions attaches the blob reader and metrics endpoint to the HTTP
// boundary.
func (rt *Runtime) ServerOptions() []httpapi.Option {
	opts := []httpapi.Option{httpapi.WithMetricsHandler(rt.Metrics.Handler())}
	if rt.Blobs != nil {
		opts = append(opts, httpapi.WithBlobReader(rt.Blobs))
	}
	return opts
}

func (rt *Runtime) transcriber(ctx context.Context, cfg *config.Config, hc *http.Client) (application.Transcriber, error) {
	switch cfg.Transcriber.Provider {
	case "openai":
		return openai.NewWhisperClient(openAIConfig(cfg.OpenAI, hc)), nil
	case "google":
		c, err := google.NewSpeechClient(ctx, cfg.Google.CredentialsFile, rt.logger)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, c)
		return c, nil
	case "whisper_cli":
		return whisper.NewCLI(whisper.CLIConfig{
			ExecPath:  cfg.Whisper.ExecPath,
			ModelPath: cfg.Whisper.ModelPath,
			Threads:   cfg.Whisper.Threads,
		}, rt.logger)
	case "whisper_cpp":
		n, err := whisper.NewNative(cfg.Whisper.ModelPath, cfg.Whisper.Threads, rt.logger)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, n)
		return n, nil
	case "none":
		return &application.NoopTranscriber{}, nil
	default:
		return stub.NewTranscriber(cfg.Transcriber.StubText, rt.logger), nil
	}
}

func newTranslator(cfg *config.Config, hc *http.Client, logger *slog.Logger) application.Translator {
	switch cfg.Translator.Provider {
	case "google":
		c := google.NewTranslateClient(cfg.Google.TranslateAPIKey)
		if cfg.Google.TranslateEndpoint != "" {
			c = google.NewTranslateClientWithURL(cfg.Google.TranslateAPIKey, cfg.Google.TranslateEndpoint)
		}
		return c.WithHTTPClient(hc)
	case "openai":
		return openai.NewTranslator(openAIConfig(cfg.OpenAI, hc))
	case "anthropic":
		return anthropic.NewClaudeClient(cfg.Anthropic.APIKey, cfg.Anthropic.Model).WithHTTPClient(hc)
	case "gemini":
		return gemini.NewClient(cfg.Gemini.APIKey, cfg.Gemini.Model).WithHTTPClient(hc)
	case "none":
		return &application.NoopTranslator{}
	default:
		return stub.NewTranslator(logger)
	}
}

func newSynthesizer(cfg *config.Config, tempDir string, hc *http.Client, logger *slog.Logger) application.Synthesizer {
	switch cfg.Synthesizer.Provider {
	case "azure":
		opts := []azure.Option{azure.WithHTTPClient(hc), azure.WithVoice(cfg.Azure.Voice)}
		if cfg.Azure.OutputFormat != "" {
			opts = append(opts, azure.WithOutputFormat(cfg.Azure.OutputFormat))
		}
		return azure.NewTTSClient(cfg.Azure.Key, cfg.Azure.Region, logger, opts...)
	case "none":
		return &application.NoopSynthesizer{}
	default:
		return stub.NewSynthesizer(tempDir)
	}
}

func (rt *Runtime) store(ctx context.Context, cfg *config.Config) (application.AudioStore, error) {
	sc := cfg.Storage
	switch sc.Provider {
	case "local":
		s, err := storage.NewLocalStore(sc.LocalDir, sc.PublicBaseURL, rt.logger)
		if err != nil {
			return nil, err
		}
		rt.Blobs = s
		return s, nil
	case "redis":
		client, err := storage.NewRedisClient(ctx, storage.RedisConfig{
			URL:  sc.Redis.URL,
			Addr: sc.Redis.Addr,
		})
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, client)
		s := storage.NewRedisStore(client, sc.PublicBaseURL, sc.Redis.TTL, rt.logger)
		rt.Blobs = s
		return s, nil
	case "gcs":
		s, err := storage.NewGCSStore(ctx, storage.GCSConfig{
			Bucket:          sc.GCS.Bucket,
			CredentialsFile: sc.GCS.CredentialsFile,
			BaseURL:         sc.GCS.BaseURL,
			PublicRead:      sc.GCS.PublicRead,
		}, rt.logger)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, s)
		return s, nil
	default:
		return &application.NoopAudioStore{}, nil
	}
}

func newMatcher(cfg config.AdviceConfig) (*advice.Matcher, error) {
	kb := advice.DefaultKnowledgeBase()
	if cfg.KnowledgeBase != "" {
		loaded, err := advice.LoadKnowledgeBase(cfg.KnowledgeBase)
		if err != nil {
			return nil, err
		}
		kb = loaded
	}
	return advice.NewMatcher(kb,
		advice.WithStrategy(advice.Strategy(cfg.Strategy)),
		advice.WithWordBoundary(cfg.WordBoundary),
	), nil
}

func newNotifier(cfg config.PushoverConfig) application.Notifier {
	if !cfg.Enabled {
		return &application.NoopNotifier{}
	}
	return pushover.NewClient(cfg.Token, cfg.UserKey, cfg.Title)
}

func openAIConfig(cfg config.OpenAIConfig, hc *http.Client) openai.Config {
	return openai.Config{
		APIKey:             cfg.APIKey,
		BaseURL:            cfg.BaseURL,
		Model:              cfg.Model,
		TranscriptionModel: cfg.TranscriptionModel,
		HTTPClient:         hc,
	}
}

// NewLogger builds the process logger. Text output goes through tint.
func NewLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	} else {
		handler = tint.NewHandler(w, &tint.Options{Level: level})
	}

	return slog.New(handler)
}
