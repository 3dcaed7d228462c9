package application

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"farm-voice/internal/domain"
)

// Advisor produces pivot-language advice for a pivot-language query.
type Advisor interface {
	ComprehensiveAdvice(query string) string
}

// StageResult is the explicit outcome of one pipeline stage. When Fallback
// is set, Value holds the canned substitute and Reason the failure.
type StageResult struct {
	Stage    domain.Stage
	Value    string
	Fallback bool
	Reason   error
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithObserver reports stage outcomes, typically to metrics.
func WithObserver(o Observer) Option {
	return func(a *Assistant) {
		a.observer = o
	}
}

// Assistant answers spoken farming questions. It never returns an error:
// capability failures degrade to canned text and only undecodable input or
// an unexpected fault produce an unsuccessful result.
type Assistant struct {
	advisor    Advisor
	stt        Transcriber
	translator Translator
	tts        Synthesizer
	store      AudioStore
	settings   Settings
	observer   Observer
	logger     *slog.Logger
}

func NewAssistant(
	advisor Advisor,
	stt Transcriber,
	translator Translator,
	tts Synthesizer,
	store AudioStore,
	settings Settings,
	logger *slog.Logger,
	opts ...Option,
) *Assistant {
	a := &Assistant{
		advisor:    advisor,
		stt:        stt,
		translator: translator,
		tts:        tts,
		store:      store,
		settings:   settings,
		observer:   NoopObserver{},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ProcessVoiceQuery runs the full pipeline on a base64 audio payload.
func (a *Assistant) ProcessVoiceQuery(ctx context.Context, audioBase64 string) (result domain.VoiceQueryResult) {
	start := time.Now()
	logger := a.logger.With("request_id", uuid.NewString())
	degraded := false

	defer func() {
		if r := recover(); r != nil {
			logger.Error("voice query panicked", "panic", r)
			result = a.failure(fmt.Errorf("unexpected failure: %v", r))
		}
		a.observer.QueryCompleted(result.Success, degraded, time.Since(start))
	}()

	data, err := decodePayload(audioBase64)
	if err != nil {
		logger.Warn("rejecting voice query", "error", err)
		a.observer.StageCompleted(domain.StageDecode, true, time.Since(start))
		return a.failure(err)
	}

	clip := &domain.AudioClip{Data: data, Format: domain.SniffFormat(data)}
	path, cleanup, err := writeTransient(a.settings.TempDir, clip.Format.Extension(), data, logger)
	defer cleanup()
	if err != nil {
		logger.Error("storing query audio", "error", err)
		return a.failure(err)
	}
	clip.Path = path
	logger.Info("received voice query", "bytes", len(data), "format", clip.Format)

	heard := a.transcribe(ctx, clip, logger)
	if heard.Fallback {
		degraded = true
		res := domain.VoiceQueryResult{
			Success:            true,
			OriginalTranscript: heard.Value,
			TranslatedQuery:    a.settings.FallbackTranscriptPivot,
			AdviceText:         heard.Value,
			TranslatedAdvice:   heard.Value,
		}
		res.AudioResponseURL = a.respond(ctx, heard.Value, logger)
		return res
	}

	query := a.translateIn(ctx, heard.Value, logger)

	adviceStart := time.Now()
	adviceText := a.advisor.ComprehensiveAdvice(query.Value)
	a.observer.StageCompleted(domain.StageAdvice, false, time.Since(adviceStart))
	logger.Info("advice selected", "query", query.Value, "chars", len(adviceText))

	reply := a.translateOut(ctx, adviceText, logger)
	degraded = query.Fallback || reply.Fallback

	res := domain.VoiceQueryResult{
		Success:            true,
		OriginalTranscript: heard.Value,
		TranslatedQuery:    query.Value,
		AdviceText:         adviceText,
		TranslatedAdvice:   reply.Value,
	}
	res.AudioResponseURL = a.respond(ctx, reply.Value, logger)

	logger.Info("voice query answered",
		"degraded", degraded,
		"audio", res.HasAudio(),
		"elapsed", time.Since(start),
	)
	return res
}

func (a *Assistant) transcribe(ctx context.Context, clip *domain.AudioClip, logger *slog.Logger) StageResult {
	start := time.Now()
	stageCtx, cancel := withTimeout(ctx, a.settings.Timeouts.Transcribe)
	defer cancel()

	text, err := a.stt.Transcribe(stageCtx, clip, a.settings.SourceLanguage)
	text = strings.TrimSpace(text)
	if err == nil && text == "" {
		err = domain.ErrEmptyTranscript
	}

	res := StageResult{Stage: domain.StageTranscribe, Value: text}
	if err != nil {
		logger.Warn("transcription failed, using fallback transcript",
			"error", err,
			"refused", errors.Is(err, domain.ErrUnavailable),
		)
		res = StageResult{
			Stage:    domain.StageTranscribe,
			Value:    a.settings.FallbackTranscript,
			Fallback: true,
			Reason:   err,
		}
	} else {
		logger.Info("transcribed", "text", text)
	}

	a.observer.StageCompleted(res.Stage, res.Fallback, time.Since(start))
	return res
}

func (a *Assistant) translateIn(ctx context.Context, text string, logger *slog.Logger) StageResult {
	return a.translate(ctx, domain.StageTranslateIn, text,
		a.settings.SourceLanguage, a.settings.PivotLanguage, a.settings.Inbound, logger)
}

func (a *Assistant) translateOut(ctx context.Context, text string, logger *slog.Logger) StageResult {
	return a.translate(ctx, domain.StageTranslateOut, text,
		a.settings.PivotLanguage, a.settings.SourceLanguage, a.settings.Outbound, logger)
}

func (a *Assistant) translate(
	ctx context.Context,
	stage domain.Stage,
	text, source, target string,
	rules FallbackRules,
	logger *slog.Logger,
) StageResult {
	start := time.Now()
	stageCtx, cancel := withTimeout(ctx, a.settings.Timeouts.Translate)
	defer cancel()

	translated, err := a.translator.Translate(stageCtx, text, source, target)
	translated = strings.TrimSpace(translated)
	if err == nil && translated == "" {
		err = domain.ErrEmptyTranslation
	}

	res := StageResult{Stage: stage, Value: translated}
	if err != nil {
		res = StageResult{Stage: stage, Value: rules.Apply(text), Fallback: true, Reason: err}
		logger.Warn("translation failed, using rule fallback",
			"stage", stage,
			"error", err,
			"refused", errors.Is(err, domain.ErrUnavailable),
			"fallback", res.Value,
		)
	} else {
		logger.Debug("translated", "stage", stage, "text", translated)
	}

	a.observer.StageCompleted(stage, res.Fallback, time.Since(start))
	return res
}

// respond synthesizes and stores the spoken answer. Any failure, a panic
// included, yields an empty URL; audio never decides the outcome of the query.
func (a *Assistant) respond(ctx context.Context, text string, logger *slog.Logger) (url string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("audio response panicked, answering without audio", "panic", r)
			url = ""
		}
	}()

	start := time.Now()
	synthCtx, cancel := withTimeout(ctx, a.settings.Timeouts.Synthesize)
	defer cancel()
	audio, err := a.tts.Synthesize(synthCtx, text, a.settings.SourceLanguage)
	if err == nil && (audio == nil || len(audio.Data) == 0) {
		err = errors.New("synthesizer returned no audio")
	}
	a.observer.StageCompleted(domain.StageSynthesize, err != nil, time.Since(start))
	if err != nil {
		logger.Warn("speech synthesis failed, answering without audio",
			"error", err,
			"refused", errors.Is(err, domain.ErrUnavailable),
		)
		return ""
	}

	start = time.Now()
	url, err = a.storeAudio(ctx, audio, logger)
	a.observer.StageCompleted(domain.StageStore, err != nil, time.Since(start))
	switch {
	case errors.Is(err, domain.ErrStorageDisabled):
		logger.Info("audio storage disabled, answering without audio")
		return ""
	case err != nil:
		logger.Warn("storing audio response failed, answering without audio",
			"error", err,
			"refused", errors.Is(err, domain.ErrUnavailable),
		)
		return ""
	}

	logger.Info("audio response stored", "url", url)
	return url
}

func (a *Assistant) storeAudio(ctx context.Context, audio *domain.SynthesizedAudio, logger *slog.Logger) (string, error) {
	ext := audio.Extension()
	path, cleanup, err := writeTransient(a.settings.TempDir, ext, audio.Data, logger)
	defer cleanup()
	if err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening response audio: %w", err)
	}
	defer f.Close()

	contentType := audio.ContentType
	if contentType == "" {
		contentType = "audio/mpeg"
	}

	storeCtx, cancel := withTimeout(ctx, a.settings.Timeouts.Store)
	defer cancel()

	name := a.settings.BlobPrefix + blobToken() + ext
	return a.store.Store(storeCtx, name, contentType, f)
}

func (a *Assistant) failure(err error) domain.VoiceQueryResult {
	return domain.VoiceQueryResult{
		Success:          false,
		TranslatedQuery:  a.settings.ApologyPivot,
		TranslatedAdvice: a.settings.Apology,
		ErrorMessage:     fmt.Sprintf("Failed to process voice query: %v", err),
	}
}

// decodePayload accepts standard, URL-safe and unpadded base64, optionally
// wrapped in a data URL as browsers produce it.
func decodePayload(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	if strings.HasPrefix(payload, "data:") {
		if i := strings.Index(payload, ","); i >= 0 {
			payload = payload[i+1:]
		}
	}
	if payload == "" {
		return nil, fmt.Errorf("%w: empty payload", domain.ErrDecode)
	}

	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	}

	var lastErr error
	for _, enc := range encodings {
		data, err := enc.DecodeString(payload)
		if err == nil {
			if len(data) == 0 {
				return nil, fmt.Errorf("%w: empty audio", domain.ErrDecode)
			}
			return data, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %v", domain.ErrDecode, lastErr)
}

func blobToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
