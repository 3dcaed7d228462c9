// Package breaker wraps capability clients in circuit breakers so a provider
// that keeps failing is skipped quickly and its stage falls back at once.
package breaker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"farm-voice/internal/application"
	"farm-voice/internal/domain"
)

// Settings configures every breaker built by a Factory.
type Settings struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	MinRequests  uint32
	FailureRatio float64
}

// StateRecorder is told about every breaker transition.
type StateRecorder interface {
	BreakerStateChanged(name string, open bool)
}

type Option func(*Factory)

// WithStateRecorder reports transitions, typically to metrics.
func WithStateRecorder(r StateRecorder) Option {
	return func(f *Factory) {
		f.recorder = r
	}
}

// Factory builds one breaker per wrapped capability.
type Factory struct {
	settings Settings
	notifier application.Notifier
	recorder StateRecorder
	logger   *slog.Logger
}

func NewFactory(settings Settings, notifier application.Notifier, logger *slog.Logger, opts ...Option) *Factory {
	f := &Factory{
		settings: settings,
		notifier: notifier,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Factory) newBreaker(name string) *gobreaker.CircuitBreaker {
	s := f.settings
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= s.FailureRatio
		},
		OnStateChange: f.stateChanged,
	})
}

func (f *Factory) stateChanged(name string, from, to gobreaker.State) {
	f.logger.Warn("circuit breaker state changed",
		"breaker", name,
		"from", from.String(),
		"to", to.String(),
	)
	if f.recorder != nil {
		f.recorder.BreakerStateChanged(name, to == gobreaker.StateOpen)
	}
	if to != gobreaker.StateOpen || f.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		msg := fmt.Sprintf("%s is failing; answering with fallback text until it recovers", name)
		if err := f.notifier.Notify(ctx, msg); err != nil {
			f.logger.Error("notifying breaker trip", "breaker", name, "error", err)
		}
	}()
}

// refused tags errors from a breaker that did not let the call through, so
// callers can tell them apart from provider failures.
func refused(name string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%s: %w: %w", name, domain.ErrUnavailable, err)
	}
	return err
}

type transcriber struct {
	next application.Transcriber
	cb   *gobreaker.CircuitBreaker
}

func (f *Factory) Transcriber(next application.Transcriber) application.Transcriber {
	return &transcriber{next: next, cb: f.newBreaker("transcriber")}
}

func (t *transcriber) Transcribe(ctx context.Context, clip *domain.AudioClip, language string) (string, error) {
	out, err := t.cb.Execute(func() (interface{}, error) {
		return t.next.Transcribe(ctx, clip, language)
	})
	if err != nil {
		return "", refused(t.cb.Name(), err)
	}
	return out.(string), nil
}

type translator struct {
	next application.Translator
	cb   *gobreaker.CircuitBreaker
}

func (f *Factory) Translator(next application.Translator) application.Translator {
	return &translator{next: next, cb: f.newBreaker("translator")}
}

func (t *translator) Translate(ctx context.Context, text, source, target string) (string, error) {
	out, err := t.cb.Execute(func() (interface{}, error) {
		return t.next.Translate(ctx, text, source, target)
	})
	if err != nil {
		return "", refused(t.cb.Name(), err)
	}
	return out.(string), nil
}

type synthesizer struct {
	next application.Synthesizer
	cb   *gobreaker.CircuitBreaker
}

func (f *Factory) Synthesizer(next application.Synthesizer) application.Synthesizer {
	return &synthesizer{next: next, cb: f.newBreaker("synthesizer")}
}

func (s *synthesizer) Synthesize(ctx context.Context, text, language string) (*domain.SynthesizedAudio, error) {
	out, err := s.cb.Execute(func() (interface{}, error) {
		return s.next.Synthesize(ctx, text, language)
	})
	if err != nil {
		return nil, refused(s.cb.Name(), err)
	}
	return out.(*domain.SynthesizedAudio), nil
}

type store struct {
	next application.AudioStore
	cb   *gobreaker.CircuitBreaker
}

type storageDisabled struct{}

func (f *Factory) AudioStore(next application.AudioStore) application.AudioStore {
	return &store{next: next, cb: f.newBreaker("audio_store")}
}

func (s *store) Store(ctx context.Context, name, contentType string, body io.Reader) (string, error) {
	out, err := s.cb.Execute(func() (interface{}, error) {
		url, err := s.next.Store(ctx, name, contentType, body)
		// An unconfigured backend is not a failing one.
		if errors.Is(err, domain.ErrStorageDisabled) {
			return storageDisabled{}, nil
		}
		return url, err
	})
	if err != nil {
		return "", refused(s.cb.Name(), err)
	}
	if _, ok := out.(storageDisabled); ok {
		return "", domain.ErrStorageDisabled
	}
	return out.(string), nil
}
