package bootstrap

import (
	"os"
	"path/filepath"

	"farm-voice/config"
	"farm-voice/internal/application"
	"farm-voice/internal/infra/breaker"
)

// Settings maps the assistant section onto application settings, keeping
// the built-in texts and rules for anything left unset.
func Settings(cfg *config.Config) application.Settings {
	s := application.DefaultSettings()
	ac := cfg.Assistant

	s.SourceLanguage = ac.SourceLanguage
	s.PivotLanguage = ac.PivotLanguage
	s.BlobPrefix = ac.BlobPrefix
	s.TempDir = ac.TempDir
	if s.TempDir == "" {
		s.TempDir = filepath.Join(os.TempDir(), "farmvoice")
	}

	setIf(&s.FallbackTranscript, ac.FallbackTranscript)
	setIf(&s.FallbackTranscriptPivot, ac.FallbackTranscriptPivot)
	setIf(&s.Apology, ac.Apology)
	setIf(&s.ApologyPivot, ac.ApologyPivot)

	if ac.Inbound != nil {
		s.Inbound = fallbackRules(*ac.Inbound)
	}
	if ac.Outbound != nil {
		s.Outbound = fallbackRules(*ac.Outbound)
	}

	s.Timeouts = application.StageTimeouts{
		Transcribe: ac.Timeouts.Transcribe,
		Translate:  ac.Timeouts.Translate,
		Synthesize: ac.Timeouts.Synthesize,
		Store:      ac.Timeouts.Store,
	}
	return s
}

func BreakerSettings(cfg config.BreakerConfig) breaker.Settings {
	return breaker.Settings{
		MaxRequests:  cfg.MaxRequests,
		Interval:     cfg.Interval,
		Timeout:      cfg.Timeout,
		MinRequests:  cfg.MinRequests,
		FailureRatio: cfg.FailureRatio,
	}
}

// CaptureFormat is the microphone layout: mono 16-bit at the configured rate.
func CaptureFormat(cfg config.AudioConfig) application.AudioFormat {
	f := application.DefaultAudioFormat()
	if cfg.SampleRate > 0 {
		f.SampleRate = cfg.SampleRate
	}
	return f
}

func fallbackRules(rc config.RulesConfig) application.FallbackRules {
	rules := application.FallbackRules{Default: rc.Default}
	for _, r := range rc.Rules {
		rules.Rules = append(rules.Rules, application.MarkerRule{Marker: r.Marker, Text: r.Text})
	}
	return rules
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
