package application

import (
	"os"
	"time"

	"farm-voice/internal/domain"
)

// StageTimeouts bound each capability call. Zero disables the bound.
type StageTimeouts struct {
	Transcribe time.Duration
	Translate  time.Duration
	Synthesize time.Duration
	Store      time.Duration
}

// Settings holds the languages and canned texts of the assistant.
type Settings struct {
	SourceLanguage string
	PivotLanguage  string

	// FallbackTranscript is used, in the source language, when nothing
	// could be transcribed. FallbackTranscriptPivot is its pivot rendering.
	FallbackTranscript      string
	FallbackTranscriptPivot string

	// Apology is returned to the user on a hard failure.
	Apology      string
	ApologyPivot string

	Inbound  FallbackRules
	Outbound FallbackRules

	Timeouts StageTimeouts

	// TempDir holds the per-request transient audio files.
	TempDir string
	// BlobPrefix namespaces stored responses, e.g. "audio/".
	BlobPrefix string
}

func DefaultSettings() Settings {
	return Settings{
		SourceLanguage:          domain.LanguageZulu,
		PivotLanguage:           domain.LanguageEnglish,
		FallbackTranscript:      "Ngizwa kahle, kodwa angizwanga kahle. Ngicela uphinde usho kabusha.",
		FallbackTranscriptPivot: "I heard you, but not clearly. Please repeat.",
		Apology:                 "Kukhona inkinga. Ngicela uzame futhi.",
		ApologyPivot:            "There was an error. Please try again.",
		Inbound:                 DefaultInboundRules(),
		Outbound:                DefaultOutboundRules(),
		Timeouts: StageTimeouts{
			Transcribe: 60 * time.Second,
			Translate:  15 * time.Second,
			Synthesize: 30 * time.Second,
			Store:      30 * time.Second,
		},
		TempDir:    os.TempDir(),
		BlobPrefix: "audio/",
	}
}
