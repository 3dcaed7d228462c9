package domain

import "encoding/json"

// VoiceQueryResult is the single output of one voice query.
type VoiceQueryResult struct {
	Success            bool
	OriginalTranscript string
	TranslatedQuery    string
	AdviceText         string
	TranslatedAdvice   string
	AudioResponseURL   string
	ErrorMessage       string
}

type resultJSON struct {
	Success            bool    `json:"success"`
	OriginalTranscript string  `json:"original_zulu,omitempty"`
	TranslatedQuery    string  `json:"english_translation,omitempty"`
	AdviceText         string  `json:"farming_advice_en,omitempty"`
	TranslatedAdvice   string  `json:"zulu_advice,omitempty"`
	AudioResponseURL   *string `json:"audio_response_url"`
	Error              string  `json:"error,omitempty"`
}

// MarshalJSON keeps the field names the web client has always read.
// audio_response_url is null when no audio was produced.
func (r VoiceQueryResult) MarshalJSON() ([]byte, error) {
	out := resultJSON{
		Success:            r.Success,
		OriginalTranscript: r.OriginalTranscript,
		TranslatedQuery:    r.TranslatedQuery,
		AdviceText:         r.AdviceText,
		TranslatedAdvice:   r.TranslatedAdvice,
		Error:              r.ErrorMessage,
	}
	if r.AudioResponseURL != "" {
		url := r.AudioResponseURL
		out.AudioResponseURL = &url
	}
	return json.Marshal(out)
}

func (r *VoiceQueryResult) UnmarshalJSON(data []byte) error {
	var in resultJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = VoiceQueryResult{
		Success:            in.Success,
		OriginalTranscript: in.OriginalTranscript,
		TranslatedQuery:    in.TranslatedQuery,
		AdviceText:         in.AdviceText,
		TranslatedAdvice:   in.TranslatedAdvice,
		ErrorMessage:       in.Error,
	}
	if in.AudioResponseURL != nil {
		r.AudioResponseURL = *in.AudioResponseURL
	}
	return nil
}

// HasAudio reports whether a spoken response was stored.
func (r VoiceQueryResult) HasAudio() bool {
	return r.AudioResponseURL != ""
}
