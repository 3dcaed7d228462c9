package infra

import (
	"fmt"
	"strings"
)

var languageNames = map[string]string{
	"zu": "isiZulu",
	"en": "English",
	"xh": "isiXhosa",
	"af": "Afrikaans",
	"st": "Sesotho",
}

// LanguageName returns a human-readable name for a language tag, for use in
// model prompts.
func LanguageName(tag string) string {
	if name, ok := languageNames[strings.ToLower(tag)]; ok {
		return name
	}
	return tag
}

// TranslationPrompt is the system prompt shared by the LLM-backed translators.
func TranslationPrompt(source, target string) string {
	return fmt.Sprintf(`You translate farming questions and advice for smallholder farmers.
Translate the user's message from %s to %s.
Keep crop, pest and product names accurate. Keep the meaning and tone; do not add advice of your own.
Respond with the translation only: no quotes, no notes, no markdown.`,
		LanguageName(source), LanguageName(target))
}

// CleanModelText strips the wrappers models sometimes put around a bare
// answer.
func CleanModelText(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```text")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return strings.TrimSpace(s)
}
