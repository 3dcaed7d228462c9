package application

import "strings"

// MarkerRule substitutes Text when Marker occurs in the input
// (case-insensitive).
type MarkerRule struct {
	Marker string `yaml:"marker"`
	Text   string `yaml:"text"`
}

// FallbackRules replaces a failed translation with canned text. Rules are
// tried in order; Default is used when none matches.
type FallbackRules struct {
	Rules   []MarkerRule `yaml:"rules"`
	Default string       `yaml:"default"`
}

// Apply returns the text of the first rule whose marker occurs in input.
func (f FallbackRules) Apply(input string) string {
	lower := strings.ToLower(input)
	for _, r := range f.Rules {
		if r.Marker != "" && strings.Contains(lower, strings.ToLower(r.Marker)) {
			return r.Text
		}
	}
	return f.Default
}

// DefaultInboundRules cover isiZulu transcripts that could not be
// translated to English.
func DefaultInboundRules() FallbackRules {
	return FallbackRules{
		Rules: []MarkerRule{
			{Marker: "utamatisi", Text: "When should I plant tomatoes?"},
			{Marker: "isitshalo", Text: "How do I care for my plants?"},
			{Marker: "nambuzane", Text: "How do I control pests?"},
		},
		Default: "I need farming advice.",
	}
}

// DefaultOutboundRules cover English advice that could not be translated
// back to isiZulu.
func DefaultOutboundRules() FallbackRules {
	return FallbackRules{
		Rules: []MarkerRule{
			{Marker: "tomato", Text: "Utamatisi: Tshala phakathi kukaMeyi noJuni lapho inhlabathi ifudumele. Hlukanisa izitshalo ngamasentimitha angu-45-60."},
			{Marker: "plant", Text: "Ukutshala: Khetha isikhathi esifanele sesilimo ngasinye. Iningi lemifino likhula kahle entwasahlobo nasehlobo."},
		},
		Default: "Iseluleko sokulima: Sebenzisa izindlela ezisimeme, hlola izitshalo zakho njalo, gcina inhlabathi.",
	}
}
