// Package advice maps free-text farming questions to static advice.
package advice

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	seasonalAdvice = "Planting seasons vary by crop and location. Check local climate and soil conditions."
	generalAdvice  = "General farming advice: Practice sustainable agriculture, monitor your crops regularly, maintain soil health, and consult local extension services for specific guidance."
	tipsPrefix     = " Additional tips: "
)

var seasonalTriggers = []string{"when", "season", "time", "planting"}

type topic struct {
	triggers []string
	tips     []string
}

// Checked in this order; every matching topic contributes its tips.
var topics = []topic{
	{
		triggers: []string{"plant", "seed"},
		tips: []string{
			"Ensure proper seed spacing for good air circulation.",
			"Water gently after planting to settle soil around roots.",
			"Label your plantings with dates and varieties.",
		},
	},
	{
		triggers: []string{"water", "irrigation"},
		tips: []string{
			"Check soil moisture by inserting finger 5cm deep.",
			"Water at soil level, not on leaves, to prevent diseases.",
			"Mulch helps retain soil moisture and suppress weeds.",
		},
	},
	{
		triggers: []string{"pest", "disease"},
		tips: []string{
			"Regular monitoring is key to early detection.",
			"Remove and destroy affected plant parts immediately.",
			"Practice crop rotation to break pest and disease cycles.",
		},
	},
}

// Strategy selects how keyword collisions are resolved.
type Strategy string

const (
	// FirstMatch returns the first entry, in base order, whose keyword occurs
	// in the query.
	FirstMatch Strategy = "first_match"
	// LongestMatch prefers the longest matching keyword; ties go to the
	// earlier entry.
	LongestMatch Strategy = "longest_match"
)

// Option configures a Matcher.
type Option func(*Matcher)

// WithStrategy sets the collision strategy. Unknown values keep FirstMatch.
func WithStrategy(s Strategy) Option {
	return func(m *Matcher) {
		if s == LongestMatch {
			m.strategy = LongestMatch
		}
	}
}

// WithWordBoundary requires keywords to start at a word boundary, so that
// "ocean" no longer matches the keyword "bean".
func WithWordBoundary(enabled bool) Option {
	return func(m *Matcher) {
		m.wordBoundary = enabled
	}
}

// Matcher is read-only after construction and safe for concurrent use.
type Matcher struct {
	kb           KnowledgeBase
	strategy     Strategy
	wordBoundary bool
}

func NewMatcher(kb KnowledgeBase, opts ...Option) *Matcher {
	entries := make(KnowledgeBase, len(kb))
	for i, e := range kb {
		entries[i] = Entry{Keyword: strings.ToLower(e.Keyword), Advice: e.Advice}
	}
	m := &Matcher{kb: entries, strategy: FirstMatch}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Advice returns the advice for query. It never returns an empty string.
func (m *Matcher) Advice(query string) string {
	q := strings.ToLower(query)

	if e, ok := m.lookup(q); ok {
		return e.Advice
	}

	if containsAny(q, seasonalTriggers) {
		return seasonalAdvice
	}

	return generalAdvice
}

// ComprehensiveAdvice returns Advice(query) followed by the tip blocks of
// every topic the query mentions.
func (m *Matcher) ComprehensiveAdvice(query string) string {
	base := m.Advice(query)
	q := strings.ToLower(query)

	var tips []string
	for _, t := range topics {
		if containsAny(q, t.triggers) {
			tips = append(tips, t.tips...)
		}
	}

	if len(tips) == 0 {
		return base
	}
	return base + tipsPrefix + strings.Join(tips, " ")
}

func (m *Matcher) lookup(q string) (Entry, bool) {
	best := -1
	for i, e := range m.kb {
		if e.Keyword == "" || !m.contains(q, e.Keyword) {
			continue
		}
		if m.strategy == FirstMatch {
			return e, true
		}
		if best < 0 || len(e.Keyword) > len(m.kb[best].Keyword) {
			best = i
		}
	}
	if best < 0 {
		return Entry{}, false
	}
	return m.kb[best], true
}

func (m *Matcher) contains(q, keyword string) bool {
	if !m.wordBoundary {
		return strings.Contains(q, keyword)
	}
	for offset := 0; offset < len(q); {
		i := strings.Index(q[offset:], keyword)
		if i < 0 {
			return false
		}
		at := offset + i
		if at == 0 {
			return true
		}
		prev, _ := utf8.DecodeLastRuneInString(q[:at])
		if !unicode.IsLetter(prev) && !unicode.IsDigit(prev) {
			return true
		}
		offset = at + 1
	}
	return false
}

func containsAny(q string, words []string) bool {
	for _, w := range words {
		if strings.Contains(q, w) {
			return true
		}
	}
	return false
}
