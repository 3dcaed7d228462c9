package advice_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farm-voice/internal/advice"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "knowledge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadKnowledgeBase(t *testing.T) {
	path := writeFile(t, `
- keyword: Sorghum
  advice: Sorghum tolerates drought.
- keyword: plant
  advice: First planting text.
- keyword: sorghum
  advice: Sorghum needs warm soil.
`)

	kb, err := advice.LoadKnowledgeBase(path)
	require.NoError(t, err)
	require.Len(t, kb, 2)

	assert.Equal(t, "sorghum", kb[0].Keyword)
	assert.Equal(t, "Sorghum needs warm soil.", kb[0].Advice)
	assert.Equal(t, "plant", kb[1].Keyword)

	m := advice.NewMatcher(kb)
	assert.Equal(t, "Sorghum needs warm soil.", m.Advice("can I plant sorghum"))
}

func TestLoadKnowledgeBase_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty list", "[]"},
		{"missing advice", "- keyword: maize\n"},
		{"not a list", "keyword: maize\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := advice.LoadKnowledgeBase(writeFile(t, tt.content))
			assert.Error(t, err)
		})
	}

	_, err := advice.LoadKnowledgeBase(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
