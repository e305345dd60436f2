package lexicon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggest(t *testing.T) {
	m := NewMemory(FoldCase)
	m.Replace([]Entry{
		{Key: "house", Count: 50, Variety: 10},
		{Key: "horse", Count: 20, Variety: 10},
		{Key: "hose", Count: 5, Variety: 2},
		{Key: "mouse", Count: 90, Variety: 10},
		{Key: "household", Count: 3, Variety: 3},
	}, nil)

	tests := []struct {
		name  string
		word  string
		limit int
		want  []string
	}{
		{"single edit ranked by count", "hous", 3, []string{"house", "horse", "hose"}},
		{"transposition", "huose", 1, []string{"house"}},
		{"capitalization kept", "Hous", 1, []string{"House"}},
		{"limit zero", "hous", 0, nil},
		{"too short", "h", 5, nil},
		{"first letter must match", "xouse", 5, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Suggest(tt.word, tt.limit)
			var words []string
			for _, s := range got {
				words = append(words, s.Word)
			}
			assert.Equal(t, tt.want, words)
		})
	}
}

func TestSuggestCaseVariantUnderStrictCase(t *testing.T) {
	m := NewMemory(StrictCase)
	m.AddWord("house", 1, 1)
	m.AddWord("House", 1, 1)
	got := m.Suggest("house", 5)
	require.Len(t, got, 1)
	assert.Equal(t, "House", got[0].Word)
	assert.Equal(t, 0, got[0].Distance)
}

func TestEditDistance(t *testing.T) {
	assert.Equal(t, 0, editDistance("abc", "abc"))
	assert.Equal(t, 1, editDistance("abc", "acb"))
	assert.Equal(t, 1, editDistance("abc", "ab"))
	assert.Equal(t, 3, editDistance("", "abc"))
	assert.Equal(t, 0, editDistance("ABC", "abc"))
}
