package checker

import (
	"testing"

	"github.com/bastiangx/wordcheck/pkg/lexicon"
	"github.com/bastiangx/wordcheck/pkg/tokenize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classifyText(t *testing.T, text string, lex lexicon.Lexicon) Outcome {
	t.Helper()
	words, phrases := tokenize.Tokenize(text)
	out, err := ClassifyTokens(words, phrases, lex, lex.CaseMode())
	require.NoError(t, err)
	return out
}

func summary(out Outcome) map[string]Classification {
	got := make(map[string]Classification)
	for _, r := range out.Results {
		got[r.Token.Text] = r.Class
	}
	return got
}

func TestClassifyThresholds(t *testing.T) {
	tests := []struct {
		count, variety int
		want           Classification
	}{
		{3, 3, Classification{Tag: Known}},
		{2, 5, Classification{Tag: LowStat, Reasons: LowCount}},
		{5, 2, Classification{Tag: LowStat, Reasons: LowVariety}},
		{0, 0, Classification{Tag: LowStat, Reasons: LowCount | LowVariety}},
	}
	for _, tt := range tests {
		got := Classify(lexicon.Entry{Count: tt.count, Variety: tt.variety})
		assert.Equal(t, tt.want, got, "count=%d variety=%d", tt.count, tt.variety)
	}
}

func TestClassifyKnownPhraseConsumesWords(t *testing.T) {
	out := classifyText(t, "good night", testLexicon(lexicon.StrictCase))
	require.Len(t, out.Results, 1)
	assert.Equal(t, "good night", out.Results[0].Key)
	assert.Equal(t, Known, out.Results[0].Class.Tag)
	assert.Equal(t, []Range{{0, 10}}, out.Consumed)
}

func TestClassifyStoredPhraseSpacing(t *testing.T) {
	for _, stored := range []string{"good  night", "good\tnight", "good night ", " Good\n night"} {
		t.Run(stored, func(t *testing.T) {
			lex := lexicon.NewMemory(lexicon.FoldCase)
			lex.Replace(nil, []lexicon.Entry{{Key: stored, Count: 9, Variety: 9}})

			for _, doc := range []string{"good  night", "good night", "good\tnight"} {
				out := classifyText(t, doc, lex)
				require.Len(t, out.Results, 1, "document %q", doc)
				assert.Equal(t, "good night", out.Results[0].Key)
				assert.Equal(t, Known, out.Results[0].Class.Tag)
				assert.Len(t, out.Consumed, 1)
			}
		})
	}
}

func TestClassifySubPhrase(t *testing.T) {
	out := classifyText(t, "xyz said good  night to the cat", testLexicon(lexicon.StrictCase))
	got := summary(out)

	assert.Equal(t, Known, got["good  night"].Tag)
	assert.NotContains(t, got, "good")
	assert.NotContains(t, got, "night")
	assert.Equal(t, Unknown, got["xyz"].Tag)
	assert.Equal(t, Unknown, got["said"].Tag)
	assert.Equal(t, Known, got["cat"].Tag)
	assert.Equal(t, []Range{{9, 20}}, out.Consumed)
}

func TestClassifyLowStatPhrase(t *testing.T) {
	out := classifyText(t, "this as well as that", testLexicon(lexicon.FoldCase))
	got := summary(out)
	assert.Equal(t, Classification{Tag: LowStat, Reasons: LowCount}, got["as well as"])
	assert.NotContains(t, got, "well")
}

func TestClassifyCaseModes(t *testing.T) {
	strict := summary(classifyText(t, "Cat cat", testLexicon(lexicon.StrictCase)))
	assert.Equal(t, Unknown, strict["Cat"].Tag)
	assert.Equal(t, Known, strict["cat"].Tag)

	out := classifyText(t, "Cat cat", testLexicon(lexicon.FoldCase))
	require.Len(t, out.Results, 2)
	assert.Equal(t, out.Results[0].Key, out.Results[1].Key)
	assert.Equal(t, Known, out.Results[0].Class.Tag)

	out = classifyText(t, "GOOD Night", testLexicon(lexicon.FoldCase))
	require.Len(t, out.Results, 1)
	assert.Equal(t, "good night", out.Results[0].Key)
}

func TestClassifyResultsInDocumentOrder(t *testing.T) {
	out := classifyText(t, "zz. good night qq", testLexicon(lexicon.StrictCase))
	var starts []int
	for _, r := range out.Results {
		starts = append(starts, r.Token.Start)
	}
	assert.IsIncreasing(t, starts)
}

func TestClassifyLookupFailure(t *testing.T) {
	lex := &flakyLexicon{Memory: testLexicon(lexicon.StrictCase), down: true}
	words, phrases := tokenize.Tokenize("cat")
	_, err := ClassifyTokens(words, phrases, lex, lexicon.StrictCase)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLexiconUnavailable)
	assert.ErrorIs(t, err, errStoreDown)
}
