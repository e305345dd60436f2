package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/bastiangx/wordcheck/pkg/checker"
	"github.com/bastiangx/wordcheck/pkg/config"
	"github.com/bastiangx/wordcheck/pkg/lexicon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plainConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.CLI.Color = false
	return cfg
}

func testLexicon() *lexicon.Memory {
	m := lexicon.NewMemory(lexicon.StrictCase)
	m.AddWord("the", 100, 100)
	m.AddWord("cat", 10, 10)
	m.AddWord("mat", 1, 9)
	return m
}

func run(t *testing.T, lex lexicon.Lexicon, input string) string {
	t.Helper()
	var out bytes.Buffer
	h := NewInputHandler(lex, plainConfig(), strings.NewReader(input), &out)
	require.NoError(t, h.Start())
	return out.String()
}

func TestInteractiveSession(t *testing.T) {
	out := run(t, testLexicon(), strings.Join([]string{
		"the cat sat",
		":show",
		"the mat",
		":show",
		":undo",
		":suggest cta",
		":stats",
		":bogus",
		":q",
		"never read",
	}, "\n"))

	assert.Contains(t, out, "insert(0, sat)")
	assert.Contains(t, out, "1 unknown occurrence, 1 listed (full)")
	assert.Contains(t, out, "the cat [sat]\n\n 1. [sat]\n")
	assert.Contains(t, out, "1 unknown occurrence, 2 listed (full)")
	assert.Contains(t, out, "the cat [sat]\nthe {mat}\n\n 1. [sat]\n 2. {mat} (low_count)\n")
	assert.Contains(t, out, "delete(mat)")
	assert.Contains(t, out, " 1. cat")
	assert.Contains(t, out, "distance 1, count 10")
	assert.Contains(t, out, "full=3 incremental=0 fallback=0 noop=0 cleared=0 requests=7")
	assert.NotContains(t, out, "never read")
}

func TestStrictToggle(t *testing.T) {
	lex := testLexicon()
	out := run(t, lex, "THE CAT\n:strict off\n:strict maybe\n")

	assert.Contains(t, out, "2 unknown occurrences, 2 listed (full)")
	assert.Contains(t, out, "case mode: fold")
	assert.Contains(t, out, "0 unknown occurrences, 0 listed (full)")
	assert.Equal(t, lexicon.FoldCase, lex.CaseMode())
}

func TestClearAndReset(t *testing.T) {
	out := run(t, testLexicon(), "dog\n:reset\n:clear\n")
	assert.Contains(t, out, "1 unknown occurrence, 1 listed (full)")
	assert.Contains(t, out, "0 unknown occurrences, 0 listed (cleared)")
}

func TestCheck(t *testing.T) {
	var out bytes.Buffer
	n, err := Check(testLexicon(), plainConfig(), "the cat sat\non the mat\n", &out)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, strings.HasPrefix(out.String(), "the cat [sat]\n[on] the {mat}\n"), out.String())
	assert.Contains(t, out.String(), " 3. {mat} (low_count)")
	assert.NotContains(t, out.String(), "insert(")
}

func TestHighlightSkipsBadRanges(t *testing.T) {
	r := NewRenderer(&bytes.Buffer{}, false, false)
	got := r.Highlight("héllo wörld",
		[]checker.Range{{Start: 6, End: 11}, {Start: 7, End: 9}, {Start: 10, End: 40}},
		[]checker.Range{{Start: 0, End: 5}},
	)
	assert.Equal(t, "{héllo} [wörld]", got)
}

func TestSidebarEmpty(t *testing.T) {
	r := NewRenderer(&bytes.Buffer{}, false, true)
	assert.Equal(t, "(nothing to report)", r.Sidebar(nil))
}

func TestExplainCommand(t *testing.T) {
	lex := testLexicon()
	require.True(t, lex.SetExplanation("cat", "a small feline"))
	out := run(t, lex, strings.Join([]string{
		":explain the cat",
		":explain cta",
		":explain",
	}, "\n"))

	assert.Contains(t, out, "cat: a small feline")
	assert.Contains(t, out, "[the]: no explanation")
	assert.Contains(t, out, "[cta]: no explanation\n  similar cat: a small feline")
}
