package checker

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/bastiangx/wordcheck/pkg/lexicon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestAnalyzeEndToEnd(t *testing.T) {
	host := newHost("xyz abc xyz")
	eng := New(testLexicon(lexicon.StrictCase), host)

	n, err := eng.Analyze()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	snap := eng.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, HighlightEntry{Key: "xyz", Display: "xyz", FirstOffset: 0, Class: unknown}, snap[0])
	assert.Equal(t, []Range{{0, 3}, {8, 11}}, host.ranges[Unknown])
	assert.Empty(t, host.ranges[LowStat])
	assert.Equal(t, []string{"xyz"}, host.keys())
}

func TestAnalyzeIdempotent(t *testing.T) {
	host := newHost("xyz rare odd the cat")
	eng := New(testLexicon(lexicon.StrictCase), host)

	_, err := eng.Analyze()
	require.NoError(t, err)
	batches, calls := len(host.opBatches), host.rangeCalls

	n, err := eng.Analyze()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, NoOp, eng.Stats().Last)
	assert.Len(t, host.opBatches, batches, "no sidebar ops on a no-op pass")
	assert.Equal(t, calls, host.rangeCalls)
}

func TestAnalyzeLowStatRanges(t *testing.T) {
	host := newHost("rare words, as well as odd")
	eng := New(testLexicon(lexicon.StrictCase), host)
	_, err := eng.Analyze()
	require.NoError(t, err)

	assert.Equal(t, []Range{{5, 10}}, host.ranges[Unknown])
	assert.Equal(t, []Range{{0, 4}, {12, 22}, {23, 26}}, host.ranges[LowStat])
	assert.Equal(t, []string{"words", "rare", "as well as", "odd"}, host.keys())
}

func TestAnalyzeLexiconUnavailable(t *testing.T) {
	lex := &flakyLexicon{Memory: testLexicon(lexicon.StrictCase)}
	host := newHost("xyz abc")
	eng := New(lex, host)
	_, err := eng.Analyze()
	require.NoError(t, err)
	before := eng.Snapshot()
	calls := host.rangeCalls

	host.text = "qqq abc xyz"
	lex.down = true
	_, err = eng.Analyze()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLexiconUnavailable))
	assert.Equal(t, before, eng.Snapshot())
	assert.Equal(t, calls, host.rangeCalls)

	lex.down = false
	n, err := eng.Analyze()
	require.NoError(t, err)
	assert.Equal(t, 2, n, "retry analyzes the same text")
	assert.Equal(t, FullRescan, eng.Stats().Last)
}

func TestAnalyzeEmptyTextClears(t *testing.T) {
	host := newHost("xyz")
	eng := New(testLexicon(lexicon.StrictCase), host)
	_, err := eng.Analyze()
	require.NoError(t, err)

	host.text = "  \n\t"
	n, err := eng.Analyze()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Empty(t, eng.Snapshot())
	assert.Empty(t, host.ranges[Unknown])
	assert.Empty(t, host.view)

	host.text = "xyz"
	_, err = eng.Analyze()
	require.NoError(t, err)
	assert.Equal(t, FullRescan, eng.Stats().Last, "hash was forgotten")
}

func TestAnalyzeCaseModeSwitch(t *testing.T) {
	lex := testLexicon(lexicon.StrictCase)
	lex.AddWord("Cat", 10, 10)
	host := newHost("Cat cat CAT")
	eng := New(lex, host)

	n, err := eng.Analyze()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"CAT"}, host.keys())

	lex.SetCaseMode(lexicon.FoldCase)
	n, err = eng.Analyze()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, FullRescan, eng.Stats().Last)
	assert.Empty(t, host.keys())
}

func TestReset(t *testing.T) {
	host := newHost("xyz abc")
	eng := New(testLexicon(lexicon.StrictCase), host)
	_, err := eng.Analyze()
	require.NoError(t, err)

	eng.Reset()
	assert.Empty(t, eng.Snapshot())
	_, err = eng.Analyze()
	require.NoError(t, err)
	assert.Equal(t, FullRescan, eng.Stats().Last)
	assert.Len(t, eng.Snapshot(), 1)
	assert.Equal(t, 2, eng.Stats().Full)
}

func TestSidebarViewerIsReconciled(t *testing.T) {
	host := viewerHost{newHost("xyz qqq")}
	eng := New(testLexicon(lexicon.StrictCase), host)
	_, err := eng.Analyze()
	require.NoError(t, err)

	// the host drops a row on its own; the next pass restores it
	host.view = host.view[:1]
	eng.Reset()
	_, err = eng.Analyze()
	require.NoError(t, err)
	assert.Equal(t, []string{"xyz", "qqq"}, host.keys())
}

// bigDoc builds a document large enough for incremental passes.
func bigDoc(lines int) []string {
	out := make([]string, lines)
	for i := range out {
		switch i % 4 {
		case 0:
			out[i] = fmt.Sprintf("the cat saw xyz%c and rare odd things", 'a'+rune(i%26))
		case 1:
			out[i] = "we said good"
		case 2:
			out[i] = "night to the abc, as well"
		default:
			out[i] = "as the cat."
		}
	}
	return out
}

func assertSameAnalysis(t require.TestingT, inc *Engine, incHost *fakeHost, text string) {
	fullHost := newHost(text)
	full := New(inc.lex, fullHost)
	want, err := full.Analyze()
	require.NoError(t, err)

	got, err := inc.Analyze()
	require.NoError(t, err)
	require.Equal(t, want, got)
	require.Equal(t, full.Snapshot(), inc.Snapshot())
	require.Equal(t, fullHost.ranges[Unknown], incHost.ranges[Unknown])
	require.Equal(t, fullHost.ranges[LowStat], incHost.ranges[LowStat])
	require.Equal(t, rows(fullHost.view), rows(incHost.view))
}

// rows treats nil and empty views alike.
func rows(view []SidebarItem) []SidebarItem {
	if len(view) == 0 {
		return nil
	}
	return view
}

func TestIncrementalMatchesFull(t *testing.T) {
	lines := bigDoc(600)
	host := newHost(strings.Join(lines, "\n"))
	require.GreaterOrEqual(t, len(host.text), DefaultSmallDocThreshold)
	eng := New(testLexicon(lexicon.StrictCase), host)
	_, err := eng.Analyze()
	require.NoError(t, err)

	edits := []func(){
		func() { lines[10] = "brand new qqq line" },
		func() { lines[101] = "we said good night" },
		func() { lines = append(lines[:200], append([]string{"inserted zzz"}, lines[200:]...)...) },
		func() { lines = append(lines[:50], lines[51:]...) },
		func() { lines[300] = "" },
		func() { lines[len(lines)-1] = "end xyzzy" },
	}
	for i, edit := range edits {
		edit()
		host.text = strings.Join(lines, "\n")
		assertSameAnalysis(t, eng, host, host.text)
		assert.Equal(t, IncrementalRescan, eng.Stats().Last, "edit %d", i)
	}
	assert.Zero(t, eng.Stats().Fallback)
}

func TestIncrementalMatchesFullProperty(t *testing.T) {
	vocab := []string{"the", "cat", "xyz", "rare", "odd", "good", "night", "as", "well", "abc", "qq", "Cat"}
	seps := []string{" ", "  ", ", ", ". ", "\t"}
	lineGen := rapid.Custom(func(t *rapid.T) string {
		n := rapid.IntRange(0, 5).Draw(t, "words")
		var b strings.Builder
		for i := range n {
			if i > 0 {
				b.WriteString(rapid.SampledFrom(seps).Draw(t, "sep"))
			}
			b.WriteString(rapid.SampledFrom(vocab).Draw(t, "word"))
		}
		return b.String()
	})

	rapid.Check(t, func(t *rapid.T) {
		lines := rapid.SliceOfN(lineGen, 1, 20).Draw(t, "lines")
		host := newHost(strings.Join(lines, "\n"))
		eng := New(testLexicon(lexicon.FoldCase), host, WithSmallDocThreshold(1))
		_, err := eng.Analyze()
		require.NoError(t, err)

		steps := rapid.IntRange(1, 6).Draw(t, "steps")
		for range steps {
			at := rapid.IntRange(0, len(lines)-1).Draw(t, "at")
			switch rapid.IntRange(0, 2).Draw(t, "op") {
			case 0:
				lines[at] = lineGen.Draw(t, "replacement")
			case 1:
				lines = append(lines[:at], append([]string{lineGen.Draw(t, "inserted")}, lines[at:]...)...)
			case 2:
				if len(lines) > 1 {
					lines = append(lines[:at], lines[at+1:]...)
				}
			}
			host.text = strings.Join(lines, "\n")
			if strings.TrimSpace(host.text) == "" {
				continue
			}
			assertSameAnalysis(t, eng, host, host.text)
		}
	})
}

// brokenDetector always asks for an incremental pass with a malformed change set.
type brokenDetector struct{}

func (brokenDetector) Decide(prev Previous, current string) (Decision, error) {
	if !prev.Valid {
		return Decision{Kind: FullRescan}, nil
	}
	return Decision{Kind: IncrementalRescan, Lines: []int{3, 1}}, nil
}

type failingDetector struct{}

func (failingDetector) Decide(Previous, string) (Decision, error) {
	return Decision{}, errors.New("no idea")
}

func TestIncrementalFallback(t *testing.T) {
	for name, d := range map[string]ChangeDetector{"malformed": brokenDetector{}, "detector error": failingDetector{}} {
		t.Run(name, func(t *testing.T) {
			host := newHost("xyz abc\nrare thing")
			eng := New(testLexicon(lexicon.StrictCase), host, WithDetector(d))
			_, err := eng.Analyze()
			require.NoError(t, err)
			before := eng.Stats().Fallback

			host.text = "abc qqq\nodd xyz\nmore"
			assertSameAnalysis(t, eng, host, host.text)
			assert.Equal(t, before+1, eng.Stats().Fallback)
			assert.Equal(t, FullRescan, eng.Stats().Last)
		})
	}
}

func TestIncrementalWithoutResyncKeepsGhosts(t *testing.T) {
	host := newHost("xyz abc\nthe cat\nqqq")
	eng := New(testLexicon(lexicon.StrictCase), host, WithSmallDocThreshold(1), WithResync(false))
	_, err := eng.Analyze()
	require.NoError(t, err)

	host.text = "abc abc\nthe cat\nqqq"
	n, err := eng.Analyze()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, IncrementalRescan, eng.Stats().Last)

	_, stillListed := findEntry(eng.Snapshot(), "xyz")
	assert.True(t, stillListed, "without resync a deleted key stays listed")
	assert.Equal(t, []Range{{16, 19}}, host.ranges[Unknown])

	resynced := New(testLexicon(lexicon.StrictCase), newHost("xyz abc\nthe cat\nqqq"), WithSmallDocThreshold(1))
	_, err = resynced.Analyze()
	require.NoError(t, err)
	resynced.host.(*fakeHost).text = "abc abc\nthe cat\nqqq"
	_, err = resynced.Analyze()
	require.NoError(t, err)
	_, stillListed = findEntry(resynced.Snapshot(), "xyz")
	assert.False(t, stillListed)
}

func findEntry(entries []HighlightEntry, key string) (HighlightEntry, bool) {
	for _, e := range entries {
		if e.Key == key {
			return e, true
		}
	}
	return HighlightEntry{}, false
}
