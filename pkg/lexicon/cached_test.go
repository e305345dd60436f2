package lexicon

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingLexicon struct {
	*Memory
	calls int
	fail  error
}

func (c *countingLexicon) LookupWord(key string) (Entry, bool, error) {
	c.calls++
	if c.fail != nil {
		return Entry{}, false, c.fail
	}
	return c.Memory.LookupWord(key)
}

func TestCachedMemoizesHitsAndMisses(t *testing.T) {
	inner := &countingLexicon{Memory: NewMemory(FoldCase)}
	inner.AddWord("cat", 5, 4)
	c := NewCached(inner, time.Minute, time.Minute)

	for i := 0; i < 3; i++ {
		_, ok, err := c.LookupWord("cat")
		require.NoError(t, err)
		assert.True(t, ok)
		_, ok, err = c.LookupWord("dog")
		require.NoError(t, err)
		assert.False(t, ok)
	}
	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, 4, c.Stats()["hits"])
}

func TestCachedFlushesOnGeneration(t *testing.T) {
	inner := &countingLexicon{Memory: NewMemory(FoldCase)}
	c := NewCached(inner, 0, time.Minute)

	_, ok, _ := c.LookupWord("cat")
	assert.False(t, ok)

	inner.AddWord("cat", 5, 4)
	e, ok, _ := c.LookupWord("cat")
	require.True(t, ok)
	assert.Equal(t, 5, e.Count)
	assert.Equal(t, inner.Generation(), c.Generation())
}

func TestCachedDoesNotCacheErrors(t *testing.T) {
	boom := errors.New("boom")
	inner := &countingLexicon{Memory: NewMemory(FoldCase), fail: boom}
	inner.AddWord("cat", 1, 1)
	c := NewCached(inner, time.Minute, time.Minute)

	_, _, err := c.LookupWord("cat")
	require.ErrorIs(t, err, boom)

	inner.fail = nil
	_, ok, err := c.LookupWord("cat")
	require.NoError(t, err)
	assert.True(t, ok)
}

type unboundedLexicon struct{ Lexicon }

func TestCachedUnknownPhraseBound(t *testing.T) {
	c := NewCached(unboundedLexicon{NewMemory(FoldCase)}, 0, 0)
	assert.Equal(t, -1, c.MaxPhraseWords())
}

func TestCachedSetCaseModeForwards(t *testing.T) {
	inner := &countingLexicon{Memory: NewMemory(StrictCase)}
	inner.AddWord("Cat", 5, 4)
	c := NewCached(inner, 0, 0)

	_, ok, err := c.LookupWord("cat")
	require.NoError(t, err)
	assert.False(t, ok)

	c.SetCaseMode(FoldCase)
	assert.Equal(t, FoldCase, c.CaseMode())
	_, ok, err = c.LookupWord("cat")
	require.NoError(t, err)
	assert.True(t, ok, "stale miss must not survive a mode switch")
}
