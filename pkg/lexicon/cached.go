package lexicon

import (
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"
)

type cachedLookup struct {
	entry Entry
	found bool
}

// Cached memoizes lookups of a slower Lexicon. Misses are cached too. Errors
// are never cached. The cache is flushed whenever the wrapped lexicon reports a
// new generation or case mode.
type Cached struct {
	inner      Lexicon
	words      *cache.Cache
	phrases    *cache.Cache
	seenGen    atomic.Uint64
	seenMode   atomic.Int32
	hits, miss atomic.Uint64
}

// NewCached wraps inner. ttl and cleanup follow go-cache semantics; a ttl of 0
// keeps entries until the next flush.
func NewCached(inner Lexicon, ttl, cleanup time.Duration) *Cached {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	c := &Cached{
		inner:   inner,
		words:   cache.New(ttl, cleanup),
		phrases: cache.New(ttl, cleanup),
	}
	c.seenGen.Store(c.innerGeneration())
	c.seenMode.Store(int32(inner.CaseMode()))
	return c
}

func (c *Cached) innerGeneration() uint64 {
	if g, ok := c.inner.(Generational); ok {
		return g.Generation()
	}
	return 0
}

func (c *Cached) sync() {
	gen := c.innerGeneration()
	mode := int32(c.inner.CaseMode())
	if c.seenGen.Swap(gen) != gen || c.seenMode.Swap(mode) != mode {
		c.Flush()
	}
}

// Flush drops every cached lookup.
func (c *Cached) Flush() {
	c.words.Flush()
	c.phrases.Flush()
}

func (c *Cached) LookupWord(key string) (Entry, bool, error) {
	c.sync()
	return c.lookup(c.words, key, c.inner.LookupWord)
}

func (c *Cached) LookupPhrase(key string) (Entry, bool, error) {
	c.sync()
	return c.lookup(c.phrases, key, c.inner.LookupPhrase)
}

func (c *Cached) lookup(store *cache.Cache, key string, fetch func(string) (Entry, bool, error)) (Entry, bool, error) {
	if v, ok := store.Get(key); ok {
		c.hits.Add(1)
		r := v.(cachedLookup)
		return r.entry, r.found, nil
	}
	c.miss.Add(1)
	e, found, err := fetch(key)
	if err != nil {
		return Entry{}, false, err
	}
	store.SetDefault(key, cachedLookup{entry: e, found: found})
	return e, found, nil
}

func (c *Cached) CaseMode() CaseMode {
	return c.inner.CaseMode()
}

// SetCaseMode forwards to the wrapped lexicon if it can switch modes.
func (c *Cached) SetCaseMode(mode CaseMode) {
	if s, ok := c.inner.(CaseSwitcher); ok {
		s.SetCaseMode(mode)
	}
	c.sync()
}

// Explain forwards to the wrapped lexicon. Explanations are not cached.
func (c *Cached) Explain(text string) (string, bool, error) {
	if ex, ok := c.inner.(Explainer); ok {
		return ex.Explain(text)
	}
	return "", false, nil
}

func (c *Cached) Generation() uint64 {
	return c.innerGeneration()
}

// MaxPhraseWords forwards to the wrapped lexicon, or reports -1 when it does
// not know its bound.
func (c *Cached) MaxPhraseWords() int {
	if pb, ok := c.inner.(PhraseBounded); ok {
		return pb.MaxPhraseWords()
	}
	return -1
}

// Stats reports cache hits, misses and current sizes.
func (c *Cached) Stats() map[string]int {
	return map[string]int{
		"hits":    int(c.hits.Load()),
		"misses":  int(c.miss.Load()),
		"words":   c.words.ItemCount(),
		"phrases": c.phrases.ItemCount(),
	}
}
