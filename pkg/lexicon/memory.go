package lexicon

import (
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// Memory is an in-process lexicon. Entries are kept twice: as loaded (literal
// keys) and in two patricia tries keyed by the normalized form for the current
// case mode. Switching the mode re-derives the tries from the literal entries.
type Memory struct {
	mu             sync.RWMutex
	mode           CaseMode
	rawWords       []Entry
	rawPhrases     []Entry
	words          *patricia.Trie
	phrases        *patricia.Trie
	maxPhraseWords int
	generation     uint64
}

// NewMemory creates an empty lexicon using mode for key derivation.
func NewMemory(mode CaseMode) *Memory {
	return &Memory{
		mode:    mode,
		words:   patricia.NewTrie(),
		phrases: patricia.NewTrie(),
	}
}

// AddWord adds or replaces a word entry.
func (m *Memory) AddWord(word string, count, variety int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := Entry{Key: word, Count: count, Variety: variety}
	m.rawWords = append(m.rawWords, e)
	m.insert(m.words, e)
	m.generation++
}

// SetExplanation attaches an explanation to the word or phrase key. It reports
// false when no entry has that literal key.
func (m *Memory) SetExplanation(key, explanation string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := func(entries []Entry, norm func(string) string) bool {
		found := false
		for i := range entries {
			if norm(entries[i].Key) == norm(key) {
				entries[i].Explanation = explanation
				found = true
			}
		}
		return found
	}
	found := set(m.rawWords, strings.TrimSpace)
	if set(m.rawPhrases, PhraseKey) {
		found = true
	}
	if found {
		m.rebuild()
		m.generation++
	}
	return found
}

// AddPhrase adds or replaces a phrase entry.
func (m *Memory) AddPhrase(phrase string, count, variety int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := Entry{Key: phrase, Count: count, Variety: variety}
	m.rawPhrases = append(m.rawPhrases, e)
	m.insertPhrase(e)
	m.generation++
}

// Replace swaps the whole contents in one step. Readers never observe a
// half-loaded lexicon.
func (m *Memory) Replace(words, phrases []Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rawWords = append([]Entry(nil), words...)
	m.rawPhrases = append([]Entry(nil), phrases...)
	m.rebuild()
	m.generation++
	log.Debugf("Lexicon replaced: %d words, %d phrases (%s case)", len(words), len(phrases), m.mode)
}

// SetCaseMode changes the key derivation and rebuilds the tries. It is a no-op
// when the mode does not change.
func (m *Memory) SetCaseMode(mode CaseMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mode == mode {
		return
	}
	m.mode = mode
	m.rebuild()
	m.generation++
	log.Debugf("Lexicon case mode set to %s", mode)
}

// rebuild re-derives both tries from the literal entries. Later entries win
// when two literal keys fold onto the same key.
func (m *Memory) rebuild() {
	m.words = patricia.NewTrie()
	m.phrases = patricia.NewTrie()
	m.maxPhraseWords = 0
	for _, e := range m.rawWords {
		m.insert(m.words, e)
	}
	for _, e := range m.rawPhrases {
		m.insertPhrase(e)
	}
}

func (m *Memory) insert(trie *patricia.Trie, e Entry) {
	e.Key = m.mode.Normalize(strings.TrimSpace(e.Key))
	trie.Set(patricia.Prefix(e.Key), e)
}

// insertPhrase keys phrases the way the checker keys document phrases, so
// "good  night" and "good\tnight" are both stored as "good night".
func (m *Memory) insertPhrase(e Entry) {
	e.Key = PhraseKey(e.Key)
	m.insert(m.phrases, e)
	if n := len(strings.Fields(e.Key)); n > m.maxPhraseWords {
		m.maxPhraseWords = n
	}
}

func lookup(trie *patricia.Trie, key string) (Entry, bool) {
	item := trie.Get(patricia.Prefix(key))
	if item == nil {
		return Entry{}, false
	}
	e, ok := item.(Entry)
	if !ok {
		log.Errorf("Unknown item type: %T for key %s", item, key)
		return Entry{}, false
	}
	return e, true
}

// LookupWord returns the entry for an already normalized word key.
func (m *Memory) LookupWord(key string) (Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := lookup(m.words, key)
	return e, ok, nil
}

// Explain returns the explanation of a word, or of a phrase when text holds
// more than one word.
func (m *Memory) Explain(text string) (string, bool, error) {
	key := PhraseKey(text)
	m.mu.RLock()
	defer m.mu.RUnlock()
	key = m.mode.Normalize(key)
	trie := m.words
	if strings.Contains(key, " ") {
		trie = m.phrases
	}
	e, ok := lookup(trie, key)
	if !ok || e.Explanation == "" {
		return "", false, nil
	}
	return e.Explanation, true, nil
}

// LookupPhrase returns the entry for an already normalized phrase key.
func (m *Memory) LookupPhrase(key string) (Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := lookup(m.phrases, key)
	return e, ok, nil
}

func (m *Memory) CaseMode() CaseMode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mode
}

func (m *Memory) Generation() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.generation
}

func (m *Memory) MaxPhraseWords() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.maxPhraseWords
}

// Stats returns counters about the loaded lexicon.
func (m *Memory) Stats() map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	words, phrases := 0, 0
	_ = m.words.Visit(func(patricia.Prefix, patricia.Item) error {
		words++
		return nil
	})
	_ = m.phrases.Visit(func(patricia.Prefix, patricia.Item) error {
		phrases++
		return nil
	})
	return map[string]int{
		"words":          words,
		"phrases":        phrases,
		"maxPhraseWords": m.maxPhraseWords,
		"generation":     int(m.generation),
	}
}
