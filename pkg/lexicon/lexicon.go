/*
Package lexicon holds the known words and phrases a document is checked against.

A Lexicon maps a normalized key to usage statistics. Keys are normalized by the
lexicon's CaseMode: literal text under StrictCase, lowercased under FoldCase.
Callers normalize with the same mode before looking up, so both sides always agree.

Three implementations are provided:

	mem := lexicon.NewMemory(lexicon.FoldCase)     // patricia tries, in-process
	store, err := lexicon.OpenSQL("translated.db", lexicon.FoldCase)
	cached := lexicon.NewCached(store, ttl, cleanup)

Memory is the default. SQLStore queries the database for every word lookup,
reads phrases once per generation, and is meant to sit behind Cached.

Stored phrases are keyed with PhraseKey, so a phrase matches whatever spacing
it was saved with.
*/
package lexicon

import (
	"errors"
	"strings"

	"github.com/bastiangx/wordcheck/pkg/tokenize"
)

// CaseMode selects how lookup keys are derived from surface text.
type CaseMode int

const (
	StrictCase CaseMode = iota
	FoldCase
)

// Normalize returns the lookup key for s under the mode.
func (m CaseMode) Normalize(s string) string {
	if m == FoldCase {
		return strings.ToLower(s)
	}
	return s
}

func (m CaseMode) String() string {
	if m == FoldCase {
		return "fold"
	}
	return "strict"
}

// ModeFromStrict maps the "strict_case" config flag to a CaseMode.
func ModeFromStrict(strict bool) CaseMode {
	if strict {
		return StrictCase
	}
	return FoldCase
}

// PhraseKey collapses every whitespace run of a phrase to one space and trims
// both ends. Stored phrases and document phrases are both keyed this way
// before case normalization.
func PhraseKey(s string) string {
	return strings.TrimSpace(tokenize.Join(s))
}

// Entry is the statistics record for one word or phrase. Explanation is empty
// when the source has none.
type Entry struct {
	Key         string
	Count       int
	Variety     int
	Explanation string
}

// ErrUnavailable is wrapped by lookups that fail because the backing store
// cannot be reached.
var ErrUnavailable = errors.New("lexicon unavailable")

// Lexicon is the read-only view the checker consults.
type Lexicon interface {
	LookupWord(key string) (Entry, bool, error)
	LookupPhrase(key string) (Entry, bool, error)
	CaseMode() CaseMode
}

// Generational is implemented by lexicons that can be reloaded. The generation
// changes every time the contents or the case mode change.
type Generational interface {
	Generation() uint64
}

// CaseSwitcher is implemented by lexicons whose matching mode can change at
// runtime.
type CaseSwitcher interface {
	SetCaseMode(CaseMode)
}

// Suggester proposes known words close to an unknown one.
type Suggester interface {
	Suggest(word string, limit int) []Suggestion
}

// Explainer is implemented by lexicons that store explanations. Explain takes
// surface text, a word or a phrase in any spacing, and matches it under the
// lexicon's case mode. ok is false when the entry is missing or has no
// explanation.
type Explainer interface {
	Explain(text string) (explanation string, ok bool, err error)
}

// PhraseBounded is implemented by lexicons that know their longest phrase in
// words. A negative result means the bound is not known.
type PhraseBounded interface {
	MaxPhraseWords() int
}
