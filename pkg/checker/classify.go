package checker

import (
	"fmt"
	"iter"

	"github.com/bastiangx/wordcheck/pkg/lexicon"
	"github.com/bastiangx/wordcheck/pkg/tokenize"
)

// DefaultSubPhraseWords bounds the sub-phrase search when the lexicon cannot
// report its longest phrase.
const DefaultSubPhraseWords = 6

// Result is the classification of one token occurrence.
type Result struct {
	Token tokenize.Token
	Key   string
	Class Classification
}

// Outcome is what one classification pass produced. Consumed holds the spans
// of phrases found in the lexicon, in document order. Results holds every
// classified phrase and every word outside Consumed, in document order.
type Outcome struct {
	Consumed []Range
	Results  []Result
}

type lookupResult struct {
	entry lexicon.Entry
	found bool
}

// classifier memoizes lookups for the duration of one pass. All keys in a pass
// are derived with the same case mode.
type classifier struct {
	lex      lexicon.Lexicon
	mode     lexicon.CaseMode
	maxWords int
	words    map[string]lookupResult
	phrases  map[string]lookupResult
}

func newClassifier(lex lexicon.Lexicon, mode lexicon.CaseMode) *classifier {
	maxWords := DefaultSubPhraseWords
	if pb, ok := lex.(lexicon.PhraseBounded); ok {
		if n := pb.MaxPhraseWords(); n >= 0 {
			maxWords = n
		}
	}
	return &classifier{
		lex:      lex,
		mode:     mode,
		maxWords: maxWords,
		words:    make(map[string]lookupResult),
		phrases:  make(map[string]lookupResult),
	}
}

// ClassifyTokens classifies one region. Phrases are resolved first: a phrase
// found in the lexicon consumes its span, and a phrase that is not found is
// searched for the longest found sub-phrases, left to right. Words fully
// inside a consumed span are skipped. Missing words are Unknown. Missing
// phrases produce nothing.
func ClassifyTokens(words, phrases iter.Seq[tokenize.Token], lex lexicon.Lexicon, mode lexicon.CaseMode) (Outcome, error) {
	return newClassifier(lex, mode).classify(words, phrases)
}

func (c *classifier) classify(words, phrases iter.Seq[tokenize.Token]) (Outcome, error) {
	var out Outcome
	var phraseResults []Result
	for p := range phrases {
		hits, err := c.matchPhrase(p)
		if err != nil {
			return Outcome{}, err
		}
		for _, hit := range hits {
			out.Consumed = append(out.Consumed, Range{Start: hit.Token.Start, End: hit.Token.End})
			phraseResults = append(phraseResults, hit)
		}
	}

	var wordResults []Result
	next := 0
	for w := range words {
		for next < len(out.Consumed) && out.Consumed[next].End <= w.Start {
			next++
		}
		if next < len(out.Consumed) && out.Consumed[next].Start <= w.Start && w.End <= out.Consumed[next].End {
			continue
		}
		key := c.mode.Normalize(w.Text)
		r, err := c.lookupWord(key)
		if err != nil {
			return Outcome{}, err
		}
		class := Classification{Tag: Unknown}
		if r.found {
			class = Classify(r.entry)
		}
		wordResults = append(wordResults, Result{Token: w, Key: key, Class: class})
	}

	out.Results = mergeByStart(phraseResults, wordResults)
	return out, nil
}

// matchPhrase returns the lexicon hits inside one phrase run.
func (c *classifier) matchPhrase(p tokenize.Token) ([]Result, error) {
	key := c.phraseKey(p.Text)
	r, err := c.lookupPhrase(key)
	if err != nil {
		return nil, err
	}
	if r.found {
		return []Result{{Token: p, Key: key, Class: Classify(r.entry)}}, nil
	}
	if c.maxWords < 2 {
		return nil, nil
	}

	words := tokenize.WordsOf(p)
	var hits []Result
	for i := 0; i < len(words)-1; {
		matched := 0
		for n := min(c.maxWords, len(words)-i); n >= 2; n-- {
			if i == 0 && n == len(words) {
				continue
			}
			sub := subToken(p, words[i], words[i+n-1])
			key := c.phraseKey(sub.Text)
			r, err := c.lookupPhrase(key)
			if err != nil {
				return nil, err
			}
			if r.found {
				hits = append(hits, Result{Token: sub, Key: key, Class: Classify(r.entry)})
				matched = n
				break
			}
		}
		if matched > 0 {
			i += matched
		} else {
			i++
		}
	}
	return hits, nil
}

func subToken(p, first, last tokenize.Token) tokenize.Token {
	return tokenize.Token{
		Text:      p.Text[first.ByteStart-p.ByteStart : last.ByteEnd-p.ByteStart],
		Start:     first.Start,
		End:       last.End,
		ByteStart: first.ByteStart,
		ByteEnd:   last.ByteEnd,
		Kind:      tokenize.Phrase,
	}
}

func (c *classifier) phraseKey(text string) string {
	return c.mode.Normalize(lexicon.PhraseKey(text))
}

func (c *classifier) lookupWord(key string) (lookupResult, error) {
	if r, ok := c.words[key]; ok {
		return r, nil
	}
	e, found, err := c.lex.LookupWord(key)
	if err != nil {
		return lookupResult{}, fmt.Errorf("%w: word %q: %w", ErrLexiconUnavailable, key, err)
	}
	r := lookupResult{entry: e, found: found}
	c.words[key] = r
	return r, nil
}

func (c *classifier) lookupPhrase(key string) (lookupResult, error) {
	if r, ok := c.phrases[key]; ok {
		return r, nil
	}
	e, found, err := c.lex.LookupPhrase(key)
	if err != nil {
		return lookupResult{}, fmt.Errorf("%w: phrase %q: %w", ErrLexiconUnavailable, key, err)
	}
	r := lookupResult{entry: e, found: found}
	c.phrases[key] = r
	return r, nil
}

func mergeByStart(a, b []Result) []Result {
	out := make([]Result, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i].Token.Start <= b[j].Token.Start {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}
