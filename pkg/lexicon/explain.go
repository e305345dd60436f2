package lexicon

import (
	"cmp"
	"slices"
	"strings"

	"github.com/bastiangx/wordcheck/pkg/tokenize"
)

// defaultExplainPhraseWords bounds the phrase search when the explainer cannot
// report its longest phrase.
const defaultExplainPhraseWords = 6

// Explanation is what ExplainText found for one word or phrase of a text.
// When Text has no explanation, Similar is the closest known word that has one.
type Explanation struct {
	Text               string
	Explanation        string
	Found              bool
	Similar            string
	SimilarExplanation string
}

// ExplainText explains every phrase and word of text. Phrases are matched
// first, longest first from left to right; words inside a matched phrase are
// not explained again. Words without an explanation fall back to their closest
// suggestion from sg, which may be nil. Results are in text order, one per
// distinct surface text. Text without any word is looked up whole.
func ExplainText(ex Explainer, sg Suggester, text string) ([]Explanation, error) {
	maxWords := defaultExplainPhraseWords
	if pb, ok := ex.(PhraseBounded); ok && pb.MaxPhraseWords() >= 0 {
		maxWords = pb.MaxPhraseWords()
	}

	type placed struct {
		start int
		exp   Explanation
	}
	var out []placed
	var consumed [][2]int

	for p := range tokenize.Phrases(text) {
		words := tokenize.WordsOf(p)
		for i := 0; i < len(words); {
			matched := 0
			for n := min(len(words)-i, maxWords); n >= 2; n-- {
				first, last := words[i], words[i+n-1]
				sub := p.Text[first.ByteStart-p.ByteStart : last.ByteEnd-p.ByteStart]
				x, ok, err := ex.Explain(sub)
				if err != nil {
					return nil, err
				}
				if ok {
					out = append(out, placed{first.Start, Explanation{Text: sub, Explanation: x, Found: true}})
					consumed = append(consumed, [2]int{first.Start, last.End})
					matched = n
					break
				}
			}
			i += max(matched, 1)
		}
	}

	inPhrase := func(t tokenize.Token) bool {
		for _, c := range consumed {
			if t.Start >= c[0] && t.End <= c[1] {
				return true
			}
		}
		return false
	}
	hasWords := false
	for w := range tokenize.Words(text) {
		hasWords = true
		if inPhrase(w) {
			continue
		}
		e, err := explainWord(ex, sg, w.Text)
		if err != nil {
			return nil, err
		}
		out = append(out, placed{w.Start, e})
	}
	if !hasWords {
		if whole := strings.TrimSpace(text); whole != "" {
			e, err := explainWord(ex, nil, whole)
			if err != nil {
				return nil, err
			}
			out = append(out, placed{0, e})
		}
	}

	slices.SortStableFunc(out, func(a, b placed) int { return cmp.Compare(a.start, b.start) })
	seen := make(map[string]bool, len(out))
	res := make([]Explanation, 0, len(out))
	for _, f := range out {
		if seen[f.exp.Text] {
			continue
		}
		seen[f.exp.Text] = true
		res = append(res, f.exp)
	}
	return res, nil
}

func explainWord(ex Explainer, sg Suggester, word string) (Explanation, error) {
	e := Explanation{Text: word}
	x, ok, err := ex.Explain(word)
	if err != nil {
		return e, err
	}
	if ok {
		e.Explanation, e.Found = x, true
		return e, nil
	}
	if sg == nil {
		return e, nil
	}
	for _, s := range sg.Suggest(word, 1) {
		x, ok, err := ex.Explain(s.Word)
		if err != nil {
			return e, err
		}
		if ok {
			e.Similar, e.SimilarExplanation = s.Word, x
		}
	}
	return e, nil
}
