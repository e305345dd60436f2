package lexicon

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/bastiangx/wordcheck/internal/utils"
	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// MaxEditDistance bounds how far a suggestion may be from the input.
const MaxEditDistance = 2

// Suggestion is a known word close to an unknown one.
type Suggestion struct {
	Word     string
	Count    int
	Distance int
}

// Suggest returns up to limit known words within MaxEditDistance of word,
// closest first, then most frequent. Under StrictCase a word differing only in
// case is a distance 0 suggestion. The input's capitalization is applied to
// the results. Inputs shorter than two runes get no suggestions.
func (m *Memory) Suggest(word string, limit int) []Suggestion {
	if utf8.RuneCountInString(word) < 2 || limit <= 0 {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	lower := strings.ToLower(word)
	self := m.mode.Normalize(word)
	first, _ := utf8.DecodeRuneInString(lower)
	prefixes := []string{string(first)}
	if m.mode == StrictCase {
		if upper := strings.ToUpper(string(first)); upper != prefixes[0] {
			prefixes = append(prefixes, upper)
		}
	}

	seen := make(map[string]bool)
	var out []Suggestion
	for _, prefix := range prefixes {
		err := m.words.VisitSubtree(patricia.Prefix(prefix), func(p patricia.Prefix, item patricia.Item) error {
			candidate := string(p)
			if seen[candidate] || candidate == self {
				return nil
			}
			seen[candidate] = true
			if abs(utf8.RuneCountInString(candidate)-utf8.RuneCountInString(lower)) > MaxEditDistance {
				return nil
			}
			d := editDistance(lower, candidate)
			if d > MaxEditDistance {
				return nil
			}
			e, _ := item.(Entry)
			out = append(out, Suggestion{Word: candidate, Count: e.Count, Distance: d})
			return nil
		})
		if err != nil {
			log.Errorf("Error visiting lexicon subtree: %v", err)
			return nil
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Word < out[j].Word
	})
	if len(out) > limit {
		out = out[:limit]
	}

	capitals := capitalPositions(word)
	for i := range out {
		out[i].Word = applyCapitalization(out[i].Word, capitals)
	}
	return out
}

// editDistance is the optimal string alignment distance, case-insensitive.
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev2 := make([]int, len(rb)+1)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if utils.EqualFold(ra[i-1], rb[j-1]) {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
			if i > 1 && j > 1 && utils.EqualFold(ra[i-1], rb[j-2]) && utils.EqualFold(ra[i-2], rb[j-1]) {
				curr[j] = min(curr[j], prev2[j-2]+1)
			}
		}
		prev2, prev, curr = prev, curr, prev2
	}
	return prev[len(rb)]
}

func capitalPositions(word string) []bool {
	out := make([]bool, 0, len(word))
	for _, r := range word {
		out = append(out, r >= 'A' && r <= 'Z')
	}
	return out
}

// applyCapitalization uppercases the runes of word at the positions that were
// capitals in the input.
func applyCapitalization(word string, capitals []bool) string {
	if len(capitals) == 0 {
		return word
	}
	runes := []rune(word)
	for i := 0; i < len(runes) && i < len(capitals); i++ {
		if capitals[i] && runes[i] >= 'a' && runes[i] <= 'z' {
			runes[i] = runes[i] - 'a' + 'A'
		}
	}
	return string(runes)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
