// Package tokenize splits text into word and phrase candidates.
//
// A word is a maximal run of ASCII letters. A phrase is a maximal run of two
// or more words separated only by whitespace, newlines included. The two scans
// are independent: every word of a phrase is also reported as a word token.
// Resolving the overlap is left to the caller.
//
// Offsets are rune positions. Byte offsets are carried as well so callers can
// slice the source text without re-counting.
package tokenize

import (
	"iter"
	"regexp"
	"unicode/utf8"
)

// Kind tells word tokens from phrase tokens.
type Kind int

const (
	Word Kind = iota
	Phrase
)

func (k Kind) String() string {
	if k == Phrase {
		return "phrase"
	}
	return "word"
}

// Token is one candidate span. Start and End are rune offsets, End exclusive.
type Token struct {
	Text      string
	Start     int
	End       int
	ByteStart int
	ByteEnd   int
	Kind      Kind
}

// space matches what counts as a word separator inside a phrase.
const space = `[\s\v\x{85}\p{Zs}\x{2028}\x{2029}]`

var (
	wordPattern   = regexp.MustCompile(`[A-Za-z]+`)
	phrasePattern = regexp.MustCompile(`[A-Za-z]+(?:` + space + `+[A-Za-z]+)+`)
	spacePattern  = regexp.MustCompile(space + `+`)
)

// Tokenize returns the word and phrase streams of text.
func Tokenize(text string) (words, phrases iter.Seq[Token]) {
	return Words(text), Phrases(text)
}

// Words yields every word of text in order.
func Words(text string) iter.Seq[Token] {
	return scan(wordPattern, Word, text, 0, 0)
}

// Phrases yields every phrase of text in order.
func Phrases(text string) iter.Seq[Token] {
	return scan(phrasePattern, Phrase, text, 0, 0)
}

// WordsAt is Words for a slice of a larger document that begins at the given
// rune and byte offsets. Reported offsets are document offsets.
func WordsAt(text string, runeBase, byteBase int) iter.Seq[Token] {
	return scan(wordPattern, Word, text, runeBase, byteBase)
}

// PhrasesAt is Phrases with offsets shifted like WordsAt.
func PhrasesAt(text string, runeBase, byteBase int) iter.Seq[Token] {
	return scan(phrasePattern, Phrase, text, runeBase, byteBase)
}

// WordsOf splits a phrase token into its words.
func WordsOf(phrase Token) []Token {
	var out []Token
	for t := range WordsAt(phrase.Text, phrase.Start, phrase.ByteStart) {
		out = append(out, t)
	}
	return out
}

// Join returns the words of a phrase separated by single spaces.
func Join(phrase string) string {
	return spacePattern.ReplaceAllString(phrase, " ")
}

func scan(re *regexp.Regexp, kind Kind, text string, runeBase, byteBase int) iter.Seq[Token] {
	return func(yield func(Token) bool) {
		pos, runes := 0, runeBase
		for pos < len(text) {
			loc := re.FindStringIndex(text[pos:])
			if loc == nil {
				return
			}
			start, end := pos+loc[0], pos+loc[1]
			runes += utf8.RuneCountInString(text[pos:start])
			n := utf8.RuneCountInString(text[start:end])
			tok := Token{
				Text:      text[start:end],
				Start:     runes,
				End:       runes + n,
				ByteStart: byteBase + start,
				ByteEnd:   byteBase + end,
				Kind:      kind,
			}
			runes += n
			pos = end
			if !yield(tok) {
				return
			}
		}
	}
}
