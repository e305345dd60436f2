/*
Package checker annotates a document against a lexicon and keeps a host's
overlay and side list in sync with the result.

An Engine pulls text from a DocumentHost, tokenizes it, classifies every word
and phrase, and records the ones that need marking in a HighlightMap. Hosts
receive two kinds of output: replacement range lists per Tag, and a minimal
list of sidebar operations.

	eng := checker.New(lex, host)
	unknown, err := eng.Analyze()
	if errors.Is(err, checker.ErrLexiconUnavailable) {
		// nothing changed; retry later
	}

Engines are synchronous. Hosts serialize calls to Analyze and Reset.
*/
package checker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bastiangx/wordcheck/pkg/lexicon"
)

// LowStatThreshold is the count and variety below which a known entry is
// still marked.
const LowStatThreshold = 3

// ErrLexiconUnavailable is returned by Analyze when a lookup fails. The
// engine state is left exactly as it was before the call.
var ErrLexiconUnavailable = errors.New("lexicon unavailable")

// Tag is the classification of a token.
type Tag int

const (
	Known Tag = iota
	LowStat
	Unknown
)

func (t Tag) String() string {
	switch t {
	case Known:
		return "known"
	case LowStat:
		return "lowstat"
	case Unknown:
		return "unknown"
	}
	return fmt.Sprintf("Tag(%d)", int(t))
}

// Reason is a set of low-stat causes.
type Reason uint8

const (
	LowCount Reason = 1 << iota
	LowVariety
)

// Has reports whether every reason in o is set in r.
func (r Reason) Has(o Reason) bool {
	return r&o == o
}

// Names lists the reasons in r in a fixed order.
func (r Reason) Names() []string {
	var out []string
	if r.Has(LowCount) {
		out = append(out, "low_count")
	}
	if r.Has(LowVariety) {
		out = append(out, "low_variety")
	}
	return out
}

func (r Reason) String() string {
	if r == 0 {
		return "none"
	}
	return strings.Join(r.Names(), "|")
}

// Classification is a Tag plus, for LowStat, the reasons.
type Classification struct {
	Tag     Tag
	Reasons Reason
}

func (c Classification) String() string {
	if c.Tag == LowStat {
		return c.Tag.String() + "(" + c.Reasons.String() + ")"
	}
	return c.Tag.String()
}

// Classify turns lexicon statistics into a classification.
func Classify(e lexicon.Entry) Classification {
	var r Reason
	if e.Count < LowStatThreshold {
		r |= LowCount
	}
	if e.Variety < LowStatThreshold {
		r |= LowVariety
	}
	if r == 0 {
		return Classification{Tag: Known}
	}
	return Classification{Tag: LowStat, Reasons: r}
}

// Range is a half-open span of rune offsets.
type Range struct {
	Start int
	End   int
}

// HighlightEntry is the merged record for one normalized key.
type HighlightEntry struct {
	Key         string
	Display     string
	FirstOffset int
	Class       Classification
}

// SidebarItem is one row of the host's side list.
type SidebarItem struct {
	Key     string
	Display string
	Class   Classification
}

// DocumentHost owns the document and renders the engine's output.
type DocumentHost interface {
	CurrentText() string
	// ApplyRanges replaces every range shown for tag.
	ApplyRanges(tag Tag, ranges []Range)
	ApplySidebarOps(ops []Op)
}

// SidebarViewer is implemented by hosts that can report their live side list.
// Hosts without it are reconciled against the ops the engine already sent.
type SidebarViewer interface {
	SidebarView() []SidebarItem
}
