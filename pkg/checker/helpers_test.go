package checker

import (
	"errors"

	"github.com/bastiangx/wordcheck/pkg/lexicon"
)

type fakeHost struct {
	text       string
	ranges     map[Tag][]Range
	rangeCalls int
	view       []SidebarItem
	opBatches  [][]Op
}

func newHost(text string) *fakeHost {
	return &fakeHost{text: text, ranges: make(map[Tag][]Range)}
}

func (h *fakeHost) CurrentText() string { return h.text }

func (h *fakeHost) ApplyRanges(tag Tag, ranges []Range) {
	h.ranges[tag] = ranges
	h.rangeCalls++
}

func (h *fakeHost) ApplySidebarOps(ops []Op) {
	h.view = ApplyOps(h.view, ops)
	h.opBatches = append(h.opBatches, ops)
}

func (h *fakeHost) keys() []string {
	var out []string
	for _, item := range h.view {
		out = append(out, item.Key)
	}
	return out
}

// viewerHost reports its own side list to the engine.
type viewerHost struct {
	*fakeHost
}

func (h viewerHost) SidebarView() []SidebarItem { return h.view }

var errStoreDown = errors.New("store down")

// flakyLexicon fails every lookup while down is set.
type flakyLexicon struct {
	*lexicon.Memory
	down bool
}

func (f *flakyLexicon) LookupWord(key string) (lexicon.Entry, bool, error) {
	if f.down {
		return lexicon.Entry{}, false, errStoreDown
	}
	return f.Memory.LookupWord(key)
}

func (f *flakyLexicon) LookupPhrase(key string) (lexicon.Entry, bool, error) {
	if f.down {
		return lexicon.Entry{}, false, errStoreDown
	}
	return f.Memory.LookupPhrase(key)
}

func testLexicon(mode lexicon.CaseMode) *lexicon.Memory {
	m := lexicon.NewMemory(mode)
	m.Replace([]lexicon.Entry{
		{Key: "abc", Count: 5, Variety: 5},
		{Key: "cat", Count: 10, Variety: 10},
		{Key: "good", Count: 10, Variety: 10},
		{Key: "rare", Count: 1, Variety: 10},
		{Key: "odd", Count: 2, Variety: 2},
		{Key: "the", Count: 100, Variety: 100},
	}, []lexicon.Entry{
		{Key: "good night", Count: 9, Variety: 9},
		{Key: "as well as", Count: 1, Variety: 5},
	})
	return m
}
