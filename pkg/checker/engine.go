package checker

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/bastiangx/wordcheck/internal/logger"
	"github.com/bastiangx/wordcheck/pkg/lexicon"
	"github.com/bastiangx/wordcheck/pkg/tokenize"
	"github.com/charmbracelet/log"
)

// Stats counts passes by outcome.
type Stats struct {
	Full        int
	Incremental int
	Fallback    int
	NoOp        int
	Cleared     int
	Last        DecisionKind
}

// Option configures an Engine.
type Option func(*Engine)

// WithDetector replaces the default LineDetector.
func WithDetector(d ChangeDetector) Option {
	return func(e *Engine) { e.detector = d }
}

// WithSmallDocThreshold sets the size below which the default detector always
// asks for a full rescan.
func WithSmallDocThreshold(chars int) Option {
	return func(e *Engine) { e.threshold = chars }
}

// WithResync controls whether incremental passes rebuild the HighlightMap from
// the live occurrences. With resync off, entries only ever accumulate between
// full rescans and keys whose text was deleted stay listed.
func WithResync(on bool) Option {
	return func(e *Engine) { e.resync = on }
}

// WithLogger sets the logger used for per-pass diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// Engine runs analysis passes for one document.
type Engine struct {
	mu        sync.Mutex
	lex       lexicon.Lexicon
	host      DocumentHost
	detector  ChangeDetector
	threshold int
	resync    bool
	log       *log.Logger

	hm     *HighlightMap
	marks  []mark
	lines  lineIndex
	prev   Previous
	ranges map[Tag][]Range
	view   []SidebarItem

	seeded bool
	mode   lexicon.CaseMode
	gen    uint64

	stats Stats
}

// New creates an engine reading from host and looking words up in lex.
func New(lex lexicon.Lexicon, host DocumentHost, opts ...Option) *Engine {
	e := &Engine{
		lex:       lex,
		host:      host,
		threshold: DefaultSmallDocThreshold,
		resync:    true,
		hm:        NewHighlightMap(),
		ranges:    make(map[Tag][]Range),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.detector == nil {
		e.detector = LineDetector{SmallDocThreshold: e.threshold}
	}
	if e.log == nil {
		e.log = logger.Default("checker")
	}
	return e
}

// pass is the result of analysis that has not been committed yet.
type pass struct {
	text    string
	lines   lineIndex
	marks   []mark
	fresh   []mark
	rebuild bool
}

// Analyze checks the host's current text and pushes changed ranges and sidebar
// ops to the host. It returns the number of Unknown occurrences in the
// document. On ErrLexiconUnavailable nothing is changed or emitted.
func (e *Engine) Analyze() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	text := e.host.CurrentText()
	mode := e.lex.CaseMode()
	gen := generationOf(e.lex)
	stale := e.seeded && (mode != e.mode || gen != e.gen)

	if strings.TrimSpace(text) == "" {
		e.clearState()
		e.prev = Previous{}
		e.lines = indexLines(text)
		e.mode, e.gen, e.seeded = mode, gen, true
		e.stats.Cleared++
		e.publish()
		e.log.Debug("Document empty, cleared highlights")
		return 0, nil
	}

	prev := e.prev
	if stale {
		e.log.Debug("Lexicon changed, forcing full rescan", "mode", mode, "generation", gen)
		prev = Previous{}
	}

	decision, err := e.detector.Decide(prev, text)
	if err != nil {
		e.log.Warn("Change detection failed, rescanning everything", "err", err)
		e.stats.Fallback++
		decision = Decision{Kind: FullRescan}
	}

	var p pass
	switch decision.Kind {
	case NoOp:
		e.stats.NoOp++
		e.stats.Last = NoOp
		return e.unknownCount(), nil
	case IncrementalRescan:
		p, err = e.incremental(text, decision.Lines, mode)
		if err != nil && !errors.Is(err, ErrLexiconUnavailable) {
			e.log.Warn("Incremental pass failed, rescanning everything", "err", err)
			e.stats.Fallback++
			decision.Kind = FullRescan
			p, err = e.full(text, mode)
		}
	default:
		decision.Kind = FullRescan
		p, err = e.full(text, mode)
	}
	if err != nil {
		return 0, err
	}

	e.commit(p)
	e.mode, e.gen, e.seeded = mode, gen, true
	if decision.Kind == FullRescan {
		e.stats.Full++
	} else {
		e.stats.Incremental++
	}
	e.stats.Last = decision.Kind
	count := e.unknownCount()
	e.log.Debug("Analyzed document", "decision", decision.Kind, "marks", len(e.marks), "entries", e.hm.Len(), "unknown", count)
	return count, nil
}

// Reset clears the HighlightMap and makes the next Analyze a full rescan.
// Nothing is emitted until that pass.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clearState()
	e.prev = Previous{}
	e.log.Debug("Engine reset")
}

func (e *Engine) clearState() {
	e.hm.Clear()
	e.marks = nil
}

// Snapshot returns the current entries in sidebar order.
func (e *Engine) Snapshot() []HighlightEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hm.Ordered()
}

// Ranges returns the ranges last emitted for tag.
func (e *Engine) Ranges(tag Tag) []Range {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.ranges[tag])
}

func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

func (e *Engine) full(text string, mode lexicon.CaseMode) (pass, error) {
	li := indexLines(text)
	words, phrases := tokenize.Tokenize(text)
	out, err := newClassifier(e.lex, mode).classify(words, phrases)
	if err != nil {
		return pass{}, err
	}
	marks := li.marksFrom(out.Results)
	return pass{text: text, lines: li, marks: marks, fresh: marks, rebuild: true}, nil
}

// incremental re-classifies only the changed lines, widened so that no phrase
// crosses their edges, and keeps the marks of every other line.
func (e *Engine) incremental(text string, changed []int, mode lexicon.CaseMode) (p pass, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("incremental pass panicked: %v", r)
		}
	}()
	if !e.prev.Valid {
		return pass{}, errors.New("incremental pass without a previous document")
	}
	for i, n := range changed {
		if n < 1 || (i > 0 && n <= changed[i-1]) {
			return pass{}, fmt.Errorf("malformed change set at %d: %v", i, changed)
		}
	}

	oldLines, newLines := e.lines, indexLines(text)
	crossing := append(multiLinePhrases(e.prev.Text, oldLines), multiLinePhrases(text, newLines)...)
	blocks := widen(spansOf(changed), crossing)

	var kept []mark
	for _, m := range e.marks {
		s := lineSpan{lo: m.startLine, hi: m.endLine}
		if !slices.ContainsFunc(blocks, s.overlaps) {
			if m.endLine >= newLines.count() {
				return pass{}, fmt.Errorf("mark %q on line %d past end of document", m.key, m.endLine+1)
			}
			kept = append(kept, m)
		}
	}

	c := newClassifier(e.lex, mode)
	var fresh []mark
	for _, b := range blocks {
		region, runeBase, byteBase := newLines.span(text, b.lo, b.hi)
		if region == "" {
			continue
		}
		out, err := c.classify(tokenize.WordsAt(region, runeBase, byteBase), tokenize.PhrasesAt(region, runeBase, byteBase))
		if err != nil {
			return pass{}, err
		}
		fresh = append(fresh, newLines.marksFrom(out.Results)...)
	}

	marks := append(kept, fresh...)
	sortMarks(marks)
	e.log.Debug("Incremental pass", "changed", len(changed), "blocks", len(blocks), "kept", len(kept), "fresh", len(fresh))
	return pass{text: text, lines: newLines, marks: marks, fresh: fresh, rebuild: e.resync}, nil
}

func (e *Engine) commit(p pass) {
	e.marks = p.marks
	e.lines = p.lines
	e.prev = Previous{Text: p.text, Hash: HashText(p.text), Valid: true}

	merge := p.fresh
	if p.rebuild {
		e.hm.Clear()
		merge = p.marks
	}
	for _, m := range merge {
		e.hm.Merge(m.key, m.display, p.lines.rangeOf(m).Start, m.class)
	}
	e.publish()
}

// publish sends ranges that differ from the last emission and the sidebar ops
// needed to reach the current HighlightMap.
func (e *Engine) publish() {
	next := map[Tag][]Range{Unknown: {}, LowStat: {}}
	for _, m := range e.marks {
		next[m.class.Tag] = append(next[m.class.Tag], e.lines.rangeOf(m))
	}
	for _, tag := range []Tag{Unknown, LowStat} {
		prev, sent := e.ranges[tag]
		if sent && slices.Equal(prev, next[tag]) {
			continue
		}
		e.ranges[tag] = next[tag]
		e.host.ApplyRanges(tag, slices.Clone(next[tag]))
	}

	current := e.view
	if viewer, ok := e.host.(SidebarViewer); ok {
		current = viewer.SidebarView()
	}
	ops := Reconcile(current, e.hm)
	if len(ops) > 0 {
		e.host.ApplySidebarOps(ops)
	}
	e.view = ApplyOps(current, ops)
}

func (e *Engine) unknownCount() int {
	n := 0
	for _, m := range e.marks {
		if m.class.Tag == Unknown {
			n++
		}
	}
	return n
}

func generationOf(lex lexicon.Lexicon) uint64 {
	if g, ok := lex.(lexicon.Generational); ok {
		return g.Generation()
	}
	return 0
}
