package checker

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/bastiangx/wordcheck/pkg/tokenize"
)

// lineIndex maps between rune offsets and line/column positions of one text.
type lineIndex struct {
	lines      []string
	runeStarts []int
	byteStarts []int
}

func indexLines(text string) lineIndex {
	lines := strings.Split(text, "\n")
	li := lineIndex{
		lines:      lines,
		runeStarts: make([]int, len(lines)),
		byteStarts: make([]int, len(lines)),
	}
	r, b := 0, 0
	for i, line := range lines {
		li.runeStarts[i], li.byteStarts[i] = r, b
		r += utf8.RuneCountInString(line) + 1
		b += len(line) + 1
	}
	return li
}

func (li lineIndex) count() int {
	return len(li.lines)
}

// lineOf returns the line holding rune offset off.
func (li lineIndex) lineOf(off int) int {
	return sort.Search(len(li.runeStarts), func(i int) bool { return li.runeStarts[i] > off }) - 1
}

// span returns the text of lines lo..hi inclusive with its starting offsets.
func (li lineIndex) span(text string, lo, hi int) (string, int, int) {
	hi = min(hi, li.count()-1)
	if lo > hi {
		return "", 0, 0
	}
	end := li.byteStarts[hi] + len(li.lines[hi])
	return text[li.byteStarts[lo]:end], li.runeStarts[lo], li.byteStarts[lo]
}

// mark is one highlighted occurrence, stored by line and column so it stays
// valid while the lines it covers are unchanged.
type mark struct {
	startLine, startCol int
	endLine, endCol     int
	key, display        string
	class               Classification
}

func (li lineIndex) markFor(r Result) mark {
	sl := li.lineOf(r.Token.Start)
	el := li.lineOf(r.Token.End)
	return mark{
		startLine: sl,
		startCol:  r.Token.Start - li.runeStarts[sl],
		endLine:   el,
		endCol:    r.Token.End - li.runeStarts[el],
		key:       r.Key,
		display:   r.Token.Text,
		class:     r.Class,
	}
}

func (li lineIndex) rangeOf(m mark) Range {
	return Range{Start: li.runeStarts[m.startLine] + m.startCol, End: li.runeStarts[m.endLine] + m.endCol}
}

func (li lineIndex) marksFrom(results []Result) []mark {
	var out []mark
	for _, r := range results {
		if r.Class.Tag != Known {
			out = append(out, li.markFor(r))
		}
	}
	return out
}

func sortMarks(marks []mark) {
	sort.SliceStable(marks, func(i, j int) bool {
		if marks[i].startLine != marks[j].startLine {
			return marks[i].startLine < marks[j].startLine
		}
		return marks[i].startCol < marks[j].startCol
	})
}

// lineSpan is an inclusive, 0-based range of lines.
type lineSpan struct {
	lo, hi int
}

func (s lineSpan) overlaps(o lineSpan) bool {
	return s.lo <= o.hi && o.lo <= s.hi
}

// spansOf groups sorted 1-based line numbers into contiguous 0-based spans.
func spansOf(lines []int) []lineSpan {
	var out []lineSpan
	for _, n := range lines {
		i := n - 1
		if len(out) > 0 && out[len(out)-1].hi+1 >= i {
			out[len(out)-1].hi = max(out[len(out)-1].hi, i)
			continue
		}
		out = append(out, lineSpan{lo: i, hi: i})
	}
	return out
}

// multiLinePhrases lists the line spans of phrases that cross a newline.
func multiLinePhrases(text string, li lineIndex) []lineSpan {
	var out []lineSpan
	for p := range tokenize.Phrases(text) {
		if !strings.Contains(p.Text, "\n") {
			continue
		}
		out = append(out, lineSpan{lo: li.lineOf(p.Start), hi: li.lineOf(p.End)})
	}
	return out
}

// widen grows the changed spans until no phrase of either text crosses their
// edges. Lines left outside the result are identical in both texts and their
// tokens classify the same way in both.
func widen(changed, phrases []lineSpan) []lineSpan {
	type tagged struct {
		lineSpan
		changed bool
	}
	all := make([]tagged, 0, len(changed)+len(phrases))
	for _, s := range changed {
		all = append(all, tagged{s, true})
	}
	for _, s := range phrases {
		all = append(all, tagged{s, false})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].lo < all[j].lo })

	var out []lineSpan
	var cur tagged
	open := false
	flush := func() {
		if open && cur.changed {
			out = append(out, cur.lineSpan)
		}
	}
	for _, s := range all {
		if open && s.lo <= cur.hi {
			cur.hi = max(cur.hi, s.hi)
			cur.changed = cur.changed || s.changed
			continue
		}
		flush()
		cur, open = s, true
	}
	flush()
	return out
}
