package cli

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/bastiangx/wordcheck/internal/utils"
	"github.com/bastiangx/wordcheck/pkg/checker"
	"github.com/bastiangx/wordcheck/pkg/lexicon"
	"github.com/charmbracelet/lipgloss"
)

// Renderer formats analysis output for a terminal. Without color, unknown
// text is wrapped in [brackets] and low-stat text in {braces}.
type Renderer struct {
	unknown lipgloss.Style
	lowstat lipgloss.Style
	faint   lipgloss.Style
	color   bool
	reasons bool
}

// NewRenderer creates a renderer for output written to w.
func NewRenderer(w io.Writer, color, showReasons bool) *Renderer {
	r := lipgloss.NewRenderer(w)
	return &Renderer{
		unknown: r.NewStyle().Underline(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#b4637a", Dark: "#eb6f92"}),
		lowstat: r.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#286983", Dark: "#9ccfd8"}),
		faint:   r.NewStyle().Faint(true),
		color:   color,
		reasons: showReasons,
	}
}

func (r *Renderer) mark(tag checker.Tag, s string) string {
	switch {
	case tag == checker.Unknown && r.color:
		return r.unknown.Render(s)
	case tag == checker.Unknown:
		return "[" + s + "]"
	case tag == checker.LowStat && r.color:
		return r.lowstat.Render(s)
	case tag == checker.LowStat:
		return "{" + s + "}"
	}
	return s
}

func (r *Renderer) dim(s string) string {
	if !r.color {
		return s
	}
	return r.faint.Render(s)
}

type taggedRange struct {
	checker.Range
	tag checker.Tag
}

// Highlight marks the ranges in text. Ranges are rune offsets; ranges that
// overlap an earlier one or run past the end are skipped.
func (r *Renderer) Highlight(text string, unknown, lowstat []checker.Range) string {
	spans := make([]taggedRange, 0, len(unknown)+len(lowstat))
	for _, rg := range unknown {
		spans = append(spans, taggedRange{rg, checker.Unknown})
	}
	for _, rg := range lowstat {
		spans = append(spans, taggedRange{rg, checker.LowStat})
	}
	slices.SortFunc(spans, func(a, b taggedRange) int { return cmp.Compare(a.Start, b.Start) })

	runes := []rune(text)
	var b strings.Builder
	pos := 0
	for _, s := range spans {
		if s.Start < pos || s.End > len(runes) || s.Start >= s.End {
			continue
		}
		b.WriteString(string(runes[pos:s.Start]))
		b.WriteString(r.mark(s.tag, string(runes[s.Start:s.End])))
		pos = s.End
	}
	b.WriteString(string(runes[pos:]))
	return b.String()
}

// Sidebar renders one numbered row per item.
func (r *Renderer) Sidebar(items []checker.SidebarItem) string {
	if len(items) == 0 {
		return r.dim("(nothing to report)")
	}
	rows := make([]string, 0, len(items))
	for i, it := range items {
		row := fmt.Sprintf("%2d. %s", i+1, r.mark(it.Class.Tag, it.Display))
		if r.reasons && it.Class.Tag == checker.LowStat {
			row += " " + r.dim("("+it.Class.Reasons.String()+")")
		}
		rows = append(rows, row)
	}
	return strings.Join(rows, "\n")
}

// Explanations renders one block per explained word or phrase.
func (r *Renderer) Explanations(items []lexicon.Explanation) string {
	if len(items) == 0 {
		return r.dim("(nothing to explain)")
	}
	rows := make([]string, 0, len(items))
	for _, it := range items {
		switch {
		case it.Found:
			rows = append(rows, fmt.Sprintf("%s: %s", it.Text, it.Explanation))
		case it.Similar != "":
			rows = append(rows, fmt.Sprintf("%s: %s", r.mark(checker.Unknown, it.Text), r.dim("no explanation")))
			rows = append(rows, fmt.Sprintf("  similar %s: %s", it.Similar, it.SimilarExplanation))
		default:
			rows = append(rows, fmt.Sprintf("%s: %s", r.mark(checker.Unknown, it.Text), r.dim("no explanation")))
		}
	}
	return strings.Join(rows, "\n")
}

// Ops renders sidebar operations, one per line.
func (r *Renderer) Ops(ops []checker.Op) string {
	rows := make([]string, 0, len(ops))
	for _, op := range ops {
		rows = append(rows, r.dim("  "+op.String()))
	}
	return strings.Join(rows, "\n")
}

// Summary is the one line status after a pass.
func (r *Renderer) Summary(unknown, listed int, decision string) string {
	word := "unknown occurrences"
	if unknown == 1 {
		word = "unknown occurrence"
	}
	count := utils.FormatWithCommas(unknown)
	if r.color {
		count = r.unknown.Render(count)
	}
	return fmt.Sprintf("%s %s, %d listed %s", count, word, listed, r.dim("("+decision+")"))
}
