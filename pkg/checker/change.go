package checker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
)

// DefaultSmallDocThreshold is the document size, in characters, below which
// every pass is a full rescan.
const DefaultSmallDocThreshold = 10000

// DecisionKind is what a ChangeDetector asks the engine to do.
type DecisionKind int

const (
	NoOp DecisionKind = iota
	FullRescan
	IncrementalRescan
)

func (k DecisionKind) String() string {
	switch k {
	case NoOp:
		return "noop"
	case FullRescan:
		return "full"
	case IncrementalRescan:
		return "incremental"
	}
	return fmt.Sprintf("DecisionKind(%d)", int(k))
}

// Decision carries the changed lines of an IncrementalRescan, 1-based, sorted
// and without duplicates.
type Decision struct {
	Kind  DecisionKind
	Lines []int
}

// Previous is the state of the last successful pass. Valid is false before the
// first pass and after a reset.
type Previous struct {
	Text  string
	Hash  uint64
	Valid bool
}

// ChangeDetector chooses between full and incremental analysis.
type ChangeDetector interface {
	Decide(prev Previous, current string) (Decision, error)
}

// HashText is the hash recorded for a checked document.
func HashText(text string) uint64 {
	return xxhash.Sum64String(text)
}

// LineDetector compares documents line by line at equal indexes.
type LineDetector struct {
	SmallDocThreshold int
}

func (d LineDetector) Decide(prev Previous, current string) (Decision, error) {
	if prev.Valid && HashText(current) == prev.Hash {
		return Decision{Kind: NoOp}, nil
	}
	threshold := d.SmallDocThreshold
	if threshold <= 0 {
		threshold = DefaultSmallDocThreshold
	}
	if !prev.Valid || utf8.RuneCountInString(current) < threshold {
		return Decision{Kind: FullRescan}, nil
	}
	return Decision{Kind: IncrementalRescan, Lines: ChangedLines(prev.Text, current)}, nil
}

// ChangedLines returns the 1-based numbers of every line that differs between
// the two texts at the same index, plus its neighbours. A line missing on one
// side compares as empty.
func ChangedLines(oldText, newText string) []int {
	oldLines := strings.Split(oldText, "\n")
	newLines := strings.Split(newText, "\n")
	n := max(len(oldLines), len(newLines))

	marked := make([]bool, n)
	for i := range n {
		if lineAt(oldLines, i) == lineAt(newLines, i) {
			continue
		}
		for j := max(0, i-1); j < min(n, i+2); j++ {
			marked[j] = true
		}
	}
	var out []int
	for i, ok := range marked {
		if ok {
			out = append(out, i+1)
		}
	}
	return out
}

func lineAt(lines []string, i int) string {
	if i < len(lines) {
		return lines[i]
	}
	return ""
}
