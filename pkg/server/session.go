package server

import (
	"github.com/bastiangx/wordcheck/pkg/checker"
)

// session is the DocumentHost behind the IPC stream. It holds the latest
// text a client sent and buffers what the engine emits until the response is
// written.
type session struct {
	text   string
	ranges map[checker.Tag][]checker.Range
	ops    []checker.Op
}

func newSession() *session {
	return &session{ranges: make(map[checker.Tag][]checker.Range)}
}

func (s *session) CurrentText() string {
	return s.text
}

func (s *session) ApplyRanges(tag checker.Tag, ranges []checker.Range) {
	s.ranges[tag] = ranges
}

func (s *session) ApplySidebarOps(ops []checker.Op) {
	s.ops = append(s.ops, ops...)
}

// drain returns and forgets everything emitted since the last call.
func (s *session) drain() (map[string][][2]int, []WireOp) {
	var ranges map[string][][2]int
	if len(s.ranges) > 0 {
		ranges = make(map[string][][2]int, len(s.ranges))
		for tag, rs := range s.ranges {
			ranges[tag.String()] = wireRanges(rs)
		}
	}
	var ops []WireOp
	for _, op := range s.ops {
		ops = append(ops, wireOp(op))
	}
	clear(s.ranges)
	s.ops = nil
	return ranges, ops
}

func wireRanges(rs []checker.Range) [][2]int {
	out := make([][2]int, 0, len(rs))
	for _, r := range rs {
		out = append(out, [2]int{r.Start, r.End})
	}
	return out
}

func wireItem(it checker.SidebarItem) *WireItem {
	return &WireItem{
		Key:     it.Key,
		Display: it.Display,
		Tag:     it.Class.Tag.String(),
		Reasons: it.Class.Reasons.Names(),
	}
}

func wireOp(op checker.Op) WireOp {
	w := WireOp{Kind: op.Kind()}
	switch o := op.(type) {
	case checker.OpInsert:
		w.Key, w.Pos, w.Item = o.Item.Key, o.Pos, wireItem(o.Item)
	case checker.OpUpdate:
		w.Key, w.Item = o.Key, wireItem(o.Item)
	case checker.OpMove:
		w.Key, w.Pos = o.Key, o.Pos
	case checker.OpDelete:
		w.Key = o.Key
	}
	return w
}
