package checker

import (
	"cmp"
	"slices"
)

// HighlightMap holds one entry per normalized key that needs marking.
// For every key FirstOffset only ever decreases and Unknown is never
// downgraded, until Clear.
type HighlightMap struct {
	entries map[string]*HighlightEntry
}

func NewHighlightMap() *HighlightMap {
	return &HighlightMap{entries: make(map[string]*HighlightEntry)}
}

// Merge records one occurrence and reports whether the map changed.
func (m *HighlightMap) Merge(key, display string, offset int, class Classification) bool {
	if class.Tag == Known {
		return false
	}
	e, ok := m.entries[key]
	if !ok {
		m.entries[key] = &HighlightEntry{Key: key, Display: display, FirstOffset: offset, Class: class}
		return true
	}

	before := *e
	if offset < e.FirstOffset {
		e.FirstOffset = offset
		e.Display = display
	}
	switch {
	case e.Class.Tag == Unknown:
	case class.Tag == Unknown:
		e.Class = Classification{Tag: Unknown}
	default:
		e.Class.Reasons |= class.Reasons
	}
	return *e != before
}

// Clear drops every entry.
func (m *HighlightMap) Clear() {
	clear(m.entries)
}

func (m *HighlightMap) Get(key string) (HighlightEntry, bool) {
	e, ok := m.entries[key]
	if !ok {
		return HighlightEntry{}, false
	}
	return *e, true
}

func (m *HighlightMap) Len() int {
	return len(m.entries)
}

// Entries returns a copy of every entry sorted by key.
func (m *HighlightMap) Entries() []HighlightEntry {
	out := make([]HighlightEntry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, *e)
	}
	slices.SortFunc(out, func(a, b HighlightEntry) int { return cmp.Compare(a.Key, b.Key) })
	return out
}

// Ordered returns the entries in sidebar order: Unknown before LowStat, each
// group by FirstOffset, ties by key.
func (m *HighlightMap) Ordered() []HighlightEntry {
	out := m.Entries()
	slices.SortStableFunc(out, func(a, b HighlightEntry) int {
		if a.Class.Tag != b.Class.Tag {
			// Unknown sorts first.
			return cmp.Compare(b.Class.Tag, a.Class.Tag)
		}
		return cmp.Compare(a.FirstOffset, b.FirstOffset)
	})
	return out
}

// Items converts Ordered into sidebar rows.
func (m *HighlightMap) Items() []SidebarItem {
	ordered := m.Ordered()
	out := make([]SidebarItem, len(ordered))
	for i, e := range ordered {
		out[i] = SidebarItem{Key: e.Key, Display: e.Display, Class: e.Class}
	}
	return out
}
