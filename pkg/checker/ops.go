package checker

import "fmt"

// Op is one sidebar mutation. The concrete types are OpInsert, OpUpdate,
// OpMove and OpDelete.
type Op interface {
	Kind() string
	fmt.Stringer
}

// OpInsert places Item at Pos, shifting later rows down.
type OpInsert struct {
	Pos  int
	Item SidebarItem
}

// OpUpdate replaces the row with Key in place.
type OpUpdate struct {
	Key  string
	Item SidebarItem
}

// OpMove removes the row with Key and re-inserts it at Pos, counted after the
// removal.
type OpMove struct {
	Key string
	Pos int
}

// OpDelete removes every row with Key.
type OpDelete struct {
	Key string
}

func (OpInsert) Kind() string { return "insert" }
func (OpUpdate) Kind() string { return "update" }
func (OpMove) Kind() string   { return "move" }
func (OpDelete) Kind() string { return "delete" }

func (o OpInsert) String() string { return fmt.Sprintf("insert(%d, %s)", o.Pos, o.Item.Key) }
func (o OpUpdate) String() string { return fmt.Sprintf("update(%s)", o.Key) }
func (o OpMove) String() string   { return fmt.Sprintf("move(%s, %d)", o.Key, o.Pos) }
func (o OpDelete) String() string { return fmt.Sprintf("delete(%s)", o.Key) }

// ApplyOps returns view with ops applied in order. Out of range positions are
// clamped and ops naming missing keys are ignored.
func ApplyOps(view []SidebarItem, ops []Op) []SidebarItem {
	out := append([]SidebarItem(nil), view...)
	for _, op := range ops {
		switch op := op.(type) {
		case OpInsert:
			out = insertAt(out, op.Pos, op.Item)
		case OpUpdate:
			if i := indexOfKey(out, op.Key); i >= 0 {
				out[i] = op.Item
			}
		case OpMove:
			i := indexOfKey(out, op.Key)
			if i < 0 {
				continue
			}
			item := out[i]
			out = append(out[:i], out[i+1:]...)
			out = insertAt(out, op.Pos, item)
		case OpDelete:
			kept := out[:0]
			for _, item := range out {
				if item.Key != op.Key {
					kept = append(kept, item)
				}
			}
			out = kept
		}
	}
	return out
}

func insertAt(items []SidebarItem, pos int, item SidebarItem) []SidebarItem {
	pos = max(0, min(pos, len(items)))
	items = append(items, SidebarItem{})
	copy(items[pos+1:], items[pos:])
	items[pos] = item
	return items
}

func indexOfKey(items []SidebarItem, key string) int {
	for i, item := range items {
		if item.Key == key {
			return i
		}
	}
	return -1
}
