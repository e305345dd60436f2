package checker

import "sort"

// Reconcile returns the ops that turn the current view into the sidebar order
// of hm.
func Reconcile(current []SidebarItem, hm *HighlightMap) []Op {
	return ReconcileItems(current, hm.Items())
}

// ReconcileItems returns the ops that turn current into target. Target keys
// must be unique.
//
// Deletes come first. Target is then walked in order: new keys are inserted
// right after the previously placed key, changed rows are updated, and rows
// are moved only when they are out of order. The longest run of current rows
// already in target order never moves. Equal inputs produce no ops.
//
// A row counts as changed when any field differs: its display text, its tag,
// or only its LowStat reasons. A reasons-only change is sent as an update so
// hosts that show reasons stay current.
func ReconcileItems(current, target []SidebarItem) []Op {
	targetIndex := make(map[string]int, len(target))
	for i, item := range target {
		targetIndex[item.Key] = i
	}

	seen := make(map[string]int, len(current))
	for _, item := range current {
		seen[item.Key]++
	}

	var ops []Op
	deleted := make(map[string]bool)
	var working []string
	existing := make(map[string]SidebarItem)
	for _, item := range current {
		_, keep := targetIndex[item.Key]
		if !keep || seen[item.Key] > 1 {
			if !deleted[item.Key] {
				ops = append(ops, OpDelete{Key: item.Key})
				deleted[item.Key] = true
			}
			continue
		}
		working = append(working, item.Key)
		existing[item.Key] = item
	}

	order := make([]int, len(working))
	for i, key := range working {
		order[i] = targetIndex[key]
	}
	stable := make(map[string]bool)
	for _, i := range longestIncreasing(order) {
		stable[working[i]] = true
	}

	last := -1
	for _, want := range target {
		old, ok := existing[want.Key]
		if !ok {
			ops = append(ops, OpInsert{Pos: last + 1, Item: want})
			working = insertKey(working, last+1, want.Key)
			last++
			continue
		}
		if old != want {
			ops = append(ops, OpUpdate{Key: want.Key, Item: want})
		}
		at := indexOf(working, want.Key)
		if stable[want.Key] || at == last+1 {
			last = at
			continue
		}
		working = append(working[:at], working[at+1:]...)
		if at < last {
			last--
		}
		ops = append(ops, OpMove{Key: want.Key, Pos: last + 1})
		working = insertKey(working, last+1, want.Key)
		last++
	}
	return ops
}

// longestIncreasing returns the indexes of one longest strictly increasing
// subsequence of seq.
func longestIncreasing(seq []int) []int {
	if len(seq) == 0 {
		return nil
	}
	tails := []int{}
	prev := make([]int, len(seq))
	for i, v := range seq {
		k := sort.Search(len(tails), func(j int) bool { return seq[tails[j]] >= v })
		if k > 0 {
			prev[i] = tails[k-1]
		} else {
			prev[i] = -1
		}
		if k == len(tails) {
			tails = append(tails, i)
		} else {
			tails[k] = i
		}
	}
	out := make([]int, len(tails))
	for i, k := len(tails)-1, tails[len(tails)-1]; i >= 0; i, k = i-1, prev[k] {
		out[i] = k
	}
	return out
}

func insertKey(keys []string, pos int, key string) []string {
	keys = append(keys, "")
	copy(keys[pos+1:], keys[pos:])
	keys[pos] = key
	return keys
}

func indexOf(keys []string, key string) int {
	for i, k := range keys {
		if k == key {
			return i
		}
	}
	return -1
}
