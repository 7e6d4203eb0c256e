package decoration

import (
	"math"
	"sort"
)

// interval is an inclusive range of screen rows.
type interval struct {
	lo, hi int
	e      *entry
}

// intervalIndex is a static augmented interval tree laid out over a slice
// sorted by lo: the node for [l, r) is its midpoint and maxHi records the
// largest hi in that subtree.
type intervalIndex struct {
	items []interval
	maxHi []int
}

func newIntervalIndex(items []interval) *intervalIndex {
	sort.Slice(items, func(i, j int) bool {
		if items[i].lo != items[j].lo {
			return items[i].lo < items[j].lo
		}
		return items[i].e.ID < items[j].e.ID
	})
	ix := &intervalIndex{items: items, maxHi: make([]int, len(items))}
	ix.build(0, len(items))
	return ix
}

func (ix *intervalIndex) build(l, r int) int {
	if l >= r {
		return math.MinInt
	}
	mid := (l + r) / 2
	m := max(ix.items[mid].hi, ix.build(l, mid), ix.build(mid+1, r))
	ix.maxHi[mid] = m
	return m
}

// query calls visit for every interval intersecting [lo, hi].
func (ix *intervalIndex) query(lo, hi int, visit func(interval)) {
	ix.search(0, len(ix.items), lo, hi, visit)
}

func (ix *intervalIndex) search(l, r, lo, hi int, visit func(interval)) {
	if l >= r {
		return
	}
	mid := (l + r) / 2
	if ix.maxHi[mid] < lo {
		return
	}
	ix.search(l, mid, lo, hi, visit)
	it := ix.items[mid]
	if it.lo > hi {
		return
	}
	if it.hi >= lo {
		visit(it)
	}
	ix.search(mid+1, r, lo, hi, visit)
}

func (ix *intervalIndex) len() int {
	return len(ix.items)
}
