package interval

import (
	"sort"

	storeinterval "github.com/biogo/store/interval"
)

// halfOpen returns the [start, end) range used for overlap tests; an empty
// interval is widened to the single base it sits on.
func halfOpen(iv Interval) (int, int) {
	if iv.End == iv.Start {
		return int(iv.Start), int(iv.Start) + 1
	}
	return int(iv.Start), int(iv.End)
}

// Overlaps returns whether x and y share at least one base.  Chromosomes
// must match.
func Overlaps(x, y Interval) bool {
	if x.Chrom != y.Chrom {
		return false
	}
	xs, xe := halfOpen(x)
	ys, ye := halfOpen(y)
	return xs < ye && ys < xe
}

// treeEntry is an interval stored in the overlap tree.  ord is its position
// in the start-sorted slice the tree was built from, which is also its
// tree ID.
type treeEntry struct {
	start, end int
	ord        int
}

func (e treeEntry) Overlap(b storeinterval.IntRange) bool {
	return e.start < b.End && b.Start < e.end
}
func (e treeEntry) ID() uintptr                   { return uintptr(e.ord) }
func (e treeEntry) Range() storeinterval.IntRange { return storeinterval.IntRange{Start: e.start, End: e.end} }

// treeQuery is a half-open overlap query.
type treeQuery struct {
	start, end int
}

func (q treeQuery) Overlap(b storeinterval.IntRange) bool {
	return q.start < b.End && b.Start < q.end
}

// OverlapIndex answers overlap queries against one chromosome's intervals.
// It is read-only after construction and may be shared between goroutines.
type OverlapIndex struct {
	ivs  []Interval
	tree storeinterval.IntTree
}

// NewOverlapIndex indexes ivs, which must all be on one chromosome and
// sorted by start.
func NewOverlapIndex(ivs []Interval) *OverlapIndex {
	x := &OverlapIndex{ivs: ivs}
	for i, iv := range ivs {
		start, end := halfOpen(iv)
		if err := x.tree.Insert(treeEntry{start: start, end: end, ord: i}, true); err != nil {
			// Ranges are validated on load, so an insert failure is a bug.
			panic(err)
		}
	}
	x.tree.AdjustRanges()
	return x
}

// Len returns the number of indexed intervals.
func (x *OverlapIndex) Len() int {
	return len(x.ivs)
}

func (x *OverlapIndex) matchingOrds(q Interval) []int {
	if x.tree.Len() == 0 {
		return nil
	}
	start, end := halfOpen(q)
	var ords []int
	x.tree.DoMatching(func(e storeinterval.IntInterface) bool {
		ords = append(ords, e.(treeEntry).ord)
		return false
	}, treeQuery{start: start, end: end})
	sort.Ints(ords)
	return ords
}

// Matching returns the indexed intervals overlapping q in start order, ties
// in original input order.  The chromosome of q is not checked.
func (x *OverlapIndex) Matching(q Interval) []Interval {
	ords := x.matchingOrds(q)
	out := make([]Interval, len(ords))
	for i, ord := range ords {
		out[i] = x.ivs[ord]
	}
	return out
}

// Count returns the number of indexed intervals overlapping q.
func (x *OverlapIndex) Count(q Interval) int {
	if x.tree.Len() == 0 {
		return 0
	}
	start, end := halfOpen(q)
	n := 0
	x.tree.DoMatching(func(storeinterval.IntInterface) bool {
		n++
		return false
	}, treeQuery{start: start, end: end})
	return n
}

// Pair is one intersecting (A, B) combination.
type Pair struct {
	A, B Interval
}

// Intersect returns every pair of intervals from a and b sharing at least
// one base.  Pairs are ordered by chromosome, then by a's start order, then
// by b's start order; ties at the same start keep input order.  Rows on
// unknown chromosomes never pair.
func Intersect(a, b *Table) []Pair {
	var pairs []Pair
	for _, c := range Chroms() {
		as, bs := a.Chromosome(c), b.Chromosome(c)
		if len(as) == 0 || len(bs) == 0 {
			continue
		}
		idx := NewOverlapIndex(bs)
		for _, iv := range as {
			for _, match := range idx.Matching(iv) {
				pairs = append(pairs, Pair{A: iv, B: match})
			}
		}
	}
	return pairs
}
