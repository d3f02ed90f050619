package interval

import (
	"math"
	"sort"
)

// This file holds the helpers for representing an interval-union as a
// sorted []PosType of endpoints: interval k occupies
// [endpoints[2k], endpoints[2k+1]).
//
// For example, the intervals
//   [5, 15)
//   [7, 17)
//   [20, 25)
// union to
//   [5, 17) U [20, 25)
// which is stored as {5, 17, 20, 25}.  An odd EndpointIndex for pos means
// pos is covered.

// PosType is the coordinate type.  int32 is wide enough for every human
// chromosome in both builds the array migration deals with.
type PosType int32

// PosTypeMax is the maximum value that can be represented by a PosType.
const PosTypeMax = math.MaxInt32

// SearchPosTypes returns the index of x in a[], or the position where x would
// be inserted if x isn't in a (this could be len(a)).
func SearchPosTypes(a []PosType, x PosType) EndpointIndex {
	return EndpointIndex(sort.Search(len(a), func(i int) bool { return a[i] >= x }))
}

// ExpsearchPosType performs exponential search starting from idx: it checks
// a[idx], a[idx+1], a[idx+3], a[idx+7], ... and finishes with binary search
// once it has overshot x or hit the end of the slice.  It beats
// SearchPosTypes when queries arrive in increasing order.
func ExpsearchPosType(a []PosType, x PosType, idx EndpointIndex) EndpointIndex {
	nextIncr := EndpointIndex(1)
	startIdx := idx
	endIdx := EndpointIndex(len(a))
	for idx < endIdx {
		if a[idx] >= x {
			endIdx = idx
			break
		}
		startIdx = idx + 1
		idx += nextIncr
		nextIncr *= 2
	}
	for startIdx < endIdx {
		midIdx := EndpointIndex((uint(startIdx) + uint(endIdx)) >> 1)
		if a[midIdx] >= x {
			endIdx = midIdx
		} else {
			startIdx = midIdx + 1
		}
	}
	return startIdx
}

// EndpointIndex is the result of SearchPosTypes(endpoints, pos+1).  Note the
// "+1": it lines the search up with left-closed right-open intervals.
type EndpointIndex uint32

// Contained returns whether the position is inside an interval.
func (ei EndpointIndex) Contained() bool {
	return ei&1 != 0
}

// Update moves the index to newPos, which must not be smaller than the
// previous position.
func (ei *EndpointIndex) Update(newPos PosType, endpoints []PosType) {
	*ei = ExpsearchPosType(endpoints, newPos+1, *ei)
}

// UnionScanner iterates over the intervals of an endpoint sequence.
//   us := NewUnionScanner(endpoints)
//   var start, end PosType
//   for us.Scan(&start, &end) {
//     ...
//   }
type UnionScanner struct {
	endpoints []PosType
	idx       int
}

// NewUnionScanner returns a UnionScanner positioned before the first
// interval.
func NewUnionScanner(endpoints []PosType) UnionScanner {
	return UnionScanner{endpoints: endpoints}
}

// Scan stores the next interval in *start and *end, returning false once
// the intervals are exhausted.
func (us *UnionScanner) Scan(start *PosType, end *PosType) bool {
	if us.idx+1 >= len(us.endpoints) {
		return false
	}
	*start = us.endpoints[us.idx]
	*end = us.endpoints[us.idx+1]
	us.idx += 2
	return true
}
