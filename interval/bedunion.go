package interval

import (
	"fmt"
	"strconv"
	"strings"
)

// Union is a per-chromosome set of disjoint intervals, stored as sorted
// endpoint sequences (see endpoint_index.go).  Overlapping and touching
// input intervals are merged and empty ones dropped, so a Union is the
// canonical form used by Complement and coverage queries.
//
// A Union caches its last Contains query; it is therefore not safe for
// concurrent use.  Clone gives each goroutine its own search state.
type Union struct {
	endpoints [NChrom][]PosType
	// lastChrom is the chromosome of the last Contains query, or
	// ChromUnknown.
	lastChrom Chrom
	// lastPosPlus1 is 1 plus the last queried position.
	lastPosPlus1 PosType
	// lastIdx is SearchPosTypes(endpoints[lastChrom], lastPosPlus1).
	lastIdx EndpointIndex
	// isSequential is true if all queries since the last chromosome change
	// have been in order of nondecreasing position.
	isSequential bool
}

// mergeSorted merges start-sorted intervals of one chromosome into an
// endpoint sequence.
func mergeSorted(ivs []Interval) []PosType {
	var (
		endpoints          []PosType
		prevStart, prevEnd PosType = -1, -1
	)
	for _, iv := range ivs {
		if iv.End == iv.Start {
			continue
		}
		if prevEnd < 0 {
			prevStart, prevEnd = iv.Start, iv.End
			continue
		}
		if iv.Start > prevEnd {
			endpoints = append(endpoints, prevStart, prevEnd)
			prevStart, prevEnd = iv.Start, iv.End
			continue
		}
		if iv.End > prevEnd {
			prevEnd = iv.End
		}
	}
	if prevEnd >= 0 {
		endpoints = append(endpoints, prevStart, prevEnd)
	}
	return endpoints
}

// NewUnion merges the chromosome-scoped rows of t.
func NewUnion(t *Table) *Union {
	u := &Union{lastChrom: ChromUnknown}
	for _, c := range Chroms() {
		u.endpoints[c] = mergeSorted(t.Chromosome(c))
	}
	return u
}

// Clone returns a new Union which shares the interval set, but has its own
// search state.
func (u *Union) Clone() *Union {
	return &Union{endpoints: u.endpoints, lastChrom: ChromUnknown}
}

// Endpoints returns the endpoint sequence for c.
func (u *Union) Endpoints(c Chrom) []PosType {
	if !c.Valid() {
		return nil
	}
	return u.endpoints[c]
}

// Empty returns whether no chromosome has any covered base.
func (u *Union) Empty() bool {
	for _, e := range u.endpoints {
		if len(e) > 0 {
			return false
		}
	}
	return true
}

// Contains checks whether base pos on c is covered.  Queries in
// nondecreasing position order on one chromosome are answered with
// exponential search from the previous answer.
func (u *Union) Contains(c Chrom, pos PosType) bool {
	if !c.Valid() {
		return false
	}
	posPlus1 := pos + 1
	endpoints := u.endpoints[c]
	if c != u.lastChrom || !u.isSequential || posPlus1 < u.lastPosPlus1 {
		u.lastChrom = c
		u.lastIdx = SearchPosTypes(endpoints, posPlus1)
		u.lastPosPlus1 = posPlus1
		u.isSequential = true
		return u.lastIdx.Contained()
	}
	u.lastIdx.Update(pos, endpoints)
	u.lastPosPlus1 = posPlus1
	return u.lastIdx.Contained()
}

// Overlaps checks whether iv, on chromosome c, shares a base with the
// union.  An empty iv is treated as its start base.  Like Contains, it is
// fastest when queried in start order.
func (u *Union) Overlaps(c Chrom, iv Interval) bool {
	if u.Contains(c, iv.Start) {
		return true
	}
	if !c.Valid() {
		return false
	}
	end := iv.End
	if end <= iv.Start {
		end = iv.Start + 1
	}
	// lastIdx is even here: the first endpoint past iv.Start opens the next
	// interval.
	endpoints := u.endpoints[c]
	return int(u.lastIdx) < len(endpoints) && endpoints[u.lastIdx] < end
}

// Restrict returns the rows of t that overlap regions, in chromosome then
// start order.  Rows on unknown chromosomes are dropped.  regions is not
// modified, so one Union can restrict several tables concurrently.
func (t *Table) Restrict(regions *Union) *Table {
	u := regions.Clone()
	var rows []Interval
	for _, c := range Chroms() {
		for _, iv := range t.Chromosome(c) {
			if u.Overlaps(c, iv) {
				rows = append(rows, iv)
			}
		}
	}
	return NewTable(rows)
}

// Bases returns the number of covered bases.
func (u *Union) Bases() int64 {
	var total int64
	for _, e := range u.endpoints {
		for i := 0; i+1 < len(e); i += 2 {
			total += int64(e[i+1] - e[i])
		}
	}
	return total
}

// Table converts the union back to intervals, in chromosome then start
// order.  Labels are empty.
func (u *Union) Table() *Table {
	var rows []Interval
	for _, c := range Chroms() {
		us := NewUnionScanner(u.endpoints[c])
		var start, end PosType
		for us.Scan(&start, &end) {
			rows = append(rows, Interval{Chrom: c.String(), Start: start, End: end})
		}
	}
	return NewTable(rows)
}

// subtract returns the endpoints of a minus b.  Both inputs must be merged
// endpoint sequences.
func subtract(a, b []PosType) []PosType {
	var out []PosType
	j := 0
	for i := 0; i+1 < len(a); i += 2 {
		start, end := a[i], a[i+1]
		for j+1 < len(b) && b[j+1] <= start {
			j += 2
		}
		cur := start
		for k := j; k+1 < len(b) && b[k] < end; k += 2 {
			if b[k] > cur {
				out = append(out, cur, b[k])
			}
			if b[k+1] > cur {
				cur = b[k+1]
			}
		}
		if cur < end {
			out = append(out, cur, end)
		}
	}
	return out
}

// Subtract returns the bases of u not covered by other.
func (u *Union) Subtract(other *Union) *Union {
	out := &Union{lastChrom: ChromUnknown}
	for c := range u.endpoints {
		out.endpoints[c] = subtract(u.endpoints[c], other.endpoints[c])
	}
	return out
}

// Complement returns the maximal intervals within universe that no interval
// of excluded covers.  Overlapping and adjacent excluded intervals are
// merged first, as are the universe intervals.  An empty excluded table
// yields the merged universe.
func Complement(universe, excluded *Table) *Table {
	return NewUnion(universe).Subtract(NewUnion(excluded)).Table()
}

// ParseRegion parses a region string of one of the forms
//   [chrom]:[1-based first pos]-[last pos]
//   [chrom]:[1-based pos]
//   [chrom]
// returning a 0-based half-open Interval.  [0, PosTypeMax-1) is returned if
// there is no positional restriction.
func ParseRegion(region string) (result Interval, err error) {
	if len(region) == 0 {
		err = fmt.Errorf("interval.ParseRegion: empty region string")
		return
	}
	colonPos := strings.IndexByte(region, ':')
	if colonPos == -1 {
		result = Interval{Chrom: region, Start: 0, End: PosTypeMax - 1}
		return
	}
	if colonPos == 0 {
		err = fmt.Errorf("interval.ParseRegion: empty chromosome in %q", region)
		return
	}
	result.Chrom = region[:colonPos]
	rangeStr := region[colonPos+1:]
	dashPos := strings.IndexByte(rangeStr, '-')
	if dashPos == -1 {
		var pos1 int64
		if pos1, err = strconv.ParseInt(rangeStr, 10, 32); err != nil {
			return
		}
		if pos1 <= 0 {
			err = fmt.Errorf("interval.ParseRegion: position %v out of range", rangeStr)
			return
		}
		result.Start = PosType(pos1 - 1)
		result.End = PosType(pos1)
		return
	}
	var start1, end int
	if start1, err = strconv.Atoi(rangeStr[:dashPos]); err != nil {
		return
	}
	if end, err = strconv.Atoi(rangeStr[dashPos+1:]); err != nil {
		return
	}
	if start1 <= 0 || end < start1 || end >= PosTypeMax {
		err = fmt.Errorf("interval.ParseRegion: invalid range %v", rangeStr)
		return
	}
	result.Start = PosType(start1 - 1)
	result.End = PosType(end)
	return
}
