package interval

import (
	"fmt"
	"sort"

	"github.com/grailbio/base/log"
)

// Interval is a single labelled genomic interval with 0-based half-open
// coordinates.  Intervals are values; nothing in this package mutates one
// after construction.
type Interval struct {
	Chrom string
	Start PosType
	End   PosType
	Label string
}

// Len returns End - Start.
func (iv Interval) Len() PosType {
	return iv.End - iv.Start
}

// String formats the interval as chrom:start-end.
func (iv Interval) String() string {
	return fmt.Sprintf("%s:%d-%d", iv.Chrom, iv.Start, iv.End)
}

// MalformedRowError reports a coordinate row that could not supply a
// chromosome, start and end.  Loads abort on the first one, since downstream
// joins assume complete tables.
type MalformedRowError struct {
	// Path is set when the table was loaded from a named file.
	Path string
	// Line is the 1-based line (or row) number in the source.
	Line   int
	Reason string
}

func (e *MalformedRowError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s:%d: malformed interval row: %s", e.Path, e.Line, e.Reason)
	}
	return fmt.Sprintf("malformed interval row %d: %s", e.Line, e.Reason)
}

// Table is an ordered collection of intervals.  Rows() preserves input
// order; Chromosome() gives the per-chromosome view sorted by start, with
// ties kept in input order.
type Table struct {
	rows    []Interval
	byChrom [NChrom][]Interval
	unknown int
}

// NewTable builds a Table from rows, which must already satisfy
// Start <= End.  Rows on contigs outside the chromosome enumeration are
// kept in Rows() but excluded from Chromosome(); each one is logged once as
// an unknown-chromosome warning.
func NewTable(rows []Interval) *Table {
	t := &Table{rows: rows}
	for _, iv := range rows {
		c := ParseChrom(iv.Chrom)
		if !c.Valid() {
			t.unknown++
			log.Debug.Printf("interval: unknown chromosome %q, %v excluded from chromosome-scoped processing", iv.Chrom, iv)
			continue
		}
		t.byChrom[c] = append(t.byChrom[c], iv)
	}
	if t.unknown > 0 {
		log.Printf("interval: warning: %d row(s) on unknown chromosomes", t.unknown)
	}
	for c := range t.byChrom {
		ivs := t.byChrom[c]
		sort.SliceStable(ivs, func(i, j int) bool { return ivs[i].Start < ivs[j].Start })
	}
	return t
}

// Len returns the total number of rows, including unknown-chromosome rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Rows returns all rows in input order.  The caller must not modify the
// returned slice.
func (t *Table) Rows() []Interval {
	return t.rows
}

// Unknown returns the number of rows whose chromosome is not enumerated.
func (t *Table) Unknown() int {
	return t.unknown
}

// Chromosome returns the rows for c sorted by start.  A chromosome with no
// rows yields an empty result; that is a legitimate state (e.g. chrY on a
// female-only dataset), not an error.
func (t *Table) Chromosome(c Chrom) []Interval {
	if !c.Valid() {
		return nil
	}
	return t.byChrom[c]
}

// Chromosomes returns the chromosomes a chromosome-scoped pass visits, in
// order, whether or not t has rows on them.
func (t *Table) Chromosomes() []Chrom {
	return Chroms()
}

// Sorted returns all enumerated-chromosome rows in chromosome order, then
// start order.
func (t *Table) Sorted() []Interval {
	out := make([]Interval, 0, len(t.rows)-t.unknown)
	for _, ivs := range t.byChrom {
		out = append(out, ivs...)
	}
	return out
}
