package mask

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/moka-guys/snparray/interval"
)

// CodingCategory marks a protein-coding gene in the AED category column.
const CodingCategory = "refseq/coding"

// AnnotationOpts controls LoadAnnotation.
type AnnotationOpts struct {
	// HeaderLines is the number of leading lines to skip.  The lab's Genes.aed
	// carries an 11-line header.
	HeaderLines int
}

// DefaultAnnotationOpts is the default AnnotationOpts.
var DefaultAnnotationOpts = AnnotationOpts{HeaderLines: 11}

// Gene is one annotation row.
type Gene struct {
	Chrom    interval.Chrom
	Start    interval.PosType
	End      interval.PosType
	Name     string
	Strand   string
	Category string
}

// Coding returns whether g is a protein-coding region.
func (g Gene) Coding() bool {
	return strings.Contains(g.Category, CodingCategory)
}

// Annotation is a loaded gene annotation.
type Annotation struct {
	Genes []Gene
	// Dropped counts rows whose chromosome is outside the 24 processed
	// chromosomes.
	Dropped int
}

// LoadAnnotation parses an AED-style annotation:
//   Chr Start Stop name value strand category [more columns]
// Rows on the negative strand whose coordinates are reversed are swapped
// back into start <= end order.  Rows with unresolvable chromosome names are
// dropped and counted; any other unparseable row aborts the load.
func LoadAnnotation(r io.Reader, opts AnnotationOpts) (*Annotation, error) {
	var (
		a       = &Annotation{}
		scanner = bufio.NewScanner(r)
		lineIdx = 0
	)
	scanner.Buffer(make([]byte, 64<<10), 1<<20)
	for scanner.Scan() {
		lineIdx++
		if lineIdx <= opts.HeaderLines {
			continue
		}
		line := strings.TrimRight(scanner.Text(), "\r")
		if len(line) == 0 {
			continue
		}
		cols := strings.Split(line, "\t")
		if len(cols) < 7 {
			return nil, &interval.MalformedRowError{Line: lineIdx, Reason: fmt.Sprintf("need at least 7 columns, found %d", len(cols))}
		}
		c := interval.ParseChrom(cols[0])
		if !c.Valid() {
			a.Dropped++
			log.Debug.Printf("mask.LoadAnnotation: line %d: dropping %s on unknown chromosome %q", lineIdx, cols[3], cols[0])
			continue
		}
		start, err := strconv.ParseInt(cols[1], 10, 32)
		if err != nil {
			return nil, &interval.MalformedRowError{Line: lineIdx, Reason: fmt.Sprintf("non-numeric start %q", cols[1])}
		}
		end, err := strconv.ParseInt(cols[2], 10, 32)
		if err != nil {
			return nil, &interval.MalformedRowError{Line: lineIdx, Reason: fmt.Sprintf("non-numeric stop %q", cols[2])}
		}
		strand := cols[5]
		if strand == "-" && start > end {
			start, end = end, start
		}
		if start < 0 || end < start {
			return nil, &interval.MalformedRowError{Line: lineIdx, Reason: fmt.Sprintf("invalid coordinate pair (%d, %d)", start, end)}
		}
		a.Genes = append(a.Genes, Gene{
			Chrom:    c,
			Start:    interval.PosType(start),
			End:      interval.PosType(end),
			Name:     cols[3],
			Strand:   strand,
			Category: cols[6],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if a.Dropped > 0 {
		log.Printf("mask.LoadAnnotation: warning: dropped %d row(s) on unknown chromosomes", a.Dropped)
	}
	return a, nil
}

// LoadAnnotationFromPath is LoadAnnotation on a named file.
func LoadAnnotationFromPath(ctx context.Context, path string, opts AnnotationOpts) (a *Annotation, err error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer file.CloseAndReport(ctx, f, &err)
	a, err = LoadAnnotation(f.Reader(ctx), opts)
	if mre, ok := err.(*interval.MalformedRowError); ok {
		mre.Path = path
	}
	return a, err
}

type geneKey struct {
	name  string
	chrom interval.Chrom
}

// CodingRegions keeps the protein-coding genes and condenses them to one
// region per (gene name, chromosome) spanning min(start) to max(end).  The
// result is sorted by chromosome, start, end, then name; each region is
// labelled with its gene name.
func CodingRegions(genes []Gene) *interval.Table {
	var (
		keys   []geneKey
		bounds = map[geneKey]*interval.Interval{}
	)
	for _, g := range genes {
		if !g.Coding() {
			continue
		}
		k := geneKey{g.Name, g.Chrom}
		b, ok := bounds[k]
		if !ok {
			keys = append(keys, k)
			bounds[k] = &interval.Interval{Chrom: g.Chrom.String(), Start: g.Start, End: g.End, Label: g.Name}
			continue
		}
		if g.Start < b.Start {
			b.Start = g.Start
		}
		if g.End > b.End {
			b.End = g.End
		}
	}
	rows := make([]interval.Interval, len(keys))
	for i, k := range keys {
		rows[i] = *bounds[k]
	}
	sort.SliceStable(rows, func(i, j int) bool {
		ci, cj := interval.ParseChrom(rows[i].Chrom), interval.ParseChrom(rows[j].Chrom)
		if ci != cj {
			return ci < cj
		}
		if rows[i].Start != rows[j].Start {
			return rows[i].Start < rows[j].Start
		}
		if rows[i].End != rows[j].End {
			return rows[i].End < rows[j].End
		}
		return rows[i].Label < rows[j].Label
	})
	return interval.NewTable(rows)
}
