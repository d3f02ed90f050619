// Package resolution computes probe resolution statistics between two
// arrays, and between an array and a set of annotated regions.
//
// Both computations run the rolling window engine from package interval
// over one chromosome at a time.  Chromosomes are independent, so they are
// processed concurrently; results are always merged back in chromosome
// order, which keeps output byte-identical across runs.
package resolution

import (
	"context"
	"fmt"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/moka-guys/snparray/interval"
)

// Opts controls a resolution run.
type Opts struct {
	// Window is the number of consecutive probes in one window.  Must be >= 1.
	Window int
	// Chroms restricts processing to the given chromosomes.  Empty means all
	// 24.
	Chroms []interval.Chrom
	// Load controls how CountFiles and GeneSpanFiles read probe files.
	// Region files are always read as 0-based half-open.
	Load interval.LoadOpts
	// Regions, when set, restricts CountFiles and GeneSpanFiles to the input
	// rows overlapping them.
	Regions []interval.Interval
}

// DefaultOpts is the default Opts.
var DefaultOpts = Opts{
	Window: 2,
}

func (o *Opts) validate() error {
	if o.Window < 1 {
		return fmt.Errorf("resolution: window must be >= 1, got %d", o.Window)
	}
	for _, c := range o.Chroms {
		if !c.Valid() {
			return fmt.Errorf("resolution: invalid chromosome %d", c)
		}
	}
	return nil
}

// restrict applies Regions to each table in place.
func (o *Opts) restrict(tables ...**interval.Table) {
	if len(o.Regions) == 0 {
		return
	}
	regions := interval.NewUnion(interval.NewTable(o.Regions))
	for _, t := range tables {
		before := (*t).Len()
		*t = (*t).Restrict(regions)
		log.Debug.Printf("resolution: %d of %d row(s) inside the requested regions", (*t).Len(), before)
	}
}

func (o *Opts) chroms() []interval.Chrom {
	if len(o.Chroms) > 0 {
		return o.Chroms
	}
	return interval.Chroms()
}

// CountRow is one resolution-counting observation: a window over array B,
// and the number of array A probes intersecting the window's extent.
type CountRow struct {
	Chrom interval.Chrom
	// Index is the 0-based window index within the chromosome.
	Index int
	Start interval.PosType
	End   interval.PosType
	Span  interval.PosType
	Count int
}

// Count slides a window of opts.Window probes over arrayB and, for each
// window, counts the arrayA probes intersecting [window start, window end).
func Count(ctx context.Context, arrayA, arrayB *interval.Table, opts Opts) ([]CountRow, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	chroms := opts.chroms()
	perChrom := make([][]CountRow, len(chroms))
	err := traverse.Each(len(chroms), func(i int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		c := chroms[i]
		idx := interval.NewOverlapIndex(arrayA.Chromosome(c))
		ws := interval.NewWindowScanner(arrayB.Chromosome(c), opts.Window)
		rows := make([]CountRow, 0, ws.Len())
		for ws.Scan() {
			w := ws.Window()
			bounds := w.Bounds()
			rows = append(rows, CountRow{
				Chrom: c,
				Index: w.Index,
				Start: bounds.Start,
				End:   bounds.End,
				Span:  w.Span(),
				Count: idx.Count(bounds),
			})
		}
		perChrom[i] = rows
		log.Debug.Printf("resolution.Count: %v: %d windows", c, len(rows))
		return nil
	})
	if err != nil {
		return nil, err
	}
	var out []CountRow
	for _, rows := range perChrom {
		out = append(out, rows...)
	}
	return out, nil
}

// GeneSpanRow is one gene/probe resolution observation: a window over the
// probes matching one annotated region.
type GeneSpanRow struct {
	Region string
	Chrom  interval.Chrom
	Start  interval.PosType
	End    interval.PosType
	// Probes is the number of probes matching the region.
	Probes int
	// Index is the 0-based window index within the region.
	Index int
	Span  interval.PosType
}

// GeneSpans computes per-region resolution: for each region, the probes
// intersecting it are windowed on their own, giving one span per window.
// Regions matching opts.Window or fewer probes produce no rows.  Regions are
// reported in chromosome then start order; region labels need not be
// unique.
func GeneSpans(ctx context.Context, regions, probes *interval.Table, opts Opts) ([]GeneSpanRow, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	chroms := opts.chroms()
	perChrom := make([][]GeneSpanRow, len(chroms))
	err := traverse.Each(len(chroms), func(i int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		c := chroms[i]
		idx := interval.NewOverlapIndex(probes.Chromosome(c))
		var rows []GeneSpanRow
		for _, region := range regions.Chromosome(c) {
			matched := idx.Matching(region)
			ws := interval.NewWindowScanner(matched, opts.Window)
			for ws.Scan() {
				w := ws.Window()
				rows = append(rows, GeneSpanRow{
					Region: region.Label,
					Chrom:  c,
					Start:  region.Start,
					End:    region.End,
					Probes: len(matched),
					Index:  w.Index,
					Span:   w.Span(),
				})
			}
		}
		perChrom[i] = rows
		return nil
	})
	if err != nil {
		return nil, err
	}
	var out []GeneSpanRow
	for _, rows := range perChrom {
		out = append(out, rows...)
	}
	return out, nil
}
