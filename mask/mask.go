// Package mask derives the "overlap map" masking track: probes lying in
// regions free of protein-coding genes, far enough (counted in probes) from
// the nearest coding region that hiding their calls cannot hide a coding
// call.
package mask

import (
	"context"
	"fmt"
	"io"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/moka-guys/snparray/interval"
	"github.com/moka-guys/snparray/util"
)

// NoBoundary is the Distance of a probe whose region touches no coding
// region on either side.
const NoBoundary = -1

// Region is a probe selected for masking.
type Region struct {
	interval.Interval
	// Distance is the probe's rank distance to the nearest coding region
	// bounding its complement region, or NoBoundary.
	Distance int
}

// rankDistance returns the distance of the probe at 0-based rank j of n in
// a region, counting only sides bounded by a coding region.
func rankDistance(j, n int, leftBounded, rightBounded bool) int {
	d := NoBoundary
	if leftBounded {
		d = j + 1
	}
	if rightBounded && (d == NoBoundary || n-j < d) {
		d = n - j
	}
	return d
}

// Candidates selects mask probes.  A probe is a candidate when its start
// lies in a complement region.  Within each region the candidates are
// ranked by start; the rank distance to a side is j+1 from the left and
// n-j from the right (n candidates in the region, j the 0-based rank), and
// a side counts only when a coding region begins or ends there.  Probes
// whose distance is below minDistance are dropped.  An empty coding table
// disables the filter.
//
// The result is in chromosome order, then probe start order with ties kept
// in input order.
func Candidates(probes, complement, coding *interval.Table, minDistance int) ([]Region, error) {
	if minDistance < 1 {
		return nil, fmt.Errorf("mask: min probe distance must be >= 1, got %d", minDistance)
	}
	codingUnion := interval.NewUnion(coding)
	filter := !codingUnion.Empty()
	var out []Region
	for _, c := range interval.Chroms() {
		regions := interval.NewUnion(interval.NewTable(complement.Chromosome(c))).Table().Chromosome(c)
		ps := probes.Chromosome(c)
		p := 0
		for _, region := range regions {
			for p < len(ps) && ps[p].Start < region.Start {
				p++
			}
			first := p
			for p < len(ps) && ps[p].Start < region.End {
				p++
			}
			members := ps[first:p]
			n := len(members)
			leftBounded := filter && region.Start > 0 && codingUnion.Contains(c, region.Start-1)
			rightBounded := filter && codingUnion.Contains(c, region.End)
			kept := 0
			for j, probe := range members {
				d := rankDistance(j, n, leftBounded, rightBounded)
				if filter && d != NoBoundary && d < minDistance {
					continue
				}
				out = append(out, Region{Interval: probe, Distance: d})
				kept++
			}
			log.Debug.Printf("mask.Candidates: %v: %d of %d probes kept", region, kept, n)
		}
	}
	return out, nil
}

// WriteOpts controls WriteBED.
type WriteOpts struct {
	// Assembly is written as the track's db attribute.
	Assembly string
}

// WriteBED writes regions as an overlap-map BED: a
//   track db="<assembly>"
// line, then "chrom start end name" rows.
func WriteBED(w io.Writer, regions []Region, opts WriteOpts) error {
	if _, err := fmt.Fprintf(w, "track db=%q\n", opts.Assembly); err != nil {
		return err
	}
	tsvw := tsv.NewWriter(w)
	for _, r := range regions {
		tsvw.WriteString(r.Chrom)
		tsvw.WriteUint32(uint32(r.Start))
		tsvw.WriteUint32(uint32(r.End))
		tsvw.WriteString(r.Label)
		if err := tsvw.EndLine(); err != nil {
			return err
		}
	}
	return tsvw.Flush()
}

// Opts configures Generate.
type Opts struct {
	ProbesPath     string
	AnnotationPath string
	// GenomePath is a .fai index, FASTA, or two-column genome file.
	GenomePath string
	OutPath    string

	MinProbeDistance int
	Annotation       AnnotationOpts
	Write            WriteOpts
	OneBasedProbes   bool
	// Regions, when set, limits masking to the probes overlapping them.
	Regions []interval.Interval
}

// DefaultOpts is the default Opts.
var DefaultOpts = Opts{
	MinProbeDistance: 50,
	Annotation:       DefaultAnnotationOpts,
	Write:            WriteOpts{Assembly: "hg38"},
}

// Stats summarizes a Generate run.
type Stats struct {
	Probes         int
	CodingRegions  int
	NonCoding      int
	NonCodingBases int64
	DroppedGenes   int
	Masked         int
	MaskedByChrom  [interval.NChrom]int
}

// Generate runs the whole masking pipeline: coding regions from the
// annotation, their complement within the genome, then the rank-distance
// filter over the probes.  The output file is written only if every step
// succeeds.
func Generate(ctx context.Context, opts Opts) (Stats, error) {
	var stats Stats
	probes, err := interval.LoadBEDFromPath(ctx, opts.ProbesPath, interval.LoadOpts{OneBasedInput: opts.OneBasedProbes})
	if err != nil {
		return stats, err
	}
	if len(opts.Regions) > 0 {
		probes = probes.Restrict(interval.NewUnion(interval.NewTable(opts.Regions)))
	}
	stats.Probes = probes.Len()
	ann, err := LoadAnnotationFromPath(ctx, opts.AnnotationPath, opts.Annotation)
	if err != nil {
		return stats, err
	}
	stats.DroppedGenes = ann.Dropped
	coding := CodingRegions(ann.Genes)
	stats.CodingRegions = coding.Len()
	universe, err := LoadGenome(ctx, opts.GenomePath)
	if err != nil {
		return stats, err
	}
	complement := interval.Complement(universe, coding)
	stats.NonCoding = complement.Len()
	stats.NonCodingBases = interval.NewUnion(complement).Bases()
	regions, err := Candidates(probes, complement, coding, opts.MinProbeDistance)
	if err != nil {
		return stats, err
	}
	stats.Masked = len(regions)
	for _, r := range regions {
		stats.MaskedByChrom[interval.ParseChrom(r.Chrom)]++
	}
	log.Printf("mask.Generate: %d of %d probes masked across %d non-coding regions (%d bases)",
		stats.Masked, stats.Probes, stats.NonCoding, stats.NonCodingBases)
	err = util.WriteFile(ctx, opts.OutPath, func(w io.Writer) error {
		return WriteBED(w, regions, opts.Write)
	})
	return stats, err
}
