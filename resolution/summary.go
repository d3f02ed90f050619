package resolution

import (
	"sort"

	"github.com/moka-guys/snparray/interval"
)

// GenomeWide is the Summary.Label of the all-chromosome summary.
const GenomeWide = "genome"

// Summary describes a set of observations (window spans or counts).  Each
// window contributes exactly one observation.
type Summary struct {
	Label  string
	N      int
	Mean   float64
	Median float64
	Min    int64
	Max    int64
}

// Summarize computes a Summary of obs.  obs is not modified.
func Summarize(label string, obs []int64) Summary {
	s := Summary{Label: label, N: len(obs)}
	if len(obs) == 0 {
		return s
	}
	sorted := make([]int64, len(obs))
	copy(sorted, obs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	var total float64
	for _, v := range sorted {
		total += float64(v)
	}
	s.Mean = total / float64(len(sorted))
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		s.Median = float64(sorted[mid])
	} else {
		s.Median = float64(sorted[mid-1]+sorted[mid]) / 2
	}
	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]
	return s
}

// summarizeByChrom returns one Summary per chromosome with observations, in
// chromosome order, followed by the genome-wide Summary.
func summarizeByChrom(n int, chromAt func(i int) interval.Chrom, obsAt func(i int) int64) []Summary {
	var (
		perChrom [interval.NChrom][]int64
		all      = make([]int64, 0, n)
	)
	for i := 0; i < n; i++ {
		c, v := chromAt(i), obsAt(i)
		perChrom[c] = append(perChrom[c], v)
		all = append(all, v)
	}
	var out []Summary
	for c, obs := range perChrom {
		if len(obs) > 0 {
			out = append(out, Summarize(interval.Chrom(c).String(), obs))
		}
	}
	return append(out, Summarize(GenomeWide, all))
}

// SummarizeCounts summarizes the per-window probe counts of rows.
func SummarizeCounts(rows []CountRow) []Summary {
	return summarizeByChrom(len(rows),
		func(i int) interval.Chrom { return rows[i].Chrom },
		func(i int) int64 { return int64(rows[i].Count) })
}

// SummarizeCountSpans summarizes the window spans of rows.
func SummarizeCountSpans(rows []CountRow) []Summary {
	return summarizeByChrom(len(rows),
		func(i int) interval.Chrom { return rows[i].Chrom },
		func(i int) int64 { return int64(rows[i].Span) })
}

// SummarizeGeneSpans summarizes the window spans of rows.
func SummarizeGeneSpans(rows []GeneSpanRow) []Summary {
	return summarizeByChrom(len(rows),
		func(i int) interval.Chrom { return rows[i].Chrom },
		func(i int) int64 { return int64(rows[i].Span) })
}
