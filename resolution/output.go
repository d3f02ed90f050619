package resolution

import (
	"context"
	"io"
	"strconv"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/moka-guys/snparray/interval"
	"github.com/moka-guys/snparray/util"
)

var (
	countHeader    = []string{"#chrom", "window_start", "window_end", "span", "count"}
	geneSpanHeader = []string{"#region", "chrom", "start", "end", "probes", "window_index", "span"}
	summaryHeader  = []string{"#metric", "label", "n", "mean", "median", "min", "max"}
)

func writeHeader(tsvw *tsv.Writer, cols []string) error {
	for _, c := range cols {
		tsvw.WriteString(c)
	}
	return tsvw.EndLine()
}

func writeFloat(tsvw *tsv.Writer, v float64) {
	tsvw.WriteString(strconv.FormatFloat(v, 'f', 2, 64))
}

// WriteCounts writes rows as
//   chrom window_start window_end span count
// with a header line.  Coordinates are 0-based half-open.
func WriteCounts(w io.Writer, rows []CountRow) error {
	tsvw := tsv.NewWriter(w)
	if err := writeHeader(tsvw, countHeader); err != nil {
		return err
	}
	for _, r := range rows {
		tsvw.WriteString(r.Chrom.String())
		tsvw.WriteUint32(uint32(r.Start))
		tsvw.WriteUint32(uint32(r.End))
		tsvw.WriteUint32(uint32(r.Span))
		tsvw.WriteUint32(uint32(r.Count))
		if err := tsvw.EndLine(); err != nil {
			return err
		}
	}
	return tsvw.Flush()
}

// WriteGeneSpans writes rows as
//   region chrom start end probes window_index span
// with a header line.
func WriteGeneSpans(w io.Writer, rows []GeneSpanRow) error {
	tsvw := tsv.NewWriter(w)
	if err := writeHeader(tsvw, geneSpanHeader); err != nil {
		return err
	}
	for _, r := range rows {
		tsvw.WriteString(r.Region)
		tsvw.WriteString(r.Chrom.String())
		tsvw.WriteUint32(uint32(r.Start))
		tsvw.WriteUint32(uint32(r.End))
		tsvw.WriteUint32(uint32(r.Probes))
		tsvw.WriteUint32(uint32(r.Index))
		tsvw.WriteUint32(uint32(r.Span))
		if err := tsvw.EndLine(); err != nil {
			return err
		}
	}
	return tsvw.Flush()
}

// Metric is a named group of summaries.
type Metric struct {
	Name      string
	Summaries []Summary
}

// WriteSummaries writes one line per Summary, prefixed by its metric name.
func WriteSummaries(w io.Writer, metrics ...Metric) error {
	tsvw := tsv.NewWriter(w)
	if err := writeHeader(tsvw, summaryHeader); err != nil {
		return err
	}
	for _, m := range metrics {
		if err := writeMetric(tsvw, m); err != nil {
			return err
		}
	}
	return tsvw.Flush()
}

func writeMetric(tsvw *tsv.Writer, m Metric) error {
	for _, s := range m.Summaries {
		tsvw.WriteString(m.Name)
		tsvw.WriteString(s.Label)
		tsvw.WriteInt64(int64(s.N))
		writeFloat(tsvw, s.Mean)
		writeFloat(tsvw, s.Median)
		tsvw.WriteInt64(s.Min)
		tsvw.WriteInt64(s.Max)
		if err := tsvw.EndLine(); err != nil {
			return err
		}
	}
	return nil
}

// Paths names the files written by CountFiles and GeneSpanFiles.
type Paths struct {
	Rows    string
	Summary string
}

// OutputPaths returns the output paths for the given prefix.
func OutputPaths(prefix string) Paths {
	return Paths{Rows: prefix + ".tsv", Summary: prefix + ".summary.tsv"}
}

// CountFiles loads two probe BED files and writes resolution counts of
// arrayA probes per window of arrayB probes, plus span and count
// summaries, to the files named by OutputPaths(outPrefix).
func CountFiles(ctx context.Context, arrayAPath, arrayBPath, outPrefix string, opts Opts) (Paths, error) {
	paths := OutputPaths(outPrefix)
	arrayA, err := interval.LoadBEDFromPath(ctx, arrayAPath, opts.Load)
	if err != nil {
		return paths, err
	}
	arrayB, err := interval.LoadBEDFromPath(ctx, arrayBPath, opts.Load)
	if err != nil {
		return paths, err
	}
	opts.restrict(&arrayA, &arrayB)
	rows, err := Count(ctx, arrayA, arrayB, opts)
	if err != nil {
		return paths, err
	}
	log.Printf("resolution.CountFiles: %d windows over %s", len(rows), arrayBPath)
	return paths, writeBoth(ctx, paths,
		func(w io.Writer) error { return WriteCounts(w, rows) },
		func(w io.Writer) error {
			return WriteSummaries(w,
				Metric{Name: "span", Summaries: SummarizeCountSpans(rows)},
				Metric{Name: "count", Summaries: SummarizeCounts(rows)})
		})
}

// GeneSpanFiles loads a region BED file and a probe BED file and writes
// per-region window spans plus summaries to the files named by
// OutputPaths(outPrefix).
func GeneSpanFiles(ctx context.Context, regionsPath, probesPath, outPrefix string, opts Opts) (Paths, error) {
	paths := OutputPaths(outPrefix)
	regions, err := interval.LoadBEDFromPath(ctx, regionsPath, interval.LoadOpts{})
	if err != nil {
		return paths, err
	}
	probes, err := interval.LoadBEDFromPath(ctx, probesPath, opts.Load)
	if err != nil {
		return paths, err
	}
	opts.restrict(&regions, &probes)
	rows, err := GeneSpans(ctx, regions, probes, opts)
	if err != nil {
		return paths, err
	}
	log.Printf("resolution.GeneSpanFiles: %d windows over %d regions", len(rows), regions.Len())
	return paths, writeBoth(ctx, paths,
		func(w io.Writer) error { return WriteGeneSpans(w, rows) },
		func(w io.Writer) error {
			return WriteSummaries(w, Metric{Name: "span", Summaries: SummarizeGeneSpans(rows)})
		})
}

// writeBoth publishes the rows and summary files together.
func writeBoth(ctx context.Context, paths Paths, rows, summary func(io.Writer) error) error {
	var b util.Batch
	defer b.Abort()
	if err := b.Add(ctx, paths.Rows, rows); err != nil {
		return err
	}
	if err := b.Add(ctx, paths.Summary, summary); err != nil {
		return err
	}
	return b.Commit(ctx)
}
