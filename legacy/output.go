package legacy

import (
	"context"
	"io"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/moka-guys/snparray/util"
)

// normalizedHeader names the columns written by WriteNormalized.
var normalizedHeader = []string{
	"chrom", "start", "end", "patient_id", "sex", "pathogenicity", "class",
	"cnvtype", "tissue_groups", "age_years_days", "whole_chromosome",
	"color", "result", "band", "phenotype", "html",
}

func oneCell(s string) string {
	return normalizeSpace(s)
}

// WriteNormalized writes recs as a header TSV, one row per record, in
// input order.
func WriteNormalized(w io.Writer, recs []NormalizedRecord) error {
	tsvw := tsv.NewWriter(w)
	for _, h := range normalizedHeader {
		tsvw.WriteString(h)
	}
	if err := tsvw.EndLine(); err != nil {
		return err
	}
	for _, r := range recs {
		tsvw.WriteString(r.Chrom)
		tsvw.WriteInt64(int64(r.Start))
		tsvw.WriteInt64(int64(r.End))
		tsvw.WriteString(r.PatientID)
		tsvw.WriteString(r.Sex.String())
		tsvw.WriteString(r.Pathogenicity.String())
		tsvw.WriteInt64(int64(r.Pathogenicity.Class()))
		tsvw.WriteString(r.CNVType.String())
		tsvw.WriteString(r.TissueGroup.String())
		tsvw.WriteString(r.Age)
		if r.WholeChromosome {
			tsvw.WriteString("true")
		} else {
			tsvw.WriteString("false")
		}
		tsvw.WriteString(r.Color.String())
		tsvw.WriteString(oneCell(r.PatientResult))
		tsvw.WriteString(oneCell(r.Band))
		tsvw.WriteString(oneCell(r.Phenotype))
		tsvw.WriteString(r.HTML)
		if err := tsvw.EndLine(); err != nil {
			return err
		}
	}
	return tsvw.Flush()
}

// Stats summarizes a NormalizeFile run.
type Stats struct {
	Rows       int
	Calls      int
	Dropped    int
	Normalized int
}

// NormalizeFile loads the export at inPath, aggregates phenotypes,
// normalizes every call and writes the table to outPath.  outPath is
// written only if every step succeeds.
func NormalizeFile(ctx context.Context, inPath, outPath string, opts Opts) ([]NormalizedRecord, Stats, error) {
	var stats Stats
	recs, err := LoadFromPath(ctx, inPath)
	if err != nil {
		return nil, stats, err
	}
	stats.Rows = len(recs)
	recs = AggregatePhenotypes(recs)
	stats.Calls = len(recs)
	norm, dropped := NormalizeAll(recs, opts)
	stats.Dropped = dropped
	stats.Normalized = len(norm)
	log.Printf("legacy.NormalizeFile: %s: %d rows, %d calls, %d normalized", inPath, stats.Rows, stats.Calls, stats.Normalized)
	if outPath == "" {
		return norm, stats, nil
	}
	err = util.WriteFile(ctx, outPath, func(w io.Writer) error {
		return WriteNormalized(w, norm)
	})
	return norm, stats, err
}
