// Package legacy loads and normalizes the CNV call export of the legacy
// laboratory database.  The export is a header TSV with one row per
// (patient, call, phenotype); Load reads it, AggregatePhenotypes folds the
// phenotype rows together, and Normalize decodes the categorical codes into
// the categories the browser tracks are built from.
package legacy

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
	"github.com/moka-guys/snparray/interval"
)

// row is the on-disk layout of one export row.  Every column is read as
// text; Load converts the coordinates.
type row struct {
	Chromo               string `tsv:"Chromo"`
	Start19              string `tsv:"Start19"`
	Stop19               string `tsv:"Stop19"`
	PatientID            string `tsv:"PatientID"`
	Pathogenic           string `tsv:"Pathogenic"`
	Referral             string `tsv:"Referral"`
	Status               string `tsv:"Status"`
	CNVTypeID            string `tsv:"CNVTypeID"`
	Gender               string `tsv:"Gender"`
	Sexed                string `tsv:"Sexed"`
	BookinSex            string `tsv:"BookinSex"`
	PatientResult        string `tsv:"PatientResult"`
	DESCtwo              string `tsv:"DESCtwo"`
	DateRecieved         string `tsv:"DateRecieved"`
	PatientIDInheritance string `tsv:"PatientIDInheritance"`
	Phenotype            string `tsv:"Phenotype"`
	Copies               string `tsv:"Copies"`
	Change               string `tsv:"Change"`
	WholeChromosome      string `tsv:"WholeChromosome"`
	BookinDOB            string `tsv:"BookinDOB"`
	DoB                  string `tsv:"DoB"`
	RequestedDate        string `tsv:"RequestedDate"`
}

// Record is one legacy CNV call.  Coordinates are on the legacy build
// (GRCh37), 0-based half-open.
type Record struct {
	// Line is the 1-based data row number in the export, for diagnostics.
	Line int

	Chrom     string
	Start     interval.PosType
	End       interval.PosType
	PatientID string

	// PathogenicCode is the raw classification code.
	PathogenicCode string
	Referral       string
	Status         string
	CNVTypeID      string

	// Gender, Sexed and BookinSex are the three sex columns, in precedence
	// order.
	Gender    string
	Sexed     string
	BookinSex string

	PatientResult string
	// Band is the cytoband description, e.g. "1p36.33(10000-20000)x1".
	Band                 string
	DateReceived         string
	PatientIDInheritance string
	Phenotype            string
	// CopiesCode is the raw copy-number change code.
	CopiesCode      string
	Change          string
	WholeChromosome string
	BookinDOB       string
	DoB             string
	RequestedDate   string
}

// Interval returns the call's coordinates.
func (r Record) Interval() interval.Interval {
	return interval.Interval{Chrom: r.Chrom, Start: r.Start, End: r.End, Label: r.PatientID}
}

func parseCoord(s string) (interval.PosType, error) {
	s = strings.TrimSpace(s)
	// Exports written through a dataframe may carry a ".0" suffix.
	s = strings.TrimSuffix(s, ".0")
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return interval.PosType(v), nil
}

func (rw *row) record(line int) (Record, error) {
	start, err := parseCoord(rw.Start19)
	if err != nil {
		return Record{}, &interval.MalformedRowError{Line: line, Reason: fmt.Sprintf("non-numeric Start19 %q", rw.Start19)}
	}
	end, err := parseCoord(rw.Stop19)
	if err != nil {
		return Record{}, &interval.MalformedRowError{Line: line, Reason: fmt.Sprintf("non-numeric Stop19 %q", rw.Stop19)}
	}
	if start < 0 || end < start {
		return Record{}, &interval.MalformedRowError{Line: line, Reason: fmt.Sprintf("invalid coordinate pair (%d, %d)", start, end)}
	}
	return Record{
		Line:                 line,
		Chrom:                strings.TrimSpace(rw.Chromo),
		Start:                start,
		End:                  end,
		PatientID:            strings.TrimSpace(rw.PatientID),
		PathogenicCode:       strings.TrimSpace(rw.Pathogenic),
		Referral:             rw.Referral,
		Status:               rw.Status,
		CNVTypeID:            rw.CNVTypeID,
		Gender:               rw.Gender,
		Sexed:                rw.Sexed,
		BookinSex:            rw.BookinSex,
		PatientResult:        rw.PatientResult,
		Band:                 rw.DESCtwo,
		DateReceived:         rw.DateRecieved,
		PatientIDInheritance: rw.PatientIDInheritance,
		Phenotype:            rw.Phenotype,
		CopiesCode:           strings.TrimSpace(rw.Copies),
		Change:               rw.Change,
		WholeChromosome:      rw.WholeChromosome,
		BookinDOB:            rw.BookinDOB,
		DoB:                  rw.DoB,
		RequestedDate:        rw.RequestedDate,
	}, nil
}

// Load reads a legacy export.  Columns are matched by header name, so
// their order does not matter.  A row whose coordinates cannot be parsed
// aborts the load with a *interval.MalformedRowError.
func Load(r io.Reader) ([]Record, error) {
	tsvReader := tsv.NewReader(r)
	tsvReader.HasHeaderRow = true
	tsvReader.UseHeaderNames = true

	var recs []Record
	for line := 1; ; line++ {
		var rw row
		if err := tsvReader.Read(&rw); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("legacy.Load: row %d: %v", line, err)
		}
		rec, err := rw.record(line)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// LoadFromPath is Load on a named file.
func LoadFromPath(ctx context.Context, path string) (recs []Record, err error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer file.CloseAndReport(ctx, f, &err)
	recs, err = Load(f.Reader(ctx))
	if mre, ok := err.(*interval.MalformedRowError); ok {
		mre.Path = path
	}
	return recs, err
}

// normalizeSpace collapses every run of whitespace, including embedded
// newlines, to a single space.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

type callKey struct {
	patient    string
	start, end interval.PosType
}

// AggregatePhenotypes folds the per-phenotype rows of the export together.
// Phenotype text is whitespace-normalized, the distinct phenotypes of each
// patient are joined with "; " in first-seen order and assigned to every
// row of that patient, and rows are then deduplicated on (patient, start,
// end), keeping the first.  Input order is otherwise preserved.
func AggregatePhenotypes(recs []Record) []Record {
	var (
		order  []string
		seen   = map[string]map[string]bool{}
		phenos = map[string][]string{}
	)
	for _, r := range recs {
		p := normalizeSpace(r.Phenotype)
		if _, ok := seen[r.PatientID]; !ok {
			seen[r.PatientID] = map[string]bool{}
			order = append(order, r.PatientID)
		}
		if p == "" || seen[r.PatientID][p] {
			continue
		}
		seen[r.PatientID][p] = true
		phenos[r.PatientID] = append(phenos[r.PatientID], p)
	}
	joined := make(map[string]string, len(order))
	for _, id := range order {
		joined[id] = strings.Join(phenos[id], "; ")
	}
	var (
		out  = make([]Record, 0, len(recs))
		dups = map[callKey]bool{}
	)
	for _, r := range recs {
		k := callKey{r.PatientID, r.Start, r.End}
		if dups[k] {
			continue
		}
		dups[k] = true
		r.Phenotype = joined[r.PatientID]
		out = append(out, r)
	}
	return out
}
