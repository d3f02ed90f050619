// Package liftover moves legacy CNV calls to a new genome build.  Calls are
// exported with a minted surrogate key, remapped by an external liftOver
// process, joined back to the original calls by that key, and published as
// genome-browser tracks.
package liftover

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
	"github.com/moka-guys/snparray/interval"
	"github.com/moka-guys/snparray/legacy"
	"github.com/moka-guys/snparray/util"
)

// keySpace is the UUIDv5 namespace of minted keys.
var keySpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/moka-guys/snparray/liftover"))

// Record is one row of a liftover request or response.
type Record struct {
	Chrom      string
	Start, End interval.PosType
	// Key identifies the exported call.  It is unique within a batch.
	Key string
	// Payload holds the columns after the key, carried through verbatim.
	Payload []string
	// Call is the exported call.  It is set on exported records only;
	// records read back from liftOver output carry just the key.
	Call *legacy.NormalizedRecord
}

// Interval returns the record's coordinates labelled with its key.
func (r Record) Interval() interval.Interval {
	return interval.Interval{Chrom: r.Chrom, Start: r.Start, End: r.End, Label: r.Key}
}

// MintKey returns the surrogate key of the ordinal'th call of a batch.  The
// key is a UUIDv5 of the ordinal and the call's identity fields, so a batch
// exported twice gets the same keys, and two calls sharing patient and
// coordinates still get distinct ones.
func MintKey(ordinal int, c *legacy.NormalizedRecord) string {
	name := fmt.Sprintf("%d\t%s\t%s\t%d\t%d", ordinal, c.PatientID, c.Chrom, c.Start, c.End)
	return uuid.NewSHA1(keySpace, []byte(name)).String()
}

// Export builds one request record per call, in call order.
func Export(calls []legacy.NormalizedRecord) []Record {
	recs := make([]Record, len(calls))
	for i := range calls {
		c := &calls[i]
		recs[i] = Record{
			Chrom: c.Chrom,
			Start: c.Start,
			End:   c.End,
			Key:   MintKey(i, c),
			Call:  c,
		}
	}
	return recs
}

func writeRecord(tsvw *tsv.Writer, r Record) error {
	tsvw.WriteString(r.Chrom)
	tsvw.WriteInt64(int64(r.Start))
	tsvw.WriteInt64(int64(r.End))
	tsvw.WriteString(r.Key)
	for _, p := range r.Payload {
		tsvw.WriteString(p)
	}
	return tsvw.EndLine()
}

// WriteRecords writes recs as "chrom start end key [payload...]" rows.
func WriteRecords(w io.Writer, recs []Record) error {
	tsvw := tsv.NewWriter(w)
	for _, r := range recs {
		if err := writeRecord(tsvw, r); err != nil {
			return err
		}
	}
	return tsvw.Flush()
}

// WriteRequest writes the liftOver input file for recs.
func WriteRequest(ctx context.Context, path string, recs []Record) error {
	return util.WriteFile(ctx, path, func(w io.Writer) error {
		return WriteRecords(w, recs)
	})
}

// Unmapped is a request record liftOver could not map.
type Unmapped struct {
	Record
	// Reason is liftOver's explanation, e.g. "Deleted in new".
	Reason string
}

func parseRecord(line string, lineIdx int) (Record, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 4 {
		return Record{}, &interval.MalformedRowError{Line: lineIdx, Reason: fmt.Sprintf("%d field(s), need chrom, start, end and key", len(fields))}
	}
	start, err := strconv.ParseInt(fields[1], 10, 32)
	if err != nil || start < 0 {
		return Record{}, &interval.MalformedRowError{Line: lineIdx, Reason: fmt.Sprintf("invalid start %q", fields[1])}
	}
	end, err := strconv.ParseInt(fields[2], 10, 32)
	if err != nil || end < start {
		return Record{}, &interval.MalformedRowError{Line: lineIdx, Reason: fmt.Sprintf("invalid end %q", fields[2])}
	}
	r := Record{Chrom: fields[0], Start: interval.PosType(start), End: interval.PosType(end), Key: fields[3]}
	if len(fields) > 4 {
		r.Payload = append([]string(nil), fields[4:]...)
	}
	return r, nil
}

// scanResponse calls fn for every record line of a liftOver output file,
// passing the text of the comment lines that precede it.
func scanResponse(r io.Reader, fn func(rec Record, comment string)) error {
	var (
		scanner = bufio.NewScanner(r)
		lineIdx int
		comment string
	)
	scanner.Buffer(make([]byte, 0, 64<<10), 16<<20)
	for scanner.Scan() {
		lineIdx++
		line := strings.TrimRight(scanner.Text(), "\r")
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "#"):
			comment = strings.TrimSpace(strings.TrimPrefix(line, "#"))
			continue
		}
		rec, err := parseRecord(line, lineIdx)
		if err != nil {
			return err
		}
		fn(rec, comment)
		comment = ""
	}
	return scanner.Err()
}

// ReadMapped parses liftOver's mapped output.
func ReadMapped(r io.Reader) ([]Record, error) {
	var recs []Record
	err := scanResponse(r, func(rec Record, _ string) {
		recs = append(recs, rec)
	})
	return recs, err
}

// ReadUnmapped parses liftOver's unmapped output, where each record follows
// a "#reason" line.
func ReadUnmapped(r io.Reader) ([]Unmapped, error) {
	var recs []Unmapped
	err := scanResponse(r, func(rec Record, reason string) {
		recs = append(recs, Unmapped{Record: rec, Reason: reason})
	})
	return recs, err
}

func readFile(ctx context.Context, path string, fn func(io.Reader) error) (err error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return err
	}
	defer file.CloseAndReport(ctx, f, &err)
	err = fn(f.Reader(ctx))
	if mre, ok := err.(*interval.MalformedRowError); ok {
		mre.Path = path
	}
	return err
}

// ReadResponse reads both liftOver output files of req.  Any failure is
// reported as a *CollaboratorFailure of the read stage.
func ReadResponse(ctx context.Context, req Request) (mapped []Record, unmapped []Unmapped, err error) {
	err = readFile(ctx, req.MappedPath, func(r io.Reader) (e error) {
		mapped, e = ReadMapped(r)
		return e
	})
	if err == nil {
		err = readFile(ctx, req.UnmappedPath, func(r io.Reader) (e error) {
			unmapped, e = ReadUnmapped(r)
			return e
		})
	}
	if err != nil {
		return nil, nil, &CollaboratorFailure{Stage: StageRead, Err: err}
	}
	return mapped, unmapped, nil
}
