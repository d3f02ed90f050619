// Package bedtrack writes the 11-column genome-browser track used to
// publish reconciled CNV calls:
//
//   chrom start end name score strand thickStart thickEnd itemRgb name2 html
//
// score is always 0 and strand always "."; the browser relies on both
// placeholders, so the column order and constants are fixed.  The file has
// no header.
package bedtrack

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/grailbio/base/tsv"
	"github.com/moka-guys/snparray/interval"
	"github.com/moka-guys/snparray/util"
)

const (
	// Score is the constant score column value.
	Score = "0"
	// Strand is the constant strand column value.
	Strand = "."
)

// RGB is an itemRgb color.
type RGB struct {
	R, G, B uint8
}

// String formats the color as "R,G,B".
func (c RGB) String() string {
	return fmt.Sprintf("%d,%d,%d", c.R, c.G, c.B)
}

// Record is one track line.
type Record struct {
	Chrom      string
	Start, End interval.PosType
	Name       string
	// ThickStart and ThickEnd default to Start and End when both are zero.
	ThickStart, ThickEnd interval.PosType
	Color                RGB
	Name2                string
	HTML                 string
}

// sanitize keeps a free-text field on one TSV cell.
func sanitize(s string) string {
	if !strings.ContainsAny(s, "\t\r\n") {
		return s
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '\t', '\r', '\n':
			return ' '
		}
		return r
	}, s)
}

// Writer writes track records.
type Writer struct {
	tsvw *tsv.Writer
	n    int
}

// NewWriter returns a Writer on w.  Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	return &Writer{tsvw: tsv.NewWriter(w)}
}

// Write writes one record.
func (w *Writer) Write(r Record) error {
	if r.End < r.Start {
		return fmt.Errorf("bedtrack: record %q has end %d < start %d", r.Name, r.End, r.Start)
	}
	thickStart, thickEnd := r.ThickStart, r.ThickEnd
	if thickStart == 0 && thickEnd == 0 {
		thickStart, thickEnd = r.Start, r.End
	}
	w.tsvw.WriteString(r.Chrom)
	w.tsvw.WriteUint32(uint32(r.Start))
	w.tsvw.WriteUint32(uint32(r.End))
	w.tsvw.WriteString(sanitize(r.Name))
	w.tsvw.WriteString(Score)
	w.tsvw.WriteString(Strand)
	w.tsvw.WriteUint32(uint32(thickStart))
	w.tsvw.WriteUint32(uint32(thickEnd))
	w.tsvw.WriteString(r.Color.String())
	w.tsvw.WriteString(sanitize(r.Name2))
	w.tsvw.WriteString(sanitize(r.HTML))
	w.n++
	return w.tsvw.EndLine()
}

// Len returns the number of records written.
func (w *Writer) Len() int {
	return w.n
}

// Flush flushes buffered output.
func (w *Writer) Flush() error {
	return w.tsvw.Flush()
}

// Stage adds a file holding recs at path to b.  The batch is aborted if
// any record fails to write.
func Stage(ctx context.Context, b *util.Batch, path string, recs []Record) error {
	return b.Add(ctx, path, func(out io.Writer) error {
		w := NewWriter(out)
		for _, r := range recs {
			if err := w.Write(r); err != nil {
				return err
			}
		}
		return w.Flush()
	})
}
