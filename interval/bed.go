package interval

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/klauspost/compress/gzip"
)

// LoadOpts defines behavior of the BED-loading functions.
type LoadOpts struct {
	// OneBasedInput interprets the interval boundaries as one-based [start,
	// end] instead of the usual zero-based [start, end).
	OneBasedInput bool
}

// getTokens identifies up to the first len(tokens) tokens from curLine,
// returning the number of tokens saved.  Any (group of) characters <= ' ' is
// treated as a delimiter.
func getTokens(tokens [][]byte, curLine []byte) int {
	posEnd := 0
	lineLen := len(curLine)
	for tokenIdx := range tokens {
		pos := posEnd
		for pos != lineLen && curLine[pos] <= ' ' {
			pos++
		}
		if pos == lineLen {
			return tokenIdx
		}
		posEnd = pos
		for posEnd != lineLen && curLine[posEnd] > ' ' {
			posEnd++
		}
		tokens[tokenIdx] = curLine[pos:posEnd]
	}
	return len(tokens)
}

// isMetaLine returns true for BED comment, track and browser lines.
func isMetaLine(line []byte) bool {
	return bytes.HasPrefix(line, []byte("#")) ||
		bytes.HasPrefix(line, []byte("track")) ||
		bytes.HasPrefix(line, []byte("browser"))
}

// parseCoords converts a start/end token pair, applying the one-based
// adjustment and the Start <= End invariant.
func parseCoords(startTok, endTok string, lineIdx int, opts LoadOpts) (start, end PosType, err error) {
	parsedStart, e := strconv.Atoi(startTok)
	if e != nil {
		return 0, 0, &MalformedRowError{Line: lineIdx, Reason: fmt.Sprintf("non-numeric start %q", startTok)}
	}
	if opts.OneBasedInput {
		parsedStart--
	}
	if parsedStart < 0 {
		return 0, 0, &MalformedRowError{Line: lineIdx, Reason: fmt.Sprintf("negative start %q", startTok)}
	}
	parsedEnd, e := strconv.Atoi(endTok)
	if e != nil {
		return 0, 0, &MalformedRowError{Line: lineIdx, Reason: fmt.Sprintf("non-numeric end %q", endTok)}
	}
	if parsedEnd < parsedStart || parsedEnd >= PosTypeMax {
		return 0, 0, &MalformedRowError{Line: lineIdx, Reason: fmt.Sprintf("invalid coordinate pair [%s, %s)", startTok, endTok)}
	}
	return PosType(parsedStart), PosType(parsedEnd), nil
}

// LoadBED reads a headerless chrom/start/end[/label] table.  Blank lines and
// track/browser/comment lines are skipped; any other line with fewer than
// three fields or unparseable coordinates aborts the load with a
// *MalformedRowError and no partial table.  Columns past the fourth are
// ignored.
func LoadBED(r io.Reader, opts LoadOpts) (*Table, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64<<10), 16<<20)
	var (
		tokens  [4][]byte
		rows    []Interval
		lineIdx int
	)
	for scanner.Scan() {
		lineIdx++
		curLine := scanner.Bytes()
		if isMetaLine(curLine) {
			continue
		}
		nToken := getTokens(tokens[:], curLine)
		if nToken == 0 {
			continue
		}
		if nToken < 3 {
			return nil, &MalformedRowError{Line: lineIdx, Reason: fmt.Sprintf("%d field(s), need at least 3", nToken)}
		}
		start, end, err := parseCoords(gunsafe.BytesToString(tokens[1]), gunsafe.BytesToString(tokens[2]), lineIdx, opts)
		if err != nil {
			return nil, err
		}
		iv := Interval{Chrom: string(tokens[0]), Start: start, End: end}
		if nToken == 4 {
			iv.Label = string(tokens[3])
		}
		rows = append(rows, iv)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	log.Debug.Printf("interval: loaded %d row(s)", len(rows))
	return NewTable(rows), nil
}

// LoadRows builds a Table from pre-split rows with the same contract as
// LoadBED.
func LoadRows(rows [][]string, opts LoadOpts) (*Table, error) {
	ivs := make([]Interval, 0, len(rows))
	for i, row := range rows {
		if len(row) < 3 {
			return nil, &MalformedRowError{Line: i + 1, Reason: fmt.Sprintf("%d field(s), need at least 3", len(row))}
		}
		start, end, err := parseCoords(row[1], row[2], i+1, opts)
		if err != nil {
			return nil, err
		}
		iv := Interval{Chrom: row[0], Start: start, End: end}
		if len(row) > 3 {
			iv.Label = row[3]
		}
		ivs = append(ivs, iv)
	}
	return NewTable(ivs), nil
}

// LoadBEDFromPath is a wrapper for LoadBED that takes a path instead of an
// io.Reader.  Gzipped input is detected from the path suffix.
func LoadBEDFromPath(ctx context.Context, path string, opts LoadOpts) (table *Table, err error) {
	var infile file.File
	if infile, err = file.Open(ctx, path); err != nil {
		return
	}
	defer file.CloseAndReport(ctx, infile, &err)
	reader := io.Reader(infile.Reader(ctx))
	if fileio.DetermineType(path) == fileio.Gzip {
		if reader, err = gzip.NewReader(reader); err != nil {
			return
		}
	}
	if table, err = LoadBED(reader, opts); err != nil {
		if mre, ok := err.(*MalformedRowError); ok {
			mre.Path = path
		}
	}
	return
}
