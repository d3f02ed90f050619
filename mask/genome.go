package mask

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	"github.com/klauspost/compress/gzip"
	"github.com/moka-guys/snparray/encoding/fasta"
	"github.com/moka-guys/snparray/interval"
)

// SeqLen is the length of one reference sequence.
type SeqLen struct {
	Name   string
	Length int64
}

func indexLengths(entries []fasta.IndexEntry) []SeqLen {
	lens := make([]SeqLen, len(entries))
	for i, e := range entries {
		lens[i] = SeqLen{Name: e.Name, Length: int64(e.Length)}
	}
	return lens
}

// readFai reads sequence lengths from a FASTA index.
func readFai(r io.Reader) ([]SeqLen, error) {
	entries, err := fasta.ReadIndex(r)
	if err != nil {
		return nil, err
	}
	return indexLengths(entries), nil
}

// readFASTA measures every sequence of a FASTA file the way an index is
// built for it.
func readFASTA(r io.Reader) ([]SeqLen, error) {
	entries, err := fasta.GenerateIndex(r)
	if err != nil {
		return nil, err
	}
	return indexLengths(entries), nil
}

// readGenomeFile reads a two-column "name length" genome file, as consumed
// by bedtools.
func readGenomeFile(r io.Reader) ([]SeqLen, error) {
	var (
		lens    []SeqLen
		scanner = bufio.NewScanner(r)
		lineIdx = 0
	)
	for scanner.Scan() {
		lineIdx++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if len(fields) < 2 {
			return nil, &interval.MalformedRowError{Line: lineIdx, Reason: "genome file rows need a name and a length"}
		}
		n, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil || n < 0 {
			return nil, &interval.MalformedRowError{Line: lineIdx, Reason: fmt.Sprintf("invalid length %q", fields[1])}
		}
		lens = append(lens, SeqLen{Name: fields[0], Length: n})
	}
	return lens, scanner.Err()
}

// Universe converts sequence lengths to a table of [0, length) intervals,
// one per processed chromosome, in chromosome order.  Other sequences (alt
// contigs, chrM, decoys) are skipped.
func Universe(lens []SeqLen) *interval.Table {
	var rows []interval.Interval
	skipped := 0
	for _, l := range lens {
		if !interval.ParseChrom(l.Name).Valid() {
			skipped++
			continue
		}
		end := l.Length
		if end > interval.PosTypeMax {
			end = interval.PosTypeMax
		}
		rows = append(rows, interval.Interval{Chrom: l.Name, Start: 0, End: interval.PosType(end)})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return interval.ParseChrom(rows[i].Chrom) < interval.ParseChrom(rows[j].Chrom)
	})
	if skipped > 0 {
		log.Debug.Printf("mask.Universe: skipped %d non-chromosome sequence(s)", skipped)
	}
	return interval.NewTable(rows)
}

// LoadGenome reads the genome extent from path and returns its universe
// table.  A path ending in .fai is read as a FASTA index, .fa/.fasta (or
// gzipped) as FASTA, and anything else as a two-column genome file.
func LoadGenome(ctx context.Context, path string) (t *interval.Table, err error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer file.CloseAndReport(ctx, f, &err)
	var r io.Reader = f.Reader(ctx)
	name := path
	if fileio.DetermineType(path) == fileio.Gzip {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, errors.E(path, err)
		}
		defer gz.Close() // nolint: errcheck
		r = gz
		name = strings.TrimSuffix(path, ".gz")
	}
	var lens []SeqLen
	switch {
	case strings.HasSuffix(name, ".fai"):
		lens, err = readFai(r)
	case strings.HasSuffix(name, ".fa"), strings.HasSuffix(name, ".fasta"), strings.HasSuffix(name, ".fna"):
		lens, err = readFASTA(r)
	default:
		lens, err = readGenomeFile(r)
	}
	if err != nil {
		if mre, ok := err.(*interval.MalformedRowError); ok {
			mre.Path = path
			return nil, mre
		}
		return nil, errors.E(path, err)
	}
	return Universe(lens), nil
}
