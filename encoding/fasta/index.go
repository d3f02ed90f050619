// Package fasta reads the sequence layout of FASTA files: the name, length
// and line geometry of every sequence, as recorded in a samtools FASTA
// index (.fai).  See http://www.htslib.org/doc/faidx.html.
//
// Sequence names are the stretch of characters after '>' up to the first
// space, so '>chr1 A viral sequence' names 'chr1'.
package fasta

import (
	"bufio"
	"bytes"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Index files consist of one tab-separated line per sequence in the associated
// FASTA file.  The format is: "<sequence name>\t<length>\t<byte
// offset>\t<bases per line>\t<bytes per line>".
// For example: "chr3\t12345\t9000\t80\t81".
var indexRegExp = regexp.MustCompile(`^(\S+)\t(\d+)\t(\d+)\t(\d+)\t(\d+)`)

// IndexEntry describes one sequence of a FASTA file.
type IndexEntry struct {
	Name string
	// Length is the number of bases, line breaks excluded.
	Length uint64
	// Offset is the byte offset of the first base.
	Offset uint64
	// LineBases and LineWidth are the bases and bytes (terminator included)
	// per full line.
	LineBases uint64
	LineWidth uint64
}

// ReadIndex parses a FASTA index.  Entries are returned in file order,
// which is the order of the sequences in the FASTA file.
func ReadIndex(index io.Reader) ([]IndexEntry, error) {
	var (
		entries []IndexEntry
		scanner = bufio.NewScanner(index)
		lineIdx = 0
	)
	for scanner.Scan() {
		lineIdx++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		matches := indexRegExp.FindStringSubmatch(line)
		if len(matches) != 6 {
			return nil, errors.Errorf("invalid index line %d: %s", lineIdx, line)
		}
		ent := IndexEntry{Name: matches[1]}
		for i, dst := range []*uint64{&ent.Length, &ent.Offset, &ent.LineBases, &ent.LineWidth} {
			v, err := strconv.ParseUint(matches[i+2], 10, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "index line %d", lineIdx)
			}
			*dst = v
		}
		entries = append(entries, ent)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "couldn't read FASTA index")
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Offset < entries[j].Offset })
	return entries, nil
}

// FaiToReferenceLengths reads a FASTA index and returns a map of reference
// name to reference length.  This doesn't require reading the FASTA itself.
func FaiToReferenceLengths(index io.Reader) (map[string]uint64, error) {
	entries, err := ReadIndex(index)
	if err != nil {
		return nil, err
	}
	lens := make(map[string]uint64, len(entries))
	for _, e := range entries {
		lens[e.Name] = e.Length
	}
	return lens, nil
}

// GenerateIndex scans a FASTA file and returns the entries "samtools faidx"
// would write for it.  Only one line is held in memory at a time.
func GenerateIndex(in io.Reader) ([]IndexEntry, error) {
	var (
		entries []IndexEntry
		r       = bufio.NewReader(in)
		cur     *IndexEntry
		cumByte uint64
	)
	for {
		fullLine, err := r.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}
		cumByte += uint64(len(fullLine))
		line := bytes.TrimRight(fullLine, "\r\n")
		switch {
		case len(line) == 0:
		case line[0] == '>': // Start a new sequence.
			entries = append(entries, IndexEntry{
				Name:   strings.Split(string(line[1:]), " ")[0],
				Offset: cumByte,
			})
			cur = &entries[len(entries)-1]
		case cur == nil:
			return nil, errors.New("malformed FASTA file: sequence before first header")
		default:
			if cur.LineWidth == 0 {
				cur.LineWidth = uint64(len(fullLine))
				cur.LineBases = uint64(len(line))
			}
			cur.Length += uint64(len(line))
		}
		if err == io.EOF {
			break
		}
	}
	if cumByte == 0 {
		return nil, errors.New("empty FASTA file")
	}
	return entries, nil
}
