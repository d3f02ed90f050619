package interval

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/klauspost/compress/gzip"
)

func TestParseChrom(t *testing.T) {
	tests := []struct {
		name string
		want Chrom
	}{
		{"chr1", 0},
		{"chr22", 21},
		{"chrX", ChromX},
		{"chrY", ChromY},
		{"chrM", ChromUnknown},
		{"1", ChromUnknown},
		{"chr1_KI270706v1_random", ChromUnknown},
	}
	for _, tt := range tests {
		expect.EQ(t, ParseChrom(tt.name), tt.want)
	}
	expect.True(t, ParseChrom("chr2") < ParseChrom("chr10"))
	expect.True(t, ParseChrom("chr22") < ParseChrom("chrX"))
	expect.EQ(t, ChromX.String(), "chrX")
	expect.EQ(t, len(Chroms()), NChrom)
}

func TestLoadBED(t *testing.T) {
	in := `track name=probes
chr2	500	501	P4
chr1	300	301	P2

chr1	100	101	P1
chrUn_gl000220	5	6	P9
chr1	100	120	P3
`
	table, err := LoadBED(strings.NewReader(in), LoadOpts{})
	assert.NoError(t, err)
	expect.EQ(t, table.Len(), 5)
	expect.EQ(t, table.Unknown(), 1)
	expect.EQ(t, table.Rows()[0].Label, "P4")

	chr1 := table.Chromosome(ParseChrom("chr1"))
	labels := []string{}
	for _, iv := range chr1 {
		labels = append(labels, iv.Label)
	}
	// P1 and P3 tie on start; input order is kept.
	expect.EQ(t, labels, []string{"P1", "P3", "P2"})
	expect.EQ(t, len(table.Chromosome(ChromY)), 0)
	expect.EQ(t, table.Chromosomes()[0], Chrom(0))
	expect.EQ(t, len(table.Chromosomes()), NChrom)
	expect.EQ(t, len(table.Sorted()), 4)
}

func TestLoadBEDOneBased(t *testing.T) {
	table, err := LoadBED(strings.NewReader("chr1\t1\t10\n"), LoadOpts{OneBasedInput: true})
	assert.NoError(t, err)
	expect.EQ(t, table.Rows()[0], Interval{Chrom: "chr1", Start: 0, End: 10})
}

func TestLoadBEDMalformed(t *testing.T) {
	tests := []struct {
		in     string
		line   int
		reason string
	}{
		{"chr1\t100\n", 1, "need at least 3"},
		{"chr1\t1\t2\nchr1\tabc\t5\n", 2, "non-numeric start"},
		{"chr1\t10\tx\n", 1, "non-numeric end"},
		{"chr1\t10\t5\n", 1, "invalid coordinate pair"},
		{"chr1\t-4\t5\n", 1, "negative start"},
	}
	for _, tt := range tests {
		table, err := LoadBED(strings.NewReader(tt.in), LoadOpts{})
		expect.True(t, table == nil)
		var mre *MalformedRowError
		assert.True(t, errors.As(err, &mre), "input %q: %v", tt.in, err)
		expect.EQ(t, mre.Line, tt.line)
		expect.HasSubstr(t, mre.Reason, tt.reason)
	}
}

func TestLoadRows(t *testing.T) {
	table, err := LoadRows([][]string{{"chr3", "5", "9", "a"}, {"chr3", "1", "2"}}, LoadOpts{})
	assert.NoError(t, err)
	expect.EQ(t, table.Chromosome(ParseChrom("chr3"))[0].Start, PosType(1))

	_, err = LoadRows([][]string{{"chr3", "5"}}, LoadOpts{})
	var mre *MalformedRowError
	expect.True(t, errors.As(err, &mre))
}

func TestLoadBEDFromPathGzip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "probes.bed.gz")
	f, err := os.Create(path)
	assert.NoError(t, err)
	w := gzip.NewWriter(f)
	_, err = w.Write([]byte("chr1\t10\t11\tA\nchr1\t20\t21\tB\n"))
	assert.NoError(t, err)
	assert.NoError(t, w.Close())
	assert.NoError(t, f.Close())

	table, err := LoadBEDFromPath(context.Background(), path, LoadOpts{})
	assert.NoError(t, err)
	expect.EQ(t, table.Len(), 2)

	bad := filepath.Join(dir, "bad.bed")
	assert.NoError(t, os.WriteFile(bad, []byte("chr1\tx\t1\n"), 0644))
	_, err = LoadBEDFromPath(context.Background(), bad, LoadOpts{})
	var mre *MalformedRowError
	assert.True(t, errors.As(err, &mre))
	expect.EQ(t, mre.Path, bad)
}
