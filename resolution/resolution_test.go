package resolution

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/moka-guys/snparray/interval"
	"github.com/stretchr/testify/require"
)

func table(t *testing.T, bed string) *interval.Table {
	tbl, err := interval.LoadBED(strings.NewReader(bed), interval.LoadOpts{})
	assert.NoError(t, err)
	return tbl
}

func TestCount(t *testing.T) {
	arrayB := table(t, `chr1	100	110	b1
chr1	115	125	b2
chr1	130	140	b3
chr1	145	155	b4
chr2	0	10	c1
`)
	arrayA := table(t, `chr1	105	106	a1
chr1	120	121	a2
chr1	124	126	a3
chr1	125	126	a4
chr1	139	139	a5
chrY	0	1	y1
`)
	rows, err := Count(context.Background(), arrayA, arrayB, Opts{Window: 2})
	assert.NoError(t, err)
	require.Len(t, rows, 2)
	expect.EQ(t, rows[0], CountRow{Chrom: 0, Index: 0, Start: 100, End: 125, Span: 25, Count: 3})
	expect.EQ(t, rows[1], CountRow{Chrom: 0, Index: 1, Start: 115, End: 140, Span: 25, Count: 4})

	// chr2 has one probe, fewer than the window.
	rows, err = Count(context.Background(), arrayA, arrayB, Opts{Window: 1, Chroms: []interval.Chrom{1}})
	assert.NoError(t, err)
	expect.EQ(t, len(rows), 0)

	_, err = Count(context.Background(), arrayA, arrayB, Opts{Window: 0})
	require.Error(t, err)
	expect.HasSubstr(t, err.Error(), "window must be >= 1")
}

func TestCountDeterministic(t *testing.T) {
	var sb strings.Builder
	for _, c := range interval.Chroms()[:22] {
		for p := 0; p < 20; p++ {
			fmt.Fprintf(&sb, "%s\t%d\t%d\n", c, p*100, p*100+50)
		}
	}
	probes := table(t, sb.String())
	var first []byte
	for i := 0; i < 5; i++ {
		rows, err := Count(context.Background(), probes, probes, Opts{Window: 3})
		assert.NoError(t, err)
		expect.EQ(t, len(rows), 22*17)
		var buf bytes.Buffer
		assert.NoError(t, WriteCounts(&buf, rows))
		if first == nil {
			first = buf.Bytes()
			continue
		}
		expect.True(t, bytes.Equal(first, buf.Bytes()))
	}
}

func TestGeneSpans(t *testing.T) {
	regions := table(t, `chr1	0	1000	GENE_A
chr1	5000	6000	GENE_B
chr3	0	100	GENE_C
`)
	probes := table(t, `chr1	10	20
chr1	200	210
chr1	100	110
chr1	900	1100
chr1	5100	5101
chr1	5200	5201
chr3	10	11
`)
	rows, err := GeneSpans(context.Background(), regions, probes, Opts{Window: 2})
	assert.NoError(t, err)
	// GENE_A matches 4 probes -> 2 windows; GENE_B matches 2 -> none; GENE_C
	// matches 1 -> none.
	require.Len(t, rows, 2)
	expect.EQ(t, rows[0], GeneSpanRow{Region: "GENE_A", Chrom: 0, Start: 0, End: 1000, Probes: 4, Index: 0, Span: 100})
	expect.EQ(t, rows[1], GeneSpanRow{Region: "GENE_A", Chrom: 0, Start: 0, End: 1000, Probes: 4, Index: 1, Span: 110})

	rows, err = GeneSpans(context.Background(), regions, probes, Opts{Window: 1})
	assert.NoError(t, err)
	expect.EQ(t, len(rows), 4)
}

func TestSummarize(t *testing.T) {
	s := Summarize("x", []int64{25, 5, 10, 100})
	expect.EQ(t, s, Summary{Label: "x", N: 4, Mean: 35, Median: 17.5, Min: 5, Max: 100})
	expect.EQ(t, Summarize("y", []int64{3, 1, 2}).Median, 2.0)
	expect.EQ(t, Summarize("z", nil), Summary{Label: "z"})

	sums := SummarizeCountSpans([]CountRow{
		{Chrom: interval.ChromX, Span: 10},
		{Chrom: 0, Span: 30},
		{Chrom: 0, Span: 50},
	})
	require.Len(t, sums, 3)
	expect.EQ(t, sums[0].Label, "chr1")
	expect.EQ(t, sums[0].Mean, 40.0)
	expect.EQ(t, sums[1].Label, "chrX")
	expect.EQ(t, sums[2].Label, GenomeWide)
	expect.EQ(t, sums[2].N, 3)
}

func TestCountFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.bed")
	b := filepath.Join(dir, "b.bed")
	assert.NoError(t, os.WriteFile(a, []byte("chr1\t105\t106\n"), 0644))
	assert.NoError(t, os.WriteFile(b, []byte("chr1\t100\t110\nchr1\t115\t125\nchr1\t130\t140\n"), 0644))

	paths, err := CountFiles(context.Background(), a, b, filepath.Join(dir, "res"), Opts{Window: 2})
	assert.NoError(t, err)
	data, err := os.ReadFile(paths.Rows)
	assert.NoError(t, err)
	expect.EQ(t, string(data), "#chrom\twindow_start\twindow_end\tspan\tcount\nchr1\t100\t125\t25\t1\n")
	summary, err := os.ReadFile(paths.Summary)
	assert.NoError(t, err)
	expect.HasSubstr(t, string(summary), "span\tchr1\t1\t25.00\t25.00\t25\t25")

	// A malformed input leaves no output behind.
	assert.NoError(t, os.WriteFile(a, []byte("chr1\tx\t106\n"), 0644))
	paths, err = CountFiles(context.Background(), a, b, filepath.Join(dir, "bad"), Opts{Window: 2})
	expect.True(t, err != nil)
	_, statErr := os.Stat(paths.Rows)
	expect.True(t, os.IsNotExist(statErr))

	// The rows file is not published when the summary cannot be.
	assert.NoError(t, os.WriteFile(a, []byte("chr1\t105\t106\n"), 0644))
	blocked := filepath.Join(dir, "blocked")
	assert.NoError(t, os.Mkdir(OutputPaths(blocked).Summary, 0755))
	paths, err = CountFiles(context.Background(), a, b, blocked, Opts{Window: 2})
	expect.True(t, err != nil)
	_, statErr = os.Stat(paths.Rows)
	expect.True(t, os.IsNotExist(statErr))
}

func TestCountFilesRegions(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.bed")
	b := filepath.Join(dir, "b.bed")
	assert.NoError(t, os.WriteFile(a, []byte("chr1\t105\t106\nchr2\t105\t106\n"), 0644))
	assert.NoError(t, os.WriteFile(b, []byte(
		"chr1\t100\t110\nchr1\t115\t125\nchr1\t130\t140\n"+
			"chr2\t100\t110\nchr2\t115\t125\nchr2\t130\t140\n"), 0644))

	region, err := interval.ParseRegion("chr2:101-200")
	assert.NoError(t, err)
	paths, err := CountFiles(context.Background(), a, b, filepath.Join(dir, "res"),
		Opts{Window: 2, Regions: []interval.Interval{region}})
	assert.NoError(t, err)
	data, err := os.ReadFile(paths.Rows)
	assert.NoError(t, err)
	expect.EQ(t, string(data), "#chrom\twindow_start\twindow_end\tspan\tcount\nchr2\t100\t125\t25\t1\n")
}
