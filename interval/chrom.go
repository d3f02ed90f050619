package interval

import (
	"strconv"
)

// Chrom identifies one of the 24 chromosomes processed by chromosome-scoped
// passes.  The numeric value doubles as the sort order, so chr2 < chr10 <
// chrX < chrY.
type Chrom int8

// NChrom is the number of valid Chrom values.
const NChrom = 24

const (
	// ChromUnknown is returned by ParseChrom for any other contig name.
	ChromUnknown Chrom = -1
	// ChromX and ChromY follow chr22.
	ChromX Chrom = 22
	ChromY Chrom = 23
)

var chromNames [NChrom]string

var chromByName map[string]Chrom

func init() {
	chromByName = make(map[string]Chrom, NChrom)
	for i := 0; i < 22; i++ {
		chromNames[i] = "chr" + strconv.Itoa(i+1)
	}
	chromNames[ChromX] = "chrX"
	chromNames[ChromY] = "chrY"
	for i, name := range chromNames {
		chromByName[name] = Chrom(i)
	}
}

// ParseChrom resolves a contig name.  Only the UCSC-style names chr1..chr22,
// chrX and chrY are recognized; everything else (including alt contigs,
// chrM, and unprefixed names) maps to ChromUnknown.
func ParseChrom(name string) Chrom {
	if c, ok := chromByName[name]; ok {
		return c
	}
	return ChromUnknown
}

// Valid returns whether c is one of the 24 enumerated chromosomes.
func (c Chrom) Valid() bool {
	return c >= 0 && c < NChrom
}

// String returns the UCSC name, e.g. "chr7".
func (c Chrom) String() string {
	if !c.Valid() {
		return "unknown"
	}
	return chromNames[c]
}

// Chroms returns the enumeration in processing order.
func Chroms() []Chrom {
	out := make([]Chrom, NChrom)
	for i := range out {
		out[i] = Chrom(i)
	}
	return out
}
