package interval

import (
	"math/rand"
	"testing"

	"github.com/grailbio/testutil/expect"
)

func probes(coords ...PosType) []Interval {
	ivs := make([]Interval, 0, len(coords)/2)
	for i := 0; i+1 < len(coords); i += 2 {
		ivs = append(ivs, Interval{Chrom: "chr1", Start: coords[i], End: coords[i+1]})
	}
	return ivs
}

func TestWindowScannerScenario(t *testing.T) {
	ivs := probes(100, 110, 115, 125, 130, 140, 145, 155)
	ws := NewWindowScanner(ivs, 2)
	expect.EQ(t, ws.Len(), 2)

	var spans []PosType
	var firsts []PosType
	for ws.Scan() {
		w := ws.Window()
		expect.EQ(t, w.Size(), 2)
		spans = append(spans, w.Span())
		firsts = append(firsts, w.Intervals[0].Start)
	}
	expect.EQ(t, spans, []PosType{25, 25})
	expect.EQ(t, firsts, []PosType{100, 115})

	// Restartable.
	ws.Reset()
	n := 0
	for ws.Scan() {
		n++
	}
	expect.EQ(t, n, 2)
}

func TestWindowScannerTooFew(t *testing.T) {
	for _, size := range []int{4, 5, 100} {
		ws := NewWindowScanner(probes(1, 2, 3, 4, 5, 6, 7, 8), size)
		expect.EQ(t, ws.Len(), 0)
		expect.False(t, ws.Scan())
	}
	expect.False(t, NewWindowScanner(nil, 1).Scan())
	expect.False(t, NewWindowScanner(probes(1, 2, 3, 4), 0).Scan())
}

func TestWindowSpanUsesWholeWindow(t *testing.T) {
	// The middle probe is nested inside the first one, so the span must come
	// from min(start) and max(end) rather than first/last.
	ivs := probes(0, 100, 10, 20, 30, 40)
	ws := NewWindowScanner(ivs, 2)
	expect.True(t, ws.Scan())
	expect.EQ(t, ws.Window().Span(), PosType(100))
	expect.EQ(t, ws.Window().Bounds(), Interval{Chrom: "chr1", Start: 0, End: 100})
}

func TestWindowProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 200; trial++ {
		k := rng.Intn(30)
		var ivs []Interval
		pos := PosType(0)
		for i := 0; i < k; i++ {
			pos += PosType(rng.Intn(50))
			ivs = append(ivs, Interval{Chrom: "chr1", Start: pos, End: pos + PosType(rng.Intn(40))})
		}
		size := 1 + rng.Intn(6)
		want := k - size
		if want < 0 {
			want = 0
		}
		ws := NewWindowScanner(ivs, size)
		n := 0
		for ws.Scan() {
			w := ws.Window()
			expect.EQ(t, w.Size(), size)
			for _, iv := range w.Intervals {
				expect.True(t, w.Span() >= iv.Len())
			}
			n++
		}
		expect.EQ(t, n, want)
		expect.EQ(t, len(Spans(ivs, size)), want)
	}
}
