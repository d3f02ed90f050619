package interval

// Window is a view of exactly Size() consecutive intervals, in start order,
// from one chromosome.  It aliases the slice it was cut from.
type Window struct {
	// Index is the 0-based position of the window's first interval.
	Index     int
	Intervals []Interval
}

// Size returns the number of intervals in the window.
func (w Window) Size() int {
	return len(w.Intervals)
}

// Start returns the smallest start over the window.
func (w Window) Start() PosType {
	start := w.Intervals[0].Start
	for _, iv := range w.Intervals[1:] {
		if iv.Start < start {
			start = iv.Start
		}
	}
	return start
}

// End returns the largest end over the window.  Because intervals may nest,
// this is not necessarily the end of the last interval.
func (w Window) End() PosType {
	end := w.Intervals[0].End
	for _, iv := range w.Intervals[1:] {
		if iv.End > end {
			end = iv.End
		}
	}
	return end
}

// Span returns max(end) - min(start) across the whole window.  Aggregations
// treat one window's span as a single observation.
func (w Window) Span() PosType {
	return w.End() - w.Start()
}

// Bounds returns the window's extent as an interval on the same chromosome.
func (w Window) Bounds() Interval {
	return Interval{Chrom: w.Intervals[0].Chrom, Start: w.Start(), End: w.End()}
}

// WindowScanner lazily produces the rolling windows of a fixed size over
// one chromosome's sorted intervals, advancing by one interval at a time:
//   ws := NewWindowScanner(table.Chromosome(c), size)
//   for ws.Scan() {
//     w := ws.Window()
//     ...
//   }
//
// The scanner stops once fewer than size intervals remain after the current
// start, so K intervals produce max(0, K-size) windows.  A chromosome with
// too few intervals produces no windows; that is not an error.
type WindowScanner struct {
	ivs  []Interval
	size int
	// next is the index of the first interval of the next window.
	next int
	cur  Window
}

// NewWindowScanner returns a scanner over ivs, which must be sorted by
// start.  A size below 1 yields an empty sequence.
func NewWindowScanner(ivs []Interval, size int) *WindowScanner {
	return &WindowScanner{ivs: ivs, size: size}
}

// Len returns the total number of windows the scanner produces.
func (ws *WindowScanner) Len() int {
	if ws.size < 1 || len(ws.ivs) <= ws.size {
		return 0
	}
	return len(ws.ivs) - ws.size
}

// Scan advances to the next window, returning false when the sequence is
// exhausted.
func (ws *WindowScanner) Scan() bool {
	if ws.next >= ws.Len() {
		return false
	}
	ws.cur = Window{Index: ws.next, Intervals: ws.ivs[ws.next : ws.next+ws.size]}
	ws.next++
	return true
}

// Window returns the window produced by the last successful Scan.
func (ws *WindowScanner) Window() Window {
	return ws.cur
}

// Reset rewinds the scanner to the first window.
func (ws *WindowScanner) Reset() {
	ws.next = 0
	ws.cur = Window{}
}

// Spans returns the span of every window of the given size over ivs.
func Spans(ivs []Interval, size int) []PosType {
	ws := NewWindowScanner(ivs, size)
	spans := make([]PosType, 0, ws.Len())
	for ws.Scan() {
		spans = append(spans, ws.Window().Span())
	}
	return spans
}
