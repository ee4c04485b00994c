// Package histogram provides a fixed-width one dimensional histogram that
// serves as a fitty.DataSource.
package histogram

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidBinning reports a histogram without bins or with an empty
	// axis.
	ErrInvalidBinning = errors.New("histogram: invalid binning")
	// ErrRebinFactor reports a rebin factor that does not divide the bins.
	ErrRebinFactor = errors.New("histogram: invalid rebin factor")
)

// H1 is a histogram with n equal bins over [min, max). Bin 0 holds the
// underflow and bin n+1 the overflow. Every bin tracks the sum of squared
// weights so errors survive rebinning.
type H1 struct {
	name     string
	min      float64
	max      float64
	contents []float64
	sumw2    []float64
}

// New returns an empty histogram.
func New(name string, bins int, min, max float64) (*H1, error) {
	if bins <= 0 || !(max > min) {
		return nil, fmt.Errorf("%w: %d bins over [%g, %g)", ErrInvalidBinning, bins, min, max)
	}
	return &H1{
		name:     name,
		min:      min,
		max:      max,
		contents: make([]float64, bins+2),
		sumw2:    make([]float64, bins+2),
	}, nil
}

// Name implements fitty.DataSource.
func (h *H1) Name() string { return h.name }

// SetName renames the histogram.
func (h *H1) SetName(name string) { h.name = name }

// Bins returns the number of regular bins.
func (h *H1) Bins() int { return len(h.contents) - 2 }

// Min returns the lower axis edge.
func (h *H1) Min() float64 { return h.min }

// Max returns the upper axis edge.
func (h *H1) Max() float64 { return h.max }

// BinWidth returns the width of every regular bin.
func (h *H1) BinWidth() float64 { return (h.max - h.min) / float64(h.Bins()) }

// BinLowEdge returns the lower edge of bin i.
func (h *H1) BinLowEdge(i int) float64 { return h.min + float64(i-1)*h.BinWidth() }

// BinCenter returns the center of bin i.
func (h *H1) BinCenter(i int) float64 { return h.BinLowEdge(i) + h.BinWidth()/2 }

// FindBin returns the bin holding x, 0 below the axis and n+1 above it.
func (h *H1) FindBin(x float64) int {
	n := h.Bins()
	switch {
	case math.IsNaN(x):
		return n + 1
	case x < h.min:
		return 0
	case x >= h.max:
		return n + 1
	}
	bin := 1 + int((x-h.min)/h.BinWidth())
	if bin > n {
		bin = n
	}
	return bin
}

// Fill adds one unit-weight entry at x.
func (h *H1) Fill(x float64) { h.FillWeight(x, 1) }

// FillWeight adds an entry of weight w at x.
func (h *H1) FillWeight(x, w float64) {
	bin := h.FindBin(x)
	h.contents[bin] += w
	h.sumw2[bin] += w * w
}

// BinContent returns the content of bin i, or 0 outside [0, n+1].
func (h *H1) BinContent(i int) float64 {
	if i < 0 || i >= len(h.contents) {
		return 0
	}
	return h.contents[i]
}

// SetBinContent sets the content of bin i and resets its error to the
// Poisson estimate sqrt(|v|).
func (h *H1) SetBinContent(i int, v float64) {
	if i < 0 || i >= len(h.contents) {
		return
	}
	h.contents[i] = v
	h.sumw2[i] = math.Abs(v)
}

// BinError returns the error of bin i.
func (h *H1) BinError(i int) float64 {
	if i < 0 || i >= len(h.sumw2) {
		return 0
	}
	return math.Sqrt(h.sumw2[i])
}

// SetBinError overrides the error of bin i.
func (h *H1) SetBinError(i int, e float64) {
	if i < 0 || i >= len(h.sumw2) {
		return
	}
	h.sumw2[i] = e * e
}

// Integral sums the contents of bins first through last inclusive. The
// range is clamped to [0, n+1].
func (h *H1) Integral(first, last int) float64 {
	first = max(first, 0)
	last = min(last, len(h.contents)-1)
	sum := 0.0
	for i := first; i <= last; i++ {
		sum += h.contents[i]
	}
	return sum
}

// Rebin merges every factor adjacent bins into one. factor must divide the
// number of bins. Underflow and overflow are kept.
func (h *H1) Rebin(factor int) error {
	n := h.Bins()
	if factor <= 0 || n%factor != 0 {
		return fmt.Errorf("%w: %d for %d bins", ErrRebinFactor, factor, n)
	}
	if factor == 1 {
		return nil
	}
	merged := n / factor
	contents := make([]float64, merged+2)
	sumw2 := make([]float64, merged+2)
	contents[0], sumw2[0] = h.contents[0], h.sumw2[0]
	contents[merged+1], sumw2[merged+1] = h.contents[n+1], h.sumw2[n+1]
	for i := 1; i <= n; i++ {
		target := 1 + (i-1)/factor
		contents[target] += h.contents[i]
		sumw2[target] += h.sumw2[i]
	}
	h.contents, h.sumw2 = contents, sumw2
	return nil
}

// Samples returns centers, contents and errors of the non-empty regular
// bins between the bins holding lo and hi.
func (h *H1) Samples(lo, hi float64) (xs, ys, errs []float64) {
	first := max(h.FindBin(lo), 1)
	last := min(h.FindBin(hi), h.Bins())
	for i := first; i <= last; i++ {
		if h.contents[i] == 0 && h.sumw2[i] == 0 {
			continue
		}
		xs = append(xs, h.BinCenter(i))
		ys = append(ys, h.contents[i])
		errs = append(errs, h.BinError(i))
	}
	return xs, ys, errs
}

// Clone returns a deep copy named name.
func (h *H1) Clone(name string) *H1 {
	return &H1{
		name:     name,
		min:      h.min,
		max:      h.max,
		contents: append([]float64(nil), h.contents...),
		sumw2:    append([]float64(nil), h.sumw2...),
	}
}

// Contents returns a copy of all bin contents including underflow and
// overflow.
func (h *H1) Contents() []float64 { return append([]float64(nil), h.contents...) }

// SumW2 returns a copy of the squared-weight sums including underflow and
// overflow.
func (h *H1) SumW2() []float64 { return append([]float64(nil), h.sumw2...) }

// FromBins builds a histogram from full content and squared-weight slices
// (underflow and overflow included), as written by Contents and SumW2.
func FromBins(name string, min, max float64, contents, sumw2 []float64) (*H1, error) {
	if len(contents) < 3 || len(contents) != len(sumw2) {
		return nil, fmt.Errorf("%w: %d contents and %d errors", ErrInvalidBinning, len(contents), len(sumw2))
	}
	h, err := New(name, len(contents)-2, min, max)
	if err != nil {
		return nil, err
	}
	copy(h.contents, contents)
	copy(h.sumw2, sumw2)
	return h, nil
}
