package minimize

import (
	"context"
	"errors"
	"math"
	"testing"

	fitty "github.com/goliatone/go-fitty"
	"github.com/goliatone/go-fitty/histogram"
	"github.com/stretchr/testify/require"
)

func linearHistogram(t *testing.T, name string) *histogram.H1 {
	t.Helper()
	h, err := histogram.New(name, 20, 0, 10)
	require.NoError(t, err)
	for i := 1; i <= h.Bins(); i++ {
		h.SetBinContent(i, 3+2*h.BinCenter(i))
	}
	return h
}

func gaussHistogram(t *testing.T, name string) *histogram.H1 {
	t.Helper()
	h, err := histogram.New(name, 50, 0, 10)
	require.NoError(t, err)
	for i := 1; i <= h.Bins(); i++ {
		z := (h.BinCenter(i) - 5) / 0.8
		h.SetBinContent(i, 100*math.Exp(-0.5*z*z)+1)
	}
	return h
}

func newFitter(t *testing.T) *fitty.Fitter {
	t.Helper()
	f, err := fitty.New(fitty.WithMinimizer(NewSimplex()))
	require.NoError(t, err)
	return f
}

func TestSimplexFitsLine(t *testing.T) {
	f := newFitter(t)
	entry, err := f.NewEntry("line", 0, 10, []string{"[0]", "[1]*x"})
	require.NoError(t, err)
	require.NoError(t, entry.SetParam(0, fitty.NewParam(1, fitty.FitFree)))
	require.NoError(t, entry.SetParam(1, fitty.NewParam(1, fitty.FitFree)))
	f.Insert("line", entry)

	result := f.Fit(context.Background(), linearHistogram(t, "line"), "Q")
	require.True(t, result.OK(), "status %s err %v", result.Status, result.Err)
	require.Less(t, result.PostChiSquare, result.PreChiSquare)

	values := entry.Values()
	require.InDelta(t, 3, values[0], 1e-2)
	require.InDelta(t, 2, values[1], 1e-2)

	component, err := entry.Function(1)
	require.NoError(t, err)
	require.Len(t, component.Errors, 2)
	require.Greater(t, component.Errors[1], 0.0)
}

func TestSimplexKeepsFixedParameters(t *testing.T) {
	f := newFitter(t)
	entry, err := f.NewEntry("line", 0, 10, []string{"[0]+[1]*x"})
	require.NoError(t, err)
	require.NoError(t, entry.SetParam(0, fitty.NewParam(3, fitty.FitFixed)))
	require.NoError(t, entry.SetParam(1, fitty.NewParam(0.5, fitty.FitFree)))

	result := f.FitWith(context.Background(), entry, linearHistogram(t, "line"), "")
	require.True(t, result.OK(), "status %s err %v", result.Status, result.Err)
	require.Equal(t, 3.0, entry.Values()[0])
	require.InDelta(t, 2, entry.Values()[1], 1e-3)
}

func TestSimplexRespectsLimits(t *testing.T) {
	f := newFitter(t)
	entry, err := f.NewEntry("gauss", 0, 10, []string{"gaus(0)", "[3]"})
	require.NoError(t, err)
	require.NoError(t, entry.SetParam(0, fitty.NewParam(80, fitty.FitFree)))
	require.NoError(t, entry.SetParam(1, fitty.NewLimitedParam(4.5, 3, 7, fitty.FitFree)))
	require.NoError(t, entry.SetParam(2, fitty.NewLimitedParam(1.2, 0.1, 3, fitty.FitFree)))
	require.NoError(t, entry.SetParam(3, fitty.NewParam(1, fitty.FitFixed)))

	result := f.FitWith(context.Background(), entry, gaussHistogram(t, "gauss"), "N")
	require.True(t, result.OK(), "status %s err %v", result.Status, result.Err)

	mean, err := entry.ParamByName("Mean")
	require.NoError(t, err)
	require.InDelta(t, 5, mean.Value, 1e-2)
	require.True(t, mean.HasLimits)
	sigma, err := entry.ParamByName("Sigma")
	require.NoError(t, err)
	require.InDelta(t, 0.8, sigma.Value, 1e-2)

	component, err := entry.Function(0)
	require.NoError(t, err)
	require.Equal(t, []float64{0, 0, 0}, component.Errors)
}

func TestSimplexStartingAtMinimumCommitsUnchanged(t *testing.T) {
	f := newFitter(t)
	entry, err := f.NewEntry("flat", 0, 10, []string{"[0]"})
	require.NoError(t, err)

	h, err := histogram.New("flat", 10, 0, 10)
	require.NoError(t, err)
	for i := 1; i <= h.Bins(); i++ {
		h.SetBinContent(i, 25)
	}
	require.NoError(t, entry.SetParam(0, fitty.NewParam(25, fitty.FitFree)))

	result := f.FitWith(context.Background(), entry, h, "Q")
	require.True(t, result.OK(), "status %s err %v", result.Status, result.Err)
	require.InDelta(t, 0, result.PreChiSquare, 1e-12)
	require.InDelta(t, 25, entry.Values()[0], 1e-6)
}

func TestSimplexRequiresSampler(t *testing.T) {
	s := NewSimplex()
	_, err := s.ChiSquare(context.Background(), fitty.Problem{Data: plainData{}})
	require.ErrorIs(t, err, ErrNoSamples)

	h, err := histogram.New("empty", 10, 0, 10)
	require.NoError(t, err)
	_, err = s.Minimize(context.Background(), fitty.Problem{Data: h, Min: 0, Max: 10}, "")
	require.True(t, errors.Is(err, ErrEmptyRange), "got %v", err)
}

func TestSimplexHonoursCanceledContext(t *testing.T) {
	f := newFitter(t)
	entry, err := f.NewEntry("line", 0, 10, []string{"[0]+[1]*x"})
	require.NoError(t, err)
	s := NewSimplex()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	problem := fitty.Problem{Name: "line", Function: entry.Composed(), Data: linearHistogram(t, "line"), Min: 0, Max: 10, Params: entry.Params()}
	_, err = s.Minimize(ctx, problem, "")
	require.ErrorIs(t, err, context.Canceled)
}

func TestParseOptions(t *testing.T) {
	opts := parseOptions("qn")
	require.True(t, opts.quiet)
	require.True(t, opts.noErrors)
	require.False(t, opts.verbose)
}

type plainData struct{}

func (plainData) Name() string              { return "plain" }
func (plainData) FindBin(float64) int       { return 1 }
func (plainData) Integral(int, int) float64 { return 1 }
func (plainData) Rebin(int) error           { return nil }
