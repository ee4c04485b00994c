package fitty

import (
	"context"

	"github.com/goliatone/go-fitty/formula"
)

// DataSource is the binned data a fit entry is matched to and fitted
// against. Bin numbering follows the usual convention: 0 is underflow and
// n+1 is overflow.
type DataSource interface {
	Name() string
	FindBin(x float64) int
	Integral(first, last int) float64
	Rebin(factor int) error
}

// Problem is one minimization request: the composed function of an entry
// evaluated against data within [Min, Max].
type Problem struct {
	Name     string
	Function formula.Func
	Data     DataSource
	Min      float64
	Max      float64
	Params   []Param
}

// Values returns the starting values of the problem parameters.
func (p Problem) Values() []float64 {
	out := make([]float64, len(p.Params))
	for i, param := range p.Params {
		out[i] = param.Value
	}
	return out
}

// Solution is what a minimizer reports back. Errors may be shorter than
// Values when the minimizer does not estimate them.
type Solution struct {
	Values    []float64
	Errors    []float64
	ChiSquare float64
}

// Minimizer computes the goodness of fit and performs the fit. The options
// string is passed through untouched.
type Minimizer interface {
	ChiSquare(ctx context.Context, problem Problem) (float64, error)
	Minimize(ctx context.Context, problem Problem, options string) (Solution, error)
}
