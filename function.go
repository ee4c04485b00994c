package fitty

import (
	"fmt"
	"io"

	"github.com/goliatone/go-fitty/formula"
)

// FunctionComponent is one formula of a fit entry. Its parameters address
// the entry's global parameter vector, so Values and Errors hold the first
// ParamCount() slots of the last committed fit.
type FunctionComponent struct {
	Formula   *formula.Formula
	Func      formula.Func
	Name      string
	Values    []float64
	Errors    []float64
	ChiSquare float64
}

func newFunctionComponent(engine formula.Engine, source string) (*FunctionComponent, error) {
	f, fn, err := formula.Compile(engine, source)
	if err != nil {
		return nil, err
	}
	return &FunctionComponent{
		Formula: f,
		Func:    fn,
		Values:  make([]float64, f.ParamCount),
		Errors:  make([]float64, f.ParamCount),
	}, nil
}

// Source returns the formula text as written in the parameter file.
func (c *FunctionComponent) Source() string {
	if c == nil || c.Formula == nil {
		return ""
	}
	return c.Formula.Source
}

// ParamCount is the number of global parameter slots the formula uses.
func (c *FunctionComponent) ParamCount() int {
	if c == nil || c.Formula == nil {
		return 0
	}
	return c.Formula.ParamCount
}

// Eval evaluates the component at x with the global parameter vector.
func (c *FunctionComponent) Eval(x float64, params []float64) (float64, error) {
	return c.Func.Eval(x, params)
}

func (c *FunctionComponent) clone() *FunctionComponent {
	out := *c
	out.Values = append([]float64(nil), c.Values...)
	out.Errors = append([]float64(nil), c.Errors...)
	return &out
}

func (c *FunctionComponent) commit(values, errs []float64, chi2 float64) {
	n := c.ParamCount()
	c.Values = append(c.Values[:0], values[:n]...)
	c.Errors = c.Errors[:0]
	for i := 0; i < n; i++ {
		if i < len(errs) {
			c.Errors = append(c.Errors, errs[i])
		} else {
			c.Errors = append(c.Errors, 0)
		}
	}
	c.ChiSquare = chi2
}

func (c *FunctionComponent) print(w io.Writer, detailed bool) {
	fmt.Fprintf(w, "  Function: %s    params: %d\n", c.Source(), c.ParamCount())
	if !detailed {
		return
	}
	for i := 0; i < c.ParamCount(); i++ {
		value, err := 0.0, 0.0
		if i < len(c.Values) {
			value = c.Values[i]
		}
		if i < len(c.Errors) {
			err = c.Errors[i]
		}
		fmt.Fprintf(w, "    %-10s %g +/- %g\n", c.Formula.ParamName(i), value, err)
	}
}

// composedFunc sums the components over the shared parameter vector.
type composedFunc []*FunctionComponent

func (fs composedFunc) Eval(x float64, params []float64) (float64, error) {
	sum := 0.0
	for _, c := range fs {
		v, err := c.Eval(x, params)
		if err != nil {
			return 0, err
		}
		sum += v
	}
	return sum, nil
}
