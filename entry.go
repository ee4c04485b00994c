package fitty

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/goliatone/go-fitty/formula"
)

// FitEntry is one named fit configuration: formulas, range, rebin factor
// and the parameter vector of the composed function.
type FitEntry struct {
	Name     string
	Min      float64
	Max      float64
	Rebin    int
	Disabled bool

	// FunctionName is the decorated name of the composed function, set by
	// the fitter before each attempt.
	FunctionName string
	// ChiSquare of the composed function after the last attempt.
	ChiSquare float64

	components []*FunctionComponent
	params     []Param
	backups    [][]float64
}

// NewFitEntry compiles formulas with engine and returns an entry whose
// parameters are zero valued and free. A nil engine uses expr. Names may
// not start with the disabled marker.
func NewFitEntry(name string, min, max float64, formulas []string, engine formula.Engine) (*FitEntry, error) {
	if strings.HasPrefix(name, disabledMarker) {
		return nil, fmt.Errorf("fitty: entry name %q starts with the disabled marker %q", name, disabledMarker)
	}
	if len(formulas) == 0 {
		return nil, errors.New("fitty: fit entry needs at least one formula")
	}
	if engine == nil {
		engine = formula.NewExprEngine()
	}
	e := &FitEntry{Name: name, Min: min, Max: max}
	for _, source := range formulas {
		if _, err := e.addFunction(engine, source); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// AddFunction appends a formula and grows the parameter vector when the
// composed count increases.
func (e *FitEntry) AddFunction(engine formula.Engine, source string) (int, error) {
	if engine == nil {
		engine = formula.NewExprEngine()
	}
	return e.addFunction(engine, source)
}

func (e *FitEntry) addFunction(engine formula.Engine, source string) (int, error) {
	c, err := newFunctionComponent(engine, source)
	if err != nil {
		return -1, err
	}
	e.components = append(e.components, c)
	if n := c.ParamCount(); n > len(e.params) {
		e.params = append(e.params, make([]Param, n-len(e.params))...)
	}
	return len(e.components) - 1, nil
}

// ParamCount is the parameter count of the composed function: the largest
// count among the components.
func (e *FitEntry) ParamCount() int { return len(e.params) }

// FunctionCount returns the number of components.
func (e *FitEntry) FunctionCount() int { return len(e.components) }

// Function returns component i.
func (e *FitEntry) Function(i int) (*FunctionComponent, error) {
	if i < 0 || i >= len(e.components) {
		return nil, &IndexError{Index: i, Count: len(e.components)}
	}
	return e.components[i], nil
}

// Functions returns the components in declaration order.
func (e *FitEntry) Functions() []*FunctionComponent {
	return append([]*FunctionComponent(nil), e.components...)
}

// Formulas returns the component sources in declaration order.
func (e *FitEntry) Formulas() []string {
	out := make([]string, len(e.components))
	for i, c := range e.components {
		out[i] = c.Source()
	}
	return out
}

// Composed returns the sum of all components as one function.
func (e *FitEntry) Composed() formula.Func {
	return composedFunc(e.components)
}

// Eval evaluates the composed function at x with the current values.
func (e *FitEntry) Eval(x float64) (float64, error) {
	return e.Composed().Eval(x, e.Values())
}

// Param returns parameter i.
func (e *FitEntry) Param(i int) (Param, error) {
	if i < 0 || i >= len(e.params) {
		return Param{}, &IndexError{Index: i, Count: len(e.params)}
	}
	return e.params[i], nil
}

// Params returns a copy of the parameter vector.
func (e *FitEntry) Params() []Param {
	return append([]Param(nil), e.params...)
}

// SetParam replaces parameter i.
func (e *FitEntry) SetParam(i int, p Param) error {
	if i < 0 || i >= len(e.params) {
		return &IndexError{Index: i, Count: len(e.params)}
	}
	e.params[i] = p
	return nil
}

// UpdateParam changes only the value of parameter i.
func (e *FitEntry) UpdateParam(i int, value float64) error {
	if i < 0 || i >= len(e.params) {
		return &IndexError{Index: i, Count: len(e.params)}
	}
	e.params[i].Value = value
	return nil
}

// ParamIndex resolves a parameter name such as "Mean" through the
// components in order.
func (e *FitEntry) ParamIndex(name string) (int, error) {
	for _, c := range e.components {
		if idx := c.Formula.ParamIndex(name); idx >= 0 {
			return idx, nil
		}
	}
	return -1, &IndexError{Index: -1, Name: name, Count: len(e.params)}
}

// ParamByName returns the parameter called name.
func (e *FitEntry) ParamByName(name string) (Param, error) {
	idx, err := e.ParamIndex(name)
	if err != nil {
		return Param{}, err
	}
	return e.Param(idx)
}

// SetParamByName replaces the parameter called name.
func (e *FitEntry) SetParamByName(name string, p Param) error {
	idx, err := e.ParamIndex(name)
	if err != nil {
		return err
	}
	return e.SetParam(idx, p)
}

// Values returns the current parameter values.
func (e *FitEntry) Values() []float64 {
	out := make([]float64, len(e.params))
	for i, p := range e.params {
		out[i] = p.Value
	}
	return out
}

func (e *FitEntry) setValues(values []float64) {
	for i := range e.params {
		if i < len(values) {
			e.params[i].Value = values[i]
		}
	}
}

// IsValid reports whether the fit range is non-empty.
func (e *FitEntry) IsValid() bool { return e.Max > e.Min }

// Backup pushes a snapshot of the parameter values.
func (e *FitEntry) Backup() {
	e.backups = append(e.backups, e.Values())
}

// Restore pops the latest snapshot back into the parameter values. It
// reports false and changes nothing when no snapshot is pending.
func (e *FitEntry) Restore() bool {
	n := len(e.backups)
	if n == 0 {
		return false
	}
	e.setValues(e.backups[n-1])
	e.backups = e.backups[:n-1]
	return true
}

// Drop discards the latest snapshot without restoring it.
func (e *FitEntry) Drop() {
	if n := len(e.backups); n > 0 {
		e.backups = e.backups[:n-1]
	}
}

// PendingBackups returns the depth of the snapshot stack.
func (e *FitEntry) PendingBackups() int { return len(e.backups) }

// Clone returns a deep copy named name with an empty snapshot stack.
func (e *FitEntry) Clone(name string) *FitEntry {
	out := &FitEntry{
		Name:     name,
		Min:      e.Min,
		Max:      e.Max,
		Rebin:    e.Rebin,
		Disabled: e.Disabled,
		params:   append([]Param(nil), e.params...),
	}
	for _, c := range e.components {
		out.components = append(out.components, c.clone())
	}
	return out
}

// Print writes a human readable summary of the entry.
func (e *FitEntry) Print(w io.Writer, detailed bool) {
	state := ""
	if e.Disabled {
		state = "DISABLED"
	}
	fmt.Fprintf(w, "## name: %s    rebin: %d   range: %g -- %g  param num: %d  %s\n",
		e.Name, e.Rebin, e.Min, e.Max, e.ParamCount(), state)
	for _, c := range e.components {
		c.print(w, detailed)
	}
	for i, p := range e.params {
		limits := ""
		if p.HasLimits {
			limits = fmt.Sprintf(" ( %g, %g )", p.Min, p.Max)
		}
		fmt.Fprintf(w, "   %d: %g%s %s\n", i, p.Value, limits, p.Mode)
	}
}
