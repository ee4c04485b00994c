package fitty

import (
	"fmt"
	"strconv"
)

// FitMode selects whether the minimizer may move a parameter.
type FitMode int

const (
	FitFree FitMode = iota
	FitFixed
)

func (m FitMode) String() string {
	switch m {
	case FitFree:
		return "free"
	case FitFixed:
		return "fixed"
	default:
		return fmt.Sprintf("FitMode(%d)", int(m))
	}
}

// Param holds the initial value, optional limits and fit mode of one
// parameter. Min and Max are meaningful only when HasLimits is set.
type Param struct {
	Value     float64
	Min       float64
	Max       float64
	Mode      FitMode
	HasLimits bool
}

// NewParam returns an unlimited parameter.
func NewParam(value float64, mode FitMode) Param {
	return Param{Value: value, Mode: mode}
}

// NewLimitedParam returns a parameter bounded to [min, max].
func NewLimitedParam(value, min, max float64, mode FitMode) Param {
	return Param{Value: value, Min: min, Max: max, Mode: mode, HasLimits: true}
}

// Fixed reports whether the minimizer must keep the value.
func (p Param) Fixed() bool { return p.Mode == FitFixed }

// Equal compares two parameters, ignoring limits that are not in use.
func (p Param) Equal(other Param) bool {
	if p.Value != other.Value || p.Mode != other.Mode || p.HasLimits != other.HasLimits {
		return false
	}
	if !p.HasLimits {
		return true
	}
	return p.Min == other.Min && p.Max == other.Max
}

// String renders the parameter group used by the line format:
// "v", "v f", "v : lo hi" or "v F lo hi".
func (p Param) String() string {
	value := formatFloat(p.Value)
	switch {
	case p.HasLimits && p.Mode == FitFixed:
		return value + " F " + formatFloat(p.Min) + " " + formatFloat(p.Max)
	case p.HasLimits:
		return value + " : " + formatFloat(p.Min) + " " + formatFloat(p.Max)
	case p.Mode == FitFixed:
		return value + " f"
	default:
		return value
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
