package minimize

import (
	"math"

	fitty "github.com/goliatone/go-fitty"
)

// paramSpace maps between the full external parameter vector and the
// internal vector of free parameters seen by the optimizer.
type paramSpace struct {
	params    []fitty.Param
	freeIndex []int
}

func newParamSpace(params []fitty.Param) paramSpace {
	space := paramSpace{params: params}
	for i, p := range params {
		if !p.Fixed() {
			space.freeIndex = append(space.freeIndex, i)
		}
	}
	return space
}

func (s paramSpace) free() int { return len(s.freeIndex) }

func (s paramSpace) bounded(i int) bool {
	p := s.params[i]
	return p.HasLimits && p.Max > p.Min
}

// internal converts external values of the free parameters.
func (s paramSpace) internal(values []float64) []float64 {
	out := make([]float64, len(s.freeIndex))
	for k, i := range s.freeIndex {
		v := values[i]
		if s.bounded(i) {
			p := s.params[i]
			v = math.Min(math.Max(v, p.Min), p.Max)
			v = math.Asin(2*(v-p.Min)/(p.Max-p.Min) - 1)
		}
		out[k] = v
	}
	return out
}

// external expands internal values into a full vector, keeping fixed
// parameters at base.
func (s paramSpace) external(u, base []float64) []float64 {
	out := append([]float64(nil), base...)
	for k, i := range s.freeIndex {
		v := u[k]
		if s.bounded(i) {
			p := s.params[i]
			v = p.Min + (p.Max-p.Min)*(math.Sin(v)+1)/2
		}
		out[i] = v
	}
	return out
}

// pick returns the free entries of a full vector.
func (s paramSpace) pick(values []float64) []float64 {
	out := make([]float64, len(s.freeIndex))
	for k, i := range s.freeIndex {
		out[k] = values[i]
	}
	return out
}

// place writes free entries into a copy of base, clamped to their limits.
func (s paramSpace) place(free, base []float64) []float64 {
	out := append([]float64(nil), base...)
	for k, i := range s.freeIndex {
		v := free[k]
		if s.bounded(i) {
			p := s.params[i]
			v = math.Min(math.Max(v, p.Min), p.Max)
		}
		out[i] = v
	}
	return out
}
