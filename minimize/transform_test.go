package minimize

import (
	"math"
	"testing"

	fitty "github.com/goliatone/go-fitty"
	"github.com/stretchr/testify/require"
)

func TestParamSpaceRoundTrip(t *testing.T) {
	params := []fitty.Param{
		fitty.NewParam(1, fitty.FitFree),
		fitty.NewParam(2, fitty.FitFixed),
		fitty.NewLimitedParam(0.25, 0, 1, fitty.FitFree),
	}
	space := newParamSpace(params)
	require.Equal(t, 2, space.free())

	start := []float64{1, 2, 0.25}
	back := space.external(space.internal(start), start)
	require.InDelta(t, 1, back[0], 1e-12)
	require.Equal(t, 2.0, back[1])
	require.InDelta(t, 0.25, back[2], 1e-12)
}

func TestParamSpaceKeepsBoundedValuesInside(t *testing.T) {
	space := newParamSpace([]fitty.Param{fitty.NewLimitedParam(0, -1, 1, fitty.FitFree)})
	for _, u := range []float64{-100, -1, 0, 3, math.Pi, 1e6} {
		v := space.external([]float64{u}, []float64{0})[0]
		require.GreaterOrEqual(t, v, -1.0)
		require.LessOrEqual(t, v, 1.0)
	}
	require.Equal(t, []float64{1}, space.place([]float64{5}, []float64{0}))
}
