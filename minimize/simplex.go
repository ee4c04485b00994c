package minimize

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"

	fitty "github.com/goliatone/go-fitty"
	"github.com/goliatone/go-fitty/formula"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// Sampler exposes binned data in a fit range.
type Sampler interface {
	Samples(min, max float64) (xs, ys, errs []float64)
}

var (
	// ErrNoSamples reports data that does not implement Sampler.
	ErrNoSamples = errors.New("minimize: data does not provide samples")
	// ErrEmptyRange reports a fit range without non-empty bins.
	ErrEmptyRange = errors.New("minimize: no data points in range")
)

// Option configures a Simplex.
type Option func(*Simplex)

// WithLogger sets the logger used for per-fit reports.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Simplex) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxEvaluations bounds the chi-square evaluations of one fit.
func WithMaxEvaluations(n int) Option {
	return func(s *Simplex) {
		s.maxEvaluations = n
	}
}

// WithTolerance sets the absolute chi-square change treated as converged.
func WithTolerance(tol float64) Option {
	return func(s *Simplex) {
		s.tolerance = tol
	}
}

// Simplex implements fitty.Minimizer.
type Simplex struct {
	logger         *slog.Logger
	maxEvaluations int
	tolerance      float64
}

var _ fitty.Minimizer = (*Simplex)(nil)

// NewSimplex returns a minimizer with sensible defaults.
func NewSimplex(opts ...Option) *Simplex {
	s := &Simplex{
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxEvaluations: 20000,
		tolerance:      1e-9,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

type fitOptions struct {
	quiet    bool
	verbose  bool
	noErrors bool
}

func parseOptions(options string) fitOptions {
	upper := strings.ToUpper(options)
	return fitOptions{
		quiet:    strings.Contains(upper, "Q"),
		verbose:  strings.Contains(upper, "V"),
		noErrors: strings.Contains(upper, "N"),
	}
}

// ChiSquare returns the chi-square of the problem's starting values.
func (s *Simplex) ChiSquare(ctx context.Context, problem fitty.Problem) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	points, err := samplesOf(problem)
	if err != nil {
		return 0, err
	}
	return points.chiSquare(problem.Function, problem.Values()), nil
}

// Minimize fits the free parameters of problem.
func (s *Simplex) Minimize(ctx context.Context, problem fitty.Problem, options string) (fitty.Solution, error) {
	opts := parseOptions(options)
	points, err := samplesOf(problem)
	if err != nil {
		return fitty.Solution{}, err
	}

	start := problem.Values()
	space := newParamSpace(problem.Params)
	objective := func(u []float64) float64 {
		return points.chiSquare(problem.Function, space.external(u, start))
	}

	values := append([]float64(nil), start...)
	if space.free() > 0 {
		result, err := optimize.Minimize(
			optimize.Problem{Func: objective},
			space.internal(start),
			&optimize.Settings{
				FuncEvaluations: s.maxEvaluations,
				Converger: &optimize.FunctionConverge{
					Absolute:   s.tolerance,
					Iterations: 200,
				},
				Recorder: contextRecorder{ctx: ctx},
			},
			&optimize.NelderMead{},
		)
		if err != nil && result == nil {
			return fitty.Solution{}, fmt.Errorf("minimize %s: %w", problem.Name, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fitty.Solution{}, ctxErr
		}
		values = space.external(result.X, start)
	}

	chi2 := points.chiSquare(problem.Function, values)
	errs := make([]float64, len(values))
	if !opts.noErrors && space.free() > 0 {
		errs = s.estimateErrors(points, problem, space, values)
	}

	if !opts.quiet {
		level := slog.LevelDebug
		if opts.verbose {
			level = slog.LevelInfo
		}
		s.logger.Log(ctx, level, "simplex fit",
			"function", problem.Name,
			"points", len(points.xs),
			"free", space.free(),
			"chi2", chi2,
			"ndf", len(points.xs)-space.free(),
		)
	}
	return fitty.Solution{Values: values, Errors: errs, ChiSquare: chi2}, nil
}

// estimateErrors inverts the chi-square Hessian over the free parameters
// in external coordinates. Parameters whose error cannot be estimated get
// zero.
func (s *Simplex) estimateErrors(points samples, problem fitty.Problem, space paramSpace, values []float64) []float64 {
	errs := make([]float64, len(values))
	at := space.pick(values)
	f := func(x []float64) float64 {
		return points.chiSquare(problem.Function, space.place(x, values))
	}
	hess := mat.NewSymDense(len(at), nil)
	fd.Hessian(hess, f, at, nil)

	var chol mat.Cholesky
	if ok := chol.Factorize(hess); !ok {
		s.logger.Debug("hessian not positive definite", "function", problem.Name)
		return errs
	}
	var cov mat.SymDense
	if err := chol.InverseTo(&cov); err != nil {
		return errs
	}
	for i, idx := range space.freeIndex {
		v := 2 * cov.At(i, i)
		if v > 0 && !math.IsInf(v, 0) {
			errs[idx] = math.Sqrt(v)
		}
	}
	return errs
}

type samples struct {
	xs, ys, sigmas []float64
}

func samplesOf(problem fitty.Problem) (samples, error) {
	sampler, ok := problem.Data.(Sampler)
	if !ok {
		return samples{}, ErrNoSamples
	}
	xs, ys, errs := sampler.Samples(problem.Min, problem.Max)
	if len(xs) == 0 {
		return samples{}, fmt.Errorf("%w [%g, %g]", ErrEmptyRange, problem.Min, problem.Max)
	}
	sigmas := make([]float64, len(xs))
	for i := range xs {
		sigma := 0.0
		if i < len(errs) {
			sigma = errs[i]
		}
		if sigma <= 0 {
			sigma = math.Sqrt(math.Abs(ys[i]))
		}
		if sigma <= 0 {
			sigma = 1
		}
		sigmas[i] = sigma
	}
	return samples{xs: xs, ys: ys, sigmas: sigmas}, nil
}

// chiSquare is the Neyman chi-square. Evaluation errors count as +Inf so
// the optimizer backs away from them.
func (s samples) chiSquare(fn formula.Func, params []float64) float64 {
	sum := 0.0
	for i, x := range s.xs {
		y, err := fn.Eval(x, params)
		if err != nil || math.IsNaN(y) {
			return math.Inf(1)
		}
		r := (s.ys[i] - y) / s.sigmas[i]
		sum += r * r
	}
	return sum
}

type contextRecorder struct {
	ctx context.Context
}

func (r contextRecorder) Init() error { return r.ctx.Err() }

func (r contextRecorder) Record(*optimize.Location, optimize.Operation, *optimize.Stats) error {
	return r.ctx.Err()
}
