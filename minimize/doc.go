// Package minimize provides a chi-square minimizer for fitty built on the
// gonum Nelder-Mead optimizer.
//
// Data must implement Sampler so the minimizer can read bin centers,
// contents and errors. Parameter limits are handled with the sine
// transform, so a bounded parameter never leaves its interval. Errors are
// taken from the inverse Hessian of the chi-square at the minimum.
//
// The options string understands these letters; anything else is ignored:
//
//	Q  quiet, no per-fit log line
//	V  verbose, log at info level instead of debug
//	N  skip the error estimate
package minimize
