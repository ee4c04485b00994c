package formula

import (
	"errors"
	"fmt"
)

var (
	// ErrEngineUnavailable is returned for engines compiled out of the binary.
	ErrEngineUnavailable = errors.New("formula: engine not available")
	// ErrUnknownEngine is returned by NewEngine for unrecognised names.
	ErrUnknownEngine = errors.New("formula: unknown engine")
)

// ParseError locates a syntax error inside a formula.
type ParseError struct {
	Source   string
	Position int
	Reason   string
}

func (e *ParseError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("formula: parse %q at offset %d: %s", e.Source, e.Position, e.Reason)
}

// EngineError captures engine metadata alongside a compile or evaluation
// failure.
type EngineError struct {
	Engine string
	Op     string
	Expr   string
	Err    error
}

func (e *EngineError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("formula: %s %s %s: %v", e.Engine, e.Op, describeExpression(e.Expr), e.Err)
}

func (e *EngineError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func wrapEngineError(engine, op, expr string, err error) error {
	if err == nil {
		return nil
	}

	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		if engineErr.Engine == "" {
			engineErr.Engine = engine
		}
		if engineErr.Op == "" {
			engineErr.Op = op
		}
		if engineErr.Expr == "" {
			engineErr.Expr = expr
		}
		return engineErr
	}

	return &EngineError{
		Engine: engine,
		Op:     op,
		Expr:   expr,
		Err:    err,
	}
}
