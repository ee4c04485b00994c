package formula

import (
	"errors"
	"fmt"
	"strings"
)

// Engine names accepted by NewEngine.
const (
	EngineExpr = "expr"
	EngineCEL  = "cel"
	EngineJS   = "js"
)

// Engine compiles parsed formulas into callable functions.
type Engine interface {
	Name() string
	Compile(f *Formula) (Func, error)
}

// Func evaluates a compiled formula at x with the global parameter vector.
type Func interface {
	Eval(x float64, params []float64) (float64, error)
}

// FuncOf adapts a plain function to Func.
type FuncOf func(x float64, params []float64) (float64, error)

// Eval implements Func.
func (f FuncOf) Eval(x float64, params []float64) (float64, error) {
	return f(x, params)
}

// NewEngine builds the engine registered under name. An empty name selects
// expr. Nil cache or registry fall back to no cache and DefaultRegistry.
func NewEngine(name string, cache ProgramCache, registry *FunctionRegistry) (Engine, error) {
	switch strings.ToLower(name) {
	case "", EngineExpr:
		return NewExprEngine(ExprWithProgramCache(cache), ExprWithFunctionRegistry(registry)), nil
	case EngineCEL:
		return NewCELEngine(CELWithProgramCache(cache), CELWithFunctionRegistry(registry)), nil
	case EngineJS:
		engine := NewJSEngine(JSWithProgramCache(cache), JSWithFunctionRegistry(registry))
		if engine == nil {
			return nil, fmt.Errorf("%w: %s (build with -tags js_eval)", ErrEngineUnavailable, EngineJS)
		}
		return engine, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, name)
	}
}

// Engines lists the engine names compiled into the binary.
func Engines() []string {
	names := []string{EngineExpr, EngineCEL}
	if jsEngineAvailable() {
		names = append(names, EngineJS)
	}
	return names
}

// Compile parses source and compiles it with engine.
func Compile(engine Engine, source string) (*Formula, Func, error) {
	if engine == nil {
		return nil, nil, errors.New("formula: engine must not be nil")
	}
	f, err := Parse(source)
	if err != nil {
		return nil, nil, err
	}
	fn, err := engine.Compile(f)
	if err != nil {
		return nil, nil, err
	}
	return f, fn, nil
}

func registryOrDefault(registry *FunctionRegistry) *FunctionRegistry {
	if registry == nil {
		return DefaultRegistry()
	}
	return registry
}

// prepare validates f against registry and returns its rendered expression.
func prepare(engine string, f *Formula, registry *FunctionRegistry) (string, error) {
	if f == nil || f.Root == nil {
		return "", wrapEngineError(engine, "compile", "", errors.New("formula must not be empty"))
	}
	expression := f.Expression()
	if err := checkCalls(f, registry); err != nil {
		return "", wrapEngineError(engine, "compile", expression, err)
	}
	return expression, nil
}

func checkParams(engine, expression string, want int, params []float64) error {
	if len(params) < want {
		return wrapEngineError(engine, "eval", expression,
			fmt.Errorf("need %d parameter(s), got %d", want, len(params)))
	}
	return nil
}

func toFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("expected number, got %T", value)
	}
}
