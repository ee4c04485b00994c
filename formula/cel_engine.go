package formula

import (
	"fmt"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// CELEngineOption configures the CEL engine.
type CELEngineOption func(*celEngine)

// CELWithProgramCache wires a ProgramCache into the CEL engine.
func CELWithProgramCache(cache ProgramCache) CELEngineOption {
	return func(e *celEngine) {
		e.cache = cache
	}
}

// CELWithFunctionRegistry wires a FunctionRegistry into the CEL engine.
func CELWithFunctionRegistry(registry *FunctionRegistry) CELEngineOption {
	return func(e *celEngine) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

type celEngine struct {
	cache    ProgramCache
	registry *FunctionRegistry
	env      *celgo.Env
	envErr   error
}

// NewCELEngine constructs an Engine backed by cel-go.
func NewCELEngine(opts ...CELEngineOption) Engine {
	e := &celEngine{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	e.registry = registryOrDefault(e.registry)
	e.env, e.envErr = e.buildEnv()
	return e
}

func (e *celEngine) Name() string { return EngineCEL }

func (e *celEngine) Compile(f *Formula) (Func, error) {
	expression, err := prepare(EngineCEL, f, e.registry)
	if err != nil {
		return nil, err
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return &celFunc{
		program:    program,
		expression: expression,
		params:     f.ParamCount,
	}, nil
}

func (e *celEngine) loadOrCompile(expression string) (celgo.Program, error) {
	if e.envErr != nil {
		return nil, wrapEngineError(EngineCEL, "compile", expression, e.envErr)
	}
	key := cacheKey(EngineCEL, e.registry, expression)
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			if program, ok := cached.(celgo.Program); ok {
				return program, nil
			}
		}
	}
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, wrapEngineError(EngineCEL, "compile", expression, issues.Err())
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, wrapEngineError(EngineCEL, "compile", expression, err)
	}
	if e.cache != nil {
		e.cache.Set(key, prg)
	}
	return prg, nil
}

func (e *celEngine) buildEnv() (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("x", celgo.DoubleType),
		celgo.Variable("p", celgo.ListType(celgo.DoubleType)),
	}
	for _, name := range e.registry.Names() {
		arity, _ := e.registry.Arity(name)
		args := make([]*celgo.Type, arity)
		for i := range args {
			args[i] = celgo.DoubleType
		}
		overload := fmt.Sprintf("fitty_%s_%d", name, arity)
		opts = append(opts, celgo.Function(name,
			celgo.Overload(overload, args, celgo.DoubleType, e.binding(name, arity)),
		))
	}
	return celgo.NewEnv(opts...)
}

func (e *celEngine) binding(name string, arity int) celgo.OverloadOpt {
	call := func(values ...ref.Val) ref.Val {
		args := make([]float64, len(values))
		for i, val := range values {
			v, err := toFloat(val.Value())
			if err != nil {
				return types.NewErr("formula: %s: %v", name, err)
			}
			args[i] = v
		}
		result, err := e.registry.Call(name, args...)
		if err != nil {
			return types.NewErr("%v", err)
		}
		return types.Double(result)
	}
	switch arity {
	case 1:
		return celgo.UnaryBinding(func(value ref.Val) ref.Val { return call(value) })
	case 2:
		return celgo.BinaryBinding(func(lhs, rhs ref.Val) ref.Val { return call(lhs, rhs) })
	default:
		return celgo.FunctionBinding(call)
	}
}

type celFunc struct {
	program    celgo.Program
	expression string
	params     int
}

func (f *celFunc) Eval(x float64, params []float64) (float64, error) {
	if err := checkParams(EngineCEL, f.expression, f.params, params); err != nil {
		return 0, err
	}
	out, _, err := f.program.Eval(map[string]any{"x": x, "p": params})
	if err != nil {
		return 0, wrapEngineError(EngineCEL, "eval", f.expression, err)
	}
	v, err := toFloat(out.Value())
	if err != nil {
		return 0, wrapEngineError(EngineCEL, "eval", f.expression, err)
	}
	return v, nil
}
