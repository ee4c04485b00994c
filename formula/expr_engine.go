package formula

import (
	"reflect"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// ExprEngineOption configures an expr engine instance.
type ExprEngineOption func(*exprEngine)

// ExprWithProgramCache wires a ProgramCache into the expr engine.
func ExprWithProgramCache(cache ProgramCache) ExprEngineOption {
	return func(e *exprEngine) {
		e.cache = cache
	}
}

// ExprWithFunctionRegistry wires a FunctionRegistry into the expr engine.
func ExprWithFunctionRegistry(registry *FunctionRegistry) ExprEngineOption {
	return func(e *exprEngine) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

type exprEnv struct {
	X float64   `expr:"x"`
	P []float64 `expr:"p"`
}

// exprEngine compiles formulas with github.com/expr-lang/expr.
type exprEngine struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewExprEngine constructs an Engine backed by expr-lang/expr.
func NewExprEngine(opts ...ExprEngineOption) Engine {
	e := &exprEngine{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	e.registry = registryOrDefault(e.registry)
	return e
}

func (e *exprEngine) Name() string { return EngineExpr }

func (e *exprEngine) Compile(f *Formula) (Func, error) {
	expression, err := prepare(EngineExpr, f, e.registry)
	if err != nil {
		return nil, err
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return &exprFunc{
		program:    program,
		expression: expression,
		params:     f.ParamCount,
	}, nil
}

func (e *exprEngine) loadOrCompile(expression string) (*exprvm.Program, error) {
	key := cacheKey(EngineExpr, e.registry, expression)
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			if program, ok := cached.(*exprvm.Program); ok {
				return program, nil
			}
		}
	}
	options := []exprlang.Option{
		exprlang.Env(exprEnv{}),
		exprlang.AsFloat64(),
	}
	for _, name := range e.registry.Names() {
		arity, _ := e.registry.Arity(name)
		options = append(options, exprlang.Function(name, e.registryFunction(name), signature(arity)))
	}
	program, err := exprlang.Compile(expression, options...)
	if err != nil {
		return nil, wrapEngineError(EngineExpr, "compile", expression, err)
	}
	if e.cache != nil {
		e.cache.Set(key, program)
	}
	return program, nil
}

func (e *exprEngine) registryFunction(name string) func(...any) (any, error) {
	return func(arguments ...any) (any, error) {
		args := make([]float64, len(arguments))
		for i, arg := range arguments {
			v, err := toFloat(arg)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		return e.registry.Call(name, args...)
	}
}

// signature returns a *func(float64, ...) float64 of the given arity so the
// expr checker can type calls.
func signature(arity int) any {
	float := reflect.TypeOf(float64(0))
	in := make([]reflect.Type, arity)
	for i := range in {
		in[i] = float
	}
	return reflect.New(reflect.FuncOf(in, []reflect.Type{float}, false)).Interface()
}

type exprFunc struct {
	program    *exprvm.Program
	expression string
	params     int
}

func (f *exprFunc) Eval(x float64, params []float64) (float64, error) {
	if err := checkParams(EngineExpr, f.expression, f.params, params); err != nil {
		return 0, err
	}
	out, err := exprlang.Run(f.program, exprEnv{X: x, P: params})
	if err != nil {
		return 0, wrapEngineError(EngineExpr, "eval", f.expression, err)
	}
	v, err := toFloat(out)
	if err != nil {
		return 0, wrapEngineError(EngineExpr, "eval", f.expression, err)
	}
	return v, nil
}
