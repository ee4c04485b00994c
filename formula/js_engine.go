//go:build js_eval

package formula

import (
	"fmt"

	"github.com/dop251/goja"
)

type jsEngine struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewJSEngine constructs an Engine backed by goja.
func NewJSEngine(opts ...JSEngineOption) Engine {
	cfg := applyJSEngineOptions(opts)
	return &jsEngine{
		cache:    cfg.cache,
		registry: cfg.registry,
	}
}

func (e *jsEngine) Name() string { return EngineJS }

// Compile returns a Func bound to its own goja runtime; it must not be
// shared across goroutines.
func (e *jsEngine) Compile(f *Formula) (Func, error) {
	expression, err := prepare(EngineJS, f, e.registry)
	if err != nil {
		return nil, err
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	vm := goja.New()
	e.injectFunctions(vm)
	value, err := vm.RunProgram(program)
	if err != nil {
		return nil, wrapEngineError(EngineJS, "compile", expression, err)
	}
	fn, ok := goja.AssertFunction(value)
	if !ok {
		return nil, wrapEngineError(EngineJS, "compile", expression, fmt.Errorf("wrapper is not callable"))
	}
	return &jsFunc{
		vm:         vm,
		fn:         fn,
		expression: expression,
		params:     f.ParamCount,
	}, nil
}

func (e *jsEngine) loadOrCompile(expression string) (*goja.Program, error) {
	key := cacheKey(EngineJS, e.registry, expression)
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			if program, ok := cached.(*goja.Program); ok {
				return program, nil
			}
		}
	}
	program, err := goja.Compile("", e.wrapExpression(expression), false)
	if err != nil {
		return nil, wrapEngineError(EngineJS, "compile", expression, err)
	}
	if e.cache != nil {
		e.cache.Set(key, program)
	}
	return program, nil
}

func (e *jsEngine) injectFunctions(vm *goja.Runtime) {
	for _, name := range e.registry.Names() {
		fn := name
		vm.Set(fn, func(call goja.FunctionCall) goja.Value {
			args := make([]float64, len(call.Arguments))
			for i, arg := range call.Arguments {
				args[i] = arg.ToFloat()
			}
			result, err := e.registry.Call(fn, args...)
			if err != nil {
				panic(vm.NewGoError(err))
			}
			return vm.ToValue(result)
		})
	}
}

func (e *jsEngine) wrapExpression(expression string) string {
	return fmt.Sprintf("(function(x, p){ return (%s); })", expression)
}

type jsFunc struct {
	vm         *goja.Runtime
	fn         goja.Callable
	expression string
	params     int
}

func (f *jsFunc) Eval(x float64, params []float64) (float64, error) {
	if err := checkParams(EngineJS, f.expression, f.params, params); err != nil {
		return 0, err
	}
	value, err := f.fn(goja.Undefined(), f.vm.ToValue(x), f.vm.ToValue(params))
	if err != nil {
		return 0, wrapEngineError(EngineJS, "eval", f.expression, err)
	}
	return value.ToFloat(), nil
}

func jsEngineAvailable() bool {
	return true
}
