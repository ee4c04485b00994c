package formula

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// Function is a numeric function callable from formulas.
type Function func(args ...float64) (float64, error)

type registeredFunction struct {
	arity int
	fn    Function
}

// FunctionRegistry stores formula functions keyed by lower case name.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]registeredFunction
	// id changes on every Register and is shared by clones, so two
	// registries with the same id hold the same functions.
	id uint64
}

var registryIDs atomic.Uint64

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{
		functions: make(map[string]registeredFunction),
		id:        registryIDs.Add(1),
	}
}

var defaultRegistry = sync.OnceValue(buildDefaultRegistry)

// DefaultRegistry returns a registry with the math functions formulas may
// call. The builtin shapes gaus, gausn and expo expand to exp calls, so
// custom registries should start from a clone of this one.
func DefaultRegistry() *FunctionRegistry {
	return defaultRegistry().Clone()
}

func buildDefaultRegistry() *FunctionRegistry {
	r := NewFunctionRegistry()
	unary := map[string]func(float64) float64{
		"exp":   math.Exp,
		"log":   math.Log,
		"log10": math.Log10,
		"sqrt":  math.Sqrt,
		"sin":   math.Sin,
		"cos":   math.Cos,
		"tan":   math.Tan,
		"atan":  math.Atan,
		"sinh":  math.Sinh,
		"cosh":  math.Cosh,
		"tanh":  math.Tanh,
		"abs":   math.Abs,
		"erf":   math.Erf,
		"erfc":  math.Erfc,
	}
	for name, fn := range unary {
		_ = r.Register(name, 1, func(args ...float64) (float64, error) {
			return fn(args[0]), nil
		})
	}
	_ = r.Register("pow", 2, func(args ...float64) (float64, error) {
		return math.Pow(args[0], args[1]), nil
	})
	_ = r.Register("atan2", 2, func(args ...float64) (float64, error) {
		return math.Atan2(args[0], args[1]), nil
	})
	return r
}

// Register stores fn under name guarding against duplicates.
func (r *FunctionRegistry) Register(name string, arity int, fn Function) error {
	if fn == nil {
		return fmt.Errorf("formula: function %q is nil", name)
	}
	if name == "" {
		return fmt.Errorf("formula: function name must not be empty")
	}
	if arity < 0 {
		return fmt.Errorf("formula: function %q has negative arity", name)
	}
	key := strings.ToLower(name)
	if _, ok := lookupBuiltin(key); ok || key == "x" || key == "pi" {
		return fmt.Errorf("formula: function name %q is reserved", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = make(map[string]registeredFunction)
	}
	if _, exists := r.functions[key]; exists {
		return fmt.Errorf("formula: function %q already registered", name)
	}
	r.functions[key] = registeredFunction{arity: arity, fn: fn}
	r.id = registryIDs.Add(1)
	return nil
}

// Clone returns a shallow copy of the registry.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &FunctionRegistry{
		functions: make(map[string]registeredFunction, len(r.functions)),
		id:        r.id,
	}
	for name, fn := range r.functions {
		clone.functions[name] = fn
	}
	return clone
}

func (r *FunctionRegistry) identity() uint64 {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.id
}

// Call executes the function registered for name.
func (r *FunctionRegistry) Call(name string, args ...float64) (float64, error) {
	if r == nil {
		return 0, fmt.Errorf("formula: function registry is nil")
	}
	r.mu.RLock()
	entry, ok := r.functions[strings.ToLower(name)]
	r.mu.RUnlock()
	if !ok {
		return 0, fmt.Errorf("formula: function %q not registered", name)
	}
	if len(args) != entry.arity {
		return 0, fmt.Errorf("formula: function %q takes %d argument(s), got %d", name, entry.arity, len(args))
	}
	return entry.fn(args...)
}

// Arity reports the argument count of name.
func (r *FunctionRegistry) Arity(name string) (int, bool) {
	if r == nil {
		return 0, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.functions[strings.ToLower(name)]
	return entry.arity, ok
}

// Names returns registered function names sorted alphabetically.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
