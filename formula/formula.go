package formula

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Formula is a parsed fit formula together with its parameter metadata.
type Formula struct {
	Source     string
	Root       Expression
	ParamCount int

	names map[int]string
}

// Parse parses source and derives the parameter count as the highest
// referenced index plus one.
func Parse(source string) (*Formula, error) {
	p := NewParser(NewLexer(source))
	root, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}
	count := 0
	Walk(root, func(node Expression) bool {
		if ref, ok := node.(*ParamRef); ok && ref.Index+1 > count {
			count = ref.Index + 1
		}
		return true
	})
	return &Formula{
		Source:     source,
		Root:       root,
		ParamCount: count,
		names:      p.names,
	}, nil
}

// MustParse is like Parse but panics on error.
func MustParse(source string) *Formula {
	f, err := Parse(source)
	if err != nil {
		panic(err)
	}
	return f
}

// ParamName returns the name of parameter i; unnamed parameters are "p<i>".
func (f *Formula) ParamName(i int) string {
	if f != nil {
		if name, ok := f.names[i]; ok {
			return name
		}
	}
	return "p" + strconv.Itoa(i)
}

// ParamIndex resolves a parameter name to its lowest index, or -1.
func (f *Formula) ParamIndex(name string) int {
	if f == nil {
		return -1
	}
	for i := 0; i < f.ParamCount; i++ {
		if f.ParamName(i) == name {
			return i
		}
	}
	return -1
}

// Calls lists the distinct functions called by the formula.
func (f *Formula) Calls() []string {
	if f == nil {
		return nil
	}
	seen := map[string]struct{}{}
	Walk(f.Root, func(node Expression) bool {
		if call, ok := node.(*CallExpression); ok {
			seen[call.Function] = struct{}{}
		}
		return true
	})
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (f *Formula) String() string {
	if f == nil {
		return ""
	}
	return f.Source
}

// Expression renders the formula in the dialect shared by every engine:
// the abscissa is x, parameters are p[k], powers are pow(a, b) calls and
// every literal is a float.
func (f *Formula) Expression() string {
	if f == nil || f.Root == nil {
		return ""
	}
	var b strings.Builder
	render(&b, f.Root)
	return b.String()
}

func render(b *strings.Builder, node Expression) {
	switch n := node.(type) {
	case *NumberLiteral:
		b.WriteString(formatLiteral(n.Value))
	case *Variable:
		b.WriteString("x")
	case *ParamRef:
		fmt.Fprintf(b, "p[%d]", n.Index)
	case *PrefixExpression:
		b.WriteString(n.Operator)
		b.WriteString("(")
		render(b, n.Right)
		b.WriteString(")")
	case *InfixExpression:
		if n.Operator == "^" {
			b.WriteString("pow(")
			render(b, n.Left)
			b.WriteString(", ")
			render(b, n.Right)
			b.WriteString(")")
			return
		}
		b.WriteString("(")
		render(b, n.Left)
		b.WriteString(" " + n.Operator + " ")
		render(b, n.Right)
		b.WriteString(")")
	case *CallExpression:
		b.WriteString(n.Function)
		b.WriteString("(")
		for i, arg := range n.Arguments {
			if i > 0 {
				b.WriteString(", ")
			}
			render(b, arg)
		}
		b.WriteString(")")
	}
}

func formatLiteral(v float64) string {
	if v < 0 {
		return "-(" + formatLiteral(-v) + ")"
	}
	if v == math.Trunc(v) && v < 1e15 {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// checkCalls reports calls to functions missing from registry or called
// with the wrong number of arguments.
func checkCalls(f *Formula, registry *FunctionRegistry) error {
	var err error
	Walk(f.Root, func(node Expression) bool {
		if err != nil {
			return false
		}
		call, ok := node.(*CallExpression)
		if !ok {
			return true
		}
		arity, ok := registry.Arity(call.Function)
		if !ok {
			err = fmt.Errorf("function %q not registered", call.Function)
			return false
		}
		if arity != len(call.Arguments) {
			err = fmt.Errorf("function %q takes %d argument(s), got %d", call.Function, arity, len(call.Arguments))
			return false
		}
		return true
	})
	return err
}
