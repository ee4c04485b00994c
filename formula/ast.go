package formula

import (
	"fmt"
	"strconv"
	"strings"
)

// Expression is a node of a parsed formula.
type Expression interface {
	String() string
}

type NumberLiteral struct {
	Value float64
}

func (n *NumberLiteral) String() string {
	return strconv.FormatFloat(n.Value, 'g', -1, 64)
}

// Variable is the abscissa x.
type Variable struct{}

func (v *Variable) String() string { return "x" }

// ParamRef addresses slot Index of the global parameter vector.
type ParamRef struct {
	Index int
}

func (p *ParamRef) String() string {
	return fmt.Sprintf("[%d]", p.Index)
}

type PrefixExpression struct {
	Operator string
	Right    Expression
}

func (pe *PrefixExpression) String() string {
	return "(" + pe.Operator + pe.Right.String() + ")"
}

type InfixExpression struct {
	Left     Expression
	Operator string
	Right    Expression
}

func (ie *InfixExpression) String() string {
	return "(" + ie.Left.String() + " " + ie.Operator + " " + ie.Right.String() + ")"
}

// CallExpression invokes a registered function. Function is stored lower
// case without any "TMath::" qualifier.
type CallExpression struct {
	Function  string
	Arguments []Expression
}

func (ce *CallExpression) String() string {
	args := make([]string, len(ce.Arguments))
	for i, arg := range ce.Arguments {
		args[i] = arg.String()
	}
	return ce.Function + "(" + strings.Join(args, ", ") + ")"
}

// Walk visits node and its children depth first, stopping when fn returns
// false for a node.
func Walk(node Expression, fn func(Expression) bool) {
	if node == nil || !fn(node) {
		return
	}
	switch n := node.(type) {
	case *PrefixExpression:
		Walk(n.Right, fn)
	case *InfixExpression:
		Walk(n.Left, fn)
		Walk(n.Right, fn)
	case *CallExpression:
		for _, arg := range n.Arguments {
			Walk(arg, fn)
		}
	}
}
