package formula

import (
	"strconv"
	"strings"
)

// sqrt(2*pi), the gausn normalisation.
const sqrtTwoPi = 2.5066282746310002

type builtinShape struct {
	name   string
	degree int
}

// lookupBuiltin recognises gaus, gausn, expo and polN.
func lookupBuiltin(name string) (builtinShape, bool) {
	switch name {
	case "gaus", "gausn", "expo":
		return builtinShape{name: name}, true
	}
	if rest, ok := strings.CutPrefix(name, "pol"); ok && rest != "" {
		degree, err := strconv.Atoi(rest)
		if err == nil && degree >= 0 {
			return builtinShape{name: "pol", degree: degree}, true
		}
	}
	return builtinShape{}, false
}

// expand returns the explicit expression of the shape with its first
// parameter at offset and records parameter names into names.
func (b builtinShape) expand(offset int, names map[int]string) Expression {
	param := func(i int) Expression { return &ParamRef{Index: offset + i} }
	name := func(i int, label string) {
		if _, exists := names[offset+i]; !exists {
			names[offset+i] = label
		}
	}

	switch b.name {
	case "gaus", "gausn":
		name(0, "Constant")
		name(1, "Mean")
		name(2, "Sigma")
		// [0]*exp(-0.5*((x-[1])/[2])^2)
		z := &InfixExpression{
			Left:     &InfixExpression{Left: &Variable{}, Operator: "-", Right: param(1)},
			Operator: "/",
			Right:    param(2),
		}
		body := &InfixExpression{
			Left:     param(0),
			Operator: "*",
			Right: &CallExpression{Function: "exp", Arguments: []Expression{
				&InfixExpression{
					Left:     &NumberLiteral{Value: -0.5},
					Operator: "*",
					Right:    &InfixExpression{Left: z, Operator: "^", Right: &NumberLiteral{Value: 2}},
				},
			}},
		}
		if b.name == "gaus" {
			return body
		}
		return &InfixExpression{
			Left:     body,
			Operator: "/",
			Right:    &InfixExpression{Left: &NumberLiteral{Value: sqrtTwoPi}, Operator: "*", Right: param(2)},
		}
	case "expo":
		name(0, "Constant")
		name(1, "Slope")
		return &CallExpression{Function: "exp", Arguments: []Expression{
			&InfixExpression{
				Left:     param(0),
				Operator: "+",
				Right:    &InfixExpression{Left: param(1), Operator: "*", Right: &Variable{}},
			},
		}}
	default:
		var sum Expression = param(0)
		for i := 1; i <= b.degree; i++ {
			var power Expression = &Variable{}
			if i > 1 {
				power = &InfixExpression{Left: &Variable{}, Operator: "^", Right: &NumberLiteral{Value: float64(i)}}
			}
			term := &InfixExpression{Left: param(i), Operator: "*", Right: power}
			sum = &InfixExpression{Left: sum, Operator: "+", Right: term}
		}
		return sum
	}
}
