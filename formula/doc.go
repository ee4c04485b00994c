// Package formula parses ROOT style fit formulas and compiles them into
// callable functions through pluggable expression engines.
//
// A formula is built from numbers, the abscissa x, parameter references
// [k], the operators + - * / ^ (or **), parentheses, calls to registered
// functions and the builtin shapes gaus, gausn, expo and polN, each taking
// an optional parameter offset: "gaus(0) + expo(3)".
//
// Parsed formulas render to a single dialect understood by the expr, CEL
// and JS engines. The JS engine requires the js_eval build tag.
package formula
