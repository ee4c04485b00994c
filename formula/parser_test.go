package formula

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseParamCount(t *testing.T) {
	cases := []struct {
		source string
		want   int
	}{
		{"gaus(0)", 3},
		{"gaus", 3},
		{"expo(3)", 5},
		{"pol2(1)", 4},
		{"pol0", 1},
		{"[0]+[1]*x", 2},
		{"[3]+[4]*x", 5},
		{"gaus(0) + expo(3)", 5},
		{"0", 0},
		{"sin(x)", 0},
	}
	for _, tc := range cases {
		f, err := Parse(tc.source)
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", tc.source, err)
		}
		if f.ParamCount != tc.want {
			t.Fatalf("Parse(%q) param count = %d, want %d", tc.source, f.ParamCount, tc.want)
		}
	}
}

func TestParseBuiltinNames(t *testing.T) {
	f := MustParse("gaus(0) + expo(3) + [5]")
	got := make([]string, f.ParamCount)
	for i := range got {
		got[i] = f.ParamName(i)
	}
	want := []string{"Constant", "Mean", "Sigma", "Constant", "Slope", "p5"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("param names mismatch (-want +got):\n%s", diff)
	}
	if idx := f.ParamIndex("Sigma"); idx != 2 {
		t.Fatalf("expected Sigma at index 2, got %d", idx)
	}
	if idx := f.ParamIndex("Constant"); idx != 0 {
		t.Fatalf("expected first Constant at index 0, got %d", idx)
	}
	if idx := f.ParamIndex("missing"); idx != -1 {
		t.Fatalf("expected -1 for unknown name, got %d", idx)
	}
}

func TestParseStructure(t *testing.T) {
	cases := []struct {
		source string
		want   string
	}{
		{"1+2*3", "(1 + (2 * 3))"},
		{"(1+2)*3", "((1 + 2) * 3)"},
		{"-x^2", "(-(x ^ 2))"},
		{"2^3^2", "(2 ^ (3 ^ 2))"},
		{"2**x", "(2 ^ x)"},
		{"+x", "x"},
		{"TMath::Exp([0]*x)", "exp(([0] * x))"},
		{"1e-3*x", "(0.001 * x)"},
		{"TMath::Pi()", "3.141592653589793"},
		{"pow(x, 2)", "pow(x, 2)"},
	}
	for _, tc := range cases {
		f, err := Parse(tc.source)
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", tc.source, err)
		}
		if got := f.Root.String(); got != tc.want {
			t.Fatalf("Parse(%q) = %s, want %s", tc.source, got, tc.want)
		}
	}
}

func TestFormulaExpressionRendering(t *testing.T) {
	cases := []struct {
		source string
		want   string
	}{
		{"[0]*x^2", "(p[0] * pow(x, 2.0))"},
		{"expo(1)", "exp((p[1] + (p[2] * x)))"},
		{"-[0]", "-(p[0])"},
		{"0", "0.0"},
		{"0.25*x", "(0.25 * x)"},
	}
	for _, tc := range cases {
		if got := MustParse(tc.source).Expression(); got != tc.want {
			t.Fatalf("Expression(%q) = %s, want %s", tc.source, got, tc.want)
		}
	}
}

func TestFormulaCalls(t *testing.T) {
	f := MustParse("gaus(0) + sqrt(x) + TMath::Sqrt([3])")
	if diff := cmp.Diff([]string{"exp", "sqrt"}, f.Calls()); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []string{
		"",
		"[a]",
		"[1",
		"gaus(x)",
		"gaus(-1)",
		"foo",
		"1 +",
		"(1",
		"1 2",
		"[0] $ x",
		"f(1,)",
	}
	for _, source := range cases {
		_, err := Parse(source)
		if err == nil {
			t.Fatalf("Parse(%q) expected error", source)
		}
		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("Parse(%q) expected ParseError, got %T", source, err)
		}
		if parseErr.Source != source {
			t.Fatalf("Parse(%q) error source = %q", source, parseErr.Source)
		}
	}
}
