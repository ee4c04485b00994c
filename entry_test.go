package fitty

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustEntry(t *testing.T, name string, formulas ...string) *FitEntry {
	t.Helper()
	entry, err := NewFitEntry(name, 0, 10, formulas, nil)
	if err != nil {
		t.Fatalf("new entry: %v", err)
	}
	return entry
}

func TestNewFitEntryComposedParamCount(t *testing.T) {
	entry := mustEntry(t, "h", "gaus(0)", "expo(3)")
	if entry.FunctionCount() != 2 {
		t.Fatalf("expected 2 components, got %d", entry.FunctionCount())
	}
	if entry.ParamCount() != 5 {
		t.Fatalf("expected 5 params, got %d", entry.ParamCount())
	}

	sparse := mustEntry(t, "h", "[3]+[4]*x")
	if sparse.ParamCount() != 5 {
		t.Fatalf("expected unused lower indices to count, got %d", sparse.ParamCount())
	}

	if _, err := NewFitEntry("h", 0, 1, nil, nil); err == nil {
		t.Fatalf("expected error for entry without formulas")
	}
	if _, err := NewFitEntry("h", 0, 1, []string{"[0]*"}, nil); err == nil {
		t.Fatalf("expected error for malformed formula")
	}
}

func TestFitEntryAddFunctionGrowsParams(t *testing.T) {
	entry := mustEntry(t, "h", "[0]")
	idx, err := entry.AddFunction(nil, "pol2(1)")
	if err != nil {
		t.Fatalf("add function: %v", err)
	}
	if idx != 1 || entry.ParamCount() != 4 {
		t.Fatalf("expected index 1 and 4 params, got %d and %d", idx, entry.ParamCount())
	}
	if diff := cmp.Diff([]string{"[0]", "pol2(1)"}, entry.Formulas()); diff != "" {
		t.Fatalf("formulas mismatch (-want +got):\n%s", diff)
	}
}

func TestFitEntryParamAccess(t *testing.T) {
	entry := mustEntry(t, "h", "gaus(0)", "expo(3)")

	if err := entry.SetParam(1, NewLimitedParam(5, 4, 6, FitFree)); err != nil {
		t.Fatalf("set param: %v", err)
	}
	if err := entry.UpdateParam(1, 5.5); err != nil {
		t.Fatalf("update param: %v", err)
	}
	mean, err := entry.ParamByName("Mean")
	if err != nil {
		t.Fatalf("param by name: %v", err)
	}
	if !mean.Equal(NewLimitedParam(5.5, 4, 6, FitFree)) {
		t.Fatalf("unexpected Mean %+v", mean)
	}
	if idx, _ := entry.ParamIndex("Slope"); idx != 4 {
		t.Fatalf("expected Slope at 4, got %d", idx)
	}
	if err := entry.SetParamByName("Sigma", NewParam(0.5, FitFixed)); err != nil {
		t.Fatalf("set by name: %v", err)
	}
	if p, _ := entry.Param(2); !p.Fixed() {
		t.Fatalf("expected Sigma fixed, got %+v", p)
	}

	var indexErr *IndexError
	if _, err := entry.Param(5); !errors.As(err, &indexErr) || indexErr.Count != 5 {
		t.Fatalf("expected IndexError, got %v", err)
	}
	if err := entry.UpdateParam(-1, 0); !errors.As(err, &indexErr) {
		t.Fatalf("expected IndexError, got %v", err)
	}
	if _, err := entry.ParamByName("Missing"); !errors.As(err, &indexErr) || indexErr.Name != "Missing" {
		t.Fatalf("expected named IndexError, got %v", err)
	}
	if _, err := entry.Function(2); !errors.As(err, &indexErr) {
		t.Fatalf("expected IndexError for component, got %v", err)
	}
}

func TestFitEntryEvalSumsComponents(t *testing.T) {
	entry := mustEntry(t, "h", "[0]", "[1]*x")
	_ = entry.UpdateParam(0, 1)
	_ = entry.UpdateParam(1, 2)
	got, err := entry.Eval(3)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if got != 7 {
		t.Fatalf("expected 7, got %v", got)
	}
}

func TestFitEntryBackupRestore(t *testing.T) {
	entry := mustEntry(t, "h", "[0]+[1]*x")
	_ = entry.UpdateParam(0, 1)
	_ = entry.UpdateParam(1, 2)

	if entry.Restore() {
		t.Fatalf("expected restore without backup to be a no-op")
	}

	entry.Backup()
	_ = entry.UpdateParam(0, 10)
	_ = entry.UpdateParam(1, 20)
	if entry.PendingBackups() != 1 {
		t.Fatalf("expected one pending backup")
	}
	if !entry.Restore() {
		t.Fatalf("expected restore to apply the backup")
	}
	if diff := cmp.Diff([]float64{1, 2}, entry.Values()); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if entry.Restore() {
		t.Fatalf("expected second restore to be a no-op")
	}

	entry.Backup()
	_ = entry.UpdateParam(0, 3)
	entry.Drop()
	if entry.PendingBackups() != 0 || entry.Values()[0] != 3 {
		t.Fatalf("expected drop to keep current values, got %v", entry.Values())
	}
}

func TestFitEntryBackupKeepsModesAndLimits(t *testing.T) {
	entry := mustEntry(t, "h", "[0]")
	_ = entry.SetParam(0, NewLimitedParam(1, 0, 2, FitFixed))
	entry.Backup()
	_ = entry.UpdateParam(0, 1.5)
	entry.Restore()
	p, _ := entry.Param(0)
	if !p.Equal(NewLimitedParam(1, 0, 2, FitFixed)) {
		t.Fatalf("unexpected param after restore %+v", p)
	}
}

func TestFitEntryCloneIsDeep(t *testing.T) {
	entry := mustEntry(t, "h", "gaus(0)")
	entry.Rebin = 2
	entry.Disabled = true
	_ = entry.UpdateParam(0, 4)
	entry.Backup()

	clone := entry.Clone("copy")
	if clone.Name != "copy" || clone.Rebin != 2 || !clone.Disabled || clone.PendingBackups() != 0 {
		t.Fatalf("unexpected clone %+v", clone)
	}
	_ = clone.UpdateParam(0, 9)
	clone.components[0].Values[0] = 42
	if entry.Values()[0] != 4 || entry.components[0].Values[0] == 42 {
		t.Fatalf("expected clone mutations not to leak into original")
	}
}

func TestFitEntryPrint(t *testing.T) {
	entry := mustEntry(t, "h", "gaus(0)")
	entry.Disabled = true
	_ = entry.SetParam(1, NewLimitedParam(5, 4, 6, FitFree))

	var buf bytes.Buffer
	entry.Print(&buf, true)
	out := buf.String()
	for _, want := range []string{"name: h", "DISABLED", "gaus(0)", "Mean", "( 4, 6 )"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestFitEntryIsValid(t *testing.T) {
	entry := mustEntry(t, "h", "[0]")
	if !entry.IsValid() {
		t.Fatalf("expected [0, 10] to be valid")
	}
	entry.Max = entry.Min
	if entry.IsValid() {
		t.Fatalf("expected empty range to be invalid")
	}
}
