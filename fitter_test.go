package fitty

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func newTestFitter(t *testing.T, opts ...Option) *Fitter {
	t.Helper()
	f, err := New(opts...)
	if err != nil {
		t.Fatalf("new fitter: %v", err)
	}
	return f
}

func TestNewRejectsUnknownEngine(t *testing.T) {
	if _, err := New(WithEngineName("lua")); err == nil {
		t.Fatalf("expected error for unknown engine")
	}
	f := newTestFitter(t, WithEngineName("cel"))
	if f.Engine().Name() != "cel" {
		t.Fatalf("expected cel engine, got %s", f.Engine().Name())
	}
}

func TestFitterFindUsesNameDecorator(t *testing.T) {
	f := newTestFitter(t, WithNameDecorator("pref_*"))
	entry := mustEntry(t, "pref_h1", "[0]")
	f.Insert("pref_h1", entry)

	got, ok := f.Find("h1")
	if !ok || got != entry {
		t.Fatalf("expected decorated lookup to hit")
	}
	if _, ok := f.Find("pref_h1"); ok {
		t.Fatalf("expected double decoration to miss")
	}

	f.ClearNameDecorator()
	if f.NameDecorator() != DefaultNameDecorator {
		t.Fatalf("expected identity decorator, got %q", f.NameDecorator())
	}
	if _, ok := f.Find("pref_h1"); !ok {
		t.Fatalf("expected raw lookup after clearing decorator")
	}

	f.SetNameDecorator("*_x")
	if _, ok := f.Entry("pref_h1"); !ok {
		t.Fatalf("expected keys not to be re-keyed by decorator changes")
	}
}

func TestFitterInsertOverwritesAndNamesSorted(t *testing.T) {
	f := newTestFitter(t)
	f.Insert("b", mustEntry(t, "b", "[0]"))
	f.Insert("a", mustEntry(t, "a", "[0]"))
	replacement := mustEntry(t, "b", "[0]+[1]")
	f.Insert("b", replacement)

	if diff := cmp.Diff([]string{"a", "b"}, f.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	if got, _ := f.Entry("b"); got != replacement {
		t.Fatalf("expected insert to overwrite")
	}
	f.Clear()
	if f.Len() != 0 {
		t.Fatalf("expected clear to drop entries")
	}
}

func TestFitterImportExportRoundTrip(t *testing.T) {
	input := strings.Join([]string{
		"# reference parameters",
		"",
		"hist_2 gaus(0) [3]+[4]*x 2 0 20 10 5 : 4 6 1 f 0 0",
		"@hist_1 1 10 0 gaus(0) | 1 2 : 1 3 3 F 2 5",
	}, "\n")

	f := newTestFitter(t)
	if err := f.ImportFrom(strings.NewReader(input), "inline"); err != nil {
		t.Fatalf("import: %v", err)
	}
	if diff := cmp.Diff([]string{"hist_1", "hist_2"}, f.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	disabled, _ := f.Entry("hist_1")
	if !disabled.Disabled {
		t.Fatalf("expected hist_1 disabled")
	}

	var out bytes.Buffer
	n, err := f.ExportTo(&out)
	if err != nil || n != 2 {
		t.Fatalf("export: %d %v", n, err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if !strings.HasPrefix(lines[0], "@hist_1") || !strings.HasPrefix(lines[1], "hist_2") {
		t.Fatalf("unexpected export order or markers:\n%s", out.String())
	}

	again := newTestFitter(t)
	if err := again.ImportFrom(strings.NewReader(out.String()), "exported"); err != nil {
		t.Fatalf("re-import: %v", err)
	}
	for _, name := range f.Names() {
		want, _ := f.Entry(name)
		got, ok := again.Entry(name)
		if !ok {
			t.Fatalf("missing %s after re-import", name)
		}
		if diff := cmp.Diff(want.Params(), got.Params()); diff != "" {
			t.Fatalf("%s params mismatch (-want +got):\n%s", name, diff)
		}
		if diff := cmp.Diff(want.Formulas(), got.Formulas()); diff != "" {
			t.Fatalf("%s formulas mismatch (-want +got):\n%s", name, diff)
		}
	}
}

func TestFitterImportAbortKeepsPreviousEntries(t *testing.T) {
	input := "good 0 10 0 [0] | 1\nbad 0 10 0 [0]+[1]*x | 1 2 3\n"
	f := newTestFitter(t)
	f.Insert("stale", mustEntry(t, "stale", "[0]"))

	err := f.ImportFrom(strings.NewReader(input), "params.txt")
	var formatErr *FormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("expected FormatError, got %v", err)
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("expected line number in %q", err.Error())
	}
	if diff := cmp.Diff([]string{"stale"}, f.Names()); diff != "" {
		t.Fatalf("aborted import changed entries (-want +got):\n%s", diff)
	}
}

func TestFitterFailedReimportKeepsFirstImport(t *testing.T) {
	f := newTestFitter(t)
	first := "a 0 10 0 [0] | 1\nb 0 10 0 [0]+[1]*x | 1 2\n"
	if err := f.ImportFrom(strings.NewReader(first), "first.txt"); err != nil {
		t.Fatalf("first import: %v", err)
	}

	second := "c 0 10 0 [0] | 1\nbroken 0 10 0 [0]* | 1\n"
	if err := f.ImportFrom(strings.NewReader(second), "second.txt"); err == nil {
		t.Fatalf("expected second import to fail")
	}
	if diff := cmp.Diff([]string{"a", "b"}, f.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	b, _ := f.Entry("b")
	if p, _ := b.Param(1); p.Value != 2 {
		t.Fatalf("expected first import values, got %+v", p)
	}
}

func TestFitterImportSkipKeepsGoodLines(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	input := "good 0 10 0 [0] | 1\nbad 0 10 0 [0]+[1]*x | 1 2 3\nalso_good [0] [1] 0 0 1 1 2\n"

	f := newTestFitter(t, WithImportPolicy(ImportSkip), WithLogger(logger))
	if err := f.ImportFrom(strings.NewReader(input), "params.txt"); err != nil {
		t.Fatalf("import: %v", err)
	}
	if diff := cmp.Diff([]string{"also_good", "good"}, f.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(logs.String(), "skipping malformed entry") {
		t.Fatalf("expected skip to be logged, got %q", logs.String())
	}
}

func TestFitterImportMissingFile(t *testing.T) {
	f := newTestFitter(t)
	err := f.Import(filepath.Join(t.TempDir(), "missing.txt"))
	var ioErr *IOError
	if !errors.As(err, &ioErr) || ioErr.Op != "open" {
		t.Fatalf("expected open IOError, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected wrapped ErrNotExist, got %v", err)
	}
}

func TestFitterExportToFile(t *testing.T) {
	dir := t.TempDir()
	ref := filepath.Join(dir, "params.txt")
	aux := filepath.Join(dir, "params.txt.out")
	writeFile(t, ref, "h 0 10 0 [0] | 1\n", time.Now())

	f := newTestFitter(t, WithOutputFormat(FormatV2))
	if err := f.InitFromFile(ref, aux); err != nil {
		t.Fatalf("init: %v", err)
	}
	entry, _ := f.Find("h")
	_ = entry.UpdateParam(0, 7)

	if !f.ExportToFile(false) {
		t.Fatalf("expected export to auxiliary to succeed")
	}
	data, err := os.ReadFile(aux)
	if err != nil {
		t.Fatalf("read aux: %v", err)
	}
	if got := strings.TrimSpace(string(data)); got != "h\t0 10 0 [0] |  7" {
		t.Fatalf("unexpected aux content %q", got)
	}
	refData, _ := os.ReadFile(ref)
	if strings.Contains(string(refData), "7") {
		t.Fatalf("expected reference untouched")
	}

	if !f.ExportToFile(true) {
		t.Fatalf("expected export to reference to succeed")
	}
	refData, _ = os.ReadFile(ref)
	if !strings.Contains(string(refData), "|  7") {
		t.Fatalf("expected reference updated, got %q", refData)
	}
}

func TestFitterExportToFileReportsFailure(t *testing.T) {
	f := newTestFitter(t)
	f.Insert("h", mustEntry(t, "h", "[0]"))
	if f.ExportToFile(false) {
		t.Fatalf("expected export without auxiliary path to fail")
	}
	err := f.Export(filepath.Join(t.TempDir(), "missing", "out.txt"))
	var ioErr *IOError
	if !errors.As(err, &ioErr) || ioErr.Op != "create" {
		t.Fatalf("expected create IOError, got %v", err)
	}
}

func TestFitterExportV1FallsBackToV2(t *testing.T) {
	f := newTestFitter(t, WithOutputFormat(FormatV1))
	f.Insert("one", mustEntry(t, "one", "[0]"))
	f.Insert("two", mustEntry(t, "two", "[0]", "[1]"))
	f.Insert("bad key", mustEntry(t, "h", "[0]"))

	var out bytes.Buffer
	n, err := f.ExportTo(&out)
	if err != nil || n != 2 {
		t.Fatalf("expected two lines, got %d %v", n, err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if DetectFormat(lines[0]) != FormatV2 || !strings.HasPrefix(lines[0], "one\t") {
		t.Fatalf("expected one as a v2 line, got %q", lines[0])
	}
	if DetectFormat(lines[1]) != FormatV1 || !strings.HasPrefix(lines[1], "two\t") {
		t.Fatalf("expected two as a v1 line, got %q", lines[1])
	}

	again := newTestFitter(t)
	if err := again.ImportFrom(strings.NewReader(out.String()), "mixed"); err != nil {
		t.Fatalf("re-import: %v", err)
	}
	if diff := cmp.Diff([]string{"one", "two"}, again.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestFitterExportUsesKeyAsName(t *testing.T) {
	f := newTestFitter(t)
	f.Insert("decorated_h", mustEntry(t, "h", "[0]"))
	var out bytes.Buffer
	if _, err := f.ExportTo(&out); err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.HasPrefix(out.String(), "decorated_h\t") {
		t.Fatalf("expected key in output, got %q", out.String())
	}
}

func TestFitterPrint(t *testing.T) {
	f := newTestFitter(t)
	f.Insert("h", mustEntry(t, "h", "gaus(0)"))
	var out bytes.Buffer
	f.Print(&out, false)
	if !strings.Contains(out.String(), "name: h") {
		t.Fatalf("unexpected print output %q", out.String())
	}
}

func TestParseImportPolicy(t *testing.T) {
	if p, err := ParseImportPolicy("skip"); err != nil || p != ImportSkip {
		t.Fatalf("unexpected %s %v", p, err)
	}
	if p, err := ParseImportPolicy(""); err != nil || p != ImportAbort {
		t.Fatalf("unexpected %s %v", p, err)
	}
	if _, err := ParseImportPolicy("ignore"); err == nil {
		t.Fatalf("expected error")
	}
}
