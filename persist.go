package fitty

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goliatone/go-fitty/pkg/activity"
)

// ImportPolicy decides how Import treats a malformed line.
type ImportPolicy int

const (
	// ImportAbort stops at the first malformed line and keeps the entries
	// the fitter held before the import.
	ImportAbort ImportPolicy = iota
	// ImportSkip logs malformed lines and keeps the rest.
	ImportSkip
)

func (p ImportPolicy) String() string {
	switch p {
	case ImportAbort:
		return "abort"
	case ImportSkip:
		return "skip"
	default:
		return fmt.Sprintf("ImportPolicy(%d)", int(p))
	}
}

// ParseImportPolicy accepts "abort" and "skip".
func ParseImportPolicy(s string) (ImportPolicy, error) {
	switch strings.ToLower(s) {
	case "", "abort":
		return ImportAbort, nil
	case "skip":
		return ImportSkip, nil
	default:
		return ImportAbort, fmt.Errorf("fitty: unknown import policy %q", s)
	}
}

const maxLineSize = 1 << 20

// InitFromFile records the reference and auxiliary paths and imports the
// one selected by the priority mode. It returns ErrNoSource, leaving the
// entries untouched, when the mode allows none of the existing files.
func (f *Fitter) InitFromFile(reference, auxiliary string) error {
	f.reference = reference
	f.auxiliary = auxiliary
	if reference == "" {
		f.logger.Warn("no reference parameter file given")
	}
	if auxiliary == "" {
		f.logger.Warn("no auxiliary parameter file given")
	}

	selected := SelectSource(reference, auxiliary)
	path, ok := resolveSource(f.priority, selected, reference, auxiliary)
	f.logger.Info("parameter source",
		"available", selected.String(),
		"priority", f.priority.String(),
		"selected", path,
	)
	if !ok {
		return fmt.Errorf("%w: %s under priority %s", ErrNoSource, selected, f.priority)
	}
	return f.Import(path)
}

// Import replaces the entries with the contents of path. Entries are keyed
// by the name written in the file.
func (f *Fitter) Import(path string) error {
	file, err := os.Open(path)
	if err != nil {
		ioErr := &IOError{Op: "open", Path: path, Err: err}
		f.logger.Error("cannot open parameter file", "path", path, "error", err)
		f.emitFile(activity.BuildEntriesImportedEvent, path, 0, ioErr)
		return ioErr
	}
	defer file.Close()
	return f.ImportFrom(file, path)
}

// ImportFrom replaces the entries with the lines read from r. Blank lines
// and lines starting with '#' are ignored. origin names r in logs and
// errors. The entries are swapped in only once the whole input is read,
// so a failed import leaves the previous entries in place.
func (f *Fitter) ImportFrom(r io.Reader, origin string) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	entries := make(map[string]*FitEntry)
	lineNo, skipped := 0, 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entry, err := ParseLineEntry(line, f.inputFormat, f.engine)
		if err != nil {
			if f.importPolicy == ImportSkip {
				skipped++
				f.logger.Warn("skipping malformed entry", "path", origin, "line", lineNo, "error", err)
				continue
			}
			err = fmt.Errorf("fitty: import %s line %d: %w", origin, lineNo, err)
			f.emitFile(activity.BuildEntriesImportedEvent, origin, 0, err)
			return err
		}
		entries[entry.Name] = entry
	}
	if err := scanner.Err(); err != nil {
		ioErr := &IOError{Op: "read", Path: origin, Err: err}
		f.emitFile(activity.BuildEntriesImportedEvent, origin, 0, ioErr)
		return ioErr
	}

	f.entries = entries
	f.logger.Info("imported fit entries", "path", origin, "entries", f.Len(), "skipped", skipped)
	f.emitFile(activity.BuildEntriesImportedEvent, origin, f.Len(), nil)
	return nil
}

// ExportToFile writes the entries to the auxiliary path, or to the
// reference path when updateReference is set. Failures are logged and
// reported as false.
func (f *Fitter) ExportToFile(updateReference bool) bool {
	path := f.auxiliary
	if updateReference {
		path = f.reference
	}
	if err := f.Export(path); err != nil {
		f.logger.Error("export failed", "path", path, "error", err)
		return false
	}
	return true
}

// Export overwrites path with one line per entry in key order.
func (f *Fitter) Export(path string) error {
	if path == "" {
		return &IOError{Op: "create", Path: path, Err: errors.New("empty path")}
	}
	file, err := os.Create(path)
	if err != nil {
		ioErr := &IOError{Op: "create", Path: path, Err: err}
		f.emitFile(activity.BuildEntriesExportedEvent, path, 0, ioErr)
		return ioErr
	}
	n, err := f.ExportTo(file)
	if closeErr := file.Close(); err == nil && closeErr != nil {
		err = &IOError{Op: "close", Path: path, Err: closeErr}
	}
	if err != nil {
		f.emitFile(activity.BuildEntriesExportedEvent, path, n, err)
		return err
	}
	f.logger.Info("exported fit entries", "path", path, "entries", n)
	f.emitFile(activity.BuildEntriesExportedEvent, path, n, nil)
	return nil
}

// ExportTo writes one line per entry in key order and returns the number
// of lines written. Under v1 output, entries without exactly two formulas
// are written as v2 lines. Entries that cannot be written at all, such as
// ones keyed by a name that does not fit on a line, are logged and left
// out.
func (f *Fitter) ExportTo(w io.Writer) (int, error) {
	buf := bufio.NewWriter(w)
	written := 0
	for _, key := range f.Names() {
		entry := f.entries[key]
		version := f.outputFormat
		if version == FormatV1 && entry.FunctionCount() != v1Formulas {
			f.logger.Info("exporting entry as v2", "entry", key, "formulas", entry.FunctionCount())
			version = FormatV2
		}
		line, err := formatLineEntry(key, entry, version)
		if err != nil {
			f.logger.Warn("cannot export entry", "entry", key, "format", f.outputFormat.String(), "error", err)
			continue
		}
		if _, err := buf.WriteString(line + "\n"); err != nil {
			return written, &IOError{Op: "write", Err: err}
		}
		written++
	}
	if err := buf.Flush(); err != nil {
		return written, &IOError{Op: "write", Err: err}
	}
	return written, nil
}

func (f *Fitter) emitFile(build func(activity.FileEventInput) activity.Event, path string, entries int, err error) {
	if !f.emitter.Enabled() {
		return
	}
	event := build(activity.FileEventInput{
		Path:    path,
		Source:  f.sourceLabel(path),
		Entries: entries,
		Err:     err,
	})
	if emitErr := f.emitter.Emit(context.Background(), event); emitErr != nil {
		f.logger.Warn("activity hook failed", "verb", event.Verb, "error", emitErr)
	}
}

func (f *Fitter) sourceLabel(path string) string {
	switch path {
	case "":
		return ""
	case f.reference:
		return "reference"
	case f.auxiliary:
		return "auxiliary"
	default:
		return "external"
	}
}
