package fitty

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"

	"github.com/goliatone/go-fitty/formula"
	"github.com/goliatone/go-fitty/pkg/activity"
)

// Fitter owns a set of fit entries keyed by decorated name, loads and
// stores them through the two-file protocol and runs fit attempts.
// A Fitter is not safe for concurrent use.
type Fitter struct {
	entries      map[string]*FitEntry
	defaultEntry *FitEntry

	nameDecorator     string
	functionDecorator string
	priority          PriorityMode
	reference         string
	auxiliary         string
	inputFormat       FormatVersion
	outputFormat      FormatVersion
	importPolicy      ImportPolicy

	engine    formula.Engine
	minimizer Minimizer
	logger    *slog.Logger
	verbose   bool
	fitLogger FitLogger
	emitter   *activity.Emitter
}

// New constructs a Fitter. It fails only when the configured formula
// engine cannot be built.
func New(opts ...Option) (*Fitter, error) {
	cfg := applyOptions(opts)
	engine, err := cfg.buildEngine()
	if err != nil {
		return nil, err
	}
	return &Fitter{
		entries:           map[string]*FitEntry{},
		defaultEntry:      cfg.defaultEntry,
		nameDecorator:     cfg.nameDecorator,
		functionDecorator: cfg.functionDecorator,
		priority:          cfg.priority,
		inputFormat:       cfg.inputFormat,
		outputFormat:      cfg.outputFormat,
		importPolicy:      cfg.importPolicy,
		engine:            engine,
		minimizer:         cfg.minimizer,
		logger:            cfg.logger,
		verbose:           cfg.verbose,
		fitLogger:         cfg.fitLogger,
		emitter:           cfg.buildEmitter(),
	}, nil
}

// Engine returns the formula engine used for imported entries.
func (f *Fitter) Engine() formula.Engine { return f.engine }

// NewEntry builds an entry compiled with the fitter's engine. The entry is
// not inserted.
func (f *Fitter) NewEntry(name string, min, max float64, formulas []string) (*FitEntry, error) {
	return NewFitEntry(name, min, max, formulas, f.engine)
}

// Find returns the entry matching a data name after decoration. A miss is
// not an error; Fit falls back to the default entry.
func (f *Fitter) Find(name string) (*FitEntry, bool) {
	entry, ok := f.entries[FormatName(name, f.nameDecorator)]
	return entry, ok
}

// Entry returns the entry stored under key, without decoration.
func (f *Fitter) Entry(key string) (*FitEntry, bool) {
	entry, ok := f.entries[key]
	return entry, ok
}

// Insert stores entry under key, replacing any previous entry, and
// returns it.
func (f *Fitter) Insert(key string, entry *FitEntry) *FitEntry {
	f.entries[key] = entry
	return entry
}

// Clear drops every entry.
func (f *Fitter) Clear() {
	clear(f.entries)
}

// Len returns the number of entries.
func (f *Fitter) Len() int { return len(f.entries) }

// Names returns the entry keys in sorted order.
func (f *Fitter) Names() []string {
	return slices.Sorted(maps.Keys(f.entries))
}

// Print writes every entry in key order.
func (f *Fitter) Print(w io.Writer, detailed bool) {
	for _, key := range f.Names() {
		entry := f.entries[key]
		if key != entry.Name {
			fmt.Fprintf(w, "# key: %s\n", key)
		}
		entry.Print(w, detailed)
	}
}

// SetNameDecorator changes the lookup pattern. Existing keys are kept.
func (f *Fitter) SetNameDecorator(pattern string) { f.nameDecorator = pattern }

// ClearNameDecorator resets the lookup pattern to the identity.
func (f *Fitter) ClearNameDecorator() { f.nameDecorator = DefaultNameDecorator }

// NameDecorator returns the lookup pattern.
func (f *Fitter) NameDecorator() string { return f.nameDecorator }

// SetFunctionDecorator changes the pattern used to name fitted functions.
func (f *Fitter) SetFunctionDecorator(pattern string) { f.functionDecorator = pattern }

// FunctionDecorator returns the function naming pattern.
func (f *Fitter) FunctionDecorator() string { return f.functionDecorator }

// SetDefaultEntry sets the fallback entry; nil disables the fallback. The
// caller keeps ownership and the fitter only ever clones it.
func (f *Fitter) SetDefaultEntry(entry *FitEntry) { f.defaultEntry = entry }

// DefaultEntry returns the fallback entry, if any.
func (f *Fitter) DefaultEntry() *FitEntry { return f.defaultEntry }

// SetPriority sets the source priority used by InitFromFile.
func (f *Fitter) SetPriority(mode PriorityMode) { f.priority = mode }

// Priority returns the source priority.
func (f *Fitter) Priority() PriorityMode { return f.priority }

// SetMinimizer replaces the minimizer.
func (f *Fitter) SetMinimizer(m Minimizer) { f.minimizer = m }

// ReferencePath returns the reference file set by InitFromFile.
func (f *Fitter) ReferencePath() string { return f.reference }

// AuxiliaryPath returns the auxiliary file set by InitFromFile.
func (f *Fitter) AuxiliaryPath() string { return f.auxiliary }
