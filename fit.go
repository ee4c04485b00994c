package fitty

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/goliatone/go-fitty/pkg/activity"
	"github.com/google/uuid"
)

// FitStatus is the outcome of one fit attempt.
type FitStatus int

const (
	// FitCommitted: chi-square did not get worse and the new values were kept.
	FitCommitted FitStatus = iota
	// FitRolledBack: chi-square got worse and the old values were kept.
	FitRolledBack
	// FitFailed: the attempt could not run (empty range, minimizer error).
	FitFailed
	// FitSkipped: the entry is disabled.
	FitSkipped
)

func (s FitStatus) String() string {
	switch s {
	case FitCommitted:
		return "committed"
	case FitRolledBack:
		return "rolled_back"
	case FitFailed:
		return "failed"
	case FitSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("FitStatus(%d)", int(s))
	}
}

// FitResult reports one fit attempt. Err is nil only for committed and
// skipped attempts.
type FitResult struct {
	Name          string
	AttemptID     string
	Entry         *FitEntry
	Status        FitStatus
	PreChiSquare  float64
	PostChiSquare float64
	Duration      time.Duration
	Err           error
}

// OK reports whether the attempt committed new parameters.
func (r FitResult) OK() bool { return r.Status == FitCommitted }

type attemptOutcome struct {
	result    FitResult
	oldValues []float64
	newValues []float64
}

// Fit finds the entry for data, cloning the default entry when none
// matches, and runs one attempt guarded by the entry's backup stack: the
// values are restored when the attempt does not commit. options is passed
// to the minimizer untouched.
func (f *Fitter) Fit(ctx context.Context, data DataSource, options string) FitResult {
	attemptID := uuid.NewString()
	name := data.Name()

	entry, ok := f.Find(name)
	if !ok {
		if f.defaultEntry == nil {
			outcome := attemptOutcome{result: FitResult{
				Name:      name,
				AttemptID: attemptID,
				Status:    FitFailed,
				Err:       fmt.Errorf("%w for %q", ErrNoEntry, name),
			}}
			f.report(ctx, outcome)
			return outcome.result
		}
		key := FormatName(name, f.nameDecorator)
		f.logger.Info("no fit entry, using default", "data", name, "entry", key)
		entry = f.Insert(key, f.defaultEntry.Clone(key))
	}

	if entry.Disabled {
		outcome := attemptOutcome{result: FitResult{
			Name:      name,
			AttemptID: attemptID,
			Entry:     entry,
			Status:    FitSkipped,
		}}
		f.report(ctx, outcome)
		return outcome.result
	}

	entry.Backup()
	outcome := f.attempt(ctx, entry, data, options, attemptID)
	if outcome.result.OK() {
		entry.Drop()
	} else {
		entry.Restore()
	}
	f.report(ctx, outcome)
	return outcome.result
}

// FitWith runs a single attempt of entry against data without touching
// the entry's backup stack.
func (f *Fitter) FitWith(ctx context.Context, entry *FitEntry, data DataSource, options string) FitResult {
	outcome := f.attempt(ctx, entry, data, options, uuid.NewString())
	f.report(ctx, outcome)
	return outcome.result
}

func (f *Fitter) attempt(ctx context.Context, entry *FitEntry, data DataSource, options, attemptID string) attemptOutcome {
	start := time.Now()
	out := attemptOutcome{result: FitResult{
		Name:      data.Name(),
		AttemptID: attemptID,
		Entry:     entry,
	}}
	fail := func(err error) attemptOutcome {
		out.result.Status = FitFailed
		out.result.Err = err
		out.result.Duration = time.Since(start)
		return out
	}

	if ctx == nil {
		ctx = context.Background()
	}
	if f.minimizer == nil {
		return fail(ErrNoMinimizer)
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	first, last := data.FindBin(entry.Min), data.FindBin(entry.Max)
	if data.Integral(first, last) == 0 {
		return fail(fmt.Errorf("%w: %s bins %d..%d", ErrZeroIntegral, data.Name(), first, last))
	}
	if entry.Rebin != 0 {
		if err := data.Rebin(entry.Rebin); err != nil {
			return fail(fmt.Errorf("fitty: rebin %s by %d: %w", data.Name(), entry.Rebin, err))
		}
	}

	entry.FunctionName = FormatName(entry.Name, f.functionDecorator)
	for i, c := range entry.components {
		c.Name = FormatName(entry.Name, f.functionDecorator+"_function_"+strconv.Itoa(i))
	}
	problem := Problem{
		Name:     entry.FunctionName,
		Function: entry.Composed(),
		Data:     data,
		Min:      entry.Min,
		Max:      entry.Max,
		Params:   entry.Params(),
	}
	out.oldValues = entry.Values()

	pre, err := f.minimizer.ChiSquare(ctx, problem)
	if err != nil {
		return fail(fmt.Errorf("fitty: chi-square of %s: %w", entry.FunctionName, err))
	}
	out.result.PreChiSquare = pre

	solution, err := f.minimizer.Minimize(ctx, problem, options)
	if err != nil {
		return fail(fmt.Errorf("fitty: minimize %s: %w", entry.FunctionName, err))
	}
	if len(solution.Values) != entry.ParamCount() {
		return fail(fmt.Errorf("fitty: minimizer returned %d values for %d parameters",
			len(solution.Values), entry.ParamCount()))
	}
	post := solution.ChiSquare
	out.result.PostChiSquare = post
	out.newValues = append([]float64(nil), solution.Values...)
	out.result.Duration = time.Since(start)

	if math.IsNaN(post) || post > pre {
		entry.ChiSquare = pre
		out.result.Status = FitRolledBack
		out.result.Err = ErrNotImproved
		return out
	}

	for _, c := range entry.components {
		c.commit(solution.Values, solution.Errors, post)
	}
	entry.setValues(solution.Values)
	entry.ChiSquare = post
	out.result.Status = FitCommitted
	return out
}

func (f *Fitter) report(ctx context.Context, outcome attemptOutcome) {
	result := outcome.result
	function := ""
	if result.Entry != nil {
		function = result.Entry.FunctionName
	}

	attrs := []any{
		slog.String("attempt_id", result.AttemptID),
		slog.String("data", result.Name),
		slog.String("status", result.Status.String()),
	}
	switch result.Status {
	case FitCommitted, FitRolledBack:
		attrs = append(attrs,
			slog.String("function", function),
			slog.Any("old", outcome.oldValues),
			slog.Any("new", outcome.newValues),
			slog.Float64("pre_chi2", result.PreChiSquare),
			slog.Float64("post_chi2", result.PostChiSquare),
			slog.Duration("duration", result.Duration),
		)
	case FitFailed:
		attrs = append(attrs, slog.Any("error", result.Err))
	}

	level := slog.LevelDebug
	switch {
	case result.Status == FitFailed:
		level = slog.LevelWarn
	case result.Status == FitRolledBack:
		level = slog.LevelInfo
	case f.verbose && result.Status == FitCommitted:
		level = slog.LevelInfo
	}
	if ctx == nil {
		ctx = context.Background()
	}
	f.logger.Log(ctx, level, "fit attempt", attrs...)

	f.fitLogger.LogFit(FitLogEvent{
		AttemptID:     result.AttemptID,
		Entry:         result.Name,
		Function:      function,
		Status:        result.Status,
		OldValues:     outcome.oldValues,
		NewValues:     outcome.newValues,
		PreChiSquare:  result.PreChiSquare,
		PostChiSquare: result.PostChiSquare,
		Duration:      result.Duration,
		Err:           result.Err,
	})

	if !f.emitter.Enabled() {
		return
	}
	input := activity.FitEventInput{
		Entry:         result.Name,
		AttemptID:     result.AttemptID,
		Function:      function,
		PreChiSquare:  result.PreChiSquare,
		PostChiSquare: result.PostChiSquare,
		OldValues:     outcome.oldValues,
		NewValues:     outcome.newValues,
		Err:           result.Err,
	}
	var event activity.Event
	switch result.Status {
	case FitCommitted:
		event = activity.BuildFitCommittedEvent(input)
	case FitRolledBack:
		event = activity.BuildFitRolledBackEvent(input)
	case FitSkipped:
		event = activity.BuildFitSkippedEvent(input)
	default:
		event = activity.BuildFitFailedEvent(input)
	}
	if err := f.emitter.Emit(ctx, event); err != nil {
		f.logger.Warn("activity hook failed", "verb", event.Verb, "error", err)
	}
}
