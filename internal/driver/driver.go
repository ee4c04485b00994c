// Package driver runs a batch of fits: every histogram in a data store is
// matched to its fit entry, fitted and the parameters exported afterwards.
package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	fitty "github.com/goliatone/go-fitty"
	"github.com/goliatone/go-fitty/histogram/sqlitestore"
	"github.com/goliatone/go-fitty/internal/config"
	"github.com/goliatone/go-fitty/minimize"
	"github.com/goliatone/go-fitty/pkg/activity"
	"github.com/goliatone/go-fitty/pkg/activity/promsink"
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultEntryName names the fallback entry built from the config default
// block.
const DefaultEntryName = "default"

// Summary counts the outcomes of one run.
type Summary struct {
	Total      int
	Committed  int
	RolledBack int
	Failed     int
	Skipped    int
	Exported   bool
}

// Deps are the collaborators a run may override. Zero values select the
// simplex minimizer, a private Prometheus registry and no extra hooks.
type Deps struct {
	Logger    *slog.Logger
	Minimizer fitty.Minimizer
	Hooks     activity.Hooks
	Registry  *prometheus.Registry
}

// Run executes the fit batch described by cfg and writes a summary to out.
// Individual fit failures are counted, not returned.
func Run(ctx context.Context, cfg config.Config, deps Deps, out io.Writer) (Summary, error) {
	var summary Summary
	if err := cfg.Validate(); err != nil {
		return summary, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	registry := deps.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	fitter, err := newFitter(cfg, deps, logger, registry)
	if err != nil {
		return summary, err
	}

	data, err := sqlitestore.Open(cfg.Data)
	if err != nil {
		return summary, fmt.Errorf("open data store: %w", err)
	}
	defer data.Close()

	var output *sqlitestore.Store
	if cfg.Output != "" {
		if output, err = sqlitestore.Open(cfg.Output); err != nil {
			return summary, fmt.Errorf("open output store: %w", err)
		}
		defer output.Close()
	}

	if err := fitter.InitFromFile(cfg.Params, cfg.AuxPath()); err != nil {
		if !errors.Is(err, fitty.ErrNoSource) {
			return summary, err
		}
		logger.Warn("starting without parameter entries", "error", err)
	}

	names, err := data.List(ctx)
	if err != nil {
		return summary, err
	}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		h, err := data.Load(ctx, name)
		if err != nil {
			logger.Error("load histogram failed", "histogram", name, "error", err)
			summary.Total++
			summary.Failed++
			continue
		}

		result := fitter.Fit(ctx, h, cfg.FitOptions)
		summary.record(result.Status)
		if !result.OK() || output == nil {
			continue
		}
		if err := output.Save(ctx, h); err != nil {
			logger.Error("save histogram failed", "histogram", name, "error", err)
		}
	}

	update := cfg.UpdateReference != nil && *cfg.UpdateReference
	summary.Exported = fitter.ExportToFile(update)

	if cfg.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(cfg.MetricsFile, registry); err != nil {
			logger.Error("write metrics failed", "path", cfg.MetricsFile, "error", err)
		}
	}

	if out != nil {
		fmt.Fprintf(out, "histograms: %d committed: %d rolled back: %d failed: %d skipped: %d\n",
			summary.Total, summary.Committed, summary.RolledBack, summary.Failed, summary.Skipped)
	}
	return summary, nil
}

func newFitter(cfg config.Config, deps Deps, logger *slog.Logger, registry prometheus.Registerer) (*fitty.Fitter, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	minimizer := deps.Minimizer
	if minimizer == nil {
		minimizer = minimize.NewSimplex(minimize.WithLogger(logger))
	}
	hooks := append(activity.Hooks{promsink.New(promsink.WithRegistry(registry))}, deps.Hooks...)
	opts = append(opts,
		fitty.WithLogger(logger),
		fitty.WithMinimizer(minimizer),
		fitty.WithActivityHooks(hooks),
	)

	fitter, err := fitty.New(opts...)
	if err != nil {
		return nil, err
	}
	if cfg.Default != nil {
		entry, err := cfg.Default.Entry(DefaultEntryName, fitter.Engine())
		if err != nil {
			return nil, fmt.Errorf("default entry: %w", err)
		}
		fitter.SetDefaultEntry(entry)
	}
	return fitter, nil
}

func (s *Summary) record(status fitty.FitStatus) {
	s.Total++
	switch status {
	case fitty.FitCommitted:
		s.Committed++
	case fitty.FitRolledBack:
		s.RolledBack++
	case fitty.FitSkipped:
		s.Skipped++
	default:
		s.Failed++
	}
}
