package promsink

import (
	"context"
	"math"
	"testing"

	"github.com/goliatone/go-fitty/pkg/activity"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func histogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	metric, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T does not implement prometheus.Metric", o)
	}
	var m dto.Metric
	if err := metric.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	if m.Histogram == nil {
		t.Fatal("expected histogram metric to have Histogram field")
	}
	return m.GetHistogram().GetSampleCount()
}

func TestHookRecordsFitEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	hook := New(WithRegistry(reg))
	ctx := context.Background()

	committed := activity.BuildFitCommittedEvent(activity.FitEventInput{
		Entry: "h1", PreChiSquare: 10, PostChiSquare: 4,
	})
	rolledBack := activity.BuildFitRolledBackEvent(activity.FitEventInput{
		Entry: "h2", PreChiSquare: 4, PostChiSquare: 9,
	})
	for _, event := range []activity.Event{committed, rolledBack, committed} {
		if err := hook.Notify(ctx, event); err != nil {
			t.Fatalf("notify: %v", err)
		}
	}

	if got := testutil.ToFloat64(hook.eventsTotal.WithLabelValues(activity.VerbFitCommitted, activity.ObjectFitEntry)); got != 2 {
		t.Fatalf("events_total(committed)=%v, want 2", got)
	}
	if got := testutil.ToFloat64(hook.eventsTotal.WithLabelValues(activity.VerbFitRolledBack, activity.ObjectFitEntry)); got != 1 {
		t.Fatalf("events_total(rolled_back)=%v, want 1", got)
	}
	if got := histogramCount(t, hook.chiSquare.WithLabelValues(activity.VerbFitCommitted)); got != 2 {
		t.Fatalf("fit_chi_square(committed) count=%v, want 2", got)
	}
	if got := histogramCount(t, hook.improvement); got != 2 {
		t.Fatalf("fit_chi_square_ratio count=%v, want 2", got)
	}
}

func TestHookIgnoresNonFiniteChiSquare(t *testing.T) {
	reg := prometheus.NewRegistry()
	hook := New(WithRegistry(reg), WithNamespace("test"))

	event := activity.BuildFitFailedEvent(activity.FitEventInput{
		Entry: "h1", PreChiSquare: math.NaN(), PostChiSquare: math.Inf(1),
	})
	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if got := testutil.ToFloat64(hook.eventsTotal.WithLabelValues(activity.VerbFitFailed, activity.ObjectFitEntry)); got != 1 {
		t.Fatalf("events_total(failed)=%v, want 1", got)
	}
	if got := histogramCount(t, hook.chiSquare.WithLabelValues(activity.VerbFitFailed)); got != 0 {
		t.Fatalf("expected no chi-square sample, got %v", got)
	}
}

func TestHookCountsFileEntries(t *testing.T) {
	reg := prometheus.NewRegistry()
	hook := New(WithRegistry(reg))

	event := activity.BuildEntriesImportedEvent(activity.FileEventInput{Path: "params.txt", Entries: 3})
	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if got := testutil.ToFloat64(hook.entriesTouched.WithLabelValues(activity.VerbEntriesImported)); got != 3 {
		t.Fatalf("file_entries_total(imported)=%v, want 3", got)
	}
}

func TestHookIgnoresEmptyEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	hook := New(WithRegistry(reg))
	if err := hook.Notify(context.Background(), activity.Event{}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if got := testutil.CollectAndCount(hook.eventsTotal); got != 0 {
		t.Fatalf("expected no series, got %d", got)
	}
}

func TestNilHookIsNoop(t *testing.T) {
	var hook *Hook
	if err := hook.Notify(context.Background(), activity.Event{Verb: "x", ObjectType: "y", ObjectID: "z"}); err != nil {
		t.Fatalf("notify: %v", err)
	}
}
