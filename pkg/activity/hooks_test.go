package activity

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNormalizeEventTrimsClonesAndDefaults(t *testing.T) {
	meta := map[string]any{"k": "v"}
	evt := Event{
		Verb:       " fit.committed ",
		ActorID:    " actor ",
		UserID:     " user ",
		TenantID:   " tenant ",
		ObjectType: " fit_entry ",
		ObjectID:   " hist_42 ",
		Channel:    " fitty ",
		Metadata:   meta,
	}

	got := NormalizeEvent(evt)

	if got.Verb != "fit.committed" || got.ObjectType != "fit_entry" || got.ObjectID != "hist_42" {
		t.Fatalf("unexpected normalized fields: %+v", got)
	}
	if got.ActorID != "actor" || got.UserID != "user" || got.TenantID != "tenant" || got.Channel != "fitty" {
		t.Fatalf("unexpected trimming: %+v", got)
	}
	if got.OccurredAt.IsZero() {
		t.Fatalf("expected OccurredAt to be set")
	}
	if got.Metadata["k"] != "v" {
		t.Fatalf("expected metadata value preserved: %+v", got.Metadata)
	}
	got.Metadata["k"] = "changed"
	if evt.Metadata["k"] != "v" {
		t.Fatalf("expected original metadata untouched: %+v", evt.Metadata)
	}
}

func TestHooksNotifyShortCircuitsMissingRequired(t *testing.T) {
	hooks := Hooks{&CaptureHook{}}
	err := hooks.Notify(context.Background(), Event{})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	capture := hooks[0].(*CaptureHook)
	if len(capture.Events) != 0 {
		t.Fatalf("expected no events captured, got %d", len(capture.Events))
	}
}

func TestHooksNotifyFanOutAndJoinErrors(t *testing.T) {
	capture := &CaptureHook{}
	errFirst := errors.New("boom1")
	errSecond := errors.New("boom2")
	var ctxSeen bool
	hooks := Hooks{
		HookFunc(func(ctx context.Context, event Event) error {
			if ctx != nil {
				ctxSeen = true
			}
			return nil
		}),
		capture,
		HookFunc(func(_ context.Context, _ Event) error { return errFirst }),
		nil,
		HookFunc(func(_ context.Context, _ Event) error { return errSecond }),
	}

	err := hooks.Notify(nil, Event{Verb: VerbFitRolledBack, ObjectType: ObjectFitEntry, ObjectID: "h1"})
	if err == nil || !errors.Is(err, errFirst) || !errors.Is(err, errSecond) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if !ctxSeen {
		t.Fatalf("expected context fallback to be non-nil")
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected event to be captured once, got %d", len(capture.Events))
	}
}

func TestEmitterDisabledAndEnabled(t *testing.T) {
	capture := &CaptureHook{}

	disabled := NewEmitter(Hooks{capture}, Config{Enabled: false})
	if disabled.Enabled() {
		t.Fatalf("expected emitter to be disabled")
	}
	if err := disabled.Emit(context.Background(), Event{Verb: VerbFitCommitted, ObjectType: ObjectFitEntry, ObjectID: "h1"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(capture.Events) != 0 {
		t.Fatalf("expected no events captured when disabled")
	}

	enabled := NewEmitter(Hooks{capture}, Config{Enabled: true, Channel: ""})
	if !enabled.Enabled() {
		t.Fatalf("expected emitter to be enabled")
	}
	if err := enabled.Emit(context.Background(), Event{Verb: VerbFitCommitted, ObjectType: ObjectFitEntry, ObjectID: "h1"}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected one event captured, got %d", len(capture.Events))
	}
	if capture.Events[0].Channel != DefaultChannel {
		t.Fatalf("expected default channel applied, got %q", capture.Events[0].Channel)
	}
}

func TestEmitterPreservesExplicitChannel(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{Enabled: true, Channel: "default"})

	err := emitter.Emit(context.Background(), Event{
		Verb:       VerbEntriesExported,
		ObjectType: ObjectParamFile,
		ObjectID:   "params.txt",
		Channel:    "custom",
		OccurredAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if capture.Events[0].Channel != "custom" {
		t.Fatalf("expected explicit channel preserved, got %q", capture.Events[0].Channel)
	}
	if capture.Events[0].OccurredAt != (time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected occurred_at preserved, got %v", capture.Events[0].OccurredAt)
	}
}

func TestEmitterStampsIdentity(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{nil, capture}, Config{Enabled: true, ActorID: " batch ", TenantID: "lab"})

	events := []Event{
		{Verb: VerbFitCommitted, ObjectType: ObjectFitEntry, ObjectID: "h1"},
		{Verb: VerbFitSkipped, ObjectType: ObjectFitEntry, ObjectID: "h2", ActorID: "operator"},
	}
	for _, event := range events {
		if err := emitter.Emit(context.Background(), event); err != nil {
			t.Fatalf("emit: %v", err)
		}
	}

	if got := capture.Events[0]; got.ActorID != "batch" || got.TenantID != "lab" {
		t.Fatalf("expected defaults stamped, got %+v", got)
	}
	if got := capture.Events[1]; got.ActorID != "operator" || got.TenantID != "lab" {
		t.Fatalf("expected explicit actor preserved, got %+v", got)
	}
}

func TestCaptureHookHelpers(t *testing.T) {
	capture := &CaptureHook{}
	hooks := Hooks{capture}
	ctx := context.Background()
	_ = hooks.Notify(ctx, Event{Verb: VerbEntriesImported, ObjectType: ObjectParamFile, ObjectID: "p.txt"})
	_ = hooks.Notify(ctx, Event{Verb: VerbFitCommitted, ObjectType: ObjectFitEntry, ObjectID: "h1"})
	_ = hooks.Notify(ctx, Event{Verb: VerbFitRolledBack, ObjectType: ObjectFitEntry, ObjectID: "h1"})

	want := []string{VerbEntriesImported, VerbFitCommitted, VerbFitRolledBack}
	got := capture.Verbs()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if n := len(capture.ForObject(ObjectFitEntry, "h1")); n != 2 {
		t.Fatalf("expected 2 events for h1, got %d", n)
	}
	capture.Reset()
	if len(capture.Verbs()) != 0 {
		t.Fatalf("expected reset to drop events")
	}
}

func TestFilterForwardsListedVerbsOnly(t *testing.T) {
	capture := &CaptureHook{}
	hooks := Hooks{Filter(capture, VerbFitCommitted, " "+VerbFitRolledBack)}
	ctx := context.Background()

	_ = hooks.Notify(ctx, Event{Verb: VerbEntriesImported, ObjectType: ObjectParamFile, ObjectID: "p.txt"})
	_ = hooks.Notify(ctx, Event{Verb: VerbFitRolledBack, ObjectType: ObjectFitEntry, ObjectID: "h1"})
	_ = hooks.Notify(ctx, Event{Verb: VerbFitSkipped, ObjectType: ObjectFitEntry, ObjectID: "h2"})

	if got := capture.Verbs(); len(got) != 1 || got[0] != VerbFitRolledBack {
		t.Fatalf("expected only the rolled back event, got %v", got)
	}
	if err := Filter(nil, VerbFitCommitted).Notify(ctx, Event{Verb: VerbFitCommitted}); err != nil {
		t.Fatalf("nil hook should be a no-op, got %v", err)
	}
}
