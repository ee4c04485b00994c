package activity

import (
	"strings"
	"time"
)

const (
	VerbFitCommitted    = "fit.committed"
	VerbFitRolledBack   = "fit.rolled_back"
	VerbFitFailed       = "fit.failed"
	VerbFitSkipped      = "fit.skipped"
	VerbEntriesImported = "entries.imported"
	VerbEntriesExported = "entries.exported"

	ObjectFitEntry  = "fit_entry"
	ObjectParamFile = "param_file"
)

// FitEventInput describes one fit attempt on an entry.
type FitEventInput struct {
	ActorID       string
	UserID        string
	TenantID      string
	Channel       string
	Entry         string
	AttemptID     string
	Function      string
	PreChiSquare  float64
	PostChiSquare float64
	OldValues     []float64
	NewValues     []float64
	Err           error
	Metadata      map[string]any
	OccurredAt    time.Time
}

// BuildFitCommittedEvent constructs the event for an accepted fit.
func BuildFitCommittedEvent(input FitEventInput) Event {
	return buildFitEvent(VerbFitCommitted, input)
}

// BuildFitRolledBackEvent constructs the event for a fit that worsened
// chi-square and was undone.
func BuildFitRolledBackEvent(input FitEventInput) Event {
	return buildFitEvent(VerbFitRolledBack, input)
}

// BuildFitFailedEvent constructs the event for a fit that could not run.
func BuildFitFailedEvent(input FitEventInput) Event {
	return buildFitEvent(VerbFitFailed, input)
}

// BuildFitSkippedEvent constructs the event for a disabled entry.
func BuildFitSkippedEvent(input FitEventInput) Event {
	return buildFitEvent(VerbFitSkipped, input)
}

func buildFitEvent(verb string, input FitEventInput) Event {
	metadata := cloneMap(input.Metadata)
	metadata = ensureMetadata(metadata)
	metadata["pre_chi2"] = input.PreChiSquare
	metadata["post_chi2"] = input.PostChiSquare
	if input.AttemptID != "" {
		metadata["attempt_id"] = strings.TrimSpace(input.AttemptID)
	}
	if input.Function != "" {
		metadata["function"] = input.Function
	}
	if len(input.OldValues) > 0 {
		metadata["old_values"] = append([]float64(nil), input.OldValues...)
	}
	if len(input.NewValues) > 0 {
		metadata["new_values"] = append([]float64(nil), input.NewValues...)
	}
	if input.Err != nil {
		metadata["error"] = input.Err.Error()
	}

	objectID := strings.TrimSpace(input.Entry)
	if objectID == "" {
		objectID = ObjectFitEntry
	}
	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: ObjectFitEntry,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

// FileEventInput describes an import or export of a parameter file.
type FileEventInput struct {
	ActorID    string
	UserID     string
	TenantID   string
	Channel    string
	Path       string
	Source     string
	Entries    int
	Err        error
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildEntriesImportedEvent constructs the event for a parameter import.
func BuildEntriesImportedEvent(input FileEventInput) Event {
	return buildFileEvent(VerbEntriesImported, input)
}

// BuildEntriesExportedEvent constructs the event for a parameter export.
func BuildEntriesExportedEvent(input FileEventInput) Event {
	return buildFileEvent(VerbEntriesExported, input)
}

func buildFileEvent(verb string, input FileEventInput) Event {
	metadata := ensureMetadata(cloneMap(input.Metadata))
	metadata["entries"] = input.Entries
	if input.Source != "" {
		metadata["source"] = input.Source
	}
	if input.Err != nil {
		metadata["error"] = input.Err.Error()
	}

	objectID := strings.TrimSpace(input.Path)
	if objectID == "" {
		objectID = ObjectParamFile
	}
	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: ObjectParamFile,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
