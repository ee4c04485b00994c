package usersink

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/goliatone/go-fitty/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook adapts fitter activity events to a go-users ActivitySink so fit
// history lands in the same audit trail as user actions.
type Hook struct {
	Sink usertypes.ActivitySink
}

// Notify maps the event into an ActivityRecord and forwards it to the sink.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}

	normalized := activity.NormalizeEvent(event)
	if normalized.Verb == "" || normalized.ObjectType == "" || normalized.ObjectID == "" {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	record := usertypes.ActivityRecord{
		ActorID:    parseUUID(normalized.ActorID),
		UserID:     parseUUID(normalized.UserID),
		TenantID:   parseUUID(normalized.TenantID),
		Verb:       normalized.Verb,
		ObjectType: normalized.ObjectType,
		ObjectID:   normalized.ObjectID,
		Channel:    normalized.Channel,
		Data:       recordData(normalized.Metadata),
		OccurredAt: normalized.OccurredAt,
	}
	return h.Sink.Log(ctx, record)
}

// recordData copies the event metadata into a JSON encodable payload: NaN
// and Inf chi-square values or fitted values become strings, and the post
// fit chi-square is also exposed as "chi2".
func recordData(meta map[string]any) map[string]any {
	if len(meta) == 0 {
		return nil
	}
	data := make(map[string]any, len(meta)+1)
	for key, value := range meta {
		switch v := value.(type) {
		case float64:
			data[key] = jsonFloat(v)
		case []float64:
			values := make([]any, len(v))
			for i, x := range v {
				values[i] = jsonFloat(x)
			}
			data[key] = values
		default:
			data[key] = value
		}
	}
	if chi2, ok := data["post_chi2"]; ok {
		data["chi2"] = chi2
	}
	return data
}

func jsonFloat(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return v
}

func parseUUID(input string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(input))
	if err != nil {
		return uuid.Nil
	}
	return id
}
