package sink

import (
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

type Kind string

const (
	KindRunStarted       Kind = "run_started"
	KindArtifactUsed     Kind = "artifact_used"
	KindArtifactProduced Kind = "artifact_produced"
	KindRunFinished      Kind = "run_finished"
)

// Event is one lineage notification. Attrs values must be representable as
// a protobuf Value: strings, numbers, bools, nil, []any or map[string]any.
type Event struct {
	Kind    Kind
	RunID   string
	JobType string
	At      time.Time
	Attrs   map[string]any
}

func (e *Event) Struct() (*structpb.Struct, error) {
	fields := map[string]any{
		"kind":     string(e.Kind),
		"run_id":   e.RunID,
		"job_type": e.JobType,
		"at":       e.At.UTC().Format(time.RFC3339Nano),
	}
	if len(e.Attrs) > 0 {
		fields["attrs"] = e.Attrs
	}
	return structpb.NewStruct(fields)
}

// Marshal encodes the event as protojson. The exact whitespace is not
// stable across protobuf releases; consumers must parse it.
func (e *Event) Marshal(pretty bool) ([]byte, error) {
	s, err := e.Struct()
	if err != nil {
		return nil, err
	}
	return protojson.MarshalOptions{Multiline: pretty}.Marshal(s)
}
