package events

import (
	"encoding/json"
	"time"
)

const (
	TypePing           = "ping"
	TypeRunStarted     = "run_started"
	TypeRunFinished    = "run_finished"
	TypeRecordUpserted = "record_upserted"
	TypeSourceDegraded = "source_degraded"
)

// Event is the envelope every subscriber sees. Data holds the typed
// payload pre-marshalled, so fan-out never re-encodes per client.
type Event struct {
	Type string          `json:"type"`
	At   time.Time       `json:"at"`
	Data json.RawMessage `json:"data,omitempty"`
}

func newEvent(typ string, data any) Event {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	return Event{Type: typ, At: time.Now().UTC(), Data: raw}
}

// Ping is the first frame on every SSE connection, so clients can
// tell an open-but-silent stream from a dead one.
func Ping() Event {
	return newEvent(TypePing, nil)
}

type RunStartedData struct {
	RunID string `json:"run_id"`
}

func RunStarted(runID string) Event {
	return newEvent(TypeRunStarted, RunStartedData{RunID: runID})
}

// RunFinished wraps the run summary; any JSON-marshallable summary shape
// works, which keeps this package out of the pipeline's dependencies.
func RunFinished(summary any) Event {
	return newEvent(TypeRunFinished, summary)
}

type RecordUpsertedData struct {
	DedupGroupID string  `json:"dedup_group_id"`
	Title        string  `json:"title"`
	Company      string  `json:"company"`
	Score        float64 `json:"score"`
	FinalStatus  string  `json:"final_status"`
	IsNew        bool    `json:"is_new"`
}

func RecordUpserted(d RecordUpsertedData) Event {
	return newEvent(TypeRecordUpserted, d)
}

type SourceDegradedData struct {
	RunID  string `json:"run_id"`
	Source string `json:"source"`
}

func SourceDegraded(runID, source string) Event {
	return newEvent(TypeSourceDegraded, SourceDegradedData{RunID: runID, Source: source})
}
