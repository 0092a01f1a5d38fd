// Package analytics records usage events to a lakehouse-style sink.
// Recording is fire-and-forget: callers never see sink errors.
package analytics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Categories used by the application.
const (
	CategoryEndpoints = "endpoints"
	CategoryChat      = "chat"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

const dayLayout = "2006-01-02"

// Fields is one event payload. It should carry at least "event" and "status".
type Fields map[string]any

// Sink accepts events without blocking or failing the caller.
type Sink interface {
	Record(category string, fields Fields)
}

// Writer persists one encoded event line for a category and day.
type Writer interface {
	Write(ctx context.Context, category, day string, line []byte) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Record(string, Fields) {}

// OrNop tolerates nil sinks in constructors.
func OrNop(s Sink) Sink {
	if s == nil {
		return Nop{}
	}
	return s
}

// Event builds a Fields value with the event name and status set.
func Event(name, status string, kv ...any) Fields {
	f := Fields{"event": name, "status": status}
	for i := 0; i+1 < len(kv); i += 2 {
		if key, ok := kv[i].(string); ok {
			f[key] = kv[i+1]
		}
	}
	return f
}

// Status maps an error to StatusSuccess or StatusError.
func Status(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusSuccess
}

// encode copies fields, stamps an id and a default timestamp, and returns
// the JSON line together with the day it belongs to.
func encode(fields Fields, now time.Time) (string, []byte, error) {
	day := now.Format(dayLayout)
	out := make(Fields, len(fields)+2)
	for k, v := range fields {
		out[k] = v
	}
	if ts, ok := out["timestamp"]; !ok || ts == nil || ts == "" {
		out["timestamp"] = day
	}
	if _, ok := out["id"]; !ok {
		out["id"] = uuid.NewString()
	}
	line, err := json.Marshal(out)
	if err != nil {
		return "", nil, err
	}
	return day, line, nil
}
