// Package progress carries live status of a bridge run to whoever is watching.
package progress

import (
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"discordbridge/internal/jsonutil"
)

// Status indicates the state of a run step.
type Status string

const (
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusError   Status = "error"
	StatusSkipped Status = "skipped"
)

// Event reports one step of a bridge run.
type Event struct {
	Message   string            `json:"message"`
	Status    Status            `json:"status"`
	Timestamp time.Time         `json:"ts"`
	Metadata  map[string]string `json:"meta,omitempty"` // optional: file, output, run_id
}

// Emitter receives progress events.
type Emitter interface {
	Emit(ev Event)
}

// Nop discards events.
type Nop struct{}

// Emit implements Emitter.
func (Nop) Emit(Event) {}

// JSONEmitter writes each event as one JSON line, the format the dashboard
// reads back from a child bridge process.
type JSONEmitter struct {
	mu sync.Mutex
	W  io.Writer
}

// Emit implements Emitter. Write errors are dropped so a closed terminal
// never stops the run.
func (e *JSONEmitter) Emit(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	line, err := jsonutil.JSON.Marshal(ev)
	if err != nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	_, _ = e.W.Write(append(line, '\n'))
}

// ParseLine decodes a line written by JSONEmitter. ok is false for anything
// else, such as log output sharing the stream.
func ParseLine(line string) (ev Event, ok bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "{") || !jsonutil.UnmarshalLineSafe(line, &ev) {
		return Event{}, false
	}
	if ev.Message == "" || ev.Status == "" {
		return Event{}, false
	}
	return ev, true
}

// LogEmitter writes events to a zap logger.
type LogEmitter struct {
	Logger *zap.Logger
}

// Emit implements Emitter.
func (e LogEmitter) Emit(ev Event) {
	fields := make([]zap.Field, 0, len(ev.Metadata)+1)
	fields = append(fields, zap.String("status", string(ev.Status)))
	for k, v := range ev.Metadata {
		fields = append(fields, zap.String(k, v))
	}
	switch ev.Status {
	case StatusError:
		e.Logger.Error(ev.Message, fields...)
	case StatusSkipped:
		e.Logger.Warn(ev.Message, fields...)
	default:
		e.Logger.Info(ev.Message, fields...)
	}
}

// Recorder keeps every event; safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emit implements Emitter.
func (r *Recorder) Emit(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Multi fans an event out to several emitters.
type Multi []Emitter

// Emit implements Emitter.
func (m Multi) Emit(ev Event) {
	for _, e := range m {
		e.Emit(ev)
	}
}
