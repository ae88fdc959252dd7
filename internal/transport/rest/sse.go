package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/heartmarshall/sentence-lab/internal/domain"
)

// eventWriter frames records as server-sent events. Headers go out with
// the first event, so a handler can still answer with a plain JSON error
// until then.
type eventWriter struct {
	w       http.ResponseWriter
	rc      *http.ResponseController
	started bool
	sent    int
}

func newEventWriter(w http.ResponseWriter) *eventWriter {
	return &eventWriter{w: w, rc: http.NewResponseController(w)}
}

// start writes the event-stream headers once. The server write deadline is
// lifted because a stream lasts as long as the upstream keeps generating.
func (e *eventWriter) start() error {
	if e.started {
		return nil
	}
	e.started = true

	if err := e.rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}

	h := e.w.Header()
	h.Set("Content-Type", "text/event-stream; charset=utf-8")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	e.w.WriteHeader(http.StatusOK)
	return e.flush()
}

// send writes one "data: <json>" frame and flushes it.
func (e *eventWriter) send(rec domain.Record) error {
	if err := e.start(); err != nil {
		return err
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if _, err := fmt.Fprintf(e.w, "data: %s\n\n", payload); err != nil {
		return err
	}
	e.sent++
	return e.flush()
}

func (e *eventWriter) flush() error {
	if err := e.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	return nil
}
