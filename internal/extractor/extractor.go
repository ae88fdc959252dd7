// Package extractor incrementally reconstructs a translation Record from
// the text fragments of a streamed upstream response.
//
// An Extractor is owned by a single request and is not safe for concurrent
// use. Fragments must be fed in arrival order.
package extractor

import (
	"strings"
	"unicode"

	"github.com/heartmarshall/sentence-lab/internal/domain"
)

// Extractor is the per-request parser state.
type Extractor struct {
	original string
	markers  []Marker

	// buf holds text that has not been attributed yet: at most a suffix
	// that may still grow into a marker label.
	buf    string
	active domain.Field
	values [domain.FieldGrammar + 1]string

	// unclassified counts bytes dropped because no marker had been seen.
	unclassified int

	last   domain.Record
	closed bool
}

// New creates an Extractor for the given source sentence using the
// default markers.
func New(original string) *Extractor {
	return NewWithMarkers(original, DefaultMarkers())
}

// NewWithMarkers creates an Extractor with a custom marker set. Markers
// must be ordered by field and no label may contain another.
func NewWithMarkers(original string, markers []Marker) *Extractor {
	e := &Extractor{
		original: original,
		markers:  markers,
	}
	e.last = e.Snapshot()
	return e
}

// Active returns the field currently receiving text.
func (e *Extractor) Active() domain.Field { return e.active }

// Unclassified returns the number of bytes received before the first
// marker. That text is never attributed to a field.
func (e *Extractor) Unclassified() int { return e.unclassified }

// Ingest consumes one fragment and returns a full snapshot of the record.
func (e *Extractor) Ingest(fragment string) (domain.Record, error) {
	if e.closed {
		return domain.Record{}, domain.ErrStreamClosed
	}

	e.buf += fragment
	for {
		m, ok := findMarker(e.buf, e.markers, e.active)
		if !ok {
			break
		}
		e.attribute(e.buf[:m.start])
		e.values[e.active] = correctLeak(e.values[e.active], m.marker)
		e.active = m.marker.Field
		e.buf = e.buf[m.end:]
	}

	hold := pendingPrefix(e.buf, e.markers, e.active)
	e.attribute(e.buf[:len(e.buf)-hold])
	e.buf = e.buf[len(e.buf)-hold:]

	e.last = e.Snapshot()
	return e.last, nil
}

// Finalize flushes held-back text into the active field and closes the
// extractor. changed reports whether the final record differs from the
// last snapshot returned by Ingest; callers emit it only in that case.
func (e *Extractor) Finalize() (rec domain.Record, changed bool, err error) {
	if e.closed {
		return domain.Record{}, false, domain.ErrStreamClosed
	}
	e.closed = true

	e.attribute(e.buf)
	e.buf = ""

	rec = e.Snapshot()
	changed = rec != e.last
	e.last = rec
	return rec, changed, nil
}

// Fail closes the extractor and returns the terminal error record.
func (e *Extractor) Fail(reason string) (domain.Record, error) {
	if e.closed {
		return domain.Record{}, domain.ErrStreamClosed
	}
	e.closed = true
	e.buf = ""
	e.last = domain.ErrorRecord(e.original, reason)
	return e.last, nil
}

// Snapshot returns the record as currently known without consuming input.
func (e *Extractor) Snapshot() domain.Record {
	return domain.Record{
		Original:   e.original,
		Translated: display(e.values[domain.FieldTranslated]),
		Annotation: display(e.values[domain.FieldAnnotation]),
		Grammar:    display(e.values[domain.FieldGrammar]),
	}
}

// display strips incidental whitespace, and emphasis markup left over from a
// bold label, without ever shrinking a value as more text is appended.
func display(raw string) string {
	v := strings.TrimLeftFunc(raw, func(r rune) bool { return unicode.IsSpace(r) || r == '*' })
	return strings.TrimRightFunc(v, unicode.IsSpace)
}

func (e *Extractor) attribute(text string) {
	if text == "" {
		return
	}
	if e.active == domain.FieldNone {
		e.unclassified += len(text)
		return
	}
	e.values[e.active] += text
}
