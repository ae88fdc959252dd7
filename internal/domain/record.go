package domain

import "encoding/json"

// Record is the structured translation result built up from a streamed
// upstream response. A record with Error set is terminal: the remaining
// fields carry no meaning and are not serialized.
type Record struct {
	Original   string
	Translated string
	Annotation string
	Grammar    string
	Error      string
}

// ErrorRecord creates a terminal record carrying a caller-facing message.
func ErrorRecord(original, msg string) Record {
	return Record{Original: original, Error: msg}
}

// IsError reports whether the record is a terminal error record.
func (r Record) IsError() bool { return r.Error != "" }

// Value returns the content of the given field.
func (r Record) Value(f Field) string {
	switch f {
	case FieldTranslated:
		return r.Translated
	case FieldAnnotation:
		return r.Annotation
	case FieldGrammar:
		return r.Grammar
	default:
		return ""
	}
}

type recordJSON struct {
	Original   string `json:"original"`
	Translated string `json:"translated"`
	Annotation string `json:"annotation"`
	Grammar    string `json:"grammar"`
}

type errorJSON struct {
	Error string `json:"error"`
}

// MarshalJSON emits either {original, translated, annotation, grammar}
// or {error}; the two shapes never mix.
func (r Record) MarshalJSON() ([]byte, error) {
	if r.IsError() {
		return json.Marshal(errorJSON{Error: r.Error})
	}
	return json.Marshal(recordJSON{
		Original:   r.Original,
		Translated: r.Translated,
		Annotation: r.Annotation,
		Grammar:    r.Grammar,
	})
}

// UnmarshalJSON accepts both shapes produced by MarshalJSON.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw struct {
		recordJSON
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Record{
		Original:   raw.Original,
		Translated: raw.Translated,
		Annotation: raw.Annotation,
		Grammar:    raw.Grammar,
		Error:      raw.Error,
	}
	return nil
}
