package domain

// Field identifies which Record field incoming text is attributed to.
type Field int

const (
	FieldNone Field = iota
	FieldTranslated
	FieldAnnotation
	FieldGrammar
)

func (f Field) String() string {
	switch f {
	case FieldTranslated:
		return "translated"
	case FieldAnnotation:
		return "annotation"
	case FieldGrammar:
		return "grammar"
	default:
		return "none"
	}
}

func (f Field) IsValid() bool {
	switch f {
	case FieldTranslated, FieldAnnotation, FieldGrammar:
		return true
	}
	return false
}
