package extractor

import (
	"strings"

	"github.com/heartmarshall/sentence-lab/internal/domain"
)

// Marker is a section label in the upstream text that switches the active
// field. Labels lists the accepted spellings (ASCII and full-width colon).
type Marker struct {
	Field  domain.Field
	Labels []string
}

// DefaultMarkers returns the three section markers requested by the
// translation prompt, in the order the upstream presents them.
func DefaultMarkers() []Marker {
	return []Marker{
		{Field: domain.FieldTranslated, Labels: []string{"1. 翻译结果:", "1. 翻译结果："}},
		{Field: domain.FieldAnnotation, Labels: []string{"2. 平假名注释:", "2. 平假名注释："}},
		{Field: domain.FieldGrammar, Labels: []string{"3. 语法解析:", "3. 语法解析："}},
	}
}

// match is a complete marker occurrence inside the buffer.
type match struct {
	marker Marker
	start  int
	end    int
}

// findMarker returns the earliest complete occurrence of any marker whose
// field comes after active. Markers for the current or earlier fields are
// ignored so that text inside the grammar section can never rewind the
// state machine.
func findMarker(buf string, markers []Marker, active domain.Field) (match, bool) {
	best := match{start: -1}
	for _, m := range markers {
		if m.Field <= active {
			continue
		}
		for _, label := range m.Labels {
			i := strings.Index(buf, label)
			if i < 0 {
				continue
			}
			if best.start < 0 || i < best.start || (i == best.start && i+len(label) > best.end) {
				best = match{marker: m, start: i, end: i + len(label)}
			}
		}
	}
	return best, best.start >= 0
}

// pendingPrefix returns the length in bytes of the longest suffix of buf
// that is a proper prefix of a label still reachable from active. That
// suffix must be held back: the next fragment may complete it.
func pendingPrefix(buf string, markers []Marker, active domain.Field) int {
	longest := 0
	for _, m := range markers {
		if m.Field <= active {
			continue
		}
		for _, label := range m.Labels {
			if n := overlap(buf, label); n > longest {
				longest = n
			}
		}
	}
	return longest
}

// overlap is the length of the longest suffix of s that is a proper prefix
// of label.
func overlap(s, label string) int {
	n := len(label) - 1
	if n > len(s) {
		n = len(s)
	}
	for ; n > 0; n-- {
		if strings.HasSuffix(s, label[:n]) {
			return n
		}
	}
	return 0
}

// minLeakLen is the shortest label remnant the correction pass strips
// ("2." for example). A lone digit at the end of a field is content.
const minLeakLen = 2

// correctLeak strips from value any trailing remnant of m's labels left by
// imprecise upstream formatting: markdown emphasis wrapped around the label,
// and a partial copy of the label itself (for example a duplicated "2. ").
func correctLeak(value string, m Marker) string {
	trimmed := strings.TrimRight(value, " \t\r\n*#")
	longest := 0
	for _, label := range m.Labels {
		if n := overlap(trimmed, label); n > longest {
			longest = n
		}
	}
	if longest >= minLeakLen {
		trimmed = strings.TrimRight(trimmed[:len(trimmed)-longest], " \t\r\n*#")
	}
	return trimmed
}
