package music

import "strings"

// Score is everything a score source hands to the timing engine.
type Score struct {
	Title        string
	KeySignature string // Passed through untouched
	Signature    *TimeSignature
	Measures     []Measure
	Sections     []Section
}

// Section is an inclusive measure range with a case sensitive name.
type Section struct {
	Name         string
	StartMeasure int
	EndMeasure   int
}

func (s Section) Overlaps(o Section) bool {
	return s.StartMeasure <= o.EndMeasure && o.StartMeasure <= s.EndMeasure
}

func (s *Score) SectionNames() []string {
	names := make([]string, len(s.Sections))
	for i, sec := range s.Sections {
		names[i] = sec.Name
	}
	return names
}

var SectionKeywords = []string{
	"pre-chorus", "verse", "chorus", "bridge", "intro", "outro",
	"solo", "interlude", "refrain", "coda", "ending",
}

// SectionKind returns the first structural keyword contained in name, or "".
func SectionKind(name string) string {
	lower := strings.ToLower(name)
	for _, k := range SectionKeywords {
		if strings.Contains(lower, k) {
			return k
		}
	}
	return ""
}

// IsTerminal reports whether a section closes the song.
func IsTerminal(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "outro") || strings.Contains(lower, "ending")
}

// IsSnippetMarker reports snippet annotations, which are never sections.
func IsSnippetMarker(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "/snippet") || strings.Contains(lower, "/endsnippet")
}
