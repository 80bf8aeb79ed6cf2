package parser

import (
	"path/filepath"
	"strings"

	"git.lost.host/meutraa/recut/internal/errs"
	"git.lost.host/meutraa/recut/internal/music"
)

type Parser interface {
	Parse(file string) (*music.Score, error)
}

// ForFile picks a parser by file extension.
func ForFile(file string) (Parser, error) {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".mid", ".midi", ".smf":
		return &MidiParser{}, nil
	case ".yaml", ".yml":
		return &YAMLParser{}, nil
	}
	return nil, errs.New(errs.ScoreSource, "no parser for %s, use a midi or yaml score", file)
}

// sectionsFromMarkers closes every section one measure before the next
// one opens, the last runs to the final measure.
func sectionsFromMarkers(starts []marker, lastMeasure int) []music.Section {
	sections := []music.Section{}
	for i, m := range starts {
		end := lastMeasure
		if i+1 < len(starts) {
			end = starts[i+1].measure - 1
		}
		sections = append(sections, music.Section{Name: m.text, StartMeasure: m.measure, EndMeasure: end})
	}
	return sections
}

type marker struct {
	measure int
	text    string
}
