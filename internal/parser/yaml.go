package parser

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"git.lost.host/meutraa/recut/internal/errs"
	"git.lost.host/meutraa/recut/internal/music"
)

// YAMLParser reads a hand written score description:
//
//	title: Scenario
//	key: C major
//	time_signature: 4/4
//	tempo: 100
//	measures: 28
//	changes:
//	  - {measure: 13, tempo: 120, time_signature: 3/4}
//	sections:
//	  - {name: Intro, start: 1, end: 4}
type YAMLParser struct{}

type yamlChange struct {
	Measure       int     `yaml:"measure"`
	Tempo         float64 `yaml:"tempo"`
	TimeSignature string  `yaml:"time_signature"`
}

type yamlSection struct {
	Name  string `yaml:"name"`
	Start int    `yaml:"start"`
	End   int    `yaml:"end"`
}

type yamlScore struct {
	Title         string        `yaml:"title"`
	Key           string        `yaml:"key"`
	TimeSignature string        `yaml:"time_signature"`
	Tempo         float64       `yaml:"tempo"`
	Measures      int           `yaml:"measures"`
	Changes       []yamlChange  `yaml:"changes"`
	Sections      []yamlSection `yaml:"sections"`
}

func (p *YAMLParser) Parse(file string) (*music.Score, error) {
	f, err := os.Open(file)
	if nil != err {
		return nil, errs.Wrap(errs.ScoreSource, errors.WithStack(err), "unable to open %s", file)
	}
	defer f.Close()
	return p.ParseReader(f)
}

func (p *YAMLParser) ParseReader(r io.Reader) (*music.Score, error) {
	var doc yamlScore
	if err := yaml.NewDecoder(r).Decode(&doc); nil != err {
		return nil, errs.Wrap(errs.ScoreSource, errors.WithStack(err), "unable to decode score")
	}

	score := &music.Score{Title: doc.Title, KeySignature: doc.Key}
	if doc.TimeSignature != "" {
		ts, err := music.ParseTimeSignature(doc.TimeSignature)
		if nil != err {
			return nil, errs.Wrap(errs.ScoreSource, err, "invalid score time signature")
		}
		score.Signature = &ts
	}

	for i := 1; i <= doc.Measures; i++ {
		score.Measures = append(score.Measures, music.Measure{Number: i})
	}
	if len(score.Measures) > 0 {
		score.Measures[0].Tempo = doc.Tempo
		score.Measures[0].Signature = score.Signature
	}
	for _, c := range doc.Changes {
		if c.Measure < 1 || c.Measure > len(score.Measures) {
			return nil, errs.New(errs.ScoreSource, "change at measure %d is outside 1-%d", c.Measure, len(score.Measures))
		}
		m := &score.Measures[c.Measure-1]
		if c.Tempo > 0 {
			m.Tempo = c.Tempo
		}
		if c.TimeSignature != "" {
			ts, err := music.ParseTimeSignature(c.TimeSignature)
			if nil != err {
				return nil, errs.Wrap(errs.ScoreSource, err, "invalid time signature at measure %d", c.Measure)
			}
			m.Signature = &ts
		}
	}

	for _, s := range doc.Sections {
		if music.IsSnippetMarker(s.Name) {
			continue
		}
		score.Sections = append(score.Sections, music.Section{Name: s.Name, StartMeasure: s.Start, EndMeasure: s.End})
	}
	return score, nil
}
