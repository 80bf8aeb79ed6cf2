package parser

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"gitlab.com/gomidi/midi/v2/smf"

	"git.lost.host/meutraa/recut/internal/errs"
	"git.lost.host/meutraa/recut/internal/timeline"
)

const q = 480

func buildMidi(t *testing.T) *bytes.Buffer {
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(q)

	var conductor smf.Track
	conductor.Add(0, smf.MetaTrackSequenceName("Test Song"))
	conductor.Add(0, smf.MetaMeter(4, 4))
	conductor.Add(0, smf.MetaTempo(120))
	conductor.Add(0, smf.MetaMarker("Intro"))
	// Measure 3 starts after two bars of 4/4.
	conductor.Add(2*4*q, smf.MetaMarker("Verse 1"))
	conductor.Add(0, smf.MetaMeter(6, 8))
	conductor.Add(0, smf.MetaTempo(90))
	// Mid bar tempo and chord text inside measure 4.
	conductor.Add(3*q+q/2, smf.MetaMarker("Am7"))
	conductor.Add(q, smf.MetaTempo(100))
	// Measure 5 starts at 8q + 2*3q.
	conductor.Add(3*q/2, smf.MetaMarker("/snippet"))
	conductor.Add(0, smf.MetaMarker("Outro"))
	conductor.Close(2 * 3 * q)
	if err := s.Add(conductor); nil != err {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); nil != err {
		t.Fatal(err)
	}
	return &buf
}

func TestMidiParser(t *testing.T) {
	score, err := (&MidiParser{}).ParseReader(buildMidi(t))
	if nil != err {
		t.Fatalf("unable to parse midi: %v", err)
	}
	if score.Title != "Test Song" {
		t.Log("title", score.Title)
		t.Fail()
	}
	if len(score.Measures) != 6 {
		t.Fatalf("expected 6 measures, got %v", score.Measures)
	}
	if nil == score.Signature || score.Signature.String() != "4/4" {
		t.Log(score.Signature)
		t.Fail()
	}
	m3 := score.Measures[2]
	if nil == m3.Signature || m3.Signature.String() != "6/8" || m3.Tempo != 90 {
		t.Log(m3)
		t.Fail()
	}
	if score.Measures[0].Tempo != 120 || score.Measures[1].Tempo != 0 || score.Measures[3].Tempo != 100 {
		t.Log(score.Measures)
		t.Fail()
	}
	if nil != score.Measures[3].Signature {
		t.Log("signature repeated without a meter event", score.Measures[3])
		t.Fail()
	}

	expected := "Intro 1-2,Verse 1 3-4,Outro 5-6"
	sections := []string{}
	for _, s := range score.Sections {
		sections = append(sections, fmt.Sprintf("%s %d-%d", s.Name, s.StartMeasure, s.EndMeasure))
	}
	if strings.Join(sections, ",") != expected {
		t.Log(sections)
		t.Fail()
	}
}

// Written tempos survive the microsecond encoding, so bar lengths are exact.
func TestMidiTempoTimeline(t *testing.T) {
	score, err := (&MidiParser{}).ParseReader(buildMidi(t))
	if nil != err {
		t.Fatal(err)
	}
	for i, expected := range []float64{120, 0, 90, 100, 0, 0} {
		if score.Measures[i].Tempo != expected {
			t.Log("measure", i+1, score.Measures[i].Tempo, expected)
			t.Fail()
		}
	}
	tl, err := timeline.BuildTempoTimeline(score.Measures, score.Signature, timeline.TempoChanges(score.Measures, timeline.DefaultTempo))
	if nil != err {
		t.Fatal(err)
	}
	m3, _ := tl.Measure(3)
	if m3.Start != 4 || m3.Duration != 2 || m3.End != 6 {
		t.Log(m3)
		t.Fail()
	}
	m4, _ := tl.Measure(4)
	if m4.Start != 6 || m4.Duration != 1.8 {
		t.Log(m4)
		t.Fail()
	}
}

func TestRoundTempo(t *testing.T) {
	tests := map[float64]float64{
		89.9999550000225: 90,
		120:              120,
		133.3331:         133.333,
		72.72727:         72.727,
	}
	for in, expected := range tests {
		if got := roundTempo(in); got != expected {
			t.Log(in, got, expected)
			t.Fail()
		}
	}
}

func TestMidiParserRejectsGarbage(t *testing.T) {
	_, err := (&MidiParser{}).ParseReader(strings.NewReader("not a midi file"))
	if !errs.Is(err, errs.ScoreSource) {
		t.Log(err)
		t.Fail()
	}
}

const yamlFixture = `
title: Scenario
key: D minor
time_signature: 4/4
tempo: 100
measures: 8
changes:
  - {measure: 5, tempo: 120, time_signature: 3/4}
sections:
  - {name: Intro, start: 1, end: 4}
  - {name: /snippet, start: 4, end: 4}
  - {name: Outro, start: 5, end: 8}
`

func TestYAMLParser(t *testing.T) {
	score, err := (&YAMLParser{}).ParseReader(strings.NewReader(yamlFixture))
	if nil != err {
		t.Fatalf("unable to parse yaml: %v", err)
	}
	if score.Title != "Scenario" || score.KeySignature != "D minor" || len(score.Measures) != 8 {
		t.Log(score)
		t.Fail()
	}
	first, fifth := score.Measures[0], score.Measures[4]
	if first.Tempo != 100 || first.Signature.String() != "4/4" || fifth.Tempo != 120 || fifth.Signature.String() != "3/4" {
		t.Log(first, fifth)
		t.Fail()
	}
	if len(score.Sections) != 2 || score.Sections[1].Name != "Outro" || score.Sections[1].EndMeasure != 8 {
		t.Log(score.Sections)
		t.Fail()
	}
}

func TestYAMLParserFailures(t *testing.T) {
	tests := []string{
		"measures: 2\nchanges:\n  - {measure: 3, tempo: 90}\n",
		"time_signature: four\n",
		"measures: [1, 2\n",
		"",
	}
	for _, in := range tests {
		if _, err := (&YAMLParser{}).ParseReader(strings.NewReader(in)); !errs.Is(err, errs.ScoreSource) {
			t.Log("in ", in)
			t.Log("out", err)
			t.Fail()
		}
	}
}

func TestForFile(t *testing.T) {
	tests := map[string]string{
		"song.mid":   "*parser.MidiParser",
		"SONG.MIDI":  "*parser.MidiParser",
		"score.yaml": "*parser.YAMLParser",
		"score.yml":  "*parser.YAMLParser",
	}
	for in, expected := range tests {
		p, err := ForFile(in)
		if nil != err || typeName(p) != expected {
			t.Log(in, typeName(p), err)
			t.Fail()
		}
	}
	if _, err := ForFile("score.mscz"); !errs.Is(err, errs.ScoreSource) {
		t.Fail()
	}
}

func typeName(p Parser) string {
	switch p.(type) {
	case *MidiParser:
		return "*parser.MidiParser"
	case *YAMLParser:
		return "*parser.YAMLParser"
	}
	return ""
}
