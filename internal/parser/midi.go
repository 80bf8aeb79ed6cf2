package parser

import (
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2/smf"

	"git.lost.host/meutraa/recut/internal/errs"
	"git.lost.host/meutraa/recut/internal/music"
)

const defaultTicksPerQuarter = 960

// roundTempo undoes the whole microsecond quantisation of a MIDI tempo, so
// a written 90 BPM reads back as 90 and not 89.99995.
func roundTempo(bpm float64) float64 {
	return math.Round(bpm*1000) / 1000
}

// MidiParser reads measures from meter and tempo meta events and sections
// from marker or cue point events named after a structural keyword.
type MidiParser struct{}

type meter struct {
	tick uint32
	ts   music.TimeSignature
}

type tempoAt struct {
	tick uint32
	bpm  float64
}

type textAt struct {
	tick uint32
	text string
}

type events struct {
	meters  []meter
	tempos  []tempoAt
	markers []textAt
	title   string
	end     uint32
}

func collect(s *smf.SMF) events {
	var ev events
	for ti, track := range s.Tracks {
		var tick uint32
		for _, e := range track {
			tick += e.Delta
			var (
				num, denom uint8
				bpm        float64
				text       string
			)
			switch {
			case e.Message.GetMetaMeter(&num, &denom):
				ev.meters = append(ev.meters, meter{tick, music.TimeSignature{Numerator: int(num), Denominator: int(denom)}})
			case e.Message.GetMetaTempo(&bpm):
				ev.tempos = append(ev.tempos, tempoAt{tick, bpm})
			case e.Message.GetMetaMarker(&text), e.Message.GetMetaCuepoint(&text):
				ev.markers = append(ev.markers, textAt{tick, strings.TrimSpace(text)})
			case ti == 0 && ev.title == "" && e.Message.GetMetaTrackName(&text):
				ev.title = strings.TrimSpace(text)
			}
		}
		if tick > ev.end {
			ev.end = tick
		}
	}
	sort.SliceStable(ev.meters, func(i, j int) bool { return ev.meters[i].tick < ev.meters[j].tick })
	sort.SliceStable(ev.tempos, func(i, j int) bool { return ev.tempos[i].tick < ev.tempos[j].tick })
	sort.SliceStable(ev.markers, func(i, j int) bool { return ev.markers[i].tick < ev.markers[j].tick })
	return ev
}

func (p *MidiParser) Parse(file string) (*music.Score, error) {
	f, err := os.Open(file)
	if nil != err {
		return nil, errs.Wrap(errs.ScoreSource, errors.WithStack(err), "unable to open %s", file)
	}
	defer f.Close()
	return p.ParseReader(f)
}

func (p *MidiParser) ParseReader(r io.Reader) (*music.Score, error) {
	s, err := smf.ReadFrom(r)
	if nil != err {
		return nil, errs.Wrap(errs.ScoreSource, errors.WithStack(err), "unable to read midi")
	}
	q := uint32(defaultTicksPerQuarter)
	if tf, ok := s.TimeFormat.(smf.MetricTicks); ok && tf > 0 {
		q = uint32(tf)
	}
	ev := collect(s)

	score := &music.Score{Title: ev.title}
	if len(ev.meters) > 0 && ev.meters[0].tick == 0 {
		ts := ev.meters[0].ts
		score.Signature = &ts
	}

	// Walk measure by measure, a meter change takes effect at the next
	// bar line at or after it.
	starts := []uint32{}
	current := music.CommonTime
	mi := 0
	for tick := uint32(0); tick < ev.end || len(starts) == 0; {
		var written *music.TimeSignature
		for mi < len(ev.meters) && ev.meters[mi].tick <= tick {
			ts := ev.meters[mi].ts
			written = &ts
			mi++
		}
		if nil != written {
			if !written.Valid() {
				return nil, errs.New(errs.ScoreSource, "invalid meter %v at tick %d", *written, tick)
			}
			current = *written
		}
		starts = append(starts, tick)
		score.Measures = append(score.Measures, music.Measure{Number: len(starts), Signature: written})
		tick += uint32(current.Numerator) * q * 4 / uint32(current.Denominator)
	}

	measureAt := func(tick uint32) int {
		i := sort.Search(len(starts), func(i int) bool { return starts[i] > tick })
		return i
	}

	for _, t := range ev.tempos {
		m := &score.Measures[measureAt(t.tick)-1]
		if m.Tempo == 0 {
			m.Tempo = roundTempo(t.bpm)
		}
	}

	opened := []marker{}
	for _, mk := range ev.markers {
		if mk.text == "" || music.IsSnippetMarker(mk.text) || music.SectionKind(mk.text) == "" {
			continue
		}
		opened = append(opened, marker{measure: measureAt(mk.tick), text: mk.text})
	}
	score.Sections = sectionsFromMarkers(opened, len(score.Measures))
	return score, nil
}
