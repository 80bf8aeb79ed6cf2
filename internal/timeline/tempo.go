package timeline

import (
	"sort"

	"git.lost.host/meutraa/recut/internal/errs"
	"git.lost.host/meutraa/recut/internal/music"
)

// DefaultTempo is used when a score carries no tempo marking at all.
const DefaultTempo = 80.0

const countdownBeats = 5

var countdownSignature = music.TimeSignature{Numerator: 9, Denominator: 4}

type TempoTimeline struct {
	Measures  []music.MeasureTiming // Sorted by measure number
	Signature music.TimeSignature   // Effective global signature
	Countdown bool

	index map[int]int
}

func (t *TempoTimeline) Measure(n int) (music.MeasureTiming, bool) {
	i, ok := t.index[n]
	if !ok {
		return music.MeasureTiming{}, false
	}
	return t.Measures[i], true
}

// Duration is the end of the last measure.
func (t *TempoTimeline) Duration() float64 {
	if len(t.Measures) == 0 {
		return 0
	}
	return t.Measures[len(t.Measures)-1].End
}

// FirstContentMeasure skips the countdown measure when there is one.
func (t *TempoTimeline) FirstContentMeasure() int {
	if len(t.Measures) == 0 {
		return 0
	}
	if t.Countdown && len(t.Measures) > 1 {
		return t.Measures[1].Number
	}
	return t.Measures[0].Number
}

// TempoChanges derives the tempo change list from measure markings. The
// first entry is always measure 1, using measure 1's marking or fallback.
func TempoChanges(measures []music.Measure, fallback float64) []music.TempoChange {
	sorted := sortMeasures(measures)
	if len(sorted) == 0 {
		return nil
	}
	current := fallback
	if sorted[0].Tempo > 0 {
		current = sorted[0].Tempo
	}
	changes := []music.TempoChange{{Measure: 1, Tempo: current}}
	for _, m := range sorted[1:] {
		if m.Tempo > 0 && m.Tempo != current {
			current = m.Tempo
			changes = append(changes, music.TempoChange{Measure: m.Number, Tempo: current})
		}
	}
	return changes
}

// sortMeasures orders by number, keeping the first occurrence of a
// number when several parts repeat it.
func sortMeasures(measures []music.Measure) []music.Measure {
	seen := make(map[int]bool, len(measures))
	out := make([]music.Measure, 0, len(measures))
	for _, m := range measures {
		if seen[m.Number] {
			continue
		}
		seen[m.Number] = true
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

func hasCountdown(sorted []music.Measure) bool {
	if len(sorted) < 2 {
		return false
	}
	first, second := sorted[0].Signature, sorted[1].Signature
	if nil == first || nil == second {
		return false
	}
	return *first == countdownSignature && second.Numerator != countdownSignature.Numerator
}

// measureLength returns beats per measure, effective tempo and duration in
// seconds for a regular measure at a quarter note tempo.
func measureLength(ts music.TimeSignature, tempo float64) (beats, effective, duration float64) {
	n, d := float64(ts.Numerator), float64(ts.Denominator)
	switch ts.Denominator {
	case 8:
		// Dotted quarter pulses, the tempo converted to dotted quarter BPM.
		// n/3 pulses at 2/3 of the tempo is n/2 quarter notes.
		beats = n / 3
		effective = tempo * 2 / 3
		duration = n / 2 * 60 / tempo
	case 4:
		beats = n
		effective = tempo
		duration = beats * 60 / tempo
	default:
		beats = n * (4 / d)
		effective = tempo * (d / 4)
		duration = beats * 60 / effective
	}
	return beats, effective, duration
}

// BuildTempoTimeline places every measure on an absolute timeline starting
// at zero. global is the signature used before any signature is written;
// nil falls back to 4/4.
func BuildTempoTimeline(measures []music.Measure, global *music.TimeSignature, changes []music.TempoChange) (*TempoTimeline, error) {
	if len(changes) == 0 {
		return nil, errs.New(errs.NoTempoInfo, "no tempo changes available")
	}
	if len(measures) == 0 {
		return nil, errs.New(errs.NoMeasures, "no measures found in score")
	}

	rates := make([]music.TempoChange, len(changes))
	copy(rates, changes)
	sort.SliceStable(rates, func(i, j int) bool { return rates[i].Measure < rates[j].Measure })
	for _, r := range rates {
		if r.Tempo <= 0 {
			return nil, errs.New(errs.NoTempoInfo, "tempo %v at measure %d is not positive", r.Tempo, r.Measure)
		}
	}

	sorted := sortMeasures(measures)
	countdown := hasCountdown(sorted)

	signature := music.CommonTime
	if nil != global {
		signature = *global
	}
	if countdown {
		signature = *sorted[1].Signature
	}
	if !signature.Valid() {
		return nil, errs.New(errs.UnsupportedTimeSignature, "unsupported time signature %v", signature)
	}

	t := &TempoTimeline{
		Measures:  make([]music.MeasureTiming, 0, len(sorted)),
		Signature: signature,
		Countdown: countdown,
		index:     make(map[int]int, len(sorted)),
	}

	current := 0.0
	tempo := rates[0].Tempo
	ri := 0
	ts := signature
	for i, m := range sorted {
		for ri+1 < len(rates) && rates[ri+1].Measure <= m.Number {
			ri++
			tempo = rates[ri].Tempo
		}

		var timing music.MeasureTiming
		if countdown && i == 0 {
			timing = music.MeasureTiming{
				Duration:        countdownBeats * 60 / tempo,
				EffectiveTempo:  tempo,
				TimeSignature:   countdownSignature.String(),
				BeatsPerMeasure: countdownBeats,
				IsCountdown:     true,
			}
		} else {
			if nil != m.Signature {
				ts = *m.Signature
			}
			if !ts.Valid() {
				return nil, errs.New(errs.UnsupportedTimeSignature, "unsupported time signature %v in measure %d", ts, m.Number)
			}
			beats, effective, duration := measureLength(ts, tempo)
			timing = music.MeasureTiming{
				Duration:        duration,
				EffectiveTempo:  effective,
				TimeSignature:   ts.String(),
				BeatsPerMeasure: beats,
			}
		}
		timing.Number = m.Number
		timing.Tempo = tempo
		timing.Start = current
		timing.End = current + timing.Duration
		current = timing.End

		t.index[m.Number] = len(t.Measures)
		t.Measures = append(t.Measures, timing)
	}

	return t, nil
}

// HasTempoChanges reports whether the score carries more than one tempo.
func HasTempoChanges(changes []music.TempoChange) bool {
	return len(changes) > 1
}
