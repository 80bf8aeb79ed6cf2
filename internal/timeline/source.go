package timeline

import "fmt"

// Kind tags which builder populated a Source.
type Kind int

const (
	ConstantTempo Kind = iota
	ScoreTempoMap
	ExternalBeatMap
)

func (k Kind) String() string {
	switch k {
	case ConstantTempo:
		return "constant tempo"
	case ScoreTempoMap:
		return "score tempo map"
	case ExternalBeatMap:
		return "external beat map"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Source is the timing source chosen for a session. Exactly one of Tempo
// and Beats is set, as dictated by Kind.
type Source struct {
	Kind  Kind
	Tempo *TempoTimeline
	Beats *BeatTimeline
}

func FromTempo(kind Kind, t *TempoTimeline) Source {
	return Source{Kind: kind, Tempo: t}
}

func FromBeats(b *BeatTimeline) Source {
	return Source{Kind: ExternalBeatMap, Beats: b}
}

// Bounds returns where measure n starts and ends in the audio file.
func (s Source) Bounds(n int) (start, end float64, ok bool) {
	switch s.Kind {
	case ConstantTempo, ScoreTempoMap:
		if nil == s.Tempo {
			return 0, 0, false
		}
		m, ok := s.Tempo.Measure(n)
		if !ok {
			return 0, 0, false
		}
		return m.Start, m.End, true
	case ExternalBeatMap:
		if nil == s.Beats {
			return 0, 0, false
		}
		m, ok := s.Beats.Measure(n)
		if !ok {
			return 0, 0, false
		}
		return m.RealStartTime, m.RealEndTime, true
	}
	return 0, 0, false
}

func (s Source) MeasureDuration(n int) (float64, bool) {
	start, end, ok := s.Bounds(n)
	if !ok {
		return 0, false
	}
	return end - start, true
}

// End is the end of the last measure on the audio timeline.
func (s Source) End() float64 {
	switch s.Kind {
	case ConstantTempo, ScoreTempoMap:
		if nil != s.Tempo {
			return s.Tempo.Duration()
		}
	case ExternalBeatMap:
		if nil != s.Beats {
			return s.Beats.AudioEnd()
		}
	}
	return 0
}

func (s Source) MeasureCount() int {
	switch s.Kind {
	case ConstantTempo, ScoreTempoMap:
		if nil != s.Tempo {
			return len(s.Tempo.Measures)
		}
	case ExternalBeatMap:
		if nil != s.Beats {
			return len(s.Beats.Measures)
		}
	}
	return 0
}
