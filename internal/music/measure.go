package music

import (
	"fmt"
	"strconv"
	"strings"
)

type TimeSignature struct {
	Numerator   int
	Denominator int
}

var CommonTime = TimeSignature{Numerator: 4, Denominator: 4}

func (ts TimeSignature) String() string {
	return fmt.Sprintf("%d/%d", ts.Numerator, ts.Denominator)
}

func (ts TimeSignature) Valid() bool {
	return ts.Numerator > 0 && ts.Denominator > 0
}

func ParseTimeSignature(s string) (TimeSignature, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 {
		return TimeSignature{}, fmt.Errorf("unable to parse time signature %q", s)
	}
	n, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if nil != err {
		return TimeSignature{}, fmt.Errorf("unable to parse time signature %q: %w", s, err)
	}
	d, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if nil != err {
		return TimeSignature{}, fmt.Errorf("unable to parse time signature %q: %w", s, err)
	}
	return TimeSignature{Numerator: n, Denominator: d}, nil
}

type Measure struct {
	Number    int
	Signature *TimeSignature // nil when no signature is written in this measure
	Tempo     float64        // Quarter note BPM marking, 0 when unmarked
}

type TempoChange struct {
	Measure int
	Tempo   float64
}

// MeasureTiming is one measure placed on the absolute timeline, in seconds.
type MeasureTiming struct {
	Number          int
	Start           float64
	End             float64
	Duration        float64
	Tempo           float64
	EffectiveTempo  float64
	TimeSignature   string
	BeatsPerMeasure float64
	IsCountdown     bool
}
