package music

import "strings"

type BeatType string

const (
	Strong BeatType = "s"
	Weak   BeatType = "w"
	Light  BeatType = "l"
)

// ParseBeatType accepts the tempo map column after trimming and lowercasing.
func ParseBeatType(s string) (BeatType, bool) {
	switch BeatType(strings.ToLower(strings.TrimSpace(s))) {
	case Strong:
		return Strong, true
	case Weak:
		return Weak, true
	case Light:
		return Light, true
	}
	return "", false
}

type BeatSample struct {
	Beat    float64
	RawTime float64 // Seconds as written in the tempo map
	Type    BeatType
}

// MeasureMapEntry is one measure derived from two consecutive strong beats.
// StartTime and EndTime are relative to the first sample of the tempo map,
// the Real variants are positions in the audio file.
type MeasureMapEntry struct {
	Number        int
	StartBeat     float64
	EndBeat       float64
	StartTime     float64
	EndTime       float64
	RealStartTime float64
	RealEndTime   float64
	Duration      float64
	Tempo         float64 // 0 when it could not be measured
}
