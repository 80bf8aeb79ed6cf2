package testdata

import (
	"encoding/json"
	"fmt"
	"strings"

	"git.lost.host/meutraa/recut/internal/music"
)

// GetScore returns a four section song, 28 measures of 4/4 at 100 BPM.
// Every measure lasts 2.4 seconds.
func GetScore() (*music.Score, error) {
	var score music.Score
	if err := json.Unmarshal([]byte(data), &score); nil != err {
		return nil, err
	}
	for i := 1; i <= 28; i++ {
		m := music.Measure{Number: i}
		if i == 1 {
			ts := music.CommonTime
			m.Signature = &ts
			m.Tempo = 100
		}
		score.Measures = append(score.Measures, m)
	}
	return &score, nil
}

// BeatMap is 16 beats of 4/4 at 120 BPM, the first beat half a second
// into the audio. Strong beats at 1, 5, 9 and 13 give four measures.
func BeatMap() string {
	var sb strings.Builder
	for i := 1; i <= 16; i++ {
		t := "w"
		if i%4 == 1 {
			t = "s"
		}
		fmt.Fprintf(&sb, "%d\t%.3f\t%s\n", i, 0.5+float64(i-1)*0.5, t)
	}
	return sb.String()
}

const data = `{
	"Title": "Scenario",
	"KeySignature": "C major",
	"Sections": [
		{"Name": "Intro", "StartMeasure": 1, "EndMeasure": 4},
		{"Name": "Verse1", "StartMeasure": 5, "EndMeasure": 12},
		{"Name": "Chorus1", "StartMeasure": 13, "EndMeasure": 20},
		{"Name": "Verse2", "StartMeasure": 21, "EndMeasure": 28}
	]
}`
