package timeline

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"

	"git.lost.host/meutraa/recut/internal/music"
)

// Span is a kept region of the source audio and where it lands in the
// edited output, all in seconds.
type Span struct {
	Start       float64
	End         float64
	OutputStart float64
}

// RemapBeats builds the tempo map of an edited performance. Every sample
// whose source position falls inside a span is moved to the output
// timeline, keeping its beat type. Spans are half open except the last,
// so the final beat of the recording survives. Beats are renumbered in output order
// starting from the first source beat number.
func (b *BeatTimeline) RemapBeats(spans []Span) []music.BeatSample {
	out := []music.BeatSample{}
	if len(b.Samples) == 0 {
		return out
	}
	for i, sp := range spans {
		last := i == len(spans)-1
		for _, s := range b.Samples {
			if s.RawTime < sp.Start || s.RawTime > sp.End || (s.RawTime == sp.End && !last) {
				continue
			}
			out = append(out, music.BeatSample{
				RawTime: sp.OutputStart + (s.RawTime - sp.Start),
				Type:    s.Type,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RawTime < out[j].RawTime })
	first := b.Samples[0].Beat
	for i := range out {
		out[i].Beat = first + float64(i)
	}
	return out
}

// WriteBeatMap writes samples in the tab separated tempo map format.
func WriteBeatMap(w io.Writer, samples []music.BeatSample) error {
	bw := bufio.NewWriter(w)
	for _, s := range samples {
		if _, err := fmt.Fprintf(bw, "%s\t%s\t%s\n",
			strconv.FormatFloat(s.Beat, 'f', -1, 64),
			strconv.FormatFloat(s.RawTime, 'f', 6, 64),
			s.Type,
		); nil != err {
			return err
		}
	}
	return bw.Flush()
}
