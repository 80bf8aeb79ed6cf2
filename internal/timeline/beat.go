package timeline

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"git.lost.host/meutraa/recut/internal/errs"
	"git.lost.host/meutraa/recut/internal/music"
)

type BeatTimeline struct {
	Samples  []music.BeatSample // Sorted by beat
	Measures []music.MeasureMapEntry

	InitialOffset float64 // Raw time of the first row
	TotalDuration float64 // Adjusted time of the last row

	adjusted []float64
	index    map[int]int
}

// ParseBeatMap reads tab separated beat, time, type rows without a header.
func ParseBeatMap(r io.Reader) ([]music.BeatSample, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	samples := []music.BeatSample{}
	invalid := []string{}
	seenInvalid := map[string]bool{}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if nil != err {
			return nil, errs.Wrap(errs.InvalidDataTypes, err, "unable to read tempo map")
		}
		line, _ := cr.FieldPos(0)
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		if len(record) < 3 {
			return nil, errs.New(errs.MissingColumns, "invalid tempo file format, line %d has %d of 3 columns", line, len(record))
		}
		beat, err := strconv.ParseFloat(strings.TrimSpace(record[0]), 64)
		if nil != err {
			return nil, errs.New(errs.InvalidDataTypes, "invalid beat %q on line %d", record[0], line)
		}
		raw, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if nil != err {
			return nil, errs.New(errs.InvalidDataTypes, "invalid time %q on line %d", record[1], line)
		}
		bt, ok := music.ParseBeatType(record[2])
		if !ok {
			v := strings.ToLower(strings.TrimSpace(record[2]))
			if !seenInvalid[v] {
				seenInvalid[v] = true
				invalid = append(invalid, v)
			}
			continue
		}
		samples = append(samples, music.BeatSample{Beat: beat, RawTime: raw, Type: bt})
	}

	if len(invalid) > 0 {
		return nil, errs.New(errs.InvalidBeatType, "beat types must be 's', 'w', or 'l', found %q", invalid)
	}
	if len(samples) == 0 {
		return nil, errs.New(errs.EmptyFile, "empty tempo file")
	}
	return samples, nil
}

func LoadBeatTimeline(file string) (*BeatTimeline, error) {
	f, err := os.Open(file)
	if nil != err {
		return nil, errs.Wrap(errs.ScoreSource, err, "unable to open tempo map %s", file)
	}
	defer f.Close()

	samples, err := ParseBeatMap(f)
	if nil != err {
		return nil, err
	}
	return BuildBeatTimeline(samples)
}

// BuildBeatTimeline derives one measure per pair of consecutive strong
// beats. The final measure runs from the last strong beat to the last sample.
// The offset and total duration come from the first and last rows as given,
// measures from the samples sorted by beat.
func BuildBeatTimeline(samples []music.BeatSample) (*BeatTimeline, error) {
	if len(samples) == 0 {
		return nil, errs.New(errs.EmptyFile, "empty tempo file")
	}

	sorted := make([]music.BeatSample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Beat < sorted[j].Beat })

	strong := []int{}
	for i, s := range sorted {
		if s.Type == music.Strong {
			strong = append(strong, i)
		}
	}
	if len(strong) == 0 {
		return nil, errs.New(errs.NoStrongBeats, "no strong beats found in tempo file")
	}

	b := &BeatTimeline{
		Samples:       sorted,
		InitialOffset: samples[0].RawTime,
		adjusted:      make([]float64, len(sorted)),
		index:         map[int]int{},
	}
	for i, s := range sorted {
		b.adjusted[i] = s.RawTime - b.InitialOffset
	}
	b.TotalDuration = samples[len(samples)-1].RawTime - b.InitialOffset

	last := len(sorted) - 1
	for k, si := range strong {
		// Samples from si up to, not including, the next strong beat.
		ei := last
		end := b.adjusted[last]
		if k+1 < len(strong) {
			next := sorted[strong[k+1]].Beat
			end = b.adjusted[strong[k+1]]
			ei = si
			for ei+1 < len(sorted) && sorted[ei+1].Beat < next {
				ei++
			}
		}

		start := b.adjusted[si]
		entry := music.MeasureMapEntry{
			Number:        k + 1,
			StartBeat:     sorted[si].Beat,
			EndBeat:       sorted[ei].Beat,
			StartTime:     start,
			EndTime:       end,
			RealStartTime: start + b.InitialOffset,
			RealEndTime:   end + b.InitialOffset,
			Duration:      end - start,
			Tempo:         b.averageTempo(si, ei),
		}
		b.index[entry.Number] = len(b.Measures)
		b.Measures = append(b.Measures, entry)
	}

	return b, nil
}

// averageTempo is 60 over the mean interval between samples from..to.
func (b *BeatTimeline) averageTempo(from, to int) float64 {
	if to-from < 1 {
		return 0
	}
	sum := 0.0
	for i := from; i < to; i++ {
		sum += b.adjusted[i+1] - b.adjusted[i]
	}
	avg := sum / float64(to-from)
	if avg <= 0 {
		return 0
	}
	return 60 / avg
}

func (b *BeatTimeline) Measure(n int) (music.MeasureMapEntry, bool) {
	i, ok := b.index[n]
	if !ok {
		return music.MeasureMapEntry{}, false
	}
	return b.Measures[i], true
}

// AdjustedDuration is only meaningful as a diagnostic, TotalDuration has
// already had the offset removed.
func (b *BeatTimeline) AdjustedDuration() float64 {
	return b.TotalDuration - b.InitialOffset
}

// AudioEnd is the position of the last sample in the audio file.
func (b *BeatTimeline) AudioEnd() float64 {
	return b.TotalDuration + b.InitialOffset
}

// BeatTime returns the adjusted time of the first sample with this beat.
func (b *BeatTimeline) BeatTime(beat float64) (float64, bool) {
	for i, s := range b.Samples {
		if s.Beat == beat {
			return b.adjusted[i], true
		}
	}
	return 0, false
}

func (b *BeatTimeline) StrongBeats() []float64 {
	out := []float64{}
	for _, s := range b.Samples {
		if s.Type == music.Strong {
			out = append(out, s.Beat)
		}
	}
	return out
}

func (b *BeatTimeline) NearestStrongBeat(beat float64) (float64, bool) {
	best, found := 0.0, false
	for _, s := range b.StrongBeats() {
		if !found || abs(s-beat) < abs(best-beat) {
			best, found = s, true
		}
	}
	return best, found
}

// TempoChanges lists every measure whose tempo could be measured.
func (b *BeatTimeline) TempoChanges() []music.TempoChange {
	out := []music.TempoChange{}
	for _, m := range b.Measures {
		if m.Tempo > 0 {
			out = append(out, music.TempoChange{Measure: m.Number, Tempo: m.Tempo})
		}
	}
	return out
}

func (b *BeatTimeline) TempoRange() string {
	lo, hi, found := 0.0, 0.0, false
	for _, m := range b.Measures {
		if m.Tempo <= 0 {
			continue
		}
		if !found || m.Tempo < lo {
			lo = m.Tempo
		}
		if !found || m.Tempo > hi {
			hi = m.Tempo
		}
		found = true
	}
	if !found {
		return "Unknown"
	}
	if lo == hi {
		return fmt.Sprintf("%.1f BPM", lo)
	}
	return fmt.Sprintf("%.1f - %.1f BPM", lo, hi)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
