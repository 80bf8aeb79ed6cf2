package edit

import (
	"math"

	"git.lost.host/meutraa/recut/internal/errs"
	"git.lost.host/meutraa/recut/internal/music"
	"git.lost.host/meutraa/recut/internal/section"
	"git.lost.host/meutraa/recut/internal/timeline"
)

const (
	DefaultCrossfade = 0.020
	DefaultFade      = 0.500
	TerminalFade     = 2.000

	fadeMeasures = 2
)

// KeepInterval is a region of source audio that survives the edit.
// OriginalStart and OriginalEnd are the section bounds before any fade
// widening. OutputStart is where StartTime lands in the spliced result.
type KeepInterval struct {
	Section       string  `json:"section"`
	StartTime     float64 `json:"start_time"`
	EndTime       float64 `json:"end_time"`
	OriginalStart float64 `json:"original_start"`
	OriginalEnd   float64 `json:"original_end"`
	StartMeasure  int     `json:"start_measure"`
	EndMeasure    int     `json:"end_measure"`
	OutputStart   float64 `json:"output_start"`
}

func (k KeepInterval) Length() float64 {
	return k.EndTime - k.StartTime
}

// Crossfade overlays the tail of Before with the head of After using
// equal power gains.
type Crossfade struct {
	Before     string  `json:"before"`
	After      string  `json:"after"`
	Duration   float64 `json:"duration"`
	Contiguous bool    `json:"contiguous"` // The pair was adjacent before the edit
}

// Fade is a linear ramp at the very start or end of the output.
type Fade struct {
	Section  string  `json:"section"`
	Duration float64 `json:"duration"`
	Margin   float64 `json:"margin"` // How far the interval was widened
}

type Options struct {
	FadeIn        bool
	FadeOut       bool
	Crossfade     float64 // Seconds, DefaultCrossfade when zero
	TotalDuration float64 // Audio length, the source's end when zero
}

// Contract is everything an audio backend needs to apply an edit.
type Contract struct {
	Intervals  []KeepInterval `json:"intervals"`
	Crossfades []Crossfade    `json:"crossfades"`
	FadeIn     *Fade          `json:"fade_in,omitempty"`
	FadeOut    *Fade          `json:"fade_out,omitempty"`
}

// OutputDuration is the length of the spliced result in seconds.
func (c *Contract) OutputDuration() float64 {
	if len(c.Intervals) == 0 {
		return 0
	}
	last := c.Intervals[len(c.Intervals)-1]
	return last.OutputStart + last.Length()
}

// JoinPoints are the output positions where consecutive intervals meet,
// the start of each crossfade.
func (c *Contract) JoinPoints() []float64 {
	points := []float64{}
	for i := 1; i < len(c.Intervals); i++ {
		points = append(points, c.Intervals[i].OutputStart)
	}
	return points
}

// Spans maps each interval onto the output timeline.
func (c *Contract) Spans() []timeline.Span {
	spans := make([]timeline.Span, len(c.Intervals))
	for i, iv := range c.Intervals {
		spans[i] = timeline.Span{Start: iv.StartTime, End: iv.EndTime, OutputStart: iv.OutputStart}
	}
	return spans
}

// margin sums the durations of the fadeMeasures measures next to measure n
// in direction step. A measure outside the table counts as long as n.
func margin(source timeline.Source, n, step int) float64 {
	own, ok := source.MeasureDuration(n)
	if !ok {
		return 0
	}
	total := 0.0
	for i := 1; i <= fadeMeasures; i++ {
		if d, ok := source.MeasureDuration(n + i*step); ok {
			total += d
		} else {
			total += own
		}
	}
	return total
}

// BuildContract lists the surviving sections in timeline order with the
// fades and crossfades needed to join them.
func BuildContract(actions Actions, timings section.Timings, source timeline.Source, opts Options) (*Contract, error) {
	if err := actions.Check(timings); nil != err {
		return nil, err
	}
	kept := actions.Kept(timings)
	if len(kept) == 0 {
		return nil, errs.New(errs.EmptyEdit, "nothing left to keep")
	}

	crossfade := opts.Crossfade
	if crossfade <= 0 {
		crossfade = DefaultCrossfade
	}
	total := opts.TotalDuration
	if total <= 0 {
		total = source.End()
	}

	c := &Contract{
		Intervals:  make([]KeepInterval, len(kept)),
		Crossfades: []Crossfade{},
	}
	for i, t := range kept {
		c.Intervals[i] = KeepInterval{
			Section:       t.Name,
			StartTime:     t.Start,
			EndTime:       t.End,
			OriginalStart: t.Start,
			OriginalEnd:   t.End,
			StartMeasure:  t.StartMeasure,
			EndMeasure:    t.EndMeasure,
		}
	}

	if opts.FadeIn {
		first := &c.Intervals[0]
		first.StartTime = math.Max(0, first.StartTime-margin(source, first.StartMeasure, -1))
		widened := first.OriginalStart - first.StartTime
		fade := &Fade{Section: first.Section, Margin: widened, Duration: widened}
		if widened <= 0 {
			fade.Duration = DefaultFade
		}
		fade.Duration = math.Min(fade.Duration, first.Length())
		c.FadeIn = fade
	}

	if opts.FadeOut {
		last := &c.Intervals[len(c.Intervals)-1]
		terminal := music.IsTerminal(last.Section)
		if terminal {
			last.EndTime = math.Max(last.EndTime, total)
		} else {
			last.EndTime = math.Min(total, last.EndTime+margin(source, last.EndMeasure, 1))
			last.EndTime = math.Max(last.EndTime, last.OriginalEnd)
		}
		widened := last.EndTime - last.OriginalEnd
		fade := &Fade{Section: last.Section, Margin: widened, Duration: widened}
		switch {
		case terminal && widened > 0:
			fade.Duration = math.Min(TerminalFade, widened)
		case terminal:
			fade.Duration = TerminalFade
		case widened <= 0:
			fade.Duration = DefaultFade
		}
		fade.Duration = math.Min(fade.Duration, last.Length())
		c.FadeOut = fade
	}

	for i := 1; i < len(c.Intervals); i++ {
		prev, next := &c.Intervals[i-1], &c.Intervals[i]
		d := math.Min(crossfade, math.Min(prev.Length(), next.Length()))
		c.Crossfades = append(c.Crossfades, Crossfade{
			Before:     prev.Section,
			After:      next.Section,
			Duration:   d,
			Contiguous: prev.OriginalEnd == next.OriginalStart,
		})
		next.OutputStart = prev.OutputStart + prev.Length() - d
	}

	return c, nil
}
