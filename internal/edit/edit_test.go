package edit

import (
	"math"
	"strings"
	"testing"

	"git.lost.host/meutraa/recut/internal/diag"
	"git.lost.host/meutraa/recut/internal/errs"
	"git.lost.host/meutraa/recut/internal/music"
	"git.lost.host/meutraa/recut/internal/section"
	"git.lost.host/meutraa/recut/internal/testdata"
	"git.lost.host/meutraa/recut/internal/timeline"
)

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func scenario(t *testing.T) (section.Timings, timeline.Source) {
	score, err := testdata.GetScore()
	if nil != err {
		t.Fatalf("unable to load score: %v", err)
	}
	tl, err := timeline.BuildTempoTimeline(score.Measures, score.Signature, timeline.TempoChanges(score.Measures, timeline.DefaultTempo))
	if nil != err {
		t.Fatalf("unable to build timeline: %v", err)
	}
	src := timeline.FromTempo(timeline.ConstantTempo, tl)
	return section.NewResolver(src, score.Sections, diag.Discard()).ResolveAll(), src
}

// flat builds adjacent sections of the given lengths starting at zero.
func flat(names ...string) section.Timings {
	timings := section.Timings{}
	for i, n := range names {
		timings[n] = section.Timing{
			Name:         n,
			Start:        float64(i * 10),
			End:          float64(i*10 + 10),
			Duration:     10,
			StartMeasure: i*4 + 1,
			EndMeasure:   i*4 + 4,
		}
	}
	return timings
}

func names(ts []section.Timing) string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Name
	}
	return strings.Join(out, ",")
}

func TestKeepPrecedence(t *testing.T) {
	timings := flat("A", "B", "C", "D")
	actions := Actions{Remove: []string{"A", "B", "C"}, Keep: []string{"B"}}
	if kept := names(actions.Kept(timings)); kept != "B,D" {
		t.Log("kept", kept)
		t.Fail()
	}
	if removed := names(actions.Removed(timings)); removed != "A,C" {
		t.Log("removed", removed)
		t.Fail()
	}

	cuts, err := (&Planner{}).Plan(actions, timings)
	if nil != err {
		t.Fatal(err)
	}
	if len(cuts) != 2 || cuts[0].Start != 0 || cuts[0].End != 10 || cuts[1].Start != 20 || cuts[1].End != 30 {
		t.Log(cuts)
		t.Fail()
	}
}

func TestKeepOnly(t *testing.T) {
	timings := flat("A", "B", "C", "D")
	actions := Actions{Keep: []string{"B", "C"}}
	if !actions.KeepOnly() || names(actions.Kept(timings)) != "B,C" {
		t.Fail()
	}
	cuts, err := (&Planner{}).Plan(actions, timings)
	if nil != err {
		t.Fatal(err)
	}
	if len(cuts) != 2 || cuts[0].JoinAfter != "B" || cuts[1].JoinBefore != "C" ||
		cuts[0].CrossfadeBefore != "A" || cuts[1].CrossfadeAfter != "D" {
		t.Log(cuts)
		t.Fail()
	}
}

func TestScenarioPlan(t *testing.T) {
	timings, src := scenario(t)
	actions := Actions{Remove: []string{"Intro", "Verse2"}}
	cuts, err := (&Planner{Diag: diag.Discard()}).Plan(actions, timings)
	if nil != err {
		t.Fatal(err)
	}
	if len(cuts) != 2 {
		t.Fatalf("expected 2 cuts, got %v", cuts)
	}
	if !near(cuts[0].Start, 0) || !near(cuts[0].End, 9.6) || !near(cuts[1].Start, 48) || !near(cuts[1].End, 67.2) {
		t.Log(cuts)
		t.Fail()
	}
	if cuts[0].CrossfadeBefore != "Intro" || cuts[0].CrossfadeAfter != "Intro" || cuts[1].CrossfadeBefore != "Verse2" || cuts[1].CrossfadeAfter != "Verse2" {
		t.Log(cuts)
		t.Fail()
	}
	if cuts[0].JoinBefore != "" || cuts[0].JoinAfter != "Verse1" || cuts[1].JoinBefore != "Chorus1" || cuts[1].JoinAfter != "" {
		t.Log(cuts)
		t.Fail()
	}

	c, err := BuildContract(actions, timings, src, Options{})
	if nil != err {
		t.Fatal(err)
	}
	if len(c.Intervals) != 2 || c.Intervals[0].Section != "Verse1" || c.Intervals[1].Section != "Chorus1" {
		t.Fatal(c.Intervals)
	}
	if len(c.Crossfades) != 1 || !c.Crossfades[0].Contiguous || c.Crossfades[0].Duration != DefaultCrossfade {
		t.Log(c.Crossfades)
		t.Fail()
	}
	if !near(c.Intervals[1].OutputStart, 19.2-DefaultCrossfade) || !near(c.OutputDuration(), 38.4-DefaultCrossfade) {
		t.Log(c.Intervals[1].OutputStart, c.OutputDuration())
		t.Fail()
	}
	if nil != c.FadeIn || nil != c.FadeOut {
		t.Fail()
	}
}

func TestContiguousRemovesMerge(t *testing.T) {
	timings := flat("A", "B", "C", "D", "E")
	cuts, err := (&Planner{}).Plan(Actions{Remove: []string{"D", "B", "C"}}, timings)
	if nil != err {
		t.Fatal(err)
	}
	if len(cuts) != 1 {
		t.Fatalf("expected one merged cut, got %v", cuts)
	}
	c := cuts[0]
	if c.Start != 10 || c.End != 40 || strings.Join(c.Sections, ",") != "B,C,D" {
		t.Log(c)
		t.Fail()
	}
	// The crossfade names are the removed edges, the joins are the survivors.
	if c.CrossfadeBefore != "B" || c.CrossfadeAfter != "D" || c.JoinBefore != "A" || c.JoinAfter != "E" {
		t.Log(c)
		t.Fail()
	}
}

func TestPlanFailures(t *testing.T) {
	timings := flat("A", "B")
	_, err := (&Planner{}).Plan(Actions{Remove: []string{"A", "Bridge", "Solo"}}, timings)
	if !errs.Is(err, errs.SectionNotFound) || !strings.Contains(err.Error(), "Bridge, Solo") {
		t.Log(err)
		t.Fail()
	}

	overlapping := section.Timings{
		"A": {Name: "A", Start: 0, End: 12},
		"B": {Name: "B", Start: 10, End: 20},
	}
	cuts, err := (&Planner{}).Plan(Actions{Remove: []string{"A", "B"}}, overlapping)
	if !errs.Is(err, errs.OverlapError) || nil != cuts {
		t.Log(cuts, err)
		t.Fail()
	}

	cuts, err = (&Planner{}).Plan(Actions{}, timings)
	if nil != err || len(cuts) != 0 {
		t.Log(cuts, err)
		t.Fail()
	}
}

func TestValidateAlignment(t *testing.T) {
	timings := flat("A", "B", "C")
	err := Validate([]CutPoint{{Start: 10, End: 15}}, timings)
	if !errs.Is(err, errs.AlignmentError) {
		t.Log(err)
		t.Fail()
	}
	err = Validate([]CutPoint{{Start: 12, End: 20}}, timings)
	if !errs.Is(err, errs.AlignmentError) {
		t.Log(err)
		t.Fail()
	}
	err = Validate([]CutPoint{{Start: 20, End: 30}, {Start: 0, End: 10}}, timings)
	if nil != err {
		t.Log(err)
		t.Fail()
	}
	err = Validate([]CutPoint{{Start: 0, End: 20}, {Start: 10, End: 30}}, timings)
	if !errs.Is(err, errs.OverlapError) {
		t.Log(err)
		t.Fail()
	}
}

func TestEmptyEdit(t *testing.T) {
	timings, src := scenario(t)
	_, err := BuildContract(Actions{Remove: timings.Names()}, timings, src, Options{})
	if !errs.Is(err, errs.EmptyEdit) {
		t.Log(err)
		t.Fail()
	}
}

func TestFadeWidening(t *testing.T) {
	timings, src := scenario(t)
	c, err := BuildContract(Actions{Keep: []string{"Verse1", "Chorus1"}}, timings, src, Options{FadeIn: true, FadeOut: true})
	if nil != err {
		t.Fatal(err)
	}
	first, last := c.Intervals[0], c.Intervals[1]
	if !near(first.StartTime, 9.6-4.8) || !near(first.OriginalStart, 9.6) || !near(c.FadeIn.Duration, 4.8) {
		t.Log(first, c.FadeIn)
		t.Fail()
	}
	if !near(last.EndTime, 48+4.8) || !near(c.FadeOut.Duration, 4.8) || !near(c.FadeOut.Margin, 4.8) {
		t.Log(last, c.FadeOut)
		t.Fail()
	}
}

func TestFadeClamping(t *testing.T) {
	timings, src := scenario(t)
	c, err := BuildContract(Actions{Keep: []string{"Intro", "Verse2"}}, timings, src, Options{FadeIn: true, FadeOut: true})
	if nil != err {
		t.Fatal(err)
	}
	if c.Intervals[0].StartTime != 0 || c.FadeIn.Duration != DefaultFade || c.FadeIn.Margin != 0 {
		t.Log(c.Intervals[0], c.FadeIn)
		t.Fail()
	}
	if c.Intervals[1].EndTime != src.End() || c.FadeOut.Duration != DefaultFade {
		t.Log(c.Intervals[1], c.FadeOut)
		t.Fail()
	}
	if c.Crossfades[0].Contiguous {
		t.Log("Intro and Verse2 were not adjacent")
		t.Fail()
	}
}

func TestOutroSnapsToEnd(t *testing.T) {
	measures := []music.Measure{}
	for i := 1; i <= 12; i++ {
		measures = append(measures, music.Measure{Number: i})
	}
	tl, err := timeline.BuildTempoTimeline(measures, nil, []music.TempoChange{{Measure: 1, Tempo: 120}})
	if nil != err {
		t.Fatal(err)
	}
	src := timeline.FromTempo(timeline.ConstantTempo, tl)
	timings := section.NewResolver(src, []music.Section{
		{Name: "Verse", StartMeasure: 1, EndMeasure: 4},
		{Name: "Chorus", StartMeasure: 5, EndMeasure: 8},
		{Name: "Outro", StartMeasure: 9, EndMeasure: 10},
	}, diag.Discard()).ResolveAll()

	c, err := BuildContract(Actions{Remove: []string{"Chorus"}}, timings, src, Options{FadeOut: true, TotalDuration: 30})
	if nil != err {
		t.Fatal(err)
	}
	last := c.Intervals[len(c.Intervals)-1]
	if last.EndTime != 30 || c.FadeOut.Duration != TerminalFade || c.FadeOut.Margin != 10 {
		t.Log(last, c.FadeOut)
		t.Fail()
	}

	c, err = BuildContract(Actions{Remove: []string{"Chorus"}}, timings, src, Options{FadeOut: true, TotalDuration: 20.5})
	if nil != err {
		t.Fatal(err)
	}
	if c.FadeOut.Duration != 0.5 {
		t.Log(c.FadeOut)
		t.Fail()
	}

	c, err = BuildContract(Actions{Remove: []string{"Chorus"}}, timings, src, Options{FadeOut: true, TotalDuration: 20})
	if nil != err {
		t.Fatal(err)
	}
	if c.FadeOut.Duration != TerminalFade || c.FadeOut.Margin != 0 {
		t.Log(c.FadeOut)
		t.Fail()
	}
}

func TestSpans(t *testing.T) {
	timings := flat("A", "B", "C")
	src := timeline.Source{Kind: timeline.ConstantTempo}
	c, err := BuildContract(Actions{Remove: []string{"B"}}, timings, src, Options{Crossfade: 0.5, TotalDuration: 30})
	if nil != err {
		t.Fatal(err)
	}
	spans := c.Spans()
	if len(spans) != 2 || spans[1].Start != 20 || spans[1].OutputStart != 9.5 || c.OutputDuration() != 19.5 {
		t.Log(spans, c.OutputDuration())
		t.Fail()
	}
	if joins := c.JoinPoints(); len(joins) != 1 || joins[0] != 9.5 {
		t.Log(joins)
		t.Fail()
	}
}
