package edit

import (
	"sort"
	"strings"

	"git.lost.host/meutraa/recut/internal/diag"
	"git.lost.host/meutraa/recut/internal/errs"
	"git.lost.host/meutraa/recut/internal/section"
)

const stage = "plan"

// Actions is the validated output of a command. Keep wins over Remove.
// A Keep list without a Remove list means keep only those sections.
type Actions struct {
	Keep   []string `json:"keep,omitempty"`
	Remove []string `json:"remove,omitempty"`
}

func (a Actions) KeepOnly() bool {
	return len(a.Keep) > 0 && len(a.Remove) == 0
}

func (a Actions) IsEmpty() bool {
	return len(a.Keep) == 0 && len(a.Remove) == 0
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// Check fails with SectionNotFound listing every name missing from timings.
func (a Actions) Check(timings section.Timings) error {
	missing := []string{}
	for _, names := range [][]string{a.Remove, a.Keep} {
		for _, n := range names {
			if _, ok := timings[n]; !ok && !contains(missing, n) {
				missing = append(missing, n)
			}
		}
	}
	if len(missing) > 0 {
		return errs.New(errs.SectionNotFound, "sections not found: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (a Actions) removes(name string) bool {
	if a.KeepOnly() {
		return !contains(a.Keep, name)
	}
	return contains(a.Remove, name) && !contains(a.Keep, name)
}

// Removed returns the sections this action cuts, in timeline order.
func (a Actions) Removed(timings section.Timings) []section.Timing {
	out := []section.Timing{}
	for _, t := range timings.Ordered() {
		if a.removes(t.Name) {
			out = append(out, t)
		}
	}
	return out
}

// Kept returns the sections that survive, in timeline order.
func (a Actions) Kept(timings section.Timings) []section.Timing {
	out := []section.Timing{}
	for _, t := range timings.Ordered() {
		if !a.removes(t.Name) {
			out = append(out, t)
		}
	}
	return out
}

// CutPoint is one excised region. CrossfadeBefore and CrossfadeAfter are
// the first and last removed sections of the cut. JoinBefore and JoinAfter
// are the surviving sections that meet across it, "" at either end.
type CutPoint struct {
	Start           float64  `json:"start"`
	End             float64  `json:"end"`
	CrossfadeBefore string   `json:"crossfade_before"`
	CrossfadeAfter  string   `json:"crossfade_after"`
	JoinBefore      string   `json:"join_before"`
	JoinAfter       string   `json:"join_after"`
	Sections        []string `json:"sections"`
}

func (c CutPoint) Duration() float64 {
	return c.End - c.Start
}

// group splits sorted timings into runs where each end exactly equals the
// following start.
func group(sorted []section.Timing) [][]section.Timing {
	groups := [][]section.Timing{}
	for i, t := range sorted {
		if i > 0 && sorted[i-1].End == t.Start {
			groups[len(groups)-1] = append(groups[len(groups)-1], t)
			continue
		}
		groups = append(groups, []section.Timing{t})
	}
	return groups
}

type Planner struct {
	Diag *diag.Collector
}

// Plan turns actions into the minimal list of validated cut points. A
// failed validation yields no cut points at all.
func (p *Planner) Plan(actions Actions, timings section.Timings) ([]CutPoint, error) {
	if err := actions.Check(timings); nil != err {
		return nil, err
	}

	removed := actions.Removed(timings)
	sort.SliceStable(removed, func(i, j int) bool { return removed[i].Start < removed[j].Start })

	ordered := timings.Ordered()
	position := make(map[string]int, len(ordered))
	for i, t := range ordered {
		position[t.Name] = i
	}
	survivor := func(from, step int) string {
		for i := from; i >= 0 && i < len(ordered); i += step {
			if !actions.removes(ordered[i].Name) {
				return ordered[i].Name
			}
		}
		return ""
	}

	cuts := []CutPoint{}
	for _, g := range group(removed) {
		first, last := g[0], g[len(g)-1]
		names := make([]string, len(g))
		for i, t := range g {
			names[i] = t.Name
		}
		cut := CutPoint{
			Start:           first.Start,
			End:             last.End,
			CrossfadeBefore: first.Name,
			CrossfadeAfter:  last.Name,
			JoinBefore:      survivor(position[first.Name]-1, -1),
			JoinAfter:       survivor(position[last.Name]+1, 1),
			Sections:        names,
		}
		p.Diag.Debugf(stage, "cut %.2fs to %.2fs removes %s", cut.Start, cut.End, strings.Join(names, " + "))
		cuts = append(cuts, cut)
	}

	if err := Validate(cuts, timings); nil != err {
		return nil, err
	}
	return cuts, nil
}

// Validate checks that no two cuts overlap and that every cut starts on a
// section start and ends on a section end. Comparisons are exact, the
// values all come from one resolver.
func Validate(cuts []CutPoint, timings section.Timings) error {
	sorted := make([]CutPoint, len(cuts))
	copy(sorted, cuts)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	for i := 1; i < len(sorted); i++ {
		if sorted[i].Start < sorted[i-1].End {
			return errs.New(errs.OverlapError, "cut %.3fs-%.3fs overlaps cut %.3fs-%.3fs",
				sorted[i].Start, sorted[i].End, sorted[i-1].Start, sorted[i-1].End)
		}
	}

	starts := make(map[float64]bool, len(timings))
	ends := make(map[float64]bool, len(timings))
	for _, t := range timings {
		starts[t.Start] = true
		ends[t.End] = true
	}
	for _, c := range sorted {
		if !starts[c.Start] {
			return errs.New(errs.AlignmentError, "cut start %.3fs is not on a section boundary", c.Start)
		}
		if !ends[c.End] {
			return errs.New(errs.AlignmentError, "cut end %.3fs is not on a section boundary", c.End)
		}
	}
	return nil
}
