package section

import (
	"sort"

	"git.lost.host/meutraa/recut/internal/diag"
	"git.lost.host/meutraa/recut/internal/music"
	"git.lost.host/meutraa/recut/internal/timeline"
)

const stage = "sections"

// Timing is a section placed on the audio timeline, in seconds.
type Timing struct {
	Name         string
	Start        float64
	End          float64
	Duration     float64
	StartMeasure int
	EndMeasure   int
}

// Timings maps a section name to its resolved position.
type Timings map[string]Timing

// Ordered returns every timing sorted by start time.
func (t Timings) Ordered() []Timing {
	out := make([]Timing, 0, len(t))
	for _, v := range t {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		if out[i].StartMeasure != out[j].StartMeasure {
			return out[i].StartMeasure < out[j].StartMeasure
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Names are the section names in timeline order.
func (t Timings) Names() []string {
	ordered := t.Ordered()
	names := make([]string, len(ordered))
	for i, v := range ordered {
		names[i] = v.Name
	}
	return names
}

type Resolver struct {
	source   timeline.Source
	sections []music.Section
	diag     *diag.Collector
	timings  Timings
}

// NewResolver resolves every section against the source straight away.
// Sections that cannot be placed are dropped with a warning.
func NewResolver(source timeline.Source, sections []music.Section, d *diag.Collector) *Resolver {
	r := &Resolver{source: source, sections: sections, diag: d}
	r.rebuild()
	return r
}

func (r *Resolver) rebuild() {
	r.timings = Timings{}
	kept := []music.Section{}
	for _, s := range r.sections {
		if music.IsSnippetMarker(s.Name) {
			r.diag.Debugf(stage, "ignoring snippet marker %q", s.Name)
			continue
		}
		if _, dup := r.timings[s.Name]; dup {
			r.diag.Warnf(stage, "section %q is defined more than once, keeping the first", s.Name)
			continue
		}
		if s.EndMeasure < s.StartMeasure {
			r.diag.Warnf(stage, "section %q ends at measure %d before it starts at %d", s.Name, s.EndMeasure, s.StartMeasure)
			continue
		}
		start, _, ok := r.source.Bounds(s.StartMeasure)
		if !ok {
			r.diag.Warnf(stage, "section %q starts at measure %d which is not in the %v", s.Name, s.StartMeasure, r.source.Kind)
			continue
		}
		_, end, ok := r.source.Bounds(s.EndMeasure)
		if !ok {
			r.diag.Warnf(stage, "section %q ends at measure %d which is not in the %v", s.Name, s.EndMeasure, r.source.Kind)
			continue
		}
		for _, k := range kept {
			if k.Overlaps(s) {
				r.diag.Warnf(stage, "section %q (%d-%d) overlaps %q (%d-%d)", s.Name, s.StartMeasure, s.EndMeasure, k.Name, k.StartMeasure, k.EndMeasure)
			}
		}
		kept = append(kept, s)
		r.timings[s.Name] = Timing{
			Name:         s.Name,
			Start:        start,
			End:          end,
			Duration:     end - start,
			StartMeasure: s.StartMeasure,
			EndMeasure:   s.EndMeasure,
		}
	}
	r.diag.Debugf(stage, "resolved %d of %d sections using the %v", len(r.timings), len(r.sections), r.source.Kind)
}

// SetSource swaps the timing source and re-resolves every section.
func (r *Resolver) SetSource(source timeline.Source) {
	r.source = source
	r.rebuild()
}

func (r *Resolver) Source() timeline.Source {
	return r.source
}

func (r *Resolver) Resolve(name string) (Timing, bool) {
	t, ok := r.timings[name]
	return t, ok
}

// ResolveAll returns a copy, callers may not modify the resolver's table.
func (r *Resolver) ResolveAll() Timings {
	out := make(Timings, len(r.timings))
	for k, v := range r.timings {
		out[k] = v
	}
	return out
}
