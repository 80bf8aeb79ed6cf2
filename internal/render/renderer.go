package render

import (
	"git.lost.host/meutraa/recut/internal/diag"
	"git.lost.host/meutraa/recut/internal/edit"
	"git.lost.host/meutraa/recut/internal/section"
)

type Renderer interface {
	Sections(timings section.Timings)
	StructureBar(timings section.Timings, removed []string)
	Plan(cuts []edit.CutPoint)
	Contract(c *edit.Contract)
	Diagnostics(entries []diag.Entry)
}
