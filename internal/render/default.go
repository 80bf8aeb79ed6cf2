package render

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"golang.org/x/term"

	"git.lost.host/meutraa/recut/internal/diag"
	"git.lost.host/meutraa/recut/internal/edit"
	"git.lost.host/meutraa/recut/internal/section"
	"git.lost.host/meutraa/recut/internal/theme"
)

const fallbackWidth = 80

// TextRenderer writes tables and a coloured structure bar. A zero Width
// follows the terminal.
type TextRenderer struct {
	Out   io.Writer
	Theme theme.Theme
	Width int

	buffer strings.Builder
}

func (r *TextRenderer) width() int {
	if r.Width > 0 {
		return r.Width
	}
	fd := int(os.Stdout.Fd())
	if term.IsTerminal(fd) {
		if columns, _, err := term.GetSize(fd); nil == err && columns > 0 {
			return columns
		}
	}
	return fallbackWidth
}

func (r *TextRenderer) flush() {
	out := r.Out
	if nil == out {
		out = os.Stdout
	}
	io.WriteString(out, r.buffer.String())
	r.buffer.Reset()
}

// Clock formats seconds as m:ss.cc.
func Clock(seconds float64) string {
	sign := ""
	if seconds < 0 {
		sign, seconds = "-", -seconds
	}
	cs := int64(math.Round(seconds * 100))
	return fmt.Sprintf("%s%d:%02d.%02d", sign, cs/6000, cs/100%60, cs%100)
}

func (r *TextRenderer) Sections(timings section.Timings) {
	fmt.Fprintf(&r.buffer, "%-20s %8s %8s %9s %9s\n", "Section", "Measures", "", "Start", "End")
	for _, t := range timings.Ordered() {
		fmt.Fprintf(&r.buffer, "%-20s %4d-%-4d %8s %9s %9s\n",
			t.Name, t.StartMeasure, t.EndMeasure, Clock(t.Duration), Clock(t.Start), Clock(t.End))
	}
	r.flush()
}

func (r *TextRenderer) StructureBar(timings section.Timings, removed []string) {
	ordered := timings.Ordered()
	if len(ordered) == 0 {
		return
	}
	start, end := ordered[0].Start, ordered[0].End
	for _, t := range ordered {
		end = math.Max(end, t.End)
	}
	total := end - start
	cells := r.width() - len(ordered) - 1
	if total <= 0 || cells <= 0 {
		return
	}

	isRemoved := map[string]bool{}
	for _, n := range removed {
		isRemoved[n] = true
	}
	r.buffer.WriteString(r.Theme.RenderBoundary())
	for _, t := range ordered {
		w := int(math.Round(t.Duration / total * float64(cells)))
		if w < 1 && t.Duration > 0 {
			w = 1
		}
		r.buffer.WriteString(r.Theme.RenderSection(t.Name, w, isRemoved[t.Name]))
		r.buffer.WriteString(r.Theme.RenderBoundary())
	}
	r.buffer.WriteString("\n")
	r.flush()
}

func (r *TextRenderer) Plan(cuts []edit.CutPoint) {
	if len(cuts) == 0 {
		r.buffer.WriteString("Nothing to cut\n")
		r.flush()
		return
	}
	for i, c := range cuts {
		before, after := c.JoinBefore, c.JoinAfter
		if before == "" {
			before = "start"
		}
		if after == "" {
			after = "end"
		}
		fmt.Fprintf(&r.buffer, "%2d) cut %9s to %9s  %-30s %9s  %s -> %s\n",
			i+1, Clock(c.Start), Clock(c.End), strings.Join(c.Sections, " + "), Clock(c.Duration()), before, after)
	}
	r.flush()
}

func (r *TextRenderer) Contract(c *edit.Contract) {
	for i, iv := range c.Intervals {
		fmt.Fprintf(&r.buffer, "%2d) keep %-20s %9s to %9s  at %9s\n",
			i+1, iv.Section, Clock(iv.StartTime), Clock(iv.EndTime), Clock(iv.OutputStart))
	}
	for _, x := range c.Crossfades {
		join := "join"
		if x.Contiguous {
			join = "seam"
		}
		fmt.Fprintf(&r.buffer, "    crossfade %s %s -> %s over %.0fms\n", join, x.Before, x.After, x.Duration*1000)
	}
	if nil != c.FadeIn {
		fmt.Fprintf(&r.buffer, "    fade in  %s over %.2fs\n", c.FadeIn.Section, c.FadeIn.Duration)
	}
	if nil != c.FadeOut {
		fmt.Fprintf(&r.buffer, "    fade out %s over %.2fs\n", c.FadeOut.Section, c.FadeOut.Duration)
	}
	fmt.Fprintf(&r.buffer, "Output length %s\n", Clock(c.OutputDuration()))
	r.flush()
}

func (r *TextRenderer) Diagnostics(entries []diag.Entry) {
	for _, e := range entries {
		switch e.Level {
		case diag.Error:
			fmt.Fprintf(&r.buffer, "\033[1;31m%v\033[0m\n", e)
		case diag.Warn:
			fmt.Fprintf(&r.buffer, "\033[1;33m%v\033[0m\n", e)
		default:
			fmt.Fprintln(&r.buffer, e)
		}
	}
	r.flush()
}
