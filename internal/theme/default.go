package theme

import (
	"fmt"
	"strings"

	"git.lost.host/meutraa/recut/internal/music"
)

type DefaultTheme struct {
}

func (t *DefaultTheme) SectionColor(name string) Color {
	col, ok := kindColors[music.SectionKind(name)]
	if !ok {
		return kindColors[""]
	}
	return col
}

func (t *DefaultTheme) RenderSection(name string, width int, removed bool) string {
	if width <= 0 {
		return ""
	}
	if removed {
		return fmt.Sprintf("\033[38;2;%v;%v;%vm%v\033[0m", removedColor.R, removedColor.G, removedColor.B, strings.Repeat(removedSym, width))
	}
	c := t.SectionColor(name)
	return fmt.Sprintf("\033[38;2;%v;%v;%vm%v\033[0m", c.R, c.G, c.B, strings.Repeat(sectionSym, width))
}

func (t *DefaultTheme) RenderBoundary() string {
	return boundarySym
}

const (
	sectionSym  = "█"
	removedSym  = "░"
	boundarySym = "│"
)

var (
	removedColor = Color{70, 70, 70}
	kindColors   = map[string]Color{
		"intro":      {0, 236, 128},   // green
		"verse":      {0, 118, 236},   // blue
		"pre-chorus": {106, 0, 236},   // purple
		"chorus":     {236, 30, 0},    // red
		"bridge":     {236, 195, 0},   // yellow
		"solo":       {236, 128, 0},   // orange
		"interlude":  {173, 236, 236}, // light blue
		"refrain":    {236, 0, 106},   // pink
		"outro":      {110, 147, 89},  // olive
		"coda":       {110, 147, 89},
		"ending":     {110, 147, 89},
		"":           {255, 255, 255}, // other white
	}
)
