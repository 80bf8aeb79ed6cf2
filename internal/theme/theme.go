package theme

type Color struct {
	R, G, B uint8
}

type Theme interface {
	SectionColor(name string) Color
	// RenderSection paints width cells of a structure bar for a section.
	RenderSection(name string, width int, removed bool) string
	RenderBoundary() string
}
