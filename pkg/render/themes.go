package render

import (
	"regexp"
	"strings"
)

// GraphvizThemes maps a theme name to the graph, node and edge attributes
// inserted at the top of the graph body.
var GraphvizThemes = map[string]string{
	"default":    `bgcolor="white"; fontname="Arial"; node [style="filled", fillcolor="#f5f5f5", color="#333333", fontname="Arial"]; edge [color="#666666", fontname="Arial"];`,
	"dark":       `bgcolor="#2d2d2d"; fontcolor="white"; fontname="Arial"; node [style="filled", fillcolor="#3d3d3d", color="#cccccc", fontcolor="white", fontname="Arial"]; edge [color="#999999", fontcolor="white", fontname="Arial"];`,
	"colorful":   `bgcolor="white"; fontname="Arial"; node [style="filled", color="#333333", fontname="Arial", colorscheme="set312"]; edge [colorscheme="set312", fontname="Arial"];`,
	"monochrome": `bgcolor="white"; fontname="Arial"; node [style="filled", fillcolor="#e6e6e6", color="#333333", fontname="Arial"]; edge [color="#999999", fontname="Arial"];`,
	"blueprint":  `bgcolor="#f0f8ff"; fontname="Arial"; node [style="filled", fillcolor="#d0e0f0", color="#4682b4", fontname="Arial"]; edge [color="#4682b4", fontname="Arial"];`,
}

// GraphvizThemeNames lists [GraphvizThemes] in menu order.
var GraphvizThemeNames = []string{"default", "dark", "colorful", "monochrome", "blueprint"}

// graphHeaderRe matches a graph header up to and including its opening
// brace. It is applied at the first token after leading comments.
var graphHeaderRe = regexp.MustCompile(`(?i)^(?:strict\s+)?(?:di)?graph\b[^{]*\{`)

// InjectTheme inserts the attributes of theme right after the first graph
// header in src. Attributes stated later in the body still win, since
// Graphviz applies the last assignment. Unknown themes and sources without a
// header are returned unchanged.
func InjectTheme(src, theme string) string {
	attrs, ok := GraphvizThemes[theme]
	if !ok {
		return src
	}
	start := skipComments(src)
	loc := graphHeaderRe.FindStringIndex(src[start:])
	if loc == nil {
		return src
	}
	end := start + loc[1]
	var b strings.Builder
	b.Grow(len(src) + len(attrs) + 4)
	b.WriteString(src[:end])
	b.WriteString("\n  ")
	b.WriteString(attrs)
	b.WriteString("\n")
	b.WriteString(src[end:])
	return b.String()
}

// skipComments returns the offset of the first byte of src that is neither
// whitespace nor inside a //, # or /* */ comment.
func skipComments(src string) int {
	i := 0
	for i < len(src) {
		switch {
		case src[i] == ' ' || src[i] == '\t' || src[i] == '\n' || src[i] == '\r':
			i++
		case strings.HasPrefix(src[i:], "//") || src[i] == '#':
			nl := strings.IndexByte(src[i:], '\n')
			if nl < 0 {
				return len(src)
			}
			i += nl + 1
		case strings.HasPrefix(src[i:], "/*"):
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				return len(src)
			}
			i += end + 4
		default:
			return i
		}
	}
	return i
}
