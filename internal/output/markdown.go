package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
)

// MarkdownWriter outputs the result as a markdown document. With Render set
// the document is rendered for the terminal with glamour.
type MarkdownWriter struct {
	Render bool
	Width  int
	// Style is a glamour standard style name; empty selects auto.
	Style string
}

func (m *MarkdownWriter) Write(w io.Writer, res *Result) error {
	doc := Markdown(res)
	if m.Render {
		rendered, err := RenderMarkdown(doc, m.Width, m.Style)
		if err != nil {
			return err
		}
		doc = rendered
	}
	_, err := io.WriteString(w, doc)
	return err
}

// Markdown builds the markdown document for a result.
func Markdown(res *Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s: %s\n\n", res.Mode.Label(), res.Language)

	var meta []string
	if res.Source != "" {
		meta = append(meta, "`"+res.Source+"`")
	}
	if res.Provider != "" {
		meta = append(meta, res.Provider)
	}
	if res.Cached {
		meta = append(meta, "cached")
	}
	if res.Elapsed > 0 {
		meta = append(meta, fmt.Sprintf("%dms", res.Elapsed.Milliseconds()))
	}
	if len(meta) > 0 {
		fmt.Fprintf(&b, "_%s_\n\n", strings.Join(meta, " · "))
	}

	b.WriteString(strings.TrimSpace(res.Feedback))
	b.WriteString("\n")
	return b.String()
}

// RenderMarkdown renders markdown for a terminal of the given width. Style
// is "dark", "light" or empty for auto detection.
func RenderMarkdown(md string, width int, style string) (string, error) {
	if width <= 0 {
		width = 80
	}
	styleOpt := glamour.WithAutoStyle()
	if style != "" {
		styleOpt = glamour.WithStandardStyle(style)
	}
	r, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
	if err != nil {
		return "", fmt.Errorf("creating markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return out, nil
}
