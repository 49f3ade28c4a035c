package output

import (
	"fmt"
	"io"
	"strings"
)

// TextWriter outputs plain text with a short header.
type TextWriter struct{}

func (t *TextWriter) Write(w io.Writer, res *Result) error {
	ew := &errWriter{w: w}

	ew.printf("coreview %s (%s)\n", strings.ToLower(res.Mode.Label()), res.Language)
	if res.Source != "" {
		ew.printf("Source: %s\n", res.Source)
	}
	if res.Provider != "" {
		ew.printf("Provider: %s", res.Provider)
		if res.Cached {
			ew.printf(" (cached)")
		}
		ew.println("")
	}
	ew.println(strings.Repeat("─", 60))

	feedback := strings.TrimSpace(res.Feedback)
	if feedback == "" {
		feedback = "No feedback."
	}
	ew.println(feedback)

	if res.Elapsed > 0 {
		ew.println(strings.Repeat("─", 60))
		ew.printf("Completed in %dms\n", res.Elapsed.Milliseconds())
	}
	return ew.err
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}
