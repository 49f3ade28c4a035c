package output

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dshills/coreview/internal/review"
)

// Result is one completed review as shown to the user.
type Result struct {
	Mode     review.Mode     `json:"mode"`
	Language review.Language `json:"language"`
	Provider string          `json:"provider,omitempty"`
	Source   string          `json:"source,omitempty"`
	Feedback string          `json:"feedback"`
	Cached   bool            `json:"cached,omitempty"`
	Elapsed  time.Duration   `json:"-"`
}

// Writer writes a result in a specific format.
type Writer interface {
	Write(w io.Writer, res *Result) error
}

// Formats lists the supported format names.
func Formats() []string { return []string{"text", "json", "markdown", "pretty"} }

// GetWriter returns a writer for the specified format.
func GetWriter(format string) (Writer, error) {
	switch format {
	case "", "text":
		return &TextWriter{}, nil
	case "json":
		return &JSONWriter{}, nil
	case "markdown", "md":
		return &MarkdownWriter{}, nil
	case "pretty":
		return &MarkdownWriter{Render: true, Width: 100}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteResult writes the result to outPath, or stdout when outPath is empty.
func WriteResult(res *Result, format, outPath string) error {
	writer, err := GetWriter(format)
	if err != nil {
		return err
	}

	var w io.Writer
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	} else {
		w = os.Stdout
	}

	return writer.Write(w, res)
}
