package output

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONWriter outputs the result as indented JSON.
type JSONWriter struct{}

func (j *JSONWriter) Write(w io.Writer, res *Result) error {
	data, err := json.MarshalIndent(struct {
		*Result
		ElapsedMs int64 `json:"elapsedMs"`
	}{res, res.Elapsed.Milliseconds()}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing JSON: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}
