package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/dshills/coreview/internal/review"
)

func TestJSONWriter(t *testing.T) {
	res := &Result{
		Mode:     review.ModeFix,
		Language: review.LanguagePython,
		Provider: "gemini",
		Feedback: "Use a context manager.",
		Elapsed:  1500 * time.Millisecond,
	}

	var buf bytes.Buffer
	if err := (&JSONWriter{}).Write(&buf, res); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	var parsed map[string]any
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if parsed["feedback"] != "Use a context manager." {
		t.Errorf("feedback = %v, want %q", parsed["feedback"], "Use a context manager.")
	}
	if parsed["mode"] != "fix" {
		t.Errorf("mode = %v, want fix", parsed["mode"])
	}
	if parsed["elapsedMs"] != float64(1500) {
		t.Errorf("elapsedMs = %v, want 1500", parsed["elapsedMs"])
	}
	if _, ok := parsed["cached"]; ok {
		t.Error("cached should be omitted when false")
	}
}
