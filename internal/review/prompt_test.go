package review

import (
	"strings"
	"testing"
)

func TestSystemPrompt_PerMode(t *testing.T) {
	seen := map[string]Mode{}
	for _, m := range Modes() {
		p := SystemPrompt(m)
		if !strings.HasPrefix(p, basePrompt) {
			t.Errorf("SystemPrompt(%s) missing base prompt", m)
		}
		if other, dup := seen[p]; dup {
			t.Errorf("SystemPrompt(%s) identical to %s", m, other)
		}
		seen[p] = m
	}
	if SystemPrompt("bogus") != SystemPrompt(ModeReview) {
		t.Error("unknown mode should fall back to review")
	}
}

func TestBuildUserPrompt(t *testing.T) {
	req := Request{
		Code:     "def f(): pass",
		Language: LanguagePython,
		Mode:     ModeFix,
	}
	p := BuildUserPrompt(req, nil, 3)

	for _, want := range []string{"Language: Python", "Action: fix", "--- BEGIN CODE ---\ndef f(): pass\n--- END CODE ---"} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q:\n%s", want, p)
		}
	}
	if strings.Contains(p, "Earlier in this session") {
		t.Error("prompt has history section without history")
	}
}

func TestBuildUserPrompt_HistoryOldestFirst(t *testing.T) {
	req := Request{
		Code:     "x",
		Language: LanguageJava,
		Mode:     ModeReview,
		History: []Exchange{
			{Mode: ModeExplain, Code: "newest", Feedback: "n"},
			{Mode: ModeFix, Code: "middle", Feedback: "m"},
			{Mode: ModeReview, Code: "oldest", Feedback: "o"},
		},
	}

	p := BuildUserPrompt(req, nil, 2)
	if strings.Contains(p, "oldest") {
		t.Error("history beyond the limit was included")
	}
	mid := strings.Index(p, "middle")
	newest := strings.Index(p, "newest")
	if mid < 0 || newest < 0 || mid > newest {
		t.Errorf("history not listed oldest first:\n%s", p)
	}

	if p := BuildUserPrompt(req, nil, 0); strings.Contains(p, "newest") {
		t.Error("history turns of 0 should omit history")
	}
}

func TestRecentHistory_DoesNotMutate(t *testing.T) {
	in := []Exchange{{Code: "a"}, {Code: "b"}}
	out := recentHistory(in, 5)
	if out[0].Code != "b" || in[0].Code != "a" {
		t.Errorf("recentHistory = %+v, input = %+v", out, in)
	}
}
