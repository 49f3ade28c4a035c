package review

import (
	"fmt"
	"strings"
)

const basePrompt = `You are a professional code reviewer working inside a collaborative editor.
Respond in Markdown. Use fenced code blocks tagged with the language for any code you show.
Be concise and concrete; do not restate the input.`

var modeInstructions = map[Mode]string{
	ModeReview: `Review the code. Find bugs, errors, security problems and risky patterns, and suggest improvements.
Group findings under short headings and order them by importance.`,
	ModeFix: `Fix the code. Return the corrected program in a single code block first,
then list each change you made and why in one line per change.`,
	ModeOptimize: `Optimize the code for performance and clarity without changing its behavior.
Return the optimized program in a single code block, then explain the gains and any trade-offs.`,
	ModeExplain: `Explain what the code does to a developer who has not seen it before.
Walk through it section by section, then summarize its inputs, outputs and side effects.`,
}

// SystemPrompt returns the system prompt for a mode.
func SystemPrompt(mode Mode) string {
	instr, ok := modeInstructions[mode]
	if !ok {
		instr = modeInstructions[ModeReview]
	}
	return basePrompt + "\n\n" + instr
}

// BuildUserPrompt constructs the user prompt for a request.
func BuildUserPrompt(req Request, rules *Rules, maxHistory int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Language: %s\n", req.Language)
	fmt.Fprintf(&b, "Action: %s\n", req.Mode)

	if rulesSection := BuildRulesPromptSection(rules); rulesSection != "" {
		b.WriteString(rulesSection)
	}

	if history := recentHistory(req.History, maxHistory); len(history) > 0 {
		b.WriteString("\nEarlier in this session (oldest first):\n")
		for i, ex := range history {
			fmt.Fprintf(&b, "\n--- EXCHANGE %d (%s) ---\n", i+1, ex.Mode)
			b.WriteString("Code:\n")
			b.WriteString(ex.Code)
			b.WriteString("\nYour answer:\n")
			b.WriteString(ex.Feedback)
			b.WriteString("\n")
		}
		b.WriteString("--- END OF EARLIER EXCHANGES ---\n")
	}

	b.WriteString("\n--- BEGIN CODE ---\n")
	b.WriteString(req.Code)
	b.WriteString("\n--- END CODE ---\n")

	return b.String()
}

// recentHistory keeps the last n exchanges. Callers send history most recent
// first, the prompt lists it oldest first.
func recentHistory(history []Exchange, n int) []Exchange {
	if n <= 0 || len(history) == 0 {
		return nil
	}
	if len(history) > n {
		history = history[:n]
	}
	out := make([]Exchange, len(history))
	for i, ex := range history {
		out[len(history)-1-i] = ex
	}
	return out
}
