package review

import (
	"fmt"
	"strings"
)

// Mode is the action requested from the model.
type Mode string

const (
	ModeReview   Mode = "review"
	ModeFix      Mode = "fix"
	ModeOptimize Mode = "optimize"
	ModeExplain  Mode = "explain"
)

// Modes lists the modes in display order.
func Modes() []Mode {
	return []Mode{ModeReview, ModeFix, ModeOptimize, ModeExplain}
}

// ParseMode accepts a mode name in any case.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Modes() {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown mode: %s", s)
}

// Next returns the mode after m, wrapping around.
func (m Mode) Next() Mode {
	modes := Modes()
	for i, known := range modes {
		if known == m {
			return modes[(i+1)%len(modes)]
		}
	}
	return ModeReview
}

// Label is the button text shown for the mode.
func (m Mode) Label() string {
	switch m {
	case ModeFix:
		return "Fix"
	case ModeOptimize:
		return "Optimize"
	case ModeExplain:
		return "Explain"
	default:
		return "Review"
	}
}

// Language is the language of the code buffer.
type Language string

const (
	LanguageJavaScript Language = "JavaScript"
	LanguagePython     Language = "Python"
	LanguageJava       Language = "Java"
	LanguageCPP        Language = "C++"
)

// Languages lists the supported languages in display order.
func Languages() []Language {
	return []Language{LanguageJavaScript, LanguagePython, LanguageJava, LanguageCPP}
}

// ParseLanguage accepts a language name in any case, plus a few common
// aliases and file extensions.
func ParseLanguage(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "javascript", "js", ".js", ".jsx", ".mjs":
		return LanguageJavaScript, nil
	case "python", "py", ".py":
		return LanguagePython, nil
	case "java", ".java":
		return LanguageJava, nil
	case "c++", "cpp", "cxx", ".cpp", ".cc", ".cxx", ".hpp", ".h":
		return LanguageCPP, nil
	default:
		return "", fmt.Errorf("unknown language: %s", s)
	}
}

// Next returns the language after l, wrapping around.
func (l Language) Next() Language {
	langs := Languages()
	for i, known := range langs {
		if known == l {
			return langs[(i+1)%len(langs)]
		}
	}
	return LanguageJavaScript
}

// Exchange is a prior review sent as context.
type Exchange struct {
	Mode     Mode   `json:"mode" validate:"omitempty,oneof=review fix optimize explain"`
	Code     string `json:"code"`
	Feedback string `json:"feedback"`
}

// Request is the body of POST /review.
type Request struct {
	Code     string     `json:"code"`
	Language Language   `json:"language" validate:"required,oneof=JavaScript Python Java C++"`
	Mode     Mode       `json:"mode" validate:"required,oneof=review fix optimize explain"`
	History  []Exchange `json:"history,omitempty" validate:"max=10,dive"`
}

// Response is the body returned by POST /review, on success and failure.
type Response struct {
	Feedback string `json:"feedback"`
	Cached   bool   `json:"cached,omitempty"`
}
