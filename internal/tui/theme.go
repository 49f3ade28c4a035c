package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/dshills/coreview/internal/storage"
)

// ThemeKey is the durable storage key holding the chosen theme.
const ThemeKey = "theme"

// Theme is the color scheme.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == ThemeLight {
		return ThemeDark
	}
	return ThemeLight
}

// LoadTheme reads the stored theme. Missing or unknown values give dark.
func LoadTheme(kv storage.Store) Theme {
	if kv == nil {
		return ThemeDark
	}
	data, ok, err := kv.Get(ThemeKey)
	if err != nil || !ok {
		return ThemeDark
	}
	if Theme(data) == ThemeLight {
		return ThemeLight
	}
	return ThemeDark
}

// SaveTheme persists t. A nil store is a no-op.
func SaveTheme(kv storage.Store, t Theme) error {
	if kv == nil {
		return nil
	}
	return kv.Set(ThemeKey, []byte(t))
}

type styles struct {
	title     lipgloss.Style
	pane      lipgloss.Style
	focused   lipgloss.Style
	status    lipgloss.Style
	connected lipgloss.Style
	problem   lipgloss.Style
	help      lipgloss.Style
	selected  lipgloss.Style
	dim       lipgloss.Style
	notice    lipgloss.Style
}

func stylesFor(t Theme) styles {
	fg, bg, accent, border, muted := "252", "236", "39", "240", "242"
	if t == ThemeLight {
		fg, bg, accent, border, muted = "235", "254", "25", "250", "245"
	}
	return styles{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(accent)).
			Padding(0, 1),
		pane: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(border)),
		focused: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(accent)),
		status: lipgloss.NewStyle().
			Foreground(lipgloss.Color(fg)).
			Background(lipgloss.Color(bg)).
			Padding(0, 1),
		connected: lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true),
		problem: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),
		help: lipgloss.NewStyle().
			Foreground(lipgloss.Color(muted)),
		selected: lipgloss.NewStyle().
			Background(lipgloss.Color(accent)).
			Foreground(lipgloss.Color("255")),
		dim: lipgloss.NewStyle().
			Foreground(lipgloss.Color(muted)),
		notice: lipgloss.NewStyle().
			Foreground(lipgloss.Color(accent)),
	}
}
