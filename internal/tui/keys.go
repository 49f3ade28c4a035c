package tui

// Key bindings. Values are tea.KeyMsg.String() forms.
const (
	keySubmit   = "ctrl+s"
	keyNewRoom  = "ctrl+n"
	keyJoinRoom = "ctrl+o"
	keyLeave    = "ctrl+l"
	keyMode     = "ctrl+t"
	keyLanguage = "ctrl+g"
	keyHistory  = "ctrl+r"
	keyShare    = "ctrl+e"
	keyTheme    = "ctrl+y"
	keyQuit     = "ctrl+c"
)

const helpLine = "^S submit  ^T mode  ^G language  ^N new room  ^O join  ^L leave  ^R history  ^E share  ^Y theme  ^C quit"

const historyHelp = "↑/↓ select  enter restore  x clear  esc close"
