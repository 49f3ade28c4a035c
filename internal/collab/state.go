package collab

// State is the connection state of a Channel.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Error
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// EventKind says what changed.
type EventKind int

const (
	// EventState reports a state transition.
	EventState EventKind = iota
	// EventParticipants reports a change of the remote participant count.
	EventParticipants
	// EventUpdate carries a remote code-update.
	EventUpdate
)

// Event is one observable change. Room, State and Participants are a
// snapshot taken when the event was produced.
type Event struct {
	Kind         EventKind
	State        State
	Room         string
	Participants int
	// Err is set on transitions into Error.
	Err error

	Code     string
	Language string
}
