package game

// EventKind classifies world events
type EventKind int

const (
	EventJoin EventKind = iota
	EventDeath
	EventRespawn
	EventLeave
)

// String returns the analytics name of the kind
func (k EventKind) String() string {
	switch k {
	case EventJoin:
		return "join"
	case EventDeath:
		return "death"
	case EventRespawn:
		return "respawn"
	case EventLeave:
		return "leave"
	}
	return "unknown"
}

// Death causes
const (
	CauseBoundary = "boundary"
	CauseSelf     = "self"
	CauseBody     = "body"
	CauseFault    = "fault"
)

// Leave reasons
const (
	ReasonDisconnect = "disconnect"
	ReasonIdle       = "idle"
	ReasonKicked     = "kicked"
)

// Event is something the tick produced that outlives it: notifications
// for one connection and rows for the analytics log.
type Event struct {
	Kind     EventKind
	Tick     uint64
	PlayerID string
	Name     string
	Score    int
	Length   int
	Cause    string // death cause or leave reason

	KillerID   string
	KillerName string
	Gain       int // score awarded to the killer

	Player *Player // the fresh player on EventRespawn
}

// EventSink receives every world event. Track must not block.
type EventSink interface {
	Track(evt Event)
}

type nopSink struct{}

func (nopSink) Track(Event) {}
