package game

// EventKind identifies a simulation event
type EventKind string

const (
	EvtJoin      EventKind = "join"
	EvtLeave     EventKind = "leave"
	EvtLevelUp   EventKind = "level_up"
	EvtCellEaten EventKind = "cell_eaten"
	EvtDeath     EventKind = "death"
	EvtVirusPop  EventKind = "virus_pop"
	EvtBonus     EventKind = "bonus"
)

// Event is emitted by World while holding its lock. PlayerID is the actor;
// OtherID is the victim for eat/death events.
type Event struct {
	Kind     EventKind
	PlayerID string
	OtherID  string
	Value    float64
}

// EventSink receives simulation events. Emit must not block or call back into World.
type EventSink interface {
	Emit(Event)
}

// EventFunc adapts a function to EventSink
type EventFunc func(Event)

func (f EventFunc) Emit(e Event) { f(e) }
