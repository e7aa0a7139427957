package notification

import "time"

// Entities an event can refer to.
const (
	EntityBorrow      = "borrow"
	EntityReservation = "reservation"
)

// Lifecycle actions recorded in the audit trail.
const (
	ActionCreate   = "create"
	ActionApprove  = "approve"
	ActionReject   = "reject"
	ActionHandout  = "handout"
	ActionReturn   = "return"
	ActionOverdue  = "overdue"
	ActionCancel   = "cancel"
	ActionComplete = "complete"
)

// Event describes one committed state transition. RefID is the equipment or
// laboratory the record points at; OwnerID is the user who made the request.
type Event struct {
	Entity   string
	EntityID int64
	Action   string
	ActorID  int64
	OwnerID  int64
	RefID    int64
	Payload  any
	At       time.Time
}

// Publisher accepts events after the transition has committed. Implementations must not block.
type Publisher interface {
	Dispatch(ev Event)
}

// Discard is a Publisher that drops every event.
type Discard struct{}

// Dispatch implements Publisher.
func (Discard) Dispatch(Event) {}
