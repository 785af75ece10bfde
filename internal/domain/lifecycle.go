package domain

import "time"

// AllowedTransitions is the visit lifecycle as data. Who may trigger an edge
// and when is decided by the booking service; this table only says which
// status pairs are structurally valid. Terminal statuses have no entry.
var AllowedTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusScheduled:      {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed:      {BookingStatusCheckIn, BookingStatusCancelled},
	BookingStatusCheckIn:        {BookingStatusCheckIn, BookingStatusVisitConfirmed, BookingStatusCancelled},
	BookingStatusVisitConfirmed: {BookingStatusInProgress, BookingStatusCancelled},
	BookingStatusInProgress:     {BookingStatusCompleted},
}

var allowedTransitionSet = buildTransitionSet(AllowedTransitions)

func buildTransitionSet(transitions map[BookingStatus][]BookingStatus) map[BookingStatus]map[BookingStatus]struct{} {
	set := make(map[BookingStatus]map[BookingStatus]struct{}, len(transitions))
	for from, tos := range transitions {
		next := make(map[BookingStatus]struct{}, len(tos))
		for _, to := range tos {
			next[to] = struct{}{}
		}
		set[from] = next
	}
	return set
}

func CanTransition(from, to BookingStatus) bool {
	next, ok := allowedTransitionSet[from]
	if !ok {
		return false
	}
	_, ok = next[to]
	return ok
}

// OpenStatuses are the statuses the scheduler re-evaluates.
var OpenStatuses = []BookingStatus{
	BookingStatusScheduled,
	BookingStatusConfirmed,
	BookingStatusCheckIn,
	BookingStatusVisitConfirmed,
	BookingStatusInProgress,
}

type EventType string

const (
	EventScheduled      EventType = "booking_scheduled"
	EventConfirmed      EventType = "booking_confirmed"
	EventCheckInOpen    EventType = "booking_checkin_open"
	EventCheckedIn      EventType = "booking_checked_in"
	EventVisitConfirmed EventType = "booking_visit_confirmed"
	EventInProgress     EventType = "booking_in_progress"
	EventCompleted      EventType = "booking_completed"
	EventCancelled      EventType = "booking_cancelled"
)

// ActorSystem marks transitions fired by the scheduler.
const ActorSystem = "system"

// LifecycleEvent is emitted once per applied transition.
type LifecycleEvent struct {
	ID          string        `json:"id"`
	Type        EventType     `json:"type"`
	BookingID   string        `json:"booking_id"`
	VehicleID   string        `json:"vehicle_id"`
	BuyerID     string        `json:"buyer_id"`
	SellerID    string        `json:"seller_id"`
	From        BookingStatus `json:"from,omitempty"`
	To          BookingStatus `json:"to"`
	Actor       string        `json:"actor"`
	ActorRole   Role          `json:"actor_role,omitempty"`
	Reason      string        `json:"reason,omitempty"`
	ScheduledAt time.Time     `json:"scheduled_at"`
	OccurredAt  time.Time     `json:"occurred_at"`
}
