package booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/visitbooking/internal/domain"
)

const (
	DefaultCheckInWindow     = 4 * time.Hour
	DefaultAutoCompleteAfter = 2 * time.Hour
)

// Windows are the time guards of the lifecycle, relative to ScheduledAt.
type Windows struct {
	CheckIn      time.Duration
	AutoComplete time.Duration
}

func DefaultWindows() Windows {
	return Windows{CheckIn: DefaultCheckInWindow, AutoComplete: DefaultAutoCompleteAfter}
}

func (w Windows) checkInOpens(b *domain.Booking) time.Time {
	return b.ScheduledAt.Add(-w.CheckIn)
}

func (w Windows) autoCompletesAt(b *domain.Booking) time.Time {
	return b.ScheduledAt.Add(w.AutoComplete)
}

// transition is one applied lifecycle edge.
type transition struct {
	from   domain.BookingStatus
	to     domain.BookingStatus
	event  domain.EventType
	actor  string
	role   domain.Role
	reason string
}

// nextAutomatic returns the time or handshake driven edge whose guard holds
// for b at now, if any. The same predicates back the manual actions.
func nextAutomatic(b *domain.Booking, now time.Time, w Windows) (transition, bool) {
	t := transition{from: b.Status, actor: domain.ActorSystem}
	switch b.Status {
	case domain.BookingStatusConfirmed:
		if now.Before(w.checkInOpens(b)) {
			return t, false
		}
		t.to, t.event = domain.BookingStatusCheckIn, domain.EventCheckInOpen
	case domain.BookingStatusCheckIn:
		if !b.CheckInBuyer || !b.CheckInSeller {
			return t, false
		}
		t.to, t.event = domain.BookingStatusVisitConfirmed, domain.EventVisitConfirmed
	case domain.BookingStatusVisitConfirmed:
		if now.Before(b.ScheduledAt) {
			return t, false
		}
		t.to, t.event = domain.BookingStatusInProgress, domain.EventInProgress
	case domain.BookingStatusInProgress:
		if now.Before(w.autoCompletesAt(b)) {
			return t, false
		}
		t.to, t.event = domain.BookingStatusCompleted, domain.EventCompleted
	default:
		return t, false
	}
	return t, true
}

// advance applies automatic edges until none holds. Each edge is applied
// separately so no status is skipped. Running it twice at the same instant
// is a no-op the second time.
func advance(b *domain.Booking, now time.Time, w Windows) []transition {
	var applied []transition
	for {
		t, ok := nextAutomatic(b, now, w)
		if !ok {
			return applied
		}
		apply(b, t, now)
		applied = append(applied, t)
	}
}

// authorize checks that role may invoke action and that the payload is
// complete. It does not look at status or time.
func authorize(action domain.Action, role domain.Role, reason string) error {
	switch action {
	case domain.ActionConfirm, domain.ActionComplete:
		if role != domain.RoleSeller {
			return domain.ErrSellerOnly
		}
	case domain.ActionCheckIn:
	case domain.ActionCancel:
		if strings.TrimSpace(reason) == "" {
			return domain.ErrEmptyReason
		}
	default:
		return domain.ErrUnknownAction
	}
	return nil
}

// manual returns the edge a participant action produces for b at now, or the
// guard it violates. b is expected to be caught up already.
func manual(b *domain.Booking, action domain.Action, actorID string, role domain.Role, reason string, now time.Time, w Windows) (transition, error) {
	t := transition{from: b.Status, actor: actorID, role: role}

	if b.Status.IsTerminal() {
		return t, domain.ErrBookingFinished
	}

	switch action {
	case domain.ActionConfirm:
		if b.Status != domain.BookingStatusScheduled {
			return t, domain.ErrNotAwaitingConfirm
		}
		t.to, t.event = domain.BookingStatusConfirmed, domain.EventConfirmed
	case domain.ActionCheckIn:
		switch {
		case now.Before(w.checkInOpens(b)):
			return t, domain.ErrCheckInTooEarly
		case b.CheckedIn(role):
			return t, domain.ErrAlreadyCheckedIn
		case b.Status != domain.BookingStatusCheckIn:
			return t, domain.ErrCheckInUnavailable
		}
		t.to, t.event = domain.BookingStatusCheckIn, domain.EventCheckedIn
	case domain.ActionComplete:
		if b.Status != domain.BookingStatusInProgress {
			return t, domain.ErrNotInProgress
		}
		t.to, t.event = domain.BookingStatusCompleted, domain.EventCompleted
	case domain.ActionCancel:
		if b.Status == domain.BookingStatusInProgress {
			return t, domain.ErrVisitInProgress
		}
		t.to, t.event, t.reason = domain.BookingStatusCancelled, domain.EventCancelled, strings.TrimSpace(reason)
	default:
		return t, domain.ErrUnknownAction
	}
	return t, nil
}

// apply mutates b along t. Callers only pass edges produced by
// nextAutomatic or manual, which are always in the transition table.
func apply(b *domain.Booking, t transition, now time.Time) {
	if !domain.CanTransition(t.from, t.to) {
		panic(fmt.Sprintf("booking %s: illegal transition %s -> %s", b.ID, t.from, t.to))
	}

	if t.event == domain.EventCheckedIn {
		if t.role == domain.RoleSeller {
			b.CheckInSeller = true
		} else {
			b.CheckInBuyer = true
		}
	}

	switch t.to {
	case domain.BookingStatusCompleted:
		r := domain.ResultCompleted
		b.Result = &r
	case domain.BookingStatusCancelled:
		r := domain.ResultCancelled
		b.Result = &r
		b.CancellationReason = t.reason
	}

	b.Status = t.to
	b.UpdatedAt = now
	b.Observations = appendObservation(b.Observations, observation(t, now))
}

func observation(t transition, now time.Time) string {
	by := "scheduler"
	if t.actor != domain.ActorSystem {
		by = fmt.Sprintf("%s %s", t.role, t.actor)
	}
	stamp := now.UTC().Format(time.RFC3339)

	switch t.event {
	case domain.EventCheckedIn:
		return fmt.Sprintf("%s: check-in by %s", stamp, by)
	case domain.EventCancelled:
		return fmt.Sprintf("%s: %s -> %s by %s, reason: %s", stamp, t.from, t.to, by, t.reason)
	default:
		return fmt.Sprintf("%s: %s -> %s by %s", stamp, t.from, t.to, by)
	}
}

func appendObservation(existing, line string) string {
	if existing == "" {
		return line
	}
	return existing + "\n" + line
}
