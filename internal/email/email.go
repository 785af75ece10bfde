package email

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/visitbooking/internal/domain"
	"go.uber.org/zap"
)

// Message is one participant notification derived from a lifecycle event.
type Message struct {
	To      string
	Subject string
	Body    string
}

type Sender struct {
	log      *zap.Logger
	location *time.Location
}

type SenderOption func(*Sender)

// WithLocation sets the marketplace timezone visit times are shown in.
func WithLocation(loc *time.Location) SenderOption {
	return func(s *Sender) {
		if loc != nil {
			s.location = loc
		}
	}
}

func NewSender(log *zap.Logger, opts ...SenderOption) *Sender {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Sender{log: log, location: time.UTC}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send relays event to both participants. Delivery is a log line; the mail
// gateway sits outside this service.
func (s *Sender) Send(ctx context.Context, event domain.LifecycleEvent) error {
	for _, msg := range Compose(event, s.location) {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.log.Info("send email",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
			zap.String("booking_id", event.BookingID),
		)
	}
	return nil
}

// Compose builds the participant messages for event, with the visit time
// rendered in loc. Check-in events are only relayed to the other party.
func Compose(event domain.LifecycleEvent, loc *time.Location) []Message {
	subject, ok := subjects[event.Type]
	if !ok {
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}
	when := event.ScheduledAt.In(loc).Format(domain.DateFormat + " " + domain.TimeFormat)
	body := fmt.Sprintf("Visit %s for vehicle %s on %s: %s.", event.BookingID, event.VehicleID, when, subject)
	if event.Reason != "" {
		body += " Reason: " + event.Reason
	}

	recipients := []string{event.BuyerID, event.SellerID}
	if event.Type == domain.EventCheckedIn {
		recipients = []string{event.BuyerID}
		if event.ActorRole == domain.RoleBuyer {
			recipients = []string{event.SellerID}
		}
	}

	msgs := make([]Message, 0, len(recipients))
	for _, to := range recipients {
		msgs = append(msgs, Message{To: to, Subject: "Visit " + subject, Body: body})
	}
	return msgs
}

var subjects = map[domain.EventType]string{
	domain.EventScheduled:      "scheduled",
	domain.EventConfirmed:      "confirmed by the seller",
	domain.EventCheckInOpen:    "check-in is open",
	domain.EventCheckedIn:      "the other participant checked in",
	domain.EventVisitConfirmed: "both participants checked in",
	domain.EventInProgress:     "started",
	domain.EventCompleted:      "completed",
	domain.EventCancelled:      "cancelled",
}
