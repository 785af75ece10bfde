package domain

import "time"

// DaySlots is the opening state of one weekday.
type DaySlots struct {
	Active bool        `json:"active"`
	Slots  []TimeLabel `json:"slots" validate:"dive,timelabel"`
}

// StoreSettings is the marketplace-wide opening table, owned by the operator.
type StoreSettings struct {
	WeekDays  map[Weekday]DaySlots `json:"week_days" validate:"dive"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// Day returns the settings for w; a missing weekday is closed.
func (s *StoreSettings) Day(w Weekday) DaySlots {
	if s == nil {
		return DaySlots{}
	}
	return s.WeekDays[w]
}

// Normalize validates the settings and sorts and deduplicates every slot list.
func (s *StoreSettings) Normalize() error {
	if err := Validate(s); err != nil {
		return err
	}
	for w, day := range s.WeekDays {
		if !w.Valid() {
			return NewValidationError("week_days", "unknown weekday")
		}
		day.Slots = NormalizeLabels(day.Slots)
		s.WeekDays[w] = day
	}
	return nil
}

type AvailabilityMode string

const (
	ModeWeekly      AvailabilityMode = "weekly"
	ModeSingleDates AvailabilityMode = "single_dates"
	ModeDateRange   AvailabilityMode = "date_range"
)

type DateRange struct {
	Start Date                 `json:"start"`
	End   Date                 `json:"end"`
	Slots map[Date][]TimeLabel `json:"slots" validate:"dive,dive,timelabel"`
}

// AvailabilityConfig is a seller's bookable-time configuration. Only the part
// selected by Mode is used for slot resolution; the others are kept so the
// seller can switch modes without losing input.
type AvailabilityConfig struct {
	SellerID    string               `json:"seller_id"`
	Mode        AvailabilityMode     `json:"mode" validate:"required,oneof=weekly single_dates date_range"`
	Weekly      map[Weekday]DaySlots `json:"weekly" validate:"dive"`
	SingleDates map[Date][]TimeLabel `json:"single_dates" validate:"dive,dive,timelabel"`
	DateRange   DateRange            `json:"date_range"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// Normalize checks internal consistency (well-formed labels, non-inverted
// range, range slots inside the range) and canonicalizes every slot list.
// It does not look at StoreSettings.
func (c *AvailabilityConfig) Normalize() error {
	if err := Validate(c); err != nil {
		return err
	}

	verr := &ValidationError{}
	for w, day := range c.Weekly {
		if !w.Valid() {
			verr.Add("weekly", "unknown weekday")
			continue
		}
		day.Slots = NormalizeLabels(day.Slots)
		c.Weekly[w] = day
	}
	for d, labels := range c.SingleDates {
		c.SingleDates[d] = NormalizeLabels(labels)
	}

	r := &c.DateRange
	switch {
	case r.Start.IsZero() != r.End.IsZero():
		verr.Add("date_range", "start and end must be set together")
	case !r.Start.IsZero() && r.End.Before(r.Start):
		verr.Add("date_range", "end must not be before start")
	}
	if c.Mode == ModeDateRange && r.Start.IsZero() {
		verr.Add("date_range", "start and end are required in date_range mode")
	}
	for d, labels := range r.Slots {
		if !r.Start.IsZero() && !d.Within(r.Start, r.End) {
			verr.Add("date_range.slots["+d.String()+"]", "date is outside the range")
			continue
		}
		r.Slots[d] = NormalizeLabels(labels)
	}

	if !verr.Empty() {
		return verr
	}
	return nil
}

// SellerSlots returns the seller-side labels for date according to the
// selected mode, before intersecting with the store table.
func (c *AvailabilityConfig) SellerSlots(date Date) []TimeLabel {
	if c == nil {
		return nil
	}
	switch c.Mode {
	case ModeWeekly:
		day, ok := c.Weekly[date.Weekday()]
		if !ok || !day.Active {
			return nil
		}
		return day.Slots
	case ModeSingleDates:
		return c.SingleDates[date]
	case ModeDateRange:
		if c.DateRange.Start.IsZero() || !date.Within(c.DateRange.Start, c.DateRange.End) {
			return nil
		}
		return c.DateRange.Slots[date]
	default:
		return nil
	}
}

// Reset clears every mode's input, keeping the selected mode.
func (c *AvailabilityConfig) Reset() {
	c.Weekly = map[Weekday]DaySlots{}
	c.SingleDates = map[Date][]TimeLabel{}
	c.DateRange = DateRange{Slots: map[Date][]TimeLabel{}}
}
