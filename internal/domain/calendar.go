package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// Date is a calendar day without time of day or location.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateFormat, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", ErrValidation, s)
	}
	return DateOf(t), nil
}

func (d Date) IsZero() bool {
	return d == Date{}
}

// In returns midnight of d in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) Weekday() Weekday {
	return Weekday(d.In(time.UTC).Weekday())
}

func (d Date) AddDays(n int) Date {
	return DateOf(d.In(time.UTC).AddDate(0, 0, n))
}

func (d Date) Compare(other Date) int {
	return d.In(time.UTC).Compare(other.In(time.UTC))
}

func (d Date) Before(other Date) bool { return d.Compare(other) < 0 }
func (d Date) After(other Date) bool  { return d.Compare(other) > 0 }

// Within reports whether d lies in [start, end], inclusive on both ends.
func (d Date) Within(start, end Date) bool {
	return !d.Before(start) && !d.After(end)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// MarshalText renders the zero Date as an empty string.
func (d Date) MarshalText() ([]byte, error) {
	if d.IsZero() {
		return []byte{}, nil
	}
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// TimeLabel is a wall-clock slot label in HH:MM form.
type TimeLabel string

func ParseTimeLabel(s string) (TimeLabel, error) {
	s = strings.TrimSpace(s)
	if !IsTimeLabel(s) {
		return "", fmt.Errorf("%w: invalid time %q, expected HH:MM", ErrValidation, s)
	}
	return TimeLabel(s), nil
}

// IsTimeLabel reports whether s is a zero-padded 24h HH:MM label.
func IsTimeLabel(s string) bool {
	_, _, ok := parseClock(s)
	return ok
}

// parseClock accepts exactly two ASCII digits, a colon and two ASCII digits.
func parseClock(s string) (hour, minute int, ok bool) {
	if len(s) != 5 || s[2] != ':' {
		return 0, 0, false
	}
	for _, i := range [...]int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return 0, 0, false
		}
	}
	hour = int(s[0]-'0')*10 + int(s[1]-'0')
	minute = int(s[3]-'0')*10 + int(s[4]-'0')
	if hour > 23 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}

// Clock returns the hour and minute the label denotes.
func (l TimeLabel) Clock() (hour, minute int) {
	hour, minute, _ = parseClock(string(l))
	return hour, minute
}

// At combines a date and a label into an instant in loc. The label is a
// wall-clock reading, so on DST change days it is not an offset from
// midnight.
func At(d Date, l TimeLabel, loc *time.Location) time.Time {
	hour, minute := l.Clock()
	return time.Date(d.Year, d.Month, d.Day, hour, minute, 0, 0, loc)
}

// NormalizeLabels returns the labels deduplicated and sorted. HH:MM sorts
// lexicographically in time order.
func NormalizeLabels(labels []TimeLabel) []TimeLabel {
	seen := make(map[TimeLabel]struct{}, len(labels))
	out := make([]TimeLabel, 0, len(labels))
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// IntersectLabels keeps the labels of a that also appear in b, in a's order.
func IntersectLabels(a, b []TimeLabel) []TimeLabel {
	allowed := make(map[TimeLabel]struct{}, len(b))
	for _, l := range b {
		allowed[l] = struct{}{}
	}
	out := make([]TimeLabel, 0, len(a))
	for _, l := range a {
		if _, ok := allowed[l]; ok {
			out = append(out, l)
		}
	}
	return out
}

func ContainsLabel(labels []TimeLabel, l TimeLabel) bool {
	for _, x := range labels {
		if x == l {
			return true
		}
	}
	return false
}

// Weekday mirrors time.Weekday but serializes as a short lowercase name so it
// can be used as a JSON object key.
type Weekday int

const (
	Sunday Weekday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

var weekdayNames = [...]string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

var weekdayAliases = map[string]Weekday{
	"sunday": Sunday, "monday": Monday, "tuesday": Tuesday, "wednesday": Wednesday,
	"thursday": Thursday, "friday": Friday, "saturday": Saturday,
	"dom": Sunday, "seg": Monday, "ter": Tuesday, "qua": Wednesday,
	"qui": Thursday, "sex": Friday, "sab": Saturday, "sáb": Saturday,
}

func ParseWeekday(s string) (Weekday, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, name := range weekdayNames {
		if key == name {
			return Weekday(i), nil
		}
	}
	if w, ok := weekdayAliases[key]; ok {
		return w, nil
	}
	return 0, fmt.Errorf("%w: invalid weekday %q", ErrValidation, s)
}

func (w Weekday) Valid() bool {
	return w >= Sunday && w <= Saturday
}

func (w Weekday) String() string {
	if !w.Valid() {
		return fmt.Sprintf("Weekday(%d)", int(w))
	}
	return weekdayNames[w]
}

func (w Weekday) MarshalText() ([]byte, error) {
	if !w.Valid() {
		return nil, fmt.Errorf("invalid weekday %d", int(w))
	}
	return []byte(w.String()), nil
}

func (w *Weekday) UnmarshalText(text []byte) error {
	parsed, err := ParseWeekday(string(text))
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}
