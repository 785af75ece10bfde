package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-10-19")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2026, time.October, 19), d)
	assert.Equal(t, Monday, d.Weekday())
	assert.Equal(t, "2026-10-19", d.String())

	_, err = ParseDate("19/10/2026")
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestDate_Within(t *testing.T) {
	start := NewDate(2026, time.March, 1)
	end := NewDate(2026, time.March, 31)

	assert.True(t, start.Within(start, end))
	assert.True(t, end.Within(start, end))
	assert.True(t, NewDate(2026, time.March, 15).Within(start, end))
	assert.False(t, NewDate(2026, time.February, 28).Within(start, end))
	assert.False(t, NewDate(2026, time.April, 1).Within(start, end))
	assert.Equal(t, NewDate(2026, time.April, 1), end.AddDays(1))
}

func TestIsTimeLabel(t *testing.T) {
	valid := []string{"00:00", "09:30", "23:59"}
	invalid := []string{"", "9:30", "24:00", "12:60", "12-30", "ab:cd", "12:3", "+9:30", "-0:00", "09:+5", " 9:30", "09: 5"}

	for _, s := range valid {
		assert.True(t, IsTimeLabel(s), s)
	}
	for _, s := range invalid {
		assert.False(t, IsTimeLabel(s), s)
	}
}

func TestAt(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	got := At(NewDate(2026, time.October, 19), "14:30", loc)

	assert.Equal(t, time.Date(2026, time.October, 19, 14, 30, 0, 0, loc), got)
}

func TestAt_DSTChangeDays(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	testCases := []struct {
		name string
		date Date
		utc  time.Time
	}{
		{name: "spring forward", date: NewDate(2026, time.March, 29), utc: time.Date(2026, time.March, 29, 8, 0, 0, 0, time.UTC)},
		{name: "fall back", date: NewDate(2026, time.October, 25), utc: time.Date(2026, time.October, 25, 9, 0, 0, 0, time.UTC)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := At(tc.date, "10:00", berlin)

			assert.Equal(t, 10, got.Hour())
			assert.Equal(t, 0, got.Minute())
			assert.True(t, tc.utc.Equal(got), "got %s", got.UTC())
		})
	}
}

func TestParseTimeLabel_SignedInput(t *testing.T) {
	_, err := ParseTimeLabel("+9:30")
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestNormalizeAndIntersectLabels(t *testing.T) {
	labels := NormalizeLabels([]TimeLabel{"10:00", "09:00", "10:00", "08:30"})
	assert.Equal(t, []TimeLabel{"08:30", "09:00", "10:00"}, labels)

	got := IntersectLabels(labels, []TimeLabel{"09:00", "10:00", "11:00"})
	assert.Equal(t, []TimeLabel{"09:00", "10:00"}, got)
	assert.Empty(t, IntersectLabels(labels, nil))
}

func TestWeekday_TextRoundTripAsMapKey(t *testing.T) {
	in := map[Weekday]DaySlots{
		Monday: {Active: true, Slots: []TimeLabel{"09:00"}},
	}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"mon":{"active":true,"slots":["09:00"]}}`, string(data))

	var out map[Weekday]DaySlots
	require.NoError(t, json.Unmarshal([]byte(`{"seg":{"active":true,"slots":["09:00"]},"Friday":{"active":false,"slots":[]}}`), &out))
	assert.True(t, out[Monday].Active)
	assert.Contains(t, out, Friday)
}

func TestParseWeekday_Invalid(t *testing.T) {
	_, err := ParseWeekday("funday")
	assert.True(t, errors.Is(err, ErrValidation))
}
