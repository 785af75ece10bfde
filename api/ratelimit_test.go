package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestActorLimiter_PerActorBuckets(t *testing.T) {
	l := NewActorLimiter(1, 2)
	now := time.Date(2030, time.January, 7, 8, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("buyer-1"))
	assert.True(t, l.Allow("buyer-1"))
	assert.False(t, l.Allow("buyer-1"))
	assert.True(t, l.Allow("seller-1"))

	now = now.Add(time.Second)
	assert.True(t, l.Allow("buyer-1"))
}

func TestActorLimiter_PrunesIdle(t *testing.T) {
	l := NewActorLimiter(1, 1)
	now := time.Date(2030, time.January, 7, 8, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.Allow("buyer-1")
	now = now.Add(time.Hour)
	l.Allow("seller-1")

	assert.Len(t, l.actors, 1)
	assert.Contains(t, l.actors, "seller-1")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, 400, statusFor("validation_error"))
	assert.Equal(t, 403, statusFor("role_violation"))
	assert.Equal(t, 404, statusFor("not_found"))
	assert.Equal(t, 409, statusFor("conflict"))
	assert.Equal(t, 422, statusFor("guard_violation"))
	assert.Equal(t, 500, statusFor("internal"))
}
