package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusKnown(t *testing.T) {
	for _, status := range []Status{StatusGraveyard, StatusWIP, StatusPending, StatusRanked, StatusApproved, StatusQualified, StatusLoved} {
		assert.True(t, status.Known(), "status %d should be known", status)
	}
	assert.False(t, StatusIgnored.Known())
	assert.False(t, Status(7).Known())
}

func TestStatusOrderValue(t *testing.T) {
	ordered := []Status{StatusGraveyard, StatusWIP, StatusPending, StatusRanked, StatusApproved, StatusQualified, StatusLoved}
	for i := 1; i < len(ordered); i++ {
		assert.Greater(t, ordered[i].OrderValue(), ordered[i-1].OrderValue(),
			"%s should rank above %s", ordered[i], ordered[i-1])
	}
	assert.Equal(t, -1, Status(42).OrderValue())
}

func TestMaxStatus(t *testing.T) {
	assert.Equal(t, StatusQualified, MaxStatus([]Status{StatusPending, StatusQualified, StatusWIP}))
	assert.Equal(t, StatusLoved, MaxStatus([]Status{StatusLoved, StatusRanked}))
	assert.Equal(t, StatusGraveyard, MaxStatus([]Status{StatusGraveyard}))
}

func TestStatusPromoted(t *testing.T) {
	assert.True(t, StatusRanked.Promoted())
	assert.True(t, StatusApproved.Promoted())
	assert.True(t, StatusQualified.Promoted())
	assert.True(t, StatusLoved.Promoted())
	assert.False(t, StatusPending.Promoted())
	assert.False(t, StatusWIP.Promoted())
	assert.False(t, StatusGraveyard.Promoted())
}
