package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus_CanTransitionTo(t *testing.T) {
	all := []Status{StatusPending, StatusApproved, StatusOverridden}
	for _, from := range all {
		for _, to := range all {
			want := from == StatusPending && to != StatusPending
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
	assert.False(t, Status("archived").CanTransitionTo(StatusApproved))
}

func TestParseStatus(t *testing.T) {
	s, ok := ParseStatus("overridden")
	assert.True(t, ok)
	assert.True(t, s.IsTerminal())

	_, ok = ParseStatus("rejected")
	assert.False(t, ok)
	assert.False(t, StatusPending.IsTerminal())
}
