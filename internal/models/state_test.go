package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalizeState(t *testing.T) {
	assert.Equal(t, StateCompleted, CanonicalizeState("COMPLETED"))
	assert.Equal(t, StateRunning, CanonicalizeState("RUNNING"))
	assert.Equal(t, StateCancelled, CanonicalizeState("CANCELLED"))

	// Tokens outside the canonical set fold to UNKNOWN, never pass through
	assert.Equal(t, StateUnknown, CanonicalizeState("CANCELLED by 1234"))
	assert.Equal(t, StateUnknown, CanonicalizeState("TIMEOUT"))
	assert.Equal(t, StateUnknown, CanonicalizeState("completed"))
	assert.Equal(t, StateUnknown, CanonicalizeState(""))
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(StateCompleted))
	assert.True(t, IsTerminal(StateFailed))
	assert.True(t, IsTerminal(StateCancelled))

	// SUSPENDED and STOPPED may resume
	assert.False(t, IsTerminal(StateSuspended))
	assert.False(t, IsTerminal(StateStopped))
	assert.False(t, IsTerminal(StatePending))
	assert.False(t, IsTerminal(StateRunning))
	assert.False(t, IsTerminal(StateCompleting))
	assert.False(t, IsTerminal(StatePreempted))
	assert.False(t, IsTerminal(StateUnknown))
}

func TestIsKnownState(t *testing.T) {
	assert.True(t, IsKnownState(StatePending))
	assert.False(t, IsKnownState(StateUnknown))
	assert.False(t, IsKnownState(State("BOGUS")))
}

func TestStateTableIsACopy(t *testing.T) {
	table := StateTable()
	assert.Len(t, table, 9)
	assert.Equal(t, "CD", table[StateCompleted].Code)

	table[StateCompleted] = StateInfo{Code: "XX"}
	assert.Equal(t, "CD", StateTable()[StateCompleted].Code)
}
