package idle

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEntersIdleAtThreshold(t *testing.T) {
	d := New(300 * time.Second)
	now := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	state := d.Sample(now, 299, nil)
	assert.False(t, state.Idle)
	assert.True(t, state.IdleSince.IsZero())

	state = d.Sample(now.Add(5*time.Second), 300, nil)
	assert.True(t, state.Idle)
	assert.Equal(t, now.Add(5*time.Second), state.IdleSince)
}

func TestExitsIdleOnSingleActiveSample(t *testing.T) {
	d := New(300 * time.Second)
	now := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	d.Sample(now, 400, nil)
	assert.True(t, d.State().Idle)

	// No hysteresis on recovery: one low reading flips back.
	state := d.Sample(now.Add(5*time.Second), 2, nil)
	assert.False(t, state.Idle)
	assert.True(t, state.IdleSince.IsZero())
}

func TestIdleSinceStableWhileIdle(t *testing.T) {
	d := New(300 * time.Second)
	entered := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	d.Sample(entered, 300, nil)
	state := d.Sample(entered.Add(time.Minute), 360, nil)
	assert.True(t, state.Idle)
	assert.Equal(t, entered, state.IdleSince, "IdleSince must not advance while already idle")
}

func TestFailedReadingKeepsPreviousState(t *testing.T) {
	d := New(300 * time.Second)
	now := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	d.Sample(now, 400, nil)

	state := d.Sample(now.Add(time.Second), 0, errors.New("inspector down"))
	assert.True(t, state.Idle, "error reading must not reset idle state")

	state = d.Sample(now.Add(2*time.Second), -1, nil)
	assert.True(t, state.Idle, "negative reading is treated as a failure")
}
