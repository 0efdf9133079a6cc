package status

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Rubicon0149/WorkBuddy/internal/record"
)

func TestSnapshotIdempotent(t *testing.T) {
	a := New()
	start := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	a.SetSession("Editor", "main.go", start, 42)
	a.SetIdle(record.IdleState{})
	a.SetTimers([]record.TimerStatus{
		{Kind: record.KindBreak, Enabled: true, SecondsRemaining: 120},
	}, true)

	first := a.Snapshot()
	second := a.Snapshot()
	assert.Equal(t, first, second, "two snapshots without an intervening tick must be identical")
}

func TestSnapshotIsValueCopy(t *testing.T) {
	a := New()
	a.SetTimers([]record.TimerStatus{
		{Kind: record.KindBreak, Enabled: true, SecondsRemaining: 120},
	}, true)

	snap := a.Snapshot()
	snap.Timers[0].SecondsRemaining = 0

	again := a.Snapshot()
	assert.Equal(t, 120, again.Timers[0].SecondsRemaining, "mutating a snapshot must not leak back")
}

func TestSessionFields(t *testing.T) {
	a := New()
	start := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	a.SetSession("Browser", "docs", start, 65)
	snap := a.Snapshot()
	assert.True(t, snap.Tracking)
	assert.Equal(t, "Browser", snap.CurrentApp)
	assert.Equal(t, 65, snap.SessionSeconds)

	a.SetSession("", "", time.Time{}, 0)
	snap = a.Snapshot()
	assert.False(t, snap.Tracking)
	assert.Empty(t, snap.CurrentApp)
}

func TestLastError(t *testing.T) {
	a := New()
	a.SetError(errors.New("persistence write failed"))
	assert.Equal(t, "persistence write failed", a.Snapshot().LastError)

	a.SetError(nil)
	assert.Empty(t, a.Snapshot().LastError)
}

func TestIdleAccessor(t *testing.T) {
	a := New()
	since := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	a.SetIdle(record.IdleState{Idle: true, IdleSince: since})

	state := a.Idle()
	assert.True(t, state.Idle)
	assert.Equal(t, since, state.IdleSince)
}
