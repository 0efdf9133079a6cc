package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rubicon0149/WorkBuddy/internal/idle"
	"github.com/Rubicon0149/WorkBuddy/internal/inspector"
	"github.com/Rubicon0149/WorkBuddy/internal/status"
	"github.com/Rubicon0149/WorkBuddy/internal/storage"
)

// fakeInspector returns whatever the test scripts into it.
type fakeInspector struct {
	focus    inspector.FocusInfo
	focusErr error
	idleSec  int
	idleErr  error
}

func (f *fakeInspector) CurrentForegroundWindow() (inspector.FocusInfo, error) {
	return f.focus, f.focusErr
}

func (f *fakeInspector) IdleSeconds() (int, error) {
	return f.idleSec, f.idleErr
}

func (f *fakeInspector) Close() error { return nil }

func newTestTracker(insp *fakeInspector, store storage.Store) (*Tracker, *status.Aggregator) {
	agg := status.New()
	detector := idle.New(300 * time.Second)
	return New(insp, store, detector, agg, 5*time.Second), agg
}

func tickAt(base time.Time, seconds int) time.Time {
	return base.Add(time.Duration(seconds) * time.Second)
}

func TestFocusChangeClosesSession(t *testing.T) {
	// Scenario: 65s of Editor, then a switch to Browser.
	ctx := context.Background()
	insp := &fakeInspector{focus: inspector.FocusInfo{AppName: "Editor", Title: "main.go"}}
	store := storage.NewMemStore()
	trk, agg := newTestTracker(insp, store)

	base := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	for s := 0; s <= 65; s += 5 {
		closed := trk.Tick(ctx, tickAt(base, s))
		assert.Nil(t, closed, "no session should close while focus is stable")
	}

	insp.focus = inspector.FocusInfo{AppName: "Browser", Title: "docs"}
	closed := trk.Tick(ctx, tickAt(base, 65))
	require.NotNil(t, closed)
	assert.Equal(t, "Editor", closed.AppName)
	assert.Equal(t, 65, closed.DurationSeconds)

	require.Equal(t, 1, store.SessionCount())
	assert.Equal(t, "Editor", store.Sessions[0].AppName)

	// Browser session is still open and visible in status.
	snap := agg.Snapshot()
	assert.True(t, snap.Tracking)
	assert.Equal(t, "Browser", snap.CurrentApp)
}

func TestTitleChangeIsNewSession(t *testing.T) {
	ctx := context.Background()
	insp := &fakeInspector{focus: inspector.FocusInfo{AppName: "Browser", Title: "tab one"}}
	store := storage.NewMemStore()
	trk, _ := newTestTracker(insp, store)

	base := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	trk.Tick(ctx, base)

	insp.focus.Title = "tab two"
	closed := trk.Tick(ctx, tickAt(base, 10))
	require.NotNil(t, closed)
	assert.Equal(t, "tab one", closed.WindowTitle)
}

func TestIdleClosesSessionAndSkipsInspector(t *testing.T) {
	// Scenario: idle duration climbs past the 300s threshold with the app
	// unchanged; the session closes at the crossing tick and nothing reopens
	// until the user is back.
	ctx := context.Background()
	insp := &fakeInspector{focus: inspector.FocusInfo{AppName: "Editor", Title: "main.go"}}
	store := storage.NewMemStore()
	trk, agg := newTestTracker(insp, store)

	base := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	trk.Tick(ctx, base)

	insp.idleSec = 295
	closed := trk.Tick(ctx, tickAt(base, 295))
	assert.Nil(t, closed)

	insp.idleSec = 300
	insp.focusErr = errors.New("must not be queried while idle")
	closed = trk.Tick(ctx, tickAt(base, 300))
	require.NotNil(t, closed)
	assert.Equal(t, 300, closed.DurationSeconds)
	assert.True(t, agg.Snapshot().Idle)

	// Still idle: no session may open.
	insp.idleSec = 400
	assert.Nil(t, trk.Tick(ctx, tickAt(base, 305)))
	assert.False(t, agg.Snapshot().Tracking)

	// Activity returns: a fresh session opens at this tick.
	insp.idleSec = 0
	insp.focusErr = nil
	assert.Nil(t, trk.Tick(ctx, tickAt(base, 310)))
	snap := agg.Snapshot()
	assert.True(t, snap.Tracking)
	assert.Equal(t, tickAt(base, 310), snap.SessionStart)
}

func TestInspectorFailureIsNoOp(t *testing.T) {
	ctx := context.Background()
	insp := &fakeInspector{focus: inspector.FocusInfo{AppName: "Editor", Title: "main.go"}}
	store := storage.NewMemStore()
	trk, agg := newTestTracker(insp, store)

	base := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	trk.Tick(ctx, base)

	insp.focusErr = inspector.ErrUnavailable
	closed := trk.Tick(ctx, tickAt(base, 5))
	assert.Nil(t, closed, "transient query failure must not close the session")
	assert.Equal(t, 0, store.SessionCount())

	snap := agg.Snapshot()
	assert.True(t, snap.Tracking, "session stays open across a failed query")
	assert.NotEmpty(t, snap.LastError)

	// Recovery with the same window: still the same session.
	insp.focusErr = nil
	assert.Nil(t, trk.Tick(ctx, tickAt(base, 10)))
	assert.Equal(t, base, agg.Snapshot().SessionStart)
}

func TestPersistenceFailureDoesNotCrashTracker(t *testing.T) {
	ctx := context.Background()
	insp := &fakeInspector{focus: inspector.FocusInfo{AppName: "Editor", Title: "main.go"}}
	store := storage.NewMemStore()
	store.FailWrites = errors.New("disk full")
	trk, agg := newTestTracker(insp, store)

	base := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	trk.Tick(ctx, base)

	insp.focus = inspector.FocusInfo{AppName: "Browser", Title: "docs"}
	closed := trk.Tick(ctx, tickAt(base, 30))
	require.NotNil(t, closed, "session still closes when the write fails")
	assert.Equal(t, 0, store.SessionCount())
	assert.Contains(t, agg.Snapshot().LastError, "disk full")
}

func TestShutdownClosesOpenSession(t *testing.T) {
	ctx := context.Background()
	insp := &fakeInspector{focus: inspector.FocusInfo{AppName: "Editor", Title: "main.go"}}
	store := storage.NewMemStore()
	trk, agg := newTestTracker(insp, store)

	base := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	trk.Tick(ctx, base)

	trk.Shutdown(tickAt(base, 42))
	require.Equal(t, 1, store.SessionCount())
	assert.Equal(t, 42, store.Sessions[0].DurationSeconds)
	assert.False(t, agg.Snapshot().Tracking)
}

func TestClosedSessionsPartitionActiveTime(t *testing.T) {
	// Closed sessions must tile the active timeline: no gaps, no overlaps,
	// durations summing to the active wall time.
	ctx := context.Background()
	insp := &fakeInspector{}
	store := storage.NewMemStore()
	trk, _ := newTestTracker(insp, store)

	base := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	script := []struct {
		at  int // seconds since base
		app string
	}{
		{0, "Editor"},
		{5, "Editor"},
		{10, "Browser"},
		{15, "Browser"},
		{20, "Terminal"},
		{25, "Editor"},
		{30, "Editor"},
	}
	for _, step := range script {
		insp.focus = inspector.FocusInfo{AppName: step.app, Title: "w"}
		trk.Tick(ctx, tickAt(base, step.at))
	}
	trk.Shutdown(tickAt(base, 35))

	sessions := store.Sessions
	require.NotEmpty(t, sessions)

	total := 0
	for i, s := range sessions {
		assert.True(t, s.EndTime.After(s.StartTime))
		total += s.DurationSeconds
		if i > 0 {
			assert.Equal(t, sessions[i-1].EndTime, s.StartTime,
				"sessions must be contiguous")
		}
	}
	assert.Equal(t, base, sessions[0].StartTime)
	assert.Equal(t, 35, total, "durations must sum to the active wall time")
}

func TestSubSecondSessionNotPersisted(t *testing.T) {
	ctx := context.Background()
	insp := &fakeInspector{focus: inspector.FocusInfo{AppName: "Editor", Title: "main.go"}}
	store := storage.NewMemStore()
	trk, _ := newTestTracker(insp, store)

	now := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	trk.Tick(ctx, now)

	// Focus flickers within the same instant.
	insp.focus = inspector.FocusInfo{AppName: "Popup", Title: "dialog"}
	closed := trk.Tick(ctx, now)
	require.NotNil(t, closed)
	assert.Equal(t, 0, closed.DurationSeconds)
	assert.Equal(t, 0, store.SessionCount())
}
