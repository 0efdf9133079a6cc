package focus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rubicon0149/WorkBuddy/internal/config"
	"github.com/Rubicon0149/WorkBuddy/internal/record"
	"github.com/Rubicon0149/WorkBuddy/internal/status"
	"github.com/Rubicon0149/WorkBuddy/internal/storage"
)

type fakeNotifier struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeNotifier) Notify(kind record.ReminderKind, title, message string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return false, nil
}

func (f *fakeNotifier) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var testFocusConfig = config.FocusConfig{
	FocusMinutes:      25,
	ShortBreakMinutes: 5,
	LongBreakMinutes:  15,
	LongBreakInterval: 4,
}

func newTestManager(cfg config.FocusConfig) (*Manager, *storage.MemStore, *fakeNotifier, *status.Aggregator) {
	store := storage.NewMemStore()
	notifier := &fakeNotifier{}
	agg := status.New()
	return New(cfg, store, notifier, agg), store, notifier, agg
}

func TestStartPublishesRunningState(t *testing.T) {
	m, store, _, agg := newTestManager(testFocusConfig)
	defer m.stopTimer()

	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	m.start(context.Background(), record.FocusRunning, now)

	focus := agg.Snapshot().Focus
	assert.Equal(t, record.FocusRunning, focus.State)
	assert.Equal(t, 1500, focus.SecondsRemaining)
	assert.Empty(t, store.Focus, "nothing to persist until the session ends")
}

func TestCompleteAlternatesFocusAndBreak(t *testing.T) {
	m, store, notifier, agg := newTestManager(testFocusConfig)
	defer m.stopTimer()
	ctx := context.Background()

	start := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	m.start(ctx, record.FocusRunning, start)

	m.complete(ctx, start.Add(25*time.Minute))
	require.Len(t, store.Focus, 1)
	sess := store.Focus[0]
	assert.Equal(t, record.FocusRunning, sess.State)
	assert.Equal(t, 1500, sess.PlannedSeconds)
	assert.Equal(t, 1500, sess.ActualSeconds)
	assert.True(t, sess.Completed)

	focus := agg.Snapshot().Focus
	assert.Equal(t, record.FocusShortBreak, focus.State)
	assert.Equal(t, 1, focus.CycleCount)

	m.complete(ctx, start.Add(30*time.Minute))
	require.Len(t, store.Focus, 2)
	assert.Equal(t, record.FocusShortBreak, store.Focus[1].State)
	assert.True(t, store.Focus[1].Completed)
	assert.Equal(t, record.FocusRunning, agg.Snapshot().Focus.State)

	require.Eventually(t, func() bool { return notifier.callCount() == 2 },
		2*time.Second, 10*time.Millisecond)
}

func TestLongBreakAfterConfiguredCycles(t *testing.T) {
	cfg := testFocusConfig
	cfg.LongBreakInterval = 2
	m, _, _, agg := newTestManager(cfg)
	defer m.stopTimer()
	ctx := context.Background()

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	m.start(ctx, record.FocusRunning, now)

	// First cycle: focus then short break.
	now = now.Add(25 * time.Minute)
	m.complete(ctx, now)
	assert.Equal(t, record.FocusShortBreak, agg.Snapshot().Focus.State)

	now = now.Add(5 * time.Minute)
	m.complete(ctx, now)
	assert.Equal(t, record.FocusRunning, agg.Snapshot().Focus.State)

	// Second cycle ends in the long break.
	now = now.Add(25 * time.Minute)
	m.complete(ctx, now)
	focus := agg.Snapshot().Focus
	assert.Equal(t, record.FocusLongBreak, focus.State)
	assert.Equal(t, 2, focus.CycleCount)
}

func TestStopRecordsIncompleteSession(t *testing.T) {
	m, store, _, agg := newTestManager(testFocusConfig)
	ctx := context.Background()

	start := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	m.start(ctx, record.FocusRunning, start)
	m.stop(ctx, start.Add(10*time.Minute))

	require.Len(t, store.Focus, 1)
	sess := store.Focus[0]
	assert.Equal(t, 600, sess.ActualSeconds)
	assert.Equal(t, 1500, sess.PlannedSeconds)
	assert.False(t, sess.Completed)

	focus := agg.Snapshot().Focus
	assert.Equal(t, record.FocusIdle, focus.State)
	assert.Equal(t, 0, focus.CycleCount, "stopping resets the cycle")
}

func TestStopWhenIdleIsNoOp(t *testing.T) {
	m, store, _, _ := newTestManager(testFocusConfig)
	m.stop(context.Background(), time.Now())
	assert.Empty(t, store.Focus)
}

func TestRestartAbortsActiveSession(t *testing.T) {
	m, store, _, agg := newTestManager(testFocusConfig)
	defer m.stopTimer()
	ctx := context.Background()

	start := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	m.start(ctx, record.FocusRunning, start)
	m.start(ctx, record.FocusShortBreak, start.Add(7*time.Minute))

	require.Len(t, store.Focus, 1)
	assert.Equal(t, record.FocusRunning, store.Focus[0].State)
	assert.False(t, store.Focus[0].Completed)
	assert.Equal(t, 420, store.Focus[0].ActualSeconds)

	assert.Equal(t, record.FocusShortBreak, agg.Snapshot().Focus.State)
}

func TestAbortActivePersistsOnShutdown(t *testing.T) {
	m, store, _, _ := newTestManager(testFocusConfig)
	ctx := context.Background()

	start := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	m.start(ctx, record.FocusRunning, start)
	m.abortActive(start.Add(3 * time.Minute))

	require.Len(t, store.Focus, 1)
	assert.False(t, store.Focus[0].Completed)
	assert.Equal(t, 180, store.Focus[0].ActualSeconds)
	assert.Equal(t, record.FocusIdle, m.state)
}

func TestStartSessionRejectsInvalidState(t *testing.T) {
	m, _, _, _ := newTestManager(testFocusConfig)
	ctx := context.Background()

	assert.Error(t, m.StartSession(ctx, record.FocusState("nap")))
	assert.Error(t, m.StartSession(ctx, record.FocusIdle))
	assert.NoError(t, m.StartSession(ctx, record.FocusRunning))
}
