package tracker

import (
	"context"
	"log"
	"time"

	"github.com/Rubicon0149/WorkBuddy/internal/idle"
	"github.com/Rubicon0149/WorkBuddy/internal/inspector"
	"github.com/Rubicon0149/WorkBuddy/internal/record"
	"github.com/Rubicon0149/WorkBuddy/internal/status"
	"github.com/Rubicon0149/WorkBuddy/internal/storage"
)

// Tracker polls the inspector on a fixed cadence and turns foreground-window
// focus changes into closed usage sessions. It owns the single open session
// and the idle detector; nothing else mutates either.
type Tracker struct {
	insp     inspector.Inspector
	store    storage.Store
	detector *idle.Detector
	status   *status.Aggregator
	interval time.Duration

	open *record.UsageSession
}

func New(insp inspector.Inspector, store storage.Store, detector *idle.Detector, agg *status.Aggregator, interval time.Duration) *Tracker {
	return &Tracker{
		insp:     insp,
		store:    store,
		detector: detector,
		status:   agg,
		interval: interval,
	}
}

// Run drives Tick on the polling cadence until ctx is cancelled, then closes
// and persists any open session before returning.
func (t *Tracker) Run(ctx context.Context) {
	log.Printf("Tracker started (poll interval: %s)", t.interval)
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.Shutdown(time.Now())
			log.Println("Tracker stopped.")
			return
		case now := <-ticker.C:
			t.Tick(ctx, now)
		}
	}
}

// Tick runs one evaluation pass. The returned session, if any, is the one
// closed during this tick; it has already been handed to persistence.
// Ordering is fixed: idle check first, then session diffing.
func (t *Tracker) Tick(ctx context.Context, now time.Time) *record.UsageSession {
	idleSeconds, err := t.insp.IdleSeconds()
	state := t.detector.Sample(now, idleSeconds, err)
	t.status.SetIdle(state)

	if state.Idle {
		// No inspector query while idle: nothing to attribute time to.
		closed := t.closeOpen(ctx, now)
		t.publishSession(now)
		return closed
	}

	info, err := t.insp.CurrentForegroundWindow()
	if err != nil {
		// Transient failure is a no-op tick: never fragment sessions on noise.
		t.status.SetError(err)
		t.publishSession(now)
		return nil
	}

	var closed *record.UsageSession
	if t.open != nil && (t.open.AppName != info.AppName || t.open.WindowTitle != info.Title) {
		closed = t.closeOpen(ctx, now)
	}
	if t.open == nil {
		t.open = &record.UsageSession{
			AppName:     info.AppName,
			WindowTitle: info.Title,
			StartTime:   now,
		}
		log.Printf("Started tracking: %s (%s)", t.open.AppName, truncate(t.open.WindowTitle, 60))
	}

	t.publishSession(now)
	return closed
}

// Shutdown closes and persists the open session, if any.
func (t *Tracker) Shutdown(now time.Time) {
	t.closeOpen(context.Background(), now)
	t.publishSession(now)
}

func (t *Tracker) closeOpen(ctx context.Context, now time.Time) *record.UsageSession {
	if t.open == nil {
		return nil
	}
	closed := t.open
	t.open = nil

	closed.EndTime = now
	closed.DurationSeconds = int(closed.EndTime.Sub(closed.StartTime).Seconds())
	log.Printf("Ended tracking: %s (duration: %ds)", closed.AppName, closed.DurationSeconds)

	// Sub-second sessions are title flicker, not usage.
	if closed.DurationSeconds < 1 {
		return closed
	}

	// At-most-once: a failed write drops the session and the tracker moves on.
	if err := t.store.AppendUsageSession(ctx, *closed); err != nil {
		log.Printf("Error persisting usage session for %s: %v", closed.AppName, err)
		t.status.SetError(err)
	}
	return closed
}

func (t *Tracker) publishSession(now time.Time) {
	if t.open == nil {
		t.status.SetSession("", "", time.Time{}, 0)
		return
	}
	elapsed := int(now.Sub(t.open.StartTime).Seconds())
	t.status.SetSession(t.open.AppName, t.open.WindowTitle, t.open.StartTime, elapsed)
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
