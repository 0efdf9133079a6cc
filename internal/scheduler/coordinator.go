package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Rubicon0149/WorkBuddy/internal/config"
	"github.com/Rubicon0149/WorkBuddy/internal/notify"
	"github.com/Rubicon0149/WorkBuddy/internal/policy"
	"github.com/Rubicon0149/WorkBuddy/internal/record"
	"github.com/Rubicon0149/WorkBuddy/internal/status"
	"github.com/Rubicon0149/WorkBuddy/internal/storage"
)

// notifyQueueSize bounds the pending-notification backlog. A persistently
// blocked notifier drops reminders instead of stalling timer evaluation.
const notifyQueueSize = 8

// Coordinator owns the reminder timer bank. All timers share its single tick
// loop, so reminders never fire concurrently with each other or mid-way
// through a gate evaluation; notifier invocations run on a separate worker
// fed through a bounded queue.
type Coordinator struct {
	cfg      *config.Provider
	store    storage.Store
	notifier notify.Notifier
	status   *status.Aggregator

	snap   config.Snapshot
	window policy.Window
	timers []*Timer

	notifyCh chan notify.Request

	warnedPolicy     bool
	summaryFiredDate string
	lastPruneDate    string
}

func New(cfg *config.Provider, store storage.Store, notifier notify.Notifier, agg *status.Aggregator) *Coordinator {
	c := &Coordinator{
		cfg:      cfg,
		store:    store,
		notifier: notifier,
		status:   agg,
		notifyCh: make(chan notify.Request, notifyQueueSize),
	}
	c.applyConfig(cfg.Snapshot(), time.Now())
	return c
}

// applyConfig swaps in a fresh snapshot. Timers keep their schedule unless
// their interval changed, in which case they restart from now.
func (c *Coordinator) applyConfig(snap config.Snapshot, now time.Time) {
	c.snap = snap
	c.window = policy.FromSnapshot(snap)

	previous := make(map[record.ReminderKind]*Timer, len(c.timers))
	for _, t := range c.timers {
		previous[t.Kind] = t
	}

	c.timers = c.timers[:0]
	for _, kind := range record.Kinds() {
		if kind == record.KindDailySummary {
			continue // time-of-day gated, not interval driven
		}
		interval := snap.Interval(kind)
		timer := &Timer{Kind: kind, Interval: interval, Enabled: interval > 0}
		if old, ok := previous[kind]; ok && old.Interval == interval {
			timer.NextFire = old.NextFire
		} else {
			timer.NextFire = now.Add(interval)
		}
		c.timers = append(c.timers, timer)
	}
}

// Run drives Tick on the coordinator cadence until ctx is cancelled. The
// notify worker exits with the context; in-flight notifier calls are not
// waited for.
func (c *Coordinator) Run(ctx context.Context) {
	go c.notifyWorker(ctx)

	log.Printf("Scheduler started (tick interval: %s)", c.snap.TickInterval())
	ticker := time.NewTicker(c.snap.TickInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Scheduler stopped.")
			return
		case now := <-ticker.C:
			c.Tick(ctx, now)
		}
	}
}

// Tick runs one evaluation pass over the timer bank in fixed kind order.
func (c *Coordinator) Tick(ctx context.Context, now time.Time) {
	select {
	case <-c.cfg.C:
		c.applyConfig(c.cfg.Snapshot(), now)
		log.Println("Scheduler picked up reloaded configuration.")
	default:
	}

	if c.window.Invalid && !c.warnedPolicy {
		log.Printf("Warning: work policy invalid (work_end %q <= work_start %q); reminders disabled until fixed",
			c.snap.WorkEnd, c.snap.WorkStart)
		c.warnedPolicy = true
	}

	inPolicy := policy.InPolicy(now, c.window)
	idleState := c.status.Idle()

	for _, timer := range c.timers {
		if !timer.Due(now) {
			continue
		}
		suppressed := !timer.Enabled ||
			!c.snap.NotificationsEnabled ||
			!inPolicy ||
			(idleState.Idle && c.snap.IdleSuppressesReminders)
		if !suppressed {
			title, body := notify.Message(timer.Kind)
			c.fire(ctx, timer.Kind, title, body, now)
		}
		timer.Advance(now)
	}

	c.evalDailySummary(ctx, now)
	c.evalPrune(ctx, now)
	c.publish(now, inPolicy)
}

// fire enqueues a notification for the worker and guarantees the reminder
// event is recorded even when the queue is saturated.
func (c *Coordinator) fire(ctx context.Context, kind record.ReminderKind, title, body string, now time.Time) {
	req := notify.Request{
		Kind:    kind,
		Title:   title,
		Message: body,
		Event:   record.ReminderEvent{Kind: kind, SentAt: now},
	}
	select {
	case c.notifyCh <- req:
	default:
		log.Printf("Warning: notification backlog full, dropping %s display", kind)
		c.appendEvent(ctx, req.Event)
	}
}

// notifyWorker delivers queued notifications. A modal notifier can block
// here without touching the tick loop's cadence.
func (c *Coordinator) notifyWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-c.notifyCh:
			ack, err := c.notifier.Notify(req.Kind, req.Title, req.Message)
			if err != nil {
				// Timer already advanced; never retried within the interval.
				log.Printf("Notifier failed for %s: %v", req.Kind, err)
				c.status.SetError(err)
			} else {
				req.Event.Acknowledged = &ack
			}
			c.appendEvent(ctx, req.Event)
		}
	}
}

func (c *Coordinator) appendEvent(ctx context.Context, e record.ReminderEvent) {
	if err := c.store.AppendReminderEvent(ctx, e); err != nil {
		log.Printf("Error persisting reminder event (%s): %v", e.Kind, err)
		c.status.SetError(err)
	}
}

// evalDailySummary fires the summary in the one-tick window after the
// configured time of day. If the process was down at the trigger time, that
// day's summary is skipped, never fired late.
func (c *Coordinator) evalDailySummary(ctx context.Context, now time.Time) {
	targetMinutes, err := config.ParseClock(c.snap.Reminders.DailySummaryTime)
	if err != nil {
		return // sanitized at load time; defensive parse only
	}
	target := time.Date(now.Year(), now.Month(), now.Day(), targetMinutes/60, targetMinutes%60, 0, 0, now.Location())

	date := now.Format("2006-01-02")
	if c.summaryFiredDate == date {
		return
	}
	if now.Before(target) || now.Sub(target) >= c.snap.TickInterval() {
		return
	}
	c.summaryFiredDate = date

	if !c.snap.NotificationsEnabled {
		return
	}
	c.fireDailySummary(ctx, now)
}

func (c *Coordinator) fireDailySummary(ctx context.Context, now time.Time) {
	date := now.Format("2006-01-02")

	total, err := c.store.TotalScreenTime(ctx, date)
	if err != nil {
		log.Printf("Error building daily summary: %v", err)
		c.status.SetError(err)
		return
	}
	topApps, err := c.store.TopApps(ctx, date, 3)
	if err != nil {
		log.Printf("Error building daily summary: %v", err)
		c.status.SetError(err)
		return
	}

	summary := record.DailySummary{Date: date, TotalSeconds: total, TopApps: topApps}
	if err := c.store.SaveDailySummary(ctx, summary); err != nil {
		log.Printf("Error saving daily summary: %v", err)
		c.status.SetError(err)
	}

	title, _ := notify.Message(record.KindDailySummary)
	c.fire(ctx, record.KindDailySummary, title, formatSummary(summary), now)
}

func formatSummary(s record.DailySummary) string {
	body := fmt.Sprintf("Screen time today: %s.", formatDuration(time.Duration(s.TotalSeconds)*time.Second))
	for i, app := range s.TopApps {
		if i == 0 {
			body += " Top apps:"
		}
		body += fmt.Sprintf(" %s (%s)", app.AppName, formatDuration(time.Duration(app.Seconds)*time.Second))
		if i < len(s.TopApps)-1 {
			body += ","
		}
	}
	return body
}

// evalPrune runs the retention sweep once per calendar day.
func (c *Coordinator) evalPrune(ctx context.Context, now time.Time) {
	if c.snap.RetentionDays <= 0 {
		return
	}
	date := now.Format("2006-01-02")
	if c.lastPruneDate == date {
		return
	}
	c.lastPruneDate = date

	cutoff := now.AddDate(0, 0, -c.snap.RetentionDays)
	if err := c.store.PruneBefore(ctx, cutoff); err != nil {
		log.Printf("Error pruning old records: %v", err)
		c.status.SetError(err)
	}
}

func (c *Coordinator) publish(now time.Time, inPolicy bool) {
	statuses := make([]record.TimerStatus, 0, len(c.timers)+1)
	for _, timer := range c.timers {
		statuses = append(statuses, timer.Status(now))
	}
	statuses = append(statuses, c.summaryStatus(now))
	c.status.SetTimers(statuses, inPolicy)
}

func (c *Coordinator) summaryStatus(now time.Time) record.TimerStatus {
	st := record.TimerStatus{Kind: record.KindDailySummary, Enabled: true}
	targetMinutes, err := config.ParseClock(c.snap.Reminders.DailySummaryTime)
	if err != nil {
		st.Enabled = false
		return st
	}
	target := time.Date(now.Year(), now.Month(), now.Day(), targetMinutes/60, targetMinutes%60, 0, 0, now.Location())
	if !target.After(now) {
		target = target.AddDate(0, 0, 1)
	}
	st.SecondsRemaining = int(target.Sub(now).Seconds())
	return st
}

// TriggerTest fires a reminder immediately, bypassing policy and timers.
// Used by the IPC test command; scheduled fire times are unaffected.
func (c *Coordinator) TriggerTest(ctx context.Context, kind record.ReminderKind) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown reminder kind %q", kind)
	}
	now := time.Now()
	if kind == record.KindDailySummary {
		c.fireDailySummary(ctx, now)
		return nil
	}
	title, body := notify.Message(kind)
	c.fire(ctx, kind, title, body, now)
	return nil
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
