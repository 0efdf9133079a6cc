package focus

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Rubicon0149/WorkBuddy/internal/config"
	"github.com/Rubicon0149/WorkBuddy/internal/notify"
	"github.com/Rubicon0149/WorkBuddy/internal/record"
	"github.com/Rubicon0149/WorkBuddy/internal/status"
	"github.com/Rubicon0149/WorkBuddy/internal/storage"
)

type startCmd struct {
	state record.FocusState
}

type stopCmd struct{}

// Manager runs pomodoro-style focus sessions: focus intervals alternate with
// short breaks, with a long break after every LongBreakInterval focus
// sessions. Commands arrive over a channel; all state lives on the run loop.
type Manager struct {
	cfg      config.FocusConfig
	store    storage.Store
	notifier notify.Notifier
	status   *status.Aggregator

	state      record.FocusState
	cycleCount int
	timer      *time.Timer
	startTime  time.Time
	endTime    time.Time
	planned    time.Duration

	cmdCh chan interface{}
}

func New(cfg config.FocusConfig, store storage.Store, notifier notify.Notifier, agg *status.Aggregator) *Manager {
	return &Manager{
		cfg:      cfg,
		store:    store,
		notifier: notifier,
		status:   agg,
		state:    record.FocusIdle,
		cmdCh:    make(chan interface{}, 10),
	}
}

// StartSession requests a transition into the given session state.
func (m *Manager) StartSession(ctx context.Context, state record.FocusState) error {
	switch state {
	case record.FocusRunning, record.FocusShortBreak, record.FocusLongBreak:
	default:
		return fmt.Errorf("invalid focus session state %q", state)
	}
	select {
	case m.cmdCh <- startCmd{state: state}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StopSession cancels the active session, recording it as incomplete.
func (m *Manager) StopSession(ctx context.Context) error {
	select {
	case m.cmdCh <- stopCmd{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) Run(ctx context.Context) {
	log.Println("Focus session manager started.")
	defer log.Println("Focus session manager stopped.")

	updateTicker := time.NewTicker(time.Second)
	defer updateTicker.Stop()

	for {
		var timerChan <-chan time.Time
		if m.timer != nil {
			timerChan = m.timer.C
		}

		select {
		case <-ctx.Done():
			m.abortActive(time.Now())
			return

		case cmd := <-m.cmdCh:
			switch c := cmd.(type) {
			case startCmd:
				m.start(ctx, c.state, time.Now())
			case stopCmd:
				m.stop(ctx, time.Now())
			}

		case <-timerChan:
			m.timer = nil
			m.complete(ctx, time.Now())

		case now := <-updateTicker.C:
			m.publish(now)
		}
	}
}

func (m *Manager) start(ctx context.Context, state record.FocusState, now time.Time) {
	if m.state != record.FocusIdle {
		m.record(ctx, now, false)
		m.stopTimer()
	}

	var duration time.Duration
	switch state {
	case record.FocusRunning:
		duration = m.cfg.FocusDuration()
	case record.FocusShortBreak:
		duration = m.cfg.ShortBreakDuration()
	case record.FocusLongBreak:
		duration = m.cfg.LongBreakDuration()
	}

	m.state = state
	m.startTime = now
	m.planned = duration
	m.endTime = now.Add(duration)
	m.timer = time.NewTimer(duration)

	log.Printf("Focus session started: %s (%s)", state, duration)
	m.publish(now)
}

func (m *Manager) stop(ctx context.Context, now time.Time) {
	if m.state == record.FocusIdle {
		return
	}
	m.record(ctx, now, false)
	m.stopTimer()
	m.state = record.FocusIdle
	m.cycleCount = 0
	log.Println("Focus session stopped.")
	m.publish(now)
}

// complete handles a session running to its full length and auto-starts the
// next phase of the cycle.
func (m *Manager) complete(ctx context.Context, now time.Time) {
	finished := m.state
	m.record(ctx, now, true)
	m.stopTimer()
	m.state = record.FocusIdle

	var next record.FocusState
	var message string
	switch finished {
	case record.FocusRunning:
		m.cycleCount++
		next = record.FocusShortBreak
		if m.cfg.LongBreakInterval > 0 && m.cycleCount%m.cfg.LongBreakInterval == 0 {
			next = record.FocusLongBreak
		}
		message = "Focus session complete! Time for a break."
	case record.FocusShortBreak, record.FocusLongBreak:
		next = record.FocusRunning
		message = "Break finished! Back to focus."
	default:
		return
	}

	// Off-loop so a modal notifier cannot stall the cycle.
	go func() {
		if _, err := m.notifier.Notify(record.KindBreak, "Focus Session", message); err != nil {
			log.Printf("Focus notification failed: %v", err)
		}
	}()

	m.start(ctx, next, now)
}

// abortActive persists the in-flight session during shutdown.
func (m *Manager) abortActive(now time.Time) {
	if m.state == record.FocusIdle {
		return
	}
	saveCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	m.record(saveCtx, now, false)
	m.stopTimer()
	m.state = record.FocusIdle
}

func (m *Manager) record(ctx context.Context, now time.Time, completed bool) {
	if m.state == record.FocusIdle {
		return
	}
	session := record.FocusSession{
		State:          m.state,
		PlannedSeconds: int(m.planned.Seconds()),
		ActualSeconds:  int(now.Sub(m.startTime).Seconds()),
		Completed:      completed,
		StartTime:      m.startTime,
		EndTime:        now,
	}
	if err := m.store.AppendFocusSession(ctx, session); err != nil {
		log.Printf("Error persisting focus session: %v", err)
		m.status.SetError(err)
	}
}

func (m *Manager) stopTimer() {
	if m.timer == nil {
		return
	}
	if !m.timer.Stop() {
		select {
		case <-m.timer.C:
		default:
		}
	}
	m.timer = nil
	m.endTime = time.Time{}
}

func (m *Manager) publish(now time.Time) {
	st := record.FocusStatus{State: m.state, CycleCount: m.cycleCount}
	if m.state != record.FocusIdle && !m.endTime.IsZero() {
		remaining := int(m.endTime.Sub(now).Seconds())
		if remaining < 0 {
			remaining = 0
		}
		st.SecondsRemaining = remaining
	}
	m.status.SetFocus(st)
}
