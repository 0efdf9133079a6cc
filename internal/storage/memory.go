package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Rubicon0149/WorkBuddy/internal/record"
)

// MemStore is an in-memory Store. It backs tests and the ":memory:"
// database path, where nothing should touch disk.
type MemStore struct {
	mu sync.Mutex

	Sessions  []record.UsageSession
	Events    []record.ReminderEvent
	Energy    []record.EnergyLevel
	Focus     []record.FocusSession
	Summaries map[string]record.DailySummary

	// FailWrites makes every append return this error, for exercising the
	// fire-and-forget paths.
	FailWrites error
}

func NewMemStore() *MemStore {
	return &MemStore{Summaries: make(map[string]record.DailySummary)}
}

func (m *MemStore) Init(ctx context.Context) error { return nil }

func (m *MemStore) AppendUsageSession(ctx context.Context, s record.UsageSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.Sessions = append(m.Sessions, s)
	return nil
}

func (m *MemStore) AppendReminderEvent(ctx context.Context, e record.ReminderEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.Events = append(m.Events, e)
	return nil
}

func (m *MemStore) AppendEnergyLevel(ctx context.Context, e record.EnergyLevel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.Energy = append(m.Energy, e)
	return nil
}

func (m *MemStore) AppendFocusSession(ctx context.Context, s record.FocusSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.Focus = append(m.Focus, s)
	return nil
}

func (m *MemStore) SaveDailySummary(ctx context.Context, s record.DailySummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.Summaries[s.Date] = s
	return nil
}

func (m *MemStore) TotalScreenTime(ctx context.Context, date string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, s := range m.Sessions {
		if s.StartTime.Format("2006-01-02") == date {
			total += s.DurationSeconds
		}
	}
	return total, nil
}

func (m *MemStore) TopApps(ctx context.Context, date string, limit int) ([]record.AppTotal, error) {
	totals, err := m.DailyUsage(ctx, date)
	if err != nil {
		return nil, err
	}
	if len(totals) > limit {
		totals = totals[:limit]
	}
	return totals, nil
}

func (m *MemStore) DailyUsage(ctx context.Context, date string) ([]record.AppTotal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byApp := make(map[string]int)
	for _, s := range m.Sessions {
		if s.StartTime.Format("2006-01-02") == date {
			byApp[s.AppName] += s.DurationSeconds
		}
	}
	totals := make([]record.AppTotal, 0, len(byApp))
	for app, seconds := range byApp {
		totals = append(totals, record.AppTotal{AppName: app, Seconds: seconds})
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Seconds > totals[j].Seconds })
	return totals, nil
}

func (m *MemStore) ReminderHistory(ctx context.Context, date string) ([]record.ReminderEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var events []record.ReminderEvent
	for _, e := range m.Events {
		if e.SentAt.Format("2006-01-02") == date {
			events = append(events, e)
		}
	}
	return events, nil
}

func (m *MemStore) PruneBefore(ctx context.Context, cutoff time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.Sessions[:0]
	for _, s := range m.Sessions {
		if !s.StartTime.Before(cutoff) {
			kept = append(kept, s)
		}
	}
	m.Sessions = kept

	keptEvents := m.Events[:0]
	for _, e := range m.Events {
		if !e.SentAt.Before(cutoff) {
			keptEvents = append(keptEvents, e)
		}
	}
	m.Events = keptEvents
	return nil
}

func (m *MemStore) Close() error { return nil }

// SessionCount returns the number of persisted sessions under the lock.
func (m *MemStore) SessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sessions)
}

// EventCount returns the number of persisted reminder events under the lock.
func (m *MemStore) EventCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Events)
}

// LastEvent returns the most recent reminder event, if any.
func (m *MemStore) LastEvent() (record.ReminderEvent, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Events) == 0 {
		return record.ReminderEvent{}, false
	}
	return m.Events[len(m.Events)-1], true
}
