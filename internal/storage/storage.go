package storage

import (
	"context"
	"time"

	"github.com/Rubicon0149/WorkBuddy/internal/record"
)

// Store is the append-only persistence boundary of the core. Writes are
// fire-and-forget from the caller's perspective: errors are logged and the
// record is dropped, never retried.
type Store interface {
	Init(ctx context.Context) error

	AppendUsageSession(ctx context.Context, s record.UsageSession) error
	AppendReminderEvent(ctx context.Context, e record.ReminderEvent) error
	AppendEnergyLevel(ctx context.Context, e record.EnergyLevel) error
	AppendFocusSession(ctx context.Context, s record.FocusSession) error
	SaveDailySummary(ctx context.Context, s record.DailySummary) error

	// Read side for the daily summary and CLI reports. Dates are YYYY-MM-DD.
	TotalScreenTime(ctx context.Context, date string) (int, error)
	TopApps(ctx context.Context, date string, limit int) ([]record.AppTotal, error)
	DailyUsage(ctx context.Context, date string) ([]record.AppTotal, error)
	ReminderHistory(ctx context.Context, date string) ([]record.ReminderEvent, error)

	// PruneBefore removes usage and reminder rows older than cutoff.
	PruneBefore(ctx context.Context, cutoff time.Time) error

	Close() error
}
