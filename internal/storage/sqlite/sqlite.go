package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Rubicon0149/WorkBuddy/internal/record"
	"github.com/Rubicon0149/WorkBuddy/internal/storage"
)

type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

func NewSQLiteStore(dbPath string) storage.Store {
	return &SQLiteStore{dbPath: dbPath}
}

const createTablesSQL = `
CREATE TABLE IF NOT EXISTS app_usage (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	app_name TEXT NOT NULL,
	window_title TEXT,
	start_time DATETIME NOT NULL,
	end_time DATETIME NOT NULL,
	duration_seconds INTEGER NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_app_usage_start ON app_usage (start_time);

CREATE TABLE IF NOT EXISTS reminders_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	reminder_type TEXT NOT NULL,
	sent_at DATETIME NOT NULL,
	acknowledged INTEGER
);
CREATE INDEX IF NOT EXISTS idx_reminders_sent ON reminders_log (sent_at);

CREATE TABLE IF NOT EXISTS daily_summary (
	date TEXT PRIMARY KEY,
	total_screen_time INTEGER,
	top_apps TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS focus_sessions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_type TEXT NOT NULL,
	planned_seconds INTEGER NOT NULL,
	actual_seconds INTEGER NOT NULL,
	completed INTEGER NOT NULL,
	start_time DATETIME NOT NULL,
	end_time DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS energy_levels (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	level INTEGER NOT NULL,
	note TEXT,
	recorded_at DATETIME NOT NULL
);
`

func (s *SQLiteStore) Init(ctx context.Context) error {
	dir := filepath.Dir(s.dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create db directory %s: %w", dir, err)
	}

	log.Printf("Initializing SQLite database at: %s", s.dbPath)
	db, err := sql.Open("sqlite3", s.dbPath+"?_journal=WAL&_timeout=5000&_fk=true")
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	s.db = db

	// Single writer connection keeps SQLite happy.
	s.db.SetMaxOpenConns(1)
	s.db.SetMaxIdleConns(1)
	s.db.SetConnMaxLifetime(time.Minute * 5)

	if err := s.db.PingContext(ctx); err != nil {
		s.db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, createTablesSQL); err != nil {
		s.db.Close()
		return fmt.Errorf("failed to create tables: %w", err)
	}
	log.Println("Database initialized successfully.")
	return nil
}

func (s *SQLiteStore) AppendUsageSession(ctx context.Context, sess record.UsageSession) error {
	query := `INSERT INTO app_usage (app_name, window_title, start_time, end_time, duration_seconds)
	          VALUES (?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		sess.AppName, sess.WindowTitle, sess.StartTime, sess.EndTime, sess.DurationSeconds)
	if err != nil {
		return fmt.Errorf("failed to insert usage session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) AppendReminderEvent(ctx context.Context, e record.ReminderEvent) error {
	var ack sql.NullBool
	if e.Acknowledged != nil {
		ack = sql.NullBool{Bool: *e.Acknowledged, Valid: true}
	}
	query := `INSERT INTO reminders_log (reminder_type, sent_at, acknowledged) VALUES (?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, string(e.Kind), e.SentAt, ack); err != nil {
		return fmt.Errorf("failed to insert reminder event: %w", err)
	}
	return nil
}

func (s *SQLiteStore) AppendEnergyLevel(ctx context.Context, e record.EnergyLevel) error {
	query := `INSERT INTO energy_levels (level, note, recorded_at) VALUES (?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, e.Level, e.Note, e.At); err != nil {
		return fmt.Errorf("failed to insert energy level: %w", err)
	}
	return nil
}

func (s *SQLiteStore) AppendFocusSession(ctx context.Context, sess record.FocusSession) error {
	query := `INSERT INTO focus_sessions (session_type, planned_seconds, actual_seconds, completed, start_time, end_time)
	          VALUES (?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		string(sess.State), sess.PlannedSeconds, sess.ActualSeconds, sess.Completed, sess.StartTime, sess.EndTime)
	if err != nil {
		return fmt.Errorf("failed to insert focus session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SaveDailySummary(ctx context.Context, sum record.DailySummary) error {
	topApps := ""
	for i, a := range sum.TopApps {
		if i > 0 {
			topApps += ", "
		}
		topApps += fmt.Sprintf("%s (%ds)", a.AppName, a.Seconds)
	}
	query := `INSERT OR REPLACE INTO daily_summary (date, total_screen_time, top_apps) VALUES (?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, sum.Date, sum.TotalSeconds, topApps); err != nil {
		return fmt.Errorf("failed to save daily summary: %w", err)
	}
	return nil
}

func (s *SQLiteStore) TotalScreenTime(ctx context.Context, date string) (int, error) {
	query := `SELECT COALESCE(SUM(duration_seconds), 0) FROM app_usage WHERE DATE(start_time) = ?`
	var total int
	if err := s.db.QueryRowContext(ctx, query, date).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to query total screen time: %w", err)
	}
	return total, nil
}

func (s *SQLiteStore) TopApps(ctx context.Context, date string, limit int) ([]record.AppTotal, error) {
	query := `SELECT app_name, SUM(duration_seconds) AS total
	          FROM app_usage
	          WHERE DATE(start_time) = ?
	          GROUP BY app_name
	          ORDER BY total DESC
	          LIMIT ?`
	return s.queryAppTotals(ctx, query, date, limit)
}

func (s *SQLiteStore) DailyUsage(ctx context.Context, date string) ([]record.AppTotal, error) {
	query := `SELECT app_name, SUM(duration_seconds) AS total
	          FROM app_usage
	          WHERE DATE(start_time) = ?
	          GROUP BY app_name
	          ORDER BY total DESC`
	return s.queryAppTotals(ctx, query, date)
}

func (s *SQLiteStore) queryAppTotals(ctx context.Context, query string, args ...interface{}) ([]record.AppTotal, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query app totals: %w", err)
	}
	defer rows.Close()

	var totals []record.AppTotal
	for rows.Next() {
		var t record.AppTotal
		if err := rows.Scan(&t.AppName, &t.Seconds); err != nil {
			return nil, fmt.Errorf("failed to scan app total row: %w", err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating app total rows: %w", err)
	}
	return totals, nil
}

func (s *SQLiteStore) ReminderHistory(ctx context.Context, date string) ([]record.ReminderEvent, error) {
	query := `SELECT reminder_type, sent_at, acknowledged
	          FROM reminders_log
	          WHERE DATE(sent_at) = ?
	          ORDER BY sent_at ASC`
	rows, err := s.db.QueryContext(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminder history: %w", err)
	}
	defer rows.Close()

	var events []record.ReminderEvent
	for rows.Next() {
		var (
			kind string
			e    record.ReminderEvent
			ack  sql.NullBool
		)
		if err := rows.Scan(&kind, &e.SentAt, &ack); err != nil {
			return nil, fmt.Errorf("failed to scan reminder row: %w", err)
		}
		e.Kind = record.ReminderKind(kind)
		if ack.Valid {
			v := ack.Bool
			e.Acknowledged = &v
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminder rows: %w", err)
	}
	return events, nil
}

func (s *SQLiteStore) PruneBefore(ctx context.Context, cutoff time.Time) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM app_usage WHERE start_time < ?`, cutoff); err != nil {
		return fmt.Errorf("failed to prune app_usage: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM reminders_log WHERE sent_at < ?`, cutoff); err != nil {
		return fmt.Errorf("failed to prune reminders_log: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		log.Println("Closing database connection.")
		return s.db.Close()
	}
	return nil
}
