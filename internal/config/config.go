package config

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/Rubicon0149/WorkBuddy/internal/record"
)

// ReminderIntervals holds the per-kind reminder cadences in minutes.
// DailySummaryTime is a clock time ("HH:MM") rather than an interval.
type ReminderIntervals struct {
	BreakMinutes     int    `mapstructure:"break_minutes"`
	HydrationMinutes int    `mapstructure:"hydration_minutes"`
	EyeStrainMinutes int    `mapstructure:"eye_strain_minutes"`
	PostureMinutes   int    `mapstructure:"posture_minutes"`
	MoodMinutes      int    `mapstructure:"mood_minutes"`
	DailySummaryTime string `mapstructure:"daily_summary_time"`
}

// FocusConfig holds the pomodoro durations.
type FocusConfig struct {
	FocusMinutes      int `mapstructure:"focus_minutes"`
	ShortBreakMinutes int `mapstructure:"short_break_minutes"`
	LongBreakMinutes  int `mapstructure:"long_break_minutes"`
	LongBreakInterval int `mapstructure:"long_break_interval"`
}

// Snapshot is one immutable read of the configuration. The core never
// mutates it; reloads swap in a fresh value.
type Snapshot struct {
	DatabasePath            string            `mapstructure:"database_path"`
	SocketPath              string            `mapstructure:"socket_path"`
	PollIntervalSeconds     int               `mapstructure:"poll_interval_seconds"`
	TickIntervalSeconds     int               `mapstructure:"tick_interval_seconds"`
	IdleThresholdSeconds    int               `mapstructure:"idle_threshold_seconds"`
	NotificationsEnabled    bool              `mapstructure:"notifications_enabled"`
	IdleSuppressesReminders bool              `mapstructure:"idle_suppresses_reminders"`
	WorkStart               string            `mapstructure:"work_start"`
	WorkEnd                 string            `mapstructure:"work_end"`
	WorkDaysOnly            bool              `mapstructure:"work_days_only"`
	RetentionDays           int               `mapstructure:"retention_days"`
	Reminders               ReminderIntervals `mapstructure:"reminders"`
	Focus                   FocusConfig       `mapstructure:"focus"`
}

// Interval returns the configured firing interval for an interval-based
// reminder kind. The daily summary has no interval and returns zero.
func (s Snapshot) Interval(kind record.ReminderKind) time.Duration {
	var minutes int
	switch kind {
	case record.KindBreak:
		minutes = s.Reminders.BreakMinutes
	case record.KindHydration:
		minutes = s.Reminders.HydrationMinutes
	case record.KindEyeStrain:
		minutes = s.Reminders.EyeStrainMinutes
	case record.KindPosture:
		minutes = s.Reminders.PostureMinutes
	case record.KindMood:
		minutes = s.Reminders.MoodMinutes
	}
	return time.Duration(minutes) * time.Minute
}

func (s Snapshot) PollInterval() time.Duration {
	return time.Duration(s.PollIntervalSeconds) * time.Second
}

func (s Snapshot) TickInterval() time.Duration {
	return time.Duration(s.TickIntervalSeconds) * time.Second
}

func (s Snapshot) IdleThreshold() time.Duration {
	return time.Duration(s.IdleThresholdSeconds) * time.Second
}

func (f FocusConfig) FocusDuration() time.Duration {
	return time.Duration(f.FocusMinutes) * time.Minute
}

func (f FocusConfig) ShortBreakDuration() time.Duration {
	return time.Duration(f.ShortBreakMinutes) * time.Minute
}

func (f FocusConfig) LongBreakDuration() time.Duration {
	return time.Duration(f.LongBreakMinutes) * time.Minute
}

// ParseClock parses an "HH:MM" clock string into minutes past midnight.
func ParseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock time %q out of range", s)
	}
	return h*60 + m, nil
}

// Provider loads the configuration and serves immutable snapshots of it.
// Reload notifications are delivered on C; the scheduler drains it once per
// tick.
type Provider struct {
	v *viper.Viper

	mu   sync.RWMutex
	snap Snapshot

	C chan struct{}
}

// Load reads the configuration from configPath, or from the standard search
// paths when configPath is empty. A missing file falls back to defaults.
func Load(configPath string) (*Provider, error) {
	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/workbuddy")
		v.AddConfigPath("/etc/workbuddy/")
	}

	v.SetEnvPrefix("WORKBUDDY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("Config file not found, using defaults.")
		} else {
			return nil, err
		}
	}

	p := &Provider{v: v, C: make(chan struct{}, 1)}
	snap, err := unmarshal(v)
	if err != nil {
		return nil, err
	}
	p.snap = snap
	return p, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database_path", "workbuddy.db")
	v.SetDefault("socket_path", "/tmp/workbuddy.sock")
	v.SetDefault("poll_interval_seconds", 5)
	v.SetDefault("tick_interval_seconds", 1)
	v.SetDefault("idle_threshold_seconds", 300)
	v.SetDefault("notifications_enabled", true)
	v.SetDefault("idle_suppresses_reminders", true)
	v.SetDefault("work_start", "09:00")
	v.SetDefault("work_end", "18:00")
	v.SetDefault("work_days_only", true)
	v.SetDefault("retention_days", 30)
	v.SetDefault("reminders.break_minutes", 45)
	v.SetDefault("reminders.hydration_minutes", 120)
	v.SetDefault("reminders.eye_strain_minutes", 20)
	v.SetDefault("reminders.posture_minutes", 60)
	v.SetDefault("reminders.mood_minutes", 240)
	v.SetDefault("reminders.daily_summary_time", "17:00")
	v.SetDefault("focus.focus_minutes", 25)
	v.SetDefault("focus.short_break_minutes", 5)
	v.SetDefault("focus.long_break_minutes", 15)
	v.SetDefault("focus.long_break_interval", 4)
}

func unmarshal(v *viper.Viper) (Snapshot, error) {
	var snap Snapshot
	if err := v.Unmarshal(&snap); err != nil {
		return Snapshot{}, err
	}

	if snap.PollIntervalSeconds < 1 {
		log.Println("Warning: poll_interval_seconds too low, setting to 1")
		snap.PollIntervalSeconds = 1
	}
	if snap.TickIntervalSeconds < 1 {
		log.Println("Warning: tick_interval_seconds too low, setting to 1")
		snap.TickIntervalSeconds = 1
	}
	if snap.IdleThresholdSeconds < 1 {
		log.Println("Warning: idle_threshold_seconds too low, setting to 60")
		snap.IdleThresholdSeconds = 60
	}
	if _, err := ParseClock(snap.Reminders.DailySummaryTime); err != nil {
		log.Printf("Warning: %v, resetting daily_summary_time to 17:00", err)
		snap.Reminders.DailySummaryTime = "17:00"
	}
	return snap, nil
}

// Snapshot returns a value copy of the current configuration.
func (p *Provider) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snap
}

// Watch begins watching the config file for changes. Each successful reload
// swaps the snapshot and signals C.
func (p *Provider) Watch() {
	p.v.OnConfigChange(func(in fsnotify.Event) {
		log.Printf("Config file changed: %s", in.Name)
		p.reload()
	})
	p.v.WatchConfig()
}

// Reload re-reads the config file on demand (the IPC reload command).
func (p *Provider) Reload() error {
	if err := p.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}
	p.reload()
	return nil
}

func (p *Provider) reload() {
	snap, err := unmarshal(p.v)
	if err != nil {
		log.Printf("Warning: config reload failed, keeping previous snapshot: %v", err)
		return
	}
	p.mu.Lock()
	p.snap = snap
	p.mu.Unlock()

	select {
	case p.C <- struct{}{}:
	default:
	}
}
