package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Rubicon0149/WorkBuddy/internal/ipc"
	"github.com/Rubicon0149/WorkBuddy/internal/record"

	sqlitestore "github.com/Rubicon0149/WorkBuddy/internal/storage/sqlite"
)

var (
	socketPath string
	dbPath     string
	energyNote string
)

var rootCmd = &cobra.Command{
	Use:   "workbuddy-cli",
	Short: "CLI tool to interact with the WorkBuddy daemon",
	Long:  `A command-line interface to query status, log energy check-ins, control focus sessions, and test reminders against the running WorkBuddy daemon via its Unix socket.`,
}

// --- Client Helper Function ---
func sendCommand(cmd ipc.Command) {
	conn, err := net.DialTimeout("unix", socketPath, 2*time.Second)
	if err != nil {
		log.Fatalf("Error connecting to daemon socket (%s): %v\nIs the WorkBuddy daemon running?", socketPath, err)
	}
	defer conn.Close()

	conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	encoder := json.NewEncoder(conn)
	decoder := json.NewDecoder(conn)

	if err := encoder.Encode(cmd); err != nil {
		log.Fatalf("Error sending command: %v", err)
	}

	var resp ipc.Response
	if err := decoder.Decode(&resp); err != nil {
		log.Fatalf("Error receiving response: %v", err)
	}

	if resp.Success {
		fmt.Println("Success:", resp.Message)
		if resp.Data != nil {
			prettyData, err := json.MarshalIndent(resp.Data, "", "  ")
			if err == nil {
				fmt.Println(string(prettyData))
			} else {
				fmt.Println("Data (raw):", resp.Data)
			}
		}
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", resp.Message)
		os.Exit(1)
	}
}

// --- Command Definitions ---

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check if the daemon is responsive",
	Run: func(cmd *cobra.Command, args []string) {
		sendCommand(ipc.Command{Name: ipc.CmdPing})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current tracking and reminder status",
	Run: func(cmd *cobra.Command, args []string) {
		sendCommand(ipc.Command{Name: ipc.CmdGetStatus})
	},
}

var energyCmd = &cobra.Command{
	Use:   "energy <level>",
	Short: "Log an energy check-in (1-10)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var level int
		if _, err := fmt.Sscanf(args[0], "%d", &level); err != nil {
			log.Fatalf("Invalid energy level %q: expected a number 1-10", args[0])
		}
		sendCommand(ipc.Command{
			Name: ipc.CmdSetEnergy,
			Args: ipc.SetEnergyArgs{Level: level, Note: energyNote},
		})
	},
}

var focusCmd = &cobra.Command{
	Use:   "focus",
	Short: "Control focus (pomodoro) sessions",
}

var focusStartCmd = &cobra.Command{
	Use:   "start [focus|short_break|long_break]",
	Short: "Start a focus session (default: focus)",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		state := record.FocusRunning
		if len(args) == 1 {
			state = record.FocusState(args[0])
		}
		sendCommand(ipc.Command{
			Name: ipc.CmdFocusStart,
			Args: ipc.FocusStartArgs{State: state},
		})
	},
}

var focusStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the active focus session",
	Run: func(cmd *cobra.Command, args []string) {
		sendCommand(ipc.Command{Name: ipc.CmdFocusStop})
	},
}

var remindCmd = &cobra.Command{
	Use:   "remind <kind>",
	Short: "Fire a reminder immediately (break, hydration, eye_strain, posture, mood, daily_summary)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		sendCommand(ipc.Command{
			Name: ipc.CmdTestReminder,
			Args: ipc.TestReminderArgs{Kind: record.ReminderKind(args[0])},
		})
	},
}

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Ask the daemon to re-read its configuration file",
	Run: func(cmd *cobra.Command, args []string) {
		sendCommand(ipc.Command{Name: ipc.CmdReloadConfig})
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Read usage reports directly from the database",
}

var reportTodayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show today's per-application screen time and reminders",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		store := sqlitestore.NewSQLiteStore(dbPath)
		if err := store.Init(ctx); err != nil {
			log.Fatalf("Error opening database %s: %v", dbPath, err)
		}
		defer store.Close()

		date := time.Now().Format("2006-01-02")

		total, err := store.TotalScreenTime(ctx, date)
		if err != nil {
			log.Fatalf("Error reading screen time: %v", err)
		}
		usage, err := store.DailyUsage(ctx, date)
		if err != nil {
			log.Fatalf("Error reading usage: %v", err)
		}
		reminders, err := store.ReminderHistory(ctx, date)
		if err != nil {
			log.Fatalf("Error reading reminders: %v", err)
		}

		fmt.Printf("Report for %s\n", date)
		fmt.Printf("Total screen time: %s\n\n", formatSeconds(total))
		if len(usage) == 0 {
			fmt.Println("No usage recorded yet.")
		} else {
			fmt.Println("Per-application usage:")
			for _, u := range usage {
				fmt.Printf("  %-40s %s\n", truncate(u.AppName, 40), formatSeconds(u.Seconds))
			}
		}
		fmt.Printf("\nReminders sent: %d\n", len(reminders))
		for _, r := range reminders {
			ack := "unknown"
			if r.Acknowledged != nil {
				ack = fmt.Sprintf("%t", *r.Acknowledged)
			}
			fmt.Printf("  %s  %-14s acknowledged=%s\n", r.SentAt.Format("15:04:05"), r.Kind, ack)
		}
	},
}

func formatSeconds(s int) string {
	d := time.Duration(s) * time.Second
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
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

func main() {
	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", ipc.DefaultSocketPath, "Path to the daemon's unix socket")

	energyCmd.Flags().StringVarP(&energyNote, "note", "m", "", "Optional note for the check-in")

	reportCmd.PersistentFlags().StringVar(&dbPath, "db", "workbuddy.db", "Path to the WorkBuddy database")
	reportCmd.AddCommand(reportTodayCmd)

	focusCmd.AddCommand(focusStartCmd, focusStopCmd)

	rootCmd.AddCommand(pingCmd, statusCmd, energyCmd, focusCmd, remindCmd, reloadCmd, reportCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
