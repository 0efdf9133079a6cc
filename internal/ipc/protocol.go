package ipc

import "github.com/Rubicon0149/WorkBuddy/internal/record"

// DefaultSocketPath is where the daemon listens unless configured otherwise.
const DefaultSocketPath = "/tmp/workbuddy.sock"

// Command represents a command sent over the socket
type Command struct {
	Name string      `json:"name"`
	Args interface{} `json:"args,omitempty"`
}

// Response represents a response sent back over the socket
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// --- Command Argument Structs ---

type SetEnergyArgs struct {
	Level int    `json:"level"`
	Note  string `json:"note,omitempty"`
}

type FocusStartArgs struct {
	State record.FocusState `json:"state"` // focus, short_break, long_break
}

type TestReminderArgs struct {
	Kind record.ReminderKind `json:"kind"`
}

// --- Command Names ---

const (
	CmdPing         = "ping"
	CmdGetStatus    = "get_status"
	CmdSetEnergy    = "set_energy"
	CmdFocusStart   = "focus_start"
	CmdFocusStop    = "focus_stop"
	CmdTestReminder = "test_reminder"
	CmdReloadConfig = "reload_config"
)
