package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/Rubicon0149/WorkBuddy/internal/config"
	"github.com/Rubicon0149/WorkBuddy/internal/focus"
	"github.com/Rubicon0149/WorkBuddy/internal/idle"
	"github.com/Rubicon0149/WorkBuddy/internal/inspector"
	"github.com/Rubicon0149/WorkBuddy/internal/inspector/x11"
	"github.com/Rubicon0149/WorkBuddy/internal/ipc"
	"github.com/Rubicon0149/WorkBuddy/internal/notify"
	"github.com/Rubicon0149/WorkBuddy/internal/record"
	"github.com/Rubicon0149/WorkBuddy/internal/scheduler"
	"github.com/Rubicon0149/WorkBuddy/internal/status"
	"github.com/Rubicon0149/WorkBuddy/internal/storage"
	"github.com/Rubicon0149/WorkBuddy/internal/tracker"

	sqlitestore "github.com/Rubicon0149/WorkBuddy/internal/storage/sqlite"
)

type App struct {
	cfg      *config.Provider
	storage  storage.Store
	insp     inspector.Inspector
	notifier notify.Notifier
	agg      *status.Aggregator

	trk      *tracker.Tracker
	sched    *scheduler.Coordinator
	focusMgr *focus.Manager

	socketPath string
	listener   *net.UnixListener

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func NewApp(cfg *config.Provider) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())
	snap := cfg.Snapshot()

	a := &App{
		cfg:        cfg,
		agg:        status.New(),
		socketPath: snap.SocketPath,
		ctx:        ctx,
		cancel:     cancel,
	}
	if a.socketPath == "" {
		a.socketPath = ipc.DefaultSocketPath
	}

	if snap.DatabasePath == ":memory:" {
		a.storage = storage.NewMemStore()
	} else {
		a.storage = sqlitestore.NewSQLiteStore(snap.DatabasePath)
	}
	if err := a.storage.Init(ctx); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	insp, err := x11.New()
	if err != nil {
		log.Printf("Warning: failed to initialize X11 inspector: %v. Activity tracking disabled.", err)
	} else {
		a.insp = insp
	}

	if dn, err := notify.NewDbusNotifier(); err != nil {
		log.Printf("Warning: desktop notifications unavailable: %v. Falling back to log output.", err)
		a.notifier = notify.LogNotifier{}
	} else {
		a.notifier = dn
	}

	if a.insp != nil {
		detector := idle.New(snap.IdleThreshold())
		a.trk = tracker.New(a.insp, a.storage, detector, a.agg, snap.PollInterval())
	}
	a.sched = scheduler.New(cfg, a.storage, a.notifier, a.agg)
	a.focusMgr = focus.New(snap.Focus, a.storage, a.notifier, a.agg)

	return a, nil
}

// setupSocket checks for an existing socket and creates the listener.
func (a *App) setupSocket() error {
	if _, err := os.Stat(a.socketPath); err == nil {
		// Socket file exists; a live connection means another instance runs.
		conn, err := net.DialTimeout("unix", a.socketPath, 1*time.Second)
		if err == nil {
			conn.Close()
			return fmt.Errorf("socket %s already active, another instance might be running", a.socketPath)
		}
		log.Printf("Stale socket file found at %s, removing.", a.socketPath)
		if err := os.Remove(a.socketPath); err != nil {
			return fmt.Errorf("failed to remove stale socket file %s: %w", a.socketPath, err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("error checking socket file %s: %w", a.socketPath, err)
	}

	addr, err := net.ResolveUnixAddr("unix", a.socketPath)
	if err != nil {
		return fmt.Errorf("failed to resolve unix addr %s: %w", a.socketPath, err)
	}
	listener, err := net.ListenUnix("unix", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on socket %s: %w", a.socketPath, err)
	}

	a.listener = listener
	log.Printf("Listening for commands on %s", a.socketPath)
	return nil
}

func (a *App) listenForCommands() {
	defer a.wg.Done()
	defer log.Println("Socket command listener stopped.")

	for {
		conn, err := a.listener.AcceptUnix()
		if err != nil {
			select {
			case <-a.ctx.Done():
				return
			default:
				log.Printf("Failed to accept connection: %v", err)
				if ne, ok := err.(net.Error); ok && !ne.Temporary() {
					return
				}
				time.Sleep(100 * time.Millisecond)
			}
			continue
		}
		a.wg.Add(1)
		go a.handleConnection(conn)
	}
}

func (a *App) handleConnection(conn *net.UnixConn) {
	defer conn.Close()
	defer a.wg.Done()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	decoder := json.NewDecoder(conn)
	encoder := json.NewEncoder(conn)

	var cmd ipc.Command
	if err := decoder.Decode(&cmd); err != nil {
		if err != io.EOF {
			log.Printf("Failed to decode command: %v", err)
		}
		_ = encoder.Encode(ipc.Response{Success: false, Message: "Failed to decode command: " + err.Error()})
		return
	}

	conn.SetReadDeadline(time.Time{})
	conn.SetWriteDeadline(time.Now().Add(5 * time.Second))

	log.Printf("Received command: %s", cmd.Name)
	response := a.processCommand(cmd)

	if err := encoder.Encode(response); err != nil {
		log.Printf("Failed to send response: %v", err)
	}
}

func (a *App) processCommand(cmd ipc.Command) ipc.Response {
	switch cmd.Name {
	case ipc.CmdPing:
		return ipc.Response{Success: true, Message: "pong"}

	case ipc.CmdGetStatus:
		return ipc.Response{Success: true, Data: a.agg.Snapshot()}

	case ipc.CmdSetEnergy:
		var args ipc.SetEnergyArgs
		if err := mapToStruct(cmd.Args, &args); err != nil {
			return ipc.Response{Success: false, Message: fmt.Sprintf("Invalid args for %s: %v", cmd.Name, err)}
		}
		if args.Level < 1 || args.Level > 10 {
			return ipc.Response{Success: false, Message: "Energy level must be between 1 and 10"}
		}
		entry := record.EnergyLevel{Level: args.Level, Note: args.Note, At: time.Now()}
		if err := a.storage.AppendEnergyLevel(a.ctx, entry); err != nil {
			return ipc.Response{Success: false, Message: fmt.Sprintf("Failed to record energy level: %v", err)}
		}
		return ipc.Response{Success: true, Message: fmt.Sprintf("Energy level %d recorded", args.Level)}

	case ipc.CmdFocusStart:
		var args ipc.FocusStartArgs
		if err := mapToStruct(cmd.Args, &args); err != nil {
			return ipc.Response{Success: false, Message: fmt.Sprintf("Invalid args for %s: %v", cmd.Name, err)}
		}
		if args.State == "" {
			args.State = record.FocusRunning
		}
		if err := a.focusMgr.StartSession(a.ctx, args.State); err != nil {
			return ipc.Response{Success: false, Message: err.Error()}
		}
		return ipc.Response{Success: true, Message: fmt.Sprintf("Focus session started: %s", args.State)}

	case ipc.CmdFocusStop:
		if err := a.focusMgr.StopSession(a.ctx); err != nil {
			return ipc.Response{Success: false, Message: err.Error()}
		}
		return ipc.Response{Success: true, Message: "Focus session stop requested"}

	case ipc.CmdTestReminder:
		var args ipc.TestReminderArgs
		if err := mapToStruct(cmd.Args, &args); err != nil {
			return ipc.Response{Success: false, Message: fmt.Sprintf("Invalid args for %s: %v", cmd.Name, err)}
		}
		if err := a.sched.TriggerTest(a.ctx, args.Kind); err != nil {
			return ipc.Response{Success: false, Message: err.Error()}
		}
		return ipc.Response{Success: true, Message: fmt.Sprintf("Reminder %s triggered", args.Kind)}

	case ipc.CmdReloadConfig:
		if err := a.cfg.Reload(); err != nil {
			return ipc.Response{Success: false, Message: fmt.Sprintf("Reload failed: %v", err)}
		}
		return ipc.Response{Success: true, Message: "Configuration reloaded"}

	default:
		return ipc.Response{Success: false, Message: fmt.Sprintf("Unknown command: %s", cmd.Name)}
	}
}

// mapToStruct converts the decoded args map back into a typed struct.
func mapToStruct(input interface{}, output interface{}) error {
	if input == nil {
		return nil
	}
	jsonBytes, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("failed to marshal args map: %w", err)
	}
	if err := json.Unmarshal(jsonBytes, output); err != nil {
		return fmt.Errorf("failed to unmarshal args into struct: %w", err)
	}
	return nil
}

func (a *App) Run() error {
	defer a.cleanup()

	log.Println("Starting WorkBuddy daemon...")
	if a.insp == nil {
		log.Println("Activity tracking: DISABLED")
	} else {
		log.Println("Activity tracking: ENABLED")
	}

	if err := a.setupSocket(); err != nil {
		return err
	}

	a.handleSignals()
	a.cfg.Watch()

	if a.trk != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.trk.Run(a.ctx)
		}()
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.sched.Run(a.ctx)
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.focusMgr.Run(a.ctx)
	}()

	a.wg.Add(1)
	go a.listenForCommands()

	log.Println("WorkBuddy daemon running. Send commands via workbuddy-cli or socket.")
	<-a.ctx.Done()

	log.Println("Shutdown signal received, waiting for components...")

	// Close the listener before waiting so Accept returns.
	if a.listener != nil {
		if err := a.listener.Close(); err != nil {
			log.Printf("Error closing socket listener: %v", err)
		}
	}

	waitChan := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(waitChan)
	}()

	select {
	case <-waitChan:
		log.Println("All daemon goroutines finished.")
	case <-time.After(5 * time.Second):
		log.Println("Warning: timeout waiting for daemon goroutines to stop.")
	}

	log.Println("WorkBuddy daemon finished.")
	return nil
}

func (a *App) handleSignals() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("Received signal: %v. Initiating shutdown...", sig)
		a.cancel()
	}()
}

func (a *App) cleanup() {
	log.Println("Running cleanup...")

	if a.insp != nil {
		if err := a.insp.Close(); err != nil {
			log.Printf("Error closing inspector: %v", err)
		}
	}
	if closer, ok := a.notifier.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			log.Printf("Error closing notifier: %v", err)
		}
	}
	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			log.Printf("Error closing storage: %v", err)
		}
	}

	if _, err := os.Stat(a.socketPath); err == nil {
		log.Printf("Removing socket file: %s", a.socketPath)
		if err := os.Remove(a.socketPath); err != nil {
			log.Printf("Warning: failed to remove socket file %s: %v", a.socketPath, err)
		}
	}

	log.Println("Cleanup finished.")
}
