package idle

import (
	"time"

	"github.com/Rubicon0149/WorkBuddy/internal/record"
)

// Detector turns raw idle-duration readings into a stable idle flag.
// Entering idle requires the reading to reach the threshold; leaving idle
// takes a single reading below it, so no active time is lost. A failed or
// negative reading leaves the previous state untouched.
type Detector struct {
	threshold time.Duration
	state     record.IdleState
}

func New(threshold time.Duration) *Detector {
	return &Detector{threshold: threshold}
}

// Sample feeds one inspector reading and returns the resulting state.
func (d *Detector) Sample(now time.Time, idleSeconds int, err error) record.IdleState {
	if err != nil || idleSeconds < 0 {
		return d.state
	}

	idleFor := time.Duration(idleSeconds) * time.Second
	if !d.state.Idle && idleFor >= d.threshold {
		d.state = record.IdleState{Idle: true, IdleSince: now}
	} else if d.state.Idle && idleFor < d.threshold {
		d.state = record.IdleState{}
	}
	return d.state
}

// State returns the last computed state without sampling.
func (d *Detector) State() record.IdleState {
	return d.state
}
