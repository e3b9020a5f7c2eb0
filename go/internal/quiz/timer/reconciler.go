// Package timer reconciles per-round countdowns across clients that receive the
// round start at different wall-clock instants.
//
// Strategy: the host stamps startedAt once; every client derives its remaining time
// from that stamp instead of restarting at the full duration. Broadcast latency turns
// into lost time, never extra time.
package timer

import (
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	// TickInterval is the countdown granularity
	TickInterval = time.Second
	// RevealDelay is how long the host stays in reveal before advancing
	RevealDelay = 3 * time.Second
)

// InitialCountdown returns the whole seconds left for a round that started at startedAt.
// Elapsed time is floored to whole seconds and the result is clamped to [1, durationSec].
func InitialCountdown(durationSec int, startedAt, now time.Time) int {
	elapsedMs := now.Sub(startedAt).Milliseconds()
	if elapsedMs < 0 {
		// peer clock ahead of ours; treat as no elapsed time
		elapsedMs = 0
	}
	remaining := durationSec - int(elapsedMs/1000)
	if remaining < 1 {
		return 1
	}
	return remaining
}

// Countdown decrements once per TickInterval while running.
// It is not safe for concurrent use; the owning session loop drives it.
type Countdown struct {
	clock     clockwork.Clock
	ticker    clockwork.Ticker
	remaining int
}

// NewCountdown creates a stopped countdown on the given clock
func NewCountdown(clock clockwork.Clock) *Countdown {
	return &Countdown{clock: clock}
}

// Start (re)starts the countdown at remaining seconds
func (c *Countdown) Start(remaining int) {
	c.Stop()
	c.remaining = remaining
	c.ticker = c.clock.NewTicker(TickInterval)
}

// Stop halts the ticker; the remaining value is kept
func (c *Countdown) Stop() {
	if c.ticker != nil {
		c.ticker.Stop()
		c.ticker = nil
	}
}

// C returns the tick channel, or nil when stopped so a select never fires on it
func (c *Countdown) C() <-chan time.Time {
	if c.ticker == nil {
		return nil
	}
	return c.ticker.Chan()
}

// Tick consumes one tick and reports whether the countdown reached zero
func (c *Countdown) Tick() (remaining int, expired bool) {
	if c.ticker == nil {
		return c.remaining, false
	}
	if c.remaining > 0 {
		c.remaining--
	}
	if c.remaining == 0 {
		c.Stop()
		return 0, true
	}
	return c.remaining, false
}

// Remaining returns the seconds left
func (c *Countdown) Remaining() int {
	return c.remaining
}

// Running reports whether the ticker is armed
func (c *Countdown) Running() bool {
	return c.ticker != nil
}

// Alarm is a one-shot timer that can be re-armed or disarmed
type Alarm struct {
	clock clockwork.Clock
	timer clockwork.Timer
}

// NewAlarm creates a disarmed alarm
func NewAlarm(clock clockwork.Clock) *Alarm {
	return &Alarm{clock: clock}
}

// Arm replaces any pending alarm with one firing after d
func (a *Alarm) Arm(d time.Duration) {
	a.Disarm()
	a.timer = a.clock.NewTimer(d)
}

// Disarm cancels the pending alarm, if any
func (a *Alarm) Disarm() {
	if a.timer != nil {
		stopAndDrainTimer(a.timer)
		a.timer = nil
	}
}

// C returns the alarm channel, or nil when disarmed
func (a *Alarm) C() <-chan time.Time {
	if a.timer == nil {
		return nil
	}
	return a.timer.Chan()
}

// Fired clears the alarm after its channel delivered
func (a *Alarm) Fired() {
	a.timer = nil
}

// Armed reports whether an alarm is pending
func (a *Alarm) Armed() bool {
	return a.timer != nil
}

// stopAndDrainTimer stops a timer and drains its channel if it already fired
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
