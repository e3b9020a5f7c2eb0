package timer

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialCountdown(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		duration  int
		startedAt time.Time
		want      int
	}{
		{name: "host starts at full duration", duration: 15, startedAt: now, want: 15},
		{name: "five seconds late", duration: 15, startedAt: now.Add(-5000 * time.Millisecond), want: 10},
		{name: "four seconds late", duration: 15, startedAt: now.Add(-4000 * time.Millisecond), want: 11},
		{name: "partial second is floored", duration: 15, startedAt: now.Add(-4999 * time.Millisecond), want: 11},
		{name: "joined after deadline clamps to one", duration: 15, startedAt: now.Add(-30 * time.Second), want: 1},
		{name: "joined exactly at deadline clamps to one", duration: 15, startedAt: now.Add(-15 * time.Second), want: 1},
		{name: "peer clock ahead never adds time", duration: 15, startedAt: now.Add(2 * time.Second), want: 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InitialCountdown(tt.duration, tt.startedAt, now))
		})
	}
}

func waitTick(t *testing.T, ch <-chan time.Time) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for tick")
	}
}

func TestCountdown_RunsToZero(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewCountdown(clock)
	c.Start(2)
	require.True(t, c.Running())

	clock.Advance(TickInterval)
	waitTick(t, c.C())
	remaining, expired := c.Tick()
	assert.Equal(t, 1, remaining)
	assert.False(t, expired)

	clock.Advance(TickInterval)
	waitTick(t, c.C())
	remaining, expired = c.Tick()
	assert.Equal(t, 0, remaining)
	assert.True(t, expired)
	assert.False(t, c.Running())
	assert.Nil(t, c.C())
}

func TestCountdown_TickWhenStoppedIsNoop(t *testing.T) {
	c := NewCountdown(clockwork.NewFakeClock())
	c.Start(5)
	c.Stop()

	remaining, expired := c.Tick()
	assert.Equal(t, 5, remaining)
	assert.False(t, expired)
}

func TestAlarm_ArmDisarm(t *testing.T) {
	clock := clockwork.NewFakeClock()
	a := NewAlarm(clock)
	assert.Nil(t, a.C())

	a.Arm(RevealDelay)
	require.True(t, a.Armed())
	clock.Advance(RevealDelay)
	waitTick(t, a.C())
	a.Fired()
	assert.False(t, a.Armed())

	a.Arm(RevealDelay)
	a.Disarm()
	assert.False(t, a.Armed())
	assert.Nil(t, a.C())
}
