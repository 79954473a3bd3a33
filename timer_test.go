package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountdownEndsTurn(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.turnDuration = 3 * time.Second
	dict := testDictionary(t)
	timers := newTimerService(2 * time.Millisecond)

	r := newRoom("TIMER1", "a", cfg, dict, timers, nil, nil)
	r.addPlayer("a", "player a", nil)
	r.addPlayer("b", "player b", nil)
	rec := &recordingNotifier{}
	r.notify = rec

	go r.run()
	t.Cleanup(func() { close(r.done) })

	require.True(t, r.dispatch(func() { r.startGame("a") }))

	require.Eventually(t, func() bool {
		_, ended := rec.lastTurnEnded()
		return ended
	}, 5*time.Second, 5*time.Millisecond)

	snap, _ := rec.lastTurnEnded()
	require.NotNil(t, snap.Game)
	assert.False(t, snap.Game.TurnActive)
	assert.Equal(t, 0, snap.Game.TimeRemaining)

	// Each second of the countdown was announced exactly once.
	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []int{2, 1, 0}, rec.ticks)
}

func TestStaleTickIsDropped(t *testing.T) {
	t.Parallel()

	r, rec := testRoom(t, "a", "b")
	r.startGame("a")
	require.True(t, r.Game.TurnActive)
	remaining := r.Game.TimeRemaining

	r.handleTick(timerTick{seq: 424242})

	assert.Equal(t, remaining, r.Game.TimeRemaining)
	assert.Empty(t, rec.ticks)
}

func TestRestartSupersedesTimer(t *testing.T) {
	t.Parallel()

	timers := newTimerService(time.Hour)
	r, _ := testRoom(t, "a", "b")

	timers.Start(r)
	first := timers.timers[r.ID].seq

	timers.Start(r)
	second := timers.timers[r.ID].seq

	assert.False(t, timers.live(r.ID, first))
	assert.True(t, timers.live(r.ID, second))

	timers.Cancel(r.ID)
	assert.False(t, timers.live(r.ID, second))
}

func TestCancelWithoutTimerIsNoop(t *testing.T) {
	t.Parallel()

	timers := newTimerService(time.Hour)
	timers.Cancel("NOSUCH")
	timers.Cancel("NOSUCH")
}

func TestTickWithoutActiveTurn(t *testing.T) {
	t.Parallel()

	r, rec := testRoom(t, "a", "b")
	r.startGame("a")
	r.endTurnEarly("a")

	// A live timer no longer exists, and even a matching one would find
	// the turn inactive.
	r.handleTick(timerTick{seq: 1})

	assert.Equal(t, 0, r.Game.TimeRemaining)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Empty(t, rec.ticks)
}
