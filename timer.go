package main

import (
	"sync"
	"time"
)

// TimerService owns every room's countdown. Timer handles live here, keyed
// by room id, never inside the Room value, which also enforces the
// at-most-one-live-timer-per-room invariant.
//
// A timer goroutine never mutates room state itself: it only delivers
// tick signals into the room's executor, where they are applied (or
// discarded as stale).

type timerTick struct {
	seq uint64
}

type roomTimer struct {
	seq  uint64
	stop chan struct{}
}

type TimerService struct {
	mu       sync.Mutex
	timers   map[string]*roomTimer
	lastSeq  uint64
	interval time.Duration
}

func newTimerService(interval time.Duration) *TimerService {
	if interval <= 0 {
		interval = time.Second
	}

	return &TimerService{
		timers:   make(map[string]*roomTimer),
		interval: interval,
	}
}

// Start begins a fresh countdown for the room, cancelling any previous
// one first. Each timer carries a unique sequence number; ticks from a
// superseded timer fail the fence check in handleTick and do nothing.
func (ts *TimerService) Start(r *Room) {
	ts.mu.Lock()
	if prev, ok := ts.timers[r.ID]; ok {
		close(prev.stop)
	}
	ts.lastSeq++
	t := &roomTimer{seq: ts.lastSeq, stop: make(chan struct{})}
	ts.timers[r.ID] = t
	ts.mu.Unlock()

	go func() {
		ticker := time.NewTicker(ts.interval)
		defer ticker.Stop()

		for {
			select {
			case <-t.stop:
				return
			case <-ticker.C:
				select {
				case r.ticks <- timerTick{seq: t.seq}:
				case <-t.stop:
					return
				case <-r.done:
					return
				}
			}
		}
	}()
}

// Cancel stops the room's live timer. Cancelling when none is running is
// a no-op.
func (ts *TimerService) Cancel(roomID string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if t, ok := ts.timers[roomID]; ok {
		close(t.stop)
		delete(ts.timers, roomID)
	}
}

// live reports whether seq identifies the room's current timer.
func (ts *TimerService) live(roomID string, seq uint64) bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	t, ok := ts.timers[roomID]

	return ok && t.seq == seq
}

// handleTick applies one countdown step on the room executor. A tick that
// was already in flight when its timer got cancelled fails the fence and
// is dropped, so clients never observe a tick for a superseded turn.
func (r *Room) handleTick(tick timerTick) {
	if !r.timers.live(r.ID, tick.seq) {
		return
	}
	if r.Game == nil || !r.Game.TurnActive {
		return
	}

	r.Game.TimeRemaining--
	r.notify.TimerTick(r.Game.TimeRemaining)

	if r.Game.TimeRemaining <= 0 {
		r.timers.Cancel(r.ID)
		r.Game.TurnActive = false
		r.notify.TurnEnded(r.snapshot())
	}
}
