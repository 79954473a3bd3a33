package main

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// recordingNotifier captures the events a room publishes. Timer-driven
// tests read it from the test goroutine while the room executor writes,
// hence the lock.
type recordingNotifier struct {
	mu sync.Mutex

	roomUpdates  []RoomSnapshot
	gameUpdates  []GameState
	ticks        []int
	turnsEnded   []RoomSnapshot
	correct      []correctGuessMessage
	wrongGuesses []string
}

func (n *recordingNotifier) RoomUpdate(snap RoomSnapshot) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.roomUpdates = append(n.roomUpdates, snap)
}

func (n *recordingNotifier) GameStateUpdate(game GameState) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.gameUpdates = append(n.gameUpdates, game)
}

func (n *recordingNotifier) TimerTick(remaining int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ticks = append(n.ticks, remaining)
}

func (n *recordingNotifier) TurnEnded(snap RoomSnapshot) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.turnsEnded = append(n.turnsEnded, snap)
}

func (n *recordingNotifier) CorrectGuess(by, word string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.correct = append(n.correct, correctGuessMessage{By: by, Word: word})
}

func (n *recordingNotifier) WrongGuess(userID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.wrongGuesses = append(n.wrongGuesses, userID)
}

func (n *recordingNotifier) lastTurnEnded() (RoomSnapshot, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.turnsEnded) == 0 {
		return RoomSnapshot{}, false
	}
	return n.turnsEnded[len(n.turnsEnded)-1], true
}

func testConfig() *Config {
	return &Config{
		port:         8080,
		turnDuration: 30 * time.Second,
	}
}

func testDictionary(t *testing.T) *Dictionary {
	t.Helper()

	dict, err := loadDictionary("")
	require.NoError(t, err)

	return dict
}

// testRoom builds a room with the given members (first one hosts) and a
// recording notifier. The executor is not started; tests drive the room
// synchronously, the way the executor would.
func testRoom(t *testing.T, playerIDs ...string) (*Room, *recordingNotifier) {
	t.Helper()

	cfg := testConfig()
	dict := testDictionary(t)
	timers := newTimerService(time.Hour)

	require.NotEmpty(t, playerIDs)

	r := newRoom("TEST42", playerIDs[0], cfg, dict, timers, nil, nil)
	for _, id := range playerIDs {
		r.addPlayer(id, "player "+id, nil)
	}

	rec := &recordingNotifier{}
	r.notify = rec

	t.Cleanup(func() { timers.Cancel(r.ID) })

	return r, rec
}

// guessCorrectly resolves the current word with a correct guess from the
// first player who is not the speaker.
func guessCorrectly(t *testing.T, r *Room) {
	t.Helper()

	var guesser *Player
	for _, p := range r.Players {
		if p.ID != r.Game.CurrentSpeakerID {
			guesser = p
			break
		}
	}
	require.NotNil(t, guesser)

	r.submitGuess(guesser.ID, r.Game.CurrentWord)
}
