package main

import "github.com/segmentio/kafka-go"

// Room state machine and the per-room actor.
//
// Every mutation of a Room, client commands and timer ticks alike, runs
// on the room's own run() goroutine, funneled through the commands and
// ticks channels. Different rooms proceed fully in parallel; nothing
// outside run() may touch Players or Game.

type RoomState string

const (
	StateLobby   RoomState = "LOBBY"
	StatePlaying RoomState = "PLAYING"
	StateEnd     RoomState = "END"
)

type SubTurn string

const (
	SubTurnClue  SubTurn = "CLUE"
	SubTurnGuess SubTurn = "GUESS"
)

type Player struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`

	client *Client
}

// WordStat records one resolved word. Attempts is the number of guesses
// it took (rejected guesses plus the winning one), or the literal
// passedMarker when the speaker skipped it.
type WordStat struct {
	Word     string `json:"word"`
	Attempts any    `json:"attempts"`
}

const passedMarker = "Passé"

type Settings struct {
	ActiveCategories []string `json:"activeCategories"`
	TurnDuration     int      `json:"turnDuration"`
}

// GameState exists only while a round is live or just ended.
type GameState struct {
	CurrentSpeakerID string     `json:"currentSpeakerId"`
	CurrentWord      string     `json:"currentWord"`
	Clues            []string   `json:"clues"`
	Guesses          []string   `json:"guesses"`
	TimeRemaining    int        `json:"timeRemaining"`
	TurnActive       bool       `json:"turnActive"`
	SubTurn          SubTurn    `json:"subTurn"`
	WordsPlayed      []string   `json:"wordsPlayed"`
	WordStats        []WordStat `json:"wordStats"`
}

// A game ends once this many words have been resolved.
const wordsPerGame = 10

type Room struct {
	ID       string
	HostID   string
	Players  []*Player
	State    RoomState
	Settings Settings
	Game     *GameState

	// Set when a skip already rotated CurrentSpeakerID, so the next
	// turn starts with that speaker instead of rotating again.
	speakerChosen bool

	cfg        *Config
	dict       *Dictionary
	timers     *TimerService
	registry   *RoomRegistry
	notify     Notifier
	feed       *eventFeed
	feedWriter *kafka.Writer

	commands chan func()
	ticks    chan timerTick
	done     chan struct{}
}

func newRoom(id, hostID string, cfg *Config, dict *Dictionary, timers *TimerService, registry *RoomRegistry, feed *eventFeed) *Room {
	r := &Room{
		ID:     id,
		HostID: hostID,
		State:  StateLobby,
		Settings: Settings{
			ActiveCategories: dict.Categories(),
			TurnDuration:     int(cfg.turnDuration.Seconds()),
		},
		cfg:      cfg,
		dict:     dict,
		timers:   timers,
		registry: registry,
		feed:     feed,
		commands: make(chan func(), 64),
		ticks:    make(chan timerTick, 24),
		done:     make(chan struct{}),
	}
	r.notify = &wsNotifier{room: r}

	return r
}

// run is the room's serialized executor. It exits once the room has been
// destroyed (done closed by the registry).
func (r *Room) run() {
	for {
		select {
		case <-r.done:
			return
		case fn := <-r.commands:
			fn()
		case tick := <-r.ticks:
			r.handleTick(tick)
		}
	}
}

// dispatch queues fn onto the room's executor. It reports false when the
// room has already been destroyed, in which case fn never runs.
func (r *Room) dispatch(fn func()) bool {
	select {
	case <-r.done:
		return false
	default:
	}

	select {
	case r.commands <- fn:
		return true
	case <-r.done:
		return false
	}
}

func (r *Room) player(userID string) *Player {
	for _, p := range r.Players {
		if p.ID == userID {
			return p
		}
	}
	return nil
}

// addPlayer appends a new member in insertion order. Joining a room the
// user is already in just reattaches their connection.
func (r *Room) addPlayer(userID, name string, c *Client) {
	if p := r.player(userID); p != nil {
		p.client = c
		return
	}

	r.Players = append(r.Players, &Player{ID: userID, Name: name, client: c})
}

// removePlayer removes the member in place, preserving the order of the
// rest, and promotes the first remaining player to host when the host
// left. It reports whether the room is now empty.
func (r *Room) removePlayer(userID string) (empty bool) {
	dst := r.Players[:0]
	for _, p := range r.Players {
		if p.ID == userID {
			continue
		}
		dst = append(dst, p)
	}
	r.Players = dst

	if len(r.Players) == 0 {
		return true
	}

	if r.HostID == userID {
		r.HostID = r.Players[0].ID
	}

	return false
}

func (r *Room) renamePlayer(userID, name string) bool {
	p := r.player(userID)
	if p == nil {
		return false
	}

	p.Name = name

	return true
}

// Snapshot types: value copies taken at the moment of publish, so a
// message never reflects mutations applied after it was queued.

type RoomSnapshot struct {
	RoomID   string     `json:"roomId"`
	HostID   string     `json:"hostId"`
	Players  []Player   `json:"players"`
	State    RoomState  `json:"state"`
	Settings Settings   `json:"settings"`
	Game     *GameState `json:"gameState"`
}

func (r *Room) snapshot() RoomSnapshot {
	players := make([]Player, len(r.Players))
	for i, p := range r.Players {
		players[i] = Player{ID: p.ID, Name: p.Name, Score: p.Score}
	}

	snap := RoomSnapshot{
		RoomID:  r.ID,
		HostID:  r.HostID,
		Players: players,
		State:   r.State,
		Settings: Settings{
			ActiveCategories: append([]string(nil), r.Settings.ActiveCategories...),
			TurnDuration:     r.Settings.TurnDuration,
		},
	}

	if r.Game != nil {
		game := r.gameSnapshot()
		snap.Game = &game
	}

	return snap
}

func (r *Room) gameSnapshot() GameState {
	game := *r.Game
	game.Clues = append([]string(nil), r.Game.Clues...)
	game.Guesses = append([]string(nil), r.Game.Guesses...)
	game.WordsPlayed = append([]string(nil), r.Game.WordsPlayed...)
	game.WordStats = append([]WordStat(nil), r.Game.WordStats...)

	return game
}

// Notifier publishes state changes to a room's clients. The core calls it
// synchronously from the room executor; implementations must not mutate
// room state.
type Notifier interface {
	RoomUpdate(snap RoomSnapshot)
	GameStateUpdate(game GameState)
	TimerTick(remaining int)
	TurnEnded(snap RoomSnapshot)
	CorrectGuess(by, word string)
	WrongGuess(userID string)
}

// wsNotifier fans marshaled events out to the room's connected members.
// It only runs on the room executor, so reading Players is safe.
type wsNotifier struct {
	room *Room
}

func (n *wsNotifier) broadcast(eventType string, data any) {
	msg, err := marshalEvent(eventType, data)
	if err != nil {
		logf(n.room.cfg, "GAMES: marshal %s for %s failed: %v", eventType, n.room.ID, err)
		return
	}

	for _, p := range n.room.Players {
		p.client.enqueue(msg)
	}
}

func (n *wsNotifier) toPlayer(userID, eventType string, data any) {
	p := n.room.player(userID)
	if p == nil {
		return
	}

	msg, err := marshalEvent(eventType, data)
	if err != nil {
		return
	}

	p.client.enqueue(msg)
}

func (n *wsNotifier) RoomUpdate(snap RoomSnapshot) {
	n.broadcast("room_update", snap)
}

func (n *wsNotifier) GameStateUpdate(game GameState) {
	n.broadcast("game_state_update", game)
}

func (n *wsNotifier) TimerTick(remaining int) {
	n.broadcast("timer_tick", timerTickMessage{TimeRemaining: remaining})
}

func (n *wsNotifier) TurnEnded(snap RoomSnapshot) {
	n.broadcast("turn_ended", snap)
}

func (n *wsNotifier) CorrectGuess(by, word string) {
	n.broadcast("correct_guess", correctGuessMessage{By: by, Word: word})
}

func (n *wsNotifier) WrongGuess(userID string) {
	n.toPlayer(userID, "wrong_guess", struct{}{})
}
