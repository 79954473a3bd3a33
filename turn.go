package main

import (
	"strings"
	"unicode/utf8"
)

// Turn engine. Every function here runs on the room executor.

func (r *Room) playerIndex(userID string) int {
	for i, p := range r.Players {
		if p.ID == userID {
			return i
		}
	}
	return -1
}

// startGame moves the room from LOBBY to PLAYING and starts the first
// turn. Host-only; ignored otherwise.
func (r *Room) startGame(userID string) {
	if r.HostID != userID || r.State != StateLobby {
		return
	}

	r.State = StatePlaying
	r.speakerChosen = false
	r.Game = &GameState{
		TimeRemaining: r.Settings.TurnDuration,
		TurnActive:    false,
		SubTurn:       SubTurnClue,
		Clues:         []string{},
		Guesses:       []string{},
		WordsPlayed:   []string{},
		WordStats:     []WordStat{},
	}

	r.openFeed()
	logf(r.cfg, "GAMES: Game started in %s with %d players", r.ID, len(r.Players))

	r.advanceTurn()
}

// advanceTurn picks the next speaker, draws a word, resets the per-turn
// fields and starts the countdown.
//
// Rotation is a plain round-robin over the current player order. When the
// previous speaker has left, lookup fails and rotation falls back to
// Players[0], which can hand Players[0] two turns in a row. Accepted
// behavior, kept as-is. A skip has already rotated the speaker, so that
// choice is honored instead of rotating a second time.
func (r *Room) advanceTurn() {
	if len(r.Players) == 0 {
		// Normally unreachable: an empty room is destroyed.
		r.State = StateLobby
		r.notify.RoomUpdate(r.snapshot())
		return
	}

	next := r.Players[0]
	switch {
	case r.speakerChosen && r.player(r.Game.CurrentSpeakerID) != nil:
		next = r.player(r.Game.CurrentSpeakerID)
	case r.Game.CurrentSpeakerID != "":
		if idx := r.playerIndex(r.Game.CurrentSpeakerID); idx != -1 && idx+1 < len(r.Players) {
			next = r.Players[idx+1]
		}
	}
	r.speakerChosen = false

	game := r.Game
	game.CurrentSpeakerID = next.ID
	game.CurrentWord = r.dict.RandomWord(r.Settings.ActiveCategories)
	game.TimeRemaining = r.Settings.TurnDuration
	game.TurnActive = true
	game.SubTurn = SubTurnClue
	game.Clues = []string{}
	game.Guesses = []string{}

	r.notify.RoomUpdate(r.snapshot())
	r.timers.Start(r)
}

// submitClue validates and records the speaker's clue, then hands the
// sub-turn to the guessers. Each failed precondition is a distinct error
// reported through the command's ack.
func (r *Room) submitClue(userID, text string) error {
	if r.State != StatePlaying || r.Game == nil || !r.Game.TurnActive {
		return ErrGameNotActive
	}
	if r.Game.CurrentSpeakerID != userID {
		return ErrNotSpeaker
	}
	if r.Game.SubTurn != SubTurnClue {
		return ErrNotClueTurn
	}

	clue := strings.TrimSpace(text)
	if clue == "" {
		return ErrEmptyClue
	}
	if utf8.RuneCountInString(clue) > clueMaxLen {
		return ErrClueTooLong
	}

	if clueTooSimilar(r.Game.CurrentWord, clue) {
		return ErrClueTooSimilar
	}

	r.Game.Clues = append(r.Game.Clues, clue)
	r.Game.SubTurn = SubTurnGuess

	r.notify.GameStateUpdate(r.gameSnapshot())

	return nil
}

// submitGuess fuzzy-matches a guess against the hidden word. Guesses from
// the speaker or from non-members are dropped without an error: they can
// arrive from stale clients and surface nothing actionable.
func (r *Room) submitGuess(userID, text string) {
	if r.State != StatePlaying || r.Game == nil || !r.Game.TurnActive {
		return
	}

	guesser := r.player(userID)
	if guesser == nil || r.Game.CurrentSpeakerID == userID {
		return
	}

	game := r.Game
	guess := strings.ToLower(text)

	if bestSimilarity(aliases(game.CurrentWord), guess) >= guessSimilarityMin {
		r.scoreCorrectGuess(guesser)

		game.WordsPlayed = append(game.WordsPlayed, game.CurrentWord)
		game.WordStats = append(game.WordStats, WordStat{
			Word:     game.CurrentWord,
			Attempts: len(game.Guesses) + 1,
		})

		r.notify.CorrectGuess(guesser.Name, guess)
		r.feedSend(guesser.Name + " found \"" + game.CurrentWord + "\"")

		if len(game.WordStats) >= wordsPerGame {
			r.endGame()
		} else {
			r.advanceTurn()
		}
		return
	}

	game.Guesses = append(game.Guesses, guess)
	game.SubTurn = SubTurnClue

	r.notify.GameStateUpdate(r.gameSnapshot())
	r.notify.WrongGuess(userID)
}

func (r *Room) endGame() {
	r.State = StateEnd
	r.timers.Cancel(r.ID)
	r.notify.RoomUpdate(r.snapshot())
	r.feedSend("game over")
	logf(r.cfg, "GAMES: Game over in %s", r.ID)
}

// speakerSkip abandons the current word as "Passé", rotates the speaker
// and leaves the turn inactive until the host triggers the next one.
func (r *Room) speakerSkip(userID string) {
	if r.State != StatePlaying || r.Game == nil || !r.Game.TurnActive {
		return
	}
	if r.Game.CurrentSpeakerID != userID {
		return
	}

	game := r.Game
	game.WordsPlayed = append(game.WordsPlayed, game.CurrentWord)
	game.WordStats = append(game.WordStats, WordStat{
		Word:     game.CurrentWord,
		Attempts: passedMarker,
	})
	r.feedSend(game.CurrentWord + " was passed")

	if len(game.WordStats) >= wordsPerGame {
		r.endGame()
		return
	}

	r.timers.Cancel(r.ID)

	// Same rotation rule as advanceTurn, without drawing a word.
	next := r.Players[0]
	if idx := r.playerIndex(game.CurrentSpeakerID); idx != -1 && idx+1 < len(r.Players) {
		next = r.Players[idx+1]
	}
	game.CurrentSpeakerID = next.ID
	game.TurnActive = false
	game.Clues = []string{}
	game.Guesses = []string{}
	game.SubTurn = SubTurnClue
	r.speakerChosen = true

	r.notify.TurnEnded(r.snapshot())
}

// endTurnEarly forces the equivalent of timer expiry: no word-stat entry,
// no rotation, the word is simply abandoned.
func (r *Room) endTurnEarly(userID string) {
	if r.State != StatePlaying || r.Game == nil || !r.Game.TurnActive {
		return
	}
	if r.Game.CurrentSpeakerID != userID {
		return
	}

	r.timers.Cancel(r.ID)
	r.Game.TimeRemaining = 0
	r.Game.TurnActive = false

	r.notify.TurnEnded(r.snapshot())
}

// nextTurn starts a new turn between inactive turns. Host-only.
func (r *Room) nextTurn(userID string) {
	if r.State != StatePlaying || r.Game == nil || r.HostID != userID || r.Game.TurnActive {
		return
	}

	r.advanceTurn()
}

// returnToLobby resets the room after a finished game. Host-only, END only.
func (r *Room) returnToLobby(userID string) {
	if r.State != StateEnd || r.HostID != userID {
		return
	}

	r.State = StateLobby
	r.Game = nil
	for _, p := range r.Players {
		p.Score = 0
	}

	r.notify.RoomUpdate(r.snapshot())
}

// toggleCategory flips a category in or out of the draw pool. Host-only,
// not available once the game has ended.
func (r *Room) toggleCategory(userID, category string) {
	if r.HostID != userID || r.State == StateEnd {
		return
	}

	cats := r.Settings.ActiveCategories
	for i, cat := range cats {
		if cat == category {
			r.Settings.ActiveCategories = append(cats[:i], cats[i+1:]...)
			r.notify.RoomUpdate(r.snapshot())
			return
		}
	}

	r.Settings.ActiveCategories = append(cats, category)
	r.notify.RoomUpdate(r.snapshot())
}
