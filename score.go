package main

// scoreCorrectGuess applies the scoring rule: a correct guess is worth one
// point to the guesser and one to the speaker who gave the clue.
func (r *Room) scoreCorrectGuess(guesser *Player) {
	guesser.Score++

	if speaker := r.player(r.Game.CurrentSpeakerID); speaker != nil {
		speaker.Score++
	}
}
