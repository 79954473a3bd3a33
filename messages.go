package main

import "encoding/json"

// Envelope is the framing for every websocket message in both directions.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Messages coming from clients
type registerUserCmd struct {
	UserID   string `json:"userId,omitempty"`
	Username string `json:"username,omitempty"`
}

type updateUsernameCmd struct {
	Username string `json:"username"`
}

type addFriendCmd struct {
	FriendID string `json:"friendId"`
}

type inviteFriendCmd struct {
	FriendID string `json:"friendId"`
	RoomID   string `json:"roomId"`
}

type declineInviteCmd struct {
	RoomID string `json:"roomId"`
}

type joinRoomCmd struct {
	RoomID string `json:"roomId"`
}

type toggleCategoryCmd struct {
	RoomID   string `json:"roomId"`
	Category string `json:"category"`
}

// roomCmd covers start_game, speaker_skip, end_turn, next_turn and
// return_lobby, which carry nothing but the room code.
type roomCmd struct {
	RoomID string `json:"roomId"`
}

type sendClueCmd struct {
	RoomID   string `json:"roomId"`
	ClueText string `json:"clueText"`
}

type wordGuessedCmd struct {
	RoomID    string `json:"roomId"`
	TypedWord string `json:"typedWord"`
}

// Messages sent to clients

// ackResult is the `{status, message}` reply to commands that carry one.
type ackResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func ackOK() ackResult {
	return ackResult{Status: "success"}
}

func ackErr(err error) ackResult {
	return ackResult{Status: "error", Message: err.Error()}
}

type registerUserResult struct {
	ackResult
	User *UserView `json:"user,omitempty"`
}

type updateUsernameResult struct {
	ackResult
	Username string `json:"username,omitempty"`
}

type addFriendResult struct {
	ackResult
	Friend *FriendView `json:"friend,omitempty"`
}

type createRoomResult struct {
	ackResult
	RoomID string `json:"roomId,omitempty"`
}

type joinRoomResult struct {
	ackResult
	Room *RoomSnapshot `json:"room,omitempty"`
}

type timerTickMessage struct {
	TimeRemaining int `json:"timeRemaining"`
}

type correctGuessMessage struct {
	By   string `json:"by"`
	Word string `json:"word"`
}

type friendPresenceMessage struct {
	UserID string `json:"userId"`
}

func marshalEvent(eventType string, data any) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return json.Marshal(Envelope{Type: eventType, Data: payload})
}
