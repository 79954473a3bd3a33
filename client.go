package main

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"golang.org/x/time/rate"
)

// Server wires the stores together for the command dispatcher.
type Server struct {
	cfg      *Config
	users    *UserStore
	registry *RoomRegistry
	dict     *Dictionary
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one websocket connection. It maps the connection to a user id
// once register_user arrives, and to at most one room once join_room
// succeeds; the core only ever sees stable user ids.
type Client struct {
	conn    *websocket.Conn
	send    chan []byte
	closed  chan struct{}
	once    sync.Once
	limiter *rate.Limiter

	mu     sync.Mutex
	userID string
	roomID string
}

func newClient(conn *websocket.Conn) *Client {
	return &Client{
		conn:    conn,
		send:    make(chan []byte, 256),
		closed:  make(chan struct{}),
		limiter: rate.NewLimiter(10, 20),
	}
}

func (c *Client) user() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

func (c *Client) setUser(id string) {
	c.mu.Lock()
	c.userID = id
	c.mu.Unlock()
}

func (c *Client) room() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID
}

func (c *Client) setRoom(id string) {
	c.mu.Lock()
	c.roomID = id
	c.mu.Unlock()
}

// enqueue queues a marshaled message without blocking. Nil clients (test
// players, offline users) and full queues drop the message.
func (c *Client) enqueue(msg []byte) {
	if c == nil {
		return
	}

	select {
	case c.send <- msg:
	case <-c.closed:
	default:
	}
}

func (c *Client) sendEvent(eventType string, data any) {
	if c == nil {
		return
	}

	msg, err := marshalEvent(eventType, data)
	if err != nil {
		return
	}

	c.enqueue(msg)
}

// ack replies to the sender only, as `<command>_result`.
func (c *Client) ack(command string, data any) {
	c.sendEvent(command+"_result", data)
}

func (c *Client) close() {
	c.once.Do(func() {
		close(c.closed)
		c.conn.Close()
	})
}

func (c *Client) readPump(srv *Server) {
	defer func() {
		srv.handleDisconnect(c)
		c.close()
	}()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		if !c.limiter.Allow() {
			continue
		}

		var env Envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			continue
		}

		srv.dispatch(c, env)
	}
}

func (c *Client) writePump() {
	defer c.close()

	for {
		select {
		case msg := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-c.closed:
			return
		}
	}
}

// dispatch routes one client command. Unknown types are ignored;
// commands that defined an ack in the original protocol get a
// `<command>_result` reply, the rest fail silently per the error
// taxonomy.
func (srv *Server) dispatch(c *Client, env Envelope) {
	if env.Type == "register_user" {
		srv.registerUser(c, env.Data)
		return
	}

	userID := c.user()

	switch env.Type {
	case "update_username":
		srv.updateUsername(c, userID, env.Data)
	case "add_friend":
		srv.addFriend(c, userID, env.Data)
	case "invite_friend":
		srv.inviteFriend(c, userID, env.Data)
	case "decline_invite":
		var cmd declineInviteCmd
		if userID == "" || json.Unmarshal(env.Data, &cmd) != nil {
			return
		}
		srv.users.DeclineInvite(userID, cmd.RoomID)
	case "create_room":
		if userID == "" {
			c.ack("create_room", createRoomResult{ackResult: ackErr(ErrNotRegistered)})
			return
		}
		room := srv.registry.Create(userID)
		c.ack("create_room", createRoomResult{ackResult: ackOK(), RoomID: room.ID})
	case "join_room":
		srv.joinRoom(c, userID, env.Data)
	case "leave_room":
		srv.leaveRoom(c, userID)
	case "toggle_category":
		var cmd toggleCategoryCmd
		if userID == "" || json.Unmarshal(env.Data, &cmd) != nil {
			return
		}
		if room, ok := srv.registry.Lookup(cmd.RoomID); ok {
			room.dispatch(func() { room.toggleCategory(userID, cmd.Category) })
		}
	case "start_game":
		srv.gameCommand(userID, env.Data, (*Room).startGame)
	case "send_clue":
		srv.sendClue(c, userID, env.Data)
	case "word_guessed":
		var cmd wordGuessedCmd
		if userID == "" || json.Unmarshal(env.Data, &cmd) != nil {
			return
		}
		if room, ok := srv.registry.Lookup(cmd.RoomID); ok {
			room.dispatch(func() { room.submitGuess(userID, cmd.TypedWord) })
		}
	case "speaker_skip":
		srv.gameCommand(userID, env.Data, (*Room).speakerSkip)
	case "end_turn":
		srv.gameCommand(userID, env.Data, (*Room).endTurnEarly)
	case "next_turn":
		srv.gameCommand(userID, env.Data, (*Room).nextTurn)
	case "return_lobby":
		srv.gameCommand(userID, env.Data, (*Room).returnToLobby)
	default:
		// ignore unknown types
	}
}

func (srv *Server) registerUser(c *Client, data json.RawMessage) {
	var cmd registerUserCmd
	json.Unmarshal(data, &cmd)

	view := srv.users.Register(cmd.UserID, cmd.Username, c)
	c.setUser(view.UserID)

	logf(srv.cfg, "USERS: Registered %q (%s)", view.Username, view.UserID)

	c.ack("register_user", registerUserResult{ackResult: ackOK(), User: &view})
}

func (srv *Server) updateUsername(c *Client, userID string, data json.RawMessage) {
	var cmd updateUsernameCmd
	if err := json.Unmarshal(data, &cmd); err != nil {
		return
	}
	if userID == "" {
		c.ack("update_username", updateUsernameResult{ackResult: ackErr(ErrNotRegistered)})
		return
	}

	name, err := srv.users.Rename(userID, cmd.Username)
	if err != nil {
		c.ack("update_username", updateUsernameResult{ackResult: ackErr(err)})
		return
	}

	c.sendEvent("user_updated", struct {
		Username string `json:"username"`
	}{name})

	// A user is in at most one room; propagate the rename there.
	if roomID := c.room(); roomID != "" {
		if room, ok := srv.registry.Lookup(roomID); ok {
			room.dispatch(func() {
				if room.renamePlayer(userID, name) {
					room.notify.RoomUpdate(room.snapshot())
				}
			})
		}
	}

	c.ack("update_username", updateUsernameResult{ackResult: ackOK(), Username: name})
}

func (srv *Server) addFriend(c *Client, userID string, data json.RawMessage) {
	var cmd addFriendCmd
	if err := json.Unmarshal(data, &cmd); err != nil {
		return
	}
	if userID == "" {
		c.ack("add_friend", addFriendResult{ackResult: ackErr(ErrNotRegistered)})
		return
	}

	view, err := srv.users.AddFriend(userID, cmd.FriendID)
	if err != nil {
		c.ack("add_friend", addFriendResult{ackResult: ackErr(err)})
		return
	}

	c.ack("add_friend", addFriendResult{ackResult: ackOK(), Friend: &view})
}

func (srv *Server) inviteFriend(c *Client, userID string, data json.RawMessage) {
	var cmd inviteFriendCmd
	if userID == "" || json.Unmarshal(data, &cmd) != nil {
		return
	}

	if srv.users.Invite(userID, cmd.FriendID, cmd.RoomID) {
		c.ack("invite_friend", ackOK())
	}
}

func (srv *Server) joinRoom(c *Client, userID string, data json.RawMessage) {
	var cmd joinRoomCmd
	if err := json.Unmarshal(data, &cmd); err != nil {
		return
	}
	if userID == "" {
		c.ack("join_room", joinRoomResult{ackResult: ackErr(ErrNotRegistered)})
		return
	}

	room, ok := srv.registry.Lookup(cmd.RoomID)
	if !ok {
		c.ack("join_room", joinRoomResult{ackResult: ackErr(ErrRoomNotFound)})
		return
	}

	name, ok := srv.users.Username(userID)
	if !ok {
		c.ack("join_room", joinRoomResult{ackResult: ackErr(ErrNotRegistered)})
		return
	}

	// A user is in at most one room; switching rooms leaves the old one
	// first, destroying it if the move empties it.
	if prev := c.room(); prev != "" && prev != room.ID {
		srv.removeFromRoom(c, userID)
	}

	dispatched := room.dispatch(func() {
		room.addPlayer(userID, name, c)
		c.setRoom(room.ID)

		room.notify.RoomUpdate(room.snapshot())
		srv.users.ClearRoomInvites(userID, room.ID)

		logf(srv.cfg, "GAMES: Player %q joined %s", name, room.ID)

		snap := room.snapshot()
		c.ack("join_room", joinRoomResult{ackResult: ackOK(), Room: &snap})
	})

	if !dispatched {
		c.ack("join_room", joinRoomResult{ackResult: ackErr(ErrRoomNotFound)})
	}
}

func (srv *Server) sendClue(c *Client, userID string, data json.RawMessage) {
	var cmd sendClueCmd
	if err := json.Unmarshal(data, &cmd); err != nil {
		return
	}
	if userID == "" {
		c.ack("send_clue", ackErr(ErrNotRegistered))
		return
	}

	room, ok := srv.registry.Lookup(cmd.RoomID)
	if !ok {
		c.ack("send_clue", ackErr(ErrGameNotActive))
		return
	}

	dispatched := room.dispatch(func() {
		if err := room.submitClue(userID, cmd.ClueText); err != nil {
			c.ack("send_clue", ackErr(err))
			return
		}
		c.ack("send_clue", ackOK())
	})

	if !dispatched {
		c.ack("send_clue", ackErr(ErrGameNotActive))
	}
}

// gameCommand runs a fire-and-forget speaker/host action on the room's
// executor.
func (srv *Server) gameCommand(userID string, data json.RawMessage, action func(*Room, string)) {
	var cmd roomCmd
	if userID == "" || json.Unmarshal(data, &cmd) != nil {
		return
	}

	if room, ok := srv.registry.Lookup(cmd.RoomID); ok {
		room.dispatch(func() { action(room, userID) })
	}
}

func (srv *Server) leaveRoom(c *Client, userID string) {
	if userID == "" {
		c.ack("leave_room", ackErr(ErrNotRegistered))
		return
	}

	srv.removeFromRoom(c, userID)

	c.ack("leave_room", ackOK())
}

// removeFromRoom takes the user out of their room (if any), promoting a
// new host or destroying the room when it empties. Timer cancellation
// happens inside the same executor transaction as the membership change.
func (srv *Server) removeFromRoom(c *Client, userID string) {
	roomID := c.room()
	if roomID == "" {
		return
	}
	c.setRoom("")

	room, ok := srv.registry.Lookup(roomID)
	if !ok {
		return
	}

	room.dispatch(func() {
		if room.player(userID) == nil {
			return
		}

		if room.removePlayer(userID) {
			srv.registry.Remove(room)
			return
		}

		room.notify.RoomUpdate(room.snapshot())
	})
}

// handleDisconnect treats a dropped connection as leave_room plus marking
// the user offline. The profile and friends list survive.
func (srv *Server) handleDisconnect(c *Client) {
	userID := c.user()
	if userID == "" {
		return
	}

	srv.removeFromRoom(c, userID)
	srv.users.SetOffline(userID)

	logf(srv.cfg, "USERS: Disconnected %s", userID)
}

// serveWS upgrades the connection and runs the client pumps.
func serveWS(cfg *Config, srv *Server) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "SERVE: Upgrade failed for %s: %v", realIP(r), err)
			return
		}

		client := newClient(conn)

		logf(cfg, "SERVE: Socket connected from %s", realIP(r))

		go client.writePump()
		client.readPump(srv)
	}
}
