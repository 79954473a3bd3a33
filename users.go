package main

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// UserStore is the identity and presence side of the server: profiles,
// friends and pending game invites. Identity is a client-supplied token
// trusted at face value; profiles survive disconnects for the process
// lifetime, only the connection mapping is dropped.

type Invite struct {
	FromUserID   string `json:"fromUserId"`
	FromUsername string `json:"fromUsername"`
	RoomID       string `json:"roomId"`
}

type User struct {
	ID       string
	Username string

	client  *Client
	friends map[string]struct{}
	invites []Invite
}

type FriendView struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Online   bool   `json:"online"`
}

type UserView struct {
	UserID         string       `json:"userId"`
	Username       string       `json:"username"`
	Friends        []FriendView `json:"friends"`
	PendingInvites []Invite     `json:"pendingInvites"`
}

type UserStore struct {
	mu    sync.Mutex
	users map[string]*User
}

func newUserStore() *UserStore {
	return &UserStore{users: make(map[string]*User)}
}

// Register creates a user or reattaches a returning one to its new
// connection. Missing usernames default to a guest name derived from the
// id. Online friends are told the user is back.
func (s *UserStore) Register(userID, username string, c *Client) UserView {
	s.mu.Lock()

	u, ok := s.users[userID]
	if ok {
		u.client = c
		if username != "" && username != u.Username {
			u.Username = username
		}
	} else {
		if userID == "" {
			userID = uuid.NewString()
		}
		if username == "" {
			username = "Guest_" + userID[:min(4, len(userID))]
		}
		u = &User{
			ID:       userID,
			Username: username,
			client:   c,
			friends:  make(map[string]struct{}),
			invites:  []Invite{},
		}
		s.users[userID] = u
	}

	view := s.viewLocked(u)
	friends := s.onlineFriendsLocked(u)

	s.mu.Unlock()

	for _, fc := range friends {
		fc.sendEvent("friend_online", friendPresenceMessage{UserID: u.ID})
	}

	return view
}

// Rename updates the profile name. The caller propagates the change to
// the user's room, if any.
func (s *UserStore) Rename(userID, username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", ErrInvalidUsername
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return "", ErrNotRegistered
	}

	u.Username = username

	return username, nil
}

// AddFriend links the two users both ways and notifies the friend.
func (s *UserStore) AddFriend(userID, friendID string) (FriendView, error) {
	s.mu.Lock()

	u, ok := s.users[userID]
	if !ok {
		s.mu.Unlock()
		return FriendView{}, ErrNotRegistered
	}
	friend, ok := s.users[friendID]
	if !ok {
		s.mu.Unlock()
		return FriendView{}, ErrUserNotFound
	}

	u.friends[friendID] = struct{}{}
	friend.friends[userID] = struct{}{}

	view := FriendView{UserID: friendID, Username: friend.Username, Online: friend.client != nil}
	friendClient := friend.client
	fromID, fromName := u.ID, u.Username

	s.mu.Unlock()

	friendClient.sendEvent("friend_added", struct {
		UserID   string `json:"userId"`
		Username string `json:"username"`
	}{fromID, fromName})

	return view, nil
}

// Invite queues a game invite on the friend and pushes it when they are
// online. Unknown friends are ignored, as in the original protocol.
func (s *UserStore) Invite(fromID, friendID, roomID string) bool {
	s.mu.Lock()

	from, ok := s.users[fromID]
	if !ok {
		s.mu.Unlock()
		return false
	}
	friend, ok := s.users[friendID]
	if !ok {
		s.mu.Unlock()
		return false
	}

	invite := Invite{FromUserID: fromID, FromUsername: from.Username, RoomID: roomID}
	friend.invites = append(friend.invites, invite)
	friendClient := friend.client

	s.mu.Unlock()

	friendClient.sendEvent("game_invite", invite)

	return true
}

// DeclineInvite drops the user's invites for the room and pushes the
// refreshed list back to them.
func (s *UserStore) DeclineInvite(userID, roomID string) {
	s.mu.Lock()

	u, ok := s.users[userID]
	if !ok {
		s.mu.Unlock()
		return
	}

	u.invites = filterInvites(u.invites, roomID)
	invites := append([]Invite(nil), u.invites...)
	c := u.client

	s.mu.Unlock()

	c.sendEvent("user_updated", struct {
		PendingInvites []Invite `json:"pendingInvites"`
	}{invites})
}

// ClearRoomInvites silently drops the user's invites for a room, used
// when they join it.
func (s *UserStore) ClearRoomInvites(userID, roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[userID]; ok {
		u.invites = filterInvites(u.invites, roomID)
	}
}

// PurgeRoomInvites removes every user's invites for a destroyed room and
// tells the online ones.
func (s *UserStore) PurgeRoomInvites(roomID string) {
	if s == nil {
		return
	}

	type push struct {
		c       *Client
		invites []Invite
	}
	var pushes []push

	s.mu.Lock()
	for _, u := range s.users {
		filtered := filterInvites(u.invites, roomID)
		if len(filtered) == len(u.invites) {
			continue
		}
		u.invites = filtered
		if u.client != nil {
			pushes = append(pushes, push{u.client, append([]Invite(nil), filtered...)})
		}
	}
	s.mu.Unlock()

	for _, p := range pushes {
		p.c.sendEvent("user_updated", struct {
			PendingInvites []Invite `json:"pendingInvites"`
		}{p.invites})
	}
}

// SetOffline drops the connection mapping but keeps the profile, and
// tells online friends.
func (s *UserStore) SetOffline(userID string) {
	s.mu.Lock()

	u, ok := s.users[userID]
	if !ok {
		s.mu.Unlock()
		return
	}

	u.client = nil
	friends := s.onlineFriendsLocked(u)

	s.mu.Unlock()

	for _, fc := range friends {
		fc.sendEvent("friend_offline", friendPresenceMessage{UserID: userID})
	}
}

// Username returns the profile name for a registered user.
func (s *UserStore) Username(userID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return "", false
	}

	return u.Username, true
}

func (s *UserStore) viewLocked(u *User) UserView {
	friends := make([]FriendView, 0, len(u.friends))
	for fid := range u.friends {
		f, ok := s.users[fid]
		if !ok {
			continue
		}
		friends = append(friends, FriendView{
			UserID:   fid,
			Username: f.Username,
			Online:   f.client != nil,
		})
	}

	return UserView{
		UserID:         u.ID,
		Username:       u.Username,
		Friends:        friends,
		PendingInvites: append([]Invite(nil), u.invites...),
	}
}

func (s *UserStore) onlineFriendsLocked(u *User) []*Client {
	out := make([]*Client, 0, len(u.friends))
	for fid := range u.friends {
		if f, ok := s.users[fid]; ok && f.client != nil {
			out = append(out, f.client)
		}
	}
	return out
}

func filterInvites(invites []Invite, roomID string) []Invite {
	dst := invites[:0]
	for _, inv := range invites {
		if inv.RoomID == roomID {
			continue
		}
		dst = append(dst, inv)
	}
	return dst
}
