package main

import (
	"crypto/rand"
	"strings"
	"sync"
)

const (
	roomCodeLength  = 6
	roomCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// RoomRegistry creates rooms under unique short codes, looks them up, and
// tears them down. Its lock covers only the code→room map; in-room
// mutation is the room executor's business.
type RoomRegistry struct {
	mu    sync.Mutex
	rooms map[string]*Room

	cfg    *Config
	dict   *Dictionary
	timers *TimerService
	users  *UserStore
	feed   *eventFeed
}

func newRoomRegistry(cfg *Config, dict *Dictionary, timers *TimerService, users *UserStore, feed *eventFeed) *RoomRegistry {
	return &RoomRegistry{
		rooms:  make(map[string]*Room),
		cfg:    cfg,
		dict:   dict,
		timers: timers,
		users:  users,
		feed:   feed,
	}
}

// Create makes a new LOBBY room with all categories active and starts its
// executor.
func (reg *RoomRegistry) Create(hostID string) *Room {
	reg.mu.Lock()
	code := reg.newRoomCodeLocked()
	r := newRoom(code, hostID, reg.cfg, reg.dict, reg.timers, reg, reg.feed)
	reg.rooms[code] = r
	reg.mu.Unlock()

	go r.run()

	logf(reg.cfg, "GAMES: Created room %s", code)

	return r
}

// Lookup is case-insensitive: codes are generated uppercase and typed by
// humans.
func (reg *RoomRegistry) Lookup(code string) (*Room, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r, ok := reg.rooms[strings.ToUpper(code)]

	return r, ok
}

// Remove destroys the room: unregisters the code, cancels any live timer,
// closes the event feed, stops the executor and purges pending invites
// pointing at the room. Safe to call more than once.
func (reg *RoomRegistry) Remove(r *Room) {
	reg.mu.Lock()
	current, ok := reg.rooms[r.ID]
	if !ok || current != r {
		reg.mu.Unlock()
		return
	}
	delete(reg.rooms, r.ID)
	reg.mu.Unlock()

	reg.timers.Cancel(r.ID)
	r.closeFeed()
	close(r.done)
	reg.users.PurgeRoomInvites(r.ID)

	logf(reg.cfg, "GAMES: Destroyed room %s", r.ID)
}

// newRoomCodeLocked generates a crypto-random room code and ensures it
// doesn't collide with a live room. Caller holds reg.mu.
func (reg *RoomRegistry) newRoomCodeLocked() string {
	for {
		buf := make([]byte, roomCodeLength)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}

		out := make([]byte, roomCodeLength)
		for i := range out {
			out[i] = roomCodeCharset[int(buf[i])%len(roomCodeCharset)]
		}
		code := string(out)

		if _, exists := reg.rooms[code]; !exists {
			return code
		}
	}
}
