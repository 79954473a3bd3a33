package main

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// Optional per-room event feed: when --kafka-broker is set, each room that
// starts a game gets its own topic carrying a human-readable line per turn
// event. Rooms work identically without it: the writer stays nil and
// every publish is a no-op.

type eventFeed struct {
	cfg    *Config
	broker string
}

func newEventFeed(cfg *Config) *eventFeed {
	if cfg.kafkaBroker == "" {
		return nil
	}

	return &eventFeed{cfg: cfg, broker: cfg.kafkaBroker}
}

// open creates the room's topic (broker-side auto topic creation) and
// returns an async writer for it, or nil when the broker is unreachable.
func (f *eventFeed) open(roomID string) *kafka.Writer {
	conn, err := kafka.DialLeader(context.Background(), "tcp", f.broker, roomID, 0)
	if err != nil {
		logf(f.cfg, "FEED: failed to create topic %s: %v", roomID, err)
		return nil
	}
	conn.Close()

	return &kafka.Writer{
		Addr:         kafka.TCP(f.broker),
		Topic:        roomID,
		RequiredAcks: kafka.RequireAll,
		Async:        true,
		BatchSize:    1,
	}
}

func (f *eventFeed) deleteTopic(roomID string) {
	conn, err := kafka.Dial("tcp", f.broker)
	if err != nil {
		logf(f.cfg, "FEED: failed to delete topic %s: %v", roomID, err)
		return
	}
	defer conn.Close()

	conn.DeleteTopics(roomID)
}

func (r *Room) openFeed() {
	if r.feed == nil || r.feedWriter != nil {
		return
	}

	r.feedWriter = r.feed.open(r.ID)
}

func (r *Room) feedSend(message string) {
	if r.feedWriter == nil {
		return
	}

	r.feedWriter.WriteMessages(
		context.Background(),
		kafka.Message{Value: []byte(message)},
	)
}

func (r *Room) closeFeed() {
	if r.feedWriter != nil {
		r.feedWriter.Close()
		r.feedWriter = nil
	}
	if r.feed != nil {
		r.feed.deleteTopic(r.ID)
	}
}
