// Package chat runs the per-event chat rooms: connection registry, membership
// and ordered message fan-out.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"eventhub/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const MaxMessageRunes = 2000

var (
	ErrClosed         = errors.New("chat broker closed")
	ErrUnknownConn    = errors.New("unknown connection")
	ErrNotJoined      = errors.New("connection has not joined the room")
	ErrNotEligible    = errors.New("user may not chat")
	ErrInvalidMessage = errors.New("invalid chat message")
)

type Store interface {
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	InsertChatMessage(ctx context.Context, m *model.ChatMessage) (int64, error)
	GetChatMessagesByEvent(ctx context.Context, eventID int64) ([]model.ChatMessage, error)
}

// Peer is one client connection. Deliver must not block; it reports false when
// the message was dropped.
type Peer interface {
	Deliver(msg model.ChatMessage) bool
	Close() error
}

type connection struct {
	id     string
	peer   Peer
	room   *room
	joined bool
}

// A room that has carried messages outlives its members so lastAt keeps
// createdAt increasing. It goes away with its event.
type room struct {
	eventID int64
	// send serializes persistence and fan-out so delivery order is acceptance order.
	send    sync.Mutex
	lastAt  time.Time
	members map[string]Peer // guarded by Broker.mu
	used    bool            // guarded by Broker.mu
}

type Broker struct {
	store Store
	log   *zerolog.Logger
	now   func() time.Time

	mu     sync.Mutex
	conns  map[string]*connection
	rooms  map[int64]*room
	closed bool
}

func NewBroker(store Store, log *zerolog.Logger) *Broker {
	return &Broker{
		store: store,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
		conns: make(map[string]*connection),
		rooms: make(map[int64]*room),
	}
}

func (b *Broker) Connect(peer Peer) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return "", ErrClosed
	}
	id := uuid.NewString()
	b.conns[id] = &connection{id: id, peer: peer}
	b.log.Debug().Str("conn_id", id).Msg("chat connection registered")
	return id, nil
}

// Join moves the connection into the room of eventID, leaving any previous room.
func (b *Broker) Join(connID string, eventID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.conns[connID]
	if !ok {
		return ErrUnknownConn
	}
	if c.joined && c.room.eventID == eventID {
		return nil
	}
	b.leaveLocked(c)

	r, ok := b.rooms[eventID]
	if !ok {
		r = &room{eventID: eventID, members: make(map[string]Peer)}
		b.rooms[eventID] = r
	}
	r.members[connID] = c.peer
	c.room, c.joined = r, true

	b.log.Debug().Str("conn_id", connID).Int64("event_id", eventID).Msg("joined chat room")
	return nil
}

func (b *Broker) Leave(connID string, eventID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.conns[connID]
	if !ok || !c.joined || c.room.eventID != eventID {
		return
	}
	b.leaveLocked(c)
}

func (b *Broker) leaveLocked(c *connection) {
	if !c.joined {
		return
	}
	r := c.room
	delete(r.members, c.id)
	c.room, c.joined = nil, false
	if len(r.members) == 0 && !r.used && b.rooms[r.eventID] == r {
		delete(b.rooms, r.eventID)
	}
}

// DropRoom forgets the room of a deleted event. Its members stay connected but
// must join again before sending.
func (b *Broker) DropRoom(eventID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	r, ok := b.rooms[eventID]
	if !ok {
		return
	}
	for id := range r.members {
		if c, ok := b.conns[id]; ok {
			c.room, c.joined = nil, false
		}
	}
	delete(b.rooms, eventID)
	b.log.Debug().Int64("event_id", eventID).Int("members", len(r.members)).Msg("chat room dropped")
}

func (b *Broker) Disconnect(connID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.conns[connID]
	if !ok {
		return
	}
	b.leaveLocked(c)
	delete(b.conns, connID)
	b.log.Debug().Str("conn_id", connID).Msg("chat connection removed")
}

// SendMessage validates, stores and broadcasts a message. Any returned error
// means nothing was stored or delivered.
func (b *Broker) SendMessage(ctx context.Context, connID string, eventID, userID int64, text string) (*model.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" || utf8.RuneCountInString(text) > MaxMessageRunes {
		return nil, ErrInvalidMessage
	}

	b.mu.Lock()
	c, ok := b.conns[connID]
	var r *room
	if ok && c.joined && c.room.eventID == eventID {
		r = c.room
	}
	b.mu.Unlock()
	if !ok {
		return nil, ErrUnknownConn
	}
	if r == nil {
		return nil, ErrNotJoined
	}

	user, err := b.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotEligible, err)
	}
	if !user.Eligible() {
		return nil, ErrNotEligible
	}

	r.send.Lock()
	defer r.send.Unlock()

	at := b.now()
	if !at.After(r.lastAt) {
		at = r.lastAt.Add(time.Microsecond)
	}
	msg := model.ChatMessage{
		EventID:   eventID,
		UserID:    userID,
		Username:  user.Name,
		Text:      text,
		CreatedAt: at,
	}
	if _, err := b.store.InsertChatMessage(ctx, &msg); err != nil {
		return nil, fmt.Errorf("persist chat message: %w", err)
	}
	r.lastAt = at

	b.mu.Lock()
	r.used = true
	peers := make([]Peer, 0, len(r.members))
	for _, p := range r.members {
		peers = append(peers, p)
	}
	b.mu.Unlock()

	for _, p := range peers {
		if !p.Deliver(msg) {
			b.log.Warn().Int64("event_id", eventID).Int64("message_id", msg.ID).Msg("chat peer queue full, frame dropped")
		}
	}
	return &msg, nil
}

func (b *Broker) History(ctx context.Context, eventID int64) ([]model.ChatMessage, error) {
	return b.store.GetChatMessagesByEvent(ctx, eventID)
}

// Close disconnects every peer and refuses new connections.
func (b *Broker) Close() {
	b.mu.Lock()
	b.closed = true
	conns := b.conns
	b.conns = make(map[string]*connection)
	b.rooms = make(map[int64]*room)
	b.mu.Unlock()

	for _, c := range conns {
		_ = c.peer.Close()
	}
	b.log.Info().Int("connections", len(conns)).Msg("chat broker closed")
}

// Rooms returns the number of rooms held in memory.
func (b *Broker) Rooms() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.rooms)
}

// Members returns the number of connections in the room of eventID.
func (b *Broker) Members(eventID int64) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if r, ok := b.rooms[eventID]; ok {
		return len(r.members)
	}
	return 0
}
