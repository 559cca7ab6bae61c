package chat

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"eventhub/internal/auth"
	"eventhub/internal/model"

	"golang.org/x/net/websocket"
)

const (
	maxDecodeErrorsPerConn = 5
	writeTimeout           = 10 * time.Second
)

type wsFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type roomPayload struct {
	EventID int64 `json:"eventId"`
}

type chatPayload struct {
	EventID int64  `json:"eventId"`
	UserID  int64  `json:"userId"`
	Message string `json:"message"`
}

type messagePayload struct {
	ID        int64     `json:"id"`
	EventID   int64     `json:"eventId"`
	UserID    int64     `json:"userId"`
	Username  string    `json:"username"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

type Authenticator interface {
	Parse(raw string) (auth.Actor, error)
}

// wsPeer owns the outbound side of a websocket. Frames queue in send and a
// single writer goroutine drains them.
type wsPeer struct {
	conn      *websocket.Conn
	send      chan model.ChatMessage
	done      chan struct{}
	closeOnce sync.Once
}

func newWSPeer(conn *websocket.Conn, queue int) *wsPeer {
	return &wsPeer{
		conn: conn,
		send: make(chan model.ChatMessage, queue),
		done: make(chan struct{}),
	}
}

func (p *wsPeer) Deliver(msg model.ChatMessage) bool {
	select {
	case <-p.done:
		return false
	default:
	}
	select {
	case p.send <- msg:
		return true
	default:
		return false
	}
}

func (p *wsPeer) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.done)
		err = p.conn.Close()
	})
	return err
}

func (p *wsPeer) writeLoop() {
	for {
		select {
		case <-p.done:
			return
		case msg := <-p.send:
			payload, err := json.Marshal(messagePayload{
				ID:        msg.ID,
				EventID:   msg.EventID,
				UserID:    msg.UserID,
				Username:  msg.Username,
				Message:   msg.Text,
				CreatedAt: msg.CreatedAt,
			})
			if err != nil {
				continue
			}
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := websocket.JSON.Send(p.conn, wsFrame{Type: "message", Payload: payload}); err != nil {
				_ = p.Close()
				return
			}
		}
	}
}

// Handler upgrades authenticated requests to a chat websocket. The token comes
// from the Authorization header or the token query parameter.
func (b *Broker) Handler(tokens Authenticator, queue int) http.Handler {
	if queue <= 0 {
		queue = 64
	}
	ws := websocket.Handler(func(conn *websocket.Conn) {
		b.serveConn(conn, queue)
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := auth.TokenFromRequest(r)
		if raw == "" {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		actor, err := tokens.Parse(raw)
		if err != nil {
			b.log.Debug().Err(err).Str("remote", r.RemoteAddr).Msg("websocket unauthorized")
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		ws.ServeHTTP(w, r.WithContext(auth.WithActor(r.Context(), actor)))
	})
}

func (b *Broker) serveConn(conn *websocket.Conn, queue int) {
	ctx := conn.Request().Context()
	actor, _ := auth.ActorFrom(ctx)

	peer := newWSPeer(conn, queue)
	defer func() { _ = peer.Close() }()

	connID, err := b.Connect(peer)
	if err != nil {
		return
	}
	defer b.Disconnect(connID)
	go peer.writeLoop()

	log := b.log.With().Str("conn_id", connID).Int64("user_id", actor.UserID).Logger()
	decodeErrors := 0

	for {
		var frame wsFrame
		if err := websocket.JSON.Receive(conn, &frame); err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			select {
			case <-peer.done:
				return
			default:
			}
			decodeErrors++
			if decodeErrors >= maxDecodeErrorsPerConn {
				log.Debug().Err(err).Msg("closing websocket after repeated read errors")
				return
			}
			continue
		}
		decodeErrors = 0

		switch frame.Type {
		case "joinEvent", "leaveEvent":
			var p roomPayload
			if err := json.Unmarshal(frame.Payload, &p); err != nil || p.EventID <= 0 {
				log.Debug().Str("type", frame.Type).Msg("bad room payload")
				continue
			}
			if frame.Type == "joinEvent" {
				_ = b.Join(connID, p.EventID)
			} else {
				b.Leave(connID, p.EventID)
			}
		case "chatMessage":
			var p chatPayload
			if err := json.Unmarshal(frame.Payload, &p); err != nil {
				log.Debug().Msg("bad chat payload")
				continue
			}
			if p.UserID != 0 && p.UserID != actor.UserID {
				log.Debug().Int64("payload_user_id", p.UserID).Msg("payload user id overridden by token")
			}
			if _, err := b.SendMessage(ctx, connID, p.EventID, actor.UserID, p.Message); err != nil {
				log.Debug().Err(err).Int64("event_id", p.EventID).Msg("chat message dropped")
			}
		default:
			log.Debug().Str("type", frame.Type).Msg("unsupported frame type")
		}
	}
}
