package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"google.golang.org/grpc/status"

	svcErr "github.com/oggyb/muzz-match/internal/errors"
	"github.com/oggyb/muzz-match/internal/presence"
	pb "github.com/oggyb/muzz-match/internal/proto/engine"
)

// UserIDHeader carries the caller's id, set by the upstream gateway after
// authentication.
const UserIDHeader = "X-User-ID"

const (
	// Time allowed to write a frame to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from the peer
	pongWait = 60 * time.Second

	// Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Largest inbound frame; a message text is capped at 4096 characters
	maxFrameSize = 32 * 1024

	// Events queued per connection before it is considered unresponsive
	sendBuffer = 64

	// Upper bound for handling one inbound frame
	frameTimeout = 10 * time.Second
)

// Inbound frame types.
const (
	FrameNewMessage = "new_message"
	FrameNewChat    = "new_chat"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// origin is enforced by the upstream gateway
	CheckOrigin: func(*http.Request) bool { return true },
}

// Frame is what a client sends over the socket.
type Frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type newMessagePayload struct {
	ChatID uint64 `json:"chat_id"`
	Text   string `json:"text"`
}

type newChatPayload struct {
	MatchID uint64 `json:"match_id"`
}

// WebsocketHandler upgrades /ws requests into live presence connections.
type WebsocketHandler struct {
	svc *Service
}

func NewWebsocketHandler(svc *Service) *WebsocketHandler {
	return &WebsocketHandler{svc: svc}
}

// ServeHTTP authenticates the caller from UserIDHeader, registers the socket
// with the presence registry and pumps frames until either side goes away.
func (h *WebsocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := h.svc.appCtx.Logger

	userID, err := strconv.ParseUint(r.Header.Get(UserIDHeader), 10, 64)
	if err != nil || userID == 0 {
		http.Error(w, "missing or invalid "+UserIDHeader, http.StatusUnauthorized)
		return
	}
	if _, err := h.svc.users.GetActive(r.Context(), userID); err != nil {
		if svcErr.Is(err, svcErr.ErrNotFound) {
			http.Error(w, "unknown user", http.StatusForbidden)
			return
		}
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", "user", userID, "err", err)
		return
	}

	events := presence.NewBuffered(sendBuffer)
	conn, err := h.svc.appCtx.Presence.Connect(userID, events)
	if err != nil {
		log.Warn("presence connect failed", "user", userID, "err", err)
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "shutting down"),
			time.Now().Add(writeWait))
		_ = ws.Close()
		return
	}
	log.Info("websocket connected", "user", userID, "conn", conn.ID)

	c := &client{svc: h.svc, ws: ws, userID: userID, events: events}
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.writePump()
	}()

	c.readPump()
	h.svc.appCtx.Presence.Disconnect(conn)
	<-done
	log.Info("websocket disconnected", "user", userID, "conn", conn.ID)
}

// client is one socket. The read pump owns inbound frames; only the write
// pump writes to ws.
type client struct {
	svc    *Service
	ws     *websocket.Conn
	userID uint64
	events *presence.Buffered
}

func (c *client) readPump() {
	defer c.ws.Close()

	c.ws.SetReadLimit(maxFrameSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.svc.appCtx.Logger.Warn("websocket read failed", "user", c.userID, "err", err)
			}
			return
		}
		// handled inline so one socket's sends keep their order
		c.handle(data)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case ev, ok := <-c.events.Events():
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) handle(data []byte) {
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		c.fail(svcErr.Invalid("malformed frame"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
	defer cancel()

	switch frame.Type {
	case FrameNewMessage:
		var p newMessagePayload
		if err := json.Unmarshal(frame.Payload, &p); err != nil {
			c.fail(svcErr.Invalid("malformed new_message payload"))
			return
		}
		if err := c.svc.check(&pb.SendMessageRequest{Text: p.Text}); err != nil {
			c.fail(err)
			return
		}
		// the author's own sockets receive the message through the fan-out
		if _, err := c.svc.gateway.SendMessage(ctx, p.ChatID, c.userID, p.Text); err != nil {
			c.fail(err)
		}
	case FrameNewChat:
		var p newChatPayload
		if err := json.Unmarshal(frame.Payload, &p); err != nil {
			c.fail(svcErr.Invalid("malformed new_chat payload"))
			return
		}
		if _, err := c.svc.gateway.GetOrCreate(ctx, c.userID, p.MatchID); err != nil {
			c.fail(err)
		}
	default:
		c.fail(svcErr.Invalid("unknown frame type %q", frame.Type))
	}
}

// fail reports err back to this socket only.
func (c *client) fail(err error) {
	msg := status.Convert(svcErr.Map(err)).Message()
	c.svc.appCtx.Logger.Debug("websocket frame rejected", "user", c.userID, "err", err)
	if sendErr := c.events.Send(presence.Event{
		Type:      presence.EventError,
		Error:     msg,
		CreatedAt: time.Now().UTC(),
	}); sendErr != nil {
		c.svc.appCtx.Logger.Warn("error event dropped", "user", c.userID, "err", sendErr)
	}
}
