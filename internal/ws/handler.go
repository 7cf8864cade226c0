package ws

import (
	"net/http"
	"strings"
	"time"

	"thirteen-rooms/internal/room"
	"thirteen-rooms/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type Handler struct {
	rooms *room.Manager
}

func NewHandler(rooms *room.Manager) *Handler {
	return &Handler{rooms: rooms}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for dev
	},
}

// HandleLobbyWS serves the read-only global lobby socket. Inbound frames
// are ignored; the client only ever receives rooms_update pushes.
func (h *Handler) HandleLobbyWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Log.Error("Failed to upgrade websocket", zap.Error(err))
		return
	}

	session, outbound := h.rooms.SubscribeLobby()
	logger.Log.Info("New lobby WebSocket connection", zap.String("session", session))

	cl := newClient(conn, session, outbound)
	cl.onClose = func() { h.rooms.UnsubscribeLobby(session) }
	cl.run()
}

// HandleRoomWS serves a room socket for the player_id named in the query
// string. A second connect with the same player_id closes and replaces the
// first.
func (h *Handler) HandleRoomWS(c *gin.Context) {
	roomID := c.Param("roomId")
	rm, ok := h.rooms.Room(roomID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	playerID := strings.TrimSpace(c.Query("player_id"))
	if playerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "player_id is required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Log.Error("Failed to upgrade websocket", zap.Error(err))
		return
	}

	session, outbound := rm.Subscribe(playerID)
	logger.Log.Info("New room WebSocket connection",
		zap.String("roomID", roomID),
		zap.String("playerID", playerID),
		zap.String("session", session),
	)

	cl := newClient(conn, session, outbound)
	cl.onClose = func() { rm.Unsubscribe(playerID, session) }
	cl.onMessage = func(raw []byte) { rm.Dispatch(playerID, raw) }
	cl.run()
}

type client struct {
	conn      *websocket.Conn
	session   string
	outbound  <-chan interface{}
	done      chan struct{}
	pingEvery time.Duration

	onClose   func()
	onMessage func([]byte)
}

func newClient(conn *websocket.Conn, session string, outbound <-chan interface{}) *client {
	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	return &client{
		conn:      conn,
		session:   session,
		outbound:  outbound,
		done:      make(chan struct{}),
		pingEvery: 25 * time.Second,
	}
}

func (c *client) run() {
	go c.writePump()
	c.readPump()
}

func (c *client) readPump() {
	defer func() {
		close(c.done)
		if c.onClose != nil {
			c.onClose()
		}
		c.conn.Close()
	}()

	for {
		mt, message, err := c.conn.ReadMessage()
		if err != nil {
			logger.Log.Info("WS read error", zap.Error(err), zap.String("session", c.session))
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}
		if c.onMessage != nil {
			c.onMessage(message)
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(c.pingEvery)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.outbound:
			if !ok {
				// The room closed this subscriber (replaced socket or a
				// full queue); closing the conn unblocks the read pump.
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				logger.Log.Info("WS write error", zap.Error(err), zap.String("session", c.session))
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
