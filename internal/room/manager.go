package room

import (
	"fmt"
	"sync"

	"thirteen-rooms/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager owns the fixed set of rooms created at startup and the global
// lobby view. Rooms are never destroyed; the set is immutable after
// NewManager.
type Manager struct {
	rooms []*Room
	byID  map[string]*Room

	lobbyMu   sync.Mutex
	lobbySubs map[string]chan interface{}
}

// NewManager pre-creates count rooms with ids room-1..room-count.
func NewManager(count, maxPlayers int) *Manager {
	m := &Manager{
		byID:      make(map[string]*Room, count),
		lobbySubs: make(map[string]chan interface{}),
	}
	for i := 1; i <= count; i++ {
		id := fmt.Sprintf("room-%d", i)
		rm := newRoom(id, fmt.Sprintf("Room %d", i), maxPlayers, m.publishRooms)
		m.rooms = append(m.rooms, rm)
		m.byID[id] = rm
	}
	return m
}

// Room looks up a room by its stable id.
func (m *Manager) Room(id string) (*Room, bool) {
	rm, ok := m.byID[id]
	return rm, ok
}

// Summaries snapshots every room in creation order.
func (m *Manager) Summaries() []RoomSummary {
	out := make([]RoomSummary, 0, len(m.rooms))
	for _, rm := range m.rooms {
		out = append(out, rm.Summary())
	}
	return out
}

// SubscribeLobby registers a lobby viewer and returns its session id plus
// the channel its writer must drain. The first message on the channel is a
// rooms_update snapshot, so a client never renders an empty lobby.
func (m *Manager) SubscribeLobby() (string, <-chan interface{}) {
	msg := roomsUpdateMsg{Type: "rooms_update", Rooms: m.Summaries()}

	m.lobbyMu.Lock()
	session := uuid.NewString()
	ch := make(chan interface{}, outboundQueueSize)
	m.lobbySubs[session] = ch
	ch <- msg
	m.lobbyMu.Unlock()
	return session, ch
}

// UnsubscribeLobby removes a lobby viewer. Safe to call for a session that
// was already dropped as a slow subscriber.
func (m *Manager) UnsubscribeLobby(session string) {
	m.lobbyMu.Lock()
	if ch, ok := m.lobbySubs[session]; ok {
		delete(m.lobbySubs, session)
		close(ch)
	}
	m.lobbyMu.Unlock()
}

// publishRooms pushes a fresh rooms_update to every lobby subscriber. It is
// called by rooms after they release their own lock, so summarizing here
// never nests room locks.
func (m *Manager) publishRooms() {
	msg := roomsUpdateMsg{Type: "rooms_update", Rooms: m.Summaries()}

	m.lobbyMu.Lock()
	for session, ch := range m.lobbySubs {
		select {
		case ch <- msg:
		default:
			logger.Log.Warn("lobby subscriber queue full, disconnecting",
				zap.String("session", session),
			)
			delete(m.lobbySubs, session)
			close(ch)
		}
	}
	m.lobbyMu.Unlock()
}
