package room

import (
	"encoding/json"
	"strings"
	"sync"

	"thirteen-rooms/internal/game"
	apperr "thirteen-rooms/pkg/errors"
	"thirteen-rooms/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// StatusEmpty means no lobby players and no game.
	StatusEmpty = "empty"
	// StatusGathering means at least one lobby player and no game.
	StatusGathering = "gathering"
	// StatusInGame means a hand is being played.
	StatusInGame = "in_game"

	maxNameLen = 20

	// outboundQueueSize bounds each subscriber's pending-message queue. A
	// subscriber that falls this far behind is disconnected rather than
	// allowed to stall the room.
	outboundQueueSize = 32
)

// subscriber is one live socket's view of the room. The session id tells a
// teardown apart from the teardown of a connection it replaced.
type subscriber struct {
	session string
	ch      chan interface{}
}

// Room serializes every state mutation through one mutex. Broadcasts are
// enqueued onto per-subscriber buffered channels while the lock is held;
// the actual socket writes happen on each connection's writer goroutine.
type Room struct {
	id         string
	name       string
	maxPlayers int

	log *zap.Logger

	mu    sync.Mutex
	lobby []lobbyPlayerInfo
	subs  map[string]*subscriber
	game  *game.State

	// onStatusChange is invoked after the room lock is released whenever
	// the lobby roster or game presence changed, so the lobby service can
	// republish summaries without any lock-ordering hazard.
	onStatusChange func()
}

func newRoom(id, name string, maxPlayers int, onStatusChange func()) *Room {
	return &Room{
		id:             id,
		name:           name,
		maxPlayers:     maxPlayers,
		log:            logger.ForRoom(id),
		subs:           make(map[string]*subscriber),
		onStatusChange: onStatusChange,
	}
}

func (r *Room) ID() string { return r.id }

func (r *Room) statusLocked() string {
	switch {
	case r.game != nil:
		return StatusInGame
	case len(r.lobby) == 0:
		return StatusEmpty
	default:
		return StatusGathering
	}
}

func (r *Room) playerCountLocked() int {
	if r.game != nil {
		return len(r.game.Players)
	}
	return len(r.lobby)
}

// Summary snapshots the room for the lobby's rooms_update listing.
func (r *Room) Summary() RoomSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RoomSummary{
		RoomID:      r.id,
		RoomName:    r.name,
		Status:      r.statusLocked(),
		PlayerCount: r.playerCountLocked(),
		MaxPlayers:  r.maxPlayers,
	}
}

// Subscribe registers playerID's socket with the room and returns a session
// id plus the outbound message channel the connection's writer must drain.
// A second subscribe for the same playerID closes and replaces the first
// (last writer wins). The new subscriber immediately receives the current
// lobby roster and, if a hand is in progress, a personalized game_state.
func (r *Room) Subscribe(playerID string) (string, <-chan interface{}) {
	r.mu.Lock()
	if old, ok := r.subs[playerID]; ok {
		delete(r.subs, playerID)
		close(old.ch)
	}
	sub := &subscriber{
		session: uuid.NewString(),
		ch:      make(chan interface{}, outboundQueueSize),
	}
	r.subs[playerID] = sub

	r.pushLocked(playerID, r.lobbyUpdateLocked())
	if r.game != nil {
		r.pushLocked(playerID, gameStateFor(r.game, playerID))
	}
	r.mu.Unlock()

	r.log.Info("subscriber attached",
		zap.String("playerID", playerID),
		zap.String("session", sub.session),
	)
	return sub.session, sub.ch
}

// Unsubscribe tears down playerID's socket if session still identifies the
// live subscriber. While the room is gathering the player is also removed
// from the lobby roster; in-game state is never touched.
func (r *Room) Unsubscribe(playerID, session string) {
	r.mu.Lock()
	sub, ok := r.subs[playerID]
	if !ok || sub.session != session {
		r.mu.Unlock()
		return
	}
	delete(r.subs, playerID)
	close(sub.ch)

	changed := false
	if r.game == nil && r.removeFromLobbyLocked(playerID) {
		r.broadcastLocked(r.lobbyUpdateLocked())
		changed = true
	}
	r.mu.Unlock()

	if changed {
		r.notifyStatusChange()
	}
}

func (r *Room) notifyStatusChange() {
	if r.onStatusChange != nil {
		r.onStatusChange()
	}
}

// Dispatch parses one inbound frame from playerID and applies it to the
// room under the lock. Rejections are reported to the sender only; accepted
// commands enqueue their broadcasts before the lock is released, so every
// member observes a prefix-consistent message sequence.
func (r *Room) Dispatch(playerID string, raw []byte) {
	var cmd command
	if err := json.Unmarshal(raw, &cmd); err != nil || cmd.Type == "" {
		r.sendError(playerID, apperr.ErrMalformedCommand)
		return
	}

	statusChanged, err := r.apply(playerID, cmd)
	if err != nil {
		kind, known := apperr.KindOf(err)
		if !known {
			r.log.Error("unexpected fault while handling command",
				zap.String("playerID", playerID),
				zap.String("command", cmd.Type),
				zap.Error(err),
			)
			r.sendError(playerID, apperr.New(apperr.MalformedCommand, "internal error"))
			return
		}
		r.log.Info("command rejected",
			zap.String("playerID", playerID),
			zap.String("command", cmd.Type),
			zap.String("kind", string(kind)),
		)
		r.sendError(playerID, err)
		return
	}

	r.log.Debug("command accepted",
		zap.String("playerID", playerID),
		zap.String("command", cmd.Type),
	)
	if statusChanged {
		r.notifyStatusChange()
	}
}

// apply runs one command under the room lock. A panic out of the engine is
// converted into an error so the lock is released and the room stays
// usable; the offending command has already either fully applied or not
// mutated anything.
func (r *Room) apply(playerID string, cmd command) (statusChanged bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("panic while handling command",
				zap.String("command", cmd.Type),
				zap.Any("panic", rec),
			)
			statusChanged = false
			err = apperr.New(apperr.MalformedCommand, "internal error")
		}
	}()

	switch cmd.Type {
	case "join_lobby":
		return r.handleJoinLobbyLocked(playerID, cmd.PlayerName)
	case "leave_lobby":
		return r.handleLeaveLobbyLocked(playerID)
	case "start_game":
		return r.handleStartGameLocked(playerID)
	case "draw_card":
		return false, r.handleDrawLocked(playerID, cmd.Source)
	case "discard_card":
		return false, r.handleDiscardLocked(playerID, cmd.CardID)
	case "go_out":
		return false, r.handleGoOutLocked(playerID, cmd.CardID)
	case "next_round":
		return r.handleNextRoundLocked(playerID)
	case "end_game":
		return r.handleEndGameLocked()
	default:
		return false, apperr.ErrMalformedCommand
	}
}

func (r *Room) handleJoinLobbyLocked(playerID, rawName string) (bool, error) {
	if r.game != nil {
		return false, apperr.ErrWrongPhase
	}
	name := strings.TrimSpace(rawName)
	if name == "" || len(name) > maxNameLen {
		return false, apperr.New(apperr.MalformedCommand, "player_name must be 1-20 characters")
	}

	for i, p := range r.lobby {
		if p.ID == playerID {
			// Re-join from the same player id refreshes the display name.
			if strings.EqualFold(p.Name, name) || !r.nameTakenLocked(name, playerID) {
				r.lobby[i].Name = name
				r.broadcastLocked(r.lobbyUpdateLocked())
				return true, nil
			}
			return false, apperr.ErrDuplicateName
		}
	}

	if r.nameTakenLocked(name, playerID) {
		return false, apperr.ErrDuplicateName
	}
	if len(r.lobby) >= r.maxPlayers {
		return false, apperr.ErrRoomFull
	}

	r.lobby = append(r.lobby, lobbyPlayerInfo{ID: playerID, Name: name})
	r.broadcastLocked(r.lobbyUpdateLocked())
	return true, nil
}

func (r *Room) nameTakenLocked(name, exceptPlayerID string) bool {
	for _, p := range r.lobby {
		if p.ID != exceptPlayerID && strings.EqualFold(p.Name, name) {
			return true
		}
	}
	return false
}

func (r *Room) handleLeaveLobbyLocked(playerID string) (bool, error) {
	if r.game != nil {
		return false, apperr.ErrWrongPhase
	}
	if !r.removeFromLobbyLocked(playerID) {
		return false, apperr.ErrNotInLobby
	}
	r.broadcastLocked(r.lobbyUpdateLocked())
	return true, nil
}

func (r *Room) removeFromLobbyLocked(playerID string) bool {
	for i, p := range r.lobby {
		if p.ID == playerID {
			r.lobby = append(r.lobby[:i:i], r.lobby[i+1:]...)
			return true
		}
	}
	return false
}

func (r *Room) handleStartGameLocked(playerID string) (bool, error) {
	if r.game != nil {
		return false, apperr.ErrRoomBusy
	}
	inLobby := false
	for _, p := range r.lobby {
		if p.ID == playerID {
			inLobby = true
			break
		}
	}
	if !inLobby {
		return false, apperr.ErrNotInLobby
	}
	if len(r.lobby) < 2 {
		return false, apperr.New(apperr.WrongPhase, "need at least two players to start")
	}

	roster := make([]game.SeedPlayer, 0, len(r.lobby))
	for _, p := range r.lobby {
		roster = append(roster, game.SeedPlayer{ID: p.ID, Name: p.Name})
	}
	gs, err := game.NewGame(roster)
	if err != nil {
		return false, err
	}
	r.game = gs
	r.broadcastGameStateLocked()
	return true, nil
}

func (r *Room) handleDrawLocked(playerID, source string) error {
	if r.game == nil {
		return apperr.ErrWrongPhase
	}
	var src game.DrawSource
	switch source {
	case string(game.SourcePile):
		src = game.SourcePile
	case string(game.SourceDiscard):
		src = game.SourceDiscard
	default:
		return apperr.New(apperr.MalformedCommand, "source must be \"pile\" or \"discard\"")
	}
	if err := r.game.Draw(playerID, src); err != nil {
		return err
	}
	r.broadcastGameStateLocked()
	return nil
}

func (r *Room) handleDiscardLocked(playerID, cardID string) error {
	if r.game == nil {
		return apperr.ErrWrongPhase
	}
	prePhase := r.game.Phase
	if err := r.game.Discard(playerID, cardID); err != nil {
		return err
	}
	r.broadcastGameStateLocked()
	if r.game.Phase == game.PhaseRoundOver && prePhase != game.PhaseRoundOver {
		r.broadcastLocked(roundOverMessage(r.game))
	}
	return nil
}

func (r *Room) handleGoOutLocked(playerID, cardID string) error {
	if r.game == nil {
		return apperr.ErrWrongPhase
	}
	if err := r.game.GoOut(playerID, cardID); err != nil {
		return err
	}
	r.broadcastGameStateLocked()
	for _, p := range r.game.Players {
		if p.ID == playerID {
			r.broadcastLocked(playerWentOutMsg{Type: "player_went_out", PlayerName: p.Name})
			break
		}
	}
	return nil
}

func (r *Room) handleNextRoundLocked(playerID string) (bool, error) {
	if r.game == nil {
		return false, apperr.ErrWrongPhase
	}
	if err := r.game.ConfirmNextRound(playerID); err != nil {
		return false, err
	}

	if r.game.Phase == game.PhaseFinished {
		// The 11th round has been acknowledged by everyone: publish the
		// final standings and destroy the hand. The lobby roster is kept
		// so the same group can start a rematch without re-joining.
		finished := gameFinishedMessage(r.game)
		r.game = nil
		r.broadcastLocked(finished)
		r.broadcastLocked(r.lobbyUpdateLocked())
		return true, nil
	}

	r.broadcastGameStateLocked()
	return false, nil
}

func (r *Room) handleEndGameLocked() (bool, error) {
	if r.game == nil {
		return false, apperr.ErrWrongPhase
	}
	r.game = nil
	r.lobby = nil
	r.broadcastLocked(lobbyResetMsg{Type: "lobby_reset"})
	r.broadcastLocked(r.lobbyUpdateLocked())
	return true, nil
}

func (r *Room) lobbyUpdateLocked() lobbyUpdateMsg {
	players := make([]lobbyPlayerInfo, len(r.lobby))
	copy(players, r.lobby)
	return lobbyUpdateMsg{
		Type:    "lobby_update",
		Players: players,
		Status:  r.statusLocked(),
	}
}

// broadcastGameStateLocked fans a personalized snapshot out to every
// subscriber: each recipient sees their own hand and only counts for
// everyone else.
func (r *Room) broadcastGameStateLocked() {
	for pid := range r.subs {
		r.pushLocked(pid, gameStateFor(r.game, pid))
	}
}

func (r *Room) broadcastLocked(msg interface{}) {
	for pid := range r.subs {
		r.pushLocked(pid, msg)
	}
}

// pushLocked enqueues msg for one subscriber. A full queue means the
// client is not draining its socket; that single connection is closed and
// the rest of the room continues.
func (r *Room) pushLocked(playerID string, msg interface{}) {
	sub, ok := r.subs[playerID]
	if !ok {
		return
	}
	select {
	case sub.ch <- msg:
	default:
		r.log.Warn("subscriber queue full, disconnecting",
			zap.String("playerID", playerID),
		)
		delete(r.subs, playerID)
		close(sub.ch)
	}
}

// sendError reports err to playerID only. The frame's message is the
// error's taxonomy Kind (e.g. "RoomBusy"), so clients can branch on it.
func (r *Room) sendError(playerID string, err error) {
	msg := err.Error()
	if kind, ok := apperr.KindOf(err); ok {
		msg = string(kind)
	}
	r.mu.Lock()
	r.pushLocked(playerID, errorMsg{Type: "error", Message: msg})
	r.mu.Unlock()
}
