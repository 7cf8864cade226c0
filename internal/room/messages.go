package room

import "thirteen-rooms/internal/game"

// Inbound command envelope. Every client frame is a flat JSON object with a
// type discriminator; fields not relevant to the type are simply absent.
type command struct {
	Type       string `json:"type"`
	RoomID     string `json:"room_id"`
	PlayerName string `json:"player_name"`
	Source     string `json:"source"`
	CardID     string `json:"card_id"`
}

type wireCard struct {
	ID   string `json:"id"`
	Suit string `json:"suit"`
	Rank string `json:"rank"`
}

func toWireCard(c game.Card) wireCard {
	return wireCard{ID: c.ID, Suit: c.Suit.Name(), Rank: c.Rank.Name()}
}

// toWireCards always returns a non-nil slice so the wire form is a JSON
// array, never null.
func toWireCards(cards []game.Card) []wireCard {
	out := make([]wireCard, 0, len(cards))
	for _, c := range cards {
		out = append(out, toWireCard(c))
	}
	return out
}

// RoomSummary is one row of the lobby's rooms_update listing.
type RoomSummary struct {
	RoomID      string `json:"room_id"`
	RoomName    string `json:"room_name"`
	Status      string `json:"status"`
	PlayerCount int    `json:"player_count"`
	MaxPlayers  int    `json:"max_players"`
}

type roomsUpdateMsg struct {
	Type  string        `json:"type"`
	Rooms []RoomSummary `json:"rooms"`
}

type lobbyPlayerInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type lobbyUpdateMsg struct {
	Type    string            `json:"type"`
	Players []lobbyPlayerInfo `json:"players"`
	Status  string            `json:"status"`
}

type statePlayer struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	CumulativeScore int        `json:"cumulative_score"`
	HasGoneOut      bool       `json:"has_gone_out"`
	HandCount       int        `json:"hand_count"`
	Hand            []wireCard `json:"hand,omitempty"`
}

type gameStateMsg struct {
	Type                string        `json:"type"`
	RoundNumber         int           `json:"round_number"`
	WildRank            string        `json:"wild_rank"`
	Phase               string        `json:"phase"`
	TurnPhase           string        `json:"turn_phase"`
	CurrentPlayerIndex  int           `json:"current_player_index"`
	DealerIndex         int           `json:"dealer_index"`
	DrawPileCount       int           `json:"draw_pile_count"`
	DiscardPile         []wireCard    `json:"discard_pile"`
	FinalTurnsRemaining int           `json:"final_turns_remaining"`
	Players             []statePlayer `json:"players"`
}

type playerWentOutMsg struct {
	Type       string `json:"type"`
	PlayerName string `json:"player_name"`
}

type roundResultInfo struct {
	PlayerID        string     `json:"player_id"`
	PlayerName      string     `json:"player_name"`
	RoundPoints     int        `json:"round_points"`
	CumulativeScore int        `json:"cumulative_score"`
	PenaltyCards    []wireCard `json:"penalty_cards"`
}

type roundOverMsg struct {
	Type        string            `json:"type"`
	RoundNumber int               `json:"round_number"`
	Results     []roundResultInfo `json:"results"`
}

type leaderboardEntryInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type gameFinishedMsg struct {
	Type        string                 `json:"type"`
	Leaderboard []leaderboardEntryInfo `json:"leaderboard"`
}

type lobbyResetMsg struct {
	Type string `json:"type"`
}

type errorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// gameStateFor snapshots the authoritative state as seen by viewerID: the
// viewer's own hand in full, every other hand reduced to a count. The
// discard pile is reported as its top card only. All slices are fresh
// copies so the enqueued message never aliases engine state.
func gameStateFor(gs *game.State, viewerID string) gameStateMsg {
	players := make([]statePlayer, 0, len(gs.Players))
	for _, p := range gs.Players {
		sp := statePlayer{
			ID:              p.ID,
			Name:            p.Name,
			CumulativeScore: p.CumulativeScore,
			HasGoneOut:      p.HasGoneOutThisRound,
			HandCount:       len(p.Hand),
		}
		if p.ID == viewerID {
			sp.Hand = toWireCards(p.Hand)
		}
		players = append(players, sp)
	}

	discardTop := make([]wireCard, 0, 1)
	if n := len(gs.DiscardPile); n > 0 {
		discardTop = append(discardTop, toWireCard(gs.DiscardPile[n-1]))
	}

	return gameStateMsg{
		Type:                "game_state",
		RoundNumber:         gs.RoundNumber,
		WildRank:            gs.WildRank.Name(),
		Phase:               string(gs.Phase),
		TurnPhase:           string(gs.TurnPhase),
		CurrentPlayerIndex:  gs.CurrentPlayerIndex,
		DealerIndex:         gs.DealerIndex,
		DrawPileCount:       len(gs.DrawPile),
		DiscardPile:         discardTop,
		FinalTurnsRemaining: gs.FinalTurnsRemaining,
		Players:             players,
	}
}

func roundOverMessage(gs *game.State) roundOverMsg {
	results := make([]roundResultInfo, 0, len(gs.RoundResults))
	for _, r := range gs.RoundResults {
		results = append(results, roundResultInfo{
			PlayerID:        r.PlayerID,
			PlayerName:      r.PlayerName,
			RoundPoints:     r.RoundPoints,
			CumulativeScore: r.CumulativeScore,
			PenaltyCards:    toWireCards(r.PenaltyCards),
		})
	}
	return roundOverMsg{Type: "round_over", RoundNumber: gs.RoundNumber, Results: results}
}

func gameFinishedMessage(gs *game.State) gameFinishedMsg {
	entries := make([]leaderboardEntryInfo, 0, len(gs.Leaderboard))
	for _, e := range gs.Leaderboard {
		entries = append(entries, leaderboardEntryInfo{ID: e.ID, Name: e.Name, Score: e.Score})
	}
	return gameFinishedMsg{Type: "game_finished", Leaderboard: entries}
}
