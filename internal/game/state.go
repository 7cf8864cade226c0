package game

import (
	"sort"

	apperr "thirteen-rooms/pkg/errors"
	"thirteen-rooms/pkg/randutil"
)

type TurnPhase string

const (
	TurnDraw    TurnPhase = "draw"
	TurnDiscard TurnPhase = "discard"
)

type Phase string

const (
	PhasePlaying    Phase = "playing"
	PhaseFinalTurns Phase = "final_turns"
	PhaseRoundOver  Phase = "round_over"
	PhaseFinished   Phase = "finished"
)

type DrawSource string

const (
	SourcePile    DrawSource = "pile"
	SourceDiscard DrawSource = "discard"
)

// SeedPlayer is the minimal identity the room hands to NewGame when
// starting a hand — it carries no room/connection state so this package
// stays free of any dependency on the room package.
type SeedPlayer struct {
	ID   string
	Name string
}

// Player is one seated participant for the lifetime of a single game.
type Player struct {
	ID                  string
	Name                string
	Hand                []Card
	CumulativeScore     int
	HasGoneOutThisRound bool
	NextRoundConfirmed  bool
}

// RoundResult is one player's outcome at round_over.
type RoundResult struct {
	PlayerID        string
	PlayerName      string
	RoundPoints     int
	CumulativeScore int
	PenaltyCards    []Card
}

// LeaderboardEntry is one player's final standing at phase=finished.
type LeaderboardEntry struct {
	ID    string
	Name  string
	Score int
}

// State is the full per-hand state machine. All mutation happens through
// its methods, which the room calls while holding the room lock.
type State struct {
	RoundNumber         int
	WildRank            Rank
	Players             []*Player
	DealerIndex         int
	CurrentPlayerIndex  int
	TurnPhase           TurnPhase
	DrawPile            []Card
	DiscardPile         []Card
	Phase               Phase
	WentOutPlayerID     string
	FinalTurnsRemaining int
	RoundResults        []RoundResult
	Leaderboard         []LeaderboardEntry
}

// NewGame seats roster in randomized order, picks a random dealer, and
// deals round 1.
func NewGame(roster []SeedPlayer) (*State, error) {
	n := len(roster)
	if n < 2 || n > 8 {
		return nil, apperr.ErrWrongPhase
	}

	order := append([]SeedPlayer(nil), roster...)
	randutil.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	players := make([]*Player, n)
	for i, p := range order {
		players[i] = &Player{ID: p.ID, Name: p.Name}
	}

	gs := &State{
		RoundNumber: 1,
		Players:     players,
		DealerIndex: randutil.Intn(n),
	}
	gs.dealRound()
	return gs, nil
}

func (gs *State) seatCount() int { return len(gs.Players) }

func (gs *State) currentPlayer() *Player {
	return gs.Players[gs.CurrentPlayerIndex]
}

func (gs *State) findPlayer(playerID string) (*Player, bool) {
	for _, p := range gs.Players {
		if p.ID == playerID {
			return p, true
		}
	}
	return nil, false
}

// dealRound builds a fresh composite deck for the current RoundNumber and
// deals it out clockwise starting from the seat after the dealer.
func (gs *State) dealRound() {
	n := gs.seatCount()
	gs.WildRank = WildRankFor(gs.RoundNumber)
	dealSize := DealSize(gs.RoundNumber)

	deck := BuildComposite(n)
	for i := 0; i < n; i++ {
		seat := (gs.DealerIndex + 1 + i) % n
		p := gs.Players[seat]
		p.Hand = popN(&deck, dealSize)
		p.HasGoneOutThisRound = false
		p.NextRoundConfirmed = false
	}

	gs.DrawPile = deck
	gs.DiscardPile = []Card{pop(&gs.DrawPile)}
	gs.CurrentPlayerIndex = (gs.DealerIndex + 1) % n
	gs.TurnPhase = TurnDraw
	gs.Phase = PhasePlaying
	gs.WentOutPlayerID = ""
	gs.FinalTurnsRemaining = 0
	gs.RoundResults = nil
}

func (gs *State) advanceCursor() {
	gs.CurrentPlayerIndex = (gs.CurrentPlayerIndex + 1) % gs.seatCount()
	gs.TurnPhase = TurnDraw
}

// reshuffleDrawPile rebuilds DrawPile from everything in DiscardPile
// except its top card, which stays in place as the discard.
func (gs *State) reshuffleDrawPile() {
	top := gs.DiscardPile[len(gs.DiscardPile)-1]
	rest := append([]Card(nil), gs.DiscardPile[:len(gs.DiscardPile)-1]...)
	Shuffle(rest)
	gs.DrawPile = rest
	gs.DiscardPile = []Card{top}
}

// Draw executes draw_card for playerID from source.
func (gs *State) Draw(playerID string, source DrawSource) error {
	if gs.Phase != PhasePlaying && gs.Phase != PhaseFinalTurns {
		return apperr.ErrWrongPhase
	}
	p := gs.currentPlayer()
	if p.ID != playerID {
		return apperr.ErrNotYourTurn
	}
	if gs.TurnPhase != TurnDraw {
		return apperr.ErrWrongPhase
	}

	var drawn Card
	switch source {
	case SourceDiscard:
		if len(gs.DiscardPile) == 0 {
			return apperr.ErrEmptyDiscard
		}
		drawn = pop(&gs.DiscardPile)
	case SourcePile:
		if len(gs.DrawPile) == 0 {
			gs.reshuffleDrawPile()
		}
		drawn = pop(&gs.DrawPile)
	default:
		return apperr.ErrMalformedCommand
	}

	p.Hand = append(p.Hand, drawn)
	gs.TurnPhase = TurnDiscard
	return nil
}

func findCardIndex(hand []Card, cardID string) int {
	for i, c := range hand {
		if c.ID == cardID {
			return i
		}
	}
	return -1
}

func removeCardAt(hand []Card, idx int) ([]Card, Card) {
	c := hand[idx]
	out := append(hand[:idx:idx], hand[idx+1:]...)
	return out, c
}

// Discard executes discard_card for playerID.
func (gs *State) Discard(playerID, cardID string) error {
	if gs.Phase != PhasePlaying && gs.Phase != PhaseFinalTurns {
		return apperr.ErrWrongPhase
	}
	p := gs.currentPlayer()
	if p.ID != playerID {
		return apperr.ErrNotYourTurn
	}
	if gs.TurnPhase != TurnDiscard {
		return apperr.ErrWrongPhase
	}
	idx := findCardIndex(p.Hand, cardID)
	if idx < 0 {
		return apperr.ErrUnknownCard
	}

	var discarded Card
	p.Hand, discarded = removeCardAt(p.Hand, idx)
	gs.DiscardPile = append(gs.DiscardPile, discarded)

	switch gs.Phase {
	case PhasePlaying:
		gs.advanceCursor()
	case PhaseFinalTurns:
		// A later player whose final turn happens to complete a going-out
		// hand scores zero without becoming went_out_player_id.
		if CanGoOut(p.Hand, gs.WildRank) {
			p.HasGoneOutThisRound = true
		}
		gs.FinalTurnsRemaining--
		if gs.FinalTurnsRemaining == 0 {
			gs.computeRoundResults()
			gs.Phase = PhaseRoundOver
		} else {
			gs.advanceCursor()
		}
	}
	return nil
}

// GoOut executes go_out for playerID nominating cardID as the discard.
// On failure it returns InvalidGoOut and leaves all state untouched.
func (gs *State) GoOut(playerID, cardID string) error {
	p := gs.currentPlayer()
	if p.ID != playerID {
		return apperr.ErrNotYourTurn
	}
	if gs.TurnPhase != TurnDiscard || gs.Phase != PhasePlaying {
		return apperr.ErrWrongPhase
	}
	idx := findCardIndex(p.Hand, cardID)
	if idx < 0 {
		return apperr.ErrUnknownCard
	}

	remaining, nominated := removeCardAt(append([]Card(nil), p.Hand...), idx)
	if !CanGoOut(remaining, gs.WildRank) {
		return apperr.ErrInvalidGoOut
	}

	p.Hand = remaining
	gs.DiscardPile = append(gs.DiscardPile, nominated)
	gs.WentOutPlayerID = playerID
	p.HasGoneOutThisRound = true
	gs.FinalTurnsRemaining = gs.seatCount() - 1
	gs.Phase = PhaseFinalTurns
	gs.advanceCursor()
	return nil
}

// computeRoundResults scores every player for the round that just ended.
// Anyone who went out scores zero; everyone else pays the minimum penalty
// their hand allows.
func (gs *State) computeRoundResults() {
	results := make([]RoundResult, 0, gs.seatCount())
	for _, p := range gs.Players {
		var points int
		var penaltyCards []Card
		if p.HasGoneOutThisRound {
			points = 0
		} else {
			pr := MinPenalty(p.Hand, gs.WildRank)
			points = pr.Points
			penaltyCards = pr.PenaltyCards
		}
		p.CumulativeScore += points
		results = append(results, RoundResult{
			PlayerID:        p.ID,
			PlayerName:      p.Name,
			RoundPoints:     points,
			CumulativeScore: p.CumulativeScore,
			PenaltyCards:    penaltyCards,
		})
	}
	gs.RoundResults = results
}

// ConfirmNextRound records playerID's next_round confirmation. Once every
// seated player has confirmed, the game either advances to the next round
// or, after the last round, moves to finished with the leaderboard built.
func (gs *State) ConfirmNextRound(playerID string) error {
	if gs.Phase != PhaseRoundOver {
		return apperr.ErrWrongPhase
	}
	p, ok := gs.findPlayer(playerID)
	if !ok {
		return apperr.ErrNotInLobby
	}
	p.NextRoundConfirmed = true

	for _, other := range gs.Players {
		if !other.NextRoundConfirmed {
			return nil
		}
	}

	if gs.RoundNumber == MaxRound {
		gs.Phase = PhaseFinished
		gs.Leaderboard = gs.buildLeaderboard()
		return nil
	}

	gs.RoundNumber++
	gs.DealerIndex = (gs.DealerIndex + 1) % gs.seatCount()
	gs.dealRound()
	return nil
}

// buildLeaderboard sorts players by ascending cumulative score, using a
// stable sort so ties preserve seating order.
func (gs *State) buildLeaderboard() []LeaderboardEntry {
	type ranked struct {
		player *Player
		seat   int
	}
	entries := make([]ranked, len(gs.Players))
	for i, p := range gs.Players {
		entries[i] = ranked{player: p, seat: i}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].player.CumulativeScore < entries[j].player.CumulativeScore
	})

	out := make([]LeaderboardEntry, len(entries))
	for i, e := range entries {
		out[i] = LeaderboardEntry{ID: e.player.ID, Name: e.player.Name, Score: e.player.CumulativeScore}
	}
	return out
}
