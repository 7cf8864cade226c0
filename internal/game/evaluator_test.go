package game

import "testing"

func cardsFromCodes(t *testing.T, codes ...string) []Card {
	t.Helper()
	out := make([]Card, 0, len(codes))
	for i, code := range codes {
		out = append(out, parseTestCard(i, code))
	}
	return out
}

// parseTestCard decodes fixtures like "3S" (three of spades) or "QC" (queen
// of clubs) into a Card with a unique synthetic id.
func parseTestCard(i int, code string) Card {
	suitCh := code[len(code)-1]
	rankStr := code[:len(code)-1]
	var suit Suit
	switch suitCh {
	case 'H':
		suit = Hearts
	case 'D':
		suit = Diamonds
	case 'C':
		suit = Clubs
	case 'S':
		suit = Spades
	}
	var rank Rank
	switch rankStr {
	case "A":
		rank = Ace
	case "J":
		rank = Jack
	case "Q":
		rank = Queen
	case "K":
		rank = King
	default:
		n := 0
		for _, ch := range rankStr {
			n = n*10 + int(ch-'0')
		}
		rank = Rank(n)
	}
	return newCard(i, suit, rank)
}

func TestCanGoOut_InvalidPartitionLeavesLoneCard(t *testing.T) {
	// Boundary scenario 2: [3S,3H,3D,7C] after removing the nominated 9C.
	hand := cardsFromCodes(t, "3S", "3H", "3D", "7C")
	if CanGoOut(hand, 5) {
		t.Fatalf("expected hand to not go out: one set of three plus a lone 7C")
	}
}

func TestCanGoOut_AllWildSet(t *testing.T) {
	// Boundary scenario 3: four 5s (wild) form a set of four.
	hand := cardsFromCodes(t, "5S", "5H", "5D", "5C")
	if !CanGoOut(hand, 5) {
		t.Fatalf("expected four wilds to form a valid set")
	}
}

func TestCanGoOut_AceLowNoWrap(t *testing.T) {
	// Boundary scenario 4: A-2-3 is a valid run, but Q-K-A never is, and
	// no choice of discard here completes a second group.
	hand := cardsFromCodes(t, "AH", "2H", "3H", "QC", "KC")
	wild := Rank(4)
	for i := range hand {
		remaining := make([]Card, 0, len(hand)-1)
		for j, c := range hand {
			if j != i {
				remaining = append(remaining, c)
			}
		}
		if CanGoOut(remaining, wild) {
			t.Fatalf("expected no discard choice to let the hand go out, but removing %v did", hand[i])
		}
	}
}

func TestCanGoOut_RunOfThreeWithTwoWilds(t *testing.T) {
	hand := cardsFromCodes(t, "7S", "5S", "5H") // one natural 7S + two 5s wild
	if !CanGoOut(hand, 5) {
		t.Fatalf("expected one natural plus two wilds to complete a run of three")
	}
}

func TestCanGoOut_SetWithAllWilds(t *testing.T) {
	hand := cardsFromCodes(t, "5S", "5H", "5D")
	if !CanGoOut(hand, 5) {
		t.Fatalf("expected three wilds to form a valid set")
	}
}

func TestCanGoOut_RunRejectsQueenKingAce(t *testing.T) {
	hand := cardsFromCodes(t, "QC", "KC", "AC")
	if CanGoOut(hand, 9) {
		t.Fatalf("Q-K-A must never be accepted as a run")
	}
}

func TestMinPenalty_UnmatchedCardsCostFaceValue(t *testing.T) {
	hand := cardsFromCodes(t, "3S", "3H", "3D", "7C", "9C")
	result := MinPenalty(hand, 5)
	// one set of three 3s (0 points) + two leftovers: 7 and 9
	if result.Points != 7+9 {
		t.Fatalf("expected penalty 16, got %d (cards=%v)", result.Points, result.PenaltyCards)
	}
	if len(result.PenaltyCards) != 2 {
		t.Fatalf("expected 2 penalty cards, got %d", len(result.PenaltyCards))
	}
}

func TestMinPenalty_FullyCoveredHandScoresZero(t *testing.T) {
	hand := cardsFromCodes(t, "4S", "4H", "4D")
	result := MinPenalty(hand, 9)
	if result.Points != 0 {
		t.Fatalf("expected 0 penalty for a clean set, got %d", result.Points)
	}
}

func TestMinPenalty_UnmatchedWildCostsFaceValue(t *testing.T) {
	hand := cardsFromCodes(t, "6S", "8H", "9D")
	result := MinPenalty(hand, 6) // the 6S is wild but alone, nothing to pair with
	if result.Points != 6+8+9 {
		t.Fatalf("expected 23, got %d", result.Points)
	}
}

func TestMinPenalty_PrefersLargerCoverageOverLeftovers(t *testing.T) {
	hand := cardsFromCodes(t, "5S", "6S", "7S", "8S", "2H")
	result := MinPenalty(hand, 9)
	// 5-6-7-8 of spades is a run of four; 2H is the only leftover.
	if result.Points != 2 {
		t.Fatalf("expected only the 2H to be a leftover (2 points), got %d (%v)", result.Points, result.PenaltyCards)
	}
}
