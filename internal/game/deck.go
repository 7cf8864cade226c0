package game

import "thirteen-rooms/pkg/randutil"

// BuildComposite assembles decksFor(nPlayers) standard decks into one
// opaque ordered sequence of cards, each carrying a deck-scoped id so
// duplicates across decks stay distinguishable, then shuffles it.
func BuildComposite(nPlayers int) []Card {
	decks := DecksFor(nPlayers)
	cards := make([]Card, 0, decks*52)
	for d := 0; d < decks; d++ {
		for _, suit := range allSuits {
			for _, rank := range allRanks {
				cards = append(cards, newCard(d, suit, rank))
			}
		}
	}
	Shuffle(cards)
	return cards
}

// Shuffle performs an in-place Fisher-Yates permutation using the
// crypto/rand-backed source — no seed is ever exposed.
func Shuffle(cards []Card) {
	randutil.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}

// pop removes and returns the last card of the pile, mutating the caller's
// slice header through the pointer. The engine always deals/draws from the
// end of a pile.
func pop(pile *[]Card) Card {
	n := len(*pile)
	c := (*pile)[n-1]
	*pile = (*pile)[:n-1]
	return c
}

// popN removes and returns the last n cards, preserving their original
// relative order.
func popN(pile *[]Card, n int) []Card {
	l := len(*pile)
	out := append([]Card(nil), (*pile)[l-n:]...)
	*pile = (*pile)[:l-n]
	return out
}
