package game

import (
	"fmt"
	"sort"
	"strings"
)

// key identifies a natural-card pool by suit and rank; wild cards for the
// round are tracked separately as a bare count, since a wild substitutes
// for any rank in any suit.
type key struct {
	Suit Suit
	Rank Rank
}

// minGroupSize is the minimum size of a valid set or run.
const minGroupSize = 3

// splitWild partitions hand into a natural-card pool keyed by (suit, rank)
// and a bare wild count.
func splitWild(hand []Card, wild Rank) (map[key]int, int) {
	counts := make(map[key]int)
	wildCount := 0
	for _, c := range hand {
		if c.IsWild(wild) {
			wildCount++
			continue
		}
		counts[key{c.Suit, c.Rank}]++
	}
	return counts, wildCount
}

func rankTotal(counts map[key]int, rank Rank) int {
	total := 0
	for k, n := range counts {
		if k.Rank == rank {
			total += n
		}
	}
	return total
}

func cloneCounts(counts map[key]int) map[key]int {
	out := make(map[key]int, len(counts))
	for k, v := range counts {
		if v > 0 {
			out[k] = v
		}
	}
	return out
}

// smallestKey returns the lexicographically-smallest key with a positive
// count, for deterministic branch ordering. ok is false if counts is empty.
func smallestKey(counts map[key]int) (key, bool) {
	found := false
	var best key
	for k, n := range counts {
		if n <= 0 {
			continue
		}
		if !found || k.Suit < best.Suit || (k.Suit == best.Suit && k.Rank < best.Rank) {
			best = k
			found = true
		}
	}
	return best, found
}

func countsKey(counts map[key]int, wilds int) string {
	keys := make([]key, 0, len(counts))
	for k, n := range counts {
		if n > 0 {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Suit != keys[j].Suit {
			return keys[i].Suit < keys[j].Suit
		}
		return keys[i].Rank < keys[j].Rank
	})
	var b strings.Builder
	fmt.Fprintf(&b, "w%d", wilds)
	for _, k := range keys {
		fmt.Fprintf(&b, "|%d.%d=%d", k.Suit, k.Rank, counts[k])
	}
	return b.String()
}

// runWindows enumerates every ace-low run window [start,start+length) that
// contains rank, for length from minGroupSize up to the full 13-rank span.
func runWindows(rank Rank, emit func(start Rank, length int)) {
	for length := minGroupSize; length <= 13; length++ {
		lo := int(rank) - length + 1
		if lo < 1 {
			lo = 1
		}
		hi := int(rank)
		if hi > 13-length+1 {
			hi = 13 - length + 1
		}
		for start := lo; start <= hi; start++ {
			if int(rank) >= start && int(rank) <= start+length-1 {
				emit(Rank(start), length)
			}
		}
	}
}

// CanGoOut reports whether cards (a multiset of exactly the group cards to
// lay down — callers pass the hand with the nominated discard already
// removed) partitions entirely into valid sets/runs with no leftover,
// using wild as the round's wild rank.
func CanGoOut(cards []Card, wild Rank) bool {
	counts, wilds := splitWild(cards, wild)
	memo := make(map[string]bool)
	return canPartitionExactly(counts, wilds, memo)
}

func canPartitionExactly(counts map[key]int, wilds int, memo map[string]bool) bool {
	k, ok := smallestKey(counts)
	if !ok {
		// No natural cards left: any remaining wilds must themselves form
		// one more all-wild group, or there must be none left.
		return wilds == 0 || wilds >= minGroupSize
	}

	cacheKey := countsKey(counts, wilds)
	if v, ok := memo[cacheKey]; ok {
		return v
	}

	result := false

	// Try k as part of a set (any suits of k.Rank, padded with wilds).
	total := rankTotal(counts, k.Rank)
	for size := minGroupSize; size <= total+wilds && !result; size++ {
		natUsed := size
		wildUsed := 0
		if natUsed > total {
			wildUsed = natUsed - total
			natUsed = total
		}
		if wildUsed > wilds {
			continue
		}
		next := cloneCounts(counts)
		if !consumeRank(next, k.Rank, natUsed) {
			continue
		}
		if canPartitionExactly(next, wilds-wildUsed, memo) {
			result = true
		}
	}

	// Try k as part of a run in k.Suit.
	if !result {
		runWindows(k.Rank, func(start Rank, length int) {
			if result {
				return
			}
			next := cloneCounts(counts)
			wildNeed := 0
			for r := int(start); r < int(start)+length; r++ {
				wk := key{k.Suit, Rank(r)}
				if next[wk] > 0 {
					next[wk]--
				} else {
					wildNeed++
				}
			}
			if wildNeed > wilds {
				return
			}
			if canPartitionExactly(next, wilds-wildNeed, memo) {
				result = true
			}
		})
	}

	memo[cacheKey] = result
	return result
}

// consumeRank removes n natural cards of rank from counts. Which suits
// they come from doesn't matter since sets ignore suit. Returns false if
// fewer than n are available.
func consumeRank(counts map[key]int, rank Rank, n int) bool {
	remaining := n
	for k, c := range counts {
		if k.Rank != rank || remaining == 0 {
			continue
		}
		take := c
		if take > remaining {
			take = remaining
		}
		counts[k] -= take
		remaining -= take
	}
	return remaining == 0
}

// PenaltyResult is the outcome of the minimum-penalty search over a full
// hand: the cards left over (not part of any valid group) and their total
// point value.
type PenaltyResult struct {
	PenaltyCards []Card
	Points       int
}

// MinPenalty computes the partition of hand that minimizes total leftover
// points. wild is the round's wild rank.
func MinPenalty(hand []Card, wild Rank) PenaltyResult {
	counts, wilds := splitWild(hand, wild)
	memo := make(map[string]penaltyMemo)
	points, leftoverNatural, leftoverWild := minPenaltySearch(counts, wilds, wild, memo)

	cards := pickLeftoverCards(hand, wild, leftoverNatural, leftoverWild)
	return PenaltyResult{PenaltyCards: cards, Points: points}
}

type penaltyMemo struct {
	points          int
	leftoverNatural map[key]int
	leftoverWild    int
}

func minPenaltySearch(counts map[key]int, wilds int, wild Rank, memo map[string]penaltyMemo) (int, map[key]int, int) {
	k, ok := smallestKey(counts)
	if !ok {
		if wilds >= minGroupSize {
			return 0, map[key]int{}, 0
		}
		return wilds * wild.PenaltyValue(), map[key]int{}, wilds
	}

	cacheKey := countsKey(counts, wilds)
	if v, ok := memo[cacheKey]; ok {
		return v.points, cloneLeftover(v.leftoverNatural), v.leftoverWild
	}

	bestPoints := -1
	var bestLeftover map[key]int
	bestWild := 0

	consider := func(points int, leftover map[key]int, leftoverWild int) {
		if bestPoints == -1 || points < bestPoints {
			bestPoints = points
			bestLeftover = leftover
			bestWild = leftoverWild
		}
	}

	// Option: leave one instance of k unassigned.
	{
		next := cloneCounts(counts)
		next[k]--
		p, lo, lw := minPenaltySearch(next, wilds, wild, memo)
		lo = addLeftover(lo, k, 1)
		consider(p+k.Rank.PenaltyValue(), lo, lw)
	}

	// Option: k as part of a set.
	total := rankTotal(counts, k.Rank)
	for size := minGroupSize; size <= total+wilds; size++ {
		natUsed := size
		wildUsed := 0
		if natUsed > total {
			wildUsed = natUsed - total
			natUsed = total
		}
		if wildUsed > wilds {
			continue
		}
		next := cloneCounts(counts)
		if !consumeRank(next, k.Rank, natUsed) {
			continue
		}
		p, lo, lw := minPenaltySearch(next, wilds-wildUsed, wild, memo)
		consider(p, lo, lw)
	}

	// Option: k as part of a run in k.Suit.
	runWindows(k.Rank, func(start Rank, length int) {
		next := cloneCounts(counts)
		wildNeed := 0
		for r := int(start); r < int(start)+length; r++ {
			wk := key{k.Suit, Rank(r)}
			if next[wk] > 0 {
				next[wk]--
			} else {
				wildNeed++
			}
		}
		if wildNeed > wilds {
			return
		}
		p, lo, lw := minPenaltySearch(next, wilds-wildNeed, wild, memo)
		consider(p, lo, lw)
	})

	memo[cacheKey] = penaltyMemo{points: bestPoints, leftoverNatural: cloneLeftover(bestLeftover), leftoverWild: bestWild}
	return bestPoints, bestLeftover, bestWild
}

func addLeftover(m map[key]int, k key, n int) map[key]int {
	out := cloneLeftover(m)
	out[k] += n
	return out
}

func cloneLeftover(m map[key]int) map[key]int {
	out := make(map[key]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// pickLeftoverCards maps the abstract (suit,rank) and wild leftover counts
// back to concrete Card values drawn from hand, so callers can report
// actual card ids.
func pickLeftoverCards(hand []Card, wild Rank, leftoverNatural map[key]int, leftoverWild int) []Card {
	need := cloneLeftover(leftoverNatural)
	out := make([]Card, 0, leftoverWild+len(need))
	wildNeed := leftoverWild
	for _, c := range hand {
		if c.IsWild(wild) {
			if wildNeed > 0 {
				out = append(out, c)
				wildNeed--
			}
			continue
		}
		k := key{c.Suit, c.Rank}
		if need[k] > 0 {
			out = append(out, c)
			need[k]--
		}
	}
	return out
}
