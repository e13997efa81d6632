// Package dehla implements the rules of the trick-taking game: deck
// construction, rank order, follow-suit legality, trick resolution and
// the transitions of the room state machine.
package dehla

import (
	"math/rand/v2"
	"sort"

	"github.com/playdehla/dehla-backend/internal/entity"
)

// rankOrder is the single source of truth for card strength, Ace high.
// Sorting, legality and trick resolution all read this table.
var rankOrder = func() map[entity.Rank]int {
	order := make(map[entity.Rank]int, len(entity.Ranks))
	for i, rank := range entity.Ranks {
		order[rank] = i
	}
	return order
}()

// suitOrder fixes the display precedence used by SortHand.
var suitOrder = map[entity.Suit]int{
	entity.SuitSpades:   3,
	entity.SuitHearts:   2,
	entity.SuitDiamonds: 1,
	entity.SuitClubs:    0,
}

// RankIndex maps a card to its strength within its suit.
func RankIndex(card entity.Card) int {
	return rankOrder[card.Rank]
}

// NewShuffledDeck builds the full suit×rank deck and applies a uniform
// Fisher-Yates permutation. For 6 and 8 seats the "2" rank is excluded
// from every suit so the 48 remaining cards divide evenly.
func NewShuffledDeck(numPlayers int) []entity.Card {
	deck := make([]entity.Card, 0, 52)
	for _, suit := range entity.Suits {
		for _, rank := range entity.Ranks {
			if (numPlayers == 6 || numPlayers == 8) && rank == entity.RankTwo {
				continue
			}
			deck = append(deck, entity.Card{Suit: suit, Rank: rank})
		}
	}

	for i := len(deck) - 1; i > 0; i-- {
		j := rand.IntN(i + 1)
		deck[i], deck[j] = deck[j], deck[i]
	}

	return deck
}

// SortHand returns a new slice ordered by suit precedence then rank,
// high cards first. Display-only, but deterministic so re-renders don't
// reorder cards.
func SortHand(hand []entity.Card) []entity.Card {
	sorted := make([]entity.Card, len(hand))
	copy(sorted, hand)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Suit != sorted[j].Suit {
			return suitOrder[sorted[i].Suit] > suitOrder[sorted[j].Suit]
		}
		return RankIndex(sorted[i]) > RankIndex(sorted[j])
	})

	return sorted
}

// IsLegalPlay enforces follow-suit: the first card of a trick is always
// legal; afterwards a card is legal iff it matches the lead suit or the
// hand holds no card of that suit.
func IsLegalPlay(card entity.Card, hand []entity.Card, leadSuit entity.Suit) bool {
	if leadSuit == "" {
		return true
	}

	if card.Suit == leadSuit {
		return true
	}

	for _, c := range hand {
		if c.Suit == leadSuit {
			return false
		}
	}

	return true
}

// TrickWinner resolves a completed trick: the highest trump wins if any
// trump was played, otherwise the highest card of the lead suit. Ties
// are impossible because no two cards share (suit, rank).
func TrickWinner(played []entity.PlayedCard, leadSuit, trump entity.Suit) *entity.Player {
	target := leadSuit
	for _, pc := range played {
		if trump != "" && pc.Card.Suit == trump {
			target = trump
			break
		}
	}

	best := -1
	var winner *entity.Player
	for _, pc := range played {
		if pc.Card.Suit != target {
			continue
		}
		if v := RankIndex(pc.Card); v > best {
			best = v
			winner = pc.Player
		}
	}

	return winner
}

// TensIn counts the rank-10 cards in a trick. They are credited entirely
// to the winning team regardless of who played them.
func TensIn(played []entity.PlayedCard) int {
	count := 0
	for _, pc := range played {
		if pc.Card.Rank == entity.RankTen {
			count++
		}
	}
	return count
}

// PreviewSize is the number of cards the trump chooser sees before
// committing to a suit.
func PreviewSize(numPlayers int) int {
	switch numPlayers {
	case 2:
		return 8
	case 4:
		return 5
	case 6, 8:
		return 4
	default:
		return 8
	}
}
