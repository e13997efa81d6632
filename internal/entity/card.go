package entity

// Suit is a card suit, carried on the wire as its glyph so clients can
// render it directly.
type Suit string

const (
	SuitSpades   Suit = "♠"
	SuitHearts   Suit = "♥"
	SuitDiamonds Suit = "♦"
	SuitClubs    Suit = "♣"
)

// Suits lists the four suits in fixed display order.
var Suits = []Suit{SuitSpades, SuitHearts, SuitDiamonds, SuitClubs}

// Rank is a card rank symbol, "2" through "A".
type Rank string

const (
	RankTwo Rank = "2"
	RankTen Rank = "10"
	RankAce Rank = "A"
)

// Ranks lists all rank symbols in ascending strength order, Ace high.
var Ranks = []Rank{"2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "A"}

type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"value"`
}

// ValidSuit reports whether s is one of the four suits.
func ValidSuit(s Suit) bool {
	for _, suit := range Suits {
		if s == suit {
			return true
		}
	}
	return false
}
