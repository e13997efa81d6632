package entity

// PlayedCard is one card laid into the current trick, in play order.
type PlayedCard struct {
	Player *Player `json:"player"`
	Card   Card    `json:"card"`
}

// Trick is the hand of play in progress: each seated player lays exactly
// one card into it before it is resolved to a single winner.
type Trick struct {
	LeadSuit    Suit         `json:"lead_suit,omitempty"`
	Played      []PlayedCard `json:"played"`
	CurrentSeat int          `json:"current_seat"`
}

func NewTrick(starterSeat int) *Trick {
	return &Trick{
		Played:      []PlayedCard{},
		CurrentSeat: starterSeat,
	}
}
