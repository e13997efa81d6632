package entity

import (
	"sync"

	"github.com/playdehla/dehla-backend/internal/apperror"
)

// Team is one of the two fixed sides. Membership is derived from seat
// parity and never stored: even seats are Team 1, odd seats are Team 2.
type Team string

const (
	TeamOne Team = "Team 1"
	TeamTwo Team = "Team 2"
)

// Teams lists both sides in seat order.
var Teams = []Team{TeamOne, TeamTwo}

func TeamForSeat(seat int) Team {
	if seat%2 == 0 {
		return TeamOne
	}
	return TeamTwo
}

// Phase is the explicit state of a room's lifecycle. Actions that do not
// match the current phase are rejected, never queued.
type Phase int

const (
	PhaseForming       Phase = iota // waiting for seats to fill
	PhaseShuffling                  // deck built, trump prompt pending the pacing delay
	PhaseAwaitingTrump              // chooser holds a preview hand, others wait
	PhaseTrickPlay                  // a trick is open and accepting plays
	PhaseTrickBreak                 // trick resolved, next trick or round end pending
	PhaseGameOver                   // final tallies emitted, room discarded
)

func (that Phase) String() string {
	switch that {
	case PhaseForming:
		return "forming"
	case PhaseShuffling:
		return "shuffling"
	case PhaseAwaitingTrump:
		return "awaiting_trump"
	case PhaseTrickPlay:
		return "trick_play"
	case PhaseTrickBreak:
		return "trick_break"
	case PhaseGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// Room owns all state of one game: seats, deck, hands, trump history,
// the open trick and the team tallies. Nothing in it is shared across
// rooms. Callers serialize access through Lock/Unlock so that every
// inbound action runs to completion before the next one is accepted.
type Room struct {
	ID         string    `json:"id"`
	MaxPlayers int       `json:"max_players"`
	Players    []*Player `json:"players"`
	Started    bool      `json:"started"`
	Phase      Phase     `json:"phase"`

	Deck  []Card            `json:"-"`
	Hands map[string][]Card `json:"-"`

	TrumpChooserSeat int    `json:"trump_chooser_seat"`
	TrumpHistory     []Suit `json:"trump_history"`
	Trump            Suit   `json:"trump,omitempty"`
	HandStarterSeat  int    `json:"hand_starter_seat"`
	Trick            *Trick `json:"trick,omitempty"`

	HandsWon  map[Team]int `json:"hands_won"`
	TensWon   map[Team]int `json:"tens_won"`
	RoundsWon map[Team]int `json:"rounds_won"`

	mu sync.Mutex
}

func NewRoom(id string, maxPlayers int) *Room {
	return &Room{
		ID:         id,
		MaxPlayers: maxPlayers,
		Players:    []*Player{},
		Phase:      PhaseForming,
		Hands:      make(map[string][]Card),
		HandsWon:   map[Team]int{TeamOne: 0, TeamTwo: 0},
		TensWon:    map[Team]int{TeamOne: 0, TeamTwo: 0},
		RoundsWon:  map[Team]int{TeamOne: 0, TeamTwo: 0},
	}
}

func (that *Room) Lock()   { that.mu.Lock() }
func (that *Room) Unlock() { that.mu.Unlock() }

// AddPlayer seats a player at the next free index.
func (that *Room) AddPlayer(player *Player) error {
	if that.Started {
		return apperror.ErrGameStarted
	}

	if len(that.Players) >= that.MaxPlayers {
		return apperror.ErrRoomFull
	}

	that.Players = append(that.Players, player)

	return nil
}

// RemovePlayer unseats a player. Remaining seats keep their team
// assignment; callers must not use this on a started game.
func (that *Room) RemovePlayer(playerID string) {
	for i, player := range that.Players {
		if player.ID == playerID {
			that.Players = append(that.Players[:i], that.Players[i+1:]...)
			return
		}
	}
}

func (that *Room) IsFull() bool {
	return len(that.Players) == that.MaxPlayers
}

func (that *Room) IsEmpty() bool {
	return len(that.Players) == 0
}

// SeatOf returns the seat index of a player, or -1 if not seated.
func (that *Room) SeatOf(playerID string) int {
	for i, player := range that.Players {
		if player.ID == playerID {
			return i
		}
	}
	return -1
}

// HandsEmpty reports whether every seat has played out its hand.
func (that *Room) HandsEmpty() bool {
	for _, player := range that.Players {
		if len(that.Hands[player.ID]) > 0 {
			return false
		}
	}
	return true
}

// ResetTallies zeroes the per-round counters. Round wins persist for the
// lifetime of the game.
func (that *Room) ResetTallies() {
	that.HandsWon = map[Team]int{TeamOne: 0, TeamTwo: 0}
	that.TensWon = map[Team]int{TeamOne: 0, TeamTwo: 0}
}
