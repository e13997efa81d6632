package usecase

import "github.com/playdehla/dehla-backend/internal/entity"

// Outbound actions fanned out by the room manager. Seat-targeted actions
// go to a single player, the rest are room-wide broadcasts.
const (
	ActionRoomUpdate   = "room:update"
	ActionGameStart    = "game:start"
	ActionGameAborted  = "game:aborted"
	ActionGameEnd      = "game:end"
	ActionTrumpChoose  = "trump:choose"
	ActionTrumpWaiting = "trump:waiting"
	ActionTrumpSet     = "trump:set"
	ActionHandDeal     = "hand:deal"
	ActionHandUpdate   = "hand:update"
	ActionTrickStart   = "trick:start"
	ActionYourTurn     = "turn:your"
	ActionCardPlayed   = "card:played"
	ActionTrickWon     = "trick:won"
	ActionRoundEnd     = "round:end"
)

// SeatInfo is one entry of a room roster with its derived team label.
type SeatInfo struct {
	Name   string      `json:"name"`
	Seat   int         `json:"seat"`
	Team   entity.Team `json:"team"`
	IsSelf bool        `json:"is_self,omitempty"`
}

type RoomUpdatePayload struct {
	RoomID     string     `json:"room_id"`
	MaxPlayers int        `json:"max_players"`
	Players    []SeatInfo `json:"players"`
}

type TrumpChoosePayload struct {
	PreviewHand []entity.Card `json:"preview_hand"`
	Suits       []entity.Suit `json:"suits"`
}

type TrumpWaitingPayload struct {
	Chooser string `json:"chooser"`
}

type TrumpSetPayload struct {
	Trump entity.Suit `json:"trump"`
}

type DealHandPayload struct {
	RoomID  string        `json:"room_id"`
	Hand    []entity.Card `json:"hand"`
	Seat    int           `json:"seat"`
	Players []SeatInfo    `json:"players"`
	Trump   entity.Suit   `json:"trump"`
}

type HandUpdatePayload struct {
	Hand []entity.Card `json:"hand"`
}

type TrickStartPayload struct {
	StarterSeat int    `json:"starter_seat"`
	StarterName string `json:"starter_name"`
	CurrentTurn string `json:"current_turn"`
}

type CardPlayedPayload struct {
	PlayerName  string              `json:"player_name"`
	Seat        int                 `json:"seat"`
	Card        entity.Card         `json:"card"`
	Played      []entity.PlayedCard `json:"played"`
	CurrentTurn string              `json:"current_turn,omitempty"`
}

type TrickWonPayload struct {
	Winner      string              `json:"winner"`
	WinnerSeat  int                 `json:"winner_seat"`
	WinnerTeam  entity.Team         `json:"winner_team"`
	WinningCard entity.Card         `json:"winning_card"`
	TensTaken   int                 `json:"tens_taken"`
	HandsWon    map[entity.Team]int `json:"hands_won"`
	TensWon     map[entity.Team]int `json:"tens_won"`
}

type RoundEndPayload struct {
	Winner entity.Team         `json:"winner,omitempty"`
	Tied   bool                `json:"tied"`
	Reason string              `json:"reason"`
	Tens   map[entity.Team]int `json:"tens"`
	Hands  map[entity.Team]int `json:"hands"`
	Rounds map[entity.Team]int `json:"rounds"`
}

type GameEndPayload struct {
	Rounds       map[entity.Team]int `json:"rounds"`
	TrumpHistory []entity.Suit       `json:"trump_history"`
}

type GameAbortedPayload struct {
	Player string `json:"player"`
	Reason string `json:"reason"`
}
