package dehla

import (
	"fmt"

	"github.com/playdehla/dehla-backend/internal/apperror"
	"github.com/playdehla/dehla-backend/internal/entity"
)

// DealtHand is one seat's share of a full deal.
type DealtHand struct {
	Player *entity.Player
	Seat   int
	Cards  []entity.Card
}

// PlayOutcome describes the effect of a single accepted play.
type PlayOutcome struct {
	Player *entity.Player
	Seat   int
	Card   entity.Card
	Trick  *entity.Trick

	TrickDone   bool
	TrickWinner *entity.Player
	WinnerSeat  int
	WinnerTeam  entity.Team
	WinningCard entity.Card
	TensTaken   int

	// RoundDone is set on the play that emptied the last hand.
	RoundDone bool
}

// RoundOutcome is the result of one scored round.
type RoundOutcome struct {
	Winner entity.Team // empty on a declared tie
	Tied   bool
	Reason string // "tens", "hands" or "tie"

	Tens   map[entity.Team]int
	Hands  map[entity.Team]int
	Rounds map[entity.Team]int

	GameOver bool
}

// StartGame moves a full room out of Forming: it builds a fresh deck
// sized to the seat count and enters the shuffle pause. The game starts
// exactly once.
func StartGame(room *entity.Room) error {
	if room.Phase != entity.PhaseForming || room.Started {
		return apperror.ErrWrongPhase
	}

	if !room.IsFull() {
		return fmt.Errorf("%w: %d of %d seats filled", apperror.ErrWrongPhase, len(room.Players), room.MaxPlayers)
	}

	room.Started = true
	room.Phase = entity.PhaseShuffling
	room.Deck = NewShuffledDeck(room.MaxPlayers)
	room.Hands = make(map[string][]entity.Card)
	room.TrumpChooserSeat = 0
	room.TrumpHistory = nil
	room.Trump = ""
	room.ResetTallies()

	return nil
}

// BeginTrumpSelection hands the chooser its preview slice of the deck,
// sorted for display, and opens the trump decision.
func BeginTrumpSelection(room *entity.Room) (*entity.Player, []entity.Card, error) {
	if room.Phase != entity.PhaseShuffling {
		return nil, nil, apperror.ErrWrongPhase
	}

	chooser := room.Players[room.TrumpChooserSeat]
	size := PreviewSize(room.MaxPlayers)
	start := room.TrumpChooserSeat * size

	preview := SortHand(room.Deck[start : start+size])
	room.Hands[chooser.ID] = preview
	room.Phase = entity.PhaseAwaitingTrump

	return chooser, preview, nil
}

// ChooseTrump records the chooser's suit, partitions the whole deck into
// equal contiguous shares and opens the first trick of the round. The
// chooser leads it.
func ChooseTrump(room *entity.Room, playerID string, trump entity.Suit) ([]DealtHand, error) {
	if room.Phase != entity.PhaseAwaitingTrump {
		return nil, apperror.ErrWrongPhase
	}

	if room.Players[room.TrumpChooserSeat].ID != playerID {
		return nil, apperror.ErrNotChooser
	}

	if !entity.ValidSuit(trump) {
		return nil, fmt.Errorf("%w: %q", apperror.ErrUnknownSuit, trump)
	}

	handSize := len(room.Deck) / room.MaxPlayers
	if handSize*room.MaxPlayers != len(room.Deck) {
		return nil, fmt.Errorf("%w: %d cards cannot be dealt evenly to %d seats",
			apperror.ErrInvariant, len(room.Deck), room.MaxPlayers)
	}

	room.Trump = trump
	room.TrumpHistory = append(room.TrumpHistory, trump)

	dealt := make([]DealtHand, 0, room.MaxPlayers)
	for i, player := range room.Players {
		hand := SortHand(room.Deck[i*handSize : (i+1)*handSize])
		room.Hands[player.ID] = hand
		dealt = append(dealt, DealtHand{Player: player, Seat: i, Cards: hand})
	}

	room.HandStarterSeat = room.TrumpChooserSeat
	room.Trick = entity.NewTrick(room.HandStarterSeat)
	room.Phase = entity.PhaseTrickPlay

	return dealt, nil
}

// PlayCard validates and applies one play. When the play completes the
// trick it also resolves it: tallies the winning team's hands and tens,
// moves the lead to the winner's seat and closes the trick.
func PlayCard(room *entity.Room, playerID string, cardIndex int) (*PlayOutcome, error) {
	if room.Phase != entity.PhaseTrickPlay {
		return nil, apperror.ErrWrongPhase
	}

	seat := room.SeatOf(playerID)
	if seat < 0 {
		return nil, apperror.ErrNotInRoom
	}

	trick := room.Trick
	if trick.CurrentSeat != seat {
		return nil, apperror.ErrNotYourTurn
	}

	hand := room.Hands[playerID]
	if cardIndex < 0 || cardIndex >= len(hand) {
		return nil, fmt.Errorf("%w: %d", apperror.ErrInvalidCard, cardIndex)
	}

	card := hand[cardIndex]
	if !IsLegalPlay(card, hand, trick.LeadSuit) {
		return nil, fmt.Errorf("%w (%s led)", apperror.ErrMustFollowSuit, trick.LeadSuit)
	}

	room.Hands[playerID] = append(hand[:cardIndex:cardIndex], hand[cardIndex+1:]...)

	if trick.LeadSuit == "" {
		trick.LeadSuit = card.Suit
	}

	player := room.Players[seat]
	trick.Played = append(trick.Played, entity.PlayedCard{Player: player, Card: card})
	trick.CurrentSeat = (seat + 1) % room.MaxPlayers

	outcome := &PlayOutcome{
		Player: player,
		Seat:   seat,
		Card:   card,
		Trick:  trick,
	}

	if len(trick.Played) < room.MaxPlayers {
		return outcome, nil
	}

	winner := TrickWinner(trick.Played, trick.LeadSuit, room.Trump)
	winnerSeat := room.SeatOf(winner.ID)
	team := entity.TeamForSeat(winnerSeat)
	tens := TensIn(trick.Played)

	room.HandsWon[team]++
	room.TensWon[team] += tens
	room.HandStarterSeat = winnerSeat

	outcome.TrickDone = true
	outcome.TrickWinner = winner
	outcome.WinnerSeat = winnerSeat
	outcome.WinnerTeam = team
	outcome.TensTaken = tens
	for _, pc := range trick.Played {
		if pc.Player.ID == winner.ID {
			outcome.WinningCard = pc.Card
		}
	}

	room.Trick = nil
	room.Phase = entity.PhaseTrickBreak
	outcome.RoundDone = room.HandsEmpty()

	return outcome, nil
}

// NextTrick opens the following trick, led by the previous winner.
func NextTrick(room *entity.Room) (*entity.Player, error) {
	if room.Phase != entity.PhaseTrickBreak {
		return nil, apperror.ErrWrongPhase
	}

	room.Trick = entity.NewTrick(room.HandStarterSeat)
	room.Phase = entity.PhaseTrickPlay

	return room.Players[room.HandStarterSeat], nil
}

// ResolveRound scores a played-out round: tens decide it, hands break a
// tens tie, and if both tie the round is declared drawn with no score
// change. Per-round tallies reset; round wins accumulate. When every
// seat has chosen trump once the game is over.
func ResolveRound(room *entity.Room) (*RoundOutcome, error) {
	if room.Phase != entity.PhaseTrickBreak || !room.HandsEmpty() {
		return nil, apperror.ErrWrongPhase
	}

	outcome := &RoundOutcome{
		Tens:  map[entity.Team]int{entity.TeamOne: room.TensWon[entity.TeamOne], entity.TeamTwo: room.TensWon[entity.TeamTwo]},
		Hands: map[entity.Team]int{entity.TeamOne: room.HandsWon[entity.TeamOne], entity.TeamTwo: room.HandsWon[entity.TeamTwo]},
	}

	switch {
	case outcome.Tens[entity.TeamOne] != outcome.Tens[entity.TeamTwo]:
		outcome.Reason = "tens"
		outcome.Winner = entity.TeamOne
		if outcome.Tens[entity.TeamTwo] > outcome.Tens[entity.TeamOne] {
			outcome.Winner = entity.TeamTwo
		}
	case outcome.Hands[entity.TeamOne] != outcome.Hands[entity.TeamTwo]:
		outcome.Reason = "hands"
		outcome.Winner = entity.TeamOne
		if outcome.Hands[entity.TeamTwo] > outcome.Hands[entity.TeamOne] {
			outcome.Winner = entity.TeamTwo
		}
	default:
		outcome.Reason = "tie"
		outcome.Tied = true
	}

	if !outcome.Tied {
		room.RoundsWon[outcome.Winner]++
	}

	room.ResetTallies()

	outcome.Rounds = map[entity.Team]int{
		entity.TeamOne: room.RoundsWon[entity.TeamOne],
		entity.TeamTwo: room.RoundsWon[entity.TeamTwo],
	}
	outcome.GameOver = len(room.TrumpHistory) >= room.MaxPlayers

	if outcome.GameOver {
		room.Phase = entity.PhaseGameOver
	}

	return outcome, nil
}

// NextRound rotates the trump chooser, reshuffles a fresh deck and
// re-enters the shuffle pause. Valid only after ResolveRound on a game
// that is not over.
func NextRound(room *entity.Room) error {
	if room.Phase != entity.PhaseTrickBreak {
		return apperror.ErrWrongPhase
	}

	room.TrumpChooserSeat = (room.TrumpChooserSeat + 1) % room.MaxPlayers
	room.Trump = ""
	room.Deck = NewShuffledDeck(room.MaxPlayers)
	room.Hands = make(map[string][]entity.Card)
	room.Phase = entity.PhaseShuffling

	return nil
}
