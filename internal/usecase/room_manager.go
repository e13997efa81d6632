package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/playdehla/dehla-backend/internal/apperror"
	"github.com/playdehla/dehla-backend/internal/config"
	"github.com/playdehla/dehla-backend/internal/dehla"
	"github.com/playdehla/dehla-backend/internal/entity"
	"github.com/playdehla/dehla-backend/internal/pkg"
	"github.com/playdehla/dehla-backend/internal/repository"
)

// Notifier is the fan-out capability the room manager emits through:
// either to one seat or to the whole room. Delivery is the transport's
// concern; the manager never blocks on it.
type Notifier interface {
	ToPlayer(playerID, action string, payload any)
	ToRoom(room *entity.Room, action string, payload any)
}

type roomRepo interface {
	Create(ctx context.Context, room *entity.Room) error
	GetByID(ctx context.Context, id string) (*entity.Room, error)
	DeleteByID(ctx context.Context, id string) error
}

type sessionRepo interface {
	CreateOrUpdate(ctx context.Context, session *entity.Session) error
	GetByID(ctx context.Context, id string) (*entity.Session, error)
	DeleteByID(ctx context.Context, id string) error
}

var allowedSeatCounts = map[int]bool{2: true, 4: true, 6: true, 8: true}

// RoomManager maps inbound player actions onto the room state machine
// and fans the resulting events out to the right recipients. Each room's
// lock serializes its actions; the pacing timers between phases are
// fire-and-forget, and an action arriving during a pending timer is
// rejected by the phase check, never queued.
type RoomManager struct {
	logger      *slog.Logger
	roomRepo    roomRepo
	sessionRepo sessionRepo
	notifier    Notifier

	pacing   config.Game
	schedule func(delay time.Duration, fn func())
}

func NewRoomManager(logger *slog.Logger, rooms roomRepo, sessions sessionRepo, pacing config.Game) *RoomManager {
	return &RoomManager{
		logger:      logger,
		roomRepo:    rooms,
		sessionRepo: sessions,
		pacing:      pacing,
		schedule: func(delay time.Duration, fn func()) {
			time.AfterFunc(delay, fn)
		},
	}
}

// SetNotifier wires the transport fan-out. Must be called before any
// player action is dispatched.
func (that *RoomManager) SetNotifier(notifier Notifier) {
	that.notifier = notifier
}

// Connect returns the session for an id, creating a fresh one when the
// id is empty or unknown.
func (that *RoomManager) Connect(ctx context.Context, sessionID string) (*entity.Session, error) {
	if sessionID == "" {
		sessionID = pkg.GenerateSessionID()
	}

	session, err := that.sessionRepo.GetByID(ctx, sessionID)
	if err == nil {
		return session, nil
	}

	if !errors.Is(err, repository.ErrSessionNotFound) {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	session = &entity.Session{ID: sessionID}
	if err = that.sessionRepo.CreateOrUpdate(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

// CreateRoom allocates a room and seats the creator at seat 0.
func (that *RoomManager) CreateRoom(ctx context.Context, playerID, playerName string, numPlayers int) (*entity.Room, error) {
	if !allowedSeatCounts[numPlayers] {
		return nil, fmt.Errorf("%w: got %d", apperror.ErrBadSeatCount, numPlayers)
	}

	room := entity.NewRoom(pkg.GenerateRoomID(), numPlayers)
	if err := room.AddPlayer(&entity.Player{ID: playerID, Name: playerName}); err != nil {
		return nil, fmt.Errorf("failed to seat creator: %w", err)
	}

	if err := that.roomRepo.Create(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to register room: %w", err)
	}

	if err := that.updateSession(ctx, playerID, playerName, room.ID); err != nil {
		return nil, err
	}

	that.notifier.ToRoom(room, ActionRoomUpdate, that.rosterPayload(room))

	that.logger.Info("room created", "roomID", room.ID, "maxPlayers", numPlayers)

	return room, nil
}

// JoinRoom seats a player in an existing room. Filling the last seat
// starts the game: the deck is shuffled and, after the shuffle pacing
// delay, the first trump prompt goes out.
func (that *RoomManager) JoinRoom(ctx context.Context, playerID, playerName, roomID string) (*entity.Room, error) {
	room, err := that.getRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	room.Lock()

	if err = room.AddPlayer(&entity.Player{ID: playerID, Name: playerName}); err != nil {
		room.Unlock()
		return nil, fmt.Errorf("failed to join room %s: %w", roomID, err)
	}

	if err = that.updateSession(ctx, playerID, playerName, room.ID); err != nil {
		// the seat must not outlive the failed session write
		room.RemovePlayer(playerID)
		room.Unlock()
		return nil, err
	}

	that.notifier.ToRoom(room, ActionRoomUpdate, that.rosterPayload(room))

	full := room.IsFull()
	if full {
		if err = dehla.StartGame(room); err != nil {
			room.Unlock()
			return nil, fmt.Errorf("failed to start game in room %s: %w", roomID, err)
		}
		that.notifier.ToRoom(room, ActionGameStart, nil)
		that.logger.Info("game started", "roomID", room.ID)
	}

	room.Unlock()

	if full {
		that.schedule(that.pacing.ShuffleDelay, func() {
			that.askForTrump(context.Background(), roomID)
		})
	}

	return room, nil
}

// RoomState returns the current roster. It never mutates the room, so
// repeated calls return the same seats and team labels until a join or
// leave happens.
func (that *RoomManager) RoomState(ctx context.Context, roomID string) (*RoomUpdatePayload, error) {
	room, err := that.getRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	room.Lock()
	defer room.Unlock()

	return that.rosterPayload(room), nil
}

// ChooseTrump accepts the chooser's suit, deals the full deck and opens
// the first trick of the round.
func (that *RoomManager) ChooseTrump(ctx context.Context, playerID, roomID string, trump entity.Suit) error {
	room, err := that.getRoom(ctx, roomID)
	if err != nil {
		return err
	}

	room.Lock()
	defer room.Unlock()

	dealt, err := dehla.ChooseTrump(room, playerID, trump)
	if err != nil {
		return fmt.Errorf("failed to choose trump in room %s: %w", roomID, err)
	}

	that.notifier.ToRoom(room, ActionTrumpSet, TrumpSetPayload{Trump: trump})

	for _, share := range dealt {
		that.notifier.ToPlayer(share.Player.ID, ActionHandDeal, DealHandPayload{
			RoomID:  room.ID,
			Hand:    share.Cards,
			Seat:    share.Seat,
			Players: that.roster(room, share.Player.ID),
			Trump:   trump,
		})
	}

	that.announceTrickStart(room)

	that.logger.Info("trump chosen", "roomID", room.ID, "trump", string(trump), "round", len(room.TrumpHistory))

	return nil
}

// PlayCard applies one play. A play that completes the trick resolves it
// immediately; the next trick (or the round scoring) follows after the
// winner-announcement pacing delay.
func (that *RoomManager) PlayCard(ctx context.Context, playerID, roomID string, cardIndex int) error {
	room, err := that.getRoom(ctx, roomID)
	if err != nil {
		return err
	}

	room.Lock()

	outcome, err := dehla.PlayCard(room, playerID, cardIndex)
	if err != nil {
		room.Unlock()
		return fmt.Errorf("failed to play card in room %s: %w", roomID, err)
	}

	that.notifier.ToPlayer(playerID, ActionHandUpdate, HandUpdatePayload{Hand: room.Hands[playerID]})

	played := CardPlayedPayload{
		PlayerName: outcome.Player.Name,
		Seat:       outcome.Seat,
		Card:       outcome.Card,
		Played:     outcome.Trick.Played,
	}

	if !outcome.TrickDone {
		next := room.Players[outcome.Trick.CurrentSeat]
		played.CurrentTurn = next.ID
		that.notifier.ToRoom(room, ActionCardPlayed, played)
		that.notifier.ToPlayer(next.ID, ActionYourTurn, nil)

		room.Unlock()
		return nil
	}

	that.notifier.ToRoom(room, ActionCardPlayed, played)
	that.notifier.ToRoom(room, ActionTrickWon, TrickWonPayload{
		Winner:      outcome.TrickWinner.Name,
		WinnerSeat:  outcome.WinnerSeat,
		WinnerTeam:  outcome.WinnerTeam,
		WinningCard: outcome.WinningCard,
		TensTaken:   outcome.TensTaken,
		HandsWon:    copyTally(room.HandsWon),
		TensWon:     copyTally(room.TensWon),
	})

	room.Unlock()

	that.schedule(that.pacing.TrickDelay, func() {
		that.advanceAfterTrick(context.Background(), roomID)
	})

	return nil
}

// Disconnect unseats a player. A forming room just loses the seat; a
// started game cannot survive a hole in its turn order, so the room is
// aborted and discarded.
func (that *RoomManager) Disconnect(ctx context.Context, playerID string) error {
	session, err := that.sessionRepo.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil
		}
		return fmt.Errorf("failed to get session: %w", err)
	}

	if err = that.sessionRepo.DeleteByID(ctx, playerID); err != nil {
		that.logger.Error("failed to delete session", "playerID", playerID, "error", err)
	}

	if session.RoomID == "" {
		return nil
	}

	room, err := that.roomRepo.GetByID(ctx, session.RoomID)
	if err != nil {
		return nil
	}

	room.Lock()

	if !room.Started {
		room.RemovePlayer(playerID)

		if room.IsEmpty() {
			room.Unlock()
			that.discardRoom(ctx, room)
			return nil
		}

		that.notifier.ToRoom(room, ActionRoomUpdate, that.rosterPayload(room))
		room.Unlock()
		return nil
	}

	room.RemovePlayer(playerID)
	room.Phase = entity.PhaseGameOver
	that.notifier.ToRoom(room, ActionGameAborted, GameAbortedPayload{
		Player: session.Name,
		Reason: "player disconnected mid-game",
	})

	room.Unlock()
	that.discardRoom(ctx, room)

	that.logger.Info("game aborted on disconnect", "roomID", room.ID, "playerID", playerID)

	return nil
}

// askForTrump fires after the shuffle pacing delay and prompts the
// current chooser with its preview hand.
func (that *RoomManager) askForTrump(ctx context.Context, roomID string) {
	room, err := that.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return // room discarded while the timer was pending
	}

	room.Lock()
	defer room.Unlock()

	chooser, preview, err := dehla.BeginTrumpSelection(room)
	if err != nil {
		that.logger.Debug("trump prompt skipped", "roomID", roomID, "error", err)
		return
	}

	that.notifier.ToPlayer(chooser.ID, ActionTrumpChoose, TrumpChoosePayload{
		PreviewHand: preview,
		Suits:       entity.Suits,
	})

	for _, player := range room.Players {
		if player.ID != chooser.ID {
			that.notifier.ToPlayer(player.ID, ActionTrumpWaiting, TrumpWaitingPayload{Chooser: chooser.Name})
		}
	}
}

// advanceAfterTrick fires after the winner-announcement pacing delay:
// it opens the next trick, or scores the round when all hands are empty.
func (that *RoomManager) advanceAfterTrick(ctx context.Context, roomID string) {
	room, err := that.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return
	}

	room.Lock()

	if room.Phase != entity.PhaseTrickBreak {
		room.Unlock()
		return
	}

	if !room.HandsEmpty() {
		if _, err = dehla.NextTrick(room); err != nil {
			that.logger.Error("failed to open next trick", "roomID", roomID, "error", err)
			room.Unlock()
			return
		}
		that.announceTrickStart(room)
		room.Unlock()
		return
	}

	outcome, err := dehla.ResolveRound(room)
	if err != nil {
		that.logger.Error("failed to resolve round", "roomID", roomID, "error", err)
		room.Unlock()
		return
	}

	that.notifier.ToRoom(room, ActionRoundEnd, RoundEndPayload{
		Winner: outcome.Winner,
		Tied:   outcome.Tied,
		Reason: outcome.Reason,
		Tens:   outcome.Tens,
		Hands:  outcome.Hands,
		Rounds: outcome.Rounds,
	})

	if outcome.GameOver {
		that.notifier.ToRoom(room, ActionGameEnd, GameEndPayload{
			Rounds:       outcome.Rounds,
			TrumpHistory: room.TrumpHistory,
		})

		room.Unlock()
		that.discardRoom(ctx, room)

		that.logger.Info("game ended", "roomID", roomID)
		return
	}

	if err = dehla.NextRound(room); err != nil {
		that.logger.Error("failed to start next round", "roomID", roomID, "error", err)
		room.Unlock()
		return
	}

	room.Unlock()

	that.schedule(that.pacing.RoundDelay, func() {
		that.askForTrump(context.Background(), roomID)
	})
}

// announceTrickStart broadcasts who leads the open trick and prompts
// that seat. Callers hold the room lock.
func (that *RoomManager) announceTrickStart(room *entity.Room) {
	starter := room.Players[room.HandStarterSeat]

	that.notifier.ToRoom(room, ActionTrickStart, TrickStartPayload{
		StarterSeat: room.HandStarterSeat,
		StarterName: starter.Name,
		CurrentTurn: starter.ID,
	})
	that.notifier.ToPlayer(starter.ID, ActionYourTurn, nil)
}

func (that *RoomManager) getRoom(ctx context.Context, roomID string) (*entity.Room, error) {
	room, err := that.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, roomID)
	}

	return room, nil
}

// discardRoom drops the room from the registry and detaches every
// remaining session from it.
func (that *RoomManager) discardRoom(ctx context.Context, room *entity.Room) {
	log := that.logger.With("method", "discardRoom")

	if err := that.roomRepo.DeleteByID(ctx, room.ID); err != nil {
		log.Error("failed to delete room", "roomID", room.ID, "error", err)
	}

	for _, player := range room.Players {
		session, err := that.sessionRepo.GetByID(ctx, player.ID)
		if err != nil {
			continue
		}

		session.RoomID = ""
		if err = that.sessionRepo.CreateOrUpdate(ctx, session); err != nil {
			log.Error("failed to detach session", "playerID", player.ID, "error", err)
		}
	}
}

func (that *RoomManager) updateSession(ctx context.Context, playerID, playerName, roomID string) error {
	session := &entity.Session{ID: playerID, Name: playerName, RoomID: roomID}
	if err := that.sessionRepo.CreateOrUpdate(ctx, session); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	return nil
}

// roster builds the seat list with team labels, marking selfID's seat.
func (that *RoomManager) roster(room *entity.Room, selfID string) []SeatInfo {
	seats := make([]SeatInfo, 0, len(room.Players))
	for i, player := range room.Players {
		seats = append(seats, SeatInfo{
			Name:   player.Name,
			Seat:   i,
			Team:   entity.TeamForSeat(i),
			IsSelf: player.ID == selfID,
		})
	}

	return seats
}

func (that *RoomManager) rosterPayload(room *entity.Room) *RoomUpdatePayload {
	return &RoomUpdatePayload{
		RoomID:     room.ID,
		MaxPlayers: room.MaxPlayers,
		Players:    that.roster(room, ""),
	}
}

func copyTally(tally map[entity.Team]int) map[entity.Team]int {
	copied := make(map[entity.Team]int, len(tally))
	for team, count := range tally {
		copied[team] = count
	}

	return copied
}
