package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playdehla/dehla-backend/internal/apperror"
	"github.com/playdehla/dehla-backend/internal/config"
	"github.com/playdehla/dehla-backend/internal/dehla"
	"github.com/playdehla/dehla-backend/internal/entity"
	"github.com/playdehla/dehla-backend/internal/repository"
)

// recordedEvent is one notification captured by the fake notifier.
// Target is a player id, or "*" for a room broadcast.
type recordedEvent struct {
	Target  string
	Action  string
	Payload any
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (that *fakeNotifier) ToPlayer(playerID, action string, payload any) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.events = append(that.events, recordedEvent{Target: playerID, Action: action, Payload: payload})
}

func (that *fakeNotifier) ToRoom(_ *entity.Room, action string, payload any) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.events = append(that.events, recordedEvent{Target: "*", Action: action, Payload: payload})
}

// byAction returns every captured event with the given action.
func (that *fakeNotifier) byAction(action string) []recordedEvent {
	that.mu.Lock()
	defer that.mu.Unlock()

	var matched []recordedEvent
	for _, ev := range that.events {
		if ev.Action == action {
			matched = append(matched, ev)
		}
	}
	return matched
}

var errSessionWrite = errors.New("session store unavailable")

// memSessions is an in-memory stand-in for the redis session repository.
// Writes for failID fail, to exercise session-store error paths.
type memSessions struct {
	mu       sync.Mutex
	sessions map[string]entity.Session
	failID   string
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: make(map[string]entity.Session)}
}

func (that *memSessions) CreateOrUpdate(_ context.Context, session *entity.Session) error {
	that.mu.Lock()
	defer that.mu.Unlock()
	if that.failID != "" && session.ID == that.failID {
		return errSessionWrite
	}
	that.sessions[session.ID] = *session
	return nil
}

func (that *memSessions) GetByID(_ context.Context, id string) (*entity.Session, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	session, ok := that.sessions[id]
	if !ok {
		return &entity.Session{}, repository.ErrSessionNotFound
	}
	return &session, nil
}

func (that *memSessions) DeleteByID(_ context.Context, id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()
	delete(that.sessions, id)
	return nil
}

type managerFixture struct {
	manager  *RoomManager
	rooms    repository.RoomRepository
	sessions *memSessions
	notifier *fakeNotifier
}

// newFixture wires a manager with in-memory repositories, a recording
// notifier and a synchronous scheduler, so pacing timers fire inline and
// a whole game can be driven from the test.
func newFixture(t *testing.T) *managerFixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rooms := repository.NewRoomRepository()
	sessions := newMemSessions()
	notifier := &fakeNotifier{}

	manager := NewRoomManager(logger, rooms, sessions, config.Game{})
	manager.SetNotifier(notifier)
	manager.schedule = func(_ time.Duration, fn func()) { fn() }

	return &managerFixture{manager: manager, rooms: rooms, sessions: sessions, notifier: notifier}
}

func TestRoomManager_Connect(t *testing.T) {
	t.Run("empty id mints a fresh session", func(t *testing.T) {
		fx := newFixture(t)
		ctx := context.Background()

		// When: a client connects without a session id
		session, err := fx.manager.Connect(ctx, "")

		// Then: a new session is created and stored
		require.NoError(t, err)
		require.NotEmpty(t, session.ID)
		stored, err := fx.sessions.GetByID(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, session.ID, stored.ID)
	})

	t.Run("known id returns the existing session", func(t *testing.T) {
		fx := newFixture(t)
		ctx := context.Background()

		existing := &entity.Session{ID: "s-1", Name: "alice", RoomID: "abc123"}
		require.NoError(t, fx.sessions.CreateOrUpdate(ctx, existing))

		session, err := fx.manager.Connect(ctx, "s-1")

		require.NoError(t, err)
		assert.Equal(t, "alice", session.Name)
		assert.Equal(t, "abc123", session.RoomID)
	})
}

func TestRoomManager_CreateRoom(t *testing.T) {
	t.Run("seats the creator and broadcasts the roster", func(t *testing.T) {
		fx := newFixture(t)
		ctx := context.Background()

		// When: a player creates a 4-seat room
		room, err := fx.manager.CreateRoom(ctx, "p0", "alice", 4)

		// Then: the creator sits at seat 0 and the roster went out
		require.NoError(t, err)
		assert.Equal(t, 0, room.SeatOf("p0"))
		assert.Equal(t, entity.PhaseForming, room.Phase)

		updates := fx.notifier.byAction(ActionRoomUpdate)
		require.Len(t, updates, 1)
		payload, ok := updates[0].Payload.(*RoomUpdatePayload)
		require.True(t, ok)
		assert.Equal(t, room.ID, payload.RoomID)
		require.Len(t, payload.Players, 1)
		assert.Equal(t, entity.TeamOne, payload.Players[0].Team)

		// Then: the creator's session points at the room
		session, err := fx.sessions.GetByID(ctx, "p0")
		require.NoError(t, err)
		assert.Equal(t, room.ID, session.RoomID)
	})

	t.Run("rejects an unsupported seat count", func(t *testing.T) {
		fx := newFixture(t)

		_, err := fx.manager.CreateRoom(context.Background(), "p0", "alice", 3)

		require.ErrorIs(t, err, apperror.ErrBadSeatCount)
	})
}

func TestRoomManager_JoinRoom(t *testing.T) {
	t.Run("unknown room is rejected", func(t *testing.T) {
		fx := newFixture(t)

		_, err := fx.manager.JoinRoom(context.Background(), "p1", "bob", "nope")

		require.ErrorIs(t, err, apperror.ErrRoomNotFound)
	})

	t.Run("filling the last seat starts the game and prompts for trump", func(t *testing.T) {
		fx := newFixture(t)
		ctx := context.Background()

		room, err := fx.manager.CreateRoom(ctx, "p0", "alice", 2)
		require.NoError(t, err)

		// When: the second player takes the last seat
		_, err = fx.manager.JoinRoom(ctx, "p1", "bob", room.ID)

		// Then: the game started and the shuffle pause elapsed inline,
		// so the creator holds the trump prompt while the other waits
		require.NoError(t, err)
		assert.True(t, room.Started)
		assert.Equal(t, entity.PhaseAwaitingTrump, room.Phase)

		require.Len(t, fx.notifier.byAction(ActionGameStart), 1)

		prompts := fx.notifier.byAction(ActionTrumpChoose)
		require.Len(t, prompts, 1)
		assert.Equal(t, "p0", prompts[0].Target)
		prompt, ok := prompts[0].Payload.(TrumpChoosePayload)
		require.True(t, ok)
		assert.Len(t, prompt.PreviewHand, 8)

		waits := fx.notifier.byAction(ActionTrumpWaiting)
		require.Len(t, waits, 1)
		assert.Equal(t, "p1", waits[0].Target)
	})

	t.Run("a failed session write frees the seat", func(t *testing.T) {
		fx := newFixture(t)
		ctx := context.Background()

		room, err := fx.manager.CreateRoom(ctx, "p0", "alice", 2)
		require.NoError(t, err)

		// Given: the session store refusing the joiner's record
		fx.sessions.failID = "p1"

		// When: the join fails on the session write
		_, err = fx.manager.JoinRoom(ctx, "p1", "bob", room.ID)

		// Then: the seat is released and the game did not start
		require.ErrorIs(t, err, errSessionWrite)
		assert.Equal(t, -1, room.SeatOf("p1"))
		assert.False(t, room.Started)

		// When: the store recovers, the same player can take the seat
		fx.sessions.failID = ""
		_, err = fx.manager.JoinRoom(ctx, "p1", "bob", room.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, room.SeatOf("p1"))
		assert.True(t, room.Started)
	})

	t.Run("a full room turns further joins away", func(t *testing.T) {
		fx := newFixture(t)
		ctx := context.Background()

		room, err := fx.manager.CreateRoom(ctx, "p0", "alice", 2)
		require.NoError(t, err)
		_, err = fx.manager.JoinRoom(ctx, "p1", "bob", room.ID)
		require.NoError(t, err)

		_, err = fx.manager.JoinRoom(ctx, "p2", "carol", room.ID)

		require.ErrorIs(t, err, apperror.ErrGameStarted)
	})
}

func TestRoomManager_RoomState(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	room, err := fx.manager.CreateRoom(ctx, "p0", "alice", 4)
	require.NoError(t, err)

	// When: the state is read twice with no action in between
	first, err := fx.manager.RoomState(ctx, room.ID)
	require.NoError(t, err)
	second, err := fx.manager.RoomState(ctx, room.ID)
	require.NoError(t, err)

	// Then: both reads see the same roster
	assert.Equal(t, first, second)
	require.Len(t, first.Players, 1)
	assert.Equal(t, "alice", first.Players[0].Name)
}

func TestRoomManager_Rejections(t *testing.T) {
	// fullAwaitingTrump builds a started 2-player room paused on trump.
	fullAwaitingTrump := func(t *testing.T, fx *managerFixture) *entity.Room {
		t.Helper()
		ctx := context.Background()

		room, err := fx.manager.CreateRoom(ctx, "p0", "alice", 2)
		require.NoError(t, err)
		_, err = fx.manager.JoinRoom(ctx, "p1", "bob", room.ID)
		require.NoError(t, err)
		require.Equal(t, entity.PhaseAwaitingTrump, room.Phase)

		return room
	}

	t.Run("trump from a non-chooser", func(t *testing.T) {
		fx := newFixture(t)
		room := fullAwaitingTrump(t, fx)

		err := fx.manager.ChooseTrump(context.Background(), "p1", room.ID, entity.SuitHearts)

		require.ErrorIs(t, err, apperror.ErrNotChooser)
	})

	t.Run("play before the deal", func(t *testing.T) {
		fx := newFixture(t)
		room := fullAwaitingTrump(t, fx)

		err := fx.manager.PlayCard(context.Background(), "p0", room.ID, 0)

		require.ErrorIs(t, err, apperror.ErrWrongPhase)
	})

	t.Run("play out of turn", func(t *testing.T) {
		fx := newFixture(t)
		ctx := context.Background()
		room := fullAwaitingTrump(t, fx)
		require.NoError(t, fx.manager.ChooseTrump(ctx, "p0", room.ID, entity.SuitSpades))

		// When: the non-leading seat tries to open the trick
		err := fx.manager.PlayCard(ctx, "p1", room.ID, 0)

		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
	})
}

func TestRoomManager_FullGame(t *testing.T) {
	// Given: a full 2-player room, started and paused on the first trump
	fx := newFixture(t)
	ctx := context.Background()

	room, err := fx.manager.CreateRoom(ctx, "p0", "alice", 2)
	require.NoError(t, err)
	_, err = fx.manager.JoinRoom(ctx, "p1", "bob", room.ID)
	require.NoError(t, err)

	// When: both rounds are played out, every seat taking its first
	// legal card; with the synchronous scheduler each completed trick
	// advances the room inline
	for round := 0; round < room.MaxPlayers; round++ {
		require.Equal(t, entity.PhaseAwaitingTrump, room.Phase)

		chooser := room.Players[room.TrumpChooserSeat]
		require.NoError(t, fx.manager.ChooseTrump(ctx, chooser.ID, room.ID, entity.SuitSpades))

		for room.Phase == entity.PhaseTrickPlay {
			current := room.Players[room.Trick.CurrentSeat]
			hand := room.Hands[current.ID]

			idx := -1
			for i, card := range hand {
				if dehla.IsLegalPlay(card, hand, room.Trick.LeadSuit) {
					idx = i
					break
				}
			}
			require.GreaterOrEqual(t, idx, 0)

			require.NoError(t, fx.manager.PlayCard(ctx, current.ID, room.ID, idx))
		}
	}

	// Then: after every seat chose trump once the game is over
	assert.Equal(t, entity.PhaseGameOver, room.Phase)
	assert.Equal(t, []entity.Suit{entity.SuitSpades, entity.SuitSpades}, room.TrumpHistory)

	// Then: both rounds were scored and the final tally went out
	assert.Len(t, fx.notifier.byAction(ActionRoundEnd), 2)
	ends := fx.notifier.byAction(ActionGameEnd)
	require.Len(t, ends, 1)
	final, ok := ends[0].Payload.(GameEndPayload)
	require.True(t, ok)
	assert.Len(t, final.TrumpHistory, 2)

	// Then: the room is discarded and both sessions detach from it
	_, err = fx.rooms.GetByID(ctx, room.ID)
	require.ErrorIs(t, err, repository.ErrRoomNotFound)

	session, err := fx.sessions.GetByID(ctx, "p0")
	require.NoError(t, err)
	assert.Empty(t, session.RoomID)
}

func TestRoomManager_Disconnect(t *testing.T) {
	t.Run("leaving a forming room frees the seat", func(t *testing.T) {
		fx := newFixture(t)
		ctx := context.Background()

		room, err := fx.manager.CreateRoom(ctx, "p0", "alice", 4)
		require.NoError(t, err)
		_, err = fx.manager.JoinRoom(ctx, "p1", "bob", room.ID)
		require.NoError(t, err)

		// When: the creator drops before the game starts
		require.NoError(t, fx.manager.Disconnect(ctx, "p0"))

		// Then: the seat is freed and the room survives
		assert.Equal(t, -1, room.SeatOf("p0"))
		assert.Equal(t, 0, room.SeatOf("p1"))
		_, err = fx.rooms.GetByID(ctx, room.ID)
		require.NoError(t, err)
	})

	t.Run("the last leaver dissolves the room", func(t *testing.T) {
		fx := newFixture(t)
		ctx := context.Background()

		room, err := fx.manager.CreateRoom(ctx, "p0", "alice", 4)
		require.NoError(t, err)

		require.NoError(t, fx.manager.Disconnect(ctx, "p0"))

		_, err = fx.rooms.GetByID(ctx, room.ID)
		require.ErrorIs(t, err, repository.ErrRoomNotFound)
	})

	t.Run("dropping mid-game aborts it", func(t *testing.T) {
		fx := newFixture(t)
		ctx := context.Background()

		room, err := fx.manager.CreateRoom(ctx, "p0", "alice", 2)
		require.NoError(t, err)
		_, err = fx.manager.JoinRoom(ctx, "p1", "bob", room.ID)
		require.NoError(t, err)
		require.True(t, room.Started)

		// When: a seated player drops mid-game
		require.NoError(t, fx.manager.Disconnect(ctx, "p0"))

		// Then: the abort is announced and the room is discarded
		aborts := fx.notifier.byAction(ActionGameAborted)
		require.Len(t, aborts, 1)
		payload, ok := aborts[0].Payload.(GameAbortedPayload)
		require.True(t, ok)
		assert.Equal(t, "alice", payload.Player)

		_, err = fx.rooms.GetByID(ctx, room.ID)
		require.ErrorIs(t, err, repository.ErrRoomNotFound)
	})

	t.Run("an unknown session is a no-op", func(t *testing.T) {
		fx := newFixture(t)

		require.NoError(t, fx.manager.Disconnect(context.Background(), "ghost"))
	})
}
