package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/playdehla/dehla-backend/internal/entity"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomExists   = errors.New("room already exists")
)

type RoomRepository interface {
	Create(ctx context.Context, room *entity.Room) error
	GetByID(ctx context.Context, id string) (*entity.Room, error)
	DeleteByID(ctx context.Context, id string) error
}

// memRooms is the process-wide room registry. Rooms are ephemeral and
// never persisted: the map lives for the lifetime of the process and a
// room is discarded on game end or when its last seat disconnects. The
// registry lock guards only the map; each room serializes its own
// mutations through its own lock.
type memRooms struct {
	mu    sync.RWMutex
	rooms map[string]*entity.Room
}

func NewRoomRepository() RoomRepository {
	return &memRooms{
		rooms: make(map[string]*entity.Room),
	}
}

func (that *memRooms) Create(_ context.Context, room *entity.Room) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.rooms[room.ID]; ok {
		return fmt.Errorf("%w: %s", ErrRoomExists, room.ID)
	}

	that.rooms[room.ID] = room

	return nil
}

func (that *memRooms) GetByID(_ context.Context, id string) (*entity.Room, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	room, ok := that.rooms[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRoomNotFound, id)
	}

	return room, nil
}

func (that *memRooms) DeleteByID(_ context.Context, id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.rooms[id]; !ok {
		return fmt.Errorf("%w: %s", ErrRoomNotFound, id)
	}

	delete(that.rooms, id)

	return nil
}
