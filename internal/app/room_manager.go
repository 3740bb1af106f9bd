package app

import (
	"slices"
	"sync"
	"time"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

// RoomManagerImpl is the room table.
type RoomManagerImpl struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]core.RoomService
}

func NewRoomManager() core.RoomManager {
	return &RoomManagerImpl{rooms: make(map[domain.RoomID]core.RoomService)}
}

// GetOrCreate returns the room for id, creating an active empty one if it is
// unknown. The bool reports whether it was created.
func (f *RoomManagerImpl) GetOrCreate(id domain.RoomID, now time.Time) (core.RoomService, bool) {
	f.mu.RLock()
	room, ok := f.rooms[id]
	f.mu.RUnlock()
	if ok {
		return room, false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if room, ok = f.rooms[id]; ok {
		return room, false
	}
	room = core.NewRoomService(domain.NewRoom(id, now))
	f.rooms[id] = room
	log.Info().Str("module", "app.rooms").Str("room_id", string(id)).Msg("room created")
	return room, true
}

func (f *RoomManagerImpl) GetRoom(id domain.RoomID) (core.RoomService, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	room, ok := f.rooms[id]
	return room, ok
}

// List returns rooms ordered by creation time.
func (f *RoomManagerImpl) List() []core.RoomService {
	f.mu.RLock()
	out := make([]core.RoomService, 0, len(f.rooms))
	for _, r := range f.rooms {
		out = append(out, r)
	}
	f.mu.RUnlock()
	slices.SortFunc(out, func(a, b core.RoomService) int {
		if c := a.Room().CreatedAt.Compare(b.Room().CreatedAt); c != 0 {
			return c
		}
		if a.Room().ID < b.Room().ID {
			return -1
		}
		return 1
	})
	return out
}

func (f *RoomManagerImpl) StopRoom(id domain.RoomID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[id]
	if !ok {
		return false
	}
	room.Deactivate()
	delete(f.rooms, id)
	log.Info().Str("module", "app.rooms").Str("room_id", string(id)).Msg("room stopped")
	return true
}

func (f *RoomManagerImpl) Count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.rooms)
}
