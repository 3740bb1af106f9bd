package core

import (
	"slices"
	"sync"

	"github.com/dkeye/Huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

// roomImpl is a threadsafe in-memory room.
// Membership keeps insertion order so listings are stable.
type roomImpl struct {
	room    *domain.Room
	mu      sync.RWMutex
	order   []domain.ParticipantID
	members map[domain.ParticipantID]struct{}
}

func NewRoomService(room *domain.Room) RoomService {
	return &roomImpl{
		room:    room,
		members: make(map[domain.ParticipantID]struct{}),
	}
}

func (r *roomImpl) Room() *domain.Room { return r.room }

func (r *roomImpl) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

func (r *roomImpl) Members() []domain.ParticipantID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

func (r *roomImpl) HasMember(id domain.ParticipantID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.members[id]
	return ok
}

func (r *roomImpl) AddMember(id domain.ParticipantID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[id]; ok {
		return false
	}
	r.members[id] = struct{}{}
	r.order = append(r.order, id)
	log.Debug().Str("module", "core.room").Str("room_id", string(r.room.ID)).Str("participant", string(id)).Msg("member added")
	return true
}

func (r *roomImpl) RemoveMember(id domain.ParticipantID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[id]; !ok {
		return false
	}
	delete(r.members, id)
	r.order = slices.DeleteFunc(r.order, func(m domain.ParticipantID) bool { return m == id })
	log.Debug().Str("module", "core.room").Str("room_id", string(r.room.ID)).Str("participant", string(id)).Msg("member removed")
	return true
}

func (r *roomImpl) Deactivate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.room.Active = false
}
