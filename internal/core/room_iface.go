package core

import (
	"time"

	"github.com/dkeye/Huddle/internal/domain"
)

// RoomService is the core-facing API of a room.
// It owns the membership set but never touches transport resources.
type RoomService interface {
	Room() *domain.Room
	MemberCount() int
	// Members returns identities in join order.
	Members() []domain.ParticipantID
	HasMember(id domain.ParticipantID) bool

	AddMember(id domain.ParticipantID) bool
	RemoveMember(id domain.ParticipantID) bool
	Deactivate()
}

// RoomManager is the room table.
type RoomManager interface {
	GetOrCreate(id domain.RoomID, now time.Time) (RoomService, bool)
	GetRoom(id domain.RoomID) (RoomService, bool)
	List() []RoomService
	StopRoom(id domain.RoomID) bool
	Count() int
}
