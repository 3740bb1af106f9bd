package domain

import (
	"time"

	"github.com/google/uuid"
)

type RoomID string

const roomNamePrefixLen = 8

// Room is room metadata. Membership lives in core.RoomService.
type Room struct {
	ID        RoomID
	Name      string
	CreatedAt time.Time
	Active    bool
}

func NewRoom(id RoomID, createdAt time.Time) *Room {
	return &Room{
		ID:        id,
		Name:      RoomName(id),
		CreatedAt: createdAt,
		Active:    true,
	}
}

func NewRoomID() RoomID {
	return RoomID(uuid.NewString())
}

// RoomName derives the display name from the identifier prefix.
func RoomName(id RoomID) string {
	s := string(id)
	if len(s) > roomNamePrefixLen {
		s = s[:roomNamePrefixLen]
	}
	return "Room " + s
}

// RoomView is the listing/snapshot shape of a room.
type RoomView struct {
	ID               RoomID            `json:"room_id"`
	Name             string            `json:"name"`
	CreatedAt        time.Time         `json:"created_at"`
	Active           bool              `json:"is_active"`
	ParticipantCount int               `json:"participant_count"`
	Participants     []ParticipantView `json:"participants,omitempty"`
}
