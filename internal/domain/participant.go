// Package domain contains entities without transport or lifecycle logic.
package domain

import (
	"fmt"
	"strings"
	"time"

	petname "github.com/dustinkirkland/golang-petname"
	"github.com/google/uuid"
)

const (
	MaxParticipantIDLen = 64
	MaxDisplayNameLen   = 64
)

type ParticipantID string

// Participant is one user's presence in a room.
type Participant struct {
	ID           ParticipantID
	DisplayName  string
	RoomID       RoomID
	JoinedAt     time.Time
	VideoEnabled bool
	AudioEnabled bool
}

// NewParticipant builds a participant with media enabled, matching what
// clients assume before their first toggle.
func NewParticipant(id ParticipantID, displayName string, room RoomID, joinedAt time.Time) *Participant {
	return &Participant{
		ID:           id,
		DisplayName:  displayName,
		RoomID:       room,
		JoinedAt:     joinedAt,
		VideoEnabled: true,
		AudioEnabled: true,
	}
}

func NewParticipantID() ParticipantID {
	return ParticipantID(uuid.NewString())
}

// NormalizeDisplayName trims the name and substitutes a generated guest name
// when it is empty.
func NormalizeDisplayName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "guest-" + petname.Generate(2, "-"), nil
	}
	if len(name) > MaxDisplayNameLen {
		return "", fmt.Errorf("%w: display name longer than %d bytes", ErrInvalidRequest, MaxDisplayNameLen)
	}
	return name, nil
}

// ValidParticipantID reports whether a caller-supplied identity is usable.
func ValidParticipantID(id ParticipantID) bool {
	return id != "" && len(id) <= MaxParticipantIDLen
}

// View returns the read-only snapshot sent to clients.
func (p *Participant) View() ParticipantView {
	return ParticipantView{
		ID:           p.ID,
		DisplayName:  p.DisplayName,
		RoomID:       p.RoomID,
		JoinedAt:     p.JoinedAt,
		VideoEnabled: p.VideoEnabled,
		AudioEnabled: p.AudioEnabled,
	}
}
