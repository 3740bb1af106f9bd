package domain

import "time"

// ParticipantView is the wire-safe copy of a Participant.
// No transport fields here.
type ParticipantView struct {
	ID           ParticipantID `json:"participant_id"`
	DisplayName  string        `json:"display_name"`
	RoomID       RoomID        `json:"room_id,omitempty"`
	JoinedAt     time.Time     `json:"joined_at"`
	VideoEnabled bool          `json:"video_enabled"`
	AudioEnabled bool          `json:"audio_enabled"`
}
