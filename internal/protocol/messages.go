// Package protocol defines the JSON frames exchanged with call clients.
// Every frame is an object with a "type" discriminator.
package protocol

import (
	"encoding/json"
	"time"

	"github.com/dkeye/Huddle/internal/domain"
	"github.com/pion/webrtc/v4"
)

// Inbound event types.
const (
	TypeJoinRoom            = "join_room"
	TypeLeaveRoom           = "leave_room"
	TypeSendMessage         = "send_message"
	TypeToggleVideo         = "toggle_video"
	TypeToggleAudio         = "toggle_audio"
	TypeScreenShareStart    = "screen_share_start"
	TypeScreenShareStop     = "screen_share_stop"
	TypeSignalOffer         = "signal_offer"
	TypeSignalAnswer        = "signal_answer"
	TypeSignalCandidate     = "signal_candidate"
	TypeStartRecording      = "start_recording"
	TypeStopRecording       = "stop_recording"
	TypeMuteParticipant     = "mute_participant"
	TypeRequestParticipants = "request_participants"
	TypeFileShare           = "file_share"
	TypeUpdateSettings      = "update_settings"
	TypePing                = "ping"
)

// Outbound event types.
const (
	TypeConnected          = "connected"
	TypeRoomJoined         = "room_joined"
	TypeUserJoined         = "user_joined"
	TypeUserLeft           = "user_left"
	TypeReceiveMessage     = "receive_message"
	TypeUserVideoToggle    = "user_video_toggle"
	TypeUserAudioToggle    = "user_audio_toggle"
	TypeScreenShareStarted = "screen_share_started"
	TypeScreenShareStopped = "screen_share_stopped"
	TypeRecordingStarted   = "recording_started"
	TypeRecordingStopped   = "recording_stopped"
	TypeParticipantMuted   = "participant_muted"
	TypeParticipantsList   = "participants_list"
	TypeRoomClosed         = "room_closed"
	TypeFileShared         = "file_shared"
	TypeSettingsUpdated    = "settings_updated"
	TypePong               = "pong"
	TypeError              = "error"
)

// Error codes carried by TypeError frames.
const (
	CodeInvalidRequest = "invalid_request"
	CodeRateLimited    = "rate_limited"
	CodeBadPayload     = "bad_payload"
)

// Inbound is the union of every client event. Fields not used by a given
// type are left empty.
type Inbound struct {
	Type          string               `json:"type"`
	RoomID        domain.RoomID        `json:"room_id,omitempty"`
	DisplayName   string               `json:"display_name,omitempty"`
	ParticipantID domain.ParticipantID `json:"participant_id,omitempty"`
	Message       string               `json:"message,omitempty"`
	Enabled       *bool                `json:"enabled,omitempty"`
	From          domain.ParticipantID `json:"from,omitempty"`
	To            domain.ParticipantID `json:"to,omitempty"`
	Payload       json.RawMessage      `json:"payload,omitempty"`
	TargetID      domain.ParticipantID `json:"target_id,omitempty"`
	ActorID       domain.ParticipantID `json:"actor_id,omitempty"`
	FileInfo      json.RawMessage      `json:"file_info,omitempty"`
	Settings      json.RawMessage      `json:"settings,omitempty"`
}

func Decode(data []byte) (Inbound, error) {
	var in Inbound
	err := json.Unmarshal(data, &in)
	return in, err
}

func Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Connected is the first frame on every connection.
type Connected struct {
	Type       string             `json:"type"`
	ConnID     string             `json:"conn_id"`
	ICEServers []webrtc.ICEServer `json:"ice_servers"`
}

type Pong struct {
	Type string `json:"type"`
}

type RoomJoined struct {
	Type              string                   `json:"type"`
	ParticipantID     domain.ParticipantID     `json:"participant_id"`
	RoomID            domain.RoomID            `json:"room_id"`
	RoomName          string                   `json:"room_name"`
	Participants      []domain.ParticipantView `json:"participants"`
	OtherParticipants []domain.ParticipantView `json:"other_participants"`
}

// Presence covers user_joined and user_left.
type Presence struct {
	Type          string               `json:"type"`
	ParticipantID domain.ParticipantID `json:"participant_id"`
	DisplayName   string               `json:"display_name"`
	RoomID        domain.RoomID        `json:"room_id"`
	Timestamp     time.Time            `json:"timestamp"`
}

type ChatMessage struct {
	Type          string               `json:"type"`
	ParticipantID domain.ParticipantID `json:"participant_id"`
	DisplayName   string               `json:"display_name"`
	Message       string               `json:"message"`
	Timestamp     time.Time            `json:"timestamp"`
}

type MediaToggle struct {
	Type          string               `json:"type"`
	ParticipantID domain.ParticipantID `json:"participant_id"`
	DisplayName   string               `json:"display_name"`
	Enabled       bool                 `json:"enabled"`
	Timestamp     time.Time            `json:"timestamp"`
}

// ParticipantNotice covers screen share and recording notices.
type ParticipantNotice struct {
	Type          string               `json:"type"`
	ParticipantID domain.ParticipantID `json:"participant_id"`
	DisplayName   string               `json:"display_name,omitempty"`
	Timestamp     time.Time            `json:"timestamp"`
}

type ParticipantMuted struct {
	Type       string               `json:"type"`
	TargetID   domain.ParticipantID `json:"target_id"`
	TargetName string               `json:"target_name"`
	ActorID    domain.ParticipantID `json:"actor_id"`
	ActorName  string               `json:"actor_name,omitempty"`
	Timestamp  time.Time            `json:"timestamp"`
}

type ParticipantsList struct {
	Type         string                   `json:"type"`
	RoomID       domain.RoomID            `json:"room_id"`
	Participants []domain.ParticipantView `json:"participants"`
}

// Signal is a relayed offer, answer or candidate. Payload is forwarded as
// received.
type Signal struct {
	Type    string               `json:"type"`
	From    domain.ParticipantID `json:"from"`
	RoomID  domain.RoomID        `json:"room_id"`
	Payload json.RawMessage      `json:"payload"`
}

type signalHeader struct {
	Type   string               `json:"type"`
	From   domain.ParticipantID `json:"from"`
	RoomID domain.RoomID        `json:"room_id"`
}

// EncodeSignal splices the payload into the frame verbatim. json.Marshal
// would compact and re-escape a RawMessage.
func EncodeSignal(s Signal) ([]byte, error) {
	head, err := json.Marshal(signalHeader{Type: s.Type, From: s.From, RoomID: s.RoomID})
	if err != nil {
		return nil, err
	}
	payload := []byte(s.Payload)
	if len(payload) == 0 {
		payload = []byte("null")
	}
	out := make([]byte, 0, len(head)+len(payload)+12)
	out = append(out, head[:len(head)-1]...)
	out = append(out, `,"payload":`...)
	out = append(out, payload...)
	out = append(out, '}')
	return out, nil
}

type RoomClosed struct {
	Type   string        `json:"type"`
	RoomID domain.RoomID `json:"room_id"`
}

type FileShared struct {
	Type          string               `json:"type"`
	ParticipantID domain.ParticipantID `json:"participant_id"`
	DisplayName   string               `json:"display_name"`
	FileInfo      json.RawMessage      `json:"file_info"`
	Timestamp     time.Time            `json:"timestamp"`
}

type SettingsUpdated struct {
	Type          string               `json:"type"`
	ParticipantID domain.ParticipantID `json:"participant_id"`
	Settings      json.RawMessage      `json:"settings"`
}

type Error struct {
	Type  string `json:"type"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

func NewError(code, msg string) Error {
	return Error{Type: TypeError, Code: code, Error: msg}
}
