package orch

import (
	"encoding/json"
	"fmt"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Media kinds for SetMedia.
type MediaKind int

const (
	MediaVideo MediaKind = iota
	MediaAudio
)

// SetMedia records a video or audio toggle and tells the rest of the room.
func (o *Orchestrator) SetMedia(roomID domain.RoomID, id domain.ParticipantID, kind MediaKind, enabled bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	p, ok := o.actorLocked(roomID, id)
	if !ok {
		return
	}
	typ := protocol.TypeUserVideoToggle
	if kind == MediaAudio {
		p.AudioEnabled = enabled
		typ = protocol.TypeUserAudioToggle
	} else {
		p.VideoEnabled = enabled
	}
	o.broadcastLocked(p.RoomID, protocol.MediaToggle{
		Type:          typ,
		ParticipantID: id,
		DisplayName:   p.DisplayName,
		Enabled:       enabled,
		Timestamp:     o.now(),
	}, id)
}

// ScreenShare announces a screen share start or stop to everyone but the
// sharer.
func (o *Orchestrator) ScreenShare(roomID domain.RoomID, id domain.ParticipantID, started bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	p, ok := o.actorLocked(roomID, id)
	if !ok {
		return
	}
	typ := protocol.TypeScreenShareStopped
	if started {
		typ = protocol.TypeScreenShareStarted
	}
	o.broadcastLocked(p.RoomID, protocol.ParticipantNotice{
		Type:          typ,
		ParticipantID: id,
		DisplayName:   p.DisplayName,
		Timestamp:     o.now(),
	}, id)
}

// SendMessage fans a chat line out to the whole room, sender included.
func (o *Orchestrator) SendMessage(roomID domain.RoomID, id domain.ParticipantID, text string) error {
	if text == "" {
		return fmt.Errorf("%w: message is required", domain.ErrInvalidRequest)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	p, ok := o.actorLocked(roomID, id)
	if !ok {
		return nil
	}
	o.broadcastLocked(p.RoomID, protocol.ChatMessage{
		Type:          protocol.TypeReceiveMessage,
		ParticipantID: id,
		DisplayName:   p.DisplayName,
		Message:       text,
		Timestamp:     o.now(),
	}, "")
	return nil
}

// ShareFile announces shared file metadata to the whole room. The file
// itself travels peer to peer.
func (o *Orchestrator) ShareFile(roomID domain.RoomID, id domain.ParticipantID, info json.RawMessage) error {
	if len(info) == 0 {
		return fmt.Errorf("%w: file_info is required", domain.ErrInvalidRequest)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	p, ok := o.actorLocked(roomID, id)
	if !ok {
		return nil
	}
	o.broadcastLocked(p.RoomID, protocol.FileShared{
		Type:          protocol.TypeFileShared,
		ParticipantID: id,
		DisplayName:   p.DisplayName,
		FileInfo:      info,
		Timestamp:     o.now(),
	}, "")
	return nil
}

// Recording announces that a participant started or stopped recording.
func (o *Orchestrator) Recording(roomID domain.RoomID, id domain.ParticipantID, started bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	p, ok := o.actorLocked(roomID, id)
	if !ok {
		return
	}
	typ := protocol.TypeRecordingStopped
	if started {
		typ = protocol.TypeRecordingStarted
	}
	o.broadcastLocked(p.RoomID, protocol.ParticipantNotice{
		Type:          typ,
		ParticipantID: id,
		DisplayName:   p.DisplayName,
		Timestamp:     o.now(),
	}, "")
}

// Mute tells the room, target included, that actor asked target to mute.
// The target's own client applies it and reports back with a toggle.
func (o *Orchestrator) Mute(roomID domain.RoomID, target, actor domain.ParticipantID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	p, ok := o.actorLocked(roomID, target)
	if !ok {
		return
	}
	notice := protocol.ParticipantMuted{
		Type:       protocol.TypeParticipantMuted,
		TargetID:   target,
		TargetName: p.DisplayName,
		ActorID:    actor,
		Timestamp:  o.now(),
	}
	if a, ok := o.Directory.Get(actor); ok {
		notice.ActorName = a.DisplayName
	}
	o.broadcastLocked(p.RoomID, notice, "")
}

// RequestParticipants replies to conn only with the room's current members.
func (o *Orchestrator) RequestParticipants(conn core.SignalConnection, roomID domain.RoomID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	views := []domain.ParticipantView{}
	if room, ok := o.Rooms.GetRoom(roomID); ok {
		views = o.Directory.Views(room.Members())
	}
	o.replyLocked(conn, protocol.ParticipantsList{
		Type:         protocol.TypeParticipantsList,
		RoomID:       roomID,
		Participants: views,
	})
}

// UpdateSettings acknowledges client settings back to the sender. Settings
// are not stored.
func (o *Orchestrator) UpdateSettings(conn core.SignalConnection, id domain.ParticipantID, settings json.RawMessage) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if id == "" {
		id, _ = o.Registry.Owner(conn.ID())
	}
	log.Debug().Str("module", "orch").Str("participant", string(id)).Msg("settings updated")
	o.replyLocked(conn, protocol.SettingsUpdated{
		Type:          protocol.TypeSettingsUpdated,
		ParticipantID: id,
		Settings:      settings,
	})
}
