package orch

import (
	"fmt"
	"time"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/protocol"
	"github.com/rs/zerolog/log"
)

type JoinRequest struct {
	RoomID      domain.RoomID
	DisplayName string
	// ParticipantID is the caller's preferred identity. It is used only if
	// no reconnection match exists and nobody else holds it.
	ParticipantID domain.ParticipantID
}

type JoinResult struct {
	ParticipantID domain.ParticipantID
	RoomID        domain.RoomID
	RoomName      string
	// Participants includes the joiner; Others excludes it and is frozen at
	// the time of the call.
	Participants []domain.ParticipantView
	Others       []domain.ParticipantView
	Reconnected  bool
}

// Join adds the caller to a room, creating the room if needed, binds conn to
// the resulting identity and notifies the room.
//
// A member of the room with the same display name is treated as the same
// person reconnecting: its identity and join time are reused. Two different
// people picking the same name in one room are merged by this rule.
func (o *Orchestrator) Join(conn core.SignalConnection, req JoinRequest) (JoinResult, error) {
	if req.RoomID == "" {
		return JoinResult{}, fmt.Errorf("%w: room_id is required", domain.ErrInvalidRequest)
	}
	name, err := domain.NormalizeDisplayName(req.DisplayName)
	if err != nil {
		return JoinResult{}, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.now()

	// A connection carries one identity. Joining again under a different
	// name or room leaves the previous one first.
	if prevID, ok := o.Registry.Owner(conn.ID()); ok {
		if prev, ok := o.Directory.Get(prevID); ok && (prev.RoomID != req.RoomID || prev.DisplayName != name) {
			log.Info().Str("module", "orch").Str("participant", string(prevID)).Str("from_room", string(prev.RoomID)).Msg("leaving previous room")
			o.leaveLocked(prev.RoomID, prevID, prev.DisplayName)
		}
	}

	room, created := o.Rooms.GetOrCreate(req.RoomID, now)
	if created {
		log.Info().Str("module", "orch").Str("room_id", string(req.RoomID)).Msg("room created on join")
	}

	id, joinedAt, reconnected := o.resolveIdentityLocked(room, name, req.ParticipantID, now)
	o.Directory.Put(domain.NewParticipant(id, name, req.RoomID, joinedAt))
	room.AddMember(id)
	if prev := o.Registry.Bind(id, conn); prev != nil {
		log.Info().Str("module", "orch").Str("participant", string(id)).Str("old_conn", string(prev.ID())).Msg("session replaced")
	}

	all := o.Directory.Views(room.Members())
	others := make([]domain.ParticipantView, 0, len(all))
	for _, v := range all {
		if v.ID != id {
			others = append(others, v)
		}
	}

	res := JoinResult{
		ParticipantID: id,
		RoomID:        req.RoomID,
		RoomName:      room.Room().Name,
		Participants:  all,
		Others:        others,
		Reconnected:   reconnected,
	}

	o.replyLocked(conn, protocol.RoomJoined{
		Type:              protocol.TypeRoomJoined,
		ParticipantID:     id,
		RoomID:            req.RoomID,
		RoomName:          res.RoomName,
		Participants:      all,
		OtherParticipants: others,
	})
	if len(others) > 0 {
		o.broadcastLocked(req.RoomID, protocol.Presence{
			Type:          protocol.TypeUserJoined,
			ParticipantID: id,
			DisplayName:   name,
			RoomID:        req.RoomID,
			Timestamp:     now,
		}, id)
	}

	log.Info().
		Str("module", "orch").
		Str("room_id", string(req.RoomID)).
		Str("participant", string(id)).
		Bool("reconnected", reconnected).
		Int("members", len(all)).
		Msg("joined")
	return res, nil
}

func (o *Orchestrator) resolveIdentityLocked(
	room core.RoomService,
	name string,
	candidate domain.ParticipantID,
	now time.Time,
) (domain.ParticipantID, time.Time, bool) {
	for _, mid := range room.Members() {
		if p, ok := o.Directory.Get(mid); ok && p.DisplayName == name {
			return mid, p.JoinedAt, true
		}
	}
	if domain.ValidParticipantID(candidate) {
		if _, taken := o.Directory.Get(candidate); !taken {
			return candidate, now, false
		}
	}
	return domain.NewParticipantID(), now, false
}

// Leave removes id from the room. Unknown rooms or identities are a no-op.
func (o *Orchestrator) Leave(roomID domain.RoomID, id domain.ParticipantID, displayName string) error {
	if roomID == "" || id == "" {
		return fmt.Errorf("%w: room_id and participant_id are required", domain.ErrInvalidRequest)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.leaveLocked(roomID, id, displayName)
	return nil
}

// leaveLocked removes membership, the participant record and the session
// binding, then tells the rest of the room. The recorded display name wins
// over displayName, which only fills in for an already-removed record. The
// room itself is kept even when it becomes empty. Reports whether
// membership changed.
func (o *Orchestrator) leaveLocked(roomID domain.RoomID, id domain.ParticipantID, displayName string) bool {
	removed := false
	if room, ok := o.Rooms.GetRoom(roomID); ok {
		removed = room.RemoveMember(id)
	}
	if p, ok := o.Directory.Get(id); ok && p.RoomID == roomID {
		o.Directory.Remove(id)
		o.Registry.Unbind(id)
		displayName = p.DisplayName
	}
	if !removed {
		return false
	}
	if displayName == "" {
		displayName = "Unknown"
	}
	o.broadcastLocked(roomID, protocol.Presence{
		Type:          protocol.TypeUserLeft,
		ParticipantID: id,
		DisplayName:   displayName,
		RoomID:        roomID,
		Timestamp:     o.now(),
	}, "")
	log.Info().Str("module", "orch").Str("room_id", string(roomID)).Str("participant", string(id)).Msg("left")
	return true
}

// Reap reconciles state after conn's transport closed. It is a no-op for a
// connection that never joined, that already left, or that has been
// superseded by a reconnect on another connection.
func (o *Orchestrator) Reap(conn core.SignalConnection) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	id, current := o.Registry.ReleaseConn(conn)
	if !current {
		log.Debug().Str("module", "orch").Str("conn", string(conn.ID())).Msg("reap: nothing bound")
		return false
	}
	p, ok := o.Directory.Get(id)
	if !ok {
		return false
	}
	log.Info().Str("module", "orch").Str("conn", string(conn.ID())).Str("participant", string(id)).Msg("reaping disconnected participant")
	return o.leaveLocked(p.RoomID, id, p.DisplayName)
}

// CreateRoom registers a fresh active room.
func (o *Orchestrator) CreateRoom() domain.RoomView {
	o.mu.Lock()
	defer o.mu.Unlock()
	room, _ := o.Rooms.GetOrCreate(domain.NewRoomID(), o.now())
	return o.roomViewLocked(room, false)
}

// GetRoom returns the room with its current participants.
func (o *Orchestrator) GetRoom(id domain.RoomID) (domain.RoomView, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	room, ok := o.Rooms.GetRoom(id)
	if !ok {
		return domain.RoomView{}, fmt.Errorf("%w: room %s", domain.ErrNotFound, id)
	}
	return o.roomViewLocked(room, true), nil
}

func (o *Orchestrator) ListActiveRooms() []domain.RoomView {
	o.mu.Lock()
	defer o.mu.Unlock()
	rooms := o.Rooms.List()
	out := make([]domain.RoomView, 0, len(rooms))
	for _, r := range rooms {
		if r.Room().Active {
			out = append(out, o.roomViewLocked(r, false))
		}
	}
	return out
}

// DeleteRoom tells every member the room is closed, then drops the room and
// its participants.
func (o *Orchestrator) DeleteRoom(id domain.RoomID) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	room, ok := o.Rooms.GetRoom(id)
	if !ok {
		return fmt.Errorf("%w: room %s", domain.ErrNotFound, id)
	}

	o.broadcastLocked(id, protocol.RoomClosed{Type: protocol.TypeRoomClosed, RoomID: id}, "")
	for _, mid := range room.Members() {
		room.RemoveMember(mid)
		if p, ok := o.Directory.Get(mid); ok && p.RoomID == id {
			o.Directory.Remove(mid)
			o.Registry.Unbind(mid)
		}
	}
	o.Rooms.StopRoom(id)
	log.Info().Str("module", "orch").Str("room_id", string(id)).Msg("room deleted")
	return nil
}

// Participant looks up a single participant.
func (o *Orchestrator) Participant(id domain.ParticipantID) (domain.ParticipantView, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	p, ok := o.Directory.Get(id)
	if !ok {
		return domain.ParticipantView{}, fmt.Errorf("%w: participant %s", domain.ErrNotFound, id)
	}
	return p.View(), nil
}

func (o *Orchestrator) roomViewLocked(room core.RoomService, withParticipants bool) domain.RoomView {
	r := room.Room()
	v := domain.RoomView{
		ID:               r.ID,
		Name:             r.Name,
		CreatedAt:        r.CreatedAt,
		Active:           r.Active,
		ParticipantCount: room.MemberCount(),
	}
	if withParticipants {
		v.Participants = o.Directory.Views(room.Members())
	}
	return v
}
