package orch

import (
	"sync"
	"time"

	"github.com/dkeye/Huddle/internal/app"
	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Orchestrator is the room coordinator. It is the only writer of the room
// table and the participant directory, and every state change, together
// with the frames it produces, runs under mu. Sends never block, so holding
// mu across delivery keeps per-connection ordering consistent with state:
// a joiner always gets room_joined before any frame that references a
// later member.
type Orchestrator struct {
	mu sync.Mutex

	Registry  *app.Registry
	Directory *app.Directory
	Rooms     core.RoomManager
	Dispatch  *app.Dispatcher

	Now func() time.Time
}

func New(reg *app.Registry, dir *app.Directory, rooms core.RoomManager, policy app.Policy) *Orchestrator {
	return &Orchestrator{
		Registry:  reg,
		Directory: dir,
		Rooms:     rooms,
		Dispatch:  app.NewDispatcher(reg, policy),
		Now:       time.Now,
	}
}

// Stats is the introspection data exposed to the admin console.
type Stats struct {
	Rooms        int `json:"active_rooms"`
	Participants int `json:"active_users"`
	Connections  int `json:"connections"`
}

func (o *Orchestrator) Stats() Stats {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Stats{
		Rooms:        o.Rooms.Count(),
		Participants: o.Directory.Count(),
		Connections:  o.Registry.Count(),
	}
}

func (o *Orchestrator) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

func encode(v any) core.Frame {
	b, err := protocol.Encode(v)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("encode frame")
		return nil
	}
	return b
}

// broadcastLocked reads membership at send time. Caller holds mu.
func (o *Orchestrator) broadcastLocked(roomID domain.RoomID, v any, exclude domain.ParticipantID) core.PublishResult {
	room, ok := o.Rooms.GetRoom(roomID)
	if !ok {
		return core.PublishResult{}
	}
	f := encode(v)
	if f == nil {
		return core.PublishResult{}
	}
	return o.Dispatch.Broadcast(room.Members(), f, exclude)
}

func (o *Orchestrator) replyLocked(conn core.SignalConnection, v any) {
	if f := encode(v); f != nil {
		o.Dispatch.SendConn(conn, f)
	}
}

// actorLocked resolves the acting participant of a room event. Events for
// unknown participants, or for a room the participant is no longer in, are
// dropped.
func (o *Orchestrator) actorLocked(roomID domain.RoomID, id domain.ParticipantID) (*domain.Participant, bool) {
	p, ok := o.Directory.Get(id)
	if !ok {
		return nil, false
	}
	if roomID != "" && p.RoomID != roomID {
		return nil, false
	}
	return p, true
}
