package app

import (
	"sync"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

// Registry is the session registry: participant identity -> live connection,
// plus the reverse index used when a transport reports closure.
type Registry struct {
	mu       sync.RWMutex
	sessions map[domain.ParticipantID]core.SignalConnection
	owners   map[core.ConnID]domain.ParticipantID
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[domain.ParticipantID]core.SignalConnection),
		owners:   make(map[core.ConnID]domain.ParticipantID),
	}
}

// Bind records conn as the live handle for id. A previous handle for id is
// replaced (last writer wins) and returned.
func (r *Registry) Bind(id domain.ParticipantID, conn core.SignalConnection) core.SignalConnection {
	r.mu.Lock()
	defer r.mu.Unlock()

	if other, ok := r.owners[conn.ID()]; ok && other != id {
		if cur, ok := r.sessions[other]; ok && cur.ID() == conn.ID() {
			delete(r.sessions, other)
		}
	}
	prev, hadPrev := r.sessions[id]
	if hadPrev && prev.ID() != conn.ID() {
		if r.owners[prev.ID()] == id {
			delete(r.owners, prev.ID())
		}
	}
	r.sessions[id] = conn
	r.owners[conn.ID()] = id
	log.Info().Str("module", "app.registry").Str("participant", string(id)).Str("conn", string(conn.ID())).Msg("bound session")
	if hadPrev && prev.ID() != conn.ID() {
		return prev
	}
	return nil
}

// Unbind drops the binding for id. Unknown ids are ignored.
func (r *Registry) Unbind(id domain.ParticipantID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.sessions[id]
	if !ok {
		return
	}
	delete(r.sessions, id)
	if r.owners[conn.ID()] == id {
		delete(r.owners, conn.ID())
	}
	log.Info().Str("module", "app.registry").Str("participant", string(id)).Str("conn", string(conn.ID())).Msg("unbind session")
}

// ReleaseConn removes conn from the reverse index. It reports the identity
// conn was bound to and whether conn was still that identity's current
// handle; in that case the forward binding is removed too. A stale conn
// (superseded by a reconnect) never evicts the newer binding.
func (r *Registry) ReleaseConn(conn core.SignalConnection) (domain.ParticipantID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.owners[conn.ID()]
	if !ok {
		return "", false
	}
	delete(r.owners, conn.ID())
	cur, ok := r.sessions[id]
	if !ok || cur.ID() != conn.ID() {
		log.Debug().Str("module", "app.registry").Str("participant", string(id)).Str("conn", string(conn.ID())).Msg("stale conn released")
		return id, false
	}
	delete(r.sessions, id)
	log.Info().Str("module", "app.registry").Str("participant", string(id)).Str("conn", string(conn.ID())).Msg("released conn")
	return id, true
}

func (r *Registry) Lookup(id domain.ParticipantID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.sessions[id]
	return conn, ok
}

// Owner is the reverse lookup from a connection to its bound identity.
func (r *Registry) Owner(conn core.ConnID) (domain.ParticipantID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.owners[conn]
	return id, ok
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
