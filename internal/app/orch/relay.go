package orch

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/protocol"
	"github.com/rs/zerolog/log"
)

type SignalKind string

const (
	SignalOffer     SignalKind = "offer"
	SignalAnswer    SignalKind = "answer"
	SignalCandidate SignalKind = "candidate"
)

// EventType is the frame type a signal is delivered under.
func (k SignalKind) EventType() (string, bool) {
	switch k {
	case SignalOffer:
		return protocol.TypeSignalOffer, true
	case SignalAnswer:
		return protocol.TypeSignalAnswer, true
	case SignalCandidate:
		return protocol.TypeSignalCandidate, true
	}
	return "", false
}

// Signal is one handshake message. Payload is opaque and forwarded as is.
type Signal struct {
	Kind    SignalKind
	RoomID  domain.RoomID
	From    domain.ParticipantID
	To      domain.ParticipantID
	Payload json.RawMessage
}

// Relay forwards sig to the live connection of sig.To. A target without a
// session is dropped silently: it has left, and the sender learns that from
// user_left. Nothing is buffered or retried.
func (o *Orchestrator) Relay(conn core.SignalConnection, sig Signal) (bool, error) {
	typ, ok := sig.Kind.EventType()
	if !ok {
		return false, fmt.Errorf("%w: unknown signal kind %q", domain.ErrInvalidRequest, sig.Kind)
	}
	if sig.To == "" {
		return false, fmt.Errorf("%w: signal target is required", domain.ErrInvalidRequest)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if sig.From == "" && conn != nil {
		sig.From, _ = o.Registry.Owner(conn.ID())
	}
	if reason, ok := o.sameRoomLocked(&sig); !ok {
		log.Debug().
			Str("module", "orch.relay").
			Str("kind", string(sig.Kind)).
			Str("from", string(sig.From)).
			Str("to", string(sig.To)).
			Str("room_id", string(sig.RoomID)).
			Str("reason", reason).
			Msg("signal dropped")
		return false, nil
	}
	f, err := protocol.EncodeSignal(protocol.Signal{
		Type:    typ,
		From:    sig.From,
		RoomID:  sig.RoomID,
		Payload: sig.Payload,
	})
	if err != nil {
		log.Error().Err(err).Str("module", "orch.relay").Msg("encode signal")
		return false, nil
	}

	res := o.Dispatch.Deliver(sig.To, f)
	if !res.OK() {
		lvl := log.Warn()
		if errors.Is(res.Err, domain.ErrNotFound) {
			lvl = log.Debug()
		}
		lvl.Err(res.Err).
			Str("module", "orch.relay").
			Str("kind", string(sig.Kind)).
			Str("from", string(sig.From)).
			Str("to", string(sig.To)).
			Msg("signal dropped")
		return false, nil
	}
	log.Debug().Str("module", "orch.relay").Str("kind", string(sig.Kind)).Str("from", string(sig.From)).Str("to", string(sig.To)).Msg("signal relayed")
	return true, nil
}

// sameRoomLocked checks that sender and target are both members of the
// signal's room. An empty RoomID is filled in from the sender.
func (o *Orchestrator) sameRoomLocked(sig *Signal) (string, bool) {
	from, ok := o.Directory.Get(sig.From)
	if !ok {
		return "unknown sender", false
	}
	if sig.RoomID == "" {
		sig.RoomID = from.RoomID
	}
	if from.RoomID != sig.RoomID {
		return "sender not in room", false
	}
	to, ok := o.Directory.Get(sig.To)
	if !ok {
		return "unknown target", false
	}
	if to.RoomID != sig.RoomID {
		return "target not in room", false
	}
	return "", true
}
