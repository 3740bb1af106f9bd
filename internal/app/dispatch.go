package app

import (
	"fmt"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

// Dispatcher delivers frames through Registry lookups made at send time.
// Individual failures never abort a fan-out and are never returned to the
// caller that triggered it; they are only handed to Policy.
type Dispatcher struct {
	Sessions *Registry
	Policy   Policy
}

func NewDispatcher(sessions *Registry, policy Policy) *Dispatcher {
	return &Dispatcher{Sessions: sessions, Policy: policy}
}

// Deliver sends f to the live connection of id.
func (d *Dispatcher) Deliver(id domain.ParticipantID, f core.Frame) core.DeliveryResult {
	conn, ok := d.Sessions.Lookup(id)
	if !ok {
		return core.DeliveryResult{Participant: id, Err: fmt.Errorf("%w: %s has no session", domain.ErrNotFound, id)}
	}
	return d.send(id, conn, f)
}

// SendConn sends f to conn regardless of binding; used for replies.
func (d *Dispatcher) SendConn(conn core.SignalConnection, f core.Frame) core.DeliveryResult {
	id, _ := d.Sessions.Owner(conn.ID())
	return d.send(id, conn, f)
}

// Broadcast sends f to every member except exclude.
func (d *Dispatcher) Broadcast(members []domain.ParticipantID, f core.Frame, exclude domain.ParticipantID) core.PublishResult {
	res := core.PublishResult{}
	for _, id := range members {
		if exclude != "" && id == exclude {
			continue
		}
		r := d.Deliver(id, f)
		if !r.OK() {
			res.Dropped = append(res.Dropped, r)
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "app.dispatch").Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

func (d *Dispatcher) send(id domain.ParticipantID, conn core.SignalConnection, f core.Frame) core.DeliveryResult {
	res := core.DeliveryResult{Participant: id, Conn: conn}
	if err := conn.TrySend(f); err != nil {
		res.Err = fmt.Errorf("%w: %w", domain.ErrDeliveryFailed, err)
		d.settle(res)
	}
	return res
}

func (d *Dispatcher) settle(res core.DeliveryResult) {
	log.Warn().Err(res.Err).Str("module", "app.dispatch").Str("participant", string(res.Participant)).Msg("delivery failed")
	if d.Policy == nil {
		return
	}
	switch d.Policy.OnDeliveryFailed(res) {
	case KickMember:
		res.Conn.Close()
	case DropFrame, NoAction:
	}
}
