package signal

import (
	"github.com/dkeye/Huddle/internal/app/orch"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/protocol"
	"github.com/rs/zerolog/log"
)

// handleJoin joins a room. Without an explicit identity the session cookie
// token is offered as the candidate, so a browser keeps its id across
// reloads when nobody else holds it.
func (ctl *SignalWSController) handleJoin(conn *WsSignalConn, in protocol.Inbound) {
	candidate := in.ParticipantID
	if candidate == "" {
		candidate = domain.ParticipantID(conn.token)
	}
	res, err := ctl.Orch.Join(conn, orch.JoinRequest{
		RoomID:        in.RoomID,
		DisplayName:   in.DisplayName,
		ParticipantID: candidate,
	})
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(conn.ID())).Msg("join rejected")
		ctl.replyErr(conn, err)
		return
	}
	log.Debug().Str("module", "signal").Str("conn", string(conn.ID())).Str("participant", string(res.ParticipantID)).Msg("join handled")
}

// handleLeave leaves the room; the connection stays open.
func (ctl *SignalWSController) handleLeave(conn *WsSignalConn, id domain.ParticipantID, in protocol.Inbound) {
	if err := ctl.Orch.Leave(in.RoomID, id, in.DisplayName); err != nil {
		ctl.replyErr(conn, err)
		return
	}
	ctl.Limiter.Forget(id)
}

func (ctl *SignalWSController) handleRequestParticipants(conn *WsSignalConn, in protocol.Inbound) {
	roomID := in.RoomID
	if roomID == "" {
		if id, ok := ctl.sessionOf(conn); ok {
			if p, err := ctl.Orch.Participant(id); err == nil {
				roomID = p.RoomID
			}
		}
	}
	ctl.Orch.RequestParticipants(conn, roomID)
}
