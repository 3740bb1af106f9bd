package signal

import (
	"strings"

	"github.com/dkeye/Huddle/internal/app/orch"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/protocol"
)

// handleRelay forwards an offer, answer or candidate to its target. The
// payload is never inspected.
func (ctl *SignalWSController) handleRelay(conn *WsSignalConn, from domain.ParticipantID, in protocol.Inbound) {
	kind := orch.SignalKind(strings.TrimPrefix(in.Type, "signal_"))
	_, err := ctl.Orch.Relay(conn, orch.Signal{
		Kind:    kind,
		RoomID:  in.RoomID,
		From:    from,
		To:      in.To,
		Payload: in.Payload,
	})
	ctl.replyErr(conn, err)
}
