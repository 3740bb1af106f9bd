package signal

import (
	"errors"
	"fmt"

	"github.com/dkeye/Huddle/internal/app/orch"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/protocol"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleToggle(conn *WsSignalConn, id domain.ParticipantID, in protocol.Inbound) {
	if in.Enabled == nil {
		ctl.replyErr(conn, fmt.Errorf("%w: enabled is required", domain.ErrInvalidRequest))
		return
	}
	kind := orch.MediaVideo
	if in.Type == protocol.TypeToggleAudio {
		kind = orch.MediaAudio
	}
	ctl.Orch.SetMedia(in.RoomID, id, kind, *in.Enabled)
}

func (ctl *SignalWSController) handleScreenShare(id domain.ParticipantID, in protocol.Inbound) {
	ctl.Orch.ScreenShare(in.RoomID, id, in.Type == protocol.TypeScreenShareStart)
}

func (ctl *SignalWSController) handleRecording(id domain.ParticipantID, in protocol.Inbound) {
	ctl.Orch.Recording(in.RoomID, id, in.Type == protocol.TypeStartRecording)
}

func (ctl *SignalWSController) handleMessage(conn *WsSignalConn, id domain.ParticipantID, in protocol.Inbound) {
	if !ctl.allow(conn, id) {
		return
	}
	ctl.replyErr(conn, ctl.Orch.SendMessage(in.RoomID, id, in.Message))
}

func (ctl *SignalWSController) handleFileShare(conn *WsSignalConn, id domain.ParticipantID, in protocol.Inbound) {
	if !ctl.allow(conn, id) {
		return
	}
	ctl.replyErr(conn, ctl.Orch.ShareFile(in.RoomID, id, in.FileInfo))
}

// handleMute is sent by the actor; actor_id in the payload is ignored.
func (ctl *SignalWSController) handleMute(conn *WsSignalConn, actor domain.ParticipantID, in protocol.Inbound) {
	if in.TargetID == "" {
		ctl.replyErr(conn, fmt.Errorf("%w: target_id is required", domain.ErrInvalidRequest))
		return
	}
	ctl.Orch.Mute(in.RoomID, in.TargetID, actor)
}

func (ctl *SignalWSController) handleSettings(conn *WsSignalConn, id domain.ParticipantID, in protocol.Inbound) {
	ctl.Orch.UpdateSettings(conn, id, in.Settings)
}

func (ctl *SignalWSController) allow(conn *WsSignalConn, id domain.ParticipantID) bool {
	if ctl.Limiter.Allow(id) {
		return true
	}
	log.Warn().Str("module", "signal").Str("participant", string(id)).Msg("rate limited")
	ctl.sendError(conn, protocol.CodeRateLimited, errTooFast)
	return false
}

var errTooFast = errors.New("too many messages, slow down")
