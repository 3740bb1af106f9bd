package signal

import (
	"context"
	"fmt"
	"time"

	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/protocol"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.Cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Str("conn", string(c.ID())).Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Str("conn", string(c.ID())).Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.Cfg.WriteWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("conn", string(c.ID())).Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.Cfg.WriteWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().Err(err).Str("module", "signal").Str("conn", string(c.ID())).Msg("ping failed")
				return
			}
		}
	}
}

// readPump owns the read side. When it exits the connection is reaped, so
// every way a transport can die ends in exactly one Reap call here.
func (ctl *SignalWSController) readPump(cancel context.CancelFunc, c *WsSignalConn) {
	defer func() {
		id, _ := ctl.Orch.Registry.Owner(c.ID())
		if ctl.Orch.Reap(c) {
			ctl.Limiter.Forget(id)
		}
		cancel()
		c.Close()
		log.Info().Str("module", "signal").Str("conn", string(c.ID())).Msg("readPump closing")
	}()

	c.conn.SetReadLimit(ctl.Cfg.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(ctl.Cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(ctl.Cfg.PongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("module", "signal").Str("conn", string(c.ID())).Msg("readPump read error")
			}
			return
		}
		ctl.handleSignal(c, data)
	}
}

func (ctl *SignalWSController) handleSignal(c *WsSignalConn, data []byte) {
	in, err := protocol.Decode(data)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(c.ID())).Msg("bad json")
		ctl.sendError(c, protocol.CodeBadPayload, fmt.Errorf("malformed message: %w", err))
		return
	}

	if !requiresSession(in.Type) {
		switch in.Type {
		case protocol.TypeJoinRoom:
			ctl.handleJoin(c, in)
		case protocol.TypeRequestParticipants:
			ctl.handleRequestParticipants(c, in)
		case protocol.TypePing:
			ctl.handlePing(c)
		default:
			log.Warn().Str("module", "signal").Str("type", in.Type).Msg("unknown signal")
			ctl.sendError(c, protocol.CodeInvalidRequest, fmt.Errorf("%w: unknown event type %q", domain.ErrInvalidRequest, in.Type))
		}
		return
	}

	id, ok := ctl.sessionOf(c)
	if !ok {
		log.Warn().Str("module", "signal").Str("conn", string(c.ID())).Str("type", in.Type).Msg("event before join")
		ctl.sendError(c, protocol.CodeInvalidRequest, fmt.Errorf("%w: %s requires a joined room", domain.ErrInvalidRequest, in.Type))
		return
	}

	switch in.Type {
	case protocol.TypeLeaveRoom:
		ctl.handleLeave(c, id, in)
	case protocol.TypeSignalOffer, protocol.TypeSignalAnswer, protocol.TypeSignalCandidate:
		ctl.handleRelay(c, id, in)
	case protocol.TypeToggleVideo, protocol.TypeToggleAudio:
		ctl.handleToggle(c, id, in)
	case protocol.TypeScreenShareStart, protocol.TypeScreenShareStop:
		ctl.handleScreenShare(id, in)
	case protocol.TypeStartRecording, protocol.TypeStopRecording:
		ctl.handleRecording(id, in)
	case protocol.TypeSendMessage:
		ctl.handleMessage(c, id, in)
	case protocol.TypeFileShare:
		ctl.handleFileShare(c, id, in)
	case protocol.TypeMuteParticipant:
		ctl.handleMute(c, id, in)
	case protocol.TypeUpdateSettings:
		ctl.handleSettings(c, id, in)
	}
}

// requiresSession reports whether an event acts on behalf of a participant
// and so needs a bound connection.
func requiresSession(typ string) bool {
	switch typ {
	case protocol.TypeLeaveRoom,
		protocol.TypeSignalOffer, protocol.TypeSignalAnswer, protocol.TypeSignalCandidate,
		protocol.TypeToggleVideo, protocol.TypeToggleAudio,
		protocol.TypeScreenShareStart, protocol.TypeScreenShareStop,
		protocol.TypeStartRecording, protocol.TypeStopRecording,
		protocol.TypeSendMessage, protocol.TypeFileShare,
		protocol.TypeMuteParticipant, protocol.TypeUpdateSettings:
		return true
	}
	return false
}
