package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/dkeye/Huddle/internal/app/orch"
	"github.com/dkeye/Huddle/internal/config"
	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/protocol"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

type SignalWSController struct {
	Orch       *orch.Orchestrator
	Cfg        *config.Config
	ICEServers []webrtc.ICEServer
	Limiter    *RoomRateLimiter
}

func NewSignalWSController(o *orch.Orchestrator, cfg *config.Config, ice []webrtc.ICEServer) *SignalWSController {
	return &SignalWSController{
		Orch:       o,
		Cfg:        cfg,
		ICEServers: ice,
		Limiter:    NewRoomRateLimiter(cfg.ChatRateLimit, cfg.ChatRateInterval),
	}
}

// WsSignalConn is one browser connection. Sends go through a bounded
// buffer drained by writePump; a full buffer is reported, never waited on.
type WsSignalConn struct {
	id    core.ConnID
	token string
	conn  *websocket.Conn
	send  chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func newWsSignalConn(ws *websocket.Conn, token string, buffer int) *WsSignalConn {
	return &WsSignalConn{
		id:    core.ConnID(uuid.NewString()),
		token: token,
		conn:  ws,
		send:  make(chan core.Frame, buffer),
	}
}

func (c *WsSignalConn) ID() core.ConnID { return c.id }

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the request and runs the connection until either
// side closes it or ctx ends.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	token := c.GetString("client_token")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := newWsSignalConn(ws, token, ctl.Cfg.SendBuffer)
	log.Info().Str("module", "signal").Str("conn", string(conn.ID())).Str("token", token).Msg("new WS connection")

	ctl.sendJSON(conn, protocol.Connected{
		Type:       protocol.TypeConnected,
		ConnID:     string(conn.ID()),
		ICEServers: ctl.ICEServers,
	})

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go ctl.readPump(cancel, conn)
}

// sessionOf is the identity bound to c. Identities named in a payload are
// never trusted; a connection acts only as the participant it joined as.
func (ctl *SignalWSController) sessionOf(c *WsSignalConn) (domain.ParticipantID, bool) {
	return ctl.Orch.Registry.Owner(c.ID())
}

func (ctl *SignalWSController) sendJSON(c *WsSignalConn, v any) {
	b, err := protocol.Encode(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	if err := c.TrySend(b); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(c.ID())).Msg("sendJSON dropped")
	}
}

func (ctl *SignalWSController) sendError(c *WsSignalConn, code string, err error) {
	ctl.sendJSON(c, protocol.NewError(code, err.Error()))
}

// replyErr maps a coordinator error onto an error frame.
func (ctl *SignalWSController) replyErr(c *WsSignalConn, err error) {
	if err == nil {
		return
	}
	code := protocol.CodeInvalidRequest
	if !errors.Is(err, domain.ErrInvalidRequest) {
		log.Error().Err(err).Str("module", "signal").Str("conn", string(c.ID())).Msg("unexpected coordinator error")
	}
	ctl.sendError(c, code, err)
}
