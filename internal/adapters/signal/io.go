package signal

import (
	"context"
	"errors"
	"time"

	"github.com/dkeye/CodeLens/internal/core"
	"github.com/dkeye/CodeLens/internal/domain"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Inbound message types.
const (
	EventJoin            = "join-review"
	EventLeave           = "leave-review"
	EventCursorMove      = "cursor-move"
	EventSelectionChange = "selection-change"
	EventCodeChange      = "code-change"
	EventAddComment      = "add-comment"
	EventPing            = "ping"
	EventWhoAmI          = "whoami"
)

func (ctl *SignalWSController) writePump(ctx context.Context, sid domain.ConnID, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Str("sid", string(sid)).Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Str("sid", string(sid)).Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.opts.WriteWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.opts.WriteWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("writePump ping error")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, sid domain.ConnID, c *WsSignalConn) {
	defer func() {
		log.Debug().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		c.Close()
	}()

	c.conn.SetReadLimit(ctl.opts.ReadLimit)
	extend := func() error { return c.conn.SetReadDeadline(time.Now().Add(ctl.opts.PongWait)) }
	_ = extend()
	c.conn.SetPongHandler(func(string) error { return extend() })

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Str("sid", string(sid)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
				}
				return
			}
			_ = extend()
			ctl.handleSignal(sid, c, data)
		}
	}
}

func (ctl *SignalWSController) handleSignal(sid domain.ConnID, c *WsSignalConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad json")
		ctl.nack(c, "", errBadPayload)
		return
	}

	switch env.Type {
	case EventJoin:
		ctl.handleJoin(sid, c, data)
	case EventLeave:
		ctl.handleLeave(sid, c)
	case EventCursorMove:
		ctl.handleCursorMove(sid, c, data)
	case EventSelectionChange:
		ctl.handleSelectionChange(sid, c, data)
	case EventCodeChange:
		ctl.handleCodeChange(sid, c, data)
	case EventAddComment:
		ctl.handleAddComment(sid, c, data)
	case EventPing:
		ctl.sendJSON(c, typedMessage{Type: "pong"})
	case EventWhoAmI:
		ctl.handleWhoAmI(sid, c)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
		ctl.nack(c, env.Type, errUnknownEvent)
	}
}

func (ctl *SignalWSController) sendJSON(c *WsSignalConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

var (
	errBadPayload   = errors.New("bad payload")
	errUnknownEvent = errors.New("unknown event")
)

// typedMessage is an outbound message without a payload.
type typedMessage struct {
	Type string `json:"type"`
}

type errorMessage struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

// nack tells the sender its message was rejected.
func (ctl *SignalWSController) nack(c *WsSignalConn, event string, err error) {
	ctl.sendJSON(c, errorMessage{
		Type:  "error",
		Event: event,
		Code:  errorCode(err),
		Error: err.Error(),
	})
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, core.ErrValidation), errors.Is(err, errBadPayload):
		return "invalid_payload"
	case errors.Is(err, core.ErrNotJoined):
		return "not_joined"
	case errors.Is(err, core.ErrRoomMismatch):
		return "room_mismatch"
	case errors.Is(err, core.ErrRoomFull):
		return "room_full"
	case errors.Is(err, core.ErrTooManyRooms):
		return "too_many_rooms"
	case errors.Is(err, core.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, errUnknownEvent):
		return "unknown_event"
	default:
		return "internal"
	}
}
