package signal

import (
	"github.com/dkeye/CodeLens/internal/domain"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// Relay payloads are opaque; only reviewId is looked at.

func (ctl *SignalWSController) handleCursorMove(sid domain.ConnID, conn *WsSignalConn, data []byte) {
	var p struct {
		ReviewID string          `json:"reviewId"`
		Position json.RawMessage `json:"position"`
	}
	if !ctl.decode(conn, EventCursorMove, data, &p) {
		return
	}
	ctl.relayResult(conn, EventCursorMove, ctl.Orch.CursorMove(sid, p.ReviewID, p.Position))
}

func (ctl *SignalWSController) handleSelectionChange(sid domain.ConnID, conn *WsSignalConn, data []byte) {
	var p struct {
		ReviewID  string          `json:"reviewId"`
		Selection json.RawMessage `json:"selection"`
	}
	if !ctl.decode(conn, EventSelectionChange, data, &p) {
		return
	}
	ctl.relayResult(conn, EventSelectionChange, ctl.Orch.SelectionChange(sid, p.ReviewID, p.Selection))
}

func (ctl *SignalWSController) handleCodeChange(sid domain.ConnID, conn *WsSignalConn, data []byte) {
	var p struct {
		ReviewID string          `json:"reviewId"`
		Code     json.RawMessage `json:"code"`
		Changes  json.RawMessage `json:"changes"`
	}
	if !ctl.decode(conn, EventCodeChange, data, &p) {
		return
	}
	ctl.relayResult(conn, EventCodeChange, ctl.Orch.CodeChange(sid, p.ReviewID, p.Code, p.Changes))
}

func (ctl *SignalWSController) handleAddComment(sid domain.ConnID, conn *WsSignalConn, data []byte) {
	var p struct {
		ReviewID string          `json:"reviewId"`
		Comment  json.RawMessage `json:"comment"`
	}
	if !ctl.decode(conn, EventAddComment, data, &p) {
		return
	}
	ctl.relayResult(conn, EventAddComment, ctl.Orch.AddComment(sid, p.ReviewID, p.Comment))
}

func (ctl *SignalWSController) decode(conn *WsSignalConn, event string, data []byte, v any) bool {
	if err := json.Unmarshal(data, v); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("type", event).Msg("bad relay payload")
		ctl.nack(conn, event, errBadPayload)
		return false
	}
	return true
}

func (ctl *SignalWSController) relayResult(conn *WsSignalConn, event string, err error) {
	if err != nil {
		ctl.nack(conn, event, err)
	}
}
