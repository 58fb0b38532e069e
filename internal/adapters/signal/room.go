package signal

import (
	"github.com/dkeye/CodeLens/internal/app/orch"
	"github.com/dkeye/CodeLens/internal/core"
	"github.com/dkeye/CodeLens/internal/domain"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleJoin(
	sid domain.ConnID,
	conn *WsSignalConn,
	data []byte,
) {
	if !ctl.Limiter.Allow(sid) {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("join rate limited")
		ctl.nack(conn, EventJoin, core.ErrRateLimited)
		return
	}

	var p orch.JoinRequest
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.nack(conn, EventJoin, errBadPayload)
		return
	}

	if _, err := ctl.Orch.Join(sid, p); err != nil {
		log.Info().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("room", p.ReviewID).Msg("join rejected")
		ctl.nack(conn, EventJoin, err)
	}
}

// handleLeave leaves the current review; the connection stays open.
func (ctl *SignalWSController) handleLeave(
	sid domain.ConnID,
	conn *WsSignalConn,
) {
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("leave")
	ctl.Orch.Leave(sid)
	ctl.sendJSON(conn, typedMessage{Type: "left"})
}
