package signal

import (
	"github.com/dkeye/CodeLens/internal/domain"
	"github.com/samber/lo"
)

func (ctl *SignalWSController) handleWhoAmI(
	sid domain.ConnID,
	conn *WsSignalConn,
) {
	resp := struct {
		Type     string             `json:"type"`
		SocketID domain.ConnID      `json:"socketId"`
		ReviewID domain.ReviewID    `json:"reviewId,omitempty"`
		Self     *domain.ActiveUser `json:"self,omitempty"`
	}{
		Type:     "whoami",
		SocketID: sid,
	}
	if reviewID, ok := ctl.Orch.Rooms.RoomOf(sid); ok {
		resp.ReviewID = reviewID
		if p, ok := lo.Find(ctl.Orch.Rooms.ListParticipants(reviewID), func(p domain.Participant) bool {
			return p.ConnID == sid
		}); ok {
			view := p.View()
			resp.Self = &view
		}
	}
	ctl.sendJSON(conn, resp)
}
