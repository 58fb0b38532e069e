package orch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dkeye/CodeLens/internal/core"
	"github.com/dkeye/CodeLens/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// Join binds sid to a review room. A connection that already sits in a room
// leaves it first. Invalid requests change nothing.
func (o *Orchestrator) Join(sid domain.ConnID, req JoinRequest) (core.Admission, error) {
	req.ReviewID = strings.TrimSpace(req.ReviewID)
	req.UserID = strings.TrimSpace(req.UserID)
	req.Username = strings.TrimSpace(req.Username)
	if err := o.validateJoin(req); err != nil {
		return core.Admission{}, err
	}

	conn, ok := o.Registry.GetSignal(sid)
	if !ok {
		return core.Admission{}, core.ErrConnClosed
	}

	user := domain.NewUser(domain.UserID(req.UserID), req.Username)
	adm, err := o.Rooms.AddParticipant(domain.ReviewID(req.ReviewID), sid, *user, conn, announcer{o})
	if err != nil {
		return core.Admission{}, err
	}
	if adm.Previous != nil {
		log.Info().Str("module", "orch").Str("sid", string(sid)).Str("from_room", string(adm.Previous.ReviewID)).Msg("left previous room on join")
	}

	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", req.ReviewID).Str("user", req.UserID).Int("peers", len(adm.Peers)).Msg("joined")
	return adm, nil
}

func (o *Orchestrator) validateJoin(req JoinRequest) error {
	err := o.validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", core.ErrValidation, err)
	}
	msgs := lo.Map(verrs, func(fe validator.FieldError, _ int) string {
		if fe.Tag() == "required" {
			return fe.Field() + " is required"
		}
		return fmt.Sprintf("%s exceeds %s characters", fe.Field(), fe.Param())
	})
	return fmt.Errorf("%w: %s", core.ErrValidation, strings.Join(msgs, ", "))
}

// Leave takes sid out of its room and tells the remaining peers.
// It reports false when sid was not in any room.
func (o *Orchestrator) Leave(sid domain.ConnID) bool {
	dep, ok := o.Rooms.RemoveParticipant(sid, announcer{o})
	if !ok {
		return false
	}
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(dep.ReviewID)).Bool("room_closed", dep.Closed).Msg("left")
	return true
}

// OnDisconnect sweeps a closed connection. Repeated calls are no-ops.
func (o *Orchestrator) OnDisconnect(sid domain.ConnID) {
	o.Leave(sid)
	o.Registry.Unbind(sid)
}

// announcer turns membership changes into frames. It runs under the room
// manager lock, so a joiner's active-users and every user-left it sees
// agree with the registry.
type announcer struct{ o *Orchestrator }

var _ core.Notifier = announcer{}

func (a announcer) Admitted(adm core.Admission) {
	self := adm.Member.Meta().View()
	a.o.deliver(adm.Room, adm.Peers, UserJoined{Type: TypeUserJoined, ActiveUser: self})
	a.o.send(self.SocketID, adm.Member.Signal(), ActiveUsers{
		Type: TypeActiveUsers,
		Self: self,
		Users: lo.Map(adm.Peers, func(m core.MemberSession, _ int) domain.ActiveUser {
			return m.Meta().View()
		}),
	})
}

func (a announcer) Departed(dep core.Departure) {
	meta := dep.Member.Meta()
	a.o.deliver(dep.Room, dep.Peers, UserLeft{Type: TypeUserLeft, SocketID: meta.ConnID, UserID: meta.User.ID})
}
