package orch

import (
	"context"
	"reflect"
	"strings"

	"github.com/dkeye/CodeLens/internal/app"
	"github.com/dkeye/CodeLens/internal/core"
	"github.com/dkeye/CodeLens/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

// Orchestrator is the session gateway and event relay. It owns no state of
// its own: connections live in Registry, memberships in Rooms.
type Orchestrator struct {
	Registry *app.Registry
	Rooms    core.RoomManager
	Policy   app.Policy

	validate *validator.Validate
}

func New(reg *app.Registry, rooms core.RoomManager, policy app.Policy) *Orchestrator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Orchestrator{
		Registry: reg,
		Rooms:    rooms,
		Policy:   policy,
		validate: v,
	}
}

// Connect registers a fresh transport connection in the Connected state.
func (o *Orchestrator) Connect(sid domain.ConnID, client string, conn core.SignalConnection, cancel context.CancelFunc) {
	o.Registry.BindSignal(sid, client, conn, cancel)
}

// send is point-to-point; a failed delivery is dropped.
func (o *Orchestrator) send(sid domain.ConnID, conn core.SignalConnection, v any) {
	frame, err := encode(v)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("encode")
		return
	}
	if err := conn.TrySend(frame); err != nil {
		log.Debug().Err(err).Str("module", "orch").Str("sid", string(sid)).Msg("delivery dropped")
	}
}

// deliver sends to an explicit member snapshot. It may run under the room
// manager lock; kicks only cancel the connection and never re-enter it.
func (o *Orchestrator) deliver(room core.RoomService, targets []core.MemberSession, v any) {
	if len(targets) == 0 {
		return
	}
	frame, err := encode(v)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("encode")
		return
	}
	var dropped []core.MemberSession
	for _, m := range targets {
		if err := m.Signal().TrySend(frame); err != nil {
			dropped = append(dropped, m)
		}
	}
	o.onDropped(room, dropped)
}

// publish fans out to the room's current members except from, unless self
// is set.
func (o *Orchestrator) publish(room core.RoomService, from domain.ConnID, self bool, v any) error {
	frame, err := encode(v)
	if err != nil {
		return err
	}
	res, err := room.Broadcast(from, frame, self)
	if err != nil {
		return err
	}
	o.onDropped(room, res.Dropped)
	return nil
}

func (o *Orchestrator) onDropped(room core.RoomService, dropped []core.MemberSession) {
	if o.Policy == nil {
		return
	}
	for _, slow := range dropped {
		sid := slow.Meta().ConnID
		switch o.Policy.OnBackPressure(room, slow) {
		case app.KickMember:
			log.Warn().Str("module", "orch").Str("sid", string(sid)).Msg("kicking slow member")
			o.Registry.Cancel(sid)
		case app.DropFrame, app.NoAction:
			log.Debug().Str("module", "orch").Str("sid", string(sid)).Msg("frame dropped")
		}
	}
}
