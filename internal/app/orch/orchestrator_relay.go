package orch

import (
	"fmt"

	"github.com/dkeye/CodeLens/internal/core"
	"github.com/dkeye/CodeLens/internal/domain"
	"github.com/goccy/go-json"
)

// joinedRoom resolves the room an event from sid is meant for. An empty
// reviewID means the joined room.
func (o *Orchestrator) joinedRoom(sid domain.ConnID, reviewID string) (core.RoomService, error) {
	id, ok := o.Rooms.RoomOf(sid)
	if !ok {
		return nil, core.ErrNotJoined
	}
	if reviewID != "" && domain.ReviewID(reviewID) != id {
		return nil, fmt.Errorf("%w: joined %q, got %q", core.ErrRoomMismatch, id, reviewID)
	}
	room, ok := o.Rooms.GetRoom(id)
	if !ok {
		return nil, core.ErrNotJoined
	}
	return room, nil
}

func (o *Orchestrator) CursorMove(sid domain.ConnID, reviewID string, position json.RawMessage) error {
	room, err := o.joinedRoom(sid, reviewID)
	if err != nil {
		return err
	}
	return o.publish(room, sid, false, CursorUpdate{Type: TypeCursorUpdate, SocketID: sid, Position: position})
}

func (o *Orchestrator) SelectionChange(sid domain.ConnID, reviewID string, selection json.RawMessage) error {
	room, err := o.joinedRoom(sid, reviewID)
	if err != nil {
		return err
	}
	return o.publish(room, sid, false, SelectionUpdate{Type: TypeSelectionUpdate, SocketID: sid, Selection: selection})
}

func (o *Orchestrator) CodeChange(sid domain.ConnID, reviewID string, code, changes json.RawMessage) error {
	room, err := o.joinedRoom(sid, reviewID)
	if err != nil {
		return err
	}
	return o.publish(room, sid, false, CodeUpdate{Type: TypeCodeUpdate, SocketID: sid, Code: code, Changes: changes})
}

// AddComment reaches the sender too.
func (o *Orchestrator) AddComment(sid domain.ConnID, reviewID string, comment json.RawMessage) error {
	room, err := o.joinedRoom(sid, reviewID)
	if err != nil {
		return err
	}
	return o.publish(room, sid, true, NewComment{Type: TypeNewComment, Comment: comment})
}
