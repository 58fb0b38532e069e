package orch

import (
	"github.com/dkeye/CodeLens/internal/core"
	"github.com/dkeye/CodeLens/internal/domain"
	"github.com/goccy/go-json"
)

// Outbound message types.
const (
	TypeActiveUsers     = "active-users"
	TypeUserJoined      = "user-joined"
	TypeUserLeft        = "user-left"
	TypeCursorUpdate    = "cursor-update"
	TypeSelectionUpdate = "selection-update"
	TypeCodeUpdate      = "code-update"
	TypeNewComment      = "new-comment"
)

// JoinRequest is the join-review payload.
type JoinRequest struct {
	ReviewID string `json:"reviewId" validate:"required,max=128"`
	UserID   string `json:"userId" validate:"required,max=128"`
	Username string `json:"username" validate:"required,max=64"`
}

// ActiveUsers goes to a joiner only. Users holds everybody else in the room.
type ActiveUsers struct {
	Type  string              `json:"type"`
	Self  domain.ActiveUser   `json:"self"`
	Users []domain.ActiveUser `json:"users"`
}

type UserJoined struct {
	Type string `json:"type"`
	domain.ActiveUser
}

type UserLeft struct {
	Type     string        `json:"type"`
	SocketID domain.ConnID `json:"socketId"`
	UserID   domain.UserID `json:"userId"`
}

type CursorUpdate struct {
	Type     string          `json:"type"`
	SocketID domain.ConnID   `json:"socketId"`
	Position json.RawMessage `json:"position,omitempty"`
}

type SelectionUpdate struct {
	Type      string          `json:"type"`
	SocketID  domain.ConnID   `json:"socketId"`
	Selection json.RawMessage `json:"selection,omitempty"`
}

type CodeUpdate struct {
	Type     string          `json:"type"`
	SocketID domain.ConnID   `json:"socketId"`
	Code     json.RawMessage `json:"code,omitempty"`
	Changes  json.RawMessage `json:"changes,omitempty"`
}

type NewComment struct {
	Type    string          `json:"type"`
	Comment json.RawMessage `json:"comment,omitempty"`
}

func encode(v any) (core.Frame, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return core.Frame(b), nil
}
